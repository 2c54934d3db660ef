// Package session authenticates against the learning platform and resolves
// the media source behind each recording page.
//
// The web provider speaks plain HTTP: it signs in through the platform's
// login form, keeps the resulting cookies in a jar, and probes each recording
// page for a usable media locator. Probing follows a fixed fallback order:
// direct video elements, known embed iframes, player data attributes, and
// finally the page address itself with a referer hint for the downloader to
// resolve. Cookies are exported in Netscape format so the downloader can
// reuse the authenticated session.
package session

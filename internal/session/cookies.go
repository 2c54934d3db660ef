package session

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"lectern/internal/fileutil"
)

// sessionCookieLifetime replaces the missing expiry of session cookies so
// the downloader does not discard them as already expired.
const sessionCookieLifetime = 365 * 24 * time.Hour

var netscapeHeader = "# Netscape HTTP Cookie File\n" +
	"# https://curl.haxx.se/rfc/cookie_spec.html\n" +
	"# This is a generated file! Do not edit.\n\n"

// writeNetscapeCookies renders cookies in the tab-separated Netscape jar
// format and writes them atomically. Cookies without a domain inherit
// defaultDomain; every domain is normalized to its subdomain-matching
// dot-prefixed form.
func writeNetscapeCookies(path string, cookies []*http.Cookie, defaultDomain string, now time.Time) error {
	type row struct {
		domain string
		cookie *http.Cookie
	}

	rows := make([]row, 0, len(cookies))
	for _, cookie := range cookies {
		domain := cookie.Domain
		if domain == "" {
			domain = defaultDomain
		}
		if domain == "" {
			continue
		}
		if !strings.HasPrefix(domain, ".") {
			domain = "." + domain
		}
		rows = append(rows, row{domain: domain, cookie: cookie})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].domain != rows[j].domain {
			return rows[i].domain < rows[j].domain
		}
		return rows[i].cookie.Name < rows[j].cookie.Name
	})

	var b strings.Builder
	b.WriteString(netscapeHeader)
	for _, r := range rows {
		cookiePath := r.cookie.Path
		if cookiePath == "" {
			cookiePath = "/"
		}
		secure := "FALSE"
		if r.cookie.Secure {
			secure = "TRUE"
		}
		fmt.Fprintf(&b, "%s\tTRUE\t%s\t%s\t%d\t%s\t%s\n",
			r.domain, cookiePath, secure, cookieExpiry(r.cookie, now), r.cookie.Name, r.cookie.Value)
	}

	return fileutil.WriteFileAtomic(path, []byte(b.String()), 0o600)
}

// cookieExpiry maps a cookie's lifetime to a unix timestamp. Session cookies
// carry no expiry at all and are remapped one year out.
func cookieExpiry(cookie *http.Cookie, now time.Time) int64 {
	if cookie.MaxAge > 0 {
		return now.Add(time.Duration(cookie.MaxAge) * time.Second).Unix()
	}
	if !cookie.Expires.IsZero() && cookie.Expires.Unix() > 0 {
		return cookie.Expires.Unix()
	}
	return now.Add(sessionCookieLifetime).Unix()
}

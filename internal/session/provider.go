package session

import "context"

// Source is a resolved media location for one recording.
type Source struct {
	// Locator is either a direct media address or a page address the
	// downloader must resolve itself.
	Locator string
	// NeedsReferer signals the downloader must present the recording page
	// as referer; set when the locator is an indirect embed.
	NeedsReferer bool
	// Referer is the originating page address. Only meaningful when
	// NeedsReferer is set.
	Referer string
}

// Provider resolves media sources behind authenticated recording pages.
type Provider interface {
	// Login establishes an authenticated session. Calling it again on an
	// already-authenticated provider is a no-op.
	Login(ctx context.Context) error

	// ResolveMediaSource locates the media behind one recording number.
	ResolveMediaSource(ctx context.Context, num int) (Source, error)

	// ExportCookies writes the session cookies in Netscape format to path
	// for consumption by the downloader.
	ExportCookies(path string) error
}

package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"lectern/internal/logging"
	"lectern/internal/services"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxPageBytes caps how much of a recording page is read for probing.
const maxPageBytes = 4 << 20

// WebProvider implements Provider over plain HTTP with a cookie jar.
type WebProvider struct {
	baseURL  string
	loginURL string
	email    string
	password string

	client   *http.Client
	logger   *slog.Logger
	loggedIn bool

	// captured keeps full Set-Cookie state per domain/name pair; the jar
	// only exposes name and value, which is not enough for export.
	captured map[string]*http.Cookie
}

// Option adjusts provider construction.
type Option func(*WebProvider)

// WithHTTPClient substitutes the HTTP client. A cookie jar is attached when
// the client has none.
func WithHTTPClient(client *http.Client) Option {
	return func(p *WebProvider) {
		p.client = client
	}
}

// NewWebProvider builds a provider for the given platform endpoints. The
// timeout bounds every individual request.
func NewWebProvider(baseURL, loginURL, email, password string, timeout time.Duration, logger *slog.Logger, opts ...Option) (*WebProvider, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "session", "new", "base URL is empty", nil)
	}
	if strings.TrimSpace(loginURL) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "session", "new", "login URL is empty", nil)
	}

	provider := &WebProvider{
		baseURL:  strings.TrimRight(baseURL, "/"),
		loginURL: loginURL,
		email:    email,
		password: password,
		logger:   logging.NewComponentLogger(logger, "session"),
		captured: make(map[string]*http.Cookie),
	}
	for _, opt := range opts {
		opt(provider)
	}

	if provider.client == nil {
		provider.client = &http.Client{Timeout: timeout}
	}
	if provider.client.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, services.Wrap(services.ErrEnvironment, "session", "new", "create cookie jar", err)
		}
		provider.client.Jar = jar
	}

	return provider, nil
}

// Login signs in through the platform's form endpoint. The session is
// considered established once a request to the login page lands somewhere
// other than the login form.
func (p *WebProvider) Login(ctx context.Context) error {
	if p.loggedIn {
		return nil
	}

	page, finalURL, err := p.fetch(ctx, p.loginURL, "")
	if err != nil {
		return services.Wrap(services.ErrResolution, "session", "login", "fetch login page", err)
	}
	if !isLoginPage(finalURL) {
		// Cookies from a prior run are still valid.
		p.logger.Info("existing session still valid")
		p.loggedIn = true
		return nil
	}

	form := url.Values{
		"user[login]":    {p.email},
		"user[password]": {p.password},
	}
	if token := findAuthenticityToken(page); token != "" {
		form.Set("authenticity_token", token)
	}

	finalURL, err = p.submitForm(ctx, p.loginURL, form)
	if err != nil {
		return services.Wrap(services.ErrResolution, "session", "login", "submit login form", err)
	}
	if isLoginPage(finalURL) {
		return services.Wrap(services.ErrConfiguration, "session", "login", "credentials rejected by platform", nil)
	}

	p.logger.Info("login succeeded", logging.String("landed_on", finalURL))
	p.loggedIn = true
	return nil
}

// ResolveMediaSource fetches the recording page and probes it for a media
// locator. Each probe either yields a source or explicitly passes to the
// next; the page address with a referer hint is the terminal fallback, so a
// successfully fetched page always resolves.
func (p *WebProvider) ResolveMediaSource(ctx context.Context, num int) (Source, error) {
	pageURL := p.baseURL + "/" + strconv.Itoa(num)

	body, _, err := p.fetch(ctx, pageURL, "")
	if err != nil {
		return Source{}, services.Wrap(services.ErrResolution, "session", "resolve",
			fmt.Sprintf("fetch recording page %d", num), err)
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return Source{}, services.Wrap(services.ErrResolution, "session", "resolve",
			fmt.Sprintf("parse recording page %d", num), err)
	}

	if src, ok := findVideoElementSource(doc); ok {
		p.logger.Debug("resolved via video element", logging.Recording(num))
		return Source{Locator: p.absolute(pageURL, src)}, nil
	}
	if source, ok := findEmbedIframe(doc, pageURL); ok {
		p.logger.Debug("resolved via embed iframe", logging.Recording(num))
		source.Locator = p.absolute(pageURL, source.Locator)
		return source, nil
	}
	if src, ok := findPlayerDataAttribute(doc); ok {
		p.logger.Debug("resolved via player data attribute", logging.Recording(num))
		return Source{Locator: p.absolute(pageURL, src)}, nil
	}

	p.logger.Debug("no direct media source, falling back to page address", logging.Recording(num))
	return Source{Locator: pageURL, NeedsReferer: true, Referer: pageURL}, nil
}

// ExportCookies writes every captured cookie in Netscape format.
func (p *WebProvider) ExportCookies(path string) error {
	cookies := make([]*http.Cookie, 0, len(p.captured))
	for _, cookie := range p.captured {
		cookies = append(cookies, cookie)
	}
	if err := writeNetscapeCookies(path, cookies, p.defaultDomain(), time.Now()); err != nil {
		return services.Wrap(services.ErrEnvironment, "session", "export cookies", path, err)
	}
	p.logger.Debug("exported cookies", logging.String("path", path), logging.Int("count", len(cookies)))
	return nil
}

func (p *WebProvider) defaultDomain() string {
	parsed, err := url.Parse(p.baseURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

// fetch issues a GET and returns the body plus the final URL after any
// redirects.
func (p *WebProvider) fetch(ctx context.Context, target, referer string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	p.rememberCookies(resp)

	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", "", fmt.Errorf("GET %s returned %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", "", fmt.Errorf("read response body: %w", err)
	}
	return string(body), resp.Request.URL.String(), nil
}

func (p *WebProvider) submitForm(ctx context.Context, target string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	p.rememberCookies(resp)
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("POST %s returned %d", target, resp.StatusCode)
	}
	return resp.Request.URL.String(), nil
}

func (p *WebProvider) rememberCookies(resp *http.Response) {
	for _, cookie := range resp.Cookies() {
		domain := cookie.Domain
		if domain == "" {
			domain = resp.Request.URL.Hostname()
		}
		p.captured[domain+"\x00"+cookie.Name] = cookie
	}
}

// absolute resolves src against the page it was found on; locators already
// absolute pass through unchanged.
func (p *WebProvider) absolute(pageURL, src string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return src
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	return base.ResolveReference(ref).String()
}

func isLoginPage(target string) bool {
	parsed, err := url.Parse(target)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(parsed.Path), "login")
}

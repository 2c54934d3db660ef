package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lectern/internal/logging"
	"lectern/internal/services"
)

// platformStub simulates the login form and recording pages.
type platformStub struct {
	mux       *http.ServeMux
	server    *httptest.Server
	pages     map[int]string
	loginSeen map[string]string
}

func newPlatformStub(t *testing.T) *platformStub {
	t.Helper()
	stub := &platformStub{
		mux:       http.NewServeMux(),
		pages:     make(map[int]string),
		loginSeen: make(map[string]string),
	}

	stub.mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `<html><body><form action="/login" method="post">`+
				`<input type="hidden" name="authenticity_token" value="tok-123">`+
				`<input name="user[login]"><input name="user[password]">`+
				`</form></body></html>`)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for key, values := range r.PostForm {
			stub.loginSeen[key] = values[0]
		}
		if r.PostFormValue("user[password]") != "secret" {
			// Platform re-renders the form on bad credentials.
			fmt.Fprint(w, `<html><body>invalid login</body></html>`)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "_session", Value: "abc", Path: "/"})
		http.Redirect(w, r, "/home", http.StatusFound)
	})
	stub.mux.HandleFunc("/home", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html><body>welcome</body></html>")
	})
	stub.mux.HandleFunc("/recordings/", func(w http.ResponseWriter, r *http.Request) {
		var num int
		if _, err := fmt.Sscanf(r.URL.Path, "/recordings/%d", &num); err != nil {
			http.NotFound(w, r)
			return
		}
		page, ok := stub.pages[num]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, page)
	})

	stub.server = httptest.NewServer(stub.mux)
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *platformStub) provider(t *testing.T, password string) *WebProvider {
	t.Helper()
	provider, err := NewWebProvider(
		s.server.URL+"/recordings",
		s.server.URL+"/login",
		"student@example.net",
		password,
		10*time.Second,
		logging.NewNop(),
	)
	if err != nil {
		t.Fatalf("NewWebProvider: %v", err)
	}
	return provider
}

func TestLoginSubmitsFormWithToken(t *testing.T) {
	stub := newPlatformStub(t)
	provider := stub.provider(t, "secret")

	if err := provider.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if stub.loginSeen["user[login]"] != "student@example.net" {
		t.Errorf("login field = %q", stub.loginSeen["user[login]"])
	}
	if stub.loginSeen["authenticity_token"] != "tok-123" {
		t.Errorf("authenticity_token = %q, want tok-123", stub.loginSeen["authenticity_token"])
	}
}

func TestLoginRejectedCredentials(t *testing.T) {
	stub := newPlatformStub(t)
	provider := stub.provider(t, "wrong")

	err := provider.Login(context.Background())
	if err == nil {
		t.Fatal("expected login failure")
	}
	if !services.Fatal(err) {
		t.Errorf("rejected credentials must be fatal, got %v", err)
	}
}

func TestResolvePrefersVideoElement(t *testing.T) {
	stub := newPlatformStub(t)
	stub.pages[3] = `<html><body>
		<video><source src="https://cdn.example.net/rec3.mp4"></video>
		<iframe src="https://player.vimeo.com/video/3"></iframe>
	</body></html>`
	provider := stub.provider(t, "secret")

	source, err := provider.ResolveMediaSource(context.Background(), 3)
	if err != nil {
		t.Fatalf("ResolveMediaSource: %v", err)
	}
	if source.Locator != "https://cdn.example.net/rec3.mp4" {
		t.Errorf("locator = %q", source.Locator)
	}
	if source.NeedsReferer {
		t.Error("direct media address must not need a referer")
	}
}

func TestResolveVimeoEmbedUsesPageWithReferer(t *testing.T) {
	stub := newPlatformStub(t)
	stub.pages[4] = `<html><body>
		<iframe src="https://player.vimeo.com/video/4"></iframe>
	</body></html>`
	provider := stub.provider(t, "secret")

	source, err := provider.ResolveMediaSource(context.Background(), 4)
	if err != nil {
		t.Fatalf("ResolveMediaSource: %v", err)
	}
	wantPage := stub.server.URL + "/recordings/4"
	if source.Locator != wantPage {
		t.Errorf("locator = %q, want page %q", source.Locator, wantPage)
	}
	if !source.NeedsReferer || source.Referer != wantPage {
		t.Errorf("vimeo embed must carry the page as referer, got %+v", source)
	}
}

func TestResolveNonVimeoEmbedUsesIframeAddress(t *testing.T) {
	stub := newPlatformStub(t)
	stub.pages[5] = `<html><body>
		<iframe src="https://fast.wistia.net/embed/iframe/xyz"></iframe>
	</body></html>`
	provider := stub.provider(t, "secret")

	source, err := provider.ResolveMediaSource(context.Background(), 5)
	if err != nil {
		t.Fatalf("ResolveMediaSource: %v", err)
	}
	if source.Locator != "https://fast.wistia.net/embed/iframe/xyz" {
		t.Errorf("locator = %q", source.Locator)
	}
	if source.NeedsReferer {
		t.Error("iframe address must not need a referer")
	}
}

func TestResolveDataAttribute(t *testing.T) {
	stub := newPlatformStub(t)
	stub.pages[6] = `<html><body>
		<div class="video-player" data-video-url="https://cdn.example.net/rec6.m3u8"></div>
	</body></html>`
	provider := stub.provider(t, "secret")

	source, err := provider.ResolveMediaSource(context.Background(), 6)
	if err != nil {
		t.Fatalf("ResolveMediaSource: %v", err)
	}
	if source.Locator != "https://cdn.example.net/rec6.m3u8" {
		t.Errorf("locator = %q", source.Locator)
	}
}

func TestResolveFallsBackToPageAddress(t *testing.T) {
	stub := newPlatformStub(t)
	stub.pages[7] = `<html><body><p>player loads via script</p></body></html>`
	provider := stub.provider(t, "secret")

	source, err := provider.ResolveMediaSource(context.Background(), 7)
	if err != nil {
		t.Fatalf("ResolveMediaSource: %v", err)
	}
	wantPage := stub.server.URL + "/recordings/7"
	if source.Locator != wantPage || !source.NeedsReferer {
		t.Errorf("fallback must be the page with referer, got %+v", source)
	}
}

func TestResolveRelativeSourceIsAbsolutized(t *testing.T) {
	stub := newPlatformStub(t)
	stub.pages[8] = `<html><body><video src="/media/rec8.mp4"></video></body></html>`
	provider := stub.provider(t, "secret")

	source, err := provider.ResolveMediaSource(context.Background(), 8)
	if err != nil {
		t.Fatalf("ResolveMediaSource: %v", err)
	}
	if want := stub.server.URL + "/media/rec8.mp4"; source.Locator != want {
		t.Errorf("locator = %q, want %q", source.Locator, want)
	}
}

func TestResolveMissingPageFails(t *testing.T) {
	stub := newPlatformStub(t)
	provider := stub.provider(t, "secret")

	_, err := provider.ResolveMediaSource(context.Background(), 99)
	if err == nil {
		t.Fatal("expected an error for a missing recording page")
	}
	if !errors.Is(err, services.ErrResolution) {
		t.Errorf("error should carry the resolution marker, got %v", err)
	}
	if services.Fatal(err) {
		t.Error("a single unresolved recording must not abort the run")
	}
}

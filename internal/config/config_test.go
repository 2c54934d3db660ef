package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lectern/internal/config"
)

func TestLoadDefaultsExpandPathsAndReadEnvCredentials(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("LECTERN_EMAIL", "student@example.net")
	t.Setenv("LECTERN_PASSWORD", "hunter2")
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(oldWd) })

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantOutput := filepath.Join(tempHome, "lectern", "recordings")
	if cfg.Paths.OutputDir != wantOutput {
		t.Fatalf("unexpected output dir: got %q want %q", cfg.Paths.OutputDir, wantOutput)
	}
	if cfg.Paths.LogDir != filepath.Join(tempHome, ".local", "share", "lectern", "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Session.Email != "student@example.net" {
		t.Fatalf("expected email from env, got %q", cfg.Session.Email)
	}
	if cfg.Session.Password != "hunter2" {
		t.Fatalf("expected password from env")
	}
	if cfg.Downloader.Binary != "yt-dlp" || cfg.Downloader.Retries != 3 {
		t.Fatalf("unexpected downloader defaults: %+v", cfg.Downloader)
	}
	if cfg.Merge.Binary != "ffmpeg" || cfg.Merge.MinOutputBytes != 1_000_000 {
		t.Fatalf("unexpected merge defaults: %+v", cfg.Merge)
	}
	if !cfg.SourceCache.Enabled || cfg.SourceCache.TTLHours != 6 {
		t.Fatalf("unexpected source cache defaults: %+v", cfg.SourceCache)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.LogDir} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
	}
	if got := cfg.CookieFilePath(); filepath.Dir(got) != cfg.Paths.LogDir {
		t.Fatalf("cookie file should live in log dir, got %q", got)
	}
}

func TestLoadExplicitFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lectern.toml")
	body := `
[paths]
output_dir = "` + filepath.Join(dir, "media") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[session]
base_url = "https://campus.example.edu/courses/go-101/recordings/"

[downloader]
timeout = 120

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected explicit file to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Session.BaseURL != "https://campus.example.edu/courses/go-101/recordings" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Session.BaseURL)
	}
	if cfg.Session.LoginURL != "https://campus.example.edu/login" {
		t.Fatalf("expected derived login URL, got %q", cfg.Session.LoginURL)
	}
	if cfg.Downloader.Timeout != 120 {
		t.Fatalf("unexpected downloader timeout: %d", cfg.Downloader.Timeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "bad base url",
			body: "[session]\nbase_url = \"ftp://example.com/recordings\"\n",
			want: "session.base_url",
		},
		{
			name: "bad log format",
			body: "[logging]\nformat = \"yaml\"\n",
			want: "logging.format",
		},
		{
			name: "bad log level",
			body: "[logging]\nlevel = \"verbose\"\n",
			want: "logging.level",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "lectern.toml")
			if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestRequireCredentials(t *testing.T) {
	t.Setenv("LECTERN_EMAIL", "")
	t.Setenv("LECTERN_PASSWORD", "")

	cfg := config.Default()
	if err := cfg.RequireCredentials(); err == nil {
		t.Fatal("expected error for empty credentials")
	}

	cfg.Session.Email = "your_email@example.com"
	cfg.Session.Password = "secret"
	if err := cfg.RequireCredentials(); err == nil {
		t.Fatal("expected error for placeholder email")
	}

	cfg.Session.Email = "student@example.net"
	if err := cfg.RequireCredentials(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Merge.AudioBitrate != "192k" {
		t.Fatalf("unexpected audio bitrate from sample: %q", cfg.Merge.AudioBitrate)
	}
}

package ytdlp_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"lectern/internal/services/ytdlp"
)

type captureExecutor struct {
	binary string
	args   []string
	err    error
}

func (c *captureExecutor) Run(_ context.Context, binary string, args []string, _ func(string)) error {
	c.binary = binary
	c.args = args
	return c.err
}

func TestDownloadArgumentShape(t *testing.T) {
	capture := &captureExecutor{}
	client, err := ytdlp.New("yt-dlp", 3600, 3, ytdlp.WithExecutor(capture))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	req := ytdlp.Request{
		Locator:    "https://cdn.example.net/stream.m3u8",
		CookieFile: "/logs/cookies.txt",
		OutputDir:  "/out",
		Number:     5,
	}
	if err := client.Download(context.Background(), req, nil); err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	got := strings.Join(capture.args, " ")
	want := "--cookies /logs/cookies.txt" +
		" -o " + filepath.Join("/out", "Recording_05.%(ext)s") +
		" --progress --newline -f bv*+ba/b --merge-output-format mp4 --retries 3" +
		" https://cdn.example.net/stream.m3u8"
	if got != want {
		t.Fatalf("argument mismatch:\n got  %q\n want %q", got, want)
	}
}

func TestDownloadAddsRefererForEmbeds(t *testing.T) {
	capture := &captureExecutor{}
	client, err := ytdlp.New("yt-dlp", 0, 3, ytdlp.WithExecutor(capture))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	req := ytdlp.Request{
		Locator:    "https://campus.example.edu/recordings/7",
		Referer:    "https://campus.example.edu/recordings/7",
		CookieFile: "/logs/cookies.txt",
		OutputDir:  "/out",
		Number:     7,
	}
	if err := client.Download(context.Background(), req, nil); err != nil {
		t.Fatalf("Download failed: %v", err)
	}

	joined := strings.Join(capture.args, " ")
	if !strings.Contains(joined, "--referer https://campus.example.edu/recordings/7") {
		t.Fatalf("expected referer flag, got %q", joined)
	}
	if !strings.HasSuffix(joined, "https://campus.example.edu/recordings/7") {
		t.Fatalf("locator must be the final argument, got %q", joined)
	}
}

func TestDownloadPropagatesExitError(t *testing.T) {
	toolErr := errors.New("exit status 2")
	client, err := ytdlp.New("yt-dlp", 0, 0, ytdlp.WithExecutor(&captureExecutor{err: toolErr}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	req := ytdlp.Request{Locator: "https://x", CookieFile: "c", OutputDir: "/out", Number: 1}
	if err := client.Download(context.Background(), req, nil); !errors.Is(err, toolErr) {
		t.Fatalf("expected wrapped tool error, got %v", err)
	}
}

func TestDownloadValidatesRequest(t *testing.T) {
	client, err := ytdlp.New("yt-dlp", 0, 0, ytdlp.WithExecutor(&captureExecutor{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := client.Download(context.Background(), ytdlp.Request{OutputDir: "/out"}, nil); err == nil {
		t.Fatal("expected error for empty locator")
	}
	if err := client.Download(context.Background(), ytdlp.Request{Locator: "https://x"}, nil); err == nil {
		t.Fatal("expected error for empty output dir")
	}
}

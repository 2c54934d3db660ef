package ytdlp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"lectern/internal/media"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onOutput func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary  string
	timeout time.Duration
	retries int
	exec    Executor
}

// New constructs a yt-dlp client. retries is the tool's internal retry count
// per fragment, not a re-invocation count.
func New(binary string, timeoutSeconds, retries int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	if retries < 0 {
		retries = 0
	}
	client := &Client{
		binary:  binary,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		retries: retries,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Request names one recording download.
type Request struct {
	// Locator is either a direct media address or a page address the tool
	// resolves itself.
	Locator string
	// Referer, when non-empty, is presented as the originating page for
	// embed-only media.
	Referer string
	// CookieFile is a Netscape-format cookie jar.
	CookieFile string
	// OutputDir receives the downloaded file(s).
	OutputDir string
	Number    int
}

// Download fetches one recording. Quality policy prefers best available
// video+audio with automatic muxing to mp4 when the tool can; split
// fragments are left for the merge executor. Exit code 0 is the only
// success signal.
func (c *Client) Download(ctx context.Context, req Request, onOutput func(string)) error {
	if strings.TrimSpace(req.Locator) == "" {
		return errors.New("download requires a locator")
	}
	if req.OutputDir == "" {
		return errors.New("download requires an output directory")
	}

	dlCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		dlCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.exec.Run(dlCtx, c.binary, c.downloadArgs(req), onOutput); err != nil {
		return fmt.Errorf("yt-dlp download: %w", err)
	}
	return nil
}

func (c *Client) downloadArgs(req Request) []string {
	args := []string{
		"--cookies", req.CookieFile,
		"-o", filepath.Join(req.OutputDir, media.OutputTemplate(req.Number)),
		"--progress",
		"--newline",
		"-f", "bv*+ba/b",
		"--merge-output-format", "mp4",
		"--retries", strconv.Itoa(c.retries),
	}
	if req.Referer != "" {
		args = append(args, "--referer", req.Referer)
	}
	return append(args, req.Locator)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	forward := func(line string) {
		if onOutput != nil {
			onOutput(line)
			return
		}
		fmt.Fprintln(os.Stderr, line)
	}
	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			forward(scanner.Text())
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}

package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
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

// Client wraps ffmpeg CLI interactions for fragment merging.
type Client struct {
	binary       string
	timeout      time.Duration
	audioBitrate string
	exec         Executor
}

// New constructs an ffmpeg client.
func New(binary string, timeoutSeconds int, audioBitrate string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	audioBitrate = strings.TrimSpace(audioBitrate)
	if audioBitrate == "" {
		audioBitrate = "192k"
	}
	client := &Client{
		binary:       binary,
		timeout:      time.Duration(timeoutSeconds) * time.Second,
		audioBitrate: audioBitrate,
		exec:         commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// MergeRequest names the inputs and destination of one merge.
type MergeRequest struct {
	VideoPath  string
	AudioPath  string
	OutputPath string
}

// Merge combines a video fragment and an audio fragment into OutputPath:
// video stream copied without re-encoding, audio re-encoded to AAC at the
// configured bitrate, output truncated to the shorter input and laid out for
// progressive playback. An existing destination is overwritten. A nonzero
// exit surfaces as an error; the caller owns all filesystem consequences.
func (c *Client) Merge(ctx context.Context, req MergeRequest, onOutput func(string)) error {
	if req.VideoPath == "" || req.AudioPath == "" || req.OutputPath == "" {
		return errors.New("merge requires video, audio, and output paths")
	}

	mergeCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		mergeCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.exec.Run(mergeCtx, c.binary, c.mergeArgs(req), onOutput); err != nil {
		return fmt.Errorf("ffmpeg merge: %w", err)
	}
	return nil
}

func (c *Client) mergeArgs(req MergeRequest) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", req.VideoPath,
		"-i", req.AudioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", c.audioBitrate,
		"-strict", "experimental",
		"-shortest",
		"-movflags", "+faststart",
		req.OutputPath,
	}
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

package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"squeeze/internal/services"
)

// DownloadError reports a failed yt-dlp invocation.
type DownloadError struct {
	ExitCode int
	Err      error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed (exit code %d): %v", e.ExitCode, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Downloader defines the behaviour the job controller needs.
type Downloader interface {
	Download(ctx context.Context, url, destDir string, onLine services.LineSink) (string, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps the yt-dlp command-line downloader.
type Client struct {
	binary         string
	format         string
	outputTemplate string
	timeout        time.Duration
	exec           services.Executor
}

// New constructs a yt-dlp client.
func New(binary, format, outputTemplate string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &Client{
		binary:         binary,
		format:         strings.TrimSpace(format),
		outputTemplate: strings.TrimSpace(outputTemplate),
		timeout:        time.Duration(timeoutSeconds) * time.Second,
		exec:           services.CommandExecutor{},
	}
	if client.outputTemplate == "" {
		client.outputTemplate = "%(title)s.%(ext)s"
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Download fetches url into destDir and returns the downloaded file path.
// Output lines stream to the sink as they arrive; the destination path is
// parsed from them, with a newest-file scan over destDir as fallback.
func (c *Client) Download(ctx context.Context, url, destDir string, onLine services.LineSink) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", services.Wrap(services.ErrValidation, "download", "", "url required", nil)
	}
	if strings.TrimSpace(destDir) == "" {
		return "", services.Wrap(services.ErrValidation, "download", "", "destination directory required", nil)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create destination: %w", err)
	}

	args := []string{
		"--newline",
		"--no-playlist",
		"-o", filepath.Join(destDir, c.outputTemplate),
		"--merge-output-format", "mp4",
	}
	if c.format != "" {
		args = append(args, "-f", c.format)
	}
	args = append(args, url)

	dlCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		dlCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := time.Now()
	var destination string
	err := c.exec.Run(dlCtx, c.binary, args, func(line string) {
		if parsed := parseDestination(line); parsed != "" {
			destination = parsed
		}
		if onLine != nil {
			onLine(line)
		}
	})
	if err != nil {
		if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return "", err
		}
		if errors.Is(err, exec.ErrNotFound) {
			return "", services.Wrap(services.ErrConfiguration, "download", "", fmt.Sprintf("binary %q not found", c.binary), err)
		}
		return "", &DownloadError{ExitCode: services.ExitCode(err), Err: err}
	}

	if destination != "" {
		if _, statErr := os.Stat(destination); statErr == nil {
			return destination, nil
		}
	}

	// yt-dlp renamed or post-processed the file without telling us; take
	// the newest media file written since the download began.
	fallback, scanErr := newestMediaFile(destDir, started)
	if scanErr != nil {
		return "", fmt.Errorf("locate download: %w", scanErr)
	}
	if fallback == "" {
		return "", services.Wrap(services.ErrNotFound, "download", "", "yt-dlp produced no output file", nil)
	}
	return fallback, nil
}

// parseDestination extracts the output path from yt-dlp's progress lines.
// Merged downloads report the final path on the [Merger] line; plain ones
// on the [download] Destination line.
func parseDestination(line string) string {
	line = strings.TrimSpace(line)
	if after, ok := strings.CutPrefix(line, "[Merger] Merging formats into \""); ok {
		return strings.TrimSuffix(after, "\"")
	}
	if after, ok := strings.CutPrefix(line, "[download] Destination: "); ok {
		return strings.TrimSpace(after)
	}
	if after, ok := strings.CutPrefix(line, "[download] "); ok {
		if name, found := strings.CutSuffix(after, " has already been downloaded"); found {
			return strings.TrimSpace(name)
		}
	}
	return ""
}

var mediaExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".webm": {},
	".avi":  {},
	".mov":  {},
}

func newestMediaFile(dir string, since time.Time) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	var newest string
	var newestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := mediaExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(since) {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(dir, entry.Name())
			newestMod = info.ModTime()
		}
	}
	return newest, nil
}

var _ Downloader = (*Client)(nil)

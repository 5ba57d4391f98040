package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"squeeze/internal/plan"
	"squeeze/internal/services"
)

// Request describes one encode invocation target.
type Request struct {
	InputPath   string
	OutputPath  string
	ScaleFilter string
}

// PassFunc is notified just before each pass of a two-pass encode starts.
type PassFunc func(pass int)

// Encoder defines the behaviour the job controller needs.
type Encoder interface {
	EncodePreset(ctx context.Context, req Request, preset plan.PresetConfig, audioKbps int, onLine services.LineSink) error
	EncodeTwoPass(ctx context.Context, req Request, bitrate plan.BitratePlan, speed string, onLine services.LineSink, onPass PassFunc) error
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

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary     string
	scratchDir string
	timeout    time.Duration
	exec       services.Executor
}

// New constructs an ffmpeg client. The scratch directory receives two-pass
// analysis logs and must be writable.
func New(binary, scratchDir string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	scratchDir = strings.TrimSpace(scratchDir)
	if scratchDir == "" {
		return nil, errors.New("scratch directory required")
	}
	client := &Client{
		binary:     binary,
		scratchDir: scratchDir,
		timeout:    time.Duration(timeoutSeconds) * time.Second,
		exec:       services.CommandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// EncodePreset runs exactly one invocation with the preset's fixed bundle.
func (c *Client) EncodePreset(ctx context.Context, req Request, preset plan.PresetConfig, audioKbps int, onLine services.LineSink) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	if err := c.run(ctx, presetArgs(req, preset, audioKbps), onLine); err != nil {
		if ctxDone(ctx, err) {
			return err
		}
		return c.classify(0, err)
	}
	return nil
}

// EncodeTwoPass runs the analysis pass and then the encode pass against the
// same source. Pass 2 never runs when pass 1 fails. The shared analysis
// statistics are removed on every path.
func (c *Client) EncodeTwoPass(ctx context.Context, req Request, bitrate plan.BitratePlan, speed string, onLine services.LineSink, onPass PassFunc) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	if bitrate.VideoKbps < 1 {
		return services.Wrap(services.ErrValidation, "encode", "", fmt.Sprintf("video bitrate %d kbps below floor", bitrate.VideoKbps), nil)
	}

	scratch, err := os.MkdirTemp(c.scratchDir, "twopass-")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() { _ = CleanupScratch(scratch) }()
	passLogPrefix := filepath.Join(scratch, "passlog")

	for pass := 1; pass <= 2; pass++ {
		if onPass != nil {
			onPass(pass)
		}
		if err := c.run(ctx, passArgs(req, bitrate, speed, passLogPrefix, pass), onLine); err != nil {
			if ctxDone(ctx, err) {
				return err
			}
			return c.classify(pass, err)
		}
	}
	return nil
}

// classify separates a binary that could not be started from a failed
// encode. The former is a configuration problem, not a tool failure.
func (c *Client) classify(pass int, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return services.Wrap(services.ErrConfiguration, "encode", "", fmt.Sprintf("binary %q not found", c.binary), err)
	}
	return &EncodeError{Pass: pass, ExitCode: services.ExitCode(err), Err: err}
}

func (c *Client) run(ctx context.Context, args []string, onLine services.LineSink) error {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.exec.Run(runCtx, c.binary, args, onLine)
}

// CleanupScratch removes the scratch directory holding two-pass analysis
// statistics. It is idempotent: a missing directory is not an error.
func CleanupScratch(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove scratch %s: %w", dir, err)
	}
	return nil
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.InputPath) == "" {
		return services.Wrap(services.ErrValidation, "encode", "", "input path required", nil)
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return services.Wrap(services.ErrValidation, "encode", "", "output path required", nil)
	}
	return nil
}

func ctxDone(ctx context.Context, err error) bool {
	return ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded))
}

var _ Encoder = (*Client)(nil)

package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"squeeze/internal/services"
)

var commandOutput = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, binary, args...).Output() //nolint:gosec
}

// Info holds the probed properties squeeze cares about.
type Info struct {
	Path            string
	DurationSeconds float64
	Width           int
	Height          int
	BitrateKbps     int
	SizeMB          float64
}

// Prober inspects media files.
type Prober interface {
	Probe(ctx context.Context, path string) (*Info, error)
}

// CLI wraps the ffprobe binary.
type CLI struct {
	binary string
}

// NewCLI constructs an ffprobe client. An empty binary falls back to
// "ffprobe" from PATH.
func NewCLI(binary string) *CLI {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &CLI{binary: binary}
}

// Probe runs a single ffprobe JSON call against path.
func (c *CLI) Probe(ctx context.Context, path string) (*Info, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrValidation, "probe", "", "path required", nil)
	}
	out, err := commandOutput(ctx, c.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, services.Wrap(services.ErrConfiguration, "probe", "", fmt.Sprintf("binary %q not found", c.binary), err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "probe", "", fmt.Sprintf("ffprobe %q failed", path), err)
	}
	info, err := ParseJSON(out)
	if err != nil {
		return nil, err
	}
	info.Path = path
	return info, nil
}

// ParseJSON converts raw ffprobe JSON output into an Info. Exported for
// testing without a real ffprobe binary.
func ParseJSON(data []byte) (*Info, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	return buildInfo(&raw)
}

// ffprobe JSON wire types.

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
	Size     string `json:"size"`
	BitRate  string `json:"bit_rate"`
}

type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	BitRate   string `json:"bit_rate"`
}

func buildInfo(raw *ffprobeOutput) (*Info, error) {
	var video *ffprobeStream
	for i := range raw.Streams {
		if raw.Streams[i].CodecType == "video" {
			video = &raw.Streams[i]
			break
		}
	}
	if video == nil {
		return nil, services.Wrap(services.ErrValidation, "probe", "", "no video stream found", nil)
	}

	info := &Info{
		DurationSeconds: parseFloat(raw.Format.Duration),
		Width:           video.Width,
		Height:          video.Height,
		SizeMB:          float64(parseInt64(raw.Format.Size)) / (1024 * 1024),
	}

	// Stream bitrate when present, container average otherwise.
	bitrate := parseInt64(video.BitRate)
	if bitrate == 0 {
		bitrate = parseInt64(raw.Format.BitRate)
	}
	info.BitrateKbps = int(bitrate / 1000)

	return info, nil
}

func parseFloat(value string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt64(value string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

var _ Prober = (*CLI)(nil)

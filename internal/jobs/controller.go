// Package jobs coordinates downloads and encodes end to end: it owns the
// single-instance lock, assigns job identifiers, drives the external tool
// clients, and records every outcome in the history journal.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"squeeze/internal/config"
	"squeeze/internal/fileutil"
	"squeeze/internal/history"
	"squeeze/internal/logging"
	"squeeze/internal/media"
	"squeeze/internal/plan"
	"squeeze/internal/services"
	"squeeze/internal/services/ffmpeg"
	"squeeze/internal/services/ytdlp"
	"squeeze/internal/textutil"
)

// copySlackMB is how far under the target a source must already be before
// the encode is skipped and the file copied through unchanged.
const copySlackMB = 0.2

// Mode names how the output was produced.
type Mode string

const (
	ModePreset  Mode = "preset"
	ModeTwoPass Mode = "two-pass"
	ModeCopy    Mode = "copy"
)

// Deps bundles the external tool clients. Zero fields are filled in from
// the configuration; tests inject stubs.
type Deps struct {
	Prober     media.Prober
	Encoder    ffmpeg.Encoder
	Downloader ytdlp.Downloader
}

// Controller runs compression and download jobs one at a time.
type Controller struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *history.Store
	prober     media.Prober
	encoder    ffmpeg.Encoder
	downloader ytdlp.Downloader
	lockPath   string
	lock       *flock.Flock
}

// NewController wires a controller from configuration, filling any client
// left nil in deps with the real CLI implementation.
func NewController(cfg *config.Config, logger *slog.Logger, store *history.Store, deps Deps) (*Controller, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "jobs", "new", "configuration required", nil)
	}
	if store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "jobs", "new", "history store required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "squeeze.lock")
	c := &Controller{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "jobs"),
		store:      store,
		prober:     deps.Prober,
		encoder:    deps.Encoder,
		downloader: deps.Downloader,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	if c.prober == nil {
		c.prober = media.NewCLI(cfg.Encoder.FFprobeBinary)
	}
	if c.encoder == nil {
		encoder, err := ffmpeg.New(cfg.Encoder.FFmpegBinary, cfg.Paths.ScratchDir, cfg.Encoder.TimeoutSeconds)
		if err != nil {
			return nil, err
		}
		c.encoder = encoder
	}
	if c.downloader == nil {
		downloader, err := ytdlp.New(cfg.Downloader.Binary, cfg.Downloader.Format, cfg.Downloader.OutputTemplate, cfg.Downloader.TimeoutSeconds)
		if err != nil {
			return nil, err
		}
		c.downloader = downloader
	}
	return c, nil
}

// CompressOptions selects the input and the compression mode. TargetMB > 0
// picks the two-pass size-targeted encode; otherwise Preset applies.
// OnLine, when set, receives every subprocess output line as it arrives.
type CompressOptions struct {
	InputPath  string
	Preset     string
	TargetMB   float64
	OutputPath string
	OnLine     services.LineSink
}

// CompressResult reports what a finished compress job produced.
type CompressResult struct {
	JobID           string
	InputPath       string
	OutputPath      string
	Mode            Mode
	Preset          plan.Preset
	Bitrate         plan.BitratePlan
	DurationSeconds float64
	InputSizeMB     float64
	OutputSizeMB    float64
}

// RunCompress executes a single compress job under the instance lock.
func (c *Controller) RunCompress(ctx context.Context, opts CompressOptions) (*CompressResult, error) {
	unlock, err := c.acquire()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return c.compressLocked(ctx, opts)
}

func (c *Controller) compressLocked(ctx context.Context, opts CompressOptions) (*CompressResult, error) {
	preset, err := resolvePreset(opts)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(opts.InputPath); err != nil {
		return nil, services.Wrap(services.ErrNotFound, "compress", "stat", fmt.Sprintf("input file %s", opts.InputPath), err)
	}

	jobID := uuid.NewString()
	ctx = services.WithJobID(ctx, jobID)
	logger := c.logger.With(logging.FieldJobID, jobID)

	job, err := c.store.NewJob(ctx, &history.Job{
		JobID:      jobID,
		Kind:       history.KindCompress,
		SourcePath: opts.InputPath,
		Preset:     string(preset),
		TargetMB:   opts.TargetMB,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "compress", "journal", "record job", err)
	}

	result, err := c.compress(ctx, logger, job, opts, preset)
	if err != nil {
		if ferr := c.store.MarkFailed(ctx, job.ID, err.Error()); ferr != nil {
			logger.Warn("failed to journal job failure", logging.Args(logging.Error(ferr))...)
		}
		return nil, err
	}
	if err := c.store.MarkCompleted(ctx, job.ID, result.OutputPath, result.OutputSizeMB); err != nil {
		logger.Warn("failed to journal job completion", logging.Args(logging.Error(err))...)
	}
	return result, nil
}

func (c *Controller) compress(ctx context.Context, logger *slog.Logger, job *history.Job, opts CompressOptions, preset plan.Preset) (*CompressResult, error) {
	info, err := c.prober.Probe(ctx, opts.InputPath)
	if err != nil {
		return nil, err
	}
	logger.Info("probed input",
		logging.Args(
			logging.String("title", textutil.DisplayTitle(opts.InputPath)),
			logging.Float64("duration_seconds", info.DurationSeconds),
			logging.Float64("size_mb", info.SizeMB),
			logging.Int("height", info.Height),
		)...)

	result := &CompressResult{
		JobID:           job.JobID,
		InputPath:       opts.InputPath,
		Preset:          preset,
		DurationSeconds: info.DurationSeconds,
		InputSizeMB:     info.SizeMB,
	}

	targeted := opts.TargetMB > 0
	result.OutputPath = c.outputPath(opts, preset, targeted)

	if targeted && info.SizeMB > 0 && info.SizeMB <= opts.TargetMB-copySlackMB {
		logger.Info("source already under target, copying through",
			logging.Args(logging.Float64("target_mb", opts.TargetMB))...)
		if err := fileutil.CopyFile(opts.InputPath, result.OutputPath); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "compress", "copy", "copy source to output", err)
		}
		result.Mode = ModeCopy
		result.OutputSizeMB = info.SizeMB
		return result, nil
	}

	if err := c.store.SetStatus(ctx, job.ID, history.StatusEncoding, 0); err != nil {
		logger.Warn("failed to journal status", logging.Args(logging.Error(err))...)
	}

	presetCfg, _ := plan.Lookup(preset)
	req := ffmpeg.Request{
		InputPath:  opts.InputPath,
		OutputPath: result.OutputPath,
	}
	if info.Height > presetCfg.MaxHeight {
		req.ScaleFilter = presetCfg.ScaleFilter()
	}

	ctx = services.WithStage(ctx, "encode")
	sink := c.toolSink(logger, "ffmpeg", opts.OnLine)

	if targeted {
		bitrate, err := plan.Compute(info.DurationSeconds, opts.TargetMB, c.cfg.Encoder.AudioKbps)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "compress", "plan", "compute bitrate plan", err)
		}
		clamped := plan.Clamp(bitrate.VideoKbps, c.cfg.Encoder.MinVideoKbps, c.cfg.Encoder.MaxVideoKbps)
		if clamped != bitrate.VideoKbps {
			logger.Warn("video bitrate clamped, output size may miss the target",
				logging.Args(
					logging.Int("planned_kbps", bitrate.VideoKbps),
					logging.Int("clamped_kbps", clamped),
				)...)
			bitrate.VideoKbps = clamped
		}
		result.Mode = ModeTwoPass
		result.Bitrate = bitrate
		logger.Info("starting two-pass encode",
			logging.Args(
				logging.Float64("target_mb", opts.TargetMB),
				logging.Int("video_kbps", bitrate.VideoKbps),
				logging.Int("audio_kbps", bitrate.AudioKbps),
			)...)
		onPass := func(pass int) {
			if err := c.store.SetStatus(ctx, job.ID, history.StatusEncoding, pass); err != nil {
				logger.Warn("failed to journal pass", logging.Args(logging.Error(err))...)
			}
			logger.Info("encode pass started", logging.Args(logging.Int("pass", pass))...)
		}
		if err := c.encoder.EncodeTwoPass(ctx, req, bitrate, presetCfg.Speed, sink, onPass); err != nil {
			return nil, err
		}
	} else {
		result.Mode = ModePreset
		logger.Info("starting preset encode",
			logging.Args(
				logging.String("preset", string(preset)),
				logging.Int("crf", presetCfg.CRF),
			)...)
		if err := c.encoder.EncodePreset(ctx, req, presetCfg, c.cfg.Encoder.AudioKbps, sink); err != nil {
			return nil, err
		}
	}

	sizeMB, err := fileutil.SizeMB(result.OutputPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "compress", "stat", "stat encoded output", err)
	}
	result.OutputSizeMB = sizeMB
	logger.Info("encode finished",
		logging.Args(
			logging.String("output", result.OutputPath),
			logging.Float64("output_mb", sizeMB),
		)...)
	return result, nil
}

// DownloadOptions selects the source URL and an optional follow-up encode.
// DestDir overrides the configured download directory when set. OnLine,
// when set, receives every subprocess output line as it arrives.
type DownloadOptions struct {
	URL        string
	DestDir    string
	Compress   bool
	Preset     string
	TargetMB   float64
	OutputPath string
	OnLine     services.LineSink
}

// DownloadResult reports where the download landed and, when a follow-up
// encode ran, what it produced.
type DownloadResult struct {
	JobID          string
	URL            string
	DownloadedPath string
	SizeMB         float64
	Compress       *CompressResult
}

// RunDownload fetches a URL and optionally chains a compress job on the
// downloaded file, all under the same instance lock.
func (c *Controller) RunDownload(ctx context.Context, opts DownloadOptions) (*DownloadResult, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, services.Wrap(services.ErrValidation, "download", "validate", "url required", nil)
	}

	unlock, err := c.acquire()
	if err != nil {
		return nil, err
	}
	defer unlock()

	destDir := strings.TrimSpace(opts.DestDir)
	if destDir == "" {
		destDir = c.cfg.Paths.DownloadDir
	} else if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "download", "mkdir", fmt.Sprintf("create %s", destDir), err)
	}

	jobID := uuid.NewString()
	ctx = services.WithJobID(ctx, jobID)
	logger := c.logger.With(logging.FieldJobID, jobID)

	job, err := c.store.NewJob(ctx, &history.Job{
		JobID:     jobID,
		Kind:      history.KindDownload,
		SourceURL: opts.URL,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "download", "journal", "record job", err)
	}
	if err := c.store.SetStatus(ctx, job.ID, history.StatusDownloading, 0); err != nil {
		logger.Warn("failed to journal status", logging.Args(logging.Error(err))...)
	}

	logger.Info("starting download", logging.Args(logging.String("url", opts.URL))...)
	path, err := c.downloader.Download(services.WithStage(ctx, "download"), opts.URL, destDir, c.toolSink(logger, "yt-dlp", opts.OnLine))
	if err != nil {
		if ferr := c.store.MarkFailed(ctx, job.ID, err.Error()); ferr != nil {
			logger.Warn("failed to journal job failure", logging.Args(logging.Error(ferr))...)
		}
		return nil, err
	}
	if err := c.store.SetSourcePath(ctx, job.ID, path); err != nil {
		logger.Warn("failed to journal source path", logging.Args(logging.Error(err))...)
	}

	sizeMB, _ := fileutil.SizeMB(path)
	result := &DownloadResult{
		JobID:          jobID,
		URL:            opts.URL,
		DownloadedPath: path,
		SizeMB:         sizeMB,
	}
	logger.Info("download finished",
		logging.Args(
			logging.String("path", path),
			logging.Float64("size_mb", sizeMB),
		)...)

	if err := c.store.MarkCompleted(ctx, job.ID, path, sizeMB); err != nil {
		logger.Warn("failed to journal job completion", logging.Args(logging.Error(err))...)
	}

	if opts.Compress {
		compressed, err := c.compressLocked(ctx, CompressOptions{
			InputPath:  path,
			Preset:     opts.Preset,
			TargetMB:   opts.TargetMB,
			OutputPath: opts.OutputPath,
			OnLine:     opts.OnLine,
		})
		if err != nil {
			return result, err
		}
		result.Compress = compressed
	}
	return result, nil
}

// acquire takes the instance lock without blocking. A held lock means
// another squeeze process is mid-job.
func (c *Controller) acquire() (func(), error) {
	locked, err := c.lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "jobs", "lock", fmt.Sprintf("acquire %s", c.lockPath), err)
	}
	if !locked {
		return nil, services.ErrBusy
	}
	return func() {
		if err := c.lock.Unlock(); err != nil {
			c.logger.Warn("failed to release instance lock", logging.Args(logging.Error(err))...)
		}
	}, nil
}

func (c *Controller) outputPath(opts CompressOptions, preset plan.Preset, targeted bool) string {
	if strings.TrimSpace(opts.OutputPath) != "" {
		return opts.OutputPath
	}
	stem := strings.TrimSuffix(filepath.Base(opts.InputPath), filepath.Ext(opts.InputPath))
	name := stem + "_compressed.mp4"
	if !targeted {
		name = fmt.Sprintf("%s_%s_compressed.mp4", stem, preset)
	}
	dir := c.cfg.Paths.OutputDir
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Dir(opts.InputPath)
	}
	return fileutil.UniqueName(filepath.Join(dir, name))
}

// toolSink fans subprocess output out to the caller's sink and, for the
// session log, to the logger.
func (c *Controller) toolSink(logger *slog.Logger, tool string, forward services.LineSink) services.LineSink {
	return func(line string) {
		logger.Debug(tool, logging.Args(logging.String("line", line))...)
		if forward != nil {
			forward(line)
		}
	}
}

func resolvePreset(opts CompressOptions) (plan.Preset, error) {
	name := opts.Preset
	if strings.TrimSpace(name) == "" {
		name = string(plan.DefaultPreset)
	}
	preset, err := plan.ParsePreset(name)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "compress", "validate", "parse preset", err)
	}
	return preset, nil
}

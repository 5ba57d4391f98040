package config

import (
	"errors"
	"fmt"
	"sort"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateDownloader(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DownloadDir == "" {
		return errors.New("paths.download_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.ScratchDir == "" {
		return errors.New("paths.scratch_dir must be set")
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if err := ensurePositiveMap(map[string]int{
		"encoder.audio_kbps":      c.Encoder.AudioKbps,
		"encoder.min_video_kbps":  c.Encoder.MinVideoKbps,
		"encoder.timeout_seconds": c.Encoder.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Encoder.MaxVideoKbps < 0 {
		return errors.New("encoder.max_video_kbps must not be negative")
	}
	if c.Encoder.MaxVideoKbps > 0 && c.Encoder.MaxVideoKbps < c.Encoder.MinVideoKbps {
		return fmt.Errorf("encoder.max_video_kbps (%d) must not be below encoder.min_video_kbps (%d)",
			c.Encoder.MaxVideoKbps, c.Encoder.MinVideoKbps)
	}
	return nil
}

func (c *Config) validateDownloader() error {
	return ensurePositiveMap(map[string]int{
		"downloader.timeout_seconds": c.Downloader.TimeoutSeconds,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive, got %d", key, values[key])
		}
	}
	return nil
}

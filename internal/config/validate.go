package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFFmpeg(); err != nil {
		return err
	}
	if err := c.validateProgress(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateFFmpeg() error {
	suffix := c.FFmpeg.OutputSuffix
	if strings.TrimSpace(suffix) == "" {
		return errors.New("ffmpeg.output_suffix must be set; an empty suffix would overwrite the input")
	}
	if strings.ContainsAny(suffix, `/\`) {
		return fmt.Errorf("ffmpeg.output_suffix %q must not contain path separators", suffix)
	}
	return nil
}

func (c *Config) validateProgress() error {
	if c.Progress.LogBucketPercent > 100 {
		return errors.New("progress.log_bucket_percent must be at most 100")
	}
	if c.Progress.LargeThresholdGiB < 0 {
		return errors.New("progress.large_threshold_gib must not be negative")
	}
	return nil
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

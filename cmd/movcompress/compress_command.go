package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"movcompress/internal/config"
	"movcompress/internal/deps"
	"movcompress/internal/encoding"
	"movcompress/internal/encodingstats"
	"movcompress/internal/logging"
	"movcompress/internal/media/ffprobe"
	"movcompress/internal/preflight"
	"movcompress/internal/progress"
	"movcompress/internal/services"
	"movcompress/internal/services/ffmpeg"
)

type compressOptions struct {
	high    bool
	twoPass bool
	large   bool
}

func runCompress(cmd *cobra.Command, ctx *commandContext, input string, opts compressOptions) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	stderr := cmd.ErrOrStderr()
	logger, err := ctx.logger(stderr)
	if err != nil {
		return err
	}
	runCtx := cmd.Context()

	size, err := validateInput(input)
	if err != nil {
		return err
	}
	if _, err := deps.Ensure(runCtx, cfg); err != nil {
		return err
	}

	large := opts.large
	if threshold := cfg.LargeThresholdBytes(); !large && threshold > 0 && size >= threshold {
		large = true
		logger.Info("large input detected", logging.Int64("input_bytes", size))
	}
	job, err := encoding.NewJob(input, cfg.FFmpeg.OutputSuffix, encoding.ProfileFor(opts.high), opts.twoPass, large)
	if err != nil {
		return err
	}

	checks := preflight.RunAll(runCtx, job.InputPath, job.OutputPath)
	if err := preflight.Err(checks); err != nil {
		return err
	}
	for _, warning := range preflight.Warnings(checks) {
		logging.WarnWithContext(logger, "preflight warning", "preflight_warning",
			logging.String("check", warning.Name),
			logging.String("detail", warning.Detail),
			logging.String(logging.FieldImpact, "the encode may run out of space"),
		)
	}

	compressor := encoding.NewCompressor(encoding.Deps{
		Probe: ffprobe.Prober{
			Binary:  cfg.FFmpeg.FFprobeBinary,
			Timeout: cfg.ProbeTimeout(),
			Logger:  logger,
		},
		Runner: &ffmpeg.Runner{
			Binary:    cfg.FFmpeg.FFmpegBinary,
			KillGrace: cfg.KillGrace(),
			TailLines: cfg.FFmpeg.ErrorTailLines,
			Logger:    logger,
		},
		Progress: progressFactory(cmd, cfg, job, logger),
		Report: func(r encodingstats.Report) error {
			return encodingstats.Render(cmd.OutOrStdout(), r)
		},
		Logger: logger,
	})

	outcome, err := compressor.Compress(runCtx, job)
	if err != nil {
		if !outcome.LastRun.Success {
			if diag := outcome.LastRun.Diagnostics(); diag != "" {
				fmt.Fprintf(stderr, "ffmpeg output (last %d lines):\n%s\n", len(outcome.LastRun.LastErrorLines), diag)
			}
		}
		return err
	}
	return nil
}

func progressFactory(cmd *cobra.Command, cfg *config.Config, job encoding.Job, logger *slog.Logger) encoding.ProgressFactory {
	w := cmd.ErrOrStderr()
	interactive := progress.IsTerminal(w)
	return func(label string, total float64) encoding.ProgressSink {
		return progress.NewReporter(w, total, progress.Options{
			Label:       label,
			Interactive: interactive,
			Large:       job.Large,
			Throttle:    cfg.RefreshInterval(job.Large),
			LogBucket:   cfg.Progress.LogBucketPercent,
			Logger:      logger,
		})
	}
}

// validateInput checks that input is an existing regular .mov file and
// returns its size.
func validateInput(input string) (int64, error) {
	if !strings.EqualFold(filepath.Ext(input), ".mov") {
		return 0, services.Wrap(services.ErrValidation, "input", "", fmt.Sprintf("%s is not a .mov file", input), nil)
	}
	info, err := os.Stat(input)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, services.Wrap(services.ErrValidation, "input", "", fmt.Sprintf("%s does not exist", input), nil)
		}
		return 0, services.Wrap(services.ErrValidation, "input", "stat", "", err)
	}
	if !info.Mode().IsRegular() {
		return 0, services.Wrap(services.ErrValidation, "input", "", fmt.Sprintf("%s is not a regular file", input), nil)
	}
	return info.Size(), nil
}

package ffprobe

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"movcompress/internal/logging"
	"movcompress/internal/services"
)

// Prober answers duration queries for the compressor.
type Prober struct {
	Binary  string
	Timeout time.Duration
	Logger  *slog.Logger
}

// Probe runs ffprobe on path, bounded by Timeout when set.
//
// Cancellation of ctx is reported as services.ErrInterrupted; running past
// Timeout is a probe error.
func (p Prober) Probe(ctx context.Context, path string) (Result, error) {
	probeCtx := ctx
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	result, err := Inspect(probeCtx, p.Binary, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, services.Wrap(services.ErrInterrupted, "probe", "ffprobe", "interrupted", ctxErr)
		}
		return Result{}, services.Wrap(services.ErrProbe, "probe", "ffprobe", "", err)
	}
	return result, nil
}

// Duration returns the container duration of path in seconds.
//
// A missing or unparseable duration is a probe error. Zero and negative values
// are returned as reported; the caller decides how to present them.
func (p Prober) Duration(ctx context.Context, path string) (float64, error) {
	result, err := p.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	logging.NewComponentLogger(p.Logger, "ffprobe").DebugContext(ctx, "input inspected",
		logging.String("duration", result.Format.Duration),
		logging.Int("video_streams", result.VideoStreamCount()),
		logging.Int("video_height", result.VideoHeight()),
		logging.String("container", result.Format.FormatName),
		logging.Int64("size_bytes", result.SizeBytes()),
	)
	return DurationOf(result, path)
}

// DurationOf extracts a usable duration from an inspection result.
func DurationOf(result Result, path string) (float64, error) {
	if result.VideoStreamCount() == 0 {
		return 0, services.Wrap(services.ErrProbe, "probe", "", fmt.Sprintf("%s has no video stream", path), nil)
	}
	raw := strings.TrimSpace(result.Format.Duration)
	duration := result.DurationSeconds()
	if raw == "" || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return 0, services.Wrap(services.ErrProbe, "probe", "", fmt.Sprintf("ffprobe reported no duration for %s (got %q)", path, raw), nil)
	}
	return duration, nil
}

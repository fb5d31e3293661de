package deps

import (
	"context"
	"fmt"
	"strings"

	"movcompress/internal/config"
	"movcompress/internal/services"
)

// Requirements lists the binaries a compression run needs.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpeg.FFmpegBinary,
			Description: "Required for encoding",
			VersionArg:  "-version",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFmpeg.FFprobeBinary,
			Description: "Required for duration probing",
			VersionArg:  "-version",
		},
	}
}

// Ensure checks Requirements and fails with a configuration error naming
// every missing binary.
func Ensure(ctx context.Context, cfg *config.Config) ([]Status, error) {
	statuses := CheckBinaries(ctx, Requirements(cfg))
	missing := Missing(statuses)
	if len(missing) == 0 {
		return statuses, nil
	}
	parts := make([]string, 0, len(missing))
	for _, s := range missing {
		parts = append(parts, fmt.Sprintf("%s (%s)", s.Name, s.Detail))
	}
	return statuses, services.Wrap(
		services.ErrConfiguration,
		"dependencies",
		"check binaries",
		"missing "+strings.Join(parts, ", ")+"; install ffmpeg or set ffmpeg_binary/ffprobe_binary",
		nil,
	)
}

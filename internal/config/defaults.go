package config

const (
	defaultConfigPath         = "~/.config/movcompress/config.toml"
	projectConfigName         = "movcompress.toml"
	defaultLogDir             = ""
	defaultFFmpegBinary       = "ffmpeg"
	defaultFFprobeBinary      = "ffprobe"
	defaultOutputSuffix       = "_compressed"
	defaultProbeTimeout       = 30
	defaultKillGrace          = 5
	defaultErrorTailLines     = 20
	defaultRefreshMillis      = 100
	defaultLargeRefreshMillis = 1000
	defaultLogBucketPercent   = 10
	defaultLargeThresholdGiB  = 4
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"

	envFFmpegBinary  = "MOVCOMPRESS_FFMPEG"
	envFFprobeBinary = "MOVCOMPRESS_FFPROBE"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:        defaultFFmpegBinary,
			FFprobeBinary:       defaultFFprobeBinary,
			OutputSuffix:        defaultOutputSuffix,
			ProbeTimeoutSeconds: defaultProbeTimeout,
			KillGraceSeconds:    defaultKillGrace,
			ErrorTailLines:      defaultErrorTailLines,
		},
		Progress: Progress{
			RefreshMillis:      defaultRefreshMillis,
			LargeRefreshMillis: defaultLargeRefreshMillis,
			LogBucketPercent:   defaultLogBucketPercent,
			LargeThresholdGiB:  defaultLargeThresholdGiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"movcompress/internal/config"
	"movcompress/internal/testsupport"
)

const ffprobeStub = `echo '{"format":{"duration":"10.000000"},"streams":[{"index":0,"codec_type":"video","height":1080}]}'`

// ffmpegStub prints a version banner, or writes its last argument and
// reports progress. STUB_FFMPEG_FAIL makes it exit 1 after a partial write.
const ffmpegStub = `case "$1" in
-version) echo "ffmpeg version stub-7.1"; exit 0 ;;
esac
for last; do :; done
printf 'frame=10 time=00:00:05.00 bitrate=100kbits/s\r' >&2
printf 'frame=20 time=00:00:10.00 bitrate=100kbits/s\n' >&2
if [ "$last" != "/dev/null" ]; then
  printf 'compressed' > "$last"
fi
if [ -n "$STUB_FFMPEG_FAIL" ]; then
  echo "Error while encoding: stub failure" >&2
  exit 1
fi
exit 0`

type cliTestEnv struct {
	baseDir    string
	configPath string
	ffmpeg     string
	ffprobe    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("CLI tests use POSIX shell stubs")
	}

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("MOVCOMPRESS_FFMPEG", "")
	t.Setenv("MOVCOMPRESS_FFPROBE", "")
	t.Chdir(base)

	binDir := filepath.Join(base, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "movcompress-test.toml"),
		ffmpeg:     testsupport.WriteScript(t, binDir, "ffmpeg", ffmpegStub),
		ffprobe:    testsupport.WriteScript(t, binDir, "ffprobe", ffprobeStub),
	}

	cfg := config.Default()
	cfg.FFmpeg.FFmpegBinary = env.ffmpeg
	cfg.FFmpeg.FFprobeBinary = env.ffprobe
	cfg.FFmpeg.KillGraceSeconds = 1
	writeTestConfig(t, env.configPath, &cfg)
	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	flags := []string{}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	code := run(context.Background(), append(flags, args...), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

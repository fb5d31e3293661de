package ffprobe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"movcompress/internal/services"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio"},
			{CodecType: "video", Height: 1080},
		},
		Format: Format{Duration: "123.45", Size: "1000"},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.VideoHeight() != 1080 {
		t.Fatalf("unexpected height %d", result.VideoHeight())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "N/A", Size: "-1"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.VideoHeight() != 0 {
		t.Fatalf("expected height 0 without video, got %d", result.VideoHeight())
	}
}

func TestInspectPassesPathAfterSeparator(t *testing.T) {
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string{name}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "FFPROBE_HELPER_MODE=ok")
		return cmd
	}
	t.Cleanup(func() { commandContext = original })

	if _, err := Inspect(context.Background(), "", "-weird.mov"); err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if captured[0] != "ffprobe" {
		t.Fatalf("expected default binary, got %q", captured[0])
	}
	if got := captured[len(captured)-2:]; got[0] != "--" || got[1] != "-weird.mov" {
		t.Fatalf("expected path after --, got %v", captured)
	}
}

func TestInspectRequiresPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestProberDuration(t *testing.T) {
	tests := []struct {
		mode      string
		want      float64
		wantProbe bool
		errText   string
	}{
		{mode: "ok", want: 12.5},
		{mode: "zero", want: 0},
		{mode: "na", wantProbe: true, errText: "no duration"},
		{mode: "audio_only", wantProbe: true, errText: "no video stream"},
		{mode: "fail", wantProbe: true, errText: "moov atom not found"},
		{mode: "garbage", wantProbe: true, errText: "ffprobe parse"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			setHelperCommand(t, tt.mode)
			got, err := Prober{Binary: "ffprobe"}.Duration(context.Background(), "/videos/clip.mov")
			if tt.wantProbe {
				if !errors.Is(err, services.ErrProbe) {
					t.Fatalf("expected probe error, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.errText) {
					t.Fatalf("expected %q in %q", tt.errText, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Duration: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Duration = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProberMissingBinary(t *testing.T) {
	_, err := Prober{Binary: "/nonexistent/ffprobe"}.Duration(context.Background(), "/videos/clip.mov")
	if !errors.Is(err, services.ErrProbe) {
		t.Fatalf("expected probe error, got %v", err)
	}
}

func TestProberDurationLogsInspection(t *testing.T) {
	setHelperCommand(t, "ok")
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if _, err := (Prober{Binary: "ffprobe", Logger: logger}).Duration(context.Background(), "/videos/clip.mov"); err != nil {
		t.Fatalf("Duration: %v", err)
	}
	for _, want := range []string{`"video_height":1080`, `"size_bytes":1000000`, `"video_streams":1`} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("expected %s in log output %s", want, buf.String())
		}
	}
}

func TestProberCancelReportsInterrupt(t *testing.T) {
	setHelperCommand(t, "linger")
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	started := time.Now()
	_, err := Prober{Binary: "ffprobe", Timeout: time.Minute}.Duration(ctx, "/videos/clip.mov")
	if !errors.Is(err, services.ErrInterrupted) {
		t.Fatalf("expected interrupted error, got %v", err)
	}
	if errors.Is(err, services.ErrProbe) {
		t.Fatalf("cancellation should not be a probe error: %v", err)
	}
	if services.ExitCode(err) != services.ExitInterrupted {
		t.Fatalf("exit code = %d, want %d", services.ExitCode(err), services.ExitInterrupted)
	}
	if elapsed := time.Since(started); elapsed > 10*time.Second {
		t.Fatalf("Duration returned after %s; a child holding the pipe must not block it", elapsed)
	}
}

func TestProberTimeoutIsProbeError(t *testing.T) {
	setHelperCommand(t, "sleep")
	_, err := Prober{Binary: "ffprobe", Timeout: 200 * time.Millisecond}.Duration(context.Background(), "/videos/clip.mov")
	if !errors.Is(err, services.ErrProbe) {
		t.Fatalf("expected probe error on timeout, got %v", err)
	}
}

func setHelperCommand(t *testing.T, mode string) {
	t.Helper()
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("FFPROBE_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	const video = `{"index":0,"codec_type":"video","codec_name":"h264","width":1920,"height":1080}`
	switch os.Getenv("FFPROBE_HELPER_MODE") {
	case "ok":
		fmt.Printf(`{"streams":[%s],"format":{"duration":"12.500000","size":"1000000"}}`, video)
	case "zero":
		fmt.Printf(`{"streams":[%s],"format":{"duration":"0.000000"}}`, video)
	case "na":
		fmt.Printf(`{"streams":[%s],"format":{"duration":"N/A"}}`, video)
	case "audio_only":
		fmt.Print(`{"streams":[{"index":0,"codec_type":"audio"}],"format":{"duration":"3.0"}}`)
	case "fail":
		fmt.Fprintln(os.Stderr, "/videos/clip.mov: moov atom not found")
		os.Exit(1)
	case "garbage":
		fmt.Print("not json")
	case "sleep":
		time.Sleep(15 * time.Second)
	case "linger":
		// A grandchild inherits stdout and outlives this process.
		child := exec.Command(os.Args[0], "-test.run=TestHelperProcess")
		child.Env = append(os.Environ(), "FFPROBE_HELPER_MODE=sleep")
		child.Stdout = os.Stdout
		if err := child.Start(); err != nil {
			os.Exit(2)
		}
		time.Sleep(15 * time.Second)
	}
	os.Exit(0)
}

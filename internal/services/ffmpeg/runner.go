package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"movcompress/internal/logging"
	"movcompress/internal/services"
)

var commandContext = exec.CommandContext

const (
	maxLineBytes = 1 << 20
	// maxTailLineBytes caps each line kept for diagnostics.
	maxTailLineBytes = 4 << 10
)

// Request describes one encoder invocation.
type Request struct {
	// Label names the pass in errors and logs ("pass 1", "single pass").
	Label string
	// Args excludes the binary itself.
	Args []string
	// Artifacts are removed whenever the run does not succeed.
	Artifacts []string
}

// RunResult reports how the encoder exited.
type RunResult struct {
	Success        bool
	ExitCode       int
	LastErrorLines []string
	Elapsed        time.Duration
}

// Diagnostics joins the retained output tail for error messages.
func (r RunResult) Diagnostics() string {
	return strings.Join(r.LastErrorLines, "\n")
}

// Runner launches the encoder and streams its combined output.
type Runner struct {
	Binary string
	// KillGrace is how long the encoder has to exit after SIGTERM before the
	// process is killed.
	KillGrace time.Duration
	TailLines int
	Logger    *slog.Logger
}

// Run starts the encoder with req.Args and calls onLine for every output line
// as it arrives. It blocks until the process exits.
//
// A launch failure returns an error marked services.ErrEncodeProcess. A
// non-zero exit is not an error: the result reports Success=false and the
// tail of the output. Cancelling ctx terminates the process group and returns
// an error marked services.ErrInterrupted. Artifacts are removed in every
// case except success.
func (r *Runner) Run(ctx context.Context, req Request, onLine func(string)) (result RunResult, err error) {
	binary := strings.TrimSpace(r.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.Logger, "ffmpeg"))

	defer func() {
		if err != nil || !result.Success {
			removeArtifacts(logger, req.Artifacts)
		}
	}()

	cmd := commandContext(ctx, binary, req.Args...) //nolint:gosec
	startInGroup(cmd)
	if r.KillGrace > 0 {
		cmd.WaitDelay = r.KillGrace
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return RunResult{ExitCode: -1}, services.Wrap(services.ErrEncodeProcess, req.Label, "stdout pipe", "", err)
	}
	cmd.Stderr = cmd.Stdout

	logger.Debug("starting encoder", logging.String("binary", binary), logging.String("args", strings.Join(req.Args, " ")))
	started := time.Now()
	if err := cmd.Start(); err != nil {
		return RunResult{ExitCode: -1}, services.Wrap(services.ErrEncodeProcess, req.Label, "start "+binary, "", err)
	}

	tail := NewLineRing(r.TailLines)
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	scanner.Split(scanLinesOrCR)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tail.Add(truncateLine(line, maxTailLineBytes))
		if onLine != nil {
			onLine(line)
		}
	}
	scanErr := scanner.Err()
	if scanErr != nil {
		// Keep the pipe empty so the encoder can run to exit.
		_, _ = io.Copy(io.Discard, stdout)
	}
	waitErr := cmd.Wait()

	result = RunResult{
		ExitCode:       cmd.ProcessState.ExitCode(),
		LastErrorLines: tail.Lines(),
		Elapsed:        time.Since(started),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		reapGroup(cmd)
		return result, services.Wrap(services.ErrInterrupted, req.Label, "", "encoder terminated", ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case waitErr == nil:
	case errors.As(waitErr, &exitErr):
		logger.Debug("encoder exited with failure", logging.Int("exit_code", result.ExitCode))
		return result, nil
	default:
		return result, services.Wrap(services.ErrEncodeProcess, req.Label, "wait", "", waitErr)
	}
	if scanErr != nil {
		return result, services.Wrap(services.ErrEncodeProcess, req.Label, "read output", "", scanErr)
	}

	result.Success = true
	logger.Debug("encoder finished", logging.Duration("elapsed", result.Elapsed))
	return result, nil
}

func truncateLine(line string, limit int) string {
	if len(line) <= limit {
		return line
	}
	return line[:limit] + "..."
}

func removeArtifacts(logger *slog.Logger, paths []string) {
	for _, path := range paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		err := os.Remove(path)
		switch {
		case err == nil:
			logger.Info("removed partial output", logging.String("path", path))
		case errors.Is(err, os.ErrNotExist):
		default:
			logging.WarnWithContext(logger, "partial output not removed", "artifact_cleanup_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, fmt.Sprintf("delete %s manually", path)),
				logging.String(logging.FieldImpact, "a partial file remains on disk"),
			)
		}
	}
}

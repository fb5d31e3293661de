package encoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"movcompress/internal/encodingstats"
	"movcompress/internal/fileutil"
	"movcompress/internal/logging"
	"movcompress/internal/services"
	"movcompress/internal/services/ffmpeg"
)

// DurationProbe reports the duration of a media file in seconds.
type DurationProbe interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Runner executes one encoder invocation.
type Runner interface {
	Run(ctx context.Context, req ffmpeg.Request, onLine func(string)) (ffmpeg.RunResult, error)
}

// ProgressSink receives encoder output for one pass.
type ProgressSink interface {
	Observe(line string) bool
	Finish()
	Abandon()
}

// ProgressFactory creates the sink for a pass. totalSeconds is the probed
// duration and may be zero or negative when it is unknown.
type ProgressFactory func(label string, totalSeconds float64) ProgressSink

// Deps wires the compressor to its collaborators. Probe and Runner are
// required.
type Deps struct {
	Probe    DurationProbe
	Runner   Runner
	Progress ProgressFactory
	// Report prints the stats of a finished run.
	Report func(encodingstats.Report) error
	Logger *slog.Logger
	// TempDir holds the per-run pass log directory. Defaults to os.TempDir().
	TempDir string
	// LockDir holds output lock files. Defaults to os.TempDir().
	LockDir string
	Now     func() time.Time
}

// Outcome describes how a run ended.
type Outcome struct {
	State       State
	Transitions []Transition
	// Duration is the probed duration in seconds.
	Duration float64
	// LastRun is the result of the last encoder invocation.
	LastRun ffmpeg.RunResult
	// Stats is nil when no report could be produced.
	Stats   *encodingstats.Report
	Elapsed time.Duration
}

// Compressor sequences probing, encoding, and reporting for one Job.
type Compressor struct {
	deps Deps
}

// NewCompressor returns a Compressor using deps.
func NewCompressor(deps Deps) *Compressor {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Progress == nil {
		deps.Progress = func(string, float64) ProgressSink { return discardProgress{} }
	}
	return &Compressor{deps: deps}
}

// Compress runs job to completion. It returns the final outcome together with
// an error for every run that ends in StateFailed. A failed stats step is
// logged and does not fail the run.
func (c *Compressor) Compress(ctx context.Context, job Job) (Outcome, error) {
	ctx = services.WithRunID(ctx, job.RunID)
	ctx = services.WithInput(ctx, job.InputPath)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(c.deps.Logger, "compressor"))

	run := &compressRun{
		Compressor: c,
		job:        job,
		logger:     logger,
		machine:    newMachine(logger, c.deps.Now),
		started:    c.deps.Now(),
	}
	err := run.execute(ctx)

	outcome := run.outcome
	outcome.State = run.machine.state
	outcome.Transitions = append([]Transition(nil), run.machine.history...)
	outcome.Elapsed = c.deps.Now().Sub(run.started)
	return outcome, err
}

type compressRun struct {
	*Compressor
	job     Job
	logger  *slog.Logger
	machine *machine
	started time.Time
	outcome Outcome
}

func (r *compressRun) execute(ctx context.Context) error {
	if err := r.job.Validate(); err != nil {
		return r.fail(err)
	}
	if r.deps.Probe == nil || r.deps.Runner == nil {
		return r.fail(services.Wrap(services.ErrConfiguration, "", "compress", "probe and runner are required", nil))
	}

	lock, err := lockOutput(r.deps.LockDir, r.job.OutputPath)
	if err != nil {
		return r.fail(err)
	}
	defer func() { _ = lock.Unlock() }()

	r.logger.Info("compression started",
		logging.String("output", r.job.OutputPath),
		logging.String("profile", r.job.Profile.String()),
		logging.Bool("two_pass", r.job.TwoPass),
	)

	if err := r.enter(StateProbingDuration); err != nil {
		return err
	}
	duration, err := r.deps.Probe.Duration(ctx, r.job.InputPath)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInterrupted):
		case ctx.Err() != nil:
			err = services.Wrap(services.ErrInterrupted, "probe", "", "interrupted", err)
		case !errors.Is(err, services.ErrProbe):
			err = services.Wrap(services.ErrProbe, "probe", "", "", err)
		}
		return r.fail(err)
	}
	r.outcome.Duration = duration
	if duration <= 0 {
		logging.WarnWithContext(r.logger, "input duration unknown", "duration_unknown",
			logging.Float64("duration_seconds", duration),
			logging.String(logging.FieldErrorHint, "check the file with ffprobe if the output looks wrong"),
			logging.String(logging.FieldImpact, "progress is shown without a percentage"),
		)
	} else {
		r.logger.Info("input probed", logging.String("duration", formatSeconds(duration)))
	}

	if r.job.TwoPass {
		err = r.twoPass(ctx)
	} else {
		err = r.encode(ctx, StateSinglePass, PassSingle, "")
	}
	if err != nil {
		return err
	}

	if err := r.enter(StateReportingStats); err != nil {
		return err
	}
	r.reportStats()
	if err := r.enter(StateDone); err != nil {
		return err
	}
	r.logger.Info("compression finished", logging.Duration("elapsed", r.deps.Now().Sub(r.started)))
	return nil
}

func (r *compressRun) twoPass(ctx context.Context) error {
	passDir, err := os.MkdirTemp(r.deps.TempDir, "movcompress-passlog-")
	if err != nil {
		if moveErr := r.enter(StatePass1); moveErr != nil {
			return moveErr
		}
		return r.fail(services.Wrap(services.ErrEncodeProcess, PassAnalysis.String(), "create pass log directory", "", err))
	}
	defer func() {
		if err := os.RemoveAll(passDir); err != nil {
			r.logger.Warn("pass log cleanup failed", logging.String("dir", passDir), logging.Error(err))
		}
	}()
	prefix := filepath.Join(passDir, "ffmpeg2pass")

	if err := r.encode(ctx, StatePass1, PassAnalysis, prefix); err != nil {
		return err
	}
	return r.encode(ctx, StatePass2, PassFinal, prefix)
}

// encode runs one encoder pass inside state.
func (r *compressRun) encode(ctx context.Context, state State, pass Pass, passLogPrefix string) error {
	if err := r.enter(state); err != nil {
		return err
	}
	stageCtx := services.WithStage(ctx, string(state))
	logger := logging.WithContext(stageCtx, r.logger)

	var artifacts []string
	if pass != PassAnalysis {
		artifacts = []string{r.job.OutputPath}
	}
	if err := ctx.Err(); err != nil {
		return r.fail(services.Wrap(services.ErrInterrupted, pass.String(), "", "interrupted before start", err))
	}

	req := ffmpeg.Request{
		Label:     pass.String(),
		Args:      BuildArgs(r.job, pass, passLogPrefix),
		Artifacts: artifacts,
	}
	sink := r.deps.Progress(pass.progressLabel(), r.outcome.Duration)
	logger.Info("encoder pass started", logging.String("pass", pass.String()), logging.String("preset", r.job.Profile.Preset))

	result, err := r.deps.Runner.Run(stageCtx, req, func(line string) {
		sink.Observe(line)
	})
	r.outcome.LastRun = result
	if err != nil {
		sink.Abandon()
		r.removeArtifacts(artifacts)
		if !errors.Is(err, services.ErrInterrupted) && !errors.Is(err, services.ErrEncodeProcess) {
			err = services.Wrap(services.ErrEncodeProcess, pass.String(), "run encoder", "", err)
		}
		return r.fail(err)
	}
	if !result.Success {
		sink.Abandon()
		r.removeArtifacts(artifacts)
		return r.fail(services.Wrap(services.ErrEncodeFailure, pass.String(), "ffmpeg", fmt.Sprintf("encoder exited with code %d", result.ExitCode), nil))
	}
	sink.Finish()
	logger.Info("encoder pass finished", logging.String("pass", pass.String()), logging.Duration("elapsed", result.Elapsed))
	return nil
}

func (r *compressRun) reportStats() {
	report, err := encodingstats.Collect(r.job.InputPath, r.job.OutputPath, r.deps.Now().Sub(r.started))
	if err != nil {
		logging.WarnWithContext(r.logger, "compression stats unavailable", "stats_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the output file exists"),
			logging.String(logging.FieldImpact, "no size comparison is printed"),
		)
		return
	}
	r.outcome.Stats = &report
	r.logger.Info("compression stats",
		logging.Int64("input_bytes", report.InputBytes),
		logging.Int64("output_bytes", report.OutputBytes),
		logging.Float64("reduction_percent", report.ReductionPercent()),
	)
	if r.deps.Report == nil {
		return
	}
	if err := r.deps.Report(report); err != nil {
		logging.WarnWithContext(r.logger, "compression stats not printed", "stats_render_failed", logging.Error(err))
	}
}

func (r *compressRun) enter(state State) error {
	if err := r.machine.move(state); err != nil {
		return r.fail(err)
	}
	return nil
}

// fail moves to StateFailed, logs err, and returns it.
func (r *compressRun) fail(err error) error {
	from := r.machine.state
	if !from.Terminal() {
		_ = r.machine.move(StateFailed)
	}
	r.logger.Debug("compression failed", logging.String("state", string(from)), logging.Error(err))
	return err
}

func (r *compressRun) removeArtifacts(paths []string) {
	for _, path := range paths {
		if _, err := fileutil.RemoveIfExists(path); err != nil {
			r.logger.Warn("partial output not removed", logging.Error(err))
		}
	}
}

type discardProgress struct{}

func (discardProgress) Observe(string) bool { return false }

func (discardProgress) Finish() {}

func (discardProgress) Abandon() {}

func formatSeconds(seconds float64) string {
	return (time.Duration(seconds * float64(time.Second))).Round(time.Millisecond).String()
}

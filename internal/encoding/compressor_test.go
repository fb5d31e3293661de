package encoding

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movcompress/internal/encodingstats"
	"movcompress/internal/services"
	"movcompress/internal/services/ffmpeg"
	"movcompress/internal/testsupport"
)

type fakeProbe struct {
	duration float64
	err      error
	calls    int
	// onCall runs before the result is returned.
	onCall func()
}

func (p *fakeProbe) Duration(context.Context, string) (float64, error) {
	p.calls++
	if p.onCall != nil {
		p.onCall()
	}
	return p.duration, p.err
}

// runStep scripts one fake encoder invocation.
type runStep struct {
	lines      []string
	writeBytes int64
	exitCode   int
	err        error
}

type fakeRunner struct {
	mu    sync.Mutex
	steps []runStep
	reqs  []ffmpeg.Request
}

func (r *fakeRunner) Run(_ context.Context, req ffmpeg.Request, onLine func(string)) (ffmpeg.RunResult, error) {
	r.mu.Lock()
	idx := len(r.reqs)
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()

	step := r.steps[idx]
	output := req.Args[len(req.Args)-1]
	if step.writeBytes > 0 && output != os.DevNull {
		if err := os.WriteFile(output, make([]byte, step.writeBytes), 0o644); err != nil {
			return ffmpeg.RunResult{}, err
		}
	}
	if passLog := passLogFile(req.Args); passLog != "" {
		_ = os.WriteFile(passLog+"-0.log", []byte("stats"), 0o644)
	}
	for _, line := range step.lines {
		onLine(line)
	}
	if step.err != nil {
		return ffmpeg.RunResult{}, step.err
	}
	return ffmpeg.RunResult{
		Success:        step.exitCode == 0,
		ExitCode:       step.exitCode,
		LastErrorLines: []string{"conversion failed"},
	}, nil
}

func passLogFile(args []string) string {
	idx := slices.Index(args, "-passlogfile")
	if idx < 0 || idx+1 >= len(args) {
		return ""
	}
	return args[idx+1]
}

type fakeSink struct {
	label     string
	total     float64
	lines     []string
	finished  bool
	abandoned bool
}

func (s *fakeSink) Observe(line string) bool {
	s.lines = append(s.lines, line)
	return true
}

func (s *fakeSink) Finish() { s.finished = true }

func (s *fakeSink) Abandon() { s.abandoned = true }

type harness struct {
	probe   *fakeProbe
	runner  *fakeRunner
	sinks   []*fakeSink
	reports []encodingstats.Report
	tempDir string
	job     Job
}

func newHarness(t *testing.T, twoPass bool, steps ...runStep) (*harness, *Compressor) {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "clip.mov")
	testsupport.WriteFile(t, input, 4000)

	job, err := NewJob(input, "", Standard, twoPass, false)
	require.NoError(t, err)

	h := &harness{
		probe:   &fakeProbe{duration: 10},
		runner:  &fakeRunner{steps: steps},
		tempDir: t.TempDir(),
		job:     job,
	}
	c := NewCompressor(Deps{
		Probe:  h.probe,
		Runner: h.runner,
		Progress: func(label string, total float64) ProgressSink {
			sink := &fakeSink{label: label, total: total}
			h.sinks = append(h.sinks, sink)
			return sink
		},
		Report: func(r encodingstats.Report) error {
			h.reports = append(h.reports, r)
			return nil
		},
		TempDir: h.tempDir,
		LockDir: t.TempDir(),
	})
	return h, c
}

func states(transitions []Transition) []State {
	out := []State{StateIdle}
	for _, tr := range transitions {
		out = append(out, tr.To)
	}
	return out
}

func TestCompressSinglePassSuccess(t *testing.T) {
	h, c := newHarness(t, false, runStep{
		lines:      []string{"frame=1 time=00:00:05.00", "frame=2 time=00:00:10.00"},
		writeBytes: 1000,
	})

	outcome, err := c.Compress(context.Background(), h.job)
	require.NoError(t, err)

	assert.Equal(t, StateDone, outcome.State)
	assert.Equal(t, []State{StateIdle, StateProbingDuration, StateSinglePass, StateReportingStats, StateDone}, states(outcome.Transitions))
	require.Len(t, h.runner.reqs, 1)
	assert.Contains(t, h.runner.reqs[0].Args, "-crf")
	assert.Equal(t, []string{h.job.OutputPath}, h.runner.reqs[0].Artifacts)

	require.Len(t, h.sinks, 1)
	assert.Equal(t, "encoding", h.sinks[0].label)
	assert.Equal(t, 10.0, h.sinks[0].total)
	assert.Len(t, h.sinks[0].lines, 2)
	assert.True(t, h.sinks[0].finished)

	require.Len(t, h.reports, 1)
	assert.Equal(t, int64(4000), h.reports[0].InputBytes)
	assert.Equal(t, int64(1000), h.reports[0].OutputBytes)
	assert.InDelta(t, 75.0, h.reports[0].ReductionPercent(), 0.001)
	require.NotNil(t, outcome.Stats)
}

func TestCompressProbeFailureSkipsEncoder(t *testing.T) {
	h, c := newHarness(t, false)
	h.probe.err = errors.New("moov atom not found")

	outcome, err := c.Compress(context.Background(), h.job)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrProbe)
	assert.Equal(t, StateFailed, outcome.State)
	assert.Equal(t, []State{StateIdle, StateProbingDuration, StateFailed}, states(outcome.Transitions))
	assert.Empty(t, h.runner.reqs)
	assert.Empty(t, h.reports)
	assert.NoFileExists(t, h.job.OutputPath)
}

func TestCompressTwoPassRunsPassesInOrder(t *testing.T) {
	h, c := newHarness(t, true,
		runStep{lines: []string{"time=00:00:10.00"}},
		runStep{lines: []string{"time=00:00:10.00"}, writeBytes: 2000},
	)

	outcome, err := c.Compress(context.Background(), h.job)
	require.NoError(t, err)
	assert.Equal(t, []State{StateIdle, StateProbingDuration, StatePass1, StatePass2, StateReportingStats, StateDone}, states(outcome.Transitions))

	require.Len(t, h.runner.reqs, 2)
	first, second := h.runner.reqs[0].Args, h.runner.reqs[1].Args
	assert.Contains(t, first, "1")
	assert.Equal(t, os.DevNull, first[len(first)-1])
	assert.Empty(t, h.runner.reqs[0].Artifacts)
	assert.Equal(t, h.job.OutputPath, second[len(second)-1])
	assert.Equal(t, passLogFile(first), passLogFile(second))

	require.Len(t, h.sinks, 2)
	assert.Equal(t, "pass 1/2", h.sinks[0].label)
	assert.Equal(t, "pass 2/2", h.sinks[1].label)

	entries, err := os.ReadDir(h.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "pass log directory should be removed")
}

func TestCompressPassTwoFailureCleansUp(t *testing.T) {
	h, c := newHarness(t, true,
		runStep{},
		runStep{writeBytes: 500, exitCode: 1},
	)

	outcome, err := c.Compress(context.Background(), h.job)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrEncodeFailure)
	assert.Contains(t, err.Error(), "pass 2")
	assert.Contains(t, err.Error(), "code 1")
	assert.Equal(t, StateFailed, outcome.State)
	assert.Equal(t, []State{StateIdle, StateProbingDuration, StatePass1, StatePass2, StateFailed}, states(outcome.Transitions))
	assert.Equal(t, 1, outcome.LastRun.ExitCode)

	assert.NoFileExists(t, h.job.OutputPath)
	entries, readErr := os.ReadDir(h.tempDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
	assert.True(t, h.sinks[1].abandoned)
	assert.Empty(t, h.reports)
}

func TestCompressPassOneFailureSkipsPassTwo(t *testing.T) {
	h, c := newHarness(t, true, runStep{exitCode: 2})

	outcome, err := c.Compress(context.Background(), h.job)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrEncodeFailure)
	assert.Len(t, h.runner.reqs, 1)
	assert.Equal(t, []State{StateIdle, StateProbingDuration, StatePass1, StateFailed}, states(outcome.Transitions))
}

func TestCompressProcessErrorRemovesPartialOutput(t *testing.T) {
	h, c := newHarness(t, false, runStep{
		writeBytes: 100,
		err:        errors.New("exec: \"ffmpeg\": executable file not found"),
	})

	outcome, err := c.Compress(context.Background(), h.job)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrEncodeProcess)
	assert.Equal(t, StateFailed, outcome.State)
	assert.NoFileExists(t, h.job.OutputPath)
}

func TestCompressUnknownDurationStillEncodes(t *testing.T) {
	for _, duration := range []float64{0, -1.5} {
		h, c := newHarness(t, false, runStep{lines: []string{"time=00:00:01.00"}, writeBytes: 10})
		h.probe.duration = duration

		outcome, err := c.Compress(context.Background(), h.job)
		require.NoError(t, err)
		assert.Equal(t, StateDone, outcome.State)
		require.Len(t, h.sinks, 1)
		assert.Equal(t, duration, h.sinks[0].total)
	}
}

func TestCompressInterruptedDuringProbe(t *testing.T) {
	h, c := newHarness(t, false, runStep{})
	ctx, cancel := context.WithCancel(context.Background())
	h.probe.onCall = cancel
	h.probe.err = errors.New("ffprobe inspect: signal: killed")

	outcome, err := c.Compress(ctx, h.job)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrInterrupted)
	assert.Equal(t, services.ExitInterrupted, services.ExitCode(err))
	assert.Equal(t, []State{StateIdle, StateProbingDuration, StateFailed}, states(outcome.Transitions))
	assert.Empty(t, h.runner.reqs)
}

func TestCompressInterruptedBeforeEncode(t *testing.T) {
	h, c := newHarness(t, false, runStep{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := c.Compress(ctx, h.job)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrInterrupted)
	assert.Equal(t, services.ExitInterrupted, services.ExitCode(err))
	assert.Equal(t, StateFailed, outcome.State)
	assert.Empty(t, h.runner.reqs)
}

func TestCompressStatsFailureDoesNotFailRun(t *testing.T) {
	h, c := newHarness(t, false, runStep{})

	outcome, err := c.Compress(context.Background(), h.job)
	require.NoError(t, err)
	assert.Equal(t, StateDone, outcome.State)
	assert.Nil(t, outcome.Stats)
	assert.Empty(t, h.reports)
}

func TestCompressRejectsConcurrentRunOnSameOutput(t *testing.T) {
	h, c := newHarness(t, false, runStep{writeBytes: 1})
	held, err := lockOutput(c.deps.LockDir, h.job.OutputPath)
	require.NoError(t, err)
	defer func() { _ = held.Unlock() }()

	outcome, err := c.Compress(context.Background(), h.job)
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, []State{StateIdle, StateFailed}, states(outcome.Transitions))
	assert.Empty(t, h.runner.reqs)
	assert.Zero(t, h.probe.calls)
}

func TestCompressRejectsInvalidJob(t *testing.T) {
	_, c := newHarness(t, false)
	_, err := c.Compress(context.Background(), Job{InputPath: "a.mov", OutputPath: "a.mov", Profile: Standard})
	assert.ErrorIs(t, err, services.ErrValidation)
}

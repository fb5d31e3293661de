package progress

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"movcompress/internal/logging"
)

// barScale is the bar maximum: hundredths of a percent.
const barScale = 10000

// indeterminateLogStep is how much encoded media passes between log records
// when the total duration is unknown.
const indeterminateLogStep = 60.0

// State is the reporter's view of one encoder pass.
type State struct {
	// Position is the furthest timeline position seen, in seconds.
	Position float64
	// Total is the probed duration in seconds; zero or negative means unknown.
	Total float64
	// Percent is the last computed percentage, or -1 in indeterminate mode.
	Percent float64
	// Updates counts accepted position tokens.
	Updates int
}

// Determinate reports whether a percentage can be computed.
func (s State) Determinate() bool {
	return s.Total > 0
}

// Options tunes how a Reporter renders.
type Options struct {
	// Label prefixes the bar, e.g. "pass 1/2".
	Label string
	// Interactive enables the redrawn progress bar. When false progress is
	// only logged at sampled intervals.
	Interactive bool
	// Large selects the slower redraw used for very long inputs.
	Large     bool
	Throttle  time.Duration
	LogBucket float64
	Logger    *slog.Logger
}

// Reporter turns encoder output lines into a progress display.
type Reporter struct {
	state   State
	label   string
	bar     *progressbar.ProgressBar
	sampler *logging.ProgressSampler
	logger  *slog.Logger
	logAt   slog.Level
	nextLog float64
	started time.Time
}

// NewReporter creates a reporter for one pass. total is the probed duration in
// seconds; when it is not positive the reporter shows an indeterminate spinner
// with the encoded position instead of a percentage.
func NewReporter(w io.Writer, total float64, opts Options) *Reporter {
	r := &Reporter{
		state:   State{Total: total, Percent: -1},
		label:   opts.Label,
		sampler: logging.NewProgressSampler(opts.LogBucket),
		logger:  logging.NewComponentLogger(opts.Logger, "progress"),
		logAt:   slog.LevelInfo,
		started: time.Now(),
	}
	if r.state.Determinate() {
		r.state.Percent = 0
	}
	if opts.Interactive && w != nil {
		r.bar = newBar(w, r.state.Determinate(), opts)
		r.logAt = slog.LevelDebug
	}
	return r
}

func newBar(w io.Writer, determinate bool, opts Options) *progressbar.ProgressBar {
	barMax := int64(barScale)
	if !determinate {
		barMax = -1
	}
	throttle := opts.Throttle
	if throttle <= 0 {
		throttle = 100 * time.Millisecond
	}
	options := []progressbar.Option{
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(opts.Label),
		progressbar.OptionThrottle(throttle),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(determinate),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	}
	if opts.Large {
		options = append(options, progressbar.OptionSetElapsedTime(true), progressbar.OptionFullWidth())
	}
	return progressbar.NewOptions64(barMax, options...)
}

// Observe feeds one output line to the reporter. It returns true when the
// line carried a position that advanced (or held) the progress, false when the
// line was ignored.
func (r *Reporter) Observe(line string) bool {
	pos, ok := ParsePosition(line)
	if !ok || pos < r.state.Position {
		return false
	}
	r.state.Position = pos
	r.state.Updates++
	if r.state.Determinate() {
		r.state.Percent = max(r.state.Percent, min(100, 100*pos/r.state.Total))
	}
	r.render()
	r.log()
	return true
}

// State returns a snapshot of the current progress.
func (r *Reporter) State() State {
	return r.state
}

// Finish completes the display after a successful pass.
func (r *Reporter) Finish() {
	if r.bar == nil {
		return
	}
	if r.state.Determinate() {
		_ = r.bar.Finish()
		return
	}
	r.bar.Describe(fmt.Sprintf("%s %s encoded", r.label, FormatClock(r.state.Position)))
	_ = r.bar.Finish()
}

// Abandon stops the display after a failed or interrupted pass, leaving the
// last render in place.
func (r *Reporter) Abandon() {
	if r.bar == nil {
		return
	}
	_ = r.bar.Exit()
}

func (r *Reporter) render() {
	if r.bar == nil {
		return
	}
	if r.state.Determinate() {
		r.bar.Describe(fmt.Sprintf("%s %s/%s", r.label, FormatClock(r.state.Position), FormatClock(r.state.Total)))
		_ = r.bar.Set64(int64(r.state.Percent * barScale / 100))
		return
	}
	r.bar.Describe(fmt.Sprintf("%s %s encoded", r.label, FormatClock(r.state.Position)))
	_ = r.bar.Add64(1)
}

func (r *Reporter) log() {
	emit := r.sampler.ShouldLog(r.state.Percent, r.label)
	if !r.state.Determinate() && r.state.Position >= r.nextLog {
		r.nextLog = r.state.Position + indeterminateLogStep
		emit = true
	}
	if !emit {
		return
	}
	attrs := []logging.Attr{
		logging.String("pass", r.label),
		logging.String("position", FormatClock(r.state.Position)),
		logging.Duration("elapsed", time.Since(r.started)),
	}
	if r.state.Determinate() {
		attrs = append(attrs, logging.Float64("percent", roundTenth(r.state.Percent)))
	}
	r.logger.Log(context.Background(), r.logAt, "encoding progress", logging.Args(attrs...)...)
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func roundTenth(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

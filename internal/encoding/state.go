package encoding

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"movcompress/internal/logging"
)

// State is a step of the compression state machine.
type State string

const (
	StateIdle            State = "idle"
	StateProbingDuration State = "probing_duration"
	StatePass1           State = "pass1"
	StatePass2           State = "pass2"
	StateSinglePass      State = "single_pass"
	StateReportingStats  State = "reporting_stats"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// transitions lists the forward edges. Failed is reachable from every
// non-terminal state and is handled separately.
var transitions = map[State][]State{
	StateIdle:            {StateProbingDuration},
	StateProbingDuration: {StatePass1, StateSinglePass},
	StatePass1:           {StatePass2},
	StatePass2:           {StateReportingStats},
	StateSinglePass:      {StateReportingStats},
	StateReportingStats:  {StateDone},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return slices.Contains(transitions[from], to)
}

// Transition records one state change.
type Transition struct {
	From State
	To   State
	At   time.Time
}

type machine struct {
	state   State
	history []Transition
	logger  *slog.Logger
	now     func() time.Time
}

func newMachine(logger *slog.Logger, now func() time.Time) *machine {
	return &machine{state: StateIdle, logger: logger, now: now}
}

// move advances the machine. An illegal move is a programming error and is
// returned rather than applied.
func (m *machine) move(to State) error {
	if !CanTransition(m.state, to) {
		return fmt.Errorf("illegal state transition %s -> %s", m.state, to)
	}
	t := Transition{From: m.state, To: to, At: m.now()}
	m.history = append(m.history, t)
	m.state = to
	m.logger.Debug("state transition", logging.String("from", string(t.From)), logging.String("to", string(t.To)))
	return nil
}

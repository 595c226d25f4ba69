// Package commit drives a single value into a single field through the
// activate, type, confirm, verify protocol of an inline-edit form.
package commit

import (
	"time"

	"github.com/joseph-ayodele/nutrifill/constants"
	"github.com/joseph-ayodele/nutrifill/internal/common"
)

// State is a step of the commit protocol.
type State int

const (
	StateIdle State = iota
	StateActivating
	StateEditing
	StateConfirming
	StateVerifying
	StateCommitted
	StateFailed
)

var stateNames = [...]string{"idle", "activating", "editing", "confirming", "verifying", "committed", "failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether the machine stops in s.
func (s State) Terminal() bool { return s == StateCommitted || s == StateFailed }

// Outcome is the result of one commit attempt. OutcomePending means the
// machine has not reached a terminal state.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeCommitted
	OutcomeNotActivated
	OutcomeVerificationFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomeNotActivated:
		return string(constants.ReasonNotActivated)
	case OutcomeVerificationFailed:
		return string(constants.ReasonVerificationFailed)
	default:
		return "pending"
	}
}

// Reason maps a failed outcome to the reason recorded in a pass report.
func (o Outcome) Reason() constants.FailureReason {
	switch o {
	case OutcomeNotActivated:
		return constants.ReasonNotActivated
	case OutcomeVerificationFailed:
		return constants.ReasonVerificationFailed
	default:
		return ""
	}
}

// Observation is what the driver saw of the field after acting in a state.
type Observation struct {
	HasControl bool
	Displayed  bool
	// Waited is the time spent in the current state so far.
	Waited time.Duration
	// InputErr is set when typing or confirming failed.
	InputErr error
}

// Timing holds the protocol's waits and pacing.
type Timing struct {
	ActivationTimeout time.Duration
	ConfirmTimeout    time.Duration
	PollInterval      time.Duration
	KeyDelay          time.Duration
	EntryDelay        time.Duration
	HighlightDuration time.Duration
	HighlightColor    string
}

const HighlightColor = "#d5f3df"

func DefaultTiming() Timing {
	return Timing{
		ActivationTimeout: time.Second,
		ConfirmTimeout:    time.Second,
		PollInterval:      50 * time.Millisecond,
		KeyDelay:          30 * time.Millisecond,
		EntryDelay:        150 * time.Millisecond,
		HighlightDuration: time.Second,
		HighlightColor:    HighlightColor,
	}
}

// TimingFromConfig overlays configured durations on the defaults. Zero
// values keep the default.
func TimingFromConfig(cfg common.TimingConfig) Timing {
	t := DefaultTiming()
	if cfg.ActivationTimeout > 0 {
		t.ActivationTimeout = cfg.ActivationTimeout
	}
	if cfg.ConfirmTimeout > 0 {
		t.ConfirmTimeout = cfg.ConfirmTimeout
	}
	if cfg.PollInterval > 0 {
		t.PollInterval = cfg.PollInterval
	}
	if cfg.KeyDelay > 0 {
		t.KeyDelay = cfg.KeyDelay
	}
	if cfg.EntryDelay > 0 {
		t.EntryDelay = cfg.EntryDelay
	}
	if cfg.HighlightDuration > 0 {
		t.HighlightDuration = cfg.HighlightDuration
	}
	return t
}

func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	if t.ActivationTimeout <= 0 {
		t.ActivationTimeout = d.ActivationTimeout
	}
	if t.ConfirmTimeout <= 0 {
		t.ConfirmTimeout = d.ConfirmTimeout
	}
	if t.PollInterval <= 0 {
		t.PollInterval = d.PollInterval
	}
	if t.KeyDelay < 0 {
		t.KeyDelay = 0
	}
	if t.EntryDelay < 0 {
		t.EntryDelay = 0
	}
	if t.HighlightColor == "" {
		t.HighlightColor = d.HighlightColor
	}
	return t
}

// Bound is the longest a single commit of a value with n characters can take,
// give or take one poll interval per wait.
func (t Timing) Bound(n int) time.Duration {
	return t.ActivationTimeout + time.Duration(n)*t.KeyDelay + t.ConfirmTimeout + 2*t.PollInterval
}

// PassBound is the bound for a whole pass over values of the given lengths,
// entry pacing included.
func (t Timing) PassBound(lengths ...int) time.Duration {
	var total time.Duration
	for i, n := range lengths {
		if i > 0 {
			total += t.EntryDelay
		}
		total += t.Bound(n)
	}
	return total
}

// Next is the pure transition function of the protocol. Non-terminal results
// carry OutcomePending; staying in the same state means "poll again".
func Next(s State, obs Observation, t Timing) (State, Outcome) {
	switch s {
	case StateIdle:
		if obs.HasControl {
			return StateEditing, OutcomePending
		}
		return StateActivating, OutcomePending

	case StateActivating:
		if obs.HasControl {
			return StateEditing, OutcomePending
		}
		if obs.Waited >= t.ActivationTimeout {
			return StateFailed, OutcomeNotActivated
		}
		return StateActivating, OutcomePending

	case StateEditing:
		if !obs.HasControl {
			return StateFailed, OutcomeNotActivated
		}
		if obs.InputErr != nil {
			return StateFailed, OutcomeVerificationFailed
		}
		return StateConfirming, OutcomePending

	case StateConfirming:
		if obs.InputErr != nil {
			return StateFailed, OutcomeVerificationFailed
		}
		return StateVerifying, OutcomePending

	case StateVerifying:
		if !obs.HasControl && obs.Displayed {
			return StateCommitted, OutcomeCommitted
		}
		if obs.Waited >= t.ConfirmTimeout {
			return StateFailed, OutcomeVerificationFailed
		}
		return StateVerifying, OutcomePending

	case StateCommitted:
		return StateCommitted, OutcomeCommitted
	}
	return StateFailed, OutcomeVerificationFailed
}

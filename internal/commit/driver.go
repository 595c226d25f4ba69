package commit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/nutrifill/internal/autofill"
)

var errControlLost = errors.New("editable control went away")

// Result describes one commit attempt.
type Result struct {
	Outcome Outcome
	State   State
	Elapsed time.Duration
	// Trace lists the states visited, in order, starting with StateIdle.
	Trace []State
	// Err is set only when the context ended the attempt early.
	Err error
}

// OK reports whether the value was committed.
func (r Result) OK() bool { return r.Outcome == OutcomeCommitted }

// Driver runs the commit protocol against live fields.
type Driver struct {
	Timing Timing
	Logger *slog.Logger
}

func NewDriver(timing Timing, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{Timing: timing.withDefaults(), Logger: logger}
}

// Commit writes value into field. It never retries; the outcome says what the
// field did. Field state is re-read after every wait since the page may have
// re-rendered in between.
func (d *Driver) Commit(ctx context.Context, field autofill.Field, value string) Result {
	start := time.Now()
	state := StateIdle
	entered := start
	res := Result{Trace: []State{state}}

	finish := func(outcome Outcome, err error) Result {
		res.Outcome = outcome
		res.State = state
		res.Elapsed = time.Since(start)
		res.Err = err
		return res
	}

	for {
		obs, err := d.act(ctx, state, field, value)
		if err != nil {
			return finish(OutcomePending, err)
		}
		obs.Waited = time.Since(entered)

		next, outcome := Next(state, obs, d.Timing)
		if next == state {
			if err := sleep(ctx, d.Timing.PollInterval); err != nil {
				return finish(OutcomePending, err)
			}
			continue
		}

		d.Logger.Debug("commit.transition",
			"label", field.Label(),
			"from", state.String(),
			"to", next.String(),
			"waited", obs.Waited,
		)
		if next == StateActivating {
			if err := field.Activate(); err != nil {
				d.Logger.Debug("commit.activate.error", "label", field.Label(), "err", err)
			}
		}

		state = next
		entered = time.Now()
		res.Trace = append(res.Trace, state)

		if state.Terminal() {
			if outcome == OutcomeCommitted {
				field.Highlight(d.Timing.HighlightColor, d.Timing.HighlightDuration)
			} else {
				d.Logger.Debug("commit.failed", "label", field.Label(), "outcome", outcome.String(), "cause", obs.InputErr)
			}
			return finish(outcome, nil)
		}
	}
}

// act performs the side effects of state and reports what the field looks like
// afterwards. A non-nil error means the context ended.
func (d *Driver) act(ctx context.Context, state State, field autofill.Field, value string) (Observation, error) {
	switch state {
	case StateEditing:
		err := d.typeValue(ctx, field, value)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Observation{}, ctxErr
		}
		if errors.Is(err, errControlLost) {
			return Observation{HasControl: false, Displayed: field.Displayed()}, nil
		}
		return Observation{HasControl: true, InputErr: err}, nil

	case StateConfirming:
		var err error
		if c, ok := field.Control(); ok {
			err = c.Confirm()
		}
		return Observation{InputErr: err}, nil
	}

	_, ok := field.Control()
	return Observation{HasControl: ok, Displayed: field.Displayed()}, nil
}

// typeValue replaces the control's content with value one character at a
// time. The control is looked up again after every pause.
func (d *Driver) typeValue(ctx context.Context, field autofill.Field, value string) error {
	c, ok := field.Control()
	if !ok {
		return errControlLost
	}
	if err := c.Focus(); err != nil {
		return fmt.Errorf("focus: %w", err)
	}
	if err := c.SelectAll(); err != nil {
		return fmt.Errorf("select: %w", err)
	}
	if err := c.Clear(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	first := true
	for _, r := range value {
		if !first {
			if err := sleep(ctx, d.Timing.KeyDelay); err != nil {
				return err
			}
			if c, ok = field.Control(); !ok {
				return errControlLost
			}
		}
		first = false
		if err := c.AppendText(string(r)); err != nil {
			return fmt.Errorf("type %q: %w", r, err)
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

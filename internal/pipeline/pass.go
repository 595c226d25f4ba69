// Package pipeline runs fill passes: parse the text, then match and commit
// each entry in order against a registry.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/nutrifill/internal/autofill"
	"github.com/joseph-ayodele/nutrifill/internal/commit"
	"github.com/joseph-ayodele/nutrifill/internal/common"
	"github.com/joseph-ayodele/nutrifill/internal/entry"
	"github.com/joseph-ayodele/nutrifill/internal/match"
)

// Recorder persists finished passes.
type Recorder interface {
	Record(ctx context.Context, r Report) error
}

// Pass coordinates matching and committing for one block of text.
type Pass struct {
	Matcher  *match.Matcher
	Driver   *commit.Driver
	Notifier autofill.Notifier
	History  Recorder
	Logger   *slog.Logger
}

// NewPass wires a pass. Notifier and history are optional.
func NewPass(m *match.Matcher, d *commit.Driver, n autofill.Notifier, h Recorder, logger *slog.Logger) *Pass {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = match.NewMatcher(nil, logger)
	}
	if d == nil {
		d = commit.NewDriver(commit.DefaultTiming(), logger)
	}
	return &Pass{Matcher: m, Driver: d, Notifier: n, History: h, Logger: logger}
}

// Run fills reg from text. Per-entry failures land in the report and never
// stop the pass; the only error is the context's, in which case the report
// covers the entries handled so far.
func (p *Pass) Run(ctx context.Context, text string, reg autofill.Registry) (Report, error) {
	rep := Report{
		ID:        common.PassIDFromContext(ctx),
		Source:    common.SourceFromContext(ctx),
		StartedAt: time.Now(),
	}
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	log := p.Logger.With("pass_id", rep.ID, "source", rep.Source)
	log.Info("fillpass.start")

	session := p.Matcher.NewSession()
	var runErr error
	committed := 0

	for e := range entry.Parse(text) {
		if runErr = ctx.Err(); runErr != nil {
			break
		}
		rep.Entries++

		res := session.Match(ctx, e, reg)
		if !res.Matched() {
			log.Info("fillpass.no_match", "entry", e.String(), "reason", res.Reason)
			rep.Failures = append(rep.Failures, Failure{Entry: e, Reason: res.Reason})
			continue
		}

		if committed > 0 {
			if runErr = pause(ctx, p.Driver.Timing.EntryDelay); runErr != nil {
				break
			}
		}
		committed++

		out := p.Driver.Commit(ctx, res.Field, e.Value)
		if out.Err != nil {
			runErr = out.Err
			break
		}
		if !out.OK() {
			log.Warn("fillpass.commit.failed",
				"label", res.Field.Label(),
				"value", e.Value,
				"outcome", out.Outcome.String(),
				"state", out.State.String(),
			)
			rep.Failures = append(rep.Failures, Failure{Entry: e, Reason: out.Outcome.Reason()})
			continue
		}
		rep.Filled++
		log.Debug("fillpass.commit.ok", "label", res.Field.Label(), "value", e.Value, "elapsed", out.Elapsed)
	}

	rep.Duration = time.Since(rep.StartedAt)
	if runErr != nil {
		log.Warn("fillpass.aborted", "filled", rep.Filled, "err", runErr)
	} else {
		log.Info("fillpass.done", "entries", rep.Entries, "filled", rep.Filled, "failed", len(rep.Failures), "duration", rep.Duration)
	}

	if rep.Filled > 0 && p.Notifier != nil {
		p.Notifier.Notify(rep.Summary())
	}
	if p.History != nil {
		// detach from cancellation so an aborted pass is still recorded
		if err := p.History.Record(context.WithoutCancel(ctx), rep); err != nil {
			log.Error("history.record.failed", "err", err)
		}
	}
	return rep, runErr
}

// RunFillPass runs a pass and returns only the number of fields filled.
func (p *Pass) RunFillPass(ctx context.Context, text string, reg autofill.Registry) int {
	rep, _ := p.Run(ctx, text, reg)
	return rep.Filled
}

func pause(ctx context.Context, d time.Duration) error {
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

// Bound is the worst-case duration of a pass over text, from the driver's
// timing and the number of characters each entry types.
func (p *Pass) Bound(text string) time.Duration {
	var lengths []int
	for e := range entry.Parse(text) {
		lengths = append(lengths, len([]rune(e.Value)))
	}
	return p.Driver.Timing.PassBound(lengths...)
}

package match

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/nutrifill/constants"
	"github.com/joseph-ayodele/nutrifill/internal/autofill"
	"github.com/joseph-ayodele/nutrifill/internal/entry"
)

// Result pairs an entry with the field it matched. Field is nil when the
// entry matched nothing; Reason then says why.
type Result struct {
	Entry  entry.Entry
	Field  autofill.Field
	Reason constants.FailureReason
}

// Matched reports whether the result carries a field.
func (r Result) Matched() bool { return r.Field != nil }

type Matcher struct {
	tables *Tables
	logger *slog.Logger
}

func NewMatcher(tables *Tables, logger *slog.Logger) *Matcher {
	if tables == nil {
		tables = DefaultTables()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{tables: tables, logger: logger}
}

// Tables returns the equivalence tables in use.
func (m *Matcher) Tables() *Tables { return m.tables }

// FindField walks the registry in its own order and returns the first field
// whose label and unit are both equivalent to the query.
func (m *Matcher) FindField(ctx context.Context, label, unit string, reg autofill.Registry) (autofill.Field, bool) {
	for f := range reg.Fields(ctx) {
		if !m.tables.LabelsMatch(label, f.Label()) {
			continue
		}
		if !m.tables.UnitsMatch(unit, f.Unit()) {
			m.logger.Debug("match.unit_mismatch", "label", label, "unit", unit, "field_unit", f.Unit())
			continue
		}
		return f, true
	}
	return nil, false
}

// FieldKey identifies a field within one pass by its normalized label and unit.
func FieldKey(f autofill.Field) string {
	return Normalize(f.Label()) + "\x00" + Normalize(f.Unit())
}

// Session enforces first-match-wins across the entries of one fill pass.
type Session struct {
	m       *Matcher
	claimed map[string]struct{}
}

func (m *Matcher) NewSession() *Session {
	return &Session{m: m, claimed: make(map[string]struct{})}
}

// Match finds the field for e. A field already claimed earlier in the session
// is not handed out again.
func (s *Session) Match(ctx context.Context, e entry.Entry, reg autofill.Registry) Result {
	f, ok := s.m.FindField(ctx, e.Label, e.Unit, reg)
	if !ok {
		return Result{Entry: e, Reason: constants.ReasonNoMatch}
	}
	key := FieldKey(f)
	if _, taken := s.claimed[key]; taken {
		return Result{Entry: e, Reason: constants.ReasonAlreadyFilled}
	}
	s.claimed[key] = struct{}{}
	return Result{Entry: e, Field: f}
}

// MatchAll pairs every entry in order within a fresh session. Nothing is written.
func (m *Matcher) MatchAll(ctx context.Context, entries []entry.Entry, reg autofill.Registry) []Result {
	s := m.NewSession()
	out := make([]Result, 0, len(entries))
	for _, e := range entries {
		out = append(out, s.Match(ctx, e, reg))
	}
	return out
}

package match

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/joseph-ayodele/nutrifill/constants"
	"github.com/joseph-ayodele/nutrifill/internal/common"
)

// ErrAmbiguousClass is returned when one normalized string belongs to two classes.
var ErrAmbiguousClass = errors.New("member appears in more than one equivalence class")

// Kind names what a table compares.
type Kind string

const (
	KindLabel Kind = "label"
	KindUnit  Kind = "unit"
)

// Table is an immutable set of equivalence classes keyed by canonical name.
type Table struct {
	kind    Kind
	classes map[string][]string
	index   map[string]string // normalized member -> canonical
}

// NewTable normalizes every key and member and indexes them. The canonical key
// is always a member of its own class. Keys that normalize to the same string
// are merged; a member claimed by two different classes is a configuration
// error.
func NewTable(kind Kind, classes map[string][]string) (*Table, error) {
	t := &Table{
		kind:    kind,
		classes: make(map[string][]string, len(classes)),
		index:   make(map[string]string),
	}

	for _, rawKey := range slices.Sorted(maps.Keys(classes)) {
		canon := Normalize(rawKey)
		if canon == "" {
			return nil, common.ConfigError(fmt.Sprintf("%s class %q normalizes to an empty key", kind, rawKey), nil)
		}
		members := append([]string{rawKey}, classes[rawKey]...)
		for _, raw := range members {
			m := Normalize(raw)
			if m == "" {
				return nil, common.ConfigError(fmt.Sprintf("%s class %q has member %q that normalizes to nothing", kind, rawKey, raw), nil)
			}
			if prev, ok := t.index[m]; ok {
				if prev != canon {
					return nil, common.ConfigError(
						fmt.Sprintf("%s %q is in both %q and %q", kind, m, prev, canon),
						ErrAmbiguousClass,
					)
				}
				continue
			}
			t.index[m] = canon
			t.classes[canon] = append(t.classes[canon], m)
		}
	}
	return t, nil
}

// Kind reports what the table compares.
func (t *Table) Kind() Kind { return t.kind }

// Canonical returns the class key for s, if s belongs to a class.
func (t *Table) Canonical(s string) (string, bool) {
	c, ok := t.index[Normalize(s)]
	return c, ok
}

// Equivalent reports whether a and b normalize to the same string or share a class.
func (t *Table) Equivalent(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	ca, okA := t.index[na]
	cb, okB := t.index[nb]
	return okA && okB && ca == cb
}

// Classes returns a copy of the normalized classes.
func (t *Table) Classes() map[string][]string {
	out := make(map[string][]string, len(t.classes))
	for k, v := range t.classes {
		out[k] = slices.Clone(v)
	}
	return out
}

// Tables bundles the label and unit tables used by the matcher.
type Tables struct {
	Labels *Table
	Units  *Table
}

// NewTables builds both tables from raw class maps.
func NewTables(labels, units map[string][]string) (*Tables, error) {
	lt, err := NewTable(KindLabel, labels)
	if err != nil {
		return nil, err
	}
	ut, err := NewTable(KindUnit, units)
	if err != nil {
		return nil, err
	}
	return &Tables{Labels: lt, Units: ut}, nil
}

// DefaultTables returns the built-in nutrient and unit classes.
func DefaultTables() *Tables {
	t, err := NewTables(constants.LabelClasses(), constants.UnitClasses())
	if err != nil {
		panic(fmt.Sprintf("default equivalence tables: %v", err))
	}
	return t
}

// LabelsMatch reports label equivalence.
func (t *Tables) LabelsMatch(a, b string) bool { return t.Labels.Equivalent(a, b) }

// UnitsMatch reports unit equivalence.
func (t *Tables) UnitsMatch(a, b string) bool { return t.Units.Equivalent(a, b) }

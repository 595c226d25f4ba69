// Package entry turns pasted free text into label/value/unit records.
package entry

import (
	"fmt"
	"iter"
	"regexp"
	"slices"
	"strings"
)

// Entry is one (label, value, unit) triple read from a single input line.
// Value keeps the literal digits as written.
type Entry struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// String renders the entry in a form Parse reads back unchanged.
func (e Entry) String() string {
	return fmt.Sprintf("%s: %s %s", e.Label, e.Value, e.Unit)
}

// lineRE matches "<decoration><label><sep><number><ws><unit>".
// The label is non-greedy so the first number after it wins; anything after
// the unit token is ignored. Whitespace also admits Unicode space separators
// (NBSP shows up in text copied from web pages).
var lineRE = regexp.MustCompile(`^[•\-\s\p{Zs}]*(.+?)[\s\p{Zs}:]+(\d+\.?\d*)[\s\p{Zs}]+([a-zA-Zµμ]+)`)

// Parse yields the entries found in text, in line order. Lines that do not
// fit the grammar are skipped. The sequence can be ranged over any number of
// times and always yields the same entries.
func Parse(text string) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for line := range strings.SplitSeq(text, "\n") {
			e, ok := ParseLine(line)
			if !ok {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// ParseAll collects Parse into a slice.
func ParseAll(text string) []Entry {
	return slices.Collect(Parse(text))
}

// ParseLine parses a single line. ok is false when the line carries no entry.
func ParseLine(line string) (Entry, bool) {
	m := lineRE.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Entry{}, false
	}
	e := Entry{
		Label: strings.TrimSpace(m[1]),
		Value: m[2],
		Unit:  strings.TrimSpace(m[3]),
	}
	if e.Label == "" {
		return Entry{}, false
	}
	return e, true
}

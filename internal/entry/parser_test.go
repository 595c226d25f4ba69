package entry

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine_SeparatorsAndDecorations(t *testing.T) {
	triples := []Entry{
		{Label: "Energy", Value: "380", Unit: "kcal"},
		{Label: "Protein", Value: "25.5", Unit: "g"},
		{Label: "B1 (Thiamine)", Value: "0.08", Unit: "mg"},
		{Label: "Vitamin B12", Value: "2.4", Unit: "µg"},
		{Label: "Folate", Value: "400", Unit: "μg"},
		{Label: "Omega 3", Value: "1.2", Unit: "g"},
	}
	seps := []string{" ", ": ", ":"}
	decorations := []string{"", "- ", "• "}

	for _, want := range triples {
		for _, sep := range seps {
			for _, deco := range decorations {
				line := deco + want.Label + sep + want.Value + " " + want.Unit
				t.Run(line, func(t *testing.T) {
					got, ok := ParseLine(line)
					require.True(t, ok)
					assert.Equal(t, want, got)
				})
			}
		}
	}
}

func TestParseLine_Skips(t *testing.T) {
	for _, line := range []string{
		"",
		"   ",
		"Nutrition facts:",
		"Energy",
		"Energy:",
		"Energy 380",
		"380 kcal",
		"Protein -5 g",
	} {
		t.Run(fmt.Sprintf("%q", line), func(t *testing.T) {
			_, ok := ParseLine(line)
			assert.False(t, ok)
		})
	}
}

func TestParseLine_FirstNumberAndUnitOnly(t *testing.T) {
	got, ok := ParseLine("Energy 1590 kJ 380 kcal")
	require.True(t, ok)
	assert.Equal(t, Entry{Label: "Energy", Value: "1590", Unit: "kJ"}, got)

	got, ok = ParseLine("Sodium: 100 mg (4% DV)")
	require.True(t, ok)
	assert.Equal(t, Entry{Label: "Sodium", Value: "100", Unit: "mg"}, got)
}

func TestParseLine_Whitespace(t *testing.T) {
	got, ok := ParseLine("  \tFat  12.5 g\r")
	require.True(t, ok)
	assert.Equal(t, Entry{Label: "Fat", Value: "12.5", Unit: "g"}, got)
}

func TestParse_OrderAndRestart(t *testing.T) {
	text := "Nutrition\nEnergy: 380 kcal\r\n\nnot data\n- Protein 25.5 g\n• Fiber 4 g\n"

	first := ParseAll(text)
	second := ParseAll(text)

	want := []Entry{
		{Label: "Energy", Value: "380", Unit: "kcal"},
		{Label: "Protein", Value: "25.5", Unit: "g"},
		{Label: "Fiber", Value: "4", Unit: "g"},
	}
	assert.Equal(t, want, first)
	assert.Equal(t, first, second)
}

func TestParse_EarlyStop(t *testing.T) {
	var got []Entry
	for e := range Parse("A 1 g\nB 2 g\nC 3 g") {
		got = append(got, e)
		if len(got) == 2 {
			break
		}
	}
	assert.Len(t, got, 2)
}

func TestParse_ReserializedRoundTrip(t *testing.T) {
	text := "Energy 380 kcal\nTotal Fat: 12.5 g\n• B1 (Thiamine) 0.08 mg\n- Vitamin D 10 µg\n"
	entries := ParseAll(text)
	require.Len(t, entries, 4)

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, e.String())
	}
	assert.Equal(t, entries, ParseAll(strings.Join(lines, "\n")))
}

func TestParse_Empty(t *testing.T) {
	assert.Empty(t, ParseAll(""))
}

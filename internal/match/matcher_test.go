package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/nutrifill/constants"
	"github.com/joseph-ayodele/nutrifill/internal/entry"
	"github.com/joseph-ayodele/nutrifill/internal/registry/memory"
)

func testForm() *memory.Registry {
	return memory.New(
		memory.FieldSpec{Label: "Energy", Unit: "kcal"},
		memory.FieldSpec{Label: "Protein", Unit: "g"},
		memory.FieldSpec{Label: "Fiber", Unit: "g"},
		memory.FieldSpec{Label: "Vitamin B12", Unit: "µg"},
	)
}

func TestFindField(t *testing.T) {
	m := NewMatcher(nil, nil)
	reg := testForm()
	ctx := context.Background()

	f, ok := m.FindField(ctx, "Calories", "cal", reg)
	require.True(t, ok)
	assert.Equal(t, "Energy", f.Label())

	f, ok = m.FindField(ctx, "Fibre", "g", reg)
	require.True(t, ok)
	assert.Equal(t, "Fiber", f.Label())

	f, ok = m.FindField(ctx, "vitamin b-12", "mcg", reg)
	require.True(t, ok)
	assert.Equal(t, "Vitamin B12", f.Label())
}

func TestFindField_UnitGates(t *testing.T) {
	m := NewMatcher(nil, nil)
	_, ok := m.FindField(context.Background(), "Energy", "g", testForm())
	assert.False(t, ok)
}

func TestFindField_FirstInFormOrder(t *testing.T) {
	reg := memory.New(
		memory.FieldSpec{Label: "Fiber", Unit: "g"},
		memory.FieldSpec{Label: "Fibre", Unit: "g"},
	)
	f, ok := NewMatcher(nil, nil).FindField(context.Background(), "fibre", "g", reg)
	require.True(t, ok)
	assert.Equal(t, "Fiber", f.Label())
}

func TestFindField_EmptyRegistry(t *testing.T) {
	_, ok := NewMatcher(nil, nil).FindField(context.Background(), "Protein", "g", memory.New())
	assert.False(t, ok)
}

func TestMatchAll(t *testing.T) {
	m := NewMatcher(nil, nil)
	entries := []entry.Entry{
		{Label: "Protein", Value: "10", Unit: "g"},
		{Label: "Energy", Value: "380", Unit: "g"},
		{Label: "Zinc", Value: "1", Unit: "mg"},
		{Label: "protein", Value: "11", Unit: "g"},
		{Label: "Calories", Value: "380", Unit: "kcal"},
	}

	results := m.MatchAll(context.Background(), entries, testForm())
	require.Len(t, results, len(entries))

	assert.True(t, results[0].Matched())
	assert.Equal(t, "Protein", results[0].Field.Label())

	assert.False(t, results[1].Matched())
	assert.Equal(t, constants.ReasonNoMatch, results[1].Reason)

	assert.Equal(t, constants.ReasonNoMatch, results[2].Reason)

	assert.False(t, results[3].Matched())
	assert.Equal(t, constants.ReasonAlreadyFilled, results[3].Reason)

	assert.True(t, results[4].Matched())
	assert.Equal(t, "Energy", results[4].Field.Label())
}

func TestSession_FreshSessionsAreIndependent(t *testing.T) {
	m := NewMatcher(nil, nil)
	reg := testForm()
	e := entry.Entry{Label: "Protein", Value: "1", Unit: "g"}

	assert.True(t, m.NewSession().Match(context.Background(), e, reg).Matched())
	assert.True(t, m.NewSession().Match(context.Background(), e, reg).Matched())
}

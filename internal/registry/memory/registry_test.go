package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseForm(t *testing.T) {
	reg, err := ParseForm([]byte(`
fields:
  - {label: Energy, unit: kcal}
  - {label: Protein, unit: g, value: "12"}
  - {label: Sodium, unit: mg, behavior: inert, activate_delay: 20ms}
`))
	require.NoError(t, err)

	var labels []string
	for f := range reg.Fields(context.Background()) {
		labels = append(labels, f.Label())
	}
	assert.Equal(t, []string{"Energy", "Protein", "Sodium"}, labels)
	assert.Equal(t, "12", reg.Field("Protein").Value())
	assert.Equal(t, 20*time.Millisecond, reg.Field("Sodium").spec.ActivateDelay)
}

func TestParseForm_Errors(t *testing.T) {
	_, err := ParseForm([]byte(`fields: [{unit: g}]`))
	assert.ErrorContains(t, err, "label is required")

	_, err = ParseForm([]byte(`fields: [{label: Fat, unit: g, behavior: sulky}]`))
	assert.ErrorContains(t, err, "unknown behavior")
}

func TestField_NormalEditCycle(t *testing.T) {
	reg := New(FieldSpec{Label: "Protein", Unit: "g", Value: "1"})
	f := reg.Field("Protein")

	_, ok := f.Control()
	require.False(t, ok)
	assert.True(t, f.Displayed())

	require.NoError(t, f.Activate())
	c, ok := f.Control()
	require.True(t, ok)
	assert.False(t, f.Displayed())

	require.NoError(t, c.Focus())
	require.NoError(t, c.SelectAll())
	require.NoError(t, c.Clear())
	require.NoError(t, c.AppendText("2"))
	require.NoError(t, c.AppendText("5"))
	require.NoError(t, c.Confirm())

	assert.False(t, f.Editable())
	assert.True(t, f.Displayed())
	assert.Equal(t, "25", f.Value())
	assert.Equal(t, []string{"2", "5"}, f.Keystrokes())

	assert.ErrorIs(t, c.AppendText("9"), errDetached)
}

func TestField_Behaviors(t *testing.T) {
	t.Run("inert", func(t *testing.T) {
		f := New(FieldSpec{Label: "A", Behavior: NeverActivates}).Field("A")
		require.NoError(t, f.Activate())
		assert.False(t, f.Editable())
		assert.Equal(t, 1, f.Activations())
	})

	t.Run("already editable", func(t *testing.T) {
		f := New(FieldSpec{Label: "A", Behavior: AlwaysEditable}).Field("A")
		_, ok := f.Control()
		assert.True(t, ok)
		assert.False(t, f.Displayed())
	})

	t.Run("stuck", func(t *testing.T) {
		f := New(FieldSpec{Label: "A", Behavior: NeverSettles}).Field("A")
		require.NoError(t, f.Activate())
		c, _ := f.Control()
		require.NoError(t, c.Confirm())
		assert.True(t, f.Editable())
	})

	t.Run("vanish", func(t *testing.T) {
		f := New(FieldSpec{Label: "A", Behavior: Vanishes}).Field("A")
		require.NoError(t, f.Activate())
		c, _ := f.Control()
		require.NoError(t, c.Confirm())
		assert.False(t, f.Editable())
		assert.False(t, f.Displayed())
	})

	t.Run("reject", func(t *testing.T) {
		f := New(FieldSpec{Label: "A", Behavior: RejectsInput}).Field("A")
		require.NoError(t, f.Activate())
		c, _ := f.Control()
		assert.ErrorIs(t, c.AppendText("1"), errRejected)
	})

	t.Run("delayed activation", func(t *testing.T) {
		f := New(FieldSpec{Label: "A", ActivateDelay: 10 * time.Millisecond}).Field("A")
		require.NoError(t, f.Activate())
		assert.False(t, f.Editable())
		assert.Eventually(t, f.Editable, time.Second, 5*time.Millisecond)
	})
}

func TestRegistry_FieldsStopsOnCancel(t *testing.T) {
	reg := New(FieldSpec{Label: "A"}, FieldSpec{Label: "B"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := 0
	for range reg.Fields(ctx) {
		n++
	}
	assert.Zero(t, n)
}

package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/nutrifill/internal/common"
)

func TestDefaultTables_Labels(t *testing.T) {
	tables := DefaultTables()

	equivalent := [][2]string{
		{"Energy", "Calories"},
		{"Fiber", "Fibre"},
		{"Carbohydrates", "Total Carbs"},
		{"carbs", "Carbohydrates"},
		{"MUFA", "Monounsaturated"},
		{"pufa", "Polyunsaturated"},
		{"SFA", "saturated"},
		{"Protein", "protein"},
	}
	for _, p := range equivalent {
		assert.True(t, tables.LabelsMatch(p[0], p[1]), "%q ~ %q", p[0], p[1])
		assert.True(t, tables.LabelsMatch(p[1], p[0]), "%q ~ %q", p[1], p[0])
	}

	distinct := [][2]string{
		{"Energy", "Fat"},
		{"Saturated", "Monounsaturated"},
		{"Protein", "Proteins"},
		{"", ""},
	}
	for _, p := range distinct {
		assert.False(t, tables.LabelsMatch(p[0], p[1]), "%q !~ %q", p[0], p[1])
	}
}

func TestDefaultTables_Units(t *testing.T) {
	tables := DefaultTables()

	assert.True(t, tables.UnitsMatch("µg", "mcg"))
	assert.True(t, tables.UnitsMatch("μg", "ug"))
	assert.True(t, tables.UnitsMatch("µg", "μg"))
	assert.True(t, tables.UnitsMatch("cal", "KCAL"))
	assert.True(t, tables.UnitsMatch("IU", "iu"))

	assert.False(t, tables.UnitsMatch("g", "mg"))
	assert.False(t, tables.UnitsMatch("kcal", "kj"))
	assert.False(t, tables.UnitsMatch("g", "kcal"))
}

func TestNewTable_CanonicalKeyIsMember(t *testing.T) {
	table, err := NewTable(KindLabel, map[string][]string{"Sugars": {"total sugars"}})
	require.NoError(t, err)

	canon, ok := table.Canonical("TOTAL SUGARS")
	require.True(t, ok)
	assert.Equal(t, "sugars", canon)
	assert.True(t, table.Equivalent("sugars", "total sugars"))
	assert.Equal(t, []string{"sugars", "total sugars"}, table.Classes()["sugars"])
}

func TestNewTable_Ambiguous(t *testing.T) {
	_, err := NewTable(KindUnit, map[string][]string{
		"kcal": {"cal"},
		"kj":   {"Cal"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousClass)
	assert.True(t, common.HasCode(err, common.CodeConfig))
}

func TestNewTable_EmptyMember(t *testing.T) {
	_, err := NewTable(KindLabel, map[string][]string{"fat": {"--"}})
	require.Error(t, err)
	assert.True(t, common.HasCode(err, common.CodeConfig))
}

func TestTable_ClassesIsCopy(t *testing.T) {
	table := DefaultTables().Units
	c := table.Classes()
	c["g"][0] = "mutated"
	assert.Equal(t, "g", table.Classes()["g"][0])
}

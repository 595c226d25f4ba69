package constants

// Nutrient is the canonical key of a label equivalence class.
type Nutrient string

const (
	Energy          Nutrient = "energy"
	Fibre           Nutrient = "fibre"
	TotalCarbs      Nutrient = "total carbs"
	Monounsaturated Nutrient = "monounsaturated"
	Polyunsaturated Nutrient = "polyunsaturated"
	Saturated       Nutrient = "saturated"
)

// labelSynonyms lists the interchangeable spellings for each canonical nutrient.
// "carbs" is included here; one variant of the source table omitted it.
var labelSynonyms = map[Nutrient][]string{
	Energy:          {"energy", "calories"},
	Fibre:           {"fibre", "fiber"},
	TotalCarbs:      {"total carbs", "carbohydrates", "carbs"},
	Monounsaturated: {"monounsaturated", "mufa"},
	Polyunsaturated: {"polyunsaturated", "pufa"},
	Saturated:       {"saturated", "sfa"},
}

// LabelClasses returns a fresh copy of the default label equivalence classes.
func LabelClasses() map[string][]string {
	out := make(map[string][]string, len(labelSynonyms))
	for k, v := range labelSynonyms {
		out[string(k)] = append([]string(nil), v...)
	}
	return out
}

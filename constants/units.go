package constants

// Unit is the canonical key of a unit equivalence class.
type Unit string

const (
	Microgram   Unit = "µg"
	Milligram   Unit = "mg"
	Gram        Unit = "g"
	Kilocalorie Unit = "kcal"
	Kilojoule   Unit = "kj"
	IU          Unit = "iu"
)

var unitSynonyms = map[Unit][]string{
	Microgram:   {"µg", "μg", "ug", "mcg"},
	Milligram:   {"mg"},
	Gram:        {"g"},
	Kilocalorie: {"kcal", "cal"},
	Kilojoule:   {"kj"},
	IU:          {"iu"},
}

// UnitClasses returns a fresh copy of the default unit equivalence classes.
func UnitClasses() map[string][]string {
	out := make(map[string][]string, len(unitSynonyms))
	for k, v := range unitSynonyms {
		out[string(k)] = append([]string(nil), v...)
	}
	return out
}

package memory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Form is the YAML snapshot of a nutrition form:
//
//	fields:
//	  - {label: Energy, unit: kcal}
//	  - {label: Protein, unit: g, value: "12"}
type Form struct {
	Fields []FieldSpec `yaml:"fields"`
}

// LoadForm reads a form snapshot from disk.
func LoadForm(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form: %w", err)
	}
	return ParseForm(b)
}

// ParseForm decodes a form snapshot.
func ParseForm(data []byte) (*Registry, error) {
	var form Form
	if err := yaml.Unmarshal(data, &form); err != nil {
		return nil, fmt.Errorf("decode form: %w", err)
	}
	for i, f := range form.Fields {
		if f.Label == "" {
			return nil, fmt.Errorf("form field %d: label is required", i)
		}
		switch f.Behavior {
		case "", Normal, AlwaysEditable, NeverActivates, NeverSettles, Vanishes, RejectsInput:
		default:
			return nil, fmt.Errorf("form field %q: unknown behavior %q", f.Label, f.Behavior)
		}
	}
	return New(form.Fields...), nil
}

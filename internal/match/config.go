package match

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/nutrifill/constants"
	"github.com/joseph-ayodele/nutrifill/internal/common"
)

// TablesFile is the on-disk shape of a tables override.
//
//	extend: true
//	labels:
//	  sugars: [sugars, total sugars]
//	units:
//	  kcal: [kcal, cal, kcals]
type TablesFile struct {
	Extend bool                `yaml:"extend" json:"extend"`
	Labels map[string][]string `yaml:"labels" json:"labels"`
	Units  map[string][]string `yaml:"units" json:"units"`
}

// BuildTablesJSONSchema returns the JSON-Schema a tables file must satisfy.
func BuildTablesJSONSchema() map[string]any {
	classMap := map[string]any{
		"type": "object",
		"additionalProperties": map[string]any{
			"type":     "array",
			"minItems": 1,
			"items":    map[string]any{"type": "string", "minLength": 1},
		},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"extend": map[string]any{"type": "boolean"},
			"labels": classMap,
			"units":  classMap,
		},
	}
}

// LoadTables reads and validates a YAML tables file.
func LoadTables(path string) (*Tables, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, common.ConfigError(fmt.Sprintf("read tables file %s", path), err)
	}
	return ParseTables(b)
}

// ParseTables validates data against the tables schema and builds Tables.
// With extend set the classes are merged over the defaults (file wins on
// identical keys); otherwise they replace the defaults for any kind present.
func ParseTables(data []byte) (*Tables, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, common.ConfigError("decode tables yaml", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return nil, common.ConfigError("tables yaml is not json-compatible", err)
	}
	if err := validateAgainstSchema(BuildTablesJSONSchema(), js); err != nil {
		return nil, common.ConfigError("tables file invalid", err)
	}

	var tf TablesFile
	if err := json.Unmarshal(js, &tf); err != nil {
		return nil, common.ConfigError("decode tables", err)
	}

	labels := constants.LabelClasses()
	units := constants.UnitClasses()
	if tf.Extend {
		maps.Copy(labels, tf.Labels)
		maps.Copy(units, tf.Units)
	} else {
		if tf.Labels != nil {
			labels = tf.Labels
		}
		if tf.Units != nil {
			units = tf.Units
		}
	}
	return NewTables(labels, units)
}

func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("tables.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("tables.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("document does not match schema: %w", err)
	}
	return nil
}

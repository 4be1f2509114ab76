package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildFieldsJSONSchema returns a JSON-Schema (draft 2020-12 subset) for
// the structured response mode: one optional string property per declared
// field name, nothing else. Fields the model cannot read are omitted, not
// nulled.
func BuildFieldsJSONSchema(fieldNames []string) map[string]any {
	props := make(map[string]any, len(fieldNames))
	for _, name := range fieldNames {
		props[name] = map[string]any{"type": "string"}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// ParseJSONFields converts a schema-validated JSON object into Fields,
// keeping the declared field order.
func ParseJSONFields(data []byte, fieldNames []string) (Fields, error) {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return Fields{}, fmt.Errorf("unmarshal fields: %w", err)
	}
	var out Fields
	for _, name := range fieldNames {
		if v, ok := m[name]; ok {
			out.setPair(name, v)
		}
	}
	return out, nil
}

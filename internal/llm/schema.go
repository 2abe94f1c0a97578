package llm

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildFieldSchema returns a JSON-Schema (draft 2020-12 subset) for a
// category's field payload as a generic map. Every declared key is
// required; null marks an unrecoverable value.
func BuildFieldSchema(fieldKeys []string) map[string]any {
	props := map[string]any{
		"confidence": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
	}
	for _, key := range fieldKeys {
		props[key] = map[string]any{"type": []string{"string", "number", "null"}}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             fieldKeys,
	}
}

// ValidateAgainstSchema validates a JSON document against the schema map.
func ValidateAgainstSchema(schema map[string]any, doc []byte) error {
	raw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiled, err := jsonschema.CompileString("fields.schema.json", string(raw))
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var value any
	if err := json.Unmarshal(doc, &value); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	if err := compiled.Validate(value); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}

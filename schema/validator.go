// Package schema validates kiln.yml content against the JSON Schema
// compiled into the binary. The schema artifact is regenerated by
// tools/schema-generator; edit the config types, not the JSON.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed kiln.embedded.schema.json
var embeddedSchemaData []byte

// Embedded returns the raw embedded schema bytes. Callers must treat the
// slice as read-only.
func Embedded() []byte {
	return embeddedSchemaData
}

// Validator holds the compiled embedded schema.
type Validator struct {
	compiled *jsonschema.Schema
}

// NewValidator compiles the embedded schema. Compilation only fails when
// the generated artifact is broken, so most callers treat an error here as
// fatal.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("kiln.json", bytes.NewReader(embeddedSchemaData)); err != nil {
		return nil, fmt.Errorf("failed to add embedded schema resource: %w", err)
	}
	compiled, err := compiler.Compile("kiln.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile embedded schema: %w", err)
	}
	return &Validator{compiled: compiled}, nil
}

// Validate checks configData against the schema. configData is any value
// that marshals to JSON; it round-trips through encoding/json because the
// schema library validates plain decoded values, not Go structs.
func (v *Validator) Validate(configData interface{}) error {
	raw, err := json.Marshal(configData)
	if err != nil {
		return fmt.Errorf("failed to marshal config to JSON for validation: %w", err)
	}
	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("failed to unmarshal JSON for validation: %w", err)
	}

	err = v.compiled.Validate(decoded)
	if err == nil {
		return nil
	}
	if verr, ok := err.(*jsonschema.ValidationError); ok {
		return fmt.Errorf("schema validation failed:\n%s", strings.Join(flattenCauses(verr, nil), "\n"))
	}
	return fmt.Errorf("schema validation failed: %w", err)
}

// flattenCauses walks the error tree and renders one line per located
// failure.
func flattenCauses(err *jsonschema.ValidationError, lines []string) []string {
	if err.InstanceLocation != "" {
		lines = append(lines, fmt.Sprintf("- %s: %s", err.InstanceLocation, err.Message))
	}
	for _, cause := range err.Causes {
		lines = flattenCauses(cause, lines)
	}
	return lines
}

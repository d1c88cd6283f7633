package config

import (
	"github.com/kilntools/kiln/schema"
)

// SchemaValidator checks configuration data against kiln's embedded JSON
// Schema. It exists so this package's callers never import the schema
// package themselves.
type SchemaValidator struct {
	inner *schema.Validator
}

// NewSchemaValidator compiles the embedded schema.
func NewSchemaValidator() (*SchemaValidator, error) {
	inner, err := schema.NewValidator()
	if err != nil {
		return nil, err
	}
	return &SchemaValidator{inner: inner}, nil
}

// Validate reports structural problems in configData, which may be any
// value that marshals to JSON.
func (v *SchemaValidator) Validate(configData interface{}) error {
	return v.inner.Validate(configData)
}

package config

import (
	"strings"
	"testing"
)

func TestSchemaValidation(t *testing.T) {
	validator, err := NewSchemaValidator()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		config    map[string]interface{}
		wantError bool
		errorMsg  string
	}{
		{
			name: "valid config",
			config: map[string]interface{}{
				"version": "1.0",
				"build_configurations": []interface{}{
					map[string]interface{}{
						"name":      "debug",
						"directory": "/ws/app/build/debug",
					},
				},
			},
			wantError: false,
		},
		{
			name:      "minimal config",
			config:    map[string]interface{}{},
			wantError: false,
		},
		{
			name: "unknown top-level keys are extension sections",
			config: map[string]interface{}{
				"version": "1.0",
				"logging": map[string]interface{}{"level": "debug"},
			},
			wantError: false,
		},
		{
			name: "version must be a string",
			config: map[string]interface{}{
				"version": 1.0,
			},
			wantError: true,
			errorMsg:  "/version",
		},
		{
			name: "build configuration entries must be objects",
			config: map[string]interface{}{
				"build_configurations": []interface{}{"debug"},
			},
			wantError: true,
			errorMsg:  "/build_configurations",
		},
		{
			name: "icons must come from the enum",
			config: map[string]interface{}{
				"tui": map[string]interface{}{"icons": "emoji"},
			},
			wantError: true,
			errorMsg:  "/tui/icons",
		},
		{
			name: "workspaces must be an array",
			config: map[string]interface{}{
				"workspaces": "~/work/*",
			},
			wantError: true,
			errorMsg:  "/workspaces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate(tt.config)
			if tt.wantError {
				if err == nil {
					t.Fatal("expected validation error, got nil")
				}
				if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error mentioning %q, got: %v", tt.errorMsg, err)
				}
			} else if err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}

// The struct path: a parsed Config must validate, including one with
// incomplete build configuration entries (name and directory marshal as
// empty strings, which the schema accepts).
func TestSchemaValidationOfParsedConfig(t *testing.T) {
	validator, err := NewSchemaValidator()
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromBytes([]byte(`
version: "1.0"
build_configurations:
  - name: debug
  - directory: /ws/app/build/release
`))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if err := validator.Validate(cfg); err != nil {
		t.Errorf("parsed config failed schema validation: %v", err)
	}
}

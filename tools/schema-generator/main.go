// Command schema-generator regenerates schema/kiln.embedded.schema.json
// from the reflected config types. Run it (via go:generate in the config
// package) whenever those types change, so the embedded artifact cannot
// drift from the code.
package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/kilntools/kiln/config"
)

func main() {
	data, err := config.GenerateSchema()
	if err != nil {
		log.Fatalf("Error generating schema: %v", err)
	}

	target := filepath.Join("schema", "kiln.embedded.schema.json")
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		log.Fatalf("Error creating schema directory: %v", err)
	}
	if err := os.WriteFile(target, data, 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated embedded schema at %s", target)
}

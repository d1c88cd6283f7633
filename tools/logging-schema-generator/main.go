// Command logging-schema-generator emits the JSON Schema for the `logging`
// extension section of kiln.yml. The schema-composer picks the artifact up
// when bundling the published schema.
package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/kilntools/kiln/logging"
)

func main() {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	schema := reflector.Reflect(&logging.Config{})
	schema.Title = "Kiln Logging Configuration"
	schema.Description = "Schema for the 'logging' extension in kiln.yml."
	// Every logging field is optional; an empty section means defaults.
	schema.Required = nil

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("Error marshaling schema: %v", err)
	}
	if err := os.WriteFile("logging.schema.json", data, 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated logging schema at logging.schema.json")
}

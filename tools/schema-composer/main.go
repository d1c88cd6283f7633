// Command schema-composer assembles the publishable kiln.yml schemas from
// the embedded base schema plus the extension schemas listed in the schema
// package's manifest. It emits two variants under schema/dist/: a
// resolvable schema whose extension sections are remote $refs (what IDEs
// consume), and a bundled schema with those refs fetched and inlined (what
// releases publish).
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	kilnschema "github.com/kilntools/kiln/schema"
)

const (
	basePath = "schema/kiln.embedded.schema.json"
	distDir  = "schema/dist"
)

func main() {
	log.Println("Starting schema composition...")

	if err := os.MkdirAll(distDir, 0755); err != nil {
		log.Fatalf("Failed to create dist directory: %v", err)
	}

	resolvable, err := composeResolvable()
	if err != nil {
		log.Fatalf("Failed to create resolvable schema: %v", err)
	}
	if err := emit(filepath.Join(distDir, "kiln.schema.json"), resolvable); err != nil {
		log.Fatalf("Failed to write resolvable schema: %v", err)
	}

	bundled, err := inlineExtensions(resolvable)
	if err != nil {
		log.Fatalf("Failed to create bundled schema: %v", err)
	}
	if err := emit(filepath.Join(distDir, "kiln.bundled.schema.json"), bundled); err != nil {
		log.Fatalf("Failed to write bundled schema: %v", err)
	}

	log.Println("Schema composition complete.")
}

// composeResolvable loads the embedded base schema and splices a remote
// $ref per registered extension into its properties.
func composeResolvable() (map[string]interface{}, error) {
	baseBytes, err := os.ReadFile(basePath)
	if err != nil {
		return nil, fmt.Errorf("could not read base schema: %w", err)
	}

	var schema map[string]interface{}
	if err := json.Unmarshal(baseBytes, &schema); err != nil {
		return nil, fmt.Errorf("could not parse base schema: %w", err)
	}

	properties, ok := schema["properties"].(map[string]interface{})
	if !ok {
		properties = make(map[string]interface{})
		schema["properties"] = properties
	}
	for key, url := range kilnschema.ExtensionSchemaURLs {
		properties[key] = map[string]interface{}{"$ref": url}
	}

	// Extensions may add keys the base schema does not know about.
	schema["additionalProperties"] = true
	schema["title"] = "Kiln Configuration Schema"
	schema["description"] = "A unified schema for all kiln.yml configuration files."
	return schema, nil
}

// inlineExtensions fetches every extension schema and replaces its $ref
// with the fetched content.
func inlineExtensions(resolvable map[string]interface{}) (map[string]interface{}, error) {
	bundled := cloneSchema(resolvable)
	if len(kilnschema.ExtensionSchemaURLs) == 0 {
		return bundled, nil
	}
	properties := bundled["properties"].(map[string]interface{})

	var mu sync.Mutex
	var group errgroup.Group
	for key, url := range kilnschema.ExtensionSchemaURLs {
		key, url := key, url
		group.Go(func() error {
			log.Printf("Fetching schema for '%s' from %s", key, url)
			sub, err := fetchSchema(url)
			if err != nil {
				return fmt.Errorf("extension %s: %w", key, err)
			}
			mu.Lock()
			properties[key] = sub
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return bundled, nil
}

func fetchSchema(url string) (map[string]interface{}, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read failed: %w", err)
	}

	var sub map[string]interface{}
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	return sub, nil
}

func emit(path string, schema map[string]interface{}) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	log.Printf("Generated %s", path)
	return nil
}

// cloneSchema deep-copies through a JSON round-trip; schemas are plain
// decoded JSON, so nothing is lost.
func cloneSchema(m map[string]interface{}) map[string]interface{} {
	data, err := json.Marshal(m)
	if err != nil {
		return m
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return m
	}
	return out
}

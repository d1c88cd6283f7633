package schema

// ExtensionSchemaURLs maps kiln extension keys to the canonical URL of their
// JSON schema. Tools that store their settings in a kiln.yml extension
// section can publish a schema here so editors and validators understand
// those sections.
//
// Extension schemas are currently commented out. Once schemas are published
// as GitHub release assets or through a schema hosting service, they can be
// uncommented.
var ExtensionSchemaURLs = map[string]string{
	// "logging": "https://github.com/kilntools/kiln/releases/download/v0.1.0/logging.schema.json",
	// Additional extensions will be added here as they publish their schemas.
}

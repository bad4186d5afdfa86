package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
)

// ConfigSchema describes the YAML config file.
func ConfigSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(Config))
	schema.Title = "voxelnav config"
	schema.Description = "Grid, search and request settings loaded by the voxelnav agent"
	return schema
}

// SceneSchema describes scene files loaded by FileManager.LoadScene.
func SceneSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(new(SceneDefinition))
	schema.Title = "voxelnav scene"
	schema.Description = "Axis-aligned colliders probed when building the navigation grid"
	return schema
}

// WriteSchema writes schema as indented JSON, replacing outPath atomically.
func WriteSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}

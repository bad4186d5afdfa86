package core

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteSchema(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "schemas", "config.schema.json")
	if err := WriteSchema(outPath, ConfigSchema()); err != nil {
		t.Fatalf("WriteSchema failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Schema is not valid JSON: %v", err)
	}
	if decoded["title"] != "voxelnav config" {
		t.Errorf("Unexpected title %v", decoded["title"])
	}
	for _, field := range []string{"node_distance", "pathable_types", "interval_seconds"} {
		if !strings.Contains(string(data), field) {
			t.Errorf("Expected schema to mention %s", field)
		}
	}
}

func TestSceneSchema(t *testing.T) {
	data, err := json.Marshal(SceneSchema())
	if err != nil {
		t.Fatalf("Failed to marshal scene schema: %v", err)
	}
	if !strings.Contains(string(data), "terrain") {
		t.Errorf("Expected the kind enum in the scene schema")
	}
}

package core

import "fmt"

// BodyDefinition is one axis-aligned collider in a scene file.
type BodyDefinition struct {
	Name   string     `json:"name,omitempty"`
	Center [3]float64 `json:"center" jsonschema:"description=World position of the box centre"`
	Size   [3]float64 `json:"size" jsonschema:"description=Full box size on each axis"`
	Layer  int        `json:"layer" jsonschema:"minimum=0,maximum=31"`
	Kind   string     `json:"kind,omitempty" jsonschema:"enum=solid,enum=terrain,enum=trigger,default=solid"`
}

// SceneDefinition is the collision scene loaded from disk.
type SceneDefinition struct {
	Name   string           `json:"name"`
	Bodies []BodyDefinition `json:"bodies"`
}

// Validate checks every body has a usable size, layer and kind.
func (s *SceneDefinition) Validate() error {
	for i, b := range s.Bodies {
		if b.Size[0] <= 0 || b.Size[1] <= 0 || b.Size[2] <= 0 {
			return fmt.Errorf("body %d (%s): size must be positive", i, b.Name)
		}
		if b.Layer < 0 || b.Layer > 31 {
			return fmt.Errorf("body %d (%s): layer %d out of range 0-31", i, b.Name, b.Layer)
		}
		switch b.Kind {
		case "", "solid", "terrain", "trigger":
		default:
			return fmt.Errorf("body %d (%s): unknown kind %q", i, b.Name, b.Kind)
		}
	}
	return nil
}

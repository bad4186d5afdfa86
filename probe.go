package main

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"voxelnav/core"
	"voxelnav/nav"
	"voxelnav/physics"
)

// worldProbe adapts a physics world to the grid's probe callback.
func worldProbe(world *physics.World) nav.ProbeFunc {
	return func(origin, halfExtents, direction mgl64.Vec3, maxDistance float64, mask nav.LayerMask) ([]nav.Hit, error) {
		found, err := world.Probe(origin, halfExtents, direction, maxDistance, uint32(mask))
		if err != nil {
			return nil, err
		}
		hits := make([]nav.Hit, 0, len(found))
		for _, h := range found {
			hits = append(hits, nav.Hit{
				Layer:    nav.Layer(h.Layer),
				Distance: h.Distance,
				Kind:     colliderKind(h.Kind),
			})
		}
		return hits, nil
	}
}

func colliderKind(k physics.Kind) nav.ColliderKind {
	switch k {
	case physics.Terrain:
		return nav.ColliderTerrain
	case physics.Trigger:
		return nav.ColliderTrigger
	default:
		return nav.ColliderSolid
	}
}

// buildWorld creates the collision world described by a scene file.
func buildWorld(scene *core.SceneDefinition) (*physics.World, error) {
	world := physics.NewWorld()
	if scene == nil {
		return world, nil
	}
	for i, b := range scene.Bodies {
		kind, ok := physics.ParseKind(b.Kind)
		if !ok {
			return nil, fmt.Errorf("body %d (%s): unknown kind %q", i, b.Name, b.Kind)
		}
		world.AddBody(physics.NewBody(b.Name, mgl64.Vec3(b.Center), mgl64.Vec3(b.Size), b.Layer, kind))
	}
	return world, nil
}

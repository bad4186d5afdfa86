package physics

import "github.com/go-gl/mathgl/mgl64"

// Kind tells a probe how to report a body.
type Kind int

const (
	// Solid bodies block movement.
	Solid Kind = iota
	// Terrain bodies are walkable ground.
	Terrain
	// Trigger bodies are volumes that never block.
	Trigger
)

// ParseKind maps a scene kind name to a Kind. Empty means Solid.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "", "solid":
		return Solid, true
	case "terrain":
		return Terrain, true
	case "trigger":
		return Trigger, true
	}
	return Solid, false
}

// Body is a static axis-aligned box on a collision layer.
type Body struct {
	Name     string
	Position mgl64.Vec3 // centre
	Scale    mgl64.Vec3 // full size on each axis
	Layer    int
	Kind     Kind
}

// NewBody returns a body centred at position with the given full size.
// A zero size component defaults to 1.
func NewBody(name string, position, scale mgl64.Vec3, layer int, kind Kind) *Body {
	for i := range scale {
		if scale[i] == 0 {
			scale[i] = 1
		}
	}
	return &Body{
		Name:     name,
		Position: position,
		Scale:    scale,
		Layer:    layer,
		Kind:     kind,
	}
}

// Bounds returns the min and max corners of the body.
func (b *Body) Bounds() (lo, hi mgl64.Vec3) {
	half := b.Scale.Mul(0.5)
	return b.Position.Sub(half), b.Position.Add(half)
}

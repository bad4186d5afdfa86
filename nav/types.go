package nav

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	// ErrNoGrid is returned when a search is started without a grid.
	ErrNoGrid = errors.New("no grid assigned to search")
	// ErrSearchInProgress is returned when Init is called on a running PathFinder.
	ErrSearchInProgress = errors.New("search already in progress")
	// ErrInvalidGridConfig is returned by NewGrid for unusable dimensions or spacing.
	ErrInvalidGridConfig = errors.New("invalid grid config")
	// ErrEmptyQueue is returned when dequeuing or peeking an empty queue.
	ErrEmptyQueue = errors.New("priority queue is empty")
	// ErrUnknownAlgorithm is returned when parsing an unknown algorithm name.
	ErrUnknownAlgorithm = errors.New("unknown search algorithm")
	// ErrUnknownNodeType is returned when parsing an unknown node type name.
	ErrUnknownNodeType = errors.New("unknown node type")
)

// NodeType classifies a lattice cell. Lower values are more restrictive.
type NodeType int

const (
	Blocked NodeType = iota
	Terrain
	OpenBorder
	Open
)

var nodeTypeNames = [...]string{
	Blocked:    "blocked",
	Terrain:    "terrain",
	OpenBorder: "open_border",
	Open:       "open",
}

// SeverityRank orders node types from most restrictive (0) to least restrictive.
// Classification relies on this order: when a cell registers several types the
// lowest rank wins.
func (t NodeType) SeverityRank() int {
	switch t {
	case Blocked:
		return 0
	case Terrain:
		return 1
	case OpenBorder:
		return 2
	default:
		return 3
	}
}

// MoreRestrictive returns whichever of a and b has the lower severity rank.
func MoreRestrictive(a, b NodeType) NodeType {
	if b.SeverityRank() < a.SeverityRank() {
		return b
	}
	return a
}

func (t NodeType) String() string {
	if t < Blocked || t > Open {
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
	return nodeTypeNames[t]
}

// ParseNodeType converts a config name into a NodeType.
func ParseNodeType(name string) (NodeType, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	for t, n := range nodeTypeNames {
		if n == normalized {
			return NodeType(t), nil
		}
	}
	if normalized == "openborder" {
		return OpenBorder, nil
	}
	return Blocked, fmt.Errorf("%w: %q", ErrUnknownNodeType, name)
}

// MarshalText implements encoding.TextMarshaler.
func (t NodeType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *NodeType) UnmarshalText(text []byte) error {
	parsed, err := ParseNodeType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// NodeTypeSet is a small bitmask set of node types.
type NodeTypeSet uint8

// NewNodeTypeSet returns a set holding the given types.
func NewNodeTypeSet(types ...NodeType) NodeTypeSet {
	var s NodeTypeSet
	for _, t := range types {
		s = s.With(t)
	}
	return s
}

// Has reports whether t is in the set.
func (s NodeTypeSet) Has(t NodeType) bool {
	if t < Blocked || t > Open {
		return false
	}
	return s&(1<<uint(t)) != 0
}

// With returns a copy of the set that also holds t.
func (s NodeTypeSet) With(t NodeType) NodeTypeSet {
	if t < Blocked || t > Open {
		return s
	}
	return s | 1<<uint(t)
}

// Union returns the types present in either set.
func (s NodeTypeSet) Union(other NodeTypeSet) NodeTypeSet { return s | other }

// Complement returns every known type not in the set.
func (s NodeTypeSet) Complement() NodeTypeSet {
	return ^s & NewNodeTypeSet(Blocked, Terrain, OpenBorder, Open)
}

// Types lists the set members in severity order.
func (s NodeTypeSet) Types() []NodeType {
	var out []NodeType
	for t := Blocked; t <= Open; t++ {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

// Layer tags a collided surface. Valid layers are 0 through 31.
type Layer int

// LayerMask is a bitmask of layers used to filter probes.
type LayerMask uint32

// AllLayers matches every layer.
const AllLayers LayerMask = 0xFFFFFFFF

// MaskOf builds a mask from the given layers.
func MaskOf(layers ...Layer) LayerMask {
	var m LayerMask
	for _, l := range layers {
		if l >= 0 && l < 32 {
			m |= 1 << uint(l)
		}
	}
	return m
}

// Contains reports whether the layer is in the mask.
func (m LayerMask) Contains(l Layer) bool {
	if l < 0 || l >= 32 {
		return false
	}
	return m&(1<<uint(l)) != 0
}

// LayerCost is a cost or blockage entry for one surface layer.
type LayerCost struct {
	Layer   Layer   `json:"layer" yaml:"layer"`
	Cost    float64 `json:"cost" yaml:"cost"`
	Blocked bool    `json:"blocked" yaml:"blocked"`
}

// Index identifies a node within the grid.
type Index struct {
	X, Y, Z int
}

// Add returns the component-wise sum of two indices.
func (i Index) Add(o Index) Index {
	return Index{X: i.X + o.X, Y: i.Y + o.Y, Z: i.Z + o.Z}
}

// Neg returns the negated index.
func (i Index) Neg() Index {
	return Index{X: -i.X, Y: -i.Y, Z: -i.Z}
}

func (i Index) String() string {
	return fmt.Sprintf("(%d,%d,%d)", i.X, i.Y, i.Z)
}

// ColliderKind describes what a probe hit.
type ColliderKind int

const (
	ColliderSolid ColliderKind = iota
	ColliderTerrain
	ColliderTrigger
)

// Hit is a single probe result.
type Hit struct {
	Layer    Layer
	Distance float64
	Kind     ColliderKind
}

// ProbeFunc casts a box of the given half extents from origin along direction
// for at most maxDistance and returns every collider hit on a layer in mask.
// It is supplied by the host collision system.
type ProbeFunc func(origin, halfExtents, direction mgl64.Vec3, maxDistance float64, mask LayerMask) ([]Hit, error)

package nav

import (
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// neighborDirections is the fixed link table. Each direction is used together
// with its negation, giving at most twelve links per node. Some diagonals are
// intentionally absent.
var neighborDirections = [...]Index{
	{X: 0, Y: 0, Z: 1},
	{X: 0, Y: 1, Z: 1},
	{X: 1, Y: 1, Z: 1},
	{X: 1, Y: 0, Z: 0},
	{X: 1, Y: 1, Z: 0},
	{X: 0, Y: 1, Z: 0},
}

// MaxNeighbors is the size of the link table.
const MaxNeighbors = 2 * len(neighborDirections)

// Node is one cell of the lattice as owned by a Grid.
type Node struct {
	Index     Index
	Position  mgl64.Vec3
	Type      NodeType
	Costs     []LayerCost
	OnTerrain bool
	Neighbors []Index
}

// Clone returns a copy that shares no slices with n.
func (n Node) Clone() Node {
	n.Costs = slices.Clone(n.Costs)
	n.Neighbors = slices.Clone(n.Neighbors)
	return n
}

// HasLayer reports whether the node carries a cost entry for layer.
func (n Node) HasLayer(layer Layer) bool {
	for _, c := range n.Costs {
		if c.Layer == layer {
			return true
		}
	}
	return false
}

// mergeCosts appends the entries of other whose layer is not yet present.
func (n *Node) mergeCosts(other []LayerCost) {
	for _, c := range other {
		if !n.HasLayer(c.Layer) {
			n.Costs = append(n.Costs, c)
		}
	}
}

// NodeSnapshot is a search-local copy of a node plus the scratch fields a
// search writes. Snapshots never alias grid-owned state.
type NodeSnapshot struct {
	Node

	G        float64 // distance travelled
	H        float64 // estimate to target
	Priority float64
	Previous int // arena slot of the predecessor, -1 for none
	ClimbRun int // consecutive upward steps leading here
}

func newSnapshot(n Node) NodeSnapshot {
	return NodeSnapshot{Node: n.Clone(), Previous: -1}
}

// distance is the Euclidean distance between two world positions.
func distance(a, b mgl64.Vec3) float64 {
	return a.Sub(b).Len()
}

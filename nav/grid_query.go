package nav

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// Node returns a copy of the node at idx.
func (g *Grid) Node(idx Index) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	node := g.nodeAt(idx)
	if node == nil {
		return Node{}, false
	}
	return node.Clone(), true
}

// Nodes returns copies of every node inside region.
func (g *Grid) Nodes(region Region) []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Node, 0, region.Count())
	for k := 0; k < region.Count(); k++ {
		if node := g.nodeAt(region.at(k)); node != nil {
			out = append(out, node.Clone())
		}
	}
	return out
}

// WorldToIndex returns the index of the lattice point nearest to pos.
func (g *Grid) WorldToIndex(pos mgl64.Vec3) (Index, bool) {
	local := pos.Sub(g.cfg.Origin)
	idx := Index{
		X: int(math.Round(local.X() / g.cfg.NodeDistance)),
		Y: int(math.Round(local.Y() / g.cfg.HeightStep)),
		Z: int(math.Round(local.Z() / g.cfg.NodeDistance)),
	}
	return idx, g.InBounds(idx)
}

// ClosestNode returns the node nearest to pos whose type is not in excluded.
// With bestEffort the scan stops at the first node within one node spacing,
// which is not guaranteed to be the nearest.
func (g *Grid) ClosestNode(pos mgl64.Vec3, excluded NodeTypeSet, bestEffort bool) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	slot := g.closestSlot(pos, excluded, bestEffort)
	if slot < 0 {
		return Node{}, false
	}
	return g.nodes[slot].Clone(), true
}

// closestSlot is a linear scan. Callers hold the lock.
func (g *Grid) closestSlot(pos mgl64.Vec3, excluded NodeTypeSet, bestEffort bool) int {
	best := -1
	bestDist := math.Inf(1)
	for i := range g.nodes {
		node := &g.nodes[i]
		if excluded.Has(node.Type) {
			continue
		}
		d := distance(node.Position, pos)
		if bestEffort && d <= g.cfg.NodeDistance {
			return i
		}
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// RandomNode returns a copy of a uniformly chosen node. A nil rng uses the
// package-level source.
func (g *Grid) RandomNode(rng *rand.Rand) Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[randIntn(rng, len(g.nodes))].Clone()
}

// RandomNodeInRange returns a random node within radius of center whose type
// is not in excluded.
func (g *Grid) RandomNodeInRange(center mgl64.Vec3, radius float64, excluded NodeTypeSet, rng *rand.Rand) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	extents := mgl64.Vec3{radius, radius, radius}
	region := g.RegionFor(center, extents)
	candidates := make([]int, 0, region.Count())
	for k := 0; k < region.Count(); k++ {
		slot := g.slotOf(region.at(k))
		node := &g.nodes[slot]
		if excluded.Has(node.Type) || distance(node.Position, center) > radius {
			continue
		}
		candidates = append(candidates, slot)
	}
	if len(candidates) == 0 {
		return Node{}, false
	}
	return g.nodes[candidates[randIntn(rng, len(candidates))]].Clone(), true
}

// CountByType tallies node classifications.
func (g *Grid) CountByType() map[NodeType]int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	counts := make(map[NodeType]int, 4)
	for i := range g.nodes {
		counts[g.nodes[i].Type]++
	}
	return counts
}

func randIntn(rng *rand.Rand, n int) int {
	if rng == nil {
		return rand.Intn(n)
	}
	return rng.Intn(n)
}

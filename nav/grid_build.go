package nav

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// probeDirections are cast from every cell centre: forward, back, up, down,
// left and right.
var probeDirections = [...]mgl64.Vec3{
	{0, 0, 1},
	{0, 0, -1},
	{0, 1, 0},
	{0, -1, 0},
	{-1, 0, 0},
	{1, 0, 0},
}

// Build classifies and links the whole lattice in one call and returns the
// number of cells processed. Any budgeted build in progress is superseded.
func (g *Grid) Build() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	started := time.Now()
	region := g.Bounds()
	g.resetHint()
	g.state = Building
	for k := 0; k < region.Count(); k++ {
		g.classifyCell(region.at(k))
	}
	g.linkRegion(region)
	g.job = nil
	g.state = Complete
	g.generation++
	gridBuildDuration.Observe(time.Since(started).Seconds())
	return region.Count()
}

// BuildIncremental classifies at most NodesPerTick cells from the saved cursor
// and returns the resulting state. The first call on an unbuilt grid starts a
// full build; later calls resume it. Pending UpdateNodes work scheduled with
// keepBudgeting is processed the same way. Neighbours of a batch are linked
// once every cell of the batch exists.
func (g *Grid) BuildIncremental() BuildState {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.job == nil {
		if g.state != NotStarted {
			return g.state
		}
		g.resetHint()
		g.job = &buildJob{region: g.Bounds()}
	}
	g.state = Building

	budget := g.cfg.NodesPerTick
	total := g.job.region.Count()
	if budget <= 0 {
		budget = total
	}
	for processed := 0; processed < budget && g.job.cursor < total; processed++ {
		g.classifyCell(g.job.region.at(g.job.cursor))
		g.job.cursor++
	}
	if g.job.cursor >= total {
		g.linkRegion(g.job.region)
		g.job = nil
		g.state = Complete
		g.generation++
	}
	return g.state
}

// Progress reports how many cells of the active batch have been classified.
func (g *Grid) Progress() (done, total int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.job == nil {
		if g.state == Complete {
			return len(g.nodes), len(g.nodes)
		}
		return 0, len(g.nodes)
	}
	return g.job.cursor, g.job.region.Count()
}

// UpdateNodes rebuilds the cells inside the world-space box center±extents
// and re-links only those cells; the rest of the lattice is untouched. With
// keepBudgeting the work is scheduled for BuildIncremental instead of running
// now. It returns the number of nodes touched or scheduled.
func (g *Grid) UpdateNodes(center, extents mgl64.Vec3, keepBudgeting bool) int {
	region := g.RegionFor(center, extents)
	count := region.Count()
	if count == 0 {
		return 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if keepBudgeting {
		if g.job == nil && g.state == NotStarted {
			// Nothing is built yet: schedule the whole lattice.
			g.resetHint()
			g.job = &buildJob{region: g.Bounds()}
			g.state = Building
			return g.job.region.Count()
		}
		if g.job != nil {
			if g.job.region == g.Bounds() {
				// The running full build will reach these cells anyway.
				return count
			}
			region = unionRegion(g.job.region, region)
			count = region.Count()
		}
		g.job = &buildJob{region: region}
		g.state = Building
		return count
	}

	for k := 0; k < count; k++ {
		g.classifyCell(region.at(k))
	}
	g.linkRegion(region)
	g.generation++
	gridRegionUpdates.Inc()
	return count
}

// RegionFor converts a world-space box into the index-space region of the
// nodes whose positions lie inside it, clamped to the lattice.
func (g *Grid) RegionFor(center, extents mgl64.Vec3) Region {
	const eps = 1e-9
	lo := center.Sub(absVec(extents)).Sub(g.cfg.Origin)
	hi := center.Add(absVec(extents)).Sub(g.cfg.Origin)
	spacing := mgl64.Vec3{g.cfg.NodeDistance, g.cfg.HeightStep, g.cfg.NodeDistance}
	limits := [3]int{g.cfg.Width, g.cfg.Height, g.cfg.Depth}

	var minIdx, maxIdx [3]int
	for axis := 0; axis < 3; axis++ {
		minIdx[axis] = clampInt(int(math.Ceil(lo[axis]/spacing[axis]-eps)), 0, limits[axis])
		maxIdx[axis] = clampInt(int(math.Floor(hi[axis]/spacing[axis]+eps))+1, 0, limits[axis])
	}
	return Region{
		Min: Index{X: minIdx[0], Y: minIdx[1], Z: minIdx[2]},
		Max: Index{X: maxIdx[0], Y: maxIdx[1], Z: maxIdx[2]},
	}
}

// LinkNeighbors assigns the neighbour list of every node inside region and
// applies the open-border reclassification. Nodes outside region keep their
// links.
func (g *Grid) LinkNeighbors(region Region) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.linkRegion(region)
}

func (g *Grid) linkRegion(region Region) {
	for k := 0; k < region.Count(); k++ {
		idx := region.at(k)
		node := g.nodeAt(idx)
		if node == nil {
			continue
		}
		neighbors := make([]Index, 0, MaxNeighbors)
		for _, dir := range neighborDirections {
			for _, offset := range [2]Index{dir, dir.Neg()} {
				nIdx := idx.Add(offset)
				neighbor := g.nodeAt(nIdx)
				if neighbor == nil {
					continue
				}
				neighbors = append(neighbors, nIdx)
				if neighbor.Type == Blocked && (node.Type == Open || node.Type == OpenBorder) {
					node.Type = OpenBorder
					node.mergeCosts(neighbor.Costs)
				}
			}
		}
		node.Neighbors = neighbors
	}
}

// classifyCell probes one cell and overwrites its node. Callers hold the lock.
func (g *Grid) classifyCell(idx Index) {
	node := g.nodeAt(idx)
	if node == nil {
		return
	}
	*node = Node{Index: idx, Position: g.positionOf(idx), Type: Open}
	gridCellsClassified.Inc()

	hits, err := g.probeCell(node.Position)
	if err != nil {
		probeFailures.Inc()
		g.warn("grid: probe failed at %s, cell left open: %v", idx, err)
		g.trackHint(node)
		return
	}
	g.applyHits(node, hits)
	g.trackHint(node)
}

func (g *Grid) probeCell(pos mgl64.Vec3) (hits []Hit, err error) {
	if g.probe == nil {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			hits = nil
			err = fmt.Errorf("probe panic: %v", r)
		}
	}()
	half := mgl64.Vec3{g.cfg.ProbeHalfExtent, g.cfg.ProbeHalfExtent, g.cfg.ProbeHalfExtent}
	for _, dir := range probeDirections {
		found, err := g.probe(pos, half, dir, g.probeReach(dir), g.cfg.LayerMask)
		if err != nil {
			return nil, err
		}
		hits = append(hits, found...)
	}
	return hits, nil
}

func (g *Grid) probeReach(dir mgl64.Vec3) float64 {
	if g.cfg.ProbeDistance > 0 {
		return g.cfg.ProbeDistance
	}
	if dir.Y() != 0 {
		return 0.25 * g.cfg.HeightStep
	}
	return 0.25 * g.cfg.NodeDistance
}

type surfaceKey struct {
	layer Layer
	kind  ColliderKind
}

// applyHits picks the most restrictive type over the distinct surfaces hit and
// records their cost entries. A grid cost override with Blocked unset clears
// its surface; when every surface is cleared, or all but a single terrain
// surface, the override wins and the cell is Open.
func (g *Grid) applyHits(node *Node, hits []Hit) {
	seen := make(map[surfaceKey]struct{}, len(hits))
	surfaces := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if h.Kind == ColliderTrigger {
			continue
		}
		key := surfaceKey{layer: h.Layer, kind: h.Kind}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		surfaces = append(surfaces, h)
	}
	if len(surfaces) == 0 {
		return
	}

	restrictive := Open
	checks := 0
	unresolvedTerrain := 0
	for _, h := range surfaces {
		base := Blocked
		if h.Kind == ColliderTerrain || g.cfg.TerrainLayers.Contains(h.Layer) {
			base = Terrain
			node.OnTerrain = true
		}
		if override, ok := g.costTable[h.Layer]; ok {
			node.mergeCosts([]LayerCost{override})
			if !override.Blocked {
				checks++
				continue
			}
			restrictive = MoreRestrictive(restrictive, Blocked)
			continue
		}
		node.mergeCosts([]LayerCost{{Layer: h.Layer, Blocked: base == Blocked}})
		if base == Terrain {
			unresolvedTerrain++
		}
		restrictive = MoreRestrictive(restrictive, base)
	}

	switch {
	case checks == len(surfaces):
		node.Type = Open
	case checks > 0 && checks == len(surfaces)-1 && unresolvedTerrain == 1:
		// The remaining terrain surface is ground under an overridden
		// surface; the cell stays walkable and keeps OnTerrain.
		node.Type = Open
	default:
		node.Type = restrictive
	}
}

func (g *Grid) resetHint() {
	g.hintSlot = -1
	g.hintDist = math.Inf(1)
}

func (g *Grid) trackHint(node *Node) {
	if g.hint == nil || node.Type == Blocked {
		return
	}
	if d := distance(node.Position, *g.hint); d < g.hintDist {
		g.hintDist = d
		g.hintSlot = g.slotOf(node.Index)
	}
}

// StartHintNode returns the non-blocked node nearest to the WithStartHint
// position seen during the last build.
func (g *Grid) StartHintNode() (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.hintSlot < 0 {
		return Node{}, false
	}
	return g.nodes[g.hintSlot].Clone(), true
}

func unionRegion(a, b Region) Region {
	return Region{
		Min: Index{X: min(a.Min.X, b.Min.X), Y: min(a.Min.Y, b.Min.Y), Z: min(a.Min.Z, b.Min.Z)},
		Max: Index{X: max(a.Max.X, b.Max.X), Y: max(a.Max.Y, b.Max.Y), Z: max(a.Max.Z, b.Max.Z)},
	}
}

func absVec(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Abs(v[0]), math.Abs(v[1]), math.Abs(v[2])}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

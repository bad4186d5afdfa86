package nav

import (
	"context"
	"fmt"
	"math"
	"time"
)

// horizontalDiagonals are the directions used for the agent width check.
var horizontalDiagonals = [...]Index{
	{X: 1, Z: 1},
	{X: -1, Z: -1},
	{X: 1, Z: -1},
	{X: -1, Z: 1},
}

// search holds the state of one run. It works on snapshots stored in an
// arena; back-pointers are arena slots.
type search struct {
	params SearchParameters
	grid   *Grid

	frontier frontier
	arena    []NodeSnapshot
	slots    map[Index]int
	explored map[Index]struct{}
	order    []Index
	fallen   map[Index]struct{}

	end         NodeSnapshot
	closest     int
	closestDist float64
	inserted    int

	heightIters int
	widthIters  int

	diagnostics []string
}

type searchResult struct {
	state       SearchState
	path        []NodeSnapshot
	cost        float64
	explored    []Index
	start, end  NodeSnapshot
	hasStart    bool
	hasEnd      bool
	generation  uint64
	diagnostics []string
}

func newSearch(params SearchParameters, grid *Grid) *search {
	return &search{
		params:      params,
		grid:        grid,
		frontier:    newFrontier(params.Algorithm),
		slots:       make(map[Index]int),
		explored:    make(map[Index]struct{}),
		fallen:      make(map[Index]struct{}),
		closest:     -1,
		closestDist: math.Inf(1),
		heightIters: params.heightIterations(grid.cfg),
		widthIters:  params.widthIterations(grid.cfg),
	}
}

// execute runs the search loop to a terminal state while holding the grid
// read lock.
func (s *search) execute(ctx context.Context, started time.Time) searchResult {
	s.grid.mu.RLock()
	defer s.grid.mu.RUnlock()

	res := searchResult{generation: s.grid.generation}
	excluded := s.params.PathableTypes.Union(s.params.WalkOnlyTypes).Complement()
	startSlot := s.grid.closestSlot(s.params.Start, excluded, false)
	endSlot := s.grid.closestSlot(s.params.End, excluded, false)
	if startSlot < 0 || endSlot < 0 {
		s.errorf("search: no reachable node type near start %v or end %v", s.params.Start, s.params.End)
		res.state = Exhausted
		res.diagnostics = s.diagnostics
		return res
	}

	startNode := s.grid.nodes[startSlot]
	endNode := s.grid.nodes[endSlot]
	if s.params.GroundSnap {
		startNode = *s.grid.nodeAt(s.grid.snapLanding(startNode.Index, s.params))
		endNode = *s.grid.nodeAt(s.grid.snapLanding(endNode.Index, s.params))
	}
	s.end = newSnapshot(endNode)

	root := s.addSnapshot(startNode)
	s.arena[root].H = distance(startNode.Position, s.end.Position)
	s.arena[root].Priority = s.priority(0, s.arena[root].H)
	s.slots[startNode.Index] = root
	s.frontier.push(frontierEntry{slot: root, priority: s.arena[root].Priority})
	s.closest = root
	s.closestDist = s.arena[root].H

	res.start, res.hasStart = s.arena[root], true
	res.end, res.hasEnd = s.end, true

	found := -1
	if startNode.Index == s.end.Index {
		found = root
		s.markExplored(startNode.Index)
	}

	limit := s.grid.Count()
	iterations := 0
	for found < 0 {
		if err := ctx.Err(); err != nil {
			res.state = Cancelled
			break
		}
		if s.params.TimeBudget > 0 && iterations > 0 && timeNow().Sub(started) > s.params.TimeBudget {
			res.state = TimedOut
			break
		}
		if len(s.order) > limit {
			s.errorf("search: explored %d nodes on a grid of %d, aborting", len(s.order), limit)
			res.state = Aborted
			break
		}

		entry, ok := s.frontier.pop()
		if !ok {
			res.state = Exhausted
			break
		}
		idx := s.arena[entry.slot].Index
		if _, done := s.explored[idx]; done {
			continue
		}
		if s.slots[idx] != entry.slot || s.arena[entry.slot].Priority != entry.priority {
			continue
		}
		s.markExplored(idx)
		iterations++

		current := entry.slot
		if s.params.GroundSnap {
			landed, ok := s.snap(current)
			if !ok {
				continue
			}
			if landed != current {
				landedIdx := s.arena[landed].Index
				if _, done := s.explored[landedIdx]; done {
					continue
				}
				s.markExplored(landedIdx)
				current = landed
			}
		}

		if s.arena[current].Index == s.end.Index {
			found = current
			break
		}
		if !s.hasClearance(s.arena[current].Index) {
			continue
		}
		s.trackClosest(current)
		found = s.expand(current)
	}

	if found >= 0 {
		res.state = Succeeded
		res.path = s.reconstruct(found)
		res.cost = s.arena[found].G
	} else if s.closest >= 0 {
		res.path = s.reconstruct(s.closest)
		res.cost = s.arena[s.closest].G
	}
	res.explored = s.order
	res.diagnostics = s.diagnostics
	return res
}

func (s *search) addSnapshot(n Node) int {
	s.arena = append(s.arena, newSnapshot(n))
	return len(s.arena) - 1
}

func (s *search) markExplored(idx Index) {
	s.explored[idx] = struct{}{}
	s.order = append(s.order, idx)
}

func (s *search) trackClosest(slot int) {
	if d := distance(s.arena[slot].Position, s.end.Position); d < s.closestDist {
		s.closestDist = d
		s.closest = slot
	}
}

// priority returns the frontier key for a node with the given scores.
func (s *search) priority(g, h float64) float64 {
	switch s.params.Algorithm {
	case GreedyBestFirst:
		return h
	case BreadthFirstSearch:
		s.inserted++
		return float64(s.inserted)
	default:
		return g + h
	}
}

// expand queues the traversable neighbours of the node in slot cur. It
// returns the slot of the end node once that node is queued, or -1.
func (s *search) expand(cur int) int {
	curIdx := s.arena[cur].Index
	gridNode := s.grid.nodeAt(curIdx)
	if gridNode == nil {
		return -1
	}
	climbBase := s.arena[cur].ClimbRun
	if s.grounded(curIdx) {
		climbBase = 0
	}
	layerCost := s.params.LayerCost(s.arena[cur].Node)

	for _, nIdx := range gridNode.Neighbors {
		if _, done := s.explored[nIdx]; done {
			continue
		}
		neighbor := s.grid.nodeAt(nIdx)
		if neighbor == nil {
			continue
		}
		isGoal := nIdx == s.end.Index
		if !s.params.CanTraverse(*neighbor) && !(isGoal && s.params.WalkOnlyTypes.Has(neighbor.Type)) {
			continue
		}

		dy := nIdx.Y - curIdx.Y
		climbRun := 0
		if dy > 0 {
			climbRun = climbBase + dy
			if s.params.MaxClimbIterations > 0 && climbRun > s.params.MaxClimbIterations {
				continue
			}
		}
		if dy < 0 && s.params.MaxDropIterations > 0 && -dy > s.params.MaxDropIterations {
			continue
		}

		g := s.arena[cur].G + distance(s.arena[cur].Position, neighbor.Position)
		if s.params.Algorithm == AStar {
			g += layerCost + s.params.HeightChangeCost(dy)
		}
		h := distance(neighbor.Position, s.end.Position)

		slot, known := s.slots[nIdx]
		if known {
			if s.params.Algorithm != AStar || g >= s.arena[slot].G {
				continue
			}
		} else {
			slot = s.addSnapshot(*neighbor)
			s.slots[nIdx] = slot
		}
		snap := &s.arena[slot]
		snap.G = g
		snap.H = h
		snap.Priority = s.priority(g, h)
		snap.Previous = cur
		snap.ClimbRun = climbRun
		s.frontier.push(frontierEntry{slot: slot, priority: snap.Priority})

		if isGoal {
			return slot
		}
	}
	return -1
}

// grounded reports whether the cell below idx cannot be entered.
func (s *search) grounded(idx Index) bool {
	below := s.grid.nodeAt(Index{X: idx.X, Y: idx.Y - 1, Z: idx.Z})
	return below == nil || !s.params.CanTraverse(*below)
}

// snap lets the node in slot fall while the cell below is traversable. Cells
// fallen through are remembered for the rest of the search and never fallen
// through twice. It reports false when the fall exceeds the drop limit.
func (s *search) snap(slot int) (int, bool) {
	fell := 0
	for {
		idx := s.arena[slot].Index
		belowIdx := Index{X: idx.X, Y: idx.Y - 1, Z: idx.Z}
		below := s.grid.nodeAt(belowIdx)
		if below == nil {
			break
		}
		if _, done := s.fallen[belowIdx]; done {
			break
		}
		if _, done := s.explored[belowIdx]; done {
			break
		}
		if !s.params.CanTraverse(*below) {
			break
		}
		s.fallen[belowIdx] = struct{}{}

		next := s.addSnapshot(*below)
		s.arena[next].Previous = slot
		s.arena[next].G = s.arena[slot].G + distance(s.arena[slot].Position, below.Position)
		s.arena[next].H = distance(below.Position, s.end.Position)
		if _, ok := s.slots[belowIdx]; !ok {
			s.slots[belowIdx] = next
		}
		slot = next
		fell++
	}
	if s.params.MaxDropIterations > 0 && fell > s.params.MaxDropIterations {
		return slot, false
	}
	return slot, true
}

// hasClearance checks the cells the agent body would occupy around idx.
// Cells outside the lattice count as clear.
func (s *search) hasClearance(idx Index) bool {
	for i := 1; i <= s.heightIters; i++ {
		above := s.grid.nodeAt(Index{X: idx.X, Y: idx.Y + i, Z: idx.Z})
		if above != nil && !s.params.CanTraverse(*above) {
			return false
		}
	}
	for i := 1; i <= s.widthIters; i++ {
		for _, dir := range horizontalDiagonals {
			side := s.grid.nodeAt(Index{X: idx.X + dir.X*i, Y: idx.Y, Z: idx.Z + dir.Z*i})
			if side != nil && !s.params.CanTraverse(*side) {
				return false
			}
		}
	}
	return true
}

// reconstruct walks back-pointers from slot to the root, capped at one and a
// half times the grid size.
func (s *search) reconstruct(slot int) []NodeSnapshot {
	limit := int(1.5 * float64(s.grid.Count()))
	var path []NodeSnapshot
	for cur := slot; cur >= 0; cur = s.arena[cur].Previous {
		if len(path) >= limit {
			s.errorf("search: path reconstruction exceeded %d nodes, truncated", limit)
			break
		}
		path = append(path, s.arena[cur])
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (s *search) errorf(format string, args ...any) {
	s.diagnostics = append(s.diagnostics, fmt.Sprintf(format, args...))
}

// SnapToGround returns the index reached by falling straight down from idx
// while the cell below is traversable under params.
func (g *Grid) SnapToGround(idx Index, params SearchParameters) Index {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snapLanding(idx, params)
}

func (g *Grid) snapLanding(idx Index, params SearchParameters) Index {
	for {
		below := Index{X: idx.X, Y: idx.Y - 1, Z: idx.Z}
		node := g.nodeAt(below)
		if node == nil || !params.CanTraverse(*node) {
			return idx
		}
		idx = below
	}
}

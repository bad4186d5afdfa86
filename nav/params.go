package nav

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jinzhu/copier"

	"voxelnav/core"
)

// Algorithm selects the search strategy.
type Algorithm int

const (
	AStar Algorithm = iota
	GreedyBestFirst
	BreadthFirstSearch
)

func (a Algorithm) String() string {
	switch a {
	case AStar:
		return "astar"
	case GreedyBestFirst:
		return "greedy_best_first"
	case BreadthFirstSearch:
		return "breadth_first"
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// ParseAlgorithm converts a config name into an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "astar", "a*", "a_star":
		return AStar, nil
	case "greedy", "greedy_best_first", "best_first":
		return GreedyBestFirst, nil
	case "bfs", "breadth_first", "breadth_first_search":
		return BreadthFirstSearch, nil
	}
	return AStar, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// SearchParameters configures a single search. A PathFinder clones the value
// on Init, so callers may reuse and modify their copy afterwards.
type SearchParameters struct {
	Algorithm Algorithm

	PathableTypes NodeTypeSet
	BarrierTypes  NodeTypeSet
	// WalkOnlyTypes can be stood on as a destination but not passed through.
	WalkOnlyTypes  NodeTypeSet
	LayerOverrides map[Layer]LayerCost

	AgentWidth  float64 // world units
	AgentHeight float64 // world units

	MaxClimbIterations int // 0 disables the limit
	MaxDropIterations  int // 0 disables the limit
	GroundSnap         bool
	TerrainIsBarrier   bool
	ClimbCost          float64 // per upward iteration; descending is free

	TimeBudget            time.Duration // 0 means unlimited
	RunOnBackgroundThread bool

	Start mgl64.Vec3
	End   mgl64.Vec3
}

// DefaultSearchParameters returns an A* configuration that walks open space.
func DefaultSearchParameters() SearchParameters {
	return SearchParameters{
		Algorithm:     AStar,
		PathableTypes: NewNodeTypeSet(Open, OpenBorder),
		BarrierTypes:  NewNodeTypeSet(Blocked),
		ClimbCost:     1,
		TimeBudget:    time.Second,
	}
}

// Clone returns a deep copy.
func (p SearchParameters) Clone() SearchParameters {
	var out SearchParameters
	if err := copier.CopyWithOption(&out, &p, copier.Option{DeepCopy: true}); err != nil {
		out = p
		out.LayerOverrides = make(map[Layer]LayerCost, len(p.LayerOverrides))
		for k, v := range p.LayerOverrides {
			out.LayerOverrides[k] = v
		}
	}
	return out
}

// CanTraverse applies the traversal rule: a blocking layer override makes the
// node impassable, any other matching override makes it passable, and
// otherwise the node must be clear of barriers and of a pathable type.
func (p SearchParameters) CanTraverse(n Node) bool {
	canClear := !p.BarrierTypes.Has(n.Type) && !(p.TerrainIsBarrier && n.OnTerrain)

	overridden := false
	for _, c := range n.Costs {
		override, ok := p.LayerOverrides[c.Layer]
		if !ok {
			continue
		}
		if override.Blocked {
			return false
		}
		overridden = true
	}
	if overridden {
		return true
	}
	return canClear && p.PathableTypes.Has(n.Type)
}

// LayerCost sums the per-layer costs of n, preferring search overrides over
// the costs recorded at build time.
func (p SearchParameters) LayerCost(n Node) float64 {
	total := 0.0
	for _, c := range n.Costs {
		if override, ok := p.LayerOverrides[c.Layer]; ok {
			total += override.Cost
			continue
		}
		total += c.Cost
	}
	return total
}

// HeightChangeCost charges ascents only. Descending is deliberately free.
func (p SearchParameters) HeightChangeCost(dy int) float64 {
	if dy <= 0 {
		return 0
	}
	return float64(dy) * p.ClimbCost
}

// heightIterations is the number of cells above a node the agent occupies.
func (p SearchParameters) heightIterations(cfg GridConfig) int {
	if p.AgentHeight <= 0 {
		return 0
	}
	return max(0, int(math.Ceil(p.AgentHeight/cfg.HeightStep-1e-9))-1)
}

// widthIterations is the number of cells the agent reaches out along each
// horizontal diagonal.
func (p SearchParameters) widthIterations(cfg GridConfig) int {
	if p.AgentWidth <= 0 {
		return 0
	}
	return int(math.Floor(p.AgentWidth/(2*cfg.NodeDistance) + 1e-9))
}

// ParamsFromConfig converts the YAML search section into SearchParameters.
func ParamsFromConfig(c core.SearchConfig) (SearchParameters, error) {
	p := DefaultSearchParameters()

	algorithm, err := ParseAlgorithm(c.Algorithm)
	if err != nil {
		return p, err
	}
	p.Algorithm = algorithm

	if len(c.PathableTypes) > 0 {
		if p.PathableTypes, err = parseTypeSet(c.PathableTypes); err != nil {
			return p, fmt.Errorf("pathable_types: %w", err)
		}
	}
	if len(c.BarrierTypes) > 0 {
		if p.BarrierTypes, err = parseTypeSet(c.BarrierTypes); err != nil {
			return p, fmt.Errorf("barrier_types: %w", err)
		}
	}
	if p.WalkOnlyTypes, err = parseTypeSet(c.WalkOnlyTypes); err != nil {
		return p, fmt.Errorf("walk_only_types: %w", err)
	}
	if len(c.LayerOverrides) > 0 {
		p.LayerOverrides = make(map[Layer]LayerCost, len(c.LayerOverrides))
		for _, o := range c.LayerOverrides {
			p.LayerOverrides[Layer(o.Layer)] = LayerCost{Layer: Layer(o.Layer), Cost: o.Cost, Blocked: o.Blocked}
		}
	}

	p.AgentWidth = c.AgentWidth
	p.AgentHeight = c.AgentHeight
	p.MaxClimbIterations = c.MaxClimbIterations
	p.MaxDropIterations = c.MaxDropIterations
	p.GroundSnap = c.GroundSnap
	p.TerrainIsBarrier = c.TerrainIsBarrier
	if c.ClimbCost != 0 {
		p.ClimbCost = c.ClimbCost
	}
	p.TimeBudget = time.Duration(c.TimeBudgetSeconds * float64(time.Second))
	p.RunOnBackgroundThread = c.RunOnBackgroundThread
	return p, nil
}

// GridConfigFromConfig converts the YAML grid section into a GridConfig.
func GridConfigFromConfig(c core.GridConfig) GridConfig {
	cfg := GridConfig{
		Width:           c.Width,
		Height:          c.Height,
		Depth:           c.Depth,
		Origin:          mgl64.Vec3(c.Origin),
		NodeDistance:    c.NodeDistance,
		HeightStep:      c.HeightStep,
		ProbeHalfExtent: c.ProbeHalfExtent,
		ProbeDistance:   c.ProbeDistance,
		NodesPerTick:    c.NodesPerTick,
	}
	for _, l := range c.Layers {
		cfg.LayerMask |= MaskOf(Layer(l))
	}
	for _, l := range c.TerrainLayers {
		cfg.TerrainLayers |= MaskOf(Layer(l))
	}
	for _, lc := range c.LayerCosts {
		cfg.LayerCosts = append(cfg.LayerCosts, LayerCost{Layer: Layer(lc.Layer), Cost: lc.Cost, Blocked: lc.Blocked})
	}
	return cfg
}

func parseTypeSet(names []string) (NodeTypeSet, error) {
	var s NodeTypeSet
	for _, name := range names {
		t, err := ParseNodeType(name)
		if err != nil {
			return 0, err
		}
		s = s.With(t)
	}
	return s, nil
}

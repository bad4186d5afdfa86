package nav

import (
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// BuildState is the construction lifecycle of a Grid.
type BuildState int

const (
	NotStarted BuildState = iota
	Building
	Complete
)

func (s BuildState) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Building:
		return "building"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("BuildState(%d)", int(s))
}

// GridConfig describes the lattice and how its cells are probed.
// Width, Height and Depth are node counts, not world units.
type GridConfig struct {
	Width, Height, Depth int
	Origin               mgl64.Vec3
	NodeDistance         float64 // spacing on X and Z
	HeightStep           float64 // spacing on Y

	ProbeHalfExtent float64 // defaults to a fifth of the smallest spacing
	ProbeDistance   float64 // defaults to a quarter of the spacing along the probe axis
	LayerMask       LayerMask
	TerrainLayers   LayerMask
	LayerCosts      []LayerCost
	NodesPerTick    int // cells classified per BuildIncremental call, <= 0 means all
}

// Region is an index-space box. Min is inclusive, Max is exclusive.
type Region struct {
	Min, Max Index
}

// Count returns the number of cells in the region.
func (r Region) Count() int {
	dx, dy, dz := r.Max.X-r.Min.X, r.Max.Y-r.Min.Y, r.Max.Z-r.Min.Z
	if dx <= 0 || dy <= 0 || dz <= 0 {
		return 0
	}
	return dx * dy * dz
}

// Contains reports whether idx lies inside the region.
func (r Region) Contains(idx Index) bool {
	return idx.X >= r.Min.X && idx.X < r.Max.X &&
		idx.Y >= r.Min.Y && idx.Y < r.Max.Y &&
		idx.Z >= r.Min.Z && idx.Z < r.Max.Z
}

// at returns the k-th cell of the region in x, then y, then z order.
func (r Region) at(k int) Index {
	dx, dy := r.Max.X-r.Min.X, r.Max.Y-r.Min.Y
	return Index{
		X: r.Min.X + k%dx,
		Y: r.Min.Y + (k/dx)%dy,
		Z: r.Min.Z + k/(dx*dy),
	}
}

type buildJob struct {
	region Region
	cursor int
}

// GridOption customises a Grid.
type GridOption func(*Grid)

// WithGridLogger routes grid warnings to logger.
func WithGridLogger(logger func(string)) GridOption {
	return func(g *Grid) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithStartHint makes the grid remember the non-blocked node nearest to pos
// while it classifies cells.
func WithStartHint(pos mgl64.Vec3) GridOption {
	return func(g *Grid) {
		g.hint = &pos
	}
}

// Grid owns the dense node lattice. Build and UpdateNodes take the write lock;
// searches and queries share the read lock.
type Grid struct {
	mu sync.RWMutex

	cfg       GridConfig
	probe     ProbeFunc
	logger    func(string)
	costTable map[Layer]LayerCost

	nodes       []Node
	state       BuildState
	job         *buildJob
	generation  uint64
	diagnostics []string

	hint     *mgl64.Vec3
	hintSlot int
	hintDist float64
}

// NewGrid allocates a lattice of default (Open) nodes. Nothing is probed until
// Build or BuildIncremental is called.
func NewGrid(cfg GridConfig, probe ProbeFunc, opts ...GridOption) (*Grid, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Depth <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%dx%d", ErrInvalidGridConfig, cfg.Width, cfg.Height, cfg.Depth)
	}
	if cfg.NodeDistance <= 0 || cfg.HeightStep <= 0 {
		return nil, fmt.Errorf("%w: spacing %.3f/%.3f", ErrInvalidGridConfig, cfg.NodeDistance, cfg.HeightStep)
	}
	if cfg.LayerMask == 0 {
		cfg.LayerMask = AllLayers
	}
	if cfg.ProbeHalfExtent <= 0 {
		cfg.ProbeHalfExtent = 0.2 * math.Min(cfg.NodeDistance, cfg.HeightStep)
	}

	g := &Grid{
		cfg:       cfg,
		probe:     probe,
		logger:    func(msg string) { log.Println(msg) },
		costTable: make(map[Layer]LayerCost, len(cfg.LayerCosts)),
		nodes:     make([]Node, cfg.Width*cfg.Height*cfg.Depth),
		hintSlot:  -1,
		hintDist:  math.Inf(1),
	}
	for _, c := range cfg.LayerCosts {
		g.costTable[c.Layer] = c
	}
	for _, opt := range opts {
		opt(g)
	}
	for i := range g.nodes {
		idx := g.indexOf(i)
		g.nodes[i] = Node{Index: idx, Position: g.positionOf(idx), Type: Open}
	}
	return g, nil
}

// Config returns the grid configuration with defaults applied.
func (g *Grid) Config() GridConfig {
	cfg := g.cfg
	cfg.LayerCosts = append([]LayerCost(nil), g.cfg.LayerCosts...)
	return cfg
}

// Size returns the lattice dimensions in nodes.
func (g *Grid) Size() (width, height, depth int) {
	return g.cfg.Width, g.cfg.Height, g.cfg.Depth
}

// Count returns the total number of nodes.
func (g *Grid) Count() int { return len(g.nodes) }

// Bounds returns the region covering the whole lattice.
func (g *Grid) Bounds() Region {
	return Region{Max: Index{X: g.cfg.Width, Y: g.cfg.Height, Z: g.cfg.Depth}}
}

// State returns the construction state.
func (g *Grid) State() BuildState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Generation is incremented after every completed structural mutation.
func (g *Grid) Generation() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.generation
}

// Diagnostics returns the warnings accumulated while building.
func (g *Grid) Diagnostics() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.diagnostics...)
}

// InBounds reports whether idx addresses a node.
func (g *Grid) InBounds(idx Index) bool {
	return idx.X >= 0 && idx.X < g.cfg.Width &&
		idx.Y >= 0 && idx.Y < g.cfg.Height &&
		idx.Z >= 0 && idx.Z < g.cfg.Depth
}

// IndexPosition returns the world position of idx.
func (g *Grid) IndexPosition(idx Index) mgl64.Vec3 {
	return g.positionOf(idx)
}

func (g *Grid) slotOf(idx Index) int {
	return idx.X + g.cfg.Width*(idx.Y+g.cfg.Height*idx.Z)
}

func (g *Grid) indexOf(slot int) Index {
	w, h := g.cfg.Width, g.cfg.Height
	return Index{X: slot % w, Y: (slot / w) % h, Z: slot / (w * h)}
}

func (g *Grid) positionOf(idx Index) mgl64.Vec3 {
	return g.cfg.Origin.Add(mgl64.Vec3{
		float64(idx.X) * g.cfg.NodeDistance,
		float64(idx.Y) * g.cfg.HeightStep,
		float64(idx.Z) * g.cfg.NodeDistance,
	})
}

// nodeAt returns the grid-owned node. Callers hold the lock.
func (g *Grid) nodeAt(idx Index) *Node {
	if !g.InBounds(idx) {
		return nil
	}
	return &g.nodes[g.slotOf(idx)]
}

func (g *Grid) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	g.diagnostics = append(g.diagnostics, msg)
	g.logger(msg)
}

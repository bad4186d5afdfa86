package nav

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

const (
	solidLayer   Layer = 1
	terrainLayer Layer = 2
	costLayer    Layer = 5
)

// fakeWorld answers probes from a per-cell table keyed by the index nearest
// to the probe origin. Spacing is one world unit on every axis.
type fakeWorld struct {
	cells  map[Index][]Hit
	fail   map[Index]error
	panics map[Index]bool
	calls  int
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		cells:  make(map[Index][]Hit),
		fail:   make(map[Index]error),
		panics: make(map[Index]bool),
	}
}

func (w *fakeWorld) solid(idxs ...Index) *fakeWorld {
	for _, idx := range idxs {
		w.cells[idx] = append(w.cells[idx], Hit{Layer: solidLayer, Kind: ColliderSolid})
	}
	return w
}

func (w *fakeWorld) probe(origin, _, _ mgl64.Vec3, _ float64, mask LayerMask) ([]Hit, error) {
	w.calls++
	idx := Index{
		X: int(math.Round(origin.X())),
		Y: int(math.Round(origin.Y())),
		Z: int(math.Round(origin.Z())),
	}
	if w.panics[idx] {
		panic("collider table corrupted")
	}
	if err := w.fail[idx]; err != nil {
		return nil, err
	}
	var out []Hit
	for _, h := range w.cells[idx] {
		if mask.Contains(h.Layer) {
			out = append(out, h)
		}
	}
	return out, nil
}

var errProbeOffline = errors.New("physics scene offline")

func unitConfig(w, h, d int) GridConfig {
	return GridConfig{Width: w, Height: h, Depth: d, NodeDistance: 1, HeightStep: 1}
}

func buildGrid(t *testing.T, cfg GridConfig, world *fakeWorld) *Grid {
	t.Helper()
	grid, err := NewGrid(cfg, world.probe, WithGridLogger(func(msg string) { t.Log(msg) }))
	require.NoError(t, err)
	grid.Build()
	return grid
}

func pos(x, y, z int) mgl64.Vec3 {
	return mgl64.Vec3{float64(x), float64(y), float64(z)}
}

func indices(path []NodeSnapshot) []Index {
	out := make([]Index, len(path))
	for i, n := range path {
		out[i] = n.Index
	}
	return out
}

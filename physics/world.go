package physics

import (
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrZeroDirection is returned by Probe when the cast direction has no length.
var ErrZeroDirection = errors.New("probe direction has zero length")

// Hit is one body touched by a probe.
type Hit struct {
	Body     *Body
	Layer    int
	Kind     Kind
	Distance float64
}

// World holds static bodies and answers box-sweep queries. Bodies may be
// added or removed while other goroutines probe.
type World struct {
	mu     sync.RWMutex
	bodies []*Body
}

// NewWorld returns an empty world.
func NewWorld() *World {
	return &World{}
}

// AddBody appends a body to the world.
func (w *World) AddBody(b *Body) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bodies = append(w.bodies, b)
}

// RemoveBody removes b and reports whether it was present.
func (w *World) RemoveBody(b *Body) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, existing := range w.bodies {
		if existing == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			return true
		}
	}
	return false
}

// Bodies returns a copy of the body list.
func (w *World) Bodies() []*Body {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*Body(nil), w.bodies...)
}

// Probe sweeps a box with the given half extents from origin along direction
// for at most maxDistance. Every body on a layer in mask that the box touches
// is returned, nearest first. A body already overlapping the box at origin is
// reported at distance 0.
func (w *World) Probe(origin, halfExtents, direction mgl64.Vec3, maxDistance float64, mask uint32) ([]Hit, error) {
	if direction.Len() == 0 {
		return nil, ErrZeroDirection
	}
	dir := direction.Normalize()

	w.mu.RLock()
	defer w.mu.RUnlock()

	var hits []Hit
	for _, b := range w.bodies {
		if b.Layer < 0 || b.Layer > 31 || mask&(1<<uint(b.Layer)) == 0 {
			continue
		}
		lo, hi := b.Bounds()
		lo = lo.Sub(halfExtents)
		hi = hi.Add(halfExtents)
		t, ok := rayBox(origin, dir, lo, hi)
		if !ok || t > maxDistance {
			continue
		}
		hits = append(hits, Hit{Body: b, Layer: b.Layer, Kind: b.Kind, Distance: t})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits, nil
}

// rayBox is the slab test. It returns the entry distance along dir, clamped
// to 0 when origin is inside the box.
func rayBox(origin, dir, lo, hi mgl64.Vec3) (float64, bool) {
	tMin, tMax := 0.0, math.Inf(1)
	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		inv := 1 / dir[axis]
		t1 := (lo[axis] - origin[axis]) * inv
		t2 := (hi[axis] - origin[axis]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	return tMin, true
}

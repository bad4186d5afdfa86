package nav

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Positioner is anything with a world position, such as a moving character.
type Positioner interface {
	Position() mgl64.Vec3
}

// Point is a fixed position.
type Point mgl64.Vec3

// Position implements Positioner.
func (p Point) Position() mgl64.Vec3 { return mgl64.Vec3(p) }

// PositionFunc adapts a function to Positioner.
type PositionFunc func() mgl64.Vec3

// Position implements Positioner.
func (f PositionFunc) Position() mgl64.Vec3 { return f() }

// RequestMode controls when a PathRequest starts a new search.
type RequestMode int

const (
	// RequestOnce runs a single search.
	RequestOnce RequestMode = iota
	// RequestCadence starts a search every Interval, measured from the
	// previous start, whenever none is running.
	RequestCadence
	// RequestContinuous starts a search Interval after the previous one
	// completed.
	RequestContinuous
)

func (m RequestMode) String() string {
	switch m {
	case RequestOnce:
		return "once"
	case RequestCadence:
		return "cadence"
	case RequestContinuous:
		return "continuous"
	}
	return fmt.Sprintf("RequestMode(%d)", int(m))
}

// ParseRequestMode converts a config name into a RequestMode.
func ParseRequestMode(name string) (RequestMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "once":
		return RequestOnce, nil
	case "cadence", "interval":
		return RequestCadence, nil
	case "continuous":
		return RequestContinuous, nil
	}
	return RequestOnce, fmt.Errorf("unknown request mode %q", name)
}

// PathRequest drives repeated searches between a start and a possibly moving
// target, owning one PathFinder.
type PathRequest struct {
	Name     string
	Grid     *Grid
	Params   SearchParameters
	Start    Positioner
	End      Positioner
	Mode     RequestMode
	Interval time.Duration

	finder *PathFinder

	mu             sync.Mutex
	starting       bool
	searching      bool
	hasResult      bool
	lastStart      time.Time
	completedAt    time.Time
	endPosition    mgl64.Vec3
	pathNodes      []NodeSnapshot
	pathCoords     []mgl64.Vec3
	objectiveFound bool
	lastState      SearchState
	lastErr        error
}

// NewPathRequest creates a request. params is used as a template; its Start
// and End are replaced from the positioners for every search.
func NewPathRequest(name string, grid *Grid, params SearchParameters, start, end Positioner, mode RequestMode, interval time.Duration, opts ...FinderOption) *PathRequest {
	return &PathRequest{
		Name:     name,
		Grid:     grid,
		Params:   params,
		Start:    start,
		End:      end,
		Mode:     mode,
		Interval: interval,
		finder:   NewPathFinder(opts...),
	}
}

// Update is one tick: it publishes the result of a finished search, or starts
// a new search when one is due. It reports whether a new result was
// published.
func (r *PathRequest) Update(ctx context.Context) bool {
	r.mu.Lock()
	if r.starting {
		r.mu.Unlock()
		return false
	}
	if r.searching {
		finished := r.finder.IsFinished()
		if finished {
			r.publish()
		}
		r.mu.Unlock()
		return finished
	}
	if !r.due(timeNow()) {
		r.mu.Unlock()
		return false
	}

	params := r.Params
	params.Start = r.Start.Position()
	params.End = r.End.Position()
	r.endPosition = params.End
	r.lastStart = timeNow()
	r.starting = true
	r.mu.Unlock()

	// A synchronous search runs to completion inside Init; accessors stay
	// available meanwhile.
	err := r.finder.Init(ctx, params, r.Grid)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.starting = false
	if err != nil {
		r.lastErr = fmt.Errorf("request %s: %w", r.Name, err)
		return false
	}
	r.lastErr = nil
	r.searching = true
	if r.finder.IsFinished() {
		r.publish()
		return true
	}
	return false
}

func (r *PathRequest) due(now time.Time) bool {
	if r.finder.Searches() == 0 {
		return true
	}
	switch r.Mode {
	case RequestCadence:
		return now.Sub(r.lastStart) >= r.Interval
	case RequestContinuous:
		return now.Sub(r.completedAt) >= r.Interval
	default:
		return false
	}
}

func (r *PathRequest) publish() {
	r.pathNodes = r.finder.Path()
	r.pathCoords = r.finder.PathCoordinates()
	r.objectiveFound = r.finder.ObjectiveFound()
	r.lastState = r.finder.State()
	r.completedAt = timeNow()
	r.searching = false
	r.hasResult = true
}

// Run calls Update every tick until ctx is done. In RequestOnce mode it
// returns after the first result is published.
func (r *PathRequest) Run(ctx context.Context, tick time.Duration) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		r.Update(ctx)
		if r.Mode == RequestOnce && r.PathFinished() {
			return nil
		}
		select {
		case <-ctx.Done():
			r.finder.Cancel()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Cancel stops an in-flight search.
func (r *PathRequest) Cancel() { r.finder.Cancel() }

// Finder exposes the underlying PathFinder for diagnostics.
func (r *PathRequest) Finder() *PathFinder { return r.finder }

// EndPosition is the target position used by the latest search.
func (r *PathRequest) EndPosition() mgl64.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.endPosition
}

// PathCoordinates returns the world positions of the latest published path.
func (r *PathRequest) PathCoordinates() []mgl64.Vec3 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mgl64.Vec3(nil), r.pathCoords...)
}

// PathNodes returns the snapshots of the latest published path.
func (r *PathRequest) PathNodes() []NodeSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]NodeSnapshot(nil), r.pathNodes...)
}

// PathFinished reports whether a result is published and no newer search is
// in flight.
func (r *PathRequest) PathFinished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasResult && !r.searching && !r.starting
}

// ObjectiveFound reports whether the latest published path reaches the target.
func (r *PathRequest) ObjectiveFound() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.objectiveFound
}

// Searching reports whether a search is in flight.
func (r *PathRequest) Searching() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.searching || r.starting
}

// CompletedAt is when the latest result was published.
func (r *PathRequest) CompletedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completedAt
}

// LastState is the terminal state of the latest published search.
func (r *PathRequest) LastState() SearchState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastState
}

// Err returns the error of the latest failed start, if any.
func (r *PathRequest) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Searches returns how many searches this request has started.
func (r *PathRequest) Searches() int { return r.finder.Searches() }

// SetEnd replaces the target used by the next search.
func (r *PathRequest) SetEnd(end Positioner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.End = end
}

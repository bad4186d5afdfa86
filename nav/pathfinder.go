package nav

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

var timeNow = time.Now

// SearchState is the lifecycle of a PathFinder.
type SearchState int32

const (
	Idle SearchState = iota
	Running
	Succeeded
	TimedOut
	Exhausted
	Cancelled
	Aborted
)

func (s SearchState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case TimedOut:
		return "timed_out"
	case Exhausted:
		return "exhausted"
	case Cancelled:
		return "cancelled"
	case Aborted:
		return "aborted"
	}
	return fmt.Sprintf("SearchState(%d)", int32(s))
}

// Finished reports whether s is terminal. Only Succeeded means the target
// was reached; the other terminal states carry a best-effort path.
func (s SearchState) Finished() bool { return s >= Succeeded }

// FinderOption customises a PathFinder.
type FinderOption func(*PathFinder)

// WithFinderLogger routes search errors to logger.
func WithFinderLogger(logger func(string)) FinderOption {
	return func(pf *PathFinder) {
		if logger != nil {
			pf.logger = logger
		}
	}
}

// PathFinder runs one search at a time against a Grid. It never mutates the
// grid's nodes; all scratch state lives in search-local snapshots.
type PathFinder struct {
	logger func(string)
	state  atomic.Int32

	mu          sync.Mutex
	params      SearchParameters
	grid        *Grid
	cancel      context.CancelFunc
	done        chan struct{}
	startedAt   time.Time
	elapsed     time.Duration
	result      searchResult
	diagnostics []string
	searches    int
}

// NewPathFinder creates an idle PathFinder.
func NewPathFinder(opts ...FinderOption) *PathFinder {
	pf := &PathFinder{
		logger: func(msg string) { log.Println(msg) },
	}
	for _, opt := range opts {
		opt(pf)
	}
	return pf
}

// Init starts a search from params.Start to params.End over grid. With
// RunOnBackgroundThread the search runs on its own goroutine and Init returns
// immediately; otherwise Init returns once the search has finished. The
// search stops early when ctx is cancelled or Cancel is called.
func (pf *PathFinder) Init(ctx context.Context, params SearchParameters, grid *Grid) error {
	pf.mu.Lock()
	if SearchState(pf.state.Load()) == Running {
		pf.mu.Unlock()
		return ErrSearchInProgress
	}
	if grid == nil {
		pf.result = searchResult{}
		pf.state.Store(int32(Idle))
		msg := fmt.Sprintf("pathfinder: %v, search not started", ErrNoGrid)
		pf.diagnostics = append(pf.diagnostics, msg)
		pf.mu.Unlock()
		pf.logger(msg)
		return ErrNoGrid
	}
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	pf.params = params.Clone()
	pf.grid = grid
	pf.cancel = cancel
	pf.done = done
	pf.result = searchResult{}
	pf.diagnostics = nil
	pf.startedAt = timeNow()
	pf.elapsed = 0
	pf.searches++
	pf.state.Store(int32(Running))
	searchParams := pf.params
	started := pf.startedAt
	pf.mu.Unlock()

	if params.RunOnBackgroundThread {
		go pf.run(runCtx, cancel, done, searchParams, grid, started)
		return nil
	}
	pf.run(runCtx, cancel, done, searchParams, grid, started)
	return nil
}

func (pf *PathFinder) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}, params SearchParameters, grid *Grid, started time.Time) {
	defer close(done)
	defer cancel()

	res := newSearch(params, grid).execute(ctx, started)
	elapsed := timeNow().Sub(started)
	recordSearch(params.Algorithm, res.state, elapsed, len(res.explored))

	pf.mu.Lock()
	pf.result = res
	pf.elapsed = elapsed
	pf.diagnostics = append(pf.diagnostics, res.diagnostics...)
	pf.state.Store(int32(res.state))
	pf.mu.Unlock()

	for _, msg := range res.diagnostics {
		pf.logger(msg)
	}
}

// Cancel asks a running search to stop. The search finishes as Cancelled
// with a path to the node closest to the target.
func (pf *PathFinder) Cancel() {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if pf.cancel != nil {
		pf.cancel()
	}
}

// Done is closed when the current search finishes.
func (pf *PathFinder) Done() <-chan struct{} {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if pf.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return pf.done
}

// Wait blocks until the current search finishes or ctx is done.
func (pf *PathFinder) Wait(ctx context.Context) error {
	select {
	case <-pf.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current lifecycle state.
func (pf *PathFinder) State() SearchState { return SearchState(pf.state.Load()) }

// IsStarted reports whether Init has started a search.
func (pf *PathFinder) IsStarted() bool { return pf.State() != Idle }

// IsFinished reports whether the search reached a terminal state.
func (pf *PathFinder) IsFinished() bool { return pf.State().Finished() }

// ObjectiveFound reports whether the path reaches the requested target.
func (pf *PathFinder) ObjectiveFound() bool { return pf.State() == Succeeded }

// Path returns the node snapshots from start to the path's last node.
func (pf *PathFinder) Path() []NodeSnapshot {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	out := make([]NodeSnapshot, len(pf.result.path))
	copy(out, pf.result.path)
	return out
}

// PathCoordinates returns the world positions along the path.
func (pf *PathFinder) PathCoordinates() []mgl64.Vec3 {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	out := make([]mgl64.Vec3, len(pf.result.path))
	for i, n := range pf.result.path {
		out[i] = n.Position
	}
	return out
}

// PathCost returns the accumulated score of the path's last node.
func (pf *PathFinder) PathCost() float64 {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.result.cost
}

// ExploredNodes returns the indices expanded or discarded, in order.
func (pf *PathFinder) ExploredNodes() []Index {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return append([]Index(nil), pf.result.explored...)
}

// Elapsed returns the search duration, or the time since start while running.
func (pf *PathFinder) Elapsed() time.Duration {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if SearchState(pf.state.Load()) == Running {
		return timeNow().Sub(pf.startedAt)
	}
	return pf.elapsed
}

// ElapsedSeconds is Elapsed in seconds.
func (pf *PathFinder) ElapsedSeconds() float64 { return pf.Elapsed().Seconds() }

// StartNode returns the snapshot the search started from.
func (pf *PathFinder) StartNode() (NodeSnapshot, bool) {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.result.start, pf.result.hasStart
}

// EndNode returns the snapshot of the requested target node.
func (pf *PathFinder) EndNode() (NodeSnapshot, bool) {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.result.end, pf.result.hasEnd
}

// Generation returns the grid generation the last search ran against.
func (pf *PathFinder) Generation() uint64 {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.result.generation
}

// Diagnostics returns the errors and warnings of the last Init and search.
func (pf *PathFinder) Diagnostics() []string {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return append([]string(nil), pf.diagnostics...)
}

// Searches returns how many searches Init has started.
func (pf *PathFinder) Searches() int {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.searches
}

// Params returns the parameters of the last search started.
func (pf *PathFinder) Params() SearchParameters {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.params
}

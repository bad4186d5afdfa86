package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"voxelnav/core"
	"voxelnav/nav"
	"voxelnav/physics"
	"voxelnav/web"
)

// Agent owns the navigation grid and drives the configured path requests.
type Agent struct {
	ConfigManager *core.ConfigManager
	Files         *core.FileManager
	World         *physics.World
	Grid          *nav.Grid
	Requests      []*nav.PathRequest

	hub     *web.Hub
	tick    time.Duration
	refresh time.Duration
	reports core.ReportsConfig
	logger  func(string)

	paused bool
	lock   sync.Mutex
}

// NewAgent builds the grid over world and creates one PathRequest per
// configured request. A grid without a per-tick budget is built immediately.
func NewAgent(cm *core.ConfigManager, files *core.FileManager, world *physics.World) (*Agent, error) {
	cfg, err := cm.Snapshot()
	if err != nil {
		return nil, err
	}
	logger := func(msg string) { log.Println(msg) }

	var gridOpts []nav.GridOption
	gridOpts = append(gridOpts, nav.WithGridLogger(logger))
	if len(cfg.Requests) > 0 {
		gridOpts = append(gridOpts, nav.WithStartHint(mgl64.Vec3(cfg.Requests[0].Start)))
	}
	grid, err := nav.NewGrid(nav.GridConfigFromConfig(cfg.Grid), worldProbe(world), gridOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grid: %w", err)
	}
	if cfg.Grid.NodesPerTick <= 0 {
		grid.Build()
	}

	base, err := nav.ParamsFromConfig(cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("failed to read search config: %w", err)
	}

	var requests []*nav.PathRequest
	for _, rc := range cfg.Requests {
		mode, err := nav.ParseRequestMode(rc.Mode)
		if err != nil {
			return nil, fmt.Errorf("request %s: %w", rc.Name, err)
		}
		params := base.Clone()
		if rc.Algorithm != "" {
			if params.Algorithm, err = nav.ParseAlgorithm(rc.Algorithm); err != nil {
				return nil, fmt.Errorf("request %s: %w", rc.Name, err)
			}
		}
		interval := time.Duration(rc.IntervalSeconds * float64(time.Second))
		requests = append(requests, nav.NewPathRequest(rc.Name, grid, params,
			nav.Point(rc.Start), nav.Point(rc.End), mode, interval, nav.WithFinderLogger(logger)))
	}

	tick := time.Duration(cfg.Scene.TickMillis) * time.Millisecond
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}
	refresh := time.Duration(cfg.WebManager.Refresh) * time.Second
	if refresh <= 0 {
		refresh = 5 * time.Second
	}

	return &Agent{
		ConfigManager: cm,
		Files:         files,
		World:         world,
		Grid:          grid,
		Requests:      requests,
		tick:          tick,
		refresh:       refresh,
		reports:       cfg.Reports,
		logger:        logger,
	}, nil
}

// SetHub attaches the websocket hub that receives state broadcasts.
func (a *Agent) SetHub(hub *web.Hub) {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.hub = hub
}

// Step runs one tick: it advances a budgeted grid build, or updates every
// request once the grid is complete. It returns the number of results
// published during the tick.
func (a *Agent) Step(ctx context.Context) int {
	if a.IsPaused() {
		return 0
	}
	if a.Grid.State() != nav.Complete {
		if a.Grid.BuildIncremental() != nav.Complete {
			return 0
		}
		counts := a.Grid.CountByType()
		a.logger(fmt.Sprintf("grid complete: %d open, %d border, %d terrain, %d blocked",
			counts[nav.Open], counts[nav.OpenBorder], counts[nav.Terrain], counts[nav.Blocked]))
	}

	published := 0
	for _, req := range a.Requests {
		if !req.Update(ctx) {
			if err := req.Err(); err != nil {
				a.logger(err.Error())
			}
			continue
		}
		published++
		a.logger(fmt.Sprintf("request %s: %s, %d nodes, %.3fs", req.Name, req.LastState(),
			len(req.PathNodes()), req.Finder().ElapsedSeconds()))
		if a.reports.Enabled {
			if err := a.saveReport(req); err != nil {
				a.logger(fmt.Sprintf("request %s: failed to save report: %v", req.Name, err))
			}
		}
	}
	return published
}

// Run starts the main loop for the agent and returns when ctx is done.
func (a *Agent) Run(ctx context.Context) error {
	log.Println("Starting agent...")
	ticker := time.NewTicker(a.tick)
	defer ticker.Stop()
	lastBroadcast := time.Now()

	for {
		select {
		case <-ctx.Done():
			for _, req := range a.Requests {
				req.Cancel()
			}
			return ctx.Err()
		case <-ticker.C:
		}

		if a.Step(ctx) > 0 || time.Since(lastBroadcast) >= a.refresh {
			a.broadcast()
			lastBroadcast = time.Now()
		}
	}
}

func (a *Agent) broadcast() {
	a.lock.Lock()
	hub := a.hub
	a.lock.Unlock()
	hub.BroadcastFullState()
}

// AddObstacle inserts a body into the world and rebuilds the cells around it.
// It returns the number of grid nodes touched.
func (a *Agent) AddObstacle(body *physics.Body) int {
	a.World.AddBody(body)
	return a.refreshAround(body)
}

// RemoveObstacle removes a body and rebuilds the cells it covered.
func (a *Agent) RemoveObstacle(body *physics.Body) int {
	if !a.World.RemoveBody(body) {
		return 0
	}
	return a.refreshAround(body)
}

func (a *Agent) refreshAround(body *physics.Body) int {
	cfg := a.Grid.Config()
	margin := mgl64.Vec3{cfg.NodeDistance, cfg.HeightStep, cfg.NodeDistance}
	return a.Grid.UpdateNodes(body.Position, body.Scale.Mul(0.5).Add(margin), false)
}

// SetTarget moves the end point of a request and persists it.
func (a *Agent) SetTarget(name string, end mgl64.Vec3) error {
	for _, req := range a.Requests {
		if req.Name != name {
			continue
		}
		if err := a.ConfigManager.UpdateRequestTarget(name, end); err != nil {
			return err
		}
		req.SetEnd(nav.Point(end))
		return nil
	}
	return fmt.Errorf("%w: %s", core.ErrUnknownRequest, name)
}

// Pause pauses the agent.
func (a *Agent) Pause() {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.paused = true
}

// Resume resumes the agent.
func (a *Agent) Resume() {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.paused = false
}

// IsPaused returns true if the agent is paused.
func (a *Agent) IsPaused() bool {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.paused
}

type gridState struct {
	State      string         `json:"state"`
	Generation uint64         `json:"generation"`
	Done       int            `json:"done"`
	Total      int            `json:"total"`
	Counts     map[string]int `json:"counts"`
}

type requestState struct {
	Name           string       `json:"name"`
	Mode           string       `json:"mode"`
	Searches       int          `json:"searches"`
	Searching      bool         `json:"searching"`
	State          string       `json:"state"`
	ObjectiveFound bool         `json:"objective_found"`
	End            [3]float64   `json:"end"`
	Path           [][3]float64 `json:"path"`
	CompletedAt    time.Time    `json:"completed_at"`
}

type agentState struct {
	Paused   bool           `json:"paused"`
	Grid     gridState      `json:"grid"`
	Requests []requestState `json:"requests"`
}

// State returns a JSON-encoded snapshot for the web hub.
func (a *Agent) State() ([]byte, error) {
	done, total := a.Grid.Progress()
	state := agentState{
		Paused: a.IsPaused(),
		Grid: gridState{
			State:      a.Grid.State().String(),
			Generation: a.Grid.Generation(),
			Done:       done,
			Total:      total,
			Counts:     make(map[string]int),
		},
	}
	for t, n := range a.Grid.CountByType() {
		state.Grid.Counts[t.String()] = n
	}
	for _, req := range a.Requests {
		state.Requests = append(state.Requests, requestState{
			Name:           req.Name,
			Mode:           req.Mode.String(),
			Searches:       req.Searches(),
			Searching:      req.Searching(),
			State:          req.LastState().String(),
			ObjectiveFound: req.ObjectiveFound(),
			End:            req.EndPosition(),
			Path:           toArrays(req.PathCoordinates()),
			CompletedAt:    req.CompletedAt(),
		})
	}
	return json.Marshal(state)
}

type pathReport struct {
	Request        string       `json:"request"`
	Algorithm      string       `json:"algorithm"`
	State          string       `json:"state"`
	ObjectiveFound bool         `json:"objective_found"`
	Search         int          `json:"search"`
	Generation     uint64       `json:"generation"`
	Cost           float64      `json:"cost"`
	Explored       int          `json:"explored"`
	ElapsedSeconds float64      `json:"elapsed_seconds"`
	CompletedAt    time.Time    `json:"completed_at"`
	Path           [][3]float64 `json:"path"`
	Diagnostics    []string     `json:"diagnostics,omitempty"`
}

func (a *Agent) saveReport(req *nav.PathRequest) error {
	finder := req.Finder()
	report := pathReport{
		Request:        req.Name,
		Algorithm:      finder.Params().Algorithm.String(),
		State:          req.LastState().String(),
		ObjectiveFound: req.ObjectiveFound(),
		Search:         req.Searches(),
		Generation:     finder.Generation(),
		Cost:           finder.PathCost(),
		Explored:       len(finder.ExploredNodes()),
		ElapsedSeconds: finder.ElapsedSeconds(),
		CompletedAt:    req.CompletedAt(),
		Path:           toArrays(req.PathCoordinates()),
		Diagnostics:    finder.Diagnostics(),
	}
	name := fmt.Sprintf("%s-%04d", req.Name, report.Search)
	path, err := a.Files.SaveReport(a.reports.Directory, name, report)
	if err != nil {
		return err
	}
	a.logger(fmt.Sprintf("request %s: report saved to %s", req.Name, path))
	return nil
}

func toArrays(points []mgl64.Vec3) [][3]float64 {
	out := make([][3]float64, len(points))
	for i, p := range points {
		out[i] = p
	}
	return out
}

package core

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"
)

// ErrUnknownRequest is returned when a request name is not configured.
var ErrUnknownRequest = errors.New("unknown path request")

// LayerCostConfig is a per-layer cost or blockage entry.
type LayerCostConfig struct {
	Layer   int     `yaml:"layer" json:"layer" jsonschema:"minimum=0,maximum=31"`
	Cost    float64 `yaml:"cost" json:"cost"`
	Blocked bool    `yaml:"blocked" json:"blocked"`
}

// GridConfig describes the navigation lattice.
type GridConfig struct {
	Width           int               `yaml:"width" json:"width" jsonschema:"minimum=1,description=Node count along X"`
	Height          int               `yaml:"height" json:"height" jsonschema:"minimum=1,description=Node count along Y"`
	Depth           int               `yaml:"depth" json:"depth" jsonschema:"minimum=1,description=Node count along Z"`
	Origin          [3]float64        `yaml:"origin" json:"origin"`
	NodeDistance    float64           `yaml:"node_distance" json:"node_distance" jsonschema:"description=Spacing on X and Z"`
	HeightStep      float64           `yaml:"height_step" json:"height_step" jsonschema:"description=Spacing on Y"`
	ProbeHalfExtent float64           `yaml:"probe_half_extent,omitempty" json:"probe_half_extent,omitempty"`
	ProbeDistance   float64           `yaml:"probe_distance,omitempty" json:"probe_distance,omitempty"`
	Layers          []int             `yaml:"layers,omitempty" json:"layers,omitempty" jsonschema:"description=Layers probed; empty means all"`
	TerrainLayers   []int             `yaml:"terrain_layers,omitempty" json:"terrain_layers,omitempty"`
	LayerCosts      []LayerCostConfig `yaml:"layer_costs,omitempty" json:"layer_costs,omitempty"`
	NodesPerTick    int               `yaml:"nodes_per_tick" json:"nodes_per_tick" jsonschema:"description=Cells classified per build tick; 0 builds in one pass"`
}

// SearchConfig holds the default search parameters.
type SearchConfig struct {
	Algorithm             string            `yaml:"algorithm" json:"algorithm" jsonschema:"enum=astar,enum=greedy_best_first,enum=breadth_first"`
	PathableTypes         []string          `yaml:"pathable_types,omitempty" json:"pathable_types,omitempty"`
	BarrierTypes          []string          `yaml:"barrier_types,omitempty" json:"barrier_types,omitempty"`
	WalkOnlyTypes         []string          `yaml:"walk_only_types,omitempty" json:"walk_only_types,omitempty"`
	LayerOverrides        []LayerCostConfig `yaml:"layer_overrides,omitempty" json:"layer_overrides,omitempty"`
	AgentWidth            float64           `yaml:"agent_width" json:"agent_width"`
	AgentHeight           float64           `yaml:"agent_height" json:"agent_height"`
	MaxClimbIterations    int               `yaml:"max_climb_iterations" json:"max_climb_iterations"`
	MaxDropIterations     int               `yaml:"max_drop_iterations" json:"max_drop_iterations"`
	GroundSnap            bool              `yaml:"ground_snap" json:"ground_snap"`
	TerrainIsBarrier      bool              `yaml:"terrain_is_barrier" json:"terrain_is_barrier"`
	ClimbCost             float64           `yaml:"climb_cost" json:"climb_cost"`
	TimeBudgetSeconds     float64           `yaml:"time_budget_seconds" json:"time_budget_seconds" jsonschema:"description=0 means unlimited"`
	RunOnBackgroundThread bool              `yaml:"run_on_background_thread" json:"run_on_background_thread"`
}

// RequestConfig describes one path request driven by the agent.
type RequestConfig struct {
	Name            string     `yaml:"name" json:"name" jsonschema:"minLength=1"`
	Start           [3]float64 `yaml:"start" json:"start"`
	End             [3]float64 `yaml:"end" json:"end"`
	Mode            string     `yaml:"mode" json:"mode" jsonschema:"enum=once,enum=cadence,enum=continuous"`
	IntervalSeconds float64    `yaml:"interval_seconds" json:"interval_seconds"`
	Algorithm       string     `yaml:"algorithm,omitempty" json:"algorithm,omitempty" jsonschema:"description=Overrides search.algorithm"`
}

// SceneConfig points at the collision scene.
type SceneConfig struct {
	Path       string `yaml:"path" json:"path"`
	TickMillis int    `yaml:"tick_ms" json:"tick_ms"`
}

// WebManagerConfig holds web UI related settings.
type WebManagerConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Host    string `yaml:"host" json:"host"`
	Port    int    `yaml:"port" json:"port"`
	Refresh int    `yaml:"refresh" json:"refresh" jsonschema:"description=Seconds between state broadcasts"`
}

// ReportsConfig controls saving finished paths.
type ReportsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Directory string `yaml:"directory" json:"directory"`
}

// Config corresponds to the structure of the YAML config file.
type Config struct {
	Grid       GridConfig       `yaml:"grid" json:"grid"`
	Search     SearchConfig     `yaml:"search" json:"search"`
	Requests   []RequestConfig  `yaml:"requests" json:"requests"`
	Scene      SceneConfig      `yaml:"scene" json:"scene"`
	WebManager WebManagerConfig `yaml:"webmanager" json:"webmanager"`
	Reports    ReportsConfig    `yaml:"reports" json:"reports"`
}

// DefaultConfig returns the configuration written when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Grid: GridConfig{
			Width:        32,
			Height:       8,
			Depth:        32,
			NodeDistance: 1,
			HeightStep:   1,
			NodesPerTick: 2048,
		},
		Search: SearchConfig{
			Algorithm:          "astar",
			PathableTypes:      []string{"open", "open_border"},
			BarrierTypes:       []string{"blocked"},
			AgentHeight:        2,
			MaxClimbIterations: 1,
			MaxDropIterations:  4,
			GroundSnap:         true,
			ClimbCost:          1,
			TimeBudgetSeconds:  1,
		},
		Requests: []RequestConfig{
			{
				Name:            "patrol",
				Start:           [3]float64{1, 1, 1},
				End:             [3]float64{30, 1, 30},
				Mode:            "cadence",
				IntervalSeconds: 5,
			},
		},
		Scene: SceneConfig{
			Path:       "scene.json",
			TickMillis: 100,
		},
		WebManager: WebManagerConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    8080,
			Refresh: 5,
		},
		Reports: ReportsConfig{
			Directory: "reports",
		},
	}
}

// ConfigManager handles loading and saving of the configuration.
type ConfigManager struct {
	configPath string
	config     *Config
	lock       sync.Mutex
}

// NewConfigManager loads the config at path. A missing file is replaced by
// DefaultConfig and written to disk.
func NewConfigManager(path string) (*ConfigManager, error) {
	cm := &ConfigManager{
		configPath: path,
	}

	exists, err := cm.LoadConfig()
	if err != nil {
		return nil, err
	}
	if !exists {
		cm.config = DefaultConfig()
		if err := cm.SaveConfig(); err != nil {
			return nil, fmt.Errorf("failed to save config: %w", err)
		}
	}
	if err := cm.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cm, nil
}

// Validate checks that the grid and requests are usable.
func (cm *ConfigManager) Validate() error {
	cm.lock.Lock()
	defer cm.lock.Unlock()
	return cm.config.Validate()
}

// Validate checks that the grid and requests are usable.
func (c *Config) Validate() error {
	g := c.Grid
	if g.Width <= 0 || g.Height <= 0 || g.Depth <= 0 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%dx%d", g.Width, g.Height, g.Depth)
	}
	if g.NodeDistance <= 0 || g.HeightStep <= 0 {
		return fmt.Errorf("grid spacing must be positive, got %.3f/%.3f", g.NodeDistance, g.HeightStep)
	}
	for _, l := range append(append([]int(nil), g.Layers...), g.TerrainLayers...) {
		if l < 0 || l > 31 {
			return fmt.Errorf("layer %d out of range 0-31", l)
		}
	}
	if c.Search.TimeBudgetSeconds < 0 {
		return fmt.Errorf("search time budget must not be negative")
	}
	seen := make(map[string]bool, len(c.Requests))
	for _, r := range c.Requests {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return fmt.Errorf("request name is not set")
		}
		if seen[name] {
			return fmt.Errorf("duplicate request %q", name)
		}
		seen[name] = true
		if r.Mode != "once" && r.Mode != "" && r.IntervalSeconds <= 0 {
			return fmt.Errorf("request %q: %s mode needs a positive interval", name, r.Mode)
		}
	}
	return nil
}

// LoadConfig loads the configuration from the specified YAML file.
func (cm *ConfigManager) LoadConfig() (bool, error) {
	cm.lock.Lock()
	defer cm.lock.Unlock()

	file, err := os.ReadFile(cm.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return false, fmt.Errorf("failed to decode YAML from config file: %w", err)
	}
	cm.config = &config
	return true, nil
}

// saveConfig is the internal, non-locking implementation of saving the configuration.
func (cm *ConfigManager) saveConfig() error {
	data, err := yaml.Marshal(cm.config)
	if err != nil {
		return fmt.Errorf("failed to encode config to YAML: %w", err)
	}

	if err := os.WriteFile(cm.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write to config file: %w", err)
	}
	return nil
}

// SaveConfig saves the current configuration to the YAML file.
func (cm *ConfigManager) SaveConfig() error {
	cm.lock.Lock()
	defer cm.lock.Unlock()
	return cm.saveConfig()
}

// GetConfig returns the entire configuration.
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

// SetConfig sets the configuration for testing purposes.
func (cm *ConfigManager) SetConfig(config *Config) {
	cm.config = config
}

// Snapshot returns a deep copy that callers may read without holding the lock.
func (cm *ConfigManager) Snapshot() (*Config, error) {
	cm.lock.Lock()
	defer cm.lock.Unlock()

	var out Config
	if err := copier.CopyWithOption(&out, cm.config, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("failed to copy config: %w", err)
	}
	return &out, nil
}

// UpdateRequestTarget moves the end point of a request and saves the config.
func (cm *ConfigManager) UpdateRequestTarget(name string, end [3]float64) error {
	cm.lock.Lock()
	defer cm.lock.Unlock()

	for i := range cm.config.Requests {
		if cm.config.Requests[i].Name == name {
			cm.config.Requests[i].End = end
			return cm.saveConfig()
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownRequest, name)
}

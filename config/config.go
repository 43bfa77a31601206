// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig       `yaml:"screen"`
	World      WorldConfig        `yaml:"world"`
	Physics    PhysicsConfig      `yaml:"physics"`
	Perception PerceptionConfig   `yaml:"perception"`
	Steering   []SeekConfig       `yaml:"steering"`
	Wander     WanderConfig       `yaml:"wander"`
	Factions   []FactionConfig    `yaml:"factions"`
	Creatures  []CreatureConfig   `yaml:"creatures"`
	Population []PopulationConfig `yaml:"population"`
	Swarm      SwarmConfig        `yaml:"swarm"`
	Telemetry  TelemetryConfig    `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the graphical viewer.
type ScreenConfig struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	TargetFPS     int     `yaml:"target_fps"`
	PixelsPerUnit float64 `yaml:"pixels_per_unit"`
}

// WorldConfig holds the four axis-aligned world walls.
type WorldConfig struct {
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
	Bottom float64 `yaml:"bottom"`
	Top    float64 `yaml:"top"`
}

// PhysicsConfig holds tick timing and spatial index parameters.
type PhysicsConfig struct {
	DT                float64 `yaml:"dt"`                // Seconds per tick at time scale 1
	GridCellSize      float64 `yaml:"grid_cell_size"`    // Spatial index bucket size in world units
	TimeScale         float64 `yaml:"time_scale"`        // Initial time scale (0 = paused)
	TimeScaleFactor   float64 `yaml:"time_scale_factor"` // Multiplier applied by speed up / slow down
	TimeScaleMin      float64 `yaml:"time_scale_min"`
	TimeScaleMax      float64 `yaml:"time_scale_max"`
	Workers           int     `yaml:"workers"`            // Nearest-target workers (0 = GOMAXPROCS)
	ParallelThreshold int     `yaml:"parallel_threshold"` // Creature count before fanning out
}

// PerceptionConfig holds the nearest-target distance thresholds.
type PerceptionConfig struct {
	AwarenessRadius float64 `yaml:"awareness_radius"` // Prey/predator/friend search radius
	ObstacleRadius  float64 `yaml:"obstacle_radius"`  // Wall detection radius
}

// SeekConfig describes one steering rule driven by a Closest relation.
type SeekConfig struct {
	Relation    string  `yaml:"relation"`     // prey, predator, friend or obstacle
	RotationDeg float64 `yaml:"rotation_deg"` // 0 = seek, 180 = flee
	Magnitude   float64 `yaml:"magnitude"`    // Desired speed toward the rotated target
}

// WanderConfig holds random-drift steering parameters.
type WanderConfig struct {
	TurnRate  float64 `yaml:"turn_rate"` // Radians per second added to or removed from the wander angle
	Lookahead float64 `yaml:"lookahead"` // Seconds of velocity projected ahead for the drift point
}

// FactionConfig defines a relationship node.
// A faction may only prey on factions listed before it.
type FactionConfig struct {
	Name    string   `yaml:"name"`
	PreysOn []string `yaml:"preys_on"`
}

// CreatureConfig is the spawn template for a creature type.
type CreatureConfig struct {
	Name             string  `yaml:"name"`
	Faction          string  `yaml:"faction"`
	Radius           float64 `yaml:"radius"`
	Static           bool    `yaml:"static"` // No Movement component
	MaxSpeed         float64 `yaml:"max_speed"`
	Health           float64 `yaml:"health"`       // 0 = no Health component
	Fullness         float64 `yaml:"fullness"`     // Initial satiety
	MaxFullness      float64 `yaml:"max_fullness"` // 0 = no Fullness component
	BurnRate         float64 `yaml:"burn_rate"`    // Fullness lost per second
	Nutrition        float64 `yaml:"nutrition"`    // Granted to the killer
	Damage           float64 `yaml:"damage"`
	AttacksPerSecond float64 `yaml:"attacks_per_second"`
	WanderRadius     float64 `yaml:"wander_radius"` // 0 = no Wander component
	Intelligent      bool    `yaml:"intelligent"`
	Ricochet         bool    `yaml:"ricochet"`
	Carcass          string  `yaml:"carcass"`          // Creature type spawned on death
	PerceptionRange  float64 `yaml:"perception_range"` // 0 = no Perception component
}

// PopulationConfig holds spawn counts for one creature type.
type PopulationConfig struct {
	Creature string `yaml:"creature"`
	Initial  int    `yaml:"initial"`
	Min      int    `yaml:"min"` // Respawn floor (0 = never respawn)
}

// SwarmConfig holds swarm spawning and orbit parameters.
type SwarmConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Interval   float64 `yaml:"interval"`    // Seconds between swarm spawns
	MaxSwarms  int     `yaml:"max_swarms"`  // Live centers before spawning pauses (0 = unlimited)
	SpawnRange float64 `yaml:"spawn_range"` // Centers appear within +-range of the origin, per axis
	MinSize    int     `yaml:"min_size"`    // Swarmlings per swarm, inclusive
	MaxSize    int     `yaml:"max_size"`    // Swarmlings per swarm, exclusive
	MemberType string  `yaml:"member_type"` // Type name announced for each swarmling

	MemberSpread       float64 `yaml:"member_spread"`    // Initial offset from the center, per axis
	MemberMaxSpeed     float64 `yaml:"member_max_speed"` // Clamp on the velocity relative to the center
	CenterMaxSpeed     float64 `yaml:"center_max_speed"`
	CenterWanderRadius float64 `yaml:"center_wander_radius"`

	Attraction  float64 `yaml:"attraction"`
	Deviation   float64 `yaml:"deviation"`
	PullFactor  float64 `yaml:"pull_factor"`  // Scales attraction into the center pull
	SideFactor  float64 `yaml:"side_factor"`  // Scales deviation into the sideways push
	InnerRadius float64 `yaml:"inner_radius"` // No center pull within this distance
	TimeStep    float64 `yaml:"time_step"`    // Orbit integration substep in seconds
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // Seconds of simulation time per stats window
	PerfWindow  int     `yaml:"perf_window"`  // Ticks averaged by the perf collector
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT            time.Duration  // Physics.DT as a duration
	FactionIndex  map[string]int // name -> index into Factions
	CreatureIndex map[string]int // name -> index into Creatures
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return finish(cfg)
}

// Parse builds a configuration from YAML bytes layered over the embedded defaults.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.computeDerived()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT = time.Duration(c.Physics.DT * float64(time.Second))

	if c.Physics.TimeScaleFactor <= 1 {
		c.Physics.TimeScaleFactor = 2
	}
	if c.Physics.TimeScaleMin <= 0 {
		c.Physics.TimeScaleMin = 0.25
	}
	if c.Physics.TimeScaleMax < c.Physics.TimeScaleMin {
		c.Physics.TimeScaleMax = c.Physics.TimeScaleMin
	}

	c.Derived.FactionIndex = make(map[string]int, len(c.Factions))
	for i, f := range c.Factions {
		c.Derived.FactionIndex[f.Name] = i
	}
	c.Derived.CreatureIndex = make(map[string]int, len(c.Creatures))
	for i, cr := range c.Creatures {
		c.Derived.CreatureIndex[cr.Name] = i
	}
}

// Validate checks load-time constraints.
//
// Factions form a topologically ordered list: each faction may only prey on
// factions defined earlier than itself, which keeps the prey graph acyclic.
func (c *Config) Validate() error {
	if c.Physics.DT <= 0 {
		return fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT)
	}
	if c.Physics.GridCellSize <= 0 {
		return fmt.Errorf("physics.grid_cell_size must be positive, got %v", c.Physics.GridCellSize)
	}
	if c.World.Left >= c.World.Right || c.World.Bottom >= c.World.Top {
		return fmt.Errorf("world bounds are empty: left=%v right=%v bottom=%v top=%v",
			c.World.Left, c.World.Right, c.World.Bottom, c.World.Top)
	}

	defined := make(map[string]bool, len(c.Factions))
	for _, f := range c.Factions {
		if f.Name == "" {
			return fmt.Errorf("faction with empty name")
		}
		if defined[f.Name] {
			return fmt.Errorf("faction %q defined twice", f.Name)
		}
		for _, prey := range f.PreysOn {
			if prey == f.Name {
				return fmt.Errorf("faction %q preys on itself", f.Name)
			}
			if !defined[prey] {
				return fmt.Errorf("faction %q preys on %q which is not defined before it", f.Name, prey)
			}
		}
		defined[f.Name] = true
	}

	for _, cr := range c.Creatures {
		if _, ok := c.Derived.FactionIndex[cr.Faction]; !ok {
			return fmt.Errorf("creature %q references unknown faction %q", cr.Name, cr.Faction)
		}
		if cr.Carcass != "" {
			if _, ok := c.Derived.CreatureIndex[cr.Carcass]; !ok {
				return fmt.Errorf("creature %q leaves unknown carcass %q", cr.Name, cr.Carcass)
			}
		}
		if cr.Damage > 0 && cr.AttacksPerSecond <= 0 {
			return fmt.Errorf("creature %q deals damage but has no attack speed", cr.Name)
		}
	}

	for _, p := range c.Population {
		if _, ok := c.Derived.CreatureIndex[p.Creature]; !ok {
			return fmt.Errorf("population references unknown creature %q", p.Creature)
		}
	}

	for _, s := range c.Steering {
		switch strings.ToLower(s.Relation) {
		case "prey", "predator", "friend", "obstacle":
		default:
			return fmt.Errorf("steering rule has unknown relation %q", s.Relation)
		}
	}

	if sw := c.Swarm; sw.Enabled {
		if sw.Interval <= 0 {
			return fmt.Errorf("swarm.interval must be positive, got %v", sw.Interval)
		}
		if sw.MinSize < 1 || sw.MaxSize <= sw.MinSize {
			return fmt.Errorf("swarm size range [%d, %d) is empty", sw.MinSize, sw.MaxSize)
		}
		if sw.TimeStep <= 0 {
			return fmt.Errorf("swarm.time_step must be positive, got %v", sw.TimeStep)
		}
	}

	return nil
}

// Creature returns the creature template with the given name.
func (c *Config) Creature(name string) (*CreatureConfig, bool) {
	idx, ok := c.Derived.CreatureIndex[name]
	if !ok {
		return nil, false
	}
	return &c.Creatures[idx], true
}

// RotationRad returns the steering rotation in radians.
func (s SeekConfig) RotationRad() float64 {
	return s.RotationDeg * math.Pi / 180
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

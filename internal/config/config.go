package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/Garsondee/Drone-Sense/internal/drone"
	"github.com/Garsondee/Drone-Sense/internal/world"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Terrain   TerrainConfig   `yaml:"terrain"`
	Drone     DroneConfig     `yaml:"drone"`
	Soldiers  SoldierConfig   `yaml:"soldiers"`
	Sim       SimConfig       `yaml:"sim"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type TerrainConfig struct {
	Width     float64      `yaml:"width"`
	Depth     float64      `yaml:"depth"`
	Amplitude float64      `yaml:"amplitude"`
	Scale     float64      `yaml:"scale"`
	Octaves   int          `yaml:"octaves"`
	Buildings int          `yaml:"buildings"`
	Bounds    BoundsConfig `yaml:"bounds"`
}

// BoundsConfig is the rectangle random waypoints are drawn from.
type BoundsConfig struct {
	MinX float64 `yaml:"min_x"`
	MaxX float64 `yaml:"max_x"`
	MinZ float64 `yaml:"min_z"`
	MaxZ float64 `yaml:"max_z"`
}

type DroneConfig struct {
	Count         int     `yaml:"count"`
	Strategy      string  `yaml:"strategy"`
	SpawnHeight   float64 `yaml:"spawn_height"`
	FlyingSpeed   float64 `yaml:"flying_speed"`
	TurnRate      float64 `yaml:"turn_rate"`
	InitialRadius float64 `yaml:"initial_radius"`
	Gravity       float64 `yaml:"gravity"`
	FOV           float64 `yaml:"fov"`
	MaxRange      float64 `yaml:"max_range"`
}

type SoldierConfig struct {
	Count int `yaml:"count"`
}

type SimConfig struct {
	Seed     int64 `yaml:"seed"`
	TickRate int   `yaml:"tick_rate"`
	Ticks    int   `yaml:"ticks"`
	Parallel bool  `yaml:"parallel"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TelemetryConfig struct {
	CSV     string `yaml:"csv"`
	GeoJSON string `yaml:"geojson"`
	Listen  string `yaml:"listen"`
}

// Default mirrors the stock drone constants and terrain.
func Default() *Config {
	tc := world.DefaultTerrainConfig()
	b := drone.DefaultBounds()
	p := drone.DefaultParams()
	return &Config{
		Terrain: TerrainConfig{
			Width:     tc.Width,
			Depth:     tc.Depth,
			Amplitude: tc.Amplitude,
			Scale:     tc.Scale,
			Octaves:   tc.Octaves,
			Buildings: 14,
			Bounds:    BoundsConfig{MinX: b.MinX, MaxX: b.MaxX, MinZ: b.MinZ, MaxZ: b.MaxZ},
		},
		Drone: DroneConfig{
			Count:         3,
			Strategy:      drone.StrategyRandom.String(),
			SpawnHeight:   20,
			FlyingSpeed:   p.FlyingSpeed,
			TurnRate:      p.TurnRate,
			InitialRadius: p.InitialRadius,
			Gravity:       p.Gravity,
			FOV:           drone.DefaultFOV,
			MaxRange:      drone.DefaultMaxRange,
		},
		Soldiers: SoldierConfig{Count: 20},
		Sim:      SimConfig{Seed: 1, TickRate: 60, Ticks: 3600},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid field joined into one error.
func (c *Config) Validate() error {
	var errs []error
	b := c.Terrain.Bounds
	if c.Terrain.Width <= 0 || c.Terrain.Depth <= 0 {
		errs = append(errs, errors.New("terrain: width and depth must be positive"))
	}
	if b.MinX >= b.MaxX || b.MinZ >= b.MaxZ {
		errs = append(errs, fmt.Errorf("terrain.bounds: inverted or empty (%g..%g x %g..%g)", b.MinX, b.MaxX, b.MinZ, b.MaxZ))
	}
	if b.MinX < 0 || b.MinZ < 0 || b.MaxX > c.Terrain.Width || b.MaxZ > c.Terrain.Depth {
		errs = append(errs, errors.New("terrain.bounds: must lie on the terrain"))
	}
	if c.Terrain.Amplitude < 0 {
		errs = append(errs, errors.New("terrain.amplitude: must not be negative"))
	}
	if c.Drone.Count < 0 || c.Soldiers.Count < 0 || c.Terrain.Buildings < 0 {
		errs = append(errs, errors.New("counts must not be negative"))
	}
	if _, err := drone.ParseStrategy(c.Drone.Strategy); err != nil {
		errs = append(errs, fmt.Errorf("drone.strategy: %w", err))
	}
	if c.Drone.FlyingSpeed <= 0 {
		errs = append(errs, errors.New("drone.flying_speed: must be positive"))
	}
	if c.Drone.Gravity < 0 {
		errs = append(errs, errors.New("drone.gravity: must not be negative"))
	}
	if c.Drone.FOV <= 0 || c.Drone.FOV > 180 {
		errs = append(errs, errors.New("drone.fov: must be in (0,180]"))
	}
	if c.Drone.MaxRange <= 0 {
		errs = append(errs, errors.New("drone.max_range: must be positive"))
	}
	if c.Sim.TickRate <= 0 {
		errs = append(errs, errors.New("sim.tick_rate: must be positive"))
	}
	return errors.Join(errs...)
}

// Bounds converts the waypoint rectangle.
func (c *Config) Bounds() drone.Bounds {
	b := c.Terrain.Bounds
	return drone.Bounds{MinX: b.MinX, MaxX: b.MaxX, MinZ: b.MinZ, MaxZ: b.MaxZ}
}

// DroneOptions builds per-drone options. The strategy was checked by Validate.
func (c *Config) DroneOptions() drone.Options {
	strat, _ := drone.ParseStrategy(c.Drone.Strategy)
	return drone.Options{
		Params: drone.Params{
			TurnRate:      c.Drone.TurnRate,
			FlyingSpeed:   c.Drone.FlyingSpeed,
			InitialRadius: c.Drone.InitialRadius,
			Gravity:       c.Drone.Gravity,
		},
		Bounds:   c.Bounds(),
		Strategy: strat,
		FOV:      c.Drone.FOV,
		MaxRange: c.Drone.MaxRange,
	}
}

// WorldTerrain converts the terrain section, seeding noise from the sim seed.
func (c *Config) WorldTerrain() world.TerrainConfig {
	return world.TerrainConfig{
		Width:     c.Terrain.Width,
		Depth:     c.Terrain.Depth,
		Amplitude: c.Terrain.Amplitude,
		Scale:     c.Terrain.Scale,
		Octaves:   c.Terrain.Octaves,
		Seed:      c.Sim.Seed,
	}
}

// DT is the fixed tick length in seconds.
func (c *Config) DT() float64 {
	return 1 / float64(c.Sim.TickRate)
}

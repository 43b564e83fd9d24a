package sim

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/Garsondee/Drone-Sense/internal/config"
	"github.com/Garsondee/Drone-Sense/internal/drone"
	"github.com/Garsondee/Drone-Sense/internal/geom"
	"github.com/Garsondee/Drone-Sense/internal/world"
	"github.com/charmbracelet/log"
)

// optionKind controls the pass in which an option is applied.
type optionKind int

const (
	optInfra     optionKind = iota // seed, terrain, logging, drone settings: applied first
	optStructure                   // buildings: applied once the terrain exists
	optSoldier                     // soldiers: applied once buildings are placed
	optDrone                       // drones: applied last
)

// Option is a builder function applied to a Sim during construction.
type Option struct {
	kind optionKind
	fn   func(*Sim)
}

// WithSeed sets the RNG seed for deterministic runs. It also seeds terrain noise.
func WithSeed(seed int64) Option {
	return Option{optInfra, func(s *Sim) {
		s.seed = seed
		s.rng = rand.New(rand.NewSource(seed)) // #nosec G404 -- simulation only
		s.terrainCfg.Seed = seed
	}}
}

// WithTerrain replaces the terrain configuration. Its seed is kept as given.
func WithTerrain(cfg world.TerrainConfig) Option {
	return Option{optInfra, func(s *Sim) {
		s.terrainCfg = cfg
	}}
}

// WithFlatTerrain uses flat ground of the given size.
func WithFlatTerrain(width, depth float64) Option {
	return Option{optInfra, func(s *Sim) {
		s.terrainCfg = world.TerrainConfig{Width: width, Depth: depth}
	}}
}

// WithDroneOptions sets the options every subsequently added drone uses.
func WithDroneOptions(o drone.Options) Option {
	return Option{optInfra, func(s *Sim) {
		s.droneOpts = o
	}}
}

// WithSpawnHeight sets the altitude random drones spawn at above the ground.
func WithSpawnHeight(h float64) Option {
	return Option{optInfra, func(s *Sim) {
		s.spawnHeight = h
	}}
}

// WithTelemetry sets the sink for found events. It must be safe for
// concurrent use when combined with WithParallel.
func WithTelemetry(t drone.Telemetry) Option {
	return Option{optInfra, func(s *Sim) {
		s.telemetry = t
	}}
}

// WithLogger sets the structured logger.
func WithLogger(l *log.Logger) Option {
	return Option{optInfra, func(s *Sim) {
		s.logger = l
	}}
}

// WithVerbose enables per-tick position, velocity and heading entries.
func WithVerbose(v bool) Option {
	return Option{optInfra, func(s *Sim) {
		s.Log = NewLog(v)
	}}
}

// WithParallel ticks drones concurrently.
func WithParallel(p bool) Option {
	return Option{optInfra, func(s *Sim) {
		s.parallel = p
	}}
}

// WithTrackEvery samples drone positions every n ticks. 0 disables tracks.
func WithTrackEvery(n int) Option {
	return Option{optInfra, func(s *Sim) {
		s.trackEvery = n
	}}
}

// WithBuilding adds a box building with footprint (x,z,w,d) and height h.
func WithBuilding(x, z, w, d, h float64) Option {
	return Option{optStructure, func(s *Sim) {
		s.Terrain.AddBuilding(x, z, w, d, h)
	}}
}

// WithRandomBuildings scatters n buildings inside the drone bounds.
func WithRandomBuildings(n int) Option {
	return Option{optStructure, func(s *Sim) {
		s.Terrain.GenerateBuildings(s.rng, n, s.droneOpts.Bounds)
	}}
}

// WithSoldier places a soldier on the ground at (x,z).
func WithSoldier(label string, x, z float64) Option {
	return Option{optSoldier, func(s *Sim) {
		s.Registry.Add(world.NewSoldier(label, s.Terrain.GroundPoint(x, z)))
	}}
}

// WithRandomSoldiers scatters n soldiers on open ground inside the drone bounds.
func WithRandomSoldiers(n int) Option {
	return Option{optSoldier, func(s *Sim) {
		for _, sol := range world.SpawnSoldiers(s.Terrain, s.rng, n, s.droneOpts.Bounds) {
			s.Registry.Add(sol)
		}
	}}
}

// WithDrone spawns a drone at (x,z), y units above the ground.
func WithDrone(label string, x, y, z float64) Option {
	return Option{optDrone, func(s *Sim) {
		p := s.Terrain.GroundPoint(x, z)
		p.Y += y
		s.addDrone(label, p)
	}}
}

// WithRandomDrones spawns n drones at random points inside the drone bounds.
func WithRandomDrones(n int) Option {
	return Option{optDrone, func(s *Sim) {
		b := s.droneOpts.Bounds
		for i := 0; i < n; i++ {
			x := b.MinX + s.rng.Float64()*(b.MaxX-b.MinX)
			z := b.MinZ + s.rng.Float64()*(b.MaxZ-b.MinZ)
			p := s.Terrain.GroundPoint(x, z)
			p.Y += s.spawnHeight
			s.addDrone(fmt.Sprintf("D%d", len(s.Drones)), p)
		}
	}}
}

func (s *Sim) addDrone(label string, spawn geom.Vec3) {
	// Each drone gets its own stream so parallel runs stay reproducible.
	rng := rand.New(rand.NewSource(s.rng.Int63())) // #nosec G404 -- simulation only
	d := drone.New(label, spawn, s.droneOpts, s.Terrain, rng)
	s.Drones = append(s.Drones, d)
	s.tracks = append(s.tracks, []geom.Vec3{spawn})
}

// New builds a Sim from options in ordered passes:
//  1. Infrastructure (seed, terrain config, drone options, logging)
//  2. Terrain, then buildings
//  3. Soldiers
//  4. Drones
func New(opts ...Option) *Sim {
	s := &Sim{
		Log:         NewLog(false),
		logger:      log.New(io.Discard),
		rng:         rand.New(rand.NewSource(1)), // #nosec G404 -- simulation default
		seed:        1,
		droneOpts:   drone.DefaultOptions(),
		terrainCfg:  world.TerrainConfig{Width: 1145, Depth: 750},
		spawnHeight: 20,
		trackEvery:  30,
		firstFound:  -1,
	}
	apply := func(kind optionKind) {
		for _, o := range opts {
			if o.kind == kind {
				o.fn(s)
			}
		}
	}
	apply(optInfra)
	s.Terrain = world.NewTerrain(s.terrainCfg)
	s.Registry = world.NewRegistry()
	apply(optStructure)
	apply(optSoldier)
	apply(optDrone)
	s.Log.Add(0, "--", CatSim, "start",
		fmt.Sprintf("seed=%d drones=%d soldiers=%d buildings=%d", s.seed, len(s.Drones), s.Registry.Len(), len(s.Terrain.Buildings())), 0)
	return s
}

// FromConfig builds a randomized world from cfg. extra options are applied
// after the config and may override it.
func FromConfig(cfg *config.Config, extra ...Option) (*Sim, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	opts := []Option{
		WithSeed(cfg.Sim.Seed),
		WithTerrain(cfg.WorldTerrain()),
		WithDroneOptions(cfg.DroneOptions()),
		WithSpawnHeight(cfg.Drone.SpawnHeight),
		WithParallel(cfg.Sim.Parallel),
		WithRandomBuildings(cfg.Terrain.Buildings),
		WithRandomSoldiers(cfg.Soldiers.Count),
		WithRandomDrones(cfg.Drone.Count),
	}
	return New(append(opts, extra...)...), nil
}

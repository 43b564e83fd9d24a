package drone

import (
	"math/rand"

	"github.com/Garsondee/Drone-Sense/internal/geom"
	"github.com/google/uuid"
)

// Mover resolves a requested displacement against the world.
type Mover interface {
	// Move applies displacement from pos and returns the resolved position
	// and whether the mover is touching the ground afterwards.
	Move(pos, displacement geom.Vec3) (geom.Vec3, bool)
}

// Registry tracks soldiers and their detection status.
type Registry interface {
	// Candidates lists soldiers not yet found.
	Candidates() []Candidate
	// MarkFound flips id to Found, moves it from missing to found and bumps
	// the found counter in one step. It returns false if id was already found.
	MarkFound(id, by string, tick int) bool
}

// Telemetry receives exactly one call per successful detection.
type Telemetry interface {
	RecordFound(Detection)
}

// Env is everything a drone touches outside itself during a tick.
type Env struct {
	Tick      int
	Mover     Mover
	Registry  Registry
	Telemetry Telemetry
}

// Options configures a drone at spawn.
type Options struct {
	Params   Params
	Bounds   Bounds
	Strategy Strategy
	FOV      float64
	MaxRange float64
}

// DefaultOptions returns the stock drone configuration.
func DefaultOptions() Options {
	return Options{
		Params:   DefaultParams(),
		Bounds:   DefaultBounds(),
		Strategy: StrategyRandom,
		FOV:      DefaultFOV,
		MaxRange: DefaultMaxRange,
	}
}

// TickReport summarises one drone tick for logging.
type TickReport struct {
	Plan       PlanResult
	Scanned    bool
	Detections []Detection
	Move       geom.Vec3
	Steered    bool
	From       geom.Vec3
	To         geom.Vec3
	Grounded   bool
	Velocity   float64
	Yaw        float64 // facing after this tick, degrees from +Z
	Pitch      float64
}

// Drone is a patrol agent: a Navigator for movement plus a Sensor for detection.
type Drone struct {
	ID    string
	Label string

	nav      *Navigator
	sensor   Sensor
	pos      geom.Vec3
	forward  geom.Vec3
	yaw      float64
	pitch    float64
	grounded bool
	found    int
}

// New spawns a drone at spawn. occ is used for line-of-sight traces.
func New(label string, spawn geom.Vec3, opts Options, occ Occluder, rng *rand.Rand) *Drone {
	return &Drone{
		ID:      uuid.New().String(),
		Label:   label,
		nav:     NewNavigator(spawn, opts.Params, opts.Bounds, opts.Strategy, rng),
		sensor:  NewSensor(opts.FOV, opts.MaxRange, occ),
		pos:     spawn,
		forward: geom.Forward,
	}
}

// Tick runs one update: destination planning, a sensor sweep (once takeoff
// is over), then travel. The sweep uses the facing from the previous tick,
// and planning uses the grounded flag from the previous move.
func (d *Drone) Tick(env Env, dt float64) TickReport {
	rep := TickReport{From: d.pos}

	wasInitial := d.nav.Initial()
	rep.Plan = d.nav.Plan(d.pos, d.grounded)

	if !wasInitial && env.Registry != nil {
		rep.Scanned = true
		rep.Detections = d.sweep(env)
	}

	move, fwd, ok := d.nav.Steer(d.pos, dt)
	if ok {
		d.forward = fwd
		d.yaw, d.pitch = geom.YawPitch(fwd)
	}
	rep.Move = move
	rep.Steered = ok

	next := d.pos.Add(move)
	grounded := false
	if env.Mover != nil {
		next, grounded = env.Mover.Move(d.pos, move)
	}
	d.nav.Observe(d.pos, next, dt)
	d.pos = next
	d.grounded = grounded

	rep.To = next
	rep.Grounded = grounded
	rep.Velocity = d.nav.Velocity()
	rep.Yaw, rep.Pitch = d.yaw, d.pitch
	return rep
}

// sweep scans the registry and applies each detection. A detection only
// counts if MarkFound wins; telemetry is told only after that succeeds.
func (d *Drone) sweep(env Env) []Detection {
	seen := d.sensor.Scan(d.pos, d.forward, env.Registry.Candidates())
	out := seen[:0]
	for _, det := range seen {
		if !env.Registry.MarkFound(det.TargetID, d.Label, env.Tick) {
			continue
		}
		det.Tick = env.Tick
		det.DroneID = d.ID
		det.DroneLabel = d.Label
		if env.Telemetry != nil {
			env.Telemetry.RecordFound(det)
		}
		d.found++
		out = append(out, det)
	}
	return out
}

func (d *Drone) Position() geom.Vec3   { return d.pos }
func (d *Drone) Forward() geom.Vec3    { return d.forward }
func (d *Drone) Grounded() bool        { return d.grounded }
func (d *Drone) Navigator() *Navigator { return d.nav }
func (d *Drone) Sensor() Sensor        { return d.sensor }
func (d *Drone) FoundCount() int       { return d.found }

// Heading returns the facing as yaw (degrees clockwise from +Z) and pitch
// (degrees, positive looking down).
func (d *Drone) Heading() (yaw, pitch float64) { return d.yaw, d.pitch }

// Destination is a shortcut for the navigator's current waypoint.
func (d *Drone) Destination() geom.Vec3 { return d.nav.Destination() }

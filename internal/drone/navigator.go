package drone

import (
	"math/rand"
	"time"

	"github.com/Garsondee/Drone-Sense/internal/geom"
)

// RerouteReason explains why a new destination was requested.
type RerouteReason int

const (
	RerouteNone    RerouteReason = iota
	RerouteArrival               // within ArrivalThreshold of the destination
	RerouteStall                 // velocity fell below StallThreshold
)

func (r RerouteReason) String() string {
	switch r {
	case RerouteNone:
		return "none"
	case RerouteArrival:
		return "arrival"
	case RerouteStall:
		return "stall"
	default:
		return "unknown"
	}
}

// PlanResult describes what the destination update did this tick.
type PlanResult struct {
	TakeoffComplete bool          // initial flag cleared this tick
	Reroute         RerouteReason // why a new waypoint was requested, if at all
	Deferred        bool          // strategy declined to pick a waypoint
	Destination     geom.Vec3     // destination after the update
}

// Navigator owns a drone's destination and produces its per-tick displacement.
type Navigator struct {
	params   Params
	bounds   Bounds
	strategy Strategy
	rng      *rand.Rand

	destination geom.Vec3

	// Takeoff: until first grounded, destination trails a fixed offset.
	initial            bool
	initialTravelAngle float64
	initialPosition    geom.Vec3
	xOffset            float64
	zOffset            float64
	initialLength      float64

	previousPosition geom.Vec3
	velocity         float64

	arrivals  int
	stalls    int
	deferrals int
}

// NewNavigator initializes a navigator at spawn. A random travel angle picks
// the takeoff offset of InitialRadius. A nil rng is seeded from the clock.
func NewNavigator(spawn geom.Vec3, params Params, bounds Bounds, strategy Strategy, rng *rand.Rand) *Navigator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec G404 -- simulation only
	}
	n := &Navigator{
		params:           params,
		bounds:           bounds,
		strategy:         strategy,
		rng:              rng,
		initial:          true,
		initialPosition:  spawn,
		previousPosition: spawn,
	}
	n.initialTravelAngle = rng.Float64() * 360
	dx, dz := geom.DirectionFromAngle(n.initialTravelAngle)
	n.xOffset = params.InitialRadius * dx
	n.zOffset = params.InitialRadius * dz

	n.destination = spawn
	n.destination.X += n.xOffset
	n.destination.Z += n.zOffset
	n.initialLength = geom.Dist(n.initialPosition, n.destination)
	return n
}

// Tick runs Plan and Steer for one tick and returns the requested displacement.
func (n *Navigator) Tick(pos geom.Vec3, grounded bool, dt float64) (geom.Vec3, PlanResult) {
	res := n.Plan(pos, grounded)
	move, _, _ := n.Steer(pos, dt)
	return move, res
}

// Plan resyncs the destination height and picks a new waypoint when the
// drone has arrived or stalled. During takeoff the destination tracks the
// takeoff offset until the drone is first grounded.
func (n *Navigator) Plan(pos geom.Vec3, grounded bool) PlanResult {
	// Waypoints are planar; height follows the terrain.
	n.destination.Y = pos.Y

	var res PlanResult
	if n.initial {
		if grounded {
			n.initial = false
			res.TakeoffComplete = true
		} else {
			n.destination.X = pos.X + n.xOffset
			n.destination.Z = pos.Z + n.zOffset
		}
		res.Destination = n.destination
		return res
	}

	switch {
	case geom.Dist(pos, n.destination) < ArrivalThreshold:
		res.Reroute = RerouteArrival
		n.arrivals++
	case n.velocity < StallThreshold:
		res.Reroute = RerouteStall
		n.stalls++
	}

	if res.Reroute != RerouteNone {
		if next, ok := n.strategy.NextDestination(n.rng, n.bounds); ok {
			n.destination = next
		} else {
			res.Deferred = true
			n.deferrals++
		}
	}
	res.Destination = n.destination
	return res
}

// Steer faces the destination and returns the displacement for this tick:
// FlyingSpeed along the facing, minus Gravity*dt on Y. When the destination
// coincides with pos there is no facing, ok is false and only gravity applies.
func (n *Navigator) Steer(pos geom.Vec3, dt float64) (move, forward geom.Vec3, ok bool) {
	forward, ok = n.destination.Sub(pos).Normalize()
	if ok {
		move = forward.Scale(n.params.FlyingSpeed * dt)
	}
	move.Y -= n.params.Gravity * dt
	return move, forward, ok
}

// Observe records the resolved movement so the next Plan can detect a stall.
// A non-positive dt keeps the previous velocity.
func (n *Navigator) Observe(oldPos, newPos geom.Vec3, dt float64) {
	n.previousPosition = oldPos
	if dt <= 0 {
		return
	}
	n.velocity = geom.Dist(newPos, oldPos) / dt
}

func (n *Navigator) Destination() geom.Vec3 { return n.destination }
func (n *Navigator) Initial() bool          { return n.initial }
func (n *Navigator) Velocity() float64      { return n.velocity }
func (n *Navigator) Strategy() Strategy     { return n.strategy }
func (n *Navigator) Bounds() Bounds         { return n.bounds }

// TakeoffOffset returns the fixed X/Z offset used during takeoff.
func (n *Navigator) TakeoffOffset() (x, z float64) { return n.xOffset, n.zOffset }

// TakeoffAngle returns the travel angle chosen at spawn, in degrees.
func (n *Navigator) TakeoffAngle() float64 { return n.initialTravelAngle }

// TakeoffLength returns the spawn-to-first-destination distance.
func (n *Navigator) TakeoffLength() float64 { return n.initialLength }

// Counts returns how many arrivals, stalls and deferred reroutes occurred.
func (n *Navigator) Counts() (arrivals, stalls, deferrals int) {
	return n.arrivals, n.stalls, n.deferrals
}

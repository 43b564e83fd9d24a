package drone

import "github.com/paulmach/orb"

// Simulation constants for a patrol drone.
const (
	TurnRate      = 200.0 // degrees per second; facing snaps via LookAt so this is informational
	FlyingSpeed   = 36.0  // world units per second
	InitialRadius = 10.0  // takeoff offset from the spawn point
	Gravity       = 25.0  // downward displacement per second, applied every tick

	ArrivalThreshold = 1.0 // distance below which a destination counts as reached
	StallThreshold   = 1.0 // velocity below which a drone is judged stuck

	// Default camera parameters (degrees / world units).
	DefaultFOV      = 60.0
	DefaultMaxRange = 1000.0
)

// Spawn ranges for random waypoints.
const (
	DefaultMinX = 75.0
	DefaultMaxX = 1070.0
	DefaultMinZ = 50.0
	DefaultMaxZ = 700.0
)

// Params holds the per-drone kinematic constants.
type Params struct {
	TurnRate      float64
	FlyingSpeed   float64
	InitialRadius float64
	Gravity       float64
}

// DefaultParams returns the stock drone constants.
func DefaultParams() Params {
	return Params{
		TurnRate:      TurnRate,
		FlyingSpeed:   FlyingSpeed,
		InitialRadius: InitialRadius,
		Gravity:       Gravity,
	}
}

// Bounds is the X/Z rectangle random waypoints are drawn from.
type Bounds struct {
	MinX, MaxX float64
	MinZ, MaxZ float64
}

// DefaultBounds returns the terrain patrol rectangle.
func DefaultBounds() Bounds {
	return Bounds{MinX: DefaultMinX, MaxX: DefaultMaxX, MinZ: DefaultMinZ, MaxZ: DefaultMaxZ}
}

// Orb returns the bounds as a planar orb.Bound with X→X and Z→Y.
func (b Bounds) Orb() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinX, b.MinZ},
		Max: orb.Point{b.MaxX, b.MaxZ},
	}
}

// ContainsXZ reports whether the planar coordinate lies inside the bounds.
func (b Bounds) ContainsXZ(x, z float64) bool {
	return b.Orb().Contains(orb.Point{x, z})
}

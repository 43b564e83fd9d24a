package drone

import (
	"fmt"

	"github.com/Garsondee/Drone-Sense/internal/geom"
)

// Status is a soldier's detection state. It only ever moves NotFound → Found.
type Status int

const (
	StatusNotFound Status = iota
	StatusFound
)

func (s Status) String() string {
	switch s {
	case StatusNotFound:
		return "not_found"
	case StatusFound:
		return "found"
	default:
		return "unknown"
	}
}

// Stage identifies which visibility check a candidate failed, if any.
type Stage int

const (
	StageVisible  Stage = iota // passed every check
	StageRange                 // at or beyond MaxRange
	StageFOV                   // outside the field of view
	StageOccluded              // line of sight blocked
	StageSkipped               // already found
)

func (s Stage) String() string {
	switch s {
	case StageVisible:
		return "visible"
	case StageRange:
		return "out_of_range"
	case StageFOV:
		return "out_of_fov"
	case StageOccluded:
		return "occluded"
	case StageSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Occluder answers straight-line traces through world geometry.
type Occluder interface {
	// Linecast returns true if anything blocks the segment a->b.
	Linecast(a, b geom.Vec3) bool
}

// Candidate is a read-only view of a soldier handed to the sensor.
type Candidate struct {
	ID       string
	Label    string
	Position geom.Vec3
	Status   Status
}

// Detection is a newly-visible candidate.
type Detection struct {
	Tick       int
	DroneID    string
	DroneLabel string
	TargetID   string
	Target     string
	Observer   geom.Vec3
	Position   geom.Vec3
	Distance   float64
	Angle      float64 // degrees off the drone's facing
}

// Sensor is a drone camera: a view cone of FOV degrees out to MaxRange.
type Sensor struct {
	FOV      float64
	MaxRange float64
	Occluder Occluder
}

// NewSensor returns a sensor with the given cone. A nil occluder never blocks.
func NewSensor(fov, maxRange float64, occ Occluder) Sensor {
	return Sensor{FOV: fov, MaxRange: maxRange, Occluder: occ}
}

// Check runs the three visibility stages in order and stops at the first
// failure, so the occlusion trace only happens for candidates in the cone.
// The full angle off forward is compared against FOV.
func (s Sensor) Check(origin, forward geom.Vec3, c Candidate) (Stage, float64, float64) {
	if c.Position.IsNaN() {
		panic(fmt.Sprintf("drone: candidate %s has no position", c.ID))
	}
	if c.Status != StatusNotFound {
		return StageSkipped, 0, 0
	}
	dist := geom.Dist(origin, c.Position)
	if dist >= s.MaxRange {
		return StageRange, dist, 0
	}
	angle := geom.Angle(c.Position.Sub(origin), forward)
	if angle > s.FOV {
		return StageFOV, dist, angle
	}
	if s.Occluder != nil && s.Occluder.Linecast(origin, c.Position) {
		return StageOccluded, dist, angle
	}
	return StageVisible, dist, angle
}

// Scan returns a Detection for every NotFound candidate that is visible.
func (s Sensor) Scan(origin, forward geom.Vec3, candidates []Candidate) []Detection {
	var out []Detection
	for _, c := range candidates {
		stage, dist, angle := s.Check(origin, forward, c)
		if stage != StageVisible {
			continue
		}
		out = append(out, Detection{
			TargetID: c.ID,
			Target:   c.Label,
			Observer: origin,
			Position: c.Position,
			Distance: dist,
			Angle:    angle,
		})
	}
	return out
}

package telemetry

import (
	"github.com/Garsondee/Drone-Sense/internal/drone"
)

// Event types sent to subscribers.
const (
	EventFound   = "found"
	EventSummary = "summary"
)

// FoundEvent is the wire form of a detection.
type FoundEvent struct {
	Type     string     `json:"type"`
	Tick     int        `json:"tick"`
	DroneID  string     `json:"drone_id"`
	Drone    string     `json:"drone"`
	TargetID string     `json:"target_id"`
	Target   string     `json:"target"`
	Position [3]float64 `json:"position"`
	Observer [3]float64 `json:"observer"`
	Distance float64    `json:"distance"`
	Angle    float64    `json:"angle"`
	Total    int        `json:"total"`
}

func newFoundEvent(d drone.Detection, total int) FoundEvent {
	return FoundEvent{
		Type:     EventFound,
		Tick:     d.Tick,
		DroneID:  d.DroneID,
		Drone:    d.DroneLabel,
		TargetID: d.TargetID,
		Target:   d.Target,
		Position: [3]float64{d.Position.X, d.Position.Y, d.Position.Z},
		Observer: [3]float64{d.Observer.X, d.Observer.Y, d.Observer.Z},
		Distance: d.Distance,
		Angle:    d.Angle,
		Total:    total,
	}
}

// SummaryEvent reports run progress; published at the end of a run.
type SummaryEvent struct {
	Type       string `json:"type"`
	Seed       int64  `json:"seed"`
	Tick       int    `json:"tick"`
	Found      int    `json:"found"`
	Total      int    `json:"total"`
	FirstFound int    `json:"first_found"`
}

// NewSummaryEvent builds a SummaryEvent.
func NewSummaryEvent(seed int64, tick, found, total, firstFound int) SummaryEvent {
	return SummaryEvent{
		Type:       EventSummary,
		Seed:       seed,
		Tick:       tick,
		Found:      found,
		Total:      total,
		FirstFound: firstFound,
	}
}

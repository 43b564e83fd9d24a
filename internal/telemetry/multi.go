package telemetry

import "github.com/Garsondee/Drone-Sense/internal/drone"

// Multi fans one event out to several sinks in order. Nil sinks are skipped.
type Multi []drone.Telemetry

func (m Multi) RecordFound(d drone.Detection) {
	for _, t := range m {
		if t != nil {
			t.RecordFound(d)
		}
	}
}

// Func adapts a plain function to drone.Telemetry.
type Func func(drone.Detection)

func (f Func) RecordFound(d drone.Detection) { f(d) }

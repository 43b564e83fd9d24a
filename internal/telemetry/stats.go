package telemetry

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/Garsondee/Drone-Sense/internal/drone"
)

var csvHeader = []string{"tick", "drone", "target", "x", "y", "z", "distance", "angle", "total"}

// Stats counts found events and optionally appends one CSV row per event.
// Safe for concurrent use.
type Stats struct {
	mu      sync.Mutex
	count   int
	first   int
	last    int
	byDrone map[string]int
	csv     *csv.Writer
	err     error
}

// NewStats returns a counter. If w is non-nil a CSV header is written to it
// and every event becomes a row.
func NewStats(w io.Writer) *Stats {
	s := &Stats{first: -1, last: -1, byDrone: map[string]int{}}
	if w != nil {
		s.csv = csv.NewWriter(w)
		s.err = s.csv.Write(csvHeader)
	}
	return s
}

// RecordFound counts d. The first write error sticks and is reported by Flush.
func (s *Stats) RecordFound(d drone.Detection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	if s.first < 0 {
		s.first = d.Tick
	}
	s.last = d.Tick
	s.byDrone[d.DroneLabel]++
	if s.csv == nil || s.err != nil {
		return
	}
	s.err = s.csv.Write([]string{
		strconv.Itoa(d.Tick),
		d.DroneLabel,
		d.Target,
		ftoa(d.Position.X),
		ftoa(d.Position.Y),
		ftoa(d.Position.Z),
		ftoa(d.Distance),
		ftoa(d.Angle),
		strconv.Itoa(s.count),
	})
}

// Count is the number of events recorded.
func (s *Stats) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// FirstTick is the tick of the first event, or -1.
func (s *Stats) FirstTick() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.first
}

// LastTick is the tick of the latest event, or -1.
func (s *Stats) LastTick() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// ByDrone returns a copy of per-drone find counts keyed by drone label.
func (s *Stats) ByDrone() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.byDrone))
	for k, v := range s.byDrone {
		out[k] = v
	}
	return out
}

// Flush writes buffered CSV rows and returns the first error seen.
func (s *Stats) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.csv == nil {
		return nil
	}
	s.csv.Flush()
	if s.err != nil {
		return fmt.Errorf("write stats csv: %w", s.err)
	}
	if err := s.csv.Error(); err != nil {
		return fmt.Errorf("write stats csv: %w", err)
	}
	return nil
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

package drone

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/Garsondee/Drone-Sense/internal/geom"
)

// Strategy selects how a drone picks its next waypoint.
type Strategy int

const (
	StrategyRandom    Strategy = iota // uniform point inside the patrol bounds
	StrategySpreadOut                 // not implemented; rerouting is deferred
)

func (s Strategy) String() string {
	switch s {
	case StrategyRandom:
		return "random"
	case StrategySpreadOut:
		return "spread_out"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a config name onto a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "random":
		return StrategyRandom, nil
	case "spread_out", "spread-out", "spreadout":
		return StrategySpreadOut, nil
	default:
		return StrategyRandom, fmt.Errorf("unknown strategy %q", name)
	}
}

// NextDestination picks a new waypoint. ok is false when the strategy has
// no behaviour and the current destination must be kept.
func (s Strategy) NextDestination(rng *rand.Rand, b Bounds) (geom.Vec3, bool) {
	switch s {
	case StrategyRandom:
		return geom.Vec3{
			X: randRange(rng, b.MinX, b.MaxX),
			Y: 0,
			Z: randRange(rng, b.MinZ, b.MaxZ),
		}, true
	default:
		return geom.Vec3{}, false
	}
}

func randRange(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

package world

import (
	"fmt"
	"math/rand"

	"github.com/Garsondee/Drone-Sense/internal/drone"
	"github.com/Garsondee/Drone-Sense/internal/geom"
	"github.com/google/uuid"
)

// Soldier is a stationary target waiting to be found.
type Soldier struct {
	ID       string
	Label    string
	Position geom.Vec3
	Status   drone.Status

	// Set once, when the soldier is found.
	FoundBy   string
	FoundTick int
}

// NewSoldier creates a not-found soldier at pos.
func NewSoldier(label string, pos geom.Vec3) *Soldier {
	return &Soldier{
		ID:       uuid.New().String(),
		Label:    label,
		Position: pos,
		Status:   drone.StatusNotFound,
	}
}

func (s *Soldier) candidate() drone.Candidate {
	return drone.Candidate{ID: s.ID, Label: s.Label, Position: s.Position, Status: s.Status}
}

// SpawnSoldiers scatters count soldiers on open ground inside b. Points
// inside buildings are retried; if the map is too crowded fewer are placed.
func SpawnSoldiers(t *Terrain, rng *rand.Rand, count int, b drone.Bounds) []*Soldier {
	out := make([]*Soldier, 0, count)
	for attempts := 0; len(out) < count && attempts < count*50; attempts++ {
		x := b.MinX + rng.Float64()*(b.MaxX-b.MinX)
		z := b.MinZ + rng.Float64()*(b.MaxZ-b.MinZ)
		p := t.GroundPoint(x, z)
		if t.InsideBuilding(p) {
			continue
		}
		out = append(out, NewSoldier(fmt.Sprintf("S%d", len(out)), p))
	}
	return out
}

package world

import (
	"math"
	"math/rand"

	"github.com/Garsondee/Drone-Sense/internal/drone"
	"github.com/Garsondee/Drone-Sense/internal/geom"
)

const (
	// linecastStep is the spacing of terrain samples along a trace.
	linecastStep = 2.0
	// terrainClearance is how far ground must rise above a trace to block it.
	terrainClearance = 0.5
	// groundSkin absorbs float error when deciding a mover is on the ground.
	groundSkin = 1e-6
	// roofClearance lifts a landed mover just off the roof so its sight
	// lines do not start on the box surface.
	roofClearance = 0.01
	// buildingGap keeps generated buildings apart.
	buildingGap = 12.0
)

// TerrainConfig describes the playfield and its heightfield.
type TerrainConfig struct {
	Width     float64 // X extent
	Depth     float64 // Z extent
	Amplitude float64 // peak ground height; 0 gives flat ground
	Scale     float64 // noise frequency per world unit
	Octaves   int
	Seed      int64
}

// DefaultTerrainConfig is a gently rolling field around the patrol bounds.
func DefaultTerrainConfig() TerrainConfig {
	return TerrainConfig{
		Width:     1145,
		Depth:     750,
		Amplitude: 8,
		Scale:     0.008,
		Octaves:   3,
		Seed:      1,
	}
}

// Terrain is the world geometry: a heightfield plus box buildings. It is
// read-only once built and safe to share between drones.
type Terrain struct {
	cfg       TerrainConfig
	buildings []geom.AABB
}

// NewTerrain builds a terrain with no buildings.
func NewTerrain(cfg TerrainConfig) *Terrain {
	if cfg.Octaves <= 0 {
		cfg.Octaves = 1
	}
	return &Terrain{cfg: cfg}
}

func (t *Terrain) Width() float64 { return t.cfg.Width }
func (t *Terrain) Depth() float64 { return t.cfg.Depth }

// MaxHeight is the highest the ground can reach.
func (t *Terrain) MaxHeight() float64 { return t.cfg.Amplitude }

// HeightAt returns the ground height at (x,z). Points off the map use the
// nearest edge.
func (t *Terrain) HeightAt(x, z float64) float64 {
	if t.cfg.Amplitude == 0 {
		return 0
	}
	x = clamp(x, 0, t.cfg.Width)
	z = clamp(z, 0, t.cfg.Depth)
	n := fractalNoise(x*t.cfg.Scale, z*t.cfg.Scale, t.cfg.Seed, t.cfg.Octaves)
	return n * t.cfg.Amplitude
}

// GroundPoint returns the point on the ground at (x,z).
func (t *Terrain) GroundPoint(x, z float64) geom.Vec3 {
	return geom.Vec3{X: x, Y: t.HeightAt(x, z), Z: z}
}

// AddBuilding places a box with footprint (x,z,w,d) rising h above the
// highest ground under it. The base sinks to the lowest ground point so
// there is no gap underneath.
func (t *Terrain) AddBuilding(x, z, w, d, h float64) geom.AABB {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range [][2]float64{{x, z}, {x + w, z}, {x, z + d}, {x + w, z + d}, {x + w/2, z + d/2}} {
		g := t.HeightAt(p[0], p[1])
		lo = math.Min(lo, g)
		hi = math.Max(hi, g)
	}
	box := geom.AABB{
		Min: geom.Vec3{X: x, Y: lo - 1, Z: z},
		Max: geom.Vec3{X: x + w, Y: hi + h, Z: z + d},
	}
	t.buildings = append(t.buildings, box)
	return box
}

// Buildings returns the building boxes.
func (t *Terrain) Buildings() []geom.AABB {
	return t.buildings
}

// GenerateBuildings scatters up to count non-overlapping buildings inside b.
func (t *Terrain) GenerateBuildings(rng *rand.Rand, count int, b drone.Bounds) {
	attempts := 0
	placed := 0
	for placed < count && attempts < count*40 {
		attempts++
		w := 16 + rng.Float64()*48
		d := 16 + rng.Float64()*48
		h := 8 + rng.Float64()*22
		x := b.MinX + rng.Float64()*math.Max(0, b.MaxX-b.MinX-w)
		z := b.MinZ + rng.Float64()*math.Max(0, b.MaxZ-b.MinZ-d)
		if t.overlapsAny(x, z, w, d) {
			continue
		}
		t.AddBuilding(x, z, w, d, h)
		placed++
	}
}

func (t *Terrain) overlapsAny(x, z, w, d float64) bool {
	for _, o := range t.buildings {
		if x-buildingGap < o.Max.X && x+w+buildingGap > o.Min.X &&
			z-buildingGap < o.Max.Z && z+d+buildingGap > o.Min.Z {
			return true
		}
	}
	return false
}

// InsideBuilding reports whether p is inside any building.
func (t *Terrain) InsideBuilding(p geom.Vec3) bool {
	for _, b := range t.buildings {
		if b.Contains(p) {
			return true
		}
	}
	return false
}

// Linecast returns true if a building or the ground blocks the segment a->b.
func (t *Terrain) Linecast(a, b geom.Vec3) bool {
	for _, box := range t.buildings {
		if box.SegmentIntersects(a, b) {
			return true
		}
	}
	if t.cfg.Amplitude == 0 {
		return false
	}
	seg := b.Sub(a)
	steps := int(math.Ceil(seg.Len() / linecastStep))
	for i := 1; i < steps; i++ {
		p := a.Add(seg.Scale(float64(i) / float64(steps)))
		if t.HeightAt(p.X, p.Z) > p.Y+terrainClearance {
			return true
		}
	}
	return false
}

// Move applies displacement d from pos. Vertical motion is applied first and
// stops on the ground or on a roof crossed on the way down. X and Z then move
// separately so a wall only cancels the blocked axis. The result is kept on
// the map; grounded is true when the mover ends up resting on a surface.
func (t *Terrain) Move(pos, d geom.Vec3) (geom.Vec3, bool) {
	next := pos
	next.Y += d.Y
	if floor := t.floorAt(pos.X, pos.Z, pos.Y); next.Y < floor {
		next.Y = floor
	}

	cand := next
	cand.X = clamp(next.X+d.X, 0, t.cfg.Width)
	if !t.solid(t.lifted(cand)) {
		next.X = cand.X
	}

	cand = next
	cand.Z = clamp(next.Z+d.Z, 0, t.cfg.Depth)
	if !t.solid(t.lifted(cand)) {
		next.Z = cand.Z
	}

	floor := t.floorAt(next.X, next.Z, next.Y)
	if next.Y <= floor+groundSkin {
		next.Y = floor
		return next, true
	}
	return next, false
}

// floorAt is the highest surface under (x,z) at or below height y: the
// ground, or a roof the mover is already above.
func (t *Terrain) floorAt(x, z, y float64) float64 {
	floor := t.HeightAt(x, z)
	p := geom.Vec3{X: x, Z: z}
	for _, b := range t.buildings {
		roof := b.Max.Y + roofClearance
		if roof > floor && roof <= y+groundSkin && b.ContainsXZ(p) {
			floor = roof
		}
	}
	return floor
}

// solid reports whether p is inside a building below its roof line.
func (t *Terrain) solid(p geom.Vec3) bool {
	for _, b := range t.buildings {
		if b.ContainsXZ(p) && p.Y >= b.Min.Y && p.Y < b.Max.Y+roofClearance {
			return true
		}
	}
	return false
}

// lifted keeps a candidate position at least at ground height so sinking below the
// surface never tunnels under a wall.
func (t *Terrain) lifted(p geom.Vec3) geom.Vec3 {
	if g := t.HeightAt(p.X, p.Z); p.Y < g {
		p.Y = g
	}
	return p
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

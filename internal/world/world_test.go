package world

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/Garsondee/Drone-Sense/internal/drone"
	"github.com/Garsondee/Drone-Sense/internal/geom"
)

func flatTerrain() *Terrain {
	return NewTerrain(TerrainConfig{Width: 1145, Depth: 750})
}

func TestNoise_Range(t *testing.T) {
	for i := 0; i < 500; i++ {
		x := float64(i) * 0.37
		y := float64(i) * 0.91
		n := fractalNoise(x, y, 99, 4)
		if n < 0 || n > 1 {
			t.Fatalf("noise(%.2f,%.2f)=%.4f outside [0,1]", x, y, n)
		}
	}
	if valueNoise2D(3.2, 7.7, 5) != valueNoise2D(3.2, 7.7, 5) {
		t.Fatal("noise must be deterministic")
	}
}

func TestTerrain_FlatHeight(t *testing.T) {
	tr := flatTerrain()
	if h := tr.HeightAt(500, 300); h != 0 {
		t.Fatalf("flat height=%.3f want 0", h)
	}
}

func TestTerrain_HeightWithinAmplitude(t *testing.T) {
	cfg := DefaultTerrainConfig()
	tr := NewTerrain(cfg)
	for x := 0.0; x <= cfg.Width; x += 37 {
		for z := 0.0; z <= cfg.Depth; z += 29 {
			h := tr.HeightAt(x, z)
			if h < 0 || h > cfg.Amplitude {
				t.Fatalf("height(%.0f,%.0f)=%.3f outside [0,%.1f]", x, z, h, cfg.Amplitude)
			}
		}
	}
}

func TestTerrain_BuildingBlocksLinecast(t *testing.T) {
	tr := flatTerrain()
	tr.AddBuilding(110, 110, 10, 10, 20)

	a := geom.Vec3{X: 100, Z: 115}
	b := geom.Vec3{X: 140, Z: 115}
	if !tr.Linecast(a, b) {
		t.Fatal("trace through building should be blocked")
	}
	c := geom.Vec3{X: 100, Z: 150}
	d := geom.Vec3{X: 140, Z: 150}
	if tr.Linecast(c, d) {
		t.Fatal("trace beside building should be clear")
	}
}

func TestTerrain_HillBlocksLinecast(t *testing.T) {
	tr := NewTerrain(TerrainConfig{Width: 1000, Depth: 1000, Amplitude: 50, Scale: 0.01, Octaves: 2, Seed: 3})
	// Find a sample pair with a ridge between them.
	blocked := false
	for x := 10.0; x < 900 && !blocked; x += 40 {
		a := tr.GroundPoint(x, 500)
		b := tr.GroundPoint(x+80, 500)
		mid := tr.HeightAt(x+40, 500)
		lineMid := (a.Y + b.Y) / 2
		if mid > lineMid+2 {
			if !tr.Linecast(a, b) {
				t.Fatalf("ground at %.1f rises above trace %.1f but not blocked", mid, lineMid)
			}
			blocked = true
		}
	}
	if !blocked {
		t.Skip("no ridge found for this seed")
	}
}

func TestTerrain_MoveClampsToGround(t *testing.T) {
	tr := flatTerrain()
	pos, grounded := tr.Move(geom.Vec3{X: 100, Y: 2, Z: 100}, geom.Vec3{X: 1, Y: -5, Z: 1})
	if !grounded {
		t.Fatal("expected grounded after falling through the floor")
	}
	if pos.Y != 0 || pos.X != 101 || pos.Z != 101 {
		t.Fatalf("pos=%+v", pos)
	}

	pos, grounded = tr.Move(geom.Vec3{X: 100, Y: 10, Z: 100}, geom.Vec3{Y: -1})
	if grounded || pos.Y != 9 {
		t.Fatalf("airborne move: pos=%+v grounded=%v", pos, grounded)
	}
}

func TestTerrain_MoveBlockedByWallSlides(t *testing.T) {
	tr := flatTerrain()
	tr.AddBuilding(110, 0, 20, 200, 20)

	start := geom.Vec3{X: 109.5, Z: 50}
	pos, _ := tr.Move(start, geom.Vec3{X: 1, Y: -0.1, Z: 2})
	if pos.X != start.X {
		t.Fatalf("x should be blocked by the wall: %.2f", pos.X)
	}
	if pos.Z != 52 {
		t.Fatalf("z should slide along the wall: %.2f", pos.Z)
	}
}

func TestTerrain_MoveLandsOnRoof(t *testing.T) {
	tr := flatTerrain()
	box := tr.AddBuilding(100, 100, 60, 60, 10)

	pos, grounded := tr.Move(geom.Vec3{X: 130, Y: 20, Z: 130}, geom.Vec3{Y: -15})
	if !grounded {
		t.Fatalf("drone falling onto a roof should be grounded, pos=%+v", pos)
	}
	if pos.Y < box.Max.Y || pos.Y > box.Max.Y+0.1 {
		t.Fatalf("landed at y=%.3f, want just above roof %.3f", pos.Y, box.Max.Y)
	}
	if tr.InsideBuilding(pos) {
		t.Fatalf("landed inside the building at %+v", pos)
	}

	// Walking on the roof keeps it grounded and free to move.
	moved, grounded := tr.Move(pos, geom.Vec3{X: 2, Y: -0.4, Z: 1})
	if !grounded || moved.X != pos.X+2 || moved.Z != pos.Z+1 || moved.Y != pos.Y {
		t.Fatalf("roof walk from %+v gave %+v grounded=%v", pos, moved, grounded)
	}

	// Stepping off the edge leaves it airborne above the ground.
	edge := geom.Vec3{X: 159, Y: pos.Y, Z: 130}
	off, grounded := tr.Move(edge, geom.Vec3{X: 2, Y: -0.4})
	if grounded || off.X != 161 {
		t.Fatalf("step off the roof gave %+v grounded=%v", off, grounded)
	}
}

func TestTerrain_MoveRoofBelowOnlyWhenAbove(t *testing.T) {
	tr := flatTerrain()
	tr.AddBuilding(100, 100, 60, 60, 10)
	// Beside the building at ground level the roof is not a floor.
	pos, grounded := tr.Move(geom.Vec3{X: 90, Y: 1, Z: 130}, geom.Vec3{Y: -2})
	if !grounded || pos.Y != 0 {
		t.Fatalf("pos=%+v grounded=%v, want ground", pos, grounded)
	}
}

func TestTerrain_MoveStaysOnMap(t *testing.T) {
	tr := flatTerrain()
	pos, _ := tr.Move(geom.Vec3{X: 1, Z: 749}, geom.Vec3{X: -10, Z: 10})
	if pos.X != 0 || pos.Z != 750 {
		t.Fatalf("pos=%+v not clamped to the map", pos)
	}
}

func TestTerrain_GenerateBuildingsNoOverlap(t *testing.T) {
	tr := flatTerrain()
	rng := rand.New(rand.NewSource(8)) // #nosec G404 -- test
	tr.GenerateBuildings(rng, 12, drone.DefaultBounds())
	bs := tr.Buildings()
	if len(bs) == 0 {
		t.Fatal("no buildings generated")
	}
	for i := range bs {
		for j := i + 1; j < len(bs); j++ {
			a, b := bs[i], bs[j]
			if a.Min.X < b.Max.X && a.Max.X > b.Min.X && a.Min.Z < b.Max.Z && a.Max.Z > b.Min.Z {
				t.Fatalf("buildings %d and %d overlap", i, j)
			}
		}
	}
}

func TestSpawnSoldiers_AvoidsBuildings(t *testing.T) {
	tr := flatTerrain()
	rng := rand.New(rand.NewSource(4)) // #nosec G404 -- test
	b := drone.DefaultBounds()
	tr.GenerateBuildings(rng, 10, b)
	soldiers := SpawnSoldiers(tr, rng, 30, b)
	if len(soldiers) != 30 {
		t.Fatalf("spawned %d want 30", len(soldiers))
	}
	for _, s := range soldiers {
		if tr.InsideBuilding(s.Position) {
			t.Fatalf("%s spawned inside a building", s.Label)
		}
		if !b.ContainsXZ(s.Position.X, s.Position.Z) {
			t.Fatalf("%s spawned out of bounds", s.Label)
		}
	}
}

func TestRegistry_MarkFoundOnce(t *testing.T) {
	a := NewSoldier("S0", geom.Vec3{X: 1})
	b := NewSoldier("S1", geom.Vec3{X: 2})
	r := NewRegistry(a, b)

	if got := len(r.Candidates()); got != 2 {
		t.Fatalf("candidates=%d want 2", got)
	}
	if !r.MarkFound(a.ID, "D0", 7) {
		t.Fatal("first MarkFound should succeed")
	}
	if r.MarkFound(a.ID, "D1", 8) {
		t.Fatal("second MarkFound should fail")
	}
	if r.MarkFound("nope", "D0", 1) {
		t.Fatal("unknown id should fail")
	}
	if r.FoundCount() != 1 {
		t.Fatalf("found count=%d want 1", r.FoundCount())
	}
	s, _ := r.Soldier(a.ID)
	if s.Status != drone.StatusFound || s.FoundBy != "D0" || s.FoundTick != 7 {
		t.Fatalf("soldier not updated: %+v", s)
	}
	missing := r.Missing()
	if len(missing) != 1 || missing[0].ID != b.ID {
		t.Fatalf("missing=%+v", missing)
	}
	found := r.Found()
	if len(found) != 1 || found[0].ID != a.ID {
		t.Fatalf("found=%+v", found)
	}
	if c := r.Candidates(); len(c) != 1 || c[0].ID != b.ID {
		t.Fatalf("candidates after find=%+v", c)
	}
}

func TestRegistry_ConcurrentMarkFound(t *testing.T) {
	const n = 40
	soldiers := make([]*Soldier, n)
	for i := range soldiers {
		soldiers[i] = NewSoldier("S", geom.Vec3{X: float64(i)})
	}
	r := NewRegistry(soldiers...)

	var mu sync.Mutex
	wins := map[string]int{}
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, s := range soldiers {
				if r.MarkFound(s.ID, "D", 1) {
					mu.Lock()
					wins[s.ID]++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if r.FoundCount() != n {
		t.Fatalf("found count=%d want %d", r.FoundCount(), n)
	}
	for id, w := range wins {
		if w != 1 {
			t.Fatalf("%s won %d times", id, w)
		}
	}
	if len(wins) != n || len(r.Missing()) != 0 || len(r.Found()) != n {
		t.Fatalf("lists out of sync: wins=%d missing=%d found=%d", len(wins), len(r.Missing()), len(r.Found()))
	}
}

func TestRegistry_AddDuplicateIgnored(t *testing.T) {
	s := NewSoldier("S0", geom.Vec3{})
	r := NewRegistry(s, s)
	if r.Len() != 1 {
		t.Fatalf("len=%d want 1", r.Len())
	}
}

func TestWorld_SatisfiesDroneInterfaces(t *testing.T) {
	var _ drone.Mover = (*Terrain)(nil)
	var _ drone.Occluder = (*Terrain)(nil)
	var _ drone.Registry = (*Registry)(nil)
}

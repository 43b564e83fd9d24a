package drone

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Garsondee/Drone-Sense/internal/geom"
)

func approxEqual(t *testing.T, got, want, tol float64, field string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s = %.8f, want %.8f (tol=%.8f)", field, got, want, tol)
	}
}

func newSeededNavigator(seed int64, spawn geom.Vec3) *Navigator {
	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- test
	return NewNavigator(spawn, DefaultParams(), DefaultBounds(), StrategyRandom, rng)
}

// patrolling returns a navigator already past takeoff and moving at full speed.
func patrolling(seed int64, pos geom.Vec3) *Navigator {
	n := newSeededNavigator(seed, pos)
	n.initial = false
	n.velocity = FlyingSpeed
	return n
}

func inBounds(b Bounds, p geom.Vec3) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Z >= b.MinZ && p.Z <= b.MaxZ
}

func TestNavigator_InitialOffset(t *testing.T) {
	spawn := geom.Vec3{X: 500, Y: 40, Z: 300}
	n := newSeededNavigator(7, spawn)

	if !n.Initial() {
		t.Fatal("navigator should start in takeoff")
	}
	if a := n.TakeoffAngle(); a < 0 || a >= 360 {
		t.Fatalf("takeoff angle %.3f outside [0,360)", a)
	}
	approxEqual(t, n.TakeoffLength(), InitialRadius, 1e-9, "initial length")

	xo, zo := n.TakeoffOffset()
	d := n.Destination()
	approxEqual(t, d.X, spawn.X+xo, 1e-9, "dest.x")
	approxEqual(t, d.Z, spawn.Z+zo, 1e-9, "dest.z")
	approxEqual(t, d.Y, spawn.Y, 1e-9, "dest.y")
}

func TestNavigator_TakeoffTracksOffsetUntilGrounded(t *testing.T) {
	n := newSeededNavigator(3, geom.Vec3{X: 200, Y: 50, Z: 200})
	xo, zo := n.TakeoffOffset()

	for i := 0; i < 5; i++ {
		pos := geom.Vec3{X: 200 + float64(i)*3, Y: 50 - float64(i), Z: 200 - float64(i)*2}
		res := n.Plan(pos, false)
		if res.TakeoffComplete {
			t.Fatalf("tick %d: takeoff completed while airborne", i)
		}
		if res.Reroute != RerouteNone {
			t.Fatalf("tick %d: reroute %s during takeoff", i, res.Reroute)
		}
		d := n.Destination()
		approxEqual(t, d.X, pos.X+xo, 1e-9, "dest.x")
		approxEqual(t, d.Z, pos.Z+zo, 1e-9, "dest.z")
		approxEqual(t, d.Y, pos.Y, 1e-9, "dest.y")
	}
	if !n.Initial() {
		t.Fatal("initial cleared without a grounded report")
	}
}

func TestNavigator_TakeoffEndsExactlyOnce(t *testing.T) {
	n := newSeededNavigator(11, geom.Vec3{X: 300, Y: 20, Z: 300})
	pos := geom.Vec3{X: 305, Y: 0, Z: 302}

	before := n.Destination()
	res := n.Plan(pos, true)
	if !res.TakeoffComplete {
		t.Fatal("expected takeoff to complete on first grounded tick")
	}
	if n.Initial() {
		t.Fatal("initial should be false after grounding")
	}
	// The grounding tick does not re-anchor the destination.
	approxEqual(t, n.Destination().X, before.X, 1e-9, "dest.x")

	for i := 0; i < 10; i++ {
		if n.Plan(pos, i%2 == 0).TakeoffComplete {
			t.Fatalf("takeoff completed again on tick %d", i)
		}
	}
}

func TestNavigator_ArrivalSelectsDestinationInBounds(t *testing.T) {
	b := DefaultBounds()
	for seed := int64(1); seed <= 50; seed++ {
		pos := geom.Vec3{X: 400, Y: 12, Z: 400}
		n := patrolling(seed, pos)
		n.destination = geom.Vec3{X: 400.5, Y: 99, Z: 400.2}

		res := n.Plan(pos, true)
		if res.Reroute != RerouteArrival {
			t.Fatalf("seed %d: reroute=%s want arrival", seed, res.Reroute)
		}
		if !inBounds(b, res.Destination) {
			t.Fatalf("seed %d: destination %+v outside bounds", seed, res.Destination)
		}
		if res.Destination.Y != 0 {
			t.Fatalf("seed %d: new destination y=%.2f want 0", seed, res.Destination.Y)
		}
	}
}

func TestNavigator_DestinationEqualsPosition(t *testing.T) {
	pos := geom.Vec3{X: 100, Y: 0, Z: 100}
	n := patrolling(5, pos)
	n.destination = pos

	move, res := n.Tick(pos, true, 1.0/60)
	if res.Reroute != RerouteArrival {
		t.Fatalf("reroute=%s want arrival", res.Reroute)
	}
	if !inBounds(DefaultBounds(), n.Destination()) {
		t.Fatalf("destination %+v outside bounds", n.Destination())
	}
	if move.IsNaN() {
		t.Fatalf("move is NaN: %+v", move)
	}
}

func TestNavigator_StallSelectsDestination(t *testing.T) {
	pos := geom.Vec3{X: 400, Y: 0, Z: 400}
	n := patrolling(9, pos)
	far := geom.Vec3{X: 900, Y: 0, Z: 600}
	n.destination = far
	n.velocity = 0.5

	res := n.Plan(pos, true)
	if res.Reroute != RerouteStall {
		t.Fatalf("reroute=%s want stall", res.Reroute)
	}
	if res.Destination == far {
		t.Fatal("stall should have replaced the destination")
	}
	if !inBounds(DefaultBounds(), res.Destination) {
		t.Fatalf("destination %+v outside bounds", res.Destination)
	}
	_, stalls, _ := n.Counts()
	if stalls != 1 {
		t.Fatalf("stalls=%d want 1", stalls)
	}
}

func TestNavigator_KeepsDestinationWhileMoving(t *testing.T) {
	pos := geom.Vec3{X: 400, Y: 7, Z: 400}
	n := patrolling(2, pos)
	n.destination = geom.Vec3{X: 900, Y: 0, Z: 600}

	res := n.Plan(pos, true)
	if res.Reroute != RerouteNone {
		t.Fatalf("reroute=%s want none", res.Reroute)
	}
	want := geom.Vec3{X: 900, Y: 7, Z: 600}
	if n.Destination() != want {
		t.Fatalf("destination=%+v want %+v (height resynced)", n.Destination(), want)
	}
}

func TestNavigator_SpreadOutDefers(t *testing.T) {
	pos := geom.Vec3{X: 400, Y: 0, Z: 400}
	n := patrolling(4, pos)
	n.strategy = StrategySpreadOut
	n.destination = pos

	res := n.Plan(pos, true)
	if res.Reroute != RerouteArrival {
		t.Fatalf("reroute=%s want arrival", res.Reroute)
	}
	if !res.Deferred {
		t.Fatal("spread_out should defer the reroute")
	}
	if n.Destination() != pos {
		t.Fatalf("destination changed to %+v under spread_out", n.Destination())
	}
	_, _, deferrals := n.Counts()
	if deferrals != 1 {
		t.Fatalf("deferrals=%d want 1", deferrals)
	}
}

func TestNavigator_SteerTowardDestination(t *testing.T) {
	n := patrolling(1, geom.Vec3{})
	n.destination = geom.Vec3{Z: 10}

	move, fwd, ok := n.Steer(geom.Vec3{}, 0.1)
	if !ok {
		t.Fatal("expected a facing")
	}
	approxEqual(t, fwd.Z, 1, 1e-12, "forward.z")
	approxEqual(t, move.X, 0, 1e-12, "move.x")
	approxEqual(t, move.Z, FlyingSpeed*0.1, 1e-12, "move.z")
	approxEqual(t, move.Y, -Gravity*0.1, 1e-12, "move.y")
}

func TestNavigator_SteerZeroLengthAppliesGravityOnly(t *testing.T) {
	pos := geom.Vec3{X: 50, Y: 3, Z: 50}
	n := patrolling(1, pos)
	n.destination = pos

	move, _, ok := n.Steer(pos, 0.5)
	if ok {
		t.Fatal("zero-length steering should report no facing")
	}
	approxEqual(t, move.X, 0, 0, "move.x")
	approxEqual(t, move.Z, 0, 0, "move.z")
	approxEqual(t, move.Y, -Gravity*0.5, 1e-12, "move.y")
}

func TestNavigator_ObserveVelocity(t *testing.T) {
	n := patrolling(1, geom.Vec3{})
	n.Observe(geom.Vec3{}, geom.Vec3{X: 3, Z: 4}, 0.5)
	approxEqual(t, n.Velocity(), 10, 1e-12, "velocity")

	n.Observe(geom.Vec3{}, geom.Vec3{X: 30}, 0)
	approxEqual(t, n.Velocity(), 10, 1e-12, "velocity after dt=0")
}

func TestNavigator_SeededSelectionIsDeterministic(t *testing.T) {
	pos := geom.Vec3{X: 400, Y: 0, Z: 400}
	a := patrolling(42, pos)
	b := patrolling(42, pos)
	for i := 0; i < 20; i++ {
		a.destination = pos
		b.destination = pos
		ra := a.Plan(pos, true)
		rb := b.Plan(pos, true)
		if ra.Destination != rb.Destination {
			t.Fatalf("step %d: %+v != %+v", i, ra.Destination, rb.Destination)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"random", StrategyRandom, false},
		{"", StrategyRandom, false},
		{"SPREAD_OUT", StrategySpreadOut, false},
		{"spread-out", StrategySpreadOut, false},
		{"zigzag", StrategyRandom, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStrategy(%q) err=%v wantErr=%v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ParseStrategy(%q)=%s want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestBounds_ContainsXZ(t *testing.T) {
	b := DefaultBounds()
	if !b.ContainsXZ(75, 50) || !b.ContainsXZ(1070, 700) {
		t.Fatal("bounds should include their corners")
	}
	if b.ContainsXZ(74, 300) || b.ContainsXZ(500, 701) {
		t.Fatal("points outside should be rejected")
	}
}

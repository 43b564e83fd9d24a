package sim

import (
	"fmt"
	"strings"

	"github.com/Garsondee/Drone-Sense/internal/geom"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// DroneSummary is per-drone bookkeeping at the end of a run.
type DroneSummary struct {
	Label     string
	Found     int
	Arrivals  int
	Stalls    int
	Deferrals int
	Distance  float64 // planar length of the sampled track
	Position  geom.Vec3
}

// Summary is the state of a run at one tick.
type Summary struct {
	Seed       int64
	Tick       int
	Found      int
	Total      int
	FirstFound int // tick of the first find, -1 if none
	Takeoffs   int
	Arrivals   int
	Stalls     int
	Deferrals  int
	Drones     []DroneSummary
}

// Summary collects counters from the registry and every navigator.
func (s *Sim) Summary() Summary {
	sum := Summary{
		Seed:       s.seed,
		Tick:       s.Tick,
		Found:      s.Registry.FoundCount(),
		Total:      s.Registry.Len(),
		FirstFound: s.firstFound,
		Takeoffs:   s.takeoffs,
	}
	for i, d := range s.Drones {
		a, st, df := d.Navigator().Counts()
		sum.Arrivals += a
		sum.Stalls += st
		sum.Deferrals += df
		sum.Drones = append(sum.Drones, DroneSummary{
			Label:     d.Label,
			Found:     d.FoundCount(),
			Arrivals:  a,
			Stalls:    st,
			Deferrals: df,
			Distance:  planar.Length(trackLine(s.Track(i))),
			Position:  d.Position(),
		})
	}
	return sum
}

// FoundRatio is Found/Total, or 0 for an empty world.
func (sum Summary) FoundRatio() float64 {
	if sum.Total == 0 {
		return 0
	}
	return float64(sum.Found) / float64(sum.Total)
}

// String formats the summary for logs and the clipboard.
func (sum Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Summary at T=%04d (seed %d) ---\n", sum.Tick, sum.Seed)
	fmt.Fprintf(&sb, "Found: %d/%d (%.0f%%)", sum.Found, sum.Total, sum.FoundRatio()*100)
	if sum.FirstFound >= 0 {
		fmt.Fprintf(&sb, "  first at T=%d", sum.FirstFound)
	}
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "Reroutes: arrival=%d stall=%d deferred=%d\n", sum.Arrivals, sum.Stalls, sum.Deferrals)
	for _, d := range sum.Drones {
		fmt.Fprintf(&sb, "%-4s found=%-3d arrivals=%-3d stalls=%-3d travelled=%.0f\n",
			d.Label, d.Found, d.Arrivals, d.Stalls, d.Distance)
	}
	return sb.String()
}

// trackLine projects a track onto the X/Z plane.
func trackLine(track []geom.Vec3) orb.LineString {
	ls := make(orb.LineString, 0, len(track))
	for _, p := range track {
		ls = append(ls, orb.Point{p.X, p.Z})
	}
	return ls
}

package sim

import (
	"fmt"
	"math/rand"

	"github.com/Garsondee/Drone-Sense/internal/drone"
	"github.com/Garsondee/Drone-Sense/internal/geom"
	"github.com/Garsondee/Drone-Sense/internal/world"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Sim owns one world: terrain, soldiers and the drones hunting them. Step
// advances every drone by one fixed tick.
type Sim struct {
	Terrain  *world.Terrain
	Registry *world.Registry
	Drones   []*drone.Drone
	Log      *Log
	Tick     int

	telemetry drone.Telemetry
	logger    *log.Logger
	parallel  bool
	rng       *rand.Rand
	seed      int64

	droneOpts   drone.Options
	terrainCfg  world.TerrainConfig
	spawnHeight float64
	trackEvery  int
	tracks      [][]geom.Vec3
	reports     []drone.TickReport

	firstFound int
	takeoffs   int
}

// Step advances the simulation by dt seconds. With parallel ticking drones
// run concurrently; the registry decides which of them gets each find.
// A panicking drone is reported as an error.
func (s *Sim) Step(dt float64) error {
	s.Tick++
	env := drone.Env{
		Tick:      s.Tick,
		Mover:     s.Terrain,
		Registry:  s.Registry,
		Telemetry: s.telemetry,
	}
	if len(s.reports) != len(s.Drones) {
		s.reports = make([]drone.TickReport, len(s.Drones))
	}

	if s.parallel && len(s.Drones) > 1 {
		var g errgroup.Group
		for i, d := range s.Drones {
			g.Go(func() error {
				return tickDrone(d, env, dt, &s.reports[i])
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	} else {
		for i, d := range s.Drones {
			if err := tickDrone(d, env, dt, &s.reports[i]); err != nil {
				return err
			}
		}
	}

	for i, d := range s.Drones {
		s.record(d, i, s.reports[i])
	}
	return nil
}

func tickDrone(d *drone.Drone, env drone.Env, dt float64, out *drone.TickReport) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("drone %s tick %d: %v", d.Label, env.Tick, r)
		}
	}()
	*out = d.Tick(env, dt)
	return nil
}

// record turns a tick report into log entries and track samples.
func (s *Sim) record(d *drone.Drone, idx int, rep drone.TickReport) {
	p := rep.Plan
	if p.TakeoffComplete {
		s.takeoffs++
		s.Log.Add(s.Tick, d.Label, CatNav, "takeoff_complete", fmtXZ(rep.From), 0)
		s.logger.Debug("takeoff complete", "drone", d.Label, "tick", s.Tick)
	}
	switch {
	case p.Reroute != drone.RerouteNone && p.Deferred:
		s.Log.Add(s.Tick, d.Label, CatNav, "reroute_deferred", p.Reroute.String(), 0)
	case p.Reroute != drone.RerouteNone:
		s.Log.Add(s.Tick, d.Label, CatNav, "reroute",
			fmt.Sprintf("%s → %s", p.Reroute, fmtXZ(p.Destination)), rep.Velocity)
	}

	for _, det := range rep.Detections {
		if s.firstFound < 0 {
			s.firstFound = s.Tick
		}
		s.Log.Add(s.Tick, d.Label, CatVision, "found",
			fmt.Sprintf("%s at %.1fm (%.1f°)", det.Target, det.Distance, det.Angle), det.Distance)
		s.logger.Info("soldier found",
			"drone", d.Label, "target", det.Target, "tick", s.Tick,
			"distance", fmt.Sprintf("%.1f", det.Distance),
			"found", s.Registry.FoundCount(), "total", s.Registry.Len())
	}

	s.Log.AddVerbose(s.Tick, d.Label, CatMove, "position", fmtXZ(rep.To), rep.To.Y)
	s.Log.AddVerbose(s.Tick, d.Label, CatMove, "velocity", fmt.Sprintf("%.2f", rep.Velocity), rep.Velocity)
	s.Log.AddVerbose(s.Tick, d.Label, CatMove, "heading", fmt.Sprintf("yaw=%.1f pitch=%.1f", rep.Yaw, rep.Pitch), rep.Yaw)

	if s.trackEvery > 0 && (s.Tick%s.trackEvery == 0 || p.Reroute != drone.RerouteNone) {
		s.tracks[idx] = append(s.tracks[idx], rep.To)
	}
}

// RunTicks advances n ticks of dt seconds.
func (s *Sim) RunTicks(n int, dt float64) error {
	for i := 0; i < n; i++ {
		if err := s.Step(dt); err != nil {
			return err
		}
	}
	return nil
}

// RunUntil advances up to maxTicks, stopping once pred holds. It returns the
// tick at which pred was satisfied, or -1.
func (s *Sim) RunUntil(pred func(*Sim) bool, maxTicks int, dt float64) (int, error) {
	for i := 0; i < maxTicks; i++ {
		if err := s.Step(dt); err != nil {
			return -1, err
		}
		if pred(s) {
			return s.Tick, nil
		}
	}
	return -1, nil
}

// AllFound reports whether every soldier has been found.
func (s *Sim) AllFound() bool {
	return s.Registry.FoundCount() == s.Registry.Len()
}

// Reports returns the per-drone reports of the last Step, indexed like Drones.
func (s *Sim) Reports() []drone.TickReport { return s.reports }

// Track returns the sampled path of drone i.
func (s *Sim) Track(i int) []geom.Vec3 {
	if i < 0 || i >= len(s.tracks) {
		return nil
	}
	return s.tracks[i]
}

func (s *Sim) Seed() int64 { return s.seed }

// Drone looks a drone up by label.
func (s *Sim) Drone(label string) *drone.Drone {
	for _, d := range s.Drones {
		if d.Label == label {
			return d
		}
	}
	return nil
}

func fmtXZ(p geom.Vec3) string {
	return fmt.Sprintf("(%.0f,%.0f)", p.X, p.Z)
}

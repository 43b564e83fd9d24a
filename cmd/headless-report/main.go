package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Garsondee/Drone-Sense/internal/config"
	"github.com/Garsondee/Drone-Sense/internal/drone"
	"github.com/Garsondee/Drone-Sense/internal/logger"
	"github.com/Garsondee/Drone-Sense/internal/sim"
	"github.com/Garsondee/Drone-Sense/internal/telemetry"
	"github.com/charmbracelet/log"
)

type runStats struct {
	runIndex int
	seed     int64
	ticks    int

	found      int
	total      int
	firstFound int
	lastFound  int
	takeoffs   int

	reroutes  map[string]int // by reason
	deferrals int
	byDrone   map[string]int
	unseen    map[string]struct{}
}

type options struct {
	runs     int
	ticks    int
	seedBase int64
	seedStep int64
	parallel bool
	untilAll bool
	csvPath  string
	geoJSON  string
	serve    string
}

func main() {
	var o options
	var cfgPath string

	flag.IntVar(&o.runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&o.ticks, "ticks", 0, "ticks per run (0 uses sim.ticks from the config)")
	flag.Int64Var(&o.seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&o.seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&cfgPath, "config", "", "YAML config file")
	flag.BoolVar(&o.parallel, "parallel", false, "tick drones concurrently")
	flag.BoolVar(&o.untilAll, "until-found", false, "stop a run early once every soldier is found")
	flag.StringVar(&o.csvPath, "csv", "", "write found events to this CSV file")
	flag.StringVar(&o.geoJSON, "geojson", "", "write each run's world as GeoJSON; run N goes to <name>-N<ext>")
	flag.StringVar(&o.serve, "serve", "", "stream found events over websocket on this address, e.g. :8080")
	flag.Parse()

	cfg, err := setup(cfgPath, &o)
	if err != nil {
		logger.L().Error("invalid arguments", "err", err)
		os.Exit(1)
	}
	logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	if err := run(cfg, o); err != nil {
		logger.L().Error("report failed", "err", err)
		os.Exit(1)
	}
}

// setup loads the config and checks the flags against it. A zero -ticks
// takes sim.ticks from the config.
func setup(cfgPath string, o *options) (*config.Config, error) {
	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.ticks == 0 {
		o.ticks = cfg.Sim.Ticks
	}
	if o.runs <= 0 {
		return nil, fmt.Errorf("-runs must be > 0, got %d", o.runs)
	}
	if o.ticks <= 0 {
		return nil, fmt.Errorf("-ticks must be > 0, got %d", o.ticks)
	}
	if o.parallel {
		cfg.Sim.Parallel = true
	}
	return cfg, nil
}

func run(cfg *config.Config, o options) error {
	l := logger.L()

	var csvFile *os.File
	if o.csvPath != "" {
		f, err := os.Create(o.csvPath)
		if err != nil {
			return fmt.Errorf("create csv: %w", err)
		}
		defer f.Close()
		csvFile = f
	}

	var hub *telemetry.Hub
	if o.serve != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		hub = telemetry.NewHub(l)
		go hub.Run(ctx)
		srv := &http.Server{Addr: o.serve, Handler: hub, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Error("telemetry server", "err", err)
			}
		}()
		defer srv.Close()
		l.Info("telemetry listening", "addr", o.serve)
	}

	fmt.Printf("=== Headless Search Report ===\n")
	fmt.Printf("runs=%d ticks=%d seed_base=%d seed_step=%d drones=%d soldiers=%d strategy=%s parallel=%t\n\n",
		o.runs, o.ticks, o.seedBase, o.seedStep, cfg.Drone.Count, cfg.Soldiers.Count, cfg.Drone.Strategy, cfg.Sim.Parallel)

	// One CSV across runs; the header is written once.
	var stats *telemetry.Stats
	if csvFile != nil {
		stats = telemetry.NewStats(csvFile)
	}

	all := make([]runStats, 0, o.runs)
	for i := 0; i < o.runs; i++ {
		seed := o.seedBase + int64(i)*o.seedStep
		rs, err := runOnce(cfg, o, i+1, seed, stats, hub, l)
		if err != nil {
			return err
		}
		all = append(all, rs)
		printRun(rs)
	}
	printAggregate(all)

	if hub != nil && !hub.Flush(2*time.Second) {
		l.Warn("telemetry subscribers did not drain before shutdown")
	}
	if stats != nil {
		if err := stats.Flush(); err != nil {
			return fmt.Errorf("flush csv: %w", err)
		}
	}
	return nil
}

func runOnce(base *config.Config, o options, runIndex int, seed int64, stats *telemetry.Stats, hub *telemetry.Hub, l *log.Logger) (runStats, error) {
	cfg := *base
	cfg.Sim.Seed = seed

	runStatsSink := telemetry.NewStats(nil)
	sinks := telemetry.Multi{runStatsSink}
	if stats != nil {
		sinks = append(sinks, stats)
	}
	if hub != nil {
		sinks = append(sinks, hub)
	}

	s, err := sim.FromConfig(&cfg, sim.WithLogger(l.With("run", runIndex)), sim.WithTelemetry(sinks))
	if err != nil {
		return runStats{}, err
	}

	if o.untilAll {
		_, err = s.RunUntil((*sim.Sim).AllFound, o.ticks, cfg.DT())
	} else {
		err = s.RunTicks(o.ticks, cfg.DT())
	}
	if err != nil {
		return runStats{}, fmt.Errorf("run %d (seed %d): %w", runIndex, seed, err)
	}

	if o.geoJSON != "" {
		if err := s.WriteGeoJSON(runPath(o.geoJSON, runIndex, o.runs)); err != nil {
			return runStats{}, err
		}
	}

	sum := s.Summary()
	if hub != nil {
		hub.Publish(telemetry.NewSummaryEvent(seed, sum.Tick, sum.Found, sum.Total, sum.FirstFound))
	}

	entries := s.Log.Entries()
	unseen := map[string]struct{}{}
	for _, sol := range s.Registry.Missing() {
		unseen[sol.Label] = struct{}{}
	}
	return runStats{
		runIndex:   runIndex,
		seed:       seed,
		ticks:      sum.Tick,
		found:      sum.Found,
		total:      sum.Total,
		firstFound: firstTick(entries, sim.CatVision, "found", ""),
		lastFound:  runStatsSink.LastTick(),
		takeoffs:   s.Log.CountCategory(sim.CatNav, "takeoff_complete"),
		reroutes:   reroutesByReason(entries),
		deferrals:  s.Log.CountCategory(sim.CatNav, "reroute_deferred"),
		byDrone:    runStatsSink.ByDrone(),
		unseen:     unseen,
	}, nil
}

// runPath inserts the run index before the extension when there are
// several runs.
func runPath(path string, runIndex, runs int) string {
	if runs <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), runIndex, ext)
}

func firstTick(entries []sim.LogEntry, category, key, contains string) int {
	for _, e := range entries {
		if e.Category != category || e.Key != key {
			continue
		}
		if contains == "" || strings.Contains(e.Value, contains) {
			return e.Tick
		}
	}
	return -1
}

// reroutesByReason counts nav/reroute entries by their leading reason.
func reroutesByReason(entries []sim.LogEntry) map[string]int {
	out := map[string]int{}
	for _, e := range entries {
		if e.Category != sim.CatNav || e.Key != "reroute" {
			continue
		}
		reason, _, _ := strings.Cut(e.Value, " ")
		out[reason]++
	}
	return out
}

func printRun(rs runStats) {
	fmt.Printf("--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Printf("found=%d/%d ticks=%d first_found=%d last_found=%d takeoffs=%d\n",
		rs.found, rs.total, rs.ticks, rs.firstFound, rs.lastFound, rs.takeoffs)
	fmt.Printf("reroutes: %s=%d %s=%d deferred=%d\n",
		drone.RerouteArrival, rs.reroutes[drone.RerouteArrival.String()],
		drone.RerouteStall, rs.reroutes[drone.RerouteStall.String()],
		rs.deferrals)
	fmt.Printf("finds_by_drone: %s\n", joinCounts(rs.byDrone))
	fmt.Printf("unseen: %s\n", joinSet(rs.unseen))
	fmt.Println()
}

func printAggregate(all []runStats) {
	totalFound := 0
	totalSoldiers := 0
	totalArrivals := 0
	totalStalls := 0
	totalDeferrals := 0
	completed := 0
	firstTicks := make([]int, 0, len(all))
	lastTicks := make([]int, 0, len(all))
	unseenGlobal := map[string]struct{}{}

	for _, rs := range all {
		totalFound += rs.found
		totalSoldiers += rs.total
		totalArrivals += rs.reroutes[drone.RerouteArrival.String()]
		totalStalls += rs.reroutes[drone.RerouteStall.String()]
		totalDeferrals += rs.deferrals
		if rs.total > 0 && rs.found == rs.total {
			completed++
		}
		if rs.firstFound >= 0 {
			firstTicks = append(firstTicks, rs.firstFound)
		}
		if rs.lastFound >= 0 {
			lastTicks = append(lastTicks, rs.lastFound)
		}
		for label := range rs.unseen {
			unseenGlobal[label] = struct{}{}
		}
	}

	fmt.Println("=== Aggregate ===")
	fmt.Printf("runs=%d completed=%d\n", len(all), completed)
	ratio := 0.0
	if totalSoldiers > 0 {
		ratio = float64(totalFound) / float64(totalSoldiers) * 100
	}
	fmt.Printf("avg_found_per_run=%.1f found_ratio=%.1f%%\n", avg(totalFound, len(all)), ratio)
	fmt.Printf("avg_reroutes_per_run: arrival=%.1f stall=%.1f deferred=%.1f\n",
		avg(totalArrivals, len(all)), avg(totalStalls, len(all)), avg(totalDeferrals, len(all)))
	fmt.Printf("avg_ticks: first_found=%s last_found=%s\n", avgTickString(firstTicks), avgTickString(lastTicks))
	fmt.Printf("ever_unseen_labels=%d [%s]\n", len(unseenGlobal), joinSet(unseenGlobal))
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

func joinSet(s map[string]struct{}) string {
	if len(s) == 0 {
		return "none"
	}
	labels := make([]string, 0, len(s))
	for k := range s {
		labels = append(labels, k)
	}
	sort.Strings(labels)
	return strings.Join(labels, ",")
}

func joinCounts(m map[string]int) string {
	if len(m) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}
	return strings.Join(parts, " ")
}

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/Garsondee/Drone-Sense/internal/config"
	"github.com/Garsondee/Drone-Sense/internal/game"
	"github.com/Garsondee/Drone-Sense/internal/logger"
	"github.com/Garsondee/Drone-Sense/internal/sim"
	"github.com/Garsondee/Drone-Sense/internal/telemetry"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	var cfgPath string
	var seed int64
	flag.StringVar(&cfgPath, "config", "", "YAML config file (defaults apply when empty)")
	flag.Int64Var(&seed, "seed", 0, "override sim.seed when non-zero")
	flag.Parse()

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			logger.L().Fatal("load config", "err", err)
		}
		cfg = loaded
	}
	if seed != 0 {
		cfg.Sim.Seed = seed
	}
	logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	l := logger.L()

	var sinks telemetry.Multi
	var stats *telemetry.Stats
	if cfg.Telemetry.CSV != "" {
		f, err := os.Create(cfg.Telemetry.CSV)
		if err != nil {
			l.Fatal("create csv", "path", cfg.Telemetry.CSV, "err", err)
		}
		defer f.Close()
		stats = telemetry.NewStats(f)
		sinks = append(sinks, stats)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Telemetry.Listen != "" {
		hub := telemetry.NewHub(l)
		go hub.Run(ctx)
		sinks = append(sinks, hub)
		srv := &http.Server{Addr: cfg.Telemetry.Listen, Handler: hub, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			l.Info("telemetry listening", "addr", cfg.Telemetry.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Error("telemetry server", "err", err)
			}
		}()
		defer srv.Close()
	}

	s, err := sim.FromConfig(cfg, sim.WithLogger(l), sim.WithTelemetry(sinks))
	if err != nil {
		l.Fatal("build sim", "err", err)
	}

	g := game.New(s, cfg.DT(), cfg.Sim.Ticks)
	ebiten.SetWindowTitle("Drone Sense")
	ebiten.SetWindowSize(g.WindowSize())
	runErr := ebiten.RunGame(g)

	if stats != nil {
		if err := stats.Flush(); err != nil {
			l.Error("flush csv", "err", err)
		}
	}
	if cfg.Telemetry.GeoJSON != "" {
		if err := s.WriteGeoJSON(cfg.Telemetry.GeoJSON); err != nil {
			l.Error("export geojson", "err", err)
		}
	}
	if runErr != nil {
		l.Fatal("viewer", "err", runErr)
	}
}

package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-boids3d/internal/session"
	"github.com/lao-tseu-is-alive/go-boids3d/pkg/simulation"
)

const (
	screenWidth  = 1280
	screenHeight = 800
	panelWidth   = 280
)

func main() {
	configFile := flag.String("config", "", "configuration file (.json, .yaml, .yml or .toml)")
	debug := flag.Bool("debug", false, "log at debug level")
	headless := flag.Bool("headless", false, "run without a window")
	steps := flag.Int("steps", 600, "number of ticks in headless mode")
	dt := flag.Duration("dt", time.Second/60, "delta-time of one headless tick")
	telemetryFile := flag.String("telemetry", "", "write per-tick statistics to this CSV file")
	flag.Parse()

	ctx := context.Background()

	var logger log.Logger = log.DefaultLogger
	if *debug {
		logger = log.New(log.DebugLevel, os.Stdout)
	}

	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configFile); err != nil {
			logger.Fatalf("failed to load config: %v", err)
		}
	}

	var recorder *simulation.TelemetryRecorder
	if *telemetryFile != "" {
		f, err := os.Create(*telemetryFile)
		if err != nil {
			logger.Fatalf("failed to create telemetry file: %v", err)
		}
		defer f.Close()
		recorder = simulation.NewTelemetryRecorder(f)
	}

	s, err := session.Start(ctx, cfg, session.Options{Recorder: recorder, Logger: logger})
	if err != nil {
		logger.Fatalf("failed to start session: %v", err)
	}
	defer s.Stop(ctx)

	if *headless {
		if err := runHeadless(ctx, s, *steps, *dt, logger); err != nil {
			logger.Error(err)
		}
		return
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle("Boids 3D (actor world, H toggles the panel)")
	if err := ebiten.RunGame(NewGame(ctx, s, cfg, logger)); err != nil {
		logger.Error(err)
	}
}

func runHeadless(ctx context.Context, s *session.Session, steps int, dt time.Duration, logger log.Logger) error {
	start := time.Now()
	last, err := s.Run(ctx, steps, dt, nil)
	if err != nil {
		return err
	}
	if last == nil {
		return nil
	}
	stats := last.Stats()
	logger.Infof("session %s: %d ticks (%.1fs simulated) in %v, mean speed %.4f, spread %.3f, out of bounds %d",
		stats.SessionID, stats.Tick, stats.SimTime, time.Since(start).Round(time.Millisecond),
		stats.MeanSpeed, stats.Spread, stats.OutOfBounds)
	return nil
}

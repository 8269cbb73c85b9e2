package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-boids3d/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids3d/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids3d/pkg/ui"
)

const (
	screenWidth  = 1280
	screenHeight = 800
	panelWidth   = 280
)

// Game drives the flock straight from the ebiten Update loop.
type Game struct {
	logger log.Logger

	flock    *behavior.Flock
	settings behavior.Settings
	cfg      *simulation.Config // as edited in the panel, before window scaling

	panel    *ui.ControlPanel
	renderer *ui.Renderer

	sessionID string
	tick      uint64
	simTime   float64
	reseeded  bool
	snapshot  *simulation.WorldSnapshot

	width, height float64
	resized       bool

	// Timing instrumentation
	updateAvg float64 // Rolling average in ms
	drawAvg   float64 // Rolling average in ms
}

func NewGame(cfg *simulation.Config, logger log.Logger) (*Game, error) {
	g := &Game{
		logger:    logger,
		cfg:       cfg,
		panel:     ui.NewControlPanel(10, 10, panelWidth, screenHeight-20, cfg),
		renderer:  ui.NewRenderer(screenWidth, screenHeight),
		sessionID: uuid.NewString(),
		width:     screenWidth,
		height:    screenHeight,
	}
	effective := g.effectiveConfig(cfg)
	settings, err := effective.Settings()
	if err != nil {
		return nil, err
	}
	models, err := effective.Models()
	if err != nil {
		return nil, err
	}
	g.flock, err = behavior.NewFlock(settings, models, behavior.NewRandomSource(cfg.Seed))
	if err != nil {
		return nil, fmt.Errorf("failed to seed flock: %w", err)
	}
	g.settings = settings
	g.reseeded = true
	g.snapshot = simulation.NewWorldSnapshot(g.sessionID, 0, 0, effective, g.flock.Boids())
	return g, nil
}

// effectiveConfig scales the configured box to the window size.
func (g *Game) effectiveConfig(cfg *simulation.Config) *simulation.Config {
	return ui.WindowConfig(cfg, g.width, g.height)
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.panel.Hidden = !g.panel.Hidden
	}
	g.renderer.UpdateCamera()

	cfg, changed, reseed := g.panel.Update()
	effective := g.effectiveConfig(cfg)
	if changed || g.resized {
		g.resized = false
		if err := g.reconfigure(effective); err != nil {
			g.logger.Warnf("configuration rejected: %v", err)
		} else {
			g.cfg = cfg
		}
	}
	if reseed {
		g.flock.Reseed()
		g.reseeded = true
		g.logger.Infof("Flock reseeded with %d boids", g.flock.Len())
	}

	dt := 1.0 / float64(ebiten.TPS())
	g.flock.Advance(dt, g.settings)
	g.tick++
	g.simTime += dt

	g.snapshot = simulation.NewWorldSnapshot(g.sessionID, g.tick, g.simTime, g.effectiveConfig(g.cfg), g.flock.Boids())
	g.snapshot.Reseeded = g.reseeded
	g.reseeded = false
	return nil
}

func (g *Game) reconfigure(cfg *simulation.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	models, err := cfg.Models()
	if err != nil {
		return err
	}
	reseeded, err := g.flock.Reconfigure(settings, models)
	if err != nil {
		return err
	}
	g.settings = settings
	if reseeded {
		g.reseeded = true
		g.logger.Infof("Flock reseeded with %d boids (theme %s)", g.flock.Len(), cfg.Theme)
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	debug := g.panel.Debug()
	g.renderer.Draw(screen, g.snapshot, g.cfg, debug)
	g.panel.Draw(screen)
	if debug.Stats {
		ui.DrawStats(screen, g.snapshot, g.updateAvg, g.drawAvg)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := float64(outsideWidth), float64(outsideHeight)
	if w != g.width || h != g.height {
		g.width, g.height = w, h
		g.resized = true
		g.renderer.Camera.Resize(w, h)
		g.panel.Height = h - 20
	}
	return outsideWidth, outsideHeight
}

func main() {
	configFile := flag.String("config", "", "configuration file (.json, .yaml, .yml or .toml)")
	flag.Parse()

	logger := log.DefaultLogger
	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configFile); err != nil {
			logger.Fatalf("failed to load config: %v", err)
		}
	}

	game, err := NewGame(cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle("Boids 3D (H toggles the panel, arrows orbit)")
	if err := ebiten.RunGame(game); err != nil {
		logger.Fatal(err)
	}
}

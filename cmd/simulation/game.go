package main

import (
	"context"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-boids3d/internal/session"
	"github.com/lao-tseu-is-alive/go-boids3d/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids3d/pkg/ui"
)

// Game is the ebiten host of an actor-driven world: every frame it sends the
// panel changes and one tick to the world and draws the latest snapshot.
type Game struct {
	ctx     context.Context
	session *session.Session
	logger  log.Logger

	cfg       *simulation.Config // as edited in the panel, before window scaling
	lastState *simulation.WorldSnapshot

	// UI Controls
	panel    *ui.ControlPanel
	renderer *ui.Renderer

	width, height float64
	resized       bool

	// Timing instrumentation
	lastUpdateDuration time.Duration
	lastDrawDuration   time.Duration
	updateAvg          float64 // Rolling average in ms
	drawAvg            float64 // Rolling average in ms
}

func NewGame(ctx context.Context, s *session.Session, cfg *simulation.Config, logger log.Logger) *Game {
	g := &Game{
		ctx:      ctx,
		session:  s,
		logger:   logger,
		cfg:      cfg,
		panel:    ui.NewControlPanel(10, 10, panelWidth, screenHeight-20, cfg),
		renderer: ui.NewRenderer(screenWidth, screenHeight),
		width:    screenWidth,
		height:   screenHeight,
	}
	// the world was seeded with the unscaled box
	g.resized = true
	return g
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.lastUpdateDuration = time.Since(start)
		// Rolling average (exponential moving average)
		g.updateAvg = g.updateAvg*0.95 + float64(g.lastUpdateDuration.Microseconds())/1000.0*0.05
	}()

	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.panel.Hidden = !g.panel.Hidden
	}
	g.renderer.UpdateCamera()

	// 1. Update UI Panel and send configuration changes to the world
	cfg, changed, reseed := g.panel.Update()
	if changed || g.resized {
		g.resized = false
		if err := g.session.Apply(g.ctx, ui.WindowConfig(cfg, g.width, g.height)); err != nil {
			g.logger.Warnf("configuration rejected: %v", err)
		} else {
			g.cfg = cfg
		}
	}
	if reseed {
		if err := g.session.Reseed(g.ctx); err != nil {
			return err
		}
	}

	// 2. Trigger Simulation Step
	dt := time.Second / time.Duration(ebiten.TPS())
	if err := g.session.Tick(g.ctx, dt); err != nil {
		return err
	}

	// 3. Retrieve Latest State (Non-blocking)
	if snap := g.session.Latest(); snap != nil {
		g.lastState = snap
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.lastDrawDuration = time.Since(start)
		g.drawAvg = g.drawAvg*0.95 + float64(g.lastDrawDuration.Microseconds())/1000.0*0.05
	}()

	debug := g.panel.Debug()
	g.renderer.Draw(screen, g.lastState, g.cfg, debug)
	g.panel.Draw(screen)
	if debug.Stats {
		ui.DrawStats(screen, g.lastState, g.updateAvg, g.drawAvg)
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

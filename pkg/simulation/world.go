package simulation

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lao-tseu-is-alive/go-boids3d/pkg/behavior"
)

// WorldActor owns the flock of one session. The mailbox serialises ticks and
// configuration changes, so the flock is never touched by two goroutines.
//
// Messages:
//   - *durationpb.Duration advances the flock by that delta-time
//   - *structpb.Struct overlays a (partial) configuration document
//   - *emptypb.Empty reseeds the flock with the current configuration
type WorldActor struct {
	cfg      *Config
	settings behavior.Settings
	flock    *behavior.Flock

	sessionID string
	tick      uint64
	simTime   float64
	reseeded  bool

	// Communication with UI
	snapshotCh chan<- *WorldSnapshot
	recorder   *TelemetryRecorder

	// --- Benchmark Stats ---
	tickCount    int
	droppedCount int
	lastLogTime  time.Time
}

var _ actor.Actor = (*WorldActor)(nil)

// NewWorldActor creates the world logic unit. recorder may be nil.
func NewWorldActor(snapshotCh chan<- *WorldSnapshot, cfg *Config, recorder *TelemetryRecorder) *WorldActor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &WorldActor{
		cfg:         cfg,
		sessionID:   uuid.NewString(),
		snapshotCh:  snapshotCh,
		recorder:    recorder,
		lastLogTime: time.Now(),
	}
}

// SessionID identifies the run in snapshots and telemetry.
func (w *WorldActor) SessionID() string {
	return w.sessionID
}

func (w *WorldActor) PreStart(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("World %s is seeding the flock...", w.sessionID)
	return w.seed(w.cfg)
}

func (w *WorldActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {

	case *goaktpb.PostStart:
		ctx.Logger().Infof("World Started with %d boids (theme %s, 3D %v)",
			w.flock.Len(), w.cfg.Theme, w.cfg.ThreeD)
		w.pushSnapshot()

	// The Main Simulation Step (Driven by the host loop)
	case *durationpb.Duration:
		if err := w.step(msg.AsDuration().Seconds()); err != nil {
			ctx.Logger().Warnf("tick %d: %v", w.tick, err)
		}
		w.logBenchmarks(ctx)
		w.pushSnapshot()

	// Dynamic configuration updates from the UI
	case *structpb.Struct:
		cfg, err := ConfigFromStruct(msg, w.cfg)
		if err != nil {
			ctx.Logger().Errorf("rejected configuration: %v", err)
			return
		}
		reseeded, err := w.applyConfig(cfg)
		if err != nil {
			ctx.Logger().Errorf("rejected configuration: %v", err)
			return
		}
		if reseeded {
			ctx.Logger().Infof("Flock reseeded with %d boids", w.flock.Len())
		}

	case *emptypb.Empty:
		w.flock.Reseed()
		w.reseeded = true
		ctx.Logger().Infof("Flock reseeded with %d boids", w.flock.Len())

	default:
		ctx.Unhandled()
	}
}

func (w *WorldActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("World %s is shutdown after %d ticks", w.sessionID, w.tick)
	return nil
}

// seed (re)creates the flock from cfg with a fresh random source.
func (w *WorldActor) seed(cfg *Config) error {
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	models, err := cfg.Models()
	if err != nil {
		return err
	}
	flock, err := behavior.NewFlock(settings, models, behavior.NewRandomSource(cfg.Seed))
	if err != nil {
		return fmt.Errorf("failed to seed flock: %w", err)
	}
	if w.recorder != nil {
		flock.SetObserver(w.recorder.ObserveSteering)
	}
	w.cfg, w.settings, w.flock = cfg, settings, flock
	w.reseeded = true
	return nil
}

// step advances the flock by dt seconds and records telemetry.
func (w *WorldActor) step(dt float64) error {
	if w.flock == nil {
		return errors.New("world is not started")
	}
	if dt < 0 {
		return fmt.Errorf("negative delta-time %v", dt)
	}
	w.flock.Advance(dt, w.settings)
	w.tick++
	w.simTime += dt
	w.tickCount++

	if _, err := w.recorder.Record(w.sessionID, w.tick, w.simTime, w.settings, w.flock.Boids()); err != nil {
		return err
	}
	return nil
}

// applyConfig installs cfg; it takes effect on the next tick. Structural
// changes recreate the flock, a new seed restarts it with a new random source.
// On error the running configuration is kept.
func (w *WorldActor) applyConfig(cfg *Config) (bool, error) {
	if err := cfg.Validate(); err != nil {
		return false, err
	}
	if w.flock == nil || cfg.Seed != w.cfg.Seed {
		if err := w.seed(cfg); err != nil {
			return false, err
		}
		return true, nil
	}
	settings, err := cfg.Settings()
	if err != nil {
		return false, err
	}
	models, err := cfg.Models()
	if err != nil {
		return false, err
	}
	reseeded, err := w.flock.Reconfigure(settings, models)
	if err != nil {
		return false, err
	}
	w.cfg, w.settings = cfg, settings
	w.reseeded = w.reseeded || reseeded
	return reseeded, nil
}

func (w *WorldActor) logBenchmarks(ctx *actor.ReceiveContext) {
	if time.Since(w.lastLogTime) >= time.Second {
		ctx.Logger().Infof("📊 TICK RATE: %d/sec | Boids: %d | Dropped snapshots: %d | Sim time: %.1fs",
			w.tickCount, w.flock.Len(), w.droppedCount, w.simTime)
		w.tickCount = 0
		w.droppedCount = 0
		w.lastLogTime = time.Now()
	}
}

func (w *WorldActor) pushSnapshot() {
	if w.snapshotCh == nil {
		return
	}
	select {
	case w.snapshotCh <- w.buildSnapshot():
		w.reseeded = false
	default:
		// UI busy, skip frame
		w.droppedCount++
	}
}

func (w *WorldActor) buildSnapshot() *WorldSnapshot {
	snapshot := NewWorldSnapshot(w.sessionID, w.tick, w.simTime, w.cfg, w.flock.Boids())
	snapshot.Reseeded = w.reseeded
	return snapshot
}

package simulation

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const frame = 1.0 / 60

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Seed = 3
	cfg.General.Count = 20
	return cfg
}

func startedWorld(t testing.TB, ch chan<- *WorldSnapshot, cfg *Config, rec *TelemetryRecorder) *WorldActor {
	t.Helper()
	w := NewWorldActor(ch, cfg, rec)
	if err := w.seed(w.cfg); err != nil {
		t.Fatalf("seed() error = %v", err)
	}
	return w
}

func TestWorldActor_step(t *testing.T) {
	ch := make(chan *WorldSnapshot, 1)
	w := startedWorld(t, ch, testConfig(), nil)

	for i := 0; i < 5; i++ {
		if err := w.step(frame); err != nil {
			t.Fatalf("step() error = %v", err)
		}
	}
	if w.tick != 5 || !floatEquals(w.simTime, 5*frame) {
		t.Errorf("tick = %d simTime = %v; want 5, %v", w.tick, w.simTime, 5*frame)
	}

	w.pushSnapshot()
	snap := <-ch
	if snap.Tick != 5 || len(snap.Boids) != 20 || snap.SessionID != w.SessionID() {
		t.Fatalf("snapshot = tick %d, %d boids, session %q", snap.Tick, len(snap.Boids), snap.SessionID)
	}
	if !snap.Reseeded {
		t.Error("first snapshot after seeding should be flagged as reseeded")
	}

	// snapshots are copies
	snap.Boids[0].Position.X = 1e6
	if w.flock.Boids()[0].Position.X == 1e6 {
		t.Error("snapshot shares memory with the flock")
	}

	w.pushSnapshot()
	if again := <-ch; again.Reseeded {
		t.Error("reseeded flag should be cleared once delivered")
	}
}

func TestWorldActor_stepErrors(t *testing.T) {
	w := NewWorldActor(nil, testConfig(), nil)
	if err := w.step(frame); err == nil {
		t.Error("step() before seeding should fail")
	}
	w = startedWorld(t, nil, testConfig(), nil)
	if err := w.step(-frame); err == nil {
		t.Error("step() with a negative delta-time should fail")
	}
	if w.tick != 0 {
		t.Errorf("tick = %d after a rejected step", w.tick)
	}
}

func TestWorldActor_applyConfig(t *testing.T) {
	w := startedWorld(t, nil, testConfig(), nil)
	first := w.flock.Snapshot()

	t.Run("Tuning", func(t *testing.T) {
		cfg := *w.cfg
		cfg.Cohesion.Strength = 7
		cfg.Alignment.Enabled = false
		reseeded, err := w.applyConfig(&cfg)
		if err != nil || reseeded {
			t.Fatalf("applyConfig() = %v, %v; want false, nil", reseeded, err)
		}
		if w.settings.Cohesion.Strength != 7 || w.settings.Alignment.Enabled {
			t.Errorf("settings not updated: %+v", w.settings)
		}
		if w.flock.Boids()[0] != first[0] {
			t.Error("tuning moved the boids")
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		cfg := *w.cfg
		cfg.General.MinScale, cfg.General.MaxScale = 3, 1
		if _, err := w.applyConfig(&cfg); err == nil {
			t.Fatal("applyConfig() accepted inverted scales")
		}
		if w.cfg.General.MinScale != 0.7 {
			t.Error("rejected configuration was installed")
		}
	})

	t.Run("Structural", func(t *testing.T) {
		cfg := *w.cfg
		cfg.General.Count = 35
		reseeded, err := w.applyConfig(&cfg)
		if err != nil || !reseeded {
			t.Fatalf("applyConfig() = %v, %v; want true, nil", reseeded, err)
		}
		if w.flock.Len() != 35 {
			t.Errorf("Len() = %d; want 35", w.flock.Len())
		}
	})

	t.Run("Theme", func(t *testing.T) {
		cfg := *w.cfg
		cfg.Theme = ThemeSpace
		reseeded, err := w.applyConfig(&cfg)
		if err != nil || !reseeded {
			t.Fatalf("applyConfig() = %v, %v; want true, nil", reseeded, err)
		}
		for i, b := range w.flock.Boids() {
			if b.Appearance != "Koi_08" {
				t.Fatalf("boid %d appearance %q; want Koi_08", i, b.Appearance)
			}
		}
	})

	t.Run("Seed", func(t *testing.T) {
		before := w.flock.Snapshot()
		cfg := *w.cfg
		cfg.Seed = 99
		reseeded, err := w.applyConfig(&cfg)
		if err != nil || !reseeded {
			t.Fatalf("applyConfig() = %v, %v; want true, nil", reseeded, err)
		}
		if w.flock.Boids()[0].Position == before[0].Position {
			t.Error("a new seed should draw new positions")
		}
	})

	t.Run("SeedRejected", func(t *testing.T) {
		before := w.flock.Snapshot()
		seed := w.cfg.Seed
		cfg := *w.cfg
		cfg.Seed = 1<<60 + 1
		reseeded, err := w.applyConfig(&cfg)
		if err == nil || reseeded {
			t.Fatalf("applyConfig() = %v, %v; want false and an error", reseeded, err)
		}
		if w.cfg.Seed != seed || w.flock.Boids()[0] != before[0] {
			t.Error("a rejected seed changed the flock")
		}
	})

	t.Run("LargeSeedOverStruct", func(t *testing.T) {
		cfg := *w.cfg
		cfg.Seed = MaxSeed
		if _, err := w.applyConfig(&cfg); err != nil {
			t.Fatalf("applyConfig() error = %v", err)
		}
		before := w.flock.Snapshot()

		tuned := *w.cfg
		tuned.Cohesion.Strength = 3
		st, err := tuned.ToStruct()
		if err != nil {
			t.Fatalf("ToStruct() error = %v", err)
		}
		wire, err := ConfigFromStruct(st, w.cfg)
		if err != nil {
			t.Fatalf("ConfigFromStruct() error = %v", err)
		}
		reseeded, err := w.applyConfig(wire)
		if err != nil || reseeded {
			t.Fatalf("applyConfig() = %v, %v; want false, nil", reseeded, err)
		}
		if w.flock.Boids()[0] != before[0] || w.settings.Cohesion.Strength != 3 {
			t.Error("a tuning change sent over the wire restarted the flock")
		}
	})
}

func TestWorldActor_Deterministic(t *testing.T) {
	a := startedWorld(t, nil, testConfig(), nil)
	b := startedWorld(t, nil, testConfig(), nil)
	for i := 0; i < 30; i++ {
		_ = a.step(frame)
		_ = b.step(frame)
	}
	for i := range a.flock.Boids() {
		if a.flock.Boids()[i] != b.flock.Boids()[i] {
			t.Fatalf("boid %d differs between two runs with the same seed", i)
		}
	}
	if a.SessionID() == b.SessionID() {
		t.Error("sessions should have distinct ids")
	}
}

func TestWorldActor_pushSnapshotNonBlocking(t *testing.T) {
	ch := make(chan *WorldSnapshot, 1)
	w := startedWorld(t, ch, testConfig(), nil)

	done := make(chan struct{})
	go func() {
		w.pushSnapshot()
		w.pushSnapshot() // channel full: dropped
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pushSnapshot blocked on a full channel")
	}
	if w.droppedCount != 1 {
		t.Errorf("droppedCount = %d; want 1", w.droppedCount)
	}
}

func TestWorldActor_Telemetry(t *testing.T) {
	var buf bytes.Buffer
	w := startedWorld(t, nil, testConfig(), NewTelemetryRecorder(&buf))
	for i := 0; i < 2; i++ {
		if err := w.step(frame); err != nil {
			t.Fatal(err)
		}
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d csv lines; want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], w.SessionID()+",1,") {
		t.Errorf("unexpected row %q", lines[1])
	}
}

func waitSnapshot(t *testing.T, ch <-chan *WorldSnapshot, match func(*WorldSnapshot) bool) *WorldSnapshot {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case snap := <-ch:
			if match(snap) {
				return snap
			}
		case <-timeout:
			t.Fatal("timed out waiting for a snapshot")
			return nil
		}
	}
}

func TestWorldActor_ActorSystem(t *testing.T) {
	ctx := context.Background()
	system, err := actor.NewActorSystem("boids-test", actor.WithLogger(log.DiscardLogger))
	if err != nil {
		t.Fatalf("NewActorSystem() error = %v", err)
	}
	if err := system.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = system.Stop(ctx) })

	ch := make(chan *WorldSnapshot, 64)
	pid, err := system.Spawn(ctx, "world", NewWorldActor(ch, testConfig(), nil))
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := actor.Tell(ctx, pid, durationpb.New(time.Second/60)); err != nil {
			t.Fatalf("Tell(tick) error = %v", err)
		}
	}
	snap := waitSnapshot(t, ch, func(s *WorldSnapshot) bool { return s.Tick == 3 })
	if len(snap.Boids) != 20 {
		t.Errorf("got %d boids; want 20", len(snap.Boids))
	}

	update, err := structpb.NewStruct(map[string]any{
		"general": map[string]any{"count": 40},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := actor.Tell(ctx, pid, update); err != nil {
		t.Fatalf("Tell(config) error = %v", err)
	}
	if err := actor.Tell(ctx, pid, durationpb.New(time.Second/60)); err != nil {
		t.Fatal(err)
	}
	snap = waitSnapshot(t, ch, func(s *WorldSnapshot) bool { return s.Tick == 4 })
	if len(snap.Boids) != 40 || !snap.Reseeded {
		t.Errorf("after update: %d boids, reseeded %v; want 40, true", len(snap.Boids), snap.Reseeded)
	}

	// invalid update is ignored
	bad, _ := structpb.NewStruct(map[string]any{"theme": "desert"})
	_ = actor.Tell(ctx, pid, bad)
	_ = actor.Tell(ctx, pid, &emptypb.Empty{})
	_ = actor.Tell(ctx, pid, durationpb.New(time.Second/60))
	snap = waitSnapshot(t, ch, func(s *WorldSnapshot) bool { return s.Tick == 5 })
	if snap.Theme != ThemeUnderwater || len(snap.Boids) != 40 || !snap.Reseeded {
		t.Errorf("after reseed: theme %q, %d boids, reseeded %v", snap.Theme, len(snap.Boids), snap.Reseeded)
	}
}

func BenchmarkWorldActor_step(b *testing.B) {
	cfg := testConfig()
	cfg.General.Count = 200
	w := startedWorld(b, nil, cfg, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = w.step(frame)
	}
}

// Package session runs one world actor inside its own goakt actor system and
// gives hosts a small API to tick it, reconfigure it and read its snapshots.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/lao-tseu-is-alive/go-boids3d/pkg/simulation"
)

// DefaultStepTimeout bounds how long Step waits for the world to answer a tick.
const DefaultStepTimeout = 5 * time.Second

// ErrStopped is returned by every call made after Stop.
var ErrStopped = errors.New("session is stopped")

// Options configures a Session. Zero values pick the defaults.
type Options struct {
	// Recorder receives per-tick telemetry; nil disables it.
	Recorder *simulation.TelemetryRecorder
	// Logger is handed to the actor system; defaults to log.DefaultLogger.
	Logger log.Logger
	// Buffer is the capacity of the snapshot channel; defaults to 10.
	Buffer int
	// StepTimeout bounds Step; defaults to DefaultStepTimeout.
	StepTimeout time.Duration
}

// Session owns an actor system with a single WorldActor.
type Session struct {
	system    actor.ActorSystem
	pid       *actor.PID
	sessionID string
	snapshots chan *simulation.WorldSnapshot
	latest    *simulation.WorldSnapshot
	seen      bool // latest was handed to a caller
	ticks     uint64
	timeout   time.Duration
	stopped   bool
}

// Start creates the actor system and spawns the world seeded from cfg.
func Start(ctx context.Context, cfg *simulation.Config, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = log.DefaultLogger
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 10
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = DefaultStepTimeout
	}
	if cfg == nil {
		cfg = simulation.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	system, err := actor.NewActorSystem("BoidsWorld",
		actor.WithLogger(opts.Logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		return nil, fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start actor system: %w", err)
	}

	snapshots := make(chan *simulation.WorldSnapshot, opts.Buffer)
	world := simulation.NewWorldActor(snapshots, cfg, opts.Recorder)
	pid, err := system.Spawn(ctx, "world", world)
	if err != nil {
		_ = system.Stop(ctx)
		return nil, fmt.Errorf("failed to spawn world: %w", err)
	}
	return &Session{
		system:    system,
		pid:       pid,
		sessionID: world.SessionID(),
		snapshots: snapshots,
		timeout:   opts.StepTimeout,
	}, nil
}

// SessionID identifies the run in snapshots and telemetry.
func (s *Session) SessionID() string {
	return s.sessionID
}

// Ticks returns the number of ticks sent so far.
func (s *Session) Ticks() uint64 {
	return s.ticks
}

// Tick asks the world to advance by dt without waiting for the result.
func (s *Session) Tick(ctx context.Context, dt time.Duration) error {
	if s.stopped {
		return ErrStopped
	}
	if dt < 0 {
		return fmt.Errorf("negative delta-time %v", dt)
	}
	if err := actor.Tell(ctx, s.pid, durationpb.New(dt)); err != nil {
		return fmt.Errorf("failed to send tick: %w", err)
	}
	s.ticks++
	return nil
}

// Apply sends cfg to the world; it takes effect before the next tick.
// The world validates it again and keeps its configuration on error.
func (s *Session) Apply(ctx context.Context, cfg *simulation.Config) error {
	if s.stopped {
		return ErrStopped
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	doc, err := cfg.ToStruct()
	if err != nil {
		return err
	}
	if err := actor.Tell(ctx, s.pid, doc); err != nil {
		return fmt.Errorf("failed to send configuration: %w", err)
	}
	return nil
}

// Reseed asks the world to recreate the flock with its current configuration.
func (s *Session) Reseed(ctx context.Context) error {
	if s.stopped {
		return ErrStopped
	}
	if err := actor.Tell(ctx, s.pid, &emptypb.Empty{}); err != nil {
		return fmt.Errorf("failed to send reseed: %w", err)
	}
	return nil
}

// Latest drains the snapshot channel without blocking and returns the most
// recent snapshot, or nil before the world produced any.
func (s *Session) Latest() *simulation.WorldSnapshot {
	for {
		select {
		case snap := <-s.snapshots:
			s.keep(snap)
		default:
			s.seen = true
			return s.latest
		}
	}
}

func (s *Session) keep(snap *simulation.WorldSnapshot) {
	if snap == nil {
		return
	}
	// a reseed flag must survive until a caller saw it
	if s.latest != nil && s.latest.Reseeded && !s.seen {
		snap.Reseeded = true
	}
	s.latest = snap
	s.seen = false
}

// Step sends one tick and waits for its snapshot.
func (s *Session) Step(ctx context.Context, dt time.Duration) (*simulation.WorldSnapshot, error) {
	s.Latest()
	if err := s.Tick(ctx, dt); err != nil {
		return nil, err
	}
	want := s.ticks

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	for {
		select {
		case snap := <-s.snapshots:
			s.keep(snap)
			if snap != nil && snap.Tick >= want {
				s.seen = true
				return snap, nil
			}
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for tick %d: %w", want, ctx.Err())
		}
	}
}

// Run performs steps lockstep ticks of dt. onSnapshot, when not nil, sees
// every snapshot in order. It returns the last snapshot.
func (s *Session) Run(ctx context.Context, steps int, dt time.Duration, onSnapshot func(*simulation.WorldSnapshot)) (*simulation.WorldSnapshot, error) {
	var last *simulation.WorldSnapshot
	for i := 0; i < steps; i++ {
		snap, err := s.Step(ctx, dt)
		if err != nil {
			return last, err
		}
		if onSnapshot != nil {
			onSnapshot(snap)
		}
		last = snap
	}
	return last, nil
}

// Stop shuts the actor system down. It is safe to call more than once.
func (s *Session) Stop(ctx context.Context) error {
	if s.stopped {
		return nil
	}
	s.stopped = true
	return s.system.Stop(ctx)
}

package simulation

import (
	"github.com/lao-tseu-is-alive/go-boids3d/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids3d/pkg/geometry"
)

// BoidSnapshot is the read-only view of one boid handed to renderers.
type BoidSnapshot struct {
	Index      int
	Position   geometry.Vector3D
	Velocity   geometry.Vector3D
	Scale      float64
	Appearance string
}

// Speed returns the distance travelled during the last tick.
func (b BoidSnapshot) Speed() float64 {
	return b.Velocity.Len()
}

// WorldSnapshot is a deep copy of the flock after a tick. It is safe to read
// from any goroutine once received.
type WorldSnapshot struct {
	SessionID  string
	Tick       uint64
	SimTime    float64
	Theme      string
	ThreeD     bool
	Boundaries geometry.Vector3D
	Boids      []BoidSnapshot
	// Reseeded is set on the first snapshot after the flock was recreated.
	Reseeded bool
}

// NewWorldSnapshot copies boids into a snapshot stamped with the run metadata.
func NewWorldSnapshot(sessionID string, tick uint64, simTime float64, cfg *Config, boids []behavior.Boid) *WorldSnapshot {
	snapshot := &WorldSnapshot{
		SessionID:  sessionID,
		Tick:       tick,
		SimTime:    simTime,
		Theme:      cfg.Theme,
		ThreeD:     cfg.ThreeD,
		Boundaries: geometry.NewVector(cfg.Boundaries.X, cfg.Boundaries.Y, cfg.Boundaries.Z),
		Boids:      make([]BoidSnapshot, len(boids)),
	}
	for i, b := range boids {
		snapshot.Boids[i] = BoidSnapshot{
			Index:      i,
			Position:   b.Position,
			Velocity:   b.Velocity,
			Scale:      b.Scale,
			Appearance: b.Appearance,
		}
	}
	return snapshot
}

// Stats summarises the snapshot. Steering figures are not part of a snapshot and stay zero.
func (s *WorldSnapshot) Stats() TickStats {
	boids := make([]behavior.Boid, len(s.Boids))
	for i, b := range s.Boids {
		boids[i] = behavior.Boid{Position: b.Position, Velocity: b.Velocity, Scale: b.Scale, Appearance: b.Appearance}
	}
	stats := ComputeTickStats(boids, s.Boundaries, nil)
	stats.SessionID = s.SessionID
	stats.Tick = s.Tick
	stats.SimTime = s.SimTime
	return stats
}

package behavior

import (
	"math"

	"github.com/lao-tseu-is-alive/go-boids3d/pkg/geometry"
)

const (
	// wanderJitter bounds the random walk of the wander phase per tick.
	wanderJitter = 0.05
	// boundaryMargin is how far inside the box the containment force kicks in.
	boundaryMargin = 1.0
	// boundaryGain dominates every other force so containment always wins.
	boundaryGain = 50.0
)

// steer computes the next state of flock[i]. It only reads flock and never
// writes to it.
func (f *Flock) steer(i int, flock []Boid, dt float64, s Settings) Boid {
	b := flock[i]

	// 1. Wander
	b.WanderPhase += randRange(f.rnd, -wanderJitter, wanderJitter)
	cos, sin := math.Cos(b.WanderPhase), math.Sin(b.WanderPhase)
	wander := geometry.Vector3D{X: cos * s.Wander.Radius, Y: sin * s.Wander.Radius}.
		Normalize().Mul(s.Wander.Strength)
	horizontalWander := geometry.Vector3D{X: cos * s.Wander.Radius, Z: sin * s.Wander.Radius}.
		Normalize().Mul(s.Wander.Strength)

	// 2. Limits: flip the wander direction once per crossed axis
	var limits geometry.Vector3D
	for axis := 0; axis < 3; axis++ {
		p := b.Position.Axis(axis)
		if math.Abs(p)+boundaryMargin > s.Boundaries.Axis(axis) {
			limits = limits.WithAxis(axis, -p)
			b.WanderPhase += math.Pi
		}
	}
	limits = limits.Normalize().Mul(boundaryGain)

	// 3. Neighbors, brute force over the pre-tick state
	var alignment, avoidance, cohesion geometry.Vector3D
	totalCohesion := 0
	for j := range flock {
		if j == i {
			continue
		}
		other := &flock[j]
		d := b.Position.DistanceTo(other.Position)
		if d <= 0 {
			continue
		}
		if d < s.Alignment.Radius {
			alignment = alignment.Add(other.Velocity.Normalize().Mul(1 / d))
		}
		if d < s.Avoidance.Radius {
			away := b.Position.Sub(other.Position).Normalize().Mul(1 / d)
			if s.AvoidanceMode == AvoidanceSeparate {
				avoidance = avoidance.Add(away)
			}
		}
		if d < s.Cohesion.Radius {
			cohesion = cohesion.Add(other.Position)
			totalCohesion++
		}
	}

	// 4. Compose
	steering := limits.Add(wander)
	if s.ThreeD {
		steering = steering.Add(horizontalWander)
	}
	if s.Alignment.Enabled {
		steering = steering.Add(alignment.Normalize().Mul(s.Alignment.Strength))
	}
	if s.Avoidance.Enabled {
		steering = steering.Add(avoidance.Normalize().Mul(s.Avoidance.Strength))
	}
	if s.Cohesion.Enabled && totalCohesion > 0 {
		center := cohesion.Mul(1 / float64(totalCohesion))
		steering = steering.Add(center.Sub(b.Position).Normalize().Mul(s.Cohesion.Strength))
	}

	// 5. Clamp steering
	applied := steering.ClampLength(s.MaxSteering * dt)
	if f.observer != nil {
		f.observer(i, steering, applied)
	}

	// 6. Velocity, bounded by the scale-dependent top speed
	b.Velocity = b.Velocity.Add(applied).ClampLength(s.SpeedLimit(b.Scale) * dt)

	// 7. Move
	b.Position = b.Position.Add(b.Velocity)
	return b
}

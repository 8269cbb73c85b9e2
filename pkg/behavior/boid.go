package behavior

import (
	"errors"
	"fmt"

	"github.com/lao-tseu-is-alive/go-boids3d/pkg/geometry"
)

// Boid represents a single entity in the flock.
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds, and related group motion.
// The name "boid" corresponds to a shortened version of "bird-oid object".
// https://en.wikipedia.org/wiki/Boids
// Fields are exported so the renderer can read them.
type Boid struct {
	Position    geometry.Vector3D
	Velocity    geometry.Vector3D
	WanderPhase float64 // radians, unbounded
	Scale       float64 // fixed at creation
	Appearance  string  // opaque asset id, never read by the simulation
}

// RuleSettings tunes one neighbor rule (alignment, avoidance or cohesion).
type RuleSettings struct {
	Radius   float64
	Strength float64
	Enabled  bool
}

// WanderSettings tunes the idle wander steering.
type WanderSettings struct {
	Radius   float64
	Strength float64
}

// AvoidanceMode selects how the separation vector is used.
type AvoidanceMode int

const (
	// AvoidanceSeparate accumulates the separation vector like alignment does.
	AvoidanceSeparate AvoidanceMode = iota
	// AvoidanceReference computes the separation vector and drops it, so the
	// avoidance rule only ever normalizes a zero sum.
	AvoidanceReference
)

func (m AvoidanceMode) String() string {
	switch m {
	case AvoidanceSeparate:
		return "separate"
	case AvoidanceReference:
		return "reference"
	}
	return fmt.Sprintf("AvoidanceMode(%d)", int(m))
}

// Settings controls the physics constants for the simulation.
// Passing this into Advance allows you to change rules dynamically at runtime;
// a Settings value is never mutated while a tick runs.
type Settings struct {
	Count int

	MinScale float64
	MaxScale float64

	MinSpeed    float64
	MaxSpeed    float64
	MaxSteering float64

	ThreeD bool

	Wander    WanderSettings
	Alignment RuleSettings
	Avoidance RuleSettings
	Cohesion  RuleSettings

	AvoidanceMode AvoidanceMode

	// Boundaries holds the half extents of the box centred on the origin.
	Boundaries geometry.Vector3D
}

// ErrInvalidSettings is wrapped by every error returned from Settings.Validate.
var ErrInvalidSettings = errors.New("invalid flock settings")

// DefaultSettings returns the tuning the flock was designed around.
func DefaultSettings() Settings {
	return Settings{
		Count:       100,
		MinScale:    0.7,
		MaxScale:    1.3,
		MinSpeed:    0.9,
		MaxSpeed:    3.6,
		MaxSteering: 0.1,
		ThreeD:      true,
		Wander:      WanderSettings{Radius: 5, Strength: 2},
		Alignment:   RuleSettings{Radius: 1.2, Strength: 4, Enabled: true},
		Avoidance:   RuleSettings{Radius: 0.8, Strength: 2, Enabled: true},
		Cohesion:    RuleSettings{Radius: 1.22, Strength: 4, Enabled: true},
		Boundaries:  geometry.Vector3D{X: 6, Y: 4, Z: 10},
	}
}

// Validate rejects settings the tick algorithm cannot run with.
func (s Settings) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, fmt.Sprintf(format, args...))
	}

	if s.Count < 1 {
		return invalid("count must be at least 1, got %d", s.Count)
	}
	if s.MinScale <= 0 || s.MaxScale <= 0 {
		return invalid("scales must be positive, got [%v, %v]", s.MinScale, s.MaxScale)
	}
	if s.MinScale > s.MaxScale {
		return invalid("minScale %v is greater than maxScale %v", s.MinScale, s.MaxScale)
	}
	if s.MinSpeed < 0 || s.MaxSpeed < 0 {
		return invalid("speeds must not be negative, got [%v, %v]", s.MinSpeed, s.MaxSpeed)
	}
	if s.MinSpeed > s.MaxSpeed {
		return invalid("minSpeed %v is greater than maxSpeed %v", s.MinSpeed, s.MaxSpeed)
	}
	if s.MaxSteering < 0 {
		return invalid("maxSteering must not be negative, got %v", s.MaxSteering)
	}
	if s.Wander.Radius < 0 || s.Wander.Strength < 0 {
		return invalid("wander radius and strength must not be negative")
	}
	rules := []struct {
		name string
		r    RuleSettings
	}{
		{"alignment", s.Alignment},
		{"avoidance", s.Avoidance},
		{"cohesion", s.Cohesion},
	}
	for _, rule := range rules {
		if rule.r.Radius < 0 || rule.r.Strength < 0 {
			return invalid("%s radius and strength must not be negative", rule.name)
		}
	}
	if s.AvoidanceMode != AvoidanceSeparate && s.AvoidanceMode != AvoidanceReference {
		return invalid("unknown avoidance mode %v", s.AvoidanceMode)
	}
	if s.Boundaries.X <= 0 || s.Boundaries.Y <= 0 || s.Boundaries.Z <= 0 {
		return invalid("boundaries must be positive, got %v", s.Boundaries)
	}
	return nil
}

// SpeedLimit maps scale linearly from [MinScale, MaxScale] onto
// [MaxSpeed, MinSpeed]: bigger boids get a lower top speed.
// When the scale range is empty every boid gets MaxSpeed.
func (s Settings) SpeedLimit(scale float64) float64 {
	span := s.MaxScale - s.MinScale
	if span <= 0 {
		return s.MaxSpeed
	}
	return s.MaxSpeed + (s.MinSpeed-s.MaxSpeed)*(scale-s.MinScale)/span
}

// SameStructure reports whether both settings describe the same population:
// count, boundaries, scale range and 3D mode. Any difference requires a reseed.
func (s Settings) SameStructure(other Settings) bool {
	return s.Count == other.Count &&
		s.Boundaries == other.Boundaries &&
		s.MinScale == other.MinScale &&
		s.MaxScale == other.MaxScale &&
		s.ThreeD == other.ThreeD
}

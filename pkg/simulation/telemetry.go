package simulation

import (
	"fmt"
	"io"
	"math"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/lao-tseu-is-alive/go-boids3d/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids3d/pkg/geometry"
)

// TickStats summarises one tick of the flock.
type TickStats struct {
	SessionID string  `csv:"session"`
	Tick      uint64  `csv:"tick"`
	SimTime   float64 `csv:"sim_time"`
	Count     int     `csv:"count"`

	// Speeds are per-tick displacements.
	MeanSpeed float64 `csv:"speed_mean"`
	StdSpeed  float64 `csv:"speed_std"`
	MaxSpeed  float64 `csv:"speed_max"`

	MeanSteering float64 `csv:"steering_mean"`
	// ClampedSteering counts boids whose steering exceeded the per-tick budget.
	ClampedSteering int `csv:"steering_clamped"`

	OutOfBounds int     `csv:"out_of_bounds"`
	Spread      float64 `csv:"spread"` // mean distance to the flock centroid
}

// TelemetryRecorder computes TickStats and writes them as CSV rows.
// A nil *TelemetryRecorder is valid and records nothing.
type TelemetryRecorder struct {
	w             io.Writer
	headerWritten bool

	steering []float64
	clamped  int
}

func NewTelemetryRecorder(w io.Writer) *TelemetryRecorder {
	return &TelemetryRecorder{w: w}
}

// ObserveSteering is a behavior.SteeringObserver collecting the applied steering of the running tick.
func (r *TelemetryRecorder) ObserveSteering(_ int, raw, applied geometry.Vector3D) {
	if r == nil {
		return
	}
	r.steering = append(r.steering, applied.Len())
	if raw.Len() > applied.Len()+geometry.Epsilon {
		r.clamped++
	}
}

// Record summarises boids after a tick, writes the row and resets the steering samples.
func (r *TelemetryRecorder) Record(sessionID string, tick uint64, simTime float64, s behavior.Settings, boids []behavior.Boid) (TickStats, error) {
	if r == nil {
		return TickStats{}, nil
	}
	stats := ComputeTickStats(boids, s.Boundaries, r.steering)
	stats.SessionID = sessionID
	stats.Tick = tick
	stats.SimTime = simTime
	stats.ClampedSteering = r.clamped
	r.steering = r.steering[:0]
	r.clamped = 0

	if r.w == nil {
		return stats, nil
	}

	records := []TickStats{stats}
	if !r.headerWritten {
		if err := gocsv.Marshal(records, r.w); err != nil {
			return stats, fmt.Errorf("writing telemetry: %w", err)
		}
		r.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, r.w); err != nil {
			return stats, fmt.Errorf("writing telemetry: %w", err)
		}
	}
	return stats, nil
}

// ComputeTickStats derives the flock statistics; steering holds the applied
// steering magnitudes of the tick and may be empty.
func ComputeTickStats(boids []behavior.Boid, half geometry.Vector3D, steering []float64) TickStats {
	stats := TickStats{Count: len(boids)}
	if len(boids) == 0 {
		return stats
	}

	speeds := make([]float64, len(boids))
	var centroid geometry.Vector3D
	for i, b := range boids {
		speeds[i] = b.Velocity.Len()
		centroid = centroid.Add(b.Position)
		if math.Abs(b.Position.X) > half.X || math.Abs(b.Position.Y) > half.Y || math.Abs(b.Position.Z) > half.Z {
			stats.OutOfBounds++
		}
	}
	stats.MeanSpeed, stats.StdSpeed = stat.PopMeanStdDev(speeds, nil)
	stats.MaxSpeed = floats.Max(speeds)

	centroid = centroid.Mul(1 / float64(len(boids)))
	dist := make([]float64, len(boids))
	for i, b := range boids {
		dist[i] = b.Position.DistanceTo(centroid)
	}
	stats.Spread = stat.Mean(dist, nil)

	if len(steering) > 0 {
		stats.MeanSteering = stat.Mean(steering, nil)
	}
	return stats
}

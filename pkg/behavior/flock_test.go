package behavior

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/lao-tseu-is-alive/go-boids3d/pkg/geometry"
)

const frame = 1.0 / 60

// fixedSource always returns the same value; 0.5 makes the wander jitter zero.
type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func newTestFlock(t *testing.T, s Settings, rnd RandomSource) *Flock {
	t.Helper()
	f, err := NewFlock(s, []string{"Koi_01", "Koi_02"}, rnd)
	if err != nil {
		t.Fatalf("NewFlock() error = %v", err)
	}
	return f
}

func insideBox(p, half geometry.Vector3D) bool {
	return math.Abs(p.X) <= half.X && math.Abs(p.Y) <= half.Y && math.Abs(p.Z) <= half.Z
}

func TestNewFlock_Seeding(t *testing.T) {
	s := DefaultSettings()
	s.Count = 64
	f := newTestFlock(t, s, seeded(1))

	if f.Len() != 64 {
		t.Fatalf("Len() = %d; want 64", f.Len())
	}
	for i, b := range f.Boids() {
		if !insideBox(b.Position, s.Boundaries) {
			t.Errorf("boid %d seeded outside the box: %v", i, b.Position)
		}
		if !b.Velocity.Eq(geometry.Zero) {
			t.Errorf("boid %d seeded with velocity %v; want zero", i, b.Velocity)
		}
		if b.Scale < s.MinScale || b.Scale > s.MaxScale {
			t.Errorf("boid %d scale %v outside [%v, %v]", i, b.Scale, s.MinScale, s.MaxScale)
		}
		if b.WanderPhase < 0 || b.WanderPhase >= 2*math.Pi {
			t.Errorf("boid %d wander phase %v outside [0, 2pi)", i, b.WanderPhase)
		}
		if b.Appearance != "Koi_01" && b.Appearance != "Koi_02" {
			t.Errorf("boid %d appearance %q not from the theme list", i, b.Appearance)
		}
	}
}

func TestNewFlock_FlatMode(t *testing.T) {
	s := DefaultSettings()
	s.ThreeD = false
	f := newTestFlock(t, s, seeded(2))
	for i, b := range f.Boids() {
		if b.Position.Z != 0 {
			t.Errorf("boid %d seeded at z=%v in 2D mode", i, b.Position.Z)
		}
	}
}

func TestNewFlock_Errors(t *testing.T) {
	if _, err := NewFlock(DefaultSettings(), nil, nil); err == nil {
		t.Error("NewFlock with nil random source should fail")
	}
	s := DefaultSettings()
	s.Count = 0
	if _, err := NewFlock(s, nil, seeded(1)); err == nil {
		t.Error("NewFlock with zero count should fail")
	}
}

func TestFlock_SpeedBound(t *testing.T) {
	s := DefaultSettings()
	s.Count = 80
	f := newTestFlock(t, s, seeded(3))

	for tick := 0; tick < 200; tick++ {
		dt := frame
		if tick%3 == 0 {
			dt = 1.0 / 30 // frame-rate varies
		}
		f.Advance(dt, s)
		for i, b := range f.Boids() {
			limit := s.SpeedLimit(b.Scale) * dt
			if b.Velocity.Len() > limit+1e-12 {
				t.Fatalf("tick %d boid %d speed %v exceeds %v", tick, i, b.Velocity.Len(), limit)
			}
			if !b.Position.IsFinite() || !b.Velocity.IsFinite() {
				t.Fatalf("tick %d boid %d has non finite state %v %v", tick, i, b.Position, b.Velocity)
			}
		}
	}
}

func TestFlock_SteeringBound(t *testing.T) {
	s := DefaultSettings()
	s.Count = 40
	f := newTestFlock(t, s, seeded(4))

	calls := 0
	clamped := 0
	max := s.MaxSteering * frame
	f.SetObserver(func(i int, raw, applied geometry.Vector3D) {
		calls++
		if applied.Len() > max+1e-12 {
			t.Errorf("boid %d applied steering %v exceeds %v", i, applied.Len(), max)
		}
		if raw.Len() <= max && !raw.Eq(applied) {
			t.Errorf("boid %d short steering %v was altered to %v", i, raw, applied)
		}
		if raw.Len() > max {
			clamped++
		}
	})

	for tick := 0; tick < 10; tick++ {
		f.Advance(frame, s)
	}
	if calls != 10*s.Count {
		t.Errorf("observer called %d times; want %d", calls, 10*s.Count)
	}
	if clamped == 0 {
		t.Error("expected the default forces to exceed the steering budget at least once")
	}
}

func TestFlock_Containment(t *testing.T) {
	s := DefaultSettings()
	s.Count = 1
	f := newTestFlock(t, s, seeded(5))

	f.boids[0].Position = geometry.Vector3D{X: s.Boundaries.X + 0.5}
	f.boids[0].Velocity = geometry.Zero

	f.Advance(frame, s)

	if vx := f.Boids()[0].Velocity.X; vx >= 0 {
		t.Errorf("velocity.x = %v; want < 0 (towards the interior)", vx)
	}
}

func TestFlock_BoundaryFlipsWander(t *testing.T) {
	s := DefaultSettings()
	s.Count = 1
	f := newTestFlock(t, s, fixedSource(0.5))

	// corner: x and y both outside the margin
	f.boids[0].Position = geometry.Vector3D{X: s.Boundaries.X, Y: -s.Boundaries.Y}
	f.boids[0].WanderPhase = 1

	f.Advance(frame, s)

	if got, want := f.Boids()[0].WanderPhase, 1+2*math.Pi; math.Abs(got-want) > 1e-12 {
		t.Errorf("wander phase = %v; want %v (pi added per crossed axis)", got, want)
	}
}

func TestFlock_SingleBoidHasNoNeighbors(t *testing.T) {
	s := DefaultSettings()
	s.Count = 1
	s.Cohesion = RuleSettings{Radius: 100, Strength: 4, Enabled: true}
	s.Alignment = RuleSettings{Radius: 100, Strength: 4, Enabled: true}
	s.Avoidance = RuleSettings{Radius: 100, Strength: 4, Enabled: true}
	f := newTestFlock(t, s, fixedSource(0.5))

	f.boids[0].Position = geometry.Zero
	f.boids[0].WanderPhase = 0

	var raw geometry.Vector3D
	f.SetObserver(func(_ int, r, _ geometry.Vector3D) { raw = r })
	f.Advance(frame, s)

	// only wander (planar + horizontal) may act: (2,0,0) + (2,0,0)
	want := geometry.Vector3D{X: 2 * s.Wander.Strength}
	if !raw.Eq(want) {
		t.Errorf("raw steering = %v; want %v", raw, want)
	}
	if b := f.Boids()[0]; !b.Position.IsFinite() || !b.Velocity.IsFinite() {
		t.Errorf("non finite state after tick: %v %v", b.Position, b.Velocity)
	}
}

func TestFlock_CohesionScenario(t *testing.T) {
	s := DefaultSettings()
	s.Count = 2
	s.MinScale, s.MaxScale = 1, 1
	s.Cohesion = RuleSettings{Radius: 10, Strength: 4, Enabled: true}
	s.Alignment.Enabled = false
	s.Avoidance.Enabled = false
	f := newTestFlock(t, s, fixedSource(0.5))

	// wander pointing along +y/+z keeps the x axis to cohesion alone
	f.boids[0] = Boid{Position: geometry.Vector3D{}, WanderPhase: math.Pi / 2, Scale: 1}
	f.boids[1] = Boid{Position: geometry.Vector3D{X: 2}, WanderPhase: math.Pi / 2, Scale: 1}

	f.Advance(frame, s)

	got := f.Boids()
	if got[0].Velocity.X <= 0 {
		t.Errorf("boid at origin velocity.x = %v; want > 0", got[0].Velocity.X)
	}
	if got[1].Velocity.X >= 0 {
		t.Errorf("boid at x=2 velocity.x = %v; want < 0", got[1].Velocity.X)
	}
}

func TestFlock_Avoidance(t *testing.T) {
	setup := func(mode AvoidanceMode) (Settings, *Flock) {
		s := DefaultSettings()
		s.Count = 2
		s.Wander.Strength = 0
		s.Alignment.Enabled = false
		s.Cohesion.Enabled = false
		s.Avoidance = RuleSettings{Radius: 0.8, Strength: 2, Enabled: true}
		s.AvoidanceMode = mode
		f := newTestFlock(t, s, fixedSource(0.5))
		f.boids[0] = Boid{Position: geometry.Vector3D{}, Scale: 1}
		f.boids[1] = Boid{Position: geometry.Vector3D{X: 0.5}, Scale: 1}
		return s, f
	}

	t.Run("Separate", func(t *testing.T) {
		s, f := setup(AvoidanceSeparate)
		f.Advance(frame, s)
		got := f.Boids()
		if got[0].Velocity.X >= 0 || got[1].Velocity.X <= 0 {
			t.Errorf("boids should move apart, got vx %v and %v", got[0].Velocity.X, got[1].Velocity.X)
		}
	})

	t.Run("Reference", func(t *testing.T) {
		s, f := setup(AvoidanceReference)
		f.Advance(frame, s)
		for i, b := range f.Boids() {
			if !b.Velocity.Eq(geometry.Zero) {
				t.Errorf("boid %d velocity = %v; want zero, avoidance is a no-op", i, b.Velocity)
			}
		}
	})
}

func TestFlock_DisabledAlignmentRemovesOnlyItsTerm(t *testing.T) {
	base := DefaultSettings()
	base.Count = 30
	base.Alignment.Radius = 3 // make sure neighbors exist

	noAlign := base
	noAlign.Alignment.Enabled = false

	a := newTestFlock(t, base, seeded(9))
	b := newTestFlock(t, noAlign, seeded(9))

	// give every boid a heading so the alignment sum is not zero
	r := seeded(10)
	for i := range a.boids {
		v := geometry.Vector3D{X: r.Float64() - 0.5, Y: r.Float64() - 0.5, Z: r.Float64() - 0.5}.Mul(0.05)
		a.boids[i].Velocity = v
		b.boids[i].Velocity = v
	}
	if a.boids[0] != b.boids[0] {
		t.Fatal("flocks with the same seed should start identical")
	}

	pre := a.Snapshot()
	rawA := make([]geometry.Vector3D, base.Count)
	rawB := make([]geometry.Vector3D, base.Count)
	a.SetObserver(func(i int, raw, _ geometry.Vector3D) { rawA[i] = raw })
	b.SetObserver(func(i int, raw, _ geometry.Vector3D) { rawB[i] = raw })

	a.Advance(frame, base)
	b.Advance(frame, noAlign)

	nonZero := 0
	for i := range pre {
		var sum geometry.Vector3D
		for j := range pre {
			if i == j {
				continue
			}
			d := pre[i].Position.DistanceTo(pre[j].Position)
			if d > 0 && d < base.Alignment.Radius {
				sum = sum.Add(pre[j].Velocity.Normalize().Mul(1 / d))
			}
		}
		term := sum.Normalize().Mul(base.Alignment.Strength)
		if !term.Eq(geometry.Zero) {
			nonZero++
		}
		if diff := rawA[i].Sub(rawB[i]); diff.Sub(term).Len() > 1e-9 {
			t.Errorf("boid %d: steering difference %v; want alignment term %v", i, diff, term)
		}
	}
	if nonZero == 0 {
		t.Error("test setup produced no alignment at all")
	}

	// Same seed and same random draws: a second run reproduces the disabled trajectory.
	c := newTestFlock(t, noAlign, seeded(9))
	for i := range c.boids {
		c.boids[i].Velocity = pre[i].Velocity
	}
	c.Advance(frame, noAlign)
	for i := range c.Boids() {
		if c.Boids()[i] != b.Boids()[i] {
			t.Fatalf("boid %d: run is not deterministic: %+v vs %+v", i, c.Boids()[i], b.Boids()[i])
		}
	}
}

func TestFlock_ReadsPreTickState(t *testing.T) {
	s := DefaultSettings()
	s.Count = 20
	s.Boundaries = geometry.Vector3D{X: 2, Y: 2, Z: 2}
	s.Cohesion.Radius = 5

	// fixed jitter keeps the random draws independent of the visiting order
	forward := newTestFlock(t, s, fixedSource(0.5))
	reversed := newTestFlock(t, s, fixedSource(0.5))
	n := s.Count
	r := seeded(12)
	for i := range forward.boids {
		forward.boids[i].Position = geometry.Vector3D{X: 4*r.Float64() - 2, Y: 4*r.Float64() - 2, Z: 4*r.Float64() - 2}
		forward.boids[i].Velocity = geometry.Vector3D{X: r.Float64() - 0.5, Y: r.Float64() - 0.5}.Mul(0.02)
	}
	for i := 0; i < n; i++ {
		reversed.boids[i] = forward.boids[n-1-i]
	}

	forward.Advance(frame, s)
	reversed.Advance(frame, s)

	for i := 0; i < n; i++ {
		a, b := forward.Boids()[i], reversed.Boids()[n-1-i]
		if a.Position.Sub(b.Position).Len() > 1e-12 || a.Velocity.Sub(b.Velocity).Len() > 1e-12 {
			t.Errorf("boid %d depends on processing order: %v vs %v", i, a, b)
		}
	}
}

func TestFlock_Reconfigure(t *testing.T) {
	s := DefaultSettings()
	s.Count = 50
	f := newTestFlock(t, s, seeded(11))

	t.Run("TuningKeepsBoids", func(t *testing.T) {
		before := f.Snapshot()
		tuned := s
		tuned.Cohesion.Strength = 8
		reseeded, err := f.Reconfigure(tuned, []string{"Koi_01", "Koi_02"})
		if err != nil || reseeded {
			t.Fatalf("Reconfigure(tuning) = %v, %v; want false, nil", reseeded, err)
		}
		for i := range before {
			if before[i] != f.Boids()[i] {
				t.Fatalf("boid %d changed on a non structural reconfigure", i)
			}
		}
	})

	t.Run("CountReseeds", func(t *testing.T) {
		bigger := s
		bigger.Count = 100
		reseeded, err := f.Reconfigure(bigger, []string{"Koi_01", "Koi_02"})
		if err != nil || !reseeded {
			t.Fatalf("Reconfigure(count) = %v, %v; want true, nil", reseeded, err)
		}
		if f.Len() != 100 {
			t.Fatalf("Len() = %d; want 100", f.Len())
		}
		for i, b := range f.Boids() {
			if b.Scale < bigger.MinScale || b.Scale > bigger.MaxScale {
				t.Errorf("boid %d scale %v outside range", i, b.Scale)
			}
			if !insideBox(b.Position, bigger.Boundaries) {
				t.Errorf("boid %d outside the box: %v", i, b.Position)
			}
		}
		// the write buffer must follow the new size
		f.Advance(frame, bigger)
		if f.Len() != 100 {
			t.Errorf("Len() after Advance = %d; want 100", f.Len())
		}
	})

	t.Run("AppearancesReseed", func(t *testing.T) {
		reseeded, err := f.Reconfigure(f.Structure(), []string{"Koi_08"})
		if err != nil || !reseeded {
			t.Fatalf("Reconfigure(theme) = %v, %v; want true, nil", reseeded, err)
		}
		for i, b := range f.Boids() {
			if b.Appearance != "Koi_08" {
				t.Errorf("boid %d appearance %q; want Koi_08", i, b.Appearance)
			}
		}
	})

	t.Run("InvalidLeavesFlockUntouched", func(t *testing.T) {
		before := f.Snapshot()
		bad := f.Structure()
		bad.Count = 10
		bad.MinScale, bad.MaxScale = 2, 1
		if _, err := f.Reconfigure(bad, nil); err == nil {
			t.Fatal("Reconfigure with inverted scales should fail")
		}
		if f.Len() != len(before) || f.Boids()[0] != before[0] {
			t.Error("flock changed after a rejected configuration")
		}
	})
}

func BenchmarkFlock_Advance(b *testing.B) {
	s := DefaultSettings()
	s.Count = 200
	f, err := NewFlock(s, nil, seeded(1))
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.Advance(frame, s)
	}
}

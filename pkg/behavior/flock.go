package behavior

import (
	"errors"
	"math"

	"github.com/lao-tseu-is-alive/go-boids3d/pkg/geometry"
)

// SteeringObserver receives, for every boid and every tick, the steering
// vector before and after it was clamped to MaxSteering*dt.
// It is called synchronously from Advance and must not retain the flock.
type SteeringObserver func(index int, raw, applied geometry.Vector3D)

// Flock owns the boids of one simulation session and advances them tick by tick.
// It is not safe for concurrent use: a single owner calls Advance once per frame.
type Flock struct {
	// boids is the current state; next is the write buffer of the running tick.
	boids []Boid
	next  []Boid

	rnd         RandomSource
	structure   Settings
	appearances []string
	observer    SteeringObserver
}

// NewFlock validates s and seeds s.Count boids inside the boundary box.
// appearances is the list of asset ids boids are dressed with; it may be empty.
func NewFlock(s Settings, appearances []string, rnd RandomSource) (*Flock, error) {
	if rnd == nil {
		return nil, errors.New("behavior: nil random source")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	f := &Flock{rnd: rnd}
	f.seed(s, appearances)
	return f, nil
}

// Reconfigure validates s and recreates the whole flock when s changes the
// population structure or the appearance list. Non-structural changes only
// need to be passed to the next Advance call. On error the flock is untouched.
func (f *Flock) Reconfigure(s Settings, appearances []string) (reseeded bool, err error) {
	if err := s.Validate(); err != nil {
		return false, err
	}
	if f.structure.SameStructure(s) && sameStrings(f.appearances, appearances) {
		f.structure = s
		return false, nil
	}
	f.seed(s, appearances)
	return true, nil
}

// Reseed recreates every boid with the current structure.
func (f *Flock) Reseed() {
	f.seed(f.structure, f.appearances)
}

func (f *Flock) seed(s Settings, appearances []string) {
	f.structure = s
	f.appearances = append([]string(nil), appearances...)
	f.boids = make([]Boid, s.Count)
	f.next = make([]Boid, s.Count)

	half := s.Boundaries
	for i := range f.boids {
		b := Boid{
			Position: geometry.Vector3D{
				X: randRange(f.rnd, -half.X, half.X),
				Y: randRange(f.rnd, -half.Y, half.Y),
			},
			WanderPhase: randRange(f.rnd, 0, 2*math.Pi),
			Scale:       randRange(f.rnd, s.MinScale, s.MaxScale),
		}
		if s.ThreeD {
			b.Position.Z = randRange(f.rnd, -half.Z, half.Z)
		}
		if len(f.appearances) > 0 {
			b.Appearance = f.appearances[randIndex(f.rnd, len(f.appearances))]
		}
		f.boids[i] = b
	}
}

// SetObserver installs o (nil removes it).
func (f *Flock) SetObserver(o SteeringObserver) {
	f.observer = o
}

// Len returns the number of boids.
func (f *Flock) Len() int {
	return len(f.boids)
}

// Boids returns the current state. The slice is owned by the flock and
// is only valid until the next Advance; use Snapshot to keep a copy.
func (f *Flock) Boids() []Boid {
	return f.boids
}

// Snapshot returns a copy of the current state.
func (f *Flock) Snapshot() []Boid {
	return append([]Boid(nil), f.boids...)
}

// Structure returns the settings the flock was last seeded or reconfigured with.
func (f *Flock) Structure() Settings {
	return f.structure
}

// Appearances returns the asset ids boids are drawn from.
func (f *Flock) Appearances() []string {
	return append([]string(nil), f.appearances...)
}

// Advance moves every boid by one tick of dt seconds using s.
// Every boid reads the pre-tick state of all the others: results are written
// into a second buffer that replaces the current one when the tick completes.
// Advance never fails; s is expected to have been validated.
func (f *Flock) Advance(dt float64, s Settings) {
	prev, next := f.boids, f.next
	for i := range prev {
		next[i] = f.steer(i, prev, dt, s)
	}
	f.boids, f.next = next, prev
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

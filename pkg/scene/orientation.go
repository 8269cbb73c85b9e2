package scene

import "github.com/lao-tseu-is-alive/go-boids3d/pkg/geometry"

// DefaultSmoothing is the fraction of the remaining turn applied each frame.
const DefaultSmoothing = 0.1

// Orientations keeps the displayed rotation of every boid. Each frame it
// turns a little towards the direction of travel, so heading changes look
// smooth even when the velocity flips abruptly.
type Orientations struct {
	Smoothing float64
	rotations []geometry.Quaternion
}

func NewOrientations(n int) *Orientations {
	o := &Orientations{Smoothing: DefaultSmoothing}
	o.Resize(n)
	return o
}

// Resize adjusts the number of tracked boids. Every rotation is reset to the
// identity when n differs from the current size, as the flock was reseeded.
func (o *Orientations) Resize(n int) {
	if n == len(o.rotations) {
		return
	}
	o.rotations = make([]geometry.Quaternion, n)
	o.Reset()
}

// Reset sets every rotation back to the identity.
func (o *Orientations) Reset() {
	for i := range o.rotations {
		o.rotations[i] = geometry.Identity
	}
}

// Len returns the number of tracked boids.
func (o *Orientations) Len() int {
	return len(o.rotations)
}

// Update moves the rotation of boid i towards its velocity and returns it.
// A zero velocity keeps the previous rotation.
func (o *Orientations) Update(i int, velocity geometry.Vector3D) geometry.Quaternion {
	current := o.rotations[i]
	if velocity.LenSqr() < geometry.Epsilon*geometry.Epsilon {
		return current
	}
	target := geometry.LookRotation(velocity, geometry.Up)
	o.rotations[i] = current.Slerp(target, o.Smoothing)
	return o.rotations[i]
}

// At returns the current rotation of boid i.
func (o *Orientations) At(i int) geometry.Quaternion {
	return o.rotations[i]
}

// BoidShape returns the world-space corners of the triangle drawn for a boid
// of the given scale: the nose along the heading, then the two wing tips.
func BoidShape(position geometry.Vector3D, rotation geometry.Quaternion, scale float64) [3]geometry.Vector3D {
	model := [3]geometry.Vector3D{
		{X: 0, Y: 0, Z: 0.35},
		{X: 0.15, Y: 0, Z: -0.2},
		{X: -0.15, Y: 0, Z: -0.2},
	}
	var out [3]geometry.Vector3D
	for i, v := range model {
		out[i] = position.Add(rotation.Rotate(v.Mul(scale)))
	}
	return out
}

package scene

import (
	"math"

	"github.com/lao-tseu-is-alive/go-boids3d/pkg/geometry"
)

const (
	defaultFOV      = 50 * math.Pi / 180
	defaultDistance = 24.0
	defaultPitch    = 0.2
	nearPlane       = 0.1
	maxPitch        = math.Pi/2 - 0.05
)

// Camera orbits around Target and projects world points to screen pixels.
// Yaw and Pitch are in radians; Pitch is clamped short of the poles.
type Camera struct {
	Target   geometry.Vector3D
	Distance float64
	Yaw      float64
	Pitch    float64
	FOV      float64 // vertical field of view, radians
	Width    float64
	Height   float64
}

// NewCamera returns a camera looking at the origin from the +z side.
func NewCamera(width, height float64) *Camera {
	return &Camera{
		Distance: defaultDistance,
		Pitch:    defaultPitch,
		FOV:      defaultFOV,
		Width:    width,
		Height:   height,
	}
}

// Resize updates the viewport.
func (c *Camera) Resize(width, height float64) {
	c.Width, c.Height = width, height
}

// Orbit rotates the camera around its target.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw = math.Mod(c.Yaw+dYaw, 2*math.Pi)
	c.Pitch = math.Max(-maxPitch, math.Min(maxPitch, c.Pitch+dPitch))
}

// Zoom multiplies the orbit distance by factor, keeping it beyond the near plane.
func (c *Camera) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	c.Distance = math.Max(2*nearPlane, c.Distance*factor)
}

// Eye returns the camera position in world space.
func (c *Camera) Eye() geometry.Vector3D {
	cp := math.Cos(c.Pitch)
	offset := geometry.NewVector(math.Sin(c.Yaw)*cp, math.Sin(c.Pitch), math.Cos(c.Yaw)*cp)
	return c.Target.Add(offset.Mul(c.Distance))
}

// basis returns the right, up and forward axes of the view.
func (c *Camera) basis() (right, up, forward geometry.Vector3D) {
	forward = c.Target.Sub(c.Eye()).Normalize()
	right = forward.Cross(geometry.Up).Normalize()
	up = right.Cross(forward)
	return right, up, forward
}

// focal is the distance in pixels of the image plane.
func (c *Camera) focal() float64 {
	return (c.Height / 2) / math.Tan(c.FOV/2)
}

// Project maps p to screen coordinates. depth is the distance along the view
// axis; ok is false for points behind the near plane.
func (c *Camera) Project(p geometry.Vector3D) (x, y, depth float64, ok bool) {
	right, up, forward := c.basis()
	rel := p.Sub(c.Eye())
	depth = rel.Dot(forward)
	if depth < nearPlane {
		return 0, 0, depth, false
	}
	f := c.focal() / depth
	x = c.Width/2 + rel.Dot(right)*f
	y = c.Height/2 - rel.Dot(up)*f
	return x, y, depth, true
}

// PixelsPerUnit returns how many pixels one world unit spans at depth.
func (c *Camera) PixelsPerUnit(depth float64) float64 {
	if depth < nearPlane {
		depth = nearPlane
	}
	return c.focal() / depth
}

// ResponsiveBoundaries shrinks the x and y half extents on windows smaller
// than 1920x1080, never below half of the configured size. z is unchanged.
func ResponsiveBoundaries(half geometry.Vector3D, width, height float64) geometry.Vector3D {
	sx := math.Max(0.5, width/1920)
	sy := math.Max(0.5, height/1080)
	return geometry.NewVector(half.X*sx, half.Y*sy, half.Z)
}

// BoxEdges returns the twelve edges of the box of half extents half centred on the origin.
func BoxEdges(half geometry.Vector3D) [12][2]geometry.Vector3D {
	var corners [8]geometry.Vector3D
	for i := range corners {
		sx, sy, sz := -1.0, -1.0, -1.0
		if i&1 != 0 {
			sx = 1
		}
		if i&2 != 0 {
			sy = 1
		}
		if i&4 != 0 {
			sz = 1
		}
		corners[i] = geometry.NewVector(sx*half.X, sy*half.Y, sz*half.Z)
	}
	var edges [12][2]geometry.Vector3D
	n := 0
	for i := range corners {
		for bit := 1; bit < 8; bit <<= 1 {
			if j := i | bit; j != i {
				edges[n] = [2]geometry.Vector3D{corners[i], corners[j]}
				n++
			}
		}
	}
	return edges
}

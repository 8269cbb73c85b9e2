package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is a rotation in 3D space stored as W + Xi + Yj + Zk.
// Only unit quaternions represent rotations; constructors in this file
// always return unit quaternions.
type Quaternion struct {
	W, X, Y, Z float64
}

// Identity is the rotation that leaves every vector unchanged.
var Identity = Quaternion{W: 1}

// Forward is the model-space axis that LookRotation aligns with the target direction.
var Forward = Vector3D{0, 0, 1}

// Up is the default world up axis.
var Up = Vector3D{0, 1, 0}

func (q Quaternion) number() quat.Number {
	return quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z}
}

func fromNumber(n quat.Number) Quaternion {
	return Quaternion{W: n.Real, X: n.Imag, Y: n.Jmag, Z: n.Kmag}
}

// String implements the fmt.Stringer interface.
func (q Quaternion) String() string {
	return fmt.Sprintf("[%.3f; %.3f, %.3f, %.3f]", q.W, q.X, q.Y, q.Z)
}

// FromAxisAngle builds the rotation of angle radians around axis.
// A zero axis yields the identity.
func FromAxisAngle(axis Vector3D, angle float64) Quaternion {
	n := axis.Normalize()
	if n.Eq(Zero) {
		return Identity
	}
	s := math.Sin(angle / 2)
	return Quaternion{W: math.Cos(angle / 2), X: n.X * s, Y: n.Y * s, Z: n.Z * s}
}

// Mul returns the composition q * other (other is applied first).
func (q Quaternion) Mul(other Quaternion) Quaternion {
	return fromNumber(quat.Mul(q.number(), other.number()))
}

// Conj returns the conjugate, which is the inverse for unit quaternions.
func (q Quaternion) Conj() Quaternion {
	return fromNumber(quat.Conj(q.number()))
}

// Len returns the norm of the quaternion.
func (q Quaternion) Len() float64 {
	return quat.Abs(q.number())
}

// Normalize returns q scaled to unit length, or Identity if q is zero.
func (q Quaternion) Normalize() Quaternion {
	l := q.Len()
	if l < Epsilon {
		return Identity
	}
	return fromNumber(quat.Scale(1/l, q.number()))
}

// Dot returns the 4D dot product of two quaternions.
func (q Quaternion) Dot(other Quaternion) float64 {
	return q.W*other.W + q.X*other.X + q.Y*other.Y + q.Z*other.Z
}

// Rotate applies the rotation to v.
func (q Quaternion) Rotate(v Vector3D) Vector3D {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q.number(), p), quat.Conj(q.number()))
	return Vector3D{r.Imag, r.Jmag, r.Kmag}
}

// LookRotation returns the rotation that turns Forward towards dir while
// keeping the model's up axis as close as possible to up.
// A zero dir yields the identity; a dir parallel to up falls back to another up axis.
func LookRotation(dir, up Vector3D) Quaternion {
	z := dir.Normalize()
	if z.Eq(Zero) {
		return Identity
	}
	x := up.Cross(z).Normalize()
	if x.Eq(Zero) {
		// dir is parallel to up
		x = Vector3D{0, 0, 1}.Cross(z).Normalize()
		if x.Eq(Zero) {
			x = Vector3D{1, 0, 0}
		}
	}
	y := z.Cross(x)
	return fromBasis(x, y, z)
}

// fromBasis converts an orthonormal basis (matrix columns x, y, z) to a quaternion.
func fromBasis(x, y, z Vector3D) Quaternion {
	m00, m01, m02 := x.X, y.X, z.X
	m10, m11, m12 := x.Y, y.Y, z.Y
	m20, m21, m22 := x.Z, y.Z, z.Z

	var q Quaternion
	trace := m00 + m11 + m22
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = Quaternion{W: 0.25 / s, X: (m21 - m12) * s, Y: (m02 - m20) * s, Z: (m10 - m01) * s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = Quaternion{W: (m21 - m12) / s, X: 0.25 * s, Y: (m01 + m10) / s, Z: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = Quaternion{W: (m02 - m20) / s, X: (m01 + m10) / s, Y: 0.25 * s, Z: (m12 + m21) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = Quaternion{W: (m10 - m01) / s, X: (m02 + m20) / s, Y: (m12 + m21) / s, Z: 0.25 * s}
	}
	return q.Normalize()
}

// Slerp spherically interpolates from q towards target by t in [0, 1],
// always along the shortest arc.
func (q Quaternion) Slerp(target Quaternion, t float64) Quaternion {
	if t <= 0 {
		return q
	}
	if t >= 1 {
		return target
	}
	cosHalf := q.Dot(target)
	if cosHalf < 0 {
		target = Quaternion{-target.W, -target.X, -target.Y, -target.Z}
		cosHalf = -cosHalf
	}
	if cosHalf >= 1-Epsilon {
		return q
	}

	sinHalf := math.Sqrt(1 - cosHalf*cosHalf)
	if sinHalf < 1e-6 {
		// nearly parallel: normalized linear interpolation is accurate enough
		return Quaternion{
			W: q.W + (target.W-q.W)*t,
			X: q.X + (target.X-q.X)*t,
			Y: q.Y + (target.Y-q.Y)*t,
			Z: q.Z + (target.Z-q.Z)*t,
		}.Normalize()
	}

	half := math.Atan2(sinHalf, cosHalf)
	ra := math.Sin((1-t)*half) / sinHalf
	rb := math.Sin(t*half) / sinHalf
	return Quaternion{
		W: q.W*ra + target.W*rb,
		X: q.X*ra + target.X*rb,
		Y: q.Y*ra + target.Y*rb,
		Z: q.Z*ra + target.Z*rb,
	}
}

// AngleTo returns the rotation angle in radians separating q and other.
func (q Quaternion) AngleTo(other Quaternion) float64 {
	d := math.Abs(q.Dot(other))
	if d > 1 {
		d = 1
	}
	return 2 * math.Acos(d)
}

// Eq reports whether q and other represent the same rotation within Epsilon.
func (q Quaternion) Eq(other Quaternion) bool {
	return math.Abs(math.Abs(q.Dot(other))-1) <= 1e-7
}

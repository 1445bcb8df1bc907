package geom

import (
	"fmt"
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Epsilon is the default tolerance used for point comparisons.
const Epsilon = 1e-9

// Vector is the constraint satisfied by the coordinate types.
type Vector[V any] interface {
	Vec2 | Vec3
	Add(V) V
	Sub(V) V
	MulScalar(float64) V
	Min(V) V
	Max(V) V
	Equals(V, float64) bool
	Dimension() int
}

// Vec2 is a 2D coordinate.
type Vec2 struct {
	X, Y float64
}

// Vec3 is a 3D coordinate.
type Vec3 struct {
	X, Y, Z float64
}

// Lerp returns a*(1-t) + b*t. Values of t outside [0, 1] extrapolate.
func Lerp[V Vector[V]](a, b V, t float64) V {
	return a.MulScalar(1 - t).Add(b.MulScalar(t))
}

// ---------------------------------------------------------------------------
// Vec2
// ---------------------------------------------------------------------------

// FromAngle returns the unit vector at the given angle in degrees,
// measured counter-clockwise from +X.
func FromAngle(deg float64) Vec2 {
	rad := deg * math.Pi / 180
	return Vec2{X: math.Cos(rad), Y: math.Sin(rad)}
}

func (a Vec2) Dimension() int { return 2 }

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }

func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }

func (a Vec2) MulScalar(k float64) Vec2 { return Vec2{a.X * k, a.Y * k} }

func (a Vec2) Neg() Vec2 { return Vec2{-a.X, -a.Y} }

func (a Vec2) Dot(b Vec2) float64 { return a.X*b.X + a.Y*b.Y }

// Cross returns the z component of the 3D cross product.
func (a Vec2) Cross(b Vec2) float64 { return a.X*b.Y - a.Y*b.X }

func (a Vec2) Length() float64 { return math.Hypot(a.X, a.Y) }

// Normalize returns the unit vector with the direction of a.
// The zero vector is returned unchanged.
func (a Vec2) Normalize() Vec2 {
	l := a.Length()
	if l == 0 {
		return a
	}
	return a.MulScalar(1 / l)
}

// Rotate rotates a counter-clockwise by deg degrees around the origin.
func (a Vec2) Rotate(deg float64) Vec2 {
	rad := deg * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)
	return Vec2{a.X*c - a.Y*s, a.X*s + a.Y*c}
}

// Angle returns the direction of a in degrees, in (-180, 180].
func (a Vec2) Angle() float64 {
	return math.Atan2(a.Y, a.X) * 180 / math.Pi
}

func (a Vec2) Min(b Vec2) Vec2 { return Vec2{math.Min(a.X, b.X), math.Min(a.Y, b.Y)} }

func (a Vec2) Max(b Vec2) Vec2 { return Vec2{math.Max(a.X, b.X), math.Max(a.Y, b.Y)} }

// Equals reports whether a and b are within tol on every axis.
func (a Vec2) Equals(b Vec2, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

// Lift returns the 3D vector (X, Y, z).
func (a Vec2) Lift(z float64) Vec3 { return Vec3{a.X, a.Y, z} }

// SDF converts a to the sdfx vector type.
func (a Vec2) SDF() v2.Vec { return v2.Vec{X: a.X, Y: a.Y} }

func (a Vec2) String() string { return fmt.Sprintf("(%g, %g)", a.X, a.Y) }

func vec2FromSDF(v v2.Vec) Vec2 { return Vec2{v.X, v.Y} }

// ---------------------------------------------------------------------------
// Vec3
// ---------------------------------------------------------------------------

func (a Vec3) Dimension() int { return 3 }

func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }

func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

func (a Vec3) MulScalar(k float64) Vec3 { return Vec3{a.X * k, a.Y * k, a.Z * k} }

func (a Vec3) Neg() Vec3 { return Vec3{-a.X, -a.Y, -a.Z} }

func (a Vec3) Dot(b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

func (a Vec3) Length() float64 { return math.Sqrt(a.Dot(a)) }

func (a Vec3) Normalize() Vec3 {
	l := a.Length()
	if l == 0 {
		return a
	}
	return a.MulScalar(1 / l)
}

func (a Vec3) Min(b Vec3) Vec3 {
	return Vec3{math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z)}
}

func (a Vec3) Max(b Vec3) Vec3 {
	return Vec3{math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z)}
}

func (a Vec3) Equals(b Vec3, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

// XY drops the Z component.
func (a Vec3) XY() Vec2 { return Vec2{a.X, a.Y} }

// SDF converts a to the sdfx vector type.
func (a Vec3) SDF() v3.Vec { return v3.Vec{X: a.X, Y: a.Y, Z: a.Z} }

func (a Vec3) String() string { return fmt.Sprintf("(%g, %g, %g)", a.X, a.Y, a.Z) }

func vec3FromSDF(v v3.Vec) Vec3 { return Vec3{v.X, v.Y, v.Z} }

package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Transformation maps a coordinate to a new coordinate. Implementations are
// pure values; Apply never mutates shared state.
type Transformation[V Vector[V]] interface {
	Apply(V) V
	// IsIdentity lets primitives skip the per-point work.
	IsIdentity() bool
}

// Compile-time interface checks.
var (
	_ Transformation[Vec2] = Transformation2D{}
	_ Transformation[Vec3] = Transformation3D{}
)

func degToRad(deg float64) float64 { return deg * math.Pi / 180 }

// isFullTurn reports whether deg is a multiple of 360.
func isFullTurn(deg float64) bool {
	return math.Mod(deg, 360) == 0
}

// ---------------------------------------------------------------------------
// 2D
// ---------------------------------------------------------------------------

// Transformation2D is a 2D affine transformation backed by an sdfx 3x3 matrix.
// The zero value is the identity.
type Transformation2D struct {
	m        sdf.M33
	identity bool
}

// Identity2D returns the identity transformation.
func Identity2D() Transformation2D {
	return Transformation2D{m: sdf.Identity2d(), identity: true}
}

// Rotation2D rotates counter-clockwise by deg degrees around the origin.
func Rotation2D(deg float64) Transformation2D {
	if isFullTurn(deg) {
		return Identity2D()
	}
	return Transformation2D{m: sdf.Rotate2d(degToRad(deg))}
}

// Scale2D scales each axis independently.
func Scale2D(x, y float64) Transformation2D {
	if x == 1 && y == 1 {
		return Identity2D()
	}
	return Transformation2D{m: sdf.Scale2d(v2.Vec{X: x, Y: y})}
}

// UniformScale2D scales both axes by k.
func UniformScale2D(k float64) Transformation2D {
	return Scale2D(k, k)
}

// Parity2D mirrors through the origin.
func Parity2D() Transformation2D {
	return Scale2D(-1, -1)
}

// XReflection2D negates X, mirroring across the Y axis.
func XReflection2D() Transformation2D {
	return Scale2D(-1, 1)
}

// YReflection2D negates Y, mirroring across the X axis.
func YReflection2D() Transformation2D {
	return Scale2D(1, -1)
}

// Translation2D moves by d.
func Translation2D(d Vec2) Transformation2D {
	if d == (Vec2{}) {
		return Identity2D()
	}
	return Transformation2D{m: sdf.Translate2d(d.SDF())}
}

// Compose returns the transformation that applies o first, then t.
func (t Transformation2D) Compose(o Transformation2D) Transformation2D {
	switch {
	case t.IsIdentity():
		return o
	case o.IsIdentity():
		return t
	}
	return Transformation2D{m: t.m.Mul(o.m)}
}

// Apply transforms p.
func (t Transformation2D) Apply(p Vec2) Vec2 {
	if t.IsIdentity() {
		return p
	}
	return vec2FromSDF(t.m.MulPosition(p.SDF()))
}

// IsIdentity is also true for the zero value, whose matrix is all zeros.
func (t Transformation2D) IsIdentity() bool { return t.identity || t.m == (sdf.M33{}) }

// Matrix returns the underlying sdfx matrix.
func (t Transformation2D) Matrix() sdf.M33 {
	if t.m == (sdf.M33{}) {
		return sdf.Identity2d()
	}
	return t.m
}

// ---------------------------------------------------------------------------
// 3D
// ---------------------------------------------------------------------------

// Transformation3D is a 3D affine transformation backed by an sdfx 4x4 matrix.
// The zero value is the identity.
type Transformation3D struct {
	m        sdf.M44
	identity bool
}

func Identity3D() Transformation3D {
	return Transformation3D{m: sdf.Identity3d(), identity: true}
}

func Scale3D(x, y, z float64) Transformation3D {
	if x == 1 && y == 1 && z == 1 {
		return Identity3D()
	}
	return Transformation3D{m: sdf.Scale3d(v3.Vec{X: x, Y: y, Z: z})}
}

func RotationX3D(deg float64) Transformation3D {
	if isFullTurn(deg) {
		return Identity3D()
	}
	return Transformation3D{m: sdf.RotateX(degToRad(deg))}
}

func RotationY3D(deg float64) Transformation3D {
	if isFullTurn(deg) {
		return Identity3D()
	}
	return Transformation3D{m: sdf.RotateY(degToRad(deg))}
}

func RotationZ3D(deg float64) Transformation3D {
	if isFullTurn(deg) {
		return Identity3D()
	}
	return Transformation3D{m: sdf.RotateZ(degToRad(deg))}
}

func Parity3D() Transformation3D {
	return Scale3D(-1, -1, -1)
}

func Translation3D(d Vec3) Transformation3D {
	if d == (Vec3{}) {
		return Identity3D()
	}
	return Transformation3D{m: sdf.Translate3d(d.SDF())}
}

// Compose returns the transformation that applies o first, then t.
func (t Transformation3D) Compose(o Transformation3D) Transformation3D {
	switch {
	case t.IsIdentity():
		return o
	case o.IsIdentity():
		return t
	}
	return Transformation3D{m: t.m.Mul(o.m)}
}

func (t Transformation3D) Apply(p Vec3) Vec3 {
	if t.IsIdentity() {
		return p
	}
	return vec3FromSDF(t.m.MulPosition(p.SDF()))
}

// IsIdentity is also true for the zero value, whose matrix is all zeros.
func (t Transformation3D) IsIdentity() bool { return t.identity || t.m == (sdf.M44{}) }

func (t Transformation3D) Matrix() sdf.M44 {
	if t.m == (sdf.M44{}) {
		return sdf.Identity3d()
	}
	return t.m
}

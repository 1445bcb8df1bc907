package geom

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

var (
	// ErrArityMismatch is returned when a point set does not match the
	// fixed arity of a primitive.
	ErrArityMismatch = errors.New("geom: arity mismatch")

	// ErrNotReversible is returned by Reverse on primitives whose point
	// order carries meaning.
	ErrNotReversible = errors.New("geom: primitive is not reversible")

	// ErrInvalidWindowSize is returned when a window is larger than the
	// point count.
	ErrInvalidWindowSize = errors.New("geom: invalid window size")
)

// Primitive is the contract shared by every geometric shape.
type Primitive[V Vector[V]] interface {
	// Dimension is 2 or 3.
	Dimension() int
	// IsInfinite is true for shapes with infinite extent, like construction lines.
	IsInfinite() bool
	IsClosed() bool
	IsReversible() bool
	NumberOfPoints() int
	// Points yields the defining points in order. The sequence can be
	// iterated any number of times.
	Points() iter.Seq[V]
	// SetPoints replaces the defining points.
	SetPoints(points []V) error
	// BoundingBox returns false for infinite primitives.
	BoundingBox() (BoundingBox[V], bool)
	ApplyTransformation(t Transformation[V])
	Clone() Primitive[V]
	Reverse() (Primitive[V], error)
}

// Reversible primitives have a meaningful start and end.
type Reversible[V Vector[V]] interface {
	Primitive[V]
	StartPoint() V
	EndPoint() V
	ReversedPoints() iter.Seq[V]
}

// Closed primitives are cyclic.
type Closed[V Vector[V]] interface {
	Primitive[V]
	// ClosedPoints returns the points followed by the start point.
	ClosedPoints() []V
}

// PolygonConvertible primitives can produce a polygon from their points.
type PolygonConvertible interface {
	ToPolygon() *Polygon2D
}

// PathConvertible primitives can produce a path.
type PathConvertible interface {
	ToPath() *Path2D
}

// Transform applies t to p. When clone is set p is copied first and left
// untouched. Identity transformations skip the per-point work.
func Transform[V Vector[V], P Primitive[V]](p P, t Transformation[V], clone bool) P {
	obj := p
	if clone {
		obj = p.Clone().(P)
	}
	if !t.IsIdentity() {
		obj.ApplyTransformation(t)
	}
	return obj
}

// Mirror maps p through the origin.
func Mirror[P Primitive[Vec2]](p P, clone bool) P {
	return Transform[Vec2, P](p, Parity2D(), clone)
}

// XMirror negates the X coordinate of every point of p.
func XMirror[P Primitive[Vec2]](p P, clone bool) P {
	return Transform[Vec2, P](p, XReflection2D(), clone)
}

// YMirror negates the Y coordinate of every point of p.
func YMirror[P Primitive[Vec2]](p P, clone bool) P {
	return Transform[Vec2, P](p, YReflection2D(), clone)
}

// Rotate turns p counter-clockwise by deg degrees around the origin.
func Rotate[P Primitive[Vec2]](p P, deg float64, clone bool) P {
	return Transform[Vec2, P](p, Rotation2D(deg), clone)
}

// Scale scales p by x and y around the origin.
func Scale[P Primitive[Vec2]](p P, x, y float64, clone bool) P {
	return Transform[Vec2, P](p, Scale2D(x, y), clone)
}

// UniformScale scales both axes of p by k.
func UniformScale[P Primitive[Vec2]](p P, k float64, clone bool) P {
	return Scale(p, k, k, clone)
}

// PointsOf collects the points of p into a new slice.
func PointsOf[V Vector[V]](p Primitive[V]) []V {
	return slices.Collect(p.Points())
}

func arityError(want, got int) error {
	return fmt.Errorf("%w: want %d points, got %d", ErrArityMismatch, want, got)
}

func closedPoints[V Vector[V]](p Reversible[V]) []V {
	points := slices.Collect(p.Points())
	if len(points) == 0 {
		return points
	}
	return append(points, p.StartPoint())
}

func seqOf[V any](points ...V) iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, p := range points {
			if !yield(p) {
				return
			}
		}
	}
}

func transformAll[V Vector[V]](t Transformation[V], points ...V) []V {
	out := make([]V, len(points))
	for i, p := range points {
		out[i] = t.Apply(p)
	}
	return out
}

// ---------------------------------------------------------------------------
// Primitive1P
// ---------------------------------------------------------------------------

// Primitive1P stores a single point.
type Primitive1P[V Vector[V]] struct {
	P0 V
}

func (p *Primitive1P[V]) Dimension() int      { return p.P0.Dimension() }
func (p *Primitive1P[V]) IsInfinite() bool    { return false }
func (p *Primitive1P[V]) IsClosed() bool      { return false }
func (p *Primitive1P[V]) IsReversible() bool  { return true }
func (p *Primitive1P[V]) NumberOfPoints() int { return 1 }

func (p *Primitive1P[V]) Points() iter.Seq[V] { return seqOf(p.P0) }

// ReversedPoints is the point itself.
func (p *Primitive1P[V]) ReversedPoints() iter.Seq[V] { return p.Points() }

func (p *Primitive1P[V]) StartPoint() V { return p.P0 }
func (p *Primitive1P[V]) EndPoint() V   { return p.P0 }

func (p *Primitive1P[V]) SetPoints(points []V) error {
	if len(points) != 1 {
		return arityError(1, len(points))
	}
	p.P0 = points[0]
	return nil
}

func (p *Primitive1P[V]) BoundingBox() (BoundingBox[V], bool) {
	return BoundingBox[V]{Min: p.P0, Max: p.P0}, true
}

func (p *Primitive1P[V]) ApplyTransformation(t Transformation[V]) {
	p.P0 = t.Apply(p.P0)
}

// ---------------------------------------------------------------------------
// Primitive2P
// ---------------------------------------------------------------------------

// Primitive2P stores two points.
type Primitive2P[V Vector[V]] struct {
	P0, P1 V
}

func (p *Primitive2P[V]) Dimension() int      { return p.P0.Dimension() }
func (p *Primitive2P[V]) IsInfinite() bool    { return false }
func (p *Primitive2P[V]) IsClosed() bool      { return false }
func (p *Primitive2P[V]) IsReversible() bool  { return true }
func (p *Primitive2P[V]) NumberOfPoints() int { return 2 }

func (p *Primitive2P[V]) Points() iter.Seq[V]         { return seqOf(p.P0, p.P1) }
func (p *Primitive2P[V]) ReversedPoints() iter.Seq[V] { return seqOf(p.P1, p.P0) }

func (p *Primitive2P[V]) StartPoint() V { return p.P0 }
func (p *Primitive2P[V]) EndPoint() V   { return p.P1 }

func (p *Primitive2P[V]) SetPoints(points []V) error {
	if len(points) != 2 {
		return arityError(2, len(points))
	}
	p.P0, p.P1 = points[0], points[1]
	return nil
}

func (p *Primitive2P[V]) BoundingBox() (BoundingBox[V], bool) {
	return BoundingBoxFromPoints(p.Points())
}

func (p *Primitive2P[V]) ApplyTransformation(t Transformation[V]) {
	p.P0, p.P1 = t.Apply(p.P0), t.Apply(p.P1)
}

// Interpolate returns P0*(1-t) + P1*t.
func (p *Primitive2P[V]) Interpolate(t float64) V {
	return Lerp(p.P0, p.P1, t)
}

// ---------------------------------------------------------------------------
// Primitive3P
// ---------------------------------------------------------------------------

// Primitive3P stores three points.
type Primitive3P[V Vector[V]] struct {
	P0, P1, P2 V
}

func (p *Primitive3P[V]) Dimension() int      { return p.P0.Dimension() }
func (p *Primitive3P[V]) IsInfinite() bool    { return false }
func (p *Primitive3P[V]) IsClosed() bool      { return false }
func (p *Primitive3P[V]) IsReversible() bool  { return true }
func (p *Primitive3P[V]) NumberOfPoints() int { return 3 }

func (p *Primitive3P[V]) Points() iter.Seq[V]         { return seqOf(p.P0, p.P1, p.P2) }
func (p *Primitive3P[V]) ReversedPoints() iter.Seq[V] { return seqOf(p.P2, p.P1, p.P0) }

func (p *Primitive3P[V]) StartPoint() V { return p.P0 }
func (p *Primitive3P[V]) EndPoint() V   { return p.P2 }

func (p *Primitive3P[V]) SetPoints(points []V) error {
	if len(points) != 3 {
		return arityError(3, len(points))
	}
	p.P0, p.P1, p.P2 = points[0], points[1], points[2]
	return nil
}

func (p *Primitive3P[V]) BoundingBox() (BoundingBox[V], bool) {
	return BoundingBoxFromPoints(p.Points())
}

func (p *Primitive3P[V]) ApplyTransformation(t Transformation[V]) {
	pts := transformAll(t, p.P0, p.P1, p.P2)
	p.P0, p.P1, p.P2 = pts[0], pts[1], pts[2]
}

// ---------------------------------------------------------------------------
// Primitive4P
// ---------------------------------------------------------------------------

// Primitive4P stores four points.
type Primitive4P[V Vector[V]] struct {
	P0, P1, P2, P3 V
}

func (p *Primitive4P[V]) Dimension() int      { return p.P0.Dimension() }
func (p *Primitive4P[V]) IsInfinite() bool    { return false }
func (p *Primitive4P[V]) IsClosed() bool      { return false }
func (p *Primitive4P[V]) IsReversible() bool  { return true }
func (p *Primitive4P[V]) NumberOfPoints() int { return 4 }

func (p *Primitive4P[V]) Points() iter.Seq[V] { return seqOf(p.P0, p.P1, p.P2, p.P3) }

func (p *Primitive4P[V]) ReversedPoints() iter.Seq[V] {
	return seqOf(p.P3, p.P2, p.P1, p.P0)
}

func (p *Primitive4P[V]) StartPoint() V { return p.P0 }
func (p *Primitive4P[V]) EndPoint() V   { return p.P3 }

func (p *Primitive4P[V]) SetPoints(points []V) error {
	if len(points) != 4 {
		return arityError(4, len(points))
	}
	p.P0, p.P1, p.P2, p.P3 = points[0], points[1], points[2], points[3]
	return nil
}

func (p *Primitive4P[V]) BoundingBox() (BoundingBox[V], bool) {
	return BoundingBoxFromPoints(p.Points())
}

func (p *Primitive4P[V]) ApplyTransformation(t Transformation[V]) {
	pts := transformAll(t, p.P0, p.P1, p.P2, p.P3)
	p.P0, p.P1, p.P2, p.P3 = pts[0], pts[1], pts[2], pts[3]
}

// ---------------------------------------------------------------------------
// PrimitiveNP
// ---------------------------------------------------------------------------

// PrimitiveNP stores a variable number of points.
type PrimitiveNP[V Vector[V]] struct {
	points []V
}

func (p *PrimitiveNP[V]) Dimension() int {
	var zero V
	return zero.Dimension()
}

func (p *PrimitiveNP[V]) IsInfinite() bool    { return false }
func (p *PrimitiveNP[V]) IsClosed() bool      { return false }
func (p *PrimitiveNP[V]) IsReversible() bool  { return true }
func (p *PrimitiveNP[V]) NumberOfPoints() int { return len(p.points) }

func (p *PrimitiveNP[V]) Points() iter.Seq[V] { return seqOf(p.points...) }

func (p *PrimitiveNP[V]) ReversedPoints() iter.Seq[V] {
	return func(yield func(V) bool) {
		for i := len(p.points) - 1; i >= 0; i-- {
			if !yield(p.points[i]) {
				return
			}
		}
	}
}

// StartPoint panics on an empty primitive.
func (p *PrimitiveNP[V]) StartPoint() V { return p.points[0] }

// EndPoint panics on an empty primitive.
func (p *PrimitiveNP[V]) EndPoint() V { return p.points[len(p.points)-1] }

// At returns the i-th point.
func (p *PrimitiveNP[V]) At(i int) V { return p.points[i] }

// SetPoints copies points; any count is accepted.
func (p *PrimitiveNP[V]) SetPoints(points []V) error {
	p.points = slices.Clone(points)
	return nil
}

func (p *PrimitiveNP[V]) BoundingBox() (BoundingBox[V], bool) {
	return BoundingBoxFromPoints(p.Points())
}

func (p *PrimitiveNP[V]) ApplyTransformation(t Transformation[V]) {
	p.points = transformAll(t, p.points...)
}

// IterOnNuplets yields every contiguous window of size points.
// Each yielded slice is a fresh copy. A size of 0 yields
// NumberOfPoints()+1 empty windows; negative sizes are rejected.
func (p *PrimitiveNP[V]) IterOnNuplets(size int) (iter.Seq[[]V], error) {
	if size < 0 || size > len(p.points) {
		return nil, fmt.Errorf("%w: size %d, number of points %d", ErrInvalidWindowSize, size, len(p.points))
	}
	points := p.points
	return func(yield func([]V) bool) {
		for i := 0; i+size <= len(points); i++ {
			if !yield(slices.Clone(points[i : i+size])) {
				return
			}
		}
	}, nil
}

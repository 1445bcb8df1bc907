package geom

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/deadsy/sdfx/sdf"
)

// ErrNoIntersection is returned when two lines are parallel.
var ErrNoIntersection = errors.New("geom: lines do not intersect")

// Compile-time interface checks.
var (
	_ Reversible[Vec2] = (*Point2D)(nil)
	_ Reversible[Vec3] = (*Point3D)(nil)
	_ Reversible[Vec2] = (*Segment2D)(nil)
	_ Reversible[Vec3] = (*Segment3D)(nil)
	_ Primitive[Vec2]  = (*Line2D)(nil)
	_ Closed[Vec2]     = (*Triangle2D)(nil)
	_ Reversible[Vec2] = (*CubicBezier2D)(nil)
	_ Reversible[Vec2] = (*Polyline2D)(nil)
	_ Closed[Vec2]     = (*Polygon2D)(nil)

	_ PathConvertible    = (*Segment2D)(nil)
	_ PathConvertible    = (*Triangle2D)(nil)
	_ PathConvertible    = (*CubicBezier2D)(nil)
	_ PathConvertible    = (*Polyline2D)(nil)
	_ PathConvertible    = (*Polygon2D)(nil)
	_ PolygonConvertible = (*Triangle2D)(nil)
	_ PolygonConvertible = (*Polyline2D)(nil)
)

// ---------------------------------------------------------------------------
// Points
// ---------------------------------------------------------------------------

// Point2D is a single 2D point.
type Point2D struct {
	Primitive1P[Vec2]
}

func NewPoint2D(p Vec2) *Point2D {
	return &Point2D{Primitive1P: Primitive1P[Vec2]{P0: p}}
}

func (p *Point2D) Clone() Primitive[Vec2] { return NewPoint2D(p.P0) }

// Reverse returns a copy; a point is its own reverse.
func (p *Point2D) Reverse() (Primitive[Vec2], error) { return p.Clone(), nil }

func (p *Point2D) String() string { return "Point2D" + p.P0.String() }

// Point3D is a single 3D point.
type Point3D struct {
	Primitive1P[Vec3]
}

func NewPoint3D(p Vec3) *Point3D {
	return &Point3D{Primitive1P: Primitive1P[Vec3]{P0: p}}
}

func (p *Point3D) Clone() Primitive[Vec3]            { return NewPoint3D(p.P0) }
func (p *Point3D) Reverse() (Primitive[Vec3], error) { return p.Clone(), nil }

// ---------------------------------------------------------------------------
// Segments
// ---------------------------------------------------------------------------

// Segment2D is a bounded straight segment.
type Segment2D struct {
	Primitive2P[Vec2]
}

func NewSegment2D(p0, p1 Vec2) *Segment2D {
	return &Segment2D{Primitive2P: Primitive2P[Vec2]{P0: p0, P1: p1}}
}

func (s *Segment2D) Clone() Primitive[Vec2] { return NewSegment2D(s.P0, s.P1) }

func (s *Segment2D) Reverse() (Primitive[Vec2], error) {
	return NewSegment2D(s.P1, s.P0), nil
}

func (s *Segment2D) Length() float64 { return s.P1.Sub(s.P0).Length() }

// Direction is the unit vector from P0 to P1.
func (s *Segment2D) Direction() Vec2 { return s.P1.Sub(s.P0).Normalize() }

// Line returns the infinite line supporting the segment.
func (s *Segment2D) Line() *Line2D { return NewLine2D(s.P0, s.P1.Sub(s.P0)) }

func (s *Segment2D) ToPath() *Path2D { return pathFromPoints(s) }

func (s *Segment2D) String() string {
	return fmt.Sprintf("Segment2D[%s %s]", s.P0, s.P1)
}

// Segment3D is a bounded straight segment in space.
type Segment3D struct {
	Primitive2P[Vec3]
}

func NewSegment3D(p0, p1 Vec3) *Segment3D {
	return &Segment3D{Primitive2P: Primitive2P[Vec3]{P0: p0, P1: p1}}
}

func (s *Segment3D) Clone() Primitive[Vec3] { return NewSegment3D(s.P0, s.P1) }

func (s *Segment3D) Reverse() (Primitive[Vec3], error) {
	return NewSegment3D(s.P1, s.P0), nil
}

func (s *Segment3D) Length() float64 { return s.P1.Sub(s.P0).Length() }

// Project drops the Z coordinate.
func (s *Segment3D) Project() *Segment2D { return NewSegment2D(s.P0.XY(), s.P1.XY()) }

// ---------------------------------------------------------------------------
// Line2D
// ---------------------------------------------------------------------------

// Line2D is an infinite construction line through P0 with direction P1.
// P1 is a vector, not a point, so the pair cannot be reversed.
type Line2D struct {
	Primitive2P[Vec2]
}

func NewLine2D(point, direction Vec2) *Line2D {
	return &Line2D{Primitive2P: Primitive2P[Vec2]{P0: point, P1: direction}}
}

// LineThrough returns the line through a and b.
func LineThrough(a, b Vec2) *Line2D { return NewLine2D(a, b.Sub(a)) }

func (l *Line2D) IsInfinite() bool   { return true }
func (l *Line2D) IsReversible() bool { return false }

func (l *Line2D) BoundingBox() (BoundingBox[Vec2], bool) {
	return BoundingBox[Vec2]{}, false
}

func (l *Line2D) Clone() Primitive[Vec2] { return NewLine2D(l.P0, l.P1) }

func (l *Line2D) Reverse() (Primitive[Vec2], error) { return nil, ErrNotReversible }

// ApplyTransformation maps the point and the direction separately so that
// translations do not move the direction.
func (l *Line2D) ApplyTransformation(t Transformation[Vec2]) {
	p := t.Apply(l.P0)
	q := t.Apply(l.P0.Add(l.P1))
	l.P0, l.P1 = p, q.Sub(p)
}

// PointAt returns P0 + s*P1.
func (l *Line2D) PointAt(s float64) Vec2 { return l.P0.Add(l.P1.MulScalar(s)) }

// Intersect returns the intersection of two lines.
func (l *Line2D) Intersect(o *Line2D) (Vec2, error) {
	denom := l.P1.Cross(o.P1)
	if math.Abs(denom) < Epsilon {
		return Vec2{}, ErrNoIntersection
	}
	s := o.P0.Sub(l.P0).Cross(o.P1) / denom
	return l.PointAt(s), nil
}

// ---------------------------------------------------------------------------
// Triangle2D
// ---------------------------------------------------------------------------

// Triangle2D is a closed 3-point primitive.
type Triangle2D struct {
	Primitive3P[Vec2]
}

func NewTriangle2D(p0, p1, p2 Vec2) *Triangle2D {
	return &Triangle2D{Primitive3P: Primitive3P[Vec2]{P0: p0, P1: p1, P2: p2}}
}

func (t *Triangle2D) IsClosed() bool { return true }

func (t *Triangle2D) Clone() Primitive[Vec2] { return NewTriangle2D(t.P0, t.P1, t.P2) }

func (t *Triangle2D) Reverse() (Primitive[Vec2], error) {
	return NewTriangle2D(t.P2, t.P1, t.P0), nil
}

func (t *Triangle2D) ClosedPoints() []Vec2 { return closedPoints[Vec2](t) }

func (t *Triangle2D) ToPolygon() *Polygon2D { return NewPolygon2D(t.P0, t.P1, t.P2) }

func (t *Triangle2D) ToPath() *Path2D { return pathFromPoints(t) }

// Area is positive for counter-clockwise triangles.
func (t *Triangle2D) Area() float64 {
	return t.P1.Sub(t.P0).Cross(t.P2.Sub(t.P0)) / 2
}

// ---------------------------------------------------------------------------
// CubicBezier2D
// ---------------------------------------------------------------------------

// CubicBezier2D is a cubic Bézier curve; P1 and P2 are control points.
type CubicBezier2D struct {
	Primitive4P[Vec2]
}

func NewCubicBezier2D(p0, p1, p2, p3 Vec2) *CubicBezier2D {
	return &CubicBezier2D{Primitive4P: Primitive4P[Vec2]{P0: p0, P1: p1, P2: p2, P3: p3}}
}

func (c *CubicBezier2D) Clone() Primitive[Vec2] {
	return NewCubicBezier2D(c.P0, c.P1, c.P2, c.P3)
}

func (c *CubicBezier2D) Reverse() (Primitive[Vec2], error) {
	return NewCubicBezier2D(c.P3, c.P2, c.P1, c.P0), nil
}

// PointAt evaluates the curve with de Casteljau's algorithm.
func (c *CubicBezier2D) PointAt(t float64) Vec2 {
	a := Lerp(c.P0, c.P1, t)
	b := Lerp(c.P1, c.P2, t)
	d := Lerp(c.P2, c.P3, t)
	ab := Lerp(a, b, t)
	bd := Lerp(b, d, t)
	return Lerp(ab, bd, t)
}

// Flatten approximates the curve by a polyline of n segments.
func (c *CubicBezier2D) Flatten(n int) *Polyline2D {
	if n < 1 {
		n = 1
	}
	points := make([]Vec2, 0, n+1)
	for i := 0; i <= n; i++ {
		points = append(points, c.PointAt(float64(i)/float64(n)))
	}
	return NewPolyline2D(points...)
}

// Length approximates the arc length with a 64 segment polyline.
func (c *CubicBezier2D) Length() float64 {
	return c.Flatten(64).Length()
}

func (c *CubicBezier2D) ToPath() *Path2D {
	path := NewPath2D(c.P0)
	path.CubicTo(c.P1, c.P2, c.P3)
	return path
}

// ---------------------------------------------------------------------------
// Polyline2D and Polygon2D
// ---------------------------------------------------------------------------

// Polyline2D is an open chain of points.
type Polyline2D struct {
	PrimitiveNP[Vec2]
}

func NewPolyline2D(points ...Vec2) *Polyline2D {
	return &Polyline2D{PrimitiveNP: PrimitiveNP[Vec2]{points: slices.Clone(points)}}
}

func (p *Polyline2D) Clone() Primitive[Vec2] { return NewPolyline2D(p.points...) }

func (p *Polyline2D) Reverse() (Primitive[Vec2], error) {
	return NewPolyline2D(slices.Collect(p.ReversedPoints())...), nil
}

// Length is the sum of the segment lengths.
func (p *Polyline2D) Length() float64 {
	var l float64
	for i := 1; i < len(p.points); i++ {
		l += p.points[i].Sub(p.points[i-1]).Length()
	}
	return l
}

// Segments yields each consecutive pair as a segment.
func (p *Polyline2D) Segments() iter.Seq[*Segment2D] {
	return func(yield func(*Segment2D) bool) {
		for i := 1; i < len(p.points); i++ {
			if !yield(NewSegment2D(p.points[i-1], p.points[i])) {
				return
			}
		}
	}
}

func (p *Polyline2D) ToPolygon() *Polygon2D { return NewPolygon2D(p.points...) }

func (p *Polyline2D) ToPath() *Path2D { return pathFromPoints(p) }

// Polygon2D is a closed chain of points.
type Polygon2D struct {
	PrimitiveNP[Vec2]
}

func NewPolygon2D(points ...Vec2) *Polygon2D {
	return &Polygon2D{PrimitiveNP: PrimitiveNP[Vec2]{points: slices.Clone(points)}}
}

func (p *Polygon2D) IsClosed() bool { return true }

func (p *Polygon2D) Clone() Primitive[Vec2] { return NewPolygon2D(p.points...) }

func (p *Polygon2D) Reverse() (Primitive[Vec2], error) {
	return NewPolygon2D(slices.Collect(p.ReversedPoints())...), nil
}

func (p *Polygon2D) ClosedPoints() []Vec2 { return closedPoints[Vec2](p) }

// Area uses the shoelace formula; positive for counter-clockwise polygons.
func (p *Polygon2D) Area() float64 {
	var a float64
	n := len(p.points)
	for i := range n {
		a += p.points[i].Cross(p.points[(i+1)%n])
	}
	return a / 2
}

// Perimeter includes the closing edge.
func (p *Polygon2D) Perimeter() float64 {
	return NewPolyline2D(p.ClosedPoints()...).Length()
}

func (p *Polygon2D) ToPath() *Path2D { return pathFromPoints(p) }

// SDF returns the polygon as an sdfx polygon.
func (p *Polygon2D) SDF() *sdf.Polygon {
	poly := sdf.NewPolygon()
	for _, v := range p.points {
		poly.Add(v.X, v.Y)
	}
	poly.Close()
	return poly
}

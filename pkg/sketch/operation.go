package sketch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/selvage/pkg/geom"
)

// ID identifies an operation within a pattern.
type ID uint64

func (id ID) String() string { return strconv.FormatUint(uint64(id), 10) }

// Calculator evaluates the numeric formulas carried by operations.
type Calculator interface {
	Eval(formula string) (float64, error)
}

// LiteralCalculator only accepts plain numbers. It is the calculator used
// when a sketch is created without one.
type LiteralCalculator struct{}

func (LiteralCalculator) Eval(formula string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(formula), 64)
	if err != nil {
		return 0, fmt.Errorf("formula %q is not a number", formula)
	}
	return v, nil
}

// Operation is one node of the construction graph.
type Operation interface {
	ID() ID
	Kind() Kind
	// Inputs lists the IDs of the operations this one reads, in the order
	// their primitives are passed to Evaluate.
	Inputs() []ID
	Evaluate(inputs []geom.Primitive[geom.Vec2], calc Calculator) (geom.Primitive[geom.Vec2], error)
}

// NamedOperation is implemented by operations that carry a user-visible name.
type NamedOperation interface {
	Operation
	Attrs() *PointAttrs
}

// Base carries the identifier shared by every operation.
type Base struct {
	OpID ID
}

func (b *Base) ID() ID { return b.OpID }

// PointAttrs holds the presentation attributes of a point. They are kept
// for round-tripping and never affect geometry.
type PointAttrs struct {
	Name        string
	LabelOffset geom.Vec2 // mx, my
}

func (a *PointAttrs) Attrs() *PointAttrs { return a }

// LineStyle is the stroke used to draw a construction line.
type LineStyle struct {
	LineType  string
	LineColor string
}

// Compile-time interface checks.
var (
	_ NamedOperation = (*SinglePoint)(nil)
	_ NamedOperation = (*EndLinePoint)(nil)
	_ NamedOperation = (*AlongLinePoint)(nil)
	_ NamedOperation = (*NormalPoint)(nil)
	_ NamedOperation = (*PointOfIntersection)(nil)
	_ NamedOperation = (*LineIntersectPoint)(nil)
	_ Operation      = (*Line)(nil)
	_ Operation      = (*SimpleSpline)(nil)
)

// ---------------------------------------------------------------------------
// Input helpers
// ---------------------------------------------------------------------------

func checkInputs(inputs []geom.Primitive[geom.Vec2], want int) error {
	if len(inputs) != want {
		return fmt.Errorf("%w: want %d inputs, got %d", ErrInputType, want, len(inputs))
	}
	return nil
}

func pointInput(inputs []geom.Primitive[geom.Vec2], i int) (geom.Vec2, error) {
	p, ok := inputs[i].(*geom.Point2D)
	if !ok {
		return geom.Vec2{}, fmt.Errorf("%w: input %d is %T, want a point", ErrInputType, i, inputs[i])
	}
	return p.P0, nil
}

func pointInputs(inputs []geom.Primitive[geom.Vec2], want int) ([]geom.Vec2, error) {
	if err := checkInputs(inputs, want); err != nil {
		return nil, err
	}
	out := make([]geom.Vec2, want)
	for i := range want {
		p, err := pointInput(inputs, i)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// evalAll evaluates formulas in order, stopping at the first failure.
func evalAll(calc Calculator, formulas ...string) ([]float64, error) {
	out := make([]float64, len(formulas))
	for i, f := range formulas {
		v, err := calc.Eval(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Points
// ---------------------------------------------------------------------------

// SinglePoint is a free point.
type SinglePoint struct {
	Base
	PointAttrs
	X, Y string
}

func (o *SinglePoint) Kind() Kind   { return KindSinglePoint }
func (o *SinglePoint) Inputs() []ID { return nil }

func (o *SinglePoint) Evaluate(inputs []geom.Primitive[geom.Vec2], calc Calculator) (geom.Primitive[geom.Vec2], error) {
	if err := checkInputs(inputs, 0); err != nil {
		return nil, err
	}
	v, err := evalAll(calc, o.X, o.Y)
	if err != nil {
		return nil, err
	}
	return geom.NewPoint2D(geom.Vec2{X: v[0], Y: v[1]}), nil
}

// EndLinePoint lies at Length from BasePoint in the direction Angle.
type EndLinePoint struct {
	Base
	PointAttrs
	LineStyle
	BasePoint     ID
	Angle, Length string
}

func (o *EndLinePoint) Kind() Kind   { return KindEndLinePoint }
func (o *EndLinePoint) Inputs() []ID { return []ID{o.BasePoint} }

func (o *EndLinePoint) Evaluate(inputs []geom.Primitive[geom.Vec2], calc Calculator) (geom.Primitive[geom.Vec2], error) {
	pts, err := pointInputs(inputs, 1)
	if err != nil {
		return nil, err
	}
	v, err := evalAll(calc, o.Angle, o.Length)
	if err != nil {
		return nil, err
	}
	return geom.NewPoint2D(pts[0].Add(geom.FromAngle(v[0]).MulScalar(v[1]))), nil
}

// AlongLinePoint lies at Length from First toward Second.
type AlongLinePoint struct {
	Base
	PointAttrs
	LineStyle
	First, Second ID
	Length        string
}

func (o *AlongLinePoint) Kind() Kind   { return KindAlongLinePoint }
func (o *AlongLinePoint) Inputs() []ID { return []ID{o.First, o.Second} }

func (o *AlongLinePoint) Evaluate(inputs []geom.Primitive[geom.Vec2], calc Calculator) (geom.Primitive[geom.Vec2], error) {
	pts, err := pointInputs(inputs, 2)
	if err != nil {
		return nil, err
	}
	length, err := calc.Eval(o.Length)
	if err != nil {
		return nil, err
	}
	dir := pts[1].Sub(pts[0]).Normalize()
	return geom.NewPoint2D(pts[0].Add(dir.MulScalar(length))), nil
}

// NormalPoint lies at Length from First along the normal of First-Second,
// turned by a further Angle.
type NormalPoint struct {
	Base
	PointAttrs
	LineStyle
	First, Second ID
	Angle, Length string
}

func (o *NormalPoint) Kind() Kind   { return KindNormalPoint }
func (o *NormalPoint) Inputs() []ID { return []ID{o.First, o.Second} }

func (o *NormalPoint) Evaluate(inputs []geom.Primitive[geom.Vec2], calc Calculator) (geom.Primitive[geom.Vec2], error) {
	pts, err := pointInputs(inputs, 2)
	if err != nil {
		return nil, err
	}
	v, err := evalAll(calc, o.Angle, o.Length)
	if err != nil {
		return nil, err
	}
	dir := pts[1].Sub(pts[0]).Normalize().Rotate(90 + v[0])
	return geom.NewPoint2D(pts[0].Add(dir.MulScalar(v[1]))), nil
}

// PointOfIntersection takes its X from First and its Y from Second.
type PointOfIntersection struct {
	Base
	PointAttrs
	First, Second ID
}

func (o *PointOfIntersection) Kind() Kind   { return KindPointOfIntersection }
func (o *PointOfIntersection) Inputs() []ID { return []ID{o.First, o.Second} }

func (o *PointOfIntersection) Evaluate(inputs []geom.Primitive[geom.Vec2], _ Calculator) (geom.Primitive[geom.Vec2], error) {
	pts, err := pointInputs(inputs, 2)
	if err != nil {
		return nil, err
	}
	return geom.NewPoint2D(geom.Vec2{X: pts[0].X, Y: pts[1].Y}), nil
}

// LineIntersectPoint is the crossing of the infinite lines P1Line1-P2Line1
// and P1Line2-P2Line2.
type LineIntersectPoint struct {
	Base
	PointAttrs
	P1Line1, P2Line1 ID
	P1Line2, P2Line2 ID
}

func (o *LineIntersectPoint) Kind() Kind { return KindLineIntersectPoint }

func (o *LineIntersectPoint) Inputs() []ID {
	return []ID{o.P1Line1, o.P2Line1, o.P1Line2, o.P2Line2}
}

func (o *LineIntersectPoint) Evaluate(inputs []geom.Primitive[geom.Vec2], _ Calculator) (geom.Primitive[geom.Vec2], error) {
	pts, err := pointInputs(inputs, 4)
	if err != nil {
		return nil, err
	}
	p, err := geom.LineThrough(pts[0], pts[1]).Intersect(geom.LineThrough(pts[2], pts[3]))
	if err != nil {
		return nil, err
	}
	return geom.NewPoint2D(p), nil
}

// ---------------------------------------------------------------------------
// Lines and curves
// ---------------------------------------------------------------------------

// Line is the segment between two points.
type Line struct {
	Base
	LineStyle
	First, Second ID
}

func (o *Line) Kind() Kind   { return KindLine }
func (o *Line) Inputs() []ID { return []ID{o.First, o.Second} }

func (o *Line) Evaluate(inputs []geom.Primitive[geom.Vec2], _ Calculator) (geom.Primitive[geom.Vec2], error) {
	pts, err := pointInputs(inputs, 2)
	if err != nil {
		return nil, err
	}
	return geom.NewSegment2D(pts[0], pts[1]), nil
}

// SimpleSpline is a cubic curve from Point1 to Point4. The control points are
// placed at Length1 from Point1 along Angle1 and at Length2 from Point4
// along Angle2.
type SimpleSpline struct {
	Base
	Color           string
	Point1, Point4  ID
	Angle1, Length1 string
	Angle2, Length2 string
}

func (o *SimpleSpline) Kind() Kind   { return KindSimpleSpline }
func (o *SimpleSpline) Inputs() []ID { return []ID{o.Point1, o.Point4} }

func (o *SimpleSpline) Evaluate(inputs []geom.Primitive[geom.Vec2], calc Calculator) (geom.Primitive[geom.Vec2], error) {
	pts, err := pointInputs(inputs, 2)
	if err != nil {
		return nil, err
	}
	v, err := evalAll(calc, o.Angle1, o.Length1, o.Angle2, o.Length2)
	if err != nil {
		return nil, err
	}
	p1, p4 := pts[0], pts[1]
	p2 := p1.Add(geom.FromAngle(v[0]).MulScalar(v[1]))
	p3 := p4.Add(geom.FromAngle(v[2]).MulScalar(v[3]))
	return geom.NewCubicBezier2D(p1, p2, p3, p4), nil
}

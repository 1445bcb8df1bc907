package valfmt

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/chazu/selvage/pkg/geom"
	"github.com/chazu/selvage/pkg/sketch"
)

var (
	ErrMissingAttribute = errors.New("missing attribute")
	ErrInvalidAttribute = errors.New("invalid attribute")
)

// AttributeError reports a missing or malformed attribute.
type AttributeError struct {
	Attr  string
	Value string
	Err   error
}

func (e *AttributeError) Error() string {
	if errors.Is(e.Err, ErrMissingAttribute) {
		return fmt.Sprintf("%s %q", e.Err, e.Attr)
	}
	return fmt.Sprintf("%s %s=%q", e.Err, e.Attr, e.Value)
}

func (e *AttributeError) Unwrap() error { return e.Err }

// attrReader reads typed attributes and keeps the first failure.
type attrReader struct {
	el  *Element
	ctx *DecodeContext
	err error
}

func (r *attrReader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

func (r *attrReader) required(name string) string {
	v, ok := r.el.Attr(name)
	if !ok {
		r.fail(&AttributeError{Attr: name, Err: ErrMissingAttribute})
	}
	return v
}

func (r *attrReader) optional(name string) string {
	v, _ := r.el.Attr(name)
	return v
}

func (r *attrReader) ref(name string) sketch.ID {
	v := r.required(name)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil || n == 0 {
		r.fail(&AttributeError{Attr: name, Value: v, Err: ErrInvalidAttribute})
		return 0
	}
	return sketch.ID(n)
}

// id reads the operation's own identifier, minting one when absent and a
// generator is available.
func (r *attrReader) id() sketch.ID {
	if _, ok := r.el.Attr("id"); !ok && r.ctx.IDs != nil {
		return r.ctx.IDs.Next()
	}
	return r.ref("id")
}

func (r *attrReader) number(name string) float64 {
	v, ok := r.el.Attr(name)
	if !ok || v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(&AttributeError{Attr: name, Value: v, Err: ErrInvalidAttribute})
	}
	return f
}

func (r *attrReader) pointAttrs() sketch.PointAttrs {
	return sketch.PointAttrs{
		Name:        r.optional("name"),
		LabelOffset: geom.Vec2{X: r.number("mx"), Y: r.number("my")},
	}
}

func (r *attrReader) lineStyle() sketch.LineStyle {
	return sketch.LineStyle{LineType: r.optional("typeLine"), LineColor: r.optional("lineColor")}
}

func formatID(id sketch.ID) string { return id.String() }

func formatNumber(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func setPointAttrs(el *Element, a sketch.PointAttrs) {
	el.Set("name", a.Name)
	el.Set("mx", formatNumber(a.LabelOffset.X))
	el.Set("my", formatNumber(a.LabelOffset.Y))
}

func setLineStyle(el *Element, s sketch.LineStyle) {
	el.SetOptional("typeLine", s.LineType)
	el.SetOptional("lineColor", s.LineColor)
}

// codec adapts typed decode and encode functions to a Codec.
func codec[T sketch.Operation](tag, typ string, kind sketch.Kind, decode func(r *attrReader) T, encode func(op T, el *Element)) Codec {
	return Codec{
		Tag:  tag,
		Type: typ,
		Kind: kind,
		Decode: func(el *Element, ctx *DecodeContext) (sketch.Operation, error) {
			r := &attrReader{el: el, ctx: ctx}
			op := decode(r)
			if r.err != nil {
				return nil, r.err
			}
			return op, nil
		},
		Encode: func(op sketch.Operation, el *Element) error {
			o, ok := op.(T)
			if !ok {
				return fmt.Errorf("%w: %T is not a %s", ErrUnregisteredOperation, op, kind)
			}
			el.Set("id", formatID(op.ID()))
			encode(o, el)
			return nil
		},
	}
}

// DefaultCodecs returns the codecs for every operation kind in package
// sketch.
func DefaultCodecs() []Codec {
	return []Codec{
		codec("point", "single", sketch.KindSinglePoint,
			func(r *attrReader) *sketch.SinglePoint {
				return &sketch.SinglePoint{
					Base:       sketch.Base{OpID: r.id()},
					PointAttrs: r.pointAttrs(),
					X:          r.required("x"),
					Y:          r.required("y"),
				}
			},
			func(o *sketch.SinglePoint, el *Element) {
				el.Set("x", o.X)
				el.Set("y", o.Y)
				setPointAttrs(el, o.PointAttrs)
			}),

		codec("point", "endLine", sketch.KindEndLinePoint,
			func(r *attrReader) *sketch.EndLinePoint {
				return &sketch.EndLinePoint{
					Base:       sketch.Base{OpID: r.id()},
					PointAttrs: r.pointAttrs(),
					LineStyle:  r.lineStyle(),
					BasePoint:  r.ref("basePoint"),
					Angle:      r.required("angle"),
					Length:     r.required("length"),
				}
			},
			func(o *sketch.EndLinePoint, el *Element) {
				el.Set("basePoint", formatID(o.BasePoint))
				el.Set("angle", o.Angle)
				el.Set("length", o.Length)
				setLineStyle(el, o.LineStyle)
				setPointAttrs(el, o.PointAttrs)
			}),

		codec("point", "alongLine", sketch.KindAlongLinePoint,
			func(r *attrReader) *sketch.AlongLinePoint {
				return &sketch.AlongLinePoint{
					Base:       sketch.Base{OpID: r.id()},
					PointAttrs: r.pointAttrs(),
					LineStyle:  r.lineStyle(),
					First:      r.ref("firstPoint"),
					Second:     r.ref("secondPoint"),
					Length:     r.required("length"),
				}
			},
			func(o *sketch.AlongLinePoint, el *Element) {
				el.Set("firstPoint", formatID(o.First))
				el.Set("secondPoint", formatID(o.Second))
				el.Set("length", o.Length)
				setLineStyle(el, o.LineStyle)
				setPointAttrs(el, o.PointAttrs)
			}),

		codec("point", "normal", sketch.KindNormalPoint,
			func(r *attrReader) *sketch.NormalPoint {
				return &sketch.NormalPoint{
					Base:       sketch.Base{OpID: r.id()},
					PointAttrs: r.pointAttrs(),
					LineStyle:  r.lineStyle(),
					First:      r.ref("firstPoint"),
					Second:     r.ref("secondPoint"),
					Angle:      r.required("angle"),
					Length:     r.required("length"),
				}
			},
			func(o *sketch.NormalPoint, el *Element) {
				el.Set("firstPoint", formatID(o.First))
				el.Set("secondPoint", formatID(o.Second))
				el.Set("angle", o.Angle)
				el.Set("length", o.Length)
				setLineStyle(el, o.LineStyle)
				setPointAttrs(el, o.PointAttrs)
			}),

		codec("point", "pointOfIntersection", sketch.KindPointOfIntersection,
			func(r *attrReader) *sketch.PointOfIntersection {
				return &sketch.PointOfIntersection{
					Base:       sketch.Base{OpID: r.id()},
					PointAttrs: r.pointAttrs(),
					First:      r.ref("firstPoint"),
					Second:     r.ref("secondPoint"),
				}
			},
			func(o *sketch.PointOfIntersection, el *Element) {
				el.Set("firstPoint", formatID(o.First))
				el.Set("secondPoint", formatID(o.Second))
				setPointAttrs(el, o.PointAttrs)
			}),

		codec("point", "lineIntersect", sketch.KindLineIntersectPoint,
			func(r *attrReader) *sketch.LineIntersectPoint {
				return &sketch.LineIntersectPoint{
					Base:       sketch.Base{OpID: r.id()},
					PointAttrs: r.pointAttrs(),
					P1Line1:    r.ref("p1Line1"),
					P2Line1:    r.ref("p2Line1"),
					P1Line2:    r.ref("p1Line2"),
					P2Line2:    r.ref("p2Line2"),
				}
			},
			func(o *sketch.LineIntersectPoint, el *Element) {
				el.Set("p1Line1", formatID(o.P1Line1))
				el.Set("p2Line1", formatID(o.P2Line1))
				el.Set("p1Line2", formatID(o.P1Line2))
				el.Set("p2Line2", formatID(o.P2Line2))
				setPointAttrs(el, o.PointAttrs)
			}),

		codec("line", "", sketch.KindLine,
			func(r *attrReader) *sketch.Line {
				return &sketch.Line{
					Base:      sketch.Base{OpID: r.id()},
					LineStyle: r.lineStyle(),
					First:     r.ref("firstPoint"),
					Second:    r.ref("secondPoint"),
				}
			},
			func(o *sketch.Line, el *Element) {
				el.Set("firstPoint", formatID(o.First))
				el.Set("secondPoint", formatID(o.Second))
				setLineStyle(el, o.LineStyle)
			}),

		codec("spline", "simpleInteractive", sketch.KindSimpleSpline,
			func(r *attrReader) *sketch.SimpleSpline {
				return &sketch.SimpleSpline{
					Base:    sketch.Base{OpID: r.id()},
					Color:   r.optional("color"),
					Point1:  r.ref("point1"),
					Point4:  r.ref("point4"),
					Angle1:  r.required("angle1"),
					Length1: r.required("length1"),
					Angle2:  r.required("angle2"),
					Length2: r.required("length2"),
				}
			},
			func(o *sketch.SimpleSpline, el *Element) {
				el.Set("point1", formatID(o.Point1))
				el.Set("point4", formatID(o.Point4))
				el.Set("angle1", o.Angle1)
				el.Set("angle2", o.Angle2)
				el.Set("length1", o.Length1)
				el.Set("length2", o.Length2)
				el.SetOptional("color", o.Color)
			}),
	}
}

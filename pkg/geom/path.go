package geom

import (
	"iter"
)

// PathVerb is a path construction command.
type PathVerb uint8

const (
	VerbMoveTo PathVerb = iota
	VerbLineTo
	VerbCubicTo
	VerbClose
)

func (v PathVerb) String() string {
	switch v {
	case VerbMoveTo:
		return "MoveTo"
	case VerbLineTo:
		return "LineTo"
	case VerbCubicTo:
		return "CubicTo"
	case VerbClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// PointCount returns the number of points the verb consumes.
func (v PathVerb) PointCount() int {
	switch v {
	case VerbMoveTo, VerbLineTo:
		return 1
	case VerbCubicTo:
		return 3
	default:
		return 0
	}
}

// PathElement is one verb with its points. CubicTo stores the two control
// points followed by the end point.
type PathElement struct {
	Verb   PathVerb
	Points []Vec2
}

// Path2D is an ordered list of drawing commands. It is the common output
// of every PathConvertible primitive.
type Path2D struct {
	elements []PathElement
	start    Vec2
	cursor   Vec2
}

// NewPath2D starts a path at start.
func NewPath2D(start Vec2) *Path2D {
	p := &Path2D{}
	return p.MoveTo(start)
}

// MoveTo begins a new subpath.
func (p *Path2D) MoveTo(pt Vec2) *Path2D {
	p.elements = append(p.elements, PathElement{Verb: VerbMoveTo, Points: []Vec2{pt}})
	p.start, p.cursor = pt, pt
	return p
}

// LineTo draws a straight line from the current point.
func (p *Path2D) LineTo(pt Vec2) *Path2D {
	p.elements = append(p.elements, PathElement{Verb: VerbLineTo, Points: []Vec2{pt}})
	p.cursor = pt
	return p
}

// CubicTo draws a cubic Bézier from the current point to pt.
func (p *Path2D) CubicTo(c1, c2, pt Vec2) *Path2D {
	p.elements = append(p.elements, PathElement{Verb: VerbCubicTo, Points: []Vec2{c1, c2, pt}})
	p.cursor = pt
	return p
}

// Close joins the current point back to the subpath start.
func (p *Path2D) Close() *Path2D {
	p.elements = append(p.elements, PathElement{Verb: VerbClose})
	p.cursor = p.start
	return p
}

// Elements yields the commands in order.
func (p *Path2D) Elements() iter.Seq[PathElement] {
	return seqOf(p.elements...)
}

func (p *Path2D) Len() int { return len(p.elements) }

// Current returns the pen position.
func (p *Path2D) Current() Vec2 { return p.cursor }

// Points yields every point referenced by the path, control points included.
func (p *Path2D) Points() iter.Seq[Vec2] {
	return func(yield func(Vec2) bool) {
		for _, e := range p.elements {
			for _, pt := range e.Points {
				if !yield(pt) {
					return
				}
			}
		}
	}
}

// BoundingBox encloses every point including control points, which is a
// conservative bound for the curves.
func (p *Path2D) BoundingBox() (BoundingBox[Vec2], bool) {
	return BoundingBoxFromPoints(p.Points())
}

// Transform returns a transformed copy of the path.
func (p *Path2D) Transform(t Transformation[Vec2]) *Path2D {
	out := &Path2D{
		elements: make([]PathElement, len(p.elements)),
		start:    t.Apply(p.start),
		cursor:   t.Apply(p.cursor),
	}
	for i, e := range p.elements {
		out.elements[i] = PathElement{Verb: e.Verb, Points: transformAll(t, e.Points...)}
	}
	return out
}

func pathFromPoints(p Reversible[Vec2]) *Path2D {
	var path *Path2D
	for pt := range p.Points() {
		if path == nil {
			path = NewPath2D(pt)
			continue
		}
		path.LineTo(pt)
	}
	if path == nil {
		return &Path2D{}
	}
	if p.IsClosed() {
		path.Close()
	}
	return path
}

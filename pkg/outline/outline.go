// Package outline walks evaluated sketches and produces drawable paths.
// One item is produced per operation; points become markers.
package outline

import (
	"errors"
	"fmt"

	"github.com/chazu/selvage/pkg/geom"
	"github.com/chazu/selvage/pkg/pattern"
	"github.com/chazu/selvage/pkg/sketch"
)

// ErrNotEvaluated is returned for a sketch without current results.
var ErrNotEvaluated = errors.New("outline: sketch is not evaluated")

// Item is the drawable form of one operation.
type Item struct {
	Scope string
	ID    sketch.ID
	Name  string
	Kind  sketch.Kind

	// Path is nil for markers.
	Path *geom.Path2D
	// Marker is the position of a point operation.
	Marker geom.Vec2
}

// IsMarker reports whether the item is a point.
func (it Item) IsMarker() bool { return it.Path == nil }

// Outline is the drawable form of one or more sketches.
type Outline struct {
	Items []Item

	// Bounds encloses every item. It is only meaningful when HasBounds.
	Bounds    geom.BoundingBox[geom.Vec2]
	HasBounds bool
}

func (o *Outline) include(b geom.BoundingBox[geom.Vec2]) {
	if !o.HasBounds {
		o.Bounds, o.HasBounds = b, true
		return
	}
	o.Bounds = o.Bounds.Union(b)
}

func (o *Outline) add(it Item) {
	o.Items = append(o.Items, it)
	if it.IsMarker() {
		o.include(geom.BoundingBox[geom.Vec2]{Min: it.Marker, Max: it.Marker})
		return
	}
	if b, ok := it.Path.BoundingBox(); ok {
		o.include(b)
	}
}

// Sketch returns the outline of an evaluated sketch, in insertion order,
// with every item mapped through t. A nil t leaves items in place.
func Sketch(scope string, s *sketch.Sketch, t geom.Transformation[geom.Vec2]) (*Outline, error) {
	if !s.Evaluated() {
		return nil, fmt.Errorf("%w: %q", ErrNotEvaluated, scope)
	}
	out := &Outline{}
	for _, op := range s.Operations() {
		prim, ok := s.Primitive(op.ID())
		if !ok {
			continue
		}
		it, err := item(op, prim, t)
		if err != nil {
			return nil, fmt.Errorf("outline: scope %q: %w", scope, err)
		}
		it.Scope = scope
		out.add(it)
	}
	return out, nil
}

func item(op sketch.Operation, prim geom.Primitive[geom.Vec2], t geom.Transformation[geom.Vec2]) (Item, error) {
	it := Item{ID: op.ID(), Kind: op.Kind()}
	if named, ok := op.(sketch.NamedOperation); ok {
		it.Name = named.Attrs().Name
	}
	if it.Name == "" {
		it.Name = op.Kind().String() + "#" + op.ID().String()
	}

	switch {
	case op.Kind().IsPoint():
		p, ok := prim.(*geom.Point2D)
		if !ok {
			return Item{}, fmt.Errorf("operation %s produced %T, want a point", op.ID(), prim)
		}
		it.Marker = p.P0
		if t != nil {
			it.Marker = t.Apply(it.Marker)
		}
	case op.Kind() == sketch.KindLine, op.Kind() == sketch.KindSimpleSpline:
		pc, ok := prim.(geom.PathConvertible)
		if !ok {
			return Item{}, fmt.Errorf("operation %s produced %T, which has no path", op.ID(), prim)
		}
		it.Path = pc.ToPath()
		if t != nil && !t.IsIdentity() {
			it.Path = it.Path.Transform(t)
		}
	default:
		return Item{}, fmt.Errorf("unknown operation kind: %v", op.Kind())
	}
	return it, nil
}

// Options controls Pattern.
type Options struct {
	// Transform is applied to every scope, for example YReflection2D to
	// turn the y-down file convention into y-up. Nil leaves items in place.
	Transform *geom.Transformation2D

	// Gap, when positive, lays the scopes out left to right with this
	// horizontal spacing instead of drawing them on top of each other.
	Gap float64
}

// Pattern returns the outline of every scope of an evaluated pattern.
func Pattern(p *pattern.Pattern, opts Options) (*Outline, error) {
	base := geom.Identity2D()
	if opts.Transform != nil {
		base = *opts.Transform
	}
	out := &Outline{}
	cursor := 0.0
	for _, scope := range p.Scopes() {
		o, err := Sketch(scope.Name, scope.Sketch, base)
		if err != nil {
			return nil, err
		}
		if opts.Gap > 0 && o.HasBounds {
			shift := geom.Translation2D(geom.Vec2{X: cursor - o.Bounds.Min.X})
			if o, err = Sketch(scope.Name, scope.Sketch, shift.Compose(base)); err != nil {
				return nil, err
			}
			cursor = o.Bounds.Max.X + opts.Gap
		}
		for _, it := range o.Items {
			out.add(it)
		}
	}
	return out, nil
}

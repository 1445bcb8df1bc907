package geom

import (
	"iter"

	"github.com/deadsy/sdfx/sdf"
)

// BoundingBox is an axis-aligned box.
type BoundingBox[V Vector[V]] struct {
	Min, Max V
}

// BoundingBoxFromPoints returns the box enclosing every point of the sequence.
// The boolean is false when the sequence is empty.
func BoundingBoxFromPoints[V Vector[V]](points iter.Seq[V]) (BoundingBox[V], bool) {
	var box BoundingBox[V]
	first := true
	for p := range points {
		if first {
			box = BoundingBox[V]{Min: p, Max: p}
			first = false
			continue
		}
		box = box.Include(p)
	}
	return box, !first
}

// Include returns the box enlarged to contain p.
func (b BoundingBox[V]) Include(p V) BoundingBox[V] {
	return BoundingBox[V]{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Union returns the smallest box containing b and o.
func (b BoundingBox[V]) Union(o BoundingBox[V]) BoundingBox[V] {
	return BoundingBox[V]{Min: b.Min.Min(o.Min), Max: b.Max.Max(o.Max)}
}

// Size returns Max - Min.
func (b BoundingBox[V]) Size() V {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b BoundingBox[V]) Center() V {
	return Lerp(b.Min, b.Max, 0.5)
}

// Box2 converts a 2D bounding box to the sdfx box type.
func Box2(b BoundingBox[Vec2]) sdf.Box2 {
	return sdf.Box2{Min: b.Min.SDF(), Max: b.Max.SDF()}
}

// Box3 converts a 3D bounding box to the sdfx box type.
func Box3(b BoundingBox[Vec3]) sdf.Box3 {
	return sdf.Box3{Min: b.Min.SDF(), Max: b.Max.SDF()}
}

// Package geom defines the geometric primitives used by selvage.
// Primitives are value-like shapes defined by an ordered list of points.
// Affine transformations are backed by the sdfx matrix types.
package geom

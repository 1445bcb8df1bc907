// Package sketch holds the construction operations of one pattern piece and
// evaluates them into geometry.
//
// Operations reference their inputs by ID only. A Sketch owns its operations,
// keeps them in insertion order for serialization, and evaluates them in a
// dependency-first order computed by a depth-first post-order walk.
package sketch

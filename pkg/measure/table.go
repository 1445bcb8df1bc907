// Package measure provides the measurement tables read by pattern formulas:
// the standard measurement catalog, individual measurement files and the
// lookup interface shared with the formula engine.
package measure

import (
	"maps"
	"slices"
)

// Table resolves a variable name to its value.
type Table interface {
	Value(name string) (float64, bool)
}

// Values is a Table backed by a map.
type Values map[string]float64

func (v Values) Value(name string) (float64, bool) {
	f, ok := v[name]
	return f, ok
}

// Names returns the keys in sorted order.
func (v Values) Names() []string {
	return slices.Sorted(maps.Keys(v))
}

// Layered searches each table in turn and returns the first hit.
type Layered []Table

func (l Layered) Value(name string) (float64, bool) {
	for _, t := range l {
		if t == nil {
			continue
		}
		if f, ok := t.Value(name); ok {
			return f, true
		}
	}
	return 0, false
}

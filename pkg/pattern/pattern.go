// Package pattern models a sewing pattern: its metadata, its increments and
// the scopes (pattern pieces) that each own a sketch.
package pattern

import (
	"errors"
	"fmt"

	"github.com/chazu/selvage/pkg/measure"
	"github.com/chazu/selvage/pkg/sketch"
)

var (
	// ErrDuplicateScope is returned by AddScope when the name is taken.
	ErrDuplicateScope = errors.New("pattern: duplicate scope")

	// ErrDuplicateIncrement is returned by AddIncrement when the name is taken.
	ErrDuplicateIncrement = errors.New("pattern: duplicate increment")
)

// DefaultUnit is used when a pattern does not declare one.
const DefaultUnit = "cm"

// Increment is a named formula usable by every scope. Names start with '#'.
type Increment struct {
	Name        string
	Formula     string
	Description string
}

// Scope is one independently evaluated pattern piece.
type Scope struct {
	Name   string
	Sketch *sketch.Sketch
}

// Pattern is the in-memory form of a pattern document.
type Pattern struct {
	Unit        string
	Author      string
	Description string
	Notes       string

	// Measurements is the reference to the individual measurement file, as
	// written in the document.
	Measurements string

	increments []Increment
	scopes     []*Scope
	byName     map[string]*Scope
}

// New creates an empty pattern. An empty unit selects DefaultUnit.
func New(unit string) *Pattern {
	if unit == "" {
		unit = DefaultUnit
	}
	return &Pattern{Unit: unit, byName: make(map[string]*Scope)}
}

// AddScope creates a scope whose sketch evaluates formulas with calc.
func (p *Pattern) AddScope(name string, calc sketch.Calculator) (*Scope, error) {
	if _, dup := p.byName[name]; dup {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateScope, name)
	}
	s := &Scope{Name: name, Sketch: sketch.New(calc)}
	p.scopes = append(p.scopes, s)
	p.byName[name] = s
	return s, nil
}

// Scope returns the scope with the given name, or nil.
func (p *Pattern) Scope(name string) *Scope { return p.byName[name] }

// Scopes returns the scopes in document order.
func (p *Pattern) Scopes() []*Scope {
	out := make([]*Scope, len(p.scopes))
	copy(out, p.scopes)
	return out
}

// AddIncrement registers an increment. Names must be unique.
func (p *Pattern) AddIncrement(inc Increment) error {
	for _, existing := range p.increments {
		if existing.Name == inc.Name {
			return fmt.Errorf("%w: %q", ErrDuplicateIncrement, inc.Name)
		}
	}
	p.increments = append(p.increments, inc)
	return nil
}

// Increments returns the increments in document order.
func (p *Pattern) Increments() []Increment {
	out := make([]Increment, len(p.increments))
	copy(out, p.increments)
	return out
}

// ResolveIncrements evaluates every increment against measurements.
// Increments may reference measurements and earlier or later increments.
func (p *Pattern) ResolveIncrements(eval measure.EvalFunc, measurements measure.Table) (measure.Values, error) {
	ind := &measure.Individual{Measurements: make([]measure.Entry, len(p.increments))}
	for i, inc := range p.increments {
		ind.Measurements[i] = measure.Entry{Name: inc.Name, Value: inc.Formula}
	}
	values, err := ind.Resolve(eval, measurements)
	if err != nil {
		return nil, fmt.Errorf("pattern: increments: %w", err)
	}
	return values, nil
}

// Eval evaluates every scope in document order and stops at the first
// failure.
func (p *Pattern) Eval() error {
	for _, s := range p.scopes {
		if err := s.Sketch.Eval(); err != nil {
			return fmt.Errorf("pattern: scope %q: %w", s.Name, err)
		}
	}
	return nil
}

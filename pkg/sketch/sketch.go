package sketch

import (
	"errors"
	"fmt"

	"github.com/chazu/selvage/pkg/geom"
)

var (
	// ErrDuplicateID is returned by Add when the ID is already registered.
	ErrDuplicateID = errors.New("sketch: duplicate operation id")

	// ErrUnresolvedDependency is returned when an operation reads an ID that
	// was never registered.
	ErrUnresolvedDependency = errors.New("sketch: unresolved dependency")

	// ErrCycle is returned when operations depend on each other.
	ErrCycle = errors.New("sketch: dependency cycle")

	// ErrInputType is returned when an operation receives a primitive of
	// the wrong shape.
	ErrInputType = errors.New("sketch: unexpected input primitive")
)

// DependencyError reports an input reference that does not resolve.
type DependencyError struct {
	Op      ID
	Missing ID
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("sketch: operation %s reads unknown operation %s", e.Op, e.Missing)
}

func (e *DependencyError) Unwrap() error { return ErrUnresolvedDependency }

// CycleError reports a dependency cycle. Path starts and ends on the same ID.
type CycleError struct {
	Path []ID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("sketch: dependency cycle %v", e.Path)
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// EvalError wraps a failure of a single operation during Eval.
type EvalError struct {
	Op   ID
	Kind Kind
	Err  error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("sketch: evaluating %s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Sketch owns the operations of one pattern piece.
type Sketch struct {
	calc    Calculator
	ops     []Operation
	index   map[ID]Operation
	names   map[string]ID
	results map[ID]geom.Primitive[geom.Vec2]
}

// New creates an empty sketch. A nil calculator accepts only numeric literals.
func New(calc Calculator) *Sketch {
	if calc == nil {
		calc = LiteralCalculator{}
	}
	return &Sketch{
		calc:  calc,
		index: make(map[ID]Operation),
		names: make(map[string]ID),
	}
}

// Calculator returns the calculator used by Eval.
func (s *Sketch) Calculator() Calculator { return s.calc }

// Add registers op. Inputs may reference operations added later; they are
// resolved by Eval. Adding invalidates earlier evaluation results.
func (s *Sketch) Add(op Operation) error {
	if _, dup := s.index[op.ID()]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateID, op.ID())
	}
	s.ops = append(s.ops, op)
	s.index[op.ID()] = op
	if n, ok := op.(NamedOperation); ok && n.Attrs().Name != "" {
		if _, taken := s.names[n.Attrs().Name]; !taken {
			s.names[n.Attrs().Name] = op.ID()
		}
	}
	s.results = nil
	return nil
}

// Get returns the operation with the given ID, or nil.
func (s *Sketch) Get(id ID) Operation { return s.index[id] }

// Lookup returns the first registered operation with the given name, or nil.
func (s *Sketch) Lookup(name string) Operation {
	id, ok := s.names[name]
	if !ok {
		return nil
	}
	return s.index[id]
}

// Operations returns the operations in insertion order.
func (s *Sketch) Operations() []Operation {
	out := make([]Operation, len(s.ops))
	copy(out, s.ops)
	return out
}

// Len returns the number of registered operations.
func (s *Sketch) Len() int { return len(s.ops) }

// Order returns the operations in a dependency-first order. The walk starts
// from operations in insertion order and visits inputs in declared order,
// so the result is deterministic.
func (s *Sketch) Order() ([]Operation, error) {
	const (
		white = iota
		gray
		black
	)

	color := make(map[ID]int, len(s.ops))
	order := make([]Operation, 0, len(s.ops))
	var stack []ID

	var visit func(op Operation) error
	visit = func(op Operation) error {
		id := op.ID()
		switch color[id] {
		case black:
			return nil
		case gray:
			start := 0
			for i, sid := range stack {
				if sid == id {
					start = i
					break
				}
			}
			path := append(append([]ID(nil), stack[start:]...), id)
			return &CycleError{Path: path}
		}

		color[id] = gray
		stack = append(stack, id)
		for _, in := range op.Inputs() {
			dep, ok := s.index[in]
			if !ok {
				return &DependencyError{Op: id, Missing: in}
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		order = append(order, op)
		return nil
	}

	for _, op := range s.ops {
		if err := visit(op); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Eval computes the primitive of every operation. It always recomputes from
// scratch and can be called any number of times. On failure no results are
// kept.
func (s *Sketch) Eval() error {
	s.results = nil
	order, err := s.Order()
	if err != nil {
		return err
	}

	results := make(map[ID]geom.Primitive[geom.Vec2], len(order))
	for _, op := range order {
		inputs := make([]geom.Primitive[geom.Vec2], 0, len(op.Inputs()))
		for _, in := range op.Inputs() {
			inputs = append(inputs, results[in])
		}
		prim, err := op.Evaluate(inputs, s.calc)
		if err != nil {
			return &EvalError{Op: op.ID(), Kind: op.Kind(), Err: err}
		}
		results[op.ID()] = prim
	}
	s.results = results
	return nil
}

// Evaluated reports whether the last Eval succeeded and no operation was
// added since.
func (s *Sketch) Evaluated() bool { return s.results != nil }

// Primitive returns the geometry produced by the operation with the given
// ID. The boolean is false before a successful Eval.
func (s *Sketch) Primitive(id ID) (geom.Primitive[geom.Vec2], bool) {
	p, ok := s.results[id]
	return p, ok
}

// Point returns the position computed by a point operation.
func (s *Sketch) Point(id ID) (geom.Vec2, bool) {
	p, ok := s.results[id].(*geom.Point2D)
	if !ok {
		return geom.Vec2{}, false
	}
	return p.P0, true
}

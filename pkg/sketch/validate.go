package sketch

import (
	"errors"
	"fmt"

	"github.com/chazu/selvage/pkg/geom"
)

// Severity indicates whether a validation finding blocks evaluation or is
// merely informational.
type Severity int

const (
	SeverityError   Severity = iota // blocks evaluation
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Op       ID // zero for sketch-level findings
	Message  string
	Severity Severity
}

func (e ValidationError) Error() string {
	if e.Op == 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] operation %s: %s", e.Severity, e.Op, e.Message)
}

// ValidationResult separates blocking errors from advisory warnings.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether there are no blocking errors.
func (r ValidationResult) OK() bool { return len(r.Errors) == 0 }

// Validate runs the structural checks. It never mutates the sketch.
func Validate(s *Sketch) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateReferences(s)...)
	errs = append(errs, validateDAG(s)...)
	errs = append(errs, validateNames(s)...)
	return errs
}

// ValidateAll runs the structural checks and, when the sketch has been
// evaluated, the geometric checks.
func ValidateAll(s *Sketch) ValidationResult {
	var result ValidationResult
	for _, e := range Validate(s) {
		if e.Severity == SeverityWarning {
			result.Warnings = append(result.Warnings, e)
		} else {
			result.Errors = append(result.Errors, e)
		}
	}
	if s.Evaluated() {
		result.Warnings = append(result.Warnings, validateGeometry(s)...)
	}
	return result
}

// validateReferences reports every input that does not resolve, including
// operations that read themselves.
func validateReferences(s *Sketch) []ValidationError {
	var errs []ValidationError
	for _, op := range s.ops {
		for _, in := range op.Inputs() {
			if in == op.ID() {
				errs = append(errs, ValidationError{
					Op:       op.ID(),
					Message:  "operation reads itself",
					Severity: SeverityError,
				})
				continue
			}
			if _, ok := s.index[in]; !ok {
				errs = append(errs, ValidationError{
					Op:       op.ID(),
					Message:  fmt.Sprintf("input %s does not exist", in),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateDAG reports the first cycle found. Dangling inputs are reported by
// validateReferences.
func validateDAG(s *Sketch) []ValidationError {
	_, err := s.Order()
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		return nil
	}
	return []ValidationError{{
		Op:       cycle.Path[0],
		Message:  fmt.Sprintf("cycle detected: %v", cycle.Path),
		Severity: SeverityError,
	}}
}

// validateNames warns when two points share a name. Lookup returns the first.
func validateNames(s *Sketch) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]ID)
	for _, op := range s.ops {
		n, ok := op.(NamedOperation)
		if !ok || n.Attrs().Name == "" {
			continue
		}
		name := n.Attrs().Name
		if first, dup := seen[name]; dup {
			errs = append(errs, ValidationError{
				Op:       op.ID(),
				Message:  fmt.Sprintf("name %q already used by operation %s", name, first),
				Severity: SeverityWarning,
			})
			continue
		}
		seen[name] = op.ID()
	}
	return errs
}

// ---------------------------------------------------------------------------
// Geometric checks
// ---------------------------------------------------------------------------

func validateGeometry(s *Sketch) []ValidationError {
	var warnings []ValidationError
	for _, op := range s.ops {
		prim, ok := s.Primitive(op.ID())
		if !ok {
			continue
		}
		switch p := prim.(type) {
		case *geom.Segment2D:
			if p.Length() < geom.Epsilon {
				warnings = append(warnings, ValidationError{
					Op:       op.ID(),
					Message:  "line has zero length",
					Severity: SeverityWarning,
				})
			}
		case *geom.CubicBezier2D:
			if p.P0.Equals(p.P3, geom.Epsilon) {
				warnings = append(warnings, ValidationError{
					Op:       op.ID(),
					Message:  "spline starts and ends on the same point",
					Severity: SeverityWarning,
				})
			}
		}
		if op.Kind() == KindAlongLinePoint || op.Kind() == KindNormalPoint {
			warnings = append(warnings, validateBaseLine(s, op)...)
		}
	}
	return warnings
}

// validateBaseLine warns when the two points that define a direction coincide.
func validateBaseLine(s *Sketch, op Operation) []ValidationError {
	in := op.Inputs()
	a, okA := s.Point(in[0])
	b, okB := s.Point(in[1])
	if !okA || !okB || !a.Equals(b, geom.Epsilon) {
		return nil
	}
	return []ValidationError{{
		Op:       op.ID(),
		Message:  fmt.Sprintf("base points %s and %s coincide, direction is undefined", in[0], in[1]),
		Severity: SeverityWarning,
	}}
}

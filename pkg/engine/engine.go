// Package engine evaluates the arithmetic formulas found in pattern files.
// Formulas are translated to zygomys s-expressions and run in a fresh
// sandboxed environment, with measurement and increment values bound as
// symbols.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/chazu/selvage/pkg/measure"
	"github.com/chazu/selvage/pkg/sketch"
)

// DefaultCacheSize is the number of translated formulas kept by NewEngine.
const DefaultCacheSize = 1024

var (
	// ErrUnknownVariable is returned when a formula names a variable the
	// table does not define.
	ErrUnknownVariable = errors.New("engine: unknown variable")

	// ErrNotFinite is returned when a formula evaluates to infinity or NaN,
	// such as after a division by zero.
	ErrNotFinite = errors.New("engine: result is not finite")

	// ErrSandbox wraps failures reported by the interpreter.
	ErrSandbox = errors.New("engine: evaluation failed")
)

// FormulaError reports a syntax error in a formula.
type FormulaError struct {
	Formula string
	Pos     int // 1-based column
	Message string
}

func (e *FormulaError) Error() string {
	return fmt.Sprintf("formula %q: col %d: %s", e.Formula, e.Pos, e.Message)
}

// Engine evaluates formulas. It is safe for concurrent use: translations are
// cached in a synchronized LRU and each evaluation gets its own sandbox.
type Engine struct {
	cache  *lru.Cache[string, *compiled]
	logger *slog.Logger
}

// NewEngine creates an Engine with the default cache size. A nil logger
// uses slog.Default().
func NewEngine(logger *slog.Logger) *Engine {
	e, err := NewEngineSize(DefaultCacheSize, logger)
	if err != nil {
		panic(err)
	}
	return e
}

// NewEngineSize creates an Engine caching up to size translations.
func NewEngineSize(size int, logger *slog.Logger) (*Engine, error) {
	cache, err := lru.New[string, *compiled](size)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cache: cache, logger: logger}, nil
}

// Evaluate computes formula with variables looked up in vars, which may be
// nil when the formula uses none.
func (e *Engine) Evaluate(formula string, vars measure.Table) (float64, error) {
	// Plain numbers skip translation and the sandbox.
	if v, err := strconv.ParseFloat(strings.TrimSpace(formula), 64); err == nil && isFinite(v) {
		return v, nil
	}

	c, err := e.compile(formula)
	if err != nil {
		return 0, err
	}

	var src strings.Builder
	for _, name := range c.vars {
		var v float64
		var ok bool
		if vars != nil {
			v, ok = vars.Value(name)
		}
		if !ok {
			return 0, fmt.Errorf("%w: %s in %q", ErrUnknownVariable, name, formula)
		}
		if !isFinite(v) {
			return 0, fmt.Errorf("%w: variable %s is %g", ErrNotFinite, name, v)
		}
		fmt.Fprintf(&src, "(def %s %s)\n", symbolFor(name), floatLiteral(v))
	}
	src.WriteString(c.expr)

	v, err := runWithTimeout(func() (float64, error) { return run(src.String()) })
	if err != nil {
		return 0, fmt.Errorf("formula %q: %w", formula, err)
	}
	if !isFinite(v) {
		return 0, fmt.Errorf("formula %q: %w", formula, ErrNotFinite)
	}
	return v, nil
}

// Check reports syntax errors without evaluating.
func (e *Engine) Check(formula string) error {
	if _, err := strconv.ParseFloat(strings.TrimSpace(formula), 64); err == nil {
		return nil
	}
	_, err := e.compile(formula)
	return err
}

// Variables returns the variable names used by formula.
func (e *Engine) Variables(formula string) ([]string, error) {
	if _, err := strconv.ParseFloat(strings.TrimSpace(formula), 64); err == nil {
		return nil, nil
	}
	c, err := e.compile(formula)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), c.vars...), nil
}

func (e *Engine) compile(formula string) (*compiled, error) {
	if c, ok := e.cache.Get(formula); ok {
		return c, nil
	}
	c, err := translate(formula)
	if err != nil {
		return nil, err
	}
	e.cache.Add(formula, c)
	e.logger.Debug("translated formula", "formula", formula, "expr", c.expr)
	return c, nil
}

// run executes source in a fresh sandbox and returns the value of the last
// expression.
func run(source string) (float64, error) {
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	if err := env.LoadString(source); err != nil {
		return 0, sandboxError(err)
	}
	res, err := env.Run()
	if err != nil {
		return 0, sandboxError(err)
	}
	return toFloat64(res)
}

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("%w: expected number, got %T", ErrSandbox, s)
}

func isFinite(v float64) bool { return !math.IsInf(v, 0) && !math.IsNaN(v) }

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// sandboxError strips the location prefix from a zygomys error. Locations
// refer to the generated program, not to the formula.
func sandboxError(err error) error {
	msg := strings.TrimSpace(err.Error())
	if m := linePattern.FindStringSubmatch(msg); m != nil {
		msg = strings.TrimSpace(m[2])
	}
	return fmt.Errorf("%w: %s", ErrSandbox, msg)
}

// Calculator binds an Engine to a variable table.
type Calculator struct {
	engine *Engine
	vars   measure.Table
}

var _ sketch.Calculator = (*Calculator)(nil)

// Calculator returns a sketch.Calculator evaluating against vars.
func (e *Engine) Calculator(vars measure.Table) *Calculator {
	return &Calculator{engine: e, vars: vars}
}

func (c *Calculator) Eval(formula string) (float64, error) {
	return c.engine.Evaluate(formula, c.vars)
}

// Vars returns the table the calculator reads.
func (c *Calculator) Vars() measure.Table { return c.vars }

package engine

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chazu/selvage/pkg/measure"
)

func TestEvaluateLiteral(t *testing.T) {
	eng := NewEngine(nil)

	for _, src := range []string{"12.5", " 12.5 ", "-3", "1e2"} {
		v, err := eng.Evaluate(src, nil)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", src, err)
		}
		want := map[string]float64{"12.5": 12.5, " 12.5 ": 12.5, "-3": -3, "1e2": 100}[src]
		if v != want {
			t.Errorf("%q: got %v, want %v", src, v, want)
		}
	}
}

func TestEvaluateArithmetic(t *testing.T) {
	eng := NewEngine(nil)
	vars := measure.Values{
		"height":   172,
		"#ease":    2,
		"@custom":  10,
		"waist_c2": 80,
	}

	tests := []struct {
		formula string
		want    float64
	}{
		{"1 + 2", 3},
		{"7 / 2", 3.5},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 - 4 - 3", 3},
		{"-height / 4", -43},
		{"-(1 + 1)", -2},
		{"+5", 5},
		{"height / 2 + #ease", 88},
		{"@custom * 1.5", 15},
		{"waist_c2 / 4 + #ease * 0.5", 21},
		{"(#ease)", 2},
	}
	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			got, err := eng.Evaluate(tt.formula, vars)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateNegativeVariable(t *testing.T) {
	eng := NewEngine(nil)
	got, err := eng.Evaluate("a * 2", measure.Values{"a": -1.25})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != -2.5 {
		t.Errorf("got %v, want -2.5", got)
	}
}

func TestEvaluateUnknownVariable(t *testing.T) {
	eng := NewEngine(nil)

	_, err := eng.Evaluate("height + 1", measure.Values{})
	if !errors.Is(err, ErrUnknownVariable) {
		t.Fatalf("expected ErrUnknownVariable, got %v", err)
	}
	if !strings.Contains(err.Error(), "height") {
		t.Errorf("error should name the variable, got %v", err)
	}

	_, err = eng.Evaluate("height + 1", nil)
	if !errors.Is(err, ErrUnknownVariable) {
		t.Fatalf("nil table: expected ErrUnknownVariable, got %v", err)
	}
}

func TestEvaluateSyntaxErrors(t *testing.T) {
	eng := NewEngine(nil)

	tests := []struct {
		formula string
		pos     int
	}{
		{"", 1},
		{"1 +", 4},
		{"(1 + 2", 7},
		{"1 + 2)", 6},
		{"2 $ 3", 3},
		{"sqrt(4)", 1},
		{"1.2.3", 1},
		{"2 height", 3},
	}
	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			_, err := eng.Evaluate(tt.formula, measure.Values{"height": 1})
			var fe *FormulaError
			if !errors.As(err, &fe) {
				t.Fatalf("expected *FormulaError, got %T: %v", err, err)
			}
			if fe.Pos != tt.pos {
				t.Errorf("pos = %d, want %d (%s)", fe.Pos, tt.pos, fe.Message)
			}
			if err := eng.Check(tt.formula); err == nil {
				t.Error("Check should report the same error")
			}
		})
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	eng := NewEngine(nil)
	if _, err := eng.Evaluate("1 / zero", measure.Values{"zero": 0}); err == nil {
		t.Fatal("expected an error for division by zero")
	}
}

func TestEvaluateRejectsNonFiniteVariables(t *testing.T) {
	eng := NewEngine(nil)
	_, err := eng.Evaluate("a + 1", measure.Values{"a": math.Inf(1)})
	if !errors.Is(err, ErrNotFinite) {
		t.Fatalf("expected ErrNotFinite, got %v", err)
	}
}

func TestVariables(t *testing.T) {
	eng := NewEngine(nil)
	vars, err := eng.Variables("a + #b * a - @c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a", "#b", "@c"}
	if strings.Join(vars, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", vars, want)
	}

	vars, err = eng.Variables("42")
	if err != nil || vars != nil {
		t.Errorf("literal: got %v, %v", vars, err)
	}
}

func TestSymbolForIsInjective(t *testing.T) {
	names := []string{"#a", "@a", "a", "_a", "a_", "x_23a"}
	seen := make(map[string]string)
	for _, n := range names {
		s := symbolFor(n)
		if prev, dup := seen[s]; dup {
			t.Errorf("%q and %q both map to %q", prev, n, s)
		}
		seen[s] = n
	}
}

func TestTranslate(t *testing.T) {
	c, err := translate("-a + 2 * (b - 1)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "(+ (- 0.0 v_a) (* 2.0 (- v_b 1.0)))"
	if c.expr != want {
		t.Errorf("expr = %s, want %s", c.expr, want)
	}
}

func TestFloatLiteral(t *testing.T) {
	tests := map[float64]string{
		0:     "0.0",
		3:     "3.0",
		2.5:   "2.5",
		-4:    "(- 0.0 4.0)",
		1e-3:  "0.001",
		12e20: "1200000000000000000000.0",
	}
	for v, want := range tests {
		if got := floatLiteral(v); got != want {
			t.Errorf("floatLiteral(%v) = %s, want %s", v, got, want)
		}
	}
}

func TestCalculator(t *testing.T) {
	eng := NewEngine(nil)
	calc := eng.Calculator(measure.Values{"w": 40})
	v, err := calc.Eval("w / 4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 10 {
		t.Errorf("got %v, want 10", v)
	}
	if _, ok := calc.Vars().Value("w"); !ok {
		t.Error("Vars should expose the bound table")
	}
}

func TestEngineConcurrent(t *testing.T) {
	eng := NewEngine(nil)
	vars := measure.Values{"x": 3}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := eng.Evaluate("x * x + 1", vars)
			if err != nil {
				errs <- err
				return
			}
			if v != 10 {
				errs <- errors.New("wrong result")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestRunWithTimeoutPanics(t *testing.T) {
	_, err := runWithTimeout(func() (float64, error) { panic("boom") })
	if !errors.Is(err, ErrSandbox) {
		t.Fatalf("expected ErrSandbox, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("panic value should be reported, got %v", err)
	}
}

func TestRunWithTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	done := make(chan error, 1)
	go func() {
		_, err := runWithTimeout(func() (float64, error) {
			<-block
			return 0, nil
		})
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil || !strings.Contains(err.Error(), "timed out") {
			t.Errorf("expected timeout error, got %v", err)
		}
	case <-time.After(EvalTimeout + 2*time.Second):
		t.Fatal("test itself timed out waiting for evaluation timeout")
	}
}

func TestSandboxError(t *testing.T) {
	err := sandboxError(errors.New("Error on line 3: unexpected token\n"))
	if !errors.Is(err, ErrSandbox) {
		t.Fatalf("expected ErrSandbox, got %v", err)
	}
	if strings.Contains(err.Error(), "line 3") {
		t.Errorf("location should be stripped, got %v", err)
	}
	if !strings.Contains(err.Error(), "unexpected token") {
		t.Errorf("detail should be kept, got %v", err)
	}
}

package engine

import (
	"fmt"
	"time"
)

// EvalTimeout is the hard limit for a single formula evaluation.
const EvalTimeout = 2 * time.Second

type evalResult struct {
	value float64
	err   error
}

// runWithTimeout runs fn on its own goroutine and waits at most EvalTimeout.
// Panics inside the interpreter are turned into errors.
//
// On timeout the goroutine may still be running; its result is dropped
// into the buffered channel and discarded.
func runWithTimeout(fn func() (float64, error)) (float64, error) {
	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("%w: panic during evaluation: %v", ErrSandbox, r)}
			}
		}()
		v, err := fn()
		ch <- evalResult{value: v, err: err}
	}()

	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.value, res.err
	case <-timer.C:
		return 0, fmt.Errorf("%w: timed out after %s", ErrSandbox, EvalTimeout)
	}
}

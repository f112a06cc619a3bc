// Package workload holds the instrumented demo programs run by the markprof
// command: a recursive fibonacci, a deliberately wasteful summation and a
// loop driver using id-based records.
//
// Every function measures itself on the profiler thread carried by its
// context (see profiler.WithThread).
package workload

import (
	"context"
	"fmt"

	"github.com/wesleyorama2/markprof/internal/profiler"
)

// maxInefficientLen bounds the slice allocated by Inefficient.
const maxInefficientLen = 1 << 22

// Tools returns a provider for the global components plus extra.
func Tools(extra ...string) profiler.ComponentSetProvider {
	return profiler.ProviderFunc(func() ([]string, error) {
		return append([]string{profiler.GlobalBundle}, extra...), nil
	})
}

// Workload runs the demo programs with one component set.
type Workload struct {
	Provider profiler.ComponentSetProvider
}

// New creates a workload measuring the global components plus extra.
func New(extra ...string) *Workload {
	return &Workload{Provider: Tools(extra...)}
}

// Fibonacci computes the n-th fibonacci number recursively. Every call is a
// "fibonacci" region nested in its caller.
func (w *Workload) Fibonacci(ctx context.Context, n int) (int, error) {
	return profiler.ScopeValue(ctx, "fibonacci", w.Provider, func(ctx context.Context) (int, error) {
		if n < 2 {
			return n, nil
		}
		a, err := w.Fibonacci(ctx, n-1)
		if err != nil {
			return 0, err
		}
		b, err := w.Fibonacci(ctx, n-2)
		if err != nil {
			return 0, err
		}
		return a + b, nil
	})
}

// Inefficient sums a quadratic loop, then allocates and sums a slice sized
// from the result.
func (w *Workload) Inefficient(ctx context.Context, n int) (float64, error) {
	key := fmt.Sprintf("inefficient(%d)", n)
	return profiler.ScopeValue(ctx, key, w.Provider, func(context.Context) (float64, error) {
		return inefficient(n), nil
	})
}

func inefficient(n int) float64 {
	a := 0
	for i := 0; i < n; i++ {
		a += i
		for j := 0; j < n; j++ {
			a += j
		}
	}

	arr := make([]float64, inefficientLen(a, n))
	for i := range arr {
		arr[i] = float64(i)
	}

	var sum float64
	for _, v := range arr {
		sum += v
	}
	return sum
}

// inefficientLen returns a*n clamped to [0, maxInefficientLen] without
// overflowing.
func inefficientLen(a, n int) int {
	if a <= 0 || n <= 0 {
		return 0
	}
	if a > maxInefficientLen/n {
		return maxInefficientLen
	}
	return a * n
}

// Run computes fibonacci(n) + fibonacci(n%5+1) and divides Inefficient(n)
// by it, all within a "run(n)" region.
func (w *Workload) Run(ctx context.Context, n int) (float64, error) {
	key := fmt.Sprintf("run(%d)", n)
	return profiler.ScopeValue(ctx, key, w.Provider, func(ctx context.Context) (float64, error) {
		a, err := w.Fibonacci(ctx, n)
		if err != nil {
			return 0, err
		}
		b, err := w.Fibonacci(ctx, n%5+1)
		if err != nil {
			return 0, err
		}
		sum, err := w.Inefficient(ctx, n)
		if err != nil {
			return 0, err
		}
		return sum / float64(a+b), nil
	})
}

// fib is the uninstrumented recursion measured as a whole by Loops.
func fib(n int) int {
	if n < 2 {
		return n
	}
	return fib(n-1) + fib(n-2)
}

// Loops brackets uninstrumented fibonacci computations with id-based
// records: "total" encloses "fib" and "total_loops", which encloses
// "loop_1" (2*iterations calls) and "loop_2" (iterations calls).
func Loops(t *profiler.Thread, n, iterations int) (int, error) {
	var ans int
	step := func(key string, body func() error) error {
		id, err := t.BeginRecord(key)
		if err != nil {
			return err
		}
		if err := body(); err != nil {
			return err
		}
		return t.EndRecord(id)
	}

	err := step("total", func() error {
		if err := step("fib", func() error {
			ans = fib(n)
			return nil
		}); err != nil {
			return err
		}
		return step("total_loops", func() error {
			if err := step("loop_1", func() error {
				for i := 0; i < 2*iterations; i++ {
					ans += fib(n + 1)
				}
				return nil
			}); err != nil {
				return err
			}
			return step("loop_2", func() error {
				for i := 0; i < iterations; i++ {
					ans += fib(n + 1)
				}
				return nil
			})
		})
	})
	return ans, err
}

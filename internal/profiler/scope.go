package profiler

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/wesleyorama2/markprof/internal/fault"
)

type threadKey struct{}

// WithThread returns a context carrying t.
func WithThread(ctx context.Context, t *Thread) context.Context {
	return context.WithValue(ctx, threadKey{}, t)
}

// ThreadFrom returns the thread carried by ctx, or nil.
func ThreadFrom(ctx context.Context) *Thread {
	t, _ := ctx.Value(threadKey{}).(*Thread)
	return t
}

func threadOf(ctx context.Context, key string) (*Thread, error) {
	t := ThreadFrom(ctx)
	if t == nil {
		return nil, fmt.Errorf("marker %q: no profiler thread in context: %w", key, fault.ErrConfiguration)
	}
	return t, nil
}

// Scope measures fn as region key on the thread carried by ctx. The marker
// is stopped when fn returns or panics; a panic continues after the stop.
// The returned error joins fn's error with any error from Stop.
func Scope(ctx context.Context, key string, provider ComponentSetProvider, fn func(context.Context) error, opts ...MarkerOption) error {
	_, err := ScopeValue(ctx, key, provider, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, opts...)
	return err
}

// ScopeValue is Scope for functions that return a value.
func ScopeValue[T any](ctx context.Context, key string, provider ComponentSetProvider, fn func(context.Context) (T, error), opts ...MarkerOption) (T, error) {
	var zero T
	t, err := threadOf(ctx, key)
	if err != nil {
		return zero, err
	}
	m, err := t.Begin(key, provider, opts...)
	if err != nil {
		return zero, err
	}

	stopped := false
	defer func() {
		if !stopped {
			_ = m.Stop()
		}
	}()

	v, err := fn(ctx)
	stopped = true
	return v, errors.Join(err, m.Stop())
}

// Wrap returns fn instrumented as a region on the thread carried by the
// call's context. An empty key uses fn's function name. provider is
// resolved on every call.
func Wrap[A, R any](key string, provider ComponentSetProvider, fn func(context.Context, A) (R, error), opts ...MarkerOption) func(context.Context, A) (R, error) {
	if key == "" {
		key = FuncName(fn)
	}
	return func(ctx context.Context, arg A) (R, error) {
		return ScopeValue(ctx, key, provider, func(ctx context.Context) (R, error) {
			return fn(ctx, arg)
		}, opts...)
	}
}

// WrapFunc is Wrap for functions without an argument or a result.
func WrapFunc(key string, provider ComponentSetProvider, fn func(context.Context) error, opts ...MarkerOption) func(context.Context) error {
	if key == "" {
		key = FuncName(fn)
	}
	return func(ctx context.Context) error {
		return Scope(ctx, key, provider, fn, opts...)
	}
}

// FuncName returns the package-qualified name of a function value, such as
// "workload.Fibonacci".
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return "<unknown>"
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return "<unknown>"
	}
	name := rf.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSuffix(name, "-fm")
}

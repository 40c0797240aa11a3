// Package provider defines the generic contracts used for every swappable
// backend in the research engine, most importantly the three remote stage
// calls (plan, search, write).
//
// A backend is a RequestResponse[I, O]. Cross-cutting behavior is layered
// with Middleware and composed with Chain:
//
//	planner := provider.Chain(
//	    provider.WithLogging[string, research.WorkPlan](log),
//	    provider.WithTracing[string, research.WorkPlan]("research"),
//	    provider.WithResilienceMiddleware[string, research.WorkPlan](cfg),
//	)(rawPlanner)
//
// Adapt bridges a backend speaking its own types (an LLM completion call)
// to a domain contract.
package provider

import "context"

// Provider is implemented by every backend.
type Provider interface {
	Name() string
	IsAvailable(ctx context.Context) bool
}

// Factory creates a provider from a loosely typed config map.
type Factory[T Provider] func(cfg map[string]any) (T, error)

// Closeable is implemented by providers holding resources.
type Closeable interface {
	Close(ctx context.Context) error
}

// Func turns a plain function into a RequestResponse provider that is
// always available.
func Func[I, O any](name string, fn func(ctx context.Context, input I) (O, error)) RequestResponse[I, O] {
	return &funcRR[I, O]{name: name, fn: fn}
}

type funcRR[I, O any] struct {
	name string
	fn   func(ctx context.Context, input I) (O, error)
}

func (f *funcRR[I, O]) Name() string                     { return f.name }
func (f *funcRR[I, O]) IsAvailable(context.Context) bool { return true }

func (f *funcRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return f.fn(ctx, input)
}

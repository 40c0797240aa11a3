package provider

import (
	"context"
	"errors"

	apperrors "github.com/kbukum/deepresearch/errors"
	"github.com/kbukum/deepresearch/resilience"
)

// ResilienceConfig bundles optional policies. Nil fields are skipped.
type ResilienceConfig struct {
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	Retry          *resilience.RetryConfig          `yaml:"retry" mapstructure:"retry"`
	RateLimiter    *resilience.RateLimiterConfig    `yaml:"rate_limiter" mapstructure:"rate_limiter"`
	Bulkhead       *resilience.BulkheadConfig       `yaml:"bulkhead" mapstructure:"bulkhead"`
}

// IsEmpty reports whether no policy is configured.
func (c ResilienceConfig) IsEmpty() bool {
	return c.CircuitBreaker == nil && c.Retry == nil && c.RateLimiter == nil && c.Bulkhead == nil
}

type resilienceState struct {
	cb       *resilience.CircuitBreaker
	rl       *resilience.RateLimiter
	bh       *resilience.Bulkhead
	retryCfg *resilience.RetryConfig
}

func buildResilience(cfg ResilienceConfig) *resilienceState {
	s := &resilienceState{retryCfg: cfg.Retry}
	if cfg.CircuitBreaker != nil {
		s.cb = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	if cfg.RateLimiter != nil {
		s.rl = resilience.NewRateLimiter(*cfg.RateLimiter)
	}
	if cfg.Bulkhead != nil {
		s.bh = resilience.NewBulkhead(*cfg.Bulkhead)
	}
	return s
}

// WithResilience wraps p in RateLimiter -> Bulkhead -> CircuitBreaker ->
// Retry -> Execute. An empty config returns p unchanged.
func WithResilience[I, O any](p RequestResponse[I, O], cfg ResilienceConfig) RequestResponse[I, O] {
	if cfg.IsEmpty() {
		return p
	}
	return &resilientRR[I, O]{inner: p, state: buildResilience(cfg)}
}

// WithResilienceMiddleware is WithResilience in Middleware form.
func WithResilienceMiddleware[I, O any](cfg ResilienceConfig) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return WithResilience(inner, cfg)
	}
}

type resilientRR[I, O any] struct {
	inner RequestResponse[I, O]
	state *resilienceState
}

func (r *resilientRR[I, O]) Name() string                         { return r.inner.Name() }
func (r *resilientRR[I, O]) IsAvailable(ctx context.Context) bool { return r.inner.IsAvailable(ctx) }

// Close releases the wrapped provider when it holds resources.
func (r *resilientRR[I, O]) Close(ctx context.Context) error {
	if c, ok := r.inner.(Closeable); ok {
		return c.Close(ctx)
	}
	return nil
}

func (r *resilientRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	return execute(ctx, r.state, func() (O, error) { return r.inner.Execute(ctx, input) })
}

func execute[T any](ctx context.Context, s *resilienceState, fn func() (T, error)) (T, error) {
	var zero T
	if s.rl != nil {
		if err := s.rl.Wait(ctx); err != nil {
			return zero, wrapResilienceError(err)
		}
	}

	call := fn
	if s.retryCfg != nil {
		cfg := *s.retryCfg
		call = func() (T, error) { return resilience.Retry(ctx, cfg, fn) }
	}

	if s.cb != nil {
		inner := call
		call = func() (T, error) {
			var result T
			var callErr error
			cbErr := s.cb.Execute(func() error {
				result, callErr = inner()
				return callErr
			})
			if cbErr != nil && callErr == nil {
				return result, wrapResilienceError(cbErr)
			}
			return result, callErr
		}
	}

	if s.bh != nil {
		inner := call
		result, err := resilience.ExecuteWithResult(s.bh, ctx, inner)
		return result, wrapResilienceError(err)
	}
	return call()
}

// wrapResilienceError maps resilience sentinels onto AppErrors.
func wrapResilienceError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return apperrors.ServiceUnavailable("provider").WithCause(err)
	case errors.Is(err, resilience.ErrRateLimited):
		return apperrors.RateLimited().WithCause(err)
	case errors.Is(err, resilience.ErrBulkheadFull), errors.Is(err, resilience.ErrBulkheadTimeout):
		return apperrors.ServiceUnavailable("provider").WithCause(err).
			WithDetail("reason", "concurrency limit reached")
	case errors.Is(err, context.Canceled):
		return apperrors.Timeout("request canceled").WithCause(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("deadline exceeded").WithCause(err)
	default:
		return err
	}
}

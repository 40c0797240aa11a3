package research

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/kbukum/deepresearch/errors"
	"github.com/kbukum/deepresearch/logger"
	"github.com/kbukum/deepresearch/observability"
	"github.com/kbukum/deepresearch/resilience"
)

// Executor fans a plan out to a Searcher.
type Executor struct {
	searcher Searcher
	bulkhead *resilience.Bulkhead
	dedupe   bool
	metrics  *observability.Metrics
	log      *logger.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMaxConcurrency caps in-flight searches across every ExecuteAll call.
// Items beyond the cap wait for a slot (or for their context to end).
func WithMaxConcurrency(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
				Name:          "research.search",
				MaxConcurrent: n,
				MaxWait:       -1,
			})
		}
	}
}

// WithDedupe collapses identical in-flight searches of one plan into a
// single remote call. Items are identical when both query and reason match.
// Every item still settles with the shared result.
func WithDedupe(enabled bool) ExecutorOption {
	return func(e *Executor) { e.dedupe = enabled }
}

// WithExecutorMetrics records one search outcome per settled item.
func WithExecutorMetrics(m *observability.Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// NewExecutor creates an executor over searcher. Dedupe is on by default.
func NewExecutor(searcher Searcher, opts ...ExecutorOption) *Executor {
	e := &Executor{searcher: searcher, dedupe: true, log: logger.Get("executor")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExecuteAll launches one goroutine per item before awaiting any of them,
// then collects outcomes in completion order. Each settled item, success or
// failure, pushes "Searching... k/N completed" onto progress. Failures are
// dropped from Payloads and never cancel siblings; if every item fails the
// result simply carries no payloads.
func (e *Executor) ExecuteAll(ctx context.Context, items []WorkItem, progress ProgressSink) ExecutionResult {
	total := len(items)
	result := ExecutionResult{Total: total}
	if total == 0 {
		return result
	}

	var group singleflight.Group
	settled := make(chan Outcome, total)
	for _, item := range items {
		go func() { settled <- e.searchOne(ctx, &group, item) }()
	}

	log := e.log.WithContext(ctx)
	for result.Completed < total {
		o := <-settled
		result.Completed++
		result.Outcomes = append(result.Outcomes, o)
		if o.OK() {
			result.Payloads = append(result.Payloads, o.Payload)
		} else {
			log.Warn("search dropped", logger.Fields(
				logger.FieldQuery, o.Item.Query,
				logger.FieldError, o.Err.Error(),
			))
		}
		if e.metrics != nil {
			e.metrics.RecordSearch(ctx, o.OK())
		}
		progress.Push(fmt.Sprintf("Searching... %d/%d completed\n", result.Completed, total))
	}
	return result
}

func (e *Executor) searchOne(ctx context.Context, group *singleflight.Group, item WorkItem) (o Outcome) {
	o.Item = item
	defer func() {
		if r := recover(); r != nil {
			o.Payload = ""
			o.Err = errors.SearchFailed(item.Query, fmt.Errorf("panic: %v", r))
		}
	}()

	ctx, span := observability.StartSpan(ctx, observability.SpanSearch)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrQuery, item.Query)

	call := func() (string, error) {
		if e.bulkhead == nil {
			return e.searcher.Execute(ctx, item)
		}
		return resilience.ExecuteWithResult(e.bulkhead, ctx, func() (string, error) {
			return e.searcher.Execute(ctx, item)
		})
	}

	var payload string
	var err error
	if e.dedupe {
		var v any
		v, err, _ = group.Do(dedupeKey(item), func() (any, error) { return call() })
		payload, _ = v.(string)
	} else {
		payload, err = call()
	}

	if err != nil {
		observability.SetSpanError(ctx, err)
		return Outcome{Item: item, Err: errors.SearchFailed(item.Query, err)}
	}
	return Outcome{Item: item, Payload: payload}
}

// dedupeKey identifies a search by everything the searcher receives. Case
// and spacing are ignored; a different reason is a different search.
func dedupeKey(item WorkItem) string {
	return normalize(item.Query) + "\x00" + normalize(item.Reason)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

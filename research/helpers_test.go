package research

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/deepresearch/provider"
)

// recorder is a ProgressSink that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []string
	onPush func(string)
}

func (r *recorder) Push(event string) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	if r.onPush != nil {
		r.onPush(event)
	}
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) joined() string { return strings.Join(r.all(), "") }

func items(queries ...string) []WorkItem {
	out := make([]WorkItem, len(queries))
	for i, q := range queries {
		out[i] = WorkItem{Query: q, Reason: "because " + q}
	}
	return out
}

func staticPlanner(plan WorkPlan) Planner {
	return provider.Func("planner", func(context.Context, string) (WorkPlan, error) { return plan, nil })
}

func failingPlanner(err error) Planner {
	return provider.Func("planner", func(context.Context, string) (WorkPlan, error) { return WorkPlan{}, err })
}

// searcherFailing fails for the listed queries and echoes the rest.
func searcherFailing(fail ...string) Searcher {
	set := map[string]bool{}
	for _, q := range fail {
		set[q] = true
	}
	return provider.Func("searcher", func(_ context.Context, item WorkItem) (string, error) {
		if set[item.Query] {
			return "", errors.New("upstream rejected " + item.Query)
		}
		return "summary of " + item.Query, nil
	})
}

// captureWriter records the request and returns a report naming the results.
type captureWriter struct {
	mu    sync.Mutex
	calls int
	req   WriteRequest
	err   error
}

func (w *captureWriter) Name() string                     { return "writer" }
func (w *captureWriter) IsAvailable(context.Context) bool { return true }

func (w *captureWriter) Execute(_ context.Context, req WriteRequest) (Report, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	w.req = req
	if w.err != nil {
		return Report{}, w.err
	}
	return Report{
		ShortSummary:      "summary",
		Markdown:          fmt.Sprintf("# %s\n\nBased on %d sources.", req.Query, len(req.Results)),
		FollowUpQuestions: []string{"What next?"},
	}, nil
}

func (w *captureWriter) snapshot() (int, WriteRequest) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls, w.req
}

// collect drains st with a test deadline.
func collect(t *testing.T, st *Stream) []string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	frames, err := provider.Collect[string](ctx, st)
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	return frames
}

func assertPrefixMonotonic(t *testing.T, frames []string) {
	t.Helper()
	for i := 1; i < len(frames); i++ {
		if !strings.HasPrefix(frames[i], frames[i-1]) {
			t.Fatalf("frame %d is not an extension of frame %d:\n%q\n%q", i, i-1, frames[i-1], frames[i])
		}
	}
}

package research

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/deepresearch/errors"
	"github.com/kbukum/deepresearch/provider"
)

func TestExecuteAll_PartialFailures(t *testing.T) {
	tests := []struct {
		name    string
		queries []string
		failing []string
	}{
		{"all succeed", []string{"a", "b", "c"}, nil},
		{"one fails", []string{"a", "b"}, []string{"b"}},
		{"most fail", []string{"a", "b", "c", "d", "e"}, []string{"a", "c", "e"}},
		{"all fail", []string{"a", "b", "c"}, []string{"a", "b", "c"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &recorder{}
			ex := NewExecutor(searcherFailing(tc.failing...))
			res := ex.ExecuteAll(context.Background(), items(tc.queries...), rec)

			n, k := len(tc.queries), len(tc.failing)
			if len(res.Payloads) != n-k {
				t.Errorf("expected %d payloads, got %d", n-k, len(res.Payloads))
			}
			if res.Total != n || res.Completed != n || len(res.Outcomes) != n {
				t.Errorf("unexpected counts %+v", res)
			}
			if res.Failed() != k {
				t.Errorf("expected %d failed, got %d", k, res.Failed())
			}
			events := rec.all()
			if len(events) != n {
				t.Fatalf("expected %d progress events, got %d", n, len(events))
			}
			for i, ev := range events {
				want := fmt.Sprintf("Searching... %d/%d completed\n", i+1, n)
				if ev != want {
					t.Errorf("event %d: got %q want %q", i, ev, want)
				}
			}
			for _, o := range res.Outcomes {
				if !o.OK() && !errors.HasCode(o.Err, errors.ErrCodeSearchFailed) {
					t.Errorf("expected SEARCH_FAILED, got %v", o.Err)
				}
			}
		})
	}
}

func TestExecuteAll_EmptyPlan(t *testing.T) {
	rec := &recorder{}
	res := NewExecutor(searcherFailing()).ExecuteAll(context.Background(), nil, rec)
	if res.Total != 0 || res.Completed != 0 || len(res.Payloads) != 0 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(rec.all()) != 0 {
		t.Errorf("expected no events, got %v", rec.all())
	}
}

func TestExecuteAll_LaunchesAllBeforeAwaiting(t *testing.T) {
	const n = 6
	var started sync.WaitGroup
	started.Add(n)
	allStarted := make(chan struct{})
	go func() { started.Wait(); close(allStarted) }()

	barrier := provider.Func("barrier", func(ctx context.Context, item WorkItem) (string, error) {
		started.Done()
		select {
		case <-allStarted:
			return item.Query, nil
		case <-time.After(2 * time.Second):
			return "", fmt.Errorf("%s never saw its siblings start", item.Query)
		}
	})

	res := NewExecutor(barrier, WithDedupe(false)).
		ExecuteAll(context.Background(), items("a", "b", "c", "d", "e", "f"), &recorder{})
	if len(res.Payloads) != n {
		t.Fatalf("expected all %d searches to run concurrently, got %d payloads", n, len(res.Payloads))
	}
}

func TestExecuteAll_CompletionOrder(t *testing.T) {
	release := make(chan struct{})
	searcher := provider.Func("ordered", func(_ context.Context, item WorkItem) (string, error) {
		if item.Query == "slow" {
			<-release
		}
		return item.Query, nil
	})
	rec := &recorder{onPush: func(ev string) {
		if strings.HasPrefix(ev, "Searching... 1/") {
			close(release)
		}
	}}

	res := NewExecutor(searcher).ExecuteAll(context.Background(), items("slow", "fast"), rec)
	if got := strings.Join(res.Payloads, ","); got != "fast,slow" {
		t.Fatalf("expected completion order fast,slow, got %s", got)
	}
	if res.Outcomes[0].Item.Query != "fast" {
		t.Errorf("expected outcomes in completion order, got %+v", res.Outcomes)
	}
}

func TestExecuteAll_PanicIsContained(t *testing.T) {
	searcher := provider.Func("panicky", func(_ context.Context, item WorkItem) (string, error) {
		if item.Query == "boom" {
			panic("search backend exploded")
		}
		return item.Query, nil
	})
	rec := &recorder{}
	res := NewExecutor(searcher).ExecuteAll(context.Background(), items("ok", "boom", "fine"), rec)
	if len(res.Payloads) != 2 || res.Completed != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(rec.all()) != 3 {
		t.Errorf("expected 3 events, got %d", len(rec.all()))
	}
}

func TestExecuteAll_MaxConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	searcher := provider.Func("capped", func(_ context.Context, item WorkItem) (string, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return item.Query, nil
	})

	res := NewExecutor(searcher, WithMaxConcurrency(2), WithDedupe(false)).
		ExecuteAll(context.Background(), items("a", "b", "c", "d", "e", "f", "g"), &recorder{})
	if len(res.Payloads) != 7 {
		t.Fatalf("expected 7 payloads, got %d", len(res.Payloads))
	}
	if peak.Load() > 2 {
		t.Errorf("expected at most 2 in flight, saw %d", peak.Load())
	}
}

func TestExecuteAll_DedupeSharesInFlightCall(t *testing.T) {
	var calls atomic.Int32
	searcher := provider.Func("slow", func(_ context.Context, item WorkItem) (string, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return "result for " + item.Query, nil
	})

	plan := []WorkItem{
		{Query: "Solid state batteries", Reason: "background"},
		{Query: "solid  state batteries", Reason: "Background"},
		{Query: "battery recycling", Reason: "adjacent"},
	}
	rec := &recorder{}
	res := NewExecutor(searcher).ExecuteAll(context.Background(), plan, rec)

	if len(res.Payloads) != 3 || res.Completed != 3 {
		t.Fatalf("every item must still settle, got %+v", res)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 remote calls, got %d", calls.Load())
	}
	if len(rec.all()) != 3 {
		t.Errorf("expected 3 progress events, got %d", len(rec.all()))
	}
}

func TestExecuteAll_DedupeKeepsDistinctReasons(t *testing.T) {
	var mu sync.Mutex
	reasons := map[string]bool{}
	searcher := provider.Func("slow", func(_ context.Context, item WorkItem) (string, error) {
		mu.Lock()
		reasons[item.Reason] = true
		mu.Unlock()
		time.Sleep(50 * time.Millisecond)
		return "summary for reason: " + item.Reason, nil
	})

	plan := []WorkItem{
		{Query: "EV battery costs", Reason: "price trend 2020-2024"},
		{Query: "ev battery costs", Reason: "regional differences in Asia"},
	}
	res := NewExecutor(searcher).ExecuteAll(context.Background(), plan, &recorder{})

	mu.Lock()
	defer mu.Unlock()
	if len(reasons) != 2 {
		t.Fatalf("expected both reasons to reach the searcher, got %v", reasons)
	}
	if len(res.Payloads) != 2 || res.Payloads[0] == res.Payloads[1] {
		t.Errorf("expected two distinct payloads, got %q", res.Payloads)
	}
}

func TestExecuteAll_ContextCancelledFailsItems(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	searcher := provider.Func("blocking", func(ctx context.Context, _ WorkItem) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	rec := &recorder{}
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	res := NewExecutor(searcher).ExecuteAll(ctx, items("a", "b"), rec)
	if len(res.Payloads) != 0 || res.Completed != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
}

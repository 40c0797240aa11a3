package api

import (
	"sync"
	"time"

	"github.com/kbukum/deepresearch/sse"
)

// liveRun is what a late watcher needs: the latest cumulative frame and,
// once the run ended, its terminal event.
type liveRun struct {
	last     *sse.Event
	terminal *sse.Event
}

// runRegistry tracks runs started by this process. Finished runs are kept
// for retention so a watcher arriving just after the end still gets the
// report. Publishing and subscribing hold mu across the hub call, which
// orders every registration against every broadcast.
type runRegistry struct {
	mu        sync.Mutex
	runs      map[string]*liveRun
	hub       *sse.Hub
	retention time.Duration
}

func newRunRegistry(hub *sse.Hub, retention time.Duration) *runRegistry {
	return &runRegistry{runs: make(map[string]*liveRun), hub: hub, retention: retention}
}

func runPattern(runID string) string { return "run:" + runID + ":*" }

// publish records e for runID and broadcasts it to the run's watchers.
func (r *runRegistry) publish(runID string, e sse.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[runID]
	if !ok {
		run = &liveRun{}
		r.runs[runID] = run
	}
	if e.Terminal() {
		run.terminal = &e
		time.AfterFunc(r.retention, func() { r.forget(runID) })
	} else {
		run.last = &e
	}
	if r.hub != nil {
		r.hub.Broadcast(runPattern(runID), e)
	}
}

// subscribe registers a watcher for runID, replaying what it missed. It
// returns false for unknown runs.
func (r *runRegistry) subscribe(runID, clientID string) (*sse.Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[runID]
	if !ok {
		return nil, false
	}
	opts := []sse.ClientOption{sse.WithMetadata("run_id", runID)}
	if run.last != nil {
		opts = append(opts, sse.WithReplay(*run.last))
	}
	if run.terminal != nil {
		opts = append(opts, sse.WithReplay(*run.terminal))
	}
	client := sse.NewClient(clientID, opts...)
	r.hub.Register(client)
	return client, true
}

func (r *runRegistry) forget(runID string) {
	r.mu.Lock()
	delete(r.runs, runID)
	r.mu.Unlock()
}

// active returns the number of runs that have not ended.
func (r *runRegistry) active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, run := range r.runs {
		if run.terminal == nil {
			n++
		}
	}
	return n
}

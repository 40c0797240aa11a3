// Package sse writes Server-Sent Events and fans research progress out to
// watchers.
//
// A Writer streams events on one response. The Hub relays events to every
// registered client whose id matches a glob pattern, so the request that
// started a run and any number of watchers see the same frames:
//
//	hub.Broadcast("run:"+runID+":*", sse.Event{Name: sse.EventProgress, Data: frame})
package sse

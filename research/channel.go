package research

import "sync"

// ProgressSink receives progress events.
type ProgressSink interface {
	Push(event string)
}

// ProgressChannel is an unbounded FIFO of progress events with many
// producers and a single consumer. Push and DrainAll never block.
type ProgressChannel struct {
	mu    sync.Mutex
	queue []string
	ready chan struct{}
}

// NewProgressChannel creates an empty channel.
func NewProgressChannel() *ProgressChannel {
	return &ProgressChannel{ready: make(chan struct{}, 1)}
}

// Push appends event and signals Ready.
func (c *ProgressChannel) Push(event string) {
	c.mu.Lock()
	c.queue = append(c.queue, event)
	c.mu.Unlock()

	select {
	case c.ready <- struct{}{}:
	default:
	}
}

// DrainAll removes and returns everything queued, or nil.
func (c *ProgressChannel) DrainAll() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.queue
	c.queue = nil
	return out
}

// Ready receives a value after at least one Push since the last receive.
// A receive does not guarantee DrainAll returns events.
func (c *ProgressChannel) Ready() <-chan struct{} { return c.ready }

// Len returns the number of queued events.
func (c *ProgressChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

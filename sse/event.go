package sse

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Event names.
const (
	EventConnected = "connected"
	EventProgress  = "progress"
	EventDone      = "done"
	EventError     = "error"
)

// Event is one SSE frame.
type Event struct {
	ID   string
	Name string
	Data []byte
}

// Terminal reports whether the event ends a research stream.
func (e Event) Terminal() bool { return e.Name == EventDone || e.Name == EventError }

// WriteTo writes e in wire format. Multi-line data is split into several
// data fields.
func (e Event) WriteTo(w io.Writer) (int64, error) {
	var b bytes.Buffer
	if e.ID != "" {
		fmt.Fprintf(&b, "id: %s\n", e.ID)
	}
	if e.Name != "" {
		fmt.Fprintf(&b, "event: %s\n", e.Name)
	}
	for _, line := range bytes.Split(e.Data, []byte("\n")) {
		b.WriteString("data: ")
		b.Write(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	n, err := w.Write(b.Bytes())
	return int64(n), err
}

// Writer streams events on one HTTP response.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter sets the SSE headers and lifts the server write deadline,
// which would otherwise cut long streams. It fails when w cannot flush.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("sse: streaming not supported by %T", w)
	}
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &Writer{w: w, flusher: flusher}, nil
}

// Send writes and flushes one event.
func (sw *Writer) Send(e Event) error {
	if _, err := e.WriteTo(sw.w); err != nil {
		return err
	}
	sw.flusher.Flush()
	return nil
}

// KeepAlive writes a comment line so proxies keep the connection open.
func (sw *Writer) KeepAlive() error {
	if _, err := fmt.Fprintf(sw.w, ": keepalive %d\n\n", time.Now().Unix()); err != nil {
		return err
	}
	sw.flusher.Flush()
	return nil
}

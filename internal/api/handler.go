package api

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/kbukum/deepresearch/errors"
	"github.com/kbukum/deepresearch/logger"
	"github.com/kbukum/deepresearch/research"
	"github.com/kbukum/deepresearch/server"
	"github.com/kbukum/deepresearch/sse"
	"github.com/kbukum/deepresearch/util"
	"github.com/kbukum/deepresearch/validation"
)

// RunRequest is the body of POST /api/v1/research.
type RunRequest struct {
	Query string `json:"query" validate:"max=4000"`
}

// Frame is the data of a progress event. Text is the whole buffer so far;
// clients replace what they show rather than append.
type Frame struct {
	RunID string `json:"run_id,omitempty"`
	Seq   int    `json:"seq"`
	Text  string `json:"text"`
}

// Outcome is the data of the terminal done or error event.
type Outcome struct {
	RunID      string               `json:"run_id,omitempty"`
	Frames     int                  `json:"frames"`
	State      string               `json:"state"`
	DurationMS int64                `json:"duration_ms,omitempty"`
	Error      *apperrors.ErrorBody `json:"error,omitempty"`
}

// Handler serves research runs over SSE.
type Handler struct {
	streamer  *research.Streamer
	hub       *sse.Hub
	runs      *runRegistry
	log       *logger.Logger
	keepAlive time.Duration
	retention time.Duration
	drain     time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithKeepAlive sets how long a stream may stay silent before a comment
// line is written. Default sse.KeepAliveInterval.
func WithKeepAlive(d time.Duration) Option {
	return func(h *Handler) { h.keepAlive = d }
}

// WithDrainTimeout bounds how long a run whose requester left is followed
// for watchers. Default 10s.
func WithDrainTimeout(d time.Duration) Option {
	return func(h *Handler) { h.drain = d }
}

// WithRetention sets how long a finished run stays watchable. Default 5m.
func WithRetention(d time.Duration) Option {
	return func(h *Handler) { h.retention = d }
}

// NewHandler creates a handler that starts runs on streamer and fans their
// events out through hub.
func NewHandler(streamer *research.Streamer, hub *sse.Hub, opts ...Option) *Handler {
	h := &Handler{
		streamer:  streamer,
		hub:       hub,
		log:       logger.Get("api"),
		keepAlive: sse.KeepAliveInterval,
		retention: 5 * time.Minute,
		drain:     10 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.runs = newRunRegistry(hub, h.retention)
	return h
}

// Register mounts the research routes on r. middleware runs before
// StartRun only; watching is cheap.
func (h *Handler) Register(r gin.IRouter, middleware ...gin.HandlerFunc) {
	g := r.Group("/api/v1/research")
	g.POST("", append(middleware, h.StartRun)...)
	g.GET("/:id/events", h.WatchRun)
}

// ActiveRuns returns the number of runs in flight.
func (h *Handler) ActiveRuns() int { return h.runs.active() }

// StartRun runs one research query and streams its cumulative frames as
// progress events, then a done or error event. Every event is also
// published to watchers of the run.
func (h *Handler) StartRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("body", "expected a JSON object with a query"))
		return
	}
	if err := validation.Struct(req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	sw, err := sse.NewWriter(c.Writer)
	if err != nil {
		server.RespondWithError(c, apperrors.Internal(err))
		return
	}

	ctx := c.Request.Context()
	stream := h.streamer.Stream(ctx, req.Query)
	defer stream.Close()

	for {
		text, ok, err := h.next(ctx, stream, sw)
		if err != nil {
			h.abandon(stream)
			return
		}
		if !ok {
			break
		}
		e := progressEvent(stream.RunID(), stream.Frames(), text)
		h.publish(stream, e)
		if err := sw.Send(e); err != nil {
			h.abandon(stream)
			return
		}
	}

	final := outcomeEvent(stream)
	h.publish(stream, final)
	_ = sw.Send(final)
}

// next waits for the next frame, writing keep-alives while the run is
// quiet. It fails only when the requester is gone.
func (h *Handler) next(ctx context.Context, stream *research.Stream, sw *sse.Writer) (string, bool, error) {
	for {
		waitCtx, cancel := context.WithTimeout(ctx, h.keepAlive)
		text, ok, err := stream.Next(waitCtx)
		cancel()
		if err == nil {
			return text, ok, nil
		}
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		if kerr := sw.KeepAlive(); kerr != nil {
			return "", false, kerr
		}
	}
}

// abandon drains a run whose requester left. The request context already
// cancelled the run, so this ends quickly; watchers still get the final
// frames and the error event.
func (h *Handler) abandon(stream *research.Stream) {
	runID := stream.RunID()
	h.log.Info("requester left before the run ended", logger.Fields(logger.FieldRunID, runID))
	if runID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), h.drain)
	defer cancel()
	for {
		text, ok, err := stream.Next(ctx)
		if err != nil || !ok {
			break
		}
		h.publish(stream, progressEvent(runID, stream.Frames(), text))
	}
	h.publish(stream, outcomeEvent(stream))
}

func (h *Handler) publish(stream *research.Stream, e sse.Event) {
	if runID := stream.RunID(); runID != "" {
		h.runs.publish(runID, e)
	}
}

// WatchRun follows a run started by another request. A watcher joining
// late first receives the latest frame, which holds everything so far.
func (h *Handler) WatchRun(c *gin.Context) {
	id, err := util.ValidateUUID("run_id", c.Param("id"))
	if err != nil {
		server.RespondWithError(c, apperrors.InvalidInput("run_id", err.Error()))
		return
	}
	runID := id.String()

	client, ok := h.runs.subscribe(runID, "run:"+runID+":"+uuid.NewString())
	if !ok {
		server.RespondWithError(c, apperrors.NotFound("run", runID))
		return
	}
	sse.ServeClient(h.hub, c.Writer, c.Request, client)
}

func progressEvent(runID string, seq int, text string) sse.Event {
	data, _ := json.Marshal(Frame{RunID: runID, Seq: seq, Text: text})
	return sse.Event{ID: strconv.Itoa(seq), Name: sse.EventProgress, Data: data}
}

// outcomeEvent describes a finished stream. A blank query never starts a
// run and ends with an invalid input error. A run that did not end within
// the abandon drain is reported as abandoned.
func outcomeEvent(stream *research.Stream) sse.Event {
	out := Outcome{RunID: stream.RunID(), Frames: stream.Frames()}
	name := sse.EventDone

	run := stream.Run()
	switch {
	case run == nil && out.RunID != "":
		name = sse.EventError
		out.State = "abandoned"
		body := apperrors.Timeout("research run").ToResponse().Error
		out.Error = &body
	case run == nil:
		name = sse.EventError
		out.State = "rejected"
		body := apperrors.InvalidInput("query", "must not be empty").ToResponse().Error
		out.Error = &body
	case run.Err != nil:
		name = sse.EventError
		out.State = run.State.String()
		appErr, ok := apperrors.AsAppError(run.Err)
		if !ok {
			appErr = apperrors.Internal(run.Err)
		}
		body := appErr.ToResponse().Error
		out.Error = &body
	default:
		out.State = run.State.String()
	}
	if run != nil && !run.EndedAt.IsZero() {
		out.DurationMS = run.EndedAt.Sub(run.StartedAt).Milliseconds()
	}

	data, _ := json.Marshal(out)
	return sse.Event{ID: strconv.Itoa(out.Frames + 1), Name: name, Data: data}
}

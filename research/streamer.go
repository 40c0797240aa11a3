package research

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/deepresearch/errors"
	"github.com/kbukum/deepresearch/logger"
	"github.com/kbukum/deepresearch/observability"
	"github.com/kbukum/deepresearch/provider"
)

// EmptyQueryNotice is the only frame yielded for a blank query.
const EmptyQueryNotice = "⚠️ Please enter a research query to get started."

const (
	reportHeading = "---\n\n# 📊 Research Report\n\n"
	supportHint   = "Please try again or contact support if the issue persists.\n"
)

// Streamer starts research runs and exposes them as cumulative text streams.
// It is safe for concurrent use; each Stream is independent.
type Streamer struct {
	orchestrator *Orchestrator
	cfg          Config
	metrics      *observability.Metrics
	newID        func() string
	log          *logger.Logger
}

// StreamerOption configures a Streamer.
type StreamerOption func(*Streamer)

// WithStreamerMetrics records run counts and durations.
func WithStreamerMetrics(m *observability.Metrics) StreamerOption {
	return func(s *Streamer) { s.metrics = m }
}

// WithIDGenerator replaces the random run id generator.
func WithIDGenerator(fn func() string) StreamerOption {
	return func(s *Streamer) { s.newID = fn }
}

// NewStreamer creates a streamer driving o. Zero fields of cfg take defaults.
func NewStreamer(o *Orchestrator, cfg Config, opts ...StreamerOption) *Streamer {
	cfg.ApplyDefaults()
	s := &Streamer{
		orchestrator: o,
		cfg:          cfg,
		newID:        uuid.NewString,
		log:          logger.Get("streamer"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements provider.Provider.
func (s *Streamer) Name() string { return "research" }

func (s *Streamer) IsAvailable(ctx context.Context) bool {
	return s.orchestrator.planner.IsAvailable(ctx) &&
		s.orchestrator.executor.searcher.IsAvailable(ctx) &&
		s.orchestrator.writer.IsAvailable(ctx)
}

// Execute implements provider.Stream[string, string].
func (s *Streamer) Execute(ctx context.Context, query string) (provider.Iterator[string], error) {
	return s.Stream(ctx, query), nil
}

// Stream prepares a run for query. Nothing starts until the first Next.
// ctx bounds the whole run: cancelling it fails the in-flight stage and the
// stream ends with an error notice.
func (s *Streamer) Stream(ctx context.Context, query string) *Stream {
	runCtx, cancel := context.WithCancel(ctx)
	return &Stream{
		s:        s,
		ctx:      runCtx,
		cancel:   cancel,
		query:    strings.TrimSpace(query),
		progress: NewProgressChannel(),
		done:     make(chan struct{}),
	}
}

type phase int

const (
	phaseNew phase = iota
	phaseRunning
	phaseEnded
)

// Stream is one research run seen as a sequence of cumulative text frames.
// Every frame is a prefix of the next. A Stream has a single consumer.
type Stream struct {
	s      *Streamer
	ctx    context.Context
	cancel context.CancelFunc
	query  string

	run      *PipelineRun
	progress *ProgressChannel
	done     chan struct{}
	ticker   *time.Ticker
	span     trace.Span

	phase   phase
	buf     strings.Builder
	frames  int
	settled bool

	closeOnce sync.Once
}

// RunID returns the run identifier, or "" before the first Next and for
// blank queries.
func (st *Stream) RunID() string {
	if st.run == nil {
		return ""
	}
	return st.run.ID
}

// Run returns the finished run, or nil while the stream is still live.
func (st *Stream) Run() *PipelineRun {
	if st.phase != phaseEnded {
		return nil
	}
	return st.run
}

// Frames returns the number of frames yielded so far.
func (st *Stream) Frames() int { return st.frames }

// Next blocks until there is new text and returns the whole buffer. It
// returns ok=false once the terminal frame has been yielded, and an error
// only when ctx ends first; the run keeps going in that case.
func (st *Stream) Next(ctx context.Context) (string, bool, error) {
	switch st.phase {
	case phaseEnded:
		return "", false, nil
	case phaseNew:
		if st.query == "" {
			st.phase = phaseEnded
			st.cancel()
			return st.yield(EmptyQueryNotice), true, nil
		}
		st.phase = phaseRunning
		return st.yield(st.start()), true, nil
	}

	for {
		select {
		case <-st.done:
			st.phase = phaseEnded
			return st.yield(st.drain() + st.finish()), true, nil
		case <-st.progress.Ready():
		case <-st.ticker.C:
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
		if events := st.drain(); events != "" {
			return st.yield(events), true, nil
		}
	}
}

// Close cancels the run if it is still going. It does not wait for the
// orchestrating goroutine to return. A run closed before its terminal frame
// is recorded as cancelled.
func (st *Stream) Close() error {
	st.closeOnce.Do(func() {
		st.cancel()
		if st.ticker != nil {
			st.ticker.Stop()
		}
		if st.phase == phaseRunning {
			st.settle("cancelled", time.Since(st.run.StartedAt), context.Canceled)
		}
	})
	return nil
}

func (st *Stream) yield(text string) string {
	st.buf.WriteString(text)
	st.frames++
	return st.buf.String()
}

func (st *Stream) drain() string {
	return strings.Join(st.progress.DrainAll(), "")
}

// start opens the run span, launches the orchestrator and returns the
// framing text.
func (st *Stream) start() string {
	s := st.s
	st.run = &PipelineRun{ID: s.newID(), Query: st.query, StartedAt: time.Now()}

	ctx := logger.ContextWithRunID(st.ctx, st.run.ID)
	ctx, st.span = observability.StartSpan(ctx, observability.SpanRun)
	observability.SetSpanAttribute(ctx, observability.AttrRunID, st.run.ID)
	observability.SetSpanAttribute(ctx, observability.AttrQuery, st.query)

	traceID := observability.TraceID(ctx)
	if traceID == "" {
		traceID = strings.ReplaceAll(st.run.ID, "-", "")
	}

	s.log.WithContext(ctx).Info("research run started", logger.Fields(logger.FieldQuery, st.query))
	if s.metrics != nil {
		s.metrics.RunStarted(ctx)
	}

	st.ticker = time.NewTicker(s.cfg.PollInterval)
	go st.orchestrate(ctx)

	return fmt.Sprintf("🚀 **Starting Deep Research** for query: *%s*\n\n"+
		"🆔 **Run ID**: %s\n"+
		"📊 **Trace ID**: %s\n"+
		"🔗 [View trace](%s)\n\n",
		st.query, st.run.ID, traceID, s.cfg.traceLink(st.run.ID, traceID))
}

func (st *Stream) orchestrate(ctx context.Context) {
	defer close(st.done)
	defer func() {
		if r := recover(); r != nil {
			st.run.Err = errors.Internal(fmt.Errorf("orchestrator panic: %v", r))
			st.run.State = StateFailed
		}
	}()
	_ = st.s.orchestrator.Run(ctx, st.run, st.progress)
}

// finish renders the terminal text and releases the run's resources.
func (st *Stream) finish() string {
	run := st.run
	run.EndedAt = time.Now()
	st.cancel()
	st.ticker.Stop()

	outcome := "completed"
	var text string
	if run.Err != nil {
		outcome = "failed"
		text = fmt.Sprintf("❌ **Error occurred**: %s\n\n%s", describe(run.Err), supportHint)
	} else {
		text = reportHeading + run.Report.String()
	}
	st.settle(outcome, run.EndedAt.Sub(run.StartedAt), run.Err)
	return text
}

// settle ends the run span and records the outcome. Only the first call
// counts, so a run closed early and drained later is recorded once.
func (st *Stream) settle(outcome string, d time.Duration, err error) {
	if st.settled {
		return
	}
	st.settled = true
	if err != nil {
		st.span.RecordError(err)
	}
	st.span.End()
	if st.s.metrics != nil {
		st.s.metrics.RunFinished(context.Background(), outcome, d)
	}
	st.s.log.Info("research run finished", logger.Fields(
		logger.FieldRunID, st.run.ID,
		logger.FieldStatus, outcome,
		logger.FieldDuration, d.Milliseconds(),
	))
}

// describe renders err for the user: the AppError message plus its cause.
func describe(err error) string {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return err.Error()
	}
	if appErr.Cause != nil {
		return fmt.Sprintf("%s (%v)", appErr.Message, appErr.Cause)
	}
	return appErr.Message
}

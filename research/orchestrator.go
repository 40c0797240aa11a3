package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kbukum/deepresearch/errors"
	"github.com/kbukum/deepresearch/logger"
	"github.com/kbukum/deepresearch/observability"
)

// State is the lifecycle position of a PipelineRun.
type State int

const (
	StateIdle State = iota
	StatePlanning
	StateExecuting
	StateSynthesizing
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlanning:
		return "planning"
	case StateExecuting:
		return "executing"
	case StateSynthesizing:
		return "synthesizing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is Done or Failed.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// PipelineRun is the state of one research run. It is written only by the
// orchestrating goroutine and must not be read until the run is terminal.
type PipelineRun struct {
	ID        string
	Query     string
	State     State
	Plan      WorkPlan
	Result    ExecutionResult
	Report    Report
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
}

// Progress messages pushed by the orchestrator.
const (
	msgPlanning   = "## 🎯 Planning searches...\n"
	msgWriting    = "📝 Writing report...\n"
	msgFinished   = "✅ Report complete\n\n"
	msgNoSearches = "No searches planned.\n\n"
)

// Orchestrator sequences plan, execute and synthesize.
type Orchestrator struct {
	planner  Planner
	executor *Executor
	writer   Writer
	log      *logger.Logger
}

// NewOrchestrator creates an orchestrator over the three stages.
func NewOrchestrator(planner Planner, executor *Executor, writer Writer) *Orchestrator {
	return &Orchestrator{
		planner:  planner,
		executor: executor,
		writer:   writer,
		log:      logger.Get("orchestrator"),
	}
}

// Run drives run from Idle to Done or Failed, pushing milestones onto
// progress. A planning or synthesis failure is stored in run.Err and
// returned; search failures never fail the run.
func (o *Orchestrator) Run(ctx context.Context, run *PipelineRun, progress ProgressSink) error {
	log := o.log.WithContext(ctx)

	o.transition(log, run, StatePlanning)
	progress.Push(msgPlanning)
	plan, err := o.plan(ctx, run.Query)
	if err != nil {
		return o.fail(log, run, errors.PlanningFailed(err))
	}
	run.Plan = plan
	progress.Push(formatPlan(plan))

	o.transition(log, run, StateExecuting)
	progress.Push(fmt.Sprintf("🔍 Performing %d searches...\n", plan.Total()))
	run.Result = o.executor.ExecuteAll(ctx, plan.Items, progress)
	progress.Push(fmt.Sprintf("✅ Finished searching: %d results\n\n", len(run.Result.Payloads)))
	log.Info("searches settled", logger.Fields(
		"planned", run.Result.Total,
		"succeeded", len(run.Result.Payloads),
		"dropped", run.Result.Failed(),
	))

	o.transition(log, run, StateSynthesizing)
	progress.Push(msgWriting)
	report, err := o.write(ctx, WriteRequest{Query: run.Query, Results: run.Result.Payloads})
	if err != nil {
		return o.fail(log, run, errors.SynthesisFailed(err))
	}
	run.Report = report
	progress.Push(msgFinished)
	o.transition(log, run, StateDone)
	return nil
}

func (o *Orchestrator) plan(ctx context.Context, query string) (WorkPlan, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanPlan)
	defer span.End()
	if err := ctx.Err(); err != nil {
		return WorkPlan{}, err
	}
	plan, err := o.planner.Execute(ctx, query)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return WorkPlan{}, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrPlanned, plan.Total())
	return plan, nil
}

func (o *Orchestrator) write(ctx context.Context, req WriteRequest) (Report, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanWrite)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrSucceeded, len(req.Results))
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	report, err := o.writer.Execute(ctx, req)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}
	return report, err
}

func (o *Orchestrator) transition(log *logger.Logger, run *PipelineRun, to State) {
	log.Debug("run state changed", logger.Fields("from", run.State.String(), "to", to.String()))
	run.State = to
}

func (o *Orchestrator) fail(log *logger.Logger, run *PipelineRun, err *errors.AppError) error {
	log.Error("run failed", logger.Fields(
		logger.FieldStage, run.State.String(),
		"code", string(err.Code),
		logger.FieldError, err.Error(),
	))
	run.Err = err
	run.State = StateFailed
	return err
}

func formatPlan(plan WorkPlan) string {
	if plan.Total() == 0 {
		return msgNoSearches
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 **Planned %d searches:**\n", plan.Total())
	for i, item := range plan.Items {
		fmt.Fprintf(&b, "%d. **%s**: %s\n", i+1, item.Query, item.Reason)
	}
	b.WriteString("\n")
	return b.String()
}

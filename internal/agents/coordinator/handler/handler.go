package handler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"
	executor "go-deepsearch/internal/agents/executor/handler"
	planner "go-deepsearch/internal/agents/planner/handler"
	reviewer "go-deepsearch/internal/agents/reviewer/handler"
	"go-deepsearch/internal/telemetry"
	"go-deepsearch/pkg/data"
	"go-deepsearch/pkg/events"
	"go-deepsearch/pkg/llm"
	"go-deepsearch/pkg/logger"
	"go-deepsearch/pkg/memory/buffer"
	"go-deepsearch/pkg/models"
	"go-deepsearch/pkg/prompts"
)

const (
	DefaultMaxIterations = 5
	DefaultSimilarity    = 0.8
)

type Planner interface {
	Plan(ctx context.Context, in planner.Input) (data.Plan, error)
}

type Executor interface {
	Execute(ctx context.Context, strategy models.SearchStrategy, session *executor.Session, onStep executor.StepFunc) (executor.Result, error)
}

type Reviewer interface {
	Review(ctx context.Context, in reviewer.Input) (models.ReviewResult, error)
}

type Options struct {
	MaxIterations int
	Threshold     int
	Similarity    float64
}

type Input struct {
	ID            string
	Message       string
	Context       string
	MaxIterations int
	// Progress, when set, receives a snapshot of the state after every emitted event.
	Progress func(models.CoordinationState)
}

// Coordinator sequences planning, execution rounds, review and synthesis for one question.
type Coordinator struct {
	planner  Planner
	executor Executor
	reviewer Reviewer
	model    llm.LanguageModel
	opts     Options
	metrics  *telemetry.Metrics
}

func New(p Planner, e Executor, r Reviewer, model llm.LanguageModel, opts Options, metrics *telemetry.Metrics) *Coordinator {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.Threshold <= 0 {
		opts.Threshold = models.SufficiencyThreshold
	}
	if opts.Similarity <= 0 {
		opts.Similarity = DefaultSimilarity
	}
	return &Coordinator{planner: p, executor: e, reviewer: r, model: model, opts: opts, metrics: metrics}
}

// run holds everything owned by a single invocation of Run.
type run struct {
	c        *Coordinator
	in       Input
	state    *models.CoordinationState
	session  *executor.Session
	evidence buffer.Evidence
	emitter  events.Emitter
	ctx      context.Context // consumer context, only used for emission
	calls    context.Context // detached from consumer cancellation
	l        zerolog.Logger
}

// Run answers one question, narrating every step through emitter. The returned error is
// non-nil when the run failed or the consumer went away; failures other than a closed
// stream have already been reported as a single error event.
func (c *Coordinator) Run(ctx context.Context, in Input, emitter events.Emitter) (models.CoordinationState, error) {
	// a request may lower the configured budget, never raise it
	if in.MaxIterations <= 0 || in.MaxIterations > c.opts.MaxIterations {
		in.MaxIterations = c.opts.MaxIterations
	}
	state := &models.CoordinationState{
		ID:          in.ID,
		UserMessage: in.Message,
		PlanSteps:   []models.AgentStep{},
		ExecSteps:   []models.AgentStep{},
		Phase:       models.Planning,
	}
	r := &run{
		c:       c,
		in:      in,
		state:   state,
		session: executor.NewSession(c.opts.Similarity),
		emitter: emitter,
		ctx:     ctx,
		calls:   context.WithoutCancel(ctx),
		l:       logger.ForAgent(in.ID, "coordinator"),
	}

	start := time.Now()
	c.metrics.RunStarted()
	err := r.execute()
	switch {
	case err == nil:
		state.Phase = models.Terminal
		c.metrics.RunFinished("completed", state.IterationCount, time.Since(start))
	case errors.Is(err, events.ErrClosed) || ctx.Err() != nil:
		state.Phase = models.Failed
		r.l.Info().Err(err).Msg("consumer stopped reading, run abandoned")
		c.metrics.RunFinished("cancelled", state.IterationCount, time.Since(start))
	default:
		state.Phase = models.Failed
		r.l.Error().Err(err).Msg("run failed")
		c.metrics.RunFinished("failed", state.IterationCount, time.Since(start))
		_ = r.emit(models.Event{Type: models.ErrorEvent, Content: "Coordinator error: " + err.Error()})
	}
	return *state, err
}

func (r *run) execute() error {
	if err := r.phase("Planning Phase", "Planning"); err != nil {
		return err
	}

	plan, err := r.c.planner.Plan(r.calls, planner.Input{Message: r.in.Message, Context: r.in.Context})
	r.c.metrics.ModelCall("planner", err)
	if err != nil {
		return fmt.Errorf("planner: %w", err)
	}
	r.state.Spec = &plan.Spec
	strategy := plan.Strategy
	r.state.Strategy = &strategy

	if err := r.planStep(models.Thought, plan.Strategy.Reasoning, prompts.Specification(plan.Spec, plan.Strategy)); err != nil {
		return err
	}

	if !plan.Spec.NeedsExecution {
		r.l.Info().Str(logger.PhaseField, "finalization").Msg("no execution needed, answering from plan")
		if err := r.phase("Finalization (Plan-only)", "Finalization"); err != nil {
			return err
		}
		return r.finish()
	}
	if len(plan.Strategy.Queries) == 0 {
		if err := r.emit(models.Event{
			Type:    models.ErrorEvent,
			Content: "Plan Agent requested execution but produced no executable queries. Returning a plan-only final answer.",
		}); err != nil {
			return err
		}
		return r.finish()
	}

	for r.state.IterationCount < r.in.MaxIterations {
		done, err := r.round()
		if err != nil || done {
			return err
		}
	}

	r.l.Warn().Int(logger.IterationField, r.state.IterationCount).Msg("iteration budget exhausted")
	if err := r.emit(models.Event{
		Type:    models.ErrorEvent,
		Content: fmt.Sprintf("Max iterations (%d) reached without sufficient confidence. Best effort answer follows.", r.in.MaxIterations),
	}); err != nil {
		return err
	}
	return r.finish()
}

// round runs one execute/review iteration and reports whether the run is complete.
func (r *run) round() (bool, error) {
	r.state.IterationCount++
	n := r.state.IterationCount
	l := r.l.With().Int(logger.IterationField, n).Logger()

	r.state.Phase = models.Executing
	if err := r.phase(fmt.Sprintf("Execution Round %d", n), "Execution"); err != nil {
		return false, err
	}

	res, err := r.c.executor.Execute(r.calls, *r.state.Strategy, r.session, r.execStep)
	if err != nil {
		return false, err
	}
	r.evidence.Add(n, res.CollectedInfo)
	l.Info().Int("new", len(res.QueriesExecuted)).Int("total", r.session.Len()).Msg("execution round finished")

	if err := r.emit(models.Event{
		Type:    models.ExecActionEvent,
		Agent:   models.ExecAgent,
		Content: fmt.Sprintf("Executed %d new searches (%d total)", len(res.QueriesExecuted), r.session.Len()),
	}); err != nil {
		return false, err
	}

	r.state.Phase = models.Reviewing
	if err := r.phase("Review Phase", "Review"); err != nil {
		return false, err
	}
	review, err := r.c.reviewer.Review(r.calls, reviewer.Input{
		Strategy: *r.state.Strategy,
		Evidence: r.evidence.String(),
		History:  r.state.PlanSteps,
	})
	r.c.metrics.ModelCall("reviewer", err)
	if err != nil {
		return false, fmt.Errorf("reviewer: %w", err)
	}
	r.c.metrics.Confidence(review.ConfidenceScore)
	l.Info().Int("confidence", review.ConfidenceScore).Str("nextAction", string(review.NextAction)).Msg("review received")

	if err := r.planStep(models.Review,
		fmt.Sprintf("Confidence: %d/100\n\n%s", review.ConfidenceScore, review.Critique),
		fmt.Sprintf("Confidence Score: %d/100\n\nCritique:\n%s", review.ConfidenceScore, review.Critique),
	); err != nil {
		return false, err
	}

	queries := review.QueryStrings()
	switch {
	case review.ConfidenceScore >= r.c.opts.Threshold || review.NextAction == models.Finalize:
		return true, r.finish()
	case review.NextAction == models.RefineStrategy && len(queries) > 0:
		r.state.Phase = models.Refining
		next := r.state.Strategy.Append(toQueries(queries, "Refined search based on review feedback", "Additional information to address gaps")...)
		if err := r.replan(next, fmt.Sprintf("Refined strategy with %d new queries", len(queries))); err != nil {
			return false, err
		}
	case review.NextAction == models.ContinueSearch && len(queries) > 0:
		r.state.Phase = models.ContinuingSearch
		next := r.state.Strategy.WithQueries(toQueries(queries, "Additional search based on review feedback", "Information to address identified gaps"))
		if err := r.replan(next, fmt.Sprintf("Continuing search with %d additional queries", len(queries))); err != nil {
			return false, err
		}
	default:
		// The strategy is unchanged and fully executed, so the next round is a no-op bounded
		// by the iteration budget.
		l.Debug().Str("nextAction", string(review.NextAction)).Msg("review carried no usable queries, strategy unchanged")
	}

	return false, r.phase("Continuing search...", "Continue")
}

func (r *run) replan(next models.SearchStrategy, note string) error {
	r.state.Strategy = &next
	return r.planStep(models.Thought, note, prompts.Strategy(next))
}

// finish synthesizes the answer and emits it.
func (r *run) finish() error {
	r.state.Phase = models.Finalizing
	answer := r.c.synthesize(r.calls, r.in.Message, r.evidence.String(), r.state.PlanSteps, r.state.Spec)
	r.state.FinalAnswer = answer
	r.state.IsComplete = true
	return r.emit(models.Event{Type: models.FinalAnswerEvent, Agent: models.PlanAgent, Content: answer})
}

func (r *run) emit(ev models.Event) error {
	if err := r.emitter.Emit(r.ctx, ev); err != nil {
		return err
	}
	if r.in.Progress != nil {
		r.in.Progress(r.snapshot())
	}
	return nil
}

// snapshot copies the state so it can leave the run's goroutine. Strategy and spec are
// replaced, never mutated, so sharing their pointers is safe.
func (r *run) snapshot() models.CoordinationState {
	s := *r.state
	s.PlanSteps = slices.Clone(r.state.PlanSteps)
	s.ExecSteps = slices.Clone(r.state.ExecSteps)
	return s
}

func (r *run) phase(content, label string) error {
	return r.emit(models.Event{Type: models.PhaseEvent, Content: content, Phase: label})
}

// planStep records a planner step and emits its narration.
func (r *run) planStep(kind models.StepKind, content, narration string) error {
	now := time.Now()
	step := models.AgentStep{Agent: models.PlanAgent, Kind: kind, Content: content, Timestamp: &now}
	r.state.PlanSteps = append(r.state.PlanSteps, step)
	ev := models.StepEvent(step)
	ev.Content = narration
	return r.emit(ev)
}

func (r *run) execStep(step models.AgentStep) error {
	r.state.ExecSteps = append(r.state.ExecSteps, step)
	return r.emit(models.StepEvent(step))
}

func toQueries(queries []string, purpose, expected string) []models.SearchQuery {
	out := make([]models.SearchQuery, 0, len(queries))
	for _, q := range queries {
		out = append(out, models.SearchQuery{Query: q, Purpose: purpose, ExpectedInfo: expected})
	}
	return out
}

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go-deepsearch/internal/telemetry"
	"go-deepsearch/pkg/llm"
	"go-deepsearch/pkg/logger"
	"go-deepsearch/pkg/models"
	"go-deepsearch/pkg/prompts"
	"go-deepsearch/pkg/tools"
)

const DefaultMaxTurns = 20

// StepFunc receives every step as it happens. A returned error stops the executor.
type StepFunc func(step models.AgentStep) error

type Handler struct {
	model    llm.LanguageModel
	tools    tools.Executor
	maxTurns int
	metrics  *telemetry.Metrics
}

func New(model llm.LanguageModel, executor tools.Executor, maxTurns int, metrics *telemetry.Metrics) *Handler {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Handler{model: model, tools: executor, maxTurns: maxTurns, metrics: metrics}
}

type Result struct {
	models.ExecResult
	Steps []models.AgentStep
	// Turns is the number of model turns spent.
	Turns int
}

// run is the state of one executor invocation.
type run struct {
	h         *Handler
	session   *Session
	pending   []models.SearchQuery
	messages  []llm.Message
	result    Result
	onStep    StepFunc
	fallbacks int
	l         zerolog.Logger
}

// Execute runs every planned query of strategy that the session has not executed yet.
// Model and tool failures are absorbed; only an error from onStep is returned.
func (h *Handler) Execute(ctx context.Context, strategy models.SearchStrategy, session *Session, onStep StepFunc) (Result, error) {
	r := &run{
		h:       h,
		session: session,
		onStep:  onStep,
		l:       log.With().Str(logger.AgentNameField, "executor").Logger(),
	}
	r.result.QueriesExecuted = []string{}

	seen := map[string]struct{}{}
	for _, q := range strategy.Queries {
		key := tools.Normalize(q.Query)
		if _, dup := seen[key]; dup || key == "" || session.Executed(q.Query) {
			continue
		}
		seen[key] = struct{}{}
		r.pending = append(r.pending, q)
	}
	r.l.Debug().Int("strategy", len(strategy.Queries)).Int("executed", session.Len()).Int("pending", len(r.pending)).Msg("starting execution")
	if len(r.pending) == 0 {
		return r.result, nil
	}

	ctx = session.context(ctx)
	r.messages = []llm.Message{llm.UserMessage(prompts.ExecutorRequestFor(r.pending))}

	for r.result.Turns < h.maxTurns && len(r.pending) > 0 {
		r.result.Turns++
		if err := r.turn(ctx); err != nil {
			return r.result, err
		}
	}

	if len(r.pending) > 0 {
		r.l.Warn().Int("pending", len(r.pending)).Msg("turn cap reached with planned queries left")
	}
	return r.result, nil
}

func (r *run) turn(ctx context.Context) error {
	res, err := r.h.model.Call(ctx, llm.Request{
		SystemPrompt: prompts.ExecutorSystem,
		Messages:     r.messages,
		Tools:        tools.Schemas(),
	})
	r.h.metrics.ModelCall("executor", err)
	if err != nil {
		r.l.Warn().Err(err).Int(logger.IterationField, r.result.Turns).Msg("model call failed, forcing fallback search")
		return r.fallback(ctx)
	}

	if res.Content != "" {
		if err := r.step(models.Thought, res.Content); err != nil {
			return err
		}
	}
	if len(res.ToolCalls) == 0 {
		if res.Content != "" {
			r.messages = append(r.messages, llm.Message{Role: llm.Assistant, Content: res.Content})
		}
		return r.fallback(ctx)
	}

	r.messages = append(r.messages, llm.Message{Role: llm.Assistant, Content: res.Content, ToolCalls: res.ToolCalls})
	progressed := false
	for _, tc := range res.ToolCalls {
		advanced, err := r.call(ctx, tc)
		if err != nil {
			return err
		}
		progressed = progressed || advanced
	}
	if !progressed && len(r.pending) > 0 {
		return r.fallback(ctx)
	}
	return nil
}

// call executes one model-proposed tool call and reports whether it advanced a planned query.
func (r *run) call(ctx context.Context, tc llm.ToolCall) (bool, error) {
	call, err := tools.Decode(tc.Name, tc.Arguments)
	if err != nil {
		content := "Error: " + err.Error()
		r.h.metrics.ToolCall(tc.Name, false)
		r.reply(tc, content)
		return false, r.step(models.Observation, content)
	}

	if err := r.step(models.Action, describe(call)); err != nil {
		return false, err
	}

	if search, ok := call.(tools.WebSearch); ok && r.session.Executed(search.Query) {
		content := fmt.Sprintf("Note: %q was already searched in this run. Its results are part of the collected information.", search.Query)
		r.reply(tc, content)
		return false, r.step(models.Observation, content)
	}

	return r.execute(ctx, tc, call)
}

// fallback forces a search of the next pending query through a synthetic tool call.
func (r *run) fallback(ctx context.Context) error {
	if len(r.pending) == 0 {
		return nil
	}
	q := r.pending[0]
	r.fallbacks++
	r.h.metrics.Fallback()
	r.l.Debug().Str(logger.QueryField, q.Query).Msg("fallback search")

	call := tools.WebSearch{Query: q.Query}
	tc := llm.ToolCall{
		ID:        fmt.Sprintf("fallback-%d", r.fallbacks),
		Name:      string(tools.WebSearchTool),
		Arguments: tools.Encode(call),
	}
	r.messages = append(r.messages, llm.Message{Role: llm.Assistant, ToolCalls: []llm.ToolCall{tc}})

	if err := r.step(models.Thought, fmt.Sprintf("Executing search: %q", q.Query)); err != nil {
		return err
	}
	if err := r.step(models.Action, describe(call)); err != nil {
		return err
	}
	_, err := r.execute(ctx, tc, call)
	return err
}

func (r *run) execute(ctx context.Context, tc llm.ToolCall, call tools.Call) (bool, error) {
	res := r.h.tools.Execute(ctx, call)
	r.h.metrics.ToolCall(string(call.Tool()), !res.IsError)
	r.reply(tc, res.Content)

	advanced := false
	if search, ok := call.(tools.WebSearch); ok {
		advanced = r.complete(search.Query)
		r.session.mark(search.Query)
		r.result.QueriesExecuted = append(r.result.QueriesExecuted, search.Query)
		if res.IsError {
			r.result.CollectedInfo += fmt.Sprintf("\n\n[Error in search: %q]\n%s", search.Query, res.Content)
		} else {
			r.result.SuccessfulSearches++
			r.result.CollectedInfo += fmt.Sprintf("\n\n[From search: %q]\n%s", search.Query, res.Content)
		}
	}
	return advanced, r.step(models.Observation, res.Content)
}

// complete removes query from the pending list and reports whether it was there.
func (r *run) complete(query string) bool {
	key := tools.Normalize(query)
	for i, q := range r.pending {
		if tools.Normalize(q.Query) == key {
			r.pending = slices.Delete(r.pending, i, i+1)
			return true
		}
	}
	return false
}

func (r *run) reply(tc llm.ToolCall, content string) {
	r.messages = append(r.messages, llm.Message{Role: llm.Tool, ToolCallID: tc.ID, Name: tc.Name, Content: content})
}

func (r *run) step(kind models.StepKind, content string) error {
	now := time.Now()
	step := models.AgentStep{Agent: models.ExecAgent, Kind: kind, Content: content, Timestamp: &now}
	r.result.Steps = append(r.result.Steps, step)
	if r.onStep == nil {
		return nil
	}
	return r.onStep(step)
}

func describe(call tools.Call) string {
	args, _ := json.Marshal(call)
	return fmt.Sprintf("%s(%s)", call.Tool(), args)
}

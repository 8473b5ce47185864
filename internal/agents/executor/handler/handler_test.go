package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-deepsearch/pkg/llm"
	"go-deepsearch/pkg/models"
	"go-deepsearch/pkg/tools"
)

type fakeTools struct {
	calls  []tools.Call
	failOn map[string]bool
}

func (f *fakeTools) Execute(_ context.Context, call tools.Call) tools.Result {
	f.calls = append(f.calls, call)
	if s, ok := call.(tools.WebSearch); ok {
		if f.failOn[s.Query] {
			return tools.Result{Content: "Error performing search: boom", IsError: true}
		}
		return tools.Result{Content: "results for " + s.Query}
	}
	return tools.Result{Content: "ok"}
}

func (f *fakeTools) searched() []string {
	var out []string
	for _, c := range f.calls {
		if s, ok := c.(tools.WebSearch); ok {
			out = append(out, s.Query)
		}
	}
	return out
}

// script replays responses in order and then repeats the last one.
func script(responses ...func(req llm.Request) (llm.Response, error)) (llm.LanguageModel, *int) {
	n := 0
	return llm.Func(func(_ context.Context, req llm.Request) (llm.Response, error) {
		i := n
		if i >= len(responses) {
			i = len(responses) - 1
		}
		n++
		return responses[i](req)
	}), &n
}

func text(s string) func(llm.Request) (llm.Response, error) {
	return func(llm.Request) (llm.Response, error) { return llm.Response{Content: s}, nil }
}

func fail(err error) func(llm.Request) (llm.Response, error) {
	return func(llm.Request) (llm.Response, error) { return llm.Response{}, err }
}

func searches(queries ...string) func(llm.Request) (llm.Response, error) {
	return func(llm.Request) (llm.Response, error) {
		res := llm.Response{}
		for i, q := range queries {
			args, _ := json.Marshal(map[string]string{"query": q})
			res.ToolCalls = append(res.ToolCalls, llm.ToolCall{ID: "call-" + string(rune('a'+i)), Name: "web_search", Arguments: args})
		}
		return res, nil
	}
}

func strategy(queries ...string) models.SearchStrategy {
	s := models.SearchStrategy{}
	for _, q := range queries {
		s.Queries = append(s.Queries, models.SearchQuery{Query: q, Purpose: "p", ExpectedInfo: "e"})
	}
	return s
}

func TestExecute_ModelSearchesPlannedQueries(t *testing.T) {
	model, turns := script(searches("a", "b"))
	ft := &fakeTools{}
	h := New(model, ft, 0, nil)
	session := NewSession(0.8)

	var steps []models.AgentStep
	res, err := h.Execute(context.Background(), strategy("a", "b"), session, func(s models.AgentStep) error {
		steps = append(steps, s)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, *turns)
	assert.Equal(t, []string{"a", "b"}, res.QueriesExecuted)
	assert.Equal(t, 2, res.SuccessfulSearches)
	assert.Equal(t, "\n\n[From search: \"a\"]\nresults for a\n\n[From search: \"b\"]\nresults for b", res.CollectedInfo)
	assert.Equal(t, []string{"a", "b"}, session.Queries())
	assert.Equal(t, res.Steps, steps)
	assert.Equal(t, models.Action, steps[0].Kind)
	assert.Equal(t, `web_search({"query":"a"})`, steps[0].Content)
	assert.Equal(t, models.Observation, steps[1].Kind)
}

func TestExecute_ProgressGuaranteeWithoutToolCalls(t *testing.T) {
	model, turns := script(text("let me think"))
	ft := &fakeTools{}
	h := New(model, ft, 20, nil)

	res, err := h.Execute(context.Background(), strategy("q1", "q2", "q3"), NewSession(0.8), nil)
	require.NoError(t, err)

	assert.Equal(t, 3, *turns)
	assert.Equal(t, []string{"q1", "q2", "q3"}, res.QueriesExecuted)
	assert.Equal(t, []string{"q1", "q2", "q3"}, ft.searched())
}

func TestExecute_ModelFailureFallsBack(t *testing.T) {
	model, _ := script(fail(errors.New("timeout")))
	ft := &fakeTools{}
	h := New(model, ft, 0, nil)

	res, err := h.Execute(context.Background(), strategy("q1", "q2"), NewSession(0.8), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "q2"}, res.QueriesExecuted)
}

func TestExecute_NoProgressForcesFallbackSameTurn(t *testing.T) {
	var lastReq llm.Request
	model, turns := script(
		searches("unplanned topic"),
		func(req llm.Request) (llm.Response, error) {
			lastReq = req
			return searches("q2")(req)
		},
	)
	ft := &fakeTools{}
	h := New(model, ft, 0, nil)

	res, err := h.Execute(context.Background(), strategy("q1", "q2"), NewSession(0.8), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, *turns)
	assert.Equal(t, []string{"unplanned topic", "q1", "q2"}, ft.searched())
	assert.Equal(t, []string{"unplanned topic", "q1", "q2"}, res.QueriesExecuted)

	var fallbackIDs []string
	for _, m := range lastReq.Messages {
		for _, tc := range m.ToolCalls {
			if tc.ID == "fallback-1" {
				fallbackIDs = append(fallbackIDs, tc.ID)
			}
		}
	}
	assert.Equal(t, []string{"fallback-1"}, fallbackIDs)
}

func TestExecute_SkipsExecutedQueries(t *testing.T) {
	session := NewSession(0.8)
	model, _ := script(text("nothing"))
	ft := &fakeTools{}
	h := New(model, ft, 0, nil)

	_, err := h.Execute(context.Background(), strategy("a", "b"), session, nil)
	require.NoError(t, err)

	model2, turns := script(searches("A", "c"))
	h2 := New(model2, ft, 0, nil)
	res, err := h2.Execute(context.Background(), strategy("a", "b", "c", "C "), session, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, *turns)
	assert.Equal(t, []string{"c"}, res.QueriesExecuted)
	assert.Equal(t, []string{"a", "b", "c"}, ft.searched())
	assert.Equal(t, []string{"a", "b", "c"}, session.Queries())
}

func TestExecute_NothingPending(t *testing.T) {
	session := NewSession(0.8)
	session.mark("a")
	model, turns := script(text("x"))
	res, err := New(model, &fakeTools{}, 0, nil).Execute(context.Background(), strategy("a"), session, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, *turns)
	assert.Empty(t, res.QueriesExecuted)
	assert.Empty(t, res.CollectedInfo)
}

func TestExecute_ToolFailureStillMarksExecuted(t *testing.T) {
	model, _ := script(searches("bad", "good"))
	ft := &fakeTools{failOn: map[string]bool{"bad": true}}
	session := NewSession(0.8)

	res, err := New(model, ft, 0, nil).Execute(context.Background(), strategy("bad", "good"), session, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"bad", "good"}, res.QueriesExecuted)
	assert.Equal(t, 1, res.SuccessfulSearches)
	assert.Contains(t, res.CollectedInfo, "[Error in search: \"bad\"]")
	assert.True(t, session.Executed("bad"))
	assert.Equal(t, []string{"bad", "good"}, ft.searched())
}

func TestExecute_TurnCap(t *testing.T) {
	model, turns := script(searches("unplanned 1"), searches("unplanned 1"))
	ft := &fakeTools{}
	// every turn makes at least one fallback, so a cap of 2 covers at most 2 of 3 queries
	res, err := New(model, ft, 2, nil).Execute(context.Background(), strategy("q1", "q2", "q3"), NewSession(0.8), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, *turns)
	assert.Equal(t, []string{"unplanned 1", "q1", "q2"}, res.QueriesExecuted)
}

func TestExecute_InvalidToolCalls(t *testing.T) {
	model, _ := script(func(llm.Request) (llm.Response, error) {
		return llm.Response{ToolCalls: []llm.ToolCall{
			{ID: "x", Name: "delete_everything", Arguments: json.RawMessage(`{}`)},
			{ID: "y", Name: "web_search", Arguments: json.RawMessage(`{"query": ""}`)},
		}}, nil
	})
	ft := &fakeTools{}
	var steps []models.AgentStep
	res, err := New(model, ft, 0, nil).Execute(context.Background(), strategy("q1"), NewSession(0.8), func(s models.AgentStep) error {
		steps = append(steps, s)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"q1"}, res.QueriesExecuted)
	require.GreaterOrEqual(t, len(steps), 2)
	assert.Equal(t, models.Observation, steps[0].Kind)
	assert.Contains(t, steps[0].Content, "unknown tool")
	assert.Contains(t, steps[1].Content, "invalid arguments")
}

func TestExecute_ReadAndWriteDoNotAdvance(t *testing.T) {
	model, _ := script(func(llm.Request) (llm.Response, error) {
		return llm.Response{ToolCalls: []llm.ToolCall{
			{ID: "r", Name: "read", Arguments: json.RawMessage(`{"path": "README.md"}`)},
		}}, nil
	})
	ft := &fakeTools{}
	res, err := New(model, ft, 0, nil).Execute(context.Background(), strategy("q1"), NewSession(0.8), nil)
	require.NoError(t, err)

	require.Len(t, ft.calls, 2)
	assert.Equal(t, tools.Read{Path: "README.md"}, ft.calls[0])
	assert.Equal(t, []string{"q1"}, res.QueriesExecuted)
}

func TestExecute_StopsWhenConsumerGone(t *testing.T) {
	model, _ := script(searches("a", "b"))
	ft := &fakeTools{}
	closed := errors.New("closed")

	_, err := New(model, ft, 0, nil).Execute(context.Background(), strategy("a", "b"), NewSession(0.8), func(models.AgentStep) error {
		return closed
	})
	assert.ErrorIs(t, err, closed)
	assert.Len(t, ft.calls, 0)
}

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
)

func respond(res llm.Response, seen *llm.Request) llm.LanguageModel {
	return llm.Func(func(_ context.Context, req llm.Request) (llm.Response, error) {
		if seen != nil {
			*seen = req
		}
		return res, nil
	})
}

func review(args map[string]any) llm.Response {
	raw, _ := json.Marshal(args)
	return llm.Response{ToolCalls: []llm.ToolCall{{ID: "r1", Name: ToolName, Arguments: raw}}}
}

var input = Input{
	Strategy: models.SearchStrategy{Queries: []models.SearchQuery{{Query: "q1"}}},
	Evidence: "\n\n[From search: \"q1\"]\nresult",
	History:  []models.AgentStep{{Agent: models.PlanAgent, Kind: models.Thought, Content: "plan"}},
}

func TestReview_ToolCall(t *testing.T) {
	var req llm.Request
	h := New(respond(review(map[string]any{
		"confidenceScore": 62,
		"critique":        "thin",
		"nextAction":      "refine_strategy",
		"additionalQueries": []map[string]string{
			{"query": "q2", "reason": "gap"},
			{"query": "  ", "reason": "blank"},
		},
		"evidenceQuality": "moderate",
	}), &req), 0)

	r, err := h.Review(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, ToolName, req.ToolChoice.Name)
	assert.Contains(t, req.Messages[0].Content, "[From search: \"q1\"]")
	assert.Contains(t, req.Messages[0].Content, "[THOUGHT] plan")

	assert.Equal(t, 62, r.ConfidenceScore)
	assert.False(t, r.IsSufficient)
	assert.Equal(t, models.RefineStrategy, r.NextAction)
	assert.Equal(t, []string{"q2"}, r.QueryStrings())
	assert.Equal(t, "moderate", r.EvidenceQuality)
}

func TestReview_ClampsScore(t *testing.T) {
	h := New(respond(review(map[string]any{"confidenceScore": 140, "critique": "c", "nextAction": "finalize"}), nil), 0)
	r, err := h.Review(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 100, r.ConfidenceScore)
	assert.True(t, r.IsSufficient)

	h = New(respond(review(map[string]any{"confidenceScore": -3, "critique": "c", "nextAction": "finalize"}), nil), 0)
	r, err = h.Review(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 0, r.ConfidenceScore)

	h = New(respond(review(map[string]any{"confidenceScore": 1e20, "critique": "c", "nextAction": "continue_search"}), nil), 0)
	r, err = h.Review(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 100, r.ConfidenceScore)
}

func TestReview_Threshold(t *testing.T) {
	h := New(respond(review(map[string]any{"confidenceScore": 75, "critique": "c", "nextAction": "continue_search"}), nil), 0)
	r, err := h.Review(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, r.IsSufficient)

	h = New(respond(review(map[string]any{"confidenceScore": 75, "critique": "c", "nextAction": "continue_search"}), nil), 80)
	r, err = h.Review(context.Background(), input)
	require.NoError(t, err)
	assert.False(t, r.IsSufficient)
}

func TestReview_InvalidAction(t *testing.T) {
	h := New(respond(review(map[string]any{"confidenceScore": 10, "critique": "c", "nextAction": "give_up"}), nil), 0)
	r, err := h.Review(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, models.ContinueSearch, r.NextAction)
}

func TestReview_TextFallback(t *testing.T) {
	h := New(respond(llm.Response{
		Content: "Confidence Score: 55\nCritique: partial\nNext Action: continue_search\nQuery: \"q9\" - Reason: missing",
	}, nil), 0)

	r, err := h.Review(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 55, r.ConfidenceScore)
	assert.Equal(t, "partial", r.Critique)
	assert.Equal(t, models.ContinueSearch, r.NextAction)
	assert.Equal(t, []string{"q9"}, r.QueryStrings())
}

func TestReview_EmbeddedJSON(t *testing.T) {
	h := New(respond(llm.Response{
		Content: `Here: {"confidenceScore": 88, "critique": "solid", "nextAction": "finalize"}`,
	}, nil), 0)

	r, err := h.Review(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 88, r.ConfidenceScore)
	assert.Equal(t, models.Finalize, r.NextAction)
}

func TestReview_NothingUsable(t *testing.T) {
	h := New(respond(llm.Response{Content: "I cannot decide."}, nil), 0)

	r, err := h.Review(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, 0, r.ConfidenceScore)
	assert.Empty(t, r.Critique)
	assert.Equal(t, models.ContinueSearch, r.NextAction)
	assert.False(t, r.IsSufficient)
}

func TestReview_ModelError(t *testing.T) {
	boom := errors.New("down")
	h := New(llm.Func(func(context.Context, llm.Request) (llm.Response, error) {
		return llm.Response{}, boom
	}), 0)

	_, err := h.Review(context.Background(), input)
	assert.ErrorIs(t, err, boom)
}

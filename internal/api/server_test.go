package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-deepsearch/internal/agents/coordinator/handler"
	planner "go-deepsearch/internal/agents/planner/handler"
	"go-deepsearch/internal/telemetry"
	"go-deepsearch/pkg/data"
	"go-deepsearch/pkg/llm"
	"go-deepsearch/pkg/models"
)

type planOnly struct{}

func (planOnly) Plan(context.Context, planner.Input) (data.Plan, error) {
	return data.Plan{Spec: models.RequirementSpec{Objective: "Answer directly"}}, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	model := llm.Func(func(context.Context, llm.Request) (llm.Response, error) {
		return llm.Response{Content: "Final Answer: Paris"}, nil
	})
	h := handler.New(planOnly{}, nil, nil, model, handler.Options{}, nil)
	root := actor.NewActorSystem().Root
	return New(root, h, telemetry.New(), Options{Port: 0, StatusTimeout: time.Second})
}

func frames(body string) []string {
	var out []string
	for _, chunk := range strings.Split(body, "\n\n") {
		if chunk = strings.TrimSpace(chunk); chunk != "" {
			out = append(out, strings.TrimPrefix(chunk, "data: "))
		}
	}
	return out
}

func TestServer_AskRequiresMessage(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{`{}`, `{"message":"  "}`, ``} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/agent", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.JSONEq(t, `{"error":"Message is required"}`, rec.Body.String(), body)
	}
}

func TestServer_AskBadJSON(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/agent", strings.NewReader(`{"message":`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_AskStreamsEvents(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/agent", strings.NewReader(`{"message":"What is the capital of France?"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	runID := rec.Header().Get("X-Run-Id")
	_, err := uuid.Parse(runID)
	require.NoError(t, err)

	got := frames(rec.Body.String())
	require.NotEmpty(t, got)
	assert.Equal(t, "[DONE]", got[len(got)-1])

	var types []models.EventType
	var last models.Event
	for _, f := range got[:len(got)-1] {
		var ev models.Event
		require.NoError(t, json.Unmarshal([]byte(f), &ev))
		types = append(types, ev.Type)
		last = ev
	}
	assert.Equal(t, []models.EventType{models.PhaseEvent, models.PlanThoughtEvent, models.PhaseEvent, models.FinalAnswerEvent}, types)
	assert.Equal(t, "Paris", last.Content)

	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/"+runID, nil))
		return rec.Code == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/"+runID, nil))
	var res getStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.False(t, res.Status.Running)
	assert.Equal(t, "Paris", res.Status.State.FinalAnswer)
	assert.Equal(t, models.Terminal, res.Status.State.Phase)
}

func TestServer_Status(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deepsearch_active_runs")
}

func TestServer_MetricsDisabled(t *testing.T) {
	h := handler.New(planOnly{}, nil, nil, nil, handler.Options{}, nil)
	s := New(actor.NewActorSystem().Root, h, nil, Options{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go-deepsearch/pkg/data"
	"go-deepsearch/pkg/llm"
	"go-deepsearch/pkg/logger"
	"go-deepsearch/pkg/models"
	"go-deepsearch/pkg/prompts"
	"go-deepsearch/pkg/tools"
)

const (
	ToolName   = "spec_user_requirement"
	MaxQueries = 5
)

type Input struct {
	Message string
	Context string
}

type Handler struct {
	model    llm.LanguageModel
	fileTree func() string
}

// New returns a planner. fileTree may be nil when no workspace is configured.
func New(model llm.LanguageModel, fileTree func() string) *Handler {
	return &Handler{model: model, fileTree: fileTree}
}

// Plan turns the user's message into a requirement spec and a bounded search strategy.
// Only a failed model call is returned as an error; unusable output degrades to defaults.
func (h *Handler) Plan(ctx context.Context, in Input) (data.Plan, error) {
	tree := ""
	if h.fileTree != nil {
		tree = h.fileTree()
	}
	system, err := prompts.PlannerSystemFor(tree)
	if err != nil {
		return data.Plan{}, err
	}
	request, err := prompts.PlannerRequestFor(in.Message, in.Context)
	if err != nil {
		return data.Plan{}, err
	}

	res, err := h.model.Call(ctx, llm.Request{
		SystemPrompt: system,
		Messages:     []llm.Message{llm.UserMessage(request)},
		Tools:        []llm.ToolSchema{Schema()},
		ToolChoice:   llm.Force(ToolName),
	})
	if err != nil {
		return data.Plan{}, fmt.Errorf("planner call: %w", err)
	}

	return normalize(decode(res)), nil
}

func decode(res llm.Response) data.Plan {
	if call, ok := res.FindToolCall(ToolName); ok {
		var a arguments
		err := json.Unmarshal(call.Arguments, &a)
		if err == nil {
			return a.plan(res.Content)
		}
		log.Warn().Err(err).Str(logger.AgentNameField, "planner").Msg("malformed tool arguments, falling back to text")
	}

	if raw, err := data.ExtractObject(res.Content); err == nil {
		var a arguments
		if err := json.Unmarshal(raw, &a); err == nil && a.Objective != "" {
			log.Debug().Str(logger.AgentNameField, "planner").Msg("using JSON embedded in text")
			return a.plan(res.Content)
		}
	}

	log.Debug().Str(logger.AgentNameField, "planner").Msg("no tool call found, using fallback parsing")
	return data.ParsePlan(res.Content)
}

type arguments struct {
	Objective          string               `json:"objective"`
	Deliverable        string               `json:"deliverable"`
	Constraints        []string             `json:"constraints"`
	Assumptions        []string             `json:"assumptions"`
	AcceptanceCriteria []string             `json:"acceptanceCriteria"`
	InformationGaps    []string             `json:"informationGaps"`
	NeedsExecAgent     bool                 `json:"needsExecAgent"`
	ExecDecisionReason string               `json:"execDecisionReason"`
	Queries            []models.SearchQuery `json:"queries"`
	ConfidenceLevel    string               `json:"confidenceLevel"`
	Reasoning          string               `json:"reasoning"`
}

func (a arguments) plan(content string) data.Plan {
	spec := models.RequirementSpec{
		Objective:          orDefault(a.Objective, data.DefaultObjective),
		Deliverable:        orDefault(a.Deliverable, data.DefaultDeliverable),
		Constraints:        orEmpty(a.Constraints),
		Assumptions:        orEmpty(a.Assumptions),
		AcceptanceCriteria: orEmpty(a.AcceptanceCriteria),
		InformationGaps:    orEmpty(a.InformationGaps),
		NeedsExecution:     a.NeedsExecAgent,
		ExecutionReason:    orDefault(a.ExecDecisionReason, "No routing reason provided"),
	}
	strategy := models.SearchStrategy{
		Queries:         []models.SearchQuery{},
		InformationGaps: spec.InformationGaps,
		ConfidenceLevel: models.ParseConfidenceLevel(strings.ToLower(a.ConfidenceLevel)),
		Reasoning:       orDefault(a.Reasoning, content),
	}
	if spec.NeedsExecution {
		strategy.Queries = a.Queries
	}
	return data.Plan{Spec: spec, Strategy: strategy}
}

// normalize drops blank and repeated queries and caps the strategy at MaxQueries.
func normalize(p data.Plan) data.Plan {
	seen := map[string]struct{}{}
	queries := make([]models.SearchQuery, 0, len(p.Strategy.Queries))
	for _, q := range p.Strategy.Queries {
		q.Query = strings.TrimSpace(q.Query)
		key := tools.Normalize(q.Query)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		queries = append(queries, q)
		if len(queries) == MaxQueries {
			break
		}
	}
	p.Strategy = p.Strategy.WithQueries(queries)
	return p
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

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
)

const ToolName = "submit_review"

type Input struct {
	Strategy models.SearchStrategy
	Evidence string
	History  []models.AgentStep
}

type Handler struct {
	model     llm.LanguageModel
	threshold int
}

// New returns a reviewer that marks results at or above threshold as sufficient.
func New(model llm.LanguageModel, threshold int) *Handler {
	if threshold <= 0 {
		threshold = models.SufficiencyThreshold
	}
	return &Handler{model: model, threshold: threshold}
}

func (h *Handler) Review(ctx context.Context, in Input) (models.ReviewResult, error) {
	res, err := h.model.Call(ctx, llm.Request{
		SystemPrompt: prompts.ReviewerSystem,
		Messages:     []llm.Message{llm.UserMessage(prompts.ReviewContext(in.Strategy, in.Evidence, in.History))},
		Tools:        []llm.ToolSchema{Schema()},
		ToolChoice:   llm.Force(ToolName),
	})
	if err != nil {
		return models.ReviewResult{}, fmt.Errorf("reviewer call: %w", err)
	}

	result := decode(res)
	result.IsSufficient = result.ConfidenceScore >= h.threshold
	return result, nil
}

func decode(res llm.Response) models.ReviewResult {
	if call, ok := res.FindToolCall(ToolName); ok {
		var a arguments
		err := json.Unmarshal(call.Arguments, &a)
		if err == nil {
			return a.result()
		}
		log.Warn().Err(err).Str(logger.AgentNameField, "reviewer").Msg("malformed tool arguments, falling back to text")
	}

	if raw, err := data.ExtractObject(res.Content); err == nil {
		var a arguments
		if err := json.Unmarshal(raw, &a); err == nil && a.ConfidenceScore != nil {
			log.Debug().Str(logger.AgentNameField, "reviewer").Msg("using JSON embedded in text")
			return a.result()
		}
	}

	log.Debug().Str(logger.AgentNameField, "reviewer").Msg("no tool call found, using fallback parsing")
	return data.ParseReview(res.Content)
}

type arguments struct {
	ConfidenceScore     *float64                 `json:"confidenceScore"`
	Critique            string                   `json:"critique"`
	NextAction          string                   `json:"nextAction"`
	AdditionalQueries   []models.AdditionalQuery `json:"additionalQueries"`
	EvidenceQuality     string                   `json:"evidenceQuality"`
	AssumptionsDetected []string                 `json:"assumptionsDetected"`
	InformationGaps     []string                 `json:"informationGaps"`
}

func (a arguments) result() models.ReviewResult {
	score := 0
	if a.ConfidenceScore != nil {
		score = data.ClampScore(*a.ConfidenceScore)
	}
	action, ok := models.ParseNextAction(strings.ToLower(strings.TrimSpace(a.NextAction)))
	if !ok {
		log.Debug().Str(logger.AgentNameField, "reviewer").Str("nextAction", a.NextAction).Msg("unknown next action, continuing search")
	}

	var queries []models.AdditionalQuery
	for _, q := range a.AdditionalQueries {
		if q.Query = strings.TrimSpace(q.Query); q.Query != "" {
			queries = append(queries, q)
		}
	}

	return models.ReviewResult{
		ConfidenceScore:     score,
		Critique:            a.Critique,
		NextAction:          action,
		AdditionalQueries:   queries,
		EvidenceQuality:     a.EvidenceQuality,
		AssumptionsDetected: a.AssumptionsDetected,
		InformationGaps:     a.InformationGaps,
	}
}

package handler

import (
	"context"

	"github.com/rs/zerolog/log"
	"go-deepsearch/pkg/data"
	"go-deepsearch/pkg/llm"
	"go-deepsearch/pkg/logger"
	"go-deepsearch/pkg/models"
	"go-deepsearch/pkg/prompts"
)

// synthesize produces the final answer. It never fails: errors become the answer text.
func (c *Coordinator) synthesize(ctx context.Context, question, evidence string, history []models.AgentStep, spec *models.RequirementSpec) string {
	request, err := prompts.SynthesisRequestFor(question, evidence, history, spec)
	if err != nil {
		return "Error generating final answer: " + err.Error()
	}

	res, err := c.model.Call(ctx, llm.Request{
		SystemPrompt: prompts.SynthesisSystem,
		Messages:     []llm.Message{llm.UserMessage(request)},
	})
	c.metrics.ModelCall("synthesis", err)
	if err != nil {
		log.Error().Err(err).Str(logger.AgentNameField, "synthesis").Msg("final answer generation failed")
		return "Error generating final answer: " + err.Error()
	}
	return data.ExtractFinalAnswer(res.Content)
}

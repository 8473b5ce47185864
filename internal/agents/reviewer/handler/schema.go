package handler

import "go-deepsearch/pkg/llm"

// Schema describes the structured review output.
func Schema() llm.ToolSchema {
	return llm.ToolSchema{
		Name:        ToolName,
		Description: "Submit your review of the collected information with confidence score and next action",
		Parameters: llm.Schema{
			"type": "object",
			"properties": map[string]any{
				"confidenceScore": map[string]any{
					"type":        "integer",
					"minimum":     0,
					"maximum":     100,
					"description": "Confidence score (0-100). 80+ = strong evidence, 50-79 = moderate, <50 = weak",
				},
				"critique": map[string]any{"type": "string", "description": "Detailed critique of the collected information"},
				"nextAction": map[string]any{
					"type":        "string",
					"enum":        []string{"finalize", "refine_strategy", "continue_search"},
					"description": "finalize = sufficient info, refine_strategy = add queries to current, continue_search = new queries needed",
				},
				"additionalQueries": map[string]any{
					"type":        "array",
					"description": "Additional queries if nextAction is refine_strategy or continue_search",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"query":  map[string]any{"type": "string", "description": "The search query"},
							"reason": map[string]any{"type": "string", "description": "Why this query is needed"},
						},
						"required": []string{"query", "reason"},
					},
				},
				"evidenceQuality": map[string]any{"type": "string", "description": "Assessment of evidence quality"},
				"assumptionsDetected": map[string]any{
					"type":        "array",
					"description": "List of assumptions identified in reasoning",
					"items":       map[string]any{"type": "string"},
				},
				"informationGaps": map[string]any{
					"type":        "array",
					"description": "Remaining information gaps",
					"items":       map[string]any{"type": "string"},
				},
			},
			"required": []string{"confidenceScore", "critique", "nextAction"},
		},
	}
}

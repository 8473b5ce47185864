package handler

import "go-deepsearch/pkg/llm"

func stringList(description string) map[string]any {
	return map[string]any{
		"type":        "array",
		"description": description,
		"items":       map[string]any{"type": "string"},
	}
}

// Schema describes the structured planner output.
func Schema() llm.ToolSchema {
	return llm.ToolSchema{
		Name:        ToolName,
		Description: "Create a structured requirement spec and decide whether Exec Agent execution is needed",
		Parameters: llm.Schema{
			"type": "object",
			"properties": map[string]any{
				"objective":          map[string]any{"type": "string", "description": "Core user objective in one clear sentence"},
				"deliverable":        map[string]any{"type": "string", "description": "Expected output format or deliverable for the user"},
				"constraints":        stringList("Explicit constraints from user or context"),
				"assumptions":        stringList("Assumptions made while interpreting the request"),
				"acceptanceCriteria": stringList("Criteria that define a successful response"),
				"informationGaps":    stringList("Key information gaps that need to be addressed"),
				"needsExecAgent":     map[string]any{"type": "boolean", "description": "Whether Exec Agent must be invoked"},
				"execDecisionReason": map[string]any{"type": "string", "description": "Reason for invoking or skipping Exec Agent"},
				"queries": map[string]any{
					"type":        "array",
					"description": "Execution queries for Exec Agent when needsExecAgent=true",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"query":        map[string]any{"type": "string", "description": "Concise search query (no filler words)"},
							"purpose":      map[string]any{"type": "string", "description": "Why this search is needed"},
							"expectedInfo": map[string]any{"type": "string", "description": "What specific facts/data you expect to find"},
						},
						"required": []string{"query", "purpose", "expectedInfo"},
					},
				},
				"confidenceLevel": map[string]any{
					"type":        "string",
					"enum":        []string{"high", "medium", "low"},
					"description": "Confidence level of requirement specification completeness",
				},
				"reasoning": map[string]any{"type": "string", "description": "Brief explanation of the specification and routing decision"},
			},
			"required": []string{"objective", "deliverable", "needsExecAgent", "execDecisionReason"},
		},
	}
}

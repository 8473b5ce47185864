package prompts

import (
	"fmt"
	"strings"

	"go-deepsearch/pkg/models"
	"go-deepsearch/pkg/template"
)

const strategyTemplate = `Search Strategy:

{{range $i, $q := .Queries}}{{inc $i}}. Query: "{{$q.Query}}"
   Purpose: {{$q.Purpose}}
   Expected: {{$q.ExpectedInfo}}

{{end}}{{if .InformationGaps}}Information Gaps:
{{range .InformationGaps}}- {{.}}
{{end}}{{end}}
Initial Confidence: {{.ConfidenceLevel}}`

const specTemplate = `Requirement Specification:

Objective: {{.Spec.Objective}}
Deliverable: {{.Spec.Deliverable}}
Needs Exec Agent: {{if .Spec.NeedsExecution}}Yes{{else}}No{{end}}
Exec Decision Reason: {{.Spec.ExecutionReason}}

{{with .Spec.Constraints}}Constraints:
{{range .}}- {{.}}
{{end}}
{{end}}{{with .Spec.AcceptanceCriteria}}Acceptance Criteria:
{{range .}}- {{.}}
{{end}}
{{end}}{{with .Spec.Assumptions}}Assumptions:
{{range .}}- {{.}}
{{end}}
{{end}}{{if .Spec.NeedsExecution}}{{.Strategy}}{{else if .Spec.InformationGaps}}Information Gaps:
{{range .Spec.InformationGaps}}- {{.}}
{{end}}{{end}}`

const reviewContextTemplate = `Original Strategy:
{{range $i, $q := .Strategy.Queries}}- Query {{inc $i}}: "{{$q.Query}}"
  Purpose: {{$q.Purpose}}
  Expected: {{$q.ExpectedInfo}}

{{end}}
Information Gaps Identified:
{{range .Strategy.InformationGaps}}- {{.}}
{{end}}

Collected Information:
{{.Evidence}}

Plan Agent Reasoning History:
{{range .History}}[{{upper .Kind}}] {{.Content}}

{{end}}

Review this information critically and provide your assessment using the submit_review tool.`

const synthesisSpecTemplate = `Requirement Spec:
- Objective: {{.Objective}}
- Deliverable: {{.Deliverable}}
- Constraints: {{join .Constraints "; " "None"}}
- Assumptions: {{join .Assumptions "; " "None"}}
- Acceptance Criteria: {{join .AcceptanceCriteria "; " "None"}}
- Information Gaps: {{join .InformationGaps "; " "None"}}
- Exec Decision: {{if .NeedsExecution}}Exec required{{else}}Plan-only{{end}} ({{.ExecutionReason}})
`

// Strategy renders a strategy for the event stream.
func Strategy(s models.SearchStrategy) string {
	return template.MustParse(strategyTemplate, s)
}

// Specification renders the requirement spec, followed by the strategy when execution is needed.
func Specification(spec models.RequirementSpec, s models.SearchStrategy) string {
	out := template.MustParse(specTemplate, map[string]any{
		"Spec":     spec,
		"Strategy": Strategy(s),
	})
	return strings.TrimSpace(out)
}

func ReviewContext(s models.SearchStrategy, evidence string, history []models.AgentStep) string {
	return template.MustParse(reviewContextTemplate, map[string]any{
		"Strategy": s,
		"Evidence": evidence,
		"History":  history,
	})
}

func ExecutorRequestFor(queries []models.SearchQuery) string {
	return template.MustParse(ExecutorRequest, map[string]any{"Queries": queries})
}

func PlannerSystemFor(fileTree string) (string, error) {
	s, err := PlannerSystemPrompt.Format(map[string]any{"FileTree": fileTree})
	if err != nil {
		return "", fmt.Errorf("planner system prompt: %w", err)
	}
	return s, nil
}

func PlannerRequestFor(message, context string) (string, error) {
	s, err := PlannerRequestPrompt.Format(map[string]any{"Message": message, "Context": context})
	if err != nil {
		return "", fmt.Errorf("planner request prompt: %w", err)
	}
	return s, nil
}

// SynthesisRequestFor builds the synthesis request. spec may be nil when planning never completed.
func SynthesisRequestFor(question, evidence string, history []models.AgentStep, spec *models.RequirementSpec) (string, error) {
	specText := "Requirement Spec: Not available"
	if spec != nil {
		specText = template.MustParse(synthesisSpecTemplate, spec)
	}
	reasoning := make([]string, 0, len(history))
	for _, step := range history {
		reasoning = append(reasoning, step.Content)
	}

	s, err := SynthesisRequestPrompt.Format(map[string]any{
		"Question":  question,
		"Spec":      specText,
		"Evidence":  evidence,
		"Reasoning": strings.Join(reasoning, "\n\n"),
	})
	if err != nil {
		return "", fmt.Errorf("synthesis prompt: %w", err)
	}
	return s, nil
}

package data

import (
	"regexp"
	"strings"

	"go-deepsearch/pkg/models"
)

const (
	DefaultObjective   = "Clarify user objective"
	DefaultDeliverable = "Direct answer"
)

var (
	objectiveRe      = regexp.MustCompile(`(?i)Objective:\s*([^\n]+)`)
	deliverableRe    = regexp.MustCompile(`(?i)Deliverable:\s*([^\n]+)`)
	needsExecRe      = regexp.MustCompile(`(?i)Needs Exec Agent:\s*(true|false|yes|no)`)
	decisionReasonRe = regexp.MustCompile(`(?i)Exec Decision Reason:\s*([^\n]+)`)
	strategyHeadRe   = regexp.MustCompile(`(?i)(?:Strategy|Queries):`)
	gapsHeadRe       = regexp.MustCompile(`(?i)Information Gaps:`)
	confidenceHeadRe = regexp.MustCompile(`(?i)Initial Confidence:`)
	confidenceRe     = regexp.MustCompile(`(?i)Initial Confidence:\s*(high|medium|low)`)
	planQueryRe      = regexp.MustCompile(`(?i)Query\s+(\d+):\s*"([^"]+)"\s*-\s*Purpose:\s*([^\n]+?)\s*-\s*Expected:\s*([^\n]+)`)
	bulletRe         = regexp.MustCompile(`-\s*(.+)`)
)

// Plan is the outcome of decoding a planner response.
type Plan struct {
	Spec     models.RequirementSpec
	Strategy models.SearchStrategy
}

// ParsePlan decodes a planner response written as labelled text. Missing fields keep
// their defaults; when execution is needed but no query was found the objective becomes
// the only query.
func ParsePlan(response string) Plan {
	spec := models.RequirementSpec{
		Objective:          DefaultObjective,
		Deliverable:        DefaultDeliverable,
		Constraints:        []string{},
		Assumptions:        []string{},
		AcceptanceCriteria: []string{},
		InformationGaps:    []string{},
		ExecutionReason:    "Fallback parser: no structured tool call returned",
	}
	strategy := models.SearchStrategy{
		Queries:         []models.SearchQuery{},
		InformationGaps: []string{},
		ConfidenceLevel: models.ConfidenceLow,
		Reasoning:       response,
	}

	if m := objectiveRe.FindStringSubmatch(response); m != nil {
		spec.Objective = strings.TrimSpace(m[1])
	}
	if m := deliverableRe.FindStringSubmatch(response); m != nil {
		spec.Deliverable = strings.TrimSpace(m[1])
	}
	needsExec := needsExecRe.FindStringSubmatch(response)
	if needsExec != nil {
		v := strings.ToLower(needsExec[1])
		spec.NeedsExecution = v == "true" || v == "yes"
	}
	if m := decisionReasonRe.FindStringSubmatch(response); m != nil {
		spec.ExecutionReason = strings.TrimSpace(m[1])
	}

	if section, ok := sectionAfter(response, strategyHeadRe, gapsHeadRe); ok {
		for _, m := range planQueryRe.FindAllStringSubmatch(section, -1) {
			strategy.Queries = append(strategy.Queries, models.SearchQuery{
				Query:        strings.TrimSpace(m[2]),
				Purpose:      strings.TrimSpace(m[3]),
				ExpectedInfo: strings.TrimSpace(m[4]),
			})
		}
	}

	if section, ok := sectionAfter(response, gapsHeadRe, confidenceHeadRe); ok {
		for _, m := range bulletRe.FindAllStringSubmatch(section, -1) {
			gap := strings.TrimSpace(m[1])
			strategy.InformationGaps = append(strategy.InformationGaps, gap)
			spec.InformationGaps = append(spec.InformationGaps, gap)
		}
	}

	if m := confidenceRe.FindStringSubmatch(response); m != nil {
		strategy.ConfidenceLevel = models.ParseConfidenceLevel(strings.ToLower(m[1]))
	}

	if needsExec == nil {
		spec.NeedsExecution = len(strategy.Queries) > 0
	}
	if spec.NeedsExecution && len(strategy.Queries) == 0 {
		strategy.Queries = append(strategy.Queries, models.SearchQuery{
			Query:        spec.Objective,
			Purpose:      "Fallback execution query from parsed objective",
			ExpectedInfo: "Information needed to fulfill the objective",
		})
	}
	if !spec.NeedsExecution {
		strategy.Queries = []models.SearchQuery{}
	}

	return Plan{Spec: spec, Strategy: strategy}
}

// sectionAfter returns the text between the first match of head and the next match of
// stop (or the end of s).
func sectionAfter(s string, head, stop *regexp.Regexp) (string, bool) {
	loc := head.FindStringIndex(s)
	if loc == nil {
		return "", false
	}
	rest := s[loc[1]:]
	if end := stop.FindStringIndex(rest); end != nil {
		rest = rest[:end[0]]
	}
	return rest, true
}

package data

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"go-deepsearch/pkg/models"
)

var (
	scoreRe        = regexp.MustCompile(`(?i)Confidence Score:\s*(\d+)`)
	critiqueHeadRe = regexp.MustCompile(`(?i)Critique:`)
	actionHeadRe   = regexp.MustCompile(`(?i)Next Action:`)
	actionRe       = regexp.MustCompile(`(?i)Next Action:\s*(finalize|refine_strategy|continue_search)`)
	reviewQueryRe  = regexp.MustCompile(`(?i)Query:\s*"([^"]+)"\s*-\s*Reason:\s*([^\n]+)`)
)

// ParseReview decodes a reviewer response written as labelled text. Anything it cannot
// find stays at score 0, empty critique and continue_search.
func ParseReview(response string) models.ReviewResult {
	result := models.ReviewResult{NextAction: models.ContinueSearch}

	if m := scoreRe.FindStringSubmatch(response); m != nil {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			result.ConfidenceScore = ClampScore(n)
		}
	}
	result.IsSufficient = result.ConfidenceScore >= models.SufficiencyThreshold

	if section, ok := sectionAfter(response, critiqueHeadRe, actionHeadRe); ok {
		result.Critique = strings.TrimSpace(section)
	}

	if m := actionRe.FindStringSubmatch(response); m != nil {
		result.NextAction, _ = models.ParseNextAction(strings.ToLower(m[1]))
	}

	for _, m := range reviewQueryRe.FindAllStringSubmatch(response, -1) {
		result.AdditionalQueries = append(result.AdditionalQueries, models.AdditionalQuery{
			Query:  strings.TrimSpace(m[1]),
			Reason: strings.TrimSpace(m[2]),
		})
	}

	return result
}

func ClampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Max(0, math.Min(100, v)))
}

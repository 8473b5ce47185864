package models

type NextAction string

const (
	Finalize       NextAction = "finalize"
	RefineStrategy NextAction = "refine_strategy"
	ContinueSearch NextAction = "continue_search"
)

// ParseNextAction returns the action and whether s named a known one.
func ParseNextAction(s string) (NextAction, bool) {
	switch NextAction(s) {
	case Finalize, RefineStrategy, ContinueSearch:
		return NextAction(s), true
	default:
		return ContinueSearch, false
	}
}

// SufficiencyThreshold is the confidence score at which collected evidence counts as sufficient.
const SufficiencyThreshold = 75

type AdditionalQuery struct {
	Query  string `json:"query"`
	Reason string `json:"reason"`
}

type ReviewResult struct {
	IsSufficient        bool              `json:"isSufficient"`
	ConfidenceScore     int               `json:"confidenceScore"`
	Critique            string            `json:"critique"`
	NextAction          NextAction        `json:"nextAction"`
	AdditionalQueries   []AdditionalQuery `json:"additionalQueries,omitempty"`
	EvidenceQuality     string            `json:"evidenceQuality,omitempty"`
	AssumptionsDetected []string          `json:"assumptionsDetected,omitempty"`
	InformationGaps     []string          `json:"informationGaps,omitempty"`
}

// QueryStrings returns the additional query texts in order.
func (r ReviewResult) QueryStrings() []string {
	out := make([]string, 0, len(r.AdditionalQueries))
	for _, q := range r.AdditionalQueries {
		out = append(out, q.Query)
	}
	return out
}

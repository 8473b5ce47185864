package models

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// ParseConfidenceLevel maps free text onto a level, defaulting to low.
func ParseConfidenceLevel(s string) ConfidenceLevel {
	switch ConfidenceLevel(s) {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return ConfidenceLevel(s)
	default:
		return ConfidenceLow
	}
}

type SearchQuery struct {
	Query        string `json:"query"`
	Purpose      string `json:"purpose"`
	ExpectedInfo string `json:"expectedInfo"`
}

type SearchStrategy struct {
	Queries         []SearchQuery   `json:"queries"`
	InformationGaps []string        `json:"informationGaps"`
	ConfidenceLevel ConfidenceLevel `json:"confidenceLevel"`
	Reasoning       string          `json:"reasoning"`
}

// WithQueries returns a copy of the strategy whose query list is replaced.
// The receiver's slice is never aliased by the result.
func (s SearchStrategy) WithQueries(queries []SearchQuery) SearchStrategy {
	out := s
	out.Queries = append([]SearchQuery(nil), queries...)
	return out
}

// Append returns a copy of the strategy with queries added after the existing ones.
func (s SearchStrategy) Append(queries ...SearchQuery) SearchStrategy {
	out := s
	out.Queries = make([]SearchQuery, 0, len(s.Queries)+len(queries))
	out.Queries = append(out.Queries, s.Queries...)
	out.Queries = append(out.Queries, queries...)
	return out
}

type RequirementSpec struct {
	Objective          string   `json:"objective"`
	Deliverable        string   `json:"deliverable"`
	Constraints        []string `json:"constraints"`
	Assumptions        []string `json:"assumptions"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	InformationGaps    []string `json:"informationGaps"`
	NeedsExecution     bool     `json:"needsExecAgent"`
	ExecutionReason    string   `json:"execDecisionReason"`
}

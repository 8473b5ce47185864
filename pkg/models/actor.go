package models

import (
	"time"
)

type AgentType string

const (
	PlanAgent AgentType = "plan"
	ExecAgent AgentType = "exec"
)

type StepKind string

const (
	Thought     StepKind = "thought"
	Action      StepKind = "action"
	Observation StepKind = "observation"
	Review      StepKind = "review"
)

type AgentStep struct {
	Agent     AgentType  `json:"agentType"`
	Kind      StepKind   `json:"stepType"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type ExecResult struct {
	CollectedInfo      string   `json:"collectedInfo"`
	QueriesExecuted    []string `json:"queriesExecuted"`
	SuccessfulSearches int      `json:"successfulSearches"`
}

type CoordinationState struct {
	ID             string           `json:"id"`
	UserMessage    string           `json:"userMessage"`
	PlanSteps      []AgentStep      `json:"planSteps"`
	ExecSteps      []AgentStep      `json:"execSteps"`
	Spec           *RequirementSpec `json:"currentSpec,omitempty"`
	Strategy       *SearchStrategy  `json:"currentStrategy,omitempty"`
	Phase          Phase            `json:"phase"`
	IsComplete     bool             `json:"isComplete"`
	IterationCount int              `json:"iterationCount"`
	FinalAnswer    string           `json:"finalAnswer,omitempty"`
}

type Status struct {
	Running bool              `json:"running"`
	State   CoordinationState `json:"state"`
	Errs    *Error            `json:"error,omitempty"`
}

type Error struct {
	ErrMessage string     `json:"error,omitempty"`
	Time       *time.Time `json:"time,omitempty"`
}

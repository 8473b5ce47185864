package models

type EventType string

const (
	PhaseEvent       EventType = "phase"
	PlanThoughtEvent EventType = "plan_thought"
	PlanActionEvent  EventType = "plan_action"
	ExecThoughtEvent EventType = "exec_thought"
	ExecActionEvent  EventType = "exec_action"
	ObservationEvent EventType = "observation"
	ReviewEvent      EventType = "review"
	FinalAnswerEvent EventType = "final_answer"
	ErrorEvent       EventType = "error"
)

// Event is one record of the consumer-facing stream.
type Event struct {
	Type    EventType `json:"type"`
	Agent   AgentType `json:"agent,omitempty"`
	Content string    `json:"content"`
	Phase   string    `json:"phase,omitempty"`
}

// StepEvent maps an agent step onto the event type that narrates it.
func StepEvent(step AgentStep) Event {
	ev := Event{Agent: step.Agent, Content: step.Content}
	switch {
	case step.Kind == Review:
		ev.Type = ReviewEvent
	case step.Kind == Observation:
		ev.Type = ObservationEvent
	case step.Agent == PlanAgent && step.Kind == Action:
		ev.Type = PlanActionEvent
	case step.Agent == PlanAgent:
		ev.Type = PlanThoughtEvent
	case step.Kind == Action:
		ev.Type = ExecActionEvent
	default:
		ev.Type = ExecThoughtEvent
	}
	return ev
}

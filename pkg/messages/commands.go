package messages

import (
	"github.com/google/uuid"
	"go-deepsearch/pkg/events"
	"go-deepsearch/pkg/models"
)

// NewQuestion starts a run. Stream receives the run's events and is closed when it ends.
type NewQuestion struct {
	RequestID     uuid.UUID
	Message       string
	Context       string
	MaxIterations int
	Stream        *events.Stream
}

// RunProgress carries the state of a run that is still going.
type RunProgress struct {
	RequestID uuid.UUID
	State     models.CoordinationState
}

type RunComplete struct {
	RequestID uuid.UUID
	State     models.CoordinationState
}

type GetStatus struct{}

type ReportError struct {
	RequestID uuid.UUID
	Error     models.Error
}

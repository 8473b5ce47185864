package actor

import (
	"context"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go-deepsearch/internal/agents/coordinator/handler"
	"go-deepsearch/pkg/logger"
	"go-deepsearch/pkg/messages"
	"go-deepsearch/pkg/models"
)

// Coordinator hosts one research run. The run itself executes off the mailbox; the actor
// owns the status that GetStatus reports.
type Coordinator struct {
	handler *handler.Coordinator
	id      uuid.UUID
	status  models.Status
}

// Producer returns a props producer bound to h.
func Producer(h *handler.Coordinator) actor.Producer {
	return func() actor.Actor {
		return New(h)
	}
}

func New(h *handler.Coordinator) actor.Actor {
	return &Coordinator{
		handler: h,
		id:      uuid.Nil,
		status:  models.Status{State: models.CoordinationState{Phase: models.Planning}},
	}
}

func (agent *Coordinator) Receive(ac actor.Context) {
	l := log.With().Fields(map[string]interface{}{logger.ActorIDField: ac.Self().GetId(), logger.AgentNameField: "coordinator"}).Logger()
	switch msg := ac.Message().(type) {
	case *actor.Started:
		l.Debug().Msg("starting actor")
	case *actor.Stopping:
		l.Debug().Msg("stopping actor")
	case *actor.Stopped:
		l.Debug().Msg("stopped actor")
	case *actor.Restarting:
		l.Debug().Msg("restarting actor")
	case messages.NewQuestion:
		l.Debug().Str(logger.RunIDField, msg.RequestID.String()).Msg("NewQuestion received")
		if agent.status.Running {
			l.Warn().Str(logger.RunIDField, msg.RequestID.String()).Msg("run already in progress, ignoring question")
			msg.Stream.Close()
			return
		}
		agent.id = msg.RequestID
		agent.status = models.Status{
			Running: true,
			State: models.CoordinationState{
				ID:          msg.RequestID.String(),
				UserMessage: msg.Message,
				Phase:       models.Planning,
			},
		}
		agent.start(ac, msg)
	case messages.RunProgress:
		if agent.status.Running && msg.RequestID == agent.id {
			agent.status.State = msg.State
		}
	case messages.RunComplete:
		l.Debug().Str(logger.RunIDField, agent.id.String()).Str(logger.PhaseField, string(msg.State.Phase)).Msg("RunComplete received")
		agent.status.Running = false
		agent.status.State = msg.State
	case messages.ReportError:
		l.Debug().Str(logger.RunIDField, agent.id.String()).Msg("ReportError received")
		e := msg.Error
		agent.status.Errs = &e
	case messages.GetStatus:
		ac.Respond(agent.status)
	default:
		l.Warn().Str(logger.RunIDField, agent.id.String()).Msgf("unknown message: %v", msg)
	}
}

// start runs the question on its own goroutine and reports back through the mailbox.
func (agent *Coordinator) start(ac actor.Context, msg messages.NewQuestion) {
	self := ac.Self()
	root := ac.ActorSystem().Root
	h := agent.handler
	go func() {
		defer msg.Stream.Close()
		state, err := h.Run(context.Background(), handler.Input{
			ID:            msg.RequestID.String(),
			Message:       msg.Message,
			Context:       msg.Context,
			MaxIterations: msg.MaxIterations,
			Progress: func(state models.CoordinationState) {
				root.Send(self, messages.RunProgress{RequestID: msg.RequestID, State: state})
			},
		}, msg.Stream)
		if err != nil {
			t := time.Now()
			root.Send(self, messages.ReportError{RequestID: msg.RequestID, Error: models.Error{ErrMessage: err.Error(), Time: &t}})
		}
		root.Send(self, messages.RunComplete{RequestID: msg.RequestID, State: state})
	}()
}

package logger

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	AgentNameField = "agent"
	ActorIDField   = "actor"
	RunIDField     = "run"
	PhaseField     = "phase"
	IterationField = "iteration"
	ToolField      = "tool"
	QueryField     = "query"
)

func NewGlobal(level string, pretty bool) error {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}

	zerolog.SetGlobalLevel(l)

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return nil
}

// ForAgent returns the global logger tagged with the run and agent names.
func ForAgent(runID, agent string) zerolog.Logger {
	return log.With().Str(RunIDField, runID).Str(AgentNameField, agent).Logger()
}

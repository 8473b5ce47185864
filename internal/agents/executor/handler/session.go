package handler

import (
	"context"

	"go-deepsearch/pkg/tools"
)

// Session is the dedup context of one run. It is shared by reference across every
// executor invocation of the run and discarded with it.
type Session struct {
	executed map[string]struct{}
	order    []string
	history  *tools.History
}

func NewSession(similarity float64) *Session {
	return &Session{
		executed: map[string]struct{}{},
		history:  tools.NewHistory(similarity),
	}
}

// Executed reports whether the query (compared case and whitespace insensitively) already ran.
func (s *Session) Executed(query string) bool {
	_, ok := s.executed[tools.Normalize(query)]
	return ok
}

func (s *Session) mark(query string) {
	key := tools.Normalize(query)
	if _, ok := s.executed[key]; ok {
		return
	}
	s.executed[key] = struct{}{}
	s.order = append(s.order, query)
}

// Queries returns every executed query in execution order.
func (s *Session) Queries() []string {
	return append([]string(nil), s.order...)
}

func (s *Session) Len() int {
	return len(s.order)
}

func (s *Session) context(ctx context.Context) context.Context {
	return tools.WithHistory(ctx, s.history)
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go-deepsearch/pkg/models"
)

const doneSentinel = "[DONE]"

// sseWriter writes `data: <payload>\n\n` frames and flushes after each one.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	f, _ := w.(http.Flusher)
	return &sseWriter{w: w, flusher: f}
}

// init writes the stream headers. Headers set on w before init are sent along.
func (s *sseWriter) init() {
	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	s.w.WriteHeader(http.StatusOK)
	s.flush()
}

func (s *sseWriter) event(ev models.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("sse: marshal event: %w", err)
	}
	return s.frame(string(b))
}

func (s *sseWriter) done() error {
	return s.frame(doneSentinel)
}

func (s *sseWriter) frame(data string) error {
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("sse: write frame: %w", err)
	}
	s.flush()
	return nil
}

func (s *sseWriter) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

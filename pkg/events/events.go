package events

import (
	"context"
	"errors"
	"sync"

	"go-deepsearch/pkg/models"
)

// ErrClosed is returned by Emit once the consumer has stopped reading.
var ErrClosed = errors.New("event stream closed")

// Emitter receives events in the order the run produces them.
type Emitter interface {
	Emit(ctx context.Context, ev models.Event) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, ev models.Event) error

func (f EmitterFunc) Emit(ctx context.Context, ev models.Event) error {
	return f(ctx, ev)
}

// Stream is an unbuffered, ordered event channel between one producing run and one consumer.
// The producer calls Close when the run ends; the consumer calls Cancel when it stops reading.
type Stream struct {
	ch        chan models.Event
	done      chan struct{}
	closeOnce sync.Once
	stopOnce  sync.Once
}

func NewStream() *Stream {
	return &Stream{
		ch:   make(chan models.Event),
		done: make(chan struct{}),
	}
}

func (s *Stream) Emit(ctx context.Context, ev models.Event) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	select {
	case s.ch <- ev:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events is the consumer side. It is closed after the producer calls Close.
func (s *Stream) Events() <-chan models.Event {
	return s.ch
}

// Close ends the stream from the producer side.
func (s *Stream) Close() {
	s.closeOnce.Do(func() { close(s.ch) })
}

// Cancel signals that nobody reads anymore; pending and future Emit calls fail with ErrClosed.
func (s *Stream) Cancel() {
	s.stopOnce.Do(func() { close(s.done) })
}

// Recorder keeps every emitted event in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []models.Event
}

func (r *Recorder) Emit(_ context.Context, ev models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, ev)
	return nil
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []models.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.EventType, 0, len(r.Events))
	for _, ev := range r.Events {
		out = append(out, ev.Type)
	}
	return out
}

// OfType returns the recorded events of the given type.
func (r *Recorder) OfType(t models.EventType) []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Event
	for _, ev := range r.Events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

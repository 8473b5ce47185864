package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/justinas/alice"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	coordinator "go-deepsearch/internal/agents/coordinator/actor"
	"go-deepsearch/internal/agents/coordinator/handler"
	"go-deepsearch/internal/telemetry"
	"go-deepsearch/pkg/events"
	"go-deepsearch/pkg/logger"
	"go-deepsearch/pkg/messages"
	"go-deepsearch/pkg/models"
)

type question struct {
	Message       string `json:"message"`
	Context       string `json:"context,omitempty"`
	MaxIterations int    `json:"maxIterations,omitempty"`
}

type getStatus struct {
	Status models.Status `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type Options struct {
	Port          int
	StatusTimeout time.Duration
	RunRetention  time.Duration
}

type Server struct {
	ac        *actor.RootContext
	server    *http.Server
	requests  *requestsCache
	props     *actor.Props
	opts      Options
	stopClean context.CancelFunc
}

func New(ac *actor.RootContext, h *handler.Coordinator, metrics *telemetry.Metrics, opts Options) *Server {
	if opts.StatusTimeout <= 0 {
		opts.StatusTimeout = 2 * time.Second
	}
	if opts.RunRetention <= 0 {
		opts.RunRetention = 30 * time.Minute
	}

	decider := func(reason interface{}) actor.Directive {
		log.Error().Msgf("handling failure for run actor. reason: %v", reason)
		return actor.StopDirective
	}
	strategy := actor.NewOneForOneStrategy(3, 10000, decider)

	s := &Server{
		ac:       ac,
		requests: newRequestsCache(),
		props:    actor.PropsFromProducer(coordinator.Producer(h), actor.WithSupervisor(strategy)),
		opts:     opts,
	}

	r := chi.NewRouter()
	r.Use(logMiddleware())
	r.Post("/agent", s.ask)
	r.Get("/status/{id}", s.status)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	s.server = &http.Server{
		Addr:    fmt.Sprint(":", opts.Port),
		Handler: r,
	}
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	var q question
	if err := render.DecodeJSON(r.Body, &q); err != nil && !errors.Is(err, io.EOF) {
		log.Debug().Err(err).Msg("cannot parse body")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "Unable to parse body"})
		return
	}
	if strings.TrimSpace(q.Message) == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "Message is required"})
		return
	}

	id := uuid.New()
	pid := s.ac.Spawn(s.props)
	s.requests.add(id, pid)
	defer s.requests.finish(id)

	stream := events.NewStream()
	s.ac.Send(pid, messages.NewQuestion{
		RequestID:     id,
		Message:       q.Message,
		Context:       q.Context,
		MaxIterations: q.MaxIterations,
		Stream:        stream,
	})
	l := log.With().Str(logger.RunIDField, id.String()).Logger()
	l.Debug().Msg("research run has been started")

	w.Header().Set("X-Run-Id", id.String())
	sse := newSSEWriter(w)
	sse.init()

	for {
		select {
		case ev, ok := <-stream.Events():
			if !ok {
				if err := sse.done(); err != nil {
					l.Debug().Err(err).Msg("unable to write done frame")
				}
				return
			}
			if err := sse.event(ev); err != nil {
				l.Info().Err(err).Msg("client write failed, cancelling run")
				stream.Cancel()
				return
			}
		case <-r.Context().Done():
			l.Info().Msg("client disconnected, cancelling run")
			stream.Cancel()
			return
		}
	}
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: "Unable to parse id"})
		return
	}
	pid, ok := s.requests.get(id)
	if !ok {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: "Run not found"})
		return
	}

	res, err := s.ac.RequestFuture(pid, messages.GetStatus{}, s.opts.StatusTimeout).Result()
	if err != nil {
		log.Error().Str(logger.RunIDField, idParam).Err(err).Msg("unable to get status from actor")
		s.requests.remove(id)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{Error: "Unable to get status"})
		return
	}
	status, ok := res.(models.Status)
	if !ok {
		log.Error().Str(logger.RunIDField, idParam).Msgf("unknown status from actor: %T", res)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{Error: "Unable to get status"})
		return
	}

	if status.Running {
		render.Status(r, http.StatusAccepted)
	}
	render.JSON(w, r, getStatus{status})
}

// Start serves until Stop is called. Finished runs are reaped in the background.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopClean = cancel
	go s.janitor(ctx, time.Minute)

	log.Info().Str("addr", s.server.Addr).Msg("http server starting")
	err := s.server.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.stopClean != nil {
		s.stopClean()
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	for _, pid := range s.requests.drain() {
		s.ac.Stop(pid)
	}
	return nil
}

func (s *Server) janitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.reap()
		}
	}
}

func (s *Server) reap() {
	for _, pid := range s.requests.evict(s.opts.RunRetention) {
		s.ac.Stop(pid)
	}
}

func logMiddleware() func(http.Handler) http.Handler {
	c := alice.New()
	c = c.Append(hlog.NewHandler(log.Logger))
	c = c.Append(hlog.RemoteAddrHandler("ip"))
	c = c.Append(hlog.UserAgentHandler("user_agent"))
	c = c.Append(hlog.RequestIDHandler("req_id", "Request-Id"))
	c = c.Append(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("verb", r.Method).
			Stringer("url", r.URL).
			Int("size", size).
			Int("status", status).
			Int64("duration", duration.Milliseconds()).
			Msg("REQ")
	}))

	return c.Then
}

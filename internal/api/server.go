package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/justinas/alice"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	resolverActor "github.com/y-pakorn/friendwithbets/internal/agents/resolver/actor"
	resolver "github.com/y-pakorn/friendwithbets/internal/agents/resolver/handler"
	"github.com/y-pakorn/friendwithbets/pkg/logger"
	"github.com/y-pakorn/friendwithbets/pkg/memory/buffer"
	"github.com/y-pakorn/friendwithbets/pkg/messages"
	"github.com/y-pakorn/friendwithbets/pkg/metrics"
	"github.com/y-pakorn/friendwithbets/pkg/models"
	"github.com/y-pakorn/friendwithbets/pkg/tools"
)

const statusTimeout = 5 * time.Second

type Creator interface {
	Stream(ctx context.Context, transcript buffer.Transcript) (<-chan models.StreamResponse, error)
}

type Catalogue interface {
	Tools() []tools.Tool
}

type Deps struct {
	Creator       Creator
	Resolver      resolverActor.Resolver
	Tools         Catalogue
	Port          int
	CreateTimeout time.Duration
	JobRetention  time.Duration
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

type resolveResponse struct {
	Type    string                   `json:"type"`
	Message string                   `json:"message,omitempty"`
	Outcome *models.OutcomeSelection `json:"outcome,omitempty"`
}

type Server struct {
	ac     *actor.RootContext
	deps   Deps
	server *http.Server
	jobs   *jobsCache
}

func New(ac *actor.RootContext, deps Deps) *Server {
	if deps.CreateTimeout <= 0 {
		deps.CreateTimeout = 5 * time.Minute
	}
	s := &Server{
		ac:   ac,
		deps: deps,
		jobs: newJobsCache(),
	}

	r := chi.NewRouter()
	r.Use(logMiddleware())
	r.Post("/creator", s.create)
	r.Get("/creator/ws", s.createSocket)
	r.Post("/resolver", s.resolve)
	r.Post("/resolver/jobs", s.newJob)
	r.Get("/resolver/jobs/{id}", s.jobStatus)
	r.Delete("/resolver/jobs/{id}", s.cancelJob)
	r.Get("/tools", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, deps.Tools.Tools())
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	s.server = &http.Server{
		Addr:              fmt.Sprint(":", deps.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// create runs one creator turn. Clients asking for text/event-stream get each
// response as it is produced; everyone else gets the drained turn as a JSON array.
func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var transcript buffer.Transcript
	if err := unmarshalRequestBody(r, &transcript); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", models.ErrBadInput, err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.deps.CreateTimeout)
	defer cancel()
	ch, err := s.deps.Creator.Stream(ctx, transcript)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.Respond(w, r, ch)
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	var market models.Market
	if err := unmarshalRequestBody(r, &market); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", models.ErrBadInput, err))
		return
	}

	sel, err := s.deps.Resolver.Resolve(r.Context(), market)
	if errors.Is(err, resolver.ErrAlreadyResolved) {
		render.JSON(w, r, resolveResponse{Type: "resolved", Message: "Market already resolved"})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, resolveResponse{Type: "success", Outcome: &sel})
}

func (s *Server) newJob(w http.ResponseWriter, r *http.Request) {
	var market models.Market
	if err := unmarshalRequestBody(r, &market); err != nil {
		writeError(w, r, fmt.Errorf("%w: %w", models.ErrBadInput, err))
		return
	}
	if err := market.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if market.Resolved() {
		render.JSON(w, r, resolveResponse{Type: "resolved", Message: "Market already resolved"})
		return
	}

	decider := func(reason interface{}) actor.Directive {
		log.Error().Msgf("handling failure for resolve job. reason: %v", reason)
		return actor.StopDirective
	}
	strategy := actor.NewOneForOneStrategy(3, 10000, decider)
	props := actor.PropsFromProducer(resolverActor.New(s.ac, s.deps.Resolver, resolverActor.Options{
		Retention: s.deps.JobRetention,
		OnStopped: s.jobs.remove,
	}), actor.WithSupervisor(strategy))
	pid := s.ac.Spawn(props)

	id := uuid.New()
	s.jobs.add(id, pid)
	s.ac.Send(pid, messages.Resolve{RequestID: id, Market: market})

	log.Debug().Str(logger.RequestIDField, id.String()).Msg("resolve job has been started")
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, struct {
		ID string `json:"id"`
	}{id.String()})
}

func (s *Server) jobStatus(w http.ResponseWriter, r *http.Request) {
	id, pid, ok := s.lookup(w, r)
	if !ok {
		return
	}

	res, err := s.ac.RequestFuture(pid, messages.GetStatus{}, statusTimeout).Result()
	if err != nil {
		s.jobs.remove(id)
		log.Error().Str(logger.RequestIDField, id.String()).Err(err).Msg("unable to get status from actor")
		writeError(w, r, fmt.Errorf("job %s: %w", id, err))
		return
	}
	status, ok := res.(models.JobStatus)
	if !ok {
		log.Error().Str(logger.RequestIDField, id.String()).Msgf("unknown status from actor: %T", res)
		writeError(w, r, fmt.Errorf("job %s: unknown status", id))
		return
	}
	render.JSON(w, r, status)
}

func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request) {
	id, pid, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.ac.Send(pid, messages.Cancel{})
	log.Debug().Str(logger.RequestIDField, id.String()).Msg("resolve job cancel requested")
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (uuid.UUID, *actor.PID, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: unable to parse id", models.ErrBadInput))
		return uuid.Nil, nil, false
	}
	pid, ok := s.jobs.get(id)
	if !ok {
		log.Debug().Str(logger.RequestIDField, idParam).Msg("cannot find id")
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: "job not found"})
		return id, nil, false
	}
	return id, pid, true
}

func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server starting")
	err := s.server.ListenAndServe()
	if err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop drains HTTP connections, then stops any resolve jobs still alive.
func (s *Server) Stop(ctx context.Context) error {
	err := s.server.Shutdown(ctx)
	for _, pid := range s.jobs.all() {
		s.ac.Stop(pid)
	}
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// statusCode maps error kinds onto HTTP statuses.
func statusCode(err error) int {
	switch {
	case errors.Is(err, models.ErrBadInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrCancelled):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrGenerationFailed),
		errors.Is(err, models.ErrProtocolViolation),
		errors.Is(err, models.ErrInfiniteLoop):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusCode(err)
	l := hlog.FromRequest(r)
	if code >= http.StatusInternalServerError {
		l.Error().Err(err).Msg("request failed")
	} else {
		l.Debug().Err(err).Msg("request rejected")
	}
	render.Status(r, code)
	render.JSON(w, r, errorResponse{Error: err.Error(), Kind: models.Kind(err)})
}

func logMiddleware() func(http.Handler) http.Handler {
	c := alice.New()
	c = c.Append(hlog.NewHandler(log.Logger))
	c = c.Append(hlog.RemoteAddrHandler("ip"))
	c = c.Append(hlog.UserAgentHandler("agent"))
	c = c.Append(hlog.RefererHandler("referer"))
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

func unmarshalRequestBody(req *http.Request, output interface{}) error {
	if req.Body == nil {
		return errors.New("invalid body in request")
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}
	if err = req.Body.Close(); err != nil {
		return err
	}
	if err = json.Unmarshal(body, output); err != nil {
		return err
	}

	return nil
}

// Serve runs the server until ctx ends, then shuts it down gracefully.
func (s *Server) Serve(ctx context.Context, grace time.Duration) error {
	errs := make(chan error, 1)
	go func() {
		errs <- s.Start()
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down gracefully")
	shutdown, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := s.Stop(shutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return <-errs
}

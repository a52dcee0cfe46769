package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/debrief"
	"github.com/aretw0/debrief/internal/logging"
	"github.com/aretw0/debrief/pkg/domain"
	"github.com/aretw0/debrief/pkg/ports"
	"github.com/aretw0/debrief/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server exposes a ports.Conversation as a JSON API.
type Server struct {
	Conversation ports.Conversation
	Streams      *StreamManager

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts a Prometheus handler on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for the conversation.
func NewHandler(conv ports.Conversation, opts ...Option) http.Handler {
	s := &Server{
		Conversation: conv,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))

	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Get("/", s.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/messages", s.SendMessage)
			r.Post("/answer", s.Answer)
			r.Post("/retry", s.Retry)
			r.Post("/end", s.End)
			r.Get("/summary", s.GetSummary)
			r.Get("/events", s.SubscribeEvents)
			r.Get("/ws", s.ServeWebSocket)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CreateSessionRequest optionally names the new session.
type CreateSessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// MessageRequest carries a free-text user message.
type MessageRequest struct {
	Text string `json:"text"`
}

// AnswerRequest carries a yes/no button click.
type AnswerRequest struct {
	Yes bool `json:"yes"`
}

// ErrorResponse is returned on failure. View is set when the turn was recorded but could not finish.
type ErrorResponse struct {
	Error string        `json:"error"`
	View  *debrief.View `json:"view,omitempty"`
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateSessionRequest
	if err := decodeOptional(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	view, err := s.Conversation.Open(r.Context(), body.SessionID)
	s.respond(w, r, view, err, http.StatusCreated)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Conversation.Sessions(r.Context())
	if err != nil {
		s.fail(w, r, nil, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.Conversation.Get(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, view, err, http.StatusOK)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Conversation.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, nil, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SendMessage handles POST /sessions/{id}/messages.
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request) {
	var body MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		s.logger.Warn("SendMessage: invalid request body", "err", err)
		return
	}
	text, err := runner.SanitizeInput(body.Text)
	if err != nil {
		s.logger.Warn("SendMessage: input rejected", "err", err, "size", len(body.Text))
		s.fail(w, r, nil, err)
		return
	}
	view, err := s.Conversation.Send(r.Context(), chi.URLParam(r, "id"), text)
	s.respond(w, r, view, err, http.StatusOK)
}

// Answer handles POST /sessions/{id}/answer.
func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	var body AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	view, err := s.Conversation.Answer(r.Context(), chi.URLParam(r, "id"), body.Yes)
	s.respond(w, r, view, err, http.StatusOK)
}

// Retry handles POST /sessions/{id}/retry.
func (s *Server) Retry(w http.ResponseWriter, r *http.Request) {
	view, err := s.Conversation.Retry(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, view, err, http.StatusOK)
}

// End handles POST /sessions/{id}/end.
func (s *Server) End(w http.ResponseWriter, r *http.Request) {
	view, err := s.Conversation.End(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, view, err, http.StatusOK)
}

// GetSummary handles GET /sessions/{id}/summary.
func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request) {
	reader, ok := s.Conversation.(ports.SummaryReader)
	if !ok {
		s.fail(w, r, nil, debrief.ErrSummaryUnavailable)
		return
	}
	summary, err := reader.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "debrief-http",
		"version": debrief.Version(),
	})
}

// respond writes the view and broadcasts it to the session's subscribers.
// A failed turn still broadcasts, since the user message was recorded.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, view *debrief.View, err error, status int) {
	if view != nil {
		s.Streams.Publish(view)
	}
	if err != nil {
		s.fail(w, r, view, err)
		return
	}
	writeJSON(w, status, view)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, view *debrief.View, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), View: view})
}

// StatusFor maps domain errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, runner.ErrInputTooLarge), errors.Is(err, runner.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, debrief.ErrSummaryUnavailable):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "err", err)
	}
}

// decodeOptional decodes a JSON body, treating an empty body as the zero value.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"voice-chat/internal/application"
	"voice-chat/internal/domain"
)

const (
	maxAudioBytes = 10 * 1024 * 1024
	maxJSONBytes  = 64 * 1024
)

// Pipeline is the part of the orchestrator the HTTP surface drives.
type Pipeline interface {
	SubmitRecording(ctx context.Context, rec *domain.Recording) (*application.TurnResult, error)
	Conversation() []domain.Turn
	ClearConversation(ctx context.Context) error
	Session() application.SessionState
	SaveCredentials(ctx context.Context, creds domain.Credentials) error
	SetSpeechOutput(enabled bool)
}

type Server struct {
	addr        string
	pipeline    Pipeline
	logger      *slog.Logger
	mux         *http.ServeMux
	rateLimiter *RateLimiter
	authToken   string

	mu      sync.Mutex
	server  *http.Server
	running bool
}

type Option func(*Server)

// WithTrustProxy keys rate limiting on X-Forwarded-For / X-Real-IP instead of the peer address.
// Only enable it behind a proxy that overwrites those headers.
func WithTrustProxy(trust bool) Option {
	return func(s *Server) {
		s.rateLimiter.SetTrustProxy(trust)
	}
}

// NewServer builds the API. requestsPerMinute <= 0 disables rate limiting.
func NewServer(addr, authToken string, requestsPerMinute int, pipeline Pipeline, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		addr:        addr,
		pipeline:    pipeline,
		logger:      logger,
		mux:         http.NewServeMux(),
		rateLimiter: NewRateLimiter(requestsPerMinute),
		authToken:   authToken,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("POST /turns", s.guard(s.handleTurn))
	s.mux.HandleFunc("GET /conversation", s.guard(s.handleConversation))
	s.mux.HandleFunc("DELETE /conversation", s.guard(s.handleClearConversation))
	s.mux.HandleFunc("GET /session", s.guard(s.handleSession))
	s.mux.HandleFunc("PUT /settings/credentials", s.guard(s.handleCredentials))
	s.mux.HandleFunc("PUT /settings/speech", s.guard(s.handleSpeech))
	// No auth or rate limiting on health check
	s.mux.HandleFunc("GET /health", s.handleHealth)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.mux,
		// a turn waits on two remote calls
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("HTTP API starting", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			if err := s.server.Close(); err != nil {
				return fmt.Errorf("closing server: %w", err)
			}
		}
	}

	s.running = false
	return nil
}

func (s *Server) guard(next http.HandlerFunc) http.HandlerFunc {
	return s.rateLimiter.Middleware(s.authenticate(next))
}

func (s *Server) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken != "" {
			token := r.Header.Get("X-Auth-Token")
			if token == "" {
				token = r.URL.Query().Get("token")
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
				s.logger.Warn("unauthorized request", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
				return
			}
		}
		next(w, r)
	}
}

type turnResponse struct {
	Transcript string `json:"transcript"`
	Reply      string `json:"reply"`
}

type conversationResponse struct {
	Conversation []domain.Turn `json:"conversation"`
}

type speechRequest struct {
	Enabled *bool `json:"enabled"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	data, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes+1))
	if err != nil {
		s.logger.Error("reading audio body", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read body"})
		return
	}

	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "empty audio"})
		return
	}
	if len(data) > maxAudioBytes {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "audio too large"})
		return
	}

	s.logger.Info("received audio via HTTP", "bytes", len(data))

	result, err := s.pipeline.SubmitRecording(r.Context(), &domain.Recording{Data: data})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, turnResponse{Transcript: result.Transcript, Reply: result.Reply})
}

func (s *Server) handleConversation(w http.ResponseWriter, _ *http.Request) {
	turns := s.pipeline.Conversation()
	if turns == nil {
		turns = []domain.Turn{}
	}
	writeJSON(w, http.StatusOK, conversationResponse{Conversation: turns})
}

func (s *Server) handleClearConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.ClearConversation(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.Session())
}

func (s *Server) handleCredentials(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := decodeJSON(r, &creds); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.pipeline.SaveCredentials(r.Context(), creds); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if req.Enabled == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "enabled is required"})
		return
	}

	s.pipeline.SetSpeechOutput(*req.Enabled)
	writeJSON(w, http.StatusOK, s.pipeline.Session())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	state := s.pipeline.Session()

	status := "ok"
	statusCode := http.StatusOK

	if !running {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, map[string]any{
		"status":         status,
		"running":        running,
		"turnInProgress": state.TurnInProgress,
	})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: application.UserMessage(err)})
}

// StatusFor maps a pipeline failure to an HTTP status code.
func StatusFor(err error) int {
	if errors.Is(err, domain.ErrTurnInProgress) {
		return http.StatusConflict
	}

	kind, ok := domain.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch kind {
	case domain.KindConfiguration:
		return http.StatusPreconditionFailed
	case domain.KindTranscription, domain.KindCompletion:
		return http.StatusBadGateway
	case domain.KindCapture:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/tailortalk/tailortalk/internal/logging"
	"github.com/tailortalk/tailortalk/internal/session"
)

const (
	// DefaultAPIAddr is the default address for the chat API server.
	DefaultAPIAddr = ":8000"

	// DefaultAPIReadTimeout bounds reading of request headers.
	DefaultAPIReadTimeout = 10 * time.Second

	// DefaultAPIWriteTimeout bounds one response write. Chat turns make
	// up to two model calls of up to 30 seconds each.
	DefaultAPIWriteTimeout = 90 * time.Second

	// DefaultAPIIdleTimeout is the keep-alive idle timeout.
	DefaultAPIIdleTimeout = 60 * time.Second
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

// SessionInfo summarizes the session after a turn.
type SessionInfo struct {
	MessageCount         int  `json:"message_count"`
	PendingClarification bool `json:"pending_clarification"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	Response      string      `json:"response"`
	UserID        string      `json:"user_id"`
	ToolCallsMade []string    `json:"tool_calls_made"`
	SessionInfo   SessionInfo `json:"session_info"`
}

// APIHealthResponse is the body of GET /health.
type APIHealthResponse struct {
	Status         string `json:"status"`
	Timestamp      string `json:"timestamp"`
	Version        string `json:"version"`
	ActiveSessions int    `json:"active_sessions"`
}

// SessionsResponse is the body of GET /sessions.
type SessionsResponse struct {
	Status        string            `json:"status"`
	TotalSessions int               `json:"total_sessions"`
	Sessions      []session.Summary `json:"sessions"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIServerConfig holds configuration for the chat API server.
type APIServerConfig struct {
	// Addr is the address to bind the API server to (e.g., ":8000").
	Addr string

	// Version is reported by the health and root endpoints.
	Version string

	// ServerContext provides the agent, session registry and metrics.
	ServerContext *ServerContext
}

// APIServer exposes the conversational API: chat, health and session
// introspection endpoints.
type APIServer struct {
	sc         *ServerContext
	version    string
	addr       string
	logger     *slog.Logger
	httpServer *http.Server
}

// NewAPIServer creates a new API server with the given configuration.
func NewAPIServer(config APIServerConfig) (*APIServer, error) {
	if config.ServerContext == nil {
		return nil, fmt.Errorf("server context is required for API server")
	}
	if config.Addr == "" {
		config.Addr = DefaultAPIAddr
	}
	if config.Version == "" {
		config.Version = "unknown"
	}

	return &APIServer{
		sc:      config.ServerContext,
		version: config.Version,
		addr:    config.Addr,
		logger:  slog.Default(),
	}, nil
}

// Router builds the HTTP routing table. Exposed for tests.
func (s *APIServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.observeMiddleware)

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/sessions", s.handleListSessions).Methods(http.MethodGet)
	r.HandleFunc("/sessions", s.handleClearAllSessions).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{id}", s.handleClearSession).Methods(http.MethodDelete)
	r.HandleFunc("/test-calendar", s.handleTestCalendar).Methods(http.MethodGet)
	r.HandleFunc("/test-llm", s.handleTestLLM).Methods(http.MethodGet)

	return r
}

// Start starts the API server in a blocking manner.
// Call this in a goroutine if you need non-blocking operation.
func (s *APIServer) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: DefaultAPIReadTimeout,
		WriteTimeout:      DefaultAPIWriteTimeout,
		IdleTimeout:       DefaultAPIIdleTimeout,
	}

	s.logger.Info("starting chat API server", "addr", s.addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the API server.
func (s *APIServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		s.logger.Info("shutting down chat API server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the configured address for the API server.
func (s *APIServer) Addr() string {
	return s.addr
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// observeMiddleware logs every request and records HTTP metrics. The
// metric path label uses the route template so user IDs in the path do
// not explode label cardinality.
func (s *APIServer) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		elapsed := time.Since(start)
		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if template, err := route.GetPathTemplate(); err == nil {
				path = template
			}
		}

		s.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", recorder.status),
			slog.Duration(logging.KeyDuration, elapsed))
		s.sc.Metrics().RecordHTTPRequest(r.Context(), r.Method, path, recorder.status, elapsed)
	})
}

func (s *APIServer) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "TailorTalk API is running!",
		"status":  "healthy",
		"version": s.version,
		"endpoints": map[string]string{
			"chat":          "/chat",
			"health":        "/health",
			"sessions":      "/sessions",
			"test-calendar": "/test-calendar",
			"test-llm":      "/test-llm",
		},
	})
}

func (s *APIServer) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{
			Status: "error",
			Error:  fmt.Sprintf("invalid request body: %v", err),
		})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, statusResponse{
			Status: "error",
			Error:  "message is required",
		})
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = uuid.NewString()
	}

	s.logger.Info("chat request",
		logging.Operation("chat"),
		slog.String(logging.KeyUserHash, logging.AnonymizeUserID(userID)))

	result := s.sc.Agent().ProcessTurn(r.Context(), userID, req.Message)

	if result.NewSession {
		s.sc.Metrics().IncrementActiveSessions(r.Context())
	}

	toolCalls := result.ToolCallsMade
	if toolCalls == nil {
		toolCalls = []string{}
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:      result.Reply,
		UserID:        userID,
		ToolCallsMade: toolCalls,
		SessionInfo: SessionInfo{
			MessageCount:         result.MessageCount,
			PendingClarification: result.PendingClarification,
		},
	})
}

func (s *APIServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, APIHealthResponse{
		Status:         "healthy",
		Timestamp:      time.Now().Format(time.RFC3339),
		Version:        s.version,
		ActiveSessions: s.sc.Sessions().Len(),
	})
}

func (s *APIServer) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	summaries := s.sc.Sessions().Summaries()
	writeJSON(w, http.StatusOK, SessionsResponse{
		Status:        "success",
		TotalSessions: len(summaries),
		Sessions:      summaries,
	})
}

func (s *APIServer) handleClearSession(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]

	if s.sc.Sessions().Remove(userID) {
		s.sc.Metrics().DecrementActiveSessions(r.Context())
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "success",
		Message: fmt.Sprintf("Session for user %s cleared successfully", userID),
	})
}

func (s *APIServer) handleClearAllSessions(w http.ResponseWriter, r *http.Request) {
	removed := s.sc.Sessions().Clear()
	s.sc.Metrics().DecrementActiveSessionsBy(r.Context(), int64(removed))

	writeJSON(w, http.StatusOK, statusResponse{
		Status:  "success",
		Message: "All sessions cleared successfully",
	})
}

// handleTestCalendar checks calendar connectivity with a bounded event
// listing. Failures are reported in the body, not the HTTP status, so
// the endpoint stays curl-friendly.
func (s *APIServer) handleTestCalendar(w http.ResponseWriter, r *http.Request) {
	lister := s.sc.Events()
	if lister == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "error",
			"message": "Calendar connection failed",
			"error":   "calendar tools are not configured",
		})
		return
	}

	s.logger.Info("testing calendar connectivity", logging.Operation("test-calendar"))

	result, err := lister.ListEvents(r.Context(), map[string]any{})
	if err != nil {
		s.logger.Error("calendar test failed", logging.Err(err))
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  "error",
			"message": "Calendar connection failed",
			"error":   err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "success",
		"message":       "Calendar connection successful",
		"calendar_test": result,
	})
}

// handleTestLLM checks model connectivity by running one full turn for
// a fixed diagnostic user.
func (s *APIServer) handleTestLLM(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("testing LLM connectivity", logging.Operation("test-llm"))

	result := s.sc.Agent().ProcessTurn(r.Context(), "test_user", "Hello, this is a connectivity test")

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"message":  "LLM connection successful",
		"llm_test": result.Reply,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

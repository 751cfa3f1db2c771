// Package server exposes the HTTP API: auth, per-user task CRUD, chat,
// and the tool surface the agent calls back into. All state lives in
// the store; handlers are safe to run in any number of replicas.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/auth"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/chat"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/config"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/store"
	"github.com/AyeshaQadir7/taskie-todo-app/internal/task"
)

// maxBodyBytes caps request bodies at 1 MB.
const maxBodyBytes = 1 << 20

// Server holds the HTTP API's dependencies and its router.
type Server struct {
	store  store.Store
	tasks  *task.Service
	chat   *chat.Service
	tokens *auth.Tokens
	router chi.Router
	logger *zap.Logger

	httpServer *http.Server
}

// New assembles the router with the full middleware stack and all
// routes.
func New(
	cfg *config.Config,
	st store.Store,
	tasks *task.Service,
	chatSvc *chat.Service,
	tokens *auth.Tokens,
	logger *zap.Logger,
) *Server {
	s := &Server{
		store:  st,
		tasks:  tasks,
		chat:   chatSvc,
		tokens: tokens,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(limitBody)

	r.Get("/health", s.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", s.handleSignup)
		r.Post("/signin", s.handleSignin)
		r.Post("/signout", s.handleSignout)
	})

	r.Route("/api/{userID}", func(r chi.Router) {
		r.Use(auth.Authenticator(tokens, logger))
		r.Use(auth.RequireOwner(logger))

		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", s.handleCreateTask)
			r.Get("/", s.handleListTasks)
			r.Get("/{taskID}", s.handleGetTask)
			r.Put("/{taskID}", s.handleUpdateTask)
			r.Delete("/{taskID}", s.handleDeleteTask)
			r.Patch("/{taskID}", s.handleSetTaskStatus)
			r.Patch("/{taskID}/complete", s.handleCompleteTask)
		})

		r.Post("/chat", s.handleChat)
		r.Get("/conversations", s.handleListConversations)
		r.Get("/conversations/{conversationID}/history", s.handleConversationHistory)
	})

	// Tool surface the agent calls back into. Bound to the loopback
	// deployment; requests carry the user ID resolved from the token at
	// chat time, not a bearer token of their own.
	r.Post("/tools/{name}", s.handleToolInvoke)

	s.router = r
	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe starts the HTTP listener and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one structured line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON decodes the request body into v, rejecting oversized and
// malformed payloads with the right status.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		if errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "request body is required")
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

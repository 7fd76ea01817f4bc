// Package server provides the REST backend that the envbudget client talks to.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/theirongolddev/envbudget/internal/logging"
	"github.com/theirongolddev/envbudget/internal/model"
	"github.com/theirongolddev/envbudget/internal/store"
)

const maxBodySize = 1 << 20 // 1 MB

// Repository is the persistence the server needs. *store.Store satisfies it.
type Repository interface {
	CreateBudget(ctx context.Context, b model.NewBudget) (int64, error)
	ListBudgets(ctx context.Context) ([]model.Budget, error)
	DeleteBudget(ctx context.Context, id int64) (int64, error)
	CreateEnvelope(ctx context.Context, e model.NewEnvelope) (int64, error)
	ListEnvelopes(ctx context.Context, budgetID int64) ([]model.RemainingBudget, error)
	AdjustEnvelope(ctx context.Context, id, delta int64) error
	DeleteEnvelope(ctx context.Context, id int64) error
}

// Config controls the server runtime behavior.
type Config struct {
	Addr string
}

// Server serves the budget API over HTTP.
type Server struct {
	cfg    Config
	repo   Repository
	log    logging.Logger
	router chi.Router
}

// New returns a server with its routes registered.
func New(cfg Config, repo Repository, log logging.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8000"
	}
	if log == nil {
		log = logging.Nop()
	}

	s := &Server{cfg: cfg, repo: repo, log: log}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.Info("listening", logging.String("addr", s.cfg.Addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("envbudget http server: %w", err)
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogging(s.log))
	r.Use(middleware.Recoverer)
	r.Use(allowAllOrigins)

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)

	r.Route("/api/budget", func(r chi.Router) {
		r.Post("/create", s.handleCreateBudget)
		r.Get("/load", s.handleLoadBudgets)
		r.Delete("/delete/{budgetID}", s.handleDeleteBudget)
	})

	r.Route("/api/anvelopes", func(r chi.Router) {
		r.Get("/load/{budgetID}", s.handleLoadEnvelopes)
		r.Post("/create", s.handleCreateEnvelope)
		r.Post("/add_money/{envelopeID}/{amount}", s.handleAdjust(1))
		r.Post("/spend_money/{envelopeID}/{amount}", s.handleAdjust(-1))
		r.Delete("/delete/{envelopeID}", s.handleDeleteEnvelope)
	})

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, message{Message: "Hello from envbudget!"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req model.NewBudget
	if !s.decode(w, r, &req, "total_budget") {
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.repo.CreateBudget(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("budget created", logging.Int64("budget_id", id), logging.Int64("total_budget", req.TotalBudget))
	writeJSON(w, http.StatusOK, created{ID: id})
}

func (s *Server) handleLoadBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.repo.ListBudgets(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathInt(w, r, "budgetID")
	if !ok {
		return
	}

	envelopes, err := s.repo.DeleteBudget(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("budget deleted", logging.Int64("budget_id", id), logging.Int64("envelopes", envelopes))
	writeJSON(w, http.StatusOK, message{
		Message: fmt.Sprintf("Budget %d and all its envelopes deleted successfully", id),
	})
}

func (s *Server) handleLoadEnvelopes(w http.ResponseWriter, r *http.Request) {
	budgetID, ok := s.pathInt(w, r, "budgetID")
	if !ok {
		return
	}

	envelopes, err := s.repo.ListEnvelopes(r.Context(), budgetID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelopes)
}

func (s *Server) handleCreateEnvelope(w http.ResponseWriter, r *http.Request) {
	var req model.NewEnvelope
	if !s.decode(w, r, &req, "anvelope_name", "anvelope_budget", "budget_id") {
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	id, err := s.repo.CreateEnvelope(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log.Info("envelope created",
		logging.Int64("envelope_id", id),
		logging.Int64("budget_id", req.BudgetID),
		logging.Int64("amount", req.Amount))
	writeJSON(w, http.StatusOK, created{ID: id})
}

// handleAdjust serves add_money (sign 1) and spend_money (sign -1).
func (s *Server) handleAdjust(sign int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathInt(w, r, "envelopeID")
		if !ok {
			return
		}
		amount, ok := s.pathInt(w, r, "amount")
		if !ok {
			return
		}

		if err := s.repo.AdjustEnvelope(r.Context(), id, sign*amount); err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, message{
			Message: fmt.Sprintf("Envelope %d adjusted by %d", id, sign*amount),
		})
	}
}

func (s *Server) handleDeleteEnvelope(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathInt(w, r, "envelopeID")
	if !ok {
		return
	}

	if err := s.repo.DeleteEnvelope(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: fmt.Sprintf("Envelope %d deleted successfully", id)})
}

// ─── Helpers ────────────────────────────────────────────────────

type message struct {
	Message string `json:"message"`
}

type created struct {
	ID int64 `json:"id"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

// pathInt parses a non-negative integer URL parameter, answering 400 on failure.
func (s *Server) pathInt(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Detail: fmt.Sprintf("%s must be a non-negative integer, got %q", name, raw),
		})
		return 0, false
	}
	return n, true
}

// decode reads a JSON object body into dst. Keys listed in required must be
// present and non-null; a missing one is a validation failure (422).
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any, required ...string) bool {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "malformed JSON body: " + err.Error()})
		return false
	}
	for _, key := range required {
		if v, ok := fields[key]; !ok || string(v) == "null" {
			s.writeError(w, r, fmt.Errorf("%w: %s is required", model.ErrInvalidInput, key))
			return false
		}
	}

	raw, err := json.Marshal(fields)
	if err == nil {
		err = json.Unmarshal(raw, dst)
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: "malformed JSON body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Detail: err.Error()})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Detail: err.Error()})
	default:
		s.log.Error("request failed",
			logging.String("path", r.URL.Path),
			logging.String("request_id", middleware.GetReqID(r.Context())),
			logging.Err(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Detail: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

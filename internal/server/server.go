// Package server exposes the solver's inbound requests over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/quizmate/internal/logger"
	"github.com/abhisek/quizmate/internal/solver"
	"github.com/abhisek/quizmate/internal/store"
)

const maxBodyBytes = 1 << 20

// Solver is the part of solver.Solver the server calls.
type Solver interface {
	Solve(ctx context.Context, req solver.SolveRequest) *solver.Outcome
	ReportWrong(ctx context.Context, r solver.WrongReport) error
}

// CacheClearer empties the answer cache.
type CacheClearer interface {
	Clear(ctx context.Context) error
}

// BlockerClearer forgets wrong answers for one quiz, or all of them when
// both identifiers are empty.
type BlockerClearer interface {
	Clear(ctx context.Context, courseID, quizID string) error
}

// Server handles HTTP requests.
type Server struct {
	solver  Solver
	cache   CacheClearer
	blocker BlockerClearer
	log     *logger.Logger

	solveSchema *jsonschema.Schema
	wrongSchema *jsonschema.Schema
}

// New creates a Server.
func New(s Solver, c CacheClearer, b BlockerClearer, log *logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}
	solveS, err := compileSchema("solve", solveSchema)
	if err != nil {
		return nil, err
	}
	wrongS, err := compileSchema("wrong-answer", wrongAnswerSchema)
	if err != nil {
		return nil, err
	}
	return &Server{solver: s, cache: c, blocker: b, log: log, solveSchema: solveS, wrongSchema: wrongS}, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Post("/wrong-answers", s.handleReportWrong)
		r.Delete("/wrong-answers", s.handleClearWrong)
		r.Delete("/cache", s.handleClearCache)
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("server: listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solver.SolveRequest
	if !s.decode(w, r, s.solveSchema, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.solver.Solve(r.Context(), req))
}

func (s *Server) handleReportWrong(w http.ResponseWriter, r *http.Request) {
	var rep solver.WrongReport
	if !s.decode(w, r, s.wrongSchema, &rep) {
		return
	}
	if err := s.solver.ReportWrong(r.Context(), rep); err != nil {
		if errors.Is(err, solver.ErrIncompleteReport) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if errors.Is(err, store.ErrQuotaExceeded) {
			writeError(w, http.StatusInsufficientStorage,
				fmt.Errorf("local storage is full; clear wrong answers or the cache: %w", err))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearWrong(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := s.blocker.Clear(r.Context(), q.Get("courseId"), q.Get("quizId")); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode validates the body against schema and unmarshals it into v. On
// failure it writes a 400 and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema, v any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("reading body: %w", err))
		return false
	}
	if err := validate(schema, body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("server: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Package server implements the Orbweave HTTP API.
//
// The API exposes the arrangement pipeline in two shapes: a synchronous
// endpoint that blocks until the layout is done, and an asynchronous job
// API for large maps where clients poll for progress.
//
//	POST   /api/v1/arrange    run an arrangement, respond with the result
//	POST   /api/v1/jobs       start a background arrangement job
//	GET    /api/v1/jobs/{id}  poll job status, progress, and result
//	DELETE /api/v1/jobs/{id}  terminate a job
//	GET    /healthz           liveness probe
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/orbweave/orbweave/pkg/arranger"
	oerrors "github.com/orbweave/orbweave/pkg/errors"
	"github.com/orbweave/orbweave/pkg/mindmap"
	"github.com/orbweave/orbweave/pkg/observability"
	"github.com/orbweave/orbweave/pkg/pipeline"
)

// Server serves the arrangement API.
type Server struct {
	runner *pipeline.Runner
	jobs   *jobRegistry
	logger *log.Logger
}

// New creates a server backed by the given pipeline runner.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		runner: runner,
		jobs:   newJobRegistry(runner.Cache, runner.Keyer),
		logger: logger,
	}
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/arrange", s.handleArrange)
		r.Post("/jobs", s.handleCreateJob)
		r.Get("/jobs/{id}", s.handleGetJob)
		r.Delete("/jobs/{id}", s.handleDeleteJob)
	})
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	s.logger.Info("server listening", "addr", addr)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// observe is logging middleware feeding both the structured log and the
// registered HTTP hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		duration := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, ww.Status(), duration)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", duration)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// arrangeRequest is the body of POST /arrange and POST /jobs. It is the
// same frame payload streaming clients send.
type arrangeRequest struct {
	RootEntry   mindmap.Entry        `json:"rootEntry"`
	Entries     []mindmap.Entry      `json:"entries"`
	Connections []mindmap.Connection `json:"connections"`
}

func decodeArrangeRequest(r *http.Request) (arrangeRequest, error) {
	var req arrangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, oerrors.Wrap(oerrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	if err := oerrors.ValidateEntryID(req.RootEntry.ID); err != nil {
		return req, err
	}
	return req, nil
}

func (req arrangeRequest) toMap() *mindmap.MindMap {
	return &mindmap.MindMap{
		RootID:      req.RootEntry.ID,
		Entries:     req.Entries,
		Connections: req.Connections,
	}
}

func (s *Server) handleArrange(w http.ResponseWriter, r *http.Request) {
	req, err := decodeArrangeRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), pipeline.Options{
		Map:    req.toMap(),
		Logger: s.logger,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"mapHash":        result.MapHash,
		"cached":         result.CacheInfo.ArrangeHit,
		"newPositions":   result.Layout.NewPositions,
		"updatedEntries": result.Layout.UpdatedEntries,
	})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	req, err := decodeArrangeRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	job, err := s.jobs.start(arranger.Request(req))
	if err != nil {
		writeError(w, err)
		return
	}

	s.logger.Info("job started", "id", job.ID, "entries", len(req.Entries))
	writeJSON(w, http.StatusAccepted, job.snapshot())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if job, ok := s.jobs.get(id); ok {
		writeJSON(w, http.StatusOK, job.snapshot())
		return
	}

	// Finished jobs outlive registry retention as cached snapshots.
	if data, ok := s.jobs.lookup(r.Context(), id); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}
	writeError(w, oerrors.New(oerrors.ErrCodeJobNotFound, "job not found"))
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.jobs.terminate(r.Context(), id) {
		writeError(w, oerrors.New(oerrors.ErrCodeJobNotFound, "job not found"))
		return
	}
	s.logger.Info("job terminated", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps error codes to HTTP statuses and renders a JSON error
// body with the user-facing message.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if isGraphError(err) {
		status = http.StatusBadRequest
	}
	switch oerrors.GetCode(err) {
	case oerrors.ErrCodeInvalidInput, oerrors.ErrCodeInvalidEntry, oerrors.ErrCodeInvalidGraph, oerrors.ErrCodeInvalidPath:
		status = http.StatusBadRequest
	case oerrors.ErrCodeNotFound, oerrors.ErrCodeEntryNotFound, oerrors.ErrCodeJobNotFound, oerrors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	case oerrors.ErrCodeBusy:
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{
		"error": oerrors.UserMessage(err),
		"code":  string(oerrors.GetCode(err)),
	})
}

// isGraphError reports whether err is one of the mind map validation
// sentinels, all of which are the client's fault.
func isGraphError(err error) bool {
	for _, sentinel := range []error{
		mindmap.ErrInvalidEntryID,
		mindmap.ErrDuplicateEntryID,
		mindmap.ErrUnknownRoot,
		mindmap.ErrUnknownEndpoint,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

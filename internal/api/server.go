// Package api exposes the run pipeline over HTTP: create a run, poll its
// status, fetch its results. Creation is fire-and-forget; the response
// carries only the run id and failures are observed by polling.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AzmayenSabil/Missing-Link-sub001/internal/models"
	"github.com/AzmayenSabil/Missing-Link-sub001/internal/run"
)

type Server struct {
	Pipeline *run.Pipeline
	Logger   *zap.Logger
}

func NewServer(pipeline *run.Pipeline, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Pipeline: pipeline, Logger: logger}
}

// statusView is the polling shape: current state plus counts, never the
// full artifacts.
type statusView struct {
	ID        string           `json:"id"`
	Status    models.RunStatus `json:"status"`
	Steps     int              `json:"steps"`
	Prompts   int              `json:"prompts"`
	Warnings  int              `json:"warnings"`
	Error     string           `json:"error,omitempty"`
	OutputDir string           `json:"outputDir,omitempty"`
	CreatedAt string           `json:"createdAt"`
	UpdatedAt string           `json:"updatedAt"`
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/runs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			sessions := s.Pipeline.Store.List()
			out := make([]statusView, 0, len(sessions))
			for i := range sessions {
				out = append(out, toStatusView(&sessions[i]))
			}
			respondJSON(w, http.StatusOK, out)
		case http.MethodPost:
			s.handleCreate(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/runs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		// paths: /runs/{id}, /runs/{id}/roadmap, /runs/{id}/prompts[/{stepID}]
		parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/runs/"), "/"), "/")
		if len(parts) == 0 || parts[0] == "" {
			http.NotFound(w, r)
			return
		}
		sess, ok := s.Pipeline.Store.Get(parts[0])
		if !ok {
			http.NotFound(w, r)
			return
		}
		switch {
		case len(parts) == 1:
			respondJSON(w, http.StatusOK, toStatusView(&sess))
		case len(parts) == 2 && parts[1] == "roadmap":
			s.respondResult(w, &sess, func() any { return sess.Roadmap })
		case len(parts) == 2 && parts[1] == "prompts":
			s.respondResult(w, &sess, func() any { return sess.Prompts })
		case len(parts) == 3 && parts[1] == "prompts":
			s.respondPrompt(w, r, &sess, parts[2])
		default:
			http.NotFound(w, r)
		}
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DNADir    string `json:"dnaDir"`
		ImpactDir string `json:"impactDir"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ImpactDir == "" {
		http.Error(w, "impactDir is required", http.StatusBadRequest)
		return
	}
	id := uuid.NewString()
	if _, err := s.Pipeline.NewSession(id, req.DNADir, req.ImpactDir); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.Logger.Info("run created",
		zap.String("run", id),
		zap.String("dnaDir", req.DNADir),
		zap.String("impactDir", req.ImpactDir))
	go s.Pipeline.Execute(context.Background(), id)
	respondJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

// respondResult serves a result document once the run is complete; before
// that it answers 409 (or 410 for failed runs).
func (s *Server) respondResult(w http.ResponseWriter, sess *models.RunSession, pick func() any) {
	switch sess.Status {
	case models.StatusComplete:
		respondJSON(w, http.StatusOK, pick())
	case models.StatusError:
		http.Error(w, "run failed: "+sess.Error, http.StatusGone)
	default:
		http.Error(w, "run not complete: "+string(sess.Status), http.StatusConflict)
	}
}

func (s *Server) respondPrompt(w http.ResponseWriter, r *http.Request, sess *models.RunSession, stepID string) {
	if sess.Status != models.StatusComplete {
		s.respondResult(w, sess, nil)
		return
	}
	for _, p := range sess.Prompts {
		if p.StepID == stepID {
			respondJSON(w, http.StatusOK, p)
			return
		}
	}
	http.NotFound(w, r)
}

func toStatusView(sess *models.RunSession) statusView {
	return statusView{
		ID:        sess.ID,
		Status:    sess.Status,
		Steps:     len(sess.Steps),
		Prompts:   len(sess.Prompts),
		Warnings:  len(sess.Warnings),
		Error:     sess.Error,
		OutputDir: sess.OutputDir,
		CreatedAt: sess.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: sess.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

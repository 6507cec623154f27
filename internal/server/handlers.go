package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"stepci/internal/core"
)

type submitResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type dispatchRequest struct {
	Event string `json:"event"`
}

type dispatchResponse struct {
	Skipped bool            `json:"skipped"`
	Run     *core.RunResult `json:"run,omitempty"`
}

type pipelineResponse struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	On    []string `json:"on"`
	Steps int      `json:"steps"`
}

// POST /pipelines -> submit a pipeline YAML. Validation happens here, so a
// malformed pipeline is rejected before any run can be dispatched.
func (s *Server) handleSubmitPipeline(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}

	pipeline, err := core.ParsePipeline(data)
	if err != nil {
		http.Error(w, "invalid pipeline: "+err.Error(), http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.pipelines[id] = pipeline
	s.mu.Unlock()

	s.log.WithField("pipeline", pipeline.Name).Info("pipeline submitted")
	writeJSON(w, http.StatusCreated, submitResponse{ID: id, Name: pipeline.Name})
}

// GET /pipelines/{id} -> pipeline summary.
func (s *Server) handleGetPipeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	pipeline, ok := s.pipelines[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "pipeline not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, pipelineResponse{
		ID:    id,
		Name:  pipeline.Name,
		On:    pipeline.On,
		Steps: len(pipeline.Steps),
	})
}

// POST /pipelines/{id}/dispatch -> deliver an event. A matching trigger runs
// the pipeline synchronously and returns the run result; a non-matching
// event is reported as skipped.
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if req.Event == "" {
		http.Error(w, "event is required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	pipeline, ok := s.pipelines[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "pipeline not found", http.StatusNotFound)
		return
	}

	if !pipeline.Matches(req.Event) {
		s.log.WithFields(logrus.Fields{
			"pipeline": pipeline.Name,
			"event":    req.Event,
		}).Info("event skipped, no trigger match")
		writeJSON(w, http.StatusOK, dispatchResponse{Skipped: true})
		return
	}

	result, err := s.runner.Execute(r.Context(), pipeline)
	if err != nil {
		// the pipeline was validated at submit time, so this is unexpected
		http.Error(w, "run failed to start: "+err.Error(), http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	s.runs[result.ID] = result
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, dispatchResponse{Run: result})
}

// GET /runs/{id} -> stored run result.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	run, ok := s.runs[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

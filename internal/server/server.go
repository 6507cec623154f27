package server

import (
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"stepci/internal/core"
)

// Server is the HTTP control plane: pipelines are submitted as YAML, events
// are dispatched against them and run results can be queried. Everything is
// held in memory; runs do not survive a restart.
type Server struct {
	mu        sync.Mutex
	runner    *core.Runner
	pipelines map[string]*core.Pipeline
	runs      map[string]*core.RunResult
	log       *logrus.Logger
}

// New creates a server around the given runner.
func New(runner *core.Runner, log *logrus.Logger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		runner:    runner,
		pipelines: make(map[string]*core.Pipeline),
		runs:      make(map[string]*core.RunResult),
		log:       log,
	}
}

// Routes builds the chi router for the control plane.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/pipelines", s.handleSubmitPipeline)
	r.Get("/pipelines/{id}", s.handleGetPipeline)
	r.Post("/pipelines/{id}/dispatch", s.handleDispatch)
	r.Get("/runs/{id}", s.handleGetRun)

	return r
}

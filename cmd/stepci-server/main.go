package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"stepci/internal/config"
	"stepci/internal/core"
	"stepci/internal/provision"
	"stepci/internal/server"
	"stepci/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "config file (default: ./stepci.yaml if present)")
	flag.Parse()

	log := logrus.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("cannot load config")
	}

	runner := core.NewRunner(
		core.NewShellRunner(cfg.Shell),
		provision.NewLocal(),
		storage.NewLogStorage(cfg.LogsDir),
	)
	runner.Logger = log
	runner.StepTimeout = time.Duration(cfg.StepTimeoutSeconds) * time.Second

	srv := server.New(runner, log)

	log.WithField("listen", cfg.Listen).Info("stepci server running")
	if err := http.ListenAndServe(cfg.Listen, srv.Routes()); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

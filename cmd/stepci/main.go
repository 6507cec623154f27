package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"stepci/internal/config"
	"stepci/internal/core"
	"stepci/internal/provision"
	"stepci/internal/storage"
)

func main() {
	var (
		pipelinePath = flag.String("f", "pipeline.yaml", "pipeline file to run")
		event        = flag.String("event", "", "event kind dispatching this run (e.g. push); empty skips trigger matching")
		configPath   = flag.String("config", "", "config file (default: ./stepci.yaml if present)")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("cannot load config")
	}

	pipeline, err := core.LoadPipeline(*pipelinePath)
	if err != nil {
		log.WithError(err).Fatal("cannot load pipeline")
	}

	if *event != "" && !pipeline.Matches(*event) {
		log.WithFields(logrus.Fields{
			"pipeline": pipeline.Name,
			"event":    *event,
		}).Info("event does not match trigger, nothing to do")
		return
	}

	runner := core.NewRunner(
		core.NewShellRunner(cfg.Shell),
		provision.NewLocal(),
		storage.NewLogStorage(cfg.LogsDir),
	)
	runner.Logger = log
	runner.StepTimeout = time.Duration(cfg.StepTimeoutSeconds) * time.Second

	// an interrupt aborts the current step and fails the run
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := runner.Execute(ctx, pipeline)
	if err != nil {
		log.WithError(err).Fatal("invalid pipeline")
	}

	if result.Status != core.RunSuccess {
		log.WithFields(logrus.Fields{
			"run":         result.ID,
			"failed_step": result.FailedStep,
		}).Error("run failed")
		os.Exit(1)
	}
	log.WithField("run", result.ID).Info("run succeeded")
}

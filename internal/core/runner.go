package core

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"stepci/internal/provision"
	"stepci/internal/storage"
)

// DefaultStepTimeout bounds a step that declares no timeout of its own.
const DefaultStepTimeout = 5 * time.Minute

// Runner ties together the command executor, the runtime provisioner and
// log storage. One Runner may serve many runs; it keeps no per-run state.
type Runner struct {
	Commands    CommandRunner
	Provisioner provision.Provisioner
	Logs        *storage.LogStorage // optional; persistence is best-effort
	StepTimeout time.Duration       // per-step default, 0 disables timeouts
	Logger      *logrus.Logger
}

// NewRunner wires a runner with the default step timeout and logger.
func NewRunner(commands CommandRunner, prov provision.Provisioner, logs *storage.LogStorage) *Runner {
	return &Runner{
		Commands:    commands,
		Provisioner: prov,
		Logs:        logs,
		StepTimeout: DefaultStepTimeout,
		Logger:      logrus.StandardLogger(),
	}
}

// Execute runs every step strictly in declared order and stops at the first
// failure. It returns an error only for configuration errors, detected
// before any step executes; step failures are reported through the
// RunResult. A step exceeding its timeout or a cancelled context is treated
// exactly like a nonzero exit.
func (r *Runner) Execute(ctx context.Context, pipeline *Pipeline) (*RunResult, error) {
	if err := pipeline.Validate(); err != nil {
		return nil, err
	}

	result := NewRunResult(pipeline.Name)
	result.Status = RunRunning

	log := r.Logger.WithFields(logrus.Fields{
		"pipeline": pipeline.Name,
		"run":      result.ID,
	})
	log.Info("run started")

	var env *provision.Environment
	for i, step := range pipeline.Steps {
		entry := StepLog{Name: step.Name, Status: StepRunning, Started: time.Now()}

		var (
			output string
			code   int
			err    error
		)
		switch {
		case ctx.Err() != nil:
			// aborted between steps: mark this step failed without
			// attempting it, nothing after it runs
			output, code, err = fmt.Sprintf("run aborted: %v\n", ctx.Err()), -1, ctx.Err()
		case step.IsProvision():
			env, output, code, err = r.provisionStep(ctx, step)
		default:
			output, code, err = r.commandStep(ctx, step, env)
		}

		entry.Output = output
		entry.ExitCode = code
		entry.Duration = time.Since(entry.Started)
		r.saveLog(result.ID, i, step.Name, output, &entry, log)

		if err != nil {
			entry.Status = StepFailed
			result.Logs = append(result.Logs, entry)
			result.Status = RunFailure
			result.FailedStep = step.Name
			result.Finished = time.Now()
			log.WithFields(logrus.Fields{
				"step":      step.Name,
				"exit_code": code,
			}).WithError(err).Error("step failed")
			return result, nil
		}

		entry.Status = StepSucceeded
		result.Logs = append(result.Logs, entry)
		log.WithFields(logrus.Fields{
			"step":     step.Name,
			"duration": entry.Duration,
		}).Info("step completed")
	}

	result.Status = RunSuccess
	result.Finished = time.Now()
	log.Info("run succeeded")
	return result, nil
}

func (r *Runner) provisionStep(ctx context.Context, step Step) (*provision.Environment, string, int, error) {
	spec, err := provision.ParseSpec(step.Uses)
	if err != nil {
		return nil, err.Error() + "\n", -1, err
	}

	ctx, cancel := r.stepContext(ctx, step)
	defer cancel()

	env, err := r.Provisioner.Provision(ctx, spec)
	if err != nil {
		return nil, err.Error() + "\n", -1, err
	}
	return env, fmt.Sprintf("provisioned %s at %s\n", spec, env.Path), 0, nil
}

func (r *Runner) commandStep(ctx context.Context, step Step, env *provision.Environment) (string, int, error) {
	ctx, cancel := r.stepContext(ctx, step)
	defer cancel()
	return r.Commands.RunCommand(ctx, step, env)
}

func (r *Runner) stepContext(ctx context.Context, step Step) (context.Context, context.CancelFunc) {
	timeout := r.StepTimeout
	if step.TimeoutSeconds > 0 {
		timeout = time.Duration(step.TimeoutSeconds) * time.Second
	}
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// saveLog persists a step's output and records the digest. Storage trouble
// must not fail the step.
func (r *Runner) saveLog(runID string, index int, step, output string, entry *StepLog, log *logrus.Entry) {
	if r.Logs == nil {
		return
	}
	path, digest, err := r.Logs.SaveStepLog(runID, index, step, output)
	if err != nil {
		log.WithError(err).WithField("step", step).Warn("cannot save step log")
		return
	}
	entry.Digest = digest
	log.WithFields(logrus.Fields{"step": step, "path": path}).Debug("step log saved")
}

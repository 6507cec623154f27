package core

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the overall outcome of one run.
type RunStatus string

const (
	RunPending RunStatus = "pending"
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailure RunStatus = "failure"
)

// StepStatus is the outcome of a single step within a run.
type StepStatus string

const (
	StepRunning   StepStatus = "running"
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
)

// StepLog is the captured record of one attempted step. Output holds the
// combined stdout/stderr verbatim. Digest is the SHA-256 of the stored log
// file, when log storage is configured.
type StepLog struct {
	Name     string        `json:"name"`
	Output   string        `json:"output,omitempty"`
	ExitCode int           `json:"exitCode"`
	Status   StepStatus    `json:"status"`
	Digest   string        `json:"digest,omitempty"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// RunResult is produced once per run. Logs contains one entry per attempted
// step, in execution order, up to and including a failing step. No state
// survives between runs.
type RunResult struct {
	ID         string    `json:"id"`
	Pipeline   string    `json:"pipeline"`
	Status     RunStatus `json:"status"`
	FailedStep string    `json:"failedStep,omitempty"`
	Logs       []StepLog `json:"logs"`
	Started    time.Time `json:"started"`
	Finished   time.Time `json:"finished"`
}

// NewRunResult creates a pending result for one run of the named pipeline.
func NewRunResult(pipeline string) *RunResult {
	return &RunResult{
		ID:       uuid.NewString(),
		Pipeline: pipeline,
		Status:   RunPending,
		Logs:     make([]StepLog, 0),
		Started:  time.Now(),
	}
}

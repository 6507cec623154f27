package core

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"stepci/internal/provision"
)

// CommandRunner runs one command step inside an environment and reports its
// combined output and exit code. The runner injects it so tests can
// substitute a fake without spawning processes.
type CommandRunner interface {
	RunCommand(ctx context.Context, step Step, env *provision.Environment) (output string, exitCode int, err error)
}

// ShellRunner executes command steps through a shell (sh -c "cmd").
type ShellRunner struct {
	Shell string
}

// NewShellRunner returns a ShellRunner. An empty shell defaults to "sh".
func NewShellRunner(shell string) *ShellRunner {
	if shell == "" {
		shell = "sh"
	}
	return &ShellRunner{Shell: shell}
}

// RunCommand runs the step's command with the merged environment and
// captures stdout and stderr into a single buffer, preserving order.
func (r *ShellRunner) RunCommand(ctx context.Context, step Step, env *provision.Environment) (string, int, error) {
	cmd := exec.CommandContext(ctx, r.Shell, "-c", step.Run)
	cmd.Env = mergedEnv(env, step.Env)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return out.String(), exitErr.ExitCode(), err
		}
		// start failure, context timeout or cancellation
		return out.String(), -1, err
	}
	return out.String(), 0, nil
}

// mergedEnv layers the process environment, the provisioned environment and
// the step overrides. Later entries win for duplicate keys.
func mergedEnv(env *provision.Environment, overrides map[string]string) []string {
	merged := os.Environ()
	if env != nil {
		for k, v := range env.Env {
			merged = append(merged, fmt.Sprintf("%s=%s", k, v))
		}
	}
	for k, v := range overrides {
		merged = append(merged, fmt.Sprintf("%s=%s", k, v))
	}
	return merged
}

package provision

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrRuntimeNotFound means no installed binary satisfies the requested spec.
var ErrRuntimeNotFound = errors.New("runtime not found")

// RuntimeSpec identifies a runtime to provision, e.g. "python@3.12".
type RuntimeSpec struct {
	Runtime string
	Version string
}

// ParseSpec parses a "runtime@version" directive. The version is optional.
func ParseSpec(s string) (RuntimeSpec, error) {
	name, version, _ := strings.Cut(s, "@")
	name = strings.TrimSpace(name)
	if name == "" {
		return RuntimeSpec{}, fmt.Errorf("invalid runtime spec %q", s)
	}
	return RuntimeSpec{Runtime: name, Version: strings.TrimSpace(version)}, nil
}

func (s RuntimeSpec) String() string {
	if s.Version == "" {
		return s.Runtime
	}
	return s.Runtime + "@" + s.Version
}

// Environment is a ready-to-use execution environment produced by a
// Provisioner. It is threaded explicitly through subsequent steps rather
// than left as ambient process state.
type Environment struct {
	Runtime string
	Version string
	Path    string            // resolved interpreter location
	Env     map[string]string // variables exported to command steps
}

// Provisioner turns a runtime spec into an execution environment.
// A failure here is a step failure, not a configuration error.
type Provisioner interface {
	Provision(ctx context.Context, spec RuntimeSpec) (*Environment, error)
}

// Local resolves runtimes already installed on the host PATH. It does not
// download or install anything.
type Local struct {
	// LookPath and RunVersion are swappable for tests. They default to
	// exec.LookPath and running "<path> --version".
	LookPath   func(name string) (string, error)
	RunVersion func(ctx context.Context, path string) (string, error)
}

// NewLocal returns a Local provisioner backed by the host PATH.
func NewLocal() *Local {
	return &Local{
		LookPath: exec.LookPath,
		RunVersion: func(ctx context.Context, path string) (string, error) {
			out, err := exec.CommandContext(ctx, path, "--version").CombinedOutput()
			return strings.TrimSpace(string(out)), err
		},
	}
}

// Provision resolves the requested runtime. A versioned binary name
// ("python3.12") is preferred over the bare one, and the reported version
// must contain the requested version string when one was given.
func (l *Local) Provision(ctx context.Context, spec RuntimeSpec) (*Environment, error) {
	var path string
	for _, candidate := range l.candidates(spec) {
		if p, err := l.LookPath(candidate); err == nil {
			path = p
			break
		}
	}
	if path == "" {
		return nil, fmt.Errorf("%w: %s", ErrRuntimeNotFound, spec)
	}

	reported, err := l.RunVersion(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	if spec.Version != "" && !strings.Contains(reported, spec.Version) {
		return nil, fmt.Errorf("%s reports %q, want %s", path, reported, spec.Version)
	}

	return &Environment{
		Runtime: spec.Runtime,
		Version: spec.Version,
		Path:    path,
		Env: map[string]string{
			"STEPCI_RUNTIME":     spec.Runtime,
			"STEPCI_RUNTIME_BIN": path,
		},
	}, nil
}

func (l *Local) candidates(spec RuntimeSpec) []string {
	if spec.Version == "" {
		return []string{spec.Runtime}
	}
	return []string{spec.Runtime + spec.Version, spec.Runtime}
}

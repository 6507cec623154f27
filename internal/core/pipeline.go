package core

// Pipeline represents one CI job: an ordered list of steps executed
// front to back. Order is fixed at declaration time.
type Pipeline struct {
	Name  string   `yaml:"name"`
	On    []string `yaml:"on"`    // event kinds that dispatch this pipeline
	Steps []Step   `yaml:"steps"` // declaration order = execution order
}

// Step is a single unit of work inside a pipeline. Exactly one of Uses or
// Run is set: Uses provisions a runtime (e.g. "python@3.12"), Run executes
// a shell command in the current environment. Name is for reporting only,
// never an execution key.
type Step struct {
	Name           string            `yaml:"name"`
	Uses           string            `yaml:"uses,omitempty"`
	Run            string            `yaml:"run,omitempty"`
	Env            map[string]string `yaml:"env,omitempty"`
	TimeoutSeconds int64             `yaml:"timeout_seconds,omitempty"`
}

// IsProvision reports whether the step provisions a runtime rather than
// running a command.
func (s Step) IsProvision() bool {
	return s.Uses != ""
}

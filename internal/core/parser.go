package core

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Configuration errors, detected before any step executes. A pipeline that
// fails validation never produces a run.
var (
	ErrNoSteps         = errors.New("pipeline has no steps")
	ErrMissingAction   = errors.New("step has neither uses nor run")
	ErrAmbiguousAction = errors.New("step has both uses and run")
)

// ParsePipeline parses YAML content into a validated Pipeline.
func ParsePipeline(data []byte) (*Pipeline, error) {
	var pipeline Pipeline
	if err := yaml.Unmarshal(data, &pipeline); err != nil {
		return nil, fmt.Errorf("parse pipeline: %w", err)
	}
	if err := pipeline.Validate(); err != nil {
		return nil, err
	}
	return &pipeline, nil
}

// LoadPipeline reads a pipeline file and returns a validated Pipeline.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline file: %w", err)
	}
	return ParsePipeline(data)
}

// Validate checks the pipeline for configuration errors.
func (p *Pipeline) Validate() error {
	if len(p.Steps) == 0 {
		return ErrNoSteps
	}
	for i, step := range p.Steps {
		if step.Uses == "" && step.Run == "" {
			return fmt.Errorf("step %d (%q): %w", i, step.Name, ErrMissingAction)
		}
		if step.Uses != "" && step.Run != "" {
			return fmt.Errorf("step %d (%q): %w", i, step.Name, ErrAmbiguousAction)
		}
	}
	return nil
}

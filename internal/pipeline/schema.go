// Package pipeline runs YAML batch scripts of workbook changes inside a
// single load/save session.
package pipeline

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/klytics/xlkit/internal/workbook"
)

// Pipeline represents a complete batch script.
type Pipeline struct {
	Name     string `yaml:"name" json:"name"`
	Workbook string `yaml:"workbook" json:"workbook"`

	// CreateIfMissing materialises an empty workbook before the first step
	// when the file does not exist.
	CreateIfMissing bool   `yaml:"create_if_missing,omitempty" json:"createIfMissing,omitempty"`
	Steps           []Step `yaml:"steps" json:"steps"`
}

// Step represents a single change in a pipeline.
type Step struct {
	ID        string `yaml:"id,omitempty" json:"id"`
	Action    string `yaml:"action" json:"action"`
	Sheet     string `yaml:"sheet,omitempty" json:"sheet,omitempty"`
	Cell      string `yaml:"cell,omitempty" json:"cell,omitempty"`
	Value     any    `yaml:"value,omitempty" json:"value,omitempty"`
	To        string `yaml:"to,omitempty" json:"to,omitempty"`
	OnFailure string `yaml:"on_failure,omitempty" json:"onFailure,omitempty"`
}

// StepResult holds the outcome of a completed pipeline step.
type StepResult struct {
	StepID string          `json:"stepId"`
	Result workbook.Result `json:"result"`
	Error  error           `json:"-"`
}

// requiredFields lists the fields each built-in action needs.
var requiredFields = map[string][]string{
	"cell.update":  {"sheet", "cell"},
	"sheet.create": {"sheet"},
	"sheet.rename": {"sheet", "to"},
	"sheet.delete": {"sheet"},
}

// LoadPipeline reads and parses a pipeline YAML file.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("pipeline file not found: %s — check that the path is correct", path)
		}
		return nil, fmt.Errorf("could not read pipeline file %s: %w", path, err)
	}

	return ParsePipeline(data)
}

// ParsePipeline parses a pipeline from YAML bytes. Steps without an id are
// numbered "step-1", "step-2", ...
func ParsePipeline(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid pipeline YAML: %w", err)
	}

	for i := range p.Steps {
		if p.Steps[i].ID == "" {
			p.Steps[i].ID = fmt.Sprintf("step-%d", i+1)
		}
	}

	if err := validatePipeline(&p); err != nil {
		return nil, err
	}

	return &p, nil
}

func validatePipeline(p *Pipeline) error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("pipeline %q has no steps defined", p.Name)
	}

	seen := make(map[string]bool)
	for _, step := range p.Steps {
		if seen[step.ID] {
			return fmt.Errorf("duplicate step ID %q — each step must have a unique ID", step.ID)
		}
		seen[step.ID] = true

		if step.Action == "" {
			return fmt.Errorf("step %q is missing an 'action' field", step.ID)
		}

		switch step.OnFailure {
		case "", "abort", "skip":
		default:
			return fmt.Errorf("step %q: on_failure must be 'abort' or 'skip', got %q", step.ID, step.OnFailure)
		}

		for _, field := range requiredFields[step.Action] {
			if fieldValue(step, field) == "" {
				return fmt.Errorf("step %q (%s) is missing a '%s' field", step.ID, step.Action, field)
			}
		}

		if step.Cell != "" && !hasInterpolation(step.Cell) {
			if err := workbook.ValidateAddress(step.Cell); err != nil {
				return fmt.Errorf("step %q: %w", step.ID, err)
			}
		}
		if err := workbook.ValidateValue(step.Value); err != nil {
			return fmt.Errorf("step %q: %w", step.ID, err)
		}
	}

	return nil
}

func fieldValue(step Step, field string) string {
	switch field {
	case "sheet":
		return step.Sheet
	case "cell":
		return step.Cell
	case "to":
		return step.To
	}
	return ""
}

func hasInterpolation(s string) bool {
	return strings.Contains(s, "${{")
}

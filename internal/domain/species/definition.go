package species

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ganot/cropline/internal/domain/interval"
	"gopkg.in/yaml.v3"
)

// PlanDefinition is the authoring shape of a growth plan, read from YAML
// plan files or JSON request bodies. Stage order is list order.
type PlanDefinition struct {
	Species SpeciesDefinition `yaml:"species" json:"species"`
	Stages  []StageDefinition `yaml:"stages" json:"stages"`
}

type SpeciesDefinition struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
}

type StageDefinition struct {
	Name              string            `yaml:"name" json:"name"`
	Description       string            `yaml:"description" json:"description,omitempty"`
	EstimatedDuration interval.Duration `yaml:"estimated_duration" json:"estimated_duration"`
	Events            []EventDefinition `yaml:"events" json:"events,omitempty"`
}

type EventDefinition struct {
	Name        string             `yaml:"name" json:"name"`
	Description string             `yaml:"description" json:"description,omitempty"`
	Offset      interval.Duration  `yaml:"offset" json:"offset"`
	Repeat      *interval.Duration `yaml:"repeat" json:"repeat,omitempty"`
}

// ParsePlanYAML decodes a YAML plan file.
func ParsePlanYAML(data []byte) (PlanDefinition, error) {
	var def PlanDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return PlanDefinition{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return def, def.Validate()
}

// ParsePlanJSON decodes a JSON plan body.
func ParsePlanJSON(data []byte) (PlanDefinition, error) {
	var def PlanDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		return PlanDefinition{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return def, def.Validate()
}

// Validate checks the definition before anything is persisted.
func (d PlanDefinition) Validate() error {
	if strings.TrimSpace(d.Species.Name) == "" {
		return fmt.Errorf("%w: species name is required", ErrInvalidInput)
	}
	if len(d.Stages) == 0 {
		return fmt.Errorf("%w: at least one stage is required", ErrInvalidInput)
	}
	for i, st := range d.Stages {
		if strings.TrimSpace(st.Name) == "" {
			return fmt.Errorf("%w: stage %d has no name", ErrInvalidInput, i)
		}
		if st.EstimatedDuration.IsZero() || st.EstimatedDuration.Quantity() < 0 {
			return fmt.Errorf("%w: stage %q needs a non-negative estimated duration", ErrInvalidInput, st.Name)
		}
		for _, ev := range st.Events {
			if strings.TrimSpace(ev.Name) == "" {
				return fmt.Errorf("%w: stage %q has an event with no name", ErrInvalidInput, st.Name)
			}
			if ev.Offset.Quantity() < 0 {
				return fmt.Errorf("%w: event %q has a negative offset", ErrInvalidInput, ev.Name)
			}
			if ev.Repeat != nil && (ev.Repeat.IsZero() || ev.Repeat.Quantity() <= 0) {
				return fmt.Errorf("%w: event %q repeats with a non-positive interval", ErrInvalidInput, ev.Name)
			}
		}
	}
	return nil
}

package species

import (
	"sort"
	"time"

	"github.com/ganot/cropline/internal/domain/interval"
)

// Species is a catalog entry that owns one growth plan.
type Species struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// StageTemplate is one ordered phase of a species growth plan.
type StageTemplate struct {
	ID                string            `json:"id"`
	SpeciesID         string            `json:"species_id"`
	Name              string            `json:"name"`
	Description       string            `json:"description,omitempty"`
	EstimatedDuration interval.Duration `json:"estimated_duration"`
	SequenceNumber    int               `json:"sequence_number"`
}

// EventTemplate is a task defined on a stage. A nil RepeatInterval marks a
// one-off event.
type EventTemplate struct {
	ID                   string             `json:"id"`
	StageTemplateID      string             `json:"stage_template_id"`
	Name                 string             `json:"name"`
	Description          string             `json:"description,omitempty"`
	OffsetFromStageStart interval.Duration  `json:"offset_from_stage_start"`
	RepeatInterval       *interval.Duration `json:"repeat_interval,omitempty"`
}

// Periodic reports whether the template regenerates after completion.
func (e EventTemplate) Periodic() bool {
	return e.RepeatInterval != nil
}

// StagePlan pairs a stage template with its event templates.
type StagePlan struct {
	Stage  StageTemplate   `json:"stage"`
	Events []EventTemplate `json:"events"`
}

// GrowthPlan is the full, ordered definition for one species.
type GrowthPlan struct {
	Species Species     `json:"species"`
	Stages  []StagePlan `json:"stages"`
}

// Sort orders stages by sequence number.
func (p *GrowthPlan) Sort() {
	sort.SliceStable(p.Stages, func(i, j int) bool {
		return p.Stages[i].Stage.SequenceNumber < p.Stages[j].Stage.SequenceNumber
	})
}

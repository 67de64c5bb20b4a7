package calendar

import (
	"time"

	"github.com/ganot/cropline/internal/domain/crop"
)

// Class identifies what a task record represents.
type Class string

const (
	ClassUnique             Class = "unique"
	ClassPeriodicOccurrence Class = "periodic-occurrence"
	ClassStageFinish        Class = "stage-finish"
	ClassCropFinish         Class = "crop-finish"
)

// Task is one displayable calendar entry.
type Task struct {
	ID             string     `json:"id"`
	Class          Class      `json:"class"`
	Name           string     `json:"name"`
	CropID         string     `json:"crop_id"`
	StageID        string     `json:"stage_id,omitempty"`
	LandplotID     string     `json:"landplot_id"`
	SpeciesName    string     `json:"species_name"`
	Color          string     `json:"color"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	DoneDate       *time.Time `json:"done_date,omitempty"`
	MinAllowedDate time.Time  `json:"min_allowed_date"`
	Estimated      bool       `json:"estimated"`
}

// Done reports whether the task has a done date.
func (t Task) Done() bool { return t.DoneDate != nil }

// Query selects the crops to project.
type Query struct {
	CropIDs []string
	Filter  crop.ListFilter
}

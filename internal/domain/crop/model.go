package crop

import (
	"time"

	"github.com/ganot/cropline/internal/domain/interval"
)

// StageStatus is derived from a stage's start and finish dates.
type StageStatus string

const (
	StagePending  StageStatus = "pending"
	StageActive   StageStatus = "active"
	StageFinished StageStatus = "finished"
)

// Crop is a planting of one species on one landplot.
type Crop struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"tenant_id"`
	LandplotID   string     `json:"landplot_id"`
	SpeciesID    string     `json:"species_id"`
	StartDate    time.Time  `json:"start_date"`
	FinishDate   *time.Time `json:"finish_date,omitempty"`
	WeightInTons *float64   `json:"weight_in_tons,omitempty"`
	Comments     string     `json:"comments,omitempty"`
	Revision     int64      `json:"revision"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Finished reports whether the harvest has been reported.
func (c Crop) Finished() bool {
	return c.FinishDate != nil
}

// Stage is a crop's instance of a stage template. Name, description,
// estimated duration and sequence number are frozen at creation.
type Stage struct {
	ID                string            `json:"id"`
	CropID            string            `json:"crop_id"`
	Name              string            `json:"name"`
	Description       string            `json:"description,omitempty"`
	EstimatedDuration interval.Duration `json:"estimated_duration"`
	SequenceNumber    int               `json:"sequence_number"`
	StartDate         *time.Time        `json:"start_date,omitempty"`
	FinishDate        *time.Time        `json:"finish_date,omitempty"`
	Comments          *string           `json:"comments,omitempty"`
}

// Status returns the stage's lifecycle state.
func (s Stage) Status() StageStatus {
	switch {
	case s.FinishDate != nil:
		return StageFinished
	case s.StartDate != nil:
		return StageActive
	default:
		return StagePending
	}
}

// Event is one task on a stage: a one-off event, an ad-hoc task
// (TemplateID == nil) or one occurrence of a recurrence series.
type Event struct {
	ID                   string             `json:"id"`
	CropID               string             `json:"crop_id"`
	StageID              string             `json:"stage_id"`
	TemplateID           *string            `json:"template_id,omitempty"`
	SeriesID             *string            `json:"series_id,omitempty"`
	Sequence             int                `json:"sequence"`
	Name                 string             `json:"name"`
	Description          string             `json:"description,omitempty"`
	OffsetFromStageStart *interval.Duration `json:"offset_from_stage_start,omitempty"`
	RepeatInterval       *interval.Duration `json:"repeat_interval,omitempty"`
	DueDate              *time.Time         `json:"due_date,omitempty"`
	DoneDate             *time.Time         `json:"done_date,omitempty"`
}

func (e Event) Done() bool { return e.DoneDate != nil }

// Periodic reports whether completing the event spawns a successor.
func (e Event) Periodic() bool { return e.RepeatInterval != nil }

// AdHoc reports whether the event was added by hand rather than from a plan.
func (e Event) AdHoc() bool { return e.TemplateID == nil }

// Series is a recurrence chain: the ordered occurrences of one periodic event.
type Series struct {
	ID          string            `json:"id"`
	CropID      string            `json:"crop_id"`
	StageID     string            `json:"stage_id"`
	TemplateID  *string           `json:"template_id,omitempty"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Offset      interval.Duration `json:"offset"`
	Interval    interval.Duration `json:"interval"`
	Occurrences []Event           `json:"occurrences"`
}

// StageTimeline is a stage with its one-off events and recurrence series.
type StageTimeline struct {
	Stage  Stage    `json:"stage"`
	Events []Event  `json:"events"`
	Series []Series `json:"series"`
}

// Timeline is the crop aggregate: the crop, its stages in sequence order,
// and every event under them.
type Timeline struct {
	Crop        Crop            `json:"crop"`
	SpeciesName string          `json:"species_name"`
	Stages      []StageTimeline `json:"stages"`
}

// ListFilter narrows crop listings.
type ListFilter string

const (
	FilterAll      ListFilter = ""
	FilterOngoing  ListFilter = "ongoing"
	FilterFinished ListFilter = "finished"
)

// Valid reports whether f is a known filter.
func (f ListFilter) Valid() bool {
	switch f {
	case FilterAll, FilterOngoing, FilterFinished:
		return true
	}
	return false
}

// ChangeSet is everything one transition writes. The repository applies it
// as a single atomic unit guarded by ExpectedRevision.
type ChangeSet struct {
	CropID           string   `json:"crop_id"`
	ExpectedRevision int64    `json:"expected_revision"`
	Crop             *Crop    `json:"crop,omitempty"`
	Stages           []Stage  `json:"stages,omitempty"`
	DeletedEventIDs  []string `json:"deleted_event_ids,omitempty"`
	UpdatedEvents    []Event  `json:"updated_events,omitempty"`
	InsertedEvents   []Event  `json:"inserted_events,omitempty"`
}

// Empty reports whether the change set writes nothing.
func (c *ChangeSet) Empty() bool {
	return c.Crop == nil && len(c.Stages) == 0 && len(c.DeletedEventIDs) == 0 &&
		len(c.UpdatedEvents) == 0 && len(c.InsertedEvents) == 0
}

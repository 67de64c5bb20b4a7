package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeCropCreated     ActivityType = "crop_created"
	TypeStageFinished   ActivityType = "stage_finished"
	TypeStageStarted    ActivityType = "stage_started"
	TypeStageCommented  ActivityType = "stage_commented"
	TypeEventDone       ActivityType = "event_done"
	TypeEventRecurred   ActivityType = "event_recurred"
	TypeEventAdded      ActivityType = "event_added"
	TypeEventsDiscarded ActivityType = "events_discarded"
	TypeHarvestReported ActivityType = "harvest_reported"
)

// ActivityEntry represents an event in a crop's activity log
type ActivityEntry struct {
	ID           string       `json:"id"`
	TenantID     string       `json:"tenant_id"`
	CropID       string       `json:"crop_id"`
	StageID      *string      `json:"stage_id,omitempty"`
	EventID      *string      `json:"event_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}

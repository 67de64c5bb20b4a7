package crop

import (
	"context"
	"time"

	"github.com/ganot/cropline/internal/domain/activity"
	"github.com/ganot/cropline/internal/domain/landplot"
	"github.com/ganot/cropline/internal/domain/species"
)

// Repository persists crop timelines. Apply must write a change set in one
// transaction and fail with repository.ErrConflict when the stored revision
// differs from ChangeSet.ExpectedRevision.
type Repository interface {
	CreateTimeline(ctx context.Context, tenantID string, tl *Timeline) error
	GetTimeline(ctx context.Context, tenantID, cropID string) (*Timeline, error)
	CropIDForStage(ctx context.Context, tenantID, stageID string) (string, error)
	CropIDForEvent(ctx context.Context, tenantID, eventID string) (string, error)
	ListCrops(ctx context.Context, tenantID string, filter ListFilter) ([]Crop, error)
	Apply(ctx context.Context, tenantID string, cs *ChangeSet) error
}

// PlanSource resolves a species to its growth plan.
type PlanSource interface {
	GetPlan(ctx context.Context, tenantID, speciesID string) (*species.GrowthPlan, error)
}

// LandplotSource resolves landplots.
type LandplotSource interface {
	Get(ctx context.Context, tenantID, id string) (*landplot.Landplot, error)
}

// ActivityLogger records committed transitions.
type ActivityLogger interface {
	LogActivity(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error
}

// TransitionObserver is notified after every state transition attempt.
type TransitionObserver interface {
	ObserveTransition(op string, elapsed time.Duration, err error)
}

package mocks

import (
	"context"
	"time"

	"github.com/ganot/cropline/internal/domain/activity"
	"github.com/ganot/cropline/internal/domain/crop"
	"github.com/ganot/cropline/internal/domain/landplot"
	"github.com/ganot/cropline/internal/domain/species"
	"github.com/stretchr/testify/mock"
)

// LandplotRepository is a mock for landplot.Repository.
type LandplotRepository struct {
	mock.Mock
}

func (m *LandplotRepository) Create(ctx context.Context, tenantID string, plot *landplot.Landplot) error {
	args := m.Called(ctx, tenantID, plot)
	return args.Error(0)
}

func (m *LandplotRepository) Get(ctx context.Context, tenantID, id string) (*landplot.Landplot, error) {
	args := m.Called(ctx, tenantID, id)
	if plot, ok := args.Get(0).(*landplot.Landplot); ok {
		return plot, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *LandplotRepository) List(ctx context.Context, tenantID string) ([]landplot.Summary, error) {
	args := m.Called(ctx, tenantID)
	if list, ok := args.Get(0).([]landplot.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// SpeciesRepository is a mock for species.Repository. It also satisfies
// crop.PlanSource.
type SpeciesRepository struct {
	mock.Mock
}

func (m *SpeciesRepository) CreatePlan(ctx context.Context, tenantID string, plan *species.GrowthPlan) error {
	args := m.Called(ctx, tenantID, plan)
	return args.Error(0)
}

func (m *SpeciesRepository) GetPlan(ctx context.Context, tenantID, speciesID string) (*species.GrowthPlan, error) {
	args := m.Called(ctx, tenantID, speciesID)
	if plan, ok := args.Get(0).(*species.GrowthPlan); ok {
		return plan, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SpeciesRepository) List(ctx context.Context, tenantID string) ([]species.Species, error) {
	args := m.Called(ctx, tenantID)
	if list, ok := args.Get(0).([]species.Species); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SpeciesRepository) RenumberStages(ctx context.Context, tenantID, speciesID string, orderedStageIDs []string) error {
	args := m.Called(ctx, tenantID, speciesID, orderedStageIDs)
	return args.Error(0)
}

// CropRepository is a mock for crop.Repository.
type CropRepository struct {
	mock.Mock
}

func (m *CropRepository) CreateTimeline(ctx context.Context, tenantID string, tl *crop.Timeline) error {
	args := m.Called(ctx, tenantID, tl)
	return args.Error(0)
}

func (m *CropRepository) GetTimeline(ctx context.Context, tenantID, cropID string) (*crop.Timeline, error) {
	args := m.Called(ctx, tenantID, cropID)
	if tl, ok := args.Get(0).(*crop.Timeline); ok {
		return tl, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CropRepository) CropIDForStage(ctx context.Context, tenantID, stageID string) (string, error) {
	args := m.Called(ctx, tenantID, stageID)
	return args.String(0), args.Error(1)
}

func (m *CropRepository) CropIDForEvent(ctx context.Context, tenantID, eventID string) (string, error) {
	args := m.Called(ctx, tenantID, eventID)
	return args.String(0), args.Error(1)
}

func (m *CropRepository) ListCrops(ctx context.Context, tenantID string, filter crop.ListFilter) ([]crop.Crop, error) {
	args := m.Called(ctx, tenantID, filter)
	if list, ok := args.Get(0).([]crop.Crop); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *CropRepository) Apply(ctx context.Context, tenantID string, cs *crop.ChangeSet) error {
	args := m.Called(ctx, tenantID, cs)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, tenantID string, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, tenantID, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// TransitionObserver is a mock for crop.TransitionObserver.
type TransitionObserver struct {
	mock.Mock
}

func (m *TransitionObserver) ObserveTransition(op string, elapsed time.Duration, err error) {
	m.Called(op, elapsed, err)
}

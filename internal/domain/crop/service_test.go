package crop_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ganot/cropline/internal/domain/activity"
	"github.com/ganot/cropline/internal/domain/crop"
	"github.com/ganot/cropline/internal/domain/landplot"
	"github.com/ganot/cropline/internal/repository"
	"github.com/ganot/cropline/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	repo      *mocks.CropRepository
	plans     *mocks.SpeciesRepository
	landplots *mocks.LandplotRepository
	activity  *mocks.ActivityRepository
	observer  *mocks.TransitionObserver
	svc       *crop.Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:      &mocks.CropRepository{},
		plans:     &mocks.SpeciesRepository{},
		landplots: &mocks.LandplotRepository{},
		activity:  &mocks.ActivityRepository{},
		observer:  &mocks.TransitionObserver{},
	}
	f.activity.On("Log", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.observer.On("ObserveTransition", mock.Anything, mock.Anything, mock.Anything).Return()
	f.svc = crop.NewService(f.repo, f.plans, f.landplots, nil,
		crop.WithActivityLogger(activity.NewService(f.activity, nil)),
		crop.WithObserver(f.observer),
	)
	return f
}

func TestCropService_InstantiateTimeline(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.landplots.On("Get", ctx, "tenant1", "lp1").Return(&landplot.Landplot{ID: "lp1"}, nil)
	f.plans.On("GetPlan", ctx, "tenant1", "sp1").Return(twoStagePlan(), nil)
	f.repo.On("CreateTimeline", ctx, "tenant1", mock.AnythingOfType("*crop.Timeline")).Return(nil)

	tl, err := f.svc.InstantiateTimeline(ctx, "tenant1", crop.CreateRequest{
		LandplotID: "lp1",
		SpeciesID:  "sp1",
		StartDate:  day("2024-01-01"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, tl.Crop.ID)
	require.Len(t, tl.Stages, 2)
	f.activity.AssertCalled(t, "Log", ctx, "tenant1", mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeCropCreated && e.CropID == tl.Crop.ID
	}))
	f.observer.AssertCalled(t, "ObserveTransition", "instantiate_timeline", mock.Anything, nil)
}

func TestCropService_InstantiateTimeline_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing date", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.InstantiateTimeline(ctx, "tenant1", crop.CreateRequest{LandplotID: "lp1", SpeciesID: "sp1"})
		require.ErrorIs(t, err, crop.ErrMissingDate)
	})

	t.Run("unknown landplot", func(t *testing.T) {
		f := newFixture()
		f.landplots.On("Get", ctx, "tenant1", "lp1").Return((*landplot.Landplot)(nil), repository.ErrNotFound)
		_, err := f.svc.InstantiateTimeline(ctx, "tenant1", crop.CreateRequest{LandplotID: "lp1", SpeciesID: "sp1", StartDate: day("2024-01-01")})
		require.ErrorIs(t, err, crop.ErrLandplotNotFound)
		require.ErrorIs(t, err, crop.ErrNotFound)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture()
		f.landplots.On("Get", ctx, "tenant1", "lp1").Return(&landplot.Landplot{ID: "lp1"}, nil)
		f.plans.On("GetPlan", ctx, "tenant1", "sp1").Return(twoStagePlan(), nil)
		f.repo.On("CreateTimeline", ctx, "tenant1", mock.Anything).Return(errors.New("disk full"))
		_, err := f.svc.InstantiateTimeline(ctx, "tenant1", crop.CreateRequest{LandplotID: "lp1", SpeciesID: "sp1", StartDate: day("2024-01-01")})
		require.ErrorIs(t, err, crop.ErrTransitionFailed)
	})
}

func TestCropService_FinishStage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	tl := newTimeline(t)
	stageID := tl.Stages[0].Stage.ID

	f.repo.On("CropIDForStage", ctx, "tenant1", stageID).Return("c1", nil)
	f.repo.On("GetTimeline", ctx, "tenant1", "c1").Return(tl, nil)
	f.repo.On("Apply", ctx, "tenant1", mock.MatchedBy(func(cs *crop.ChangeSet) bool {
		return cs.CropID == "c1" && cs.ExpectedRevision == 0 && len(cs.Stages) == 2
	})).Return(nil)

	got, err := f.svc.FinishStage(ctx, "tenant1", stageID, day("2024-01-05"))
	require.NoError(t, err)
	require.Equal(t, int64(1), got.Crop.Revision)
	require.Equal(t, crop.StageActive, got.Stages[1].Stage.Status())
	f.activity.AssertCalled(t, "Log", ctx, "tenant1", mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeEventsDiscarded
	}))
}

func TestCropService_FinishStage_UnknownStage(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.repo.On("CropIDForStage", ctx, "tenant1", "nope").Return("", repository.ErrNotFound)

	_, err := f.svc.FinishStage(ctx, "tenant1", "nope", day("2024-01-05"))
	require.ErrorIs(t, err, crop.ErrStageNotFound)
}

func TestCropService_ApplyFailureIsAtomic(t *testing.T) {
	ctx := context.Background()

	t.Run("conflict", func(t *testing.T) {
		f := newFixture()
		tl := newTimeline(t)
		f.repo.On("CropIDForStage", ctx, "tenant1", tl.Stages[0].Stage.ID).Return("c1", nil)
		f.repo.On("GetTimeline", ctx, "tenant1", "c1").Return(tl, nil)
		f.repo.On("Apply", ctx, "tenant1", mock.Anything).Return(repository.ErrConflict)

		_, err := f.svc.FinishStage(ctx, "tenant1", tl.Stages[0].Stage.ID, day("2024-01-05"))
		require.ErrorIs(t, err, crop.ErrConflict)
		f.activity.AssertNotCalled(t, "Log", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture()
		tl := newTimeline(t)
		eventID := tl.Stages[0].Events[0].ID
		f.repo.On("CropIDForEvent", ctx, "tenant1", eventID).Return("c1", nil)
		f.repo.On("GetTimeline", ctx, "tenant1", "c1").Return(tl, nil)
		f.repo.On("Apply", ctx, "tenant1", mock.Anything).Return(errors.New("connection reset"))

		_, err := f.svc.MarkEventDone(ctx, "tenant1", eventID, day("2024-01-05"))
		require.ErrorIs(t, err, crop.ErrTransitionFailed)
		f.observer.AssertCalled(t, "ObserveTransition", "mark_event_done", mock.Anything, mock.Anything)
	})
}

func TestCropService_MarkEventDone_Periodic(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	tl := newTimeline(t)
	_, err := tl.FinishStage(tl.Stages[0].Stage.ID, day("2024-01-05"))
	require.NoError(t, err)
	eventID := tl.Stages[1].Series[0].Occurrences[0].ID

	f.repo.On("CropIDForEvent", ctx, "tenant1", eventID).Return("c1", nil)
	f.repo.On("GetTimeline", ctx, "tenant1", "c1").Return(tl, nil)
	f.repo.On("Apply", ctx, "tenant1", mock.MatchedBy(func(cs *crop.ChangeSet) bool {
		return len(cs.UpdatedEvents) == 1 && len(cs.InsertedEvents) == 1
	})).Return(nil)

	got, err := f.svc.MarkEventDone(ctx, "tenant1", eventID, day("2024-01-06"))
	require.NoError(t, err)
	occ := got.Stages[1].Series[0].Occurrences
	require.Len(t, occ, 2)
	require.Equal(t, day("2024-01-13"), *occ[1].DueDate)
}

func TestCropService_AddAdHocEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	tl := newTimeline(t)
	stageID := tl.Stages[0].Stage.ID

	_, err := f.svc.AddAdHocEvent(ctx, "tenant1", stageID, crop.AdHocRequest{Name: "Weeding"})
	require.ErrorIs(t, err, crop.ErrMissingDate)

	f.repo.On("CropIDForStage", ctx, "tenant1", stageID).Return("c1", nil)
	f.repo.On("GetTimeline", ctx, "tenant1", "c1").Return(tl, nil)
	f.repo.On("Apply", ctx, "tenant1", mock.Anything).Return(nil)

	ev, err := f.svc.AddAdHocEvent(ctx, "tenant1", stageID, crop.AdHocRequest{Name: "Weeding", EstimatedDate: ptr(day("2024-01-09"))})
	require.NoError(t, err)
	require.Equal(t, day("2024-01-09"), *ev.DueDate)
	require.False(t, ev.Done())
}

func TestCropService_EstimateAndNextHarvest(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	tl := newTimeline(t)
	f.repo.On("GetTimeline", mock.Anything, "tenant1", "c1").Return(tl, nil)
	f.repo.On("ListCrops", mock.Anything, "tenant1", crop.FilterOngoing).Return([]crop.Crop{tl.Crop}, nil)

	est, err := f.svc.EstimateCropCompletion(ctx, "tenant1", "c1")
	require.NoError(t, err)
	require.Equal(t, day("2024-02-20"), est.EstimatedCompletion)
	require.False(t, est.Actual)

	next, err := f.svc.NextHarvest(ctx, "tenant1")
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Equal(t, "c1", next.CropID)
	require.Equal(t, "Tomato", next.SpeciesName)
}

func TestCropService_NextHarvest_None(t *testing.T) {
	f := newFixture()
	f.repo.On("ListCrops", mock.Anything, "tenant1", crop.FilterOngoing).Return([]crop.Crop{}, nil)

	next, err := f.svc.NextHarvest(context.Background(), "tenant1")
	require.NoError(t, err)
	require.Nil(t, next)
}

func TestCropService_GetTimeline_NotFound(t *testing.T) {
	f := newFixture()
	f.repo.On("GetTimeline", mock.Anything, "tenant1", "missing").Return((*crop.Timeline)(nil), repository.ErrNotFound)

	_, err := f.svc.GetTimeline(context.Background(), "tenant1", "missing")
	require.ErrorIs(t, err, crop.ErrCropNotFound)
}

package species_test

import (
	"context"
	"testing"

	"github.com/ganot/cropline/internal/domain/interval"
	"github.com/ganot/cropline/internal/domain/species"
	"github.com/ganot/cropline/internal/repository"
	"github.com/ganot/cropline/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func tomatoDefinition() species.PlanDefinition {
	weekly := interval.Days(7)
	return species.PlanDefinition{
		Species: species.SpeciesDefinition{Name: "Tomato"},
		Stages: []species.StageDefinition{
			{
				Name:              "Germination",
				EstimatedDuration: interval.Days(30),
				Events: []species.EventDefinition{
					{Name: "Irrigate", Repeat: &weekly},
					{Name: "Thin", Offset: interval.Days(10)},
				},
			},
			{Name: "Flowering", EstimatedDuration: interval.Months(1)},
		},
	}
}

func storedPlan() *species.GrowthPlan {
	return &species.GrowthPlan{
		Species: species.Species{ID: "sp1", Name: "Tomato"},
		Stages: []species.StagePlan{
			{Stage: species.StageTemplate{ID: "b", SequenceNumber: 1, EstimatedDuration: interval.Days(5)}},
			{Stage: species.StageTemplate{ID: "a", SequenceNumber: 0, EstimatedDuration: interval.Days(5)}},
		},
	}
}

func TestSpeciesService_ImportPlan(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SpeciesRepository{}
	repo.On("CreatePlan", ctx, "tenant1", mock.Anything).Return(nil)

	svc := species.NewService(repo, nil)
	plan, err := svc.ImportPlan(ctx, "tenant1", tomatoDefinition())
	require.NoError(t, err)

	require.NotEmpty(t, plan.Species.ID)
	require.Equal(t, "tenant1", plan.Species.TenantID)
	require.Len(t, plan.Stages, 2)
	for i, st := range plan.Stages {
		require.Equal(t, i, st.Stage.SequenceNumber)
		require.Equal(t, plan.Species.ID, st.Stage.SpeciesID)
	}

	irrigate := plan.Stages[0].Events[0]
	require.True(t, irrigate.Periodic())
	require.Equal(t, interval.Days(0), irrigate.OffsetFromStageStart, "missing offset means stage start")
	require.Equal(t, plan.Stages[0].Stage.ID, irrigate.StageTemplateID)
	require.False(t, plan.Stages[0].Events[1].Periodic())
	repo.AssertExpectations(t)
}

func TestSpeciesService_ImportPlanValidation(t *testing.T) {
	svc := species.NewService(&mocks.SpeciesRepository{}, nil)
	ctx := context.Background()

	def := tomatoDefinition()
	def.Species.Name = ""
	_, err := svc.ImportPlan(ctx, "tenant1", def)
	require.ErrorIs(t, err, species.ErrInvalidInput)

	def = tomatoDefinition()
	def.Stages = nil
	_, err = svc.ImportPlan(ctx, "tenant1", def)
	require.ErrorIs(t, err, species.ErrInvalidInput)

	def = tomatoDefinition()
	zero := interval.Days(0)
	def.Stages[0].Events[0].Repeat = &zero
	_, err = svc.ImportPlan(ctx, "tenant1", def)
	require.ErrorIs(t, err, species.ErrInvalidInput)
}

func TestSpeciesService_GetPlanSortsStages(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SpeciesRepository{}
	repo.On("GetPlan", ctx, "tenant1", "sp1").Return(storedPlan(), nil)

	plan, err := species.NewService(repo, nil).GetPlan(ctx, "tenant1", "sp1")
	require.NoError(t, err)
	require.Equal(t, "a", plan.Stages[0].Stage.ID)
	require.Equal(t, "b", plan.Stages[1].Stage.ID)
}

func TestSpeciesService_GetPlanNotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SpeciesRepository{}
	repo.On("GetPlan", ctx, "tenant1", "missing").Return(nil, repository.ErrNotFound)

	_, err := species.NewService(repo, nil).GetPlan(ctx, "tenant1", "missing")
	require.ErrorIs(t, err, species.ErrSpeciesNotFound)
}

func TestSpeciesService_RenumberStages(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.SpeciesRepository{}
	repo.On("GetPlan", ctx, "tenant1", "sp1").Return(storedPlan(), nil)
	repo.On("RenumberStages", ctx, "tenant1", "sp1", []string{"b", "a"}).Return(nil).Once()

	svc := species.NewService(repo, nil)
	_, err := svc.RenumberStages(ctx, "tenant1", "sp1", []string{"b", "a"})
	require.NoError(t, err)
	repo.AssertCalled(t, "RenumberStages", ctx, "tenant1", "sp1", []string{"b", "a"})

	for _, bad := range [][]string{{"a"}, {"a", "a"}, {"a", "c"}} {
		_, err := svc.RenumberStages(ctx, "tenant1", "sp1", bad)
		require.ErrorIs(t, err, species.ErrInvalidOrder, "%v", bad)
	}
	repo.AssertNumberOfCalls(t, "RenumberStages", 1)
}

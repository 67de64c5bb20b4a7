package store

import (
	"context"
	"testing"

	"github.com/ganot/cropline/internal/domain/interval"
	"github.com/ganot/cropline/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestSpeciesRepository_PlanRoundTrip(t *testing.T) {
	db := NewTestDB(t)
	repo := NewSpeciesRepository(db)
	ctx := context.Background()
	seedPlan(t, db, "tenant1")

	plan, err := repo.GetPlan(ctx, "tenant1", "sp1")
	require.NoError(t, err)
	require.Equal(t, "Tomato", plan.Species.Name)
	require.Len(t, plan.Stages, 2)
	require.Equal(t, "Germination", plan.Stages[0].Stage.Name)
	require.Equal(t, interval.Months(1), plan.Stages[1].Stage.EstimatedDuration)

	events := plan.Stages[0].Events
	require.Len(t, events, 2)
	require.Equal(t, "Fertilize", events[0].Name, "event order is preserved")
	require.Nil(t, events[0].RepeatInterval)
	require.Equal(t, interval.Days(7), *plan.Stages[1].Events[0].RepeatInterval)

	_, err = repo.GetPlan(ctx, "tenant2", "sp1")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSpeciesRepository_List(t *testing.T) {
	db := NewTestDB(t)
	seedPlan(t, db, "tenant1")

	list, err := NewSpeciesRepository(db).List(context.Background(), "tenant1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "sp1", list[0].ID)
}

func TestSpeciesRepository_RenumberStages(t *testing.T) {
	db := NewTestDB(t)
	repo := NewSpeciesRepository(db)
	ctx := context.Background()
	seedPlan(t, db, "tenant1")

	require.NoError(t, repo.RenumberStages(ctx, "tenant1", "sp1", []string{"st1", "st0"}))

	plan, err := repo.GetPlan(ctx, "tenant1", "sp1")
	require.NoError(t, err)
	require.Equal(t, "st1", plan.Stages[0].Stage.ID)
	require.Equal(t, 0, plan.Stages[0].Stage.SequenceNumber)
	require.Equal(t, "st0", plan.Stages[1].Stage.ID)
	require.Equal(t, 1, plan.Stages[1].Stage.SequenceNumber)
}

func TestSpeciesRepository_RenumberStagesIsAtomic(t *testing.T) {
	db := NewTestDB(t)
	repo := NewSpeciesRepository(db)
	ctx := context.Background()
	seedPlan(t, db, "tenant1")

	err := repo.RenumberStages(ctx, "tenant1", "sp1", []string{"st1", "missing"})
	require.ErrorIs(t, err, repository.ErrNotFound)

	plan, err := repo.GetPlan(ctx, "tenant1", "sp1")
	require.NoError(t, err)
	require.Equal(t, "st0", plan.Stages[0].Stage.ID)
	require.Equal(t, 0, plan.Stages[0].Stage.SequenceNumber)
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/cropline/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogAndList(t *testing.T) {
	db := NewTestDB(t)
	repo := NewActivityRepository(db)
	ctx := context.Background()

	stageID := "s1"
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []*activity.ActivityEntry{
		{ID: "a1", CropID: "c1", ActivityType: activity.TypeCropCreated, Summary: "planted", CreatedAt: base},
		{ID: "a2", CropID: "c1", StageID: &stageID, ActivityType: activity.TypeStageFinished, Summary: "done", CreatedAt: base.Add(time.Hour)},
		{ID: "a3", CropID: "c2", ActivityType: activity.TypeCropCreated, Summary: "planted", CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, e := range entries {
		require.NoError(t, repo.Log(ctx, "tenant1", e))
	}

	list, err := repo.List(ctx, "tenant1", activity.ListActivityOptions{CropID: "c1"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a2", list[0].ID, "newest first")
	require.Equal(t, "s1", *list[0].StageID)

	kind := activity.TypeCropCreated
	list, err = repo.List(ctx, "tenant1", activity.ListActivityOptions{ActivityType: &kind, Limit: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "a3", list[0].ID)

	list, err = repo.List(ctx, "tenant2", activity.ListActivityOptions{})
	require.NoError(t, err)
	require.Empty(t, list)
}

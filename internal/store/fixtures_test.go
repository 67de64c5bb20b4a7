package store

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/cropline/internal/domain/crop"
	"github.com/ganot/cropline/internal/domain/interval"
	"github.com/ganot/cropline/internal/domain/landplot"
	"github.com/ganot/cropline/internal/domain/species"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedLandplot(t *testing.T, db *DB, tenantID, id string) {
	t.Helper()
	err := NewLandplotRepository(db).Create(context.Background(), tenantID, &landplot.Landplot{
		ID:        id,
		TenantID:  tenantID,
		Name:      "Field " + id,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func testPlan() *species.GrowthPlan {
	weekly := interval.Days(7)
	return &species.GrowthPlan{
		Species: species.Species{ID: "sp1", Name: "Tomato", CreatedAt: time.Now()},
		Stages: []species.StagePlan{
			{
				Stage: species.StageTemplate{ID: "st0", SpeciesID: "sp1", Name: "Germination", EstimatedDuration: interval.Days(30), SequenceNumber: 0},
				Events: []species.EventTemplate{
					{ID: "et0", StageTemplateID: "st0", Name: "Fertilize", OffsetFromStageStart: interval.Days(10)},
					{ID: "et0b", StageTemplateID: "st0", Name: "Inspect", OffsetFromStageStart: interval.Days(2)},
				},
			},
			{
				Stage: species.StageTemplate{ID: "st1", SpeciesID: "sp1", Name: "Growth", EstimatedDuration: interval.Months(1), SequenceNumber: 1},
				Events: []species.EventTemplate{
					{ID: "et1", StageTemplateID: "st1", Name: "Irrigate", OffsetFromStageStart: interval.Days(0), RepeatInterval: &weekly},
				},
			},
		},
	}
}

func seedPlan(t *testing.T, db *DB, tenantID string) *species.GrowthPlan {
	t.Helper()
	plan := testPlan()
	require.NoError(t, NewSpeciesRepository(db).CreatePlan(context.Background(), tenantID, plan))
	return plan
}

// seedCrop stores a fresh timeline for crop id on landplot lp1.
func seedCrop(t *testing.T, db *DB, tenantID, id string) *crop.Timeline {
	t.Helper()
	tl, err := crop.NewTimeline(testPlan(), crop.Crop{
		ID:         id,
		TenantID:   tenantID,
		LandplotID: "lp1",
		SpeciesID:  "sp1",
		StartDate:  day("2024-01-01"),
		CreatedAt:  time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, NewCropRepository(db).CreateTimeline(context.Background(), tenantID, tl))
	return tl
}

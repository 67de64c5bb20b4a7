package crop

import (
	"sort"

	"github.com/ganot/cropline/internal/domain/interval"
	"github.com/ganot/cropline/internal/domain/species"
	"github.com/google/uuid"
)

// NewTimeline builds a crop timeline from a growth plan. The first stage
// starts on the crop's start date and its events get due dates; later stages
// stay pending with undated events until their predecessor finishes.
func NewTimeline(plan *species.GrowthPlan, c Crop) (*Timeline, error) {
	if plan == nil || len(plan.Stages) == 0 {
		return nil, ErrEmptyPlan
	}

	stages := make([]species.StagePlan, len(plan.Stages))
	copy(stages, plan.Stages)
	sort.SliceStable(stages, func(i, j int) bool {
		return stages[i].Stage.SequenceNumber < stages[j].Stage.SequenceNumber
	})

	tl := &Timeline{
		Crop:        c,
		SpeciesName: plan.Species.Name,
		Stages:      make([]StageTimeline, 0, len(stages)),
	}

	for seq, sp := range stages {
		stage := Stage{
			ID:                uuid.NewString(),
			CropID:            c.ID,
			Name:              sp.Stage.Name,
			Description:       sp.Stage.Description,
			EstimatedDuration: sp.Stage.EstimatedDuration,
			SequenceNumber:    seq,
		}
		if seq == 0 {
			start := c.StartDate
			stage.StartDate = &start
		}

		st := StageTimeline{Stage: stage}
		for _, et := range sp.Events {
			templateID := et.ID
			offset := et.OffsetFromStageStart
			ev := Event{
				ID:                   uuid.NewString(),
				CropID:               c.ID,
				StageID:              stage.ID,
				TemplateID:           &templateID,
				Name:                 et.Name,
				Description:          et.Description,
				OffsetFromStageStart: &offset,
			}
			if stage.StartDate != nil {
				due := interval.AddDuration(*stage.StartDate, offset)
				ev.DueDate = &due
			}

			if et.RepeatInterval == nil {
				st.Events = append(st.Events, ev)
				continue
			}

			every := *et.RepeatInterval
			seriesID := uuid.NewString()
			ev.SeriesID = &seriesID
			ev.Sequence = 1
			ev.RepeatInterval = &every
			st.Series = append(st.Series, Series{
				ID:          seriesID,
				CropID:      c.ID,
				StageID:     stage.ID,
				TemplateID:  &templateID,
				Name:        et.Name,
				Description: et.Description,
				Offset:      offset,
				Interval:    every,
				Occurrences: []Event{ev},
			})
		}
		tl.Stages = append(tl.Stages, st)
	}

	return tl, nil
}

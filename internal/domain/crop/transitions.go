package crop

import (
	"fmt"
	"strings"
	"time"

	"github.com/ganot/cropline/internal/domain/interval"
	"github.com/google/uuid"
)

// AdHocRequest describes a hand-added task.
type AdHocRequest struct {
	Name          string
	Description   string
	EstimatedDate *time.Time
	DoneDate      *time.Time
}

// HarvestRequest closes a crop after its last stage finished.
type HarvestRequest struct {
	FinishDate   time.Time
	WeightInTons *float64
	Comments     *string
}

var errHarvestBeforeStage = fmt.Errorf("%w: harvest precedes last stage finish", ErrOrderViolation)

// FinishStage closes the active stage on doneDate. Undone events of the stage
// are discarded, and the next stage starts on doneDate with its events dated
// from there. The timeline is updated in place.
func (tl *Timeline) FinishStage(stageID string, doneDate time.Time) (*ChangeSet, error) {
	idx := tl.stageIndex(stageID)
	if idx < 0 {
		return nil, ErrStageNotFound
	}
	st := &tl.Stages[idx]
	if st.Stage.Status() != StageActive {
		return nil, ErrStageNotActive
	}
	if doneDate.Before(*st.Stage.StartDate) {
		return nil, ErrDoneBeforeStart
	}
	if latest := st.LatestDoneDate(); latest != nil && doneDate.Before(*latest) {
		return nil, ErrDoneBeforeEvents
	}

	var next *StageTimeline
	if idx+1 < len(tl.Stages) {
		next = &tl.Stages[idx+1]
		if next.Stage.Status() != StagePending {
			return nil, fmt.Errorf("%w: stage %s already started", ErrState, next.Stage.ID)
		}
	}

	cs := tl.newChangeSet()

	kept := make([]Event, 0, len(st.Events))
	for _, ev := range st.Events {
		if ev.Done() {
			kept = append(kept, ev)
			continue
		}
		cs.DeletedEventIDs = append(cs.DeletedEventIDs, ev.ID)
	}
	st.Events = kept
	for ri := range st.Series {
		series := &st.Series[ri]
		done := make([]Event, 0, len(series.Occurrences))
		for _, ev := range series.Occurrences {
			if ev.Done() {
				done = append(done, ev)
				continue
			}
			cs.DeletedEventIDs = append(cs.DeletedEventIDs, ev.ID)
		}
		series.Occurrences = done
	}

	finish := doneDate
	st.Stage.FinishDate = &finish
	cs.Stages = append(cs.Stages, st.Stage)

	if next == nil {
		return cs, nil
	}

	start := doneDate
	next.Stage.StartDate = &start
	cs.Stages = append(cs.Stages, next.Stage)

	redate := func(ev *Event) {
		if ev.OffsetFromStageStart == nil || ev.Done() {
			return
		}
		due := interval.AddDuration(doneDate, *ev.OffsetFromStageStart)
		ev.DueDate = &due
		cs.UpdatedEvents = append(cs.UpdatedEvents, *ev)
	}
	for i := range next.Events {
		redate(&next.Events[i])
	}
	for ri := range next.Series {
		for i := range next.Series[ri].Occurrences {
			redate(&next.Series[ri].Occurrences[i])
		}
	}

	return cs, nil
}

// MarkEventDone records completion of an event. Completing a periodic
// occurrence appends the next occurrence of its series, due one repeat
// interval after doneDate. The new occurrence is returned when one was made.
// The event's stage must have started on or before doneDate.
func (tl *Timeline) MarkEventDone(eventID string, doneDate time.Time) (*ChangeSet, *Event, error) {
	ref, ok := tl.findEvent(eventID)
	if !ok {
		return nil, nil, ErrEventNotFound
	}
	ev := tl.event(ref)
	if ev.Done() {
		return nil, nil, ErrEventAlreadyDone
	}
	if err := checkDoneDate(&tl.Stages[ref.stage], doneDate); err != nil {
		return nil, nil, err
	}

	cs := tl.newChangeSet()
	done := doneDate
	ev.DoneDate = &done
	cs.UpdatedEvents = append(cs.UpdatedEvents, *ev)

	if !ev.Periodic() {
		return cs, nil, nil
	}

	every := *ev.RepeatInterval
	due := interval.AddDuration(doneDate, every)
	spawned := Event{
		ID:             uuid.NewString(),
		CropID:         ev.CropID,
		StageID:        ev.StageID,
		TemplateID:     ev.TemplateID,
		SeriesID:       ev.SeriesID,
		Sequence:       ev.Sequence + 1,
		Name:           ev.Name,
		Description:    ev.Description,
		RepeatInterval: &every,
		DueDate:        &due,
	}

	st := &tl.Stages[ref.stage]
	if ref.series >= 0 {
		series := &st.Series[ref.series]
		for _, occ := range series.Occurrences {
			if occ.Sequence >= spawned.Sequence {
				spawned.Sequence = occ.Sequence + 1
			}
		}
		series.Occurrences = append(series.Occurrences, spawned)
	} else {
		st.Events = append(st.Events, spawned)
	}
	cs.InsertedEvents = append(cs.InsertedEvents, spawned)

	return cs, &spawned, nil
}

// checkDoneDate rejects completing work in a stage that has not started, or
// before the stage's start.
func checkDoneDate(st *StageTimeline, doneDate time.Time) error {
	if st.Stage.Status() == StagePending {
		return ErrStageNotActive
	}
	if doneDate.Before(*st.Stage.StartDate) {
		return ErrEventBeforeStage
	}
	return nil
}

// AddAdHocEvent adds a hand-made task to a stage. When only a done date is
// given it doubles as the due date.
func (tl *Timeline) AddAdHocEvent(stageID string, req AdHocRequest) (*ChangeSet, *Event, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, nil, ErrInvalidInput
	}
	if req.EstimatedDate == nil && req.DoneDate == nil {
		return nil, nil, ErrMissingDate
	}
	idx := tl.stageIndex(stageID)
	if idx < 0 {
		return nil, nil, ErrStageNotFound
	}
	if req.DoneDate != nil {
		if err := checkDoneDate(&tl.Stages[idx], *req.DoneDate); err != nil {
			return nil, nil, err
		}
	}

	ev := Event{
		ID:          uuid.NewString(),
		CropID:      tl.Crop.ID,
		StageID:     stageID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if req.EstimatedDate != nil {
		due := *req.EstimatedDate
		ev.DueDate = &due
	}
	if req.DoneDate != nil {
		done := *req.DoneDate
		ev.DoneDate = &done
		if ev.DueDate == nil {
			due := done
			ev.DueDate = &due
		}
	}

	tl.Stages[idx].Events = append(tl.Stages[idx].Events, ev)
	cs := tl.newChangeSet()
	cs.InsertedEvents = append(cs.InsertedEvents, ev)
	return cs, &ev, nil
}

// SubmitHarvest records the crop's finish once every stage is done.
func (tl *Timeline) SubmitHarvest(req HarvestRequest) (*ChangeSet, error) {
	if tl.Crop.Finished() {
		return nil, ErrCropFinished
	}
	last, ok := tl.LastStage()
	if !ok || last.Stage.Status() != StageFinished {
		return nil, ErrStagesUnfinished
	}
	if req.FinishDate.Before(*last.Stage.FinishDate) {
		return nil, errHarvestBeforeStage
	}
	if req.WeightInTons != nil && *req.WeightInTons < 0 {
		return nil, ErrInvalidInput
	}

	finish := req.FinishDate
	tl.Crop.FinishDate = &finish
	if req.WeightInTons != nil {
		w := *req.WeightInTons
		tl.Crop.WeightInTons = &w
	}
	if req.Comments != nil {
		tl.Crop.Comments = *req.Comments
	}

	cs := tl.newChangeSet()
	updated := tl.Crop
	cs.Crop = &updated
	return cs, nil
}

// UpdateStageComments replaces a stage's free-text comments.
func (tl *Timeline) UpdateStageComments(stageID, comments string) (*ChangeSet, error) {
	idx := tl.stageIndex(stageID)
	if idx < 0 {
		return nil, ErrStageNotFound
	}
	st := &tl.Stages[idx].Stage
	c := comments
	st.Comments = &c

	cs := tl.newChangeSet()
	cs.Stages = append(cs.Stages, *st)
	return cs, nil
}

package crop

import (
	"fmt"
	"time"
)

// eventRef locates an event inside a timeline. series is -1 for one-off
// events.
type eventRef struct {
	stage  int
	series int
	index  int
}

func (tl *Timeline) stageIndex(stageID string) int {
	for i := range tl.Stages {
		if tl.Stages[i].Stage.ID == stageID {
			return i
		}
	}
	return -1
}

// StageByID returns the stage with the given id.
func (tl *Timeline) StageByID(stageID string) (*StageTimeline, bool) {
	idx := tl.stageIndex(stageID)
	if idx < 0 {
		return nil, false
	}
	return &tl.Stages[idx], true
}

func (tl *Timeline) findEvent(eventID string) (eventRef, bool) {
	for si := range tl.Stages {
		st := &tl.Stages[si]
		for i := range st.Events {
			if st.Events[i].ID == eventID {
				return eventRef{stage: si, series: -1, index: i}, true
			}
		}
		for ri := range st.Series {
			for i := range st.Series[ri].Occurrences {
				if st.Series[ri].Occurrences[i].ID == eventID {
					return eventRef{stage: si, series: ri, index: i}, true
				}
			}
		}
	}
	return eventRef{}, false
}

func (tl *Timeline) event(ref eventRef) *Event {
	st := &tl.Stages[ref.stage]
	if ref.series < 0 {
		return &st.Events[ref.index]
	}
	return &st.Series[ref.series].Occurrences[ref.index]
}

// EventByID returns a copy of the event with the given id.
func (tl *Timeline) EventByID(eventID string) (Event, bool) {
	ref, ok := tl.findEvent(eventID)
	if !ok {
		return Event{}, false
	}
	return *tl.event(ref), true
}

// ActiveStage returns the started, unfinished stage, if any.
func (tl *Timeline) ActiveStage() (*StageTimeline, bool) {
	for i := range tl.Stages {
		if tl.Stages[i].Stage.Status() == StageActive {
			return &tl.Stages[i], true
		}
	}
	return nil, false
}

// LastStage returns the stage with the highest sequence number.
func (tl *Timeline) LastStage() (*StageTimeline, bool) {
	if len(tl.Stages) == 0 {
		return nil, false
	}
	return &tl.Stages[len(tl.Stages)-1], true
}

// AllEvents returns one-off events followed by every series occurrence.
func (st *StageTimeline) AllEvents() []Event {
	out := make([]Event, 0, len(st.Events))
	out = append(out, st.Events...)
	for _, series := range st.Series {
		out = append(out, series.Occurrences...)
	}
	return out
}

// LatestDoneDate is the most recent done date among the stage's events.
func (st *StageTimeline) LatestDoneDate() *time.Time {
	var latest *time.Time
	for _, ev := range st.AllEvents() {
		if ev.DoneDate != nil && (latest == nil || ev.DoneDate.After(*latest)) {
			d := *ev.DoneDate
			latest = &d
		}
	}
	return latest
}

// HasOpenOneOff reports whether a non-periodic event is still undone.
func (st *StageTimeline) HasOpenOneOff() bool {
	for _, ev := range st.Events {
		if !ev.Done() {
			return true
		}
	}
	return false
}

// CheckInvariants verifies the stage ordering rules of a timeline.
func (tl *Timeline) CheckInvariants() error {
	active := 0
	seenUnstarted := false
	for i, st := range tl.Stages {
		s := st.Stage
		if s.SequenceNumber != i {
			return fmt.Errorf("stage %s has sequence %d at position %d", s.ID, s.SequenceNumber, i)
		}
		if s.FinishDate != nil && s.StartDate == nil {
			return fmt.Errorf("stage %s finished without starting", s.ID)
		}
		switch s.Status() {
		case StageActive:
			active++
			if seenUnstarted {
				return fmt.Errorf("stage %s is active after a pending stage", s.ID)
			}
		case StageFinished:
			if seenUnstarted {
				return fmt.Errorf("stage %s is finished after a pending stage", s.ID)
			}
		case StagePending:
			seenUnstarted = true
		}
	}
	if active > 1 {
		return fmt.Errorf("%d active stages", active)
	}
	return nil
}

func (tl *Timeline) newChangeSet() *ChangeSet {
	return &ChangeSet{CropID: tl.Crop.ID, ExpectedRevision: tl.Crop.Revision}
}

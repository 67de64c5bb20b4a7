package calendar

import (
	"sort"
	"time"

	"github.com/ganot/cropline/internal/domain/crop"
	"github.com/ganot/cropline/internal/domain/interval"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	colorSaturation = 0.55
	colorValue      = 0.85
)

// Project flattens timelines into one ordered task list.
func Project(timelines []*crop.Timeline) []Task {
	ordered := make([]*crop.Timeline, 0, len(timelines))
	for _, tl := range timelines {
		if tl != nil {
			ordered = append(ordered, tl)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Crop, ordered[j].Crop
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		return a.ID < b.ID
	})

	var tasks []Task
	for i, tl := range ordered {
		tasks = append(tasks, projectCrop(tl, CropColor(i, len(ordered)))...)
	}
	Sort(tasks)
	return tasks
}

// CropColor returns the display color of crop i out of n.
func CropColor(i, n int) string {
	if n <= 0 {
		n = 1
	}
	return colorful.Hsv(360*float64(i)/float64(n), colorSaturation, colorValue).Hex()
}

func projectCrop(tl *crop.Timeline, color string) []Task {
	base := Task{
		CropID:      tl.Crop.ID,
		LandplotID:  tl.Crop.LandplotID,
		SpeciesName: tl.SpeciesName,
		Color:       color,
	}
	projections := crop.ProjectStages(tl)

	var tasks []Task
	for si, st := range tl.Stages {
		proj := projections[si]
		stageStart := proj.Start
		base.StageID = st.Stage.ID

		for _, ev := range st.Events {
			t := eventTask(base, ev, stageStart)
			t.Class = ClassUnique
			t.MinAllowedDate = stageStart
			tasks = append(tasks, t)
		}

		for _, series := range st.Series {
			occ := make([]crop.Event, len(series.Occurrences))
			copy(occ, series.Occurrences)
			sort.SliceStable(occ, func(i, j int) bool { return occ[i].Sequence < occ[j].Sequence })

			minAllowed := stageStart
			for _, ev := range occ {
				t := eventTask(base, ev, stageStart)
				t.Class = ClassPeriodicOccurrence
				t.MinAllowedDate = minAllowed
				tasks = append(tasks, t)
				if ev.DoneDate != nil {
					minAllowed = *ev.DoneDate
				}
			}
		}

		if st.Stage.FinishDate != nil || !st.HasOpenOneOff() {
			t := base
			t.ID = "stage-finish:" + st.Stage.ID
			t.Class = ClassStageFinish
			t.Name = st.Stage.Name
			due := proj.ProjectedFinish
			t.DueDate = &due
			t.Estimated = st.Stage.FinishDate == nil
			if st.Stage.FinishDate != nil {
				done := *st.Stage.FinishDate
				t.DoneDate = &done
			}
			t.MinAllowedDate = stageStart
			if latest := st.LatestDoneDate(); latest != nil {
				t.MinAllowedDate = *latest
			}
			tasks = append(tasks, t)
		}
	}

	if last, ok := tl.LastStage(); ok && last.Stage.FinishDate != nil {
		t := base
		t.StageID = last.Stage.ID
		t.ID = "crop-finish:" + tl.Crop.ID
		t.Class = ClassCropFinish
		t.Name = tl.SpeciesName + " harvest"
		due := *last.Stage.FinishDate
		t.DueDate = &due
		t.MinAllowedDate = due
		if tl.Crop.FinishDate != nil {
			done := *tl.Crop.FinishDate
			t.DoneDate = &done
		}
		tasks = append(tasks, t)
	}
	return tasks
}

// eventTask converts an event. Undated events of pending stages get a due
// date derived from the projected stage start.
func eventTask(base Task, ev crop.Event, stageStart time.Time) Task {
	t := base
	t.ID = ev.ID
	t.Name = ev.Name
	switch {
	case ev.DueDate != nil:
		due := *ev.DueDate
		t.DueDate = &due
	case ev.OffsetFromStageStart != nil:
		due := interval.AddDuration(stageStart, *ev.OffsetFromStageStart)
		t.DueDate = &due
		t.Estimated = true
	}
	if ev.DoneDate != nil {
		done := *ev.DoneDate
		t.DoneDate = &done
	}
	return t
}

// Sort orders tasks by due date then done date, undated last. Remaining
// ties break on crop id then task id.
func Sort(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if c := compareDates(a.DueDate, b.DueDate); c != 0 {
			return c < 0
		}
		if c := compareDates(a.DoneDate, b.DoneDate); c != 0 {
			return c < 0
		}
		if a.CropID != b.CropID {
			return a.CropID < b.CropID
		}
		return a.ID < b.ID
	})
}

func compareDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Compare(*b)
}

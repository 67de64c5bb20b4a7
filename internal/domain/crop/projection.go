package crop

import (
	"time"

	"github.com/ganot/cropline/internal/domain/interval"
)

// StageProjection is the best-known start and finish of one stage. Actual
// dates win over estimates.
type StageProjection struct {
	StageID         string    `json:"stage_id"`
	Start           time.Time `json:"start"`
	Finish          time.Time `json:"finish"`
	ProjectedFinish time.Time `json:"projected_finish"`
	StartKnown      bool      `json:"start_known"`
	FinishKnown     bool      `json:"finish_known"`
}

// ProjectStages walks the stages forward from the crop's start date. A
// finished stage moves the running date to its finish date; any other stage
// moves it by its estimated duration. ProjectedFinish is always the estimate
// (running start + estimated duration), even for finished stages.
func ProjectStages(tl *Timeline) []StageProjection {
	out := make([]StageProjection, 0, len(tl.Stages))
	running := tl.Crop.StartDate
	for _, st := range tl.Stages {
		s := st.Stage
		p := StageProjection{StageID: s.ID, Start: running}
		if s.StartDate != nil {
			p.Start = *s.StartDate
			p.StartKnown = true
		}
		p.ProjectedFinish = interval.AddDuration(running, s.EstimatedDuration)
		if s.FinishDate != nil {
			p.Finish = *s.FinishDate
			p.FinishKnown = true
		} else {
			p.Finish = p.ProjectedFinish
		}
		running = p.Finish
		out = append(out, p)
	}
	return out
}

// EstimateCompletion returns the crop's completion date: actual when the last
// stage finished, projected otherwise. No backtracking is done; earlier
// stages are never re-estimated from later ground truth.
func EstimateCompletion(tl *Timeline) time.Time {
	running := tl.Crop.StartDate
	for _, st := range tl.Stages {
		if st.Stage.FinishDate != nil {
			running = *st.Stage.FinishDate
			continue
		}
		running = interval.AddDuration(running, st.Stage.EstimatedDuration)
	}
	return running
}

// NextHarvest picks the unfinished crop with the earliest estimated
// completion. Ties go to the lowest crop id.
func NextHarvest(timelines []*Timeline) (*Timeline, time.Time, bool) {
	var (
		best     *Timeline
		bestDate time.Time
	)
	for _, tl := range timelines {
		if tl == nil || tl.Crop.Finished() {
			continue
		}
		est := EstimateCompletion(tl)
		if best == nil || est.Before(bestDate) || (est.Equal(bestDate) && tl.Crop.ID < best.Crop.ID) {
			best = tl
			bestDate = est
		}
	}
	return best, bestDate, best != nil
}

package crop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ganot/cropline/internal/domain/activity"
	"github.com/ganot/cropline/internal/domain/landplot"
	"github.com/ganot/cropline/internal/domain/species"
	"github.com/ganot/cropline/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultLoadWorkers = 4

// Service runs crop lifecycle transitions.
type Service struct {
	repo        Repository
	plans       PlanSource
	landplots   LandplotSource
	activities  ActivityLogger
	observer    TransitionObserver
	logger      *slog.Logger
	locks       *keyedMutex
	loadWorkers int
}

// NewService creates a new crop service.
func NewService(repo Repository, plans PlanSource, landplots LandplotSource, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		plans:       plans,
		landplots:   landplots,
		logger:      logger,
		locks:       newKeyedMutex(),
		loadWorkers: defaultLoadWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InstantiateTimeline creates a crop and its full timeline from the species
// growth plan in one write.
func (s *Service) InstantiateTimeline(ctx context.Context, tenantID string, req CreateRequest) (*Timeline, error) {
	start := time.Now()
	tl, err := s.instantiate(ctx, tenantID, req)
	s.observe("instantiate_timeline", start, err)
	return tl, err
}

func (s *Service) instantiate(ctx context.Context, tenantID string, req CreateRequest) (*Timeline, error) {
	if strings.TrimSpace(req.LandplotID) == "" || strings.TrimSpace(req.SpeciesID) == "" {
		return nil, ErrInvalidInput
	}
	if req.StartDate.IsZero() {
		return nil, ErrMissingDate
	}

	if _, err := s.landplots.Get(ctx, tenantID, req.LandplotID); err != nil {
		if errors.Is(err, landplot.ErrLandplotNotFound) || errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLandplotNotFound
		}
		return nil, fmt.Errorf("getting landplot: %w", err)
	}

	plan, err := s.plans.GetPlan(ctx, tenantID, req.SpeciesID)
	if err != nil {
		if errors.Is(err, species.ErrSpeciesNotFound) || errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSpeciesNotFound
		}
		return nil, fmt.Errorf("getting growth plan: %w", err)
	}

	c := Crop{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		LandplotID: req.LandplotID,
		SpeciesID:  req.SpeciesID,
		StartDate:  req.StartDate,
		Comments:   req.Comments,
		CreatedAt:  time.Now(),
	}
	tl, err := NewTimeline(plan, c)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateTimeline(ctx, tenantID, tl); err != nil {
		return nil, fmt.Errorf("%w: instantiate: %w", ErrTransitionFailed, err)
	}

	s.record(ctx, tenantID, activity.ActivityEntry{
		CropID:       c.ID,
		ActivityType: activity.TypeCropCreated,
		Summary:      fmt.Sprintf("Planted %s with %d stages", plan.Species.Name, len(tl.Stages)),
	})
	if s.logger != nil {
		s.logger.Info("crop timeline created", "tenant_id", tenantID, "crop_id", c.ID, "species_id", req.SpeciesID)
	}
	return tl, nil
}

// GetTimeline loads a crop with its stages and events.
func (s *Service) GetTimeline(ctx context.Context, tenantID, cropID string) (*Timeline, error) {
	tl, err := s.repo.GetTimeline(ctx, tenantID, cropID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCropNotFound
		}
		return nil, fmt.Errorf("getting timeline: %w", err)
	}
	return tl, nil
}

// ListCrops lists the tenant's crops.
func (s *Service) ListCrops(ctx context.Context, tenantID string, filter ListFilter) ([]Crop, error) {
	if !filter.Valid() {
		return nil, ErrInvalidInput
	}
	return s.repo.ListCrops(ctx, tenantID, filter)
}

// ListTimelines loads timelines concurrently. With no cropIDs every crop
// matching filter is loaded. The result follows crop id order.
func (s *Service) ListTimelines(ctx context.Context, tenantID string, cropIDs []string, filter ListFilter) ([]*Timeline, error) {
	if len(cropIDs) == 0 {
		crops, err := s.ListCrops(ctx, tenantID, filter)
		if err != nil {
			return nil, err
		}
		for _, c := range crops {
			cropIDs = append(cropIDs, c.ID)
		}
	}

	out := make([]*Timeline, len(cropIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.loadWorkers)
	for i, id := range cropIDs {
		g.Go(func() error {
			tl, err := s.GetTimeline(gctx, tenantID, id)
			if err != nil {
				return err
			}
			out[i] = tl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	filtered := out[:0]
	for _, tl := range out {
		switch {
		case filter == FilterOngoing && tl.Crop.Finished():
		case filter == FilterFinished && !tl.Crop.Finished():
		default:
			filtered = append(filtered, tl)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Crop.ID < filtered[j].Crop.ID })
	return filtered, nil
}

// FinishStage closes the active stage and starts the next one.
func (s *Service) FinishStage(ctx context.Context, tenantID, stageID string, doneDate time.Time) (*Timeline, error) {
	cropID, err := s.cropForStage(ctx, tenantID, stageID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, tenantID, cropID, "finish_stage", func(tl *Timeline) (*ChangeSet, []activity.ActivityEntry, error) {
		cs, err := tl.FinishStage(stageID, doneDate)
		if err != nil {
			return nil, nil, err
		}
		sid := stageID
		entries := []activity.ActivityEntry{{
			StageID:      &sid,
			ActivityType: activity.TypeStageFinished,
			Summary:      fmt.Sprintf("Stage finished on %s", doneDate.Format(time.DateOnly)),
		}}
		if n := len(cs.DeletedEventIDs); n > 0 {
			entries = append(entries, activity.ActivityEntry{
				StageID:      &sid,
				ActivityType: activity.TypeEventsDiscarded,
				Summary:      fmt.Sprintf("Discarded %d open events", n),
			})
		}
		if len(cs.Stages) > 1 {
			next := cs.Stages[1]
			entries = append(entries, activity.ActivityEntry{
				StageID:      &next.ID,
				ActivityType: activity.TypeStageStarted,
				Summary:      fmt.Sprintf("Stage %s started", next.Name),
			})
		}
		return cs, entries, nil
	})
}

// MarkEventDone records an event as done. Periodic events extend their
// series with the next occurrence.
func (s *Service) MarkEventDone(ctx context.Context, tenantID, eventID string, doneDate time.Time) (*Timeline, error) {
	cropID, err := s.cropForEvent(ctx, tenantID, eventID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, tenantID, cropID, "mark_event_done", func(tl *Timeline) (*ChangeSet, []activity.ActivityEntry, error) {
		cs, spawned, err := tl.MarkEventDone(eventID, doneDate)
		if err != nil {
			return nil, nil, err
		}
		ev, _ := tl.EventByID(eventID)
		eid := eventID
		entries := []activity.ActivityEntry{{
			StageID:      &ev.StageID,
			EventID:      &eid,
			ActivityType: activity.TypeEventDone,
			Summary:      fmt.Sprintf("%s done on %s", ev.Name, doneDate.Format(time.DateOnly)),
		}}
		if spawned != nil {
			entries = append(entries, activity.ActivityEntry{
				StageID:      &spawned.StageID,
				EventID:      &spawned.ID,
				ActivityType: activity.TypeEventRecurred,
				Summary:      fmt.Sprintf("%s due %s", spawned.Name, spawned.DueDate.Format(time.DateOnly)),
			})
		}
		return cs, entries, nil
	})
}

// AddAdHocEvent appends a hand-made task to a stage.
func (s *Service) AddAdHocEvent(ctx context.Context, tenantID, stageID string, req AdHocRequest) (*Event, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalidInput
	}
	if req.EstimatedDate == nil && req.DoneDate == nil {
		return nil, ErrMissingDate
	}
	cropID, err := s.cropForStage(ctx, tenantID, stageID)
	if err != nil {
		return nil, err
	}
	var added *Event
	_, err = s.mutate(ctx, tenantID, cropID, "add_adhoc_event", func(tl *Timeline) (*ChangeSet, []activity.ActivityEntry, error) {
		cs, ev, err := tl.AddAdHocEvent(stageID, req)
		if err != nil {
			return nil, nil, err
		}
		added = ev
		return cs, []activity.ActivityEntry{{
			StageID:      &ev.StageID,
			EventID:      &ev.ID,
			ActivityType: activity.TypeEventAdded,
			Summary:      fmt.Sprintf("Added %s", ev.Name),
		}}, nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// SubmitHarvest records the crop's finish date, weight and comments.
func (s *Service) SubmitHarvest(ctx context.Context, tenantID, cropID string, req HarvestRequest) (*Timeline, error) {
	if req.FinishDate.IsZero() {
		return nil, ErrMissingDate
	}
	return s.mutate(ctx, tenantID, cropID, "submit_harvest", func(tl *Timeline) (*ChangeSet, []activity.ActivityEntry, error) {
		cs, err := tl.SubmitHarvest(req)
		if err != nil {
			return nil, nil, err
		}
		summary := fmt.Sprintf("Harvested on %s", req.FinishDate.Format(time.DateOnly))
		if req.WeightInTons != nil {
			summary = fmt.Sprintf("%s, %.2f t", summary, *req.WeightInTons)
		}
		return cs, []activity.ActivityEntry{{
			ActivityType: activity.TypeHarvestReported,
			Summary:      summary,
		}}, nil
	})
}

// UpdateStageComments replaces a stage's comments.
func (s *Service) UpdateStageComments(ctx context.Context, tenantID, stageID, comments string) (*Timeline, error) {
	cropID, err := s.cropForStage(ctx, tenantID, stageID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, tenantID, cropID, "update_stage_comments", func(tl *Timeline) (*ChangeSet, []activity.ActivityEntry, error) {
		cs, err := tl.UpdateStageComments(stageID, comments)
		if err != nil {
			return nil, nil, err
		}
		sid := stageID
		return cs, []activity.ActivityEntry{{
			StageID:      &sid,
			ActivityType: activity.TypeStageCommented,
			Summary:      "Stage comments updated",
		}}, nil
	})
}

// EstimateCropCompletion projects when a crop finishes.
func (s *Service) EstimateCropCompletion(ctx context.Context, tenantID, cropID string) (*Estimate, error) {
	tl, err := s.GetTimeline(ctx, tenantID, cropID)
	if err != nil {
		return nil, err
	}
	last, ok := tl.LastStage()
	return &Estimate{
		CropID:              cropID,
		EstimatedCompletion: EstimateCompletion(tl),
		Actual:              ok && last.Stage.FinishDate != nil,
		Stages:              ProjectStages(tl),
	}, nil
}

// NextHarvest returns the ongoing crop expected to finish first, or nil when
// every crop is finished.
func (s *Service) NextHarvest(ctx context.Context, tenantID string) (*HarvestForecast, error) {
	timelines, err := s.ListTimelines(ctx, tenantID, nil, FilterOngoing)
	if err != nil {
		return nil, err
	}
	tl, est, ok := NextHarvest(timelines)
	if !ok {
		return nil, nil
	}
	return &HarvestForecast{
		CropID:              tl.Crop.ID,
		LandplotID:          tl.Crop.LandplotID,
		SpeciesName:         tl.SpeciesName,
		EstimatedCompletion: est,
	}, nil
}

type transition func(tl *Timeline) (*ChangeSet, []activity.ActivityEntry, error)

// mutate loads the crop under its lock, computes a change set and applies it
// atomically. A failed apply leaves the stored crop untouched.
func (s *Service) mutate(ctx context.Context, tenantID, cropID, op string, fn transition) (tl *Timeline, err error) {
	start := time.Now()
	defer func() { s.observe(op, start, err) }()

	unlock := s.locks.Lock(cropID)
	defer unlock()

	tl, err = s.GetTimeline(ctx, tenantID, cropID)
	if err != nil {
		return nil, err
	}

	cs, entries, err := fn(tl)
	if err != nil {
		return nil, err
	}

	if !cs.Empty() {
		if err := s.repo.Apply(ctx, tenantID, cs); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return nil, ErrConflict
			}
			return nil, fmt.Errorf("%w: %s: %w", ErrTransitionFailed, op, err)
		}
		tl.Crop.Revision++
	}

	for _, entry := range entries {
		entry.CropID = cropID
		s.record(ctx, tenantID, entry)
	}
	if s.logger != nil {
		s.logger.Debug("crop transition applied", "op", op, "tenant_id", tenantID, "crop_id", cropID, "revision", tl.Crop.Revision)
	}
	return tl, nil
}

func (s *Service) cropForStage(ctx context.Context, tenantID, stageID string) (string, error) {
	id, err := s.repo.CropIDForStage(ctx, tenantID, stageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrStageNotFound
		}
		return "", fmt.Errorf("resolving stage: %w", err)
	}
	return id, nil
}

func (s *Service) cropForEvent(ctx context.Context, tenantID, eventID string) (string, error) {
	id, err := s.repo.CropIDForEvent(ctx, tenantID, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrEventNotFound
		}
		return "", fmt.Errorf("resolving event: %w", err)
	}
	return id, nil
}

// record writes an activity entry after commit. Failures are logged only.
func (s *Service) record(ctx context.Context, tenantID string, entry activity.ActivityEntry) {
	if s.activities == nil {
		return
	}
	if err := s.activities.LogActivity(ctx, tenantID, &entry); err != nil && s.logger != nil {
		s.logger.Warn("activity log failed", "tenant_id", tenantID, "crop_id", entry.CropID, "error", err)
	}
}

func (s *Service) observe(op string, start time.Time, err error) {
	if s.observer != nil {
		s.observer.ObserveTransition(op, time.Since(start), err)
	}
}

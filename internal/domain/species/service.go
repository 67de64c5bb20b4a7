package species

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ganot/cropline/internal/domain/interval"
	"github.com/ganot/cropline/internal/repository"
	"github.com/google/uuid"
)

// Service handles the species catalog.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new species service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// ImportPlan validates a definition and stores it as a new species plan.
func (s *Service) ImportPlan(ctx context.Context, tenantID string, def PlanDefinition) (*GrowthPlan, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	sp := Species{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Name:        def.Species.Name,
		Description: def.Species.Description,
		CreatedAt:   time.Now(),
	}
	plan := &GrowthPlan{Species: sp, Stages: make([]StagePlan, 0, len(def.Stages))}
	for seq, st := range def.Stages {
		stage := StageTemplate{
			ID:                uuid.NewString(),
			SpeciesID:         sp.ID,
			Name:              st.Name,
			Description:       st.Description,
			EstimatedDuration: st.EstimatedDuration,
			SequenceNumber:    seq,
		}
		events := make([]EventTemplate, 0, len(st.Events))
		for _, ev := range st.Events {
			offset := ev.Offset
			if offset.IsZero() {
				offset = interval.Days(0)
			}
			events = append(events, EventTemplate{
				ID:                   uuid.NewString(),
				StageTemplateID:      stage.ID,
				Name:                 ev.Name,
				Description:          ev.Description,
				OffsetFromStageStart: offset,
				RepeatInterval:       ev.Repeat,
			})
		}
		plan.Stages = append(plan.Stages, StagePlan{Stage: stage, Events: events})
	}

	if err := s.repo.CreatePlan(ctx, tenantID, plan); err != nil {
		return nil, fmt.Errorf("creating growth plan: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("growth plan imported", "tenant_id", tenantID, "species_id", sp.ID, "stages", len(plan.Stages))
	}
	return plan, nil
}

// GetPlan returns the plan with stages in sequence order.
func (s *Service) GetPlan(ctx context.Context, tenantID, speciesID string) (*GrowthPlan, error) {
	plan, err := s.repo.GetPlan(ctx, tenantID, speciesID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSpeciesNotFound
		}
		return nil, fmt.Errorf("getting growth plan: %w", err)
	}
	plan.Sort()
	return plan, nil
}

// List returns the tenant's species.
func (s *Service) List(ctx context.Context, tenantID string) ([]Species, error) {
	return s.repo.List(ctx, tenantID)
}

// RenumberStages reassigns sequence numbers so the stages follow
// orderedStageIDs. The whole renumbering is applied in one write.
func (s *Service) RenumberStages(ctx context.Context, tenantID, speciesID string, orderedStageIDs []string) (*GrowthPlan, error) {
	plan, err := s.GetPlan(ctx, tenantID, speciesID)
	if err != nil {
		return nil, err
	}
	if len(orderedStageIDs) != len(plan.Stages) {
		return nil, ErrInvalidOrder
	}
	known := make(map[string]bool, len(plan.Stages))
	for _, st := range plan.Stages {
		known[st.Stage.ID] = true
	}
	for _, id := range orderedStageIDs {
		if !known[id] {
			return nil, ErrInvalidOrder
		}
		delete(known, id)
	}

	if err := s.repo.RenumberStages(ctx, tenantID, speciesID, orderedStageIDs); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSpeciesNotFound
		}
		return nil, fmt.Errorf("renumbering stages: %w", err)
	}
	return s.GetPlan(ctx, tenantID, speciesID)
}

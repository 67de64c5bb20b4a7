package landplot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/cropline/internal/repository"
	"github.com/google/uuid"
)

// Service handles landplot operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new landplot service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateRequest defines landplot creation inputs.
type CreateRequest struct {
	ID           string
	Name         string
	Description  string
	AreaHectares *float64
}

// Create creates a new landplot.
func (s *Service) Create(ctx context.Context, tenantID string, req CreateRequest) (*Landplot, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalidInput
	}
	if req.AreaHectares != nil && *req.AreaHectares < 0 {
		return nil, ErrInvalidInput
	}

	id := req.ID
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}

	plot := &Landplot{
		ID:           id,
		TenantID:     tenantID,
		Name:         req.Name,
		Description:  req.Description,
		AreaHectares: req.AreaHectares,
		CreatedAt:    time.Now(),
	}

	if err := s.repo.Create(ctx, tenantID, plot); err != nil {
		return nil, fmt.Errorf("creating landplot: %w", err)
	}

	return plot, nil
}

// Get fetches a landplot by ID.
func (s *Service) Get(ctx context.Context, tenantID, id string) (*Landplot, error) {
	plot, err := s.repo.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLandplotNotFound
		}
		return nil, fmt.Errorf("getting landplot: %w", err)
	}
	return plot, nil
}

// List returns landplot summaries.
func (s *Service) List(ctx context.Context, tenantID string) ([]Summary, error) {
	return s.repo.List(ctx, tenantID)
}

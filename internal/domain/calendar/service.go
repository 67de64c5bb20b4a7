package calendar

import (
	"context"
	"log/slog"

	"github.com/ganot/cropline/internal/domain/crop"
)

// TimelineSource loads crop timelines for projection.
type TimelineSource interface {
	ListTimelines(ctx context.Context, tenantID string, cropIDs []string, filter crop.ListFilter) ([]*crop.Timeline, error)
}

// Service builds calendar views.
type Service struct {
	timelines TimelineSource
	logger    *slog.Logger
}

// NewService creates a new calendar service.
func NewService(timelines TimelineSource, logger *slog.Logger) *Service {
	return &Service{timelines: timelines, logger: logger}
}

// ProjectCalendar returns the task list for the selected crops.
func (s *Service) ProjectCalendar(ctx context.Context, tenantID string, q Query) ([]Task, error) {
	if !q.Filter.Valid() {
		return nil, crop.ErrInvalidInput
	}
	timelines, err := s.timelines.ListTimelines(ctx, tenantID, q.CropIDs, q.Filter)
	if err != nil {
		return nil, err
	}
	tasks := Project(timelines)
	if s.logger != nil {
		s.logger.Debug("calendar projected", "tenant_id", tenantID, "crops", len(timelines), "tasks", len(tasks))
	}
	return tasks, nil
}

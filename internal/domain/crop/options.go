package crop

import "time"

// CreateRequest defines crop creation inputs.
type CreateRequest struct {
	LandplotID string
	SpeciesID  string
	StartDate  time.Time
	Comments   string
}

// Estimate is a crop's projected (or actual) completion.
type Estimate struct {
	CropID              string            `json:"crop_id"`
	EstimatedCompletion time.Time         `json:"estimated_completion"`
	Actual              bool              `json:"actual"`
	Stages              []StageProjection `json:"stages"`
}

// HarvestForecast names the ongoing crop expected to finish first.
type HarvestForecast struct {
	CropID              string    `json:"crop_id"`
	LandplotID          string    `json:"landplot_id"`
	SpeciesName         string    `json:"species_name"`
	EstimatedCompletion time.Time `json:"estimated_completion"`
}

// Option configures a Service.
type Option func(*Service)

// WithLoadConcurrency bounds how many timelines load in parallel.
func WithLoadConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.loadWorkers = n
		}
	}
}

// WithObserver registers a transition observer.
func WithObserver(o TransitionObserver) Option {
	return func(s *Service) {
		s.observer = o
	}
}

// WithActivityLogger registers the activity log sink.
func WithActivityLogger(a ActivityLogger) Option {
	return func(s *Service) {
		s.activities = a
	}
}

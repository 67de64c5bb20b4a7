// Package app wires storage, domain services and metrics together.
package app

import (
	"log/slog"

	"github.com/ganot/cropline/internal/domain/activity"
	"github.com/ganot/cropline/internal/domain/calendar"
	"github.com/ganot/cropline/internal/domain/crop"
	"github.com/ganot/cropline/internal/domain/landplot"
	"github.com/ganot/cropline/internal/domain/species"
	"github.com/ganot/cropline/internal/mcp"
	"github.com/ganot/cropline/internal/metrics"
	"github.com/ganot/cropline/internal/store"
	"github.com/ganot/cropline/internal/transport"
)

// App holds the services of one running instance.
type App struct {
	DB        *store.DB
	APIKeys   *store.APIKeyRepository
	Metrics   *metrics.Recorder
	Landplots *landplot.Service
	Species   *species.Service
	Crops     *crop.Service
	Calendar  *calendar.Service
	Activity  *activity.Service
}

// New builds every service on top of db. loadWorkers bounds concurrent
// timeline loads; zero keeps the default.
func New(db *store.DB, logger *slog.Logger, loadWorkers int) *App {
	recorder := metrics.New()

	landplotSvc := landplot.NewService(store.NewLandplotRepository(db), logger)
	speciesSvc := species.NewService(store.NewSpeciesRepository(db), logger)
	activitySvc := activity.NewService(store.NewActivityRepository(db), logger)
	cropSvc := crop.NewService(store.NewCropRepository(db), speciesSvc, landplotSvc, logger,
		crop.WithActivityLogger(activitySvc),
		crop.WithObserver(recorder),
		crop.WithLoadConcurrency(loadWorkers),
	)

	return &App{
		DB:        db,
		APIKeys:   store.NewAPIKeyRepository(db),
		Metrics:   recorder,
		Landplots: landplotSvc,
		Species:   speciesSvc,
		Crops:     cropSvc,
		Calendar:  calendar.NewService(cropSvc, logger),
		Activity:  activitySvc,
	}
}

// HTTPServices returns the services served by the REST API.
func (a *App) HTTPServices() transport.Services {
	return transport.Services{
		Landplots: a.Landplots,
		Species:   a.Species,
		Crops:     a.Crops,
		Calendar:  a.Calendar,
		Activity:  a.Activity,
	}
}

// MCPServices returns the services exposed as MCP tools.
func (a *App) MCPServices() mcp.Services {
	return mcp.Services{
		Crops:    a.Crops,
		Calendar: a.Calendar,
	}
}

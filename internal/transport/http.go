package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ganot/cropline/internal/domain/activity"
	"github.com/ganot/cropline/internal/domain/calendar"
	"github.com/ganot/cropline/internal/domain/crop"
	"github.com/ganot/cropline/internal/domain/landplot"
	"github.com/ganot/cropline/internal/domain/species"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// LandplotService is the landplot surface used by the API.
type LandplotService interface {
	Create(ctx context.Context, tenantID string, req landplot.CreateRequest) (*landplot.Landplot, error)
	Get(ctx context.Context, tenantID, id string) (*landplot.Landplot, error)
	List(ctx context.Context, tenantID string) ([]landplot.Summary, error)
}

// SpeciesService is the species surface used by the API.
type SpeciesService interface {
	ImportPlan(ctx context.Context, tenantID string, def species.PlanDefinition) (*species.GrowthPlan, error)
	GetPlan(ctx context.Context, tenantID, speciesID string) (*species.GrowthPlan, error)
	List(ctx context.Context, tenantID string) ([]species.Species, error)
	RenumberStages(ctx context.Context, tenantID, speciesID string, orderedStageIDs []string) (*species.GrowthPlan, error)
}

// CropService is the crop engine surface used by the API.
type CropService interface {
	InstantiateTimeline(ctx context.Context, tenantID string, req crop.CreateRequest) (*crop.Timeline, error)
	GetTimeline(ctx context.Context, tenantID, cropID string) (*crop.Timeline, error)
	ListCrops(ctx context.Context, tenantID string, filter crop.ListFilter) ([]crop.Crop, error)
	FinishStage(ctx context.Context, tenantID, stageID string, doneDate time.Time) (*crop.Timeline, error)
	MarkEventDone(ctx context.Context, tenantID, eventID string, doneDate time.Time) (*crop.Timeline, error)
	AddAdHocEvent(ctx context.Context, tenantID, stageID string, req crop.AdHocRequest) (*crop.Event, error)
	SubmitHarvest(ctx context.Context, tenantID, cropID string, req crop.HarvestRequest) (*crop.Timeline, error)
	UpdateStageComments(ctx context.Context, tenantID, stageID, comments string) (*crop.Timeline, error)
	EstimateCropCompletion(ctx context.Context, tenantID, cropID string) (*crop.Estimate, error)
	NextHarvest(ctx context.Context, tenantID string) (*crop.HarvestForecast, error)
}

// CalendarService projects calendars.
type CalendarService interface {
	ProjectCalendar(ctx context.Context, tenantID string, q calendar.Query) ([]calendar.Task, error)
}

// ActivityService reads the activity log.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, tenantID string, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services bundles the domain services served over HTTP.
type Services struct {
	Landplots LandplotService
	Species   SpeciesService
	Crops     CropService
	Calendar  CalendarService
	Activity  ActivityService
}

// RequestObserver records finished requests by route pattern.
type RequestObserver interface {
	ObserveRequest(route string, code int)
}

// Options configures the router.
type Options struct {
	// Auth resolves tenants for /api. Required unless a static tenant is set.
	Auth func(http.Handler) http.Handler
	// RateLimiter throttles /api per tenant. Nil disables limiting.
	RateLimiter *RateLimiter
	// Observer records per-route status codes.
	Observer RequestObserver
	// Metrics is served at /metrics when set.
	Metrics http.Handler
	// MCP is mounted at /mcp when set. It receives the raw request.
	MCP    http.Handler
	Logger *slog.Logger
}

// Server holds the HTTP handlers.
type Server struct {
	svc    Services
	logger *slog.Logger
}

// NewServer creates an HTTP router with middleware.
func NewServer(svc Services, opts Options) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	srv := &Server{svc: svc, logger: opts.Logger}

	r.Get("/health", srv.handleHealth)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
	}

	r.Route("/api", func(r chi.Router) {
		if opts.Observer != nil {
			r.Use(observeRequests(opts.Observer))
		}
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		if opts.RateLimiter != nil {
			r.Use(opts.RateLimiter.Middleware)
		}

		r.Get("/landplots", srv.listLandplots)
		r.Post("/landplots", srv.createLandplot)
		r.Get("/landplots/{id}", srv.getLandplot)

		r.Get("/species", srv.listSpecies)
		r.Post("/species", srv.importPlan)
		r.Get("/species/{id}/plan", srv.getPlan)
		r.Post("/species/{id}/renumber", srv.renumberStages)

		r.Get("/crops", srv.listCrops)
		r.Post("/crops", srv.createCrop)
		r.Get("/crops/{id}", srv.getTimeline)
		r.Get("/crops/{id}/estimate", srv.estimateCompletion)
		r.Post("/crops/{id}/harvest", srv.submitHarvest)
		r.Get("/crops/{id}/activity", srv.listActivity)

		r.Post("/stages/{id}/finish", srv.finishStage)
		r.Put("/stages/{id}/comments", srv.updateStageComments)
		r.Post("/stages/{id}/events", srv.addAdHocEvent)

		r.Post("/events/{id}/done", srv.markEventDone)

		r.Get("/calendar", srv.projectCalendar)
		r.Get("/harvest/next", srv.nextHarvest)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func observeRequests(o RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			o.ObserveRequest(r.Method+" "+route, status)
		})
	}
}

// tenant returns the request's tenant. The auth middleware guarantees one.
func tenant(r *http.Request) string {
	tenantID, _ := TenantFromContext(r.Context())
	return tenantID
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, key)
	}
	return n, nil
}

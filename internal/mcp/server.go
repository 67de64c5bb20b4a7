package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/ganot/cropline/internal/domain/calendar"
	"github.com/ganot/cropline/internal/domain/crop"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// CropService defines crop operations needed by MCP.
type CropService interface {
	InstantiateTimeline(ctx context.Context, tenantID string, req crop.CreateRequest) (*crop.Timeline, error)
	GetTimeline(ctx context.Context, tenantID, cropID string) (*crop.Timeline, error)
	FinishStage(ctx context.Context, tenantID, stageID string, doneDate time.Time) (*crop.Timeline, error)
	MarkEventDone(ctx context.Context, tenantID, eventID string, doneDate time.Time) (*crop.Timeline, error)
	AddAdHocEvent(ctx context.Context, tenantID, stageID string, req crop.AdHocRequest) (*crop.Event, error)
	SubmitHarvest(ctx context.Context, tenantID, cropID string, req crop.HarvestRequest) (*crop.Timeline, error)
	EstimateCropCompletion(ctx context.Context, tenantID, cropID string) (*crop.Estimate, error)
	NextHarvest(ctx context.Context, tenantID string) (*crop.HarvestForecast, error)
}

// CalendarService defines calendar operations needed by MCP.
type CalendarService interface {
	ProjectCalendar(ctx context.Context, tenantID string, q calendar.Query) ([]calendar.Task, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Crops    CropService
	Calendar CalendarService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      TenantResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "cropline",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is local use only and never authenticates.
	tenancy := noAuthMiddleware(DefaultTenant)
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled {
		tenancy = authMiddleware(cfg.Resolver)
	}
	// The first middleware runs outermost.
	server.AddReceivingMiddleware(tenancy, sessionMiddleware(), trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services, cfg.Logger)

	return server
}

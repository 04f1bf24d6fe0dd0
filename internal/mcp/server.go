package mcp

import (
	"context"
	"io"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Avflux/Av-sub001/internal/domain/activity"
	"github.com/Avflux/Av-sub001/internal/domain/journal"
	"github.com/Avflux/Av-sub001/internal/tracker"
)

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	Create(ctx context.Context, req activity.CreateRequest) (*activity.Activity, error)
	Get(ctx context.Context, id string) (*activity.Activity, error)
	List(ctx context.Context, opts activity.ListOptions) ([]activity.Activity, error)
}

// TrackerService defines the timer controls needed by MCP.
type TrackerService interface {
	StartActivity(ctx context.Context, userID, id string) (*activity.Info, error)
	PauseActivity(ctx context.Context, userID string) (*activity.Info, error)
	ResumeActivity(ctx context.Context, userID, id string) (*activity.Info, error)
	StopActivity(ctx context.Context, userID, reason string) (*activity.Activity, error)
	Status() tracker.Status
	DailyTotalFor(ctx context.Context, userID string) (time.Duration, error)
}

// JournalService defines journal queries needed by MCP.
type JournalService interface {
	Recent(ctx context.Context, opts journal.ListOptions) ([]journal.Entry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Activities ActivityService
	Tracker    TrackerService
	Journal    JournalService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      UserResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	DefaultUser   string
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "worktime",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio is local only and always runs as the configured user.
	if cfg.TransportMode == "http" && cfg.AuthEnabled {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware(cfg.DefaultUser))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}

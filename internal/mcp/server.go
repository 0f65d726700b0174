// Package mcp exposes the intersection registry and signal state as MCP tools.
package mcp

import (
	"context"
	"io"
	"log/slog"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/crossing/internal/domain/activity"
	"github.com/rpggio/crossing/internal/domain/intersection"
	"github.com/rpggio/crossing/internal/domain/schedule"
	"github.com/rpggio/crossing/internal/scheduler"
)

// Registry defines intersection operations needed by MCP.
type Registry interface {
	List() []intersection.Intersection
	Get(id int64) (intersection.Intersection, error)
	Create(ctx context.Context, req intersection.CreateRequest) (intersection.Intersection, error)
	Update(ctx context.Context, id int64, req intersection.UpdateRequest) (intersection.Intersection, error)
	Delete(ctx context.Context, id int64) error
}

// SignalService defines signal reads needed by MCP.
type SignalService interface {
	Snapshot(id int64) (scheduler.Snapshot, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Registry Registry
	Signals  SignalService
	Activity ActivityService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	TransportMode string // "stdio" or "http"
	Window        time.Duration
	Now           func() time.Time
	Logger        *slog.Logger
	Version       string
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Window <= 0 {
		cfg.Window = schedule.DefaultWindow
	}
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "crossing",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	client := "http"
	if cfg.TransportMode == "stdio" {
		client = "stdio"
	}
	server.AddReceivingMiddleware(clientMiddleware(client))
	server.AddReceivingMiddleware(sessionMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, &tools{
		services: cfg.Services,
		window:   cfg.Window,
		now:      cfg.Now,
		logger:   cfg.Logger,
	})

	return server
}

// Package app assembles the services behind every entrypoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/rpggio/crossing/internal/config"
	"github.com/rpggio/crossing/internal/domain/activity"
	"github.com/rpggio/crossing/internal/domain/intersection"
	"github.com/rpggio/crossing/internal/domain/recorder"
	"github.com/rpggio/crossing/internal/geolocate"
	"github.com/rpggio/crossing/internal/mcp"
	"github.com/rpggio/crossing/internal/scheduler"
	"github.com/rpggio/crossing/internal/sqlite"
	"github.com/rpggio/crossing/internal/transport"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// Option customizes an App.
type Option func(*options)

type options struct {
	now      func() time.Time
	geocoder geolocate.Geocoder
	version  string
}

// WithClock overrides the wall clock of every service.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithGeocoder replaces the Nominatim client.
func WithGeocoder(g geolocate.Geocoder) Option {
	return func(o *options) { o.geocoder = g }
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// App holds the wired services. Signals do not run until Start.
type App struct {
	Config     config.Config
	Logger     *slog.Logger
	DB         *sqlite.DB
	Registry   *intersection.Service
	Activity   *activity.Service
	Signals    *scheduler.Manager
	Recordings *recorder.Book
	Locator    *geolocate.Resolver
	MCP        *sdkmcp.Server

	now func() time.Time
}

// New opens the database, runs migrations and loads the registry.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger, activity.WithClock(o.now))
	signals := scheduler.NewManager(logger,
		scheduler.WithClock(o.now),
		scheduler.WithInterval(cfg.Schedule.Tick),
		scheduler.WithWindow(cfg.Schedule.Window),
		scheduler.WithEdgeFunc(scheduler.ActivityEdges(activitySvc, logger)),
	)
	store := intersection.NewSnapshotStore(sqlite.NewKVRepository(db), cfg.Store.Key)
	registry := intersection.NewService(store, logger,
		intersection.WithClock(o.now),
		intersection.WithListener(signals, intersection.NewAuditListener(activitySvc, logger)),
	)

	geocoder := o.geocoder
	if geocoder == nil {
		geocoder = geolocate.NewNominatimClient(geolocate.NominatimConfig{
			Endpoint:  cfg.Geocode.Endpoint,
			Language:  cfg.Geocode.Language,
			UserAgent: cfg.Geocode.UserAgent,
			Timeout:   cfg.Geocode.Timeout,
		}, nil)
	}

	a := &App{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Registry:   registry,
		Activity:   activitySvc,
		Signals:    signals,
		Recordings: recorder.NewBook(o.now, cfg.Recorder.SessionTTL),
		Locator:    geolocate.NewResolver(geocoder, cfg.Geocode.PositionTimeout, logger),
		now:        o.now,
	}
	a.MCP = mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Registry: registry,
			Signals:  signals,
			Activity: activitySvc,
		},
		TransportMode: cfg.Transport.Mode,
		Window:        cfg.Schedule.Window,
		Now:           o.now,
		Logger:        logger,
		Version:       o.version,
	})

	n := registry.Load(context.Background())
	logger.Info("registry loaded", "intersections", n, "db", cfg.DB.Path)
	return a, nil
}

// Start launches a signal for every loaded intersection.
func (a *App) Start(ctx context.Context) {
	a.Signals.Start(ctx, a.Registry.List())
}

// Close stops every signal and closes the database.
func (a *App) Close() error {
	a.Signals.Stop()
	return a.DB.Close()
}

// Handler is the dashboard API with the MCP streamable endpoint at /mcp.
func (a *App) Handler() http.Handler {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return a.MCP },
		nil,
	)

	var auth func(http.Handler) http.Handler
	if a.Config.Auth.Token != "" {
		auth = transport.AuthMiddleware(transport.StaticToken{Token: a.Config.Auth.Token})
	}
	return transport.NewServer(transport.Deps{
		Registry:   a.Registry,
		Signals:    a.Signals,
		Recordings: a.Recordings,
		Locator:    a.Locator,
		Activity:   a.Activity,
		MCP:        mcpHandler,
		Window:     a.Config.Schedule.Window,
		Refresh:    a.Config.Recorder.Refresh,
		Now:        a.now,
		Logger:     a.Logger,
	}, auth)
}

// ServeHTTP serves Handler on ln until ctx is done, then shuts down
// gracefully. Open event streams end when ctx is done.
func (a *App) ServeHTTP(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g.Go(func() error {
		a.Logger.Info("server listening", "addr", ln.Addr().String(), "auth", a.Config.Auth.Token != "")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// ServeStdio runs the MCP server over stdin/stdout until ctx is done or
// stdin closes.
func (a *App) ServeStdio(ctx context.Context) error {
	a.Logger.Info("starting stdio transport")
	if err := a.MCP.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	return nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

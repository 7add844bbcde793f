package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aussiebroadwan/portal/internal/portal/activity"
	"github.com/aussiebroadwan/portal/internal/portal/events"
	shell "github.com/aussiebroadwan/portal/internal/portal/http"
	"github.com/aussiebroadwan/portal/internal/portal/logout"
	"github.com/aussiebroadwan/portal/internal/portal/resilience"
	"github.com/aussiebroadwan/portal/internal/portal/session"
	"github.com/aussiebroadwan/portal/internal/portal/store"
	"github.com/aussiebroadwan/portal/internal/portal/store/drivers/sqlite"
	"github.com/aussiebroadwan/portal/pkg/cryptox"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
	"github.com/aussiebroadwan/portal/pkg/slogx"
	"github.com/aussiebroadwan/portal/pkg/timerx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	sealPurpose = "portal-session-keys"
)

// Application encapsulates the portal runtime with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger
	clock  timerx.Clock

	// Core dependencies
	db       store.Store
	sessions *store.Sessions
	bus      *events.Bus
	api      *portalsdk.Client
	registry *prometheus.Registry

	// Runtime
	session *session.Controller
	logout  *logout.Coordinator
	layer   *resilience.Layer

	// HTTP server
	server *http.Server
	router *shell.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg:   cfg,
		clock: timerx.Real(),
		logger: slogx.New(slogx.Config{
			Service: "ess-portal",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initSessionKeys(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initRuntime(); err != nil {
		if app.bus != nil {
			_ = app.bus.Close()
		}
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run resumes any persisted session, starts the shell and blocks until
// shutdown is requested.
func (app *Application) Run() error {
	ctx := slogx.WithContext(context.Background(), app.logger)
	resumed, err := app.session.Resume(ctx)
	switch {
	case err != nil:
		app.logger.Warn("session resume failed", "error", err)
	case resumed:
		app.logger.Info("session resumed from persisted keys")
	}

	app.logger.Info("portal shell starting", "port", app.cfg.Port, "version", BuildVersion, "embedded", app.cfg.Embedded)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application. The session is not logged
// out; its keys stay persisted for the next Resume.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down portal shell...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.session.Terminate()
	app.session.Wait()
	app.logout.Wait()

	if err := app.bus.Close(); err != nil {
		app.logger.Error("error closing event bus", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("portal shell stopped")
	return nil
}

// initDatabase opens the key store and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initSessionKeys sets up sealing for persisted tokens.
func (app *Application) initSessionKeys() error {
	material, ephemeral, err := cryptox.LoadMasterKey(cryptox.KeySource{
		Path: app.cfg.MasterKeyPath,
		Env:  app.cfg.MasterKeyEnv,
	})
	if err != nil {
		return fmt.Errorf("failed to load master key: %w", err)
	}
	if ephemeral {
		app.logger.Warn("no master key configured, persisted sessions will not survive a restart")
	}

	sealer, err := cryptox.NewSealer(material, sealPurpose)
	if err != nil {
		return fmt.Errorf("failed to create sealer: %w", err)
	}
	app.sessions = store.NewSessions(app.db, sealer)
	return nil
}

// initRuntime wires the session controller, logout coordinator and
// resilience layer.
func (app *Application) initRuntime() error {
	app.bus = events.NewBus(events.Config{}, watermill.NewStdLogger(app.cfg.LogLevel == "debug", false), app.logger)
	app.api = portalsdk.NewClient(app.cfg.APIURL)

	app.session = session.New(app.cfg.Session, session.Deps{
		Clock:    app.clock,
		Logger:   app.logger.With("component", "session"),
		API:      app.api,
		Store:    app.sessions,
		Monitor:  activity.New(app.clock, activity.DefaultThrottle),
		Notifier: app.bus,
	})

	app.logout = logout.New(app.cfg.Logout, logout.Deps{
		Clock:     app.clock,
		Logger:    app.logger.With("component", "logout"),
		Session:   app.session,
		Keys:      app.sessions,
		Publisher: app.bus,
	})
	app.session.BindLogout(app.logout)

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := resilience.NewMetrics(resilience.MetricsOptions{Registerer: app.registry})
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	app.layer = resilience.New(app.cfg.Resilience, resilience.Deps{
		Clock:    app.clock,
		Logger:   app.logger.With("component", "resilience"),
		Tokens:   app.session,
		Reporter: app.session,
		Gate:     app.session,
		Metrics:  metrics,
	})
	return nil
}

// initHTTP initializes the shell router and server.
func (app *Application) initHTTP() {
	router := shell.NewRouter(BuildVersion, app.logger)

	router.Session = app.session
	router.Logout = app.logout
	router.Layer = app.layer
	router.API = app.api
	router.Bus = app.bus
	router.Store = app.db
	router.Metrics = promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{Registry: app.registry})
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Handler returns the shell's HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

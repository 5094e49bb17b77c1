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

	httpapi "github.com/aussiebroadwan/otpgate/internal/otp/http"
	"github.com/aussiebroadwan/otpgate/internal/otp/notify"
	"github.com/aussiebroadwan/otpgate/internal/otp/service"
	"github.com/aussiebroadwan/otpgate/internal/otp/store"
	"github.com/aussiebroadwan/otpgate/internal/otp/store/drivers/sqlite"
	"github.com/aussiebroadwan/otpgate/pkg/cryptox"
	"github.com/aussiebroadwan/otpgate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the OTP service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	challengeService    *service.ChallengeService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "otp-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Handler exposes the routed HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("otp service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"diagnostic_echo", app.cfg.DiagnosticEcho,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.db.Close()
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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down otp service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("otp service stopped")
	return nil
}

// initDatabase opens the database and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
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

// initServices builds the challenge and housekeeping services.
func (app *Application) initServices() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	fingerprints, err := cryptox.NewFingerprinter(pepper)
	if err != nil {
		return fmt.Errorf("failed to initialize fingerprinter: %w", err)
	}

	if app.cfg.DiagnosticEcho && app.cfg.Env != "dev" {
		app.logger.Warn("diagnostic echo enabled outside dev; codes are returned in API responses")
	}

	app.challengeService = &service.ChallengeService{
		Store:          app.db,
		Sender:         app.initSenders(),
		Fingerprints:   fingerprints,
		DiagnosticEcho: app.cfg.DiagnosticEcho,
		IssueLimit:     app.cfg.MaxIssuesPerWindow,
		IssueWindow:    app.cfg.IssueWindow,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.Retention,
	)

	return nil
}

// initSenders wires a sender per configured channel. In dev an unconfigured
// channel logs the code instead; elsewhere it reports a failed delivery.
func (app *Application) initSenders() *notify.Router {
	r := &notify.Router{}
	fallback := &notify.LogSender{Logger: app.logger}

	switch {
	case app.cfg.SMTP.Host != "":
		r.Email = notify.NewEmailSender(notify.EmailConfig{
			Host:     app.cfg.SMTP.Host,
			Port:     app.cfg.SMTP.Port,
			Username: app.cfg.SMTP.Username,
			Password: app.cfg.SMTP.Password,
			From:     app.cfg.SMTP.From,
		})
		app.logger.Info("email channel enabled", "smtp_host", app.cfg.SMTP.Host)
	case app.cfg.Env == "dev":
		r.Email = fallback
		app.logger.Warn("email channel not configured, logging codes instead")
	default:
		app.logger.Warn("email channel not configured")
	}

	switch {
	case app.cfg.Twilio.AccountSID != "":
		r.SMS = notify.NewTwilioSender(notify.TwilioConfig{
			AccountSID: app.cfg.Twilio.AccountSID,
			AuthToken:  app.cfg.Twilio.AuthToken,
			FromNumber: app.cfg.Twilio.FromNumber,
		})
		app.logger.Info("sms channel enabled")
	case app.cfg.Env == "dev":
		r.SMS = fallback
		app.logger.Warn("sms channel not configured, logging codes instead")
	default:
		app.logger.Warn("sms channel not configured")
	}

	return r
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.logger,
		app.cfg.CORSAllowedOrigins,
	)

	router.ChallengeService = app.challengeService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

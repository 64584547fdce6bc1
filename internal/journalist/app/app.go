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

	"github.com/pressfwd/sourcedesk/internal/journalist/designation"
	httpapi "github.com/pressfwd/sourcedesk/internal/journalist/http"
	"github.com/pressfwd/sourcedesk/internal/journalist/service"
	"github.com/pressfwd/sourcedesk/internal/journalist/storage"
	"github.com/pressfwd/sourcedesk/internal/journalist/store"
	"github.com/pressfwd/sourcedesk/internal/journalist/store/drivers/sqlite"
	"github.com/pressfwd/sourcedesk/internal/journalist/vault"
	"github.com/pressfwd/sourcedesk/internal/journalist/worker"
	"github.com/pressfwd/sourcedesk/pkg/cryptox"
	"github.com/pressfwd/sourcedesk/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the journalist interface with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	vault *vault.Vault
	files *storage.Store
	tasks *worker.Pool

	authService       *service.AuthService
	accountService    *service.AccountService
	collectionService *service.CollectionService
	replyService      *service.ReplyService
	exportService     *service.ExportService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if cfg.SessionSecret == "" {
		return nil, errors.New("JOURNALIST_SESSION_SECRET must be set")
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "journalist-interface",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	v, err := vault.New(vault.Config{
		KeysDir:         cfg.KeysDir,
		NewsroomKeyPath: cfg.NewsroomKeyPath,
	})
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.vault = v

	files, err := storage.New(cfg.DataDir)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.files = files

	app.tasks = worker.NewPool(cfg.Workers, cfg.QueueDepth, cfg.TaskTimeout, app.logger)

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("journalist interface starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown gracefully shuts down the application. Queued erasure tasks are
// drained before the database closes, so no secure deletion is lost.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down journalist interface...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.tasks.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("journalist interface stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")

	if empty, err := app.db.Users().IsEmpty(context.Background()); err == nil && empty {
		app.logger.Warn("no journalist accounts exist yet")
	}
	return nil
}

func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:     app.db,
		Threshold: app.cfg.LoginThreshold,
		Cooldown:  app.cfg.LoginCooldown,
	}
	app.accountService = &service.AccountService{
		Store:  app.db,
		Issuer: app.cfg.Issuer,
	}
	app.collectionService = &service.CollectionService{
		Store: app.db,
		Vault: app.vault,
		Files: app.files,
		Tasks: app.tasks,
		Namer: designation.NewGenerator(),
	}
	app.replyService = &service.ReplyService{
		Store: app.db,
		Vault: app.vault,
		Files: app.files,
	}
	app.exportService = &service.ExportService{
		Store: app.db,
		Files: app.files,
	}
}

func (app *Application) initHTTP() {
	sessions := httpapi.NewSessions([]byte(app.cfg.SessionSecret), app.cfg.Issuer, app.cfg.SessionTTL)

	router := httpapi.NewRouter(sessions, BuildVersion, app.db, app.logger)
	router.AuthService = app.authService
	router.AccountService = app.accountService
	router.CollectionService = app.collectionService
	router.ReplyService = app.replyService
	router.ExportService = app.exportService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Package server initializes and runs the application server: it opens the
// database, runs migrations, wires services to the HTTP endpoint and handles
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mkrasovska/nutritrack/internal/logging"
	"github.com/mkrasovska/nutritrack/internal/server/config"
	"github.com/mkrasovska/nutritrack/internal/server/httpapi"
	"github.com/mkrasovska/nutritrack/internal/server/repositories/repomanager"
	"github.com/mkrasovska/nutritrack/internal/server/services"
	"github.com/mkrasovska/nutritrack/internal/server/watch"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	broker watch.Broker
	api    *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	broker := watch.NewRedisBroker(cfg.RedisAddr)

	accountService := services.NewAccountService(db, m, cfg)
	directoryService := services.NewDirectoryService(db, m)
	profileService := services.NewProfileService(db, m, broker)
	goalService := services.NewGoalService(db, m, broker)
	transferService := services.NewTransferService(db, m, broker)
	commentService := services.NewCommentService(db, m, broker, cfg)

	api := httpapi.NewServer(cfg, logger,
		accountService, directoryService, profileService,
		goalService, transferService, commentService, broker)

	return &App{config: cfg, logger: logger, db: db, broker: broker, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.api.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddrHTTP)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.broker.Close(); err != nil {
		app.logger.Error(ctx, "broker close error", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}

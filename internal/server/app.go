// Package server wires the NoteKeeper server: it opens the connection pool,
// applies migrations, builds the services and runs the REST API next to
// the gRPC health endpoint until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/config"
	"github.com/dmitrijs2005/notekeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"github.com/dmitrijs2005/notekeeper/internal/server/storage"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/notekeeper/internal/server/grpc"
)

// seams for tests
var (
	openDB        = dbx.Open
	newImageStore = storage.NewFromConfig
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	httpServer  *httpapi.Server
	health      *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config, l logging.Logger) (*App, error) {
	logger := l.With("module", "app")

	db, err := openDB(ctx, c.DatabaseDSN, c.DBConnectAttempts, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	images, err := newImageStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("image store init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	us := services.NewUserService(db, rm, images, l)
	as := services.NewAuthService(db, rm, c, l)
	ns := services.NewNoteService(db, rm, images, l)

	h := httpapi.NewHandler(us, as, ns, c.MaxUploadSize, l)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		httpServer:  httpapi.NewServer(c.HTTPAddr, httpapi.NewRouter(h), l),
		health:      gs.NewHealthServer(c.HealthAddrGRPC, l),
	}, nil
}

// Run blocks until SIGINT/SIGTERM/SIGQUIT, ctx cancellation or the first
// server failure. The pool is closed on return.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	defer app.closeDB(ctx)

	app.logger.Info(ctx, "Starting app...")

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return app.health.Run(ctx)
	})

	eg.Go(func() error {
		if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		app.logger.Info(ctx, "Migrations applied")
		app.health.SetServing(true)

		return app.httpServer.Run(ctx)
	})

	err := eg.Wait()
	app.logger.Info(ctx, "App stopped")
	return err
}

func (app *App) closeDB(ctx context.Context) {
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "close db", "error", err)
	}
}

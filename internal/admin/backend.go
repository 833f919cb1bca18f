package admin

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/config"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	"github.com/dmitrijs2005/notekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"github.com/dmitrijs2005/notekeeper/internal/server/storage"
)

type postgresBackend struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	users       *services.UserService
}

// Connect is the production Connector. Logs go to stderr so command output
// stays clean.
func Connect(ctx context.Context, cfg *config.Config) (Backend, error) {
	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		return nil, err
	}

	db, err := dbx.Open(ctx, cfg.DatabaseDSN, cfg.DBConnectAttempts, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	images, err := storage.NewFromConfig(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("image store init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	return &postgresBackend{
		db:          db,
		repomanager: rm,
		users:       services.NewUserService(db, rm, images, logger),
	}, nil
}

func (b *postgresBackend) Migrate(ctx context.Context) error {
	return b.repomanager.RunMigrations(ctx, b.db)
}

func (b *postgresBackend) Version(ctx context.Context) (int64, error) {
	return b.repomanager.MigrationVersion(ctx, b.db)
}

func (b *postgresBackend) CreateUser(ctx context.Context, r services.Registration) (*models.PublicUser, error) {
	return b.users.Register(ctx, r)
}

func (b *postgresBackend) DeleteUser(ctx context.Context, email string) error {
	return b.users.Delete(ctx, email)
}

func (b *postgresBackend) Close() error {
	return b.db.Close()
}

package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/notekeeper/internal/logging"
)

// DriverName is the database/sql driver registered by pgx/v5/stdlib.
const DriverName = "pgx"

var (
	sqlOpen   = sql.Open
	pingDelay = 300 * time.Millisecond
)

// Open creates the process-wide connection pool and waits until the
// database answers a ping, retrying up to attempts times.
func Open(ctx context.Context, dsn string, attempts uint, logger logging.Logger) (*sql.DB, error) {
	db, err := sqlOpen(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	if err := ping(ctx, db, attempts, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func ping(ctx context.Context, db *sql.DB, attempts uint, logger logging.Logger) error {
	if attempts == 0 {
		attempts = 1
	}

	err := retry.Do(
		func() error { return db.PingContext(ctx) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(pingDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			logger.Warn(ctx, "failed ping to database", "attempt", attempt, "err", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	return nil
}

package store

import (
	"context"
	"embed"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies pending schema migrations to the database behind pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return oops.Code("MIGRATE_FAILED").Wrapf(err, "configure goose")
	}

	runCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	logger.Info("applying migrations")
	if err := goose.UpContext(runCtx, db, "migrations"); err != nil {
		return oops.Code("MIGRATE_FAILED").Wrapf(err, "apply migrations")
	}

	version, err := goose.GetDBVersionContext(runCtx, db)
	if err != nil {
		return oops.Code("MIGRATE_FAILED").Wrapf(err, "read schema version")
	}
	logger.Info("migrations applied", "version", version)
	return nil
}

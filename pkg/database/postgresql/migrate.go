package postgresql

import (
	"context"
	"fmt"

	"nusantara-erp/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// Goose runs a goose command ("up", "down", "status", ...) over the embedded migrations.
func Goose(ctx context.Context, pool *pgxpool.Pool, command string, logger *zap.Logger) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(zap.NewStdLog(logger))
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	if err := goose.RunContext(ctx, command, db, "."); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	return Goose(ctx, pool, "up", logger)
}

// Package db opens the PostgreSQL connection, applies the schema
// migrations and runs background maintenance on the store.
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/NoteKeeper/internal/db/migrations"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// migrate applies the embedded migrations; replaced in tests.
var migrate = func(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// InitPostgres connects to dsn, verifies the connection and brings the
// schema up to date.
func InitPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := prepare(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func prepare(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

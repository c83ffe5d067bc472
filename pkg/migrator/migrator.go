// Package migrator applies the goose migrations embedded by each bounded
// context under migrations/.
package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// goose keeps its base FS and dialect in package state.
var mu sync.Mutex

// RunMigrations opens dbURL with pgx and applies every pending migration in files.
func RunMigrations(ctx context.Context, dbURL string, files fs.FS) error {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	return Up(ctx, db, "postgres", files)
}

// Up applies pending migrations from files using the goose dialect name.
func Up(ctx context.Context, db *sql.DB, dialect string, files fs.FS) error {
	mu.Lock()
	defer mu.Unlock()

	if err := configure(dialect, files); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to up migrations: %w", err)
	}
	return nil
}

// Reset rolls every migration back.
func Reset(ctx context.Context, db *sql.DB, dialect string, files fs.FS) error {
	mu.Lock()
	defer mu.Unlock()

	if err := configure(dialect, files); err != nil {
		return err
	}
	if err := goose.ResetContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}
	return nil
}

// Version reports the latest applied migration.
func Version(ctx context.Context, db *sql.DB, dialect string, files fs.FS) (int64, error) {
	mu.Lock()
	defer mu.Unlock()

	if err := configure(dialect, files); err != nil {
		return 0, err
	}
	v, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return v, nil
}

func configure(dialect string, files fs.FS) error {
	goose.SetBaseFS(files)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

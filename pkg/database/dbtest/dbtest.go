// Package dbtest opens throwaway databases for tests.
package dbtest

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ghuser/ghshop/pkg/database"
	"github.com/ghuser/ghshop/pkg/logger"
)

// OpenSQLite returns a Database backed by a private in-memory SQLite
// database. The schema is created by migrate, which receives the gorm handle.
func OpenSQLite(t testing.TB, migrate func(*gorm.DB) error) *database.Database {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString())

	db, err := database.Open(sqlite.Open(dsn), database.Options{}, logger.Discard())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// one connection keeps the in-memory database alive for the whole test
	db.DB().SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if migrate != nil {
		if err := migrate(db.Gorm()); err != nil {
			t.Fatalf("migrate sqlite: %v", err)
		}
	}
	return db
}

// OpenPostgres connects to TEST_POSTGRES_DSN, skipping the test when unset.
func OpenPostgres(t testing.TB, migrate func(*gorm.DB) error) *database.Database {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	db, err := database.Open(postgres.Open(dsn), database.Options{}, logger.Discard())
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if migrate != nil {
		if err := migrate(db.Gorm()); err != nil {
			t.Fatalf("migrate postgres: %v", err)
		}
	}
	return db
}

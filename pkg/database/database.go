// Package database owns the shared Postgres connection pool and the gorm
// handle the repositories build their queries on.
//
// The pool is a plain *sql.DB opened through the pgx stdlib driver so the same
// connection can be handed to libraries that expect database/sql (watermill's
// transactional publisher, goose). gorm is layered on top of that pool.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/ghuser/ghshop/pkg/logger"
)

// Options tunes the connection pool and query logging.
type Options struct {
	MaxConns  int
	SlowQuery time.Duration
}

// Database wraps the *sql.DB pool and the gorm handle sharing it.
type Database struct {
	sqlDB *sql.DB
	gorm  *gorm.DB
	log   logger.Logger
}

// NewPool opens a Postgres pool at url, verifies connectivity, and attaches gorm.
func NewPool(ctx context.Context, url string, opts Options, log logger.Logger) (*Database, error) {
	sqlDB, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	if opts.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxConns)
		sqlDB.SetMaxIdleConns(max(opts.MaxConns/2, 1))
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	db, err := Open(postgres.New(postgres.Config{Conn: sqlDB}), opts, log)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Open attaches gorm to the connection behind dialector. NewPool uses it for
// Postgres; tests use it with the sqlite dialector.
func Open(dialector gorm.Dialector, opts Options, log logger.Logger) (*Database, error) {
	g, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newGormLogger(log, opts.SlowQuery),
		TranslateError:         true,
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("database: open gorm: %w", err)
	}

	plugin, err := newRoundTripPlugin()
	if err != nil {
		return nil, err
	}
	if err := g.Use(plugin); err != nil {
		return nil, fmt.Errorf("database: register round trip plugin: %w", err)
	}

	sqlDB, err := g.DB()
	if err != nil {
		return nil, fmt.Errorf("database: unwrap sql.DB: %w", err)
	}

	return &Database{sqlDB: sqlDB, gorm: g, log: log}, nil
}

// Gorm returns the gorm handle. Always scope it with WithContext before use.
func (d *Database) Gorm() *gorm.DB {
	return d.gorm
}

// DB returns the underlying *sql.DB.
func (d *Database) DB() *sql.DB {
	return d.sqlDB
}

// WithTx runs fn inside a single transaction. The transaction commits when fn
// returns nil and rolls back on error or panic.
func (d *Database) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if err := d.gorm.WithContext(ctx).Transaction(fn); err != nil {
		return err
	}
	return nil
}

// SQLTx extracts the *sql.Tx backing a gorm transaction handle so that
// database/sql based publishers can join the same transaction.
func SQLTx(tx *gorm.DB) (*sql.Tx, error) {
	sqlTx, ok := tx.Statement.ConnPool.(*sql.Tx)
	if !ok {
		return nil, errors.New("database: gorm handle is not bound to a transaction")
	}
	return sqlTx, nil
}

// Ping checks database connectivity.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: ping: %w", err)
	}
	return nil
}

// Close releases the pool.
func (d *Database) Close() error {
	if err := d.sqlDB.Close(); err != nil {
		return fmt.Errorf("database: close: %w", err)
	}
	d.log.Info("database pool closed")
	return nil
}

// Command shop applies the shop schema migrations to DATABASE_URL.
package main

import (
	"context"
	"embed"

	"github.com/ghuser/ghshop/pkg/config"
	"github.com/ghuser/ghshop/pkg/logger"
	"github.com/ghuser/ghshop/pkg/migrator"
)

//go:embed *.sql
var MigrationsFS embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg)
	if err := migrator.RunMigrations(context.Background(), cfg.DatabaseURL, MigrationsFS); err != nil {
		log.Error("shop migrations failed", "error", err)
		panic(err)
	}
	log.Info("shop migrations applied")
}

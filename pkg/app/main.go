// Package app holds the infrastructure container shared by every bounded
// context's route and service wiring.
package app

import (
	"github.com/gorilla/sessions"

	"github.com/ghuser/ghshop/pkg/cache"
	"github.com/ghuser/ghshop/pkg/config"
	"github.com/ghuser/ghshop/pkg/database"
	"github.com/ghuser/ghshop/pkg/events"
	"github.com/ghuser/ghshop/pkg/logger"
	"github.com/ghuser/ghshop/pkg/workflows"
)

// Application holds shared infrastructure dependencies for all services.
//
// Logging: Logger is backed by a trace-aware handler. Use the context methods
// so trace_id, span_id and request_id are attached:
//
//	app.Logger.InfoContext(ctx, "order placed", "order_id", id)
//
// Redis, EventBus, TemporalClient and SessionStore are optional; nil means
// the process runs without that dependency (shopctl, tests, worker without
// Temporal).
type Application struct {
	Config         *config.Config
	Db             *database.Database
	Logger         logger.Logger
	EventBus       *events.EventBus
	Redis          *cache.RedisClient
	TemporalClient *workflows.TemporalClient
	SessionStore   sessions.Store
}

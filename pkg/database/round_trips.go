package database

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"
)

// RoundTrips counts the statements sent to the database under one context.
type RoundTrips struct {
	n atomic.Int64
}

// Count returns the number of statements recorded so far.
func (r *RoundTrips) Count() int {
	return int(r.n.Load())
}

type roundTripsKey struct{}

// CountRoundTrips returns a context that records every statement issued with
// it. Nested calls share the outermost counter.
func CountRoundTrips(ctx context.Context) (context.Context, *RoundTrips) {
	if rt, ok := ctx.Value(roundTripsKey{}).(*RoundTrips); ok {
		return ctx, rt
	}
	rt := &RoundTrips{}
	return context.WithValue(ctx, roundTripsKey{}, rt), rt
}

// roundTripPlugin hooks every gorm callback chain that reaches the database.
type roundTripPlugin struct {
	statements metric.Int64Counter
}

func newRoundTripPlugin() (*roundTripPlugin, error) {
	counter, err := otel.Meter("github.com/ghuser/ghshop/pkg/database").Int64Counter(
		"db.client.statements",
		metric.WithDescription("Statements sent to the database"),
		metric.WithUnit("{statement}"),
	)
	if err != nil {
		return nil, fmt.Errorf("database: create statement counter: %w", err)
	}
	return &roundTripPlugin{statements: counter}, nil
}

func (p *roundTripPlugin) Name() string { return "ghshop:round_trips" }

func (p *roundTripPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	hooks := []struct {
		name string
		err  error
	}{
		{"query", cb.Query().After("gorm:query").Register("ghshop:round_trips_query", p.record("query"))},
		{"row", cb.Row().After("gorm:row").Register("ghshop:round_trips_row", p.record("row"))},
		{"raw", cb.Raw().After("gorm:raw").Register("ghshop:round_trips_raw", p.record("raw"))},
		{"create", cb.Create().After("gorm:create").Register("ghshop:round_trips_create", p.record("create"))},
		{"update", cb.Update().After("gorm:update").Register("ghshop:round_trips_update", p.record("update"))},
		{"delete", cb.Delete().After("gorm:delete").Register("ghshop:round_trips_delete", p.record("delete"))},
	}
	for _, h := range hooks {
		if h.err != nil {
			return fmt.Errorf("register %s callback: %w", h.name, h.err)
		}
	}
	return nil
}

func (p *roundTripPlugin) record(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		// nothing was sent: dry run or the statement failed to build
		if db.DryRun || db.Statement.SQL.Len() == 0 {
			return
		}
		ctx := db.Statement.Context
		if rt, ok := ctx.Value(roundTripsKey{}).(*RoundTrips); ok {
			rt.n.Add(1)
		}
		p.statements.Add(ctx, 1, metric.WithAttributes(attribute.String("db.operation", operation)))
	}
}

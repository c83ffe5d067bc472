// Package subscribers consumes the order events of the shop context.
package subscribers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgevents "github.com/ghuser/ghshop/pkg/events"
	"github.com/ghuser/ghshop/pkg/logger"
	"github.com/ghuser/ghshop/services/shop/domain/events"
)

// Bus is the consuming side of the event bus.
type Bus interface {
	Handle(ctx context.Context, topic string, h pkgevents.Handler) error
}

// ItemEvicter drops cached catalog entries.
type ItemEvicter interface {
	Delete(ctx context.Context, itemIDs ...uuid.UUID) error
}

// DeliveryStarter starts fulfilment of a placed order.
type DeliveryStarter func(ctx context.Context, orderID uuid.UUID) error

// OrderSubscribers reacts to order.placed and order.cancelled. Cache is
// required; a nil Deliveries disables fulfilment.
type OrderSubscribers struct {
	Cache      ItemEvicter
	Deliveries DeliveryStarter
	Log        logger.Logger
}

// Register subscribes every handler on bus.
func (s *OrderSubscribers) Register(ctx context.Context, bus Bus) error {
	if err := bus.Handle(ctx, events.TopicOrderPlaced, pkgevents.Typed(s.OnOrderPlaced)); err != nil {
		return err
	}
	if err := bus.Handle(ctx, events.TopicOrderCancelled, pkgevents.Typed(s.OnOrderCancelled)); err != nil {
		return err
	}
	s.Log.InfoContext(ctx, "order subscribers registered",
		"topics", []string{events.TopicOrderPlaced, events.TopicOrderCancelled},
		"deliveries", s.Deliveries != nil)
	return nil
}

// OnOrderPlaced evicts the stock that changed and starts the delivery.
func (s *OrderSubscribers) OnOrderPlaced(ctx context.Context, evt events.OrderPlacedEvent) error {
	if err := checkVersion(evt.Version); err != nil {
		return err
	}
	s.evict(ctx, evt.OrderID, evt.Lines)
	if s.Deliveries == nil {
		return nil
	}
	if err := s.Deliveries(ctx, evt.OrderID); err != nil {
		return fmt.Errorf("order %s: %w", evt.OrderID, err)
	}
	s.Log.InfoContext(ctx, "delivery started", "order_id", evt.OrderID, "event_id", evt.EventID)
	return nil
}

// OnOrderCancelled evicts the restocked items.
func (s *OrderSubscribers) OnOrderCancelled(ctx context.Context, evt events.OrderCancelledEvent) error {
	if err := checkVersion(evt.Version); err != nil {
		return err
	}
	s.evict(ctx, evt.OrderID, evt.Lines)
	return nil
}

// evict is best-effort: a stale entry expires with its TTL.
func (s *OrderSubscribers) evict(ctx context.Context, orderID uuid.UUID, lines []events.OrderLine) {
	ids := events.ItemIDs(lines)
	if len(ids) == 0 {
		return
	}
	if err := s.Cache.Delete(ctx, ids...); err != nil {
		s.Log.WarnContext(ctx, "item cache eviction failed", "order_id", orderID, "error", err)
		return
	}
	s.Log.DebugContext(ctx, "item cache evicted", "order_id", orderID, "items", len(ids))
}

func checkVersion(v int) error {
	if v > events.EventVersion {
		return pkgevents.Permanent(fmt.Errorf("unsupported event version %d", v))
	}
	return nil
}

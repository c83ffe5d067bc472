package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/ghshop/services/shop/domain/models"
)

// Watermill topics published by the order lifecycle.
const (
	TopicOrderPlaced    = "order.placed"
	TopicOrderCancelled = "order.cancelled"
)

// EventVersion is bumped on breaking payload changes.
const EventVersion = 1

// OrderLine describes one line of the order in an event payload.
type OrderLine struct {
	ItemID     uuid.UUID `json:"item_id"`
	OrderPrice int       `json:"order_price"`
	Count      int       `json:"count"`
}

// OrderPlacedEvent is published in the same transaction that persists a new order.
type OrderPlacedEvent struct {
	EventID    uuid.UUID   `json:"event_id"` // Unique publish-time identifier for deduplication
	Version    int         `json:"version"`
	OrderID    uuid.UUID   `json:"order_id"`
	MemberID   uuid.UUID   `json:"member_id"`
	TotalPrice int         `json:"total_price"`
	Lines      []OrderLine `json:"lines"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// OrderCancelledEvent is published in the same transaction that cancels an order.
// Lines carry the quantities returned to stock.
type OrderCancelledEvent struct {
	EventID    uuid.UUID   `json:"event_id"`
	Version    int         `json:"version"`
	OrderID    uuid.UUID   `json:"order_id"`
	MemberID   uuid.UUID   `json:"member_id"`
	Lines      []OrderLine `json:"lines"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// NewOrderPlaced builds the event for a freshly created order.
func NewOrderPlaced(o *models.Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		EventID:    uuid.New(),
		Version:    EventVersion,
		OrderID:    o.ID(),
		MemberID:   o.Member().ID,
		TotalPrice: o.TotalPrice(),
		Lines:      linesOf(o),
		OccurredAt: time.Now().UTC(),
	}
}

// NewOrderCancelled builds the event for a cancelled order.
func NewOrderCancelled(o *models.Order) OrderCancelledEvent {
	return OrderCancelledEvent{
		EventID:    uuid.New(),
		Version:    EventVersion,
		OrderID:    o.ID(),
		MemberID:   o.Member().ID,
		Lines:      linesOf(o),
		OccurredAt: time.Now().UTC(),
	}
}

// ItemIDs returns the distinct items touched by the lines.
func ItemIDs(lines []OrderLine) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(lines))
	out := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ItemID]; ok {
			continue
		}
		seen[l.ItemID] = struct{}{}
		out = append(out, l.ItemID)
	}
	return out
}

func linesOf(o *models.Order) []OrderLine {
	items := o.Items()
	lines := make([]OrderLine, 0, len(items))
	for _, oi := range items {
		lines = append(lines, OrderLine{ItemID: oi.Item().ID, OrderPrice: oi.OrderPrice(), Count: oi.Count()})
	}
	return lines
}

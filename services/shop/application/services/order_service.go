package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/ghuser/ghshop/pkg/database"
	"github.com/ghuser/ghshop/pkg/logger"
	"github.com/ghuser/ghshop/services/shop/domain/models"
	"github.com/ghuser/ghshop/services/shop/domain/repositories"
	domainsvcs "github.com/ghuser/ghshop/services/shop/domain/services"
	"github.com/ghuser/ghshop/services/shop/domain/views"
)

const meterName = "github.com/ghuser/ghshop/services/shop"

// OrderLineInput is one requested line of PlaceOrder.
type OrderLineInput struct {
	ItemID uuid.UUID
	Count  int
}

type orderMetrics struct {
	placed     metric.Int64Counter
	cancelled  metric.Int64Counter
	roundTrips metric.Int64Histogram
}

func newOrderMetrics() (*orderMetrics, error) {
	meter := otel.Meter(meterName)
	placed, err := meter.Int64Counter("shop.orders.placed",
		metric.WithDescription("Orders placed"),
		metric.WithUnit("{order}"))
	if err != nil {
		return nil, err
	}
	cancelled, err := meter.Int64Counter("shop.orders.cancelled",
		metric.WithDescription("Orders cancelled"),
		metric.WithUnit("{order}"))
	if err != nil {
		return nil, err
	}
	roundTrips, err := meter.Int64Histogram("shop.order_query.round_trips",
		metric.WithDescription("Database round trips per order search"),
		metric.WithUnit("{statement}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 5, 10, 25, 100, 1000))
	if err != nil {
		return nil, err
	}
	return &orderMetrics{placed: placed, cancelled: cancelled, roundTrips: roundTrips}, nil
}

func noopOrderMetrics() *orderMetrics {
	meter := noop.Meter{}
	placed, _ := meter.Int64Counter("shop.orders.placed")
	cancelled, _ := meter.Int64Counter("shop.orders.cancelled")
	roundTrips, _ := meter.Int64Histogram("shop.order_query.round_trips")
	return &orderMetrics{placed: placed, cancelled: cancelled, roundTrips: roundTrips}
}

// OrderService runs the order lifecycle and the order searches.
// Placing and cancelling publish domain events through the repository outbox.
type OrderService struct {
	uow     repositories.UnitOfWork
	log     logger.Logger
	metrics *orderMetrics
	evicter ItemEvicter
}

// ItemEvicter drops cached copies of items whose stock changed.
type ItemEvicter interface {
	Evict(ctx context.Context, ids ...uuid.UUID)
}

// WithItemEvicter makes the service evict the items of an order once placing
// or cancelling it has committed.
func (s *OrderService) WithItemEvicter(e ItemEvicter) *OrderService {
	s.evicter = e
	return s
}

func (s *OrderService) evictItems(ctx context.Context, order *models.Order) {
	if s.evicter == nil {
		return
	}
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0, len(order.Items()))
	for _, oi := range order.Items() {
		id := oi.Item().ID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	s.evicter.Evict(ctx, ids...)
}

// NewOrderService returns an OrderService. Instruments come from the global
// OTel meter provider; if they cannot be created the service runs unmetered.
func NewOrderService(uow repositories.UnitOfWork, log logger.Logger) *OrderService {
	m, err := newOrderMetrics()
	if err != nil {
		log.Warn("order metrics disabled", "error", err)
		m = noopOrderMetrics()
	}
	return &OrderService{uow: uow, log: log, metrics: m}
}

// PlaceOrder creates an order for memberID in one unit of work. Each line is
// priced at the item's current price and takes its stock; the delivery is
// addressed to the member.
func (s *OrderService) PlaceOrder(ctx context.Context, memberID uuid.UUID, lines []OrderLineInput) (*models.Order, error) {
	var order *models.Order
	err := s.uow.InTx(ctx, func(store repositories.Store) error {
		member, err := store.Members().GetByID(ctx, memberID)
		if err != nil {
			return err
		}
		ids := make([]uuid.UUID, len(lines))
		for i, l := range lines {
			ids[i] = l.ItemID
		}
		items, err := store.Items().GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		orderLines := make([]domainsvcs.OrderLine, len(lines))
		for i, l := range lines {
			orderLines[i] = domainsvcs.OrderLine{Item: items[i], Count: l.Count}
		}

		order, err = domainsvcs.PlaceOrder(member, orderLines)
		if err != nil {
			return err
		}
		return store.Orders().Save(ctx, order)
	})
	if err != nil {
		return nil, fmt.Errorf("place order: %w", err)
	}
	s.evictItems(ctx, order)

	s.metrics.placed.Add(ctx, 1)
	s.log.InfoContext(ctx, "order placed",
		"order_id", order.ID(), "member_id", memberID, "lines", len(lines), "total_price", order.TotalPrice())
	return order, nil
}

// CancelOrder cancels an order and returns its stock.
func (s *OrderService) CancelOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order *models.Order
	err := s.uow.InTx(ctx, func(store repositories.Store) error {
		var err error
		order, err = store.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := order.Cancel(); err != nil {
			return err
		}
		return store.Orders().SaveCancellation(ctx, order)
	})
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	s.evictItems(ctx, order)

	s.metrics.cancelled.Add(ctx, 1)
	s.log.InfoContext(ctx, "order cancelled", "order_id", id)
	return order, nil
}

// CompleteDelivery marks the order's delivery COMPLETED. Completing twice is
// a no-op; cancelled orders fail with ErrOrderCancelled.
func (s *OrderService) CompleteDelivery(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order *models.Order
	err := s.uow.InTx(ctx, func(store repositories.Store) error {
		var err error
		order, err = store.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if order.Delivery().Status() == models.DeliveryStatusCompleted {
			return nil
		}
		if err := order.CompleteDelivery(); err != nil {
			return err
		}
		return store.Orders().SaveDelivery(ctx, order)
	})
	if err != nil {
		return nil, fmt.Errorf("complete delivery: %w", err)
	}
	return order, nil
}

// Get loads one order projected with its lines.
func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (views.Order, error) {
	var out views.Order
	err := s.uow.Read(ctx, func(store repositories.Store) error {
		order, err := store.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		out = views.FromOrder(order)
		return nil
	})
	if err != nil {
		return views.Order{}, fmt.Errorf("get order: %w", err)
	}
	return out, nil
}

// Search runs search with strategy and returns the nested projections. Every
// strategy yields the same set for the same search; only the number of round
// trips differs.
func (s *OrderService) Search(ctx context.Context, search repositories.OrderSearch, strategy repositories.FetchStrategy) ([]views.Order, error) {
	ctx, trips := database.CountRoundTrips(ctx)
	before := trips.Count()

	var out []views.Order
	err := s.uow.Read(ctx, func(store repositories.Store) error {
		q := store.OrderQueries()
		switch strategy {
		case repositories.FetchProjection:
			var err error
			out, err = q.FindOrderViews(ctx, search)
			return err
		case repositories.FetchFlat:
			rows, err := q.FindFlatRows(ctx, search)
			if err != nil {
				return err
			}
			out = views.GroupFlatRows(rows)
			return nil
		default:
			orders, err := q.FindOrders(ctx, search, strategy)
			if err != nil {
				return err
			}
			out = views.FromOrders(orders)
			return nil
		}
	})
	if err != nil {
		return nil, fmt.Errorf("search orders (%s): %w", strategy, err)
	}

	n := trips.Count() - before
	s.metrics.roundTrips.Record(ctx, int64(n), metric.WithAttributes(attribute.String("strategy", string(strategy))))
	s.log.DebugContext(ctx, "orders searched", "strategy", strategy, "orders", len(out), "round_trips", n)
	return out, nil
}

// FlatRows returns one row per order line.
func (s *OrderService) FlatRows(ctx context.Context, search repositories.OrderSearch) ([]views.FlatRow, error) {
	var rows []views.FlatRow
	err := s.uow.Read(ctx, func(store repositories.Store) error {
		var err error
		rows, err = store.OrderQueries().FindFlatRows(ctx, search)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("flat order rows: %w", err)
	}
	return rows, nil
}

// Summaries returns orders without their lines.
func (s *OrderService) Summaries(ctx context.Context, search repositories.OrderSearch) ([]views.OrderSummary, error) {
	var out []views.OrderSummary
	err := s.uow.Read(ctx, func(store repositories.Store) error {
		var err error
		out, err = store.OrderQueries().FindSummaries(ctx, search)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("order summaries: %w", err)
	}
	return out, nil
}

// MemberOrders lists every order of one member.
func (s *OrderService) MemberOrders(ctx context.Context, memberID uuid.UUID) ([]views.Order, error) {
	return s.Search(ctx, repositories.OrderSearch{MemberID: memberID}, repositories.FetchJoin)
}

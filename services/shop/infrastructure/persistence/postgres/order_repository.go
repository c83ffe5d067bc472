package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ghuser/ghshop/pkg/database"
	pkgevents "github.com/ghuser/ghshop/pkg/events"
	shopdomain "github.com/ghuser/ghshop/services/shop/domain"
	"github.com/ghuser/ghshop/services/shop/domain/events"
	"github.com/ghuser/ghshop/services/shop/domain/models"
	"github.com/ghuser/ghshop/services/shop/domain/repositories"
)

type orderRepository struct {
	db        *gorm.DB
	ids       *identityMap
	publisher TxPublisherFactory
	queries   *orderQueryRepository
}

// Save inserts the delivery, the order and its lines, writes the stock taken
// from each item and publishes order.placed through the transaction.
func (r *orderRepository) Save(ctx context.Context, o *models.Order) error {
	db := r.db.WithContext(ctx)

	delivery := deliveryToRecord(o.Delivery())
	if err := db.Create(&delivery).Error; err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}

	rec := orderRecord{
		ID:         o.ID(),
		MemberID:   o.Member().ID,
		DeliveryID: o.Delivery().ID(),
		OrderDate:  o.OrderDate(),
		Status:     string(o.Status()),
	}
	if err := db.Create(&rec).Error; err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	orderItems := o.Items()
	lines := make([]orderItemRecord, len(orderItems))
	items := make([]*models.Item, len(orderItems))
	for i, oi := range orderItems {
		lines[i] = orderItemRecord{
			ID:         oi.ID(),
			OrderID:    o.ID(),
			ItemID:     oi.Item().ID,
			Position:   i,
			OrderPrice: oi.OrderPrice(),
			Count:      oi.Count(),
		}
		items[i] = oi.Item()
	}
	if err := db.Create(&lines).Error; err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}
	if err := updateStock(ctx, r.db, r.ids, items); err != nil {
		return err
	}

	r.ids.putOrder(o)
	return r.publish(ctx, events.TopicOrderPlaced, events.NewOrderPlaced(o))
}

// SaveCancellation writes the cancelled status and the restored stock. Only
// an ORDERED row is updated, so of two concurrent cancellations one fails
// with ErrOrderAlreadyCancelled and nothing is restocked twice.
func (r *orderRepository) SaveCancellation(ctx context.Context, o *models.Order) error {
	res := r.db.WithContext(ctx).Model(&orderRecord{}).
		Where("id = ? AND status = ?", o.ID(), string(models.OrderStatusOrdered)).
		Update("status", string(o.Status()))
	if res.Error != nil {
		return fmt.Errorf("update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&orderRecord{}).Where("id = ?", o.ID()).Count(&count).Error; err != nil {
			return fmt.Errorf("check order %s: %w", o.ID(), err)
		}
		if count == 0 {
			return shopdomain.ErrOrderNotFound
		}
		return shopdomain.ErrOrderAlreadyCancelled
	}

	orderItems := o.Items()
	items := make([]*models.Item, len(orderItems))
	for i, oi := range orderItems {
		items[i] = oi.Item()
	}
	if err := updateStock(ctx, r.db, r.ids, items); err != nil {
		return err
	}
	return r.publish(ctx, events.TopicOrderCancelled, events.NewOrderCancelled(o))
}

func (r *orderRepository) SaveDelivery(ctx context.Context, o *models.Order) error {
	d := o.Delivery()
	res := r.db.WithContext(ctx).Model(&deliveryRecord{}).Where("id = ?", d.ID()).Update("status", string(d.Status()))
	if res.Error != nil {
		return fmt.Errorf("update delivery status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return shopdomain.ErrOrderNotFound
	}
	return nil
}

// GetByID loads the aggregate with the to-one join plan.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if o, ok := r.ids.orders[id]; ok {
		return o, nil
	}
	orders, err := r.queries.joinToOne(ctx, criteria{
		search:   repositories.OrderSearch{Limit: 1},
		orderIDs: []uuid.UUID{id},
	})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, shopdomain.ErrOrderNotFound
	}
	return orders[0], nil
}

// publish writes payload to the outbox inside the current transaction. It is
// a no-op when the store was opened without a publisher.
func (r *orderRepository) publish(ctx context.Context, topic string, payload any) error {
	if r.publisher == nil {
		return nil
	}
	tx, err := database.SQLTx(r.db)
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	pub, err := r.publisher.NewTxPublisher(tx)
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	msg, err := pkgevents.NewMessage(ctx, topic, payload)
	if err != nil {
		return err
	}
	if err := pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

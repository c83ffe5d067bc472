package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/ghshop/services/shop/domain"
)

// OrderStatus is the lifecycle state of an Order.
type OrderStatus string

const (
	OrderStatusOrdered   OrderStatus = "ORDERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus maps a case-insensitive status name to an OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case OrderStatusOrdered:
		return OrderStatusOrdered, nil
	case OrderStatusCancelled:
		return OrderStatusCancelled, nil
	}
	return "", fmt.Errorf("%w: unknown order status %q", domain.ErrInvalidOrder, s)
}

// DeliveryStatus is the fulfilment state of a Delivery.
type DeliveryStatus string

const (
	DeliveryStatusReady     DeliveryStatus = "READY"
	DeliveryStatusCompleted DeliveryStatus = "COMPLETED"
)

// Delivery is the shipment of one order. It is created detached and bound to
// its order by CreateOrder; it is never persisted on its own.
type Delivery struct {
	id      uuid.UUID
	address Address
	status  DeliveryStatus
	order   *Order
}

// NewDelivery creates a READY delivery to address.
func NewDelivery(address Address) *Delivery {
	return &Delivery{id: uuid.New(), address: address, status: DeliveryStatusReady}
}

// RehydrateDelivery rebuilds a Delivery loaded from storage.
func RehydrateDelivery(id uuid.UUID, address Address, status DeliveryStatus) *Delivery {
	return &Delivery{id: id, address: address, status: status}
}

func (d *Delivery) ID() uuid.UUID          { return d.id }
func (d *Delivery) Address() Address       { return d.address }
func (d *Delivery) Status() DeliveryStatus { return d.status }
func (d *Delivery) Order() *Order          { return d.order }

// OrderItem is one line of an order: an item, the unit price captured when
// the line was created, and a positive count.
type OrderItem struct {
	id         uuid.UUID
	item       *Item
	orderPrice int
	count      int
	order      *Order
}

// NewOrderItem snapshots price and count and takes count units from item's
// stock. On ErrNotEnoughStock no order item is created and the stock is unchanged.
func NewOrderItem(item *Item, orderPrice, count int) (*OrderItem, error) {
	if item == nil {
		return nil, fmt.Errorf("%w: item is required", domain.ErrInvalidOrder)
	}
	if count <= 0 {
		return nil, domain.ErrInvalidOrderCount
	}
	if orderPrice < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidOrder)
	}
	if err := item.RemoveStock(count); err != nil {
		return nil, err
	}
	return &OrderItem{id: uuid.New(), item: item, orderPrice: orderPrice, count: count}, nil
}

// RehydrateOrderItem rebuilds an OrderItem loaded from storage without
// touching stock.
func RehydrateOrderItem(id uuid.UUID, item *Item, orderPrice, count int) *OrderItem {
	return &OrderItem{id: id, item: item, orderPrice: orderPrice, count: count}
}

func (oi *OrderItem) ID() uuid.UUID   { return oi.id }
func (oi *OrderItem) Item() *Item     { return oi.item }
func (oi *OrderItem) OrderPrice() int { return oi.orderPrice }
func (oi *OrderItem) Count() int      { return oi.count }
func (oi *OrderItem) Order() *Order   { return oi.order }

// TotalPrice is price × count.
func (oi *OrderItem) TotalPrice() int {
	return oi.orderPrice * oi.count
}

// cancel returns the line's units to stock.
func (oi *OrderItem) cancel() error {
	return oi.item.AddStock(oi.count)
}

// Order is the aggregate root tying a member, a delivery and order items.
type Order struct {
	id        uuid.UUID
	member    *Member
	items     []*OrderItem
	delivery  *Delivery
	orderDate time.Time
	status    OrderStatus
}

// CreateOrder binds member, delivery and items into a new ORDERED order.
// Stock was already taken when each order item was created, so no stock
// changes here. All preconditions are checked before any link is made.
func CreateOrder(member *Member, delivery *Delivery, items ...*OrderItem) (*Order, error) {
	if member == nil {
		return nil, domain.ErrOrderMemberRequired
	}
	if delivery == nil {
		return nil, domain.ErrOrderDeliveryRequired
	}
	if delivery.order != nil {
		return nil, domain.ErrDeliveryAttached
	}
	if len(items) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	seen := make(map[*OrderItem]struct{}, len(items))
	for _, oi := range items {
		if oi == nil {
			return nil, fmt.Errorf("%w: nil order item", domain.ErrInvalidOrder)
		}
		if _, dup := seen[oi]; dup || oi.order != nil {
			return nil, domain.ErrOrderItemAttached
		}
		seen[oi] = struct{}{}
	}

	o := &Order{
		id:        uuid.New(),
		orderDate: time.Now().UTC(),
		status:    OrderStatusOrdered,
	}
	o.bind(member, delivery, items)
	return o, nil
}

// RehydrateOrder rebuilds an Order loaded from storage and restores every
// back-reference (member, delivery, order items).
func RehydrateOrder(id uuid.UUID, member *Member, delivery *Delivery, orderDate time.Time, status OrderStatus, items ...*OrderItem) *Order {
	o := &Order{id: id, orderDate: orderDate, status: status}
	o.bind(member, delivery, items)
	return o
}

func (o *Order) bind(member *Member, delivery *Delivery, items []*OrderItem) {
	o.member = member
	member.linkOrder(o)
	o.delivery = delivery
	delivery.order = o
	o.items = make([]*OrderItem, 0, len(items))
	for _, oi := range items {
		oi.order = o
		o.items = append(o.items, oi)
	}
}

func (o *Order) ID() uuid.UUID        { return o.id }
func (o *Order) Member() *Member      { return o.member }
func (o *Order) Delivery() *Delivery  { return o.delivery }
func (o *Order) OrderDate() time.Time { return o.orderDate }
func (o *Order) Status() OrderStatus  { return o.status }

// Items returns the order lines in insertion order.
func (o *Order) Items() []*OrderItem {
	out := make([]*OrderItem, len(o.items))
	copy(out, o.items)
	return out
}

// Cancel marks the order CANCELLED and restocks every line.
// Fails with ErrDeliveryCompleted once shipped and with
// ErrOrderAlreadyCancelled on a second call; neither failure changes state.
func (o *Order) Cancel() error {
	if o.status == OrderStatusCancelled {
		return domain.ErrOrderAlreadyCancelled
	}
	if o.delivery.status == DeliveryStatusCompleted {
		return domain.ErrDeliveryCompleted
	}
	for _, oi := range o.items {
		if err := oi.cancel(); err != nil {
			return fmt.Errorf("restock line %s: %w", oi.id, err)
		}
	}
	o.status = OrderStatusCancelled
	return nil
}

// CompleteDelivery moves the delivery from READY to COMPLETED.
// Completing twice is a no-op; a cancelled order cannot be delivered.
func (o *Order) CompleteDelivery() error {
	if o.status == OrderStatusCancelled {
		return domain.ErrOrderCancelled
	}
	o.delivery.status = DeliveryStatusCompleted
	return nil
}

// TotalPrice sums the line totals.
func (o *Order) TotalPrice() int {
	total := 0
	for _, oi := range o.items {
		total += oi.TotalPrice()
	}
	return total
}

// Package views holds the read-side projections of orders: flat value shapes
// with no entity identities besides the order id, safe to serialize and to
// compare across fetch strategies.
package views

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/ghshop/services/shop/domain/models"
)

type Address struct {
	City    string `json:"city"`
	Street  string `json:"street"`
	Zipcode string `json:"zipcode"`
}

// OrderLine is one (item name, price, count) tuple of an order.
type OrderLine struct {
	ItemName   string `json:"item_name"`
	OrderPrice int    `json:"order_price"`
	Count      int    `json:"count"`
}

// Order is the nested order projection.
type Order struct {
	OrderID    uuid.UUID          `json:"order_id"`
	MemberName string             `json:"member_name"`
	OrderDate  time.Time          `json:"order_date"`
	Status     models.OrderStatus `json:"status"`
	Address    Address            `json:"address"`
	Lines      []OrderLine        `json:"lines"`
}

// OrderSummary is the order projection without lines.
type OrderSummary struct {
	OrderID    uuid.UUID          `json:"order_id"`
	MemberName string             `json:"member_name"`
	OrderDate  time.Time          `json:"order_date"`
	Status     models.OrderStatus `json:"status"`
	Address    Address            `json:"address"`
}

// FlatRow is one (order, order line) pair; an order with n lines yields n rows.
type FlatRow struct {
	OrderID    uuid.UUID          `json:"order_id"`
	MemberName string             `json:"member_name"`
	OrderDate  time.Time          `json:"order_date"`
	Status     models.OrderStatus `json:"status"`
	Address    Address            `json:"address"`
	ItemName   string             `json:"item_name"`
	OrderPrice int                `json:"order_price"`
	Count      int                `json:"count"`
}

func addressOf(a models.Address) Address {
	return Address{City: a.City, Street: a.Street, Zipcode: a.Zipcode}
}

// FromOrder projects a loaded aggregate. The order's member, delivery and
// lines must be resolved.
func FromOrder(o *models.Order) Order {
	items := o.Items()
	lines := make([]OrderLine, 0, len(items))
	for _, oi := range items {
		lines = append(lines, OrderLine{
			ItemName:   oi.Item().Name.String(),
			OrderPrice: oi.OrderPrice(),
			Count:      oi.Count(),
		})
	}
	return Order{
		OrderID:    o.ID(),
		MemberName: o.Member().Name,
		OrderDate:  o.OrderDate(),
		Status:     o.Status(),
		Address:    addressOf(o.Delivery().Address()),
		Lines:      lines,
	}
}

func FromOrders(orders []*models.Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, FromOrder(o))
	}
	return out
}

// SummaryFromOrder projects the to-one part of a loaded aggregate.
func SummaryFromOrder(o *models.Order) OrderSummary {
	return OrderSummary{
		OrderID:    o.ID(),
		MemberName: o.Member().Name,
		OrderDate:  o.OrderDate(),
		Status:     o.Status(),
		Address:    addressOf(o.Delivery().Address()),
	}
}

// Summary drops the lines.
func (o Order) Summary() OrderSummary {
	return OrderSummary{
		OrderID:    o.OrderID,
		MemberName: o.MemberName,
		OrderDate:  o.OrderDate,
		Status:     o.Status,
		Address:    o.Address,
	}
}

// TotalPrice sums price × count over the lines.
func (o Order) TotalPrice() int {
	total := 0
	for _, l := range o.Lines {
		total += l.OrderPrice * l.Count
	}
	return total
}

// Equal compares two projections field by field, lines in order.
func (o Order) Equal(other Order) bool {
	return o.OrderID == other.OrderID &&
		o.MemberName == other.MemberName &&
		o.OrderDate.Equal(other.OrderDate) &&
		o.Status == other.Status &&
		o.Address == other.Address &&
		slices.Equal(o.Lines, other.Lines)
}

// GroupFlatRows folds flat rows back into nested projections, keeping the
// order in which each order id first appears.
func GroupFlatRows(rows []FlatRow) []Order {
	index := make(map[uuid.UUID]int, len(rows))
	out := make([]Order, 0)
	for _, r := range rows {
		i, ok := index[r.OrderID]
		if !ok {
			i = len(out)
			index[r.OrderID] = i
			out = append(out, Order{
				OrderID:    r.OrderID,
				MemberName: r.MemberName,
				OrderDate:  r.OrderDate,
				Status:     r.Status,
				Address:    r.Address,
			})
		}
		out[i].Lines = append(out[i].Lines, OrderLine{ItemName: r.ItemName, OrderPrice: r.OrderPrice, Count: r.Count})
	}
	return out
}

// Flatten is the inverse of GroupFlatRows.
func Flatten(orders []Order) []FlatRow {
	var rows []FlatRow
	for _, o := range orders {
		for _, l := range o.Lines {
			rows = append(rows, FlatRow{
				OrderID:    o.OrderID,
				MemberName: o.MemberName,
				OrderDate:  o.OrderDate,
				Status:     o.Status,
				Address:    o.Address,
				ItemName:   l.ItemName,
				OrderPrice: l.OrderPrice,
				Count:      l.Count,
			})
		}
	}
	return rows
}

// Sort orders projections by order date, then order id.
func Sort(orders []Order) {
	slices.SortFunc(orders, func(a, b Order) int {
		if c := a.OrderDate.Compare(b.OrderDate); c != 0 {
			return c
		}
		return cmp.Compare(a.OrderID.String(), b.OrderID.String())
	})
}

// SameSet reports whether a and b hold equal projections regardless of order.
func SameSet(a, b []Order) bool {
	if len(a) != len(b) {
		return false
	}
	byID := make(map[uuid.UUID]Order, len(a))
	for _, o := range a {
		byID[o.OrderID] = o
	}
	for _, o := range b {
		other, ok := byID[o.OrderID]
		if !ok || !other.Equal(o) {
			return false
		}
		delete(byID, o.OrderID)
	}
	return len(byID) == 0
}

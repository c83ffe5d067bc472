package services

import (
	"fmt"

	"github.com/ghuser/ghshop/services/shop/domain"
	"github.com/ghuser/ghshop/services/shop/domain/models"
)

// OrderLine is one requested line of a new order.
type OrderLine struct {
	Item  *models.Item
	Count int
}

// PlaceOrder assembles a new order for member: every line is priced at the
// item's current price, stock is taken line by line, and the delivery address
// is copied from the member. When any line fails, stock already taken by
// earlier lines is returned before the error is reported.
func PlaceOrder(member *models.Member, lines []OrderLine) (*models.Order, error) {
	if member == nil {
		return nil, domain.ErrOrderMemberRequired
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	orderItems := make([]*models.OrderItem, 0, len(lines))
	rollback := func() {
		for _, oi := range orderItems {
			_ = oi.Item().AddStock(oi.Count())
		}
	}

	for i, line := range lines {
		oi, err := models.NewOrderItem(line.Item, priceOf(line.Item), line.Count)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		orderItems = append(orderItems, oi)
	}

	order, err := models.CreateOrder(member, models.NewDelivery(member.Address), orderItems...)
	if err != nil {
		rollback()
		return nil, err
	}
	return order, nil
}

func priceOf(item *models.Item) int {
	if item == nil {
		return 0
	}
	return item.Price
}

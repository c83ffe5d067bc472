package postgres

import (
	"github.com/google/uuid"

	"github.com/ghuser/ghshop/services/shop/domain/models"
)

// identityMap guarantees that one unit of work hands out a single instance
// per entity id.
type identityMap struct {
	members    map[uuid.UUID]*models.Member
	items      map[uuid.UUID]*models.Item
	deliveries map[uuid.UUID]*models.Delivery
	orders     map[uuid.UUID]*models.Order
	categories map[uuid.UUID]*models.Category
	// stock is the stored quantity of each item as last read or written in
	// this unit of work.
	stock map[uuid.UUID]int
}

func newIdentityMap() *identityMap {
	return &identityMap{
		members:    make(map[uuid.UUID]*models.Member),
		items:      make(map[uuid.UUID]*models.Item),
		deliveries: make(map[uuid.UUID]*models.Delivery),
		orders:     make(map[uuid.UUID]*models.Order),
		categories: make(map[uuid.UUID]*models.Category),
		stock:      make(map[uuid.UUID]int),
	}
}

func (m *identityMap) member(r memberRecord) *models.Member {
	if existing, ok := m.members[r.ID]; ok {
		return existing
	}
	member := recordToMember(r)
	m.members[r.ID] = member
	return member
}

func (m *identityMap) item(r itemRecord) (*models.Item, error) {
	if existing, ok := m.items[r.ID]; ok {
		return existing, nil
	}
	item, err := recordToItem(r)
	if err != nil {
		return nil, err
	}
	m.items[r.ID] = item
	m.stock[r.ID] = r.StockQuantity
	return item, nil
}

func (m *identityMap) delivery(r deliveryRecord) *models.Delivery {
	if existing, ok := m.deliveries[r.ID]; ok {
		return existing
	}
	d := recordToDelivery(r)
	m.deliveries[r.ID] = d
	return d
}

func (m *identityMap) category(r categoryRecord) *models.Category {
	if existing, ok := m.categories[r.ID]; ok {
		return existing
	}
	c := models.RehydrateCategory(r.ID, r.Name)
	m.categories[r.ID] = c
	return c
}

// putOrder registers a new or rehydrated order together with its parts.
func (m *identityMap) putOrder(o *models.Order) {
	m.orders[o.ID()] = o
	m.members[o.Member().ID] = o.Member()
	m.deliveries[o.Delivery().ID()] = o.Delivery()
	for _, oi := range o.Items() {
		m.items[oi.Item().ID] = oi.Item()
	}
}

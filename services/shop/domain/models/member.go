package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/ghshop/services/shop/domain"
)

// Address is an immutable value object. It is copied, never shared, between
// a member and the deliveries created for that member's orders.
type Address struct {
	City    string
	Street  string
	Zipcode string
}

// NewAddress builds an Address with surrounding whitespace removed.
func NewAddress(city, street, zipcode string) Address {
	return Address{
		City:    strings.TrimSpace(city),
		Street:  strings.TrimSpace(street),
		Zipcode: strings.TrimSpace(zipcode),
	}
}

// Member is a registered customer.
type Member struct {
	ID        uuid.UUID
	Name      string
	Address   Address
	CreatedAt time.Time

	orders []*Order
}

// NewMember constructs a Member with a generated ID.
func NewMember(name string, address Address) (*Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidMember)
	}
	return &Member{
		ID:        uuid.New(),
		Name:      name,
		Address:   address,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// RehydrateMember rebuilds a Member loaded from storage.
func RehydrateMember(id uuid.UUID, name string, address Address, createdAt time.Time) *Member {
	return &Member{ID: id, Name: name, Address: address, CreatedAt: createdAt}
}

// Rename changes the member's display name.
func (m *Member) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidMember)
	}
	m.Name = name
	return nil
}

// Orders returns the orders linked to this member within the current unit of
// work. The slice is a copy; orders are linked only through CreateOrder and
// RehydrateOrder.
func (m *Member) Orders() []*Order {
	out := make([]*Order, len(m.orders))
	copy(out, m.orders)
	return out
}

func (m *Member) linkOrder(o *Order) {
	for _, existing := range m.orders {
		if existing == o {
			return
		}
	}
	m.orders = append(m.orders, o)
}

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/ghshop/services/shop/domain"
)

// ItemKind tags the concrete variant of an Item. The values double as the
// storage discriminator.
type ItemKind string

const (
	KindBook  ItemKind = "B"
	KindAlbum ItemKind = "A"
	KindMovie ItemKind = "M"
)

// ParseItemKind accepts either the discriminator ("B") or the variant name ("book").
func ParseItemKind(s string) (ItemKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "b", "book":
		return KindBook, nil
	case "a", "album":
		return KindAlbum, nil
	case "m", "movie":
		return KindMovie, nil
	}
	return "", fmt.Errorf("%w: unknown item kind %q", domain.ErrInvalidItem, s)
}

// Name returns the lower-case variant name used in API payloads.
func (k ItemKind) Name() string {
	switch k {
	case KindBook:
		return "book"
	case KindAlbum:
		return "album"
	case KindMovie:
		return "movie"
	}
	return string(k)
}

// ItemDetails holds the variant-specific attributes of an Item.
// Implemented only by Book, Album and Movie.
type ItemDetails interface {
	Kind() ItemKind
	sealed()
}

type Book struct {
	Author string
	ISBN   string
}

type Album struct {
	Artist string
	Etc    string
}

type Movie struct {
	Director string
	Actor    string
}

func (Book) Kind() ItemKind  { return KindBook }
func (Album) Kind() ItemKind { return KindAlbum }
func (Movie) Kind() ItemKind { return KindMovie }

func (Book) sealed()  {}
func (Album) sealed() {}
func (Movie) sealed() {}

// Item is a sellable catalog entry with a stock ledger.
// Stock is only changed through AddStock, RemoveStock and SetStockQuantity,
// and never drops below zero.
type Item struct {
	ID        uuid.UUID
	Name      ItemName
	Price     int
	Details   ItemDetails
	CreatedAt time.Time

	stockQuantity int
	categories    []*Category
}

// NewItem constructs a valid Item with a generated ID.
func NewItem(name ItemName, price, stockQuantity int, details ItemDetails) (*Item, error) {
	if details == nil {
		return nil, fmt.Errorf("%w: item kind is required", domain.ErrInvalidItem)
	}
	if price < 0 {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidItem)
	}
	if stockQuantity < 0 {
		return nil, fmt.Errorf("%w: stock quantity must not be negative", domain.ErrInvalidItem)
	}
	return &Item{
		ID:            uuid.New(),
		Name:          name,
		Price:         price,
		Details:       details,
		CreatedAt:     time.Now().UTC(),
		stockQuantity: stockQuantity,
	}, nil
}

// RehydrateItem rebuilds an Item loaded from storage.
func RehydrateItem(id uuid.UUID, name ItemName, price, stockQuantity int, details ItemDetails, createdAt time.Time) *Item {
	return &Item{
		ID:            id,
		Name:          name,
		Price:         price,
		Details:       details,
		CreatedAt:     createdAt,
		stockQuantity: stockQuantity,
	}
}

// Kind reports the item's variant.
func (i *Item) Kind() ItemKind {
	return i.Details.Kind()
}

// StockQuantity returns the units currently on hand.
func (i *Item) StockQuantity() int {
	return i.stockQuantity
}

// AddStock increases stock by quantity. There is no upper bound.
func (i *Item) AddStock(quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", domain.ErrInvalidItem)
	}
	i.stockQuantity += quantity
	return nil
}

// RemoveStock decreases stock by quantity, failing with ErrNotEnoughStock
// and leaving the stock untouched when fewer units are on hand.
func (i *Item) RemoveStock(quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", domain.ErrInvalidItem)
	}
	rest := i.stockQuantity - quantity
	if rest < 0 {
		return fmt.Errorf("%w: item %s has %d, requested %d", domain.ErrNotEnoughStock, i.ID, i.stockQuantity, quantity)
	}
	i.stockQuantity = rest
	return nil
}

// SetStockQuantity overwrites the stock after an inventory count.
func (i *Item) SetStockQuantity(quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: stock quantity must not be negative", domain.ErrInvalidItem)
	}
	i.stockQuantity = quantity
	return nil
}

// Categories returns the categories this item is filed under.
func (i *Item) Categories() []*Category {
	out := make([]*Category, len(i.categories))
	copy(out, i.categories)
	return out
}

package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	shopdomain "github.com/ghuser/ghshop/services/shop/domain"
	"github.com/ghuser/ghshop/services/shop/domain/models"
)

// Storage records. They mirror migrations/shop and never leave this package.

type memberRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:255;not null;uniqueIndex"`
	City      string    `gorm:"size:255;not null"`
	Street    string    `gorm:"size:255;not null"`
	Zipcode   string    `gorm:"size:32;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (memberRecord) TableName() string { return "members" }

// itemRecord is the single-table layout of every item variant; dtype selects
// which variant columns are meaningful.
type itemRecord struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Dtype         string    `gorm:"column:dtype;size:1;not null;index"`
	Name          string    `gorm:"size:255;not null"`
	Price         int       `gorm:"not null"`
	StockQuantity int       `gorm:"not null"`
	Author        string    `gorm:"size:255;not null;default:''"`
	ISBN          string    `gorm:"column:isbn;size:32;not null;default:''"`
	Artist        string    `gorm:"size:255;not null;default:''"`
	Etc           string    `gorm:"size:255;not null;default:''"`
	Director      string    `gorm:"size:255;not null;default:''"`
	Actor         string    `gorm:"size:255;not null;default:''"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (itemRecord) TableName() string { return "items" }

type categoryRecord struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name     string     `gorm:"size:255;not null"`
	ParentID *uuid.UUID `gorm:"type:uuid;index"`
}

func (categoryRecord) TableName() string { return "categories" }

type categoryItemRecord struct {
	CategoryID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ItemID     uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

func (categoryItemRecord) TableName() string { return "category_items" }

type deliveryRecord struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	City    string    `gorm:"size:255;not null"`
	Street  string    `gorm:"size:255;not null"`
	Zipcode string    `gorm:"size:32;not null"`
	Status  string    `gorm:"size:16;not null"`
}

func (deliveryRecord) TableName() string { return "deliveries" }

type orderRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	MemberID   uuid.UUID `gorm:"type:uuid;not null;index"`
	DeliveryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	OrderDate  time.Time `gorm:"not null;index"`
	Status     string    `gorm:"size:16;not null;index"`
}

func (orderRecord) TableName() string { return "orders" }

type orderItemRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index:idx_order_items_order_position,priority:1"`
	ItemID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Position   int       `gorm:"not null;index:idx_order_items_order_position,priority:2"`
	OrderPrice int       `gorm:"not null"`
	Count      int       `gorm:"not null"`
}

func (orderItemRecord) TableName() string { return "order_items" }

// Models returns one zero value of every storage record, in dependency order.
func Models() []any {
	return []any{
		&memberRecord{},
		&itemRecord{},
		&categoryRecord{},
		&categoryItemRecord{},
		&deliveryRecord{},
		&orderRecord{},
		&orderItemRecord{},
	}
}

// AutoMigrate creates the shop tables from the storage records. Production
// schemas come from migrations/shop; this is for tests and local SQLite.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate shop schema: %w", err)
	}
	return nil
}

func memberToRecord(m *models.Member) memberRecord {
	return memberRecord{
		ID:        m.ID,
		Name:      m.Name,
		City:      m.Address.City,
		Street:    m.Address.Street,
		Zipcode:   m.Address.Zipcode,
		CreatedAt: m.CreatedAt,
	}
}

func recordToMember(r memberRecord) *models.Member {
	return models.RehydrateMember(r.ID, r.Name, models.Address{City: r.City, Street: r.Street, Zipcode: r.Zipcode}, r.CreatedAt)
}

func itemToRecord(i *models.Item) itemRecord {
	r := itemRecord{
		ID:            i.ID,
		Dtype:         string(i.Kind()),
		Name:          i.Name.String(),
		Price:         i.Price,
		StockQuantity: i.StockQuantity(),
		CreatedAt:     i.CreatedAt,
	}
	switch d := i.Details.(type) {
	case models.Book:
		r.Author, r.ISBN = d.Author, d.ISBN
	case models.Album:
		r.Artist, r.Etc = d.Artist, d.Etc
	case models.Movie:
		r.Director, r.Actor = d.Director, d.Actor
	}
	return r
}

func recordToItem(r itemRecord) (*models.Item, error) {
	var details models.ItemDetails
	switch models.ItemKind(r.Dtype) {
	case models.KindBook:
		details = models.Book{Author: r.Author, ISBN: r.ISBN}
	case models.KindAlbum:
		details = models.Album{Artist: r.Artist, Etc: r.Etc}
	case models.KindMovie:
		details = models.Movie{Director: r.Director, Actor: r.Actor}
	default:
		return nil, fmt.Errorf("%w: item %s has unknown dtype %q", shopdomain.ErrInvalidItem, r.ID, r.Dtype)
	}
	return models.RehydrateItem(r.ID, models.ItemName(r.Name), r.Price, r.StockQuantity, details, r.CreatedAt), nil
}

func deliveryToRecord(d *models.Delivery) deliveryRecord {
	a := d.Address()
	return deliveryRecord{ID: d.ID(), City: a.City, Street: a.Street, Zipcode: a.Zipcode, Status: string(d.Status())}
}

func recordToDelivery(r deliveryRecord) *models.Delivery {
	return models.RehydrateDelivery(r.ID, models.Address{City: r.City, Street: r.Street, Zipcode: r.Zipcode}, models.DeliveryStatus(r.Status))
}

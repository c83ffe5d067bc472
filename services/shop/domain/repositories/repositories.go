package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/ghshop/services/shop/domain/models"
	"github.com/ghuser/ghshop/services/shop/domain/views"
)

// QueryOpts contains pagination parameters for list queries.
type QueryOpts struct {
	Limit  int // Maximum number of records to return
	Offset int // Number of records to skip
}

// MemberRepository persists Member aggregates.
type MemberRepository interface {
	Save(ctx context.Context, member *models.Member) error
	Update(ctx context.Context, member *models.Member) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	FindByName(ctx context.Context, name string) ([]*models.Member, error)

	// FindAll returns a page of members and the total count ignoring pagination.
	FindAll(ctx context.Context, opts QueryOpts) ([]*models.Member, int, error)
}

// ItemRepository persists catalog items and their stock.
type ItemRepository interface {
	Save(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, item *models.Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)

	// GetByIDs resolves every id or fails with ErrItemNotFound.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Item, error)
	FindAll(ctx context.Context, opts QueryOpts) ([]*models.Item, int, error)
}

// CategoryRepository persists the category tree and category-item links.
type CategoryRepository interface {
	Save(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	LinkItem(ctx context.Context, categoryID, itemID uuid.UUID) error

	// Tree loads every category with its children and items and returns the roots.
	Tree(ctx context.Context) ([]*models.Category, error)
}

// OrderRepository persists Order aggregates together with their delivery,
// order items and the stock of the items they reference.
type OrderRepository interface {
	// Save inserts a new order and publishes order.placed in the same transaction.
	Save(ctx context.Context, order *models.Order) error

	// SaveCancellation stores the cancelled status and restocked items and
	// publishes order.cancelled in the same transaction.
	SaveCancellation(ctx context.Context, order *models.Order) error

	// SaveDelivery stores the delivery status.
	SaveDelivery(ctx context.Context, order *models.Order) error

	// GetByID loads the full aggregate: member, delivery, order items and items.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// OrderQueryRepository implements the read-side fetch strategies.
type OrderQueryRepository interface {
	// FindOrders loads aggregates with one of the entity strategies
	// (FetchNaive, FetchJoin, FetchJoinAll).
	FindOrders(ctx context.Context, search OrderSearch, strategy FetchStrategy) ([]*models.Order, error)

	// FindOrderViews is FetchProjection: one trip for orders, one for lines.
	FindOrderViews(ctx context.Context, search OrderSearch) ([]views.Order, error)

	// FindFlatRows is FetchFlat: one row per order line in a single trip.
	FindFlatRows(ctx context.Context, search OrderSearch) ([]views.FlatRow, error)

	// FindSummaries projects the to-one part of each order in a single trip.
	FindSummaries(ctx context.Context, search OrderSearch) ([]views.OrderSummary, error)
}

// Store groups the repositories bound to one unit of work. Entities loaded
// through the same Store share an identity map.
type Store interface {
	Members() MemberRepository
	Items() ItemRepository
	Categories() CategoryRepository
	Orders() OrderRepository
	OrderQueries() OrderQueryRepository
}

// UnitOfWork opens Stores. InTx commits when fn returns nil and rolls back
// otherwise; Read runs without a transaction.
type UnitOfWork interface {
	InTx(ctx context.Context, fn func(store Store) error) error
	Read(ctx context.Context, fn func(store Store) error) error
}

package services

import (
	"github.com/ghuser/ghshop/pkg/app"
	"github.com/ghuser/ghshop/pkg/cache"
	"github.com/ghuser/ghshop/services/shop/domain/repositories"
	"github.com/ghuser/ghshop/services/shop/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for the shop context.
type Services struct {
	Members    *MemberService
	Items      *ItemService
	Categories *CategoryService
	Orders     *OrderService
	Seeder     *Seeder
}

// New wires the shop services with infrastructure from the Application container.
func New(a *app.Application) *Services {
	var publisher postgres.TxPublisherFactory
	if a.EventBus != nil {
		publisher = a.EventBus
	}
	batchSize := repositories.DefaultBatchSize
	if a.Config != nil {
		batchSize = a.Config.OrderBatchSize
	}

	var itemCache *cache.ItemCache
	if a.Redis != nil {
		ttl := cache.DefaultItemCacheTTL
		if a.Config != nil {
			ttl = a.Config.ItemCacheTTL
		}
		itemCache = cache.NewItemCache(a.Redis, ttl)
	}

	return NewWithUnitOfWork(postgres.NewUnitOfWork(a.Db, publisher, batchSize), itemCache, a)
}

// NewWithUnitOfWork wires the services over an existing unit of work.
// itemCache may be nil.
func NewWithUnitOfWork(uow repositories.UnitOfWork, itemCache *cache.ItemCache, a *app.Application) *Services {
	items := NewItemService(uow, itemCache, a.Logger)
	return &Services{
		Members:    NewMemberService(uow),
		Items:      items,
		Categories: NewCategoryService(uow),
		Orders:     NewOrderService(uow, a.Logger).WithItemEvicter(items),
		Seeder:     NewSeeder(uow, a.Logger),
	}
}

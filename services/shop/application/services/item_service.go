package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgcache "github.com/ghuser/ghshop/pkg/cache"
	"github.com/ghuser/ghshop/pkg/logger"
	shopdomain "github.com/ghuser/ghshop/services/shop/domain"
	"github.com/ghuser/ghshop/services/shop/domain/models"
	"github.com/ghuser/ghshop/services/shop/domain/repositories"
	domainsvcs "github.com/ghuser/ghshop/services/shop/domain/services"
)

// CreateItemInput describes a new catalog item. Kind selects which of the
// variant fields are used.
type CreateItemInput struct {
	Kind          models.ItemKind
	Name          string
	Price         int
	StockQuantity int

	Author string
	ISBN   string

	Artist string
	Etc    string

	Director string
	Actor    string
}

func (in CreateItemInput) details() (models.ItemDetails, error) {
	switch in.Kind {
	case models.KindBook:
		return models.Book{Author: in.Author, ISBN: in.ISBN}, nil
	case models.KindAlbum:
		return models.Album{Artist: in.Artist, Etc: in.Etc}, nil
	case models.KindMovie:
		return models.Movie{Director: in.Director, Actor: in.Actor}, nil
	}
	_, err := models.ParseItemKind(string(in.Kind))
	return nil, err
}

// UpdateItemInput is the mutable part of an item. Empty variant fields keep
// their stored value; fields of other variants are ignored.
type UpdateItemInput struct {
	Name          string
	Price         int
	StockQuantity int

	Author   string
	ISBN     string
	Artist   string
	Etc      string
	Director string
	Actor    string
}

func (in UpdateItemInput) patch(details models.ItemDetails) models.ItemDetails {
	keep := func(cur, next string) string {
		if next == "" {
			return cur
		}
		return next
	}
	switch d := details.(type) {
	case models.Book:
		return models.Book{Author: keep(d.Author, in.Author), ISBN: keep(d.ISBN, in.ISBN)}
	case models.Album:
		return models.Album{Artist: keep(d.Artist, in.Artist), Etc: keep(d.Etc, in.Etc)}
	case models.Movie:
		return models.Movie{Director: keep(d.Director, in.Director), Actor: keep(d.Actor, in.Actor)}
	}
	return details
}

// ItemService manages the catalog. Reads by id are served from Redis when a
// cache is configured; every write evicts the item.
type ItemService struct {
	uow   repositories.UnitOfWork
	cache *pkgcache.ItemCache
	log   logger.Logger
}

// NewItemService returns an ItemService. itemCache may be nil.
func NewItemService(uow repositories.UnitOfWork, itemCache *pkgcache.ItemCache, log logger.Logger) *ItemService {
	return &ItemService{uow: uow, cache: itemCache, log: log}
}

// Create validates and stores a new item.
func (s *ItemService) Create(ctx context.Context, in CreateItemInput) (*models.Item, error) {
	name, err := models.NewItemName(in.Name)
	if err != nil {
		return nil, err
	}
	details, err := in.details()
	if err != nil {
		return nil, err
	}
	item, err := models.NewItem(name, in.Price, in.StockQuantity, details)
	if err != nil {
		return nil, err
	}
	if err := domainsvcs.ValidateItemForCreation(item); err != nil {
		return nil, err
	}

	err = s.uow.InTx(ctx, func(store repositories.Store) error {
		return store.Items().Save(ctx, item)
	})
	if err != nil {
		return nil, fmt.Errorf("save item: %w", err)
	}
	return item, nil
}

// FindItems returns a page of items and the total count.
func (s *ItemService) FindItems(ctx context.Context, opts repositories.QueryOpts) ([]*models.Item, int, error) {
	var (
		items []*models.Item
		total int
	)
	err := s.uow.Read(ctx, func(store repositories.Store) error {
		var err error
		items, total, err = store.Items().FindAll(ctx, opts)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	return items, total, nil
}

// GetByID reads through the cache:
//  1. Check Redis first.
//  2. On a miss or cache error, load from the database.
//  3. Warm the cache with the loaded item.
func (s *ItemService) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err == nil {
			if item, err := fromCached(cached); err == nil {
				return item, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.WarnContext(ctx, "item cache read failed", "item_id", id, "error", err)
		}
	}

	var item *models.Item
	err := s.uow.Read(ctx, func(store repositories.Store) error {
		var err error
		item, err = store.Items().GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, toCached(item)); err != nil {
			s.log.WarnContext(ctx, "item cache warm failed", "item_id", id, "error", err)
		}
	}
	return item, nil
}

// Update changes name, price, stock and variant fields of an item and evicts
// the cached copy.
func (s *ItemService) Update(ctx context.Context, id uuid.UUID, in UpdateItemInput) (*models.Item, error) {
	name, err := models.NewItemName(in.Name)
	if err != nil {
		return nil, err
	}
	if err := domainsvcs.ValidateName(name); err != nil {
		return nil, err
	}

	var item *models.Item
	err = s.uow.InTx(ctx, func(store repositories.Store) error {
		var err error
		item, err = store.Items().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if in.Price < 0 {
			return fmt.Errorf("%w: price must not be negative", shopdomain.ErrInvalidItem)
		}
		if err := item.SetStockQuantity(in.StockQuantity); err != nil {
			return err
		}
		item.Name = name
		item.Price = in.Price
		item.Details = in.patch(item.Details)
		return store.Items().Update(ctx, item)
	})
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	s.Evict(ctx, id)
	return item, nil
}

// Evict drops cached copies of the given items. Failures are logged only:
// entries expire on their own.
func (s *ItemService) Evict(ctx context.Context, ids ...uuid.UUID) {
	if s.cache == nil || len(ids) == 0 {
		return
	}
	if err := s.cache.Delete(ctx, ids...); err != nil {
		s.log.WarnContext(ctx, "item cache eviction failed", "items", len(ids), "error", err)
	}
}

func toCached(item *models.Item) *pkgcache.CachedItem {
	c := &pkgcache.CachedItem{
		ID:            item.ID,
		Kind:          string(item.Kind()),
		Name:          item.Name.String(),
		Price:         item.Price,
		StockQuantity: item.StockQuantity(),
		CreatedAt:     item.CreatedAt,
	}
	switch d := item.Details.(type) {
	case models.Book:
		c.Author, c.ISBN = d.Author, d.ISBN
	case models.Album:
		c.Artist, c.Etc = d.Artist, d.Etc
	case models.Movie:
		c.Director, c.Actor = d.Director, d.Actor
	}
	return c
}

func fromCached(c *pkgcache.CachedItem) (*models.Item, error) {
	kind, err := models.ParseItemKind(c.Kind)
	if err != nil {
		return nil, err
	}
	var details models.ItemDetails
	switch kind {
	case models.KindBook:
		details = models.Book{Author: c.Author, ISBN: c.ISBN}
	case models.KindAlbum:
		details = models.Album{Artist: c.Artist, Etc: c.Etc}
	case models.KindMovie:
		details = models.Movie{Director: c.Director, Actor: c.Actor}
	}
	return models.RehydrateItem(c.ID, models.ItemName(c.Name), c.Price, c.StockQuantity, details, c.CreatedAt), nil
}

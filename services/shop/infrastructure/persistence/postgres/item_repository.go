package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	shopdomain "github.com/ghuser/ghshop/services/shop/domain"
	"github.com/ghuser/ghshop/services/shop/domain/models"
	"github.com/ghuser/ghshop/services/shop/domain/repositories"
)

type itemRepository struct {
	db  *gorm.DB
	ids *identityMap
}

func (r *itemRepository) Save(ctx context.Context, item *models.Item) error {
	rec := itemToRecord(item)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	r.ids.items[item.ID] = item
	r.ids.stock[item.ID] = rec.StockQuantity
	return nil
}

// Update stores every mutable column, stock included.
func (r *itemRepository) Update(ctx context.Context, item *models.Item) error {
	rec := itemToRecord(item)
	res := r.db.WithContext(ctx).Model(&itemRecord{}).Where("id = ?", item.ID).Updates(map[string]any{
		"name":           rec.Name,
		"price":          rec.Price,
		"stock_quantity": rec.StockQuantity,
		"author":         rec.Author,
		"isbn":           rec.ISBN,
		"artist":         rec.Artist,
		"etc":            rec.Etc,
		"director":       rec.Director,
		"actor":          rec.Actor,
	})
	if res.Error != nil {
		return fmt.Errorf("update item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return shopdomain.ErrItemNotFound
	}
	r.ids.stock[item.ID] = rec.StockQuantity
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if item, ok := r.ids.items[id]; ok {
		return item, nil
	}
	var rec itemRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error; err != nil {
		return nil, notFound(err, shopdomain.ErrItemNotFound, "item")
	}
	return r.ids.item(rec)
}

// GetByIDs resolves ids in one statement for those not already loaded and
// returns the items in the order requested.
func (r *itemRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Item, error) {
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := r.ids.items[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		var recs []itemRecord
		if err := r.db.WithContext(ctx).Where("id IN ?", missing).Find(&recs).Error; err != nil {
			return nil, fmt.Errorf("query items: %w", err)
		}
		for _, rec := range recs {
			if _, err := r.ids.item(rec); err != nil {
				return nil, err
			}
		}
	}

	out := make([]*models.Item, 0, len(ids))
	for _, id := range ids {
		item, ok := r.ids.items[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", shopdomain.ErrItemNotFound, id)
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *itemRepository) FindAll(ctx context.Context, opts repositories.QueryOpts) ([]*models.Item, int, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&itemRecord{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}

	var recs []itemRecord
	if err := paginate(db.Order("created_at, id"), opts).Find(&recs).Error; err != nil {
		return nil, 0, fmt.Errorf("query items: %w", err)
	}

	out := make([]*models.Item, 0, len(recs))
	for _, rec := range recs {
		item, err := r.ids.item(rec)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, item)
	}
	return out, int(total), nil
}

// updateStock applies the change each distinct item's stock went through
// since it was loaded as a relative update. The row only changes while
// enough units are stored, so a concurrent writer cannot be overwritten and
// stock never goes negative.
func updateStock(ctx context.Context, db *gorm.DB, ids *identityMap, items []*models.Item) error {
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}

		loaded, ok := ids.stock[item.ID]
		if !ok {
			return fmt.Errorf("update stock of item %s: not loaded in this unit of work", item.ID)
		}
		delta := item.StockQuantity() - loaded
		if delta == 0 {
			continue
		}
		res := db.WithContext(ctx).Model(&itemRecord{}).
			Where("id = ? AND stock_quantity + ? >= 0", item.ID, delta).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
		if res.Error != nil {
			return fmt.Errorf("update stock of item %s: %w", item.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: item %s changed concurrently", shopdomain.ErrNotEnoughStock, item.ID)
		}
		ids.stock[item.ID] = item.StockQuantity()
	}
	return nil
}

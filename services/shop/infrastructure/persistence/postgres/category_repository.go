package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	shopdomain "github.com/ghuser/ghshop/services/shop/domain"
	"github.com/ghuser/ghshop/services/shop/domain/models"
)

type categoryRepository struct {
	db  *gorm.DB
	ids *identityMap
}

// Save inserts c with its current parent link.
func (r *categoryRepository) Save(ctx context.Context, c *models.Category) error {
	rec := categoryRecord{ID: c.ID, Name: c.Name}
	if p := c.Parent(); p != nil {
		parentID := p.ID
		rec.ParentID = &parentID
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	r.ids.categories[c.ID] = c
	return nil
}

// GetByID loads a single category without its links.
func (r *categoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	if c, ok := r.ids.categories[id]; ok {
		return c, nil
	}
	var rec categoryRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error; err != nil {
		return nil, notFound(err, shopdomain.ErrCategoryNotFound, "category")
	}
	return r.ids.category(rec), nil
}

// LinkItem files an item under a category; linking twice is a no-op.
func (r *categoryRepository) LinkItem(ctx context.Context, categoryID, itemID uuid.UUID) error {
	rec := categoryItemRecord{CategoryID: categoryID, ItemID: itemID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error; err != nil {
		return fmt.Errorf("link item %s to category %s: %w", itemID, categoryID, err)
	}
	return nil
}

// Tree loads categories, links and linked items in three statements and
// returns the roots sorted by name.
func (r *categoryRepository) Tree(ctx context.Context) ([]*models.Category, error) {
	db := r.db.WithContext(ctx)

	var recs []categoryRecord
	if err := db.Order("name, id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	var links []categoryItemRecord
	if err := db.Find(&links).Error; err != nil {
		return nil, fmt.Errorf("query category items: %w", err)
	}

	itemIDs := make([]uuid.UUID, 0, len(links))
	for _, l := range links {
		itemIDs = append(itemIDs, l.ItemID)
	}
	if len(itemIDs) > 0 {
		var items []itemRecord
		if err := db.Where("id IN ?", itemIDs).Find(&items).Error; err != nil {
			return nil, fmt.Errorf("query category items: %w", err)
		}
		for _, rec := range items {
			if _, err := r.ids.item(rec); err != nil {
				return nil, err
			}
		}
	}

	categories := make([]*models.Category, 0, len(recs))
	for _, rec := range recs {
		categories = append(categories, r.ids.category(rec))
	}
	var roots []*models.Category
	for i, rec := range recs {
		c := categories[i]
		if rec.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		parent, ok := r.ids.categories[*rec.ParentID]
		if !ok {
			return nil, fmt.Errorf("%w: parent %s of %s", shopdomain.ErrCategoryNotFound, *rec.ParentID, rec.ID)
		}
		if c.Parent() != parent {
			if err := parent.AddChild(c); err != nil {
				return nil, err
			}
		}
	}
	for _, l := range links {
		c, ok := r.ids.categories[l.CategoryID]
		item, found := r.ids.items[l.ItemID]
		if ok && found {
			c.AddItem(item)
		}
	}

	sort.Slice(roots, func(i, j int) bool { return roots[i].Name < roots[j].Name })
	return roots, nil
}

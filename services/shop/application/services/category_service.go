package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ghuser/ghshop/services/shop/domain/models"
	"github.com/ghuser/ghshop/services/shop/domain/repositories"
)

// CategoryService maintains the category tree.
type CategoryService struct {
	uow repositories.UnitOfWork
}

func NewCategoryService(uow repositories.UnitOfWork) *CategoryService {
	return &CategoryService{uow: uow}
}

// Create adds a category under parentID, or a root when parentID is nil.
func (s *CategoryService) Create(ctx context.Context, name string, parentID *uuid.UUID) (*models.Category, error) {
	category, err := models.NewCategory(name)
	if err != nil {
		return nil, err
	}

	err = s.uow.InTx(ctx, func(store repositories.Store) error {
		if parentID != nil {
			parent, err := store.Categories().GetByID(ctx, *parentID)
			if err != nil {
				return err
			}
			if err := parent.AddChild(category); err != nil {
				return err
			}
		}
		return store.Categories().Save(ctx, category)
	})
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// AddItem files an existing item under an existing category.
func (s *CategoryService) AddItem(ctx context.Context, categoryID, itemID uuid.UUID) error {
	err := s.uow.InTx(ctx, func(store repositories.Store) error {
		category, err := store.Categories().GetByID(ctx, categoryID)
		if err != nil {
			return err
		}
		item, err := store.Items().GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		category.AddItem(item)
		return store.Categories().LinkItem(ctx, category.ID, item.ID)
	})
	if err != nil {
		return fmt.Errorf("add item to category: %w", err)
	}
	return nil
}

// Tree returns the root categories with children and items resolved.
func (s *CategoryService) Tree(ctx context.Context) ([]*models.Category, error) {
	var roots []*models.Category
	err := s.uow.Read(ctx, func(store repositories.Store) error {
		var err error
		roots, err = store.Categories().Tree(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load category tree: %w", err)
	}
	return roots, nil
}

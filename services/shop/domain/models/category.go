package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ghuser/ghshop/services/shop/domain"
)

// Category groups items and forms a tree through parent/child links.
type Category struct {
	ID   uuid.UUID
	Name string

	parent   *Category
	children []*Category
	items    []*Item
}

// NewCategory constructs a root Category with a generated ID.
func NewCategory(name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidCategory)
	}
	return &Category{ID: uuid.New(), Name: name}, nil
}

// RehydrateCategory rebuilds a Category loaded from storage. Links are
// restored with AddChild and AddItem.
func RehydrateCategory(id uuid.UUID, name string) *Category {
	return &Category{ID: id, Name: name}
}

func (c *Category) Parent() *Category {
	return c.parent
}

func (c *Category) Children() []*Category {
	out := make([]*Category, len(c.children))
	copy(out, c.children)
	return out
}

func (c *Category) Items() []*Item {
	out := make([]*Item, len(c.items))
	copy(out, c.items)
	return out
}

// AddChild makes child a direct descendant of c, detaching it from any
// previous parent. Both sides of the link are updated together.
func (c *Category) AddChild(child *Category) error {
	if child == nil {
		return fmt.Errorf("%w: child is required", domain.ErrInvalidCategory)
	}
	for p := c; p != nil; p = p.parent {
		if p == child {
			return fmt.Errorf("%w: %q cannot be nested under itself", domain.ErrInvalidCategory, child.Name)
		}
	}
	if child.parent == c {
		return nil
	}
	if old := child.parent; old != nil {
		old.removeChild(child)
	}
	child.parent = c
	c.children = append(c.children, child)
	return nil
}

// AddItem files item under c and records c on the item.
func (c *Category) AddItem(item *Item) {
	for _, existing := range c.items {
		if existing == item {
			return
		}
	}
	c.items = append(c.items, item)
	item.categories = append(item.categories, c)
}

func (c *Category) removeChild(child *Category) {
	for i, existing := range c.children {
		if existing == child {
			c.children = append(c.children[:i], c.children[i+1:]...)
			return
		}
	}
}

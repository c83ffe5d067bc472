package models

import (
	"errors"
	"testing"

	"github.com/ghuser/ghshop/services/shop/domain"
)

func newCategory(t *testing.T, name string) *Category {
	t.Helper()
	c, err := NewCategory(name)
	if err != nil {
		t.Fatalf("NewCategory: %v", err)
	}
	return c
}

func TestCategory_AddChild(t *testing.T) {
	books := newCategory(t, "books")
	it := newCategory(t, "it")

	if err := books.AddChild(it); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	if it.Parent() != books {
		t.Fatal("child.parent not set")
	}
	if got := books.Children(); len(got) != 1 || got[0] != it {
		t.Fatalf("parent.children = %v", got)
	}

	// adding again is a no-op
	if err := books.AddChild(it); err != nil {
		t.Fatalf("AddChild again: %v", err)
	}
	if len(books.Children()) != 1 {
		t.Fatalf("expected 1 child, got %d", len(books.Children()))
	}
}

func TestCategory_AddChildMovesFromPreviousParent(t *testing.T) {
	books := newCategory(t, "books")
	media := newCategory(t, "media")
	it := newCategory(t, "it")

	if err := books.AddChild(it); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	if err := media.AddChild(it); err != nil {
		t.Fatalf("AddChild: %v", err)
	}
	if it.Parent() != media {
		t.Fatal("expected it to move under media")
	}
	if len(books.Children()) != 0 {
		t.Fatalf("expected books to lose its child, got %d", len(books.Children()))
	}
}

func TestCategory_AddChildRejectsCycles(t *testing.T) {
	root := newCategory(t, "root")
	mid := newCategory(t, "mid")
	leaf := newCategory(t, "leaf")
	if err := root.AddChild(mid); err != nil {
		t.Fatal(err)
	}
	if err := mid.AddChild(leaf); err != nil {
		t.Fatal(err)
	}

	for name, fn := range map[string]func() error{
		"self":     func() error { return root.AddChild(root) },
		"ancestor": func() error { return leaf.AddChild(root) },
		"nil":      func() error { return root.AddChild(nil) },
	} {
		if err := fn(); !errors.Is(err, domain.ErrInvalidCategory) {
			t.Fatalf("%s: expected ErrInvalidCategory, got %v", name, err)
		}
	}
	if root.Parent() != nil {
		t.Fatal("rejected AddChild must not change the tree")
	}
}

func TestCategory_AddItemLinksBothSides(t *testing.T) {
	c := newCategory(t, "books")
	item, err := NewItem("JPA", 1, 1, Book{})
	if err != nil {
		t.Fatal(err)
	}
	c.AddItem(item)
	c.AddItem(item)

	if got := c.Items(); len(got) != 1 || got[0] != item {
		t.Fatalf("category items = %v", got)
	}
	if got := item.Categories(); len(got) != 1 || got[0] != c {
		t.Fatalf("item categories = %v", got)
	}
}

func TestNewCategory_RequiresName(t *testing.T) {
	if _, err := NewCategory("  "); !errors.Is(err, domain.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

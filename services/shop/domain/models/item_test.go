package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/ghuser/ghshop/services/shop/domain"
)

func newBook(t *testing.T, price, stock int) *Item {
	t.Helper()
	item, err := NewItem("JPA Book", price, stock, Book{Author: "kim", ISBN: "1234"})
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}
	return item
}

func TestNewItem(t *testing.T) {
	t.Run("sets fields and generates id", func(t *testing.T) {
		item := newBook(t, 10000, 100)
		if item.ID == uuid.Nil {
			t.Fatal("expected non-zero ID")
		}
		if item.Price != 10000 || item.StockQuantity() != 100 {
			t.Fatalf("unexpected price/stock %d/%d", item.Price, item.StockQuantity())
		}
		if item.Kind() != KindBook {
			t.Fatalf("expected kind B, got %s", item.Kind())
		}
		if item.CreatedAt.IsZero() {
			t.Fatal("expected CreatedAt to be set")
		}
	})

	tests := []struct {
		name    string
		price   int
		stock   int
		details ItemDetails
	}{
		{"negative price", -1, 1, Album{}},
		{"negative stock", 1, -1, Movie{}},
		{"missing details", 1, 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewItem("x", tt.price, tt.stock, tt.details)
			if !errors.Is(err, domain.ErrInvalidItem) {
				t.Fatalf("expected ErrInvalidItem, got %v", err)
			}
		})
	}
}

func TestItem_RemoveStock(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		remove    int
		wantStock int
		wantErr   error
	}{
		{"partial", 10, 3, 7, nil},
		{"exact drains to zero", 2, 2, 0, nil},
		{"zero is a no-op", 5, 0, 5, nil},
		{"insufficient leaves stock unchanged", 2, 3, 2, domain.ErrNotEnoughStock},
		{"negative quantity rejected", 2, -1, 2, domain.ErrInvalidItem},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := newBook(t, 100, tt.stock)
			err := item.RemoveStock(tt.remove)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if item.StockQuantity() != tt.wantStock {
				t.Fatalf("expected stock %d, got %d", tt.wantStock, item.StockQuantity())
			}
		})
	}
}

func TestItem_AddStock(t *testing.T) {
	item := newBook(t, 100, 0)
	if err := item.AddStock(5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := item.AddStock(1 << 20); err != nil {
		t.Fatalf("large restock must succeed: %v", err)
	}
	if item.StockQuantity() != 5+(1<<20) {
		t.Fatalf("unexpected stock %d", item.StockQuantity())
	}
	if err := item.AddStock(-1); !errors.Is(err, domain.ErrInvalidItem) {
		t.Fatalf("expected ErrInvalidItem, got %v", err)
	}
}

func TestItem_AddThenRemoveRestoresStock(t *testing.T) {
	for _, q := range []int{0, 1, 7, 100} {
		item := newBook(t, 100, 3)
		if err := item.AddStock(q); err != nil {
			t.Fatalf("add %d: %v", q, err)
		}
		if err := item.RemoveStock(q); err != nil {
			t.Fatalf("remove %d: %v", q, err)
		}
		if item.StockQuantity() != 3 {
			t.Fatalf("q=%d: expected stock 3, got %d", q, item.StockQuantity())
		}
	}
}

func TestItem_SetStockQuantity(t *testing.T) {
	item := newBook(t, 100, 3)
	if err := item.SetStockQuantity(42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.StockQuantity() != 42 {
		t.Fatalf("expected 42, got %d", item.StockQuantity())
	}
	if err := item.SetStockQuantity(-3); !errors.Is(err, domain.ErrInvalidItem) {
		t.Fatalf("expected ErrInvalidItem, got %v", err)
	}
}

func TestParseItemKind(t *testing.T) {
	tests := map[string]ItemKind{
		"B": KindBook, "book": KindBook, " Album ": KindAlbum, "m": KindMovie,
	}
	for in, want := range tests {
		got, err := ParseItemKind(in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: expected %s, got %s", in, want, got)
		}
	}
	if _, err := ParseItemKind("vinyl"); !errors.Is(err, domain.ErrInvalidItem) {
		t.Fatalf("expected ErrInvalidItem, got %v", err)
	}
}

func TestItemKind_DispatchOnDetails(t *testing.T) {
	for _, d := range []ItemDetails{Book{}, Album{}, Movie{}} {
		item, err := NewItem("x", 1, 1, d)
		if err != nil {
			t.Fatalf("NewItem: %v", err)
		}
		switch v := item.Details.(type) {
		case Book:
			if item.Kind() != KindBook {
				t.Fatalf("book tagged %s", item.Kind())
			}
		case Album:
			if item.Kind() != KindAlbum {
				t.Fatalf("album tagged %s", item.Kind())
			}
		case Movie:
			if item.Kind() != KindMovie {
				t.Fatalf("movie tagged %s", item.Kind())
			}
		default:
			t.Fatalf("unexpected details %T", v)
		}
	}
}

package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/ghuser/ghshop/services/shop/domain"
	"github.com/ghuser/ghshop/services/shop/domain/models"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   models.ItemName
		wantErr bool
	}{
		{"valid name", "JPA 1 Book", false},
		{"valid name with special chars", "Spring-Boot_3!", false},
		{"leading whitespace", " Name", true},
		{"trailing whitespace", "Name ", true},
		{"only whitespace", "   ", true},
		{"tab character (control)", "Name\tName", true},
		{"newline character (control)", "Name\nName", true},
		{"DEL character", "Name\x7F", true},
		{"consecutive spaces", "Item  Name", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateName(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidItemName) {
				t.Fatalf("expected ErrInvalidItemName, got %v", err)
			}
		})
	}
}

func TestValidateItemForCreation(t *testing.T) {
	makeItem := func(name models.ItemName, details models.ItemDetails) *models.Item {
		item, err := models.NewItem(name, 1000, 1, details)
		if err != nil {
			t.Fatalf("NewItem: %v", err)
		}
		return item
	}

	t.Run("nil item returns error", func(t *testing.T) {
		if err := ValidateItemForCreation(nil); !errors.Is(err, domain.ErrInvalidItem) {
			t.Fatalf("expected ErrInvalidItem, got %v", err)
		}
	})

	t.Run("valid variants return nil", func(t *testing.T) {
		for _, d := range []models.ItemDetails{
			models.Book{Author: "kim", ISBN: "978-89-6626-015-X"},
			models.Album{Artist: "iu"},
			models.Movie{Director: "bong", Actor: "song"},
		} {
			if err := ValidateItemForCreation(makeItem("Valid Item", d)); err != nil {
				t.Fatalf("%T: unexpected error: %v", d, err)
			}
		}
	})

	t.Run("zero ID returns error", func(t *testing.T) {
		item := makeItem("Valid Item", models.Album{})
		item.ID = uuid.Nil
		if err := ValidateItemForCreation(item); !errors.Is(err, domain.ErrInvalidItem) {
			t.Fatalf("expected ErrInvalidItem, got %v", err)
		}
	})

	t.Run("bad isbn returns error", func(t *testing.T) {
		item := makeItem("Valid Item", models.Book{ISBN: "isbn?"})
		if err := ValidateItemForCreation(item); !errors.Is(err, domain.ErrInvalidItem) {
			t.Fatalf("expected ErrInvalidItem, got %v", err)
		}
	})

	t.Run("invalid name propagates error", func(t *testing.T) {
		item := makeItem(" leading space", models.Album{})
		if err := ValidateItemForCreation(item); !errors.Is(err, domain.ErrInvalidItemName) {
			t.Fatalf("expected ErrInvalidItemName, got %v", err)
		}
	})
}

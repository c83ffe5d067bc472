// Package services contains stateless domain services for the shop bounded
// context. They operate purely on domain types.
package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/ghuser/ghshop/services/shop/domain"
	"github.com/ghuser/ghshop/services/shop/domain/models"
)

// ValidateName enforces catalog naming rules beyond the ItemName length check:
// no surrounding or repeated spaces and no control characters.
func ValidateName(name models.ItemName) error {
	s := name.String()

	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: must not be only whitespace", domain.ErrInvalidItemName)
	}

	if s != strings.TrimSpace(s) {
		return fmt.Errorf("%w: must not have leading or trailing whitespace", domain.ErrInvalidItemName)
	}

	for _, r := range s {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: must not contain control characters", domain.ErrInvalidItemName)
		}
	}

	if strings.Contains(s, "  ") {
		return fmt.Errorf("%w: must not contain consecutive spaces", domain.ErrInvalidItemName)
	}

	return nil
}

// ValidateItemForCreation checks a constructed Item before it is persisted.
func ValidateItemForCreation(item *models.Item) error {
	if item == nil {
		return fmt.Errorf("%w: item cannot be nil", domain.ErrInvalidItem)
	}

	if err := ValidateName(item.Name); err != nil {
		return err
	}

	if item.ID == uuid.Nil {
		return fmt.Errorf("%w: id must be set", domain.ErrInvalidItem)
	}

	switch d := item.Details.(type) {
	case models.Book:
		if strings.ContainsFunc(d.ISBN, func(r rune) bool { return !unicode.IsDigit(r) && r != '-' && r != 'X' }) {
			return fmt.Errorf("%w: isbn may only contain digits, '-' and 'X'", domain.ErrInvalidItem)
		}
	case models.Album, models.Movie:
	default:
		return fmt.Errorf("%w: unsupported item details %T", domain.ErrInvalidItem, d)
	}

	return nil
}

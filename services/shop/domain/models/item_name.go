package models

import (
	"fmt"

	"github.com/ghuser/ghshop/services/shop/domain"
)

// ItemName is a value object for a catalog item name: 1 <= len(name) <= 255.
type ItemName string

const (
	minItemNameLength = 1
	maxItemNameLength = 255
)

// NewItemName constructs a valid ItemName or returns ErrInvalidItemName.
func NewItemName(s string) (ItemName, error) {
	if len(s) < minItemNameLength {
		return "", fmt.Errorf("%w: must be at least %d character", domain.ErrInvalidItemName, minItemNameLength)
	}
	if len(s) > maxItemNameLength {
		return "", fmt.Errorf("%w: must not exceed %d characters", domain.ErrInvalidItemName, maxItemNameLength)
	}
	return ItemName(s), nil
}

func (n ItemName) String() string {
	return string(n)
}

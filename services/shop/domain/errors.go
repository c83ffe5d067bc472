package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the shop domain. Use errors.Is() to check these.
var (
	// ErrMemberNotFound indicates the requested member does not exist.
	ErrMemberNotFound = errors.New("member not found")

	// ErrMemberAlreadyExists indicates a member with the same name is already registered.
	ErrMemberAlreadyExists = errors.New("member already exists")

	// ErrInvalidMember indicates member input violates domain constraints.
	ErrInvalidMember = errors.New("invalid member")

	// ErrItemNotFound indicates the requested item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidItem indicates item input violates domain constraints
	// (negative price or stock, unknown kind, missing variant data).
	ErrInvalidItem = errors.New("invalid item")

	// ErrInvalidItemName indicates the item name violates domain constraints.
	ErrInvalidItemName = errors.New("invalid item name")

	// ErrNotEnoughStock indicates a stock removal would drive the quantity below zero.
	ErrNotEnoughStock = errors.New("need more stock")

	// ErrCategoryNotFound indicates the requested category does not exist.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrInvalidCategory indicates a category operation would break the tree.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrOrderNotFound indicates the requested order does not exist.
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidOrder indicates an order could not be assembled from its parts.
	ErrInvalidOrder = errors.New("invalid order")

	// ErrInvalidOrderState indicates the order's lifecycle forbids the operation.
	ErrInvalidOrderState = errors.New("invalid order state")

	// ErrPaginationUnsupported indicates a fetch strategy cannot page its results.
	ErrPaginationUnsupported = errors.New("pagination not supported by fetch strategy")
)

// State errors. Both match ErrInvalidOrderState with errors.Is.
var (
	ErrDeliveryCompleted     = fmt.Errorf("%w: delivery already completed", ErrInvalidOrderState)
	ErrOrderAlreadyCancelled = fmt.Errorf("%w: order already cancelled", ErrInvalidOrderState)
	ErrOrderCancelled        = fmt.Errorf("%w: order is cancelled", ErrInvalidOrderState)
)

// Order assembly errors. All match ErrInvalidOrder with errors.Is.
var (
	ErrEmptyOrder            = fmt.Errorf("%w: at least one order item is required", ErrInvalidOrder)
	ErrOrderItemAttached     = fmt.Errorf("%w: order item already belongs to an order", ErrInvalidOrder)
	ErrDeliveryAttached      = fmt.Errorf("%w: delivery already belongs to an order", ErrInvalidOrder)
	ErrInvalidOrderCount     = fmt.Errorf("%w: count must be positive", ErrInvalidOrder)
	ErrOrderMemberRequired   = fmt.Errorf("%w: member is required", ErrInvalidOrder)
	ErrOrderDeliveryRequired = fmt.Errorf("%w: delivery is required", ErrInvalidOrder)
)

package repositories

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ghuser/ghshop/services/shop/domain"
	"github.com/ghuser/ghshop/services/shop/domain/models"
)

// MaxOrderResults caps every order query regardless of strategy.
const MaxOrderResults = 1000

// DefaultBatchSize is the IN-list window used by FetchJoin when none is configured.
const DefaultBatchSize = 100

// FetchStrategy selects how an order query resolves its relations.
type FetchStrategy string

const (
	// FetchNaive loads orders, then resolves each member, delivery and line
	// set per order through the identity map.
	FetchNaive FetchStrategy = "naive"
	// FetchJoin joins member and delivery, then loads lines in IN-list
	// batches. Offset/limit apply to orders in the first statement.
	FetchJoin FetchStrategy = "join"
	// FetchJoinAll joins every relation in one statement and collapses
	// duplicate order rows in memory. Paged searches fail with
	// ErrPaginationUnsupported.
	FetchJoinAll FetchStrategy = "join-all"
	// FetchProjection selects projections directly: orders, then lines.
	FetchProjection FetchStrategy = "projection"
	// FetchFlat selects one row per order line.
	FetchFlat FetchStrategy = "flat"
)

// Strategies lists every strategy in order of increasing query shaping.
var Strategies = []FetchStrategy{FetchNaive, FetchJoin, FetchJoinAll, FetchProjection, FetchFlat}

// ParseFetchStrategy maps a name to a strategy; empty selects FetchJoin.
func ParseFetchStrategy(s string) (FetchStrategy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FetchJoin, nil
	}
	for _, fs := range Strategies {
		if string(fs) == s {
			return fs, nil
		}
	}
	return "", fmt.Errorf("%w: unknown fetch strategy %q", domain.ErrInvalidOrder, s)
}

// OrderSearch is the order filter. Empty fields match everything; set fields
// combine with AND.
type OrderSearch struct {
	// MemberName matches members whose name contains it, case-insensitively.
	MemberName string
	Status     models.OrderStatus
	MemberID   uuid.UUID

	Offset int
	Limit  int
}

// Paged reports whether the search asks for a page rather than the full set.
func (s OrderSearch) Paged() bool {
	return s.Offset > 0 || s.Limit > 0
}

// EffectiveLimit clamps Limit to (0, MaxOrderResults].
func (s OrderSearch) EffectiveLimit() int {
	if s.Limit <= 0 || s.Limit > MaxOrderResults {
		return MaxOrderResults
	}
	return s.Limit
}

// Validate rejects negative paging values.
func (s OrderSearch) Validate() error {
	if s.Offset < 0 || s.Limit < 0 {
		return fmt.Errorf("%w: offset and limit must not be negative", domain.ErrInvalidOrder)
	}
	return nil
}

package repositories

import (
	"errors"
	"testing"

	"github.com/ghuser/ghshop/services/shop/domain"
)

func TestParseFetchStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want FetchStrategy
	}{
		{"", FetchJoin},
		{"naive", FetchNaive},
		{" JOIN ", FetchJoin},
		{"join-all", FetchJoinAll},
		{"projection", FetchProjection},
		{"flat", FetchFlat},
	}
	for _, tt := range tests {
		got, err := ParseFetchStrategy(tt.in)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("%q: expected %s, got %s", tt.in, tt.want, got)
		}
	}
	if _, err := ParseFetchStrategy("lazy"); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}
}

func TestOrderSearch_EffectiveLimit(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{0, MaxOrderResults},
		{-5, MaxOrderResults},
		{10, 10},
		{MaxOrderResults, MaxOrderResults},
		{MaxOrderResults + 1, MaxOrderResults},
	}
	for _, tt := range tests {
		if got := (OrderSearch{Limit: tt.limit}).EffectiveLimit(); got != tt.want {
			t.Fatalf("limit %d: expected %d, got %d", tt.limit, tt.want, got)
		}
	}
}

func TestOrderSearch_Paged(t *testing.T) {
	if (OrderSearch{}).Paged() {
		t.Fatal("empty search must not be paged")
	}
	if !(OrderSearch{Offset: 1}).Paged() || !(OrderSearch{Limit: 1}).Paged() {
		t.Fatal("offset or limit must mark the search as paged")
	}
	if err := (OrderSearch{Offset: -1}).Validate(); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}
}

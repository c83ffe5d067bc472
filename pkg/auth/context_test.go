package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestWithMemberID_MemberIDFromCtx(t *testing.T) {
	id := uuid.New()
	got, err := MemberIDFromCtx(WithMemberID(context.Background(), id))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != id {
		t.Fatalf("expected %v, got %v", id, got)
	}
}

func TestMemberIDFromCtx_NotSignedIn(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{"empty context", context.Background()},
		{"nil uuid", WithMemberID(context.Background(), uuid.Nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := MemberIDFromCtx(tt.ctx); !errors.Is(err, ErrNotSignedIn) {
				t.Fatalf("expected ErrNotSignedIn, got %v", err)
			}
		})
	}
}

package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

type contextKey string

const memberIDKey contextKey = "member_id"

// ErrNotSignedIn is returned when no member is attached to the request context.
// Handlers answer 401 when they see it.
var ErrNotSignedIn = errors.New("member not signed in")

// MemberIDFromCtx returns the signed-in member.
func MemberIDFromCtx(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(memberIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNotSignedIn
	}
	return id, nil
}

// WithMemberID attaches the signed-in member to ctx.
func WithMemberID(ctx context.Context, memberID uuid.UUID) context.Context {
	return context.WithValue(ctx, memberIDKey, memberID)
}

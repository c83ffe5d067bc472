package auth

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/ghuser/ghshop/pkg/httpx"
	"github.com/ghuser/ghshop/pkg/logger"
)

const (
	sessionName        = "ghshop_session"
	sessionMemberIDKey = "member_id"
)

// RequireMember rejects requests without a signed-in member with 401 and
// puts the member id into the request context for the rest.
//
// After this middleware, handlers can call auth.MemberIDFromCtx(r.Context()).
func RequireMember(store sessions.Store, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			memberID, err := sessionMember(store, r)
			if err != nil {
				log.WarnContext(r.Context(), "unauthenticated request", "error", err)
				httpx.JSONError(w, http.StatusUnauthorized, "sign in required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithMemberID(r.Context(), memberID)))
		})
	}
}

// OptionalMember attaches the signed-in member when there is one and lets
// anonymous requests through untouched.
func OptionalMember(store sessions.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if memberID, err := sessionMember(store, r); err == nil {
				r = r.WithContext(WithMemberID(r.Context(), memberID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SignIn stores memberID in the session cookie.
func SignIn(store sessions.Store, w http.ResponseWriter, r *http.Request, memberID uuid.UUID) error {
	session, err := store.Get(r, sessionName)
	if err != nil {
		// a stale cookie still yields a usable fresh session
		session, err = store.New(r, sessionName)
		if err != nil {
			return fmt.Errorf("open session: %w", err)
		}
	}
	session.Values[sessionMemberIDKey] = memberID.String()
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SignOut expires the session.
func SignOut(store sessions.Store, w http.ResponseWriter, r *http.Request) error {
	session, err := store.Get(r, sessionName)
	if err != nil {
		return nil
	}
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("expire session: %w", err)
	}
	return nil
}

func sessionMember(store sessions.Store, r *http.Request) (uuid.UUID, error) {
	session, err := store.Get(r, sessionName)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session cookie: %w", err)
	}
	raw, ok := session.Values[sessionMemberIDKey].(string)
	if !ok || raw == "" {
		return uuid.Nil, ErrNotSignedIn
	}
	memberID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid member_id in session: %w", err)
	}
	return memberID, nil
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/ghuser/ghshop/pkg/logger"
)

// newTestStore returns a CookieStore; RequireMember only needs sessions.Store.
func newTestStore() sessions.Store {
	return sessions.NewCookieStore(
		[]byte("test-auth-key-must-be-32-bytes!!"),
		[]byte("test-enc-key-must-be-32-bytes!!!"),
	)
}

// requestWithValue returns a request carrying a session cookie whose
// member_id is value, or an empty session when value is nil.
func requestWithValue(t *testing.T, store sessions.Store, value any) *http.Request {
	t.Helper()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	session, err := store.Get(r, sessionName)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if value != nil {
		session.Values[sessionMemberIDKey] = value
	}
	if err := session.Save(r, w); err != nil {
		t.Fatalf("save session: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/orders", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestRequireMember(t *testing.T) {
	store := newTestStore()
	memberID := uuid.New()

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
	}{
		{"valid session", requestWithValue(t, store, memberID.String()), http.StatusOK},
		{"missing cookie", httptest.NewRequest(http.MethodPost, "/api/orders", nil), http.StatusUnauthorized},
		{"session without member", requestWithValue(t, store, nil), http.StatusUnauthorized},
		{"malformed member id", requestWithValue(t, store, "not-a-valid-uuid"), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured uuid.UUID
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured, _ = MemberIDFromCtx(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			w := httptest.NewRecorder()
			RequireMember(store, logger.Discard())(next).ServeHTTP(w, tt.req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus == http.StatusOK && captured != memberID {
				t.Fatalf("expected member %v in context, got %v", memberID, captured)
			}
		})
	}
}

func TestOptionalMember(t *testing.T) {
	store := newTestStore()
	memberID := uuid.New()

	var got uuid.UUID
	var signedIn bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := MemberIDFromCtx(r.Context())
		got, signedIn = id, err == nil
	})

	OptionalMember(store)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if signedIn {
		t.Fatal("anonymous request should have no member")
	}

	OptionalMember(store)(next).ServeHTTP(httptest.NewRecorder(), requestWithValue(t, store, memberID.String()))
	if !signedIn || got != memberID {
		t.Fatalf("expected member %v, got %v (signed in %v)", memberID, got, signedIn)
	}
}

func TestSignInSignOut(t *testing.T) {
	store := newTestStore()
	memberID := uuid.New()

	w := httptest.NewRecorder()
	if err := SignIn(store, w, httptest.NewRequest(http.MethodPost, "/api/session", nil), memberID); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	got, err := sessionMember(store, req)
	if err != nil || got != memberID {
		t.Fatalf("expected %v, got %v (%v)", memberID, got, err)
	}

	w = httptest.NewRecorder()
	if err := SignOut(store, w, req); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected an expiring cookie, got %+v", cookies)
	}
}

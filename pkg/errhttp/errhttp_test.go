package errhttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghuser/ghshop/pkg/auth"
	shopdomain "github.com/ghuser/ghshop/services/shop/domain"
)

func TestWriteError_StatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not signed in", auth.ErrNotSignedIn, http.StatusUnauthorized},
		{"member not found", shopdomain.ErrMemberNotFound, http.StatusNotFound},
		{"wrapped item not found", fmt.Errorf("get item: %w", shopdomain.ErrItemNotFound), http.StatusNotFound},
		{"order not found", shopdomain.ErrOrderNotFound, http.StatusNotFound},
		{"category not found", shopdomain.ErrCategoryNotFound, http.StatusNotFound},
		{"duplicate member", shopdomain.ErrMemberAlreadyExists, http.StatusConflict},
		{"not enough stock", fmt.Errorf("line 1: %w", shopdomain.ErrNotEnoughStock), http.StatusConflict},
		{"delivery completed", shopdomain.ErrDeliveryCompleted, http.StatusConflict},
		{"already cancelled", shopdomain.ErrOrderAlreadyCancelled, http.StatusConflict},
		{"paging join-all", shopdomain.ErrPaginationUnsupported, http.StatusBadRequest},
		{"empty order", shopdomain.ErrEmptyOrder, http.StatusUnprocessableEntity},
		{"invalid item name", fmt.Errorf("%w: too long", shopdomain.ErrInvalidItemName), http.StatusUnprocessableEntity},
		{"invalid member", shopdomain.ErrInvalidMember, http.StatusUnprocessableEntity},
		{"unknown error", errors.New("something unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestWriteError_JSONBody(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, shopdomain.ErrNotEnoughStock)

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not valid JSON: %v", err)
	}
	if body["error"] != shopdomain.ErrNotEnoughStock.Error() {
		t.Fatalf("expected %q, got %q", shopdomain.ErrNotEnoughStock.Error(), body["error"])
	}
	if ct := w.Header().Get("Content-Type"); ct == "" {
		t.Fatal("Content-Type header not set")
	}
}

func TestWriteError_HidesInternalErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, errors.New("pq: password authentication failed"))

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("response body is not valid JSON: %v", err)
	}
	if body["error"] != http.StatusText(http.StatusInternalServerError) {
		t.Fatalf("internal error leaked: %q", body["error"])
	}
}

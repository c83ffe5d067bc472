// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to mapErrorToStatus for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/ghshop/pkg/auth"
	"github.com/ghuser/ghshop/pkg/httpx"
	shopdomain "github.com/ghuser/ghshop/services/shop/domain"
)

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Unrecognized errors become 500 and their text is not exposed.
func WriteError(w http.ResponseWriter, err error) {
	status := mapErrorToStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	httpx.JSONError(w, status, msg)
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, shopdomain.ErrMemberNotFound),
		errors.Is(err, shopdomain.ErrItemNotFound),
		errors.Is(err, shopdomain.ErrCategoryNotFound),
		errors.Is(err, shopdomain.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, shopdomain.ErrMemberAlreadyExists),
		errors.Is(err, shopdomain.ErrNotEnoughStock),
		errors.Is(err, shopdomain.ErrInvalidOrderState):
		return http.StatusConflict
	case errors.Is(err, shopdomain.ErrPaginationUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, shopdomain.ErrInvalidMember),
		errors.Is(err, shopdomain.ErrInvalidItem),
		errors.Is(err, shopdomain.ErrInvalidItemName),
		errors.Is(err, shopdomain.ErrInvalidCategory),
		errors.Is(err, shopdomain.ErrInvalidOrder):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

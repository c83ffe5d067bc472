// Package handlers holds the HTTP handlers of the shop context. Each handler
// decodes and validates its input, calls one application service and writes
// JSON.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/ghshop/pkg/errhttp"
	"github.com/ghuser/ghshop/pkg/httpx"
	"github.com/ghuser/ghshop/services/shop/domain/repositories"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"order not found"`
} // @name ErrorResponse

// ListResponse wraps every collection response. Total is the size of the
// whole collection for paged catalog lists.
type ListResponse[T any] struct {
	Count int `json:"count" example:"2"`
	Total int `json:"total,omitempty" example:"42"`
	Data  []T `json:"data"`
}

func list[T any](data []T) ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	return ListResponse[T]{Count: len(data), Data: data}
}

func page[T any](data []T, total int) ListResponse[T] {
	l := list(data)
	l.Total = total
	return l
}

// pathID parses the {id} URL parameter, writing 400 when it is not a UUID.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

var errInvalidQuery = errors.New("invalid query parameter")

// writeQueryError answers 400 for malformed query parameters and defers to
// errhttp for domain errors raised while parsing them.
func writeQueryError(w http.ResponseWriter, err error) {
	if errors.Is(err, errInvalidQuery) {
		httpx.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	errhttp.WriteError(w, err)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errInvalidQuery, key)
	}
	return n, nil
}

// queryOpts reads ?offset=&limit= for the catalog lists.
func queryOpts(r *http.Request) (repositories.QueryOpts, error) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return repositories.QueryOpts{}, err
	}
	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil {
		return repositories.QueryOpts{}, err
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	return repositories.QueryOpts{Offset: offset, Limit: limit}, nil
}

package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/ghshop/pkg/errhttp"
	"github.com/ghuser/ghshop/pkg/httpx"
	pkgvalidator "github.com/ghuser/ghshop/pkg/validator"
	appsvcs "github.com/ghuser/ghshop/services/shop/application/services"
	"github.com/ghuser/ghshop/services/shop/domain/models"
)

// CreateItemRequest is the request body for POST /items. Kind is one of
// book, album or movie and selects which variant fields apply.
type CreateItemRequest struct {
	Kind          string `json:"kind"           validate:"required,oneof=book album movie B A M" example:"book"`
	Name          string `json:"name"           validate:"notblank,max=255" example:"JPA1 BOOK"`
	Price         int    `json:"price"          validate:"gte=0" example:"10000"`
	StockQuantity int    `json:"stock_quantity" validate:"gte=0" example:"100"`
	Author        string `json:"author,omitempty"   validate:"max=255" example:"Kim"`
	ISBN          string `json:"isbn,omitempty"     validate:"max=32"  example:"978-89-6077-210-4"`
	Artist        string `json:"artist,omitempty"   validate:"max=255"`
	Etc           string `json:"etc,omitempty"      validate:"max=255"`
	Director      string `json:"director,omitempty" validate:"max=255"`
	Actor         string `json:"actor,omitempty"    validate:"max=255"`
} // @name CreateItemRequest

// UpdateItemRequest is the request body for PUT /items/{id}. Empty variant
// fields keep their current value.
type UpdateItemRequest struct {
	Name          string `json:"name"           validate:"notblank,max=255" example:"JPA1 BOOK"`
	Price         int    `json:"price"          validate:"gte=0" example:"12000"`
	StockQuantity int    `json:"stock_quantity" validate:"gte=0" example:"80"`
	Author        string `json:"author,omitempty"   validate:"max=255"`
	ISBN          string `json:"isbn,omitempty"     validate:"max=32"`
	Artist        string `json:"artist,omitempty"   validate:"max=255"`
	Etc           string `json:"etc,omitempty"      validate:"max=255"`
	Director      string `json:"director,omitempty" validate:"max=255"`
	Actor         string `json:"actor,omitempty"    validate:"max=255"`
} // @name UpdateItemRequest

// ItemResponse describes a catalog item. Only the fields of its kind are set.
type ItemResponse struct {
	ID            uuid.UUID `json:"id"             example:"123e4567-e89b-12d3-a456-426614174000"`
	Kind          string    `json:"kind"           example:"book"`
	Name          string    `json:"name"           example:"JPA1 BOOK"`
	Price         int       `json:"price"          example:"10000"`
	StockQuantity int       `json:"stock_quantity" example:"100"`
	Author        string    `json:"author,omitempty"`
	ISBN          string    `json:"isbn,omitempty"`
	Artist        string    `json:"artist,omitempty"`
	Etc           string    `json:"etc,omitempty"`
	Director      string    `json:"director,omitempty"`
	Actor         string    `json:"actor,omitempty"`
	CreatedAt     time.Time `json:"created_at"     example:"2024-01-15T10:30:00Z"`
} // @name ItemResponse

func itemResponse(item *models.Item) ItemResponse {
	resp := ItemResponse{
		ID:            item.ID,
		Kind:          item.Kind().Name(),
		Name:          item.Name.String(),
		Price:         item.Price,
		StockQuantity: item.StockQuantity(),
		CreatedAt:     item.CreatedAt,
	}
	switch d := item.Details.(type) {
	case models.Book:
		resp.Author, resp.ISBN = d.Author, d.ISBN
	case models.Album:
		resp.Artist, resp.Etc = d.Artist, d.Etc
	case models.Movie:
		resp.Director, resp.Actor = d.Director, d.Actor
	}
	return resp
}

// PostItemHandler handles POST /items.
type PostItemHandler struct {
	svc *appsvcs.Services
}

// NewPostItemHandler returns a PostItemHandler backed by the given services.
func NewPostItemHandler(svc *appsvcs.Services) *PostItemHandler {
	return &PostItemHandler{svc: svc}
}

// Execute creates a new item.
//
//	@Summary		Create item
//	@Description	Creates a book, album or movie with its initial stock
//	@Tags			items
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateItemRequest	true	"Item creation request"
//	@Success		201		{object}	ItemResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/items [post]
func (h *PostItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[CreateItemRequest](w, r)
	if !ok {
		return
	}
	kind, err := models.ParseItemKind(req.Kind)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	item, err := h.svc.Items.Create(r.Context(), appsvcs.CreateItemInput{
		Kind:          kind,
		Name:          req.Name,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		Author:        req.Author,
		ISBN:          req.ISBN,
		Artist:        req.Artist,
		Etc:           req.Etc,
		Director:      req.Director,
		Actor:         req.Actor,
	})
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, itemResponse(item))
}

// ListItemsHandler handles GET /items.
type ListItemsHandler struct {
	svc *appsvcs.Services
}

func NewListItemsHandler(svc *appsvcs.Services) *ListItemsHandler {
	return &ListItemsHandler{svc: svc}
}

// Execute lists the catalog.
//
//	@Summary	List items
//	@Tags		items
//	@Produce	json
//	@Param		offset	query		int	false	"Offset"
//	@Param		limit	query		int	false	"Page size (max 100)"
//	@Success	200		{object}	ListResponse[ItemResponse]
//	@Failure	400		{object}	ErrorResponse
//	@Router		/items [get]
func (h *ListItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	opts, err := queryOpts(r)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	items, total, err := h.svc.Items.FindItems(r.Context(), opts)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	out := make([]ItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, itemResponse(item))
	}
	httpx.JSON(w, http.StatusOK, page(out, total))
}

// GetItemHandler handles GET /items/{id}.
type GetItemHandler struct {
	svc *appsvcs.Services
}

func NewGetItemHandler(svc *appsvcs.Services) *GetItemHandler {
	return &GetItemHandler{svc: svc}
}

// Execute returns one item, served from the cache when warm.
//
//	@Summary	Get item
//	@Tags		items
//	@Produce	json
//	@Param		id	path		string	true	"Item ID"
//	@Success	200	{object}	ItemResponse
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/items/{id} [get]
func (h *GetItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := h.svc.Items.GetByID(r.Context(), id)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, itemResponse(item))
}

// PutItemHandler handles PUT /items/{id}.
type PutItemHandler struct {
	svc *appsvcs.Services
}

func NewPutItemHandler(svc *appsvcs.Services) *PutItemHandler {
	return &PutItemHandler{svc: svc}
}

// Execute updates an item.
//
//	@Summary	Update item
//	@Tags		items
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Item ID"
//	@Param		request	body		UpdateItemRequest	true	"New values"
//	@Success	200		{object}	ItemResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	422		{object}	ErrorResponse
//	@Router		/items/{id} [put]
func (h *PutItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[UpdateItemRequest](w, r)
	if !ok {
		return
	}
	item, err := h.svc.Items.Update(r.Context(), id, appsvcs.UpdateItemInput{
		Name:          req.Name,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		Author:        req.Author,
		ISBN:          req.ISBN,
		Artist:        req.Artist,
		Etc:           req.Etc,
		Director:      req.Director,
		Actor:         req.Actor,
	})
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, itemResponse(item))
}

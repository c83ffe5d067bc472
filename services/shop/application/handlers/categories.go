package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ghuser/ghshop/pkg/errhttp"
	"github.com/ghuser/ghshop/pkg/httpx"
	pkgvalidator "github.com/ghuser/ghshop/pkg/validator"
	appsvcs "github.com/ghuser/ghshop/services/shop/application/services"
	"github.com/ghuser/ghshop/services/shop/domain/models"
)

// CreateCategoryRequest is the request body for POST /categories.
type CreateCategoryRequest struct {
	Name     string     `json:"name"      validate:"notblank,max=255" example:"Books"`
	ParentID *uuid.UUID `json:"parent_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
} // @name CreateCategoryRequest

// LinkItemRequest is the request body for POST /categories/{id}/items.
type LinkItemRequest struct {
	ItemID uuid.UUID `json:"item_id" validate:"required" example:"123e4567-e89b-12d3-a456-426614174000"`
} // @name LinkItemRequest

// CategoryItem is an item filed under a category.
type CategoryItem struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name" example:"JPA1 BOOK"`
} // @name CategoryItem

// CategoryResponse is a category with its subtree.
type CategoryResponse struct {
	ID       uuid.UUID          `json:"id"`
	Name     string             `json:"name" example:"Books"`
	Children []CategoryResponse `json:"children"`
	Items    []CategoryItem     `json:"items"`
} // @name CategoryResponse

func categoryResponse(c *models.Category) CategoryResponse {
	resp := CategoryResponse{
		ID:       c.ID,
		Name:     c.Name,
		Children: []CategoryResponse{},
		Items:    []CategoryItem{},
	}
	for _, child := range c.Children() {
		resp.Children = append(resp.Children, categoryResponse(child))
	}
	for _, item := range c.Items() {
		resp.Items = append(resp.Items, CategoryItem{ID: item.ID, Name: item.Name.String()})
	}
	return resp
}

// PostCategoryHandler handles POST /categories.
type PostCategoryHandler struct {
	svc *appsvcs.Services
}

func NewPostCategoryHandler(svc *appsvcs.Services) *PostCategoryHandler {
	return &PostCategoryHandler{svc: svc}
}

// Execute creates a category, nested under parent_id when given.
//
//	@Summary	Create category
//	@Tags		categories
//	@Accept		json
//	@Produce	json
//	@Param		request	body		CreateCategoryRequest	true	"Category"
//	@Success	201		{object}	CategoryResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	422		{object}	ErrorResponse
//	@Router		/categories [post]
func (h *PostCategoryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[CreateCategoryRequest](w, r)
	if !ok {
		return
	}
	category, err := h.svc.Categories.Create(r.Context(), req.Name, req.ParentID)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, categoryResponse(category))
}

// CategoryTreeHandler handles GET /categories.
type CategoryTreeHandler struct {
	svc *appsvcs.Services
}

func NewCategoryTreeHandler(svc *appsvcs.Services) *CategoryTreeHandler {
	return &CategoryTreeHandler{svc: svc}
}

// Execute returns the category tree.
//
//	@Summary	Category tree
//	@Tags		categories
//	@Produce	json
//	@Success	200	{object}	ListResponse[CategoryResponse]
//	@Router		/categories [get]
func (h *CategoryTreeHandler) Execute(w http.ResponseWriter, r *http.Request) {
	roots, err := h.svc.Categories.Tree(r.Context())
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	out := make([]CategoryResponse, 0, len(roots))
	for _, c := range roots {
		out = append(out, categoryResponse(c))
	}
	httpx.JSON(w, http.StatusOK, list(out))
}

// LinkCategoryItemHandler handles POST /categories/{id}/items.
type LinkCategoryItemHandler struct {
	svc *appsvcs.Services
}

func NewLinkCategoryItemHandler(svc *appsvcs.Services) *LinkCategoryItemHandler {
	return &LinkCategoryItemHandler{svc: svc}
}

// Execute files an item under the category.
//
//	@Summary	Add item to category
//	@Tags		categories
//	@Accept		json
//	@Param		id		path	string			true	"Category ID"
//	@Param		request	body	LinkItemRequest	true	"Item"
//	@Success	204
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/categories/{id}/items [post]
func (h *LinkCategoryItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[LinkItemRequest](w, r)
	if !ok {
		return
	}
	if err := h.svc.Categories.AddItem(r.Context(), id, req.ItemID); err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.NoContent(w)
}

package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ghuser/ghshop/pkg/errhttp"
	"github.com/ghuser/ghshop/pkg/httpx"
	pkgvalidator "github.com/ghuser/ghshop/pkg/validator"
	appsvcs "github.com/ghuser/ghshop/services/shop/application/services"
	"github.com/ghuser/ghshop/services/shop/domain/models"
	"github.com/ghuser/ghshop/services/shop/domain/repositories"
	"github.com/ghuser/ghshop/services/shop/domain/views"
)

// OrderLineRequest is one requested line of a new order.
type OrderLineRequest struct {
	ItemID uuid.UUID `json:"item_id" validate:"required" example:"123e4567-e89b-12d3-a456-426614174000"`
	Count  int       `json:"count"   validate:"gte=1" example:"2"`
} // @name OrderLineRequest

// PlaceOrderRequest is the request body for POST /orders.
type PlaceOrderRequest struct {
	MemberID uuid.UUID          `json:"member_id" validate:"required" example:"123e4567-e89b-12d3-a456-426614174000"`
	Lines    []OrderLineRequest `json:"lines"     validate:"required,min=1,dive"`
} // @name PlaceOrderRequest

// OrderResponse is an order with its lines and total.
type OrderResponse struct {
	views.Order
	DeliveryStatus models.DeliveryStatus `json:"delivery_status,omitempty" example:"READY"`
	TotalPrice     int                   `json:"total_price" example:"50000"`
} // @name OrderResponse

func orderResponse(o views.Order) OrderResponse {
	return OrderResponse{Order: o, TotalPrice: o.TotalPrice()}
}

func aggregateResponse(o *models.Order) OrderResponse {
	resp := orderResponse(views.FromOrder(o))
	resp.DeliveryStatus = o.Delivery().Status()
	return resp
}

// orderSearch reads ?status=&member=&offset=&limit=. Unlike the catalog
// lists, an absent limit means the full capped result.
func orderSearch(r *http.Request) (repositories.OrderSearch, error) {
	var search repositories.OrderSearch
	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		status, err := models.ParseOrderStatus(raw)
		if err != nil {
			return search, err
		}
		search.Status = status
	}
	search.MemberName = q.Get("member")

	var err error
	if search.Offset, err = queryInt(r, "offset", 0); err != nil {
		return search, err
	}
	if search.Limit, err = queryInt(r, "limit", 0); err != nil {
		return search, err
	}
	return search, nil
}

// PlaceOrderHandler handles POST /orders.
type PlaceOrderHandler struct {
	svc *appsvcs.Services
}

func NewPlaceOrderHandler(svc *appsvcs.Services) *PlaceOrderHandler {
	return &PlaceOrderHandler{svc: svc}
}

// Execute places an order.
//
//	@Summary		Place order
//	@Description	Prices each line at the current item price, takes stock and ships to the member address
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			request	body		PlaceOrderRequest	true	"Order"
//	@Success		201		{object}	OrderResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/orders [post]
func (h *PlaceOrderHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[PlaceOrderRequest](w, r)
	if !ok {
		return
	}
	lines := make([]appsvcs.OrderLineInput, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = appsvcs.OrderLineInput{ItemID: l.ItemID, Count: l.Count}
	}
	order, err := h.svc.Orders.PlaceOrder(r.Context(), req.MemberID, lines)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, aggregateResponse(order))
}

// SearchOrdersHandler handles GET /orders.
type SearchOrdersHandler struct {
	svc *appsvcs.Services
}

func NewSearchOrdersHandler(svc *appsvcs.Services) *SearchOrdersHandler {
	return &SearchOrdersHandler{svc: svc}
}

// Execute searches orders with the requested fetch strategy.
//
//	@Summary		Search orders
//	@Description	Filters by status and member name substring (case-insensitive); at most 1000 orders
//	@Tags			orders
//	@Produce		json
//	@Param			status		query		string	false	"ORDERED or CANCELLED"
//	@Param			member		query		string	false	"Member name substring"
//	@Param			strategy	query		string	false	"naive, join, join-all, projection or flat"	default(join)
//	@Param			offset		query		int		false	"Offset"
//	@Param			limit		query		int		false	"Limit"
//	@Success		200			{object}	ListResponse[OrderResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Router			/orders [get]
func (h *SearchOrdersHandler) Execute(w http.ResponseWriter, r *http.Request) {
	search, err := orderSearch(r)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	strategy, err := repositories.ParseFetchStrategy(r.URL.Query().Get("strategy"))
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	orders, err := h.svc.Orders.Search(r.Context(), search, strategy)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderResponse(o))
	}
	httpx.JSON(w, http.StatusOK, list(out))
}

// FlatOrdersHandler handles GET /orders/flat.
type FlatOrdersHandler struct {
	svc *appsvcs.Services
}

func NewFlatOrdersHandler(svc *appsvcs.Services) *FlatOrdersHandler {
	return &FlatOrdersHandler{svc: svc}
}

// Execute returns one row per order line.
//
//	@Summary	Flat order rows
//	@Tags		orders
//	@Produce	json
//	@Param		status	query		string	false	"ORDERED or CANCELLED"
//	@Param		member	query		string	false	"Member name substring"
//	@Param		offset	query		int		false	"Offset (orders)"
//	@Param		limit	query		int		false	"Limit (orders)"
//	@Success	200		{object}	ListResponse[views.FlatRow]
//	@Failure	400		{object}	ErrorResponse
//	@Router		/orders/flat [get]
func (h *FlatOrdersHandler) Execute(w http.ResponseWriter, r *http.Request) {
	search, err := orderSearch(r)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	rows, err := h.svc.Orders.FlatRows(r.Context(), search)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list(rows))
}

// OrderSummariesHandler handles GET /orders/summaries.
type OrderSummariesHandler struct {
	svc *appsvcs.Services
}

func NewOrderSummariesHandler(svc *appsvcs.Services) *OrderSummariesHandler {
	return &OrderSummariesHandler{svc: svc}
}

// Execute returns orders without lines.
//
//	@Summary	Order summaries
//	@Tags		orders
//	@Produce	json
//	@Param		status	query		string	false	"ORDERED or CANCELLED"
//	@Param		member	query		string	false	"Member name substring"
//	@Param		offset	query		int		false	"Offset"
//	@Param		limit	query		int		false	"Limit"
//	@Success	200		{object}	ListResponse[views.OrderSummary]
//	@Failure	400		{object}	ErrorResponse
//	@Router		/orders/summaries [get]
func (h *OrderSummariesHandler) Execute(w http.ResponseWriter, r *http.Request) {
	search, err := orderSearch(r)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	summaries, err := h.svc.Orders.Summaries(r.Context(), search)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, list(summaries))
}

// GetOrderHandler handles GET /orders/{id}.
type GetOrderHandler struct {
	svc *appsvcs.Services
}

func NewGetOrderHandler(svc *appsvcs.Services) *GetOrderHandler {
	return &GetOrderHandler{svc: svc}
}

// Execute returns one order.
//
//	@Summary	Get order
//	@Tags		orders
//	@Produce	json
//	@Param		id	path		string	true	"Order ID"
//	@Success	200	{object}	OrderResponse
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/orders/{id} [get]
func (h *GetOrderHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, err := h.svc.Orders.Get(r.Context(), id)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, orderResponse(order))
}

// CancelOrderHandler handles POST /orders/{id}/cancel.
type CancelOrderHandler struct {
	svc *appsvcs.Services
}

func NewCancelOrderHandler(svc *appsvcs.Services) *CancelOrderHandler {
	return &CancelOrderHandler{svc: svc}
}

// Execute cancels an order and restocks its items.
//
//	@Summary	Cancel order
//	@Tags		orders
//	@Produce	json
//	@Param		id	path		string	true	"Order ID"
//	@Success	200	{object}	OrderResponse
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Failure	409	{object}	ErrorResponse
//	@Router		/orders/{id}/cancel [post]
func (h *CancelOrderHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, err := h.svc.Orders.CancelOrder(r.Context(), id)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, aggregateResponse(order))
}

// CompleteDeliveryHandler handles POST /orders/{id}/delivery/complete.
type CompleteDeliveryHandler struct {
	svc *appsvcs.Services
}

func NewCompleteDeliveryHandler(svc *appsvcs.Services) *CompleteDeliveryHandler {
	return &CompleteDeliveryHandler{svc: svc}
}

// Execute marks the delivery COMPLETED.
//
//	@Summary	Complete delivery
//	@Tags		orders
//	@Produce	json
//	@Param		id	path		string	true	"Order ID"
//	@Success	200	{object}	OrderResponse
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Failure	409	{object}	ErrorResponse
//	@Router		/orders/{id}/delivery/complete [post]
func (h *CompleteDeliveryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, err := h.svc.Orders.CompleteDelivery(r.Context(), id)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, aggregateResponse(order))
}

package handlers

import (
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/ghuser/ghshop/pkg/auth"
	"github.com/ghuser/ghshop/pkg/errhttp"
	"github.com/ghuser/ghshop/pkg/httpx"
	pkgvalidator "github.com/ghuser/ghshop/pkg/validator"
	appsvcs "github.com/ghuser/ghshop/services/shop/application/services"
)

// SignInRequest is the request body for POST /session. There are no
// passwords: a member signs in by name.
type SignInRequest struct {
	Name string `json:"name" validate:"notblank,max=255" example:"userA"`
} // @name SignInRequest

// SignInHandler handles POST /session.
type SignInHandler struct {
	svc   *appsvcs.Services
	store sessions.Store
}

func NewSignInHandler(svc *appsvcs.Services, store sessions.Store) *SignInHandler {
	return &SignInHandler{svc: svc, store: store}
}

// Execute starts a session for the named member.
//
//	@Summary	Sign in
//	@Tags		session
//	@Accept		json
//	@Produce	json
//	@Param		request	body		SignInRequest	true	"Member name"
//	@Success	200		{object}	MemberResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/session [post]
func (h *SignInHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[SignInRequest](w, r)
	if !ok {
		return
	}
	member, err := h.svc.Members.FindByName(r.Context(), req.Name)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	if err := auth.SignIn(h.store, w, r, member.ID); err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, memberResponse(member))
}

// SignOutHandler handles DELETE /session.
type SignOutHandler struct {
	store sessions.Store
}

func NewSignOutHandler(store sessions.Store) *SignOutHandler {
	return &SignOutHandler{store: store}
}

// Execute ends the session.
//
//	@Summary	Sign out
//	@Tags		session
//	@Success	204
//	@Router		/session [delete]
func (h *SignOutHandler) Execute(w http.ResponseWriter, r *http.Request) {
	if err := auth.SignOut(h.store, w, r); err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.NoContent(w)
}

// MyOrdersHandler handles GET /me/orders. It must run behind
// auth.RequireMember.
type MyOrdersHandler struct {
	svc *appsvcs.Services
}

func NewMyOrdersHandler(svc *appsvcs.Services) *MyOrdersHandler {
	return &MyOrdersHandler{svc: svc}
}

// Execute lists the signed-in member's orders.
//
//	@Summary	My orders
//	@Tags		session
//	@Produce	json
//	@Success	200	{object}	ListResponse[OrderResponse]
//	@Failure	401	{object}	ErrorResponse
//	@Router		/me/orders [get]
func (h *MyOrdersHandler) Execute(w http.ResponseWriter, r *http.Request) {
	memberID, err := auth.MemberIDFromCtx(r.Context())
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	orders, err := h.svc.Orders.MemberOrders(r.Context(), memberID)
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

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

// AddressBody is the address part of member requests and responses.
type AddressBody struct {
	City    string `json:"city"    validate:"max=255" example:"Seoul"`
	Street  string `json:"street"  validate:"max=255" example:"Teheran-ro 1"`
	Zipcode string `json:"zipcode" validate:"max=20"  example:"06236"`
} // @name Address

// JoinMemberRequest is the request body for POST /members.
type JoinMemberRequest struct {
	Name    string      `json:"name" validate:"notblank,max=255" example:"userA"`
	Address AddressBody `json:"address"`
} // @name JoinMemberRequest

// RenameMemberRequest is the request body for PUT /members/{id}.
type RenameMemberRequest struct {
	Name string `json:"name" validate:"notblank,max=255" example:"userC"`
} // @name RenameMemberRequest

// MemberResponse describes a member.
type MemberResponse struct {
	ID        uuid.UUID   `json:"id"         example:"123e4567-e89b-12d3-a456-426614174000"`
	Name      string      `json:"name"       example:"userA"`
	Address   AddressBody `json:"address"`
	CreatedAt time.Time   `json:"created_at" example:"2024-01-15T10:30:00Z"`
} // @name MemberResponse

func memberResponse(m *models.Member) MemberResponse {
	return MemberResponse{
		ID:        m.ID,
		Name:      m.Name,
		Address:   AddressBody{City: m.Address.City, Street: m.Address.Street, Zipcode: m.Address.Zipcode},
		CreatedAt: m.CreatedAt,
	}
}

// PostMemberHandler handles POST /members.
type PostMemberHandler struct {
	svc *appsvcs.Services
}

func NewPostMemberHandler(svc *appsvcs.Services) *PostMemberHandler {
	return &PostMemberHandler{svc: svc}
}

// Execute registers a member.
//
//	@Summary		Join member
//	@Description	Registers a member; names are unique
//	@Tags			members
//	@Accept			json
//	@Produce		json
//	@Param			request	body		JoinMemberRequest	true	"Member"
//	@Success		201		{object}	MemberResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/members [post]
func (h *PostMemberHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[JoinMemberRequest](w, r)
	if !ok {
		return
	}
	address := models.NewAddress(req.Address.City, req.Address.Street, req.Address.Zipcode)
	member, err := h.svc.Members.Join(r.Context(), req.Name, address)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, memberResponse(member))
}

// ListMembersHandler handles GET /members.
type ListMembersHandler struct {
	svc *appsvcs.Services
}

func NewListMembersHandler(svc *appsvcs.Services) *ListMembersHandler {
	return &ListMembersHandler{svc: svc}
}

// Execute lists members.
//
//	@Summary	List members
//	@Tags		members
//	@Produce	json
//	@Param		offset	query		int	false	"Offset"
//	@Param		limit	query		int	false	"Page size (max 100)"
//	@Success	200		{object}	ListResponse[MemberResponse]
//	@Failure	400		{object}	ErrorResponse
//	@Router		/members [get]
func (h *ListMembersHandler) Execute(w http.ResponseWriter, r *http.Request) {
	opts, err := queryOpts(r)
	if err != nil {
		writeQueryError(w, err)
		return
	}
	members, total, err := h.svc.Members.FindMembers(r.Context(), opts)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	out := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, memberResponse(m))
	}
	httpx.JSON(w, http.StatusOK, page(out, total))
}

// GetMemberHandler handles GET /members/{id}.
type GetMemberHandler struct {
	svc *appsvcs.Services
}

func NewGetMemberHandler(svc *appsvcs.Services) *GetMemberHandler {
	return &GetMemberHandler{svc: svc}
}

// Execute returns one member.
//
//	@Summary	Get member
//	@Tags		members
//	@Produce	json
//	@Param		id	path		string	true	"Member ID"
//	@Success	200	{object}	MemberResponse
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/members/{id} [get]
func (h *GetMemberHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	member, err := h.svc.Members.FindOne(r.Context(), id)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, memberResponse(member))
}

// PutMemberHandler handles PUT /members/{id}.
type PutMemberHandler struct {
	svc *appsvcs.Services
}

func NewPutMemberHandler(svc *appsvcs.Services) *PutMemberHandler {
	return &PutMemberHandler{svc: svc}
}

// Execute renames a member.
//
//	@Summary	Rename member
//	@Tags		members
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Member ID"
//	@Param		request	body		RenameMemberRequest	true	"New name"
//	@Success	200		{object}	MemberResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	422		{object}	ErrorResponse
//	@Router		/members/{id} [put]
func (h *PutMemberHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := pkgvalidator.ValidateRequest[RenameMemberRequest](w, r)
	if !ok {
		return
	}
	member, err := h.svc.Members.Rename(r.Context(), id, req.Name)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, memberResponse(member))
}

package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/roadmap/api/transport"
	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/pkg/httpcontext"
	adminUC "github.com/fastygo/roadmap/usecase/admin"
)

// AdminHandler serves the member and invite management routes. Role checks
// happen in the use case against the stored profile.
type AdminHandler struct {
	baseHandler
	uc *adminUC.UseCase
}

func NewAdminHandler(uc *adminUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Create invite
// @Tags admin
// @Router /api/v1/admin/invites [post]
func (h *AdminHandler) CreateInvite(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	actor, ok := h.caller(ctx, stdCtx)
	if !ok {
		return
	}

	var req transport.InviteRequest
	if !h.decode(ctx, &req) {
		return
	}

	invite, err := h.uc.CreateInvite(stdCtx, actor, req.Email)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, invite)
}

// @Summary List invites
// @Tags admin
// @Router /api/v1/admin/invites [get]
func (h *AdminHandler) ListInvites(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	actor, ok := h.caller(ctx, stdCtx)
	if !ok {
		return
	}

	invites, err := h.uc.ListInvites(stdCtx, actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, invites, len(invites), 0)
}

// @Summary Revoke invite
// @Tags admin
// @Router /api/v1/admin/invites/{id} [delete]
func (h *AdminHandler) RevokeInvite(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	actor, ok := h.caller(ctx, stdCtx)
	if !ok {
		return
	}

	if err := h.uc.RevokeInvite(stdCtx, actor, pathParam(ctx, "id")); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary List members
// @Tags admin
// @Router /api/v1/admin/members [get]
func (h *AdminHandler) ListMembers(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	actor, ok := h.caller(ctx, stdCtx)
	if !ok {
		return
	}

	members, err := h.uc.ListMembers(stdCtx, actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, members, len(members), 0)
}

// @Summary Change member role
// @Tags admin
// @Router /api/v1/admin/members/{id}/role [put]
func (h *AdminHandler) UpdateRole(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	actor, ok := h.caller(ctx, stdCtx)
	if !ok {
		return
	}

	var req transport.RoleRequest
	if !h.decode(ctx, &req) {
		return
	}

	if err := h.uc.UpdateMemberRole(stdCtx, actor, pathParam(ctx, "id"), domain.Role(req.Role)); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

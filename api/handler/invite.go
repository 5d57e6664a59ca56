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

// InviteHandler exposes the unauthenticated invite-token lookups used during
// registration.
type InviteHandler struct {
	baseHandler
	uc *adminUC.UseCase
}

func NewInviteHandler(uc *adminUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *InviteHandler {
	return &InviteHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Check invite token
// @Tags invites
// @Router /api/v1/invites/{token} [get]
func (h *InviteHandler) Validate(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	invite, err := h.uc.ValidateInvite(stdCtx, pathParam(ctx, "token"))
	switch {
	case err == nil:
		h.respondSuccess(ctx, http.StatusOK, transport.InviteCheck{Email: invite.Email, Valid: true})
	case domain.IsDomainError(err, domain.ErrCodeNotFound), domain.IsDomainError(err, domain.ErrCodeConflict):
		h.respondSuccess(ctx, http.StatusOK, transport.InviteCheck{Valid: false})
	default:
		h.respondError(ctx, err)
	}
}

// @Summary Accept invite token
// @Tags invites
// @Router /api/v1/invites/{token}/accept [post]
func (h *InviteHandler) Accept(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	invite, err := h.uc.AcceptInvite(stdCtx, pathParam(ctx, "token"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transport.InviteCheck{Email: invite.Email, Valid: true})
}

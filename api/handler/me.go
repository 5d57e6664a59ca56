package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/roadmap/pkg/httpcontext"
	identityUC "github.com/fastygo/roadmap/usecase/identity"
)

type MeHandler struct {
	baseHandler
	uc *identityUC.UseCase
}

func NewMeHandler(uc *identityUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *MeHandler {
	return &MeHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Current member
// @Description Returns the caller's profile, creating it on first use.
// @Tags profile
// @Router /api/v1/me [get]
func (h *MeHandler) Get(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	actor, ok := h.caller(ctx, stdCtx)
	if !ok {
		return
	}

	profile, err := h.uc.Profile(stdCtx, actor)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"profile":  profile,
		"email":    actor.Email,
		"is_admin": profile.IsAdmin(),
	})
}

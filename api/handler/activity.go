package handler

import (
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/roadmap/pkg/httpcontext"
	roadmapUC "github.com/fastygo/roadmap/usecase/roadmap"
)

// maxActivityLimit caps the ?limit query.
const maxActivityLimit = 200

type ActivityHandler struct {
	baseHandler
	uc           *roadmapUC.UseCase
	defaultLimit int
}

func NewActivityHandler(uc *roadmapUC.UseCase, defaultLimit int, adapter *httpcontext.Adapter, logger *zap.Logger) *ActivityHandler {
	if defaultLimit <= 0 {
		defaultLimit = roadmapUC.DefaultEventLimit
	}
	return &ActivityHandler{
		baseHandler:  newBaseHandler(adapter, logger),
		uc:           uc,
		defaultLimit: defaultLimit,
	}
}

// @Summary Recent activity
// @Tags events
// @Router /api/v1/events [get]
func (h *ActivityHandler) Recent(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	if _, ok := h.caller(ctx, stdCtx); !ok {
		return
	}

	limit := parseInt(string(ctx.QueryArgs().Peek("limit")), h.defaultLimit)
	if limit <= 0 {
		limit = h.defaultLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	events, err := h.uc.RecentEvents(stdCtx, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, events, len(events), limit)
}

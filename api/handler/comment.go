package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/roadmap/api/transport"
	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/pkg/httpcontext"
	roadmapUC "github.com/fastygo/roadmap/usecase/roadmap"
)

type CommentHandler struct {
	baseHandler
	uc       *roadmapUC.UseCase
	resolver IdentityResolver
}

func NewCommentHandler(uc *roadmapUC.UseCase, resolver IdentityResolver, adapter *httpcontext.Adapter, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		resolver:    resolver,
	}
}

// @Summary List comments of an item
// @Tags comments
// @Router /api/v1/items/{id}/comments [get]
func (h *CommentHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	if _, ok := h.caller(ctx, stdCtx); !ok {
		return
	}

	comments, err := h.uc.ListComments(stdCtx, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, comments, len(comments), 0)
}

// @Summary Add comment
// @Tags comments
// @Router /api/v1/items/{id}/comments [post]
func (h *CommentHandler) Create(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	actor, ok := h.resolvedCaller(ctx, stdCtx, h.resolver)
	if !ok {
		return
	}

	var req transport.CommentRequest
	if !h.decode(ctx, &req) {
		return
	}

	comment, err := h.uc.AddComment(stdCtx, actor, domain.CommentInput{
		ItemID:  pathParam(ctx, "id"),
		Message: req.Message,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.log(stdCtx).Debug("comment added", zap.String("comment_id", comment.ID))
	h.respondSuccess(ctx, http.StatusCreated, comment)
}

// @Summary Delete comment
// @Tags comments
// @Router /api/v1/comments/{id} [delete]
func (h *CommentHandler) Delete(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	actor, ok := h.caller(ctx, stdCtx)
	if !ok {
		return
	}

	if err := h.uc.DeleteComment(stdCtx, actor, pathParam(ctx, "id")); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/roadmap/api/transport"
	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/internal/projector"
	"github.com/fastygo/roadmap/pkg/httpcontext"
	roadmapUC "github.com/fastygo/roadmap/usecase/roadmap"
)

type ItemHandler struct {
	baseHandler
	uc       *roadmapUC.UseCase
	resolver IdentityResolver
	viewOpts []projector.Option
}

func NewItemHandler(uc *roadmapUC.UseCase, resolver IdentityResolver, viewOpts []projector.Option, adapter *httpcontext.Adapter, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		resolver:    resolver,
		viewOpts:    viewOpts,
	}
}

// @Summary List roadmap items
// @Tags items
// @Router /api/v1/items [get]
func (h *ItemHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	if _, ok := h.caller(ctx, stdCtx); !ok {
		return
	}

	items, err := h.uc.ListItems(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondList(ctx, items, len(items), 0)
}

// @Summary Get roadmap item
// @Tags items
// @Router /api/v1/items/{id} [get]
func (h *ItemHandler) Get(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	if _, ok := h.caller(ctx, stdCtx); !ok {
		return
	}

	item, err := h.uc.GetItem(stdCtx, pathParam(ctx, "id"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, item)
}

// @Summary Create roadmap item
// @Tags items
// @Router /api/v1/items [post]
func (h *ItemHandler) Create(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	actor, ok := h.resolvedCaller(ctx, stdCtx, h.resolver)
	if !ok {
		return
	}

	var req transport.ItemRequest
	if !h.decode(ctx, &req) {
		return
	}
	in, err := req.Input()
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	item, err := h.uc.CreateItem(stdCtx, actor, in)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, item)
}

// @Summary Update roadmap item
// @Tags items
// @Router /api/v1/items/{id} [patch]
func (h *ItemHandler) Update(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	actor, ok := h.resolvedCaller(ctx, stdCtx, h.resolver)
	if !ok {
		return
	}

	var req transport.ItemPatchRequest
	if !h.decode(ctx, &req) {
		return
	}
	patch, err := req.Patch()
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	item, err := h.uc.UpdateItem(stdCtx, actor, pathParam(ctx, "id"), patch)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, item)
}

// @Summary Change item status
// @Tags items
// @Router /api/v1/items/{id}/status [put]
func (h *ItemHandler) SetStatus(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	actor, ok := h.resolvedCaller(ctx, stdCtx, h.resolver)
	if !ok {
		return
	}

	var req transport.StatusRequest
	if !h.decode(ctx, &req) {
		return
	}
	status, _ := domain.ParseStatus(req.Status)

	item, err := h.uc.SetStatus(stdCtx, actor, pathParam(ctx, "id"), status)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, item)
}

// @Summary Delete roadmap item
// @Tags items
// @Router /api/v1/items/{id} [delete]
func (h *ItemHandler) Delete(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	actor, ok := h.resolvedCaller(ctx, stdCtx, h.resolver)
	if !ok {
		return
	}

	if err := h.uc.DeleteItem(stdCtx, actor, pathParam(ctx, "id")); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Projected dashboard view
// @Tags items
// @Router /api/v1/items/view [get]
func (h *ItemHandler) View(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	if _, ok := h.caller(ctx, stdCtx); !ok {
		return
	}

	opts, err := viewOptions(ctx.QueryArgs())
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	items, err := h.uc.ListItems(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, projector.Project(items, opts, h.viewOpts...))
}

// @Summary Progress summary
// @Tags items
// @Router /api/v1/summary [get]
func (h *ItemHandler) Summary(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()
	if _, ok := h.caller(ctx, stdCtx); !ok {
		return
	}

	items, err := h.uc.ListItems(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"summary":  projector.Summarize(items),
		"upcoming": projector.Upcoming(items, parseInt(string(ctx.QueryArgs().Peek("upcoming")), projector.DefaultUpcoming)),
	})
}

func viewOptions(args *fasthttp.Args) (projector.ViewOptions, error) {
	opts := projector.DefaultViewOptions()
	fields := map[string][]string{}
	var ok bool

	if opts.Mode, ok = projector.ParseMode(string(args.Peek("mode"))); !ok {
		fields["mode"] = append(fields["mode"], "unknown view mode")
	}
	if opts.Criteria.Status, ok = projector.ParseStatusFilter(string(args.Peek("status"))); !ok {
		fields["status"] = append(fields["status"], "unknown status")
	}
	opts.Criteria.Query = string(args.Peek("q"))
	if opts.Sort, ok = projector.ParseSortField(string(args.Peek("sort"))); !ok {
		fields["sort"] = append(fields["sort"], "unknown sort field")
	}
	if opts.Dir, ok = projector.ParseDirection(string(args.Peek("dir")), projector.Desc); !ok {
		fields["dir"] = append(fields["dir"], "direction must be asc or desc")
	}
	if opts.Group, ok = projector.ParseGroupBy(string(args.Peek("group"))); !ok {
		fields["group"] = append(fields["group"], "group must be month or week")
	}

	if len(fields) > 0 {
		return opts, domain.NewValidationError(fields)
	}
	return opts, nil
}

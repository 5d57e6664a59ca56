package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/roadmap/api/transport"
	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/pkg/httpcontext"
	appLogger "github.com/fastygo/roadmap/pkg/logger"
)

// IdentityResolver turns the bare token identity into a caller with a stored
// profile and role.
type IdentityResolver interface {
	Resolve(ctx context.Context, id domain.Identity) (domain.Identity, error)
}

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(httpcontext.WithIdentity(context.Background(), httpcontext.RequestIdentity(ctx)))
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	if status == http.StatusNoContent {
		ctx.SetStatusCode(status)
		return
	}
	h.respondJSON(ctx, status, transport.NewSuccess(data, nil))
}

func (h baseHandler) respondList(ctx *fasthttp.RequestCtx, data interface{}, count, limit int) {
	h.respondJSON(ctx, http.StatusOK, transport.NewList(data, count, limit))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", string(ctx.Path())), zap.Error(err))
	}
	if fields := domain.FieldErrors(err); len(fields) > 0 {
		h.respondJSON(ctx, status, transport.NewValidationError(code, fields))
		return
	}
	h.respondJSON(ctx, status, transport.NewError(code, err.Error(), nil))
}

// caller returns the authenticated identity or writes a 401.
func (h baseHandler) caller(ctx *fasthttp.RequestCtx, stdCtx context.Context) (domain.Identity, bool) {
	id, ok := httpcontext.IdentityFrom(stdCtx)
	if !ok {
		h.respondError(ctx, domain.ErrUnauthorized)
		return domain.Identity{}, false
	}
	return id, true
}

// resolvedCaller also makes sure the caller has a profile row.
func (h baseHandler) resolvedCaller(ctx *fasthttp.RequestCtx, stdCtx context.Context, resolver IdentityResolver) (domain.Identity, bool) {
	id, ok := h.caller(ctx, stdCtx)
	if !ok || resolver == nil {
		return id, ok
	}
	resolved, err := resolver.Resolve(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return domain.Identity{}, false
	}
	return resolved, true
}

func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		h.respondError(ctx, domain.ErrInvalidPayload)
		return false
	}
	return true
}

func (h baseHandler) log(stdCtx context.Context) *zap.Logger {
	return appLogger.WithRequestID(stdCtx, h.logger)
}

func pathParam(ctx *fasthttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return v
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, string(domain.ErrCodeConflict)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}

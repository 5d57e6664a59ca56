package router_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/roadmap/api/handler"
	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/internal/infrastructure/monitor"
	"github.com/fastygo/roadmap/internal/router"
	"github.com/fastygo/roadmap/internal/testutil"
	"github.com/fastygo/roadmap/pkg/httpcontext"
	adminUC "github.com/fastygo/roadmap/usecase/admin"
	identityUC "github.com/fastygo/roadmap/usecase/identity"
	roadmapUC "github.com/fastygo/roadmap/usecase/roadmap"
)

type upMonitor struct{}

func (upMonitor) GetStatus() monitor.Status { return monitor.Status{Database: true, ChangeBus: true} }

// headerAuth stands in for the JWT middleware: a request is authenticated
// when it carries X-User-ID.
func headerAuth(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if len(ctx.Request.Header.Peek(httpcontext.HeaderUserID)) == 0 {
			ctx.SetStatusCode(fasthttp.StatusUnauthorized)
			return
		}
		next(ctx)
	}
}

func newHandler(t *testing.T) fasthttp.RequestHandler {
	t.Helper()
	store := testutil.NewMemStore()
	store.SeedProfile(domain.Profile{ID: "u-anna", Name: "Anna", Role: domain.RoleFamily})
	store.SeedItem(domain.RoadmapItem{ID: "item-1", Title: "Tiles", Status: domain.StatusPlanned, CreatedBy: domain.Profile{ID: "u-anna"}})
	repos := store.Repos()

	adapter := httpcontext.NewAdapter(time.Second)
	ident := identityUC.New(repos.Profiles, nil, nil)
	rm := roadmapUC.New(store, repos, nil, nil)
	adm := adminUC.New(repos.Profiles, repos.Invites, nil)

	r := router.New(router.Handlers{
		Health:   apiHandler.NewHealthHandler(upMonitor{}, adapter, nil),
		Me:       apiHandler.NewMeHandler(ident, adapter, nil),
		Item:     apiHandler.NewItemHandler(rm, ident, nil, adapter, nil),
		Comment:  apiHandler.NewCommentHandler(rm, ident, adapter, nil),
		Activity: apiHandler.NewActivityHandler(rm, 20, adapter, nil),
		Admin:    apiHandler.NewAdminHandler(adm, adapter, nil),
		Invite:   apiHandler.NewInviteHandler(adm, adapter, nil),
	}, headerAuth)
	return r.Handler
}

func serve(h fasthttp.RequestHandler, method, uri string, authed bool) int {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if authed {
		ctx.Request.Header.Set(httpcontext.HeaderUserID, "u-anna")
	}
	h(&ctx)
	return ctx.Response.StatusCode()
}

func TestRoutes(t *testing.T) {
	h := newHandler(t)

	tests := []struct {
		method string
		uri    string
		authed bool
		want   int
	}{
		{http.MethodGet, "/health", false, http.StatusOK},
		{http.MethodGet, "/api/v1/items", false, http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/items", true, http.StatusOK},
		{http.MethodGet, "/api/v1/items/view?mode=kanban", true, http.StatusOK},
		{http.MethodGet, "/api/v1/items/item-1", true, http.StatusOK},
		{http.MethodGet, "/api/v1/items/nope", true, http.StatusNotFound},
		{http.MethodGet, "/api/v1/items/item-1/comments", true, http.StatusOK},
		{http.MethodGet, "/api/v1/summary", true, http.StatusOK},
		{http.MethodGet, "/api/v1/events", true, http.StatusOK},
		{http.MethodGet, "/api/v1/me", true, http.StatusOK},
		{http.MethodGet, "/api/v1/admin/members", true, http.StatusForbidden},
		{http.MethodGet, "/api/v1/invites/unknown", false, http.StatusOK},
		{http.MethodPost, "/api/v1/invites/unknown/accept", false, http.StatusNotFound},
		{http.MethodDelete, "/api/v1/items/item-1", true, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, serve(h, tt.method, tt.uri, tt.authed))
		})
	}
}

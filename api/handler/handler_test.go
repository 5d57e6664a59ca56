package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/roadmap/api/handler"
	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/internal/infrastructure/monitor"
	"github.com/fastygo/roadmap/internal/projector"
	"github.com/fastygo/roadmap/internal/testutil"
	"github.com/fastygo/roadmap/pkg/httpcontext"
	adminUC "github.com/fastygo/roadmap/usecase/admin"
	identityUC "github.com/fastygo/roadmap/usecase/identity"
	roadmapUC "github.com/fastygo/roadmap/usecase/roadmap"
)

var (
	anna  = domain.Identity{UserID: "u-anna", Email: "anna@example.com"}
	admin = domain.Identity{UserID: "u-admin", Email: "papa@example.com"}
)

type env struct {
	store    *testutil.MemStore
	roadmap  *roadmapUC.UseCase
	items    *handler.ItemHandler
	comments *handler.CommentHandler
	activity *handler.ActivityHandler
	me       *handler.MeHandler
	admin    *handler.AdminHandler
	invites  *handler.InviteHandler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := testutil.NewMemStore()
	store.SeedProfile(domain.Profile{ID: anna.UserID, Name: "Anna", Role: domain.RoleFamily})
	store.SeedProfile(domain.Profile{ID: admin.UserID, Name: "Papa", Role: domain.RoleAdmin})

	repos := store.Repos()
	adapter := httpcontext.NewAdapter(time.Second)
	ident := identityUC.New(repos.Profiles, []string{"papa@example.com"}, nil)
	rm := roadmapUC.New(store, repos, &testutil.Publisher{}, nil)
	n := 0
	adm := adminUC.New(repos.Profiles, repos.Invites, nil, adminUC.WithTokenSource(func() (string, error) {
		n++
		return "tok-" + string(rune('0'+n)), nil
	}))

	return &env{
		store:    store,
		roadmap:  rm,
		items:    handler.NewItemHandler(rm, ident, []projector.Option{projector.WithLocation(time.UTC)}, adapter, nil),
		comments: handler.NewCommentHandler(rm, ident, adapter, nil),
		activity: handler.NewActivityHandler(rm, 20, adapter, nil),
		me:       handler.NewMeHandler(ident, adapter, nil),
		admin:    handler.NewAdminHandler(adm, adapter, nil),
		invites:  handler.NewInviteHandler(adm, adapter, nil),
	}
}

type request struct {
	method string
	uri    string
	body   string
	as     *domain.Identity
	params map[string]string
}

func call(h fasthttp.RequestHandler, r request) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	if r.method == "" {
		r.method = http.MethodGet
	}
	if r.uri == "" {
		r.uri = "/"
	}
	ctx.Request.Header.SetMethod(r.method)
	ctx.Request.SetRequestURI(r.uri)
	if r.body != "" {
		ctx.Request.SetBodyString(r.body)
	}
	if r.as != nil {
		ctx.Request.Header.Set(httpcontext.HeaderUserID, r.as.UserID)
		ctx.Request.Header.Set(httpcontext.HeaderUserEmail, r.as.Email)
	}
	for k, v := range r.params {
		ctx.SetUserValue(k, v)
	}
	h(&ctx)
	return &ctx
}

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  json.RawMessage `json:"error"`
	Meta   json.RawMessage `json:"meta"`
}

func decode(t *testing.T, ctx *fasthttp.RequestCtx) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env), string(ctx.Response.Body()))
	return env
}

func fieldsOf(t *testing.T, env envelope) map[string][]string {
	t.Helper()
	var payload struct {
		Fields map[string][]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(env.Error, &payload))
	return payload.Fields
}

func createItem(t *testing.T, e *env, body string) domain.RoadmapItem {
	t.Helper()
	ctx := call(e.items.Create, request{method: http.MethodPost, body: body, as: &anna})
	require.Equal(t, http.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var item domain.RoadmapItem
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &item))
	return item
}

func TestItemCreate(t *testing.T) {
	e := newEnv(t)

	item := createItem(t, e, `{"title":"Tile selection","start_date":"2026-05-01","tags":["kitchen"]}`)

	assert.Equal(t, "Tile selection", item.Title)
	assert.Equal(t, domain.StatusPlanned, item.Status)
	require.NotNil(t, item.StartDate)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), item.StartDate.UTC())
	assert.Equal(t, "Anna", item.CreatedBy.Name)
	assert.Equal(t, []domain.EventType{domain.EventItemCreated}, e.store.EventTypes())
}

func TestItemCreate_CreatesProfileForNewMember(t *testing.T) {
	e := newEnv(t)
	newcomer := domain.Identity{UserID: "u-lotte", Email: "lotte@example.com"}

	ctx := call(e.items.Create, request{method: http.MethodPost, body: `{"title":"Garden"}`, as: &newcomer})
	require.Equal(t, http.StatusCreated, ctx.Response.StatusCode())

	profile, err := e.store.Repos().Profiles.GetByID(context.Background(), "u-lotte")
	require.NoError(t, err)
	assert.Equal(t, "lotte", profile.Name)
	assert.Equal(t, domain.RoleFamily, profile.Role)
}

func TestItemCreate_Errors(t *testing.T) {
	e := newEnv(t)

	ctx := call(e.items.Create, request{method: http.MethodPost, body: `{"title":"x"}`})
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
	assert.Equal(t, string(domain.ErrCodeUnauthorized), decode(t, ctx).Code)

	ctx = call(e.items.Create, request{method: http.MethodPost, body: `{`, as: &anna})
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())

	ctx = call(e.items.Create, request{method: http.MethodPost, body: `{"title":"Paint","start_date":"next week"}`, as: &anna})
	require.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
	env := decode(t, ctx)
	assert.Equal(t, string(domain.ErrCodeInvalid), env.Code)
	assert.Contains(t, fieldsOf(t, env), "start_date")

	ctx = call(e.items.Create, request{method: http.MethodPost, body: `{"title":"","status":"someday"}`, as: &anna})
	require.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
	fields := fieldsOf(t, decode(t, ctx))
	assert.Contains(t, fields, "title")
	assert.Contains(t, fields, "status")
	assert.Empty(t, e.store.Events())
}

func TestItemUpdate_ClearsDate(t *testing.T) {
	e := newEnv(t)
	item := createItem(t, e, `{"title":"Roof","start_date":"2026-04-01T09:00:00Z","end_date":"2026-04-03"}`)

	ctx := call(e.items.Update, request{
		method: http.MethodPatch,
		body:   `{"start_date":null,"title":"Roof repair"}`,
		as:     &anna,
		params: map[string]string{"id": item.ID},
	})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode(), string(ctx.Response.Body()))

	stored, err := e.roadmap.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Roof repair", stored.Title)
	assert.Nil(t, stored.StartDate)
	assert.NotNil(t, stored.EndDate)

	ctx = call(e.items.Update, request{method: http.MethodPatch, body: `{}`, as: &anna, params: map[string]string{"id": item.ID}})
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
}

func TestItemSetStatusAndDelete(t *testing.T) {
	e := newEnv(t)
	item := createItem(t, e, `{"title":"Windows"}`)
	params := map[string]string{"id": item.ID}

	ctx := call(e.items.SetStatus, request{method: http.MethodPut, body: `{"status":"someday"}`, as: &anna, params: params})
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())

	ctx = call(e.items.SetStatus, request{method: http.MethodPut, body: `{"status":"Active"}`, as: &anna, params: params})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var updated domain.RoadmapItem
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &updated))
	assert.Equal(t, domain.StatusActive, updated.Status)

	ctx = call(e.items.Delete, request{method: http.MethodDelete, as: &anna, params: params})
	assert.Equal(t, http.StatusNoContent, ctx.Response.StatusCode())
	assert.Empty(t, ctx.Response.Body())

	ctx = call(e.items.Get, request{as: &anna, params: params})
	assert.Equal(t, http.StatusNotFound, ctx.Response.StatusCode())

	assert.Equal(t, []domain.EventType{domain.EventItemCreated, domain.EventStatusChanged, domain.EventItemDeleted}, e.store.EventTypes())
}

func TestItemView(t *testing.T) {
	e := newEnv(t)
	createItem(t, e, `{"title":"Tiles","status":"active","start_date":"2026-03-02"}`)
	createItem(t, e, `{"title":"Paint","status":"done","start_date":"2026-04-10"}`)
	createItem(t, e, `{"title":"Garden","start_date":"2026-04-20"}`)

	ctx := call(e.items.View, request{uri: "/api/v1/items/view?mode=kanban", as: &anna})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var kanban projector.View
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &kanban))
	require.Len(t, kanban.Columns, 4)
	assert.Equal(t, domain.StatusPlanned, kanban.Columns[0].Status)
	assert.Len(t, kanban.Columns[0].Items, 1)
	assert.Equal(t, 3, kanban.Total)

	ctx = call(e.items.View, request{uri: "/api/v1/items/view?mode=timeline&dir=asc", as: &anna})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var timeline projector.View
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &timeline))
	require.Len(t, timeline.Buckets, 2)
	assert.Equal(t, "2026-03", timeline.Buckets[0].Key)
	assert.Len(t, timeline.Buckets[1].Items, 2)

	ctx = call(e.items.View, request{uri: "/api/v1/items/view?mode=list&q=paint", as: &anna})
	var list projector.View
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Paint", list.Items[0].Title)

	ctx = call(e.items.View, request{uri: "/api/v1/items/view?mode=gantt&dir=up", as: &anna})
	require.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
	fields := fieldsOf(t, decode(t, ctx))
	assert.Contains(t, fields, "mode")
	assert.Contains(t, fields, "dir")
}

func TestItemSummary(t *testing.T) {
	e := newEnv(t)
	createItem(t, e, `{"title":"Tiles","status":"done"}`)
	createItem(t, e, `{"title":"Paint","start_date":"2026-04-10"}`)

	ctx := call(e.items.Summary, request{as: &anna})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var payload struct {
		Summary  projector.Summary    `json:"summary"`
		Upcoming []domain.RoadmapItem `json:"upcoming"`
	}
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &payload))
	assert.Equal(t, 2, payload.Summary.Total)
	assert.Equal(t, 50, payload.Summary.PercentDone)
	require.Len(t, payload.Upcoming, 1)
	assert.Equal(t, "Paint", payload.Upcoming[0].Title)
}

func TestComments(t *testing.T) {
	e := newEnv(t)
	item := createItem(t, e, `{"title":"Kitchen"}`)
	params := map[string]string{"id": item.ID}

	ctx := call(e.comments.Create, request{method: http.MethodPost, body: `{"message":"<i>Tegels</i> besteld"}`, as: &anna, params: params})
	require.Equal(t, http.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var comment domain.Comment
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &comment))
	assert.Equal(t, "Tegels besteld", comment.Message)

	ctx = call(e.comments.Create, request{method: http.MethodPost, body: `{"message":"   "}`, as: &anna, params: params})
	assert.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())

	ctx = call(e.comments.Create, request{method: http.MethodPost, body: `{"message":"hi"}`, as: &anna, params: map[string]string{"id": "missing"}})
	assert.Equal(t, http.StatusNotFound, ctx.Response.StatusCode())

	ctx = call(e.comments.List, request{as: &anna, params: params})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var comments []domain.Comment
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "Anna", comments[0].Author.Name)

	ctx = call(e.comments.Delete, request{method: http.MethodDelete, as: &anna, params: map[string]string{"id": comment.ID}})
	assert.Equal(t, http.StatusNoContent, ctx.Response.StatusCode())
}

func TestActivity(t *testing.T) {
	e := newEnv(t)
	createItem(t, e, `{"title":"One"}`)
	createItem(t, e, `{"title":"Two"}`)
	createItem(t, e, `{"title":"Three"}`)

	ctx := call(e.activity.Recent, request{uri: "/api/v1/events?limit=2", as: &anna})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var events []domain.Event
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &events))
	require.Len(t, events, 2)
	assert.JSONEq(t, `{"count":2,"limit":2}`, string(decode(t, ctx).Meta))
	assert.Equal(t, "Three", events[0].PayloadString("title"))

	ctx = call(e.activity.Recent, request{uri: "/api/v1/events?limit=abc", as: &anna})
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &events))
	assert.Len(t, events, 3)
}

func TestMe(t *testing.T) {
	e := newEnv(t)
	boss := domain.Identity{UserID: "u-mama", Email: "Papa@Example.com"}

	ctx := call(e.me.Get, request{as: &boss})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var payload struct {
		Profile domain.Profile `json:"profile"`
		IsAdmin bool           `json:"is_admin"`
	}
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &payload))
	assert.True(t, payload.IsAdmin)
	assert.Equal(t, "Papa", payload.Profile.Name)

	ctx = call(e.me.Get, request{})
	assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
}

func TestAdminInvites(t *testing.T) {
	e := newEnv(t)

	ctx := call(e.admin.CreateInvite, request{method: http.MethodPost, body: `{"email":"oma@example.com"}`, as: &anna})
	assert.Equal(t, http.StatusForbidden, ctx.Response.StatusCode())

	ctx = call(e.admin.CreateInvite, request{method: http.MethodPost, body: `{"email":" Oma@Example.com "}`, as: &admin})
	require.Equal(t, http.StatusCreated, ctx.Response.StatusCode(), string(ctx.Response.Body()))
	var invite domain.Invite
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &invite))
	assert.Equal(t, "oma@example.com", invite.Email)
	assert.Equal(t, "tok-1", invite.Token)

	ctx = call(e.admin.CreateInvite, request{method: http.MethodPost, body: `{"email":"oma@example.com"}`, as: &admin})
	require.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
	assert.Contains(t, fieldsOf(t, decode(t, ctx)), "email")

	ctx = call(e.admin.ListInvites, request{as: &admin})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var invites []domain.Invite
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &invites))
	assert.Len(t, invites, 1)

	ctx = call(e.invites.Validate, request{params: map[string]string{"token": "tok-1"}})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{"email":"oma@example.com","valid":true}`, string(decode(t, ctx).Data))

	ctx = call(e.invites.Accept, request{method: http.MethodPost, params: map[string]string{"token": "tok-1"}})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())

	ctx = call(e.invites.Validate, request{params: map[string]string{"token": "tok-1"}})
	assert.JSONEq(t, `{"valid":false}`, string(decode(t, ctx).Data))

	ctx = call(e.invites.Validate, request{params: map[string]string{"token": "unknown"}})
	assert.JSONEq(t, `{"valid":false}`, string(decode(t, ctx).Data))

	ctx = call(e.invites.Accept, request{method: http.MethodPost, params: map[string]string{"token": "tok-1"}})
	assert.Equal(t, http.StatusConflict, ctx.Response.StatusCode())
	assert.Equal(t, string(domain.ErrCodeConflict), decode(t, ctx).Code)

	ctx = call(e.admin.RevokeInvite, request{method: http.MethodDelete, as: &admin, params: map[string]string{"id": invite.ID}})
	assert.Equal(t, http.StatusNoContent, ctx.Response.StatusCode())
}

func TestAdminMembers(t *testing.T) {
	e := newEnv(t)

	ctx := call(e.admin.UpdateRole, request{method: http.MethodPut, body: `{"role":"owner"}`, as: &admin, params: map[string]string{"id": anna.UserID}})
	require.Equal(t, http.StatusBadRequest, ctx.Response.StatusCode())
	assert.Contains(t, fieldsOf(t, decode(t, ctx)), "role")

	ctx = call(e.admin.UpdateRole, request{method: http.MethodPut, body: `{"role":"admin"}`, as: &admin, params: map[string]string{"id": anna.UserID}})
	require.Equal(t, http.StatusNoContent, ctx.Response.StatusCode())

	ctx = call(e.admin.ListMembers, request{as: &anna})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	var members []domain.Profile
	require.NoError(t, json.Unmarshal(decode(t, ctx).Data, &members))
	require.Len(t, members, 2)
	for _, m := range members {
		assert.Equal(t, domain.RoleAdmin, m.Role)
	}
}

type fakeMonitor struct{ status monitor.Status }

func (f fakeMonitor) GetStatus() monitor.Status { return f.status }

func TestHealth(t *testing.T) {
	down := monitor.Status{Database: true, Outbox: monitor.OutboxStatus{Online: true, Pending: 3}}
	h := handler.NewHealthHandler(fakeMonitor{down}, nil, nil)
	ctx := call(h.Check, request{})
	require.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	data := string(decode(t, ctx).Data)
	assert.Contains(t, data, `"pending":3`)
	assert.Contains(t, data, `"realtime":false`)

	h = handler.NewHealthHandler(fakeMonitor{monitor.Status{ChangeBus: true}}, nil, nil)
	ctx = call(h.Check, request{})
	assert.Equal(t, http.StatusServiceUnavailable, ctx.Response.StatusCode())
	assert.Equal(t, "DEGRADED", decode(t, ctx).Code)
}

package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/roadmap/api/handler"
)

type Handlers struct {
	Health   *apiHandler.HealthHandler
	Me       *apiHandler.MeHandler
	Item     *apiHandler.ItemHandler
	Comment  *apiHandler.CommentHandler
	Activity *apiHandler.ActivityHandler
	Admin    *apiHandler.AdminHandler
	Invite   *apiHandler.InviteHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Invite tokens are checked before the invitee has an account.
	r.GET("/api/v1/invites/{token}", handlers.Invite.Validate)
	r.POST("/api/v1/invites/{token}/accept", handlers.Invite.Accept)

	// Protected routes
	r.GET("/api/v1/me", authMiddleware(handlers.Me.Get))

	r.GET("/api/v1/items", authMiddleware(handlers.Item.List))
	r.POST("/api/v1/items", authMiddleware(handlers.Item.Create))
	r.GET("/api/v1/items/view", authMiddleware(handlers.Item.View))
	r.GET("/api/v1/items/{id}", authMiddleware(handlers.Item.Get))
	r.PATCH("/api/v1/items/{id}", authMiddleware(handlers.Item.Update))
	r.DELETE("/api/v1/items/{id}", authMiddleware(handlers.Item.Delete))
	r.PUT("/api/v1/items/{id}/status", authMiddleware(handlers.Item.SetStatus))
	r.GET("/api/v1/summary", authMiddleware(handlers.Item.Summary))

	r.GET("/api/v1/items/{id}/comments", authMiddleware(handlers.Comment.List))
	r.POST("/api/v1/items/{id}/comments", authMiddleware(handlers.Comment.Create))
	r.DELETE("/api/v1/comments/{id}", authMiddleware(handlers.Comment.Delete))

	r.GET("/api/v1/events", authMiddleware(handlers.Activity.Recent))

	r.GET("/api/v1/admin/members", authMiddleware(handlers.Admin.ListMembers))
	r.PUT("/api/v1/admin/members/{id}/role", authMiddleware(handlers.Admin.UpdateRole))
	r.GET("/api/v1/admin/invites", authMiddleware(handlers.Admin.ListInvites))
	r.POST("/api/v1/admin/invites", authMiddleware(handlers.Admin.CreateInvite))
	r.DELETE("/api/v1/admin/invites/{id}", authMiddleware(handlers.Admin.RevokeInvite))

	return r
}

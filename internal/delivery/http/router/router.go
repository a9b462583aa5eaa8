// Package router contains routing for the HTTP delivery.
package router

import (
	"storefront/internal/delivery/http/middleware"
	"storefront/internal/delivery/http/router/handler"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	StateHandler      *handler.StateHandler
	SessionHandler    *handler.SessionHandler
	ListingHandler    *handler.ListingHandler
	FavoriteHandler   *handler.FavoriteHandler
	ChatHandler       *handler.ChatHandler
	AccountHandler    *handler.AccountHandler
	AdminHandler      *handler.AdminHandler
	MediaHandler      *handler.MediaHandler
	SessionMiddleware *middleware.SessionMiddleware
}

type router struct {
	state    *handler.StateHandler
	session  *handler.SessionHandler
	listing  *handler.ListingHandler
	favorite *handler.FavoriteHandler
	chat     *handler.ChatHandler
	account  *handler.AccountHandler
	admin    *handler.AdminHandler
	media    *handler.MediaHandler
	auth     *middleware.SessionMiddleware
}

func NewRouter(params RouterParams) *router {
	return &router{
		state:    params.StateHandler,
		session:  params.SessionHandler,
		listing:  params.ListingHandler,
		favorite: params.FavoriteHandler,
		chat:     params.ChatHandler,
		account:  params.AccountHandler,
		admin:    params.AdminHandler,
		media:    params.MediaHandler,
		auth:     params.SessionMiddleware,
	}
}

// RegisterRoutes mounts one endpoint per operation. No endpoint reloads every cache at
// once; callers trigger the operation whose cache they need.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	e.GET("/storage/images/*", r.media.Image)

	e.GET("/state", r.state.GetState)
	e.GET("/state/stream", r.state.Stream)

	sessionGroup := e.Group("/session")
	{
		sessionGroup.POST("/resolve", r.session.Resolve)
		sessionGroup.POST("/login", r.session.Login)
		sessionGroup.POST("/register", r.session.Register)
		sessionGroup.POST("/logout", r.session.Logout)
		sessionGroup.POST("/auth-prompt", r.session.OpenAuthPrompt)
		sessionGroup.DELETE("/auth-prompt", r.session.CloseAuthPrompt)
		sessionGroup.PATCH("/profile", r.session.UpdateProfile, r.auth.RequireSession)
	}

	usersGroup := e.Group("/users/:id")
	{
		usersGroup.GET("", r.session.UserProfile)
		usersGroup.GET("/listings", r.listing.ListOwned)
		usersGroup.GET("/reviews", r.account.Reviews)
	}

	e.GET("/categories", r.listing.Categories)

	listingGroup := e.Group("/listings")
	{
		listingGroup.GET("", r.listing.ListPublic)
		listingGroup.POST("/search", r.listing.Search)
		listingGroup.POST("/reconcile", r.listing.Reconcile)
		listingGroup.GET("/:id", r.listing.Get)
		listingGroup.POST("/:id/views", r.listing.RecordView)
		listingGroup.GET("/:id/share.png", r.listing.ShareCode)
		listingGroup.POST("", r.listing.Create, r.auth.RequireSession)
		listingGroup.PATCH("/:id", r.listing.Update, r.auth.RequireSession)
		listingGroup.DELETE("/:id", r.listing.Delete, r.auth.RequireSession)
		listingGroup.PUT("/:id/active", r.listing.SetActive, r.auth.RequireSession)
	}

	favoriteGroup := e.Group("/favorites")
	{
		favoriteGroup.POST("/:id/toggle", r.favorite.Toggle)
		favoriteGroup.GET("/listings", r.favorite.Listings)
		favoriteGroup.POST("/fetch", r.favorite.Fetch, r.auth.RequireSession)
	}

	conversationGroup := e.Group("/conversations")
	{
		conversationGroup.GET("", r.chat.Conversations, r.auth.RequireSession)
		conversationGroup.POST("", r.chat.StartConversation, r.auth.RequireSession)
		conversationGroup.PUT("/active", r.chat.SetActive, r.auth.RequireSession)
		conversationGroup.DELETE("/active", r.chat.Deselect)
		conversationGroup.GET("/:id/messages", r.chat.History, r.auth.RequireSession)
	}

	e.POST("/messages", r.chat.SendMessage, r.auth.RequireSession)
	e.POST("/unread/refresh", r.chat.RefreshUnread)
	e.POST("/unread/clear", r.chat.MarkAllRead)
	e.POST("/reviews", r.account.AddReview, r.auth.RequireSession)

	e.GET("/preferences/language", r.account.Language)
	e.PUT("/preferences/language", r.account.SetLanguage)

	adminGroup := e.Group("/admin")
	adminGroup.Use(r.auth.RequireSession)
	adminGroup.Use(r.auth.RequireAdmin)
	{
		adminGroup.GET("/dashboard", r.admin.Dashboard)
		adminGroup.PUT("/users/:id/ban", r.admin.BanUser)
		adminGroup.DELETE("/reviews/:id", r.admin.DeleteReview)
	}
}

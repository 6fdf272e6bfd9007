package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/blacktwitter/blacktwitter/internal/config"
	"github.com/blacktwitter/blacktwitter/internal/handler"
	"github.com/blacktwitter/blacktwitter/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account lifecycle endpoints.  Credential
// operations under /v1/auth are rate limited per client so password and
// 2FA guessing is throttled; session-bound operations live under /v1
// behind the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rdb *redis.Client) {
	g := e.Group("/v1/auth")
	g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/2fa/verify", a.VerifyTwoFactor)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
	g.POST("/reset/request", a.RequestPasswordReset)
	g.POST("/reset/complete", a.CompletePasswordReset)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.POST("/logout", a.Logout)
	auth.POST("/password", a.ChangePassword)
	auth.POST("/2fa/enable", a.EnableTwoFactor)
	auth.POST("/2fa/confirm", a.ConfirmTwoFactor)
	auth.POST("/2fa/disable", a.DisableTwoFactor)
}

// RegisterSocial registers the posting, follow graph, search and
// notification endpoints.  Public reads go through the Redis response
// cache when a client is available.
func RegisterSocial(e *echo.Echo, jwtSecret string, rdb *redis.Client,
	posts *handler.PostHandler, follows *handler.FollowHandler,
	search *handler.SearchHandler, notifications *handler.NotificationHandler,
	profiles *handler.ProfileHandler) {

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Unauthenticated browse surface.
	pub := e.Group("/v1", cache)
	pub.GET("/posts", posts.List)
	pub.GET("/posts/:id", posts.Get)
	pub.GET("/users/:username", profiles.Get)
	pub.GET("/users/:username/followers", follows.Followers)
	pub.GET("/users/:username/following", follows.Following)
	pub.GET("/search", search.Search)
	pub.GET("/hashtags/trending", search.Trending)
	pub.GET("/hashtags/:tag/posts", search.ByTag)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", profiles.Me)
	auth.GET("/feed", posts.Feed)
	auth.POST("/posts", posts.Create)
	auth.DELETE("/posts/:id", posts.Delete)
	auth.POST("/posts/:id/comments", posts.Comment)
	auth.DELETE("/comments/:id", posts.DeleteComment)
	auth.POST("/posts/:id/like", posts.Like)
	auth.DELETE("/posts/:id/like", posts.Unlike)
	auth.POST("/users/:username/follow", follows.Follow)
	auth.DELETE("/users/:username/follow", follows.Unfollow)
	auth.GET("/notifications", notifications.List)
	auth.GET("/notifications/unread", notifications.UnreadCount)
	auth.POST("/notifications/read", notifications.MarkAllRead)
}

// RegisterAdmin registers endpoints restricted to admin accounts.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireAdmin())
	g.GET("/users", a.ListUsers)
}

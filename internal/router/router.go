// Package router wires handlers and middleware onto echo routes.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-housing/internal/handler"
	"github.com/iliyamo/campus-housing/internal/middleware"
	"github.com/iliyamo/campus-housing/internal/model"
)

// RegisterRoutes registers routes that need no authentication.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the token endpoints under /v1/auth and the
// identity endpoint /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// refresh rotates the refresh token, refresh-access keeps it.
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts a bearer token or a refresh_token body, so it has no JWT middleware.
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleStudent, model.RoleLandlord))
}

// RegisterPublic registers the listing browse endpoints.  cache wraps
// them in the Redis response cache.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/properties", p.ListProperties, cache)
	e.GET("/v1/properties/:id", p.GetProperty, cache)
}

// RegisterAccount registers endpoints any signed-in user can call.
func RegisterAccount(e *echo.Echo, a *handler.AccountHandler, n *handler.NotificationHandler, jwtSecret string) {
	g := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStudent, model.RoleLandlord),
	)
	g.GET("/profile", a.GetProfile)
	g.PUT("/profile", a.UpdateProfile)
	g.DELETE("/account", a.DeleteAccount)

	g.GET("/notifications", n.List)
	g.POST("/notifications/read-all", n.MarkAllRead)
	g.POST("/notifications/:id/read", n.MarkRead)
}

package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-housing/internal/handler"
	"github.com/iliyamo/campus-housing/internal/middleware"
	"github.com/iliyamo/campus-housing/internal/model"
)

// RegisterLandlord registers LANDLORD-scoped endpoints under
// /v1/landlord.  Every route requires a valid JWT with the landlord role.
func RegisterLandlord(e *echo.Echo, l *handler.LandlordHandler, jwtSecret string) {
	g := e.Group("/v1/landlord",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleLandlord),
	)

	// ---- Properties ----
	g.POST("/properties", l.CreateProperty)
	g.GET("/properties", l.ListProperties)
	g.GET("/properties/:id/edit", l.EditProperty)
	g.PUT("/properties/:id", l.UpdateProperty)
	g.DELETE("/properties/:id", l.DeleteProperty)

	// ---- Rooms ----
	g.GET("/rooms", l.ListRooms)
	g.PATCH("/rooms/:id", l.UpdateRoom)
	g.GET("/stats", l.Stats)

	// ---- Rental requests ----
	g.GET("/requests", l.ListRequests)
	g.POST("/requests/:id/respond", l.RespondToRequest)
}

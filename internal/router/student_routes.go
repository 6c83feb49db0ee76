package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-housing/internal/handler"
	"github.com/iliyamo/campus-housing/internal/middleware"
	"github.com/iliyamo/campus-housing/internal/model"
)

// RegisterStudent registers STUDENT-scoped endpoints.
func RegisterStudent(e *echo.Echo, s *handler.StudentHandler, jwtSecret string) {
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStudent),
	}
	e.POST("/v1/properties/:id/requests", s.SubmitRequest, auth...)
	e.GET("/v1/student/requests", s.ListRequests, auth...)
}

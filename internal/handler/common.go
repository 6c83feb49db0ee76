// Package handler exposes the HTTP API.  Handlers bind and validate
// input, call the service layer and map its errors to status codes.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-housing/internal/middleware"
	"github.com/iliyamo/campus-housing/internal/repository"
	"github.com/iliyamo/campus-housing/internal/service"
	"github.com/iliyamo/campus-housing/internal/utils"
)

// RequestTimeout bounds every store call made while serving a request.
var RequestTimeout = 5 * time.Second

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), RequestTimeout)
}

// getUserID returns the caller set by the JWT middleware.
func getUserID(c echo.Context) (uint64, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, service.ErrNotAuthenticated
	}
	return id, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// bindValid binds the request body into dst and runs its validate tags.
func bindValid(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return errors.New("invalid body")
	}
	if err := c.Validate(dst); err != nil {
		return err
	}
	return nil
}

// respondError maps service and repository errors to a status code and
// an {"error": msg} body.  Unknown errors are logged and reported as 500
// with a generic message.
func respondError(c echo.Context, err error) error {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Message})
	case errors.Is(err, service.ErrNotAuthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "request was already answered"})
	case errors.Is(err, service.ErrUpload):
		return c.JSON(http.StatusBadGateway, echo.Map{"error": service.ErrUpload.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "request timed out"})
	}
	utils.Logger.WithError(err).WithField("path", c.Path()).Error("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": publicMessage(err)})
}

// publicMessage keeps the label a service put in front of a store error
// ("failed to submit rental request") and drops the driver detail.
func publicMessage(err error) string {
	inner := errors.Unwrap(err)
	if inner == nil {
		return "internal error"
	}
	msg, suffix := err.Error(), ": "+inner.Error()
	if !strings.HasSuffix(msg, suffix) {
		return "internal error"
	}
	return strings.TrimSuffix(msg, suffix)
}

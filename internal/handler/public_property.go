package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-housing/internal/repository"
	"github.com/iliyamo/campus-housing/internal/service"
)

// PublicHandler serves listings to anyone, signed in or not.  Only
// active properties are visible.
type PublicHandler struct {
	Props PropertyService
}

func NewPublicHandler(props PropertyService) *PublicHandler {
	return &PublicHandler{Props: props}
}

// ListProperties handles GET /v1/properties?university=&gender=&max_price=.
func (h *PublicHandler) ListProperties(c echo.Context) error {
	f := repository.PropertyFilter{
		University: strings.TrimSpace(c.QueryParam("university")),
		Gender:     strings.ToLower(strings.TrimSpace(c.QueryParam("gender"))),
	}
	if f.Gender == "all" || f.Gender == "any" {
		f.Gender = ""
	}
	if q := strings.TrimSpace(c.QueryParam("max_price")); q != "" {
		v, err := strconv.ParseFloat(q, 64)
		if err != nil || v < 0 {
			return badRequest(c, "invalid max_price")
		}
		f.MaxPrice = v
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	items, err := h.Props.ListPublic(ctx, f)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []service.Listing{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetProperty handles GET /v1/properties/:id.
func (h *PublicHandler) GetProperty(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid property id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	d, err := h.Props.Detail(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

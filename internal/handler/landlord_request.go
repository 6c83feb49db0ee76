package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-housing/internal/model"
)

type respondReq struct {
	Action string  `json:"action" validate:"required,oneof=accept reject"`
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

// ListRequests handles GET /v1/landlord/requests?status=.
func (h *LandlordHandler) ListRequests(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	items, err := h.Rentals.ListForLandlord(ctx, uid, c.QueryParam("status"))
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []*model.RentalRequestDetail{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// RespondToRequest handles POST /v1/landlord/requests/:id/respond.
func (h *LandlordHandler) RespondToRequest(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid request id")
	}
	var req respondReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Action = strings.ToLower(strings.TrimSpace(req.Action))
	if err := c.Validate(&req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	res, err := h.Rentals.Respond(ctx, uid, id, req.Action, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-housing/internal/model"
)

type updateRoomReq struct {
	Status           string `json:"status" validate:"required,oneof=available occupied maintenance"`
	CurrentOccupancy *int   `json:"current_occupancy" validate:"omitempty,min=0"`
}

// ListRooms handles GET /v1/landlord/rooms?property_id=.
func (h *LandlordHandler) ListRooms(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	var propertyID uint64
	if q := strings.TrimSpace(c.QueryParam("property_id")); q != "" {
		propertyID, err = strconv.ParseUint(q, 10, 64)
		if err != nil {
			return badRequest(c, "invalid property_id")
		}
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	rooms, err := h.Props.LandlordRooms(ctx, uid, propertyID)
	if err != nil {
		return respondError(c, err)
	}
	if rooms == nil {
		rooms = []model.Room{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": rooms})
}

// UpdateRoom handles PATCH /v1/landlord/rooms/:id.  Without
// current_occupancy an occupied room is taken to hold one person and
// any other status zero.
func (h *LandlordHandler) UpdateRoom(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid room id")
	}
	var req updateRoomReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	occupancy := 0
	switch {
	case req.CurrentOccupancy != nil:
		occupancy = *req.CurrentOccupancy
	case req.Status == model.RoomOccupied:
		occupancy = 1
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	room, err := h.Props.UpdateRoom(ctx, uid, id, req.Status, occupancy)
	if err != nil {
		return respondError(c, err)
	}
	h.purge(c)
	return c.JSON(http.StatusOK, room)
}

// Stats handles GET /v1/landlord/stats.
func (h *LandlordHandler) Stats(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	st, err := h.Props.Stats(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

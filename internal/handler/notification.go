package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-housing/internal/middleware"
	"github.com/iliyamo/campus-housing/internal/model"
	"github.com/iliyamo/campus-housing/internal/notification"
)

// NotificationHandler exposes the in-memory notification center.
type NotificationHandler struct {
	Rentals RentalService
	Center  *notification.Center
}

func NewNotificationHandler(rentals RentalService, center *notification.Center) *NotificationHandler {
	return &NotificationHandler{Rentals: rentals, Center: center}
}

// load returns the caller's notifications.  For landlords this also
// refreshes the pending request summary, so it can be marked as read.
func (h *NotificationHandler) load(c echo.Context, uid uint64) ([]model.Notification, error) {
	ctx, cancel := requestCtx(c)
	defer cancel()
	return h.Rentals.Notifications(ctx, uid, middleware.Role(c))
}

func unread(items []model.Notification) int {
	n := 0
	for _, it := range items {
		if !it.Read {
			n++
		}
	}
	return n
}

// List handles GET /v1/notifications.
func (h *NotificationHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	items, err := h.load(c, uid)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []model.Notification{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":  items,
		"unread": unread(items),
	})
}

// MarkRead handles POST /v1/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	if _, err := h.load(c, uid); err != nil {
		return respondError(c, err)
	}
	if !h.Center.MarkAsRead(uid, c.Param("id")) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": h.Center.UnreadCount(uid)})
}

// MarkAllRead handles POST /v1/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	if _, err := h.load(c, uid); err != nil {
		return respondError(c, err)
	}
	n := h.Center.MarkAllAsRead(uid)
	return c.JSON(http.StatusOK, echo.Map{"marked": n, "unread": h.Center.UnreadCount(uid)})
}

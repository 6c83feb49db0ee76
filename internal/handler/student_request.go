package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-housing/internal/model"
)

// StudentHandler serves the student's rental requests.
type StudentHandler struct {
	Rentals RentalService
}

func NewStudentHandler(rentals RentalService) *StudentHandler {
	return &StudentHandler{Rentals: rentals}
}

type submitReq struct {
	Message string `json:"message" validate:"max=2000"`
}

// SubmitRequest handles POST /v1/properties/:id/requests.  A repeat
// submission answers 200 with the stored request instead of 201.
func (h *StudentHandler) SubmitRequest(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid property id")
	}
	var req submitReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	rq, created, err := h.Rentals.Submit(ctx, uid, id, req.Message)
	if err != nil {
		return respondError(c, err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, echo.Map{"success": true, "created": created, "request": rq})
}

// ListRequests handles GET /v1/student/requests.
func (h *StudentHandler) ListRequests(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	items, err := h.Rentals.ListForStudent(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []*model.RentalRequestDetail{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-housing/internal/service"
)

// DeleteAccount handles DELETE /v1/account.  Profile cleanup failures
// are reported next to a successful deletion; a failed identity delete
// answers 500 with everything collected so far.
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	details, err := h.Accounts.Delete(ctx, uid)
	if err != nil {
		var de *service.AccountDeletionError
		if errors.As(err, &de) {
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error":   de.Err.Error(),
				"details": de.Details,
			})
		}
		return respondError(c, err)
	}
	if details == nil {
		details = []service.TableError{}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "db_errors": details})
}

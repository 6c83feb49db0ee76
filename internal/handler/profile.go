package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-housing/internal/model"
)

// ProfileStore is implemented by repository.ProfileRepo.
type ProfileStore interface {
	Get(ctx context.Context, userID uint64) (*model.Profile, error)
	Update(ctx context.Context, p *model.Profile) error
}

// AccountHandler serves the caller's own profile, account deletion and
// notifications.
type AccountHandler struct {
	Profiles ProfileStore
	Accounts AccountService
}

func NewAccountHandler(profiles ProfileStore, accounts AccountService) *AccountHandler {
	return &AccountHandler{Profiles: profiles, Accounts: accounts}
}

type updateProfileReq struct {
	FirstName   string  `json:"first_name" validate:"required,max=100"`
	Surname     string  `json:"surname" validate:"required,max=100"`
	Phone       *string `json:"phone" validate:"omitempty,max=30"`
	University  *string `json:"university"`
	StudentID   *string `json:"student_id"`
	YearOfStudy *string `json:"year_of_study"`
	Gender      *string `json:"gender" validate:"omitempty,oneof=male female"`
	Company     *string `json:"company"`
}

// GetProfile handles GET /v1/profile.
func (h *AccountHandler) GetProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()
	p, err := h.Profiles.Get(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// UpdateProfile handles PUT /v1/profile.  Role-specific fields are only
// kept for the matching role.
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req updateProfileReq
	if err := bindValid(c, &req); err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestCtx(c)
	defer cancel()
	p, err := h.Profiles.Get(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	p.FirstName = strings.TrimSpace(req.FirstName)
	p.Surname = strings.TrimSpace(req.Surname)
	p.Phone = req.Phone
	if p.Role == model.RoleStudent {
		p.University, p.StudentID, p.YearOfStudy, p.Gender = req.University, req.StudentID, req.YearOfStudy, req.Gender
	} else {
		p.Company = req.Company
	}
	if err := h.Profiles.Update(ctx, p); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

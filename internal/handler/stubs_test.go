package handler

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-housing/internal/middleware"
	"github.com/iliyamo/campus-housing/internal/model"
	"github.com/iliyamo/campus-housing/internal/notification"
	"github.com/iliyamo/campus-housing/internal/repository"
	"github.com/iliyamo/campus-housing/internal/service"
	"github.com/iliyamo/campus-housing/internal/utils"
)

const testSecret = "handler-secret"

// stubProps records what the handler passed and returns canned results.
type stubProps struct {
	in        service.PropertyInput
	files     []string
	bodies    []string
	landlord  uint64
	filter    repository.PropertyFilter
	roomCall  [2]interface{}
	err       error
	purged    int
	createdID uint64
}

func (s *stubProps) Create(_ context.Context, landlordID uint64, in service.PropertyInput, files []service.Upload) (*model.Property, error) {
	s.landlord, s.in = landlordID, in
	for _, f := range files {
		s.files = append(s.files, f.Filename)
		b, _ := io.ReadAll(f.Body)
		s.bodies = append(s.bodies, string(b))
	}
	if s.err != nil {
		return nil, s.err
	}
	return &model.Property{ID: s.createdID, LandlordID: landlordID, Title: in.Title}, nil
}

func (s *stubProps) Update(ctx context.Context, landlordID, propertyID uint64, in service.PropertyInput, files []service.Upload) (*model.Property, error) {
	s.createdID = propertyID
	return s.Create(ctx, landlordID, in, files)
}

func (s *stubProps) EditForm(_ context.Context, landlordID, propertyID uint64) (*service.EditForm, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &service.EditForm{Property: &model.Property{ID: propertyID, LandlordID: landlordID}}, nil
}

func (s *stubProps) Delete(_ context.Context, _, _ uint64) error { return s.err }

func (s *stubProps) Detail(_ context.Context, id uint64) (*service.PropertyDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &service.PropertyDetail{Listing: service.Listing{Property: &model.Property{ID: id}}, Rooms: []model.Room{}}, nil
}

func (s *stubProps) ListPublic(_ context.Context, f repository.PropertyFilter) ([]service.Listing, error) {
	s.filter = f
	return nil, s.err
}

func (s *stubProps) ListForLandlord(_ context.Context, _ uint64) ([]service.Listing, error) {
	return nil, s.err
}

func (s *stubProps) LandlordRooms(_ context.Context, _, _ uint64) ([]model.Room, error) {
	return nil, s.err
}

func (s *stubProps) UpdateRoom(_ context.Context, _, roomID uint64, status string, occupancy int) (*model.Room, error) {
	s.roomCall = [2]interface{}{status, occupancy}
	if s.err != nil {
		return nil, s.err
	}
	return &model.Room{ID: roomID, Status: status, CurrentOccupancy: occupancy}, nil
}

func (s *stubProps) Stats(_ context.Context, _ uint64) (*service.LandlordStats, error) {
	return &service.LandlordStats{}, s.err
}

func (s *stubProps) Purge(context.Context) { s.purged++ }

type stubRentals struct {
	created  bool
	err      error
	action   string
	reason   *string
	status   string
	message  string
	notes    []model.Notification
	center   *notification.Center
	summary  *model.Notification
	lastRole string
}

func (s *stubRentals) Submit(_ context.Context, studentID, propertyID uint64, message string) (*model.RentalRequestDetail, bool, error) {
	s.message = message
	if s.err != nil {
		return nil, false, s.err
	}
	return &model.RentalRequestDetail{RentalRequest: model.RentalRequest{ID: 1, StudentProfileID: studentID, PropertyID: propertyID, Status: model.RequestPending}}, s.created, nil
}

func (s *stubRentals) Respond(_ context.Context, _, requestID uint64, action string, reason *string) (*service.ResponseResult, error) {
	s.action, s.reason = action, reason
	if s.err != nil {
		return nil, s.err
	}
	return &service.ResponseResult{Request: &model.RentalRequestDetail{RentalRequest: model.RentalRequest{ID: requestID}}}, nil
}

func (s *stubRentals) ListForLandlord(_ context.Context, _ uint64, status string) ([]*model.RentalRequestDetail, error) {
	s.status = status
	return nil, s.err
}

func (s *stubRentals) ListForStudent(_ context.Context, _ uint64) ([]*model.RentalRequestDetail, error) {
	return nil, s.err
}

// Notifications returns notes as given, or, with a center set, the
// center's list headed by summary the way the rental service builds it.
func (s *stubRentals) Notifications(_ context.Context, userID uint64, role string) ([]model.Notification, error) {
	s.lastRole = role
	if s.err != nil || s.center == nil {
		return s.notes, s.err
	}
	list := s.center.List(userID)
	if s.summary != nil {
		list = append([]model.Notification{s.center.SetSummary(userID, *s.summary)}, list...)
	}
	return list, nil
}

type stubAccounts struct {
	details []service.TableError
	err     error
}

func (s *stubAccounts) Delete(context.Context, uint64) ([]service.TableError, error) {
	return s.details, s.err
}

type stubUsers struct {
	byEmail map[string]model.User
	created *model.Profile
	err     error
}

func (s *stubUsers) CreateWithProfile(_ context.Context, email, _, role string, _ int, p *model.Profile) (uint64, error) {
	if s.err != nil {
		return 0, s.err
	}
	p.UserID, p.Email, p.Role = 31, email, role
	s.created = p
	return 31, nil
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *stubUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

type stubTokens struct {
	live       map[string]uint64
	revokedAll uint64
}

func newStubTokens() *stubTokens { return &stubTokens{live: map[string]uint64{}} }

func (s *stubTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	s.live[hash] = userID
	return nil
}

func (s *stubTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	id, ok := s.live[hash]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return id, nil
}

func (s *stubTokens) Rotate(_ context.Context, userID uint64, oldHash, newHash string, _ time.Time) error {
	if _, ok := s.live[oldHash]; !ok {
		return repository.ErrNotFound
	}
	delete(s.live, oldHash)
	s.live[newHash] = userID
	return nil
}

func (s *stubTokens) RevokeByHash(_ context.Context, hash string) error {
	delete(s.live, hash)
	return nil
}

func (s *stubTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.revokedAll = userID
	for h, id := range s.live {
		if id == userID {
			delete(s.live, h)
		}
	}
	return nil
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = middleware.NewValidator()
	return e
}

func bearer(id uint64, role string) string {
	tok, err := utils.NewAccessToken(testSecret, id, role, 5)
	if err != nil {
		panic(err)
	}
	return "Bearer " + tok.Token
}

func do(e *echo.Echo, method, path, auth, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func doJSON(e *echo.Echo, method, path, auth, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return do(e, method, path, auth, echo.MIMEApplicationJSON, r)
}

var errBoom = errors.New("boom")

type stubProfiles struct {
	p       *model.Profile
	updated *model.Profile
}

func (s *stubProfiles) Get(context.Context, uint64) (*model.Profile, error) {
	if s.p == nil {
		return nil, repository.ErrNotFound
	}
	cp := *s.p
	return &cp, nil
}

func (s *stubProfiles) Update(_ context.Context, p *model.Profile) error {
	s.updated = p
	return nil
}

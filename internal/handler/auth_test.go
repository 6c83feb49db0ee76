package handler

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campus-housing/internal/config"
	"github.com/iliyamo/campus-housing/internal/middleware"
	"github.com/iliyamo/campus-housing/internal/model"
	"github.com/iliyamo/campus-housing/internal/repository"
	"github.com/iliyamo/campus-housing/internal/utils"
)

func authEcho(users *stubUsers, tokens *stubTokens) *echo.Echo {
	e := newEcho()
	cfg := config.Config{JWTSecret: testSecret, AccessTTLMin: 5, RefreshTTLDays: 1, BcryptCost: 4}
	h := NewAuthHandler(cfg, users, tokens)
	g := e.Group("/v1/auth")
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/refresh", h.Refresh)
	g.POST("/refresh-access", h.RefreshAccess)
	g.POST("/logout", h.Logout)
	e.GET("/v1/me", h.Me, middleware.JWTAuth(testSecret))
	return e
}

func TestRegisterDefaultsToStudent(t *testing.T) {
	users := &stubUsers{}
	tokens := newStubTokens()
	e := authEcho(users, tokens)

	rec := doJSON(e, http.MethodPost, "/v1/auth/register", "",
		`{"email":" Jane@Uni.ac ","password":"secret123","first_name":"Jane","surname":"Doe","university":"UoN","company":"ignored"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	m := decode(t, rec.Body)
	user := m["user"].(map[string]interface{})
	assert.Equal(t, "jane@uni.ac", user["email"])
	assert.Equal(t, model.RoleStudent, user["role"])
	require.NotNil(t, users.created)
	require.NotNil(t, users.created.University)
	assert.Equal(t, "UoN", *users.created.University)
	assert.Nil(t, users.created.Company)
	assert.Len(t, tokens.live, 1)
}

func TestRegisterValidation(t *testing.T) {
	e := authEcho(&stubUsers{}, newStubTokens())

	rec := doJSON(e, http.MethodPost, "/v1/auth/register", "", `{"email":"nope","password":"secret123","first_name":"a","surname":"b"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email must be a valid email", decode(t, rec.Body)["error"])

	rec = doJSON(e, http.MethodPost, "/v1/auth/register", "", `{"email":"a@b.c","password":"secret123","first_name":"a","surname":"b","role":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	e := authEcho(&stubUsers{err: repository.ErrEmailExists}, newStubTokens())
	rec := doJSON(e, http.MethodPost, "/v1/auth/register", "", `{"email":"a@b.c","password":"secret123","first_name":"a","surname":"b"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func seededUsers(t *testing.T) *stubUsers {
	t.Helper()
	hash, err := utils.HashPassword("secret123", 4)
	require.NoError(t, err)
	return &stubUsers{byEmail: map[string]model.User{
		"owner@x.io":    {ID: 3, Email: "owner@x.io", PasswordHash: hash, Role: model.RoleLandlord, IsActive: true},
		"disabled@x.io": {ID: 5, Email: "disabled@x.io", PasswordHash: hash, Role: model.RoleStudent},
	}}
}

func TestLoginRefreshLogout(t *testing.T) {
	tokens := newStubTokens()
	e := authEcho(seededUsers(t), tokens)

	rec := doJSON(e, http.MethodPost, "/v1/auth/login", "", `{"email":"OWNER@x.io","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m := decode(t, rec.Body)
	access := m["access"].(map[string]interface{})["token"].(string)
	refresh := m["refresh"].(map[string]interface{})["token"].(string)

	rec = doJSON(e, http.MethodGet, "/v1/me", "Bearer "+access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3.0, decode(t, rec.Body)["user_id"])

	rec = doJSON(e, http.MethodPost, "/v1/auth/refresh", "", `{"refresh_token":"`+refresh+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rotated := decode(t, rec.Body)["refresh"].(map[string]interface{})["token"].(string)
	assert.NotEqual(t, refresh, rotated)

	// the old token is gone after rotation
	rec = doJSON(e, http.MethodPost, "/v1/auth/refresh", "", `{"refresh_token":"`+refresh+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodPost, "/v1/auth/refresh-access", "", `{"refresh_token":"`+rotated+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec.Body), "access")

	rec = doJSON(e, http.MethodPost, "/v1/auth/logout", "", `{"refresh_token":"`+rotated+`"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, tokens.live)
}

func TestLoginRejects(t *testing.T) {
	e := authEcho(seededUsers(t), newStubTokens())

	rec := doJSON(e, http.MethodPost, "/v1/auth/login", "", `{"email":"owner@x.io","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodPost, "/v1/auth/login", "", `{"email":"disabled@x.io","password":"secret123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodPost, "/v1/auth/login", "", `{"email":"ghost@x.io","password":"secret123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(e, http.MethodPost, "/v1/auth/login", "", `{"email":"owner@x.io"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutWithBearerRevokesAll(t *testing.T) {
	tokens := newStubTokens()
	tokens.live["a"], tokens.live["b"], tokens.live["c"] = 3, 3, 9
	e := authEcho(seededUsers(t), tokens)

	rec := doJSON(e, http.MethodPost, "/v1/auth/logout", bearer(3, model.RoleLandlord), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, uint64(3), tokens.revokedAll)
	assert.Equal(t, map[string]uint64{"c": 9}, tokens.live)

	rec = doJSON(e, http.MethodPost, "/v1/auth/logout", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

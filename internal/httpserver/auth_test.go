package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	mwauth "github.com/Skotchmaster/auth_service/internal/middleware/auth"
	"github.com/Skotchmaster/auth_service/internal/models"
	"github.com/Skotchmaster/auth_service/internal/policy"
	"github.com/Skotchmaster/auth_service/internal/repo"
	"github.com/Skotchmaster/auth_service/internal/service"
	"github.com/Skotchmaster/auth_service/internal/tokens"
)

type testEnv struct {
	E   *echo.Echo
	Svc *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.RefreshToken{}))

	issuer := &tokens.Issuer{
		Secret:    []byte("test-jwt-secret"),
		Issuer:    "auth_service",
		AccessTTL: 15 * time.Minute,
	}
	svc := &service.AuthService{
		Repo:       &repo.GormRepo{DB: db},
		Issuer:     issuer,
		RefreshTTL: 7 * 24 * time.Hour,
	}

	e := echo.New()
	Register(e, &Deps{
		AuthHandler: &AuthHandler{Svc: svc},
		Auth: &mwauth.Middleware{
			Issuer:   issuer,
			Policies: policy.NewEvaluator(),
		},
	})

	return &testEnv{E: e, Svc: svc}
}

func (env *testEnv) do(t *testing.T, method, path string, payload any, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAuthFlow_EndToEnd(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	// register
	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	reg := decode(t, rec)
	require.NotEmpty(t, reg["userId"])
	assert.Equal(t, "User", reg["role"])

	// wrong password: generic 401
	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "alice", "password": "wrong",
	}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid username or password", decode(t, rec)["message"])

	// unknown user: same 401 body
	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "nobody", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid username or password", decode(t, rec)["message"])

	// correct login
	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "alice", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode(t, rec)
	access := login["accessToken"].(string)
	refresh := login["refreshToken"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.Equal(t, "alice", login["username"])
	assert.NotEmpty(t, login["accessTokenExpiration"])
	assert.NotEmpty(t, login["refreshTokenExpiration"])

	// refresh rotates
	rec = env.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": refresh}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	refreshed := decode(t, rec)
	newRefresh := refreshed["refreshToken"].(string)
	require.NotEmpty(t, newRefresh)
	assert.NotEqual(t, refresh, newRefresh)

	// replaying the original refresh token fails
	rec = env.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": refresh}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid or expired refresh token", decode(t, rec)["message"])

	// so does a never-issued one, identically
	rec = env.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": "never-issued"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid or expired refresh token", decode(t, rec)["message"])

	// profile without the password hash
	rec = env.do(t, http.MethodGet, "/auth/me", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)
	assert.Equal(t, "alice", me["username"])
	assert.Equal(t, "a@x.com", me["email"])
	assert.NotContains(t, me, "PasswordHash")
	assert.NotContains(t, rec.Body.String(), "$2a$")

	// logout kills the remaining refresh token
	rec = env.do(t, http.MethodPost, "/auth/logout", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": newRefresh}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister_DuplicateAndValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	// duplicate username
	rec = env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "alice", "email": "other@x.com", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// validation failure carries the field map
	rec = env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "al", "email": "bad", "password": "123",
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	fields, ok := body["errors"].(map[string]any)
	require.True(t, ok, "expected field errors in envelope")
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestRegister_RoleCoercedToUser(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "mallory", "email": "m@x.com", "password": "secret1", "role": "SuperAdmin",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User", decode(t, rec)["role"])
}

func TestPolicyGates(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "mia", "email": "mia@x.com", "password": "secret1", "role": "Manager",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "mia", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	access := decode(t, rec)["accessToken"].(string)

	// manager denied on AdminOnly
	rec = env.do(t, http.MethodGet, "/admin/stats", nil, access)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// allowed on ManagerOnly
	rec = env.do(t, http.MethodGet, "/manager/reports", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)

	// manager is not in UserOrAdmin
	rec = env.do(t, http.MethodGet, "/auth/protected", nil, access)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRevoke_RequiresAccessTokenAndAlwaysAcks(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "alice", "email": "a@x.com", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "alice", "password": "secret1",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode(t, rec)
	access := login["accessToken"].(string)
	refresh := login["refreshToken"].(string)

	// no access token: 401
	rec = env.do(t, http.MethodPost, "/auth/revoke", map[string]string{"refreshToken": refresh}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// with access token: ack, and again: still ack
	rec = env.do(t, http.MethodPost, "/auth/revoke", map[string]string{"refreshToken": refresh}, access)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/auth/revoke", map[string]string{"refreshToken": refresh}, access)
	require.Equal(t, http.StatusOK, rec.Code)

	// the revoked token no longer refreshes
	rec = env.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": refresh}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoute_RejectsBadTokens(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/auth/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/auth/me", nil, "not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	envelope := decode(t, rec)
	assert.Equal(t, float64(http.StatusUnauthorized), envelope["statusCode"])
	assert.Equal(t, "/auth/me", envelope["path"])
}

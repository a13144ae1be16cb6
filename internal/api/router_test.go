package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/artistsnetwork/identity/internal/api/handler"
	"github.com/artistsnetwork/identity/internal/core/domain"
	"github.com/artistsnetwork/identity/internal/core/service"
	"github.com/artistsnetwork/identity/internal/infrastructure/db/memory"
	"github.com/artistsnetwork/identity/internal/infrastructure/security/password"
	"github.com/artistsnetwork/identity/internal/infrastructure/security/token"
)

type testServer struct {
	e      *echo.Echo
	tokens *token.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()

	dir := memory.NewUserDirectory()
	hasher, err := password.New(password.Config{Algorithm: password.Bcrypt, BcryptCost: bcrypt.MinCost}, nil)
	require.NoError(t, err)
	tokens, err := token.NewService([]byte("test-secret"))
	require.NoError(t, err)

	e := NewRouter(Dependencies{
		Registration:   service.NewRegistrationService(dir, hasher, service.PasswordPolicy{MinLength: 8, MaxLength: hasher.MaxLength()}, log),
		Auth:           service.NewAuthService(dir, hasher, tokens, nil, time.Hour, log),
		Users:          service.NewUserService(dir),
		Readiness:      map[string]handler.Pinger{"directory": dir},
		Logger:         log,
		BasePath:       "/api/v1",
		MetricsEnabled: true,
	})
	return &testServer{e: e, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func registration(email, pass, role string) map[string]string {
	return map[string]string{
		"firstname":        "Ana",
		"lastname":         "Lopez",
		"username":         email,
		"email":            email,
		"password":         pass,
		"password_confirm": pass,
		"phone":            "555-0100",
		"address":          "1 Main St",
		"role":             role,
	}
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Message
}

func TestRouter_RegistrationAndLoginScenario(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/users", registration("a@x.com", "longpassword", "artist"), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "longpassword")

	rec = s.do(t, http.MethodPost, "/api/v1/users/login", map[string]string{"email": "a@x.com", "password": "longpassword"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.NotEmpty(t, login.Token)

	rec = s.do(t, http.MethodPost, "/api/v1/users/login", map[string]string{"email": "a@x.com", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", message(t, rec))

	rec = s.do(t, http.MethodPost, "/api/v1/users", registration("b@x.com", "short", "artist"), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password too short", message(t, rec))

	rec = s.do(t, http.MethodPost, "/api/v1/users", registration("A@X.com", "longpassword", "artist"), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "already exists", message(t, rec))
}

func TestRouter_LoginUnknownUser(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/users/login", map[string]string{"email": "ghost@x.com", "password": "longpassword"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/users/login", map[string]string{"email": "ghost@x.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_ListUsersAccessControl(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/users", registration("a@x.com", "longpassword", "artist"), "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", message(t, rec), "a missing token looks like any other rejected token")

	past, err := token.NewService([]byte("test-secret"), token.WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	}))
	require.NoError(t, err)
	expired, err := past.Issue("u-admin", domain.RoleAdmin, time.Hour)
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/v1/users", nil, expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", message(t, rec))

	rec = s.do(t, http.MethodGet, "/api/v1/users", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", message(t, rec))

	artist, err := s.tokens.Issue("u-artist", domain.RoleArtist, time.Hour)
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/v1/users", nil, artist)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin, err := s.tokens.Issue("u-admin", domain.RoleAdmin, time.Hour)
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/v1/users", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	var users []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "a@x.com", users[0]["email"])
	assert.NotContains(t, users[0], "password")
}

func TestRouter_InvalidRoleAndBadJSON(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/users", registration("a@x.com", "longpassword", "superuser"), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid role", message(t, rec))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", bytes.NewBufferString(`{"email":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	s.e.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid payload", message(t, rr))
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	s.do(t, http.MethodPost, "/api/v1/users/login", map[string]string{"email": "ghost@x.com", "password": "x"}, "")
	rec = s.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "identity_logins_total")
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRouter_ResponsesCarryRequestID(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/health", nil, "")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestRouter_UnknownRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, message(t, rec))
}

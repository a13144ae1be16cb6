package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/artistsnetwork/identity/internal/core/domain"
)

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer admin-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Auth(newStubAuth())(func(c echo.Context) error {
		called = true
		id, ok := domain.IdentityFromContext(c.Request().Context())
		if !ok {
			t.Fatalf("identity not attached to request context")
		}
		if id.UserID != "u1" || id.Role != domain.RoleAdmin {
			t.Fatalf("unexpected identity: %+v", id)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"missing header", "", domain.ErrUnauthorized},
		{"unknown token", "Bearer not-a-token", domain.ErrUnauthorized},
		{"wrong scheme", "Token admin-token", domain.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			c := e.NewContext(req, httptest.NewRecorder())

			handler := Auth(newStubAuth())(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})

			err := handler(c)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if domain.KindOf(err) != domain.KindAuthentication {
				t.Fatalf("expected authentication error, got kind %v", domain.KindOf(err))
			}
		})
	}
}

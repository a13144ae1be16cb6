package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/artistsnetwork/identity/internal/core/domain"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"validation", domain.ErrPasswordMismatch, http.StatusBadRequest, "passwords do not match"},
		{"conflict", domain.ErrUserExists, http.StatusBadRequest, "already exists"},
		{"not found", domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{"authentication", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"authorization", domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"rate limited", domain.ErrTooManyAttempts, http.StatusTooManyRequests, "too many failed login attempts"},
		{"wrapped domain error", fmt.Errorf("login: %w", domain.ErrUnauthorized), http.StatusUnauthorized, "unauthorized"},
		{"echo error", echo.NewHTTPError(http.StatusRequestEntityTooLarge, "too big"), http.StatusRequestEntityTooLarge, "too big"},
		{"unexpected", errors.New("mongo: connection refused to 10.0.0.3"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tt.err, c)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rec.Code)
			}
			if got := message(t, rec); got != tt.wantMsg {
				t.Fatalf("expected message %q, got %q", tt.wantMsg, got)
			}
		})
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.NoContent(http.StatusAccepted)

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrForbidden, c)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected committed status to stand, got %d", rec.Code)
	}
}

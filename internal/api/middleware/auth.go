package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/artistsnetwork/identity/internal/core/domain"
	"github.com/artistsnetwork/identity/internal/core/ports"
	"github.com/artistsnetwork/identity/internal/pkg/metrics"
)

// Auth verifies the bearer token and attaches the caller's identity to the
// request context. Every failure reaches the client as the same 401
// "unauthorized"; only the metric label tells a missing token apart.
func Auth(auth ports.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id, err := auth.Authenticate(req.Context(), req.Header.Get(echo.HeaderAuthorization))
			if err != nil {
				if errors.Is(err, domain.ErrMissingToken) {
					metrics.AccessDeniedTotal.WithLabelValues("missing_token").Inc()
					return domain.ErrUnauthorized
				}
				metrics.AccessDeniedTotal.WithLabelValues("unauthenticated").Inc()
				return err
			}

			c.SetRequest(req.WithContext(domain.WithIdentity(req.Context(), id)))
			return next(c)
		}
	}
}

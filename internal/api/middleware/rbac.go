package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/artistsnetwork/identity/internal/core/domain"
	"github.com/artistsnetwork/identity/internal/core/ports"
	"github.com/artistsnetwork/identity/internal/pkg/metrics"
)

// RequireRole enforces role-based access control. It must run after Auth;
// a request without an identity is treated as unauthenticated.
func RequireRole(auth ports.AuthService, required domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := domain.IdentityFromContext(c.Request().Context())
			if !ok {
				metrics.AccessDeniedTotal.WithLabelValues("unauthenticated").Inc()
				return domain.ErrUnauthorized
			}
			if err := auth.Authorize(id, required); err != nil {
				metrics.AccessDeniedTotal.WithLabelValues("forbidden").Inc()
				return err
			}
			return next(c)
		}
	}
}

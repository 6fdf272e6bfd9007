package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAdmin aborts with 403 unless the JWT carried a true admin claim.
// It assumes JWTAuth already ran and stored "is_admin" in the context.
// The admin flag is never self-assignable: it is either seeded at first
// startup or set out of band, so an admin token can only exist for an
// account the operator made an admin.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			adm, ok := c.Get("is_admin").(bool)
			if !ok || !adm {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

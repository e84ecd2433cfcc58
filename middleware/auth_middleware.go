package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agrimarket/agrimarket_backend/models"
)

// RequireRole allows only the listed roles through. It runs after Middleware.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := CurrentRole(c)
			if role == "" {
				return c.JSON(http.StatusUnauthorized, models.Response{
					Status:  http.StatusUnauthorized,
					Message: "Authentication required",
				})
			}
			if !allowed[role] {
				return c.JSON(http.StatusForbidden, models.Response{
					Status:  http.StatusForbidden,
					Message: "Access denied for role " + role,
				})
			}
			return next(c)
		}
	}
}

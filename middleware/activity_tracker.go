package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/agrimarket/agrimarket_backend/models"
	"github.com/agrimarket/agrimarket_backend/security"
)

// ActivityRecorder stores audit entries.
type ActivityRecorder interface {
	Insert(ctx context.Context, entry *models.ActivityLog) error
}

// ActivityTracker records every successful mutating request into the audit
// trail. It runs after Middleware so the actor is known.
func ActivityTracker(recorder ActivityRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			req := c.Request()
			if req.Method == http.MethodGet || req.Method == http.MethodHead || req.Method == http.MethodOptions {
				return err
			}
			status := c.Response().Status
			if err != nil || status >= http.StatusBadRequest {
				return err
			}

			actorID, _ := c.Get("userId").(string)
			entry := &models.ActivityLog{
				ActorID:    actorID,
				ActorRole:  CurrentRole(c),
				Action:     req.Method + " " + c.Path(),
				EntityType: entityType(c.Path()),
				EntityID:   c.Param("id"),
				Details: map[string]interface{}{
					"status": status,
					"query":  security.RedactValues(c.QueryParams()),
				},
				IPAddress: c.RealIP(),
				UserAgent: req.UserAgent(),
			}
			if insertErr := recorder.Insert(req.Context(), entry); insertErr != nil {
				log.Printf("Failed to record activity %s: %v", entry.Action, insertErr)
			}
			return err
		}
	}
}

// entityType is the first path segment after the role prefix, e.g. "sellers"
// for /api/admin/sellers/:id/approve.
func entityType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 3 && parts[0] == "api" {
		return parts[2]
	}
	return ""
}

// RequireBodyType rejects mutating requests whose body has an unsupported
// content type.
func RequireBodyType() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.ContentLength > 0 && !security.ValidateContentType(req.Header.Get(echo.HeaderContentType)) {
				return c.JSON(http.StatusUnsupportedMediaType, models.Response{
					Status:  http.StatusUnsupportedMediaType,
					Message: "Unsupported content type",
				})
			}
			return next(c)
		}
	}
}

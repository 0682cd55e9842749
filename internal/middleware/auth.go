package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pharmacy-service/internal/model"
	"pharmacy-service/pkg/jwtutil"
	"pharmacy-service/pkg/logger"
	"pharmacy-service/prometheus"
)

// AuthMiddleware validates the bearer token and stores the caller's identity
// and role in the request context. Handlers behind it can trust user_id.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Warn("Invalid Authorization header format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Store user info in context for later use
		c.Set("user_id", claims.UserID)
		c.Set("user_name", claims.Name)
		c.Set("user_role", claims.Role)

		return next(c)
	}
}

// RequireRoles gates an operation to the given roles. Mount after
// AuthMiddleware.
func RequireRoles(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get("user_role").(model.Role)
			if !ok {
				logger.FromContext(c).Warn("Missing role in request context")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			logger.FromContext(c).Warn("Insufficient permissions",
				zap.String("role", string(role)),
				zap.String("path", c.Path()))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
		}
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the context.
func UserIDFromContext(c echo.Context) (uint, bool) {
	id, ok := c.Get("user_id").(uint)
	return id, ok
}

// RoleFromContext retrieves the authenticated user's role from the context.
func RoleFromContext(c echo.Context) (model.Role, bool) {
	role, ok := c.Get("user_role").(model.Role)
	return role, ok
}

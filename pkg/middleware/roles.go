package middleware

import (
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequireRoles lets the request through only when the authenticated role is one of roles.
// It must run after AuthMiddleware.Auth.
func RequireRoles(logger *zap.Logger, roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := utils.GetClaimsFromContext(c.Request().Context())
			if err != nil {
				return utils.ErrorResponse(c, err, logger)
			}
			if _, ok := allowed[claims.Role]; !ok {
				logger.Warn("role not allowed",
					zap.Uint64("userID", claims.UserID),
					zap.String("role", claims.Role),
					zap.String("path", c.Path()))
				return utils.ErrorResponse(c, apperrors.NewForbiddenError("insufficient permissions"), logger)
			}
			return next(c)
		}
	}
}

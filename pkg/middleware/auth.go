package middleware

import (
	"context"
	"strings"

	"nusantara-erp/internal/dto"
	"nusantara-erp/pkg/contextkeys"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/service"
	"nusantara-erp/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SessionChecker is satisfied by services.SecurityService.
type SessionChecker interface {
	CheckSession(ctx context.Context, sessionID string) error
}

type AuthMiddleware struct {
	jwtService service.JWTService
	sessions   SessionChecker
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, sessions SessionChecker, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		sessions:   sessions,
		logger:     logger,
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", apperrors.ErrEmptyAuthHeader
	}
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.ErrInvalidAuthHeader
	}
	return parts[1], nil
}

// Auth validates the access token, checks the session is still alive and stores the claims.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			m.logger.Debug("AuthMiddleware: rejected header", zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}

		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			m.logger.Warn("AuthMiddleware: token validation failed", zap.Error(err))
			return utils.ErrorResponse(c, err, m.logger)
		}
		if claims.IsRefreshToken {
			m.logger.Warn("AuthMiddleware: refresh token used for access", zap.Uint64("userID", claims.UserID))
			return utils.ErrorResponse(c, apperrors.ErrTokenIsNotAccess, m.logger)
		}

		if err := m.sessions.CheckSession(c.Request().Context(), claims.SessionID); err != nil {
			m.logger.Warn("AuthMiddleware: session rejected", zap.Uint64("userID", claims.UserID), zap.String("sessionID", claims.SessionID))
			return utils.ErrorResponse(c, err, m.logger)
		}

		userClaims := &dto.UserClaims{
			UserID:    claims.UserID,
			Username:  claims.Username,
			Role:      claims.Role,
			SessionID: claims.SessionID,
		}
		ctx := context.WithValue(c.Request().Context(), contextkeys.UserClaimsKey, userClaims)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

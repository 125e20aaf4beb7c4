package utils

import (
	"context"

	"nusantara-erp/internal/dto"
	"nusantara-erp/pkg/contextkeys"
	apperrors "nusantara-erp/pkg/errors"
)

func GetClaimsFromContext(ctx context.Context) (*dto.UserClaims, error) {
	claims, ok := ctx.Value(contextkeys.UserClaimsKey).(*dto.UserClaims)
	if !ok || claims == nil {
		return nil, apperrors.ErrUserIDNotFoundInContext
	}
	return claims, nil
}

func IsAdmin(claims *dto.UserClaims) bool {
	if claims == nil {
		return false
	}
	return claims.Role == dto.RoleAdmin || claims.Role == dto.RoleSuperAdmin
}

package controllers

import (
	"net/http"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/services"
	"nusantara-erp/pkg/audittrail"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AuthController struct {
	authService     services.AuthServiceInterface
	securityService services.SecurityServiceInterface
	logger          *zap.Logger
}

func NewAuthController(
	authService services.AuthServiceInterface,
	securityService services.SecurityServiceInterface,
	logger *zap.Logger,
) *AuthController {
	return &AuthController{
		authService:     authService,
		securityService: securityService,
		logger:          logger,
	}
}

func (c *AuthController) Login(ctx echo.Context) error {
	var payload dto.LoginDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.authService.Login(ctx.Request().Context(), payload, clientInfo(ctx))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Login successful", http.StatusOK)
}

func (c *AuthController) RefreshToken(ctx echo.Context) error {
	var payload dto.RefreshTokenDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.authService.RefreshToken(ctx.Request().Context(), payload.RefreshToken)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Token refreshed", http.StatusOK)
}

func (c *AuthController) Me(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.authService.Me(ctx.Request().Context(), claims.UserID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *AuthController) UpdateProfile(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateProfileDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	updated, previous, err := c.authService.UpdateProfile(ctx.Request().Context(), claims.UserID, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	audittrail.SetBefore(ctx, previous)
	return utils.SuccessResponse(ctx, updated, "Profile updated", http.StatusOK)
}

func (c *AuthController) Logout(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.authService.Logout(ctx.Request().Context(), claims, clientInfo(ctx)); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Logged out", http.StatusOK)
}

func (c *AuthController) LogoutAll(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	count, err := c.authService.LogoutAll(ctx.Request().Context(), claims, clientInfo(ctx))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]int{"revokedSessions": count}, "All sessions terminated", http.StatusOK)
}

func (c *AuthController) ChangePassword(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.ChangePasswordDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	revoked, err := c.authService.ChangePassword(ctx.Request().Context(), claims, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]int{"revokedSessions": revoked}, "Password changed", http.StatusOK)
}

func (c *AuthController) LoginHistory(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.authService.LoginHistory(ctx.Request().Context(), claims.UserID,
		utils.QueryInt(ctx, "limit", 0), utils.QueryInt(ctx, "offset", 0))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *AuthController) Sessions(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.securityService.Sessions(ctx.Request().Context(), claims)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *AuthController) TerminateSession(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	sessionID := ctx.Param("sessionId")
	if sessionID == "" {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("sessionId is required"), c.logger)
	}
	terminated, err := c.securityService.TerminateSession(ctx.Request().Context(), claims, sessionID)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	audittrail.SetBefore(ctx, terminated)
	return utils.SuccessResponse(ctx, map[string]string{"id": sessionID}, "Session terminated", http.StatusOK)
}

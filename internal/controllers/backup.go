package controllers

import (
	"net/http"
	"strconv"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/services"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type BackupController struct {
	backupService services.BackupServiceInterface
	logger        *zap.Logger
}

func NewBackupController(backupService services.BackupServiceInterface, logger *zap.Logger) *BackupController {
	return &BackupController{backupService: backupService, logger: logger}
}

func (c *BackupController) Stats(ctx echo.Context) error {
	res, err := c.backupService.Stats(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *BackupController) Create(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.CreateBackupDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	userID := claims.UserID
	res, err := c.backupService.Create(ctx.Request().Context(), dto.BackupOptions{
		TriggeredBy: &userID,
		Username:    claims.Username,
		Description: payload.Description,
	})
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Backup created", http.StatusCreated)
}

func (c *BackupController) List(ctx echo.Context) error {
	includeDeleted, _ := strconv.ParseBool(ctx.QueryParam("includeDeleted"))
	res, err := c.backupService.List(ctx.Request().Context(), dto.BackupFilter{
		Limit:          utils.QueryInt(ctx, "limit", 0),
		Offset:         utils.QueryInt(ctx, "offset", 0),
		Status:         ctx.QueryParam("status"),
		BackupType:     ctx.QueryParam("backupType"),
		IncludeDeleted: includeDeleted,
	})
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *BackupController) Details(ctx echo.Context) error {
	id, err := uintParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.backupService.Details(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *BackupController) Verify(ctx echo.Context) error {
	id, err := uintParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.backupService.Verify(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Backup verified", http.StatusOK)
}

func (c *BackupController) Restore(ctx echo.Context) error {
	id, err := uintParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.RestoreBackupDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if !payload.Confirm {
		return utils.ErrorResponse(ctx, apperrors.ErrRestoreNotConfirmed, c.logger)
	}

	c.logger.Warn("database restore requested", zap.Uint64("backupID", id), zap.Bool("force", payload.Force))
	res, err := c.backupService.Restore(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Database restored", http.StatusOK)
}

func (c *BackupController) Delete(ctx echo.Context) error {
	id, err := uintParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	hard, _ := strconv.ParseBool(ctx.QueryParam("hard"))
	if err := c.backupService.Delete(ctx.Request().Context(), id, hard); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, map[string]any{"id": id, "hard": hard}, "Backup deleted", http.StatusOK)
}

func (c *BackupController) Cleanup(ctx echo.Context) error {
	res, err := c.backupService.CleanupExpired(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Expired backups removed", http.StatusOK)
}

func (c *BackupController) Download(ctx echo.Context) error {
	id, err := uintParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	path, name, err := c.backupService.DownloadPath(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return ctx.Attachment(path, name)
}

package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/services"
	"nusantara-erp/pkg/audittrail"
	apperrors "nusantara-erp/pkg/errors"
	"nusantara-erp/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type AuditController struct {
	auditService services.AuditServiceInterface
	retention    int
	logger       *zap.Logger
}

func NewAuditController(auditService services.AuditServiceInterface, retentionDays int, logger *zap.Logger) *AuditController {
	return &AuditController{auditService: auditService, retention: retentionDays, logger: logger}
}

func auditFilterFromQuery(ctx echo.Context) (dto.AuditLogFilter, error) {
	f := dto.AuditLogFilter{
		Action:     strings.ToUpper(ctx.QueryParam("action")),
		EntityType: ctx.QueryParam("entityType"),
		EntityID:   ctx.QueryParam("entityId"),
		Limit:      utils.QueryInt(ctx, "limit", 0),
		Offset:     utils.QueryInt(ctx, "offset", 0),
		SortBy:     ctx.QueryParam("sortBy"),
		Order:      ctx.QueryParam("order"),
	}
	if raw := ctx.QueryParam("userId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return f, apperrors.NewBadRequestError("invalid userId")
		}
		f.UserID = &id
	}
	var err error
	if f.StartDate, err = queryDate(ctx, "startDate"); err != nil {
		return f, err
	}
	if f.EndDate, err = queryDate(ctx, "endDate"); err != nil {
		return f, err
	}
	return f, nil
}

func (c *AuditController) GetLogs(ctx echo.Context) error {
	filter, err := auditFilterFromQuery(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.auditService.GetLogs(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *AuditController) GetLog(ctx echo.Context) error {
	id, err := uintParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.auditService.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *AuditController) EntityHistory(ctx echo.Context) error {
	res, err := c.auditService.GetEntityHistory(ctx.Request().Context(),
		ctx.Param("type"), ctx.Param("id"), utils.QueryInt(ctx, "limit", 0))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *AuditController) UserActivity(ctx echo.Context) error {
	userID, err := uintParam(ctx, "userId")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.auditService.GetUserActivity(ctx.Request().Context(), userID, utils.QueryInt(ctx, "days", 0))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *AuditController) SystemActivity(ctx echo.Context) error {
	res, err := c.auditService.GetSystemActivity(ctx.Request().Context(), utils.QueryInt(ctx, "days", 0))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *AuditController) Export(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	filter, err := auditFilterFromQuery(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	format := strings.ToLower(ctx.QueryParam("format"))
	if format == "" {
		format = "csv"
	}

	file, err := c.auditService.Export(ctx.Request().Context(), actorFrom(ctx, claims), filter, format)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return sendFile(ctx, file)
}

func (c *AuditController) Actions(ctx echo.Context) error {
	return utils.SuccessResponse(ctx, audittrail.Actions, "Successfully", http.StatusOK)
}

func (c *AuditController) EntityTypes(ctx echo.Context) error {
	res, err := c.auditService.EntityTypes(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *AuditController) Cleanup(ctx echo.Context) error {
	var payload dto.AuditCleanupDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if payload.RetentionDays == 0 {
		payload.RetentionDays = c.retention
	}

	deleted, err := c.auditService.CleanupOldLogs(ctx.Request().Context(), payload.RetentionDays)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res := dto.AuditCleanupResultDTO{DeletedCount: deleted, RetentionDays: payload.RetentionDays}
	return utils.SuccessResponse(ctx, res, "Old audit logs removed", http.StatusOK)
}

func (c *AuditController) ClearAll(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.ClearAllLogsDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	deleted, err := c.auditService.ClearAllLogs(ctx.Request().Context(), actorFrom(ctx, claims), payload.ConfirmationCode)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	c.logger.Warn("audit log cleared", zap.Uint64("userID", claims.UserID), zap.Int64("deleted", deleted))
	return utils.SuccessResponse(ctx, dto.ClearAllLogsResultDTO{DeletedCount: deleted}, "All audit logs cleared", http.StatusOK)
}

package controllers

import (
	"net/http"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/services"
	"nusantara-erp/pkg/audittrail"
	"nusantara-erp/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var manpowerFilterKeys = []string{"department", "position", "status", "employmentType", "subsidiaryId", "project"}

type ManpowerController struct {
	manpowerService services.ManpowerServiceInterface
	auditService    services.AuditServiceInterface
	logger          *zap.Logger
}

func NewManpowerController(
	manpowerService services.ManpowerServiceInterface,
	auditService services.AuditServiceInterface,
	logger *zap.Logger,
) *ManpowerController {
	return &ManpowerController{manpowerService: manpowerService, auditService: auditService, logger: logger}
}

func (c *ManpowerController) List(ctx echo.Context) error {
	rows, total, err := c.manpowerService.List(ctx.Request().Context(), listFilter(ctx, manpowerFilterKeys...))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, rows, "Successfully", http.StatusOK, total)
}

func (c *ManpowerController) Overview(ctx echo.Context) error {
	res, err := c.manpowerService.Overview(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *ManpowerController) BySubsidiary(ctx echo.Context) error {
	res, err := c.manpowerService.BySubsidiary(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *ManpowerController) AvailableUsers(ctx echo.Context) error {
	res, err := c.manpowerService.AvailableUsers(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *ManpowerController) Export(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	filter := listFilter(ctx, manpowerFilterKeys...)
	file, err := c.manpowerService.Export(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	filters := make(map[string]any, len(filter.Filter)+1)
	for k, v := range filter.Filter {
		filters[k] = v
	}
	if filter.Search != "" {
		filters["search"] = filter.Search
	}
	c.auditService.LogExport(ctx.Request().Context(), actorFrom(ctx, claims), "manpower", "xlsx", filters)
	return sendFile(ctx, file)
}

func (c *ManpowerController) Get(ctx echo.Context) error {
	res, err := c.manpowerService.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *ManpowerController) Create(ctx echo.Context) error {
	var payload dto.CreateEmployeeDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.manpowerService.Create(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Employee created", http.StatusCreated)
}

func (c *ManpowerController) Update(ctx echo.Context) error {
	var payload dto.UpdateEmployeeDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	updated, previous, err := c.manpowerService.Update(ctx.Request().Context(), ctx.Param("id"), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	audittrail.SetBefore(ctx, previous)
	return utils.SuccessResponse(ctx, updated, "Employee updated", http.StatusOK)
}

func (c *ManpowerController) Delete(ctx echo.Context) error {
	previous, err := c.manpowerService.Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	audittrail.SetBefore(ctx, previous)
	return utils.SuccessResponse(ctx, map[string]string{"id": previous.ID, "name": previous.Name}, "Employee deleted", http.StatusOK)
}

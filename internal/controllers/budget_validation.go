package controllers

import (
	"net/http"
	"strings"

	"nusantara-erp/internal/dto"
	"nusantara-erp/internal/services"
	"nusantara-erp/pkg/audittrail"
	"nusantara-erp/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type BudgetValidationController struct {
	budgetService services.BudgetValidationServiceInterface
	logger        *zap.Logger
}

func NewBudgetValidationController(budgetService services.BudgetValidationServiceInterface, logger *zap.Logger) *BudgetValidationController {
	return &BudgetValidationController{budgetService: budgetService, logger: logger}
}

func (c *BudgetValidationController) Comprehensive(ctx echo.Context) error {
	res, err := c.budgetService.GetComprehensive(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *BudgetValidationController) RecordActualCost(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.ActualCostDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.budgetService.RecordActualCost(ctx.Request().Context(), ctx.Param("id"), claims, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Actual cost recorded", http.StatusCreated)
}

func (c *BudgetValidationController) VarianceAnalysis(ctx echo.Context) error {
	res, err := c.budgetService.VarianceAnalysis(ctx.Request().Context(), ctx.Param("id"),
		ctx.QueryParam("timeframe"), ctx.QueryParam("groupBy"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *BudgetValidationController) Summary(ctx echo.Context) error {
	res, err := c.budgetService.Summary(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *BudgetValidationController) ListExpenses(ctx echo.Context) error {
	filter := dto.ExpenseFilter{
		Status: strings.ToLower(ctx.QueryParam("status")),
		Type:   ctx.QueryParam("type"),
	}
	var err error
	if filter.StartDate, err = queryDate(ctx, "startDate"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if filter.EndDate, err = queryDate(ctx, "endDate"); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.budgetService.ListExpenses(ctx.Request().Context(), ctx.Param("id"), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *BudgetValidationController) CreateExpense(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.CreateExpenseDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.budgetService.CreateExpense(ctx.Request().Context(), ctx.Param("id"), claims, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Additional expense created", http.StatusCreated)
}

func (c *BudgetValidationController) UpdateExpense(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := uintParam(ctx, "expenseId")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateExpenseDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	projectID := ctx.Param("id")
	previous, err := c.budgetService.GetExpense(ctx.Request().Context(), projectID, id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.budgetService.UpdateExpense(ctx.Request().Context(), projectID, id, claims, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	audittrail.SetBefore(ctx, previous)
	return utils.SuccessResponse(ctx, res, "Additional expense updated", http.StatusOK)
}

func (c *BudgetValidationController) DeleteExpense(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := uintParam(ctx, "expenseId")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	previous, err := c.budgetService.DeleteExpense(ctx.Request().Context(), ctx.Param("id"), id, claims)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	audittrail.SetBefore(ctx, previous)
	return utils.SuccessResponse(ctx, map[string]uint64{"id": id}, "Additional expense deleted", http.StatusOK)
}

func (c *BudgetValidationController) ApproveExpense(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := uintParam(ctx, "expenseId")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.budgetService.ApproveExpense(ctx.Request().Context(), ctx.Param("id"), id, claims)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Additional expense approved", http.StatusOK)
}

func (c *BudgetValidationController) RejectExpense(ctx echo.Context) error {
	claims, err := utils.GetClaimsFromContext(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	id, err := uintParam(ctx, "expenseId")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.RejectExpenseDTO
	if err := bindAndValidate(ctx, &payload); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.budgetService.RejectExpense(ctx.Request().Context(), ctx.Param("id"), id, claims, payload.Reason)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Additional expense rejected", http.StatusOK)
}

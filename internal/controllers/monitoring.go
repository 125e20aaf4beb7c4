package controllers

import (
	"net/http"
	"time"

	"nusantara-erp/internal/services"
	"nusantara-erp/pkg/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type MonitoringController struct {
	monitoringService services.MonitoringServiceInterface
	logger            *zap.Logger
}

func NewMonitoringController(monitoringService services.MonitoringServiceInterface, logger *zap.Logger) *MonitoringController {
	return &MonitoringController{monitoringService: monitoringService, logger: logger}
}

// Liveness answers without touching any dependency.
func (c *MonitoringController) Liveness(ctx echo.Context) error {
	return utils.SuccessResponse(ctx, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	}, "Service is running", http.StatusOK)
}

func (c *MonitoringController) Health(ctx echo.Context) error {
	res, err := c.monitoringService.Health(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *MonitoringController) Metrics(ctx echo.Context) error {
	res, err := c.monitoringService.Metrics(ctx.Request().Context(), ctx.QueryParam("type"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

func (c *MonitoringController) CPU(ctx echo.Context) error {
	return utils.SuccessResponse(ctx, c.monitoringService.CPU(ctx.Request().Context()), "Successfully", http.StatusOK)
}

func (c *MonitoringController) Memory(ctx echo.Context) error {
	return utils.SuccessResponse(ctx, c.monitoringService.Memory(ctx.Request().Context()), "Successfully", http.StatusOK)
}

func (c *MonitoringController) Disk(ctx echo.Context) error {
	return utils.SuccessResponse(ctx, c.monitoringService.Disk(ctx.Request().Context()), "Successfully", http.StatusOK)
}

func (c *MonitoringController) Database(ctx echo.Context) error {
	return utils.SuccessResponse(ctx, c.monitoringService.Database(ctx.Request().Context()), "Successfully", http.StatusOK)
}

func (c *MonitoringController) Process(ctx echo.Context) error {
	return utils.SuccessResponse(ctx, c.monitoringService.Process(ctx.Request().Context()), "Successfully", http.StatusOK)
}

func (c *MonitoringController) APIPerformance(ctx echo.Context) error {
	return utils.SuccessResponse(ctx, c.monitoringService.APIMetrics(), "Successfully", http.StatusOK)
}

func (c *MonitoringController) Alerts(ctx echo.Context) error {
	res, err := c.monitoringService.Alerts(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Successfully", http.StatusOK)
}

package routes

import (
	"nusantara-erp/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runMonitoringRouter(e *echo.Echo, secureGroup *echo.Group, monitoringCtrl *controllers.MonitoringController) {
	e.GET("/health", monitoringCtrl.Liveness)

	monGroup := secureGroup.Group("/monitoring")
	{
		monGroup.GET("/health", monitoringCtrl.Health)
		monGroup.GET("/metrics", monitoringCtrl.Metrics)
		monGroup.GET("/cpu", monitoringCtrl.CPU)
		monGroup.GET("/memory", monitoringCtrl.Memory)
		monGroup.GET("/disk", monitoringCtrl.Disk)
		monGroup.GET("/database", monitoringCtrl.Database)
		monGroup.GET("/api-performance", monitoringCtrl.APIPerformance)
		monGroup.GET("/alerts", monitoringCtrl.Alerts)
		monGroup.GET("/process", monitoringCtrl.Process)
	}
}

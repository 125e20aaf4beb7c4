package routes

import (
	"nusantara-erp/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runAuditRouter(secureGroup *echo.Group, auditCtrl *controllers.AuditController, adminOnly echo.MiddlewareFunc) {
	auditGroup := secureGroup.Group("/audit", adminOnly)
	{
		auditGroup.GET("/logs", auditCtrl.GetLogs)
		auditGroup.GET("/logs/:id", auditCtrl.GetLog)
		auditGroup.DELETE("/logs/clear-all", auditCtrl.ClearAll)
		auditGroup.GET("/entity-history/:type/:id", auditCtrl.EntityHistory)
		auditGroup.GET("/user-activity/:userId", auditCtrl.UserActivity)
		auditGroup.GET("/system-activity", auditCtrl.SystemActivity)
		auditGroup.GET("/export", auditCtrl.Export)
		auditGroup.GET("/actions", auditCtrl.Actions)
		auditGroup.GET("/entity-types", auditCtrl.EntityTypes)
		auditGroup.POST("/cleanup", auditCtrl.Cleanup)
	}
}

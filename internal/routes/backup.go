package routes

import (
	"nusantara-erp/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runBackupRouter(secureGroup *echo.Group, backupCtrl *controllers.BackupController, adminOnly echo.MiddlewareFunc) {
	backupGroup := secureGroup.Group("/backup", adminOnly)
	{
		backupGroup.GET("/stats", backupCtrl.Stats)
		backupGroup.POST("/create", backupCtrl.Create)
		backupGroup.GET("/list", backupCtrl.List)
		backupGroup.POST("/cleanup", backupCtrl.Cleanup)
		backupGroup.GET("/download/:id", backupCtrl.Download)
		backupGroup.GET("/:id", backupCtrl.Details)
		backupGroup.POST("/:id/verify", backupCtrl.Verify)
		backupGroup.POST("/:id/restore", backupCtrl.Restore)
		backupGroup.DELETE("/:id", backupCtrl.Delete)
	}
}

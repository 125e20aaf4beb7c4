package routes

import (
	"nusantara-erp/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runSubsidiaryRouter(secureGroup *echo.Group, subsidiaryCtrl *controllers.SubsidiaryController) {
	subGroup := secureGroup.Group("/subsidiaries")
	{
		subGroup.GET("", subsidiaryCtrl.List)
		subGroup.GET("/stats/overview", subsidiaryCtrl.Stats)
		subGroup.GET("/:id", subsidiaryCtrl.Get)
		subGroup.POST("", subsidiaryCtrl.Create)
		subGroup.PUT("/:id", subsidiaryCtrl.Update)
		subGroup.DELETE("/:id", subsidiaryCtrl.Delete)

		subGroup.POST("/:id/attachments", subsidiaryCtrl.UploadAttachment)
		subGroup.DELETE("/:id/attachments/:attachmentId", subsidiaryCtrl.DeleteAttachment)
		subGroup.GET("/:id/attachments/:attachmentId/download", subsidiaryCtrl.DownloadAttachment)
	}
}

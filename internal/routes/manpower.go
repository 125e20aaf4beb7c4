package routes

import (
	"nusantara-erp/internal/controllers"

	"github.com/labstack/echo/v4"
)

func runManpowerRouter(secureGroup *echo.Group, manpowerCtrl *controllers.ManpowerController) {
	mpGroup := secureGroup.Group("/manpower")
	{
		mpGroup.GET("", manpowerCtrl.List)
		mpGroup.GET("/stats/overview", manpowerCtrl.Overview)
		mpGroup.GET("/statistics/by-subsidiary", manpowerCtrl.BySubsidiary)
		mpGroup.GET("/available-users", manpowerCtrl.AvailableUsers)
		mpGroup.GET("/export", manpowerCtrl.Export)
		mpGroup.GET("/:id", manpowerCtrl.Get)
		mpGroup.POST("", manpowerCtrl.Create)
		mpGroup.PUT("/:id", manpowerCtrl.Update)
		mpGroup.DELETE("/:id", manpowerCtrl.Delete)
	}
}

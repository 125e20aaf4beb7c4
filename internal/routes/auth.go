package routes

import (
	"nusantara-erp/internal/controllers"
	"nusantara-erp/pkg/middleware"

	"github.com/labstack/echo/v4"
)

func runAuthRouter(api *echo.Group, authCtrl *controllers.AuthController, authMW *middleware.AuthMiddleware) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authCtrl.Login)
		authGroup.POST("/refresh-token", authCtrl.RefreshToken)

		authGroup.GET("/me", authCtrl.Me, authMW.Auth)
		authGroup.GET("/profile", authCtrl.Me, authMW.Auth)
		authGroup.PUT("/profile", authCtrl.UpdateProfile, authMW.Auth)
		authGroup.POST("/logout", authCtrl.Logout, authMW.Auth)
		authGroup.POST("/logout-all", authCtrl.LogoutAll, authMW.Auth)
		authGroup.POST("/change-password", authCtrl.ChangePassword, authMW.Auth)
		authGroup.GET("/login-history", authCtrl.LoginHistory, authMW.Auth)
		authGroup.GET("/sessions", authCtrl.Sessions, authMW.Auth)
	}

	api.DELETE("/security/session/:sessionId", authCtrl.TerminateSession, authMW.Auth)
}

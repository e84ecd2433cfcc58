package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/agrimarket/agrimarket_backend/controllers"
)

// RegisterAuthRoutes sets up registration, login and session routes.
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController, protect echo.MiddlewareFunc) {
	auth := e.Group("/api/auth")

	// Public authentication routes
	auth.POST("/register/:role", authController.Register)
	auth.POST("/verify-email", authController.VerifyEmail)
	auth.POST("/resend-otp", authController.ResendOTP)
	auth.POST("/login", authController.Login)
	auth.POST("/refresh", authController.Refresh)
	auth.POST("/forgot-password", authController.ForgotPassword)
	auth.POST("/reset-password", authController.ResetPassword)

	// Session routes
	auth.POST("/logout", authController.Logout, protect)
	auth.GET("/me", authController.Me, protect)

	// Admin login shares the auth rate limits but lives under /api/admin
	e.POST("/api/admin/login", authController.AdminLogin)
}

package routes

import (
	"camp_finance/handlers"
	"camp_finance/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes 设置认证相关路由
// 登录接口不需要认证中间件，其余接口都要求已登录
func SetupAuthRoutes(api fiber.Router) {
	auth := api.Group("/auth")

	auth.Post("/login", handlers.AdminLogin)                                              // 管理员登录
	auth.Get("/profile", middleware.AdminAuthMiddleware(), handlers.GetAdminProfile)      // 当前管理员信息
	auth.Put("/password", middleware.AdminAuthMiddleware(), handlers.ChangeAdminPassword) // 修改密码
}

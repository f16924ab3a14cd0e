package routes

import (
	"camp_finance/handlers"
	"camp_finance/middleware"

	"github.com/gofiber/fiber/v2"
)

// RegisterRuleRoutes 设置分成规则相关路由
// 规则只由管理员维护，全部路由都需要认证
func RegisterRuleRoutes(api fiber.Router) {
	rules := api.Group("/rules", middleware.AdminAuthMiddleware())
	rules.Get("/", handlers.GetAllRules)      // 获取分成规则列表
	rules.Post("/", handlers.CreateRule)      // 创建分成规则
	rules.Put("/:id", handlers.UpdateRule)    // 修改分成规则
	rules.Delete("/:id", handlers.DeleteRule) // 删除分成规则
}

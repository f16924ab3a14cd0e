package routes

import (
	"camp_finance/handlers"
	"camp_finance/middleware"

	"github.com/gofiber/fiber/v2"
)

// RegisterCalculationRoutes 设置分成计算相关路由
// 人数修改走预览确认协议；平台费只影响单条快照，直接提交
func RegisterCalculationRoutes(api fiber.Router) {
	calculations := api.Group("/calculations", middleware.AdminAuthMiddleware())
	calculations.Get("/", handlers.GetAllCalculations)                                  // 获取快照列表
	calculations.Post("/", handlers.CreateCalculation)                                  // 执行分成计算
	calculations.Delete("/", handlers.BatchDeleteCalculations)                          // 批量删除快照
	calculations.Get("/:id", handlers.GetCalculationByID)                               // 获取单条快照
	calculations.Delete("/:id", handlers.DeleteCalculation)                             // 删除单条快照
	calculations.Post("/:id/preview-student-count", handlers.PreviewStudentCountChange) // 预览人数修改
	calculations.Put("/:id/student-count", handlers.CommitStudentCountChange)           // 提交人数修改
	calculations.Put("/:id/platform-fee", handlers.UpdatePlatformFee)                   // 修改平台费
	calculations.Put("/:id/info", handlers.UpdateCalculationInfo)                       // 修改附加信息
}

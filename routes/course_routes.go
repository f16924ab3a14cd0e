package routes

import (
	"camp_finance/handlers"
	"camp_finance/middleware"

	"github.com/gofiber/fiber/v2"
)

// RegisterCourseRoutes 设置课程相关路由
// 课程定价修改走级联协议：先预览差异，确认后再提交
func RegisterCourseRoutes(api fiber.Router) {
	courses := api.Group("/courses", middleware.AdminAuthMiddleware())
	courses.Get("/", handlers.GetAllCourses)                          // 获取课程列表
	courses.Post("/", handlers.CreateCourse)                          // 创建课程
	courses.Get("/:id", handlers.GetCourseByID)                       // 获取单个课程
	courses.Post("/:id/preview-update", handlers.PreviewCourseUpdate) // 预览定价修改的级联影响
	courses.Put("/:id", handlers.UpdateCourse)                        // 提交课程修改（触发级联）
	courses.Delete("/:id", handlers.DeleteCourse)                     // 删除课程
}

// Package handlers 实现HTTP请求处理函数
// 处理函数只做参数解析、校验和结果封装，分成计算和级联重算都在services包
package handlers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"camp_finance/database"
	"camp_finance/services"
)

// validate 请求参数校验器
// 所有请求DTO通过validate标签声明校验规则
var validate = validator.New()

// getEngine 返回基于当前数据库连接的计算引擎
// 引擎本身无状态，按请求创建即可
func getEngine() *services.Engine {
	return services.NewEngine(services.NewGormStores(database.GetDB()))
}

// respondEngineError 将引擎错误映射为HTTP响应
// 级联中止错误带上出错快照的定位信息，前端需要提示是哪条记录的问题
func respondEngineError(c *fiber.Ctx, err error) error {
	var abort *services.CascadeAbortError
	if errors.As(err, &abort) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":         abort.Error(),
			"snapshot_id":   abort.SnapshotID,
			"course_name":   abort.CourseName,
			"student_count": abort.StudentCount,
		})
	}

	switch {
	case errors.Is(err, services.ErrCourseNotFound),
		errors.Is(err, services.ErrSnapshotNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, services.ErrRuleNotFound):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		log.Printf("引擎执行失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "服务器内部错误，请稍后重试",
		})
	}
}

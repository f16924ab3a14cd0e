// Package middleware 提供HTTP中间件
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"camp_finance/database"
	"camp_finance/models"
	"camp_finance/utils"
)

// AdminAuthMiddleware 验证管理员身份的中间件
// 所有后台接口（除登录外）都经过该中间件
// 认证方式为Authorization头的Bearer JWT令牌
// 认证成功后，管理员ID和用户名写入请求上下文，供后续处理函数使用
func AdminAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 从请求头获取Authorization并检查Bearer格式
		authHeader := c.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "未提供有效的认证令牌",
			})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		// 解析令牌并验证签名
		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "无效的认证令牌",
			})
		}

		// 查询管理员信息，确认账号仍然存在
		var admin models.Admin
		if err := database.GetDB().First(&admin, claims.AdminID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "管理员账号不存在",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "验证管理员身份失败",
			})
		}

		// 将管理员信息存储在请求上下文中
		c.Locals("admin_id", admin.ID)
		c.Locals("admin_username", admin.Username)

		return c.Next()
	}
}

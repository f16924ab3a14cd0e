package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"camp_finance/database"
	"camp_finance/models"
	"camp_finance/utils"
)

// loginRequest 登录请求参数
type loginRequest struct {
	Username string `json:"username" validate:"required"` // 用户名
	Password string `json:"password" validate:"required"` // 密码
}

// AdminLogin 管理员登录
// 处理流程:
//  1. 检查账号是否因多次失败被锁定
//  2. 查询管理员并验证密码
//  3. 登录成功后重置失败计数、更新最后登录时间并签发JWT令牌
func AdminLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "参数解析失败: " + err.Error(),
		})
	}

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "用户名和密码不能为空",
		})
	}

	// 检查账号是否被锁定
	if locked, remaining := utils.DefaultLoginLimiter.IsLocked(req.Username); locked {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error":               "登录失败次数过多，账号已锁定",
			"retry_after_minutes": remaining,
		})
	}

	// 查询管理员信息
	var admin models.Admin
	if err := database.GetDB().Where("username = ?", req.Username).First(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 用户名不存在也计入失败次数，避免探测账号
			utils.DefaultLoginLimiter.RecordFailedLogin(req.Username)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "用户名或密码错误",
			})
		}
		log.Printf("查询管理员失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "登录失败，请稍后重试",
		})
	}

	// 验证密码
	if !admin.CheckPassword(req.Password) {
		locked, lockMinutes := utils.DefaultLoginLimiter.RecordFailedLogin(req.Username)
		if locked {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":               "登录失败次数过多，账号已锁定",
				"retry_after_minutes": lockMinutes,
			})
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":              "用户名或密码错误",
			"remaining_attempts": utils.DefaultLoginLimiter.GetRemainingAttempts(req.Username),
		})
	}

	// 登录成功，重置失败计数
	utils.DefaultLoginLimiter.ResetAttempts(req.Username)

	// 更新最后登录时间
	now := time.Now()
	if err := database.GetDB().Model(&admin).Update("last_login_at", &now).Error; err != nil {
		log.Printf("更新最后登录时间失败: %v", err)
		// 不影响登录流程，继续处理
	}

	// 生成JWT令牌，有效期24小时
	token, err := utils.GenerateToken(admin.ID, admin.Username, 24*time.Hour)
	if err != nil {
		log.Printf("生成令牌失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "登录失败，请稍后重试",
		})
	}

	return c.JSON(fiber.Map{
		"message":    "登录成功",
		"token":      token,
		"expires_at": time.Now().Add(24 * time.Hour).Unix(),
		"admin": fiber.Map{
			"id":       admin.ID,
			"username": admin.Username,
			"name":     admin.Name,
		},
	})
}

// GetAdminProfile 获取当前登录管理员的信息
func GetAdminProfile(c *fiber.Ctx) error {
	adminID, err := utils.GetAdminIDFromToken(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "未登录或令牌无效",
		})
	}

	var admin models.Admin
	if err := database.GetDB().First(&admin, adminID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "管理员账号不存在",
			})
		}
		log.Printf("查询管理员失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "查询管理员信息失败",
		})
	}

	return c.JSON(admin)
}

// changePasswordRequest 修改密码请求参数
type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`       // 原密码
	NewPassword string `json:"new_password" validate:"required,min=8"` // 新密码，至少8位
}

// ChangeAdminPassword 修改当前管理员的密码
func ChangeAdminPassword(c *fiber.Ctx) error {
	adminID, err := utils.GetAdminIDFromToken(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "未登录或令牌无效",
		})
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "参数解析失败: " + err.Error(),
		})
	}

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "新密码长度不能少于8位",
		})
	}

	var admin models.Admin
	if err := database.GetDB().First(&admin, adminID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "查询管理员信息失败",
		})
	}

	if !admin.CheckPassword(req.OldPassword) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "原密码错误",
		})
	}

	if err := admin.SetPassword(req.NewPassword); err != nil {
		log.Printf("密码加密失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "修改密码失败，请稍后重试",
		})
	}

	if err := database.GetDB().Model(&admin).Update("password", admin.Password).Error; err != nil {
		log.Printf("保存新密码失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "修改密码失败，请稍后重试",
		})
	}

	return c.JSON(fiber.Map{
		"message": "密码修改成功",
	})
}

package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"camp_finance/database"
	"camp_finance/models"
	"camp_finance/services"
)

// ruleRequest 分成规则的创建和修改请求参数
type ruleRequest struct {
	Category    string  `json:"category" validate:"required,oneof=live recorded"` // 品类
	MinStudents int     `json:"min_students" validate:"required,min=1"`           // 区间下限（含）
	MaxStudents int     `json:"max_students" validate:"min=0"`                    // 区间上限（含），0表示无上限
	CocoRate    float64 `json:"coco_rate" validate:"min=0,max=100"`               // Coco分成比例，百分数
	ZoeyRate    float64 `json:"zoey_rate" validate:"min=0,max=100"`               // Zoey分成比例，百分数
	EchoRate    float64 `json:"echo_rate" validate:"min=0,max=100"`               // Echo分成比例，百分数
}

// checkRuleConflict 检查规则区间是否与同品类已有规则重叠
// 区间合法性在创建和修改时拦截，计算阶段信任配置
// 参数excludeID用于修改场景排除规则自身，创建时传0
func checkRuleConflict(rule *models.CommissionRule, excludeID uint) error {
	var existing []models.CommissionRule
	if err := database.GetDB().Where("category = ?", rule.Category).Find(&existing).Error; err != nil {
		return err
	}

	for i := range existing {
		if existing[i].ID == excludeID {
			continue
		}
		if rule.Overlaps(&existing[i]) {
			return services.ErrRangeOverlap
		}
	}

	return nil
}

// CreateRule 创建分成规则
// 同一品类内的人数区间必须互不重叠，重叠的配置在这里直接拒绝
func CreateRule(c *fiber.Ctx) error {
	var req ruleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "参数解析失败: " + err.Error(),
		})
	}

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "参数校验失败: " + err.Error(),
		})
	}

	rule := models.CommissionRule{
		Category:    req.Category,
		MinStudents: req.MinStudents,
		MaxStudents: req.MaxStudents,
		CocoRate:    req.CocoRate,
		ZoeyRate:    req.ZoeyRate,
		EchoRate:    req.EchoRate,
	}

	// 区间自身合法性：下限至少为1，上限为0（无上限）或不小于下限
	if err := rule.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// 区间与已有规则的重叠检查
	if err := checkRuleConflict(&rule, 0); err != nil {
		if errors.Is(err, services.ErrRangeOverlap) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		log.Printf("查询分成规则失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "创建分成规则失败，请稍后重试",
		})
	}

	if err := database.GetDB().Create(&rule).Error; err != nil {
		log.Printf("创建分成规则失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "创建分成规则失败，请稍后重试",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(rule)
}

// GetAllRules 获取分成规则列表
// 支持按品类过滤，结果按品类和区间下限升序排列
func GetAllRules(c *fiber.Ctx) error {
	query := database.GetDB().Model(&models.CommissionRule{})

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var rules []models.CommissionRule
	if err := query.Order("category ASC, min_students ASC").Find(&rules).Error; err != nil {
		log.Printf("查询分成规则失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "查询分成规则失败",
		})
	}

	return c.JSON(fiber.Map{
		"total": len(rules),
		"rules": rules,
	})
}

// UpdateRule 修改分成规则
// 修改同样要通过区间合法性和重叠检查，排除规则自身
func UpdateRule(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的规则ID",
		})
	}

	var rule models.CommissionRule
	if err := database.GetDB().First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "分成规则不存在",
			})
		}
		log.Printf("查询分成规则失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "查询分成规则失败",
		})
	}

	var req ruleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "参数解析失败: " + err.Error(),
		})
	}

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "参数校验失败: " + err.Error(),
		})
	}

	rule.Category = req.Category
	rule.MinStudents = req.MinStudents
	rule.MaxStudents = req.MaxStudents
	rule.CocoRate = req.CocoRate
	rule.ZoeyRate = req.ZoeyRate
	rule.EchoRate = req.EchoRate

	if err := rule.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := checkRuleConflict(&rule, rule.ID); err != nil {
		if errors.Is(err, services.ErrRangeOverlap) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		log.Printf("查询分成规则失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "修改分成规则失败，请稍后重试",
		})
	}

	if err := database.GetDB().Save(&rule).Error; err != nil {
		log.Printf("保存分成规则失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "修改分成规则失败，请稍后重试",
		})
	}

	return c.JSON(rule)
}

// DeleteRule 删除分成规则
// 只有管理员能删除规则，引擎自身不会删除任何规则
// 删除后区间出现缺口时，落在缺口内的人数会在计算时报规则缺失
func DeleteRule(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的规则ID",
		})
	}

	result := database.GetDB().Delete(&models.CommissionRule{}, id)
	if result.Error != nil {
		log.Printf("删除分成规则失败: %v", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "删除分成规则失败，请稍后重试",
		})
	}

	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "分成规则不存在",
		})
	}

	return c.JSON(fiber.Map{
		"message": "删除成功",
	})
}

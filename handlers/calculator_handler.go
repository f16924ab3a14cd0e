package handlers

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"camp_finance/database"
	"camp_finance/models"
)

// createCalculationRequest 新建分成计算请求参数
// 平台费是按快照设置的输入，不从课程派生
// 开营日期、营期天数、节假日天数和备注与计算无关，保存后重算也不会覆盖
type createCalculationRequest struct {
	CourseName            string  `json:"course_name" validate:"required"`                     // 课程名称
	StudentCount          int     `json:"student_count" validate:"required,min=1"`             // 学员人数
	PlatformFeePerStudent float64 `json:"platform_fee_per_student" validate:"min=0"`           // 单个学员平台抽成
	StartDate             string  `json:"start_date" validate:"omitempty,datetime=2006-01-02"` // 开营日期
	CampDays              int     `json:"camp_days" validate:"min=0"`                          // 营期天数
	HolidayDays           int     `json:"holiday_days" validate:"min=0"`                       // 节假日天数
	Note                  string  `json:"note"`                                                // 备注
}

// CreateCalculation 执行一次分成计算并保存快照
// 计算流程：按名称取课程 → 匹配分成规则 → 瀑布计算 → 保存快照
// 规则匹配失败（人数落在所有区间之外）时整次计算失败，不会保存任何数据
func CreateCalculation(c *fiber.Ctx) error {
	var req createCalculationRequest
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

	snapshot, err := getEngine().Calculate(req.CourseName, req.StudentCount, req.PlatformFeePerStudent)
	if err != nil {
		return respondEngineError(c, err)
	}

	// 用户自填字段随建随存，之后的重算不会触碰它们
	if req.StartDate != "" || req.CampDays > 0 || req.HolidayDays > 0 || req.Note != "" {
		if req.StartDate != "" {
			startDate, err := time.Parse("2006-01-02", req.StartDate)
			if err == nil {
				snapshot.StartDate = &startDate
			}
		}
		snapshot.CampDays = req.CampDays
		snapshot.HolidayDays = req.HolidayDays
		snapshot.Note = req.Note

		if err := database.GetDB().Save(snapshot).Error; err != nil {
			log.Printf("保存快照附加信息失败: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "保存计算快照失败，请稍后重试",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(snapshot)
}

// GetAllCalculations 获取计算快照列表
// 支持按课程名称过滤，结果按创建顺序倒序排列
func GetAllCalculations(c *fiber.Ctx) error {
	query := database.GetDB().Model(&models.CalculationSnapshot{})

	if courseName := c.Query("course_name"); courseName != "" {
		query = query.Where("course_name = ?", courseName)
	}

	var snapshots []models.CalculationSnapshot
	if err := query.Order("id DESC").Find(&snapshots).Error; err != nil {
		log.Printf("查询计算快照失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "查询计算快照失败",
		})
	}

	return c.JSON(fiber.Map{
		"total":     len(snapshots),
		"snapshots": snapshots,
	})
}

// GetCalculationByID 获取单条计算快照
func GetCalculationByID(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的快照ID",
		})
	}

	var snapshot models.CalculationSnapshot
	if err := database.GetDB().First(&snapshot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "计算快照不存在",
			})
		}
		log.Printf("查询计算快照失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "查询计算快照失败",
		})
	}

	return c.JSON(snapshot)
}

// previewStudentCountRequest 人数修改的预览和提交请求参数
type previewStudentCountRequest struct {
	StudentCount int `json:"student_count" validate:"required,min=1"` // 新的学员人数
}

// PreviewStudentCountChange 预览修改学员人数的影响
// 使用课程的当前状态和新人数重算，平台费保持快照原值，只返回差异不写库
func PreviewStudentCountChange(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的快照ID",
		})
	}

	var req previewStudentCountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "参数解析失败: " + err.Error(),
		})
	}

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "学员人数必须大于0",
		})
	}

	diff, err := getEngine().PreviewStudentCountChange(uint(id), req.StudentCount)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(diff)
}

// CommitStudentCountChange 确认人数修改并替换快照
// 替换实现为删旧插新，开营日期、营期天数、节假日天数和备注原样带到新快照
// 响应里的快照ID是新ID，前端不要再使用旧ID
func CommitStudentCountChange(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的快照ID",
		})
	}

	var req previewStudentCountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "参数解析失败: " + err.Error(),
		})
	}

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "学员人数必须大于0",
		})
	}

	snapshot, err := getEngine().CommitStudentCountChange(uint(id), req.StudentCount)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":  "学员人数已修改",
		"snapshot": snapshot,
	})
}

// updatePlatformFeeRequest 平台费修改请求参数
type updatePlatformFeeRequest struct {
	PlatformFeePerStudent float64 `json:"platform_fee_per_student" validate:"min=0"` // 新的单人平台费
}

// UpdatePlatformFee 修改单条快照的平台费
// 平台费只影响这一条快照，直接重算下游金额并保存，不需要预览确认
func UpdatePlatformFee(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的快照ID",
		})
	}

	var req updatePlatformFeeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "参数解析失败: " + err.Error(),
		})
	}

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "平台费不能为负数",
		})
	}

	snapshot, err := getEngine().UpdatePlatformFee(uint(id), req.PlatformFeePerStudent)
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(snapshot)
}

// updateCalculationInfoRequest 快照附加信息修改请求参数
// 这些字段与计算无关，修改不触发任何重算
type updateCalculationInfoRequest struct {
	StartDate   *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"` // 开营日期
	CampDays    *int    `json:"camp_days" validate:"omitempty,min=0"`                // 营期天数
	HolidayDays *int    `json:"holiday_days" validate:"omitempty,min=0"`             // 节假日天数
	Note        *string `json:"note"`                                                // 备注
}

// UpdateCalculationInfo 修改快照的附加信息
// 只更新传入的字段，派生金额一律不动
func UpdateCalculationInfo(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的快照ID",
		})
	}

	var req updateCalculationInfoRequest
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

	var snapshot models.CalculationSnapshot
	if err := database.GetDB().First(&snapshot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "计算快照不存在",
			})
		}
		log.Printf("查询计算快照失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "查询计算快照失败",
		})
	}

	updates := map[string]interface{}{}
	if req.StartDate != nil {
		if *req.StartDate == "" {
			updates["start_date"] = nil
		} else {
			startDate, parseErr := time.Parse("2006-01-02", *req.StartDate)
			if parseErr != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "开营日期格式应为YYYY-MM-DD",
				})
			}
			updates["start_date"] = startDate
		}
	}
	if req.CampDays != nil {
		updates["camp_days"] = *req.CampDays
	}
	if req.HolidayDays != nil {
		updates["holiday_days"] = *req.HolidayDays
	}
	if req.Note != nil {
		updates["note"] = *req.Note
	}

	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "没有需要修改的字段",
		})
	}

	if err := database.GetDB().Model(&snapshot).Updates(updates).Error; err != nil {
		log.Printf("保存快照附加信息失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "修改失败，请稍后重试",
		})
	}

	return c.JSON(snapshot)
}

// DeleteCalculation 删除单条计算快照
func DeleteCalculation(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的快照ID",
		})
	}

	result := database.GetDB().Delete(&models.CalculationSnapshot{}, id)
	if result.Error != nil {
		log.Printf("删除计算快照失败: %v", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "删除失败，请稍后重试",
		})
	}

	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "计算快照不存在",
		})
	}

	return c.JSON(fiber.Map{
		"message": "删除成功",
	})
}

// batchDeleteRequest 批量删除请求参数
type batchDeleteRequest struct {
	IDs []uint `json:"ids" validate:"required,min=1"` // 要删除的快照ID列表
}

// BatchDeleteCalculations 批量删除计算快照
func BatchDeleteCalculations(c *fiber.Ctx) error {
	var req batchDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "参数解析失败: " + err.Error(),
		})
	}

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "ID列表不能为空",
		})
	}

	result := database.GetDB().Delete(&models.CalculationSnapshot{}, req.IDs)
	if result.Error != nil {
		log.Printf("批量删除计算快照失败: %v", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "删除失败，请稍后重试",
		})
	}

	return c.JSON(fiber.Map{
		"message":       "删除成功",
		"deleted_count": result.RowsAffected,
	})
}

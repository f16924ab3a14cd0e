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

// createCourseRequest 创建课程请求参数
type createCourseRequest struct {
	Name          string  `json:"name" validate:"required,max=100"`    // 课程名称，唯一
	RetailPrice   float64 `json:"retail_price" validate:"min=0"`       // 单个学员零售价
	MaterialCost  float64 `json:"material_cost" validate:"min=0"`      // 单个学员物料成本
	HasLiveCourse bool    `json:"has_live_course"`                     // 是否带直播课
	InstructorFee float64 `json:"instructor_fee" validate:"min=0"`     // 单个学员课时费
	SalesRate     float64 `json:"sales_rate" validate:"min=0,max=100"` // 销售提成比例，百分数
}

// updateCourseRequest 修改课程请求参数
// 定价字段为nil表示不修改；课程改名和定价修改不允许在同一次请求中进行，
// 因为级联必须按快照实际记录的名称进行（先在旧名称下完成级联，再单独改名）
type updateCourseRequest struct {
	Name *string `json:"name" validate:"omitempty,max=100"` // 新课程名称
	services.CourseChange
}

// CreateCourse 创建课程
func CreateCourse(c *fiber.Ctx) error {
	var req createCourseRequest
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

	// 课程名称是快照的关联键，必须唯一
	var existing models.Course
	result := database.GetDB().Where("name = ?", req.Name).First(&existing)
	if result.Error == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "课程名称已存在",
		})
	} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		log.Printf("查询课程失败: %v", result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "创建课程失败，请稍后重试",
		})
	}

	course := models.Course{
		Name:          req.Name,
		RetailPrice:   req.RetailPrice,
		MaterialCost:  req.MaterialCost,
		HasLiveCourse: req.HasLiveCourse,
		InstructorFee: req.InstructorFee,
		SalesRate:     req.SalesRate,
	}

	if err := database.GetDB().Create(&course).Error; err != nil {
		log.Printf("创建课程失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "创建课程失败，请稍后重试",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(course)
}

// GetAllCourses 获取课程列表
func GetAllCourses(c *fiber.Ctx) error {
	var courses []models.Course
	if err := database.GetDB().Order("id ASC").Find(&courses).Error; err != nil {
		log.Printf("查询课程失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "查询课程失败",
		})
	}

	return c.JSON(fiber.Map{
		"total":   len(courses),
		"courses": courses,
	})
}

// GetCourseByID 获取单个课程
func GetCourseByID(c *fiber.Ctx) error {
	course, ok := findCourseByParam(c)
	if !ok {
		return nil
	}
	return c.JSON(course)
}

// PreviewCourseUpdate 预览课程定价修改对已有快照的影响
// 返回每条受影响快照的新旧值对照，前端展示后由用户决定是否确认提交
// 返回空列表表示没有任何快照受影响，提交不需要二次确认
func PreviewCourseUpdate(c *fiber.Ctx) error {
	course, ok := findCourseByParam(c)
	if !ok {
		return nil
	}

	req, ok := parseCourseUpdate(c)
	if !ok {
		return nil
	}

	// 预览只针对定价变更，改名不影响任何派生金额
	if req.Name != nil && *req.Name != course.Name {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "课程改名不能和定价修改一起预览，请分两次操作",
		})
	}

	affected, err := getEngine().PreviewCourseChange(course.Name, req.CourseChange)
	if err != nil {
		return respondEngineError(c, err)
	}

	// 保证返回数组而不是null，方便前端处理
	if affected == nil {
		affected = []services.SnapshotDiff{}
	}

	return c.JSON(fiber.Map{
		"affected_count": len(affected),
		"affected":       affected,
	})
}

// UpdateCourse 修改课程
// 定价修改会触发级联重算：该课程名下所有快照在一个事务内完成替换
// 前端应当先调用预览接口展示差异，用户确认后再调用本接口提交
// 改名和定价修改不允许同时进行（先级联后改名的两阶段约定）
func UpdateCourse(c *fiber.Ctx) error {
	course, ok := findCourseByParam(c)
	if !ok {
		return nil
	}

	req, ok := parseCourseUpdate(c)
	if !ok {
		return nil
	}

	renaming := req.Name != nil && *req.Name != course.Name

	if renaming && !req.CourseChange.Empty() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "课程改名不能和定价修改一起提交，请先完成定价修改再改名",
		})
	}

	// 纯改名：不触发级联，历史快照保留旧名称标签
	if renaming {
		var existing models.Course
		result := database.GetDB().Where("name = ?", *req.Name).First(&existing)
		if result.Error == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "课程名称已存在",
			})
		} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			log.Printf("查询课程失败: %v", result.Error)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "修改课程失败，请稍后重试",
			})
		}

		if err := database.GetDB().Model(course).Update("name", *req.Name).Error; err != nil {
			log.Printf("课程改名失败: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "修改课程失败，请稍后重试",
			})
		}

		course.Name = *req.Name
		return c.JSON(fiber.Map{
			"message": "课程已改名，历史快照仍保留旧名称",
			"course":  course,
		})
	}

	if req.CourseChange.Empty() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "没有需要修改的字段",
		})
	}

	updated, err := getEngine().CommitCourseChange(course.Name, req.CourseChange)
	if err != nil {
		return respondEngineError(c, err)
	}

	if updated == nil {
		updated = []models.CalculationSnapshot{}
	}

	return c.JSON(fiber.Map{
		"message":       "课程已修改",
		"updated_count": len(updated),
		"updated":       updated,
	})
}

// DeleteCourse 删除课程
// 快照是计算时刻的独立副本，课程删除后依然保留，只是无法再发起重算
func DeleteCourse(c *fiber.Ctx) error {
	course, ok := findCourseByParam(c)
	if !ok {
		return nil
	}

	var snapshotCount int64
	if err := database.GetDB().Model(&models.CalculationSnapshot{}).
		Where("course_name = ?", course.Name).Count(&snapshotCount).Error; err != nil {
		log.Printf("查询快照数量失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "删除课程失败，请稍后重试",
		})
	}

	if err := database.GetDB().Delete(course).Error; err != nil {
		log.Printf("删除课程失败: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "删除课程失败，请稍后重试",
		})
	}

	return c.JSON(fiber.Map{
		"message":             "删除成功",
		"remaining_snapshots": snapshotCount,
	})
}

// findCourseByParam 按路径参数查询课程
// 查询失败时直接写好响应，返回ok=false，调用方直接返回nil即可
func findCourseByParam(c *fiber.Ctx) (*models.Course, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的课程ID",
		})
		return nil, false
	}

	var course models.Course
	if err := database.GetDB().First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "课程不存在",
			})
			return nil, false
		}
		log.Printf("查询课程失败: %v", err)
		_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "查询课程失败",
		})
		return nil, false
	}

	return &course, true
}

// parseCourseUpdate 解析并校验课程修改请求
// 解析失败时已写好响应，返回ok=false
func parseCourseUpdate(c *fiber.Ctx) (*updateCourseRequest, bool) {
	var req updateCourseRequest
	if err := c.BodyParser(&req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "参数解析失败: " + err.Error(),
		})
		return nil, false
	}

	if err := validate.Struct(&req); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "参数校验失败: " + err.Error(),
		})
		return nil, false
	}

	return &req, true
}

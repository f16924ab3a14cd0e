package services

import (
	"fmt"

	"camp_finance/models"
)

// Engine 分成计算与级联重算引擎
// 所有计算入口都在这里，HTTP层只做参数解析和结果封装
// 两类变更都遵循 预览 → 差异 → 确认 → 提交 的协议：
// 预览是纯计算，不产生任何写入；确认后的提交在一个事务内完成
type Engine struct {
	store Stores
}

// NewEngine 创建引擎实例
func NewEngine(store Stores) *Engine {
	return &Engine{store: store}
}

// CourseChange 课程定价变更
// 指针字段为nil表示该字段不变，只有计算器读取的字段才会触发级联
type CourseChange struct {
	RetailPrice   *float64 `json:"retail_price"`    // 单个学员零售价
	MaterialCost  *float64 `json:"material_cost"`   // 单个学员物料成本
	HasLiveCourse *bool    `json:"has_live_course"` // 是否带直播课
	InstructorFee *float64 `json:"instructor_fee"`  // 单个学员课时费
	SalesRate     *float64 `json:"sales_rate"`      // 销售提成比例，百分数
}

// Empty 判断变更是否为空
func (ch *CourseChange) Empty() bool {
	return ch.RetailPrice == nil && ch.MaterialCost == nil &&
		ch.HasLiveCourse == nil && ch.InstructorFee == nil && ch.SalesRate == nil
}

// Apply 把变更套用到课程副本上，返回修改后的课程，不动原值
func (ch *CourseChange) Apply(course models.Course) models.Course {
	if ch.RetailPrice != nil {
		course.RetailPrice = *ch.RetailPrice
	}
	if ch.MaterialCost != nil {
		course.MaterialCost = *ch.MaterialCost
	}
	if ch.HasLiveCourse != nil {
		course.HasLiveCourse = *ch.HasLiveCourse
	}
	if ch.InstructorFee != nil {
		course.InstructorFee = *ch.InstructorFee
	}
	if ch.SalesRate != nil {
		course.SalesRate = *ch.SalesRate
	}
	return course
}

// Calculate 执行一次新的分成计算并保存快照
// 流程：按名称取课程 → 取该品类全部规则 → 瀑布计算 → 保存
func (e *Engine) Calculate(courseName string, studentCount int, platformFeePerStudent float64) (*models.CalculationSnapshot, error) {
	course, err := e.store.GetCourseByName(courseName)
	if err != nil {
		return nil, err
	}

	rules, err := e.store.ListRules(course.RuleCategory())
	if err != nil {
		return nil, fmt.Errorf("查询分成规则失败: %w", err)
	}

	snapshot, err := ComputeDistribution(*course, studentCount, platformFeePerStudent, rules)
	if err != nil {
		return nil, err
	}

	if err := e.store.InsertSnapshot(&snapshot); err != nil {
		return nil, fmt.Errorf("保存计算快照失败: %w", err)
	}

	return &snapshot, nil
}

// courseRecompute 课程级联的中间结果
type courseRecompute struct {
	course    models.Course                // 套用变更后的课程
	diffs     []SnapshotDiff               // 每条受影响快照的差异
	snapshots []models.CalculationSnapshot // 派生字段有变化、待提交的快照
}

// recomputeCourseChange 课程变更级联的公共部分
// 预览和提交共用：重算该课程名下的全部快照并逐条求差
// 规则表在这里一次性取出，整次级联内所有快照看到同一份规则
// 任何一条快照规则匹配失败，整次级联失败，不产生部分结果
func (e *Engine) recomputeCourseChange(courseName string, change CourseChange) (*courseRecompute, error) {
	course, err := e.store.GetCourseByName(courseName)
	if err != nil {
		return nil, err
	}

	newCourse := change.Apply(*course)

	rules, err := e.store.ListRules(newCourse.RuleCategory())
	if err != nil {
		return nil, fmt.Errorf("查询分成规则失败: %w", err)
	}

	snapshots, err := e.store.ListSnapshotsByCourse(courseName)
	if err != nil {
		return nil, fmt.Errorf("查询计算快照失败: %w", err)
	}

	result := &courseRecompute{course: newCourse}
	for i := range snapshots {
		old := &snapshots[i]

		// 人数和平台费都是快照自身的状态，课程变更不触碰它们
		recomputed, err := ComputeDistribution(newCourse, old.StudentCount, old.PlatformFeePerStudent, rules)
		if err != nil {
			return nil, &CascadeAbortError{
				SnapshotID:   old.ID,
				CourseName:   old.CourseName,
				StudentCount: old.StudentCount,
				Err:          err,
			}
		}

		// 同一条逻辑快照：沿用ID、创建时间和用户自填字段
		recomputed.ID = old.ID
		recomputed.CreatedAt = old.CreatedAt
		recomputed.CopyUserFields(old)

		changes := DiffDerivedFields(old, &recomputed)
		if len(changes) == 0 {
			continue
		}

		result.diffs = append(result.diffs, SnapshotDiff{
			SnapshotID:      old.ID,
			CourseName:      old.CourseName,
			StudentCount:    old.StudentCount,
			NewStudentCount: old.StudentCount,
			Changes:         changes,
		})
		result.snapshots = append(result.snapshots, recomputed)
	}

	return result, nil
}

// PreviewCourseChange 预览课程变更对已有快照的影响
// 纯计算，不写库；返回空列表表示没有任何快照受影响，提交后也不会改动快照
func (e *Engine) PreviewCourseChange(courseName string, change CourseChange) ([]SnapshotDiff, error) {
	result, err := e.recomputeCourseChange(courseName, change)
	if err != nil {
		return nil, err
	}
	return result.diffs, nil
}

// CommitCourseChange 确认课程变更并提交级联重算
// 课程修改和全部受影响快照的替换在一个事务内完成，要么全部生效要么全部不生效
// 差异为空时只保存课程本身，不触碰任何快照
func (e *Engine) CommitCourseChange(courseName string, change CourseChange) ([]models.CalculationSnapshot, error) {
	result, err := e.recomputeCourseChange(courseName, change)
	if err != nil {
		return nil, err
	}

	err = e.store.Transaction(func(tx Stores) error {
		if err := tx.UpdateCourse(&result.course); err != nil {
			return fmt.Errorf("保存课程修改失败: %w", err)
		}
		for i := range result.snapshots {
			if err := tx.UpdateSnapshot(&result.snapshots[i]); err != nil {
				return fmt.Errorf("保存快照(ID:%d)失败: %w", result.snapshots[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result.snapshots, nil
}

// recomputeStudentCount 人数修改的公共部分
// 用快照当前课程状态（按名称解析）和新人数重算，平台费保持快照原值
func (e *Engine) recomputeStudentCount(snapshotID uint, newCount int) (*models.CalculationSnapshot, *models.CalculationSnapshot, error) {
	old, err := e.store.GetSnapshot(snapshotID)
	if err != nil {
		return nil, nil, err
	}

	course, err := e.store.GetCourseByName(old.CourseName)
	if err != nil {
		return nil, nil, err
	}

	rules, err := e.store.ListRules(course.RuleCategory())
	if err != nil {
		return nil, nil, fmt.Errorf("查询分成规则失败: %w", err)
	}

	recomputed, err := ComputeDistribution(*course, newCount, old.PlatformFeePerStudent, rules)
	if err != nil {
		return nil, nil, &CascadeAbortError{
			SnapshotID:   old.ID,
			CourseName:   old.CourseName,
			StudentCount: newCount,
			Err:          err,
		}
	}

	recomputed.CopyUserFields(old)
	return old, &recomputed, nil
}

// PreviewStudentCountChange 预览修改快照学员人数的影响
// 只涉及这一条快照，纯计算，不写库
func (e *Engine) PreviewStudentCountChange(snapshotID uint, newCount int) (*SnapshotDiff, error) {
	old, recomputed, err := e.recomputeStudentCount(snapshotID, newCount)
	if err != nil {
		return nil, err
	}

	return &SnapshotDiff{
		SnapshotID:      old.ID,
		CourseName:      old.CourseName,
		StudentCount:    old.StudentCount,
		NewStudentCount: newCount,
		Changes:         DiffDerivedFields(old, recomputed),
	}, nil
}

// CommitStudentCountChange 确认人数修改并替换快照
// 替换实现为同一事务内的删旧插新，用户自填字段原样带到新快照
// 替换后快照ID会变化，调用方不得依赖旧ID
func (e *Engine) CommitStudentCountChange(snapshotID uint, newCount int) (*models.CalculationSnapshot, error) {
	old, recomputed, err := e.recomputeStudentCount(snapshotID, newCount)
	if err != nil {
		return nil, err
	}

	err = e.store.Transaction(func(tx Stores) error {
		if err := tx.DeleteSnapshot(old.ID); err != nil {
			return fmt.Errorf("删除旧快照失败: %w", err)
		}
		if err := tx.InsertSnapshot(recomputed); err != nil {
			return fmt.Errorf("保存新快照失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return recomputed, nil
}

// UpdatePlatformFee 修改单条快照的平台费并立即保存
// 平台费只影响这一条快照，不会波及其它快照，
// 因此这是唯一不走预览确认流程的变更路径
func (e *Engine) UpdatePlatformFee(snapshotID uint, newFeePerStudent float64) (*models.CalculationSnapshot, error) {
	snapshot, err := e.store.GetSnapshot(snapshotID)
	if err != nil {
		return nil, err
	}

	rules, err := e.store.ListRules(snapshot.RuleCategory())
	if err != nil {
		return nil, fmt.Errorf("查询分成规则失败: %w", err)
	}

	recomputed, err := RecomputeWithPlatformFee(*snapshot, newFeePerStudent, rules)
	if err != nil {
		return nil, &CascadeAbortError{
			SnapshotID:   snapshot.ID,
			CourseName:   snapshot.CourseName,
			StudentCount: snapshot.StudentCount,
			Err:          err,
		}
	}

	if err := e.store.UpdateSnapshot(&recomputed); err != nil {
		return nil, fmt.Errorf("保存快照失败: %w", err)
	}

	return &recomputed, nil
}

package services

import "camp_finance/models"

// RuleStore 分成规则存储接口
type RuleStore interface {
	// ListRules 返回指定品类的全部规则，按MinStudents升序排列
	ListRules(category string) ([]models.CommissionRule, error)
}

// CourseStore 课程存储接口
type CourseStore interface {
	// GetCourseByName 按名称查询课程，不存在时返回ErrCourseNotFound
	GetCourseByName(name string) (*models.Course, error)

	// UpdateCourse 保存课程修改
	UpdateCourse(course *models.Course) error
}

// SnapshotStore 计算快照存储接口
type SnapshotStore interface {
	// GetSnapshot 按ID查询快照，不存在时返回ErrSnapshotNotFound
	GetSnapshot(id uint) (*models.CalculationSnapshot, error)

	// ListSnapshotsByCourse 返回课程名称对应的全部快照
	ListSnapshotsByCourse(courseName string) ([]models.CalculationSnapshot, error)

	// InsertSnapshot 新建快照，写入后回填ID
	InsertSnapshot(snapshot *models.CalculationSnapshot) error

	// UpdateSnapshot 按ID整行覆盖快照
	UpdateSnapshot(snapshot *models.CalculationSnapshot) error

	// DeleteSnapshot 按ID删除快照
	DeleteSnapshot(id uint) error
}

// Stores 聚合引擎依赖的全部存储能力
// 一次确认后的级联写入必须是一个逻辑整体，因此存储要提供事务：
// fn返回错误时，fn内通过事务作用域存储做出的全部写入都要回滚
// 无法提供多行事务的实现必须在部分写入后返回PartialCascadeError
type Stores interface {
	RuleStore
	CourseStore
	SnapshotStore

	// Transaction 在一个事务作用域内执行fn
	Transaction(fn func(tx Stores) error) error
}

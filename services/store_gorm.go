package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"camp_finance/models"
)

// GormStores 基于GORM的存储实现
// 引擎的事务要求由MySQL事务满足：Transaction内的写入要么全部提交要么全部回滚，
// 因此该实现永远不会产生PartialCascadeError
type GormStores struct {
	db *gorm.DB
}

// NewGormStores 创建GORM存储实例
func NewGormStores(db *gorm.DB) *GormStores {
	return &GormStores{db: db}
}

// ListRules 返回指定品类的全部规则，按区间下限升序
func (s *GormStores) ListRules(category string) ([]models.CommissionRule, error) {
	var rules []models.CommissionRule
	if err := s.db.Where("category = ?", category).Order("min_students ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// GetCourseByName 按名称查询课程
func (s *GormStores) GetCourseByName(name string) (*models.Course, error) {
	var course models.Course
	if err := s.db.Where("name = ?", name).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("课程%s: %w", name, ErrCourseNotFound)
		}
		return nil, err
	}
	return &course, nil
}

// UpdateCourse 整行保存课程
func (s *GormStores) UpdateCourse(course *models.Course) error {
	return s.db.Save(course).Error
}

// GetSnapshot 按ID查询快照
func (s *GormStores) GetSnapshot(id uint) (*models.CalculationSnapshot, error) {
	var snapshot models.CalculationSnapshot
	if err := s.db.First(&snapshot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("快照(ID:%d): %w", id, ErrSnapshotNotFound)
		}
		return nil, err
	}
	return &snapshot, nil
}

// ListSnapshotsByCourse 按课程名称查询全部快照
func (s *GormStores) ListSnapshotsByCourse(courseName string) ([]models.CalculationSnapshot, error) {
	var snapshots []models.CalculationSnapshot
	if err := s.db.Where("course_name = ?", courseName).Order("id ASC").Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

// InsertSnapshot 新建快照
func (s *GormStores) InsertSnapshot(snapshot *models.CalculationSnapshot) error {
	return s.db.Create(snapshot).Error
}

// UpdateSnapshot 整行覆盖快照
func (s *GormStores) UpdateSnapshot(snapshot *models.CalculationSnapshot) error {
	return s.db.Save(snapshot).Error
}

// DeleteSnapshot 按ID删除快照
func (s *GormStores) DeleteSnapshot(id uint) error {
	return s.db.Delete(&models.CalculationSnapshot{}, id).Error
}

// Transaction 在MySQL事务内执行fn
func (s *GormStores) Transaction(fn func(tx Stores) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormStores{db: tx})
	})
}

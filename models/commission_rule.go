// Package models 定义了应用程序的数据模型
// 包含所有与数据库表对应的结构体定义和相关方法
package models

import (
	"fmt"
	"time"
)

// 课程品类常量
// 分成规则按品类分别配置，带直播课和不带直播课使用不同的分成档位
const (
	CategoryLive     = "live"     // 带直播课
	CategoryRecorded = "recorded" // 不带直播课
)

// UnboundedMax 表示档位没有人数上限
// MaxStudents 为该值时，规则覆盖 MinStudents 及以上的所有人数
const UnboundedMax = 0

// CommissionRule 分成规则模型
// 每条规则定义一个品类在某个学员人数区间内三位合伙人的分成比例
// 同一品类内的区间要求互不重叠，按 MinStudents 升序排列
type CommissionRule struct {
	ID          uint      `json:"id" gorm:"primaryKey"`                            // 主键ID
	Category    string    `json:"category" gorm:"size:20;index:idx_rule_category"` // 品类：live带直播课, recorded不带直播课
	MinStudents int       `json:"min_students" gorm:"not null"`                    // 区间下限（含），最小为1
	MaxStudents int       `json:"max_students" gorm:"default:0"`                   // 区间上限（含），0表示无上限
	CocoRate    float64   `json:"coco_rate"`                                       // Coco分成比例，百分数，例如40表示40%
	ZoeyRate    float64   `json:"zoey_rate"`                                       // Zoey分成比例，百分数
	EchoRate    float64   `json:"echo_rate"`                                       // Echo分成比例，百分数
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`                // 创建时间
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`                // 更新时间
}

// TableName 返回表名
func (CommissionRule) TableName() string {
	return "commission_rules"
}

// Unbounded 判断规则是否没有人数上限
func (r *CommissionRule) Unbounded() bool {
	return r.MaxStudents == UnboundedMax
}

// Contains 判断学员人数是否落在规则的区间内
// 区间为闭区间 [MinStudents, MaxStudents]，无上限时只检查下限
func (r *CommissionRule) Contains(studentCount int) bool {
	if studentCount < r.MinStudents {
		return false
	}
	return r.Unbounded() || studentCount <= r.MaxStudents
}

// Validate 验证规则配置的有效性
// 在规则创建和修改时调用，计算阶段不再做区间合法性检查
// 返回：
//   - error: 如果区间配置非法，返回错误信息；验证通过返回nil
func (r *CommissionRule) Validate() error {
	if r.Category != CategoryLive && r.Category != CategoryRecorded {
		return fmt.Errorf("未知的课程品类: %s", r.Category)
	}

	if r.MinStudents < 1 {
		return fmt.Errorf("区间下限必须大于等于1，当前为%d", r.MinStudents)
	}

	// 上限为0表示无上限，否则必须不小于下限
	if !r.Unbounded() && r.MaxStudents < r.MinStudents {
		return fmt.Errorf("区间上限%d小于下限%d", r.MaxStudents, r.MinStudents)
	}

	return nil
}

// Overlaps 判断两条规则的人数区间是否重叠
// 只在同一品类内比较才有意义，调用方负责先按品类过滤
func (r *CommissionRule) Overlaps(other *CommissionRule) bool {
	// r 整体在 other 左侧
	if !r.Unbounded() && r.MaxStudents < other.MinStudents {
		return false
	}
	// r 整体在 other 右侧
	if !other.Unbounded() && other.MaxStudents < r.MinStudents {
		return false
	}
	return true
}

package models

import "time"

// Course 课程模型
// 存储课程的定价信息，是分成计算的输入来源
// 课程名称是稳定标识：计算快照通过名称关联课程，而不是外键
type Course struct {
	ID            uint      `json:"id" gorm:"primaryKey"`             // 主键ID
	Name          string    `json:"name" gorm:"size:100;uniqueIndex"` // 课程名称，唯一，快照通过名称关联
	RetailPrice   float64   `json:"retail_price"`                     // 单个学员零售价
	MaterialCost  float64   `json:"material_cost"`                    // 单个学员物料成本
	HasLiveCourse bool      `json:"has_live_course"`                  // 是否带直播课，决定使用哪个品类的分成规则
	InstructorFee float64   `json:"instructor_fee"`                   // 单个学员授课老师课时费
	SalesRate     float64   `json:"sales_rate"`                       // 销售提成比例，百分数，例如40表示40%
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"` // 创建时间
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"` // 更新时间
}

// TableName 返回表名
func (Course) TableName() string {
	return "courses"
}

// RuleCategory 返回课程适用的分成规则品类
func (c *Course) RuleCategory() string {
	if c.HasLiveCourse {
		return CategoryLive
	}
	return CategoryRecorded
}

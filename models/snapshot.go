package models

import "time"

// CalculationSnapshot 分成计算快照模型
// 记录一次完整分成计算的输入副本和全部派生金额
// 快照一经保存不随课程自动变化，课程定价调整后需要经过级联确认才会重算
type CalculationSnapshot struct {
	ID uint `json:"id" gorm:"primaryKey"` // 主键ID

	// 计算输入的副本，保存计算时刻的课程状态
	CourseName    string  `json:"course_name" gorm:"size:100;index"` // 课程名称，计算时复制，不是外键
	StudentCount  int     `json:"student_count"`                     // 学员人数
	HasLiveCourse bool    `json:"has_live_course"`                   // 计算时课程是否带直播课
	RetailPrice   float64 `json:"retail_price"`                      // 计算时的单个学员零售价
	SalesRate     float64 `json:"sales_rate"`                        // 计算时的销售提成比例，百分数

	// 平台费是快照级输入，由用户按快照单独设置，不从课程派生
	PlatformFeePerStudent float64 `json:"platform_fee_per_student"` // 单个学员平台抽成

	// 派生金额，全部由计算器产出
	TotalRevenue         float64 `json:"total_revenue"`          // 总收入
	TotalMaterialCost    float64 `json:"total_material_cost"`    // 总物料成本
	TotalSalesCommission float64 `json:"total_sales_commission"` // 总销售提成
	TotalPlatformFee     float64 `json:"total_platform_fee"`     // 总平台抽成
	TotalInstructorFee   float64 `json:"total_instructor_fee"`   // 总授课老师课时费
	DistributionPool     float64 `json:"distribution_pool"`      // 可分配利润，可能为负（亏损）
	CocoAmount           float64 `json:"coco_amount"`            // Coco分成金额
	ZoeyAmount           float64 `json:"zoey_amount"`            // Zoey分成金额
	EchoAmount           float64 `json:"echo_amount"`            // Echo分成金额
	CocoRate             float64 `json:"coco_rate"`              // 实际使用的Coco分成比例，百分数
	ZoeyRate             float64 `json:"zoey_rate"`              // 实际使用的Zoey分成比例，百分数
	EchoRate             float64 `json:"echo_rate"`              // 实际使用的Echo分成比例，百分数

	// 用户自填字段，与计算无关，重算时原样保留
	StartDate   *time.Time `json:"start_date"`            // 开营日期
	CampDays    int        `json:"camp_days"`             // 营期天数
	HolidayDays int        `json:"holiday_days"`          // 节假日天数
	Note        string     `json:"note" gorm:"type:text"` // 备注

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"` // 创建时间
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"` // 更新时间
}

// TableName 返回表名
func (CalculationSnapshot) TableName() string {
	return "calculation_snapshots"
}

// RuleCategory 返回快照适用的分成规则品类
func (s *CalculationSnapshot) RuleCategory() string {
	if s.HasLiveCourse {
		return CategoryLive
	}
	return CategoryRecorded
}

// CopyUserFields 从旧快照复制用户自填字段
// 在人数修改触发的替换式重算中调用，保证这些字段不被重算覆盖
func (s *CalculationSnapshot) CopyUserFields(old *CalculationSnapshot) {
	s.StartDate = old.StartDate
	s.CampDays = old.CampDays
	s.HolidayDays = old.HolidayDays
	s.Note = old.Note
}

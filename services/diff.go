package services

import "camp_finance/models"

// FieldChange 单个派生字段的新旧值对
type FieldChange struct {
	Field string  `json:"field"` // 字段名，与快照JSON字段一致
	Old   float64 `json:"old"`   // 当前存储的值
	New   float64 `json:"new"`   // 重算后的值
}

// SnapshotDiff 一条快照的重算差异
// 只比较派生字段，用户自填字段（开营日期、营期天数、节假日天数、备注）
// 与计算无关，不参与比较
type SnapshotDiff struct {
	SnapshotID      uint          `json:"snapshot_id"`       // 快照ID
	CourseName      string        `json:"course_name"`       // 课程名称
	StudentCount    int           `json:"student_count"`     // 当前学员人数
	NewStudentCount int           `json:"new_student_count"` // 重算使用的学员人数，课程级联中与当前人数相同
	Changes         []FieldChange `json:"changes"`           // 发生变化的派生字段
}

// HasChanges 判断是否存在需要确认的差异
func (d *SnapshotDiff) HasChanges() bool {
	return len(d.Changes) > 0 || d.StudentCount != d.NewStudentCount
}

// derivedField 派生字段的取值器
// 字段集合是封闭的，前端需要逐项标注展示，所以显式列举而不用反射
type derivedField struct {
	name string
	get  func(*models.CalculationSnapshot) float64
}

var derivedFields = []derivedField{
	{"total_revenue", func(s *models.CalculationSnapshot) float64 { return s.TotalRevenue }},
	{"total_material_cost", func(s *models.CalculationSnapshot) float64 { return s.TotalMaterialCost }},
	{"total_sales_commission", func(s *models.CalculationSnapshot) float64 { return s.TotalSalesCommission }},
	{"total_platform_fee", func(s *models.CalculationSnapshot) float64 { return s.TotalPlatformFee }},
	{"total_instructor_fee", func(s *models.CalculationSnapshot) float64 { return s.TotalInstructorFee }},
	{"distribution_pool", func(s *models.CalculationSnapshot) float64 { return s.DistributionPool }},
	{"coco_amount", func(s *models.CalculationSnapshot) float64 { return s.CocoAmount }},
	{"zoey_amount", func(s *models.CalculationSnapshot) float64 { return s.ZoeyAmount }},
	{"echo_amount", func(s *models.CalculationSnapshot) float64 { return s.EchoAmount }},
	{"coco_rate", func(s *models.CalculationSnapshot) float64 { return s.CocoRate }},
	{"zoey_rate", func(s *models.CalculationSnapshot) float64 { return s.ZoeyRate }},
	{"echo_rate", func(s *models.CalculationSnapshot) float64 { return s.EchoRate }},
}

// DiffDerivedFields 逐项比较两份快照的派生字段
// 计算是确定性的，相同输入产出完全相同的浮点值，
// 因此这里做精确比较：差异为空当且仅当输入没有实质变化
func DiffDerivedFields(old, new *models.CalculationSnapshot) []FieldChange {
	var changes []FieldChange
	for _, f := range derivedFields {
		oldVal := f.get(old)
		newVal := f.get(new)
		if oldVal != newVal {
			changes = append(changes, FieldChange{Field: f.name, Old: oldVal, New: newVal})
		}
	}
	return changes
}

package services

import (
	"camp_finance/models"
)

// ComputeDistribution 执行完整的收入瀑布式分成计算
// 纯函数，无副作用，相同输入必然产出完全相同的派生金额
//
// 计算步骤（比例均为百分数，先除以100再参与乘法）：
//  1. 总收入 = 零售价 × 人数
//  2. 总物料成本 = 单人物料成本 × 人数
//  3. 总平台抽成 = 单人平台费 × 人数
//  4. 平台抽成后收入 = 总收入 - 总平台抽成
//  5. 总销售提成 = 平台抽成后收入 × 销售提成比例
//  6. 总课时费 = 单人课时费 × 人数
//  7. 可分配利润 = 平台抽成后收入 × (1 - 销售提成比例) - 总物料成本 - 总课时费
//  8. 按课程品类和人数匹配分成规则，匹配失败则整次计算失败
//  9. 每人分成金额 = 可分配利润 × 各自比例
//
// 可分配利润可能为负（成本高于收入），这是合法输出，表示亏损，不是错误
// 计算器内部不做任何舍入，展示层的舍入是前端的事
func ComputeDistribution(course models.Course, studentCount int, platformFeePerStudent float64, rules []models.CommissionRule) (models.CalculationSnapshot, error) {
	count := float64(studentCount)

	totalRevenue := course.RetailPrice * count
	totalMaterialCost := course.MaterialCost * count
	totalPlatformFee := platformFeePerStudent * count
	revenueAfterPlatform := totalRevenue - totalPlatformFee

	salesRate := course.SalesRate / 100
	totalSalesCommission := revenueAfterPlatform * salesRate
	totalInstructorFee := course.InstructorFee * count

	distributionPool := revenueAfterPlatform*(1-salesRate) - totalMaterialCost - totalInstructorFee

	// 规则匹配失败时整次计算失败，不产出快照
	rule, err := ResolveRule(rules, course.RuleCategory(), studentCount)
	if err != nil {
		return models.CalculationSnapshot{}, err
	}

	// 比例以计算时的值复制进快照，之后规则再改动不影响已有快照
	return models.CalculationSnapshot{
		CourseName:            course.Name,
		StudentCount:          studentCount,
		HasLiveCourse:         course.HasLiveCourse,
		RetailPrice:           course.RetailPrice,
		SalesRate:             course.SalesRate,
		PlatformFeePerStudent: platformFeePerStudent,
		TotalRevenue:          totalRevenue,
		TotalMaterialCost:     totalMaterialCost,
		TotalSalesCommission:  totalSalesCommission,
		TotalPlatformFee:      totalPlatformFee,
		TotalInstructorFee:    totalInstructorFee,
		DistributionPool:      distributionPool,
		CocoAmount:            distributionPool * rule.CocoRate / 100,
		ZoeyAmount:            distributionPool * rule.ZoeyRate / 100,
		EchoAmount:            distributionPool * rule.EchoRate / 100,
		CocoRate:              rule.CocoRate,
		ZoeyRate:              rule.ZoeyRate,
		EchoRate:              rule.EchoRate,
	}, nil
}

// RecomputeWithPlatformFee 修改平台费后重算快照的下游金额
// 平台费是快照级输入，改动不会波及其它快照，因此不走预览确认流程
// 总收入、总物料成本、总课时费直接复用快照里已存的值，不回读课程
func RecomputeWithPlatformFee(snapshot models.CalculationSnapshot, newFeePerStudent float64, rules []models.CommissionRule) (models.CalculationSnapshot, error) {
	count := float64(snapshot.StudentCount)

	out := snapshot
	out.PlatformFeePerStudent = newFeePerStudent
	out.TotalPlatformFee = newFeePerStudent * count

	revenueAfterPlatform := snapshot.TotalRevenue - out.TotalPlatformFee
	salesRate := snapshot.SalesRate / 100
	out.TotalSalesCommission = revenueAfterPlatform * salesRate
	out.DistributionPool = revenueAfterPlatform*(1-salesRate) - snapshot.TotalMaterialCost - snapshot.TotalInstructorFee

	rule, err := ResolveRule(rules, snapshot.RuleCategory(), snapshot.StudentCount)
	if err != nil {
		return models.CalculationSnapshot{}, err
	}

	out.CocoAmount = out.DistributionPool * rule.CocoRate / 100
	out.ZoeyAmount = out.DistributionPool * rule.ZoeyRate / 100
	out.EchoAmount = out.DistributionPool * rule.EchoRate / 100
	out.CocoRate = rule.CocoRate
	out.ZoeyRate = rule.ZoeyRate
	out.EchoRate = rule.EchoRate

	return out, nil
}

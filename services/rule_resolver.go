package services

import (
	"fmt"
	"sort"

	"camp_finance/models"
)

// ResolveRule 在规则列表中匹配适用的分成规则
// 纯函数：规则列表由调用方预先取好，一次级联内所有快照共用同一份规则，
// 保证不会出现同一次级联中不同快照看到不同规则版本的情况
//
// 匹配逻辑：先按品类过滤，再按MinStudents升序取第一条覆盖studentCount的规则
// 区间配置本应互不重叠；如果配置出错产生了重叠，按顺序取第一条命中的，
// 结果是确定性的，不视为错误
//
// 参数:
//   - rules: 预先取出的规则列表
//   - category: 课程品类，models.CategoryLive 或 models.CategoryRecorded
//   - studentCount: 学员人数
//
// 返回:
//   - *models.CommissionRule: 匹配到的规则
//   - error: 没有任何规则覆盖该人数时返回ErrRuleNotFound，调用方必须中止计算
func ResolveRule(rules []models.CommissionRule, category string, studentCount int) (*models.CommissionRule, error) {
	// 过滤品类并复制，避免排序改动调用方的切片
	candidates := make([]models.CommissionRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Category == category {
			candidates = append(candidates, rule)
		}
	}

	// 按区间下限升序排列，保证首条命中规则的确定性
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MinStudents < candidates[j].MinStudents
	})

	for i := range candidates {
		if candidates[i].Contains(studentCount) {
			return &candidates[i], nil
		}
	}

	// 区间存在缺口，人数落在所有配置之外
	// 绝不回退到最近的区间，由调用方中止整次计算
	return nil, fmt.Errorf("品类%s下没有覆盖%d名学员的规则: %w", category, studentCount, ErrRuleNotFound)
}

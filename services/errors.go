// Package services 实现分成计算与级联重算引擎
// 该包是整个后台的核心业务逻辑，包括：
// - 分成规则的区间匹配
// - 收入瀑布式分成计算
// - 课程定价变更和人数修改触发的级联重算
// 引擎通过存储接口访问数据，不直接依赖HTTP层
package services

import (
	"errors"
	"fmt"
)

// 引擎的错误类型
// 计算阶段的错误会中止整次计算或整次级联，不允许部分提交
var (
	// ErrRuleNotFound 没有分成规则覆盖请求的学员人数
	// 属于致命错误，绝不回退到最近的规则继续计算
	ErrRuleNotFound = errors.New("没有匹配的分成规则")

	// ErrCourseNotFound 快照引用的课程名称不存在
	ErrCourseNotFound = errors.New("课程不存在")

	// ErrSnapshotNotFound 计算快照不存在
	ErrSnapshotNotFound = errors.New("计算快照不存在")

	// ErrRangeOverlap 规则区间与同品类已有规则重叠
	// 在规则创建和修改时拦截，不在计算时处理
	ErrRangeOverlap = errors.New("人数区间与已有规则重叠")
)

// CascadeAbortError 级联重算中止错误
// 记录导致整次级联失败的快照，方便前端提示是哪条记录出了问题
// 例如某个快照的学员人数已经落在所有配置区间之外
type CascadeAbortError struct {
	SnapshotID   uint   // 出错的快照ID，预览新建计算时为0
	CourseName   string // 快照对应的课程名称
	StudentCount int    // 重算使用的学员人数
	Err          error  // 底层错误
}

// Error 实现error接口
func (e *CascadeAbortError) Error() string {
	return fmt.Sprintf("快照(ID:%d, 课程:%s, 人数:%d)重算失败: %v",
		e.SnapshotID, e.CourseName, e.StudentCount, e.Err)
}

// Unwrap 返回底层错误，支持errors.Is判断
func (e *CascadeAbortError) Unwrap() error {
	return e.Err
}

// PartialCascadeError 级联部分写入错误
// 只有在存储层无法提供多行事务时才可能出现
// 自带的MySQL存储在事务内提交，不会产生该错误，但契约上必须显式区分
// “什么都没改”和“改了一部分”两种失败
type PartialCascadeError struct {
	Applied int   // 已写入的快照数量
	Total   int   // 本次级联应写入的快照总数
	Err     error // 底层错误
}

// Error 实现error接口
func (e *PartialCascadeError) Error() string {
	return fmt.Sprintf("级联未完成: %d/%d 条快照已写入: %v", e.Applied, e.Total, e.Err)
}

// Unwrap 返回底层错误
func (e *PartialCascadeError) Unwrap() error {
	return e.Err
}

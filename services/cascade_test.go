package services

import (
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"camp_finance/models"
)

// fakeStores 内存版存储实现，仅用于测试
// Transaction在fn返回错误时恢复调用前的全部状态，模拟事务回滚
type fakeStores struct {
	rules     []models.CommissionRule
	courses   map[string]models.Course
	snapshots map[uint]models.CalculationSnapshot
	nextID    uint

	courseWrites   int // UpdateCourse调用次数
	snapshotWrites int // 快照插入/更新/删除调用次数

	failUpdateSnapshotAt int // 第N次UpdateSnapshot返回错误，0表示不启用
	updateSnapshotCalls  int
}

func newFakeStores() *fakeStores {
	f := &fakeStores{
		rules:     testRules(),
		courses:   make(map[string]models.Course),
		snapshots: make(map[uint]models.CalculationSnapshot),
		nextID:    1,
	}
	course := testCourse()
	f.courses[course.Name] = course
	return f
}

// addSnapshot 直接计算并写入一条快照，返回其ID
func (f *fakeStores) addSnapshot(t *testing.T, studentCount int, platformFee float64, note string) uint {
	t.Helper()
	course := f.courses["编程营"]
	snapshot, err := ComputeDistribution(course, studentCount, platformFee, f.rules)
	if err != nil {
		t.Fatalf("准备测试快照失败: %v", err)
	}
	startDate := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	snapshot.StartDate = &startDate
	snapshot.CampDays = 14
	snapshot.HolidayDays = 2
	snapshot.Note = note
	if err := f.InsertSnapshot(&snapshot); err != nil {
		t.Fatalf("写入测试快照失败: %v", err)
	}
	f.snapshotWrites = 0 // 准备数据的写入不计数
	return snapshot.ID
}

func (f *fakeStores) ListRules(category string) ([]models.CommissionRule, error) {
	var out []models.CommissionRule
	for _, rule := range f.rules {
		if rule.Category == category {
			out = append(out, rule)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinStudents < out[j].MinStudents })
	return out, nil
}

func (f *fakeStores) GetCourseByName(name string) (*models.Course, error) {
	course, ok := f.courses[name]
	if !ok {
		return nil, fmt.Errorf("课程%s: %w", name, ErrCourseNotFound)
	}
	cp := course
	return &cp, nil
}

func (f *fakeStores) UpdateCourse(course *models.Course) error {
	f.courses[course.Name] = *course
	f.courseWrites++
	return nil
}

func (f *fakeStores) GetSnapshot(id uint) (*models.CalculationSnapshot, error) {
	snapshot, ok := f.snapshots[id]
	if !ok {
		return nil, fmt.Errorf("快照(ID:%d): %w", id, ErrSnapshotNotFound)
	}
	cp := snapshot
	return &cp, nil
}

func (f *fakeStores) ListSnapshotsByCourse(courseName string) ([]models.CalculationSnapshot, error) {
	var out []models.CalculationSnapshot
	for _, snapshot := range f.snapshots {
		if snapshot.CourseName == courseName {
			out = append(out, snapshot)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStores) InsertSnapshot(snapshot *models.CalculationSnapshot) error {
	if snapshot.ID == 0 {
		snapshot.ID = f.nextID
		f.nextID++
	}
	f.snapshots[snapshot.ID] = *snapshot
	f.snapshotWrites++
	return nil
}

func (f *fakeStores) UpdateSnapshot(snapshot *models.CalculationSnapshot) error {
	f.updateSnapshotCalls++
	if f.failUpdateSnapshotAt > 0 && f.updateSnapshotCalls == f.failUpdateSnapshotAt {
		return errors.New("模拟的存储故障")
	}
	f.snapshots[snapshot.ID] = *snapshot
	f.snapshotWrites++
	return nil
}

func (f *fakeStores) DeleteSnapshot(id uint) error {
	delete(f.snapshots, id)
	f.snapshotWrites++
	return nil
}

func (f *fakeStores) Transaction(fn func(tx Stores) error) error {
	// 保存调用前状态，fn出错时整体恢复
	savedCourses := make(map[string]models.Course, len(f.courses))
	for k, v := range f.courses {
		savedCourses[k] = v
	}
	savedSnapshots := make(map[uint]models.CalculationSnapshot, len(f.snapshots))
	for k, v := range f.snapshots {
		savedSnapshots[k] = v
	}
	savedCourseWrites, savedSnapshotWrites := f.courseWrites, f.snapshotWrites

	if err := fn(f); err != nil {
		f.courses = savedCourses
		f.snapshots = savedSnapshots
		f.courseWrites = savedCourseWrites
		f.snapshotWrites = savedSnapshotWrites
		return err
	}
	return nil
}

func floatPtr(v float64) *float64 { return &v }

// TestEngineCalculate 新建计算：课程按名称解析，快照落库并回填ID
func TestEngineCalculate(t *testing.T) {
	store := newFakeStores()
	engine := NewEngine(store)

	snapshot, err := engine.Calculate("编程营", 5, 0)
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}

	if snapshot.ID == 0 {
		t.Errorf("保存后快照应回填ID")
	}
	if !almostEqual(snapshot.DistributionPool, 10150) {
		t.Errorf("可分配利润 = %v, want 10150", snapshot.DistributionPool)
	}

	stored, err := store.GetSnapshot(snapshot.ID)
	if err != nil {
		t.Fatalf("快照未落库: %v", err)
	}
	if stored.CourseName != "编程营" || stored.StudentCount != 5 {
		t.Errorf("落库快照内容不对: %+v", stored)
	}
}

// TestEngineCalculateCourseNotFound 课程不存在时计算失败
func TestEngineCalculateCourseNotFound(t *testing.T) {
	engine := NewEngine(newFakeStores())

	if _, err := engine.Calculate("不存在的课程", 5, 0); !errors.Is(err, ErrCourseNotFound) {
		t.Errorf("应返回ErrCourseNotFound，实际 = %v", err)
	}
}

// TestPreviewCourseChangeEmpty 不改动计算器读取的字段时差异为空
// 预览不产生任何写入
func TestPreviewCourseChangeEmpty(t *testing.T) {
	store := newFakeStores()
	store.addSnapshot(t, 5, 0, "第一期")
	engine := NewEngine(store)

	// 零售价改成与当前相同的值，数值上没有任何变化
	diffs, err := engine.PreviewCourseChange("编程营", CourseChange{RetailPrice: floatPtr(4800)})
	if err != nil {
		t.Fatalf("PreviewCourseChange() error = %v", err)
	}

	if len(diffs) != 0 {
		t.Errorf("无实质变化的预览应返回空差异，实际 = %+v", diffs)
	}
	if store.snapshotWrites != 0 || store.courseWrites != 0 {
		t.Errorf("预览不应产生写入: 快照%d次, 课程%d次", store.snapshotWrites, store.courseWrites)
	}
}

// TestPreviewCourseChange 定价变更生成逐字段新旧值对照
func TestPreviewCourseChange(t *testing.T) {
	store := newFakeStores()
	id1 := store.addSnapshot(t, 5, 0, "第一期")
	store.addSnapshot(t, 10, 100, "第二期")
	engine := NewEngine(store)

	diffs, err := engine.PreviewCourseChange("编程营", CourseChange{RetailPrice: floatPtr(5000)})
	if err != nil {
		t.Fatalf("PreviewCourseChange() error = %v", err)
	}

	if len(diffs) != 2 {
		t.Fatalf("两条快照都受影响，实际差异条数 = %d", len(diffs))
	}

	// 第一条快照：总收入24000 → 25000
	first := diffs[0]
	if first.SnapshotID != id1 || first.StudentCount != 5 || first.NewStudentCount != 5 {
		t.Errorf("差异定位信息不对: %+v", first)
	}
	var foundRevenue bool
	for _, change := range first.Changes {
		if change.Field == "total_revenue" {
			foundRevenue = true
			if !almostEqual(change.Old, 24000) || !almostEqual(change.New, 25000) {
				t.Errorf("总收入差异 = %v → %v, want 24000 → 25000", change.Old, change.New)
			}
		}
		if change.Field == "total_material_cost" {
			t.Errorf("物料成本未变化，不应出现在差异里")
		}
	}
	if !foundRevenue {
		t.Errorf("差异里缺少总收入字段: %+v", first.Changes)
	}

	if store.snapshotWrites != 0 || store.courseWrites != 0 {
		t.Errorf("预览不应产生写入")
	}
}

// TestCommitCourseChange 确认后课程和受影响快照在一个事务内完成替换
// 快照保留ID和用户自填字段
func TestCommitCourseChange(t *testing.T) {
	store := newFakeStores()
	id1 := store.addSnapshot(t, 5, 0, "第一期")
	id2 := store.addSnapshot(t, 10, 100, "第二期")
	engine := NewEngine(store)

	updated, err := engine.CommitCourseChange("编程营", CourseChange{RetailPrice: floatPtr(5000)})
	if err != nil {
		t.Fatalf("CommitCourseChange() error = %v", err)
	}

	if len(updated) != 2 {
		t.Fatalf("应提交两条快照，实际 = %d", len(updated))
	}

	// 课程本身已更新
	course, _ := store.GetCourseByName("编程营")
	if course.RetailPrice != 5000 {
		t.Errorf("课程零售价 = %v, want 5000", course.RetailPrice)
	}

	// 快照按原ID替换，派生值来自新定价，用户自填字段原样保留
	first, err := store.GetSnapshot(id1)
	if err != nil {
		t.Fatalf("快照%d丢失: %v", id1, err)
	}
	if !almostEqual(first.TotalRevenue, 25000) {
		t.Errorf("快照%d总收入 = %v, want 25000", id1, first.TotalRevenue)
	}
	if first.Note != "第一期" || first.CampDays != 14 || first.HolidayDays != 2 || first.StartDate == nil {
		t.Errorf("用户自填字段在级联中丢失: %+v", first)
	}

	second, err := store.GetSnapshot(id2)
	if err != nil {
		t.Fatalf("快照%d丢失: %v", id2, err)
	}
	// 第二条快照的平台费是快照级输入，不参与课程级联
	if second.PlatformFeePerStudent != 100 {
		t.Errorf("快照%d平台费 = %v, 级联不应改动平台费", id2, second.PlatformFeePerStudent)
	}
	if !almostEqual(second.TotalRevenue, 50000) {
		t.Errorf("快照%d总收入 = %v, want 50000", id2, second.TotalRevenue)
	}
}

// TestCommitCourseChangeAbort 任何一条快照规则匹配失败，整次级联失败且零写入
func TestCommitCourseChangeAbort(t *testing.T) {
	store := newFakeStores()
	store.addSnapshot(t, 5, 0, "第一期")
	badID := store.addSnapshot(t, 12, 0, "第二期")

	// 收紧规则表：去掉9人以上档，12人的快照重算时会落空
	var trimmed []models.CommissionRule
	for _, rule := range store.rules {
		if rule.Category == models.CategoryLive && rule.MinStudents == 9 {
			continue
		}
		trimmed = append(trimmed, rule)
	}
	store.rules = trimmed

	engine := NewEngine(store)
	_, err := engine.CommitCourseChange("编程营", CourseChange{RetailPrice: floatPtr(5000)})

	var abort *CascadeAbortError
	if !errors.As(err, &abort) {
		t.Fatalf("应返回CascadeAbortError，实际 = %v", err)
	}
	if abort.SnapshotID != badID || abort.StudentCount != 12 {
		t.Errorf("中止错误应定位到出错快照: %+v", abort)
	}
	if !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("中止错误应能解包出ErrRuleNotFound")
	}

	// 整次级联失败，什么都没写
	if store.snapshotWrites != 0 || store.courseWrites != 0 {
		t.Errorf("级联失败后不应有任何写入: 快照%d次, 课程%d次", store.snapshotWrites, store.courseWrites)
	}
	course, _ := store.GetCourseByName("编程营")
	if course.RetailPrice != 4800 {
		t.Errorf("级联失败后课程不应被修改，零售价 = %v", course.RetailPrice)
	}
}

// TestCommitCourseChangeRollback 事务内存储故障时已写入的部分全部回滚
func TestCommitCourseChangeRollback(t *testing.T) {
	store := newFakeStores()
	id1 := store.addSnapshot(t, 5, 0, "第一期")
	store.addSnapshot(t, 10, 0, "第二期")
	store.failUpdateSnapshotAt = 2 // 第二条快照写入时故障

	engine := NewEngine(store)
	_, err := engine.CommitCourseChange("编程营", CourseChange{RetailPrice: floatPtr(5000)})
	if err == nil {
		t.Fatalf("存储故障应导致提交失败")
	}

	// 课程和第一条快照的写入都已回滚
	course, _ := store.GetCourseByName("编程营")
	if course.RetailPrice != 4800 {
		t.Errorf("回滚后课程零售价 = %v, want 4800", course.RetailPrice)
	}
	first, _ := store.GetSnapshot(id1)
	if !almostEqual(first.TotalRevenue, 24000) {
		t.Errorf("回滚后快照%d总收入 = %v, want 24000", id1, first.TotalRevenue)
	}
}

// TestPreviewStudentCountChange 人数修改预览：单条快照的差异，人数新旧值都在定位信息里
func TestPreviewStudentCountChange(t *testing.T) {
	store := newFakeStores()
	id := store.addSnapshot(t, 5, 0, "第一期")
	engine := NewEngine(store)

	diff, err := engine.PreviewStudentCountChange(id, 6)
	if err != nil {
		t.Fatalf("PreviewStudentCountChange() error = %v", err)
	}

	if diff.SnapshotID != id || diff.StudentCount != 5 || diff.NewStudentCount != 6 {
		t.Errorf("差异定位信息不对: %+v", diff)
	}
	if len(diff.Changes) == 0 {
		t.Errorf("人数变化应产生派生字段差异")
	}
	if store.snapshotWrites != 0 {
		t.Errorf("预览不应产生写入")
	}
}

// TestCommitStudentCountChange 确认人数修改：删旧插新，用户自填字段带到新快照
func TestCommitStudentCountChange(t *testing.T) {
	store := newFakeStores()
	oldID := store.addSnapshot(t, 5, 200, "第一期")
	engine := NewEngine(store)

	snapshot, err := engine.CommitStudentCountChange(oldID, 9)
	if err != nil {
		t.Fatalf("CommitStudentCountChange() error = %v", err)
	}

	// 替换为删旧插新，新快照是新ID
	if snapshot.ID == oldID || snapshot.ID == 0 {
		t.Errorf("替换后应产生新ID，实际 = %d (旧ID %d)", snapshot.ID, oldID)
	}
	if _, err := store.GetSnapshot(oldID); !errors.Is(err, ErrSnapshotNotFound) {
		t.Errorf("旧快照应已删除")
	}

	// 人数更新，平台费保持快照原值
	if snapshot.StudentCount != 9 {
		t.Errorf("学员人数 = %d, want 9", snapshot.StudentCount)
	}
	if snapshot.PlatformFeePerStudent != 200 {
		t.Errorf("平台费 = %v, 人数修改不应改动平台费", snapshot.PlatformFeePerStudent)
	}

	// 9人命中无上限档，比例随之变化
	if snapshot.CocoRate != 35 {
		t.Errorf("9人应使用35/32.5/32.5档，实际coco比例 = %v", snapshot.CocoRate)
	}

	// 用户自填字段原样带到新快照
	if snapshot.Note != "第一期" || snapshot.CampDays != 14 || snapshot.HolidayDays != 2 || snapshot.StartDate == nil {
		t.Errorf("用户自填字段未带到新快照: %+v", snapshot)
	}
}

// TestCommitStudentCountChangeRuleGap 新人数落在规则缺口时整个操作失败，存储不变
func TestCommitStudentCountChangeRuleGap(t *testing.T) {
	store := newFakeStores()
	oldID := store.addSnapshot(t, 5, 0, "第一期")

	// 去掉无上限档，12人落空
	var trimmed []models.CommissionRule
	for _, rule := range store.rules {
		if rule.Category == models.CategoryLive && rule.MinStudents == 9 {
			continue
		}
		trimmed = append(trimmed, rule)
	}
	store.rules = trimmed

	engine := NewEngine(store)
	_, err := engine.CommitStudentCountChange(oldID, 12)

	var abort *CascadeAbortError
	if !errors.As(err, &abort) {
		t.Fatalf("应返回CascadeAbortError，实际 = %v", err)
	}
	if abort.StudentCount != 12 {
		t.Errorf("中止错误应记录重算使用的新人数: %+v", abort)
	}

	// 旧快照原样保留
	old, err := store.GetSnapshot(oldID)
	if err != nil {
		t.Fatalf("失败的修改不应删除旧快照: %v", err)
	}
	if old.StudentCount != 5 {
		t.Errorf("旧快照人数 = %d, want 5", old.StudentCount)
	}
}

// TestUpdatePlatformFee 平台费修改：单条快照直接提交，不走预览确认
func TestUpdatePlatformFee(t *testing.T) {
	store := newFakeStores()
	id := store.addSnapshot(t, 5, 0, "第一期")
	engine := NewEngine(store)

	snapshot, err := engine.UpdatePlatformFee(id, 100)
	if err != nil {
		t.Fatalf("UpdatePlatformFee() error = %v", err)
	}

	// 同一条快照就地更新
	if snapshot.ID != id {
		t.Errorf("平台费修改不应改变快照ID")
	}
	if !almostEqual(snapshot.TotalPlatformFee, 500) {
		t.Errorf("总平台抽成 = %v, want 500", snapshot.TotalPlatformFee)
	}
	// 平台抽成后收入23500，销售提成40%后乘0.6=14100，减物料250和课时费4000
	if !almostEqual(snapshot.DistributionPool, 9850) {
		t.Errorf("可分配利润 = %v, want 9850", snapshot.DistributionPool)
	}
	if snapshot.Note != "第一期" {
		t.Errorf("平台费修改不应改动用户自填字段")
	}

	stored, _ := store.GetSnapshot(id)
	if !almostEqual(stored.DistributionPool, 9850) {
		t.Errorf("修改未落库: %+v", stored)
	}
}

package models

import "testing"

// TestCommissionRuleValidate 规则配置合法性校验
func TestCommissionRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    CommissionRule
		wantErr bool
	}{
		{
			name: "正常区间",
			rule: CommissionRule{Category: CategoryLive, MinStudents: 4, MaxStudents: 8},
		},
		{
			name: "无上限区间",
			rule: CommissionRule{Category: CategoryLive, MinStudents: 9, MaxStudents: UnboundedMax},
		},
		{
			name: "单点区间",
			rule: CommissionRule{Category: CategoryRecorded, MinStudents: 5, MaxStudents: 5},
		},
		{
			name:    "上限小于下限",
			rule:    CommissionRule{Category: CategoryLive, MinStudents: 8, MaxStudents: 4},
			wantErr: true,
		},
		{
			name:    "下限小于1",
			rule:    CommissionRule{Category: CategoryLive, MinStudents: 0, MaxStudents: 8},
			wantErr: true,
		},
		{
			name:    "未知品类",
			rule:    CommissionRule{Category: "vip", MinStudents: 1, MaxStudents: 8},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

// TestCommissionRuleContains 区间包含判断
func TestCommissionRuleContains(t *testing.T) {
	bounded := CommissionRule{MinStudents: 4, MaxStudents: 8}
	unbounded := CommissionRule{MinStudents: 9, MaxStudents: UnboundedMax}

	tests := []struct {
		name  string
		rule  CommissionRule
		count int
		want  bool
	}{
		{"下边界命中", bounded, 4, true},
		{"上边界命中", bounded, 8, true},
		{"区间内", bounded, 6, true},
		{"低于下限", bounded, 3, false},
		{"高于上限", bounded, 9, false},
		{"无上限下边界", unbounded, 9, true},
		{"无上限大人数", unbounded, 1000, true},
		{"无上限低于下限", unbounded, 8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Contains(tt.count); got != tt.want {
				t.Errorf("Contains(%d) = %v, want %v", tt.count, got, tt.want)
			}
		})
	}
}

// TestCommissionRuleOverlaps 区间重叠判断
func TestCommissionRuleOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b CommissionRule
		want bool
	}{
		{
			name: "相邻不重叠",
			a:    CommissionRule{MinStudents: 1, MaxStudents: 3},
			b:    CommissionRule{MinStudents: 4, MaxStudents: 8},
			want: false,
		},
		{
			name: "部分重叠",
			a:    CommissionRule{MinStudents: 1, MaxStudents: 5},
			b:    CommissionRule{MinStudents: 5, MaxStudents: 8},
			want: true,
		},
		{
			name: "完全包含",
			a:    CommissionRule{MinStudents: 1, MaxStudents: 10},
			b:    CommissionRule{MinStudents: 4, MaxStudents: 8},
			want: true,
		},
		{
			name: "无上限与有界重叠",
			a:    CommissionRule{MinStudents: 9, MaxStudents: UnboundedMax},
			b:    CommissionRule{MinStudents: 4, MaxStudents: 12},
			want: true,
		},
		{
			name: "无上限与有界不重叠",
			a:    CommissionRule{MinStudents: 9, MaxStudents: UnboundedMax},
			b:    CommissionRule{MinStudents: 4, MaxStudents: 8},
			want: false,
		},
		{
			name: "两个无上限必然重叠",
			a:    CommissionRule{MinStudents: 9, MaxStudents: UnboundedMax},
			b:    CommissionRule{MinStudents: 20, MaxStudents: UnboundedMax},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(&tt.b); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			// 重叠关系是对称的
			if got := tt.b.Overlaps(&tt.a); got != tt.want {
				t.Errorf("反向Overlaps() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Package model 定义值班排班引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// ConstraintType 排班约束类型
type ConstraintType string

const (
	ConstraintNeverAssign  ConstraintType = "never_assign"  // 禁止分配
	ConstraintAlwaysAssign ConstraintType = "always_assign" // 必须分配
	ConstraintTimeBlock    ConstraintType = "time_block"    // 时段封锁
)

// ScopeType 约束作用域类型
type ScopeType string

const (
	ScopePerson ScopeType = "person"
	ScopeTeam   ScopeType = "team"
	ScopeRole   ScopeType = "role"
)

// SchedulingConstraint 排班约束规则
type SchedulingConstraint struct {
	BaseModel
	OrgID   uuid.UUID      `json:"org_id" db:"org_id"`
	Type    ConstraintType `json:"type" db:"type"`
	Scope   ScopeType      `json:"scope" db:"scope"`
	ScopeID uuid.UUID      `json:"scope_id" db:"scope_id"`

	// 可选时间窗（为空表示始终生效）
	Window *TimeRange `json:"window,omitempty" db:"-"`

	// 可选目标任务（为空表示适用于全部任务）
	TaskID *uuid.UUID `json:"task_id,omitempty" db:"task_id"`

	Reason string `json:"reason,omitempty" db:"reason"`
}

// AppliesTo 检查约束是否作用于某人员
func (c *SchedulingConstraint) AppliesTo(p *Person) bool {
	switch c.Scope {
	case ScopePerson:
		return p.ID == c.ScopeID
	case ScopeTeam:
		return p.InTeam(c.ScopeID)
	case ScopeRole:
		return p.HasRole(c.ScopeID)
	}
	return false
}

// AppliesToTask 检查约束是否适用于某任务
func (c *SchedulingConstraint) AppliesToTask(taskID uuid.UUID) bool {
	return c.TaskID == nil || *c.TaskID == taskID
}

// OverlapsWindow 检查约束时间窗是否与给定范围重叠（无时间窗视为重叠）
func (c *SchedulingConstraint) OverlapsWindow(tr TimeRange) bool {
	if c.Window == nil {
		return true
	}
	return c.Window.Overlaps(tr)
}

// AbsenceStatus 请假审批状态
type AbsenceStatus string

const (
	AbsenceApproved AbsenceStatus = "approved"
	AbsencePending  AbsenceStatus = "pending"
	AbsenceRejected AbsenceStatus = "rejected"
)

// Absence 请假记录（按日期范围）
type Absence struct {
	BaseModel
	OrgID     uuid.UUID     `json:"org_id" db:"org_id"`
	PersonID  uuid.UUID     `json:"person_id" db:"person_id"`
	StartDate string        `json:"start_date" db:"start_date"` // YYYY-MM-DD
	EndDate   string        `json:"end_date" db:"end_date"`     // YYYY-MM-DD
	Status    AbsenceStatus `json:"status" db:"status"`
	Reason    string        `json:"reason,omitempty" db:"reason"`
}

// Blocks 检查请假是否封锁某日期（rejected 不生效，approved/pending 均生效）
func (a *Absence) Blocks(date string) bool {
	if a.Status == AbsenceRejected {
		return false
	}
	return date >= a.StartDate && date <= a.EndDate
}

// HourlyBlockage 单日小时级不可用时段
type HourlyBlockage struct {
	BaseModel
	OrgID     uuid.UUID `json:"org_id" db:"org_id"`
	PersonID  uuid.UUID `json:"person_id" db:"person_id"`
	Date      string    `json:"date" db:"date"`             // YYYY-MM-DD
	StartTime string    `json:"start_time" db:"start_time"` // HH:MM
	EndTime   string    `json:"end_time" db:"end_time"`     // HH:MM
	Reason    string    `json:"reason,omitempty" db:"reason"`
}

// IsFullDay 检查是否为全天封锁（00:00–23:59）
func (b *HourlyBlockage) IsFullDay() bool {
	return b.StartTime == "00:00" && b.EndTime == "23:59"
}

// TeamRotation 团队轮换模式（在营天数/归家天数循环）
type TeamRotation struct {
	BaseModel
	OrgID     uuid.UUID `json:"org_id" db:"org_id"`
	TeamID    uuid.UUID `json:"team_id" db:"team_id"`
	BaseDays  int       `json:"base_days" db:"base_days"`
	HomeDays  int       `json:"home_days" db:"home_days"`
	StartDate string    `json:"start_date" db:"start_date"` // YYYY-MM-DD 循环起点
}

// SelectorKind 属性选择器类型
type SelectorKind string

const (
	SelectorRole   SelectorKind = "role"
	SelectorTeam   SelectorKind = "team"
	SelectorPerson SelectorKind = "person"
	SelectorField  SelectorKind = "field" // 自定义字段
)

// AttributeSelector 人员属性选择器
type AttributeSelector struct {
	Kind  SelectorKind `json:"kind"`
	Field string       `json:"field,omitempty"` // Kind 为 field 时的字段名
}

// InterPersonType 人际约束类型
type InterPersonType string

const (
	// ForbiddenTogether 禁止同班：同一班次不得同时包含匹配 A 侧和 B 侧的人员
	ForbiddenTogether InterPersonType = "forbidden_together"
)

// InterPersonConstraint 人际互斥约束
type InterPersonConstraint struct {
	BaseModel
	OrgID     uuid.UUID         `json:"org_id" db:"org_id"`
	Type      InterPersonType   `json:"type" db:"type"`
	SelectorA AttributeSelector `json:"selector_a" db:"-"`
	ValueA    string            `json:"value_a" db:"value_a"`
	SelectorB AttributeSelector `json:"selector_b" db:"-"`
	ValueB    string            `json:"value_b" db:"value_b"`
	Reason    string            `json:"reason,omitempty" db:"reason"`
}

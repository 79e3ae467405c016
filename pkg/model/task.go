// Package model 定义值班排班引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// AnyRoleID 哨兵角色：角色构成缺失且无法推断时使用，匹配任意人员
var AnyRoleID = uuid.Nil

// TaskTemplate 任务模板（可复用的勤务定义）
type TaskTemplate struct {
	BaseModel
	OrgID       uuid.UUID `json:"org_id" db:"org_id"`
	Name        string    `json:"name" db:"name"`
	Code        string    `json:"code" db:"code"`
	Description string    `json:"description,omitempty" db:"description"`
	Difficulty  float64   `json:"difficulty" db:"difficulty"` // 任务难度 0-10
	Continuous  bool      `json:"continuous" db:"continuous"` // 24/7 连续任务
	Segments    []Segment `json:"segments" db:"-"`
	IsActive    bool      `json:"is_active" db:"is_active"`
}

// Segment 任务分段（一种重复出现的班次形态）
type Segment struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	StartTime       string     `json:"start_time" db:"start_time"`             // HH:MM
	DurationMinutes int        `json:"duration_minutes" db:"duration_minutes"` //
	Frequency       int        `json:"frequency" db:"frequency"`               // 每日实例数
	Roles           []RoleLine `json:"roles" db:"roles"`                       // 角色构成
	MinRestHours    float64    `json:"min_rest_hours" db:"min_rest_hours"`     // 班后最小休息
	Continuous      bool       `json:"continuous" db:"continuous"`             // 24/7 分段
}

// RoleLine 角色构成行（角色 -> 所需人数）
type RoleLine struct {
	RoleID uuid.UUID `json:"role_id"`
	Count  int       `json:"count"`
}

// Shift 班次（任务模板实例化出的具体时段）
type Shift struct {
	BaseModel
	OrgID     uuid.UUID  `json:"org_id" db:"org_id"`
	TaskID    uuid.UUID  `json:"task_id" db:"task_id"`
	SegmentID *uuid.UUID `json:"segment_id,omitempty" db:"segment_id"`
	TeamID    *uuid.UUID `json:"team_id,omitempty" db:"team_id"` // 指定承担团队（可选）

	Start time.Time `json:"start" db:"start_at"`
	End   time.Time `json:"end" db:"end_at"`

	// 求解结果
	AssignedPersonIDs []uuid.UUID `json:"assigned_person_ids" db:"assigned_person_ids"`

	Locked    bool `json:"locked" db:"locked"`       // 已锁定（不参与求解）
	Cancelled bool `json:"cancelled" db:"cancelled"` // 已取消

	// 解析后的需求（由任务模板/分段归一化得到）
	Roles         []RoleLine `json:"roles" db:"-"`
	RequiredCount int        `json:"required_count" db:"required_count"`
	MinRestHours  float64    `json:"min_rest_hours" db:"min_rest_hours"`
}

// TimeRange 返回班次的时间范围
func (s *Shift) TimeRange() TimeRange {
	return TimeRange{Start: s.Start, End: s.End}
}

// DurationHours 返回班次时长（小时）
func (s *Shift) DurationHours() float64 {
	return s.End.Sub(s.Start).Hours()
}

// IsSolvable 检查班次是否参与求解（未锁定且未取消）
func (s *Shift) IsSolvable() bool {
	return !s.Locked && !s.Cancelled
}

// HasAssigned 检查人员是否已分配到该班次
func (s *Shift) HasAssigned(personID uuid.UUID) bool {
	for _, id := range s.AssignedPersonIDs {
		if id == personID {
			return true
		}
	}
	return false
}

// OverlapsDate 检查班次是否与某日期（当地时间自然日）有交集
func (s *Shift) OverlapsDate(date string) bool {
	day, err := time.ParseInLocation("2006-01-02", date, s.Start.Location())
	if err != nil {
		return false
	}
	dayEnd := day.AddDate(0, 0, 1)
	return s.Start.Before(dayEnd) && day.Before(s.End)
}

// Clone 返回班次的深拷贝（求解器在拷贝上工作，保持输入只读）
func (s *Shift) Clone() *Shift {
	c := *s
	c.AssignedPersonIDs = make([]uuid.UUID, len(s.AssignedPersonIDs))
	copy(c.AssignedPersonIDs, s.AssignedPersonIDs)
	c.Roles = make([]RoleLine, len(s.Roles))
	copy(c.Roles, s.Roles)
	return &c
}

// SegmentByID 返回模板中指定 ID 的分段
func (t *TaskTemplate) SegmentByID(id uuid.UUID) *Segment {
	for i := range t.Segments {
		if t.Segments[i].ID == id {
			return &t.Segments[i]
		}
	}
	return nil
}

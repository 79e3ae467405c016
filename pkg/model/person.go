// Package model 定义值班排班引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// AttendanceStatus 每日出勤状态（外部考勤系统上报）
type AttendanceStatus string

const (
	AttendancePresent   AttendanceStatus = "present"   // 全天在营
	AttendanceAbsent    AttendanceStatus = "absent"    // 全天不在
	AttendanceArrival   AttendanceStatus = "arrival"   // 当日归营
	AttendanceDeparture AttendanceStatus = "departure" // 当日离营
	AttendancePartial   AttendanceStatus = "partial"   // 部分时段在营
)

// Person 人员
type Person struct {
	BaseModel
	OrgID  uuid.UUID `json:"org_id" db:"org_id"`
	Name   string    `json:"name" db:"name"`
	Code   string    `json:"code" db:"code"`
	Status string    `json:"status" db:"status"` // active/inactive

	// 角色与团队归属
	RoleIDs []uuid.UUID `json:"role_ids" db:"role_ids"`
	TeamID  *uuid.UUID  `json:"team_id,omitempty" db:"team_id"`

	// 每日出勤覆盖（按日期索引，外部考勤录入）
	DailyOverrides []DailyOverride `json:"daily_overrides,omitempty" db:"-"`

	// 个人轮换模式（优先于团队轮换）
	Rotation *RotationPattern `json:"rotation,omitempty" db:"rotation"`

	// 自定义字段（互斥规则匹配使用）
	CustomFields JSONMap `json:"custom_fields,omitempty" db:"custom_fields"`
}

// DailyOverride 单日出勤覆盖记录
type DailyOverride struct {
	Date        string           `json:"date"`   // YYYY-MM-DD
	Status      AttendanceStatus `json:"status"` //
	WindowStart string           `json:"window_start,omitempty"` // HH:MM 在营起始
	WindowEnd   string           `json:"window_end,omitempty"`   // HH:MM 在营结束
	Source      string           `json:"source,omitempty"`       // 录入来源
}

// RotationPattern 个人轮换模式（在营天数/归家天数循环）
type RotationPattern struct {
	BaseDays  int    `json:"base_days"`
	HomeDays  int    `json:"home_days"`
	StartDate string `json:"start_date"` // YYYY-MM-DD 循环起点
}

// Role 角色（仅身份与展示信息，用于匹配）
type Role struct {
	BaseModel
	OrgID uuid.UUID `json:"org_id" db:"org_id"`
	Name  string    `json:"name" db:"name"`
	Code  string    `json:"code" db:"code"`
}

// Team 团队
type Team struct {
	BaseModel
	OrgID uuid.UUID `json:"org_id" db:"org_id"`
	Name  string    `json:"name" db:"name"`
	Code  string    `json:"code" db:"code"`
}

// IsActive 检查人员是否在编
func (p *Person) IsActive() bool {
	return p.Status == "active"
}

// HasRole 检查人员是否持有某角色
func (p *Person) HasRole(roleID uuid.UUID) bool {
	for _, r := range p.RoleIDs {
		if r == roleID {
			return true
		}
	}
	return false
}

// InTeam 检查人员是否属于某团队
func (p *Person) InTeam(teamID uuid.UUID) bool {
	return p.TeamID != nil && *p.TeamID == teamID
}

// OverrideOn 返回指定日期的出勤覆盖记录
func (p *Person) OverrideOn(date string) *DailyOverride {
	for i := range p.DailyOverrides {
		if p.DailyOverrides[i].Date == date {
			return &p.DailyOverrides[i]
		}
	}
	return nil
}

// CustomField 返回自定义字段的值
func (p *Person) CustomField(key string) (interface{}, bool) {
	if p.CustomFields == nil {
		return nil, false
	}
	v, ok := p.CustomFields[key]
	return v, ok
}

// Package model 定义值班排班引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// FailureReason 班位未填充原因
type FailureReason string

const (
	// FailureRoleMismatch 无人持有所需角色
	FailureRoleMismatch FailureReason = "role_mismatch"
	// FailureUnavailable 持有角色的人员全部被占用/不可用
	FailureUnavailable FailureReason = "unavailable"
	// FailureNoAvailablePeople 可用人数不足
	FailureNoAvailablePeople FailureReason = "no_available_people"
	// FailureConstraintViolation 存在可用人员但全部被规则排除
	FailureConstraintViolation FailureReason = "constraint_violation"
)

// AssignmentFailure 班位填充失败记录
type AssignmentFailure struct {
	ShiftID uuid.UUID     `json:"shift_id"`
	TaskID  uuid.UUID     `json:"task_id"`
	RoleID  uuid.UUID     `json:"role_id"`
	Missing int           `json:"missing"` // 缺口人数
	Reason  FailureReason `json:"reason"`
	Message string        `json:"message"`
}

// PersonRef 人员引用（建议中按名引用）
type PersonRef struct {
	ID     uuid.UUID  `json:"id"`
	Name   string     `json:"name"`
	TeamID *uuid.UUID `json:"team_id,omitempty"`
}

// SchedulingSuggestion 建议记录：保持团队建制时产生的跨团队补位建议
type SchedulingSuggestion struct {
	ShiftID      uuid.UUID   `json:"shift_id"`
	TaskID       uuid.UUID   `json:"task_id"`
	RoleID       uuid.UUID   `json:"role_id"`
	TeamID       *uuid.UUID  `json:"team_id,omitempty"` // 目标团队
	Missing      int         `json:"missing"`           // 缺口人数
	Alternatives []PersonRef `json:"alternatives"`      // 其他团队候选人
	Message      string      `json:"message"`
}

// SchedulingStats 求解统计
type SchedulingStats struct {
	TotalShifts       int     `json:"total_shifts"`
	FullyAssigned     int     `json:"fully_assigned"`
	PartiallyAssigned int     `json:"partially_assigned"`
	Unassigned        int     `json:"unassigned"`
	TotalSlots        int     `json:"total_slots"`
	FilledSlots       int     `json:"filled_slots"`
	FillRatio         float64 `json:"fill_ratio"`   // FilledSlots / TotalSlots
	SuccessRate       float64 `json:"success_rate"` // FullyAssigned / TotalShifts
}

// PersonLoad 人员负载统计（求解结束时导出）
type PersonLoad struct {
	PersonID       uuid.UUID `json:"person_id"`
	Name           string    `json:"name"`
	LoadScore      float64   `json:"load_score"`
	ShiftCount     int       `json:"shift_count"`
	CriticalShifts int       `json:"critical_shifts"`
}

// RosterStatus 轮换排班每日状态
type RosterStatus string

const (
	RosterBase        RosterStatus = "base"        // 在营
	RosterHome        RosterStatus = "home"        // 归家
	RosterUnavailable RosterStatus = "unavailable" // 不可用
)

// RosterEntry 轮换排班条目（人员 × 日期）
type RosterEntry struct {
	PersonID uuid.UUID    `json:"person_id"`
	Date     string       `json:"date"` // YYYY-MM-DD
	Status   RosterStatus `json:"status"`
}

// UnfulfilledConstraint 未满足的轮换约束
type UnfulfilledConstraint struct {
	PersonID uuid.UUID `json:"person_id"`
	Date     string    `json:"date"`
	Message  string    `json:"message"`
}

// RosterStats 轮换排班统计
type RosterStats struct {
	People          int     `json:"people"`
	Days            int     `json:"days"`
	CycleLength     int     `json:"cycle_length"`
	BaseDays        int     `json:"base_days"`
	HomeDays        int     `json:"home_days"`
	MetConstraints  int     `json:"met_constraints"`
	Violated        int     `json:"violated_constraints"`
	FulfillmentRate float64 `json:"fulfillment_rate"` // 0-100
}

// ContinuationHistory 轮换衔接历史（上一轮排班的末态）
type ContinuationHistory struct {
	LastStatus      RosterStatus `json:"last_status"`
	ConsecutiveDays int          `json:"consecutive_days"`
}

// Package validator 提供求解结果验证功能
package validator

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler/interperson"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictOverlap           ConflictType = "overlap"            // 时间重叠
	ConflictRestTime          ConflictType = "rest_time"          // 休息时间不足
	ConflictNeverAssign       ConflictType = "never_assign"       // 违反禁止分配约束
	ConflictForbiddenTogether ConflictType = "forbidden_together" // 违反人际互斥约束
	ConflictRoleMismatch      ConflictType = "role_mismatch"      // 角色不匹配
)

// Conflict 冲突信息
type Conflict struct {
	Type     ConflictType `json:"type"`
	Severity string       `json:"severity"` // error/warning
	PersonID uuid.UUID    `json:"person_id"`
	Message  string       `json:"message"`
	ShiftIDs []uuid.UUID  `json:"shift_ids,omitempty"` // 相关班次
}

// ConflictDetector 冲突检测器
type ConflictDetector struct {
	config *DetectorConfig
}

// DetectorConfig 检测器配置
type DetectorConfig struct {
	CheckRest        bool // 是否检查班次间休息
	CheckConstraints bool // 是否检查排班约束
	CheckInterPerson bool // 是否检查人际互斥
	CheckRoles       bool // 是否检查角色匹配
}

// DefaultDetectorConfig 返回默认配置
func DefaultDetectorConfig() *DetectorConfig {
	return &DetectorConfig{
		CheckRest:        true,
		CheckConstraints: true,
		CheckInterPerson: true,
		CheckRoles:       true,
	}
}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector(config *DetectorConfig) *ConflictDetector {
	if config == nil {
		config = DefaultDetectorConfig()
	}
	return &ConflictDetector{config: config}
}

// DetectAll 检测求解结果中的全部冲突
func (d *ConflictDetector) DetectAll(shifts []*model.Shift, state *model.OrgState) []Conflict {
	var conflicts []Conflict

	byPerson := groupByPerson(shifts)
	personIDs := make([]uuid.UUID, 0, len(byPerson))
	for id := range byPerson {
		personIDs = append(personIDs, id)
	}
	sort.Slice(personIDs, func(i, j int) bool {
		return personIDs[i].String() < personIDs[j].String()
	})

	for _, personID := range personIDs {
		p := state.GetPerson(personID)
		if p == nil {
			continue
		}
		personShifts := byPerson[personID]

		conflicts = append(conflicts, d.detectOverlaps(p, personShifts)...)
		if d.config.CheckRest {
			conflicts = append(conflicts, d.detectRestViolations(p, personShifts)...)
		}
		if d.config.CheckConstraints {
			conflicts = append(conflicts, d.detectConstraintViolations(p, personShifts, state)...)
		}
		if d.config.CheckRoles {
			conflicts = append(conflicts, d.detectRoleMismatches(p, personShifts)...)
		}
	}

	if d.config.CheckInterPerson {
		conflicts = append(conflicts, d.detectInterPersonViolations(shifts, state)...)
	}
	return conflicts
}

// detectOverlaps 检测同一人员的班次时间重叠
func (d *ConflictDetector) detectOverlaps(p *model.Person, shifts []*model.Shift) []Conflict {
	var conflicts []Conflict

	sorted := sortedByStart(shifts)
	for i := 0; i < len(sorted)-1; i++ {
		current, next := sorted[i], sorted[i+1]
		if current.TimeRange().Overlaps(next.TimeRange()) {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictOverlap,
				Severity: "error",
				PersonID: p.ID,
				Message:  fmt.Sprintf("人员 %s 存在时间重叠的班次", p.Name),
				ShiftIDs: []uuid.UUID{current.ID, next.ID},
			})
		}
	}
	return conflicts
}

// detectRestViolations 检测班次间休息不足
// 以前序班次的最小休息要求为准，重叠班次由重叠检测负责
func (d *ConflictDetector) detectRestViolations(p *model.Person, shifts []*model.Shift) []Conflict {
	var conflicts []Conflict

	sorted := sortedByStart(shifts)
	for i := 0; i < len(sorted)-1; i++ {
		current, next := sorted[i], sorted[i+1]
		if current.MinRestHours <= 0 {
			continue
		}
		rest := next.Start.Sub(current.End).Hours()
		if rest >= 0 && rest < current.MinRestHours {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictRestTime,
				Severity: "warning",
				PersonID: p.ID,
				Message: fmt.Sprintf("人员 %s 班次间休息仅 %.1f 小时，要求 %.1f 小时",
					p.Name, rest, current.MinRestHours),
				ShiftIDs: []uuid.UUID{current.ID, next.ID},
			})
		}
	}
	return conflicts
}

// detectConstraintViolations 检测禁止分配约束违反
func (d *ConflictDetector) detectConstraintViolations(p *model.Person, shifts []*model.Shift, state *model.OrgState) []Conflict {
	var conflicts []Conflict

	for _, s := range shifts {
		for _, c := range state.Constraints {
			if c.Type != model.ConstraintNeverAssign {
				continue
			}
			if c.AppliesTo(p) && c.AppliesToTask(s.TaskID) && c.OverlapsWindow(s.TimeRange()) {
				conflicts = append(conflicts, Conflict{
					Type:     ConflictNeverAssign,
					Severity: "error",
					PersonID: p.ID,
					Message:  fmt.Sprintf("人员 %s 被分配到禁止分配的班次", p.Name),
					ShiftIDs: []uuid.UUID{s.ID},
				})
			}
		}
	}
	return conflicts
}

// detectRoleMismatches 检测角色不匹配
// 仅当人员不持有班次角色构成中的任一角色时告警（兜底分配属预期放宽）
func (d *ConflictDetector) detectRoleMismatches(p *model.Person, shifts []*model.Shift) []Conflict {
	var conflicts []Conflict

	for _, s := range shifts {
		if len(s.Roles) == 0 {
			continue
		}
		matched := false
		for _, line := range s.Roles {
			if line.RoleID == model.AnyRoleID || p.HasRole(line.RoleID) {
				matched = true
				break
			}
		}
		if !matched {
			conflicts = append(conflicts, Conflict{
				Type:     ConflictRoleMismatch,
				Severity: "warning",
				PersonID: p.ID,
				Message:  fmt.Sprintf("人员 %s 不持有班次所需的任一角色", p.Name),
				ShiftIDs: []uuid.UUID{s.ID},
			})
		}
	}
	return conflicts
}

// detectInterPersonViolations 检测人际互斥约束违反
func (d *ConflictDetector) detectInterPersonViolations(shifts []*model.Shift, state *model.OrgState) []Conflict {
	var conflicts []Conflict
	evaluator := interperson.NewEvaluator(state)

	for _, s := range shifts {
		people := make([]*model.Person, 0, len(s.AssignedPersonIDs))
		for _, id := range s.AssignedPersonIDs {
			if p := state.GetPerson(id); p != nil {
				people = append(people, p)
			}
		}
		for i, p := range people {
			rule, violated := evaluator.CheckCandidate(p, people[:i], state.InterPerson)
			if !violated {
				continue
			}
			msg := fmt.Sprintf("人员 %s 与同班人员触发互斥规则", p.Name)
			if rule != nil && rule.Reason != "" {
				msg = fmt.Sprintf("%s: %s", msg, rule.Reason)
			}
			conflicts = append(conflicts, Conflict{
				Type:     ConflictForbiddenTogether,
				Severity: "error",
				PersonID: p.ID,
				Message:  msg,
				ShiftIDs: []uuid.UUID{s.ID},
			})
		}
	}
	return conflicts
}

// groupByPerson 按人员分组
func groupByPerson(shifts []*model.Shift) map[uuid.UUID][]*model.Shift {
	result := make(map[uuid.UUID][]*model.Shift)
	for _, s := range shifts {
		for _, personID := range s.AssignedPersonIDs {
			result[personID] = append(result[personID], s)
		}
	}
	return result
}

// sortedByStart 按开始时间排序（拷贝）
func sortedByStart(shifts []*model.Shift) []*model.Shift {
	sorted := make([]*model.Shift, len(shifts))
	copy(sorted, shifts)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})
	return sorted
}

// Package model 定义值班排班引擎的核心数据模型
package model

import (
	"github.com/google/uuid"
)

// OrgState 单位完整状态快照（两大引擎的输入，调用方负责提前物化）
type OrgState struct {
	OrgID    uuid.UUID `json:"org_id"`
	Settings Settings  `json:"settings"`

	People        []*Person                `json:"people"`
	Roles         []*Role                  `json:"roles"`
	Teams         []*Team                  `json:"teams"`
	TaskTemplates []*TaskTemplate          `json:"task_templates"`
	Shifts        []*Shift                 `json:"shifts"`
	Constraints   []*SchedulingConstraint  `json:"constraints"`
	Absences      []*Absence               `json:"absences"`
	Blockages     []*HourlyBlockage        `json:"blockages"`
	Rotations     []*TeamRotation          `json:"rotations"`
	InterPerson   []*InterPersonConstraint `json:"inter_person_constraints"`

	// 索引缓存
	personMap map[uuid.UUID]*Person
	roleMap   map[uuid.UUID]*Role
	teamMap   map[uuid.UUID]*Team
	taskMap   map[uuid.UUID]*TaskTemplate
}

// BuildIndexes 构建索引缓存（反序列化或手工构造后调用）
func (s *OrgState) BuildIndexes() {
	s.personMap = make(map[uuid.UUID]*Person, len(s.People))
	for _, p := range s.People {
		s.personMap[p.ID] = p
	}
	s.roleMap = make(map[uuid.UUID]*Role, len(s.Roles))
	for _, r := range s.Roles {
		s.roleMap[r.ID] = r
	}
	s.teamMap = make(map[uuid.UUID]*Team, len(s.Teams))
	for _, t := range s.Teams {
		s.teamMap[t.ID] = t
	}
	s.taskMap = make(map[uuid.UUID]*TaskTemplate, len(s.TaskTemplates))
	for _, t := range s.TaskTemplates {
		s.taskMap[t.ID] = t
	}
}

// GetPerson 获取人员
func (s *OrgState) GetPerson(id uuid.UUID) *Person {
	if s.personMap == nil {
		s.BuildIndexes()
	}
	return s.personMap[id]
}

// GetRole 获取角色
func (s *OrgState) GetRole(id uuid.UUID) *Role {
	if s.roleMap == nil {
		s.BuildIndexes()
	}
	return s.roleMap[id]
}

// GetTeam 获取团队
func (s *OrgState) GetTeam(id uuid.UUID) *Team {
	if s.teamMap == nil {
		s.BuildIndexes()
	}
	return s.teamMap[id]
}

// GetTaskTemplate 获取任务模板
func (s *OrgState) GetTaskTemplate(id uuid.UUID) *TaskTemplate {
	if s.taskMap == nil {
		s.BuildIndexes()
	}
	return s.taskMap[id]
}

// ActivePeople 返回全部在编人员
func (s *OrgState) ActivePeople() []*Person {
	result := make([]*Person, 0, len(s.People))
	for _, p := range s.People {
		if p.IsActive() {
			result = append(result, p)
		}
	}
	return result
}

// RoleHolderCount 返回持有某角色的在编人数
func (s *OrgState) RoleHolderCount(roleID uuid.UUID) int {
	count := 0
	for _, p := range s.People {
		if p.IsActive() && p.HasRole(roleID) {
			count++
		}
	}
	return count
}

// RotationForTeam 返回团队的轮换模式
func (s *OrgState) RotationForTeam(teamID uuid.UUID) *TeamRotation {
	for _, r := range s.Rotations {
		if r.TeamID == teamID {
			return r
		}
	}
	return nil
}

// PersonConstraints 返回作用于某人员的全部约束
func (s *OrgState) PersonConstraints(p *Person) []*SchedulingConstraint {
	var result []*SchedulingConstraint
	for _, c := range s.Constraints {
		if c.AppliesTo(p) {
			result = append(result, c)
		}
	}
	return result
}

// PersonAbsences 返回某人员的全部请假记录
func (s *OrgState) PersonAbsences(personID uuid.UUID) []*Absence {
	var result []*Absence
	for _, a := range s.Absences {
		if a.PersonID == personID {
			result = append(result, a)
		}
	}
	return result
}

// PersonBlockages 返回某人员指定日期的小时级封锁
func (s *OrgState) PersonBlockages(personID uuid.UUID, date string) []*HourlyBlockage {
	var result []*HourlyBlockage
	for _, b := range s.Blockages {
		if b.PersonID == personID && b.Date == date {
			result = append(result, b)
		}
	}
	return result
}

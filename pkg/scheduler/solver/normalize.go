package solver

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/model"
)

// normalizeShift 将班次的角色构成与休息要求从任务模板归一化到班次本身
//
// 归一化顺序：班次自带构成 > 分段构成 > 模板首个分段构成 > 推断的默认角色。
// 任一角色行人数为负视为数据损坏，立即报错。
func normalizeShift(shift *model.Shift, tmpl *model.TaskTemplate, state *model.OrgState) error {
	if len(shift.Roles) == 0 && tmpl != nil {
		var seg *model.Segment
		if shift.SegmentID != nil {
			seg = tmpl.SegmentByID(*shift.SegmentID)
		}
		if seg == nil && len(tmpl.Segments) > 0 {
			seg = &tmpl.Segments[0]
		}
		if seg != nil {
			shift.Roles = make([]model.RoleLine, len(seg.Roles))
			copy(shift.Roles, seg.Roles)
			if shift.MinRestHours == 0 {
				shift.MinRestHours = seg.MinRestHours
			}
		}
	}

	// 构成仍然缺失：推断默认角色，保底填一个班位
	if len(shift.Roles) == 0 {
		count := shift.RequiredCount
		if count <= 0 {
			count = 1
		}
		shift.Roles = []model.RoleLine{{RoleID: defaultRoleID(state), Count: count}}
	}

	total := 0
	for _, line := range shift.Roles {
		if line.Count < 0 {
			return errors.InvalidInput("roles",
				fmt.Sprintf("班次 %s 角色 %s 所需人数为负: %d", shift.ID, line.RoleID, line.Count))
		}
		total += line.Count
	}
	shift.RequiredCount = total
	return nil
}

// defaultRoleID 推断默认角色
// 优先取在编人员中持有最多的有效角色，其次取角色表首个角色，否则回退哨兵角色
func defaultRoleID(state *model.OrgState) uuid.UUID {
	holders := make(map[uuid.UUID]int)
	for _, p := range state.ActivePeople() {
		for _, roleID := range p.RoleIDs {
			if state.GetRole(roleID) != nil {
				holders[roleID]++
			}
		}
	}
	if len(holders) > 0 {
		ids := make([]uuid.UUID, 0, len(holders))
		for id := range holders {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			if holders[ids[i]] != holders[ids[j]] {
				return holders[ids[i]] > holders[ids[j]]
			}
			return ids[i].String() < ids[j].String()
		})
		return ids[0]
	}
	if len(state.Roles) > 0 {
		return state.Roles[0].ID
	}
	return model.AnyRoleID
}

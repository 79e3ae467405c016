package solver

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler/availability"
	"github.com/zhiban/zhiban/pkg/scheduler/interperson"
	"github.com/zhiban/zhiban/pkg/scheduler/timeline"
)

// personState 单人求解状态（时间线 + 负载计数）
type personState struct {
	person *model.Person
	tl     *timeline.Timeline
	avail  *availability.DayAvailability

	load           float64
	shiftCount     int
	criticalShifts int
}

// taskState 单班次求解状态
type taskState struct {
	shift    *model.Shift
	template *model.TaskTemplate
	critical bool

	// 目标团队：显式指定或求解前估计
	targetTeam *uuid.UUID

	// 各角色已填人数
	filled map[uuid.UUID]int
}

// assignedCount 返回已分配人数
func (ts *taskState) assignedCount() int {
	return len(ts.shift.AssignedPersonIDs)
}

// dayState 单日求解状态
type dayState struct {
	date     string
	day      model.TimeRange
	state    *model.OrgState
	settings model.Settings

	people    []*personState
	personIdx map[uuid.UUID]*personState
	evaluator *interperson.Evaluator
}

// buildDayState 构建单日求解状态
// 为每名在编人员解析可用性并建立时间线；负载从历史分值延续
func buildDayState(
	date string,
	state *model.OrgState,
	resolver *availability.Resolver,
	futureShifts []*model.Shift,
	loads map[uuid.UUID]float64,
	counts map[uuid.UUID]int,
) (*dayState, error) {
	dayStart, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return nil, err
	}

	ds := &dayState{
		date:      date,
		day:       model.TimeRange{Start: dayStart, End: dayStart.AddDate(0, 0, 1)},
		state:     state,
		settings:  state.Settings,
		personIdx: make(map[uuid.UUID]*personState),
		evaluator: interperson.NewEvaluator(state),
	}

	people := state.ActivePeople()
	sort.Slice(people, func(i, j int) bool {
		return people[i].ID.String() < people[j].ID.String()
	})

	for _, p := range people {
		tl := timeline.New()
		avail, err := resolver.Resolve(p, date, state, futureShifts, tl)
		if err != nil {
			return nil, err
		}
		ps := &personState{
			person:     p,
			tl:         tl,
			avail:      avail,
			load:       loads[p.ID],
			shiftCount: counts[p.ID],
		}
		ds.people = append(ds.people, ps)
		ds.personIdx[p.ID] = ps
	}
	return ds, nil
}

// assignedPeople 返回班次当前在班人员
func (ds *dayState) assignedPeople(ts *taskState) []*model.Person {
	result := make([]*model.Person, 0, len(ts.shift.AssignedPersonIDs))
	for _, id := range ts.shift.AssignedPersonIDs {
		if p := ds.state.GetPerson(id); p != nil {
			result = append(result, p)
		}
	}
	return result
}

// teamMembersInShift 返回班次中属于目标团队的人数
func (ds *dayState) teamMembersInShift(ts *taskState, teamID uuid.UUID) int {
	count := 0
	for _, p := range ds.assignedPeople(ts) {
		if p.InTeam(teamID) {
			count++
		}
	}
	return count
}

// eligible 筛选并排序候选人
//
// team 非空时仅考虑该团队成员。筛选链：角色 -> 团队 -> 禁止分配约束 ->
// 人际互斥 -> 时间线冲突（候选窗口按层级附加休息缓冲）。
// 排序：目标团队成员优先，其次负载升序、班次数升序，末位按人员 ID 保证稳定。
func (ds *dayState) eligible(ts *taskState, roleID uuid.UUID, level RelaxLevel, team *uuid.UUID) []*personState {
	shiftRange := ts.shift.TimeRange()
	window := shiftRange
	if buffer := level.RestBuffer(ts.shift.MinRestHours); buffer > 0 {
		window.End = window.End.Add(time.Duration(buffer * float64(time.Hour)))
	}
	assigned := ds.assignedPeople(ts)

	var result []*personState
	for _, ps := range ds.people {
		p := ps.person
		if ts.shift.HasAssigned(p.ID) {
			continue
		}
		if level.RequiresRole() && roleID != model.AnyRoleID && !p.HasRole(roleID) {
			continue
		}
		if team != nil && !p.InTeam(*team) {
			continue
		}
		if ds.neverAssignBlocked(p, ts) {
			continue
		}
		if _, violated := ds.evaluator.CheckCandidate(p, assigned, ds.state.InterPerson); violated {
			continue
		}
		if !ps.tl.Fits(window, level.EnforcesRest()) {
			continue
		}
		result = append(result, ps)
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if ts.targetTeam != nil {
			am, bm := a.person.InTeam(*ts.targetTeam), b.person.InTeam(*ts.targetTeam)
			if am != bm {
				return am
			}
		}
		if a.load != b.load {
			return a.load < b.load
		}
		if a.shiftCount != b.shiftCount {
			return a.shiftCount < b.shiftCount
		}
		return a.person.ID.String() < b.person.ID.String()
	})
	return result
}

// neverAssignBlocked 检查禁止分配约束
func (ds *dayState) neverAssignBlocked(p *model.Person, ts *taskState) bool {
	shiftRange := ts.shift.TimeRange()
	for _, c := range ds.state.Constraints {
		if c.Type != model.ConstraintNeverAssign {
			continue
		}
		if c.AppliesTo(p) && c.AppliesToTask(ts.shift.TaskID) && c.OverlapsWindow(shiftRange) {
			return true
		}
	}
	return false
}

// assign 将候选人写入班次并更新其时间线与负载
func (ds *dayState) assign(ps *personState, ts *taskState, roleID uuid.UUID) {
	shift := ts.shift
	shift.AssignedPersonIDs = append(shift.AssignedPersonIDs, ps.person.ID)
	ts.filled[roleID]++

	shiftRange := shift.TimeRange()
	// 时间线冲突已在筛选阶段排除
	_ = ps.tl.AddTask(shiftRange, shift.ID)
	if shift.MinRestHours > 0 {
		ps.tl.AddRest(model.TimeRange{
			Start: shift.End,
			End:   shift.End.Add(time.Duration(shift.MinRestHours * float64(time.Hour))),
		})
	}

	difficulty := 1.0
	if ts.template != nil && ts.template.Difficulty > 0 {
		difficulty = ts.template.Difficulty
	}
	if ds.isNightShift(shiftRange) {
		difficulty *= 1.5
	}
	ps.load += shift.DurationHours() * difficulty
	ps.shiftCount++
	if ts.critical {
		ps.criticalShifts++
	}
}

// isNightShift 检查班次是否与夜班时间窗有交集
func (ds *dayState) isNightShift(tr model.TimeRange) bool {
	for t := tr.Start; t.Before(tr.End); t = t.Add(time.Hour) {
		if ds.settings.IsNightHour(t.Hour()) {
			return true
		}
	}
	return false
}

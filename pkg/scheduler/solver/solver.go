// Package solver 提供值班班次分配求解器
//
// 求解器对单位状态快照逐日求解：为每个班次的每个角色班位挑选候选人，
// 从严到宽逐级放宽筛选条件，直到填满或给出结构化失败记录。
// 输入保持只读，全部改动落在班次拷贝上。
package solver

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler/availability"
)

// SolveInput 求解输入
type SolveInput struct {
	// State 单位状态快照（只读）
	State *model.OrgState `json:"state"`

	// StartDate 求解起始日期（YYYY-MM-DD）
	StartDate string `json:"start_date"`
	// EndDate 求解结束日期（含，为空时仅求解起始日）
	EndDate string `json:"end_date,omitempty"`

	// HistoryScores 历史负载分值（跨求解周期延续公平性）
	HistoryScores map[uuid.UUID]float64 `json:"history_scores,omitempty"`

	// FutureShifts 已锁定的未来班次（休息推算使用）
	FutureShifts []*model.Shift `json:"future_shifts,omitempty"`

	// TaskFilter 仅求解这些任务的班次（为空表示全部）
	TaskFilter []uuid.UUID `json:"task_filter,omitempty"`
	// ShiftFilter 仅求解这些班次（为空表示全部）
	ShiftFilter []uuid.UUID `json:"shift_filter,omitempty"`

	// StrictOrganic 保持团队建制：目标团队已有成员在班时，
	// 缺口不跨团队补位，转为建议记录
	StrictOrganic bool `json:"strict_organic"`

	// Version 出勤语义版本（默认 V2）
	Version availability.EngineVersion `json:"version,omitempty"`
}

// SolveResult 求解结果
type SolveResult struct {
	// Shifts 已求解的班次拷贝（含分配结果）
	Shifts []*model.Shift `json:"shifts"`

	Failures    []model.AssignmentFailure    `json:"failures,omitempty"`
	Suggestions []model.SchedulingSuggestion `json:"suggestions,omitempty"`

	Stats model.SchedulingStats `json:"stats"`
	Loads []model.PersonLoad    `json:"loads"`

	Duration time.Duration `json:"duration"`
	Message  string        `json:"message,omitempty"`
}

// Engine 班次分配求解引擎
type Engine struct {
	log *logger.EngineLogger
}

// NewEngine 创建求解引擎
func NewEngine() *Engine {
	return &Engine{log: logger.NewEngineLogger("solver")}
}

// Solve 按日期区间逐日求解班次分配
//
// 每日独立构建人员时间线；负载分值跨日累计，前一日的分配结果
// 作为已定班次参与后续日期的休息推算。
func (e *Engine) Solve(ctx context.Context, in *SolveInput) (*SolveResult, error) {
	startedAt := time.Now()

	if in == nil || in.State == nil {
		return nil, errors.InvalidInput("state", "状态快照不能为空")
	}
	start, err := time.ParseInLocation("2006-01-02", in.StartDate, time.Local)
	if err != nil {
		return nil, errors.InvalidInput("start_date", fmt.Sprintf("日期无效 %q", in.StartDate))
	}
	end := start
	if in.EndDate != "" {
		end, err = time.ParseInLocation("2006-01-02", in.EndDate, time.Local)
		if err != nil {
			return nil, errors.InvalidInput("end_date", fmt.Sprintf("日期无效 %q", in.EndDate))
		}
		if end.Before(start) {
			return nil, errors.InvalidInput("end_date", "结束日期早于起始日期")
		}
	}

	in.State.BuildIndexes()
	resolver := availability.NewResolver(in.Version)

	// 负载分值与计数跨日延续
	loads := make(map[uuid.UUID]float64, len(in.HistoryScores))
	for id, score := range in.HistoryScores {
		loads[id] = score
	}
	counts := make(map[uuid.UUID]int)
	crits := make(map[uuid.UUID]int)

	futureShifts := make([]*model.Shift, len(in.FutureShifts))
	copy(futureShifts, in.FutureShifts)

	result := &SolveResult{}
	var solved []*taskState

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := d.Format("2006-01-02")

		ds, err := buildDayState(date, in.State, resolver, futureShifts, loads, counts)
		if err != nil {
			return nil, err
		}
		for _, ps := range ds.people {
			ps.criticalShifts = crits[ps.person.ID]
		}

		tasks, err := e.solveDay(ctx, ds, in, result)
		if err != nil {
			return nil, err
		}
		solved = append(solved, tasks...)

		// 回写跨日状态
		for _, ps := range ds.people {
			loads[ps.person.ID] = ps.load
			counts[ps.person.ID] = ps.shiftCount
			crits[ps.person.ID] = ps.criticalShifts
		}
		for _, ts := range tasks {
			result.Shifts = append(result.Shifts, ts.shift)
			futureShifts = append(futureShifts, ts.shift)
		}
	}

	e.finalize(result, solved, in.State, loads, counts, crits)
	result.Duration = time.Since(startedAt)
	result.Message = fmt.Sprintf("求解完成，班位填充率 %.1f%%", result.Stats.FillRatio*100)

	e.log.SolveComplete(in.StartDate, result.Duration, result.Stats.FilledSlots, result.Stats.TotalSlots)
	return result, nil
}

// solveDay 求解单日班次
func (e *Engine) solveDay(ctx context.Context, ds *dayState, in *SolveInput, res *SolveResult) ([]*taskState, error) {
	tasks, err := e.collectTasks(ds, in)
	if err != nil {
		return nil, err
	}
	e.log.StartSolve(ds.date, len(tasks), len(ds.people))

	// 关键班次优先，其余按开始时间
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.critical != b.critical {
			return a.critical
		}
		if !a.shift.Start.Equal(b.shift.Start) {
			return a.shift.Start.Before(b.shift.Start)
		}
		return a.shift.ID.String() < b.shift.ID.String()
	})

	for _, ts := range tasks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.applyAlwaysAssign(ds, ts)
		if ts.targetTeam == nil && ts.shift.RequiredCount > 1 {
			ts.targetTeam = ds.estimateTeam(ts)
		}
		e.fillShift(ds, ts, in, res)
	}
	return tasks, nil
}

// collectTasks 选取当日待求解班次并归一化
// 模板缺失的班次跳过，不影响其余班次求解
func (e *Engine) collectTasks(ds *dayState, in *SolveInput) ([]*taskState, error) {
	taskFilter := idSet(in.TaskFilter)
	shiftFilter := idSet(in.ShiftFilter)

	var tasks []*taskState
	for _, src := range ds.state.Shifts {
		if !src.IsSolvable() {
			continue
		}
		if src.Start.Before(ds.day.Start) || !src.Start.Before(ds.day.End) {
			continue
		}
		if taskFilter != nil && !taskFilter[src.TaskID] {
			continue
		}
		if shiftFilter != nil && !shiftFilter[src.ID] {
			continue
		}

		tmpl := ds.state.GetTaskTemplate(src.TaskID)
		if tmpl == nil && len(src.Roles) == 0 {
			e.log.ShiftSkipped(src.ID.String(), "任务模板缺失")
			continue
		}

		shift := src.Clone()
		if err := normalizeShift(shift, tmpl, ds.state); err != nil {
			return nil, err
		}

		ts := &taskState{
			shift:    shift,
			template: tmpl,
			critical: ds.isCritical(shift, tmpl),
			filled:   make(map[uuid.UUID]int),
		}
		if shift.TeamID != nil {
			ts.targetTeam = shift.TeamID
		}
		tasks = append(tasks, ts)
	}
	return tasks, nil
}

// isCritical 检查班次是否关键（高难度任务或需要稀缺角色）
func (ds *dayState) isCritical(shift *model.Shift, tmpl *model.TaskTemplate) bool {
	if tmpl != nil && ds.settings.CriticalDifficulty > 0 &&
		tmpl.Difficulty >= ds.settings.CriticalDifficulty {
		return true
	}
	for _, line := range shift.Roles {
		if line.RoleID == model.AnyRoleID {
			continue
		}
		if ds.state.RoleHolderCount(line.RoleID) <= ds.settings.RareRoleThreshold {
			return true
		}
	}
	return false
}

// applyAlwaysAssign 必须分配约束的前置处理
// 匹配人员以无休息缓冲层级尝试入班；无法入班时静默降级，不产生失败记录
func (e *Engine) applyAlwaysAssign(ds *dayState, ts *taskState) {
	shiftRange := ts.shift.TimeRange()
	for _, c := range ds.state.Constraints {
		if c.Type != model.ConstraintAlwaysAssign {
			continue
		}
		if !c.AppliesToTask(ts.shift.TaskID) || !c.OverlapsWindow(shiftRange) {
			continue
		}
		for _, ps := range ds.people {
			p := ps.person
			if !c.AppliesTo(p) || ts.shift.HasAssigned(p.ID) {
				continue
			}
			roleID, ok := ts.openLineFor(p)
			if !ok {
				continue
			}
			if !ps.tl.Fits(shiftRange, false) {
				continue
			}
			if _, violated := ds.evaluator.CheckCandidate(p, ds.assignedPeople(ts), ds.state.InterPerson); violated {
				continue
			}
			ds.assign(ps, ts, roleID)
		}
	}
}

// openLineFor 返回人员可占用的角色行
// 优先角色匹配的空位，其次任意空位（强制分配不因角色落空）
func (ts *taskState) openLineFor(p *model.Person) (uuid.UUID, bool) {
	for _, line := range ts.shift.Roles {
		if ts.filled[line.RoleID] >= line.Count {
			continue
		}
		if line.RoleID == model.AnyRoleID || p.HasRole(line.RoleID) {
			return line.RoleID, true
		}
	}
	for _, line := range ts.shift.Roles {
		if ts.filled[line.RoleID] < line.Count {
			return line.RoleID, true
		}
	}
	return uuid.Nil, false
}

// fillShift 逐角色行填充班次
func (e *Engine) fillShift(ds *dayState, ts *taskState, in *SolveInput, res *SolveResult) {
	for _, line := range ts.shift.Roles {
		e.fillRoleLine(ds, ts, line, in, res)
	}
}

// fillRoleLine 填充单个角色行
//
// 先在目标团队内以较严层级尝试；建制保持模式下团队已有成员在班时，
// 剩余缺口转为跨团队补位建议。否则在全员范围内逐级放宽直至填满，
// 仍有缺口时生成带原因诊断的失败记录。
func (e *Engine) fillRoleLine(ds *dayState, ts *taskState, line model.RoleLine, in *SolveInput, res *SolveResult) {
	need := line.Count - ts.filled[line.RoleID]
	if need <= 0 {
		return
	}

	if ts.targetTeam != nil {
		for _, level := range []RelaxLevel{RelaxStrict, RelaxHalfRest} {
			for need > 0 {
				cands := ds.eligible(ts, line.RoleID, level, ts.targetTeam)
				if len(cands) == 0 {
					break
				}
				ds.assign(cands[0], ts, line.RoleID)
				need--
			}
		}
		if need > 0 && in.StrictOrganic && ds.teamMembersInShift(ts, *ts.targetTeam) > 0 {
			res.Suggestions = append(res.Suggestions, e.buildSuggestion(ds, ts, line.RoleID, need))
			return
		}
	}

	for _, level := range allLevels {
		for need > 0 {
			cands := ds.eligible(ts, line.RoleID, level, nil)
			if len(cands) == 0 {
				break
			}
			ds.assign(cands[0], ts, line.RoleID)
			need--
		}
	}

	if need > 0 {
		reason, msg := ds.diagnose(ts, line.RoleID)
		res.Failures = append(res.Failures, model.AssignmentFailure{
			ShiftID: ts.shift.ID,
			TaskID:  ts.shift.TaskID,
			RoleID:  line.RoleID,
			Missing: need,
			Reason:  reason,
			Message: msg,
		})
		e.log.SlotUnfilled(ts.shift.ID.String(), line.RoleID.String(), string(reason), need)
	}
}

// buildSuggestion 生成跨团队补位建议（候选人来自其他团队，至多列出 5 人）
func (e *Engine) buildSuggestion(ds *dayState, ts *taskState, roleID uuid.UUID, missing int) model.SchedulingSuggestion {
	var alternatives []model.PersonRef
	for _, ps := range ds.eligible(ts, roleID, RelaxNoRest, nil) {
		if ps.person.InTeam(*ts.targetTeam) {
			continue
		}
		alternatives = append(alternatives, model.PersonRef{
			ID:     ps.person.ID,
			Name:   ps.person.Name,
			TeamID: ps.person.TeamID,
		})
		if len(alternatives) == 5 {
			break
		}
	}
	return model.SchedulingSuggestion{
		ShiftID:      ts.shift.ID,
		TaskID:       ts.shift.TaskID,
		RoleID:       roleID,
		TeamID:       ts.targetTeam,
		Missing:      missing,
		Alternatives: alternatives,
		Message:      fmt.Sprintf("目标团队缺 %d 人，保持建制未跨团队补位", missing),
	}
}

// estimateTeam 估计多人班次的承担团队
// 逐团队统计可入班人数（按角色行封顶），人数相同的按平均负载较低者优先
func (ds *dayState) estimateTeam(ts *taskState) *uuid.UUID {
	teams := make([]*model.Team, len(ds.state.Teams))
	copy(teams, ds.state.Teams)
	sort.Slice(teams, func(i, j int) bool {
		return teams[i].ID.String() < teams[j].ID.String()
	})

	var best *uuid.UUID
	bestScore := 0.0
	for _, team := range teams {
		teamID := team.ID
		fit := 0
		loadSum := 0.0
		seen := 0
		for _, line := range ts.shift.Roles {
			cands := ds.eligible(ts, line.RoleID, RelaxNoRest, &teamID)
			n := len(cands)
			if n > line.Count {
				n = line.Count
			}
			fit += n
			for _, ps := range cands {
				loadSum += ps.load
				seen++
			}
		}
		if fit == 0 {
			continue
		}
		score := float64(fit)
		if seen > 0 {
			score -= 0.01 * loadSum / float64(seen)
		}
		if best == nil || score > bestScore {
			id := teamID
			best = &id
			bestScore = score
		}
	}
	return best
}

// diagnose 判定角色行缺口的失败原因
func (ds *dayState) diagnose(ts *taskState, roleID uuid.UUID) (model.FailureReason, string) {
	shiftRange := ts.shift.TimeRange()
	assigned := ds.assignedPeople(ts)

	holders, free, unblocked := 0, 0, 0
	for _, ps := range ds.people {
		p := ps.person
		if ts.shift.HasAssigned(p.ID) {
			continue
		}
		if roleID != model.AnyRoleID && !p.HasRole(roleID) {
			continue
		}
		holders++
		if !ps.tl.Fits(shiftRange, false) {
			continue
		}
		free++
		if ds.neverAssignBlocked(p, ts) {
			continue
		}
		if _, violated := ds.evaluator.CheckCandidate(p, assigned, ds.state.InterPerson); violated {
			continue
		}
		unblocked++
	}

	switch {
	case holders == 0:
		return model.FailureRoleMismatch, "无人持有所需角色"
	case free == 0:
		return model.FailureUnavailable, "持有该角色的人员在班次时段均不可用"
	case unblocked == 0:
		return model.FailureConstraintViolation, "可用人员均被约束规则排除"
	default:
		return model.FailureNoAvailablePeople, "可用人数不足"
	}
}

// finalize 汇总统计与负载导出
func (e *Engine) finalize(
	res *SolveResult,
	tasks []*taskState,
	state *model.OrgState,
	loads map[uuid.UUID]float64,
	counts map[uuid.UUID]int,
	crits map[uuid.UUID]int,
) {
	stats := &res.Stats
	for _, ts := range tasks {
		required := ts.shift.RequiredCount
		assigned := ts.assignedCount()
		stats.TotalShifts++
		stats.TotalSlots += required
		if assigned > required {
			stats.FilledSlots += required
		} else {
			stats.FilledSlots += assigned
		}
		switch {
		case required == 0 || assigned >= required:
			stats.FullyAssigned++
		case assigned > 0:
			stats.PartiallyAssigned++
		default:
			stats.Unassigned++
		}
	}
	if stats.TotalSlots > 0 {
		stats.FillRatio = float64(stats.FilledSlots) / float64(stats.TotalSlots)
	}
	if stats.TotalShifts > 0 {
		stats.SuccessRate = float64(stats.FullyAssigned) / float64(stats.TotalShifts)
	}

	people := state.ActivePeople()
	sort.Slice(people, func(i, j int) bool {
		return people[i].ID.String() < people[j].ID.String()
	})
	for _, p := range people {
		res.Loads = append(res.Loads, model.PersonLoad{
			PersonID:       p.ID,
			Name:           p.Name,
			LoadScore:      loads[p.ID],
			ShiftCount:     counts[p.ID],
			CriticalShifts: crits[p.ID],
		})
	}
}

// idSet 将 ID 列表转为集合（空列表返回 nil 表示不过滤）
func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// Package roster 提供多日在营/归家轮换排班生成
//
// 以 14 天为周期为每名人员分配轮换相位，物化为逐日在营/归家/不可用
// 状态，并修复落在周六的进出营。同一输入总是产生同一结果。
package roster

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/logger"
	"github.com/zhiban/zhiban/pkg/model"
)

// GenerateInput 轮换排班输入
type GenerateInput struct {
	// State 单位状态快照（只读）
	State *model.OrgState `json:"state"`

	// StartDate 排班起始日期（YYYY-MM-DD）
	StartDate string `json:"start_date"`
	// Days 排班天数（默认一个周期）
	Days int `json:"days,omitempty"`

	// History 上一轮排班末态（跨周期衔接）
	History map[uuid.UUID]model.ContinuationHistory `json:"history,omitempty"`

	// BaseRatioOverride 在营比例覆盖（0 表示不覆盖）
	BaseRatioOverride float64 `json:"base_ratio_override,omitempty"`
}

// GenerateResult 轮换排班结果
type GenerateResult struct {
	Entries     []model.RosterEntry           `json:"entries"`
	Unfulfilled []model.UnfulfilledConstraint `json:"unfulfilled,omitempty"`
	Stats       model.RosterStats             `json:"stats"`
	Warnings    []string                      `json:"warnings,omitempty"`
	Duration    time.Duration                 `json:"duration"`
}

// Generator 轮换排班生成器
type Generator struct {
	log *logger.EngineLogger
}

// NewGenerator 创建轮换排班生成器
func NewGenerator() *Generator {
	return &Generator{log: logger.NewEngineLogger("roster")}
}

// Generate 生成轮换排班
func (g *Generator) Generate(ctx context.Context, in *GenerateInput) (*GenerateResult, error) {
	startedAt := time.Now()

	if in == nil || in.State == nil {
		return nil, errors.InvalidInput("state", "状态快照不能为空")
	}
	start, err := time.ParseInLocation("2006-01-02", in.StartDate, time.Local)
	if err != nil {
		return nil, errors.InvalidInput("start_date", fmt.Sprintf("日期无效 %q", in.StartDate))
	}
	days := in.Days
	if days <= 0 {
		days = CycleLength
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in.State.BuildIndexes()
	baseDays, _, warnings := cycleShape(in.State, in.BaseRatioOverride)

	people := in.State.ActivePeople()
	sort.Slice(people, func(i, j int) bool {
		return people[i].ID.String() < people[j].ID.String()
	})
	g.log.RosterStart(in.StartDate, len(people), days)

	rosters := make([]*personRoster, 0, len(people))
	for _, p := range people {
		rosters = append(rosters, &personRoster{
			person:      p,
			unavailable: unavailableDays(in.State, p, start, days),
		})
	}

	assignPhases(rosters, in.History, baseDays)
	for _, pr := range rosters {
		materialize(pr, baseDays, days)
	}
	repairWeekends(rosters, start, days, in.State.Settings.MinDailyStaff)

	entries, unfulfilled, stats := verify(rosters, start, days, baseDays)

	result := &GenerateResult{
		Entries:     entries,
		Unfulfilled: unfulfilled,
		Stats:       stats,
		Warnings:    warnings,
		Duration:    time.Since(startedAt),
	}
	for _, w := range warnings {
		g.log.RosterWarning(w)
	}
	g.log.RosterComplete(result.Duration, len(entries), stats.FulfillmentRate)
	return result, nil
}

// unavailableDays 汇总人员在排班横轴上的不可用天
//
// 来源：覆盖当天的非驳回请假、全天缺勤的出勤覆盖记录、
// 全天小时级封锁、以及时间窗与当天重叠的硬约束。
// 离营状态向后传播：离营日之后的每一天都视为不可用，
// 直到出现归营/在营的出勤记录为止。
func unavailableDays(state *model.OrgState, p *model.Person, start time.Time, days int) map[int]bool {
	result := make(map[int]bool)
	absences := state.PersonAbsences(p.ID)
	windows := blockingWindows(state, p)

	away := false
	for d := 0; d < days; d++ {
		day := start.AddDate(0, 0, d)
		date := day.Format("2006-01-02")

		if ov := p.OverrideOn(date); ov != nil {
			switch ov.Status {
			case model.AttendanceAbsent:
				result[d] = true
			case model.AttendanceDeparture:
				away = true
			case model.AttendanceArrival, model.AttendancePresent, model.AttendancePartial:
				away = false
			}
		} else if away {
			result[d] = true
		}
		if result[d] {
			continue
		}

		for _, a := range absences {
			if a.Blocks(date) {
				result[d] = true
				break
			}
		}
		if result[d] {
			continue
		}

		for _, b := range state.PersonBlockages(p.ID, date) {
			if b.IsFullDay() {
				result[d] = true
				break
			}
		}
		if result[d] {
			continue
		}

		dayRange := model.TimeRange{Start: day, End: day.AddDate(0, 0, 1)}
		for _, w := range windows {
			if w.Overlaps(dayRange) {
				result[d] = true
				break
			}
		}
	}
	return result
}

// blockingWindows 收集作用于人员的硬约束时间窗
// 仅限禁止分配与时段封锁；限定到单个任务的约束不影响轮换，
// 无时间窗的禁止分配只约束班次求解，人员照常轮换
func blockingWindows(state *model.OrgState, p *model.Person) []model.TimeRange {
	var windows []model.TimeRange
	for _, c := range state.PersonConstraints(p) {
		if c.Type != model.ConstraintNeverAssign && c.Type != model.ConstraintTimeBlock {
			continue
		}
		if c.TaskID != nil || c.Window == nil {
			continue
		}
		windows = append(windows, *c.Window)
	}
	return windows
}

// Package availability 提供人员单日可用性解析
//
// 将人员的原始出勤/轮换/请假记录解析为有序的忙碌与不可用区间，
// 并写入调用方持有的时间线结构。
package availability

import (
	"fmt"
	"time"

	"github.com/zhiban/zhiban/pkg/model"
	"github.com/zhiban/zhiban/pkg/scheduler/timeline"
)

// EngineVersion 出勤语义版本
// 历史版本对每日出勤状态的解释不同，求解时由调用方选定
type EngineVersion int

const (
	// EngineV1 仅识别全天缺勤状态，忽略上报的部分在营时间窗
	EngineV1 EngineVersion = 1
	// EngineV2 在 V1 基础上识别归营/离营/部分在营时间窗
	EngineV2 EngineVersion = 2
)

// BlockKind 不可用时段来源
type BlockKind string

const (
	BlockAbsence BlockKind = "absence" // 请假
	BlockManual  BlockKind = "manual"  // 手工封锁
)

// UnavailableBlock 单日内的离散不可用时段
type UnavailableBlock struct {
	Range model.TimeRange `json:"range"`
	Kind  BlockKind       `json:"kind"`
}

// DayAvailability 单日可用性描述
type DayAvailability struct {
	IsAvailable bool `json:"is_available"` // 全天是否可用

	// 部分在营窗口（仅 V2 语义下产生）
	PresentFrom  *time.Time `json:"present_from,omitempty"`
	PresentUntil *time.Time `json:"present_until,omitempty"`

	// 离散不可用时段
	Blocks []UnavailableBlock `json:"blocks,omitempty"`
}

// Resolver 可用性解析器
type Resolver struct {
	Version EngineVersion
}

// NewResolver 创建可用性解析器
func NewResolver(version EngineVersion) *Resolver {
	if version != EngineV1 && version != EngineV2 {
		version = EngineV2
	}
	return &Resolver{Version: version}
}

// Resolve 解析人员在目标日期的可用性，并填充调用方的时间线
//
// futureShifts 为已锁定的未来班次（跨日溢出与锁定班次均计入 TASK/REST 区间）
func (r *Resolver) Resolve(
	p *model.Person,
	date string,
	state *model.OrgState,
	futureShifts []*model.Shift,
	tl *timeline.Timeline,
) (*DayAvailability, error) {
	dayStart, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("目标日期无效 %q: %w", date, err)
	}
	dayEnd := dayStart.AddDate(0, 0, 1)
	day := model.TimeRange{Start: dayStart, End: dayEnd}

	avail := &DayAvailability{IsAvailable: true}

	// 请假：覆盖目标日期的非驳回请假 → 全天不可用
	for _, a := range state.PersonAbsences(p.ID) {
		if a.Blocks(date) {
			avail.IsAvailable = false
			tl.AddExternal(day, string(BlockAbsence))
			break
		}
	}

	// 轮换：个人模式优先，其次团队模式；归家日 → 全天不可用
	if avail.IsAvailable && r.onHomeRotation(p, state, dayStart) {
		avail.IsAvailable = false
		tl.AddExternal(day, "rotation")
	}

	// 每日出勤覆盖
	if avail.IsAvailable {
		r.applyOverride(p, date, day, avail, tl)
	}

	// 小时级封锁
	for _, b := range state.PersonBlockages(p.ID, date) {
		if b.IsFullDay() {
			avail.IsAvailable = false
			tl.AddExternal(day, string(BlockManual))
			continue
		}
		br, ok := blockRange(dayStart, b.StartTime, b.EndTime)
		if !ok {
			continue
		}
		kind := BlockManual
		if b.Reason == "absence" {
			kind = BlockAbsence
		}
		avail.Blocks = append(avail.Blocks, UnavailableBlock{Range: br, Kind: kind})
		tl.AddExternal(br, string(kind))
	}

	// 时段封锁约束：与目标日期相交的部分计入外部区间
	for _, c := range state.PersonConstraints(p) {
		if c.Type != model.ConstraintTimeBlock || c.Window == nil {
			continue
		}
		if !c.Window.Overlaps(day) {
			continue
		}
		clipped := *c.Window
		if clipped.Start.Before(day.Start) {
			clipped.Start = day.Start
		}
		if clipped.End.After(day.End) {
			clipped.End = day.End
		}
		tl.AddExternal(clipped, "time_block")
	}

	// 班次巡检：跨日溢出班次与已锁定班次计入 TASK + REST 区间
	addAssigned := func(s *model.Shift) {
		if !s.HasAssigned(p.ID) || !s.OverlapsDate(date) {
			return
		}
		if !s.Locked && !s.Start.Before(dayStart) {
			// 当日未锁定班次由求解器处理
			return
		}
		if err := tl.AddTask(s.TimeRange(), s.ID); err != nil {
			// 区间已被同日班次覆盖
			return
		}
		if s.MinRestHours > 0 {
			rest := model.TimeRange{
				Start: s.End,
				End:   s.End.Add(time.Duration(s.MinRestHours * float64(time.Hour))),
			}
			tl.AddRest(rest)
		}
	}
	for _, s := range state.Shifts {
		addAssigned(s)
	}
	for _, s := range futureShifts {
		addAssigned(s)
	}

	return avail, nil
}

// applyOverride 应用每日出勤覆盖记录
func (r *Resolver) applyOverride(
	p *model.Person,
	date string,
	day model.TimeRange,
	avail *DayAvailability,
	tl *timeline.Timeline,
) {
	ov := p.OverrideOn(date)
	if ov == nil {
		return
	}

	if ov.Status == model.AttendanceAbsent {
		avail.IsAvailable = false
		tl.AddExternal(day, "attendance")
		return
	}

	// V1 语义：部分在营窗口不生效
	if r.Version == EngineV1 {
		return
	}

	switch ov.Status {
	case model.AttendanceArrival:
		// 归营日：窗口起点前不可用
		if from, ok := timeOnDay(day.Start, ov.WindowStart); ok {
			avail.PresentFrom = &from
			tl.AddExternal(model.TimeRange{Start: day.Start, End: from}, "attendance")
		}
	case model.AttendanceDeparture:
		// 离营日：窗口终点后不可用
		if until, ok := timeOnDay(day.Start, ov.WindowEnd); ok {
			avail.PresentUntil = &until
			tl.AddExternal(model.TimeRange{Start: until, End: day.End}, "attendance")
		}
	case model.AttendancePartial, model.AttendancePresent:
		// 上报在营窗口之外的时段不可用
		if from, ok := timeOnDay(day.Start, ov.WindowStart); ok {
			avail.PresentFrom = &from
			tl.AddExternal(model.TimeRange{Start: day.Start, End: from}, "attendance")
		}
		if until, ok := timeOnDay(day.Start, ov.WindowEnd); ok {
			avail.PresentUntil = &until
			tl.AddExternal(model.TimeRange{Start: until, End: day.End}, "attendance")
		}
	}
}

// onHomeRotation 检查目标日期是否落在轮换的归家段
func (r *Resolver) onHomeRotation(p *model.Person, state *model.OrgState, day time.Time) bool {
	var baseDays, homeDays int
	var startDate string

	if p.Rotation != nil {
		baseDays, homeDays, startDate = p.Rotation.BaseDays, p.Rotation.HomeDays, p.Rotation.StartDate
	} else if p.TeamID != nil {
		rot := state.RotationForTeam(*p.TeamID)
		if rot == nil {
			return false
		}
		baseDays, homeDays, startDate = rot.BaseDays, rot.HomeDays, rot.StartDate
	} else {
		return false
	}

	cycle := baseDays + homeDays
	if cycle <= 0 {
		return false
	}
	start, err := time.ParseInLocation("2006-01-02", startDate, day.Location())
	if err != nil {
		return false
	}
	offset := int(day.Sub(start).Hours() / 24)
	pos := ((offset % cycle) + cycle) % cycle
	return pos >= baseDays
}

// timeOnDay 将 HH:MM 字符串落到指定日期上
func timeOnDay(dayStart time.Time, hm string) (time.Time, bool) {
	if hm == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("15:04", hm)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(dayStart.Year(), dayStart.Month(), dayStart.Day(),
		t.Hour(), t.Minute(), 0, 0, dayStart.Location()), true
}

// blockRange 将 HH:MM 起止解析为当日时间范围
func blockRange(dayStart time.Time, from, to string) (model.TimeRange, bool) {
	start, ok1 := timeOnDay(dayStart, from)
	end, ok2 := timeOnDay(dayStart, to)
	if !ok1 || !ok2 || !end.After(start) {
		return model.TimeRange{}, false
	}
	return model.TimeRange{Start: start, End: end}, true
}

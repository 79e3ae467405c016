package roster

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/model"
)

func rosterPerson(name string) *model.Person {
	return &model.Person{BaseModel: model.NewBaseModel(), Name: name, Status: "active"}
}

func rosterState(people ...*model.Person) *model.OrgState {
	return &model.OrgState{Settings: model.DefaultSettings(), People: people}
}

func TestGenerate_DefaultShape(t *testing.T) {
	people := []*model.Person{rosterPerson("甲"), rosterPerson("乙"), rosterPerson("丙")}
	state := rosterState(people...)

	result, err := NewGenerator().Generate(context.Background(), &GenerateInput{
		State:     state,
		StartDate: "2026-01-05",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Stats.BaseDays != 11 || result.Stats.HomeDays != 3 {
		t.Errorf("默认周期形态应为 11/3，got %d/%d", result.Stats.BaseDays, result.Stats.HomeDays)
	}
	if result.Stats.CycleLength != CycleLength {
		t.Errorf("CycleLength = %d, expected %d", result.Stats.CycleLength, CycleLength)
	}
	if len(result.Entries) != len(people)*CycleLength {
		t.Errorf("条目数 = %d, expected %d", len(result.Entries), len(people)*CycleLength)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	people := []*model.Person{
		rosterPerson("甲"), rosterPerson("乙"), rosterPerson("丙"),
		rosterPerson("丁"), rosterPerson("戊"),
	}
	people[1].DailyOverrides = []model.DailyOverride{
		{Date: "2026-01-07", Status: model.AttendanceAbsent},
	}
	input := func() *GenerateInput {
		return &GenerateInput{State: rosterState(people...), StartDate: "2026-01-05", Days: 14}
	}

	first, err := NewGenerator().Generate(context.Background(), input())
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewGenerator().Generate(context.Background(), input())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Entries, second.Entries) {
		t.Error("同一输入应产生同一结果")
	}
}

func TestGenerate_AvoidsUnavailableDays(t *testing.T) {
	p := rosterPerson("甲")
	state := rosterState(p)
	state.Absences = []*model.Absence{
		{PersonID: p.ID, StartDate: "2026-01-05", EndDate: "2026-01-05", Status: model.AbsenceApproved},
	}

	result, err := NewGenerator().Generate(context.Background(), &GenerateInput{
		State:     state,
		StartDate: "2026-01-05",
	})
	if err != nil {
		t.Fatal(err)
	}
	// 仅一人时相位可自由选择，不可用日应落入归家段
	if result.Stats.Violated != 0 {
		t.Errorf("违反约束数 = %d, expected 0", result.Stats.Violated)
	}
	if result.Stats.MetConstraints != 1 {
		t.Errorf("满足约束数 = %d, expected 1", result.Stats.MetConstraints)
	}
	if result.Stats.FulfillmentRate != 100 {
		t.Errorf("满足率 = %v, expected 100", result.Stats.FulfillmentRate)
	}
	for _, e := range result.Entries {
		if e.Date == "2026-01-05" && e.Status != model.RosterUnavailable {
			t.Errorf("不可用日状态 = %s, expected unavailable", e.Status)
		}
	}
}

func TestGenerate_ContinuationHistory(t *testing.T) {
	p := rosterPerson("甲")
	state := rosterState(p)

	result, err := NewGenerator().Generate(context.Background(), &GenerateInput{
		State:     state,
		StartDate: "2026-01-05",
		Days:      3,
		History: map[uuid.UUID]model.ContinuationHistory{
			p.ID: {LastStatus: model.RosterBase, ConsecutiveDays: 10},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	// 已连续在营 10 天，第 11 天（首日）仍在营，随后转归家
	byDate := make(map[string]model.RosterStatus)
	for _, e := range result.Entries {
		byDate[e.Date] = e.Status
	}
	if byDate["2026-01-05"] != model.RosterBase {
		t.Errorf("首日应在营，got %s", byDate["2026-01-05"])
	}
	if byDate["2026-01-06"] != model.RosterHome {
		t.Errorf("次日应转归家，got %s", byDate["2026-01-06"])
	}
}

func TestGenerate_FullDayBlockageUnavailable(t *testing.T) {
	p := rosterPerson("甲")
	state := rosterState(p)
	state.Blockages = []*model.HourlyBlockage{
		{PersonID: p.ID, Date: "2026-01-05", StartTime: "00:00", EndTime: "23:59"},
	}

	result, err := NewGenerator().Generate(context.Background(), &GenerateInput{
		State:     state,
		StartDate: "2026-01-05",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range result.Entries {
		if e.Date == "2026-01-05" && e.Status != model.RosterUnavailable {
			t.Errorf("全天封锁日状态 = %s, expected unavailable", e.Status)
		}
	}
	if result.Stats.Violated != 0 {
		t.Errorf("违反约束数 = %d, expected 0", result.Stats.Violated)
	}
}

func TestGenerate_ConstraintWindowUnavailable(t *testing.T) {
	p := rosterPerson("甲")
	state := rosterState(p)
	day := time.Date(2026, 1, 6, 0, 0, 0, 0, time.Local)
	state.Constraints = []*model.SchedulingConstraint{
		{
			Type: model.ConstraintNeverAssign, Scope: model.ScopePerson, ScopeID: p.ID,
			Window: &model.TimeRange{Start: day, End: day.AddDate(0, 0, 1)},
		},
	}

	result, err := NewGenerator().Generate(context.Background(), &GenerateInput{
		State:     state,
		StartDate: "2026-01-05",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range result.Entries {
		if e.Date == "2026-01-06" && e.Status != model.RosterUnavailable {
			t.Errorf("约束时间窗内状态 = %s, expected unavailable", e.Status)
		}
	}
}

func TestUnavailableDays_BlockagesAndConstraints(t *testing.T) {
	p := rosterPerson("甲")
	taskID := uuid.New()
	state := rosterState(p)
	state.Blockages = []*model.HourlyBlockage{
		{PersonID: p.ID, Date: "2026-01-05", StartTime: "00:00", EndTime: "23:59"},
		{PersonID: p.ID, Date: "2026-01-06", StartTime: "08:00", EndTime: "12:00"},
	}
	window := model.TimeRange{
		Start: time.Date(2026, 1, 7, 10, 0, 0, 0, time.Local),
		End:   time.Date(2026, 1, 7, 12, 0, 0, 0, time.Local),
	}
	state.Constraints = []*model.SchedulingConstraint{
		{Type: model.ConstraintTimeBlock, Scope: model.ScopePerson, ScopeID: p.ID, Window: &window},
		// 限定到单个任务的约束不影响轮换
		{Type: model.ConstraintNeverAssign, Scope: model.ScopePerson, ScopeID: p.ID, TaskID: &taskID},
	}
	state.BuildIndexes()

	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)
	unavailable := unavailableDays(state, p, start, 4)

	for d, want := range map[int]bool{0: true, 1: false, 2: true, 3: false} {
		if unavailable[d] != want {
			t.Errorf("第 %d 天不可用 = %v, expected %v", d, unavailable[d], want)
		}
	}
}

func TestUnavailableDays_DeparturePropagates(t *testing.T) {
	p := rosterPerson("甲")
	p.DailyOverrides = []model.DailyOverride{
		{Date: "2026-01-07", Status: model.AttendanceDeparture},
		{Date: "2026-01-10", Status: model.AttendanceArrival},
	}
	state := rosterState(p)
	state.BuildIndexes()

	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)
	unavailable := unavailableDays(state, p, start, 7)

	// 01-07 离营，当天仍可用，随后不可用直到 01-10 归营
	for d, want := range map[int]bool{0: false, 1: false, 2: false, 3: true, 4: true, 5: false, 6: false} {
		if unavailable[d] != want {
			t.Errorf("第 %d 天不可用 = %v, expected %v", d, unavailable[d], want)
		}
	}
}

func TestGenerate_InputValidation(t *testing.T) {
	g := NewGenerator()
	ctx := context.Background()

	if _, err := g.Generate(ctx, nil); err == nil {
		t.Error("空输入应报错")
	}
	if _, err := g.Generate(ctx, &GenerateInput{State: &model.OrgState{}, StartDate: "bad"}); err == nil {
		t.Error("无效日期应报错")
	}
}

func TestCycleShape(t *testing.T) {
	tests := []struct {
		name         string
		ratio        float64
		rotations    []*model.TeamRotation
		baseDays     int
		homeDays     int
		wantWarnings int
	}{
		{"默认形态", 0, nil, 11, 3, 0},
		{"整除比例无告警", 0.5, nil, 7, 7, 0},
		{"非整除比例取整并告警", 0.75, nil, 11, 3, 1},
		{
			"团队轮换平均比例",
			0,
			[]*model.TeamRotation{{BaseDays: 7, HomeDays: 7}},
			7, 7, 0,
		},
		{"比例占满周期压缩", 1.0, nil, 13, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &model.OrgState{Rotations: tt.rotations}
			baseDays, homeDays, warnings := cycleShape(state, tt.ratio)
			if baseDays != tt.baseDays || homeDays != tt.homeDays {
				t.Errorf("形态 = %d/%d, expected %d/%d", baseDays, homeDays, tt.baseDays, tt.homeDays)
			}
			if len(warnings) != tt.wantWarnings {
				t.Errorf("告警数 = %d, expected %d: %v", len(warnings), tt.wantWarnings, warnings)
			}
		})
	}
}

func TestOnBase(t *testing.T) {
	// 相位 0、在营 11 天：第 0-10 天在营，第 11-13 天归家
	if !onBase(0, 0, 11) || !onBase(0, 10, 11) {
		t.Error("在营段判定错误")
	}
	if onBase(0, 11, 11) || onBase(0, 13, 11) {
		t.Error("归家段判定错误")
	}
	// 周期回绕
	if !onBase(0, 14, 11) {
		t.Error("周期回绕后应重新在营")
	}
	if !onBase(12, 5, 11) {
		t.Error("相位偏移判定错误")
	}
}

func TestContinuationPhase(t *testing.T) {
	tests := []struct {
		name     string
		status   model.RosterStatus
		days     int
		baseDays int
		expected int
	}{
		{"在营中段延续", model.RosterBase, 4, 11, 4},
		{"在营超长钳制", model.RosterBase, 20, 11, 10},
		{"归家段延续", model.RosterHome, 1, 11, 12},
		{"归家超长钳制", model.RosterHome, 5, 11, 13},
		{"负数归零", model.RosterBase, -2, 11, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := model.ContinuationHistory{LastStatus: tt.status, ConsecutiveDays: tt.days}
			if got := continuationPhase(h, tt.baseDays); got != tt.expected {
				t.Errorf("continuationPhase() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestAssignPhases_OccupancySpread(t *testing.T) {
	rosters := make([]*personRoster, 28)
	for i := range rosters {
		rosters[i] = &personRoster{person: rosterPerson("人员"), unavailable: map[int]bool{}}
	}

	assignPhases(rosters, nil, 11)

	occupancy := make(map[int]int)
	for _, pr := range rosters {
		occupancy[pr.phase]++
	}
	// 28 人 14 相位，占位上限 2
	for phase, count := range occupancy {
		if count > 2 {
			t.Errorf("相位 %d 占位 %d，超过上限 2", phase, count)
		}
	}
}

func TestRepairWeekends(t *testing.T) {
	// 2026-01-05 是周一，第 5 天（01-10）是周六
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)
	days := 7

	statuses := func(pattern ...model.RosterStatus) []model.RosterStatus {
		return pattern
	}
	home, base := model.RosterHome, model.RosterBase

	t.Run("周六归营提前到周五", func(t *testing.T) {
		pr := &personRoster{
			person:      rosterPerson("甲"),
			unavailable: map[int]bool{},
			status:      statuses(home, home, home, home, home, base, base),
		}
		repairWeekends([]*personRoster{pr}, start, days, 0)
		if pr.status[4] != base {
			t.Errorf("周五状态 = %s, expected base", pr.status[4])
		}
	})

	t.Run("周五不可用时推迟到周日", func(t *testing.T) {
		pr := &personRoster{
			person:      rosterPerson("甲"),
			unavailable: map[int]bool{4: true},
			status:      statuses(home, home, home, home, home, base, base),
		}
		repairWeekends([]*personRoster{pr}, start, days, 0)
		if pr.status[4] != home {
			t.Error("周五不可用不应被改为在营")
		}
		if pr.status[5] != home {
			t.Errorf("周六状态 = %s, expected home（推迟到周日归营）", pr.status[5])
		}
	})

	t.Run("周六离营提前到周五", func(t *testing.T) {
		pr := &personRoster{
			person:      rosterPerson("甲"),
			unavailable: map[int]bool{},
			status:      statuses(base, base, base, base, base, home, home),
		}
		repairWeekends([]*personRoster{pr}, start, days, 0)
		if pr.status[4] != home {
			t.Errorf("周五状态 = %s, expected home", pr.status[4])
		}
	})

	t.Run("人力不足时改为周日离营", func(t *testing.T) {
		pr := &personRoster{
			person:      rosterPerson("甲"),
			unavailable: map[int]bool{},
			status:      statuses(base, base, base, base, base, home, home),
		}
		repairWeekends([]*personRoster{pr}, start, days, 1)
		if pr.status[4] != base {
			t.Error("提前离营会跌破人力下限，周五应保持在营")
		}
		if pr.status[5] != base {
			t.Errorf("周六状态 = %s, expected base（延后到周日离营）", pr.status[5])
		}
	})

	t.Run("提前归营后离营同步提前保持段长", func(t *testing.T) {
		// 在营段 5-10，归营日周六；提前到周五后段末同步前移
		st := make([]model.RosterStatus, 14)
		for i := range st {
			st[i] = home
		}
		for i := 5; i <= 10; i++ {
			st[i] = base
		}
		pr := &personRoster{person: rosterPerson("甲"), unavailable: map[int]bool{}, status: st}
		repairWeekends([]*personRoster{pr}, start, 14, 0)
		if pr.status[4] != base {
			t.Errorf("周五状态 = %s, expected base", pr.status[4])
		}
		if pr.status[10] != home {
			t.Errorf("段末状态 = %s, expected home", pr.status[10])
		}
		baseDays := 0
		for _, s := range pr.status {
			if s == base {
				baseDays++
			}
		}
		if baseDays != 6 {
			t.Errorf("在营天数 = %d, expected 6（段长保持不变）", baseDays)
		}
	})

	t.Run("推迟归营后离营同步推迟保持段长", func(t *testing.T) {
		st := make([]model.RosterStatus, 14)
		for i := range st {
			st[i] = home
		}
		for i := 5; i <= 8; i++ {
			st[i] = base
		}
		pr := &personRoster{person: rosterPerson("甲"), unavailable: map[int]bool{4: true}, status: st}
		repairWeekends([]*personRoster{pr}, start, 14, 0)
		if pr.status[5] != home {
			t.Errorf("周六状态 = %s, expected home（推迟到周日归营）", pr.status[5])
		}
		if pr.status[9] != base {
			t.Errorf("段末后一日状态 = %s, expected base（离营同步推迟）", pr.status[9])
		}
	})

	t.Run("提前离营后归营同步提前保持段长", func(t *testing.T) {
		pr := &personRoster{
			person:      rosterPerson("甲"),
			unavailable: map[int]bool{},
			status:      statuses(home, base, base, base, base, home, home),
		}
		cover := &personRoster{
			person:      rosterPerson("乙"),
			unavailable: map[int]bool{},
			status:      statuses(base, base, base, base, base, base, base),
		}
		repairWeekends([]*personRoster{pr, cover}, start, days, 1)
		if pr.status[4] != home {
			t.Errorf("周五状态 = %s, expected home", pr.status[4])
		}
		if pr.status[0] != base {
			t.Errorf("段首前一日状态 = %s, expected base（归营同步提前）", pr.status[0])
		}
	})

	t.Run("推迟离营后归营同步推迟保持段长", func(t *testing.T) {
		pr := &personRoster{
			person:      rosterPerson("甲"),
			unavailable: map[int]bool{},
			status:      statuses(home, base, base, base, base, home, home),
		}
		// 乙周五不可用，甲提前离营会跌破人力下限
		cover := &personRoster{
			person:      rosterPerson("乙"),
			unavailable: map[int]bool{4: true},
			status: statuses(base, base, base, base,
				model.RosterUnavailable, base, base),
		}
		repairWeekends([]*personRoster{pr, cover}, start, days, 1)
		if pr.status[5] != base {
			t.Errorf("周六状态 = %s, expected base（推迟到周日离营）", pr.status[5])
		}
		if pr.status[1] != home {
			t.Errorf("段首状态 = %s, expected home（归营同步推迟）", pr.status[1])
		}
	})
}

func TestVerify(t *testing.T) {
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)
	p := rosterPerson("甲")
	pr := &personRoster{
		person:      p,
		phase:       0,
		unavailable: map[int]bool{0: true, 12: true},
		status: []model.RosterStatus{
			model.RosterUnavailable, model.RosterBase, model.RosterBase, model.RosterBase,
			model.RosterBase, model.RosterBase, model.RosterBase, model.RosterBase,
			model.RosterBase, model.RosterBase, model.RosterBase, model.RosterHome,
			model.RosterUnavailable, model.RosterHome,
		},
	}

	entries, unfulfilled, stats := verify([]*personRoster{pr}, start, 14, 11)

	if len(entries) != 14 {
		t.Errorf("条目数 = %d, expected 14", len(entries))
	}
	// 第 0 天模式在营但不可用 -> 违反；第 12 天落在归家段 -> 满足
	if stats.Violated != 1 || stats.MetConstraints != 1 {
		t.Errorf("约束统计 = met %d / violated %d, expected 1/1", stats.MetConstraints, stats.Violated)
	}
	if len(unfulfilled) != 1 || unfulfilled[0].Date != "2026-01-05" {
		t.Errorf("未满足记录不符: %+v", unfulfilled)
	}
	if stats.FulfillmentRate != 50 {
		t.Errorf("满足率 = %v, expected 50", stats.FulfillmentRate)
	}
}

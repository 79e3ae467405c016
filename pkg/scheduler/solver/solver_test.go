package solver

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/model"
)

func testPerson(name string, roles ...uuid.UUID) *model.Person {
	return &model.Person{
		BaseModel: model.NewBaseModel(),
		Name:      name,
		Status:    "active",
		RoleIDs:   roles,
	}
}

func testShift(date string, startHour, endHour int, lines ...model.RoleLine) *model.Shift {
	day, _ := time.ParseInLocation("2006-01-02", date, time.Local)
	return &model.Shift{
		BaseModel: model.NewBaseModel(),
		TaskID:    uuid.New(),
		Start:     day.Add(time.Duration(startHour) * time.Hour),
		End:       day.Add(time.Duration(endHour) * time.Hour),
		Roles:     lines,
	}
}

func testSettings() model.Settings {
	s := model.DefaultSettings()
	s.RareRoleThreshold = 0
	return s
}

func TestSolve_RoleMatching(t *testing.T) {
	guard := uuid.New()
	holder := testPerson("甲", guard)
	other := testPerson("乙")
	shift := testShift("2026-01-05", 9, 17, model.RoleLine{RoleID: guard, Count: 1})
	state := &model.OrgState{
		Settings: testSettings(),
		People:   []*model.Person{holder, other},
		Shifts:   []*model.Shift{shift},
	}

	result, err := NewEngine().Solve(context.Background(), &SolveInput{State: state, StartDate: "2026-01-05"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Shifts) != 1 {
		t.Fatalf("应求解 1 个班次，got %d", len(result.Shifts))
	}
	assigned := result.Shifts[0].AssignedPersonIDs
	if len(assigned) != 1 || assigned[0] != holder.ID {
		t.Errorf("应分配角色持有者，got %v", assigned)
	}
	if len(result.Failures) != 0 {
		t.Errorf("不应有失败记录: %+v", result.Failures)
	}
	// 输入班次保持只读
	if len(shift.AssignedPersonIDs) != 0 {
		t.Error("求解不应改写输入班次")
	}
}

func TestSolve_FairnessPrefersLowerLoad(t *testing.T) {
	guard := uuid.New()
	busy := testPerson("甲", guard)
	idle := testPerson("乙", guard)
	shift := testShift("2026-01-05", 9, 17, model.RoleLine{RoleID: guard, Count: 1})
	state := &model.OrgState{
		Settings: testSettings(),
		People:   []*model.Person{busy, idle},
		Shifts:   []*model.Shift{shift},
	}

	result, err := NewEngine().Solve(context.Background(), &SolveInput{
		State:         state,
		StartDate:     "2026-01-05",
		HistoryScores: map[uuid.UUID]float64{busy.ID: 100},
	})
	if err != nil {
		t.Fatal(err)
	}
	assigned := result.Shifts[0].AssignedPersonIDs
	if len(assigned) != 1 || assigned[0] != idle.ID {
		t.Errorf("应优先分配负载较低者，got %v", assigned)
	}
}

func TestSolve_MultiRoleComposition(t *testing.T) {
	commander := uuid.New()
	warrior := uuid.New()
	people := []*model.Person{
		testPerson("指挥", commander),
		testPerson("战士一", warrior),
		testPerson("战士二", warrior),
	}
	shift := testShift("2026-01-05", 20, 23,
		model.RoleLine{RoleID: commander, Count: 1},
		model.RoleLine{RoleID: warrior, Count: 2},
	)
	state := &model.OrgState{
		Settings: testSettings(),
		People:   people,
		Shifts:   []*model.Shift{shift},
	}

	result, err := NewEngine().Solve(context.Background(), &SolveInput{State: state, StartDate: "2026-01-05"})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(result.Shifts[0].AssignedPersonIDs); got != 3 {
		t.Errorf("三个班位应全部填满，got %d", got)
	}
	if result.Stats.FullyAssigned != 1 {
		t.Errorf("FullyAssigned = %d, expected 1", result.Stats.FullyAssigned)
	}
	if result.Stats.FilledSlots != 3 || result.Stats.TotalSlots != 3 {
		t.Errorf("班位统计不符: %+v", result.Stats)
	}
}

func TestSolve_NoDoubleBooking(t *testing.T) {
	guard := uuid.New()
	p := testPerson("甲", guard)
	first := testShift("2026-01-05", 9, 12, model.RoleLine{RoleID: guard, Count: 1})
	second := testShift("2026-01-05", 10, 13, model.RoleLine{RoleID: guard, Count: 1})
	state := &model.OrgState{
		Settings: testSettings(),
		People:   []*model.Person{p},
		Shifts:   []*model.Shift{first, second},
	}

	result, err := NewEngine().Solve(context.Background(), &SolveInput{State: state, StartDate: "2026-01-05"})
	if err != nil {
		t.Fatal(err)
	}
	totalAssigned := 0
	for _, s := range result.Shifts {
		totalAssigned += len(s.AssignedPersonIDs)
	}
	if totalAssigned != 1 {
		t.Errorf("同一人不应重叠执勤，总分配数 = %d", totalAssigned)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("应有 1 条失败记录，got %d", len(result.Failures))
	}
	if result.Failures[0].Reason != model.FailureUnavailable {
		t.Errorf("失败原因 = %s, expected unavailable", result.Failures[0].Reason)
	}
}

func TestSolve_RestRelaxationLadder(t *testing.T) {
	guard := uuid.New()
	p := testPerson("甲", guard)
	morning := testShift("2026-01-05", 9, 12, model.RoleLine{RoleID: guard, Count: 1})
	morning.MinRestHours = 8
	afternoon := testShift("2026-01-05", 13, 17, model.RoleLine{RoleID: guard, Count: 1})
	state := &model.OrgState{
		Settings: testSettings(),
		People:   []*model.Person{p},
		Shifts:   []*model.Shift{morning, afternoon},
	}

	result, err := NewEngine().Solve(context.Background(), &SolveInput{State: state, StartDate: "2026-01-05"})
	if err != nil {
		t.Fatal(err)
	}
	// 下午班落在上午班的休息窗口内，应通过放宽层级仍被填满
	for _, s := range result.Shifts {
		if len(s.AssignedPersonIDs) != 1 {
			t.Errorf("班次 %s 应填满，got %d 人", s.ID, len(s.AssignedPersonIDs))
		}
	}
	if len(result.Failures) != 0 {
		t.Errorf("不应有失败记录: %+v", result.Failures)
	}
}

func TestSolve_NeverAssignConstraint(t *testing.T) {
	guard := uuid.New()
	p := testPerson("甲", guard)
	shift := testShift("2026-01-05", 9, 17, model.RoleLine{RoleID: guard, Count: 1})
	state := &model.OrgState{
		Settings: testSettings(),
		People:   []*model.Person{p},
		Shifts:   []*model.Shift{shift},
		Constraints: []*model.SchedulingConstraint{
			{Type: model.ConstraintNeverAssign, Scope: model.ScopePerson, ScopeID: p.ID},
		},
	}

	result, err := NewEngine().Solve(context.Background(), &SolveInput{State: state, StartDate: "2026-01-05"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Shifts[0].AssignedPersonIDs) != 0 {
		t.Error("被禁止分配的人员不应入班")
	}
	if len(result.Failures) != 1 || result.Failures[0].Reason != model.FailureConstraintViolation {
		t.Errorf("失败原因应为 constraint_violation: %+v", result.Failures)
	}
}

func TestSolve_AlwaysAssignConstraint(t *testing.T) {
	guard := uuid.New()
	idle := testPerson("甲", guard)
	designated := testPerson("乙", guard)
	shift := testShift("2026-01-05", 9, 17, model.RoleLine{RoleID: guard, Count: 1})
	state := &model.OrgState{
		Settings: testSettings(),
		People:   []*model.Person{idle, designated},
		Shifts:   []*model.Shift{shift},
		Constraints: []*model.SchedulingConstraint{
			{Type: model.ConstraintAlwaysAssign, Scope: model.ScopePerson, ScopeID: designated.ID},
		},
	}

	// 指定人员负载更高，仍应优先入班
	result, err := NewEngine().Solve(context.Background(), &SolveInput{
		State:         state,
		StartDate:     "2026-01-05",
		HistoryScores: map[uuid.UUID]float64{designated.ID: 100},
	})
	if err != nil {
		t.Fatal(err)
	}
	assigned := result.Shifts[0].AssignedPersonIDs
	if len(assigned) != 1 || assigned[0] != designated.ID {
		t.Errorf("必须分配约束应优先生效，got %v", assigned)
	}
}

func TestSolve_AlwaysAssignSilentDegrade(t *testing.T) {
	guard := uuid.New()
	p := testPerson("甲", guard)
	designated := testPerson("乙", guard)
	shift := testShift("2026-01-05", 9, 17, model.RoleLine{RoleID: guard, Count: 1})
	state := &model.OrgState{
		Settings: testSettings(),
		People:   []*model.Person{p, designated},
		Shifts:   []*model.Shift{shift},
		Absences: []*model.Absence{
			{PersonID: designated.ID, StartDate: "2026-01-05", EndDate: "2026-01-05", Status: model.AbsenceApproved},
		},
		Constraints: []*model.SchedulingConstraint{
			{Type: model.ConstraintAlwaysAssign, Scope: model.ScopePerson, ScopeID: designated.ID},
		},
	}

	result, err := NewEngine().Solve(context.Background(), &SolveInput{State: state, StartDate: "2026-01-05"})
	if err != nil {
		t.Fatal(err)
	}
	// 指定人员请假，静默降级由他人顶班，不产生失败记录
	assigned := result.Shifts[0].AssignedPersonIDs
	if len(assigned) != 1 || assigned[0] != p.ID {
		t.Errorf("应降级为常规分配，got %v", assigned)
	}
	if len(result.Failures) != 0 {
		t.Errorf("静默降级不应产生失败记录: %+v", result.Failures)
	}
}

func TestSolve_InterPersonConstraint(t *testing.T) {
	a := testPerson("甲")
	a.CustomFields = model.JSONMap{"armed": "是"}
	b := testPerson("乙")
	b.CustomFields = model.JSONMap{"armed": "true"}
	shift := testShift("2026-01-05", 9, 17, model.RoleLine{RoleID: model.AnyRoleID, Count: 2})
	state := &model.OrgState{
		Settings: testSettings(),
		People:   []*model.Person{a, b},
		Shifts:   []*model.Shift{shift},
		InterPerson: []*model.InterPersonConstraint{
			{
				Type:      model.ForbiddenTogether,
				SelectorA: model.AttributeSelector{Kind: model.SelectorField, Field: "armed"},
				ValueA:    "true",
				SelectorB: model.AttributeSelector{Kind: model.SelectorField, Field: "armed"},
				ValueB:    "true",
			},
		},
	}

	result, err := NewEngine().Solve(context.Background(), &SolveInput{State: state, StartDate: "2026-01-05"})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(result.Shifts[0].AssignedPersonIDs); got != 1 {
		t.Errorf("互斥人员不应同班，got %d 人", got)
	}
	if len(result.Failures) != 1 || result.Failures[0].Reason != model.FailureConstraintViolation {
		t.Errorf("缺口应诊断为约束排除: %+v", result.Failures)
	}
}

func TestSolve_CriticalShiftFirst(t *testing.T) {
	guard := uuid.New()
	p := testPerson("甲", guard)
	tmpl := &model.TaskTemplate{BaseModel: model.NewBaseModel(), Difficulty: 9, IsActive: true}
	critical := testShift("2026-01-05", 10, 13, model.RoleLine{RoleID: guard, Count: 1})
	critical.TaskID = tmpl.ID
	normal := testShift("2026-01-05", 9, 12, model.RoleLine{RoleID: guard, Count: 1})
	state := &model.OrgState{
		Settings:      testSettings(),
		People:        []*model.Person{p},
		TaskTemplates: []*model.TaskTemplate{tmpl},
		Shifts:        []*model.Shift{normal, critical},
	}

	result, err := NewEngine().Solve(context.Background(), &SolveInput{State: state, StartDate: "2026-01-05"})
	if err != nil {
		t.Fatal(err)
	}
	// 关键班次先求解，唯一人员归它所有
	for _, s := range result.Shifts {
		if s.ID == critical.ID && len(s.AssignedPersonIDs) != 1 {
			t.Error("关键班次应被填满")
		}
		if s.ID == normal.ID && len(s.AssignedPersonIDs) != 0 {
			t.Error("普通班次应让位于关键班次")
		}
	}
}

func TestSolve_AnyRoleRelaxationAssignsNonHolder(t *testing.T) {
	guard := uuid.New()
	p := testPerson("甲")
	shift := testShift("2026-01-05", 9, 17, model.RoleLine{RoleID: guard, Count: 1})
	state := &model.OrgState{
		Settings: testSettings(),
		People:   []*model.Person{p},
		Shifts:   []*model.Shift{shift},
	}

	result, err := NewEngine().Solve(context.Background(), &SolveInput{State: state, StartDate: "2026-01-05"})
	if err != nil {
		t.Fatal(err)
	}
	// 最宽层级不再要求角色匹配，未持有角色的人员也可入班
	assigned := result.Shifts[0].AssignedPersonIDs
	if len(assigned) != 1 || assigned[0] != p.ID {
		t.Errorf("最宽层级应放宽角色要求，got %v", assigned)
	}
	if len(result.Failures) != 0 {
		t.Errorf("不应有失败记录: %+v", result.Failures)
	}
}

func TestSolve_RoleMismatchDiagnosis(t *testing.T) {
	guard := uuid.New()
	p := testPerson("甲")
	shift := testShift("2026-01-05", 9, 17, model.RoleLine{RoleID: guard, Count: 1})
	state := &model.OrgState{
		Settings: testSettings(),
		People:   []*model.Person{p},
		Shifts:   []*model.Shift{shift},
		Absences: []*model.Absence{
			{PersonID: p.ID, StartDate: "2026-01-05", EndDate: "2026-01-05", Status: model.AbsenceApproved},
		},
	}

	result, err := NewEngine().Solve(context.Background(), &SolveInput{State: state, StartDate: "2026-01-05"})
	if err != nil {
		t.Fatal(err)
	}
	// 唯一人员既不持有角色也不可用，缺口归因到角色缺失
	if len(result.Failures) != 1 || result.Failures[0].Reason != model.FailureRoleMismatch {
		t.Fatalf("应诊断为无人持有角色: %+v", result.Failures)
	}
	if result.Failures[0].Missing != 1 {
		t.Errorf("缺口人数 = %d, expected 1", result.Failures[0].Missing)
	}
}

func TestSolve_StrictOrganicSuggestion(t *testing.T) {
	guard := uuid.New()
	teamA := uuid.New()
	teamB := uuid.New()
	member := testPerson("甲", guard)
	member.TeamID = &teamA
	outsider := testPerson("乙", guard)
	outsider.TeamID = &teamB

	shift := testShift("2026-01-05", 9, 17, model.RoleLine{RoleID: guard, Count: 2})
	shift.TeamID = &teamA
	state := &model.OrgState{
		Settings: testSettings(),
		People:   []*model.Person{member, outsider},
		Shifts:   []*model.Shift{shift},
	}

	result, err := NewEngine().Solve(context.Background(), &SolveInput{
		State:         state,
		StartDate:     "2026-01-05",
		StrictOrganic: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	assigned := result.Shifts[0].AssignedPersonIDs
	if len(assigned) != 1 || assigned[0] != member.ID {
		t.Fatalf("建制保持下仅团队成员入班，got %v", assigned)
	}
	if len(result.Suggestions) != 1 {
		t.Fatalf("缺口应转为建议，got %d", len(result.Suggestions))
	}
	sug := result.Suggestions[0]
	if sug.Missing != 1 {
		t.Errorf("建议缺口 = %d, expected 1", sug.Missing)
	}
	if len(sug.Alternatives) != 1 || sug.Alternatives[0].ID != outsider.ID {
		t.Errorf("候选人应来自其他团队: %+v", sug.Alternatives)
	}
	if len(result.Failures) != 0 {
		t.Errorf("建议模式不应产生失败记录: %+v", result.Failures)
	}
}

func TestSolve_CrossTeamFillWithoutStrictOrganic(t *testing.T) {
	guard := uuid.New()
	teamA := uuid.New()
	teamB := uuid.New()
	member := testPerson("甲", guard)
	member.TeamID = &teamA
	outsider := testPerson("乙", guard)
	outsider.TeamID = &teamB

	shift := testShift("2026-01-05", 9, 17, model.RoleLine{RoleID: guard, Count: 2})
	shift.TeamID = &teamA
	state := &model.OrgState{
		Settings: testSettings(),
		People:   []*model.Person{member, outsider},
		Shifts:   []*model.Shift{shift},
	}

	result, err := NewEngine().Solve(context.Background(), &SolveInput{State: state, StartDate: "2026-01-05"})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(result.Shifts[0].AssignedPersonIDs); got != 2 {
		t.Errorf("默认模式应跨团队补位，got %d 人", got)
	}
	if len(result.Suggestions) != 0 {
		t.Errorf("默认模式不应产生建议: %+v", result.Suggestions)
	}
}

func TestSolve_MultiDayLoadAccumulation(t *testing.T) {
	guard := uuid.New()
	p := testPerson("甲", guard)
	day1 := testShift("2026-01-05", 9, 17, model.RoleLine{RoleID: guard, Count: 1})
	day2 := testShift("2026-01-06", 9, 17, model.RoleLine{RoleID: guard, Count: 1})
	state := &model.OrgState{
		Settings: testSettings(),
		People:   []*model.Person{p},
		Shifts:   []*model.Shift{day1, day2},
	}

	result, err := NewEngine().Solve(context.Background(), &SolveInput{
		State:     state,
		StartDate: "2026-01-05",
		EndDate:   "2026-01-06",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Shifts) != 2 {
		t.Fatalf("两日班次应全部求解，got %d", len(result.Shifts))
	}
	if len(result.Loads) != 1 {
		t.Fatalf("应导出 1 条负载，got %d", len(result.Loads))
	}
	load := result.Loads[0]
	if load.LoadScore != 16 {
		t.Errorf("负载应跨日累计为 16，got %v", load.LoadScore)
	}
	if load.ShiftCount != 2 {
		t.Errorf("班次数 = %d, expected 2", load.ShiftCount)
	}
}

func TestSolve_NightShiftLoadWeighted(t *testing.T) {
	guard := uuid.New()
	p := testPerson("甲", guard)
	night := testShift("2026-01-05", 22, 24, model.RoleLine{RoleID: guard, Count: 1})
	state := &model.OrgState{
		Settings: testSettings(),
		People:   []*model.Person{p},
		Shifts:   []*model.Shift{night},
	}

	result, err := NewEngine().Solve(context.Background(), &SolveInput{State: state, StartDate: "2026-01-05"})
	if err != nil {
		t.Fatal(err)
	}
	// 2 小时夜班按 1.5 倍计为 3 分
	if got := result.Loads[0].LoadScore; got != 3 {
		t.Errorf("夜班负载 = %v, expected 3", got)
	}
}

func TestSolve_ShiftFilter(t *testing.T) {
	guard := uuid.New()
	p := testPerson("甲", guard)
	wanted := testShift("2026-01-05", 9, 12, model.RoleLine{RoleID: guard, Count: 1})
	ignored := testShift("2026-01-05", 14, 17, model.RoleLine{RoleID: guard, Count: 1})
	state := &model.OrgState{
		Settings: testSettings(),
		People:   []*model.Person{p},
		Shifts:   []*model.Shift{wanted, ignored},
	}

	result, err := NewEngine().Solve(context.Background(), &SolveInput{
		State:       state,
		StartDate:   "2026-01-05",
		ShiftFilter: []uuid.UUID{wanted.ID},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Shifts) != 1 || result.Shifts[0].ID != wanted.ID {
		t.Errorf("应仅求解过滤命中的班次: %d", len(result.Shifts))
	}
}

func TestSolve_SkipsLockedAndCancelled(t *testing.T) {
	guard := uuid.New()
	p := testPerson("甲", guard)
	locked := testShift("2026-01-05", 9, 12, model.RoleLine{RoleID: guard, Count: 1})
	locked.Locked = true
	cancelled := testShift("2026-01-05", 14, 17, model.RoleLine{RoleID: guard, Count: 1})
	cancelled.Cancelled = true
	state := &model.OrgState{
		Settings: testSettings(),
		People:   []*model.Person{p},
		Shifts:   []*model.Shift{locked, cancelled},
	}

	result, err := NewEngine().Solve(context.Background(), &SolveInput{State: state, StartDate: "2026-01-05"})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Shifts) != 0 {
		t.Errorf("锁定与取消班次不应参与求解，got %d", len(result.Shifts))
	}
}

func TestSolve_InputValidation(t *testing.T) {
	engine := NewEngine()
	ctx := context.Background()

	if _, err := engine.Solve(ctx, nil); err == nil {
		t.Error("空输入应报错")
	}
	if _, err := engine.Solve(ctx, &SolveInput{State: &model.OrgState{}, StartDate: "bad"}); err == nil {
		t.Error("无效日期应报错")
	}
	if _, err := engine.Solve(ctx, &SolveInput{
		State:     &model.OrgState{},
		StartDate: "2026-01-05",
		EndDate:   "2026-01-01",
	}); err == nil {
		t.Error("结束日期早于起始日期应报错")
	}
}

package stats

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/model"
)

func TestCoverageAnalyzer_AnalyzeShifts(t *testing.T) {
	analyzer := NewCoverageAnalyzer()

	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)
	full := shiftAt(day, 9, 17, uuid.New(), uuid.New())
	full.RequiredCount = 2
	short := shiftAt(day, 20, 23, uuid.New())
	short.RequiredCount = 2

	metrics := analyzer.AnalyzeShifts([]*model.Shift{full, short})

	if metrics.TotalSlots != 4 || metrics.FilledSlots != 3 {
		t.Errorf("班位统计 = %d/%d, expected 3/4", metrics.FilledSlots, metrics.TotalSlots)
	}
	if metrics.OverallCoverage != 75 {
		t.Errorf("整体覆盖率 = %v, expected 75", metrics.OverallCoverage)
	}
	if len(metrics.UnfilledShifts) != 1 {
		t.Fatalf("应有 1 个未填满班次，got %d", len(metrics.UnfilledShifts))
	}
	uf := metrics.UnfilledShifts[0]
	if uf.Required != 2 || uf.Assigned != 1 {
		t.Errorf("未填满记录不符: %+v", uf)
	}

	daily, ok := metrics.DailyCoverage["2026-01-05"]
	if !ok {
		t.Fatal("应有当日覆盖统计")
	}
	if daily.TotalSlots != 4 || daily.FilledSlots != 3 {
		t.Errorf("当日班位统计不符: %+v", daily)
	}

	// 9-17 点全部填满，20-23 点只填一半
	if metrics.HourlyCoverage[10] != 100 {
		t.Errorf("10 点覆盖率 = %v, expected 100", metrics.HourlyCoverage[10])
	}
	if metrics.HourlyCoverage[21] != 50 {
		t.Errorf("21 点覆盖率 = %v, expected 50", metrics.HourlyCoverage[21])
	}
	if metrics.HourlyCoverage[3] != 100 {
		t.Errorf("无需求时段覆盖率 = %v, expected 100", metrics.HourlyCoverage[3])
	}
}

func TestCoverageAnalyzer_EmptyShifts(t *testing.T) {
	metrics := NewCoverageAnalyzer().AnalyzeShifts(nil)

	if metrics.OverallCoverage != 100 {
		t.Errorf("无班次覆盖率 = %v, expected 100", metrics.OverallCoverage)
	}
	if len(metrics.UnfilledShifts) != 0 {
		t.Error("无班次不应有未填满记录")
	}
}

func TestCoverageAnalyzer_OverAssignedCapped(t *testing.T) {
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.Local)
	over := shiftAt(day, 9, 17, uuid.New(), uuid.New(), uuid.New())
	over.RequiredCount = 2

	metrics := NewCoverageAnalyzer().AnalyzeShifts([]*model.Shift{over})
	if metrics.FilledSlots != 2 {
		t.Errorf("超配班次应按需求封顶，got %d", metrics.FilledSlots)
	}
	if metrics.OverallCoverage != 100 {
		t.Errorf("覆盖率 = %v, expected 100", metrics.OverallCoverage)
	}
}

func TestCoverageAnalyzer_AnalyzeRoster(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	entries := []model.RosterEntry{
		{PersonID: a, Date: "2026-01-05", Status: model.RosterBase},
		{PersonID: b, Date: "2026-01-05", Status: model.RosterBase},
		{PersonID: a, Date: "2026-01-06", Status: model.RosterBase},
		{PersonID: b, Date: "2026-01-06", Status: model.RosterHome},
		{PersonID: a, Date: "2026-01-07", Status: model.RosterHome},
		{PersonID: b, Date: "2026-01-07", Status: model.RosterHome},
	}

	understaffed := NewCoverageAnalyzer().AnalyzeRoster(entries, 2)

	if len(understaffed) != 2 {
		t.Fatalf("应有 2 个人力不足日，got %d", len(understaffed))
	}
	if understaffed[0].Date != "2026-01-06" || understaffed[0].Shortage != 1 {
		t.Errorf("首个不足日不符: %+v", understaffed[0])
	}
	if understaffed[1].Date != "2026-01-07" || understaffed[1].BaseCount != 0 {
		t.Errorf("次个不足日不符: %+v", understaffed[1])
	}
}

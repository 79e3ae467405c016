// Package stats 提供排班统计分析功能
package stats

import (
	"sort"

	"github.com/zhiban/zhiban/pkg/model"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	// 班位覆盖
	TotalSlots      int     `json:"total_slots"`      // 总班位数
	FilledSlots     int     `json:"filled_slots"`     // 已填班位数
	OverallCoverage float64 `json:"overall_coverage"` // 整体覆盖率 (%)

	// 按日期统计
	DailyCoverage map[string]DayCoverage `json:"daily_coverage"`

	// 按小时统计（0-23）
	HourlyCoverage map[int]float64 `json:"hourly_coverage"`

	// 问题识别
	UnfilledShifts []UnfilledShift `json:"unfilled_shifts,omitempty"`
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	TotalSlots   int     `json:"total_slots"`
	FilledSlots  int     `json:"filled_slots"`
	CoverageRate float64 `json:"coverage_rate"`
	TotalHours   float64 `json:"total_hours"`
}

// UnfilledShift 未填满的班次
type UnfilledShift struct {
	ShiftID   string `json:"shift_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Required  int    `json:"required"`
	Assigned  int    `json:"assigned"`
}

// StaffingDay 轮换排班的每日在营人力
type StaffingDay struct {
	Date      string `json:"date"`
	BaseCount int    `json:"base_count"`
	Required  int    `json:"required"`
	Shortage  int    `json:"shortage"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// AnalyzeShifts 分析求解结果的班位覆盖率
func (c *CoverageAnalyzer) AnalyzeShifts(shifts []*model.Shift) *CoverageMetrics {
	metrics := &CoverageMetrics{
		DailyCoverage:  make(map[string]DayCoverage),
		HourlyCoverage: make(map[int]float64),
	}
	if len(shifts) == 0 {
		metrics.OverallCoverage = 100
		return metrics
	}

	dailySlots := make(map[string]*DayCoverage)
	hourlyRequired := make(map[int]int)
	hourlyFilled := make(map[int]int)

	for _, s := range shifts {
		required := s.RequiredCount
		assigned := len(s.AssignedPersonIDs)
		filled := assigned
		if filled > required {
			filled = required
		}

		metrics.TotalSlots += required
		metrics.FilledSlots += filled

		date := s.Start.Format("2006-01-02")
		day, exists := dailySlots[date]
		if !exists {
			day = &DayCoverage{Date: date}
			dailySlots[date] = day
		}
		day.TotalSlots += required
		day.FilledSlots += filled
		day.TotalHours += s.DurationHours() * float64(filled)

		if assigned < required {
			metrics.UnfilledShifts = append(metrics.UnfilledShifts, UnfilledShift{
				ShiftID:   s.ID.String(),
				Date:      date,
				StartTime: s.Start.Format("15:04"),
				EndTime:   s.End.Format("15:04"),
				Required:  required,
				Assigned:  assigned,
			})
		}

		startHour := s.Start.Hour()
		endHour := startHour + int(s.DurationHours())
		for h := startHour; h < endHour; h++ {
			hour := h % 24
			hourlyRequired[hour] += required
			hourlyFilled[hour] += filled
		}
	}

	if metrics.TotalSlots > 0 {
		metrics.OverallCoverage = float64(metrics.FilledSlots) / float64(metrics.TotalSlots) * 100
	}
	for date, day := range dailySlots {
		if day.TotalSlots > 0 {
			day.CoverageRate = float64(day.FilledSlots) / float64(day.TotalSlots) * 100
		}
		metrics.DailyCoverage[date] = *day
	}
	for hour := 0; hour < 24; hour++ {
		if hourlyRequired[hour] > 0 {
			metrics.HourlyCoverage[hour] = float64(hourlyFilled[hour]) / float64(hourlyRequired[hour]) * 100
		} else {
			metrics.HourlyCoverage[hour] = 100
		}
	}

	sort.Slice(metrics.UnfilledShifts, func(i, j int) bool {
		a, b := metrics.UnfilledShifts[i], metrics.UnfilledShifts[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.ShiftID < b.ShiftID
	})
	return metrics
}

// AnalyzeRoster 分析轮换排班的每日在营人力
// 返回在营人数低于最低要求的天（按日期升序）
func (c *CoverageAnalyzer) AnalyzeRoster(entries []model.RosterEntry, minDailyStaff int) []StaffingDay {
	baseCounts := make(map[string]int)
	for _, e := range entries {
		if e.Status == model.RosterBase {
			baseCounts[e.Date]++
		} else if _, seen := baseCounts[e.Date]; !seen {
			baseCounts[e.Date] = 0
		}
	}

	var understaffed []StaffingDay
	for date, count := range baseCounts {
		if count < minDailyStaff {
			understaffed = append(understaffed, StaffingDay{
				Date:      date,
				BaseCount: count,
				Required:  minDailyStaff,
				Shortage:  minDailyStaff - count,
			})
		}
	}
	sort.Slice(understaffed, func(i, j int) bool {
		return understaffed[i].Date < understaffed[j].Date
	})
	return understaffed
}

// Package stats 提供排班统计分析功能
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/zhiban/zhiban/pkg/model"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	// 负载公平性
	LoadGini      float64 `json:"load_gini"`     // 负载基尼系数 (0=完全公平, 1=完全不公平)
	LoadVariance  float64 `json:"load_variance"` // 负载方差
	LoadStdDev    float64 `json:"load_std_dev"`  // 负载标准差
	AvgLoad       float64 `json:"avg_load"`      // 人均负载
	MaxLoad       float64 `json:"max_load"`      // 最大负载
	MinLoad       float64 `json:"min_load"`      // 最小负载
	LoadRange     float64 `json:"load_range"`    // 负载极差
	HoursGini     float64 `json:"hours_gini"`    // 执勤时长基尼系数
	NightGini     float64 `json:"night_gini"`    // 夜班分配基尼系数
	WeekendGini   float64 `json:"weekend_gini"`  // 周末班分配基尼系数
	PersonStats   []PersonStat `json:"person_stats"`
	OverallScore  float64 `json:"overall_score"` // 综合公平性评分 (0-100)
}

// PersonStat 人员统计
type PersonStat struct {
	PersonID      string  `json:"person_id"`
	PersonName    string  `json:"person_name"`
	LoadScore     float64 `json:"load_score"`
	TotalHours    float64 `json:"total_hours"`
	ShiftCount    int     `json:"shift_count"`
	NightShifts   int     `json:"night_shifts"`
	WeekendShifts int     `json:"weekend_shifts"`
	Deviation     float64 `json:"deviation"` // 与平均负载的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct {
	settings model.Settings
}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer(settings model.Settings) *FairnessAnalyzer {
	return &FairnessAnalyzer{settings: settings}
}

// Analyze 分析求解结果的负载公平性
// loads 为求解器导出的负载列表，shifts 为已求解班次
func (f *FairnessAnalyzer) Analyze(loads []model.PersonLoad, shifts []*model.Shift) *FairnessMetrics {
	if len(loads) == 0 {
		return &FairnessMetrics{OverallScore: 100}
	}

	stats := f.buildPersonStats(loads, shifts)

	loadValues := make([]float64, len(stats))
	hourValues := make([]float64, len(stats))
	nightValues := make([]float64, len(stats))
	weekendValues := make([]float64, len(stats))
	for i, s := range stats {
		loadValues[i] = s.LoadScore
		hourValues[i] = s.TotalHours
		nightValues[i] = float64(s.NightShifts)
		weekendValues[i] = float64(s.WeekendShifts)
	}

	avg := mean(loadValues)
	variance := varianceOf(loadValues, avg)
	stdDev := math.Sqrt(variance)
	maxLoad, minLoad := rangeOf(loadValues)

	for i := range stats {
		if avg > 0 {
			stats[i].Deviation = (stats[i].LoadScore - avg) / avg * 100
		}
	}

	loadGini := gini(loadValues)
	hoursGini := gini(hourValues)
	nightGini := gini(nightValues)
	weekendGini := gini(weekendValues)

	return &FairnessMetrics{
		LoadGini:     loadGini,
		LoadVariance: variance,
		LoadStdDev:   stdDev,
		AvgLoad:      avg,
		MaxLoad:      maxLoad,
		MinLoad:      minLoad,
		LoadRange:    maxLoad - minLoad,
		HoursGini:    hoursGini,
		NightGini:    nightGini,
		WeekendGini:  weekendGini,
		PersonStats:  stats,
		OverallScore: overallScore(loadGini, nightGini, weekendGini, stdDev, avg),
	}
}

// buildPersonStats 汇总每人的执勤时长与夜班/周末班计数
func (f *FairnessAnalyzer) buildPersonStats(loads []model.PersonLoad, shifts []*model.Shift) []PersonStat {
	stats := make([]PersonStat, 0, len(loads))
	index := make(map[string]int, len(loads))
	for _, l := range loads {
		index[l.PersonID.String()] = len(stats)
		stats = append(stats, PersonStat{
			PersonID:   l.PersonID.String(),
			PersonName: l.Name,
			LoadScore:  l.LoadScore,
			ShiftCount: l.ShiftCount,
		})
	}

	for _, s := range shifts {
		hours := s.DurationHours()
		night := f.isNightShift(s)
		weekend := isWeekendShift(s)
		for _, personID := range s.AssignedPersonIDs {
			i, ok := index[personID.String()]
			if !ok {
				continue
			}
			stats[i].TotalHours += hours
			if night {
				stats[i].NightShifts++
			}
			if weekend {
				stats[i].WeekendShifts++
			}
		}
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].LoadScore != stats[j].LoadScore {
			return stats[i].LoadScore > stats[j].LoadScore
		}
		return stats[i].PersonID < stats[j].PersonID
	})
	return stats
}

// isNightShift 检查班次是否与夜班时间窗有交集
func (f *FairnessAnalyzer) isNightShift(s *model.Shift) bool {
	for t := s.Start; t.Before(s.End); t = t.Add(time.Hour) {
		if f.settings.IsNightHour(t.Hour()) {
			return true
		}
	}
	return false
}

// isWeekendShift 检查班次是否从周五晚或周末开始
func isWeekendShift(s *model.Shift) bool {
	switch s.Start.Weekday() {
	case time.Friday:
		return s.Start.Hour() >= 18
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// mean 计算平均值
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// varianceOf 计算方差
func varianceOf(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

// rangeOf 计算极值
func rangeOf(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// gini 计算基尼系数
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}
	g = g / (float64(n) * sum)
	return math.Max(0, math.Min(1, g))
}

// overallScore 计算综合公平性评分
func overallScore(loadGini, nightGini, weekendGini, stdDev, avgLoad float64) float64 {
	const (
		loadWeight    = 0.4
		nightWeight   = 0.25
		weekendWeight = 0.25
		stdDevWeight  = 0.1
	)

	loadScore := (1 - loadGini) * 100
	nightScore := (1 - nightGini) * 100
	weekendScore := (1 - weekendGini) * 100

	// 变异系数越低分数越高
	cvScore := 100.0
	if avgLoad > 0 {
		cv := stdDev / avgLoad
		cvScore = math.Max(0, 100-cv*200)
	}

	score := loadWeight*loadScore +
		nightWeight*nightScore +
		weekendWeight*weekendScore +
		stdDevWeight*cvScore
	return math.Max(0, math.Min(100, score))
}

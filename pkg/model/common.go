// Package model 定义值班排班引擎的核心数据模型
package model

import (
	"time"

	"github.com/google/uuid"
)

// ConstraintCategory 约束类别
type ConstraintCategory string

const (
	ConstraintHard ConstraintCategory = "hard" // 硬约束（必须满足）
	ConstraintSoft ConstraintCategory = "soft" // 软约束（尽量满足）
)

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Organization 组织/单位
type Organization struct {
	BaseModel
	Name     string   `json:"name" db:"name"`
	Code     string   `json:"code" db:"code"`
	Settings Settings `json:"settings" db:"settings"`
}

// JSONMap 用于存储 JSONB 数据
type JSONMap map[string]interface{}

// Settings 单位级排班设置
type Settings struct {
	// 夜班时间窗（小时，跨午夜：NightStartHour > NightEndHour）
	NightStartHour int `json:"night_start_hour"`
	NightEndHour   int `json:"night_end_hour"`

	// 稀缺角色阈值：持有人数不超过该值的角色视为稀缺角色
	RareRoleThreshold int `json:"rare_role_threshold"`

	// 关键任务难度阈值：难度达到该值的任务优先求解
	CriticalDifficulty float64 `json:"critical_difficulty"`

	// 每日最低在营人数（轮换排班使用）
	MinDailyStaff int `json:"min_daily_staff"`

	// 轮换优化模式
	OptimizationMode string `json:"optimization_mode,omitempty"`
}

// DefaultSettings 返回默认排班设置
func DefaultSettings() Settings {
	return Settings{
		NightStartHour:     22,
		NightEndHour:       6,
		RareRoleThreshold:  2,
		CriticalDifficulty: 7.0,
		MinDailyStaff:      0,
	}
}

// IsNightHour 检查某小时是否落在夜班时间窗内
func (s Settings) IsNightHour(hour int) bool {
	if s.NightStartHour > s.NightEndHour {
		return hour >= s.NightStartHour || hour < s.NightEndHour
	}
	return hour >= s.NightStartHour && hour < s.NightEndHour
}

// TimeRange 时间范围
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 返回时间范围的持续时间
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Overlaps 检查两个时间范围是否重叠
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start.Before(other.End) && other.Start.Before(tr.End)
}

// Contains 检查时间范围是否包含某个时间点
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}

// DateRange 日期范围
type DateRange struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// Days 返回日期范围包含的天数（含首尾）
func (dr DateRange) Days() int {
	start, err1 := time.Parse("2006-01-02", dr.StartDate)
	end, err2 := time.Parse("2006-01-02", dr.EndDate)
	if err1 != nil || err2 != nil || end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// ContainsDate 检查日期范围是否包含某个日期（YYYY-MM-DD）
func (dr DateRange) ContainsDate(date string) bool {
	return date >= dr.StartDate && date <= dr.EndDate
}

// Package timeline 提供人员时间线（忙碌/不可用区间）管理
package timeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/model"
)

// IntervalType 区间类型
type IntervalType string

const (
	IntervalTask     IntervalType = "TASK"                // 执勤班次
	IntervalRest     IntervalType = "REST"                // 班后休息
	IntervalExternal IntervalType = "EXTERNAL_CONSTRAINT" // 外部不可用（请假/封锁/轮换等）
)

// Interval 时间线区间
type Interval struct {
	Type    IntervalType    `json:"type"`
	Range   model.TimeRange `json:"range"`
	Tag     string          `json:"tag,omitempty"`      // 来源标记：absence/manual/rotation/...
	ShiftID *uuid.UUID      `json:"shift_id,omitempty"` // TASK 区间对应的班次
}

// Timeline 单人时间线
// 区间按起始时间排序，同类型区间互不重叠；每个时刻至多一个 TASK 区间
type Timeline struct {
	intervals []Interval
}

// New 创建空时间线
func New() *Timeline {
	return &Timeline{intervals: make([]Interval, 0, 8)}
}

// AddTask 添加执勤区间
// 与已有 TASK 区间重叠时返回错误（同一时刻至多一个执勤）
func (t *Timeline) AddTask(tr model.TimeRange, shiftID uuid.UUID) error {
	for _, iv := range t.intervals {
		if iv.Type == IntervalTask && iv.Range.Overlaps(tr) {
			return fmt.Errorf("执勤区间重叠: [%s, %s) 与已有班次 %s 冲突",
				tr.Start.Format("15:04"), tr.End.Format("15:04"), iv.ShiftID)
		}
	}
	id := shiftID
	t.insert(Interval{Type: IntervalTask, Range: tr, ShiftID: &id})
	return nil
}

// AddRest 添加休息区间（零时长直接忽略，重叠区间合并）
func (t *Timeline) AddRest(tr model.TimeRange) {
	if !tr.End.After(tr.Start) {
		return
	}
	t.addMerged(IntervalRest, tr, "")
}

// AddExternal 添加外部不可用区间（重叠区间合并，标记取先到者）
func (t *Timeline) AddExternal(tr model.TimeRange, tag string) {
	if !tr.End.After(tr.Start) {
		return
	}
	t.addMerged(IntervalExternal, tr, tag)
}

// addMerged 插入并合并同类型重叠区间
func (t *Timeline) addMerged(typ IntervalType, tr model.TimeRange, tag string) {
	merged := Interval{Type: typ, Range: tr, Tag: tag}
	kept := t.intervals[:0]
	for _, iv := range t.intervals {
		if iv.Type == typ && (iv.Range.Overlaps(merged.Range) || touches(iv.Range, merged.Range)) {
			if iv.Range.Start.Before(merged.Range.Start) {
				merged.Range.Start = iv.Range.Start
			}
			if iv.Range.End.After(merged.Range.End) {
				merged.Range.End = iv.Range.End
			}
			if merged.Tag == "" {
				merged.Tag = iv.Tag
			}
			continue
		}
		kept = append(kept, iv)
	}
	t.intervals = kept
	t.insert(merged)
}

// touches 检查两个范围是否首尾相接
func touches(a, b model.TimeRange) bool {
	return a.End.Equal(b.Start) || b.End.Equal(a.Start)
}

// insert 按起始时间有序插入
func (t *Timeline) insert(iv Interval) {
	idx := sort.Search(len(t.intervals), func(i int) bool {
		return t.intervals[i].Range.Start.After(iv.Range.Start)
	})
	t.intervals = append(t.intervals, Interval{})
	copy(t.intervals[idx+1:], t.intervals[idx:])
	t.intervals[idx] = iv
}

// Fits 检查候选区间能否放入时间线
// includeRest 为 false 时忽略 REST 区间（放宽休息要求的求解层级使用）
func (t *Timeline) Fits(tr model.TimeRange, includeRest bool) bool {
	for _, iv := range t.intervals {
		if iv.Type == IntervalRest && !includeRest {
			continue
		}
		if iv.Range.Overlaps(tr) {
			return false
		}
	}
	return true
}

// Collides 检查范围是否与任意区间冲突
func (t *Timeline) Collides(tr model.TimeRange) bool {
	return !t.Fits(tr, true)
}

// BusyAt 检查某时刻是否处于任意区间内
func (t *Timeline) BusyAt(at time.Time) bool {
	for _, iv := range t.intervals {
		if iv.Range.Contains(at) {
			return true
		}
	}
	return false
}

// LastTaskEndBefore 返回早于某时刻结束的最晚 TASK 区间结束时间
func (t *Timeline) LastTaskEndBefore(at time.Time) (time.Time, bool) {
	var last time.Time
	found := false
	for _, iv := range t.intervals {
		if iv.Type != IntervalTask {
			continue
		}
		if !iv.Range.End.After(at) && (!found || iv.Range.End.After(last)) {
			last = iv.Range.End
			found = true
		}
	}
	return last, found
}

// Intervals 返回全部区间（拷贝）
func (t *Timeline) Intervals() []Interval {
	result := make([]Interval, len(t.intervals))
	copy(result, t.intervals)
	return result
}

// ByType 返回指定类型的全部区间
func (t *Timeline) ByType(typ IntervalType) []Interval {
	var result []Interval
	for _, iv := range t.intervals {
		if iv.Type == typ {
			result = append(result, iv)
		}
	}
	return result
}

// TaskCount 返回执勤区间数量
func (t *Timeline) TaskCount() int {
	return len(t.ByType(IntervalTask))
}

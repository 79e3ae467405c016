package roster

import (
	"time"

	"github.com/zhiban/zhiban/pkg/model"
)

// repairWeekends 消除落在周六的进出营
//
// 归营日落在周六时优先提前到周五，人员周五不可用则推迟到周日；
// 离营日落在周六时优先提前到周五离开，周五在营人数会跌破下限时
// 改为推迟到周日离开。每次移动后尽量把同段的另一端转换日同向
// 平移一天，保持在营段长度不变；平移会制造新的周六转换、越过
// 不可用日或跌破人力下限时放弃。调整在物化后的状态数组上进行，
// 逐步维护每日在营人数。
func repairWeekends(rosters []*personRoster, start time.Time, days, minDailyStaff int) {
	baseCount := make([]int, days)
	for _, pr := range rosters {
		for d, st := range pr.status {
			if st == model.RosterBase {
				baseCount[d]++
			}
		}
	}

	saturday := func(d int) bool {
		return start.AddDate(0, 0, d).Weekday() == time.Saturday
	}

	// 段末在营日改归家，抵消段首提前的一天
	shrinkSegmentEnd := func(pr *personRoster, d int) {
		e := d + 1
		for e < days && pr.status[e] == model.RosterBase {
			e++
		}
		if e >= days {
			return
		}
		last := e - 1
		if last <= d || saturday(last) {
			return
		}
		if baseCount[last]-1 < minDailyStaff {
			return
		}
		pr.status[last] = model.RosterHome
		baseCount[last]--
	}

	// 段末后的首个归家日改在营，抵消段首推迟的一天
	extendSegmentEnd := func(pr *personRoster, d int) {
		e := d + 1
		for e < days && pr.status[e] == model.RosterBase {
			e++
		}
		if e >= days || pr.status[e] != model.RosterHome || pr.unavailable[e] {
			return
		}
		if e+1 < days && saturday(e+1) {
			return
		}
		pr.status[e] = model.RosterBase
		baseCount[e]++
	}

	// 段首前的归家日改在营，抵消段末提前的一天
	extendSegmentStart := func(pr *personRoster, d int) {
		r := d - 2
		for r >= 0 && pr.status[r] == model.RosterBase {
			r--
		}
		if r < 0 || pr.status[r] != model.RosterHome || pr.unavailable[r] {
			return
		}
		if saturday(r) {
			return
		}
		pr.status[r] = model.RosterBase
		baseCount[r]++
	}

	// 段首在营日改归家，抵消段末推迟的一天
	shrinkSegmentStart := func(pr *personRoster, d int) {
		r := d
		for r-1 >= 0 && pr.status[r-1] == model.RosterBase {
			r--
		}
		if r >= d || r-1 < 0 {
			return
		}
		if saturday(r + 1) {
			return
		}
		if baseCount[r]-1 < minDailyStaff {
			return
		}
		pr.status[r] = model.RosterHome
		baseCount[r]--
	}

	for _, pr := range rosters {
		for d := 1; d < days; d++ {
			if !saturday(d) {
				continue
			}
			prev, cur := pr.status[d-1], pr.status[d]

			// 周六归营
			if cur == model.RosterBase && prev == model.RosterHome {
				if !pr.unavailable[d-1] {
					pr.status[d-1] = model.RosterBase
					baseCount[d-1]++
					shrinkSegmentEnd(pr, d)
				} else if baseCount[d]-1 >= minDailyStaff {
					pr.status[d] = model.RosterHome
					baseCount[d]--
					extendSegmentEnd(pr, d)
				}
				continue
			}

			// 周六离营
			if cur == model.RosterHome && prev == model.RosterBase {
				if baseCount[d-1]-1 >= minDailyStaff {
					pr.status[d-1] = model.RosterHome
					baseCount[d-1]--
					extendSegmentStart(pr, d)
				} else if !pr.unavailable[d] {
					pr.status[d] = model.RosterBase
					baseCount[d]++
					shrinkSegmentStart(pr, d)
				}
			}
		}
	}
}

package roster

import (
	"fmt"
	"time"

	"github.com/zhiban/zhiban/pkg/model"
)

// verify 校验轮换结果并导出条目与统计
//
// 模式要求在营但人员不可用的天记为违反约束，条目状态落为不可用；
// 不可用天恰好落在归家段的记为已满足。满足率按二者之和归一。
func verify(
	rosters []*personRoster,
	start time.Time,
	days, baseDays int,
) ([]model.RosterEntry, []model.UnfulfilledConstraint, model.RosterStats) {
	var entries []model.RosterEntry
	var unfulfilled []model.UnfulfilledConstraint
	met, violated := 0, 0

	for _, pr := range rosters {
		for d := 0; d < days; d++ {
			date := start.AddDate(0, 0, d).Format("2006-01-02")
			entries = append(entries, model.RosterEntry{
				PersonID: pr.person.ID,
				Date:     date,
				Status:   pr.status[d],
			})
			if !pr.unavailable[d] {
				continue
			}
			if onBase(pr.phase, d, baseDays) {
				violated++
				unfulfilled = append(unfulfilled, model.UnfulfilledConstraint{
					PersonID: pr.person.ID,
					Date:     date,
					Message:  fmt.Sprintf("人员 %s 于 %s 不可用，轮换模式要求在营", pr.person.Name, date),
				})
			} else {
				met++
			}
		}
	}

	stats := model.RosterStats{
		People:         len(rosters),
		Days:           days,
		CycleLength:    CycleLength,
		BaseDays:       baseDays,
		HomeDays:       CycleLength - baseDays,
		MetConstraints: met,
		Violated:       violated,
	}
	if met+violated > 0 {
		stats.FulfillmentRate = float64(met) / float64(met+violated) * 100
	} else {
		stats.FulfillmentRate = 100
	}
	return entries, unfulfilled, stats
}

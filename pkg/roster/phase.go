package roster

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/model"
)

// personRoster 单人轮换状态
type personRoster struct {
	person      *model.Person
	phase       int
	unavailable map[int]bool         // 不可用天（横轴下标）
	status      []model.RosterStatus // 物化后的逐日状态
}

// assignPhases 为全部人员分配周期相位
//
// 有衔接历史的人员直接按末态延续；其余人员按不可用天数降序贪心放置，
// 目标是最小化"模式在营但人员不可用"的冲突数，同时用占位上限避免
// 相位扎堆。占位上限为 ceil(人数 / 周期长度)，全部相位满载时放开上限。
func assignPhases(
	rosters []*personRoster,
	history map[uuid.UUID]model.ContinuationHistory,
	baseDays int,
) {
	occupancy := make([]int, CycleLength)
	limit := int(math.Ceil(float64(len(rosters)) / float64(CycleLength)))
	if limit < 1 {
		limit = 1
	}

	ordered := make([]*personRoster, len(rosters))
	copy(ordered, rosters)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		_, aHist := history[a.person.ID]
		_, bHist := history[b.person.ID]
		if aHist != bHist {
			return aHist
		}
		if len(a.unavailable) != len(b.unavailable) {
			return len(a.unavailable) > len(b.unavailable)
		}
		return a.person.ID.String() < b.person.ID.String()
	})

	for _, pr := range ordered {
		if h, ok := history[pr.person.ID]; ok {
			pr.phase = continuationPhase(h, baseDays)
		} else {
			pr.phase = bestPhase(pr, occupancy, limit, baseDays)
		}
		occupancy[pr.phase]++
	}
}

// continuationPhase 按上一轮排班末态推算延续相位
// 已连续在营 k 天的人员从周期第 k 位继续，归家同理
func continuationPhase(h model.ContinuationHistory, baseDays int) int {
	k := h.ConsecutiveDays
	if k < 0 {
		k = 0
	}
	homeDays := CycleLength - baseDays
	if h.LastStatus == model.RosterBase {
		if k > baseDays-1 {
			k = baseDays - 1
		}
		return k
	}
	if k > homeDays-1 {
		k = homeDays - 1
	}
	return baseDays + k
}

// bestPhase 贪心挑选冲突最少的相位
// 冲突数相同的取占位较少者，仍相同的取较小相位
func bestPhase(pr *personRoster, occupancy []int, limit, baseDays int) int {
	best := 0
	bestConflicts := -1
	bestOcc := 0

	evaluate := func(respectLimit bool) bool {
		found := false
		for phase := 0; phase < CycleLength; phase++ {
			if respectLimit && occupancy[phase] >= limit {
				continue
			}
			conflicts := 0
			for d := range pr.unavailable {
				if onBase(phase, d, baseDays) {
					conflicts++
				}
			}
			if !found ||
				conflicts < bestConflicts ||
				(conflicts == bestConflicts && occupancy[phase] < bestOcc) {
				best = phase
				bestConflicts = conflicts
				bestOcc = occupancy[phase]
				found = true
			}
		}
		return found
	}

	if !evaluate(true) {
		evaluate(false)
	}
	return best
}

// materialize 按相位与不可用天物化逐日状态
func materialize(pr *personRoster, baseDays, days int) {
	pr.status = make([]model.RosterStatus, days)
	for d := 0; d < days; d++ {
		switch {
		case pr.unavailable[d]:
			pr.status[d] = model.RosterUnavailable
		case onBase(pr.phase, d, baseDays):
			pr.status[d] = model.RosterBase
		default:
			pr.status[d] = model.RosterHome
		}
	}
}

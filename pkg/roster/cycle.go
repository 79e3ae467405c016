package roster

import (
	"fmt"
	"math"

	"github.com/zhiban/zhiban/pkg/model"
)

// CycleLength 轮换周期长度（天）
const CycleLength = 14

// cycleShape 确定周期内的在营/归家天数
//
// 优先级：显式比例覆盖 > 团队轮换模式的平均比例 > 默认 11/3。
// 比例换算成天数时向上取整并产生取整提示；在营天数占满整个
// 周期时压回 13/1 并告警。
func cycleShape(state *model.OrgState, ratioOverride float64) (baseDays, homeDays int, warnings []string) {
	switch {
	case ratioOverride > 0:
		baseDays, warnings = daysFromRatio(ratioOverride, warnings)
	case len(state.Rotations) > 0:
		sum := 0.0
		n := 0
		for _, rot := range state.Rotations {
			cycle := rot.BaseDays + rot.HomeDays
			if cycle <= 0 {
				continue
			}
			sum += float64(rot.BaseDays) / float64(cycle)
			n++
		}
		if n > 0 {
			baseDays, warnings = daysFromRatio(sum/float64(n), warnings)
		} else {
			baseDays = defaultBaseDays
		}
	default:
		baseDays = defaultBaseDays
	}

	if baseDays >= CycleLength {
		warnings = append(warnings,
			fmt.Sprintf("在营天数 %d 占满周期，压缩为 %d 在营 / 1 归家", baseDays, CycleLength-1))
		baseDays = CycleLength - 1
	}
	if baseDays < 1 {
		baseDays = 1
	}
	return baseDays, CycleLength - baseDays, warnings
}

// defaultBaseDays 无轮换信息时的默认在营天数（11 在营 / 3 归家）
const defaultBaseDays = 11

// daysFromRatio 将在营比例换算为周期内天数
func daysFromRatio(ratio float64, warnings []string) (int, []string) {
	exact := ratio * CycleLength
	days := int(math.Ceil(exact))
	if exact != math.Trunc(exact) {
		warnings = append(warnings,
			fmt.Sprintf("在营比例 %.3f 换算为 %.1f 天，向上取整为 %d 天", ratio, exact, days))
	}
	return days, warnings
}

// onBase 检查相位为 phase 的人员在第 d 天（0 起）是否在营
func onBase(phase, d, baseDays int) bool {
	pos := ((d+phase)%CycleLength + CycleLength) % CycleLength
	return pos < baseDays
}

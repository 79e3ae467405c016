package solver

// RelaxLevel 候选人筛选的放宽层级
// 求解器从严到宽逐级尝试，直到班位填满或层级耗尽
type RelaxLevel int

const (
	// RelaxStrict 角色匹配 + 全额休息缓冲
	RelaxStrict RelaxLevel = iota + 1
	// RelaxHalfRest 角色匹配 + 半额休息缓冲
	RelaxHalfRest
	// RelaxNoRest 角色匹配 + 无休息缓冲
	RelaxNoRest
	// RelaxAnyRole 忽略角色要求 + 无休息缓冲（最后手段）
	RelaxAnyRole
)

// allLevels 全部层级（从严到宽）
var allLevels = []RelaxLevel{RelaxStrict, RelaxHalfRest, RelaxNoRest, RelaxAnyRole}

// RequiresRole 该层级是否仍要求角色匹配
func (l RelaxLevel) RequiresRole() bool {
	return l != RelaxAnyRole
}

// EnforcesRest 该层级是否仍把休息区间视为占用
func (l RelaxLevel) EnforcesRest() bool {
	return l == RelaxStrict || l == RelaxHalfRest
}

// RestBuffer 该层级下班次结束后需保持空闲的小时数
func (l RelaxLevel) RestBuffer(minRestHours float64) float64 {
	switch l {
	case RelaxStrict:
		return minRestHours
	case RelaxHalfRest:
		return minRestHours / 2
	default:
		return 0
	}
}

// String 返回层级描述
func (l RelaxLevel) String() string {
	switch l {
	case RelaxStrict:
		return "strict"
	case RelaxHalfRest:
		return "half_rest"
	case RelaxNoRest:
		return "no_rest"
	case RelaxAnyRole:
		return "any_role"
	}
	return "unknown"
}

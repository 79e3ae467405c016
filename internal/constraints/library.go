// Package constraints 约束类型目录
package constraints

// ParamDef 约束参数定义
type ParamDef struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // string, uuid, time_range, date
	Description string `json:"description"`
	Required    bool   `json:"required,omitempty"`
}

// Definition 约束类型定义（供管理端展示与录入校验）
type Definition struct {
	Name        string     `json:"name"`
	DisplayName string     `json:"display_name"`
	Category    string     `json:"category"` // scheduling 排班约束, inter_person 人际约束
	Description string     `json:"description"`
	Params      []ParamDef `json:"params"`
}

// Library 返回完整的约束类型目录
func Library() []Definition {
	return []Definition{
		{
			Name:        "never_assign",
			DisplayName: "禁止分配",
			Category:    "scheduling",
			Description: "禁止作用域内的人员被分配到目标任务（可限定时间窗）",
			Params: []ParamDef{
				{Name: "scope", Type: "string", Description: "作用域类型 person/team/role", Required: true},
				{Name: "scope_id", Type: "uuid", Description: "作用域目标", Required: true},
				{Name: "task_id", Type: "uuid", Description: "目标任务（为空适用全部任务）"},
				{Name: "window", Type: "time_range", Description: "生效时间窗（为空始终生效）"},
			},
		},
		{
			Name:        "always_assign",
			DisplayName: "必须分配",
			Category:    "scheduling",
			Description: "作用域内的人员在求解前优先安排到目标任务，无法安排时静默降级",
			Params: []ParamDef{
				{Name: "scope", Type: "string", Description: "作用域类型 person/team/role", Required: true},
				{Name: "scope_id", Type: "uuid", Description: "作用域目标", Required: true},
				{Name: "task_id", Type: "uuid", Description: "目标任务（为空适用全部任务）"},
				{Name: "window", Type: "time_range", Description: "生效时间窗（为空始终生效）"},
			},
		},
		{
			Name:        "time_block",
			DisplayName: "时段封锁",
			Category:    "scheduling",
			Description: "作用域内的人员在时间窗内不可被分配任何班次",
			Params: []ParamDef{
				{Name: "scope", Type: "string", Description: "作用域类型 person/team/role", Required: true},
				{Name: "scope_id", Type: "uuid", Description: "作用域目标", Required: true},
				{Name: "window", Type: "time_range", Description: "封锁时间窗", Required: true},
			},
		},
		{
			Name:        "forbidden_together",
			DisplayName: "禁止同班",
			Category:    "inter_person",
			Description: "同一班次不得同时包含匹配 A 侧与 B 侧属性的人员",
			Params: []ParamDef{
				{Name: "selector_a", Type: "string", Description: "A 侧选择器 role/team/person/field", Required: true},
				{Name: "value_a", Type: "string", Description: "A 侧匹配值", Required: true},
				{Name: "selector_b", Type: "string", Description: "B 侧选择器 role/team/person/field", Required: true},
				{Name: "value_b", Type: "string", Description: "B 侧匹配值", Required: true},
			},
		},
	}
}

// Package interperson 提供人际互斥约束评估
//
// 判定候选人与已在班人员之间是否触发"禁止同班"规则。
package interperson

import (
	"fmt"
	"strings"

	"github.com/zhiban/zhiban/pkg/model"
)

// 布尔值的常见写法（含多语言表单录入）
var (
	truthySpellings = map[string]bool{
		"true": true, "yes": true, "y": true, "1": true, "是": true, "כן": true,
	}
	falsySpellings = map[string]bool{
		"false": true, "no": true, "n": true, "0": true, "否": true, "לא": true,
	}
)

// Evaluator 人际约束评估器
type Evaluator struct {
	state *model.OrgState
}

// NewEvaluator 创建评估器
func NewEvaluator(state *model.OrgState) *Evaluator {
	return &Evaluator{state: state}
}

// CheckCandidate 检查候选人加入班次是否违反任一互斥规则
// assigned 需包含同批次排队待确认的人员；返回首个被违反的规则
func (e *Evaluator) CheckCandidate(
	candidate *model.Person,
	assigned []*model.Person,
	rules []*model.InterPersonConstraint,
) (*model.InterPersonConstraint, bool) {
	for _, rule := range rules {
		if rule.Type != model.ForbiddenTogether {
			continue
		}
		if e.violates(candidate, assigned, rule) {
			return rule, true
		}
	}
	return nil, false
}

// violates 检查单条规则
// 候选人匹配 A 侧时扫描在班人员的 B 侧，反之亦然
func (e *Evaluator) violates(
	candidate *model.Person,
	assigned []*model.Person,
	rule *model.InterPersonConstraint,
) bool {
	candA := e.matches(candidate, rule.SelectorA, rule.ValueA)
	candB := e.matches(candidate, rule.SelectorB, rule.ValueB)
	if !candA && !candB {
		return false
	}

	for _, other := range assigned {
		if other.ID == candidate.ID {
			continue
		}
		if candA && e.matches(other, rule.SelectorB, rule.ValueB) {
			return true
		}
		if candB && e.matches(other, rule.SelectorA, rule.ValueA) {
			return true
		}
	}
	return false
}

// matches 检查人员在选择器下的取值是否与目标值等价
func (e *Evaluator) matches(p *model.Person, sel model.AttributeSelector, value string) bool {
	for _, v := range e.selectorValues(p, sel) {
		if Equivalent(v, value) {
			return true
		}
	}
	return false
}

// selectorValues 解析人员在选择器下的全部取值
func (e *Evaluator) selectorValues(p *model.Person, sel model.AttributeSelector) []string {
	switch sel.Kind {
	case model.SelectorRole:
		var values []string
		for _, roleID := range p.RoleIDs {
			values = append(values, roleID.String())
			if role := e.state.GetRole(roleID); role != nil {
				values = append(values, role.Name, role.Code)
			}
		}
		return values
	case model.SelectorTeam:
		if p.TeamID == nil {
			return nil
		}
		values := []string{p.TeamID.String()}
		if team := e.state.GetTeam(*p.TeamID); team != nil {
			values = append(values, team.Name, team.Code)
		}
		return values
	case model.SelectorPerson:
		return []string{p.ID.String(), p.Code}
	case model.SelectorField:
		v, ok := p.CustomField(sel.Field)
		if !ok {
			return nil
		}
		return flattenValue(v)
	}
	return nil
}

// flattenValue 将自定义字段值展平为字符串列表（数组字段逐元素展平）
func flattenValue(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []string:
		return val
	case []interface{}:
		var result []string
		for _, item := range val {
			result = append(result, flattenValue(item)...)
		}
		return result
	case bool:
		if val {
			return []string{"true"}
		}
		return []string{"false"}
	case nil:
		return nil
	default:
		return []string{fmt.Sprintf("%v", val)}
	}
}

// Equivalent 值等价判定
// 依次尝试：精确相等、忽略大小写与首尾空白、布尔写法归一
func Equivalent(a, b string) bool {
	if a == b {
		return true
	}
	na, nb := normalize(a), normalize(b)
	if na == nb {
		return true
	}
	if truthySpellings[na] && truthySpellings[nb] {
		return true
	}
	if falsySpellings[na] && falsySpellings[nb] {
		return true
	}
	return false
}

// normalize 归一化：去首尾空白并转小写
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Package disposal 将识别标签映射为投放指引与环境影响估算
package disposal

import (
	"strings"

	"wastewise/backend/internal/model"
)

// Fallback 未知标签的默认指引
const Fallback = "No disposal info."

var instructions = map[string]string{
	model.LabelTrash:   "Dispose in black bin (landfill).",
	model.LabelRecycle: "Place in blue bin after rinsing.",
	model.LabelOrganic: "Place in green bin or compost pile.",
}

// InstructionFor 返回标签对应的投放指引，大小写不敏感
func InstructionFor(label string) string {
	if s, ok := instructions[normalize(label)]; ok {
		return s
	}
	return Fallback
}

func normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

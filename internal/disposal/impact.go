package disposal

import (
	"math"

	"wastewise/backend/internal/model"
)

// Impact 单次投放的环境影响估算
type Impact struct {
	CarbonKg    float64 `json:"carbon_footprint"`
	WaterLiters float64 `json:"water_usage"`
	CostUSD     float64 `json:"cost_estimate"`
	Compostable bool    `json:"composting_potential"`
}

// 每件物品的基准值
var impacts = map[string]Impact{
	model.LabelOrganic: {CarbonKg: 0.5, WaterLiters: 100, CostUSD: 2.5, Compostable: true},
	model.LabelRecycle: {CarbonKg: 1.2, WaterLiters: 50, CostUSD: 1.8},
	model.LabelTrash:   {CarbonKg: 2.0, WaterLiters: 200, CostUSD: 3.2},
}

// ImpactFor 按数量估算影响；未知标签按 trash 计
func ImpactFor(label string, quantity float64) Impact {
	base, ok := impacts[normalize(label)]
	if !ok {
		base = impacts[model.LabelTrash]
	}
	if quantity <= 0 {
		quantity = 1
	}
	return Impact{
		CarbonKg:    round2(base.CarbonKg * quantity),
		WaterLiters: round2(base.WaterLiters * quantity),
		CostUSD:     round2(base.CostUSD * quantity),
		Compostable: base.Compostable,
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

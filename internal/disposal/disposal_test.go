package disposal

import "testing"

func TestInstructionFor_KnownLabels(t *testing.T) {
	cases := map[string]string{
		"trash":       "Dispose in black bin (landfill).",
		"recycle":     "Place in blue bin after rinsing.",
		"organic":     "Place in green bin or compost pile.",
		"Trash":       "Dispose in black bin (landfill).",
		" ORGANIC\n": "Place in green bin or compost pile.",
	}
	for in, want := range cases {
		if got := InstructionFor(in); got != want {
			t.Errorf("InstructionFor(%q)=%q, 期望 %q", in, got, want)
		}
	}
}

func TestInstructionFor_Fallback(t *testing.T) {
	for _, in := range []string{"", "glass", "trashy", "re cycle", "Unknown"} {
		if got := InstructionFor(in); got != Fallback {
			t.Errorf("InstructionFor(%q)=%q, 期望默认指引", in, got)
		}
	}
}

func TestImpactFor(t *testing.T) {
	got := ImpactFor("organic", 2)
	if got.CarbonKg != 1 || got.WaterLiters != 200 || got.CostUSD != 5 || !got.Compostable {
		t.Errorf("organic x2 估算错误: %+v", got)
	}

	unknown := ImpactFor("glass", 0)
	trash := ImpactFor("trash", 1)
	if unknown != trash {
		t.Errorf("未知标签应按 trash 计: %+v vs %+v", unknown, trash)
	}
}

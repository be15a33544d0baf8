package service

import (
	"context"
	"errors"
	"testing"

	"wastewise/backend/internal/model"
	"wastewise/backend/internal/policy"
	apperr "wastewise/backend/pkg/errors"
)

func seedHistory(env *testEnv) (alice, bob *model.User) {
	alice = env.addUser("alice@example.com", "p", policy.RoleUser)
	bob = env.addUser("bob@example.com", "p", policy.RoleUser)
	env.addLog(uintPtr(alice.ID), model.LabelOrganic, 90)
	env.addLog(uintPtr(alice.ID), model.LabelOrganic, 80)
	env.addLog(uintPtr(alice.ID), model.LabelTrash, 70.6)
	env.addLog(uintPtr(bob.ID), model.LabelRecycle, 60)
	env.addLog(nil, model.LabelRecycle, 50)
	return alice, bob
}

// adminCaller 创建管理员账户并返回其身份
func adminCaller(env *testEnv) Caller {
	admin := env.addUser("admin@example.com", "p", policy.RoleAdmin)
	return Caller{UserID: admin.ID, Role: policy.RoleAdmin}
}

func TestHistory_UserSeesOnlyOwn(t *testing.T) {
	env := newTestEnv("")
	alice, _ := seedHistory(env)

	logs, err := env.svc.History.History(context.Background(), Caller{UserID: alice.ID, Role: policy.RoleUser}, 0)
	if err != nil {
		t.Fatalf("History 应成功: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("期望 3 条，实际 %d", len(logs))
	}
	for _, l := range logs {
		if !l.OwnedBy(alice.ID) {
			t.Errorf("不应返回他人记录: %+v", l)
		}
	}
	if logs[0].ClassName != model.LabelTrash {
		t.Errorf("最新记录应在最前，实际 %s", logs[0].ClassName)
	}
}

func TestHistory_AdminUnfiltered(t *testing.T) {
	env := newTestEnv("")
	seedHistory(env)
	admin := adminCaller(env)

	logs, err := env.svc.History.History(context.Background(), admin, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 2 {
		t.Errorf("limit=2 时期望 2 条，实际 %d", len(logs))
	}

	all, _ := env.svc.History.History(context.Background(), admin, 0)
	if len(all) != 5 {
		t.Errorf("管理员应看到全部 5 条，实际 %d", len(all))
	}
}

func TestHistory_GuestEmpty(t *testing.T) {
	env := newTestEnv("")
	seedHistory(env)

	logs, err := env.svc.History.History(context.Background(), Caller{Role: policy.RoleGuest}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if logs == nil || len(logs) != 0 {
		t.Errorf("游客应得到空切片，实际 %v", logs)
	}

	stats, err := env.svc.History.Stats(context.Background(), Caller{Role: policy.RoleGuest})
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalScans != 0 || stats.AvgConfidence != 0 {
		t.Errorf("游客统计应为零值: %+v", stats)
	}
}

func TestHistory_AccountChecks(t *testing.T) {
	env := newTestEnv("")
	alice, _ := seedHistory(env)
	ctx := context.Background()

	cases := []struct {
		name   string
		caller Caller
		kind   error
	}{
		{"user 缺少 user_id", Caller{Role: policy.RoleUser}, apperr.ErrValidation},
		{"admin 缺少 user_id", Caller{Role: policy.RoleAdmin}, apperr.ErrValidation},
		{"账户不存在", Caller{UserID: 999, Role: policy.RoleUser}, apperr.ErrValidation},
		{"user 冒充 admin", Caller{UserID: alice.ID, Role: policy.RoleAdmin}, apperr.ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			logs, err := env.svc.History.History(ctx, tc.caller, 0)
			if !errors.Is(err, tc.kind) {
				t.Fatalf("History 期望 %v，实际 %v", tc.kind, err)
			}
			if len(logs) != 0 {
				t.Errorf("校验失败时不应返回记录，实际 %d 条", len(logs))
			}
			if _, err := env.svc.History.Stats(ctx, tc.caller); !errors.Is(err, tc.kind) {
				t.Errorf("Stats 期望 %v，实际 %v", tc.kind, err)
			}
			if _, err := env.svc.History.Breakdown(ctx, tc.caller); !errors.Is(err, tc.kind) {
				t.Errorf("Breakdown 期望 %v，实际 %v", tc.kind, err)
			}
			if _, _, err := env.svc.Export.ExportHistory(ctx, tc.caller); !errors.Is(err, tc.kind) {
				t.Errorf("ExportHistory 期望 %v，实际 %v", tc.kind, err)
			}
		})
	}
}

func TestStats(t *testing.T) {
	env := newTestEnv("")
	alice, _ := seedHistory(env)

	stats, err := env.svc.History.Stats(context.Background(), Caller{UserID: alice.ID, Role: policy.RoleUser})
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalScans != 3 || stats.OrganicCount != 2 || stats.TrashCount != 1 || stats.RecycleCount != 0 {
		t.Errorf("计数不符: %+v", stats)
	}
	if stats.AvgConfidence != 80.2 {
		t.Errorf("平均置信度期望 80.2，实际 %v", stats.AvgConfidence)
	}
	if stats.PerLabel[model.LabelOrganic] != 2 {
		t.Errorf("PerLabel 不符: %v", stats.PerLabel)
	}
}

func TestBreakdown(t *testing.T) {
	env := newTestEnv("")
	seedHistory(env)

	shares, err := env.svc.History.Breakdown(context.Background(), adminCaller(env))
	if err != nil {
		t.Fatal(err)
	}
	if len(shares) != 3 {
		t.Fatalf("期望 3 个标签，实际 %d", len(shares))
	}
	// organic 2, recycle 2, trash 1：数量相同时按标签名排序
	want := []struct {
		label string
		pct   float64
	}{{"organic", 40}, {"recycle", 40}, {"trash", 20}}
	for i, w := range want {
		if shares[i].Label != w.label || shares[i].Percentage != w.pct {
			t.Errorf("shares[%d] 期望 %s/%v，实际 %+v", i, w.label, w.pct, shares[i])
		}
	}

	empty, _ := env.svc.History.Breakdown(context.Background(), Caller{Role: policy.RoleGuest})
	if empty == nil || len(empty) != 0 {
		t.Errorf("游客应得到空切片，实际 %v", empty)
	}
}

func TestHistory_StorageError(t *testing.T) {
	env := newTestEnv("")
	admin := adminCaller(env)
	env.logs.err = errDB

	_, err := env.svc.History.History(context.Background(), admin, 0)
	if !errors.Is(err, apperr.ErrStorage) {
		t.Errorf("期望 ErrStorage，实际 %v", err)
	}
	_, err = env.svc.History.Stats(context.Background(), admin)
	if !errors.Is(err, apperr.ErrStorage) {
		t.Errorf("期望 ErrStorage，实际 %v", err)
	}
}

func TestClampLimit(t *testing.T) {
	cases := map[int]int{-1: DefaultHistoryLimit, 0: DefaultHistoryLimit, 10: 10, 500: 500, 501: MaxHistoryLimit}
	for in, want := range cases {
		if got := clampLimit(in); got != want {
			t.Errorf("clampLimit(%d)=%d，期望 %d", in, got, want)
		}
	}
}

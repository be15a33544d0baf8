package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"wastewise/backend/config"
	"wastewise/backend/internal/model"
	"wastewise/backend/internal/policy"
	"wastewise/backend/internal/repository"
	"wastewise/backend/pkg/database"
)

// setupRepo 在临时目录创建 SQLite 数据文件并执行迁移
func setupRepo(t *testing.T) *repository.Repository {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}
	db, err := database.NewDB(cfg, "error", zap.NewNop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.EnsureSchema(sqlDB, cfg.Driver, zap.NewNop()))
	return repository.NewRepository(db)
}

func createUser(t *testing.T, repo *repository.Repository, email string, role policy.Role) *model.User {
	t.Helper()
	u := &model.User{Name: "tester", Email: email, Password: "$2a$10$hash", Role: role}
	require.NoError(t, repo.User.Create(context.Background(), u))
	require.NotZero(t, u.ID)
	return u
}

func ptr(v uint) *uint { return &v }

func TestUserRepo_CreateAndLookup(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	u := createUser(t, repo, "a@x.com", policy.RoleUser)

	byEmail, err := repo.User.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, policy.RoleUser, byEmail.Role)

	byID, err := repo.User.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)

	_, err = repo.User.GetByEmail(ctx, "missing@x.com")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	users, err := repo.User.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserRepo_RoleConstraint(t *testing.T) {
	repo := setupRepo(t)

	err := repo.User.Create(context.Background(), &model.User{
		Name: "bad", Email: "bad@x.com", Password: "h", Role: policy.Role("root"),
	})
	assert.Error(t, err, "CHECK 约束应拒绝未知角色")
}

func TestAnalysisRepo_RoundTrip(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "a@x.com", policy.RoleUser)

	before := time.Now().UTC()
	entry := &model.AnalysisLog{
		UserID:          ptr(u.ID),
		ClassName:       model.LabelRecycle,
		ConfidenceScore: 87.25,
		ImagePath:       "recycle_2026-10-14_10-00-00.jpg",
		Timestamp:       time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), // 调用方传入值应被覆盖
	}
	require.NoError(t, repo.Analysis.Create(ctx, entry))

	logs, err := repo.Analysis.List(ctx, &policy.OwnerFilter{OwnerID: u.ID}, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)

	got := logs[0]
	assert.Equal(t, model.LabelRecycle, got.ClassName)
	assert.Equal(t, 87.25, got.ConfidenceScore)
	assert.Equal(t, "recycle_2026-10-14_10-00-00.jpg", got.ImagePath)
	require.NotNil(t, got.UserID)
	assert.Equal(t, u.ID, *got.UserID)
	assert.False(t, got.Timestamp.Before(before), "时间戳应不早于调用时间")
}

func TestAnalysisRepo_ListFilterOrderLimit(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	alice := createUser(t, repo, "alice@x.com", policy.RoleUser)
	bob := createUser(t, repo, "bob@x.com", policy.RoleUser)

	for i, owner := range []*uint{ptr(alice.ID), ptr(bob.ID), ptr(alice.ID), nil} {
		require.NoError(t, repo.Analysis.Create(ctx, &model.AnalysisLog{
			UserID:          owner,
			ClassName:       model.LabelTrash,
			ConfidenceScore: float64(50 + i),
		}))
	}

	mine, err := repo.Analysis.List(ctx, &policy.OwnerFilter{OwnerID: alice.ID}, 10)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, l := range mine {
		assert.True(t, l.OwnedBy(alice.ID))
	}
	assert.Equal(t, 52.0, mine[0].ConfidenceScore, "最新记录应排在最前")

	all, err := repo.Analysis.List(ctx, nil, 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Nil(t, all[0].UserID, "匿名记录 user_id 应为 NULL")

	limited, err := repo.Analysis.List(ctx, nil, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestAnalysisRepo_AggregateByLabel(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "a@x.com", policy.RoleUser)
	other := createUser(t, repo, "b@x.com", policy.RoleUser)

	seed := []struct {
		owner uint
		label string
		score float64
	}{
		{u.ID, model.LabelOrganic, 90},
		{u.ID, model.LabelOrganic, 80},
		{u.ID, model.LabelTrash, 70},
		{other.ID, model.LabelRecycle, 60},
	}
	for _, s := range seed {
		require.NoError(t, repo.Analysis.Create(ctx, &model.AnalysisLog{
			UserID: ptr(s.owner), ClassName: s.label, ConfidenceScore: s.score,
		}))
	}

	rows, err := repo.Analysis.AggregateByLabel(ctx, &policy.OwnerFilter{OwnerID: u.ID})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, repository.LabelAggregate{ClassName: model.LabelOrganic, Count: 2, ConfidenceTotal: 170}, rows[0])
	assert.Equal(t, repository.LabelAggregate{ClassName: model.LabelTrash, Count: 1, ConfidenceTotal: 70}, rows[1])

	all, err := repo.Analysis.AggregateByLabel(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	empty, err := repo.Analysis.AggregateByLabel(ctx, &policy.OwnerFilter{OwnerID: 999})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

package service

import (
	"context"
	"errors"
	"image"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"wastewise/backend/config"
	"wastewise/backend/internal/classifier"
	"wastewise/backend/internal/model"
	"wastewise/backend/internal/notify"
	"wastewise/backend/internal/policy"
	"wastewise/backend/internal/repository"
	"wastewise/backend/pkg/jwt"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users  map[uint]*model.User
	nextID uint
	err    error // 非 nil 时所有调用返回该错误
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uint]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if m.err != nil {
		return m.err
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now().UTC()
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uint) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.sorted() {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.sorted(), nil
}

func (m *mockUserRepo) sorted() []model.User {
	result := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// ── Mock AnalysisRepository ──

type mockAnalysisRepo struct {
	logs []model.AnalysisLog
	err  error
}

func (m *mockAnalysisRepo) Create(_ context.Context, entry *model.AnalysisLog) error {
	if m.err != nil {
		return m.err
	}
	entry.ID = uint(len(m.logs) + 1)
	entry.Timestamp = time.Now().UTC()
	m.logs = append(m.logs, *entry)
	return nil
}

func (m *mockAnalysisRepo) List(_ context.Context, filter *policy.OwnerFilter, limit int) ([]model.AnalysisLog, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []model.AnalysisLog
	for i := len(m.logs) - 1; i >= 0; i-- {
		l := m.logs[i]
		if filter != nil && !l.OwnedBy(filter.OwnerID) {
			continue
		}
		result = append(result, l)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *mockAnalysisRepo) AggregateByLabel(_ context.Context, filter *policy.OwnerFilter) ([]repository.LabelAggregate, error) {
	if m.err != nil {
		return nil, m.err
	}
	byLabel := map[string]*repository.LabelAggregate{}
	for _, l := range m.logs {
		if filter != nil && !l.OwnedBy(filter.OwnerID) {
			continue
		}
		agg, ok := byLabel[l.ClassName]
		if !ok {
			agg = &repository.LabelAggregate{ClassName: l.ClassName}
			byLabel[l.ClassName] = agg
		}
		agg.Count++
		agg.ConfidenceTotal += l.ConfidenceScore
	}
	var rows []repository.LabelAggregate
	for _, a := range byLabel {
		rows = append(rows, *a)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ClassName < rows[j].ClassName })
	return rows, nil
}

// ── Mock 外部依赖 ──

type mockClassifier struct {
	pred  classifier.Prediction
	err   error
	calls int
}

func (m *mockClassifier) Classify(_ context.Context, _ image.Image) (classifier.Prediction, error) {
	m.calls++
	return m.pred, m.err
}

type mockImageStore struct {
	saved   []string
	deleted []string
	err     error
}

func (m *mockImageStore) Save(_ context.Context, label string, _ image.Image) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	name := label + "_2026-10-14_12-00-00.jpg"
	m.saved = append(m.saved, name)
	return name, nil
}

func (m *mockImageStore) Open(_ context.Context, name string) ([]byte, error) {
	for _, s := range m.saved {
		if s == name {
			return []byte("jpeg"), nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockImageStore) Delete(_ context.Context, name string) error {
	for i, s := range m.saved {
		if s == name {
			m.saved = append(m.saved[:i], m.saved[i+1:]...)
			break
		}
	}
	m.deleted = append(m.deleted, name)
	return nil
}

type mockPublisher struct {
	events []notify.AnalysisEvent
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, ev notify.AnalysisEvent) error {
	m.events = append(m.events, ev)
	return m.err
}

func (m *mockPublisher) Close() {}

type mockBlacklist struct {
	tokens map[string]time.Duration
	err    error
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	if m.tokens == nil {
		m.tokens = map[string]time.Duration{}
	}
	m.tokens[jti] = ttl
	return nil
}

// ── 测试辅助 ──

var errDB = errors.New("database is locked")

type testEnv struct {
	users     *mockUserRepo
	logs      *mockAnalysisRepo
	clf       *mockClassifier
	images    *mockImageStore
	pub       *mockPublisher
	blacklist *mockBlacklist
	jwtMgr    *jwt.Manager
	svc       *Service
}

func newTestEnv(guestMode string) *testEnv {
	env := &testEnv{
		users:     newMockUserRepo(),
		logs:      &mockAnalysisRepo{},
		clf:       &mockClassifier{pred: classifier.Prediction{Label: model.LabelRecycle, Confidence: 0.87654}},
		images:    &mockImageStore{},
		pub:       &mockPublisher{},
		blacklist: &mockBlacklist{},
		jwtMgr: jwt.NewManager(&config.AuthConfig{
			JWTSecret:      "test-secret-key-32-bytes-long!!!",
			AccessTokenTTL: 15 * time.Minute,
		}),
	}
	cfg := &config.Config{Feature: config.FeatureConfig{GuestPersistence: guestMode}}
	env.svc = NewService(Deps{
		Config:     cfg,
		Repo:       &repository.Repository{User: env.users, Analysis: env.logs},
		Classifier: env.clf,
		Images:     env.images,
		Publisher:  env.pub,
		JWT:        env.jwtMgr,
		Blacklist:  env.blacklist,
		Logger:     zap.NewNop(),
	})
	return env
}

func (e *testEnv) addUser(email, password string, role policy.Role) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &model.User{Name: "tester", Email: email, Password: string(hash), Role: role}
	_ = e.users.Create(context.Background(), u)
	return u
}

func (e *testEnv) addLog(owner *uint, label string, score float64) {
	_ = e.logs.Create(context.Background(), &model.AnalysisLog{
		UserID: owner, ClassName: label, ConfidenceScore: score, ImagePath: label + ".jpg",
	})
}

func uintPtr(v uint) *uint { return &v }

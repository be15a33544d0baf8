package repository

import (
	"context"

	"gorm.io/gorm"

	"wastewise/backend/internal/model"
	"wastewise/backend/internal/policy"
)

// LabelAggregate 单个标签的聚合结果
type LabelAggregate struct {
	ClassName       string
	Count           int64
	ConfidenceTotal float64
}

// AnalysisRepository 识别记录数据访问接口
// filter 为 nil 时不按归属过滤
type AnalysisRepository interface {
	Create(ctx context.Context, entry *model.AnalysisLog) error
	List(ctx context.Context, filter *policy.OwnerFilter, limit int) ([]model.AnalysisLog, error)
	AggregateByLabel(ctx context.Context, filter *policy.OwnerFilter) ([]LabelAggregate, error)
}

type analysisRepo struct {
	db *gorm.DB
}

// NewAnalysisRepo 创建 AnalysisRepository 实例
func NewAnalysisRepo(db *gorm.DB) AnalysisRepository {
	return &analysisRepo{db: db}
}

// Create 插入一条识别记录，时间戳由服务端在写入时生成，覆盖调用方传入值
func (r *analysisRepo) Create(ctx context.Context, entry *model.AnalysisLog) error {
	entry.ID = 0
	entry.Timestamp = r.db.NowFunc()
	return r.db.WithContext(ctx).Create(entry).Error
}

// List 按时间倒序返回记录
func (r *analysisRepo) List(ctx context.Context, filter *policy.OwnerFilter, limit int) ([]model.AnalysisLog, error) {
	var logs []model.AnalysisLog
	err := scoped(r.db.WithContext(ctx), filter).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// AggregateByLabel 按标签分组统计数量与置信度总和
func (r *analysisRepo) AggregateByLabel(ctx context.Context, filter *policy.OwnerFilter) ([]LabelAggregate, error) {
	var rows []LabelAggregate
	err := scoped(r.db.WithContext(ctx).Model(&model.AnalysisLog{}), filter).
		Select("class_name, COUNT(*) AS count, COALESCE(SUM(confidence_score), 0) AS confidence_total").
		Group("class_name").
		Order("class_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func scoped(db *gorm.DB, filter *policy.OwnerFilter) *gorm.DB {
	if filter == nil {
		return db
	}
	return db.Where("user_id = ?", filter.OwnerID)
}

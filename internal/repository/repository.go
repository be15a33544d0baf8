package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
// 每个方法基于 db.WithContext 执行，连接由连接池按语句借出与归还
type Repository struct {
	User     UserRepository
	Analysis AnalysisRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:     NewUserRepo(db),
		Analysis: NewAnalysisRepo(db),
	}
}

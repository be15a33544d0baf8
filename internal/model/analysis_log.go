package model

import "time"

// 分类器输出标签
const (
	LabelTrash   = "trash"
	LabelRecycle = "recycle"
	LabelOrganic = "organic"
)

// Labels 固定标签集合（统计输出顺序）
var Labels = []string{LabelOrganic, LabelRecycle, LabelTrash}

// AnalysisLog 识别记录表（analysis_logs）
// UserID 为 nil 表示匿名（游客 sentinel 模式）
type AnalysisLog struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"     json:"id"`
	UserID          *uint     `gorm:"index"                        json:"user_id"`
	Timestamp       time.Time `gorm:"column:timestamp;not null"    json:"timestamp"`
	ImagePath       string    `gorm:"not null;default:''"          json:"image_path"`
	ClassName       string    `gorm:"not null"                     json:"class_name"`
	ConfidenceScore float64   `gorm:"not null"                     json:"confidence_score"`
}

// TableName 指定表名
func (AnalysisLog) TableName() string { return "analysis_logs" }

// OwnedBy 记录是否归属指定用户
func (a *AnalysisLog) OwnedBy(userID uint) bool {
	return a.UserID != nil && *a.UserID == userID
}

package dto

// ── 查询参数 ──

// CallerQuery 调用方身份（查询串）
type CallerQuery struct {
	UserID uint   `form:"user_id"`
	Role   string `form:"role"`
}

// HistoryQuery 历史记录查询参数
type HistoryQuery struct {
	CallerQuery
	Limit int `form:"limit" binding:"omitempty,min=0"`
}

// ── 统计模块响应 ──

// StatsResponse 识别统计
type StatsResponse struct {
	TotalScans    int64            `json:"total_scans"`
	OrganicCount  int64            `json:"organic_count"`
	RecycleCount  int64            `json:"recycle_count"`
	TrashCount    int64            `json:"trash_count"`
	AvgConfidence float64          `json:"avg_confidence"`
	PerLabel      map[string]int64 `json:"per_label"`
}

// LabelShare 单个标签的占比
type LabelShare struct {
	Label      string  `json:"label"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ── 用户模块响应 ──

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

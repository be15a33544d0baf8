package dto

import "wastewise/backend/internal/disposal"

// ── 识别模块 DTO ──

// AnalyzeRequest 识别请求，image 为 base64 编码的 JPEG/PNG
// password 仅为兼容旧客户端而接收，不参与任何逻辑
type AnalyzeRequest struct {
	Image    string `json:"image"`
	UserID   *uint  `json:"user_id"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// AnalyzeResponse 识别结果
// ImagePath 未持久化时为 null
type AnalyzeResponse struct {
	ClassName       string          `json:"class_name"`
	ConfidenceScore float64         `json:"confidence_score"`
	ImagePath       *string         `json:"image_path"`
	Instruction     string          `json:"instruction"`
	WasteImpact     disposal.Impact `json:"waste_impact"`
}

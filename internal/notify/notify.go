// Package notify 推送识别完成事件
package notify

import (
	"context"
	"time"
)

// AnalysisEvent 一次识别完成后发布的事件
type AnalysisEvent struct {
	ClassName       string    `json:"class_name"`
	ConfidenceScore float64   `json:"confidence_score"`
	Instruction     string    `json:"instruction"`
	UserID          *uint     `json:"user_id"`
	ImagePath       *string   `json:"image_path"`
	Timestamp       time.Time `json:"timestamp"`
}

// Publisher 事件发布器；发布失败不影响识别结果
type Publisher interface {
	Publish(ctx context.Context, ev AnalysisEvent) error
	Close()
}

// Nop 不发布任何事件
type Nop struct{}

func (Nop) Publish(context.Context, AnalysisEvent) error { return nil }
func (Nop) Close()                                        {}

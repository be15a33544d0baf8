package handler

import (
	"go.uber.org/zap"

	"wastewise/backend/internal/imagestore"
	"wastewise/backend/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Analysis *AnalysisHandler
	History  *HistoryHandler
	Image    *ImageHandler
	Auth     *AuthHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, images imagestore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Analysis: NewAnalysisHandler(svc.Analysis),
		History:  NewHistoryHandler(svc.History, svc.Export, svc.User),
		Image:    NewImageHandler(images, logger),
		Auth:     NewAuthHandler(svc.Auth),
	}
}

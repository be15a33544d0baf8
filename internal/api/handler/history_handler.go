package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"wastewise/backend/internal/dto"
	"wastewise/backend/internal/service"
	"wastewise/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HistoryHandler 历史、统计、导出与用户列表等读类接口
type HistoryHandler struct {
	historySvc service.HistoryService
	exportSvc  service.ExportService
	userSvc    service.UserService
}

// NewHistoryHandler 创建 HistoryHandler
func NewHistoryHandler(historySvc service.HistoryService, exportSvc service.ExportService, userSvc service.UserService) *HistoryHandler {
	return &HistoryHandler{historySvc: historySvc, exportSvc: exportSvc, userSvc: userSvc}
}

// History 识别历史，按时间倒序
// GET /history?user_id=&role=&limit=
func (h *HistoryHandler) History(c *gin.Context) {
	var q dto.HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, bindError(err, "Invalid query parameters"), response.Error)
		return
	}
	caller, err := readCaller(c, q.UserID, q.Role)
	if err != nil {
		writeError(c, err, response.Error)
		return
	}

	logs, err := h.historySvc.History(c.Request.Context(), caller, q.Limit)
	if err != nil {
		writeError(c, err, response.Error)
		return
	}
	response.OK(c, logs)
}

// Stats 识别统计
// GET /stats?user_id=&role=
func (h *HistoryHandler) Stats(c *gin.Context) {
	caller, ok := h.bindCaller(c)
	if !ok {
		return
	}

	stats, err := h.historySvc.Stats(c.Request.Context(), caller)
	if err != nil {
		writeError(c, err, response.Error)
		return
	}
	response.OK(c, stats)
}

// Categories 各标签占比
// GET /categories?user_id=&role=
func (h *HistoryHandler) Categories(c *gin.Context) {
	caller, ok := h.bindCaller(c)
	if !ok {
		return
	}

	shares, err := h.historySvc.Breakdown(c.Request.Context(), caller)
	if err != nil {
		writeError(c, err, response.Error)
		return
	}
	response.OK(c, shares)
}

// Export 导出识别历史为 Excel
// GET /export?user_id=&role=
func (h *HistoryHandler) Export(c *gin.Context) {
	caller, ok := h.bindCaller(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportHistory(c.Request.Context(), caller)
	if err != nil {
		writeError(c, err, response.Error)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Users 用户列表（仅管理员）
// GET /users?user_id=&role=
func (h *HistoryHandler) Users(c *gin.Context) {
	caller, ok := h.bindCaller(c)
	if !ok {
		return
	}

	users, err := h.userSvc.List(c.Request.Context(), caller)
	if err != nil {
		writeError(c, err, response.Error)
		return
	}
	response.OK(c, users)
}

func (h *HistoryHandler) bindCaller(c *gin.Context) (service.Caller, bool) {
	var q dto.CallerQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, bindError(err, "Invalid query parameters"), response.Error)
		return service.Caller{}, false
	}
	caller, err := readCaller(c, q.UserID, q.Role)
	if err != nil {
		writeError(c, err, response.Error)
		return service.Caller{}, false
	}
	return caller, true
}

package handler

import (
	"encoding/base64"
	"errors"
	"image"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"wastewise/backend/internal/classifier"
	"wastewise/backend/internal/dto"
	"wastewise/backend/internal/policy"
	"wastewise/backend/internal/service"
	apperr "wastewise/backend/pkg/errors"
	"wastewise/backend/pkg/response"
)

// AnalysisHandler 识别接口处理器
type AnalysisHandler struct {
	analysisSvc service.AnalysisService
}

// NewAnalysisHandler 创建 AnalysisHandler
func NewAnalysisHandler(analysisSvc service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisSvc: analysisSvc}
}

// Analyze 识别一张 base64 图片
// POST /analyze
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, bindError(err, "Invalid request body"), response.Error)
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		response.BadRequest(c, "No image provided")
		return
	}

	var userID uint
	if req.UserID != nil {
		userID = *req.UserID
	}
	caller, err := callerFrom(c, userID, req.Role, policy.RoleGuest)
	if err != nil {
		writeError(c, err, response.Error)
		return
	}

	img, err := decodeImage(req.Image)
	if err != nil {
		writeError(c, err, response.Error)
		return
	}

	result, err := h.analysisSvc.Analyze(c.Request.Context(), caller, img)
	if err != nil {
		writeError(c, err, response.Error)
		return
	}

	response.OK(c, result)
}

// decodeImage 解码 base64 图片，兼容 data URL 前缀
func decodeImage(s string) (image.Image, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			s = s[i+1:]
		}
	}

	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		var rawErr error
		if raw, rawErr = base64.RawStdEncoding.DecodeString(s); rawErr != nil {
			return nil, apperr.Wrap(apperr.ErrValidation, "Invalid image data: "+err.Error(), err)
		}
	}
	return classifier.Decode(raw)
}

// bindError 请求体绑定失败：超限原样返回，其余归为参数错误
func bindError(err error, msg string) error {
	if statusOf(err) == http.StatusRequestEntityTooLarge {
		return err
	}
	return apperr.Wrap(apperr.ErrValidation, msg, err)
}

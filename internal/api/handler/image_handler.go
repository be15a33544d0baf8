package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wastewise/backend/internal/imagestore"
	"wastewise/backend/pkg/response"
)

// ImageHandler 已保存识别图片的读取接口
type ImageHandler struct {
	images imagestore.Store
	logger *zap.Logger
}

// NewImageHandler 创建 ImageHandler
func NewImageHandler(images imagestore.Store, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{images: images, logger: logger}
}

// Get 返回图片原始字节
// GET /images/:filename
func (h *ImageHandler) Get(c *gin.Context) {
	name := c.Param("filename")
	if err := imagestore.ValidName(name); err != nil {
		response.BadRequest(c, "Invalid filename")
		return
	}

	data, err := h.images.Open(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, imagestore.ErrNotFound) {
			response.NotFound(c, "Image not found")
			return
		}
		h.logger.Error("读取图片失败", zap.String("filename", name), zap.Error(err))
		response.InternalError(c)
		return
	}

	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, "image/jpeg", data)
}

// Package imagestore 保存识别所用的图片帧，并按文件名回读
package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"wastewise/backend/config"
)

var (
	ErrNotFound    = errors.New("图片不存在")
	ErrInvalidName = errors.New("非法的图片文件名")
)

// 文件名中的时间部分格式
const timeLayout = "2006-01-02_15-04-05"

const jpegQuality = 90

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Store 图片存储
type Store interface {
	// Save 以 JPEG 编码保存，返回文件名 <label>_<时间>.jpg
	Save(ctx context.Context, label string, img image.Image) (string, error)
	// Open 读取已保存的图片
	Open(ctx context.Context, name string) ([]byte, error)
	// Delete 删除已保存的图片，图片不存在时不报错
	Delete(ctx context.Context, name string) error
}

// New 按配置创建存储后端
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case config.StorageLocal:
		return NewLocal(cfg.ImageDir)
	case config.StorageS3:
		return NewS3(ctx, &cfg.S3, logger)
	default:
		return nil, fmt.Errorf("不支持的存储后端: %s", cfg.Backend)
	}
}

// ValidName 校验文件名只含单层安全字符，拒绝路径穿越
func ValidName(name string) error {
	if !namePattern.MatchString(name) || strings.Contains(name, "..") {
		return ErrInvalidName
	}
	return nil
}

func fileName(label string, now time.Time) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" || !namePattern.MatchString(label) {
		label = "unknown"
	}
	return label + "_" + now.Format(timeLayout) + ".jpg"
}

func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("JPEG 编码失败: %w", err)
	}
	return buf.Bytes(), nil
}

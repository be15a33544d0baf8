package imagestore

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Local 本地目录存储
type Local struct {
	dir string
	now func() time.Time
}

// NewLocal 创建本地存储，目录不存在时自动创建
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("创建图片目录失败: %w", err)
	}
	return &Local{dir: dir, now: time.Now}, nil
}

func (s *Local) Save(_ context.Context, label string, img image.Image) (string, error) {
	data, err := encode(img)
	if err != nil {
		return "", err
	}
	name := fileName(label, s.now())
	// 同一秒内同标签的图片会覆盖前一张
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("写入图片失败: %w", err)
	}
	return name, nil
}

func (s *Local) Open(_ context.Context, name string) ([]byte, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取图片失败: %w", err)
	}
	return data, nil
}

func (s *Local) Delete(_ context.Context, name string) error {
	if err := ValidName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("删除图片失败: %w", err)
	}
	return nil
}

package capture

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"wastewise/backend/internal/classifier"
)

// DirSource 循环回放目录中的 JPEG/PNG 图片，替代摄像头
type DirSource struct {
	mu    sync.Mutex
	files []string
	next  int
}

// NewDirSource 扫描目录；没有可用图片时返回错误
func NewDirSource(dir string) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("读取帧目录失败: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("帧目录中没有图片: %s", dir)
	}
	sort.Strings(files)
	return &DirSource{files: files}, nil
}

// Read 按文件名顺序返回下一帧，到末尾后从头开始
func (s *DirSource) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	path := s.files[s.next]
	s.next = (s.next + 1) % len(s.files)
	s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取帧失败: %w", err)
	}
	img, err := classifier.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return img, nil
}

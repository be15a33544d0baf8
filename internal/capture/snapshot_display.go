package capture

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SnapshotDisplay 将最新叠加帧写入 JPEG 文件，作为无窗口环境下的预览
// 写入频率不超过每秒一次；Stop 后 PollKey 返回 Esc
type SnapshotDisplay struct {
	path     string
	every    time.Duration
	now      func() time.Time
	logger   *zap.Logger
	mu       sync.Mutex
	last     time.Time
	stopped  bool
	keyReady bool
}

// NewSnapshotDisplay 创建预览输出
func NewSnapshotDisplay(path string, logger *zap.Logger) *SnapshotDisplay {
	return &SnapshotDisplay{path: path, every: time.Second, now: time.Now, logger: logger}
}

func (d *SnapshotDisplay) Visible() bool { return true }

func (d *SnapshotDisplay) Show(frame image.Image) {
	d.mu.Lock()
	now := d.now()
	if !d.last.IsZero() && now.Sub(d.last) < d.every {
		d.mu.Unlock()
		return
	}
	d.last = now
	d.mu.Unlock()

	if err := d.write(frame); err != nil {
		d.logger.Warn("写入预览失败", zap.Error(err))
	}
}

// write 先写临时文件再改名，读取方不会看到半张图
func (d *SnapshotDisplay) write(frame image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(d.path), ".preview-*.jpg")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := jpeg.Encode(tmp, frame, &jpeg.Options{Quality: 80}); err != nil {
		tmp.Close()
		return fmt.Errorf("编码预览失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), d.path)
}

// PollKey Stop 之后返回一次 Esc
func (d *SnapshotDisplay) PollKey() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.keyReady {
		d.keyReady = false
		return KeyEsc
	}
	return -1
}

func (d *SnapshotDisplay) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped
}

// Stop 由信号处理调用，通知循环退出
func (d *SnapshotDisplay) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.keyReady = true
	d.mu.Unlock()
}

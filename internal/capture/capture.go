// Package capture 实现摄像头取帧、倒计时与定时识别的单线程循环
package capture

import (
	"context"
	"image"
	"time"
)

// KeyEsc 退出键
const KeyEsc = 27

// FrameSource 帧来源（摄像头或替代实现）
type FrameSource interface {
	Read(ctx context.Context) (image.Image, error)
}

// Display 预览窗口
type Display interface {
	// Visible 窗口不可见（最小化）时倒计时暂停
	Visible() bool
	Show(frame image.Image)
	// PollKey 返回待处理按键，无按键时返回 -1
	PollKey() int
	Closed() bool
}

// Result 叠加显示的识别结果，Confidence 为百分比
type Result struct {
	Label       string
	Confidence  float64
	Instruction string
}

// Analyzer 识别一帧
type Analyzer interface {
	Analyze(ctx context.Context, frame image.Image) (*Result, error)
}

// AnalyzerFunc 函数适配为 Analyzer
type AnalyzerFunc func(ctx context.Context, frame image.Image) (*Result, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, frame image.Image) (*Result, error) {
	return f(ctx, frame)
}

// Clock 时间源，测试中替换为假时钟
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock 系统时钟
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

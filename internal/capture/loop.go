package capture

import (
	"context"
	"image"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	apperr "wastewise/backend/pkg/errors"
)

// State 循环状态
type State int

const (
	StateIdle State = iota
	StatePaused
	StateAnalyzing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePaused:
		return "paused"
	case StateAnalyzing:
		return "analyzing"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Stats 运行计数
type Stats struct {
	Ticks      int
	Analyses   int
	Errors     int // 识别失败次数
	ReadErrors int
	Pauses     int
}

// Options 循环参数
type Options struct {
	Interval time.Duration
	FPS      int
}

// Loop 取帧 → 倒计时 → 识别 → 叠加显示
type Loop struct {
	source   FrameSource
	display  Display
	analyzer Analyzer
	clock    Clock
	logger   *zap.Logger

	interval   time.Duration
	frameDelay time.Duration

	mu     sync.Mutex
	state  State
	stats  Stats
	result *Result
	errMsg string
}

// NewLoop 创建循环
func NewLoop(src FrameSource, disp Display, analyzer Analyzer, clock Clock, opts Options, logger *zap.Logger) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	return &Loop{
		source:     src,
		display:    disp,
		analyzer:   analyzer,
		clock:      clock,
		logger:     logger,
		interval:   opts.Interval,
		frameDelay: time.Second / time.Duration(opts.FPS),
	}
}

// Run 阻塞运行直到窗口关闭、按下 Esc 或 ctx 取消
func (l *Loop) Run(ctx context.Context) error {
	deadline := l.clock.Now().Add(l.interval)
	var pausedAt time.Time
	paused := false

	defer l.setState(StateStopped)

	for {
		if ctx.Err() != nil {
			return nil
		}
		start := l.clock.Now()
		l.update(func(s *Stats) { s.Ticks++ })

		frame, err := l.source.Read(ctx)
		if err != nil {
			l.logger.Warn("读取帧失败", zap.Error(err))
			l.update(func(s *Stats) { s.ReadErrors++ })
			if l.shouldStop(ctx) {
				return nil
			}
			l.pace(start)
			continue
		}

		var remaining time.Duration
		if !l.display.Visible() {
			// 暂停期间剩余时间冻结
			if !paused {
				paused, pausedAt = true, start
				l.setState(StatePaused)
				l.update(func(s *Stats) { s.Pauses++ })
			}
			remaining = deadline.Sub(pausedAt)
		} else {
			if paused {
				deadline = deadline.Add(start.Sub(pausedAt))
				paused = false
				l.setState(StateIdle)
			}
			remaining = deadline.Sub(start)
			if remaining <= 0 {
				l.analyze(ctx, frame)
				deadline = l.clock.Now().Add(l.interval)
			}
		}

		l.display.Show(l.compose(frame, seconds(remaining)))

		if l.shouldStop(ctx) {
			return nil
		}
		l.pace(start)
	}
}

func (l *Loop) analyze(ctx context.Context, frame image.Image) {
	l.setState(StateAnalyzing)
	defer l.setState(StateIdle)

	res, err := l.analyzer.Analyze(ctx, frame)
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.logger.Warn("识别失败", zap.Error(err))
		l.stats.Errors++
		l.errMsg = apperr.Message(err)
		return
	}
	l.stats.Analyses++
	l.result = res
	l.errMsg = ""
	l.logger.Info("识别完成",
		zap.String("label", res.Label),
		zap.Float64("confidence", res.Confidence),
	)
}

func (l *Loop) compose(frame image.Image, remaining int) image.Image {
	l.mu.Lock()
	lines := overlayLines(remaining, l.result, l.errMsg)
	l.mu.Unlock()
	return drawOverlay(frame, lines)
}

func (l *Loop) shouldStop(ctx context.Context) bool {
	if ctx.Err() != nil || l.display.Closed() {
		return true
	}
	return l.display.PollKey() == KeyEsc
}

// pace 按帧率补足本帧剩余时间
func (l *Loop) pace(start time.Time) {
	if d := l.frameDelay - l.clock.Now().Sub(start); d > 0 {
		l.clock.Sleep(d)
	}
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

func (l *Loop) update(fn func(*Stats)) {
	l.mu.Lock()
	fn(&l.stats)
	l.mu.Unlock()
}

// State 当前状态
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Stats 运行计数快照
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

// LastResult 最近一次成功识别的结果
func (l *Loop) LastResult() *Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.result
}

// seconds 向上取整的剩余秒数，最小为 0
func seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

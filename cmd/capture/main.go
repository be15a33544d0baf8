package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"wastewise/backend/config"
	"wastewise/backend/internal/capture"
	"wastewise/backend/internal/classifier"
	"wastewise/backend/internal/imagestore"
	"wastewise/backend/internal/notify"
	"wastewise/backend/internal/policy"
	"wastewise/backend/internal/repository"
	"wastewise/backend/internal/service"
	"wastewise/backend/pkg/database"
	applogger "wastewise/backend/pkg/logger"
)

var configPath = flag.String("config", "", "配置文件路径（默认 ./config.yaml）")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	role, err := policy.ParseRole(cfg.Capture.Role)
	if err != nil {
		logger.Fatal("capture.role 无效", zap.String("role", cfg.Capture.Role))
	}
	caller := service.Caller{UserID: cfg.Capture.UserID, Role: role}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 依赖初始化 ──

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := database.EnsureSchema(sqlDB, cfg.Database.Driver, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	images, err := imagestore.New(ctx, &cfg.Storage, logger)
	if err != nil {
		logger.Fatal("初始化图片存储失败", zap.Error(err))
	}

	var publisher notify.Publisher = notify.Nop{}
	if cfg.MQTT.Enabled {
		if p, err := notify.NewMQTT(&cfg.MQTT, logger); err != nil {
			logger.Warn("MQTT 连接失败，识别事件将不推送", zap.Error(err))
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	labels, err := classifier.LoadLabels(cfg.Classifier.LabelsPath)
	if err != nil {
		logger.Fatal("加载标签文件失败", zap.String("path", cfg.Classifier.LabelsPath), zap.Error(err))
	}

	svc := service.NewService(service.Deps{
		Config:     cfg,
		Repo:       repository.NewRepository(db),
		Classifier: classifier.NewRemote(&cfg.Classifier, labels, logger),
		Images:     images,
		Publisher:  publisher,
		Logger:     logger,
	})

	// ── 摄像头循环 ──

	source, err := capture.NewDirSource(cfg.Capture.SourceDir)
	if err != nil {
		logger.Fatal("打开帧目录失败", zap.String("dir", cfg.Capture.SourceDir), zap.Error(err))
	}
	display := capture.NewSnapshotDisplay(cfg.Capture.PreviewPath, logger)

	go func() {
		<-ctx.Done()
		display.Stop()
	}()

	analyzer := capture.AnalyzerFunc(func(ctx context.Context, frame image.Image) (*capture.Result, error) {
		resp, err := svc.Analysis.Analyze(ctx, caller, frame)
		if err != nil {
			return nil, err
		}
		return &capture.Result{
			Label:       resp.ClassName,
			Confidence:  resp.ConfidenceScore,
			Instruction: resp.Instruction,
		}, nil
	})

	loop := capture.NewLoop(source, display, analyzer, capture.SystemClock{}, capture.Options{
		Interval: cfg.Capture.Interval,
		FPS:      cfg.Capture.FPS,
	}, logger)

	logger.Info("摄像头循环启动",
		zap.Duration("interval", cfg.Capture.Interval),
		zap.String("source", cfg.Capture.SourceDir),
		zap.String("preview", cfg.Capture.PreviewPath),
		zap.String("role", role.String()),
	)
	if err := loop.Run(ctx); err != nil {
		logger.Error("摄像头循环异常退出", zap.Error(err))
	}

	stats := loop.Stats()
	logger.Info("摄像头循环已停止",
		zap.Int("ticks", stats.Ticks),
		zap.Int("analyses", stats.Analyses),
		zap.Int("errors", stats.Errors),
	)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wastewise/backend/config"
	"wastewise/backend/internal/api/handler"
	"wastewise/backend/internal/api/middleware"
	"wastewise/backend/internal/api/router"
	"wastewise/backend/internal/classifier"
	"wastewise/backend/internal/imagestore"
	"wastewise/backend/internal/notify"
	"wastewise/backend/internal/repository"
	"wastewise/backend/internal/service"
	"wastewise/backend/pkg/database"
	"wastewise/backend/pkg/jwt"
	applogger "wastewise/backend/pkg/logger"
	"wastewise/backend/pkg/redis"
)

var configPath = flag.String("config", "", "配置文件路径（默认 ./config.yaml）")

func main() {
	flag.Parse()

	// 0. 读取 .env（可选）
	_ = godotenv.Load()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("analysis_port", cfg.Server.AnalysisPort),
		zap.Int("account_port", cfg.Server.AccountPort),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("guest_persistence", cfg.Feature.GuestPersistence),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. 连接数据库并确保表结构
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

	// 4. 连接 Redis（可选：失败时降级运行，限流与 Token 黑名单不可用）
	var (
		blacklist service.TokenBlacklist
		checker   middleware.TokenChecker
		limiter   middleware.RateLimiter
	)
	if cfg.Redis.Enabled {
		rdb, err := redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，限流与 Token 黑名单将不可用", zap.Error(err))
		} else {
			defer rdb.Close()
			blacklist, checker, limiter = rdb, rdb, rdb
		}
	}

	// 5. 图片存储
	images, err := imagestore.New(ctx, &cfg.Storage, logger)
	if err != nil {
		logger.Fatal("初始化图片存储失败", zap.Error(err))
	}

	// 6. 识别事件推送（可选）
	var publisher notify.Publisher = notify.Nop{}
	if cfg.MQTT.Enabled {
		p, err := notify.NewMQTT(&cfg.MQTT, logger)
		if err != nil {
			logger.Warn("MQTT 连接失败，识别事件将不推送", zap.Error(err))
		} else {
			publisher = p
		}
	}
	defer publisher.Close()

	// 7. 推理客户端
	labels, err := classifier.LoadLabels(cfg.Classifier.LabelsPath)
	if err != nil {
		logger.Fatal("加载标签文件失败", zap.String("path", cfg.Classifier.LabelsPath), zap.Error(err))
	}
	clf := classifier.NewRemote(&cfg.Classifier, labels, logger)
	logger.Info("推理客户端就绪",
		zap.String("endpoint", cfg.Classifier.Endpoint),
		zap.Strings("labels", labels),
	)

	// 8. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := service.NewService(service.Deps{
		Config:     cfg,
		Repo:       repository.NewRepository(db),
		Classifier: clf,
		Images:     images,
		Publisher:  publisher,
		JWT:        jwtMgr,
		Blacklist:  blacklist,
		Logger:     logger,
	})
	h := handler.NewHandler(svc, images, logger)

	// 9. 初始化路由
	gin.SetMode(gin.ReleaseMode)
	deps := router.Deps{Config: cfg, Handler: h, JWT: jwtMgr, Checker: checker, Limiter: limiter, Logger: logger}
	servers := []*http.Server{
		newServer(cfg.Server.AnalysisPort, router.SetupAnalysis(deps)),
		newServer(cfg.Server.AccountPort, router.SetupAccount(deps)),
	}

	// 10. 启动 HTTP 服务器，收到信号后优雅关闭
	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("%s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("开始优雅关闭...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("服务器关闭异常", zap.String("addr", srv.Addr), zap.Error(err))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("HTTP 服务器异常", zap.Error(err))
	}
	logger.Info("服务器已关闭")
}

func newServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

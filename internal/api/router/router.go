package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wastewise/backend/config"
	"wastewise/backend/internal/api/handler"
	"wastewise/backend/internal/api/middleware"
	"wastewise/backend/pkg/jwt"
	"wastewise/backend/pkg/response"
)

const corsMaxAge = 24 * time.Hour

// Deps 路由依赖；Checker 与 Limiter 在未启用 Redis 时为 nil
type Deps struct {
	Config  *config.Config
	Handler *handler.Handler
	JWT     *jwt.Manager
	Checker middleware.TokenChecker
	Limiter middleware.RateLimiter
	Logger  *zap.Logger
}

// SetupAnalysis 识别服务路由（默认 5000 端口），错误体为 {"error": ...}
func SetupAnalysis(d Deps) *gin.Engine {
	r := newEngine(d, response.Error, middleware.CORSPolicy{
		AllowOrigins:  d.Config.Server.CORS.AllowOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost},
		ExposeHeaders: []string{"Content-Disposition", "X-Request-ID"},
		MaxAge:        corsMaxAge,
	})
	h := d.Handler

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Camera is running.")
	})

	identified := r.Group("")
	identified.Use(middleware.OptionalJWT(d.JWT, d.Checker, response.Error, d.Logger))
	{
		identified.POST("/analyze", rateLimit(d, response.Error), h.Analysis.Analyze)
		identified.GET("/history", h.History.History)
		identified.GET("/stats", h.History.Stats)
		identified.GET("/categories", h.History.Categories)
		identified.GET("/export", h.History.Export)
		identified.GET("/users", h.History.Users)
	}

	r.GET("/images/:filename", h.Image.Get)

	return r
}

// SetupAccount 账户服务路由（默认 5001 端口），响应体为 {"message": ...}
func SetupAccount(d Deps) *gin.Engine {
	r := newEngine(d, response.Message, middleware.CORSPolicy{
		AllowOrigins:  d.Config.Server.CORS.AllowOrigins,
		AllowMethods:  []string{http.MethodPost},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        corsMaxAge,
	})
	h := d.Handler

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Login and Signup is running.")
	})

	r.POST("/sign_up", rateLimit(d, response.Message), h.Auth.SignUp)
	r.POST("/log_in", rateLimit(d, response.Message), h.Auth.Login)
	r.POST("/log_out", middleware.OptionalJWT(d.JWT, d.Checker, response.Message, d.Logger), h.Auth.Logout)

	return r
}

// newEngine 创建带全局中间件与健康检查的引擎
func newEngine(d Deps, write response.Writer, cors middleware.CORSPolicy) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(middleware.Recovery(d.Logger, write))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.CORS(cors))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(d.Config.Server.MaxBodyBytes, write))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.NoRoute(func(c *gin.Context) {
		write(c, http.StatusNotFound, "Not found")
	})

	return r
}

func rateLimit(d Deps, write response.Writer) gin.HandlerFunc {
	return middleware.RateLimit(d.Limiter, d.Config.Server.RateLimit, d.Config.Server.RateWindow, write)
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Storage    StorageConfig    `mapstructure:"storage"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	Capture    CaptureConfig    `mapstructure:"capture"`
	Feature    FeatureConfig    `mapstructure:"feature"`
}

// ServerConfig HTTP 服务器配置
// 分析服务与账户服务各自监听独立端口
type ServerConfig struct {
	AnalysisPort int           `mapstructure:"analysis_port"`
	AccountPort  int           `mapstructure:"account_port"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	RateLimit    int           `mapstructure:"rate_limit"` // 每个窗口允许的请求数
	RateWindow   time.Duration `mapstructure:"rate_window"`
	CORS         CORSConfig    `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// 支持的数据库驱动
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DatabaseConfig 数据库配置（默认本地 SQLite 文件）
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Path            string `mapstructure:"path"` // SQLite 数据文件
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 连接最大生命周期（分钟）
}

// DSN 生成数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	if c.Driver == DriverPostgres {
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
			c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
		)
	}
	// busy_timeout 与 WAL 保证单文件多连接下的写锁等待
	return c.Path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
}

// RedisConfig Redis 配置（限流与 Token 黑名单）
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ClassifierConfig 推理服务配置
type ClassifierConfig struct {
	Endpoint   string        `mapstructure:"endpoint"`
	Model      string        `mapstructure:"model"`
	LabelsPath string        `mapstructure:"labels_path"`
	InputSize  int           `mapstructure:"input_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// 图片存储后端
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

// StorageConfig 识别图片存储配置
type StorageConfig struct {
	Backend  string   `mapstructure:"backend"`
	ImageDir string   `mapstructure:"image_dir"`
	S3       S3Config `mapstructure:"s3"`
}

// S3Config S3 / MinIO 配置
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// MQTTConfig 识别结果事件推送配置
type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Topic    string `mapstructure:"topic"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CaptureConfig 摄像头循环配置
type CaptureConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	FPS         int           `mapstructure:"fps"`
	SourceDir   string        `mapstructure:"source_dir"`
	PreviewPath string        `mapstructure:"preview_path"`
	UserID      uint          `mapstructure:"user_id"`
	Role        string        `mapstructure:"role"`
}

// 游客识别结果的持久化策略
const (
	GuestPersistReject   = "reject"   // 不落库、不存图
	GuestPersistSentinel = "sentinel" // 以 user_id = NULL 落库
)

// FeatureConfig 功能开关配置
type FeatureConfig struct {
	GuestPersistence string `mapstructure:"guest_persistence"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.analysis_port", 5000)
	v.SetDefault("server.account_port", 5001)
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.rate_limit", 60)
	v.SetDefault("server.rate_window", "1m")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.path", "food_waste_tracker.db")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "wastewise")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 2)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.access_token_ttl", "24h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("classifier.endpoint", "http://localhost:8501")
	v.SetDefault("classifier.model", "waste")
	v.SetDefault("classifier.labels_path", "labels.txt")
	v.SetDefault("classifier.input_size", 224)
	v.SetDefault("classifier.timeout", "10s")

	v.SetDefault("storage.backend", StorageLocal)
	v.SetDefault("storage.image_dir", "saved_images")
	v.SetDefault("storage.s3.region", "us-east-1")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "wastewise")
	v.SetDefault("mqtt.topic", "wastewise/analysis")

	v.SetDefault("capture.interval", "10s")
	v.SetDefault("capture.fps", 30)
	v.SetDefault("capture.source_dir", "frames")
	v.SetDefault("capture.preview_path", "preview.jpg")
	v.SetDefault("capture.role", "guest")

	v.SetDefault("feature.guest_persistence", GuestPersistReject)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("WASTEWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	for _, p := range []int{c.Server.AnalysisPort, c.Server.AccountPort} {
		if p <= 0 || p > 65535 {
			return fmt.Errorf("配置校验失败: 端口必须在 1-65535 之间，实际 %d", p)
		}
	}
	if c.Server.AnalysisPort == c.Server.AccountPort {
		return fmt.Errorf("配置校验失败: analysis_port 与 account_port 不能相同")
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("配置校验失败: 不支持的 db.driver %q", c.Database.Driver)
	}
	switch c.Storage.Backend {
	case StorageLocal:
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("配置校验失败: storage.s3.bucket 不能为空")
		}
	default:
		return fmt.Errorf("配置校验失败: 不支持的 storage.backend %q", c.Storage.Backend)
	}
	switch c.Feature.GuestPersistence {
	case GuestPersistReject, GuestPersistSentinel:
	default:
		return fmt.Errorf("配置校验失败: feature.guest_persistence 必须为 reject 或 sentinel")
	}
	if c.Capture.FPS <= 0 {
		return fmt.Errorf("配置校验失败: capture.fps 必须大于 0")
	}
	if c.Capture.Interval <= 0 {
		return fmt.Errorf("配置校验失败: capture.interval 必须大于 0")
	}
	if c.Classifier.InputSize <= 0 {
		return fmt.Errorf("配置校验失败: classifier.input_size 必须大于 0")
	}
	return nil
}

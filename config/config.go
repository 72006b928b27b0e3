package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Mail       MailConfig       `mapstructure:"mail"`
	Log        LogConfig        `mapstructure:"log"`
	Attendance AttendanceConfig `mapstructure:"attendance"`
	Seed       SeedConfig       `mapstructure:"seed"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port            int        `mapstructure:"port"`
	MaxBodyBytes    int64      `mapstructure:"max_body_bytes"`
	CheckInPerMin   int        `mapstructure:"checkin_rate_per_min"` // 扫码接口每 IP 每分钟上限
	CORS            CORSConfig `mapstructure:"cors"`
	ShutdownTimeout int        `mapstructure:"shutdown_timeout"` // 秒
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
// 时区固定为 UTC：签到业务中的"今天"一律按 UTC 日历日计算
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	Audience  string        `mapstructure:"audience"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// MailConfig 邮件配置
// Provider 取值 smtp | sendgrid；留空或缺少必要参数时邮件发送降级为仅记录日志
type MailConfig struct {
	Provider    string `mapstructure:"provider"`
	SMTPHost    string `mapstructure:"smtp_host"`
	SMTPPort    int    `mapstructure:"smtp_port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	SenderEmail string `mapstructure:"sender_email"`
	SenderName  string `mapstructure:"sender_name"`
	SendGridKey string `mapstructure:"sendgrid_key"`
}

// Configured 是否具备真实发信条件
func (c *MailConfig) Configured() bool {
	if c.SenderEmail == "" {
		return false
	}
	switch c.Provider {
	case "sendgrid":
		return c.SendGridKey != ""
	case "smtp", "":
		return c.SMTPHost != ""
	}
	return false
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AttendanceConfig 考勤规则配置
type AttendanceConfig struct {
	ClassStart          string `mapstructure:"class_start"` // HH:MM[:SS]，UTC
	CheckInLockTTL      int    `mapstructure:"checkin_lock_ttl"` // 秒
	AtRiskWindowDays    int    `mapstructure:"at_risk_window_days"`
	AtRiskMinAttendance int    `mapstructure:"at_risk_min_attendance"`
	AtRiskMaxLate       int    `mapstructure:"at_risk_max_late"`
}

// ClassStartOffset 将 ClassStart 解析为距零点的时长
func (c *AttendanceConfig) ClassStartOffset() (time.Duration, error) {
	layouts := []string{"15:04:05", "15:04"}
	for _, layout := range layouts {
		t, err := time.Parse(layout, c.ClassStart)
		if err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("无效的上课时间 %q", c.ClassStart)
}

// SeedConfig 首次启动种子数据
type SeedConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量（含 .env）> 配置文件 > 默认值
func Load(path string) (*Config, error) {
	// .env 仅用于本地开发，不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("读取 .env 失败: %w", err)
	}

	v := viper.New()

	// ── 默认值 ──
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.checkin_rate_per_min", 120)
	v.SetDefault("server.shutdown_timeout", 10)
	v.SetDefault("server.cors.allow_origins", []string{
		"http://localhost:5173", "http://localhost:5174",
		"http://127.0.0.1:5173", "http://127.0.0.1:5174",
	})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "school_attendance")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.issuer", "SchoolAttendanceAPI")
	v.SetDefault("auth.audience", "SchoolAttendanceClient")
	v.SetDefault("auth.token_ttl", "168h")

	v.SetDefault("mail.provider", "smtp")
	v.SetDefault("mail.smtp_port", 587)
	v.SetDefault("mail.sender_name", "School Attendance System")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("attendance.class_start", "09:00")
	v.SetDefault("attendance.checkin_lock_ttl", 5)
	v.SetDefault("attendance.at_risk_window_days", 30)
	v.SetDefault("attendance.at_risk_min_attendance", 15)
	v.SetDefault("attendance.at_risk_max_late", 5)

	v.SetDefault("seed.enabled", true)

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
	v.SetEnvPrefix("ATTEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
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
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 32 字符")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("配置校验失败: auth.token_ttl 必须为正数")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	if _, err := c.Attendance.ClassStartOffset(); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	return nil
}

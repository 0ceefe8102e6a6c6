package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ==================== 配置结构 ====================

// Config 服务全局配置
// 加载顺序: 默认值 -> config.yaml -> SHOP_ 前缀环境变量
type Config struct {
	Debug    bool           `mapstructure:"debug"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Tasks    TaskConfig     `mapstructure:"tasks"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // debug, release, test
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadMB     int64         `mapstructure:"max_upload_mb"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // postgres, sqlite
	DSN          string `mapstructure:"dsn"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	LogSQL       bool   `mapstructure:"log_sql"`
}

type StorageConfig struct {
	Provider  string `mapstructure:"provider"` // s3, cos, local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Endpoint  string `mapstructure:"endpoint"`
	CDNDomain string `mapstructure:"cdn_domain"`
	BasePath  string `mapstructure:"base_path"`
}

type JWTConfig struct {
	SecretKey       string        `mapstructure:"secret_key"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	Issuer          string        `mapstructure:"issuer"`
}

type TaskConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	StatsSnapshot    string `mapstructure:"stats_snapshot"`    // cron 表达式 (含秒)
	UploadCleanup    string `mapstructure:"upload_cleanup"`    // cron 表达式 (含秒)
	SubmitCooldownMS int    `mapstructure:"submit_cooldown_ms"` // 同一商品两次提交最小间隔
}

// AdminConfig 首次启动时自动创建的管理员
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// ==================== 加载 ====================

// Load 读取配置
// path 为空时在当前目录查找 config.yaml，找不到则只用默认值和环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("读取配置文件失败: %w", err)
			}
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.max_upload_mb", 32)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost user=shop_admin password=1234 dbname=storefront port=5432 sslmode=disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.log_sql", false)

	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.endpoint", "http://localhost:8080/uploads")
	v.SetDefault("storage.cdn_domain", "")
	v.SetDefault("storage.base_path", "./uploads")

	v.SetDefault("jwt.secret_key", "storefront-secret-key-change-in-production")
	v.SetDefault("jwt.access_token_ttl", 2*time.Hour)
	v.SetDefault("jwt.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("jwt.issuer", "storefront")

	v.SetDefault("tasks.enabled", true)
	v.SetDefault("tasks.stats_snapshot", "0 5 0 * * *")
	v.SetDefault("tasks.upload_cleanup", "0 0/10 * * * *")
	v.SetDefault("tasks.submit_cooldown_ms", 1000)

	v.SetDefault("admin.username", "")
	v.SetDefault("admin.password", "")
}

// Validate 校验必填项
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn 不能为空")
	}
	if c.Server.Port == "" {
		return errors.New("server.port 不能为空")
	}
	if c.JWT.SecretKey == "" {
		return errors.New("jwt.secret_key 不能为空")
	}
	return nil
}

// GetEnv 读取环境变量，不存在时返回默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	applog "storefront_202610/pkg/logger"
)

// Options 数据库连接参数
type Options struct {
	Driver       string // postgres, sqlite
	DSN          string
	MaxIdleConns int
	MaxOpenConns int
	LogSQL       bool // 打印全部 SQL，开发环境使用
}

// InitDB 初始化数据库连接
// models: 需要自动建表/迁移的结构体指针
func InitDB(opts Options, models ...interface{}) (*gorm.DB, error) {
	dialector, err := dialectorFor(opts)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if opts.LogSQL {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	// 获取底层的 sqlDB 对象，用于设置连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 SQL DB 失败: %w", err)
	}

	if opts.Driver == "sqlite" {
		// sqlite 单写者
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(orDefault(opts.MaxIdleConns, 10))
		sqlDB.SetMaxOpenConns(orDefault(opts.MaxOpenConns, 100))
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	applog.Named("DB").Info("数据库连接成功", zap.String("driver", opts.Driver))

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("自动建表出错: %w", err)
		}
	}

	return db, nil
}

func dialectorFor(opts Options) (gorm.Dialector, error) {
	switch opts.Driver {
	case "", "postgres":
		return postgres.Open(opts.DSN), nil
	case "sqlite":
		return sqlite.Open(opts.DSN), nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", opts.Driver)
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

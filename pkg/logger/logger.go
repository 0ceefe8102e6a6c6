package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

// Init 初始化全局日志
// debug 模式下输出 Debug 级别，并使用开发者友好的格式
func Init(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	Set(l)
	return l, nil
}

// Set 替换全局日志 (测试中注入 zaptest / observer)
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	global = l
	mu.Unlock()
}

// L 获取全局日志
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Named 带模块名的子日志，对应原先 "[DB] ..." 这类前缀
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync 退出前刷新缓冲
func Sync() {
	_ = L().Sync()
}

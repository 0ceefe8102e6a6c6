package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"storefront_202610/internal/repository"
	"storefront_202610/pkg/logger"
)

// ==================== TaskManager 后台任务管理器 ====================

// TaskManager 统一管理后台定时任务
type TaskManager struct {
	snapshotTask *StatsSnapshotTask
	cleanupTask  *UploadCleanupTask
	log          *zap.Logger
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	Dashboard    Snapshotter
	DeletionRepo repository.DeletionRepository
	Storage      ObjectDeleter
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	SnapshotEnabled bool
	SnapshotSpec    string

	CleanupEnabled     bool
	CleanupSpec        string
	CleanupBatchSize   int
	CleanupMaxAttempts int
	CleanupConcurrency int
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		SnapshotEnabled: true,
		SnapshotSpec:    DefaultSnapshotSpec,

		CleanupEnabled:     true,
		CleanupSpec:        "0 0/10 * * * *",
		CleanupBatchSize:   100,
		CleanupMaxAttempts: 5,
		CleanupConcurrency: 8,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{log: logger.Named("TaskManager")}

	if cfg.SnapshotEnabled && deps.Dashboard != nil {
		tm.snapshotTask = NewStatsSnapshotTask(deps.Dashboard, cfg.SnapshotSpec)
	}

	if cfg.CleanupEnabled && deps.DeletionRepo != nil && deps.Storage != nil {
		tm.cleanupTask = NewUploadCleanupTask(deps.DeletionRepo, deps.Storage)
		tm.cleanupTask.SetOptions(cfg.CleanupSpec, cfg.CleanupBatchSize, cfg.CleanupMaxAttempts, cfg.CleanupConcurrency)
	}

	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() error {
	tm.log.Info("正在启动后台任务...")

	if tm.snapshotTask != nil {
		if err := tm.snapshotTask.Start(); err != nil {
			return err
		}
	}
	if tm.cleanupTask != nil {
		if err := tm.cleanupTask.Start(); err != nil {
			return err
		}
	}

	tm.log.Info("后台任务已全部启动")
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	if tm.snapshotTask != nil {
		tm.snapshotTask.Stop()
	}
	if tm.cleanupTask != nil {
		tm.cleanupTask.Stop()
	}
	tm.log.Info("后台任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerCleanup 立即执行一轮清理
func (tm *TaskManager) TriggerCleanup() (CleanupResult, error) {
	if tm.cleanupTask == nil {
		return CleanupResult{}, ErrTaskDisabled
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	return tm.cleanupTask.Execute(ctx), nil
}

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"stats_snapshot": tm.snapshotTask != nil,
		"upload_cleanup": tm.cleanupTask != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)

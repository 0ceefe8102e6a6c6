package task

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"storefront_202610/internal/repository"
	"storefront_202610/pkg/logger"
)

// ObjectDeleter 删除存储对象
type ObjectDeleter interface {
	Delete(ctx context.Context, publicID string) error
}

// UploadCleanupTask 重试清理事务失败后残留的上传文件
type UploadCleanupTask struct {
	deletions repository.DeletionRepository
	storage   ObjectDeleter
	Cron      *cron.Cron
	log       *zap.Logger

	spec        string
	batchSize   int
	maxAttempts int
	concurrency int
}

// CleanupResult 一轮清理的结果
type CleanupResult struct {
	Deleted int64 `json:"deleted"`
	Failed  int64 `json:"failed"`
}

func NewUploadCleanupTask(deletions repository.DeletionRepository, storage ObjectDeleter) *UploadCleanupTask {
	return &UploadCleanupTask{
		deletions:   deletions,
		storage:     storage,
		Cron:        cron.New(cron.WithSeconds()),
		log:         logger.Named("UploadCleanup"),
		spec:        "0 0/10 * * * *",
		batchSize:   100,
		maxAttempts: 5,
		concurrency: 8,
	}
}

// SetOptions 调整调度与批量参数，零值保持默认
func (t *UploadCleanupTask) SetOptions(spec string, batchSize, maxAttempts, concurrency int) {
	if spec != "" {
		t.spec = spec
	}
	if batchSize > 0 {
		t.batchSize = batchSize
	}
	if maxAttempts > 0 {
		t.maxAttempts = maxAttempts
	}
	if concurrency > 0 {
		t.concurrency = concurrency
	}
}

func (t *UploadCleanupTask) Start() error {
	_, err := t.Cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		t.Execute(ctx)
	})
	if err != nil {
		return err
	}

	t.Cron.Start()
	t.log.Info("上传清理任务已启动", zap.String("spec", t.spec))
	return nil
}

func (t *UploadCleanupTask) Stop() {
	<-t.Cron.Stop().Done()
}

// Execute 处理一批待删除对象
func (t *UploadCleanupTask) Execute(ctx context.Context) CleanupResult {
	rows, err := t.deletions.ListPending(ctx, t.maxAttempts, t.batchSize)
	if err != nil {
		t.log.Error("查询待删除队列失败", zap.Error(err))
		return CleanupResult{}
	}
	if len(rows) == 0 {
		return CleanupResult{}
	}

	var deleted, failed atomic.Int64
	p := pool.New().WithMaxGoroutines(t.concurrency)
	for _, row := range rows {
		row := row
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			if err := t.storage.Delete(ctx, row.PublicID); err != nil {
				failed.Add(1)
				t.log.Warn("删除对象失败", zap.String("public_id", row.PublicID), zap.Error(err))
				if err := t.deletions.MarkFailed(ctx, row.ID, err.Error()); err != nil {
					t.log.Error("记录失败次数失败", zap.Int64("id", row.ID), zap.Error(err))
				}
				return
			}
			deleted.Add(1)
			if err := t.deletions.MarkDone(ctx, row.ID); err != nil {
				t.log.Error("移出队列失败", zap.Int64("id", row.ID), zap.Error(err))
			}
		})
	}
	p.Wait()

	result := CleanupResult{Deleted: deleted.Load(), Failed: failed.Load()}
	t.log.Info("本轮清理完成", zap.Int64("deleted", result.Deleted), zap.Int64("failed", result.Failed))
	return result
}

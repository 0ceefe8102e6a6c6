package task

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"storefront_202610/internal/model"
	"storefront_202610/pkg/logger"
)

// Snapshotter 写入当日指标快照
type Snapshotter interface {
	Snapshot(ctx context.Context) (model.StatsCounts, error)
}

// StatsSnapshotTask 每日指标快照，仪表盘环比以此为基准
type StatsSnapshotTask struct {
	dashboard Snapshotter
	Cron      *cron.Cron
	spec      string
	log       *zap.Logger
}

// DefaultSnapshotSpec 每天 00:05:00
const DefaultSnapshotSpec = "0 5 0 * * *"

func NewStatsSnapshotTask(dashboard Snapshotter, spec string) *StatsSnapshotTask {
	if spec == "" {
		spec = DefaultSnapshotSpec
	}
	return &StatsSnapshotTask{
		dashboard: dashboard,
		Cron:      cron.New(cron.WithSeconds()),
		spec:      spec,
		log:       logger.Named("StatsSnapshot"),
	}
}

// Start 启动定时任务，启动时先补一次当天快照
func (t *StatsSnapshotTask) Start() error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		t.Execute(ctx)
	}()

	_, err := t.Cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		t.Execute(ctx)
	})
	if err != nil {
		return err
	}

	t.Cron.Start()
	t.log.Info("指标快照任务已启动", zap.String("spec", t.spec))
	return nil
}

// Stop 停止调度并等待正在执行的任务
func (t *StatsSnapshotTask) Stop() {
	<-t.Cron.Stop().Done()
}

// Execute 执行一次快照
func (t *StatsSnapshotTask) Execute(ctx context.Context) {
	counts, err := t.dashboard.Snapshot(ctx)
	if err != nil {
		t.log.Error("写入快照失败", zap.Error(err))
		return
	}
	t.log.Info("快照完成",
		zap.Int64("revenue", counts.Revenue),
		zap.Int64("users", counts.Users),
		zap.Int64("orders", counts.Orders),
		zap.Int64("products", counts.Products),
	)
}

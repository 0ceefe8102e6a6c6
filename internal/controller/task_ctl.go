package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_202610/internal/task"
)

// TaskRunner 后台任务的手动触发入口
type TaskRunner interface {
	TriggerCleanup() (task.CleanupResult, error)
	Status() map[string]bool
}

// TaskController 后台任务控制器
type TaskController struct {
	runner TaskRunner
}

// NewTaskController 创建任务控制器
func NewTaskController(runner TaskRunner) *TaskController {
	return &TaskController{runner: runner}
}

// Status 各任务是否启用
// GET /api/admin/tasks
func (c *TaskController) Status(ctx *gin.Context) {
	ok(ctx, "success", c.runner.Status())
}

// Cleanup 立即清理一轮待删除的上传文件
// POST /api/admin/tasks/cleanup
func (c *TaskController) Cleanup(ctx *gin.Context) {
	res, err := c.runner.TriggerCleanup()
	if err != nil {
		if errors.Is(err, task.ErrTaskDisabled) {
			fail(ctx, http.StatusConflict, "清理任务未启用")
			return
		}
		failErr(ctx, err)
		return
	}
	ok(ctx, "清理完成", res)
}

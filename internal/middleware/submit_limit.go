package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== SubmitLimiter 提交冷却 ====================

// SubmitLimiter 按 key 记录最后一次放行时间
// 防止同一表单在冷却期内被重复提交 (双击、网络重放)
type SubmitLimiter struct {
	locks sync.Map // key -> *lockEntry
}

type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// NewSubmitLimiter 创建限流器
func NewSubmitLimiter() *SubmitLimiter {
	return &SubmitLimiter{}
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool          // 是否允许
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查并在放行时记录时间
func (r *SubmitLimiter) Check(key string, interval time.Duration) CheckResult {
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(entry.lastTime)
	if elapsed < interval {
		return CheckResult{
			Allowed:    false,
			RetryAfter: interval - elapsed,
		}
	}

	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 重置指定 key
// 提交失败时调用，允许用户立即重试
func (r *SubmitLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// SubmitKey 生成 "user:{uid}:{action}:{id}"
func SubmitKey(userID int64, action string, resourceID int64) string {
	return fmt.Sprintf("user:%d:%s:%d", userID, action, resourceID)
}

// ==================== Gin 中间件 ====================

// SubmitCooldown 提交冷却中间件，按 用户 + 动作 + 路径参数 id 限流
//
//	admin.PUT("/products/:id",
//	    middleware.SubmitCooldown(limiter, "product_update", time.Second),
//	    productCtl.Update,
//	)
//
// 下游返回 4xx/5xx 时重置冷却
func SubmitCooldown(limiter *SubmitLimiter, action string, interval time.Duration) gin.HandlerFunc {
	if interval <= 0 {
		interval = time.Second
	}

	return func(c *gin.Context) {
		var resourceID int64
		if idStr := c.Param("id"); idStr != "" {
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"code":    400,
					"message": "无效的 ID",
				})
				c.Abort()
				return
			}
			resourceID = id
		}

		key := SubmitKey(GetUserID(c), action, resourceID)
		result := limiter.Check(key, interval)
		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": formatRetryMessage(result.RetryAfter),
				"data": gin.H{
					"retry_after_ms": result.RetryAfter.Milliseconds(),
				},
			})
			c.Abort()
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			limiter.Reset(key)
		}
	}
}

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 1 {
		return "提交过于频繁，请稍后重试"
	}
	if seconds < 60 {
		return fmt.Sprintf("提交过于频繁，请 %d 秒后重试", seconds)
	}
	return fmt.Sprintf("提交过于频繁，请 %d 分钟后重试", seconds/60)
}

package middleware

import (
	"context"
	"reflect"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ==================== 审计上下文 ====================

type auditContextKey struct{}

// AuditInfo 审计信息
type AuditInfo struct {
	UserID   int64
	Username string
}

// WithAuditInfo 注入审计信息到 context
func WithAuditInfo(ctx context.Context, userID int64, username string) context.Context {
	return context.WithValue(ctx, auditContextKey{}, &AuditInfo{
		UserID:   userID,
		Username: username,
	})
}

// GetAuditUserID 从 context 获取审计用户 ID
func GetAuditUserID(ctx context.Context) int64 {
	if ctx == nil {
		return 0
	}
	if info, ok := ctx.Value(auditContextKey{}).(*AuditInfo); ok {
		return info.UserID
	}
	return 0
}

// AuditContext 将 JWT 中的用户信息注入 request context，供 GORM 回调使用
// 必须挂在 JWTAuth 之后
func AuditContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := GetUserID(c); userID > 0 {
			ctx := WithAuditInfo(c.Request.Context(), userID, GetUsername(c))
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// ==================== GORM 回调 ====================

// RegisterAuditCallbacks 注册 GORM 审计回调
// Create 填充 CreatedBy/UpdatedBy；Update 填充 UpdatedBy (struct 与 map 两种写法都支持)
func RegisterAuditCallbacks(db *gorm.DB) error {
	err := db.Callback().Create().Before("gorm:create").Register("audit:create", func(tx *gorm.DB) {
		userID := GetAuditUserID(tx.Statement.Context)
		if userID == 0 || tx.Statement.Schema == nil {
			return
		}
		setIfZero(tx, "CreatedBy", userID)
		setIfZero(tx, "UpdatedBy", userID)
	})
	if err != nil {
		return err
	}

	return db.Callback().Update().Before("gorm:update").Register("audit:update", func(tx *gorm.DB) {
		userID := GetAuditUserID(tx.Statement.Context)
		if userID == 0 || tx.Statement.Schema == nil {
			return
		}
		if tx.Statement.Schema.LookUpField("UpdatedBy") == nil {
			return
		}
		tx.Statement.SetColumn("UpdatedBy", userID, true)
	})
}

// setIfZero 仅在字段为零值时写入，保留调用方显式指定的值
func setIfZero(tx *gorm.DB, fieldName string, value int64) {
	field := tx.Statement.Schema.LookUpField(fieldName)
	if field == nil {
		return
	}

	ctx := tx.Statement.Context
	switch tx.Statement.ReflectValue.Kind() {
	case reflect.Struct:
		if _, isZero := field.ValueOf(ctx, tx.Statement.ReflectValue); isZero {
			_ = field.Set(ctx, tx.Statement.ReflectValue, value)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < tx.Statement.ReflectValue.Len(); i++ {
			rv := reflect.Indirect(tx.Statement.ReflectValue.Index(i))
			if _, isZero := field.ValueOf(ctx, rv); isZero {
				_ = field.Set(ctx, rv, value)
			}
		}
	}
}

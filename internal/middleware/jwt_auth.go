package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ==================== JWT 配置 ====================

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey       string        // 签名密钥
	AccessTokenTTL  time.Duration // Access Token 有效期
	RefreshTokenTTL time.Duration // Refresh Token 有效期
	Issuer          string        // 签发者
}

// Token 类型，写在 Subject 中
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

// ==================== Claims 定义 ====================

// UserClaims 用户声明
type UserClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// ==================== JWTManager ====================

// JWTManager 负责签发与校验 Token
type JWTManager struct {
	cfg JWTConfig
	now func() time.Time
}

// NewJWTManager 创建 JWTManager，TTL 为 0 时使用默认值
func NewJWTManager(cfg JWTConfig) *JWTManager {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 2 * time.Hour
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "storefront"
	}
	return &JWTManager{cfg: cfg, now: time.Now}
}

// Config 当前配置
func (m *JWTManager) Config() JWTConfig {
	return m.cfg
}

func (m *JWTManager) generate(userID int64, username, role, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &UserClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Subject:   tokenType,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.cfg.SecretKey))
}

// GenerateTokenPair 生成 Token 对
func (m *JWTManager) GenerateTokenPair(userID int64, username, role string) (accessToken, refreshToken string, err error) {
	accessToken, err = m.generate(userID, username, role, TokenTypeAccess, m.cfg.AccessTokenTTL)
	if err != nil {
		return "", "", err
	}

	refreshToken, err = m.generate(userID, username, role, TokenTypeRefresh, m.cfg.RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

// ParseToken 解析并校验 Token
func (m *JWTManager) ParseToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(m.cfg.SecretKey), nil
	}, jwt.WithIssuer(m.cfg.Issuer))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// ==================== Gin 中间件 ====================

// Context Keys
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
	ContextKeyRole     = "role"
	ContextKeyClaims   = "claims"
)

// JWTAuth JWT 认证中间件
func JWTAuth(m *JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "未提供认证信息")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "认证格式错误，应为 Bearer {token}")
			return
		}

		claims, err := m.ParseToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "Token 无效或已过期")
			return
		}

		if claims.Subject != TokenTypeAccess {
			abortUnauthorized(c, "Token 类型错误")
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUsername, claims.Username)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"code":    401,
		"message": msg,
	})
	c.Abort()
}

// RequireRole 角色权限校验中间件
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := GetUserRole(c)
		if userRole == "" {
			abortUnauthorized(c, "未获取到用户角色")
			return
		}

		for _, r := range roles {
			if userRole == r {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"code":    403,
			"message": "无权限访问",
		})
		c.Abort()
	}
}

// ==================== 辅助函数 ====================

// GetUserID 从 Context 获取用户 ID
func GetUserID(c *gin.Context) int64 {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if v, ok := id.(int64); ok {
			return v
		}
	}
	return 0
}

// GetUsername 从 Context 获取用户名
func GetUsername(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}

// GetUserRole 从 Context 获取用户角色
func GetUserRole(c *gin.Context) string {
	return c.GetString(ContextKeyRole)
}

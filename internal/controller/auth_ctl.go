package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_202610/internal/api/dto"
	"storefront_202610/internal/service"
)

// ==================== AuthController 认证 ====================

type AuthController struct {
	authSvc *service.AuthService
}

func NewAuthController(authSvc *service.AuthService) *AuthController {
	return &AuthController{authSvc: authSvc}
}

// Login POST /api/auth/login
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	pair, err := c.authSvc.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		failErr(ctx, err)
		return
	}
	ok(ctx, "登录成功", toLoginResponse(pair))
}

// Refresh POST /api/auth/refresh
func (c *AuthController) Refresh(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	pair, err := c.authSvc.Refresh(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		failErr(ctx, err)
		return
	}
	ok(ctx, "刷新成功", toLoginResponse(pair))
}

// Register POST /api/auth/register
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	user, err := c.authSvc.Register(ctx.Request.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		failErr(ctx, err)
		return
	}
	ok(ctx, "注册成功", dto.ToUserInfo(user))
}

// SetActive PUT /api/admin/users/:id/active
func (c *AuthController) SetActive(ctx *gin.Context) {
	id, valid := pathID(ctx)
	if !valid {
		return
	}
	var req dto.SetActiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}
	if err := c.authSvc.SetUserActive(ctx.Request.Context(), id, *req.Active); err != nil {
		failErr(ctx, err)
		return
	}
	ok(ctx, "更新成功", gin.H{"id": id, "active": *req.Active})
}

func toLoginResponse(p *service.TokenPair) dto.LoginResponse {
	return dto.LoginResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresAt:    p.ExpiresAt,
		User:         dto.ToUserInfo(p.User),
	}
}

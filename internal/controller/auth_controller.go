package controller

import (
	"labelmarket_backend/internal/model"
	"labelmarket_backend/internal/service"
	"labelmarket_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthController 注册登录与个人资料
type AuthController struct {
	AuthService *service.AuthService
	UserService *service.UserService
}

func NewAuthController(authService *service.AuthService, userService *service.UserService) *AuthController {
	return &AuthController{AuthService: authService, UserService: userService}
}

// RegisterRequest 注册请求
// swagger:model RegisterRequest
type RegisterRequest struct {
	Name     string         `json:"name" binding:"required"`
	Email    string         `json:"email" binding:"required,email"`
	Password string         `json:"password" binding:"required,min=6"`
	Role     model.UserRole `json:"role" binding:"required,oneof=tagger publisher"`
}

// Register godoc
// @Summary 注册账号
// @Description 注册标注者或发布方账号
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "注册请求"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 409 {object} util.Response "邮箱已被注册"
// @Router /api/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var request RegisterRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user := &model.User{
		Name:     request.Name,
		Email:    request.Email,
		Password: request.Password,
		Role:     request.Role,
	}
	if err := c.AuthService.Register(user); err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"user": user,
	})
}

// LoginRequest 登录请求
// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary 登录
// @Description 邮箱密码登录，返回JWT令牌
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录请求"
// @Success 200 {object} util.Response{data=map[string]interface{}}
// @Failure 401 {object} util.Response "凭证无效"
// @Router /api/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var request LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, err := c.AuthService.Login(request.Email, request.Password)
	if err != nil {
		util.Unauthorized(ctx)
		return
	}

	util.Success(ctx, gin.H{
		"token": token,
	})
}

// GetProfile godoc
// @Summary 当前用户资料
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=model.User}
// @Failure 401 {object} util.Response "未授权"
// @Router /api/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	user, err := c.UserService.GetProfile(claims.UserID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"user": user,
	})
}

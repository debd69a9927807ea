package controller

import (
	"labelmarket_backend/internal/service"
	"labelmarket_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AssignmentController 标注者领取/拒绝任务相关接口
type AssignmentController struct {
	AssignmentService *service.AssignmentService
}

func NewAssignmentController(assignmentService *service.AssignmentService) *AssignmentController {
	return &AssignmentController{
		AssignmentService: assignmentService,
	}
}

// Accept godoc
// @Summary 领取任务
// @Description 标注者接受已分发任务，或自领取toall任务；受信誉分每日领取上限约束
// @Tags 标注分配
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "任务ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response "账号被封禁"
// @Failure 404 {object} util.Response "任务未分配给当前用户"
// @Failure 409 {object} util.Response "重复领取"
// @Failure 429 {object} util.Response "超出领取上限"
// @Router /api/tagger/tasks/{taskId}/accept [post]
func (c *AssignmentController) Accept(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	taskID, ok := parseTaskID(ctx)
	if !ok {
		return
	}

	if err := c.AssignmentService.Accept(taskID, claims.UserID); err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"message": "领取成功",
	})
}

// Refuse godoc
// @Summary 拒绝任务
// @Description 拒绝分配的任务；toall任务可直接拒绝以屏蔽后续展示
// @Tags 标注分配
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "任务ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "当前状态不可拒绝"
// @Failure 404 {object} util.Response "任务未分配给当前用户"
// @Router /api/tagger/tasks/{taskId}/refuse [post]
func (c *AssignmentController) Refuse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	taskID, ok := parseTaskID(ctx)
	if !ok {
		return
	}

	if err := c.AssignmentService.Refuse(taskID, claims.UserID); err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"message": "已拒绝",
	})
}

// IsAccepted godoc
// @Summary 查询是否已领取
// @Tags 标注分配
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "任务ID"
// @Success 200 {object} util.Response{data=map[string]interface{}}
// @Router /api/tagger/tasks/{taskId}/accepted [get]
func (c *AssignmentController) IsAccepted(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	taskID, ok := parseTaskID(ctx)
	if !ok {
		return
	}

	accepted, err := c.AssignmentService.IsAccepted(taskID, claims.UserID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"accepted": accepted,
	})
}

// GetQuota godoc
// @Summary 当日领取额度
// @Description 滚动24小时窗口内的领取上限、已用与剩余数量
// @Tags 标注分配
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=map[string]interface{}}
// @Router /api/tagger/quota [get]
func (c *AssignmentController) GetQuota(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	quota, err := c.AssignmentService.Quota(claims.UserID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"quota": quota,
	})
}

// ListMine godoc
// @Summary 我的标注任务
// @Description 标注者查看自己名下全部分配记录
// @Tags 标注分配
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码，默认1" default(1)
// @Param limit query int false "每页数量，默认10" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/tagger/assignments [get]
func (c *AssignmentController) ListMine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page, limit := pagination(ctx)

	assignments, total, err := c.AssignmentService.ListMine(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: assignments, Total: total, Page: page, Limit: limit})
}

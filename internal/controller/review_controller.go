package controller

import (
	"strconv"

	"labelmarket_backend/internal/service"
	"labelmarket_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ReviewController 任务审核、抽样验收与标注者管理接口
type ReviewController struct {
	TaskService   *service.TaskService
	ReviewService *service.ReviewService
	PoolService   *service.PoolService
}

func NewReviewController(
	taskService *service.TaskService,
	reviewService *service.ReviewService,
	poolService *service.PoolService,
) *ReviewController {
	return &ReviewController{
		TaskService:   taskService,
		ReviewService: reviewService,
		PoolService:   poolService,
	}
}

// CheckTaskRequest 管理员审核任务请求
type CheckTaskRequest struct {
	Pass bool `json:"pass"`
}

// CheckPassRequest 人工验收结论请求
type CheckPassRequest struct {
	Pass bool `json:"pass"`
}

// ListPendingTasks godoc
// @Summary 待审核任务列表
// @Tags 平台管理
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码，默认1" default(1)
// @Param limit query int false "每页数量，默认10" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/admin/tasks/pending [get]
func (c *ReviewController) ListPendingTasks(ctx *gin.Context) {
	page, limit := pagination(ctx)

	tasks, total, err := c.TaskService.ListPendingCheck(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: tasks, Total: total, Page: page, Limit: limit})
}

// CheckTask godoc
// @Summary 审核任务
// @Description 管理员审核发布方提交的任务，通过后方可分发
// @Tags 平台管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "任务ID"
// @Param request body CheckTaskRequest true "审核结论"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "任务不存在"
// @Router /api/admin/tasks/{taskId}/check [post]
func (c *ReviewController) CheckTask(ctx *gin.Context) {
	taskID, ok := parseTaskID(ctx)
	if !ok {
		return
	}

	var request CheckTaskRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.TaskService.CheckTask(taskID, request.Pass); err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"message": "审核完成",
	})
}

// ManualCheck godoc
// @Summary 人工抽样验收
// @Description 按数量分档随机抽取某标注者的题目及结果供发布方抽查；method=all返回全部题目
// @Tags 验收
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "任务ID"
// @Param taggerId query int true "标注者ID"
// @Param method query string false "抽样方式 select|all" default(select)
// @Success 200 {object} util.Response{data=map[string]interface{}}
// @Failure 403 {object} util.Response "权限不足"
// @Failure 404 {object} util.Response "任务未分发"
// @Router /api/publisher/tasks/{taskId}/check [get]
func (c *ReviewController) ManualCheck(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	taskID, ok := parseTaskID(ctx)
	if !ok {
		return
	}

	taggerID, err := strconv.ParseUint(ctx.Query("taggerId"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "标注者ID无效")
		return
	}

	method := ctx.DefaultQuery("method", service.ManualCheckSelect)
	sampled, err := c.ReviewService.ManualCheck(taskID, claims.UserID, uint(taggerID), method)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"questions": sampled,
	})
}

// GetAnswerKey godoc
// @Summary 查看标准答案
// @Description 发布方查看自己任务的标准答案（仅auto验收任务有内容）
// @Tags 验收
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "任务ID"
// @Success 200 {object} util.Response{data=map[string]interface{}}
// @Failure 403 {object} util.Response "权限不足"
// @Failure 404 {object} util.Response "任务不存在"
// @Router /api/publisher/tasks/{taskId}/answer-key [get]
func (c *ReviewController) GetAnswerKey(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	taskID, ok := parseTaskID(ctx)
	if !ok {
		return
	}

	entries, err := c.ReviewService.AnswerKey(taskID, claims.UserID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"answerKey": entries,
	})
}

// SetCheckPass godoc
// @Summary 记录人工验收结论
// @Description 发布方记录对某标注者的抽查结论，仅作标记不触发结算
// @Tags 验收
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "任务ID"
// @Param taggerId path int true "标注者ID"
// @Param request body CheckPassRequest true "验收结论"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response "权限不足"
// @Failure 404 {object} util.Response "分配记录不存在"
// @Router /api/publisher/tasks/{taskId}/taggers/{taggerId}/check [post]
func (c *ReviewController) SetCheckPass(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	taskID, ok := parseTaskID(ctx)
	if !ok {
		return
	}

	taggerID, err := strconv.ParseUint(ctx.Param("taggerId"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "标注者ID无效")
		return
	}

	var request CheckPassRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.ReviewService.SetCheckPass(taskID, claims.UserID, uint(taggerID), request.Pass); err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"message": "验收结论已记录",
	})
}

// BanTagger godoc
// @Summary 封禁标注者
// @Description 封禁后不再参与分发，补充分发时名额可被顶替
// @Tags 平台管理
// @Produce json
// @Security BearerAuth
// @Param userId path int true "用户ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/taggers/{userId}/ban [post]
func (c *ReviewController) BanTagger(ctx *gin.Context) {
	c.setBanned(ctx, true, "已封禁")
}

// UnbanTagger godoc
// @Summary 解封标注者
// @Tags 平台管理
// @Produce json
// @Security BearerAuth
// @Param userId path int true "用户ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "用户不存在"
// @Router /api/admin/taggers/{userId}/unban [post]
func (c *ReviewController) UnbanTagger(ctx *gin.Context) {
	c.setBanned(ctx, false, "已解封")
}

func (c *ReviewController) setBanned(ctx *gin.Context, banned bool, message string) {
	userID, err := strconv.ParseUint(ctx.Param("userId"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "用户ID无效")
		return
	}

	if err := c.PoolService.SetBanned(ctx.Request.Context(), uint(userID), banned); err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"message": message,
	})
}

// PoolStats godoc
// @Summary 标注者池统计
// @Description 返回标注者总数、封禁数与当前轮转游标位置，数量带短时缓存
// @Tags 平台管理
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=map[string]interface{}}
// @Router /api/admin/taggers/stats [get]
func (c *ReviewController) PoolStats(ctx *gin.Context) {
	total, err := c.PoolService.Count(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	banned, err := c.PoolService.BannedCount(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	cursor, err := c.PoolService.CursorValue()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"total":  total,
		"banned": banned,
		"cursor": cursor,
	})
}

// ListTaggers godoc
// @Summary 标注者池列表
// @Description 按ID升序返回全部标注者（轮转分发即走此序列），含封禁标记
// @Tags 平台管理
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=map[string]interface{}}
// @Router /api/admin/taggers [get]
func (c *ReviewController) ListTaggers(ctx *gin.Context) {
	taggers, err := c.PoolService.EligibleTaggers()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"taggers": taggers,
	})
}

package controller

import (
	"strconv"

	"labelmarket_backend/internal/model"
	"labelmarket_backend/internal/service"
	"labelmarket_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// SubmissionController 答题与进度相关接口
type SubmissionController struct {
	SubmissionService *service.SubmissionService
}

func NewSubmissionController(submissionService *service.SubmissionService) *SubmissionController {
	return &SubmissionController{
		SubmissionService: submissionService,
	}
}

// SubmitRequest 提交标注结果请求
type SubmitRequest struct {
	Value model.ResultValue `json:"value" binding:"required"`
}

// StartQuestion godoc
// @Summary 开始答题
// @Description 记录题目开始时间，同一题不可重复开始
// @Tags 标注作业
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "任务ID"
// @Param seq path int true "题号，从1开始"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "题目不存在或未领取任务"
// @Failure 409 {object} util.Response "题目已开始"
// @Router /api/tagger/tasks/{taskId}/questions/{seq}/start [post]
func (c *SubmissionController) StartQuestion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	taskID, seq, ok := parseQuestionRef(ctx)
	if !ok {
		return
	}

	if err := c.SubmissionService.StartQuestion(taskID, claims.UserID, seq); err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"message": "已开始答题",
	})
}

// SubmitResult godoc
// @Summary 提交标注结果
// @Description 提交单题结果并推进进度游标；末题提交且全部完成时触发auto验收
// @Tags 标注作业
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "任务ID"
// @Param seq path int true "题号，从1开始"
// @Param request body SubmitRequest true "结果内容"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "结果格式错误或任务未处于进行中"
// @Failure 404 {object} util.Response "题目不存在或未领取任务"
// @Failure 409 {object} util.Response "重复提交"
// @Router /api/tagger/tasks/{taskId}/questions/{seq}/submit [post]
func (c *SubmissionController) SubmitResult(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	taskID, seq, ok := parseQuestionRef(ctx)
	if !ok {
		return
	}

	var request SubmitRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.SubmissionService.SubmitResult(taskID, claims.UserID, seq, request.Value); err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"message": "提交成功",
	})
}

// GetQuestion godoc
// @Summary 查看单题
// @Description 标注者获取题目内容及自己的作答记录，须已接受任务
// @Tags 标注作业
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "任务ID"
// @Param seq path int true "题号，从1开始"
// @Success 200 {object} util.Response{data=map[string]interface{}}
// @Failure 404 {object} util.Response "题目不存在或未领取任务"
// @Router /api/tagger/tasks/{taskId}/questions/{seq} [get]
func (c *SubmissionController) GetQuestion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	taskID, seq, ok := parseQuestionRef(ctx)
	if !ok {
		return
	}

	view, err := c.SubmissionService.GetQuestion(taskID, claims.UserID, seq)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"question": view,
	})
}

// GetProgress godoc
// @Summary 查询答题进度
// @Description 返回下一题题号，0表示全部完成
// @Tags 标注作业
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "任务ID"
// @Success 200 {object} util.Response{data=map[string]interface{}}
// @Failure 404 {object} util.Response "未领取任务"
// @Router /api/tagger/tasks/{taskId}/progress [get]
func (c *SubmissionController) GetProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	taskID, ok := parseTaskID(ctx)
	if !ok {
		return
	}

	progress, err := c.SubmissionService.GetProgress(taskID, claims.UserID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"progress": progress,
	})
}

func parseQuestionRef(ctx *gin.Context) (uint, int, bool) {
	taskID, ok := parseTaskID(ctx)
	if !ok {
		return 0, 0, false
	}
	seq, err := strconv.Atoi(ctx.Param("seq"))
	if err != nil || seq < 1 {
		util.BadRequest(ctx, "题号无效")
		return 0, 0, false
	}
	return taskID, seq, true
}

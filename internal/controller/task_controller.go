package controller

import (
	"labelmarket_backend/internal/service"
	"labelmarket_backend/internal/util"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// TaskController 任务发布、审核、分发相关接口
type TaskController struct {
	TaskService       *service.TaskService
	DistributeService *service.DistributeService
	StorageService    *service.StorageService
}

func NewTaskController(
	taskService *service.TaskService,
	distributeService *service.DistributeService,
	storageService *service.StorageService,
) *TaskController {
	return &TaskController{
		TaskService:       taskService,
		DistributeService: distributeService,
		StorageService:    storageService,
	}
}

// CreateTask godoc
// @Summary 发布标注任务
// @Description 发布方创建任务及题目，auto验收任务必须为每题提供标准答案
// @Tags 任务管理
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateTaskReq true "任务创建请求"
// @Success 200 {object} util.Response{data=map[string]interface{}} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 403 {object} util.Response "权限不足"
// @Router /api/publisher/tasks [post]
func (c *TaskController) CreateTask(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)

	var request service.CreateTaskReq
	if err := ctx.ShouldBindJSON(&request); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	task, err := c.TaskService.CreateTask(claims.UserID, request)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"task": task,
	})
}

// ListMyTasks godoc
// @Summary 发布方任务列表
// @Tags 任务管理
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码，默认1" default(1)
// @Param limit query int false "每页数量，默认10" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/publisher/tasks [get]
func (c *TaskController) ListMyTasks(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	page, limit := pagination(ctx)

	tasks, total, err := c.TaskService.ListByPublisher(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: tasks, Total: total, Page: page, Limit: limit})
}

// ListOpenTasks godoc
// @Summary 可领取任务列表
// @Description 标注者浏览审核通过的自领取（toall）任务
// @Tags 任务管理
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码，默认1" default(1)
// @Param limit query int false "每页数量，默认10" default(10)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/tagger/tasks/open [get]
func (c *TaskController) ListOpenTasks(ctx *gin.Context) {
	page, limit := pagination(ctx)

	tasks, total, err := c.TaskService.ListOpenToAll(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{List: tasks, Total: total, Page: page, Limit: limit})
}

// ListTaskAssignments godoc
// @Summary 任务分配记录
// @Description 发布方查看任务的全部分配记录及当前占名额数
// @Tags 任务管理
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "任务ID"
// @Success 200 {object} util.Response{data=map[string]interface{}}
// @Failure 403 {object} util.Response "权限不足"
// @Failure 404 {object} util.Response "任务不存在"
// @Router /api/publisher/tasks/{taskId}/assignments [get]
func (c *TaskController) ListTaskAssignments(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	taskID, ok := parseTaskID(ctx)
	if !ok {
		return
	}

	assignments, valid, err := c.TaskService.ListAssignments(taskID, claims.UserID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"assignments": assignments,
		"validCount":  valid,
	})
}

// GetTaskDetail godoc
// @Summary 任务详情
// @Description 发布方/管理员可见全部；标注者需已被分配或任务可自领取
// @Tags 任务管理
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "任务ID"
// @Success 200 {object} util.Response{data=map[string]interface{}}
// @Failure 403 {object} util.Response "权限不足"
// @Failure 404 {object} util.Response "任务不存在"
// @Router /api/tasks/{taskId} [get]
func (c *TaskController) GetTaskDetail(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	taskID, ok := parseTaskID(ctx)
	if !ok {
		return
	}

	task, err := c.TaskService.GetDetail(taskID, claims)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"task": task,
	})
}

// Distribute godoc
// @Summary 分发任务
// @Description 按全局轮转顺序为order策略任务挑选标注者并扣除发布方积分
// @Tags 任务管理
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "任务ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "未审核/积分不足/标注者不足"
// @Failure 403 {object} util.Response "权限不足"
// @Failure 404 {object} util.Response "任务不存在"
// @Failure 409 {object} util.Response "任务已分发"
// @Router /api/publisher/tasks/{taskId}/distribute [post]
func (c *TaskController) Distribute(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	taskID, ok := parseTaskID(ctx)
	if !ok {
		return
	}

	if err := c.DistributeService.Distribute(taskID, claims.UserID); err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"message": "任务分发成功",
	})
}

// Redistribute godoc
// @Summary 补充分发
// @Description 将拒绝/验收不通过/被封禁的名额补齐到目标人数
// @Tags 任务管理
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "任务ID"
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "策略不支持/标注者不足"
// @Failure 403 {object} util.Response "权限不足"
// @Failure 404 {object} util.Response "任务不存在"
// @Router /api/publisher/tasks/{taskId}/redistribute [post]
func (c *TaskController) Redistribute(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	taskID, ok := parseTaskID(ctx)
	if !ok {
		return
	}

	if err := c.DistributeService.Redistribute(taskID, claims.UserID); err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"message": "补充分发成功",
	})
}

// IsDistributed godoc
// @Summary 查询任务是否已分发
// @Tags 任务管理
// @Produce json
// @Security BearerAuth
// @Param taskId path int true "任务ID"
// @Success 200 {object} util.Response{data=map[string]interface{}}
// @Failure 404 {object} util.Response "任务不存在"
// @Router /api/tasks/{taskId}/distributed [get]
func (c *TaskController) IsDistributed(ctx *gin.Context) {
	taskID, ok := parseTaskID(ctx)
	if !ok {
		return
	}

	distributed, err := c.DistributeService.IsDistributed(taskID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"distributed": distributed,
	})
}

// UploadQuestionAsset godoc
// @Summary 上传题目附件
// @Description 上传题目的图片/视频素材，返回可填入题目dataRef的引用地址
// @Tags 任务管理
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "附件文件"
// @Success 200 {object} util.Response{data=map[string]interface{}}
// @Failure 400 {object} util.Response "文件类型不支持"
// @Router /api/publisher/questions/upload [post]
func (c *TaskController) UploadQuestionAsset(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "缺少上传文件")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !assetExtAllowed(ext) {
		util.BadRequest(ctx, "文件类型不支持")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = util.MimeOctetStream
	}

	ref, err := c.StorageService.UploadQuestionAsset(ctx.Request.Context(), ext, src, file.Size, contentType)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"dataRef": ref,
	})
}

func assetExtAllowed(ext string) bool {
	for _, allowed := range util.AllowedImageExtensions {
		if ext == allowed {
			return true
		}
	}
	for _, allowed := range util.AllowedVideoExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func parseTaskID(ctx *gin.Context) (uint, bool) {
	taskID, err := strconv.ParseUint(ctx.Param("taskId"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "任务ID无效")
		return 0, false
	}
	return uint(taskID), true
}

func pagination(ctx *gin.Context) (int, int) {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

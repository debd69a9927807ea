package util

import (
	"errors"
	"net/http"
)

// AppError 业务错误：稳定的业务码 + HTTP状态 + 提示信息
type AppError struct {
	Code    int    `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

func newAppError(code, status int, message string) *AppError {
	return &AppError{Code: code, Status: status, Message: message}
}

// 业务错误码按 HTTP 类别分段：400xx 参数/状态, 401xx/403xx 权限,
// 404xx 不存在, 409xx 冲突, 429xx 资源/配额不足
var (
	ErrInvalidParam      = newAppError(40001, http.StatusBadRequest, "参数无效")
	ErrTaskNotChecked    = newAppError(40002, http.StatusBadRequest, "任务未通过平台审核")
	ErrTaskRefused       = newAppError(40003, http.StatusBadRequest, "任务已被平台驳回")
	ErrInvalidStrategy   = newAppError(40004, http.StatusBadRequest, "任务策略不支持该操作")
	ErrAnswerKeyNeeded   = newAppError(40005, http.StatusBadRequest, "自动验收任务必须提供完整答案")
	ErrNotRefusable      = newAppError(40006, http.StatusBadRequest, "当前状态不能拒绝任务")
	ErrNotAccepted       = newAppError(40007, http.StatusBadRequest, "请先接受任务再作答")
	ErrTimeLimitExceeded = newAppError(40008, http.StatusBadRequest, "该题已超过作答时限")

	ErrUnauthorized = newAppError(40101, http.StatusUnauthorized, "未登录")
	ErrForbidden    = newAppError(40301, http.StatusForbidden, "无权执行该操作")
	ErrNotAssigned  = newAppError(40302, http.StatusForbidden, "任务未分配给该标注者")

	ErrTaskNotFound     = newAppError(40401, http.StatusNotFound, "任务不存在")
	ErrQuestionNotFound = newAppError(40402, http.StatusNotFound, "题目不存在")
	ErrUserNotFound     = newAppError(40403, http.StatusNotFound, "用户不存在")
	ErrNotDistributed   = newAppError(40404, http.StatusNotFound, "任务尚未分发")

	ErrAlreadyDistributed = newAppError(40901, http.StatusConflict, "任务已经分发过")
	ErrRepeatAccept       = newAppError(40902, http.StatusConflict, "不能重复接受任务")
	ErrResubmit           = newAppError(40903, http.StatusConflict, "该题已提交过结果")
	ErrAlreadyStarted     = newAppError(40904, http.StatusConflict, "该题已开始作答")
	ErrEmailRegistered    = newAppError(40905, http.StatusConflict, "该邮箱已被注册")

	ErrInsufficientScore   = newAppError(42901, http.StatusBadRequest, "积分余额不足")
	ErrTaggerPoolExhausted = newAppError(42902, http.StatusBadRequest, "可用标注者数量不足")
	ErrAcceptLimitExceeded = newAppError(42903, http.StatusBadRequest, "今日接受任务数已达上限")
	ErrDistributionDone    = newAppError(42904, http.StatusBadRequest, "任务名额已满")
)

// AsAppError 将任意 error 归一化为 AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

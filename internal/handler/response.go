package handler

import (
	"errors"
	"net/http"

	"github.com/courtside/ces/internal/logic"
	"github.com/gin-gonic/gin"
)

// Response 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// Pagination 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// BusinessError 按错误类别映射 HTTP 状态码后响应
func BusinessError(c *gin.Context, err error) {
	ErrorResponse(c, statusFromError(err), err.Error())
}

// statusFromError 业务错误分类
func statusFromError(err error) int {
	switch {
	case errors.Is(err, logic.ErrEventNotFound),
		errors.Is(err, logic.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, logic.ErrNotHost),
		errors.Is(err, logic.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, logic.ErrInvalidStatus),
		errors.Is(err, logic.ErrEventStarted),
		errors.Is(err, logic.ErrEventNotStarted),
		errors.Is(err, logic.ErrChallengeNotOver),
		errors.Is(err, logic.ErrAlreadyFinalized),
		errors.Is(err, logic.ErrEventFull),
		errors.Is(err, logic.ErrAlreadyJoined),
		errors.Is(err, logic.ErrAlreadyApproved),
		errors.Is(err, logic.ErrNoApprovedPlayers),
		errors.Is(err, logic.ErrNothingToClaim):
		return http.StatusConflict
	case errors.Is(err, logic.ErrInvalidAddress),
		errors.Is(err, logic.ErrTokenNotSupported),
		errors.Is(err, logic.ErrInvalidExpense),
		errors.Is(err, logic.ErrPlayerNotPaid):
		return http.StatusBadRequest
	case errors.Is(err, logic.ErrTransferFailed):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// callerAddress 从请求头获取调用者身份
// 身份鉴别由外部协作者完成，这里只做格式校验
func callerAddress(c *gin.Context) (string, bool) {
	caller := c.GetHeader("X-Caller-Address")
	if caller == "" {
		ErrorResponse(c, http.StatusUnauthorized, "缺少 X-Caller-Address 请求头")
		return "", false
	}
	normalized, err := logic.NormalizeAddress(caller)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return "", false
	}
	return normalized, true
}

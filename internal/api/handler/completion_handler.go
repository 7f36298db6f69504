package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/SrgyS/yns-app-sub001/internal/dto"
	"github.com/SrgyS/yns-app-sub001/internal/service"
	"github.com/SrgyS/yns-app-sub001/pkg/response"
)

// CompletionHandler 训练完成记录 HTTP 处理器
type CompletionHandler struct {
	completionSvc service.CompletionService
}

// NewCompletionHandler 创建 CompletionHandler
func NewCompletionHandler(completionSvc service.CompletionService) *CompletionHandler {
	return &CompletionHandler{completionSvc: completionSvc}
}

// ListCompletions GET /api/v1/enrollments/:id/completions
func (h *CompletionHandler) ListCompletions(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.completionSvc.List(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleCompletionError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// MarkCompletion POST /api/v1/enrollments/:id/completions
func (h *CompletionHandler) MarkCompletion(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 22001, "参数校验失败")
		return
	}

	completion, err := h.completionSvc.Mark(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		handleCompletionError(c, err)
		return
	}

	response.OK(c, completion)
}

// UnmarkCompletion DELETE /api/v1/enrollments/:id/completions?content_type=MAIN&step_index=3
func (h *CompletionHandler) UnmarkCompletion(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CompletionRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 22001, "参数校验失败")
		return
	}

	if err := h.completionSvc.Unmark(c.Request.Context(), userID, c.Param("id"), &req); err != nil {
		handleCompletionError(c, err)
		return
	}

	response.OK(c, nil)
}

func handleCompletionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidContentType):
		response.BadRequest(c, 22002, "内容类型无效")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.NotFound(c, 22003, "报名记录不存在")
	case errors.Is(err, service.ErrStepNotFound):
		response.NotFound(c, 22004, "该步骤不存在")
	case errors.Is(err, service.ErrCompletionNotFound):
		response.NotFound(c, 22005, "完成记录不存在")
	case errors.Is(err, service.ErrWorkoutMismatch):
		response.BadRequest(c, 22006, "训练与步骤不匹配")
	case errors.Is(err, service.ErrEnrollmentInactive):
		response.Conflict(c, 22007, "报名已失效")
	default:
		response.InternalError(c)
	}
}

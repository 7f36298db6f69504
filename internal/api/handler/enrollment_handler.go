package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/SrgyS/yns-app-sub001/internal/dto"
	"github.com/SrgyS/yns-app-sub001/internal/service"
	"github.com/SrgyS/yns-app-sub001/pkg/response"
)

// EnrollmentHandler 报名模块 HTTP 处理器
type EnrollmentHandler struct {
	enrollmentSvc service.EnrollmentService
}

// NewEnrollmentHandler 创建 EnrollmentHandler
func NewEnrollmentHandler(enrollmentSvc service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentSvc: enrollmentSvc}
}

// CreateEnrollment 创建报名并生成每日计划
// POST /api/v1/enrollments
func (h *EnrollmentHandler) CreateEnrollment(c *gin.Context) {
	var req dto.CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 20001, "参数校验失败")
		return
	}

	enrollment, err := h.enrollmentSvc.CreateEnrollment(c.Request.Context(), &req)
	if err != nil {
		handleEnrollmentError(c, err)
		return
	}

	response.Created(c, enrollment)
}

// CloseAccess 关闭课程访问
// POST /api/v1/enrollments/:id/close
func (h *EnrollmentHandler) CloseAccess(c *gin.Context) {
	if err := h.enrollmentSvc.CloseAccess(c.Request.Context(), c.Param("id")); err != nil {
		handleEnrollmentError(c, err)
		return
	}
	response.OK(c, nil)
}

func handleEnrollmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStartDateInvalid):
		response.BadRequest(c, 20002, "开始日期无效")
	case errors.Is(err, service.ErrInvalidWorkoutDays):
		response.BadRequest(c, 20003, "训练日无效")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 20004, "课程不存在")
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.NotFound(c, 20005, "报名记录不存在")
	default:
		response.InternalError(c)
	}
}

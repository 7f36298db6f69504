package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SrgyS/yns-app-sub001/internal/dto"
	"github.com/SrgyS/yns-app-sub001/internal/service"
	"github.com/SrgyS/yns-app-sub001/pkg/response"
)

// WeekHandler 新周发布与批量计划更新（管理员）
type WeekHandler struct {
	weekSvc  service.WeekService
	batchSvc service.PlanBatchService
}

// NewWeekHandler 创建 WeekHandler
func NewWeekHandler(weekSvc service.WeekService, batchSvc service.PlanBatchService) *WeekHandler {
	return &WeekHandler{weekSvc: weekSvc, batchSvc: batchSvc}
}

// PublishWeek 发布新周
// POST /api/v1/admin/courses/:id/weeks
func (h *WeekHandler) PublishWeek(c *gin.Context) {
	var req dto.PublishWeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 23001, "参数校验失败")
		return
	}

	result, err := h.weekSvc.PublishWeek(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleWeekError(c, err)
		return
	}

	if result.Dispatched {
		response.Accepted(c, result)
		return
	}
	response.OK(c, result)
}

// RunPlanUpdate 手动触发批量更新（重跑失败的周）
// POST /api/v1/admin/courses/:id/weeks/:week/plan-update
func (h *WeekHandler) RunPlanUpdate(c *gin.Context) {
	week, err := strconv.Atoi(c.Param("week"))
	if err != nil || week < 1 {
		response.BadRequest(c, 23001, "week 必须为正整数")
		return
	}

	result, err := h.batchSvc.UpdatePlansForNewWeek(c.Request.Context(), c.Param("id"), week)
	if err != nil {
		handleWeekError(c, err)
		return
	}

	response.OK(c, result)
}

func handleWeekError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReleaseAtInvalid):
		response.BadRequest(c, 23002, "发布时间格式无效")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 23003, "课程不存在")
	case errors.Is(err, service.ErrCourseNotSubscription):
		response.BadRequest(c, 23004, "课程不是订阅类型")
	case errors.Is(err, service.ErrPlanUpdateInProgress):
		response.Conflict(c, 23005, "该周计划正在更新中")
	default:
		response.InternalError(c)
	}
}

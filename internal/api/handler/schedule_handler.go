package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SrgyS/yns-app-sub001/internal/dto"
	"github.com/SrgyS/yns-app-sub001/internal/service"
	"github.com/SrgyS/yns-app-sub001/pkg/response"
)

// ScheduleHandler 课程安排读取与训练日修改
type ScheduleHandler struct {
	enrollmentSvc service.EnrollmentService
	dailyPlanSvc  service.DailyPlanService
	calendarSvc   service.CalendarService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(
	enrollmentSvc service.EnrollmentService,
	dailyPlanSvc service.DailyPlanService,
	calendarSvc service.CalendarService,
) *ScheduleHandler {
	return &ScheduleHandler{enrollmentSvc: enrollmentSvc, dailyPlanSvc: dailyPlanSvc, calendarSvc: calendarSvc}
}

// GetAvailableWeeks 当前用户在课程中的可见周
// GET /api/v1/courses/:id/weeks
func (h *ScheduleHandler) GetAvailableWeeks(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	weeks, err := h.enrollmentSvc.GetAvailableWeeks(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, weeks)
}

// GetProgramWeek 周/日选择器数据
// GET /api/v1/enrollments/:id/program-week
func (h *ScheduleHandler) GetProgramWeek(c *gin.Context) {
	scope, ok := MustGetOwnerScope(c)
	if !ok {
		return
	}

	week, err := h.enrollmentSvc.GetProgramWeek(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, week)
}

// GetDailyPlan 单日计划
// GET /api/v1/enrollments/:id/days/:day
func (h *ScheduleHandler) GetDailyPlan(c *gin.Context) {
	scope, ok := MustGetOwnerScope(c)
	if !ok {
		return
	}
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil || day < 1 {
		response.BadRequest(c, 21001, "day 必须为正整数")
		return
	}

	plan, err := h.enrollmentSvc.GetDailyPlan(c.Request.Context(), scope, c.Param("id"), day)
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, plan)
}

// UpdateWorkoutDays 修改训练日
// PUT /api/v1/enrollments/:id/workout-days
func (h *ScheduleHandler) UpdateWorkoutDays(c *gin.Context) {
	scope, ok := MustGetOwnerScope(c)
	if !ok {
		return
	}

	var req dto.UpdateWorkoutDaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 21001, "参数校验失败")
		return
	}
	req.EnrollmentID = c.Param("id")
	req.UserID = scope

	if err := h.dailyPlanSvc.UpdateSelectedWorkoutDays(c.Request.Context(), &req); err != nil {
		handleScheduleError(c, err)
		return
	}

	response.OK(c, nil)
}

// ExportCalendar 导出 iCalendar
// GET /api/v1/enrollments/:id/calendar.ics
func (h *ScheduleHandler) ExportCalendar(c *gin.Context) {
	scope, ok := MustGetOwnerScope(c)
	if !ok {
		return
	}

	body, err := h.calendarSvc.BuildCalendar(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		handleScheduleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape("plan-"+c.Param("id")+".ics"))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

func handleScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.NotFound(c, 21002, "报名记录不存在")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 21003, "课程不存在")
	case errors.Is(err, service.ErrDailyPlanNotFound):
		response.NotFound(c, 21004, "当日计划不存在")
	case errors.Is(err, service.ErrDayLocked):
		response.Forbidden(c, 21005, "该周内容尚未开放")
	case errors.Is(err, service.ErrEnrollmentInactive):
		response.Conflict(c, 21006, "报名已失效")
	case errors.Is(err, service.ErrInvalidWorkoutDays):
		response.BadRequest(c, 21007, "训练日无效")
	default:
		response.InternalError(c)
	}
}

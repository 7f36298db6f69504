package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/SrgyS/yns-app-sub001/internal/model"
)

// CalendarService 将报名的每日计划导出为 iCalendar (RFC 5545)
// 每个 program day 一个全天事件；训练日与休息日用标题区分
type CalendarService interface {
	BuildCalendar(ctx context.Context, userID, enrollmentID string) (string, error)
}

type calendarService struct {
	enrollments EnrollmentService
	logger      *zap.Logger
	now         func() time.Time
}

// NewCalendarService 创建 CalendarService 实例
func NewCalendarService(enrollments EnrollmentService, logger *zap.Logger) CalendarService {
	return &calendarService{enrollments: enrollments, logger: logger, now: time.Now}
}

func (s *calendarService) BuildCalendar(ctx context.Context, userID, enrollmentID string) (string, error) {
	enrollment, plans, err := s.enrollments.ListDailyPlans(ctx, userID, enrollmentID)
	if err != nil {
		return "", err
	}

	title := "训练计划"
	if enrollment.Course != nil && enrollment.Course.Title != "" {
		title = enrollment.Course.Title
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//fitcourse//daily plans//ZH")
	cal.SetXWRCalName(title)

	stamp := s.now().UTC()
	for i := range plans {
		addPlanEvent(cal, &plans[i], title, stamp)
	}

	s.logger.Debug("生成日历",
		zap.String("enrollment_id", enrollmentID),
		zap.Int("events", len(plans)),
	)
	return cal.Serialize(), nil
}

func addPlanEvent(cal *ics.Calendar, plan *model.UserDailyPlan, title string, stamp time.Time) {
	event := cal.AddEvent(fmt.Sprintf("%s-day-%d@fitcourse", plan.EnrollmentID, plan.DayNumber))
	event.SetDtStampTime(stamp)
	event.SetAllDayStartAt(plan.Date)
	event.SetAllDayEndAt(plan.Date.AddDate(0, 0, 1))

	kind := "休息日"
	if plan.IsWorkoutDay {
		kind = "训练日"
	}
	event.SetSummary(fmt.Sprintf("%s · 第%d天 · %s", title, plan.DayNumber, kind))

	lines := []string{
		fmt.Sprintf("第%d周", plan.WeekNumber),
		"热身: " + plan.WarmupID,
	}
	if plan.IsWorkoutDay && plan.MainWorkoutID != nil {
		lines = append(lines, "主训练: "+*plan.MainWorkoutID)
	}
	if plan.MealPlanID != nil {
		lines = append(lines, "饮食: "+*plan.MealPlanID)
	}
	event.SetDescription(strings.Join(lines, "\n"))
}

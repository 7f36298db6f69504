package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SrgyS/yns-app-sub001/internal/dto"
	"github.com/SrgyS/yns-app-sub001/internal/model"
	"github.com/SrgyS/yns-app-sub001/internal/repository"
	"github.com/SrgyS/yns-app-sub001/pkg/dateutil"
)

// ── 报名模块业务错误 ──

var (
	ErrStartDateInvalid   = errors.New("开始日期无效")
	ErrCreateEnrollment   = errors.New("创建报名失败")
	ErrCloseAccessFailed  = errors.New("关闭课程访问失败")
	ErrDailyPlanNotFound  = errors.New("当日计划不存在")
	ErrDayLocked          = errors.New("该周内容尚未开放")
	ErrLoadScheduleFailed = errors.New("获取课程安排失败")
)

// EnrollmentService 报名生命周期与课程安排读取
// userID 为空表示管理员调用，跳过归属校验
type EnrollmentService interface {
	CreateEnrollment(ctx context.Context, req *dto.CreateEnrollmentRequest) (*dto.EnrollmentResponse, error)
	CloseAccess(ctx context.Context, enrollmentID string) error
	GetAvailableWeeks(ctx context.Context, userID, courseID string) (*dto.AvailableWeeks, error)
	GetProgramWeek(ctx context.Context, userID, enrollmentID string) (*dto.ProgramWeekResponse, error)
	GetDailyPlan(ctx context.Context, userID, enrollmentID string, dayNumber int) (*dto.UserDailyPlanResponse, error)
	// ListDailyPlans 报名的全部每日计划（日历导出使用）
	ListDailyPlans(ctx context.Context, userID, enrollmentID string) (*model.Enrollment, []model.UserDailyPlan, error)
}

type enrollmentService struct {
	repo       *repository.Repository
	plans      DailyPlanService
	windowSize int
	logger     *zap.Logger
	now        func() time.Time
}

// NewEnrollmentService 创建 EnrollmentService 实例
func NewEnrollmentService(repo *repository.Repository, plans DailyPlanService, windowSize int, logger *zap.Logger) EnrollmentService {
	return &enrollmentService{
		repo:       repo,
		plans:      plans,
		windowSize: windowSize,
		logger:     logger,
		now:        time.Now,
	}
}

// ────────────────────── CreateEnrollment ──────────────────────

func (s *enrollmentService) CreateEnrollment(ctx context.Context, req *dto.CreateEnrollmentRequest) (*dto.EnrollmentResponse, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, ErrStartDateInvalid
	}
	days, err := NormalizeWorkoutDays(req.SelectedWorkoutDays)
	if err != nil {
		return nil, err
	}

	course, err := s.repo.Course.GetByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", req.CourseID), zap.Error(err))
		return nil, ErrCreateEnrollment
	}
	if course.IsSubscription() {
		startDate = dateutil.StartOfWeek(startDate)
	}

	enrollment := &model.Enrollment{
		UserID:              req.UserID,
		CourseID:            course.CourseID,
		StartDate:           startDate,
		SelectedWorkoutDays: days,
		Active:              true,
	}

	var planDays int
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 同一用户仅保留一个有效报名
		if err := tx.Enrollment.DeactivateAllByUser(ctx, req.UserID); err != nil {
			return fmt.Errorf("停用旧报名失败: %w", err)
		}
		if err := tx.Enrollment.Create(ctx, enrollment); err != nil {
			return fmt.Errorf("写入报名失败: %w", err)
		}

		n, err := s.plans.GenerateForEnrollment(ctx, tx, enrollment.EnrollmentID)
		if err != nil {
			return err
		}
		planDays = n

		return s.linkAccess(ctx, tx, enrollment)
	})
	if err != nil {
		s.logger.Error("创建报名失败",
			zap.String("user_id", req.UserID),
			zap.String("course_id", req.CourseID),
			zap.Error(err),
		)
		return nil, ErrCreateEnrollment
	}

	s.logger.Info("报名已创建",
		zap.String("enrollment_id", enrollment.EnrollmentID),
		zap.String("user_id", enrollment.UserID),
		zap.Int("plan_days", planDays),
	)

	resp := toEnrollmentResponse(enrollment)
	resp.PlanDays = planDays
	return resp, nil
}

// linkAccess 绑定访问授权；无授权记录时创建一条不过期的授权
func (s *enrollmentService) linkAccess(ctx context.Context, tx *repository.Repository, enrollment *model.Enrollment) error {
	setupCompleted := len(enrollment.SelectedWorkoutDays) > 0
	enrollmentID := enrollment.EnrollmentID

	_, err := tx.UserAccess.GetByUserAndCourse(ctx, enrollment.UserID, enrollment.CourseID)
	switch {
	case err == nil:
		return tx.UserAccess.LinkEnrollment(ctx, enrollment.UserID, enrollment.CourseID, &enrollmentID, setupCompleted)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return tx.UserAccess.Upsert(ctx, &model.UserAccess{
			UserID:           enrollment.UserID,
			CourseID:         enrollment.CourseID,
			EnrollmentID:     &enrollmentID,
			IsSetupCompleted: setupCompleted,
		})
	default:
		return fmt.Errorf("查询访问授权失败: %w", err)
	}
}

// ────────────────────── CloseAccess ──────────────────────

func (s *enrollmentService) CloseAccess(ctx context.Context, enrollmentID string) error {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		enrollment, err := tx.Enrollment.GetByIDForUpdate(ctx, enrollmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEnrollmentNotFound
			}
			return err
		}
		if err := tx.Enrollment.Deactivate(ctx, enrollmentID); err != nil {
			return err
		}
		if err := tx.UserDailyPlan.DeleteByEnrollment(ctx, enrollmentID); err != nil {
			return err
		}
		return tx.UserAccess.LinkEnrollment(ctx, enrollment.UserID, enrollment.CourseID, nil, false)
	})
	if err != nil {
		if errors.Is(err, ErrEnrollmentNotFound) {
			return err
		}
		s.logger.Error("关闭课程访问失败", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return ErrCloseAccessFailed
	}

	s.logger.Info("课程访问已关闭", zap.String("enrollment_id", enrollmentID))
	return nil
}

// ────────────────────── 读取 ──────────────────────

// loadOwned 读取报名并校验归属
func (s *enrollmentService) loadOwned(ctx context.Context, userID, enrollmentID string) (*model.Enrollment, error) {
	enrollment, err := s.repo.Enrollment.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		s.logger.Error("查询报名失败", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return nil, ErrLoadScheduleFailed
	}
	if userID != "" && enrollment.UserID != userID {
		return nil, ErrEnrollmentNotFound
	}
	if enrollment.Course == nil {
		course, err := s.repo.Course.GetByID(ctx, enrollment.CourseID)
		if err != nil {
			s.logger.Error("查询课程失败", zap.String("course_id", enrollment.CourseID), zap.Error(err))
			return nil, ErrLoadScheduleFailed
		}
		enrollment.Course = course
	}
	return enrollment, nil
}

// computeWindow 汇总窗口计算所需的全部外部输入
func (s *enrollmentService) computeWindow(ctx context.Context, enrollment *model.Enrollment, now time.Time) (dto.AvailableWeeks, error) {
	course := enrollment.Course
	params := WindowParams{
		ContentType:   course.ContentType,
		StartDate:     enrollment.StartDate,
		DurationWeeks: course.DurationWeeks,
		Now:           now,
		WindowSize:    s.windowSize,
	}

	access, err := s.repo.UserAccess.GetByUserAndCourse(ctx, enrollment.UserID, course.CourseID)
	switch {
	case err == nil:
		params.ExpiresAt = access.EffectiveExpiresAt()
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return dto.AvailableWeeks{}, fmt.Errorf("查询访问授权失败: %w", err)
	}

	if course.IsSubscription() {
		weeks, err := s.repo.CourseWeek.ListByCourse(ctx, course.CourseID)
		if err != nil {
			return dto.AvailableWeeks{}, fmt.Errorf("查询课程周失败: %w", err)
		}
		params.Weeks = weeks
	} else {
		summary, err := s.repo.UserDailyPlan.Summarize(ctx, enrollment.EnrollmentID)
		if err != nil {
			return dto.AvailableWeeks{}, fmt.Errorf("汇总每日计划失败: %w", err)
		}
		params.Summary = summary
	}

	return ComputeAvailableWeeks(params), nil
}

func (s *enrollmentService) GetAvailableWeeks(ctx context.Context, userID, courseID string) (*dto.AvailableWeeks, error) {
	enrollment, err := s.repo.Enrollment.GetActiveByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		s.logger.Error("查询报名失败", zap.String("user_id", userID), zap.String("course_id", courseID), zap.Error(err))
		return nil, ErrLoadScheduleFailed
	}
	if enrollment.Course == nil {
		course, err := s.repo.Course.GetByID(ctx, courseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrCourseNotFound
			}
			return nil, ErrLoadScheduleFailed
		}
		enrollment.Course = course
	}

	window, err := s.computeWindow(ctx, enrollment, s.now())
	if err != nil {
		s.logger.Error("计算可见周失败", zap.String("enrollment_id", enrollment.EnrollmentID), zap.Error(err))
		return nil, ErrLoadScheduleFailed
	}
	return &window, nil
}

func (s *enrollmentService) GetProgramWeek(ctx context.Context, userID, enrollmentID string) (*dto.ProgramWeekResponse, error) {
	enrollment, err := s.loadOwned(ctx, userID, enrollmentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	window, err := s.computeWindow(ctx, enrollment, now)
	if err != nil {
		s.logger.Error("计算可见周失败", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return nil, ErrLoadScheduleFailed
	}

	start := enrollment.StartDate
	week := BuildProgramWeek(ProgramDayParams{
		StartDate:           &start,
		SelectedWorkoutDays: enrollment.SelectedWorkoutDays,
		DurationWeeks:       enrollment.Course.DurationWeeks,
		IsSubscription:      enrollment.Course.IsSubscription(),
		Window:              &window,
		Now:                 now,
	})

	resp := &dto.ProgramWeekResponse{
		EnrollmentID: enrollment.EnrollmentID,
		Weeks:        window,
		Days:         []dto.DayCell{},
	}
	if week != nil {
		resp.CurrentWeek = week.CurrentWeek
		resp.DefaultDay = week.DefaultDay
		resp.Days = week.Days
	}
	if resp.DefaultDay != nil {
		resp.DefaultPlan = s.preloadPlan(ctx, enrollmentID, *resp.DefaultDay, window)
	}
	return resp, nil
}

// preloadPlan 查询失败只记日志，不影响选择器数据返回
func (s *enrollmentService) preloadPlan(ctx context.Context, enrollmentID string, dayNumber int, window dto.AvailableWeeks) *dto.UserDailyPlanResponse {
	plan, err := s.repo.UserDailyPlan.GetByEnrollmentAndDay(ctx, enrollmentID, dayNumber)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("预加载默认日计划失败", zap.String("enrollment_id", enrollmentID), zap.Int("day", dayNumber), zap.Error(err))
		}
		return nil
	}
	if !containsInt(window.AvailableWeeks, plan.WeekNumber) {
		return nil
	}
	return toUserDailyPlanResponse(plan)
}

func (s *enrollmentService) GetDailyPlan(ctx context.Context, userID, enrollmentID string, dayNumber int) (*dto.UserDailyPlanResponse, error) {
	enrollment, err := s.loadOwned(ctx, userID, enrollmentID)
	if err != nil {
		return nil, err
	}

	plan, err := s.repo.UserDailyPlan.GetByEnrollmentAndDay(ctx, enrollmentID, dayNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDailyPlanNotFound
		}
		s.logger.Error("查询每日计划失败", zap.String("enrollment_id", enrollmentID), zap.Int("day", dayNumber), zap.Error(err))
		return nil, ErrLoadScheduleFailed
	}

	// 管理员不受可见窗口限制
	if userID != "" {
		window, err := s.computeWindow(ctx, enrollment, s.now())
		if err != nil {
			s.logger.Error("计算可见周失败", zap.String("enrollment_id", enrollmentID), zap.Error(err))
			return nil, ErrLoadScheduleFailed
		}
		if !containsInt(window.AvailableWeeks, plan.WeekNumber) {
			return nil, ErrDayLocked
		}
	}

	return toUserDailyPlanResponse(plan), nil
}

func (s *enrollmentService) ListDailyPlans(ctx context.Context, userID, enrollmentID string) (*model.Enrollment, []model.UserDailyPlan, error) {
	enrollment, err := s.loadOwned(ctx, userID, enrollmentID)
	if err != nil {
		return nil, nil, err
	}
	plans, err := s.repo.UserDailyPlan.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		s.logger.Error("查询每日计划失败", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return nil, nil, ErrLoadScheduleFailed
	}
	return enrollment, plans, nil
}

// ────────────────────── 转换 ──────────────────────

func toEnrollmentResponse(e *model.Enrollment) *dto.EnrollmentResponse {
	return &dto.EnrollmentResponse{
		ID:                  e.EnrollmentID,
		UserID:              e.UserID,
		CourseID:            e.CourseID,
		StartDate:           formatDate(e.StartDate),
		SelectedWorkoutDays: weekdayStrings(e.SelectedWorkoutDays),
		Active:              e.Active,
	}
}

func toUserDailyPlanResponse(p *model.UserDailyPlan) *dto.UserDailyPlanResponse {
	return &dto.UserDailyPlanResponse{
		ID:            p.UserDailyPlanID,
		EnrollmentID:  p.EnrollmentID,
		DayNumber:     p.DayNumber,
		WeekNumber:    p.WeekNumber,
		Date:          formatDate(p.Date),
		DayOfWeek:     string(p.DayOfWeek),
		IsWorkoutDay:  p.IsWorkoutDay,
		WarmupID:      p.WarmupID,
		MainWorkoutID: p.MainWorkoutID,
		MealPlanID:    p.MealPlanID,
	}
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// [自证通过] internal/service/enrollment_service.go

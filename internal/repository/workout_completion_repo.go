package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SrgyS/yns-app-sub001/internal/model"
)

// WorkoutCompletionRepository 训练完成记录数据访问接口
type WorkoutCompletionRepository interface {
	// Create 幂等插入：唯一键冲突时不做任何事
	Create(ctx context.Context, completion *model.WorkoutCompletion) error
	ListByEnrollment(ctx context.Context, userID, enrollmentID string) ([]model.WorkoutCompletion, error)
	DeleteBySlot(ctx context.Context, userID, enrollmentID string, contentType model.WorkoutContentType, stepIndex int) (int64, error)
	UpdateStepIndex(ctx context.Context, completionID string, stepIndex int) error
	DeleteByIDs(ctx context.Context, ids []string) error
	DeleteByEnrollment(ctx context.Context, userID, enrollmentID string) error
}

type workoutCompletionRepo struct {
	db *gorm.DB
}

func NewWorkoutCompletionRepo(db *gorm.DB) WorkoutCompletionRepository {
	return &workoutCompletionRepo{db: db}
}

func (r *workoutCompletionRepo) Create(ctx context.Context, completion *model.WorkoutCompletion) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(completion).Error
}

func (r *workoutCompletionRepo) ListByEnrollment(ctx context.Context, userID, enrollmentID string) ([]model.WorkoutCompletion, error) {
	var completions []model.WorkoutCompletion
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND enrollment_id = ?", userID, enrollmentID).
		Order("content_type ASC, step_index ASC").
		Find(&completions).Error
	return completions, err
}

func (r *workoutCompletionRepo) DeleteBySlot(ctx context.Context, userID, enrollmentID string, contentType model.WorkoutContentType, stepIndex int) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND enrollment_id = ? AND content_type = ? AND step_index = ?",
			userID, enrollmentID, contentType, stepIndex).
		Delete(&model.WorkoutCompletion{})
	return result.RowsAffected, result.Error
}

func (r *workoutCompletionRepo) UpdateStepIndex(ctx context.Context, completionID string, stepIndex int) error {
	return r.db.WithContext(ctx).
		Model(&model.WorkoutCompletion{}).
		Where("completion_id = ?", completionID).
		Update("step_index", stepIndex).Error
}

func (r *workoutCompletionRepo) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("completion_id IN ?", ids).
		Delete(&model.WorkoutCompletion{}).Error
}

func (r *workoutCompletionRepo) DeleteByEnrollment(ctx context.Context, userID, enrollmentID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND enrollment_id = ?", userID, enrollmentID).
		Delete(&model.WorkoutCompletion{}).Error
}

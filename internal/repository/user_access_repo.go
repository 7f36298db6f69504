package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SrgyS/yns-app-sub001/internal/model"
)

// UserAccessRepository 课程访问授权数据访问接口
type UserAccessRepository interface {
	GetByUserAndCourse(ctx context.Context, userID, courseID string) (*model.UserAccess, error)
	Upsert(ctx context.Context, access *model.UserAccess) error
	// LinkEnrollment 绑定（或以 nil 解绑）报名，并设置 setup 状态
	LinkEnrollment(ctx context.Context, userID, courseID string, enrollmentID *string, setupCompleted bool) error
}

type userAccessRepo struct {
	db *gorm.DB
}

func NewUserAccessRepo(db *gorm.DB) UserAccessRepository {
	return &userAccessRepo{db: db}
}

func (r *userAccessRepo) GetByUserAndCourse(ctx context.Context, userID, courseID string) (*model.UserAccess, error) {
	var access model.UserAccess
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&access).Error
	if err != nil {
		return nil, err
	}
	return &access, nil
}

func (r *userAccessRepo) Upsert(ctx context.Context, access *model.UserAccess) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"enrollment_id", "expires_at", "freezes", "is_setup_completed", "updated_at"}),
		}).
		Create(access).Error
}

func (r *userAccessRepo) LinkEnrollment(ctx context.Context, userID, courseID string, enrollmentID *string, setupCompleted bool) error {
	return r.db.WithContext(ctx).
		Model(&model.UserAccess{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Updates(map[string]interface{}{
			"enrollment_id":      enrollmentID,
			"is_setup_completed": setupCompleted,
			"updated_at":         gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

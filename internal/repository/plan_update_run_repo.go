package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/SrgyS/yns-app-sub001/internal/model"
)

// PlanUpdateRunRepository 批量更新审计记录
type PlanUpdateRunRepository interface {
	Create(ctx context.Context, run *model.PlanUpdateRun) error
	GetByID(ctx context.Context, id string) (*model.PlanUpdateRun, error)
	List(ctx context.Context, courseID string, offset, limit int) ([]model.PlanUpdateRun, int64, error)
}

type planUpdateRunRepo struct {
	db *gorm.DB
}

func NewPlanUpdateRunRepo(db *gorm.DB) PlanUpdateRunRepository {
	return &planUpdateRunRepo{db: db}
}

func (r *planUpdateRunRepo) Create(ctx context.Context, run *model.PlanUpdateRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *planUpdateRunRepo) GetByID(ctx context.Context, id string) (*model.PlanUpdateRun, error) {
	var run model.PlanUpdateRun
	if err := r.db.WithContext(ctx).Where("run_id = ?", id).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *planUpdateRunRepo) List(ctx context.Context, courseID string, offset, limit int) ([]model.PlanUpdateRun, int64, error) {
	var runs []model.PlanUpdateRun
	var total int64

	db := r.db.WithContext(ctx).Model(&model.PlanUpdateRun{})
	if courseID != "" {
		db = db.Where("course_id = ?", courseID)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("started_at DESC").Offset(offset).Limit(limit).Find(&runs).Error
	return runs, total, err
}

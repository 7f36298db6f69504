package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SrgyS/yns-app-sub001/internal/dto"
	"github.com/SrgyS/yns-app-sub001/internal/model"
	"github.com/SrgyS/yns-app-sub001/internal/repository"
)

// ── 完成记录模块业务错误 ──

var (
	ErrStepNotFound       = errors.New("该步骤不存在")
	ErrWorkoutMismatch    = errors.New("训练与步骤不匹配")
	ErrCompletionNotFound = errors.New("完成记录不存在")
	ErrInvalidContentType = errors.New("内容类型无效")
	ErrCompletionOpFailed = errors.New("操作完成记录失败")
)

// CompletionService 训练完成记录
type CompletionService interface {
	Mark(ctx context.Context, userID, enrollmentID string, req *dto.CompletionRequest) (*dto.CompletionResponse, error)
	Unmark(ctx context.Context, userID, enrollmentID string, req *dto.CompletionRequest) error
	List(ctx context.Context, userID, enrollmentID string) ([]dto.CompletionResponse, error)
}

type completionService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCompletionService 创建 CompletionService 实例
func NewCompletionService(repo *repository.Repository, logger *zap.Logger) CompletionService {
	return &completionService{repo: repo, logger: logger}
}

func (s *completionService) loadActive(ctx context.Context, userID, enrollmentID string) (*model.Enrollment, error) {
	enrollment, err := s.repo.Enrollment.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		s.logger.Error("查询报名失败", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return nil, ErrCompletionOpFailed
	}
	if enrollment.UserID != userID {
		return nil, ErrEnrollmentNotFound
	}
	if !enrollment.Active {
		return nil, ErrEnrollmentInactive
	}
	return enrollment, nil
}

// slotWorkout 返回该步骤对应的训练；MAIN 仅在训练日且有主训练时存在
func slotWorkout(plan *model.UserDailyPlan, contentType model.WorkoutContentType) (string, bool) {
	switch contentType {
	case model.WorkoutWarmup:
		return plan.WarmupID, plan.WarmupID != ""
	case model.WorkoutMain:
		if plan.IsWorkoutDay && plan.MainWorkoutID != nil && *plan.MainWorkoutID != "" {
			return *plan.MainWorkoutID, true
		}
	}
	return "", false
}

// ────────────────────── Mark ──────────────────────

func (s *completionService) Mark(ctx context.Context, userID, enrollmentID string, req *dto.CompletionRequest) (*dto.CompletionResponse, error) {
	contentType := model.WorkoutContentType(req.ContentType)
	if !contentType.Valid() {
		return nil, ErrInvalidContentType
	}

	enrollment, err := s.loadActive(ctx, userID, enrollmentID)
	if err != nil {
		return nil, err
	}

	plan, err := s.repo.UserDailyPlan.GetByEnrollmentAndDay(ctx, enrollmentID, req.StepIndex)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStepNotFound
		}
		s.logger.Error("查询每日计划失败", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return nil, ErrCompletionOpFailed
	}

	workoutID, ok := slotWorkout(plan, contentType)
	if !ok {
		return nil, ErrStepNotFound
	}
	if req.WorkoutID != "" && req.WorkoutID != workoutID {
		return nil, ErrWorkoutMismatch
	}

	completion := &model.WorkoutCompletion{
		UserID:       enrollment.UserID,
		EnrollmentID: enrollment.EnrollmentID,
		ContentType:  contentType,
		StepIndex:    req.StepIndex,
		WorkoutID:    workoutID,
	}
	if err := s.repo.WorkoutCompletion.Create(ctx, completion); err != nil {
		s.logger.Error("写入完成记录失败", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return nil, ErrCompletionOpFailed
	}

	return toCompletionResponse(completion), nil
}

// ────────────────────── Unmark ──────────────────────

func (s *completionService) Unmark(ctx context.Context, userID, enrollmentID string, req *dto.CompletionRequest) error {
	contentType := model.WorkoutContentType(req.ContentType)
	if !contentType.Valid() {
		return ErrInvalidContentType
	}

	enrollment, err := s.loadActive(ctx, userID, enrollmentID)
	if err != nil {
		return err
	}

	n, err := s.repo.WorkoutCompletion.DeleteBySlot(ctx, enrollment.UserID, enrollmentID, contentType, req.StepIndex)
	if err != nil {
		s.logger.Error("删除完成记录失败", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return ErrCompletionOpFailed
	}
	if n == 0 {
		return ErrCompletionNotFound
	}
	return nil
}

// ────────────────────── List ──────────────────────

func (s *completionService) List(ctx context.Context, userID, enrollmentID string) ([]dto.CompletionResponse, error) {
	enrollment, err := s.repo.Enrollment.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnrollmentNotFound
		}
		s.logger.Error("查询报名失败", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return nil, ErrCompletionOpFailed
	}
	if enrollment.UserID != userID {
		return nil, ErrEnrollmentNotFound
	}

	completions, err := s.repo.WorkoutCompletion.ListByEnrollment(ctx, userID, enrollmentID)
	if err != nil {
		s.logger.Error("查询完成记录失败", zap.String("enrollment_id", enrollmentID), zap.Error(err))
		return nil, ErrCompletionOpFailed
	}

	result := make([]dto.CompletionResponse, 0, len(completions))
	for i := range completions {
		result = append(result, *toCompletionResponse(&completions[i]))
	}
	return result, nil
}

func toCompletionResponse(c *model.WorkoutCompletion) *dto.CompletionResponse {
	resp := &dto.CompletionResponse{
		ContentType: string(c.ContentType),
		StepIndex:   c.StepIndex,
		WorkoutID:   c.WorkoutID,
	}
	if !c.CompletedAt.IsZero() {
		resp.CompletedAt = c.CompletedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

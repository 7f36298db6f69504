package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/SrgyS/yns-app-sub001/internal/dto"
	"github.com/SrgyS/yns-app-sub001/internal/model"
	"github.com/SrgyS/yns-app-sub001/internal/repository"
)

var (
	ErrReleaseAtInvalid = errors.New("发布时间格式无效")
	ErrPublishWeekFail  = errors.New("发布新周失败")
)

// WeekPublisher 发布 course.week_published 事件（Kafka 实现见 internal/messaging）
type WeekPublisher interface {
	PublishWeekPublished(ctx context.Context, event dto.WeekPublishedEvent) error
}

// WeekService 订阅课程新周发布
type WeekService interface {
	// PublishWeek 写入周元数据；有消息队列时投递事件，否则同步执行批量更新
	PublishWeek(ctx context.Context, courseID string, req *dto.PublishWeekRequest) (*dto.PublishWeekResponse, error)
}

type weekService struct {
	repo      *repository.Repository
	batch     PlanBatchService
	publisher WeekPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewWeekService 创建 WeekService；publisher 为 nil 时同步更新
func NewWeekService(repo *repository.Repository, batch PlanBatchService, publisher WeekPublisher, logger *zap.Logger) WeekService {
	return &weekService{repo: repo, batch: batch, publisher: publisher, logger: logger, now: time.Now}
}

func (s *weekService) PublishWeek(ctx context.Context, courseID string, req *dto.PublishWeekRequest) (*dto.PublishWeekResponse, error) {
	releaseAt := s.now().UTC()
	if req.ReleaseAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ReleaseAt)
		if err != nil {
			return nil, ErrReleaseAtInvalid
		}
		releaseAt = t.UTC()
	}

	course, err := s.repo.Course.GetByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		s.logger.Error("查询课程失败", zap.String("course_id", courseID), zap.Error(err))
		return nil, ErrPublishWeekFail
	}
	if !course.IsSubscription() {
		return nil, ErrCourseNotSubscription
	}

	week := &model.CourseWeek{CourseID: courseID, WeekNumber: req.WeekNumber, ReleaseAt: releaseAt}
	if err := s.repo.CourseWeek.Upsert(ctx, week); err != nil {
		s.logger.Error("写入课程周失败", zap.String("course_id", courseID), zap.Int("week_number", req.WeekNumber), zap.Error(err))
		return nil, ErrPublishWeekFail
	}

	resp := &dto.PublishWeekResponse{
		CourseID:   courseID,
		WeekNumber: req.WeekNumber,
		ReleaseAt:  releaseAt.Format(time.RFC3339),
	}

	if s.publisher != nil {
		event := dto.WeekPublishedEvent{CourseID: courseID, WeekNumber: req.WeekNumber, ReleaseAt: releaseAt}
		err := s.publisher.PublishWeekPublished(ctx, event)
		if err == nil {
			resp.Dispatched = true
			return resp, nil
		}
		// 投递失败回退为同步更新
		s.logger.Warn("投递新周事件失败，改为同步更新", zap.String("course_id", courseID), zap.Error(err))
	}

	result, err := s.batch.UpdatePlansForNewWeek(ctx, courseID, req.WeekNumber)
	if err != nil {
		return nil, err
	}
	resp.Result = result
	return resp, nil
}

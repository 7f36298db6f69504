package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/SrgyS/yns-app-sub001/config"
	"github.com/SrgyS/yns-app-sub001/internal/dto"
	"github.com/SrgyS/yns-app-sub001/internal/observability"
	"github.com/SrgyS/yns-app-sub001/internal/service"
)

// Reader kafka.Reader 的最小接口
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// WeekHandler 处理已解码的新周发布事件
type WeekHandler interface {
	HandleWeekPublished(ctx context.Context, event dto.WeekPublishedEvent) error
}

// NewReader 基于 kafka 配置创建消费组 reader
func NewReader(cfg *config.KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // 同步提交
		MaxWait:        time.Second,
	})
}

const (
	handlerMaxAttempts = 5
	handlerRetryDelay  = 2 * time.Second
)

// ErrHandlerExhausted 消息重试耗尽，消费循环停止且该消息未提交
var ErrHandlerExhausted = errors.New("消息处理重试耗尽")

// Processor 拉取消息、解码并交给 WeekHandler
//   - 解码失败：记录后提交，避免毒消息反复投递
//   - 处理失败：原地线性退避重试；耗尽后返回 ErrHandlerExhausted，
//     不提交也不再拉取后续消息，进程重启后从最后提交的 offset 继续
type Processor struct {
	reader  Reader
	handler WeekHandler
	logger  *zap.Logger

	maxAttempts int
	retryDelay  time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewProcessor 创建 Processor
func NewProcessor(reader Reader, handler WeekHandler, logger *zap.Logger) *Processor {
	return &Processor{
		reader:      reader,
		handler:     handler,
		logger:      logger,
		maxAttempts: handlerMaxAttempts,
		retryDelay:  handlerRetryDelay,
		sleep:       sleepContext,
	}
}

// Run 阻塞消费直到 ctx 取消
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			p.logger.Warn("拉取消息失败", zap.Error(err))
			continue
		}

		log := p.logger.With(
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
		)

		event, err := decodeWeekPublished(msg)
		if err != nil {
			log.Error("消息解码失败，已跳过", zap.Error(err))
			observability.RecordEventConsumed(msg.Topic, "decode_error")
			if err := p.reader.CommitMessages(ctx, msg); err != nil {
				log.Warn("提交消息失败", zap.Error(err))
			}
			continue
		}

		if err := p.handle(ctx, log, event); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.RecordEventConsumed(msg.Topic, "handler_error")
			return fmt.Errorf("%w (topic=%s partition=%d offset=%d): %w",
				ErrHandlerExhausted, msg.Topic, msg.Partition, msg.Offset, err)
		}

		if err := p.reader.CommitMessages(ctx, msg); err != nil {
			log.Warn("提交消息失败", zap.Error(err))
			continue
		}
		observability.RecordEventConsumed(msg.Topic, "processed")
	}
}

// handle 按 attempt×retryDelay 退避重试，ctx 取消时立即返回
func (p *Processor) handle(ctx context.Context, log *zap.Logger, event dto.WeekPublishedEvent) error {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		lastErr = p.handler.HandleWeekPublished(ctx, event)
		if lastErr == nil {
			return nil
		}
		log.Warn("处理新周事件失败",
			zap.String("course_id", event.CourseID),
			zap.Int("week_number", event.WeekNumber),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)
		if attempt == p.maxAttempts {
			break
		}
		if err := p.sleep(ctx, time.Duration(attempt)*p.retryDelay); err != nil {
			return err
		}
	}
	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func decodeWeekPublished(msg kafka.Message) (dto.WeekPublishedEvent, error) {
	if eventType, ok := headerValue(msg, headerEventType); ok && eventType != EventTypeWeekPublished {
		return dto.WeekPublishedEvent{}, fmt.Errorf("未知事件类型: %s", eventType)
	}

	var event dto.WeekPublishedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return dto.WeekPublishedEvent{}, fmt.Errorf("解析消息体失败: %w", err)
	}
	if event.CourseID == "" || event.WeekNumber < 1 {
		return dto.WeekPublishedEvent{}, fmt.Errorf("消息字段缺失: course_id=%q week_number=%d", event.CourseID, event.WeekNumber)
	}
	return event, nil
}

func headerValue(msg kafka.Message, key string) (string, bool) {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}

// ── 批量更新 Handler ──

// PlanUpdateHandler 将新周事件转交批量计划更新
type PlanUpdateHandler struct {
	batch  service.PlanBatchService
	logger *zap.Logger
}

// NewPlanUpdateHandler 创建 PlanUpdateHandler
func NewPlanUpdateHandler(batch service.PlanBatchService, logger *zap.Logger) *PlanUpdateHandler {
	return &PlanUpdateHandler{batch: batch, logger: logger}
}

// HandleWeekPublished 课程缺失或类型不符时视为已处理；锁冲突说明另一实例正在执行，同样视为已处理
func (h *PlanUpdateHandler) HandleWeekPublished(ctx context.Context, event dto.WeekPublishedEvent) error {
	result, err := h.batch.UpdatePlansForNewWeek(ctx, event.CourseID, event.WeekNumber)
	switch {
	case err == nil:
		h.logger.Info("新周计划已更新",
			zap.String("course_id", event.CourseID),
			zap.Int("week_number", event.WeekNumber),
			zap.String("run_id", result.RunID),
			zap.Int("updated", result.UpdatedUsers),
			zap.Int("failed", result.FailedUsers),
		)
		return nil
	case errors.Is(err, service.ErrCourseNotFound),
		errors.Is(err, service.ErrCourseNotSubscription),
		errors.Is(err, service.ErrPlanUpdateInProgress):
		h.logger.Warn("新周事件已忽略",
			zap.String("course_id", event.CourseID),
			zap.Int("week_number", event.WeekNumber),
			zap.Error(err),
		)
		return nil
	default:
		return err
	}
}

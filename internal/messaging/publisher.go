// Package messaging 负责 course.week_published 事件的投递与消费。
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/SrgyS/yns-app-sub001/config"
	"github.com/SrgyS/yns-app-sub001/internal/dto"
	"github.com/SrgyS/yns-app-sub001/internal/observability"
)

const headerEventType = "event_type"

// EventTypeWeekPublished 新周发布事件类型
const EventTypeWeekPublished = "course.week_published"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher 将事件写入 Kafka；key 为 course_id，保证同一课程的事件有序
type Publisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// NewPublisher 基于 kafka 配置创建 Publisher
func NewPublisher(cfg *config.KafkaConfig, logger *zap.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
	return newPublisher(writer, cfg.Topic, logger)
}

func newPublisher(writer messageWriter, topic string, logger *zap.Logger) *Publisher {
	return &Publisher{writer: writer, topic: topic, logger: logger}
}

// PublishWeekPublished 投递新周发布事件
func (p *Publisher) PublishWeekPublished(ctx context.Context, event dto.WeekPublishedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("编码事件失败: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.CourseID),
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(EventTypeWeekPublished)},
			{Key: "week_number", Value: []byte(strconv.Itoa(event.WeekNumber))},
		},
	}

	err = p.writer.WriteMessages(ctx, msg)
	observability.RecordEventPublished(p.topic, err)
	if err != nil {
		p.logger.Error("投递事件失败",
			zap.String("topic", p.topic),
			zap.String("course_id", event.CourseID),
			zap.Int("week_number", event.WeekNumber),
			zap.Error(err),
		)
		return fmt.Errorf("投递事件失败: %w", err)
	}

	p.logger.Info("事件已投递",
		zap.String("topic", p.topic),
		zap.String("course_id", event.CourseID),
		zap.Int("week_number", event.WeekNumber),
	)
	return nil
}

// Close 关闭底层 writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}

package model

import "time"

// WorkoutCompletion 训练完成记录 — 对应 workout_completions
// 唯一约束：(user_id, enrollment_id, content_type, step_index)
// step_index 为该槽位所在的 program day 序号
type WorkoutCompletion struct {
	CompletionID string             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"          json:"completion_id"`
	UserID       string             `gorm:"type:uuid;not null;uniqueIndex:uq_workout_completion"    json:"user_id"`
	EnrollmentID string             `gorm:"type:uuid;not null;uniqueIndex:uq_workout_completion"    json:"enrollment_id"`
	ContentType  WorkoutContentType `gorm:"type:varchar(10);not null;uniqueIndex:uq_workout_completion" json:"content_type"` // WARMUP | MAIN
	StepIndex    int                `gorm:"not null;uniqueIndex:uq_workout_completion"              json:"step_index"`
	WorkoutID    string             `gorm:"type:uuid;not null"                                      json:"workout_id"`
	CompletedAt  time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"                      json:"completed_at"`
}

func (WorkoutCompletion) TableName() string { return "workout_completions" }

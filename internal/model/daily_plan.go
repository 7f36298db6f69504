package model

// DailyPlan 课程级每日计划模板 — 对应 daily_plans
// 一个课程每个 program day 一行，由内容作者编辑，运行时不修改
type DailyPlan struct {
	DailyPlanID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"daily_plan_id"`
	CourseID      string  `gorm:"type:uuid;not null;index"                       json:"course_id"`
	DayNumber     int     `gorm:"type:smallint;not null"                         json:"day_number"`
	WeekNumber    int     `gorm:"type:smallint;not null"                         json:"week_number"`
	WarmupID      string  `gorm:"type:uuid;not null"                             json:"warmup_id"`
	MainWorkoutID *string `gorm:"type:uuid"                                      json:"main_workout_id,omitempty"`
	MealPlanID    *string `gorm:"type:uuid"                                      json:"meal_plan_id,omitempty"`
	BaseModel
}

func (DailyPlan) TableName() string { return "daily_plans" }

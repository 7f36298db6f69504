package dto

import "time"

// ── 内容窗口 / 训练日 DTO ──

// WeekMeta 周发布元数据（用于前端周标签）
type WeekMeta struct {
	WeekNumber int       `json:"week_number"`
	ReleaseAt  time.Time `json:"release_at"`
}

// AvailableWeeks 当前用户可见的内容周
type AvailableWeeks struct {
	AvailableWeeks   []int      `json:"available_weeks"`
	TotalWeeks       int        `json:"total_weeks"`
	CurrentWeekIndex int        `json:"current_week_index"`
	WeeksMeta        []WeekMeta `json:"weeks_meta,omitempty"`     // 仅订阅课程
	MaxDayNumber     int        `json:"max_day_number,omitempty"` // 仅固定课程
	TotalDays        int        `json:"total_days,omitempty"`     // 仅固定课程
}

// DayCell 展示周中的一天
type DayCell struct {
	Date         string `json:"date"` // 2006-01-02
	DayOfWeek    string `json:"day_of_week"`
	ProgramDay   *int   `json:"program_day"`
	IsWorkoutDay bool   `json:"is_workout_day"`
	Disabled     bool   `json:"disabled"`
	IsToday      bool   `json:"is_today"`
}

// ProgramWeekResponse 周/日选择器数据
type ProgramWeekResponse struct {
	EnrollmentID string         `json:"enrollment_id"`
	CurrentWeek  int            `json:"current_week"`
	DefaultDay   *int           `json:"default_day"`
	Days         []DayCell      `json:"days"`
	Weeks        AvailableWeeks `json:"weeks"`
	// DefaultPlan 默认日的计划，供客户端预加载；默认日不在可见周内时为空
	DefaultPlan *UserDailyPlanResponse `json:"default_plan,omitempty"`
}

// UserDailyPlanResponse 单日计划
type UserDailyPlanResponse struct {
	ID            string  `json:"id"`
	EnrollmentID  string  `json:"enrollment_id"`
	DayNumber     int     `json:"day_number"`
	WeekNumber    int     `json:"week_number"`
	Date          string  `json:"date"`
	DayOfWeek     string  `json:"day_of_week"`
	IsWorkoutDay  bool    `json:"is_workout_day"`
	WarmupID      string  `json:"warmup_id"`
	MainWorkoutID *string `json:"main_workout_id,omitempty"`
	MealPlanID    *string `json:"meal_plan_id,omitempty"`
}

// UpdateWorkoutDaysRequest 修改训练日请求
type UpdateWorkoutDaysRequest struct {
	EnrollmentID        string   `json:"-"`
	UserID              string   `json:"-"` // 为空表示管理员操作
	SelectedWorkoutDays []string `json:"selected_workout_days" binding:"required,max=7,dive,weekday"`
	KeepProgress        bool     `json:"keep_progress"`
}

// ── 报名 DTO ──

// CreateEnrollmentRequest 创建报名请求（购买 / 授权后调用）
type CreateEnrollmentRequest struct {
	UserID              string   `json:"user_id"               binding:"required,uuid"`
	CourseID            string   `json:"course_id"             binding:"required,uuid"`
	StartDate           string   `json:"start_date"            binding:"required,datetime=2006-01-02"`
	SelectedWorkoutDays []string `json:"selected_workout_days" binding:"max=7,dive,weekday"`
}

// EnrollmentResponse 报名信息
type EnrollmentResponse struct {
	ID                  string   `json:"id"`
	UserID              string   `json:"user_id"`
	CourseID            string   `json:"course_id"`
	StartDate           string   `json:"start_date"`
	SelectedWorkoutDays []string `json:"selected_workout_days"`
	Active              bool     `json:"active"`
	PlanDays            int      `json:"plan_days"`
}

// ── 训练完成记录 DTO ──

// CompletionRequest 标记 / 取消完成请求
type CompletionRequest struct {
	ContentType string `json:"content_type" form:"content_type" binding:"required,oneof=WARMUP MAIN"`
	StepIndex   int    `json:"step_index"   form:"step_index"   binding:"required,min=1"`
	WorkoutID   string `json:"workout_id"   form:"workout_id"   binding:"omitempty,uuid"`
}

// CompletionResponse 完成记录
type CompletionResponse struct {
	ContentType string `json:"content_type"`
	StepIndex   int    `json:"step_index"`
	WorkoutID   string `json:"workout_id"`
	CompletedAt string `json:"completed_at"`
}

// ── 新周发布 / 批量更新 DTO ──

// PublishWeekRequest 发布新周请求
type PublishWeekRequest struct {
	WeekNumber int     `json:"week_number" binding:"required,min=1"`
	ReleaseAt  *string `json:"release_at"  binding:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// PlanUpdateError 单用户失败原因
type PlanUpdateError struct {
	UserID       string `json:"user_id"`
	EnrollmentID string `json:"enrollment_id"`
	Error        string `json:"error"`
}

// PlanUpdateResult 批量更新结果
type PlanUpdateResult struct {
	RunID        string            `json:"run_id"`
	TotalUsers   int               `json:"total_users"`
	UpdatedUsers int               `json:"updated_users"`
	FailedUsers  int               `json:"failed_users"`
	Errors       []PlanUpdateError `json:"errors"`
}

// PublishWeekResponse 发布新周结果
type PublishWeekResponse struct {
	CourseID   string            `json:"course_id"`
	WeekNumber int               `json:"week_number"`
	ReleaseAt  string            `json:"release_at"`
	Dispatched bool              `json:"dispatched"` // true: 已投递至消息队列，由 worker 异步更新
	Result     *PlanUpdateResult `json:"result,omitempty"`
}

// ── 事件 ──

// WeekPublishedEvent course.week_published 消息体
type WeekPublishedEvent struct {
	CourseID   string    `json:"course_id"`
	WeekNumber int       `json:"week_number"`
	ReleaseAt  time.Time `json:"release_at"`
}

// [自证通过] internal/dto/schedule.go

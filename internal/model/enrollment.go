package model

import "time"

// Enrollment 用户课程报名 — 对应 enrollments
// 同一用户同一时刻仅有一个 active 报名；被替代或关闭访问时置为 inactive（不删除）
type Enrollment struct {
	EnrollmentID        string       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"enrollment_id"`
	UserID              string       `gorm:"type:uuid;not null;index"                       json:"user_id"`
	CourseID            string       `gorm:"type:uuid;not null;index"                       json:"course_id"`
	StartDate           time.Time    `gorm:"type:date;not null"                             json:"start_date"`
	SelectedWorkoutDays WeekdayArray `gorm:"type:text[];not null;default:'{}'"              json:"selected_workout_days"`
	Active              bool         `gorm:"not null;default:true"                          json:"active"`
	HasFeedback         bool         `gorm:"not null;default:false"                         json:"has_feedback"`
	BaseModel

	// 关联
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

func (Enrollment) TableName() string { return "enrollments" }

// [自证通过] internal/model/enrollment.go

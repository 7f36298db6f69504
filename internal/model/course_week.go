package model

import "time"

// CourseWeek 订阅课程周发布元数据 — 对应 course_weeks
type CourseWeek struct {
	CourseWeekID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"course_week_id"`
	CourseID     string    `gorm:"type:uuid;not null;uniqueIndex:uq_course_week"  json:"course_id"`
	WeekNumber   int       `gorm:"type:smallint;not null;uniqueIndex:uq_course_week" json:"week_number"`
	ReleaseAt    time.Time `gorm:"not null"                                       json:"release_at"`
	BaseModel
}

func (CourseWeek) TableName() string { return "course_weeks" }

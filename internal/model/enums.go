package model

import "time"

// CourseContentType 课程内容类型
type CourseContentType string

const (
	ContentTypeFixedCourse  CourseContentType = "FIXED_COURSE"
	ContentTypeSubscription CourseContentType = "SUBSCRIPTION"
)

// Valid 是否为已知的内容类型
func (t CourseContentType) Valid() bool {
	switch t {
	case ContentTypeFixedCourse, ContentTypeSubscription:
		return true
	}
	return false
}

// WorkoutContentType 每日计划中的训练槽位：热身 / 主训练
type WorkoutContentType string

const (
	WorkoutWarmup WorkoutContentType = "WARMUP"
	WorkoutMain   WorkoutContentType = "MAIN"
)

// WorkoutContentTypes 全部训练槽位（固定顺序）
var WorkoutContentTypes = []WorkoutContentType{WorkoutWarmup, WorkoutMain}

// Valid 是否为已知的训练槽位
func (t WorkoutContentType) Valid() bool {
	switch t {
	case WorkoutWarmup, WorkoutMain:
		return true
	}
	return false
}

// Weekday 星期名称（与 time.Weekday 一一对应）
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

// Valid 是否为合法的星期名称
func (d Weekday) Valid() bool {
	switch d {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return true
	}
	return false
}

// WeekdayOf 将 time.Weekday 转换为 Weekday
func WeekdayOf(d time.Weekday) Weekday {
	switch d {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// Index 周一=0 … 周日=6；未知值返回 7
func (d Weekday) Index() int {
	switch d {
	case Monday:
		return 0
	case Tuesday:
		return 1
	case Wednesday:
		return 2
	case Thursday:
		return 3
	case Friday:
		return 4
	case Saturday:
		return 5
	case Sunday:
		return 6
	}
	return 7
}

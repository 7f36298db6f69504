package model

// PlanWeekSummary 某报名已物化计划的周汇总（只读视图，非数据表）
type PlanWeekSummary struct {
	WeekNumbers  []int `json:"week_numbers"` // 升序、去重
	MaxDayNumber int   `json:"max_day_number"`
	TotalWeeks   int   `json:"total_weeks"`
}

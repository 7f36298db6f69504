// Package dateutil 提供按“日历日”计算的日期工具。
//
// 所有函数先把时间截断为其所在时区的日期（00:00 UTC 表示），
// 因此结果只取决于年月日，与时分秒及夏令时无关。
// 周以周一为起始。
package dateutil

import "time"

const day = 24 * time.Hour

// Day 截断为当天 00:00（UTC 表示的日历日）
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays 在日历日上加减天数
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// StartOfWeek 返回 t 所在周的周一
func StartOfWeek(t time.Time) time.Time {
	d := Day(t)
	offset := (int(d.Weekday()) + 6) % 7 // 周一=0 … 周日=6
	return d.AddDate(0, 0, -offset)
}

// IsMonday 是否为周一
func IsMonday(t time.Time) bool {
	return t.Weekday() == time.Monday
}

// DaysBetween 返回 from → to 相隔的日历天数（to 早于 from 时为负）
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)) / day)
}

// CalendarWeeksSince 返回 to 与 from 之间跨越的日历周数（周一为界）
// 例如 from=周日、to=次日周一 → 1
func CalendarWeeksSince(to, from time.Time) int {
	diff := DaysBetween(StartOfWeek(from), StartOfWeek(to))
	if diff >= 0 {
		return diff / 7
	}
	return -((-diff + 6) / 7)
}

// LastDayBefore 返回截止时刻（不含）之前的最后一个日历日
// 例如 2025-03-17 00:00 → 2025-03-16；2025-03-17 10:00 → 2025-03-17
func LastDayBefore(deadline time.Time) time.Time {
	return Day(deadline.Add(-time.Nanosecond))
}

// Clamp 将 v 限制在 [lo, hi]
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

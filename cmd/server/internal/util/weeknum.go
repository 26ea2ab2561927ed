package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout 周报日期统一使用的格式
const DateLayout = "2006-01-02"

// DateRange 周一到周日的日期区间（闭区间）
type DateRange struct {
	Start time.Time
	End   time.Time
}

// String 返回 "2025-01-06 ~ 2025-01-12"
func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + " ~ " + r.End.Format(DateLayout)
}

// Contains 判断日期是否落在区间内（按天比较）
func (r DateRange) Contains(t time.Time) bool {
	d := truncateDay(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Overlaps 判断两个区间是否有交集
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.End.Before(o.Start) && !o.End.Before(r.Start)
}

// GetWeekNumber 计算ISO 8601周编号
// 返回格式: "2025-05" (表示2025年第5周)
func GetWeekNumber(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-%02d", year, week)
}

// ParseWeekNumber 解析周编号
// 输入格式: "2025-05"
func ParseWeekNumber(weekNum string) (year int, week int, err error) {
	parts := strings.Split(weekNum, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid week number format: %s (expected YYYY-WW)", weekNum)
	}

	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year in week number: %s", parts[0])
	}

	week, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid week in week number: %s", parts[1])
	}

	if week < 1 || week > 53 {
		return 0, 0, fmt.Errorf("week number out of range: %d (expected 1-53)", week)
	}

	return year, week, nil
}

// WeekOf 返回 t 所在周（周一开始）的日期区间
func WeekOf(t time.Time) DateRange {
	d := truncateDay(t)
	offset := int(d.Weekday()) - 1
	if offset < 0 {
		offset = 6 // 周日
	}
	start := d.AddDate(0, 0, -offset)
	return DateRange{Start: start, End: start.AddDate(0, 0, 6)}
}

// NextWeek 返回紧接在 r 之后的一周
func NextWeek(r DateRange) DateRange {
	start := r.End.AddDate(0, 0, 1)
	return DateRange{Start: start, End: start.AddDate(0, 0, 6)}
}

// WeekRangeOf 根据周编号计算周一到周日
func WeekRangeOf(weekNum string) (DateRange, error) {
	year, week, err := ParseWeekNumber(weekNum)
	if err != nil {
		return DateRange{}, err
	}
	// 1月4日所在周总是 ISO 第一周
	first := WeekOf(time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC))
	start := first.Start.AddDate(0, 0, (week-1)*7)
	return DateRange{Start: start, End: start.AddDate(0, 0, 6)}, nil
}

// ParseDateRange 解析 "YYYY-MM-DD" 形式的起止日期，空字符串表示不限
func ParseDateRange(start, end string) (DateRange, bool, error) {
	if start == "" && end == "" {
		return DateRange{}, false, nil
	}
	r := DateRange{
		Start: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	var err error
	if start != "" {
		if r.Start, err = time.Parse(DateLayout, start); err != nil {
			return DateRange{}, false, fmt.Errorf("invalid start date %q: %w", start, err)
		}
	}
	if end != "" {
		if r.End, err = time.Parse(DateLayout, end); err != nil {
			return DateRange{}, false, fmt.Errorf("invalid end date %q: %w", end, err)
		}
	}
	if r.End.Before(r.Start) {
		return DateRange{}, false, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return r, true, nil
}

// FormatWeekRange 格式化为 "01/29-02/04" (月/日-月/日)
func FormatWeekRange(r DateRange) string {
	return fmt.Sprintf("%02d/%02d-%02d/%02d",
		r.Start.Month(), r.Start.Day(),
		r.End.Month(), r.End.Day())
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

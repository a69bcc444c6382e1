package garden

import (
	"fmt"
	"time"
)

const DAYS_IN_YEAR int = 365

/**
 * @brief A span of days of the year, inclusive at both ends. A range whose
 * end is before its start wraps over the new year.
 */
type DateRange struct {
	Start      int
	End        int
	TotalDays  int
	WrapAround bool
}

func NewDateRange(start, end int) (DateRange, error) {
	if start < 1 || start > DAYS_IN_YEAR || end < 1 || end > DAYS_IN_YEAR {
		return DateRange{}, fmt.Errorf("day of year must be within 1-%d, got %d-%d", DAYS_IN_YEAR, start, end)
	}
	r := DateRange{Start: start, End: end, WrapAround: end < start}
	if r.WrapAround {
		r.TotalDays = (DAYS_IN_YEAR - start + 1) + end
	} else {
		r.TotalDays = end - start + 1
	}
	return r, nil
}

func (r DateRange) Contains(day int) bool {
	if r.WrapAround {
		return day >= r.Start || day <= r.End
	}
	return day >= r.Start && day <= r.End
}

// DayAt returns the day of year offset days after Start, wrapping at the
// year end.
func (r DateRange) DayAt(offset int) int {
	return (r.Start-1+offset)%DAYS_IN_YEAR + 1
}

// Sample picks n days spread evenly over the range, both ends included.
func (r DateRange) Sample(n int) []int {
	if n <= 0 {
		return nil
	}
	if n == 1 || r.TotalDays == 1 {
		return []int{r.Start}
	}
	if n > r.TotalDays {
		n = r.TotalDays
	}
	days := make([]int, 0, n)
	for i := 0; i < n; i++ {
		offset := i * (r.TotalDays - 1) / (n - 1)
		days = append(days, r.DayAt(offset))
	}
	return days
}

// DateForDay formats a day of the given year as YYYY-MM-DD. Day 365 of a
// leap year is December 30th.
func DateForDay(year, day int) string {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day-1).Format("2006-01-02")
}

// DayOfYear clamps Dec 31st of leap years to 365.
func DayOfYear(t time.Time) int {
	d := t.YearDay()
	if d > DAYS_IN_YEAR {
		return DAYS_IN_YEAR
	}
	return d
}

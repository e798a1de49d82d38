package util

import "time"

// DayKeyLocal returns the local calendar date of t as "YYYY-MM-DD".
func DayKeyLocal(t time.Time) string {
	return t.In(plannerLocation).Format("2006-01-02")
}

// WIndexFromDate maps a date onto the fixed 4-way partition of its month:
// W1 = days 1-7, W2 = 8-14, W3 = 15-21, W4 = 22 to end of month.
func WIndexFromDate(t time.Time) int {
	day := t.In(plannerLocation).Day()
	switch {
	case day <= 7:
		return 1
	case day <= 14:
		return 2
	case day <= 21:
		return 3
	default:
		return 4
	}
}

func WStartDay(w int) int {
	switch w {
	case 1:
		return 1
	case 2:
		return 8
	case 3:
		return 15
	default:
		return 22
	}
}

func WEndDay(year, month0, w int) int {
	switch w {
	case 1:
		return 7
	case 2:
		return 14
	case 3:
		return 21
	default:
		return daysInMonth(year, month0)
	}
}

func daysInMonth(year, month0 int) int {
	return time.Date(year, time.Month(month0+2), 0, 0, 0, 0, 0, plannerLocation).Day()
}

// WBlockRange is the inclusive window of the W-block containing anchor.
func WBlockRange(anchor time.Time) (time.Time, time.Time) {
	a := anchor.In(plannerLocation)
	year, month0 := a.Year(), int(a.Month())-1
	w := WIndexFromDate(a)
	start := time.Date(year, time.Month(month0+1), WStartDay(w), 0, 0, 0, 0, plannerLocation)
	end := time.Date(year, time.Month(month0+1), WEndDay(year, month0, w), 23, 59, 59, 999999999, plannerLocation)
	return start, end
}

// MonthRange is the half-open [first of month, first of next month) window.
func MonthRange(year, month0 int) (time.Time, time.Time) {
	from := time.Date(year, time.Month(month0+1), 1, 0, 0, 0, 0, plannerLocation)
	return from, from.AddDate(0, 1, 0)
}

// YearRange is the half-open [Jan 1, next Jan 1) window.
func YearRange(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, plannerLocation)
	return from, from.AddDate(1, 0, 0)
}

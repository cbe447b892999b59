// Package series turns the backend's sparse daily-price summaries into
// chartable day-of-month series and computes month-over-month deltas.
package series

import (
	"sort"

	"duobook/internal/core"
)

// maxDay is the largest possible day slot in any calendar month.
const maxDay = 31

// Point is one day's value on the month axis.
type Point struct {
	Day   int   // day of month, 1..31
	Price int64
}

// FromDaily projects a month's daily summary onto day-of-month slots.
// Days without a point are dropped, not zero-filled: the result is sparse
// but strictly increasing in Day.
func FromDaily(points []core.DailyPoint) []Point {
	series := make([]Point, 0, len(points))
	for _, p := range points {
		series = append(series, Point{Day: p.Date.Day(), Price: p.Price})
	}
	return Normalize(series)
}

// Normalize sorts a series by day, drops out-of-range days and keeps the
// last value for a duplicated day. Already-normalized input comes back
// unchanged.
func Normalize(series []Point) []Point {
	byDay := make(map[int]int64, len(series))
	for _, p := range series {
		if p.Day < 1 || p.Day > maxDay {
			continue
		}
		byDay[p.Day] = p.Price
	}

	out := make([]Point, 0, len(byDay))
	for day, price := range byDay {
		out = append(out, Point{Day: day, Price: price})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// TruncateToDay keeps the points with Day <= day. A normalized series is
// sorted, so this is a prefix cut.
func TruncateToDay(series []Point, day int) []Point {
	cut := len(series)
	for i, p := range series {
		if p.Day > day {
			cut = i
			break
		}
	}
	return series[:cut]
}

// Last returns the final point's price, or 0 for an empty series.
func Last(series []Point) int64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1].Price
}

// Delta compares the selected month's series against the previous month's.
//
// When the selected month is still in progress (partial = true), both
// series are first truncated to today's day-of-month so five days of
// spending are never compared against a full prior month. Positive means
// spending more than last month, negative less; zero suppresses the
// comparison message.
func Delta(current, last []Point, today int, partial bool) int64 {
	if partial {
		current = TruncateToDay(current, today)
		last = TruncateToDay(last, today)
	}
	return Last(current) - Last(last)
}

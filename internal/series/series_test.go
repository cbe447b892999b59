package series

import (
	"reflect"
	"testing"

	"duobook/internal/core"
)

func TestFromDaily(t *testing.T) {
	points := []core.DailyPoint{
		{Date: core.NewDate(2024, 5, 1), Price: 1000},
		{Date: core.NewDate(2024, 5, 3), Price: 500},
	}

	got := FromDaily(points)
	want := []Point{{Day: 1, Price: 1000}, {Day: 3, Price: 500}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FromDaily() = %v, want %v (day 2 absent, not zero)", got, want)
	}
}

func TestFromDailyUnorderedInput(t *testing.T) {
	points := []core.DailyPoint{
		{Date: core.NewDate(2024, 5, 20), Price: 300},
		{Date: core.NewDate(2024, 5, 2), Price: 700},
		{Date: core.NewDate(2024, 5, 9), Price: 100},
	}

	got := FromDaily(points)
	want := []Point{{Day: 2, Price: 700}, {Day: 9, Price: 100}, {Day: 20, Price: 300}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FromDaily() = %v, want %v", got, want)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	normalized := Normalize([]Point{
		{Day: 31, Price: 4},
		{Day: 1, Price: 1},
		{Day: 15, Price: 2},
		{Day: 40, Price: 9}, // out of range, dropped
	})

	again := Normalize(normalized)
	if !reflect.DeepEqual(again, normalized) {
		t.Errorf("Normalize(Normalize(x)) = %v, want %v", again, normalized)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if got := Normalize(nil); len(got) != 0 {
		t.Errorf("Normalize(nil) = %v, want empty", got)
	}
}

func TestTruncateToDay(t *testing.T) {
	s := []Point{{Day: 1, Price: 10}, {Day: 5, Price: 20}, {Day: 12, Price: 30}}

	tests := []struct {
		day  int
		want []Point
	}{
		{day: 12, want: s},
		{day: 11, want: s[:2]},
		{day: 5, want: s[:2]},
		{day: 1, want: s[:1]},
		{day: 0, want: s[:0]},
	}

	for _, tt := range tests {
		got := TruncateToDay(s, tt.day)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("TruncateToDay(%d) = %v, want %v", tt.day, got, tt.want)
		}
	}
}

func TestTruncateMatchesManualFilter(t *testing.T) {
	s := Normalize([]Point{
		{Day: 3, Price: 100}, {Day: 8, Price: 250}, {Day: 17, Price: 400}, {Day: 29, Price: 410},
	})

	for day := 0; day <= 31; day++ {
		var maxDay int
		var maxPrice int64
		for _, p := range s {
			if p.Day <= day && p.Day > maxDay {
				maxDay, maxPrice = p.Day, p.Price
			}
		}
		if got := Last(TruncateToDay(s, day)); got != maxPrice {
			t.Errorf("day %d: Last(TruncateToDay) = %d, manual max-x filter = %d", day, got, maxPrice)
		}
	}
}

func TestDelta(t *testing.T) {
	current := []Point{{Day: 1, Price: 1000}, {Day: 10, Price: 5000}, {Day: 20, Price: 9000}}
	last := []Point{{Day: 2, Price: 2000}, {Day: 11, Price: 4000}, {Day: 28, Price: 12000}}

	tests := []struct {
		name    string
		today   int
		partial bool
		want    int64
	}{
		{name: "completed month compares full series", partial: false, want: -3000},
		{name: "partial month truncates both sides", today: 10, partial: true, want: 1000},
		{name: "partial before any current spending", today: 1, partial: true, want: 1000 - 0},
		{name: "spending more", today: 20, partial: true, want: 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Delta(current, last, tt.today, tt.partial); got != tt.want {
				t.Errorf("Delta() = %d, want %d", got, tt.want)
			}
		})
	}

	t.Run("empty series count as zero", func(t *testing.T) {
		if got := Delta(nil, last, 28, false); got != -12000 {
			t.Errorf("Delta(nil, last) = %d, want -12000", got)
		}
		if got := Delta(current, nil, 0, false); got != 9000 {
			t.Errorf("Delta(current, nil) = %d, want 9000", got)
		}
		if got := Delta(nil, nil, 0, false); got != 0 {
			t.Errorf("Delta(nil, nil) = %d, want 0", got)
		}
	})
}

package ledger

import (
	"context"
	"fmt"

	"duobook/internal/core"
	"duobook/internal/series"
	"duobook/internal/settle"
)

// SettlementView is everything the settlement tab renders.
type SettlementView struct {
	Results   []core.PersonTotal
	Average   float64
	Owed      []settle.Share
	Transfers []settle.Transfer
}

// ShowOwed reports whether the "amount to settle" section appears at all.
// Nobody below average means the section is suppressed entirely.
func (v SettlementView) ShowOwed() bool {
	return len(v.Owed) > 0
}

// Settlement computes the month's settlement from the cached summary.
func (s *Service) Settlement(ctx context.Context) (SettlementView, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return SettlementView{}, err
	}

	average, owed := settle.Owed(summary.Results, s.cfg.Parties)
	return SettlementView{
		Results:   summary.Results,
		Average:   average,
		Owed:      owed,
		Transfers: settle.Transfers(summary.Results, s.cfg.Parties),
	}, nil
}

// MonthOverview is the header area of the ledger: total spending, the
// daily series for charting, and the delta against the previous month.
type MonthOverview struct {
	Month          core.Month
	TotalPrice     int64
	Series         []series.Point
	PrevSeries     []series.Point
	Delta          int64
	IsCurrentMonth bool
	IsPastMonth    bool
}

// Overview assembles the month overview for the active filter.
func (s *Service) Overview(ctx context.Context) (MonthOverview, error) {
	f := s.Filter()

	summary, err := s.Summary(ctx)
	if err != nil {
		return MonthOverview{}, err
	}

	currentDaily, err := s.Daily(ctx, f.Month)
	if err != nil {
		return MonthOverview{}, err
	}
	prevDaily, err := s.Daily(ctx, f.Month.Prev())
	if err != nil {
		return MonthOverview{}, err
	}

	now := s.now()
	thisMonth := core.MonthOf(now)
	current := series.FromDaily(currentDaily)
	prev := series.FromDaily(prevDaily)

	o := MonthOverview{
		Month:          f.Month,
		TotalPrice:     summary.TotalPrice,
		Series:         current,
		PrevSeries:     prev,
		IsCurrentMonth: f.Month == thisMonth,
		IsPastMonth:    f.Month.Start().Before(thisMonth.Start().Time),
	}
	o.Delta = series.Delta(current, prev, now.Day(), o.IsCurrentMonth)
	return o, nil
}

// Comment renders the month-over-month message. Empty when the delta is
// zero or the month lies in the future.
func (o MonthOverview) Comment() string {
	if o.Delta == 0 || (!o.IsCurrentMonth && !o.IsPastMonth) {
		return ""
	}

	amount := o.Delta
	direction := "더"
	if amount < 0 {
		amount = -amount
		direction = "덜"
	}

	if o.IsCurrentMonth {
		return fmt.Sprintf("지난 달 보다 %s %s 쓰는 중", core.FormatWon(amount), direction)
	}
	return fmt.Sprintf("%d월 보다 %s %s 썼어요", int(o.Month.Prev().Month), core.FormatWon(amount), direction)
}

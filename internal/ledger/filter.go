package ledger

import (
	"net/url"
	"strconv"
	"time"

	"duobook/internal/core"
)

// Tab selects between the line history and the settlement view.
type Tab int

const (
	TabList       Tab = 0
	TabSettlement Tab = 1
)

// Filter is the durable navigation state: the selected month and the
// active tab. It round-trips through a query string ("tab",
// "selectedDate") which is the source of truth for bookmarking, exactly
// as the web client mirrors it into the URL.
type Filter struct {
	Month core.Month
	Tab   Tab
}

// DefaultFilter selects the current month's line history.
func DefaultFilter(now time.Time) Filter {
	return Filter{Month: core.MonthOf(now), Tab: TabList}
}

// ParseFilter reads a filter from query values, falling back to the
// defaults for anything missing or malformed.
func ParseFilter(values url.Values, now time.Time) Filter {
	f := DefaultFilter(now)
	if values == nil {
		return f
	}
	if m, err := core.ParseMonth(values.Get("selectedDate")); err == nil {
		f.Month = m
	}
	if tab, err := strconv.Atoi(values.Get("tab")); err == nil && (tab == int(TabList) || tab == int(TabSettlement)) {
		f.Tab = Tab(tab)
	}
	return f
}

// Query encodes the filter for a URL query string.
func (f Filter) Query() url.Values {
	v := url.Values{}
	v.Set("tab", strconv.Itoa(int(f.Tab)))
	v.Set("selectedDate", f.Month.Start().UTC().Format(time.RFC3339))
	return v
}

// StartDate is the first day of the selected month.
func (f Filter) StartDate() core.Date {
	return f.Month.Start()
}

// EndDate is the last day of the selected month.
func (f Filter) EndDate() core.Date {
	return f.Month.End()
}

func (f Filter) String() string {
	return f.Query().Encode()
}

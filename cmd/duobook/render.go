package main

import (
	"fmt"
	"math"
	"strings"

	"duobook/internal/core"
	"duobook/internal/ledger"
	"duobook/internal/series"
)

func renderLines(lines []core.Line) {
	for _, l := range lines {
		fmt.Printf("%5d  %s  %-24s %12s  %s\n",
			l.ID,
			l.Date.DayString(),
			l.Description,
			core.FormatWon(l.Price),
			l.Creator.Nickname,
		)
	}
}

func renderSettlement(month core.Month, view ledger.SettlementView) {
	fmt.Printf("%s 사용금액\n", month)
	for _, r := range view.Results {
		fmt.Printf("  %-12s %12s\n", r.Nickname, core.FormatWon(r.TotalPrice))
	}
	fmt.Printf("  인당 금액: %s\n", formatWonFloat(view.Average))

	if !view.ShowOwed() {
		return
	}

	fmt.Println()
	fmt.Println("정산할 금액")
	for _, share := range view.Owed {
		fmt.Printf("  %-12s %12s\n", share.Nickname, formatWonFloat(share.Owed))
	}
	for _, t := range view.Transfers {
		fmt.Printf("  %s → %s %s\n", t.FromNickname, t.ToNickname, formatWonFloat(t.Amount))
	}
}

func renderOverview(o ledger.MonthOverview) {
	fmt.Printf("%s 총 사용 금액: %s\n", o.Month, core.FormatWon(o.TotalPrice))
	if chart := sparkline(o.Series); chart != "" {
		fmt.Println(chart)
	}
	if comment := o.Comment(); comment != "" {
		fmt.Println(comment)
	}
}

var sparks = []rune("▁▂▃▄▅▆▇█")

// sparkline draws the daily series over the whole month, one cell per
// day. Days without spending stay blank.
func sparkline(points []series.Point) string {
	if len(points) == 0 {
		return ""
	}

	var max int64
	for _, p := range points {
		if p.Price > max {
			max = p.Price
		}
	}
	if max == 0 {
		return ""
	}

	cells := make([]rune, 31)
	for i := range cells {
		cells[i] = ' '
	}
	for _, p := range points {
		level := int(float64(len(sparks)-1) * float64(p.Price) / float64(max))
		// Refund days can carry negative prices; clamp to the lowest bar.
		if level < 0 {
			level = 0
		}
		if level >= len(sparks) {
			level = len(sparks) - 1
		}
		cells[p.Day-1] = sparks[level]
	}
	return strings.TrimRight(string(cells), " ")
}

// formatWonFloat renders settlement amounts, which are averages and may
// carry a fractional part.
func formatWonFloat(amount float64) string {
	if amount == math.Trunc(amount) {
		return core.FormatWon(int64(amount))
	}
	return fmt.Sprintf("%.1f원", amount)
}

// Package core defines the ledger's domain model: expense lines, pages,
// summaries and the won amount helpers shared by every other package.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseWon converts a user-entered amount into whole won.
//
// Korean won has no fractional unit, so only digits are accepted, with
// optional thousands separators ("12,000" -> 12000). A trailing "원" is
// tolerated. Returns ErrInvalidPrice for empty, signed, fractional or
// non-positive input.
func ParseWon(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "원")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, ErrInvalidPrice
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidPrice
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidPrice
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidPrice
	}
	if v <= 0 {
		return 0, ErrInvalidPrice
	}
	return v, nil
}

// FormatWon renders an amount with thousands separators and the won sign,
// matching how the backend's clients display prices (12000 -> "12,000원").
func FormatWon(v int64) string {
	return groupDigits(v) + "원"
}

func groupDigits(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	if len(s) > 3 {
		var b strings.Builder
		lead := len(s) % 3
		if lead > 0 {
			b.WriteString(s[:lead])
		}
		for i := lead; i < len(s); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}
	if neg {
		return "-" + s
	}
	return s
}

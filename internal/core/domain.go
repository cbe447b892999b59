package core

import (
	"errors"
	"strings"
)

type (
	// Creator identifies the user who recorded a line.
	Creator struct {
		ID       int64  `json:"id"`
		Nickname string `json:"nickname"`
	}

	// Line is a single dated expense entry in the shared ledger.
	// Only the creator may edit or delete it; the backend enforces this
	// and a failed delete must be treated as "not the owner".
	Line struct {
		ID          int64   `json:"id"`
		Date        Date    `json:"date"`
		Description string  `json:"description"`
		Price       int64   `json:"price"`
		Creator     Creator `json:"creator"`
		CreatedAt   Date    `json:"createdAt"`
		UpdatedAt   Date    `json:"updatedAt"`
		DeletedAt   *Date   `json:"deletedAt"`
	}

	// Pagination describes the window a page of lines was fetched with.
	// Page is the 1-based index of the window just fetched; more pages
	// remain iff page*limit < total.
	Pagination struct {
		Total int `json:"total"`
		Page  int `json:"page"`
		Limit int `json:"limit"`
	}

	// Page is one fetched window of the line collection.
	Page struct {
		List       []Line     `json:"list"`
		Pagination Pagination `json:"pagination"`
	}

	// PersonTotal is one person's spending total inside a summary.
	PersonTotal struct {
		ID         int64  `json:"id"`
		Nickname   string `json:"nickname"`
		TotalPrice int64  `json:"totalPrice"`
	}

	// Summary is the grand total plus per-person totals for a date range.
	Summary struct {
		TotalPrice int64         `json:"totalPrice"`
		Results    []PersonTotal `json:"results"`
	}

	// DailyPoint is one day's spending. Days without spending are simply
	// absent from a daily summary, never zero-valued.
	DailyPoint struct {
		Date  Date  `json:"date"`
		Price int64 `json:"price"`
	}

	// User is the authenticated account returned by the backend.
	User struct {
		ID        int64  `json:"id"`
		Email     string `json:"email"`
		Nickname  string `json:"nickname"`
		CreatedAt Date   `json:"createdAt"`
		UpdatedAt Date   `json:"updatedAt"`
		DeletedAt *Date  `json:"deletedAt"`
	}

	// LineInput is the payload for creating or updating a line.
	LineInput struct {
		Date        Date
		Description string
		Price       int64
	}
)

var (
	ErrMissingDate      = errors.New("missing date")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrEmptyDescription = errors.New("empty description")
)

// Validate rejects input client-side so an invalid request is never sent.
func (in LineInput) Validate() error {
	if in.Date.IsZero() {
		return ErrMissingDate
	}
	if len(strings.TrimSpace(in.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(in.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if in.Price <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

// HasMore reports whether pages remain after this window.
func (p Pagination) HasMore() bool {
	return p.Page*p.Limit < p.Total
}

// SumResults adds the per-person totals. The backend's TotalPrice should
// equal this; a mismatch is a data-integrity warning for the caller, not a
// value to silently prefer.
func (s Summary) SumResults() int64 {
	var sum int64
	for _, r := range s.Results {
		sum += r.TotalPrice
	}
	return sum
}

// Consistent reports whether TotalPrice matches the sum of Results.
func (s Summary) Consistent() bool {
	return s.TotalPrice == s.SumResults()
}

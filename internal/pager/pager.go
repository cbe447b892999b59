// Package pager drives incremental loading of the paginated line
// collection: one page at a time, at most one fetch in flight, and a
// fresh start whenever the date-range filter changes.
package pager

import (
	"context"
	"sync"

	"duobook/internal/core"
)

// FetchFunc loads one 1-based page for the currently active filter.
type FetchFunc func(ctx context.Context, page int) (core.Page, error)

// Pager accumulates fetched pages in fetch order. Whole-filter resets bump
// an epoch so a response that raced a reset is discarded instead of
// overwriting newer state.
type Pager struct {
	mu       sync.Mutex
	fetch    FetchFunc
	pages    []core.Page
	next     int // next page to fetch, 0 = exhausted
	inFlight bool
	epoch    uint64
}

// New returns a pager positioned at page 1.
func New(fetch FetchFunc) *Pager {
	return &Pager{fetch: fetch, next: 1}
}

// Reset discards all fetched pages and rearms the pager at page 1 with a
// new fetch function (the new filter). Any fetch still in flight becomes
// stale and its result is dropped.
func (p *Pager) Reset(fetch FetchFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.epoch++
	p.fetch = fetch
	p.pages = nil
	p.next = 1
	p.inFlight = false
}

// FetchNext loads the next page. It is a no-op returning (false, nil) when
// the collection is exhausted or a fetch is already in flight. On failure
// the cursor does not advance, so the same page is retried on the next
// trigger.
func (p *Pager) FetchNext(ctx context.Context) (bool, error) {
	p.mu.Lock()
	if p.inFlight || p.next == 0 {
		p.mu.Unlock()
		return false, nil
	}
	p.inFlight = true
	page := p.next
	epoch := p.epoch
	fetch := p.fetch
	p.mu.Unlock()

	result, err := fetch(ctx, page)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.epoch != epoch {
		// The filter changed while this fetch was in flight. Reset already
		// cleared inFlight for the new epoch; drop the stale result.
		return false, nil
	}
	p.inFlight = false
	if err != nil {
		return false, err
	}

	p.pages = append(p.pages, result)
	if result.Pagination.HasMore() {
		p.next = result.Pagination.Page + 1
	} else {
		p.next = 0
	}
	return true, nil
}

// HasMore reports whether another page can still be fetched.
func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.next != 0
}

// Lines concatenates every fetched page in fetch order.
func (p *Pager) Lines() []core.Line {
	p.mu.Lock()
	defer p.mu.Unlock()
	var lines []core.Line
	for _, page := range p.pages {
		lines = append(lines, page.List...)
	}
	return lines
}

// Total reports the backend's total line count for the active filter, or 0
// before the first page has arrived.
func (p *Pager) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pages) == 0 {
		return 0
	}
	return p.pages[len(p.pages)-1].Pagination.Total
}

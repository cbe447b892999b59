// Package ledger orchestrates the shared-expense ledger: queries flow
// through the query cache and the pager, mutations invalidate every
// derived query and kick background refreshes without blocking the
// caller.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"duobook/internal/api"
	"duobook/internal/core"
	"duobook/internal/pager"
	"duobook/internal/querycache"
	"duobook/internal/settle"
)

// User-visible notifications, matching the web client's copy.
const (
	MsgCreated         = "내역이 추가되었습니다."
	MsgUpdated         = "내역이 수정되었습니다."
	MsgDeleted         = "삭제되었습니다."
	MsgConfirmDelete   = "정말 삭제하시겠습니까?"
	MsgOwnershipDelete = "내가 등록한 내역만 삭제할 수 있습니다."
	MsgMissingDateAdd  = "가계부 이름을 입력하세요."
	MsgMissingDateEdit = "날짜를 선택하세요."
)

// Notifier shows transient feedback to the user. Injected explicitly
// rather than living in ambient global state.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Confirmer asks the user a yes/no question before a destructive action.
type Confirmer interface {
	Confirm(message string) bool
}

// Backend is the slice of the API client the service needs.
type Backend interface {
	Lines(ctx context.Context, q api.LinesQuery) (core.Page, error)
	Line(ctx context.Context, id int64) (core.Line, error)
	CreateLine(ctx context.Context, in core.LineInput) (core.Line, error)
	UpdateLine(ctx context.Context, id int64, in core.LineInput) (core.Line, error)
	DeleteLine(ctx context.Context, id int64) error
	TotalSummary(ctx context.Context, start, end core.Date) (core.Summary, error)
	DailySummary(ctx context.Context, start, end core.Date) ([]core.DailyPoint, error)
}

var _ Backend = (*api.Client)(nil)

// Config tunes the service. Zero values get defaults.
type Config struct {
	PageLimit int
	Parties   int
	CacheSize int
	CacheTTL  time.Duration
}

func (c *Config) applyDefaults() {
	if c.PageLimit <= 0 {
		c.PageLimit = 10
	}
	if c.Parties <= 0 {
		c.Parties = settle.DefaultParties
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 64
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}
}

// Service is the application layer between a front end and the backend.
type Service struct {
	backend Backend
	notify  Notifier
	confirm Confirmer
	cfg     Config
	now     func() time.Time

	summaries *querycache.Cache[core.Summary]
	dailies   *querycache.Cache[[]core.DailyPoint]
	details   *querycache.Cache[core.Line]

	mu     sync.Mutex
	filter Filter
	pager  *pager.Pager

	refreshes sync.WaitGroup
}

// NewService wires the backend, caches and pager behind one service,
// starting on the current month's line history.
func NewService(backend Backend, notify Notifier, confirm Confirmer, cfg Config) *Service {
	cfg.applyDefaults()
	s := &Service{
		backend:   backend,
		notify:    notify,
		confirm:   confirm,
		cfg:       cfg,
		now:       time.Now,
		summaries: querycache.New[core.Summary](cfg.CacheSize, cfg.CacheTTL),
		dailies:   querycache.New[[]core.DailyPoint](cfg.CacheSize, cfg.CacheTTL),
		details:   querycache.New[core.Line](cfg.CacheSize, cfg.CacheTTL),
	}
	s.filter = DefaultFilter(s.now())
	s.pager = pager.New(s.fetchFunc(s.filter))
	return s
}

// RegisterCaches adds the service's caches to a cleanup manager.
func (s *Service) RegisterCaches(m *querycache.Manager) {
	m.Register(s.summaries)
	m.Register(s.dailies)
	m.Register(s.details)
}

// Filter returns the active navigation state.
func (s *Service) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilter switches month/tab. A month change resets the pager: the page
// list is rebuilt from page 1 and any in-flight fetch for the old month is
// discarded. Cached summaries are keyed per month and survive as-is.
func (s *Service) SetFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	monthChanged := f.Month != s.filter.Month
	s.filter = f
	if monthChanged {
		s.pager.Reset(s.fetchFunc(f))
	}
}

func (s *Service) fetchFunc(f Filter) pager.FetchFunc {
	return func(ctx context.Context, page int) (core.Page, error) {
		return s.backend.Lines(ctx, api.LinesQuery{
			Page:      page,
			Limit:     s.cfg.PageLimit,
			StartDate: f.StartDate(),
			EndDate:   f.EndDate(),
		})
	}
}

// FetchMoreLines loads the next page for the active filter. No-op while a
// fetch is in flight or when everything is loaded.
func (s *Service) FetchMoreLines(ctx context.Context) (bool, error) {
	return s.currentPager().FetchNext(ctx)
}

// Lines returns every line fetched so far, in fetch order.
func (s *Service) Lines() []core.Line {
	return s.currentPager().Lines()
}

// HasMoreLines reports whether another page remains.
func (s *Service) HasMoreLines() bool {
	return s.currentPager().HasMore()
}

// TotalLines is the backend's line count for the active filter.
func (s *Service) TotalLines() int {
	return s.currentPager().Total()
}

func (s *Service) currentPager() *pager.Pager {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pager
}

// Summary returns the month's grand total and per-person totals, cached.
func (s *Service) Summary(ctx context.Context) (core.Summary, error) {
	f := s.Filter()
	return s.summaries.GetOrFetch(ctx, summaryKey(f.Month), func(ctx context.Context) (core.Summary, error) {
		return s.backend.TotalSummary(ctx, f.StartDate(), f.EndDate())
	})
}

// Daily returns the daily price points for m, cached.
func (s *Service) Daily(ctx context.Context, m core.Month) ([]core.DailyPoint, error) {
	return s.dailies.GetOrFetch(ctx, dailyKey(m), func(ctx context.Context) ([]core.DailyPoint, error) {
		return s.backend.DailySummary(ctx, m.Start(), m.End())
	})
}

// LineDetail returns one line, cached.
func (s *Service) LineDetail(ctx context.Context, id int64) (core.Line, error) {
	return s.details.GetOrFetch(ctx, detailKey(id), func(ctx context.Context) (core.Line, error) {
		return s.backend.Line(ctx, id)
	})
}

func summaryKey(m core.Month) string { return "summary:" + m.String() }
func dailyKey(m core.Month) string   { return "daily:" + m.String() }
func detailKey(id int64) string      { return fmt.Sprintf("line:%d", id) }

// CreateLine validates locally, records the line and refreshes derived
// queries in the background.
func (s *Service) CreateLine(ctx context.Context, in core.LineInput) error {
	if err := in.Validate(); err != nil {
		s.notify.Error(validationMessage(err, MsgMissingDateAdd))
		return err
	}

	if _, err := s.backend.CreateLine(ctx, in); err != nil {
		s.notify.Error(err.Error())
		return err
	}

	s.notify.Success(MsgCreated)
	s.invalidateAfterMutation(ctx, 0)
	return nil
}

// UpdateLine validates locally, edits the line and refreshes derived
// queries in the background, including the line's cached detail.
func (s *Service) UpdateLine(ctx context.Context, id int64, in core.LineInput) error {
	if err := in.Validate(); err != nil {
		s.notify.Error(validationMessage(err, MsgMissingDateEdit))
		return err
	}

	if _, err := s.backend.UpdateLine(ctx, id, in); err != nil {
		s.notify.Error(err.Error())
		return err
	}

	s.notify.Success(MsgUpdated)
	s.invalidateAfterMutation(ctx, id)
	return nil
}

// DeleteLine asks for confirmation, then deletes. Declining issues no
// request. An ownership refusal keeps the line and tells the user why.
func (s *Service) DeleteLine(ctx context.Context, id int64) error {
	if !s.confirm.Confirm(MsgConfirmDelete) {
		return nil
	}

	if err := s.backend.DeleteLine(ctx, id); err != nil {
		if api.IsOwnership(err) {
			s.notify.Error(MsgOwnershipDelete)
		} else {
			s.notify.Error(err.Error())
		}
		return err
	}

	s.notify.Success(MsgDeleted)
	s.invalidateAfterMutation(ctx, id)
	return nil
}

func validationMessage(err error, missingDate string) string {
	switch err {
	case core.ErrMissingDate:
		return missingDate
	default:
		return err.Error()
	}
}

// invalidateAfterMutation drops every derived query a mutation could have
// staled (the active filter's page list, the total summary and the daily
// summaries), then refetches them in the background. The mutation's
// caller is not kept waiting; refresh completions land in any order.
func (s *Service) invalidateAfterMutation(ctx context.Context, detailID int64) {
	s.summaries.InvalidateAll()
	s.dailies.InvalidateAll()
	if detailID != 0 {
		s.details.Invalidate(detailKey(detailID))
	}

	s.mu.Lock()
	f := s.filter
	s.pager.Reset(s.fetchFunc(f))
	s.mu.Unlock()

	s.refreshes.Add(1)
	go func() {
		defer s.refreshes.Done()

		// Detached from the caller: the mutation already resolved.
		g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
		g.Go(func() error {
			_, err := s.Summary(gctx)
			return err
		})
		g.Go(func() error {
			_, err := s.Daily(gctx, f.Month)
			return err
		})
		g.Go(func() error {
			_, err := s.Daily(gctx, f.Month.Prev())
			return err
		})
		g.Go(func() error {
			_, err := s.FetchMoreLines(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			slog.Warn("Background refresh after mutation failed", "error", err)
		}
	}()
}

// Flush waits for in-flight background refreshes. Front ends call it
// before exiting; it is not part of the mutation path.
func (s *Service) Flush() {
	s.refreshes.Wait()
}

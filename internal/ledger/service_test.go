package ledger

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"duobook/internal/api"
	"duobook/internal/core"
)

type fakeNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *fakeNotifier) Success(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, message)
}

func (n *fakeNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

type fakeConfirmer struct {
	answer bool
	asked  []string
}

func (c *fakeConfirmer) Confirm(message string) bool {
	c.asked = append(c.asked, message)
	return c.answer
}

type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	lines   []core.Line
	summary core.Summary
	daily   map[string][]core.DailyPoint

	deleteErr    error
	blockSummary chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls: make(map[string]int),
		daily: make(map[string][]core.DailyPoint),
	}
}

func (b *fakeBackend) count(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[name]++
}

func (b *fakeBackend) callCount(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

func (b *fakeBackend) Lines(_ context.Context, q api.LinesQuery) (core.Page, error) {
	b.count("lines")
	b.mu.Lock()
	defer b.mu.Unlock()
	start := (q.Page - 1) * q.Limit
	end := start + q.Limit
	if start > len(b.lines) {
		start = len(b.lines)
	}
	if end > len(b.lines) {
		end = len(b.lines)
	}
	return core.Page{
		List:       b.lines[start:end],
		Pagination: core.Pagination{Total: len(b.lines), Page: q.Page, Limit: q.Limit},
	}, nil
}

func (b *fakeBackend) Line(_ context.Context, id int64) (core.Line, error) {
	b.count("line")
	return core.Line{ID: id, Description: "detail", Price: 1000}, nil
}

func (b *fakeBackend) CreateLine(_ context.Context, in core.LineInput) (core.Line, error) {
	b.count("create")
	b.mu.Lock()
	defer b.mu.Unlock()
	line := core.Line{ID: int64(len(b.lines) + 1), Date: in.Date, Description: in.Description, Price: in.Price}
	b.lines = append(b.lines, line)
	return line, nil
}

func (b *fakeBackend) UpdateLine(_ context.Context, id int64, in core.LineInput) (core.Line, error) {
	b.count("update")
	return core.Line{ID: id, Date: in.Date, Description: in.Description, Price: in.Price}, nil
}

func (b *fakeBackend) DeleteLine(_ context.Context, id int64) error {
	b.count("delete")
	return b.deleteErr
}

func (b *fakeBackend) TotalSummary(_ context.Context, start, end core.Date) (core.Summary, error) {
	if b.blockSummary != nil {
		<-b.blockSummary
	}
	b.count("summary")
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.summary, nil
}

func (b *fakeBackend) DailySummary(_ context.Context, start, end core.Date) ([]core.DailyPoint, error) {
	b.count("daily")
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.daily[start.DayString()], nil
}

func newTestService(b *fakeBackend) (*Service, *fakeNotifier, *fakeConfirmer) {
	notify := &fakeNotifier{}
	confirm := &fakeConfirmer{answer: true}
	s := NewService(b, notify, confirm, Config{PageLimit: 10})
	return s, notify, confirm
}

func validInput() core.LineInput {
	return core.LineInput{Date: core.NewDate(2024, 5, 3), Description: "커피", Price: 4500}
}

func TestCreateLineValidationNeverReachesNetwork(t *testing.T) {
	b := newFakeBackend()
	s, notify, _ := newTestService(b)

	in := validInput()
	in.Date = core.Date{}
	err := s.CreateLine(context.Background(), in)
	require.ErrorIs(t, err, core.ErrMissingDate)
	require.Equal(t, []string{MsgMissingDateAdd}, notify.errors)
	require.Zero(t, b.callCount("create"), "invalid input must never be sent")
	s.Flush()
}

func TestUpdateLineValidationMessage(t *testing.T) {
	b := newFakeBackend()
	s, notify, _ := newTestService(b)

	in := validInput()
	in.Date = core.Date{}
	err := s.UpdateLine(context.Background(), 1, in)
	require.ErrorIs(t, err, core.ErrMissingDate)
	require.Equal(t, []string{MsgMissingDateEdit}, notify.errors)
	require.Zero(t, b.callCount("update"))
	s.Flush()
}

func TestCreateLineInvalidatesAndRefreshes(t *testing.T) {
	b := newFakeBackend()
	s, notify, _ := newTestService(b)

	// Prime the caches.
	_, err := s.Summary(context.Background())
	require.NoError(t, err)
	_, err = s.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, b.callCount("summary"), "summary cached between reads")

	require.NoError(t, s.CreateLine(context.Background(), validInput()))
	require.Equal(t, []string{MsgCreated}, notify.successes)

	s.Flush()
	require.Equal(t, 2, b.callCount("summary"), "mutation refetches the summary")
	require.Equal(t, 2, b.callCount("daily"), "current and previous month dailies refetched")
	require.GreaterOrEqual(t, b.callCount("lines"), 1, "page list refetched from page 1")
	require.Len(t, s.Lines(), 1)
}

func TestMutationDoesNotWaitForRefreshes(t *testing.T) {
	b := newFakeBackend()
	b.blockSummary = make(chan struct{})
	s, _, _ := newTestService(b)

	done := make(chan error, 1)
	go func() {
		done <- s.CreateLine(context.Background(), validInput())
	}()

	// The mutation resolves while the summary refetch is still blocked.
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("CreateLine waited for the background refresh")
	}

	close(b.blockSummary)
	s.Flush()
}

func TestDeleteDeclinedIssuesNoRequest(t *testing.T) {
	b := newFakeBackend()
	s, notify, confirm := newTestService(b)
	confirm.answer = false

	require.NoError(t, s.DeleteLine(context.Background(), 1))
	require.Equal(t, []string{MsgConfirmDelete}, confirm.asked)
	require.Zero(t, b.callCount("delete"), "declining must perform no request")
	require.Empty(t, notify.successes)
	s.Flush()
}

func TestDeleteOwnershipKeepsList(t *testing.T) {
	b := newFakeBackend()
	b.lines = []core.Line{
		{ID: 1, Description: "남의 내역", Price: 9000, Creator: core.Creator{ID: 2, Nickname: "B"}},
	}
	b.deleteErr = &api.Error{StatusCode: http.StatusForbidden, Message: "Forbidden"}
	s, notify, _ := newTestService(b)

	_, err := s.FetchMoreLines(context.Background())
	require.NoError(t, err)
	require.Len(t, s.Lines(), 1)

	err = s.DeleteLine(context.Background(), 1)
	require.Error(t, err)
	require.Equal(t, []string{MsgOwnershipDelete}, notify.errors)
	require.Len(t, s.Lines(), 1, "failed delete must not remove the line from the visible list")
	s.Flush()
}

func TestSetFilterResetsPages(t *testing.T) {
	b := newFakeBackend()
	b.lines = []core.Line{{ID: 1, Price: 1000}, {ID: 2, Price: 2000}}
	s, _, _ := newTestService(b)

	_, err := s.FetchMoreLines(context.Background())
	require.NoError(t, err)
	require.Len(t, s.Lines(), 2)

	f := s.Filter()
	f.Month = f.Month.Prev()
	s.SetFilter(f)

	require.Empty(t, s.Lines(), "no partial reuse across filters")
	require.True(t, s.HasMoreLines(), "reset pager starts over at page 1")

	// Tab-only changes keep the fetched pages.
	_, err = s.FetchMoreLines(context.Background())
	require.NoError(t, err)
	f.Tab = TabSettlement
	s.SetFilter(f)
	require.Len(t, s.Lines(), 2)
}

func TestSettlement(t *testing.T) {
	b := newFakeBackend()
	b.summary = core.Summary{
		TotalPrice: 100000,
		Results: []core.PersonTotal{
			{ID: 1, Nickname: "A", TotalPrice: 70000},
			{ID: 2, Nickname: "B", TotalPrice: 30000},
		},
	}
	s, _, _ := newTestService(b)

	view, err := s.Settlement(context.Background())
	require.NoError(t, err)
	require.Equal(t, float64(50000), view.Average)
	require.True(t, view.ShowOwed())
	require.Len(t, view.Owed, 1)
	require.Equal(t, "B", view.Owed[0].Nickname)
	require.Equal(t, float64(20000), view.Owed[0].Owed)
	require.Len(t, view.Transfers, 1)
}

func TestSettlementSuppressedWhenBalanced(t *testing.T) {
	b := newFakeBackend()
	b.summary = core.Summary{
		TotalPrice: 60000,
		Results: []core.PersonTotal{
			{ID: 1, Nickname: "A", TotalPrice: 30000},
			{ID: 2, Nickname: "B", TotalPrice: 30000},
		},
	}
	s, _, _ := newTestService(b)

	view, err := s.Settlement(context.Background())
	require.NoError(t, err)
	require.False(t, view.ShowOwed(), "equal totals suppress the settlement section")
	require.Empty(t, view.Transfers)
}

func TestOverview(t *testing.T) {
	b := newFakeBackend()
	b.summary = core.Summary{TotalPrice: 9000}
	b.daily["2024-05-01"] = []core.DailyPoint{
		{Date: core.NewDate(2024, 5, 1), Price: 1000},
		{Date: core.NewDate(2024, 5, 14), Price: 9000},
		{Date: core.NewDate(2024, 5, 20), Price: 20000},
	}
	b.daily["2024-04-01"] = []core.DailyPoint{
		{Date: core.NewDate(2024, 4, 10), Price: 4000},
		{Date: core.NewDate(2024, 4, 25), Price: 30000},
	}

	s, _, _ := newTestService(b)
	s.now = func() time.Time { return time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC) }
	s.SetFilter(Filter{Month: core.Month{Year: 2024, Month: time.May}})

	o, err := s.Overview(context.Background())
	require.NoError(t, err)
	require.True(t, o.IsCurrentMonth)
	require.Equal(t, int64(9000), o.TotalPrice)

	// Truncated to day 15: current ends at 9000, previous at 4000.
	require.Equal(t, int64(5000), o.Delta)
	require.Equal(t, "지난 달 보다 5,000원 더 쓰는 중", o.Comment())
}

func TestOverviewPastMonthComment(t *testing.T) {
	b := newFakeBackend()
	b.daily["2024-03-01"] = []core.DailyPoint{{Date: core.NewDate(2024, 3, 28), Price: 50000}}
	b.daily["2024-02-01"] = []core.DailyPoint{{Date: core.NewDate(2024, 2, 20), Price: 80000}}

	s, _, _ := newTestService(b)
	s.now = func() time.Time { return time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC) }
	s.SetFilter(Filter{Month: core.Month{Year: 2024, Month: time.March}})

	o, err := s.Overview(context.Background())
	require.NoError(t, err)
	require.False(t, o.IsCurrentMonth)
	require.True(t, o.IsPastMonth)
	require.Equal(t, int64(-30000), o.Delta, "completed months compare full series")
	require.Equal(t, "2월 보다 30,000원 덜 썼어요", o.Comment())
}

func TestOverviewZeroDeltaSuppressesComment(t *testing.T) {
	b := newFakeBackend()
	s, _, _ := newTestService(b)
	s.now = func() time.Time { return time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC) }
	s.SetFilter(Filter{Month: core.Month{Year: 2024, Month: time.May}})

	o, err := s.Overview(context.Background())
	require.NoError(t, err)
	require.Zero(t, o.Delta)
	require.Empty(t, o.Comment())
}

func TestLineDetailCached(t *testing.T) {
	b := newFakeBackend()
	s, _, _ := newTestService(b)

	_, err := s.LineDetail(context.Background(), 5)
	require.NoError(t, err)
	_, err = s.LineDetail(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, 1, b.callCount("line"))

	// Editing the line drops its cached detail.
	require.NoError(t, s.UpdateLine(context.Background(), 5, validInput()))
	s.Flush()
	_, err = s.LineDetail(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, 2, b.callCount("line"))
}

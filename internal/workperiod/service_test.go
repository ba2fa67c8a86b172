package workperiod

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentill/opentill/internal/ledger"
	"github.com/opentill/opentill/internal/reconcile"
	"github.com/opentill/opentill/internal/report"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var testOpen = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

type mockStore struct {
	mu      sync.Mutex
	periods map[uuid.UUID]Period

	getOpenErr error
	appendErr  error
	closeErr   error
}

func newMockStore() *mockStore {
	return &mockStore{periods: make(map[uuid.UUID]Period)}
}

func (m *mockStore) GetOpen(_ context.Context, registerID string) (Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getOpenErr != nil {
		return Period{}, m.getOpenErr
	}
	for _, p := range m.periods {
		if p.RegisterID == registerID && p.Status == StatusOpen {
			return p, nil
		}
	}
	return Period{}, ErrNoOpenPeriod
}

func (m *mockStore) GetByID(_ context.Context, id uuid.UUID) (Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.periods[id]
	if !ok {
		return Period{}, ErrNotFound
	}
	return p, nil
}

func (m *mockStore) GetLastClosed(_ context.Context, registerID string) (Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var last Period
	found := false
	for _, p := range m.periods {
		if p.RegisterID != registerID || p.Status != StatusClosed {
			continue
		}
		if !found || p.ClosedAt.After(*last.ClosedAt) {
			last = p
			found = true
		}
	}
	if !found {
		return Period{}, ErrNotFound
	}
	return last, nil
}

// Append mirrors the partial unique index: at most one OPEN row per register.
func (m *mockStore) Append(_ context.Context, p Period) (Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return Period{}, m.appendErr
	}
	for _, existing := range m.periods {
		if existing.RegisterID == p.RegisterID && existing.Status == StatusOpen {
			return Period{}, ErrAlreadyOpen
		}
	}
	m.periods[p.ID] = p
	return p, nil
}

func (m *mockStore) Close(_ context.Context, rec CloseRecord) (Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closeErr != nil {
		return Period{}, m.closeErr
	}
	p, ok := m.periods[rec.PeriodID]
	if !ok {
		return Period{}, ErrNotFound
	}
	if p.Status == StatusClosed {
		return Period{}, ErrAlreadyClosed
	}
	closedAt := rec.ClosedAt
	p.Status = StatusClosed
	p.ClosedAt = &closedAt
	p.ClosedBy = &rec.UserID
	p.ClosingCash = &rec.ClosingCash
	p.ExpectedCash = &rec.ExpectedCash
	p.Variance = &rec.Variance
	if rec.Notes != "" {
		p.Notes = rec.Notes
	}
	m.periods[rec.PeriodID] = p
	return p, nil
}

func (m *mockStore) ListOpenOlderThan(_ context.Context, cutoff time.Time) ([]Period, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Period
	for _, p := range m.periods {
		if p.Status == StatusOpen && p.OpenedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockEvents struct {
	events  []ledger.Event
	listErr error
}

func (m *mockEvents) ListRange(_ context.Context, registerID string, from, to time.Time) ([]ledger.Event, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []ledger.Event
	for _, ev := range m.events {
		if ev.RegisterID != registerID {
			continue
		}
		if ev.OccurredAt.Before(from) || !ev.OccurredAt.Before(to) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (m *mockEvents) ListUnsettled(ctx context.Context, registerID string, from, to time.Time) ([]ledger.Event, error) {
	events, err := m.ListRange(ctx, registerID, from, to)
	if err != nil {
		return nil, err
	}
	var out []ledger.Event
	for _, ev := range events {
		if ev.Kind == ledger.KindSale && !ev.Settled {
			out = append(out, ev)
		}
	}
	return out, nil
}

type mockReports struct {
	mu       sync.Mutex
	byPeriod map[uuid.UUID]report.ZReport
	seq      map[string]int64
	issueErr error
}

func newMockReports() *mockReports {
	return &mockReports{byPeriod: make(map[uuid.UUID]report.ZReport), seq: make(map[string]int64)}
}

func (m *mockReports) Issue(_ context.Context, z report.ZReport) (report.ZReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.issueErr != nil {
		return report.ZReport{}, m.issueErr
	}
	if _, ok := m.byPeriod[z.PeriodID]; ok {
		return report.ZReport{}, report.ErrZReportExists
	}
	m.seq[z.RegisterID]++
	z.ID = uuid.New()
	z.Sequence = m.seq[z.RegisterID]
	m.byPeriod[z.PeriodID] = z
	return z, nil
}

func (m *mockReports) GetByPeriod(_ context.Context, periodID uuid.UUID) (report.ZReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	z, ok := m.byPeriod[periodID]
	if !ok {
		return report.ZReport{}, report.ErrZReportNotFound
	}
	return z, nil
}

type mockBus struct {
	mu     sync.Mutex
	events []BusEvent
}

func (m *mockBus) Publish(_ context.Context, ev BusEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *mockBus) published() []BusEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]BusEvent(nil), m.events...)
}

type mockQueue struct {
	mu       sync.Mutex
	rebuilds []uuid.UUID
}

func (m *mockQueue) EnqueueZReportRebuild(_ context.Context, periodID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rebuilds = append(m.rebuilds, periodID)
	return nil
}

type fixture struct {
	svc     *Service
	store   *mockStore
	events  *mockEvents
	reports *mockReports
	bus     *mockBus
	queue   *mockQueue
	clock   *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   newMockStore(),
		events:  &mockEvents{},
		reports: newMockReports(),
		bus:     &mockBus{},
		queue:   &mockQueue{},
	}
	now := testOpen
	f.clock = &now
	f.svc = NewService(ServiceParams{
		Store:     f.store,
		Events:    f.events,
		Reports:   f.reports,
		Bus:       f.bus,
		Queue:     f.queue,
		Tolerance: dec("5.00"),
	})
	f.svc.WithNow(func() time.Time { return *f.clock })
	return f
}

func (f *fixture) advance(d time.Duration) { *f.clock = f.clock.Add(d) }

func (f *fixture) addEvent(kind ledger.EventKind, tender ledger.Tender, amount string, offset time.Duration) {
	f.events.events = append(f.events.events, ledger.Event{
		ID:         uuid.New(),
		RegisterID: "REG-01",
		Kind:       kind,
		Tender:     tender,
		Amount:     dec(amount),
		Settled:    true,
		OccurredAt: testOpen.Add(offset),
	})
}

func TestOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	period, err := f.svc.Open(ctx, OpenInput{
		RegisterID:   "REG-01",
		OpeningFloat: dec("5000.00"),
		UserID:       "alice",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusOpen, period.Status)
	assert.Equal(t, "REG-01", period.RegisterID)
	assert.Equal(t, "alice", period.OpenedBy)
	assert.True(t, period.OpeningFloat.Equal(dec("5000.00")))
	assert.Equal(t, testOpen, period.OpenedAt)
	assert.Nil(t, period.ClosedAt)

	published := f.bus.published()
	require.Len(t, published, 1)
	assert.Equal(t, EventPeriodOpened, published[0].Type)
	assert.Equal(t, period.ID, published[0].PeriodID)
}

func TestOpenRejectsSecondOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Open(ctx, OpenInput{RegisterID: "REG-01", OpeningFloat: dec("100"), UserID: "alice"})
	require.NoError(t, err)

	_, err = f.svc.Open(ctx, OpenInput{RegisterID: "REG-01", OpeningFloat: dec("200"), UserID: "bob"})
	assert.ErrorIs(t, err, ErrAlreadyOpen)

	// A different register is unaffected.
	_, err = f.svc.Open(ctx, OpenInput{RegisterID: "REG-02", OpeningFloat: dec("200"), UserID: "bob"})
	assert.NoError(t, err)
}

func TestOpenConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Open(ctx, OpenInput{RegisterID: "REG-01", OpeningFloat: dec("100"), UserID: "alice"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyOpen)
		}
	}
	assert.Equal(t, 1, wins, "exactly one open attempt must win")
}

func TestOpenRejectsNegativeFloat(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Open(context.Background(), OpenInput{
		RegisterID:   "REG-01",
		OpeningFloat: dec("-1.00"),
		UserID:       "alice",
	})
	assert.ErrorIs(t, err, ErrInvalidFloat)
}

func TestCloseBalancedDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	opened, err := f.svc.Open(ctx, OpenInput{RegisterID: "REG-01", OpeningFloat: dec("5000.00"), UserID: "alice"})
	require.NoError(t, err)

	f.addEvent(ledger.KindSale, ledger.TenderCash, "7300.00", 1*time.Hour)
	f.addEvent(ledger.KindSale, ledger.TenderCash, "5000.00", 2*time.Hour)
	f.addEvent(ledger.KindSale, ledger.TenderCard, "2400.00", 3*time.Hour)
	f.addEvent(ledger.KindPayout, ledger.TenderCash, "500.00", 4*time.Hour)

	f.advance(8 * time.Hour)
	result, err := f.svc.Close(ctx, CloseInput{
		RegisterID:  "REG-01",
		CountedCash: dec("16800.00"),
		UserID:      "alice",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusClosed, result.Period.Status)
	assert.True(t, result.Reconciliation.ExpectedCash.Equal(dec("16800.00")))
	assert.True(t, result.Reconciliation.Variance.IsZero())
	assert.Equal(t, reconcile.OutcomeBalanced, result.Classification.Outcome)
	assert.True(t, result.Classification.WithinTolerance)

	require.NotNil(t, result.ZReport)
	assert.Equal(t, int64(1), result.ZReport.Sequence)
	assert.Equal(t, opened.ID, result.ZReport.PeriodID)
	assert.True(t, result.ZReport.Totals.CashSales.Equal(dec("12300.00")))
	assert.True(t, result.ZReport.ExpectedCash.Equal(result.Reconciliation.ExpectedCash),
		"z-report must carry the reconciled figures")

	// Frozen reconciliation figures on the stored period.
	require.NotNil(t, result.Period.Variance)
	assert.True(t, result.Period.Variance.IsZero())

	published := f.bus.published()
	require.Len(t, published, 2)
	assert.Equal(t, EventPeriodClosed, published[1].Type)
}

func TestCloseShortDrawerOutsideTolerance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Open(ctx, OpenInput{RegisterID: "REG-01", OpeningFloat: dec("2000.00"), UserID: "alice"})
	require.NoError(t, err)
	f.addEvent(ledger.KindSale, ledger.TenderCash, "8000.00", time.Hour)

	f.advance(4 * time.Hour)
	result, err := f.svc.Close(ctx, CloseInput{RegisterID: "REG-01", CountedCash: dec("9700.00"), UserID: "alice"})
	require.NoError(t, err)

	assert.True(t, result.Reconciliation.Variance.Equal(dec("-300.00")))
	assert.Equal(t, reconcile.OutcomeShort, result.Classification.Outcome)
	assert.False(t, result.Classification.WithinTolerance)
}

func TestCloseWithoutOpenPeriod(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Close(context.Background(), CloseInput{
		RegisterID:  "REG-01",
		CountedCash: dec("100.00"),
		UserID:      "alice",
	})
	assert.ErrorIs(t, err, ErrNoOpenPeriod)
}

func TestCloseRejectsNegativeCash(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Close(context.Background(), CloseInput{
		RegisterID:  "REG-01",
		CountedCash: dec("-0.01"),
		UserID:      "alice",
	})
	assert.ErrorIs(t, err, ErrInvalidCash)
}

func TestCloseTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Open(ctx, OpenInput{RegisterID: "REG-01", OpeningFloat: dec("100"), UserID: "alice"})
	require.NoError(t, err)

	f.advance(time.Hour)
	_, err = f.svc.Close(ctx, CloseInput{RegisterID: "REG-01", CountedCash: dec("100"), UserID: "alice"})
	require.NoError(t, err)

	_, err = f.svc.Close(ctx, CloseInput{RegisterID: "REG-01", CountedCash: dec("100"), UserID: "alice"})
	assert.ErrorIs(t, err, ErrNoOpenPeriod)
}

func TestCloseExcludesEventsOutsideWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Event from before this period opened must not count toward it.
	f.events.events = append(f.events.events, ledger.Event{
		ID:         uuid.New(),
		RegisterID: "REG-01",
		Kind:       ledger.KindSale,
		Tender:     ledger.TenderCash,
		Amount:     dec("999.00"),
		OccurredAt: testOpen.Add(-time.Hour),
	})

	_, err := f.svc.Open(ctx, OpenInput{RegisterID: "REG-01", OpeningFloat: dec("50.00"), UserID: "alice"})
	require.NoError(t, err)
	f.addEvent(ledger.KindSale, ledger.TenderCash, "10.00", 30*time.Minute)

	f.advance(time.Hour)
	result, err := f.svc.Close(ctx, CloseInput{RegisterID: "REG-01", CountedCash: dec("60.00"), UserID: "alice"})
	require.NoError(t, err)
	assert.True(t, result.Reconciliation.ExpectedCash.Equal(dec("60.00")))
	assert.True(t, result.Reconciliation.Variance.IsZero())
}

func TestCloseSurvivesReportFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	opened, err := f.svc.Open(ctx, OpenInput{RegisterID: "REG-01", OpeningFloat: dec("100"), UserID: "alice"})
	require.NoError(t, err)

	f.reports.issueErr = assert.AnError
	f.advance(time.Hour)
	result, err := f.svc.Close(ctx, CloseInput{RegisterID: "REG-01", CountedCash: dec("100"), UserID: "alice"})

	// The close itself is durable; only the report is pending.
	assert.ErrorIs(t, err, ErrReportPending)
	assert.Equal(t, StatusClosed, result.Period.Status)
	assert.Nil(t, result.ZReport)

	stored, err := f.store.GetByID(ctx, opened.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, stored.Status)

	require.Len(t, f.queue.rebuilds, 1)
	assert.Equal(t, opened.ID, f.queue.rebuilds[0])
}

func TestCloseStoreFailureLeavesPeriodOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Open(ctx, OpenInput{RegisterID: "REG-01", OpeningFloat: dec("100"), UserID: "alice"})
	require.NoError(t, err)

	f.store.closeErr = assert.AnError
	_, err = f.svc.Close(ctx, CloseInput{RegisterID: "REG-01", CountedCash: dec("100"), UserID: "alice"})
	assert.ErrorIs(t, err, assert.AnError)

	f.store.closeErr = nil
	current, err := f.svc.Current(ctx, "REG-01")
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, current.Status)
	assert.Empty(t, f.queue.rebuilds, "no rebuild before the close is durable")
}

func TestXReportRepeatable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Open(ctx, OpenInput{RegisterID: "REG-01", OpeningFloat: dec("500.00"), UserID: "alice"})
	require.NoError(t, err)
	f.addEvent(ledger.KindSale, ledger.TenderCash, "120.00", 10*time.Minute)
	f.addEvent(ledger.KindSale, ledger.TenderCard, "80.00", 20*time.Minute)

	f.advance(time.Hour)
	first, err := f.svc.XReport(ctx, "REG-01", "alice")
	require.NoError(t, err)

	f.advance(time.Minute)
	second, err := f.svc.XReport(ctx, "REG-01", "alice")
	require.NoError(t, err)

	assert.Equal(t, first.Totals, second.Totals)
	assert.True(t, first.ExpectedCash.Equal(second.ExpectedCash))
	assert.True(t, second.GeneratedAt.After(first.GeneratedAt))
	assert.True(t, first.ExpectedCash.Equal(dec("620.00")))
}

func TestXReportWithoutOpenPeriod(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.XReport(context.Background(), "REG-01", "alice")
	assert.ErrorIs(t, err, ErrNoOpenPeriod)
}

func TestExpectedCashPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Open(ctx, OpenInput{RegisterID: "REG-01", OpeningFloat: dec("100.00"), UserID: "alice"})
	require.NoError(t, err)
	f.addEvent(ledger.KindSale, ledger.TenderCash, "40.00", 5*time.Minute)
	f.addEvent(ledger.KindPayout, ledger.TenderCash, "15.00", 10*time.Minute)

	f.advance(time.Hour)
	expected, err := f.svc.ExpectedCash(ctx, "REG-01")
	require.NoError(t, err)
	assert.True(t, expected.Equal(dec("125.00")), "got %s", expected)
}

func TestUnsettled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	opened, err := f.svc.Open(ctx, OpenInput{RegisterID: "REG-01", OpeningFloat: dec("0"), UserID: "alice"})
	require.NoError(t, err)

	f.addEvent(ledger.KindSale, ledger.TenderCash, "10.00", 5*time.Minute)
	f.events.events = append(f.events.events, ledger.Event{
		ID:         uuid.New(),
		RegisterID: "REG-01",
		Kind:       ledger.KindSale,
		Tender:     ledger.TenderCard,
		Amount:     dec("20.00"),
		Settled:    false,
		OccurredAt: testOpen.Add(10 * time.Minute),
	})

	f.advance(time.Hour)
	pending, err := f.svc.Unsettled(ctx, opened.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.False(t, pending[0].Settled)
	assert.True(t, pending[0].Amount.Equal(dec("20.00")))
}

func TestSuggestedFloat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No history: suggest zero.
	suggested, err := f.svc.SuggestedFloat(ctx, "REG-01")
	require.NoError(t, err)
	assert.True(t, suggested.IsZero())

	_, err = f.svc.Open(ctx, OpenInput{RegisterID: "REG-01", OpeningFloat: dec("500.00"), UserID: "alice"})
	require.NoError(t, err)
	f.advance(time.Hour)
	_, err = f.svc.Close(ctx, CloseInput{RegisterID: "REG-01", CountedCash: dec("742.50"), UserID: "alice"})
	require.NoError(t, err)

	suggested, err = f.svc.SuggestedFloat(ctx, "REG-01")
	require.NoError(t, err)
	assert.True(t, suggested.Equal(dec("742.50")), "got %s", suggested)
}

func TestRebuildZReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	opened, err := f.svc.Open(ctx, OpenInput{RegisterID: "REG-01", OpeningFloat: dec("100.00"), UserID: "alice"})
	require.NoError(t, err)
	f.addEvent(ledger.KindSale, ledger.TenderCash, "50.00", 30*time.Minute)

	// Simulate a close whose report generation failed.
	f.reports.issueErr = assert.AnError
	f.advance(2 * time.Hour)
	_, err = f.svc.Close(ctx, CloseInput{RegisterID: "REG-01", CountedCash: dec("150.00"), UserID: "alice"})
	require.ErrorIs(t, err, ErrReportPending)

	// An event recorded after close must not leak into the rebuilt report.
	f.addEvent(ledger.KindSale, ledger.TenderCash, "999.00", 3*time.Hour)

	f.reports.issueErr = nil
	z, err := f.svc.RebuildZReport(ctx, opened.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), z.Sequence)
	assert.True(t, z.Totals.CashSales.Equal(dec("50.00")), "got %s", z.Totals.CashSales)
	assert.True(t, z.ExpectedCash.Equal(dec("150.00")))
	assert.True(t, z.Variance.IsZero())

	// Idempotent: a second rebuild returns the same issued report.
	again, err := f.svc.RebuildZReport(ctx, opened.ID)
	require.NoError(t, err)
	assert.Equal(t, z.ID, again.ID)
	assert.Equal(t, z.Sequence, again.Sequence)
}

func TestRebuildZReportRequiresClosedPeriod(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	opened, err := f.svc.Open(ctx, OpenInput{RegisterID: "REG-01", OpeningFloat: dec("0"), UserID: "alice"})
	require.NoError(t, err)

	_, err = f.svc.RebuildZReport(ctx, opened.ID)
	assert.ErrorIs(t, err, report.ErrPeriodNotClosed)
}

func TestZSequenceIncrementsPerRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Open(ctx, OpenInput{RegisterID: "REG-01", OpeningFloat: dec("0"), UserID: "alice"})
		require.NoError(t, err)
		f.advance(time.Hour)
		result, err := f.svc.Close(ctx, CloseInput{RegisterID: "REG-01", CountedCash: dec("0"), UserID: "alice"})
		require.NoError(t, err)
		require.NotNil(t, result.ZReport)
		assert.Equal(t, int64(i+1), result.ZReport.Sequence)
	}

	// A different register starts its own sequence.
	_, err := f.svc.Open(ctx, OpenInput{RegisterID: "REG-02", OpeningFloat: dec("0"), UserID: "bob"})
	require.NoError(t, err)
	f.advance(time.Hour)
	result, err := f.svc.Close(ctx, CloseInput{RegisterID: "REG-02", CountedCash: dec("0"), UserID: "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.ZReport.Sequence)
}

func TestStaleOpen(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Open(ctx, OpenInput{RegisterID: "REG-01", OpeningFloat: dec("0"), UserID: "alice"})
	require.NoError(t, err)

	f.advance(30 * time.Hour)
	_, err = f.svc.Open(ctx, OpenInput{RegisterID: "REG-02", OpeningFloat: dec("0"), UserID: "bob"})
	require.NoError(t, err)

	stale, err := f.svc.StaleOpen(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "REG-01", stale[0].RegisterID)
}

package tracker

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"polywatch/internal/domain"
)

type scanStep struct {
	cands []domain.MarketCandidate
	err   error
}

type fakeFinder struct {
	steps   []scanStep
	calls   int
	queries []string
}

func (f *fakeFinder) SearchMarkets(ctx context.Context, query string, limit int) ([]domain.MarketCandidate, error) {
	f.queries = append(f.queries, query)
	i := f.calls
	f.calls++
	if i >= len(f.steps) {
		i = len(f.steps) - 1
	}
	return f.steps[i].cands, f.steps[i].err
}

type fakeJournal struct {
	rollovers []domain.RolloverEvent
	samples   []domain.PriceSample
}

func (j *fakeJournal) RecordRollover(ctx context.Context, ev domain.RolloverEvent) error {
	j.rollovers = append(j.rollovers, ev)
	return nil
}

func (j *fakeJournal) RecordSample(ctx context.Context, s domain.PriceSample) error {
	j.samples = append(j.samples, s)
	return nil
}

type fakeBus struct {
	published [][]byte
}

func (b *fakeBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.published = append(b.published, payload)
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

type fakeNotifier struct {
	messages []string
}

func (n *fakeNotifier) Notify(ctx context.Context, event, title, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

func candidate(id, question string) domain.MarketCandidate {
	return domain.MarketCandidate{
		ID:              id,
		Question:        question,
		AcceptingOrders: true,
		YesToken:        "yes-" + id,
		NoToken:         "no-" + id,
	}
}

type loopHarness struct {
	loop     *Loop
	clock    *stubClock
	finder   *fakeFinder
	prices   *stubPrices
	journal  *fakeJournal
	bus      *fakeBus
	notifier *fakeNotifier
	out      *bytes.Buffer
}

func newLoopHarness(t *testing.T, steps []scanStep) *loopHarness {
	t.Helper()
	h := &loopHarness{
		clock:    &stubClock{now: time.Date(2025, 6, 5, 13, 5, 0, 0, time.UTC), loc: time.UTC},
		finder:   &fakeFinder{steps: steps},
		prices:   &stubPrices{midpoint: "0.55", spread: "0.02", book: []byte(`{}`)},
		journal:  &fakeJournal{},
		bus:      &fakeBus{},
		notifier: &fakeNotifier{},
		out:      &bytes.Buffer{},
	}
	display := NewDisplay(h.prices, nil, h.clock, ModeCompact, h.out, testLogger())
	cfg := Config{Query: "Bitcoin Up or Down", SearchLimit: 20, Refresh: time.Second, ScanEvery: 0}
	h.loop = NewLoop(cfg, h.finder, display, h.clock, testLogger())
	h.loop.SetJournal(h.journal)
	h.loop.SetSignalBus(h.bus)
	h.loop.SetNotifier(h.notifier)
	return h
}

func TestTickRescanIsIdempotent(t *testing.T) {
	cands := []domain.MarketCandidate{candidate("mkt-1", "Bitcoin Up or Down 1:00PM-1:15PM ET?")}
	h := newLoopHarness(t, []scanStep{{cands: cands}})

	var tracked []string
	h.loop.OnTrack(func(m domain.TrackedMarket) { tracked = append(tracked, m.ID) })

	state := LoopState{}
	for i := 0; i < 3; i++ {
		state = h.loop.tick(context.Background(), state)
		h.clock.now = h.clock.now.Add(time.Second)
	}

	if state.Tracked == nil || state.Tracked.ID != "mkt-1" {
		t.Fatalf("Tracked = %+v, want mkt-1", state.Tracked)
	}
	if h.finder.calls != 3 {
		t.Errorf("scans = %d, want 3", h.finder.calls)
	}
	if n := strings.Count(h.out.String(), "==> now tracking"); n != 1 {
		t.Errorf("rollover banners = %d, want exactly 1", n)
	}
	if len(h.journal.rollovers) != 1 {
		t.Errorf("journaled rollovers = %d, want 1", len(h.journal.rollovers))
	}
	if len(h.bus.published) != 1 {
		t.Errorf("bus events = %d, want 1", len(h.bus.published))
	}
	if len(tracked) != 1 {
		t.Errorf("onTrack calls = %d, want 1", len(tracked))
	}
	if len(h.journal.samples) != 3 {
		t.Errorf("journaled samples = %d, want one per tick", len(h.journal.samples))
	}
}

func TestTickRollsOverToNewWindow(t *testing.T) {
	first := []domain.MarketCandidate{candidate("mkt-1", "Bitcoin Up or Down 1:00PM-1:15PM ET?")}
	second := []domain.MarketCandidate{candidate("mkt-2", "Bitcoin Up or Down 1:15PM-1:30PM ET?")}
	h := newLoopHarness(t, []scanStep{{cands: first}, {cands: second}})

	var tracked []string
	h.loop.OnTrack(func(m domain.TrackedMarket) { tracked = append(tracked, m.ID) })

	state := h.loop.tick(context.Background(), LoopState{})
	h.clock.now = time.Date(2025, 6, 5, 13, 16, 0, 0, time.UTC)
	state = h.loop.tick(context.Background(), state)

	if state.Tracked == nil || state.Tracked.ID != "mkt-2" {
		t.Fatalf("Tracked = %+v, want mkt-2", state.Tracked)
	}
	if n := strings.Count(h.out.String(), "==> now tracking"); n != 2 {
		t.Errorf("rollover banners = %d, want 2", n)
	}
	if len(h.journal.rollovers) != 2 {
		t.Fatalf("journaled rollovers = %d, want 2", len(h.journal.rollovers))
	}
	if h.journal.rollovers[1].MarketID != "mkt-2" {
		t.Errorf("second rollover market = %s, want mkt-2", h.journal.rollovers[1].MarketID)
	}
	if len(tracked) != 2 || tracked[1] != "mkt-2" {
		t.Errorf("onTrack calls = %v, want [mkt-1 mkt-2]", tracked)
	}
}

func TestTickKeepsMarketWhenScanFails(t *testing.T) {
	cands := []domain.MarketCandidate{candidate("mkt-1", "Bitcoin Up or Down 1:00PM-1:15PM ET?")}
	h := newLoopHarness(t, []scanStep{
		{cands: cands},
		{err: errors.New("502 bad gateway")},
	})

	state := h.loop.tick(context.Background(), LoopState{})
	h.clock.now = h.clock.now.Add(time.Second)
	state = h.loop.tick(context.Background(), state)

	if state.Tracked == nil || state.Tracked.ID != "mkt-1" {
		t.Fatalf("Tracked = %+v, want stale mkt-1 retained", state.Tracked)
	}
	if len(h.journal.samples) != 2 {
		t.Errorf("samples = %d, want render to continue on failed scan", len(h.journal.samples))
	}
	if n := strings.Count(h.out.String(), "==> now tracking"); n != 1 {
		t.Errorf("rollover banners = %d, want 1", n)
	}
}

func TestTickKeepsMarketWhenSelectionEmpty(t *testing.T) {
	cands := []domain.MarketCandidate{candidate("mkt-1", "Bitcoin Up or Down 1:00PM-1:15PM ET?")}
	h := newLoopHarness(t, []scanStep{
		{cands: cands},
		{cands: nil},
	})

	state := h.loop.tick(context.Background(), LoopState{})
	h.clock.now = h.clock.now.Add(time.Second)
	state = h.loop.tick(context.Background(), state)

	if state.Tracked == nil || state.Tracked.ID != "mkt-1" {
		t.Fatalf("Tracked = %+v, want mkt-1 retained on empty scan", state.Tracked)
	}
}

func TestTickIdlesWithNothingToTrack(t *testing.T) {
	h := newLoopHarness(t, []scanStep{{err: errors.New("503 unavailable")}})

	state := h.loop.tick(context.Background(), LoopState{})
	if state.Tracked != nil {
		t.Fatalf("Tracked = %+v, want nil", state.Tracked)
	}
	if !strings.Contains(h.out.String(), "waiting for an active market") {
		t.Errorf("idle indicator missing: %q", h.out.String())
	}
	if len(h.journal.rollovers) != 0 || len(h.journal.samples) != 0 {
		t.Error("journal written while idle")
	}
}

func TestTickSameIDRefreshesDiffOnly(t *testing.T) {
	cands := []domain.MarketCandidate{candidate("mkt-1", "Bitcoin Up or Down 1:00PM-1:15PM ET?")}
	h := newLoopHarness(t, []scanStep{{cands: cands}})
	h.clock.now = time.Date(2025, 6, 5, 12, 58, 0, 0, time.UTC)

	state := h.loop.tick(context.Background(), LoopState{})
	if state.Tracked == nil || state.Tracked.DiffMinutes != 2 {
		t.Fatalf("Tracked = %+v, want upcoming diff 2", state.Tracked)
	}

	h.clock.now = time.Date(2025, 6, 5, 13, 5, 0, 0, time.UTC)
	state = h.loop.tick(context.Background(), state)
	if state.Tracked.DiffMinutes != -5 {
		t.Errorf("DiffMinutes = %d, want refreshed -5", state.Tracked.DiffMinutes)
	}
	if len(h.journal.rollovers) != 1 {
		t.Errorf("rollovers = %d, want 1 across same-market rescans", len(h.journal.rollovers))
	}
}

func TestTickSkipsJournalForStaleRender(t *testing.T) {
	cands := []domain.MarketCandidate{candidate("mkt-1", "Bitcoin Up or Down 1:00PM-1:15PM ET?")}
	h := newLoopHarness(t, []scanStep{{cands: cands}})
	h.prices.midpointErr = errors.New("dial tcp: timeout")

	state := h.loop.tick(context.Background(), LoopState{})
	if state.Tracked == nil {
		t.Fatal("market should be tracked even when render fails")
	}
	if len(h.journal.samples) != 0 {
		t.Errorf("samples = %d, want none when no live price", len(h.journal.samples))
	}
	if len(h.journal.rollovers) != 1 {
		t.Errorf("rollovers = %d, want 1", len(h.journal.rollovers))
	}
}

func TestScanQueryCarriesReferenceDate(t *testing.T) {
	cands := []domain.MarketCandidate{candidate("mkt-1", "Bitcoin Up or Down 1:00PM-1:15PM ET?")}
	h := newLoopHarness(t, []scanStep{{cands: cands}})

	h.loop.tick(context.Background(), LoopState{})
	if len(h.finder.queries) != 1 {
		t.Fatalf("queries = %d, want 1", len(h.finder.queries))
	}
	if h.finder.queries[0] != "Bitcoin Up or Down June 5" {
		t.Errorf("query = %q, want date-scoped query", h.finder.queries[0])
	}
}

func TestRunOnce(t *testing.T) {
	cands := []domain.MarketCandidate{candidate("mkt-1", "Bitcoin Up or Down 1:00PM-1:15PM ET?")}
	h := newLoopHarness(t, []scanStep{{cands: cands}})
	if err := h.loop.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if !strings.Contains(h.out.String(), "==> now tracking: ") {
		t.Errorf("banner missing: %q", h.out.String())
	}

	empty := newLoopHarness(t, []scanStep{{cands: nil}})
	if err := empty.loop.RunOnce(context.Background()); !errors.Is(err, domain.ErrNoSelection) {
		t.Errorf("RunOnce on empty scan = %v, want ErrNoSelection", err)
	}
}

package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"polywatch/internal/domain"
	"polywatch/internal/window"
)

// rolloverChannel is the signal-bus channel rollover events are published on.
const rolloverChannel = "polywatch:tracking"

// Notifier delivers rollover notifications out of process. Satisfied by
// notify.Notifier.
type Notifier interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Config holds the loop's operator-facing options.
type Config struct {
	// Query is the free-text search for the market family, e.g.
	// "Bitcoin Up or Down". The reference-zone date is appended per scan.
	Query string

	// SearchLimit caps candidates fetched per scan.
	SearchLimit int

	// Refresh is the tick period for price/display refresh.
	Refresh time.Duration

	// ScanEvery is the minimum period between market-discovery re-scans.
	// Expected to be coarser than Refresh.
	ScanEvery time.Duration
}

// LoopState is the whole state of the tracking loop, threaded explicitly
// through each tick. Tracked is nil while idle. It is never persisted.
type LoopState struct {
	Tracked  *domain.TrackedMarket
	LastScan time.Time
}

// Loop is the polling state machine. Each tick it decides whether to re-scan
// for the live market window, detects rollover to a new window, and feeds the
// selected market to the display.
type Loop struct {
	cfg     Config
	finder  domain.MarketFinder
	display *Display
	clock   domain.Clock
	logger  *slog.Logger

	// Optional collaborators; nil disables the concern.
	journal  domain.JournalStore
	bus      domain.SignalBus
	notifier Notifier
	onTrack  func(domain.TrackedMarket)
}

// NewLoop creates a tracking loop. finder, display and clock are required.
func NewLoop(cfg Config, finder domain.MarketFinder, display *Display, clock domain.Clock, logger *slog.Logger) *Loop {
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 20
	}
	return &Loop{
		cfg:     cfg,
		finder:  finder,
		display: display,
		clock:   clock,
		logger:  logger.With(slog.String("component", "tracking_loop")),
	}
}

// SetJournal wires the optional tracking journal.
func (l *Loop) SetJournal(j domain.JournalStore) { l.journal = j }

// SetSignalBus wires the optional rollover event bus.
func (l *Loop) SetSignalBus(b domain.SignalBus) { l.bus = b }

// SetNotifier wires the optional out-of-process notifier.
func (l *Loop) SetNotifier(n Notifier) { l.notifier = n }

// OnTrack registers a hook invoked on every rollover, after the new market is
// installed. Used to retarget the live book feed.
func (l *Loop) OnTrack(fn func(domain.TrackedMarket)) { l.onTrack = fn }

// Run drives the loop at the configured refresh period until ctx is
// cancelled. The closing message is emitted unconditionally on exit.
func (l *Loop) Run(ctx context.Context) error {
	defer l.display.Closing()

	l.logger.InfoContext(ctx, "tracking loop started",
		slog.String("query", l.cfg.Query),
		slog.Duration("refresh", l.cfg.Refresh),
		slog.Duration("scan_every", l.cfg.ScanEvery),
	)

	ticker := time.NewTicker(l.cfg.Refresh)
	defer ticker.Stop()

	// First tick runs immediately rather than one period in.
	state := l.tick(ctx, LoopState{})
	for {
		select {
		case <-ctx.Done():
			l.logger.InfoContext(ctx, "tracking loop stopped")
			return ctx.Err()
		case <-ticker.C:
			state = l.tick(ctx, state)
		}
	}
}

// RunOnce performs a single scan-and-select cycle and renders the result.
// Used by the once mode.
func (l *Loop) RunOnce(ctx context.Context) error {
	state := l.tick(ctx, LoopState{})
	if state.Tracked == nil {
		return domain.ErrNoSelection
	}
	return nil
}

// tick is one iteration of the loop: scan if due, then render. The scan
// always completes before the display fetch so the render reflects this
// tick's selection decision.
func (l *Loop) tick(ctx context.Context, state LoopState) LoopState {
	now := l.clock.Now()

	if state.Tracked == nil || now.Sub(state.LastScan) >= l.cfg.ScanEvery {
		state = l.scan(ctx, state, now)
	}

	if state.Tracked == nil {
		l.display.Waiting()
		return state
	}

	snap, err := l.display.Render(ctx, *state.Tracked)
	if err != nil {
		l.logger.WarnContext(ctx, "render failed, skipping tick",
			slog.String("market_id", state.Tracked.ID),
			slog.String("error", err.Error()),
		)
		return state
	}
	l.recordSample(ctx, *state.Tracked, snap)
	return state
}

// scan searches today's candidates, selects the live window, and applies the
// result to the state. A failed or empty scan keeps the previously tracked
// market (last-known-good retention).
func (l *Loop) scan(ctx context.Context, state LoopState, now time.Time) LoopState {
	state.LastScan = now

	query := fmt.Sprintf("%s %s", l.cfg.Query, domain.ReferenceDate(l.clock, now))
	cands, err := l.finder.SearchMarkets(ctx, query, l.cfg.SearchLimit)
	if err != nil {
		l.logger.WarnContext(ctx, "market scan failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return state
	}

	scored := window.ScoreCandidates(cands, domain.MinuteOfDay(l.clock, now))
	selected, ok := window.Select(scored)
	if !ok {
		if state.Tracked != nil {
			l.logger.DebugContext(ctx, "scan found no candidates, keeping tracked market",
				slog.String("market_id", state.Tracked.ID),
			)
		}
		return state
	}

	if state.Tracked != nil && state.Tracked.ID == selected.ID {
		// Same window: refresh the distance only, leave display state alone.
		state.Tracked.DiffMinutes = selected.DiffMinutes
		return state
	}

	state.Tracked = &selected
	l.announce(ctx, selected, now)
	return state
}

// announce emits the single "now tracking" transition: banner, log line,
// notifier, journal entry, and bus event.
func (l *Loop) announce(ctx context.Context, m domain.TrackedMarket, now time.Time) {
	l.display.Announce(m)
	l.logger.InfoContext(ctx, "now tracking",
		slog.String("market_id", m.ID),
		slog.String("question", m.Question),
		slog.Int("diff_minutes", m.DiffMinutes),
	)

	if l.onTrack != nil {
		l.onTrack(m)
	}

	if l.notifier != nil {
		msg := m.Question
		if m.DiffMinutes > 0 {
			msg = fmt.Sprintf("%s (starts in %d minutes)", m.Question, m.DiffMinutes)
		}
		if err := l.notifier.Notify(ctx, "tracking", "Now tracking", msg); err != nil {
			l.logger.WarnContext(ctx, "rollover notification failed",
				slog.String("error", err.Error()),
			)
		}
	}

	if l.journal != nil {
		ev := domain.RolloverEvent{
			ID:          uuid.NewString(),
			MarketID:    m.ID,
			Question:    m.Question,
			DiffMinutes: m.DiffMinutes,
			At:          now,
		}
		if err := l.journal.RecordRollover(ctx, ev); err != nil {
			l.logger.WarnContext(ctx, "journal rollover write failed",
				slog.String("error", err.Error()),
			)
		}
	}

	if l.bus != nil {
		payload, _ := json.Marshal(map[string]any{
			"event":        "now_tracking",
			"event_id":     uuid.NewString(),
			"market_id":    m.ID,
			"question":     m.Question,
			"diff_minutes": m.DiffMinutes,
			"at":           now.UTC().Format(time.RFC3339),
		})
		if err := l.bus.Publish(ctx, rolloverChannel, payload); err != nil {
			l.logger.WarnContext(ctx, "bus publish failed",
				slog.String("error", err.Error()),
			)
		}
	}
}

// recordSample journals the rendered snapshot when the journal is wired and
// the value was live.
func (l *Loop) recordSample(ctx context.Context, m domain.TrackedMarket, snap domain.PriceSnapshot) {
	if l.journal == nil || snap.Stale {
		return
	}
	s := domain.PriceSample{
		ID:       uuid.NewString(),
		MarketID: m.ID,
		Token:    snap.Token,
		Midpoint: snap.Midpoint,
		Spread:   snap.Spread,
		At:       snap.Time,
	}
	if err := l.journal.RecordSample(ctx, s); err != nil {
		l.logger.DebugContext(ctx, "journal sample write failed",
			slog.String("error", err.Error()),
		)
	}
}

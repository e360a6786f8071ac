// Package tracker contains the polling state machine that follows the live
// market window and the display adapter that renders its price data.
package tracker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"polywatch/internal/domain"
)

// Mode selects the rendering style for each tick.
type Mode string

const (
	ModeFull    Mode = "full"
	ModeCompact Mode = "compact"
	ModeJSON    Mode = "json"
)

// Favor buckets a midpoint probability into the side it leans toward.
type Favor string

const (
	FavorYes  Favor = "YES"
	FavorNo   Favor = "NO"
	FavorEven Favor = "EVEN"
)

// Stance classifies a midpoint: above 0.52 favors yes, below 0.48 favors no,
// anything between is neutral.
func Stance(mid float64) Favor {
	switch {
	case mid > 0.52:
		return FavorYes
	case mid < 0.48:
		return FavorNo
	default:
		return FavorEven
	}
}

// decimalPattern extracts the first decimal number from a label-prefixed
// collaborator payload, e.g. "mid: 0.52".
var decimalPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParseDecimal leniently extracts a decimal value from text. A payload with
// no parseable number yields fallback; parse failures never propagate.
func ParseDecimal(text string, fallback float64) float64 {
	match := decimalPattern.FindString(text)
	if match == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return fallback
	}
	return v
}

// Display fetches live price data for the tracked market's yes token and
// renders it in one of three modes. When the live fetch fails and a price
// cache is wired, the last known good value is rendered instead, marked
// stale.
type Display struct {
	prices domain.PriceSource
	cache  domain.PriceCache // optional
	clock  domain.Clock
	mode   Mode
	out    io.Writer
	logger *slog.Logger
}

// NewDisplay creates a Display writing to out. cache may be nil.
func NewDisplay(prices domain.PriceSource, cache domain.PriceCache, clock domain.Clock, mode Mode, out io.Writer, logger *slog.Logger) *Display {
	return &Display{
		prices: prices,
		cache:  cache,
		clock:  clock,
		mode:   mode,
		out:    out,
		logger: logger.With(slog.String("component", "display")),
	}
}

// Render fetches and renders one tick of live data for the tracked market.
// It returns the snapshot it rendered; the error is non-nil only when
// nothing could be rendered at all (no live data and no cached value).
func (d *Display) Render(ctx context.Context, m domain.TrackedMarket) (domain.PriceSnapshot, error) {
	now := d.clock.Now()
	snap := domain.PriceSnapshot{Token: m.YesToken, Time: now}

	midText, err := d.prices.Midpoint(ctx, m.YesToken)
	if err != nil {
		cached, ts, cacheErr := d.cachedPrice(ctx, m.YesToken)
		if cacheErr != nil {
			return snap, fmt.Errorf("display: midpoint %s: %w", m.YesToken, err)
		}
		d.logger.WarnContext(ctx, "live midpoint fetch failed, using cached value",
			slog.String("token", m.YesToken),
			slog.String("error", err.Error()),
		)
		snap.Midpoint = cached
		snap.Stale = true
		snap.Time = ts
	} else {
		snap.Midpoint = ParseDecimal(midText, 0.5)
	}

	if !snap.Stale {
		if spreadText, err := d.prices.Spread(ctx, m.YesToken); err != nil {
			d.logger.WarnContext(ctx, "spread fetch failed",
				slog.String("token", m.YesToken),
				slog.String("error", err.Error()),
			)
		} else {
			snap.Spread = ParseDecimal(spreadText, 0)
		}

		if d.cache != nil {
			if err := d.cache.SetPrice(ctx, m.YesToken, snap.Midpoint, now); err != nil {
				d.logger.DebugContext(ctx, "price cache write failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}

	switch d.mode {
	case ModeJSON:
		d.renderJSON(ctx, m)
	case ModeCompact:
		d.renderCompact(m, snap)
	default:
		d.renderFull(ctx, m, snap)
	}

	return snap, nil
}

// Waiting prints the idle indicator shown when no market is selected.
func (d *Display) Waiting() {
	fmt.Fprintln(d.out, "... waiting for an active market")
}

// Announce prints the rollover banner for a newly tracked market.
func (d *Display) Announce(m domain.TrackedMarket) {
	fmt.Fprintf(d.out, "==> now tracking: %s\n", m.Question)
	if m.DiffMinutes > 0 {
		fmt.Fprintf(d.out, "    starts in %d minutes\n", m.DiffMinutes)
	}
}

// Closing prints the final status line when the loop exits.
func (d *Display) Closing() {
	fmt.Fprintln(d.out, "tracking stopped")
}

// renderJSON passes the raw order-book payload through unmodified.
func (d *Display) renderJSON(ctx context.Context, m domain.TrackedMarket) {
	book, err := d.prices.Book(ctx, m.YesToken)
	if err != nil {
		d.logger.WarnContext(ctx, "book fetch failed",
			slog.String("token", m.YesToken),
			slog.String("error", err.Error()),
		)
		return
	}
	fmt.Fprintln(d.out, string(book))
}

// renderCompact prints the tick as a single line.
func (d *Display) renderCompact(m domain.TrackedMarket, snap domain.PriceSnapshot) {
	clock := d.clock.Now().In(d.clock.Location()).Format("15:04:05")
	fmt.Fprintf(d.out, "%s ET | %s | mid %.1f%% (%s) | spread %.3f%s\n",
		clock, m.Question, snap.Midpoint*100, Stance(snap.Midpoint), snap.Spread, staleTag(snap))
}

// renderFull prints the multi-line panel with both clocks and book depth.
func (d *Display) renderFull(ctx context.Context, m domain.TrackedMarket, snap domain.PriceSnapshot) {
	now := d.clock.Now()
	fmt.Fprintf(d.out, "--- %s\n", m.Question)
	fmt.Fprintf(d.out, "    local %s | ET %s\n",
		now.Local().Format("15:04:05"),
		now.In(d.clock.Location()).Format("15:04:05"))
	fmt.Fprintf(d.out, "    mid %.1f%% (%s)   spread %.3f%s\n",
		snap.Midpoint*100, Stance(snap.Midpoint), snap.Spread, staleTag(snap))

	if snap.Stale {
		return
	}
	book, err := d.prices.Book(ctx, m.YesToken)
	if err != nil {
		d.logger.WarnContext(ctx, "book fetch failed",
			slog.String("token", m.YesToken),
			slog.String("error", err.Error()),
		)
		return
	}
	fmt.Fprintf(d.out, "    book %s\n", string(book))
}

func staleTag(snap domain.PriceSnapshot) string {
	if !snap.Stale {
		return ""
	}
	return " [stale " + snap.Time.Format("15:04:05") + "]"
}

// cachedPrice reads the last known good price; ErrNotFound when the cache is
// not wired or has no entry.
func (d *Display) cachedPrice(ctx context.Context, token string) (float64, time.Time, error) {
	if d.cache == nil {
		return 0, time.Time{}, domain.ErrNotFound
	}
	return d.cache.GetPrice(ctx, token)
}

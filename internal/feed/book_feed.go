// Package feed streams live order-book data for the tracked market's tokens
// and keeps the price cache warm, so the display has a recent fallback when
// the REST midpoint fetch fails.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"polywatch/internal/domain"
	"polywatch/internal/platform/polymarket"
)

// reconnectDelay is the pause between reconnect attempts.
const reconnectDelay = 2 * time.Second

// BookFeed maintains a WebSocket subscription to the market channel for the
// currently tracked asset IDs. On every book snapshot it writes the mid price
// into the cache. The tracking loop retargets the feed via SetAssets on each
// rollover; the feed never touches loop state.
type BookFeed struct {
	wsURL  string
	cache  domain.PriceCache
	clock  domain.Clock
	logger *slog.Logger

	mu     sync.Mutex
	assets []string
	retune chan struct{}
}

// NewBookFeed creates a feed writing into cache. It starts with no assets;
// nothing is streamed until SetAssets is called.
func NewBookFeed(wsURL string, cache domain.PriceCache, clock domain.Clock, logger *slog.Logger) *BookFeed {
	return &BookFeed{
		wsURL:  wsURL,
		cache:  cache,
		clock:  clock,
		logger: logger.With(slog.String("component", "book_feed")),
		retune: make(chan struct{}, 1),
	}
}

// SetAssets replaces the subscribed asset IDs. Safe to call from the loop's
// rollover path while Run is active.
func (f *BookFeed) SetAssets(assetIDs []string) {
	f.mu.Lock()
	f.assets = append([]string(nil), assetIDs...)
	f.mu.Unlock()

	select {
	case f.retune <- struct{}{}:
	default:
	}
}

func (f *BookFeed) currentAssets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.assets...)
}

// Run connects and streams until ctx is cancelled, reconnecting on drop.
// While no assets are set it stays idle without holding a connection.
func (f *BookFeed) Run(ctx context.Context) error {
	for {
		if len(f.currentAssets()) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-f.retune:
				continue
			}
		}

		err := f.runConnection(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("book feed disconnected, reconnecting",
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

// runConnection holds one WebSocket connection, resubscribing in place when
// the asset set changes. Returns when the connection drops or ctx ends.
func (f *BookFeed) runConnection(ctx context.Context) error {
	client := polymarket.NewWSClient(f.wsURL, f.handleBook, f.handlePriceChange)
	defer client.Close()

	if err := client.Connect(ctx); err != nil {
		return err
	}
	assets := f.currentAssets()
	if err := client.Subscribe(assets); err != nil {
		return err
	}
	f.logger.Info("book feed subscribed", slog.Int("assets", len(assets)))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-client.Done():
			return domain.ErrWSDisconnect
		case <-f.retune:
			assets = f.currentAssets()
			if err := client.Subscribe(assets); err != nil {
				return err
			}
			f.logger.Info("book feed retargeted", slog.Int("assets", len(assets)))
		}
	}
}

// handleBook caches the snapshot's mid price as the token's last known good
// value.
func (f *BookFeed) handleBook(snap domain.OrderbookSnapshot) {
	if snap.MidPrice <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.cache.SetPrice(ctx, snap.AssetID, snap.MidPrice, f.clock.Now()); err != nil {
		f.logger.Debug("cache write from book feed failed",
			slog.String("asset", snap.AssetID),
			slog.String("error", err.Error()),
		)
	}
}

func (f *BookFeed) handlePriceChange(change domain.PriceChange) {
	f.logger.Debug("price change",
		slog.String("asset", change.AssetID),
		slog.String("side", change.Side),
		slog.Float64("price", change.Price),
	)
}

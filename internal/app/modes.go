package app

import (
	"context"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"polywatch/internal/domain"
	"polywatch/internal/tracker"
)

// buildLoop assembles the tracking loop with whatever optional collaborators
// were wired.
func (a *App) buildLoop(deps *Dependencies) *tracker.Loop {
	display := tracker.NewDisplay(
		deps.Prices,
		deps.PriceCache,
		deps.Clock,
		tracker.Mode(strings.ToLower(a.cfg.Tracker.Display)),
		os.Stdout,
		a.logger,
	)

	loop := tracker.NewLoop(tracker.Config{
		Query:       a.cfg.Tracker.Query,
		SearchLimit: a.cfg.Tracker.SearchLimit,
		Refresh:     a.cfg.Tracker.Refresh.Duration,
		ScanEvery:   a.cfg.Tracker.ScanEvery.Duration,
	}, deps.Finder, display, deps.Clock, a.logger)

	loop.SetNotifier(deps.Notifier)
	if deps.Journal != nil {
		loop.SetJournal(deps.Journal)
	}
	if deps.SignalBus != nil {
		loop.SetSignalBus(deps.SignalBus)
	}
	if deps.BookFeed != nil {
		loop.OnTrack(func(m domain.TrackedMarket) {
			deps.BookFeed.SetAssets([]string{m.YesToken, m.NoToken})
		})
	}
	return loop
}

// WatchMode runs the tracking loop, and the live book feed when enabled,
// until the context is cancelled.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	loop := a.buildLoop(deps)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(ctx) })
	if deps.BookFeed != nil {
		g.Go(func() error { return deps.BookFeed.Run(ctx) })
	}
	return g.Wait()
}

// OnceMode performs a single scan-select-render cycle and exits. It returns
// domain.ErrNoSelection when no active market exists.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	return a.buildLoop(deps).RunOnce(ctx)
}

package domain

import (
	"context"
	"time"
)

// RolloverEvent records one "now tracking" transition of the loop.
type RolloverEvent struct {
	ID          string
	MarketID    string
	Question    string
	DiffMinutes int
	At          time.Time
}

// PriceSample is one per-tick observation of the tracked market's yes token.
type PriceSample struct {
	ID       string
	MarketID string
	Token    string
	Midpoint float64
	Spread   float64
	At       time.Time
}

// JournalStore persists tracking observability data. The journal is an
// append-only record for later analysis; the loop never reads it back and
// never restores state from it.
type JournalStore interface {
	RecordRollover(ctx context.Context, ev RolloverEvent) error
	RecordSample(ctx context.Context, s PriceSample) error
}

package domain

import (
	"context"
	"time"
)

// PriceCache stores the last observed price per token so the display can fall
// back to a last-known-good value when a live fetch fails.
type PriceCache interface {
	SetPrice(ctx context.Context, token string, price float64, ts time.Time) error
	GetPrice(ctx context.Context, token string) (float64, time.Time, error)
}

// SignalBus publishes tracking events for other processes to consume.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

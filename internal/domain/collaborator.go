package domain

import "context"

// MarketFinder is the market-discovery collaborator. Search returns raw
// candidates for a free-text query; entries the backend could not decode are
// dropped per item, never failing the whole batch.
type MarketFinder interface {
	SearchMarkets(ctx context.Context, query string, limit int) ([]MarketCandidate, error)
}

// PriceSource is the live price/book collaborator for a single token.
// Midpoint and Spread return the raw text payload (a decimal, possibly
// label-prefixed); Book returns the opaque order-book payload.
type PriceSource interface {
	Midpoint(ctx context.Context, token string) (string, error)
	Spread(ctx context.Context, token string) (string, error)
	Book(ctx context.Context, token string) ([]byte, error)
}

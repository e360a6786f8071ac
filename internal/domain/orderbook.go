package domain

import "time"

// PriceLevel is a single price+size entry in an order book.
type PriceLevel struct {
	Price float64
	Size  float64
}

// OrderbookSnapshot is a full snapshot of bids and asks for a token, as
// delivered by the live book feed.
type OrderbookSnapshot struct {
	AssetID   string
	Bids      []PriceLevel
	Asks      []PriceLevel
	BestBid   float64
	BestAsk   float64
	MidPrice  float64
	Timestamp time.Time
}

// PriceChange is an incremental book level update from the live feed.
type PriceChange struct {
	AssetID   string
	Side      string // "BUY" or "SELL"
	Price     float64
	Size      float64 // 0 removes the level
	Timestamp time.Time
}

// PriceSnapshot bundles the display-relevant numbers observed in one tick.
type PriceSnapshot struct {
	Token    string
	Midpoint float64
	Spread   float64
	Stale    bool // value came from the cache, not a live fetch
	Time     time.Time
}

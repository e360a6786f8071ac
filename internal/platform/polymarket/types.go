package polymarket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"polywatch/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "acceptingOrders" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIMarket is a market summary as returned by the Gamma search endpoint.
// Only the fields the tracker needs are decoded.
type APIMarket struct {
	ID              string   `json:"id"`
	Question        string   `json:"question"`
	AcceptingOrders flexBool `json:"acceptingOrders"`
	ClobTokenIDs    string   `json:"clobTokenIds"` // JSON-encoded: "[\"yes\",\"no\"]"
}

// ToCandidate validates the DTO into a domain.MarketCandidate. Entries with
// a missing ID or a clobTokenIds field that is not a two-element JSON array
// are rejected so the caller can quarantine them individually.
func (m *APIMarket) ToCandidate() (domain.MarketCandidate, error) {
	if m.ID == "" {
		return domain.MarketCandidate{}, fmt.Errorf("market has no id")
	}

	var tokens []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &tokens); err != nil {
		return domain.MarketCandidate{}, fmt.Errorf("market %s: decode clobTokenIds: %w", m.ID, err)
	}
	if len(tokens) != 2 {
		return domain.MarketCandidate{}, fmt.Errorf("market %s: expected 2 clob tokens, got %d", m.ID, len(tokens))
	}

	return domain.MarketCandidate{
		ID:              m.ID,
		Question:        m.Question,
		AcceptingOrders: bool(m.AcceptingOrders),
		YesToken:        tokens[0],
		NoToken:         tokens[1],
	}, nil
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIMidpoint is the response of GET /midpoint.
type APIMidpoint struct {
	Mid string `json:"mid"`
}

// APISpread is the response of GET /spread.
type APISpread struct {
	Spread string `json:"spread"`
}

// --------------------------------------------------------------------------
// WebSocket DTOs
// --------------------------------------------------------------------------

// WSCommand is the JSON payload sent to the market channel to subscribe.
type WSCommand struct {
	Type    string   `json:"type"` // "subscribe" or "unsubscribe"
	Channel string   `json:"channel,omitempty"`
	Assets  []string `json:"assets_ids,omitempty"`
}

// BookMessage is a full orderbook snapshot delivered over WebSocket.
type BookMessage struct {
	AssetID   string         `json:"asset_id"`
	Market    string         `json:"market"`
	Bids      []WSPriceLevel `json:"bids"`
	Asks      []WSPriceLevel `json:"asks"`
	Timestamp string         `json:"timestamp"`
}

// WSPriceLevel is a single bid/ask level in the WebSocket book data.
type WSPriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// PriceChangeMessage is an incremental orderbook price-level update.
type PriceChangeMessage struct {
	AssetID   string `json:"asset_id"`
	Side      string `json:"side"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Timestamp string `json:"timestamp"`
}

// BookToSnapshot converts a BookMessage to a domain.OrderbookSnapshot,
// computing best bid/ask and midpoint from the levels.
func BookToSnapshot(b *BookMessage) domain.OrderbookSnapshot {
	snap := domain.OrderbookSnapshot{
		AssetID:   b.AssetID,
		Timestamp: parseMillis(b.Timestamp),
	}

	for _, lvl := range b.Bids {
		price, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil {
			continue
		}
		size, _ := strconv.ParseFloat(lvl.Size, 64)
		snap.Bids = append(snap.Bids, domain.PriceLevel{Price: price, Size: size})
		if price > snap.BestBid {
			snap.BestBid = price
		}
	}
	for _, lvl := range b.Asks {
		price, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil {
			continue
		}
		size, _ := strconv.ParseFloat(lvl.Size, 64)
		snap.Asks = append(snap.Asks, domain.PriceLevel{Price: price, Size: size})
		if snap.BestAsk == 0 || price < snap.BestAsk {
			snap.BestAsk = price
		}
	}

	if snap.BestBid > 0 && snap.BestAsk > 0 {
		snap.MidPrice = (snap.BestBid + snap.BestAsk) / 2
	}
	return snap
}

// PriceChangeToDomain converts a PriceChangeMessage to a domain.PriceChange.
func PriceChangeToDomain(pc *PriceChangeMessage) domain.PriceChange {
	price, _ := strconv.ParseFloat(pc.Price, 64)
	size, _ := strconv.ParseFloat(pc.Size, 64)
	return domain.PriceChange{
		AssetID:   pc.AssetID,
		Side:      pc.Side,
		Price:     price,
		Size:      size,
		Timestamp: parseMillis(pc.Timestamp),
	}
}

// parseMillis parses a Unix-millisecond string timestamp; zero time on failure.
func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Package domain defines the core value types and interfaces shared by the
// polywatch components: market candidates, time windows, the tracked market,
// and the contracts for the external market-data collaborators.
package domain

// MarketCandidate is a raw market summary returned by the search collaborator.
// Candidates are value-like and live for a single scan cycle.
type MarketCandidate struct {
	ID              string
	Question        string
	AcceptingOrders bool
	YesToken        string
	NoToken         string
}

// ScoredCandidate pairs a candidate with its parsed window and its temporal
// distance from now. Derived and ephemeral.
type ScoredCandidate struct {
	Candidate   MarketCandidate
	Window      TimeWindow
	DiffMinutes int // signed minutes from now to window start, in [-720, 720]
	AbsDiff     int
}

// TrackedMarket is the market instance the loop is currently following. It is
// replaced wholesale when the selection changes ID; on a same-ID rescan only
// DiffMinutes is refreshed.
type TrackedMarket struct {
	ID          string
	Question    string
	YesToken    string
	NoToken     string
	DiffMinutes int
}

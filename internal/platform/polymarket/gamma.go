// Package polymarket implements the market-data collaborators: the Gamma
// REST API for market discovery and the CLOB REST/WebSocket APIs for live
// price and book data. All endpoints used here are public and
// unauthenticated.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"polywatch/internal/domain"
)

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides market discovery, metadata, and search.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string, logger *slog.Logger) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.With(slog.String("component", "gamma_client")),
	}
}

// SearchMarkets searches for markets matching the given query string and
// returns them as candidates. Entries that fail validation are logged and
// skipped individually; a malformed item never fails the batch.
func (g *GammaClient) SearchMarkets(ctx context.Context, query string, limit int) ([]domain.MarketCandidate, error) {
	if limit <= 0 {
		limit = 50
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: search markets: %w", err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode search results: %w", err)
	}

	cands := make([]domain.MarketCandidate, 0, len(apiMarkets))
	for i := range apiMarkets {
		c, err := apiMarkets[i].ToCandidate()
		if err != nil {
			g.logger.WarnContext(ctx, "quarantined malformed market entry",
				slog.String("error", err.Error()),
			)
			continue
		}
		cands = append(cands, c)
	}

	return cands, nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

// Compile-time interface check.
var _ domain.MarketFinder = (*GammaClient)(nil)

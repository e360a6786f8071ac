package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"polywatch/internal/domain"
)

// ClobClient is the REST client for the public price endpoints of the
// Polymarket CLOB (Central Limit Order Book) API.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
func NewClobClient(baseURL string) *ClobClient {
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Midpoint returns the midpoint price text for a token. The CLOB responds
// with {"mid":"0.52"}; when the payload decodes, the bare mid value is
// returned, otherwise the raw body is passed through for the caller's
// lenient parser.
func (c *ClobClient) Midpoint(ctx context.Context, token string) (string, error) {
	body, err := c.doGet(ctx, "/midpoint", token)
	if err != nil {
		return "", fmt.Errorf("polymarket/clob: midpoint %s: %w", token, err)
	}

	var mid APIMidpoint
	if err := json.Unmarshal(body, &mid); err == nil && mid.Mid != "" {
		return mid.Mid, nil
	}
	return string(body), nil
}

// Spread returns the bid-ask spread text for a token, with the same lenient
// contract as Midpoint.
func (c *ClobClient) Spread(ctx context.Context, token string) (string, error) {
	body, err := c.doGet(ctx, "/spread", token)
	if err != nil {
		return "", fmt.Errorf("polymarket/clob: spread %s: %w", token, err)
	}

	var spread APISpread
	if err := json.Unmarshal(body, &spread); err == nil && spread.Spread != "" {
		return spread.Spread, nil
	}
	return string(body), nil
}

// Book returns the raw order-book payload for a token. The payload is opaque
// to the tracker and rendered or passed through as-is.
func (c *ClobClient) Book(ctx context.Context, token string) ([]byte, error) {
	body, err := c.doGet(ctx, "/book", token)
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: book %s: %w", token, err)
	}
	return body, nil
}

// doGet sends an unauthenticated GET to path with the token_id query
// parameter and reads the response.
func (c *ClobClient) doGet(ctx context.Context, path, token string) ([]byte, error) {
	params := url.Values{}
	params.Set("token_id", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
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

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

// Compile-time interface check.
var _ domain.PriceSource = (*ClobClient)(nil)

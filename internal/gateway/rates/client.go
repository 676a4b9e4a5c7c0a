package rates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.coingecko.com"

// FallbackRates is returned whenever the price feed is unreachable. The
// values are static NGN quotes; they are a configuration convenience, not a
// correctness guarantee.
var FallbackRates = map[string]map[string]float64{
	"bitcoin":  {"ngn": 150000000},
	"ethereum": {"ngn": 6000000},
	"tether":   {"ngn": 1600},
	"usd-coin": {"ngn": 1600},
}

type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(apiKey, baseURL string, timeout time.Duration, l *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     l,
	}
}

// SimplePrices fetches NGN quotes for the supported crypto assets. Any
// failure is logged and replaced by the static fallback table; callers never
// see an error from the feed.
func (c *Client) SimplePrices(ctx context.Context) map[string]map[string]float64 {
	params := url.Values{}
	params.Set("ids", "bitcoin,ethereum,tether,usd-coin")
	params.Set("vs_currencies", "ngn")
	if c.apiKey != "" {
		params.Set("x_cg_demo_api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/simple/price?"+params.Encode(), nil)
	if err != nil {
		c.logger.Error("Failed to build price feed request", zap.Error(err))
		return FallbackRates
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Price feed unreachable, using fallback rates", zap.Error(err))
		return FallbackRates
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Price feed returned non-OK status, using fallback rates", zap.Int("status", resp.StatusCode))
		return FallbackRates
	}

	var prices map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		c.logger.Warn("Failed to decode price feed response, using fallback rates", zap.Error(err))
		return FallbackRates
	}
	if len(prices) == 0 {
		return FallbackRates
	}
	return prices
}

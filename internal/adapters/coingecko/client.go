package coingecko

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/prxgr4mmer/price-delta-service/internal/domain"
	"github.com/prxgr4mmer/price-delta-service/internal/ports"
	"github.com/prxgr4mmer/price-delta-service/pkg/retry"
)

const maxBodySize = 4 << 20

// Client implements the QuoteSource interface for CoinGecko-style APIs
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	retryConf  retry.Config
	logger     *slog.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRetry configures retry behavior
func WithRetry(maxRetries int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.retryConf.MaxRetries = maxRetries
		c.retryConf.InitialBackoff = backoff
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the limit.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger.With("component", "coingecko_client")
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a new quote client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		retryConf: retry.DefaultConfig(),
		logger:    slog.Default().With("component", "coingecko_client"),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.retryConf.OnRetry = func(attempt int, err error) {
		c.logger.Debug("retrying request", "attempt", attempt, "error", err)
	}

	return c
}

// FetchPrices fetches the prices of every coin configured on the provider,
// in every configured currency
func (c *Client) FetchPrices(ctx context.Context, provider domain.Provider) (map[string]domain.Asset, error) {
	endpoint, err := provider.URI(domain.RouteSimplePrice)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", provider.Name, err)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("provider %s: invalid uri: %w", provider.Name, err)
	}
	q := u.Query()
	q.Set("ids", strings.Join(provider.CoinIDs(), ","))
	q.Set("vs_currencies", strings.Join(provider.Currencies, ","))
	u.RawQuery = q.Encode()

	return retry.DoWithResult(ctx, c.retryConf, func(ctx context.Context) (map[string]domain.Asset, error) {
		body, err := c.get(ctx, u.String())
		if err != nil {
			return nil, err
		}

		if !gjson.ValidBytes(body) {
			c.logger.Error("malformed response body", "provider", provider.Name)
			return nil, domain.ErrInvalidResponse
		}

		coins := parseSimplePrice(gjson.ParseBytes(body), provider)
		if len(coins) == 0 {
			return nil, domain.ErrNoCoinData
		}

		return coins, nil
	})
}

// parseSimplePrice turns {"<id>": {"<currency>": <price>}} into assets.
// Ids unknown to the provider, non-numeric prices and prices that do not fit
// a float64 are dropped.
func parseSimplePrice(root gjson.Result, provider domain.Provider) map[string]domain.Asset {
	coins := make(map[string]domain.Asset)
	if !root.IsObject() {
		return coins
	}

	root.ForEach(func(key, value gjson.Result) bool {
		id := key.String()
		symbol, ok := provider.Symbol(id)
		if !ok || !value.IsObject() {
			return true
		}

		prices := make(map[string]float64)
		value.ForEach(func(cur, price gjson.Result) bool {
			if price.Type != gjson.Number {
				return true
			}
			// numbers outside the float64 range parse as +/-Inf and cannot be encoded
			if v := price.Float(); !math.IsInf(v, 0) && !math.IsNaN(v) {
				prices[cur.String()] = v
			}
			return true
		})

		coins[id] = domain.Asset{
			ID:     id,
			Symbol: symbol,
			Prices: prices,
		}
		return true
	})

	return coins
}

// Ping checks if the provider is reachable
func (c *Client) Ping(ctx context.Context, provider domain.Provider) error {
	endpoint, err := provider.URI(domain.RoutePing)
	if err != nil {
		return fmt.Errorf("provider %s: %w", provider.Name, err)
	}

	return retry.Do(ctx, c.retryConf, func(ctx context.Context) error {
		_, err := c.get(ctx, endpoint)
		return err
	})
}

// get performs a rate limited GET and classifies failures for retry
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed, will retry", "error", err)
		return nil, retry.NewRetryableError(fmt.Errorf("%w: %v", domain.ErrQuoteSourceUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.logger.Warn("rate limited by quote service")
		return nil, retry.RetryAfter(domain.ErrRateLimited, parseRetryAfter(resp.Header.Get("Retry-After")))
	}

	if resp.StatusCode >= 500 {
		c.logger.Warn("quote service error", "status", resp.StatusCode)
		return nil, retry.NewRetryableError(domain.ErrQuoteSourceUnavailable)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, retry.NewRetryableError(fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("unexpected response",
			"status", resp.StatusCode,
			"body", string(body))
		return nil, domain.ErrInvalidResponse
	}

	return body, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}

// Ensure Client implements QuoteSource
var _ ports.QuoteSource = (*Client)(nil)

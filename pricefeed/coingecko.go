// Package pricefeed fetches crypto prices from the public CoinGecko
// API and serves them as a market.PriceSource.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/quantlab/papertrader/market"
)

// DefaultBaseURL is CoinGecko's free public API.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// DefaultQuoteTTL is how long a fetched quote is served from cache.
// The free tier rate-limits aggressively, so quotes are cached briefly.
const DefaultQuoteTTL = time.Minute

// coinIDs maps ticker symbols to CoinGecko coin ids.
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"SOL":   "solana",
	"DOT":   "polkadot",
	"DOGE":  "dogecoin",
	"AVAX":  "avalanche-2",
	"MATIC": "matic-network",
}

// Symbols returns the supported ticker symbols, unordered.
func Symbols() []string {
	out := make([]string, 0, len(coinIDs))
	for s := range coinIDs {
		out = append(out, s)
	}
	return out
}

// Client is a CoinGecko API client implementing market.PriceSource.
type Client struct {
	baseURL    string
	httpClient *http.Client
	quoteTTL   time.Duration

	mu    sync.Mutex
	cache map[string]cachedQuote
}

type cachedQuote struct {
	quote     market.Quote
	fetchedAt time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithQuoteTTL overrides the quote cache lifetime. Zero disables caching.
func WithQuoteTTL(ttl time.Duration) Option {
	return func(c *Client) { c.quoteTTL = ttl }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		quoteTTL:   DefaultQuoteTTL,
		cache:      make(map[string]cachedQuote),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// marketEntry is one element of the /coins/markets response.
type marketEntry struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	CurrentPrice float64 `json:"current_price"`
	LastUpdated  string  `json:"last_updated"`
}

// chartResponse is the /coins/{id}/market_chart response. Each price
// entry is a [unix-ms, price] pair.
type chartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

// CurrentPrice fetches the latest quote for symbol, serving from the
// cache when a fresh enough quote exists.
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (market.Quote, error) {
	symbol = strings.ToUpper(symbol)
	coinID, ok := coinIDs[symbol]
	if !ok {
		return market.Quote{}, fmt.Errorf("unknown symbol %s: %w", symbol, market.ErrPriceUnavailable)
	}

	c.mu.Lock()
	if entry, ok := c.cache[symbol]; ok && time.Since(entry.fetchedAt) < c.quoteTTL {
		c.mu.Unlock()
		return entry.quote, nil
	}
	c.mu.Unlock()

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("ids", coinID)
	params.Set("order", "market_cap_desc")
	params.Set("sparkline", "false")

	var entries []marketEntry
	if err := c.get(ctx, "/coins/markets", params, &entries); err != nil {
		return market.Quote{}, fmt.Errorf("quote %s: %w (%v)", symbol, market.ErrPriceUnavailable, err)
	}
	if len(entries) == 0 || entries[0].CurrentPrice <= 0 {
		return market.Quote{}, fmt.Errorf("quote %s: %w", symbol, market.ErrPriceUnavailable)
	}

	e := entries[0]
	at, err := time.Parse(time.RFC3339, e.LastUpdated)
	if err != nil {
		at = time.Now().UTC()
	}
	quote := market.Quote{
		Symbol: symbol,
		Name:   e.Name,
		Price:  e.CurrentPrice,
		Time:   at.UTC(),
	}

	c.mu.Lock()
	c.cache[symbol] = cachedQuote{quote: quote, fetchedAt: time.Now()}
	c.mu.Unlock()

	return quote, nil
}

// History fetches a daily close-price series covering the last days
// days. Days of one or less uses hourly granularity.
func (c *Client) History(ctx context.Context, symbol string, days int) (market.PriceSeries, error) {
	symbol = strings.ToUpper(symbol)
	coinID, ok := coinIDs[symbol]
	if !ok {
		return market.PriceSeries{}, fmt.Errorf("unknown symbol %s: %w", symbol, market.ErrNoData)
	}
	if days <= 0 {
		days = 1
	}

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", fmt.Sprintf("%d", days))
	if days > 1 {
		params.Set("interval", "daily")
	} else {
		params.Set("interval", "hourly")
	}

	var chart chartResponse
	if err := c.get(ctx, "/coins/"+coinID+"/market_chart", params, &chart); err != nil {
		return market.PriceSeries{}, fmt.Errorf("history %s: %w (%v)", symbol, market.ErrNoData, err)
	}
	if len(chart.Prices) == 0 {
		return market.PriceSeries{}, fmt.Errorf("history %s: %w", symbol, market.ErrNoData)
	}

	points := make([]market.PricePoint, 0, len(chart.Prices))
	for _, pair := range chart.Prices {
		at := time.UnixMilli(int64(pair[0])).UTC()
		price := pair[1]
		// The API occasionally repeats the latest bar's timestamp.
		if price <= 0 || (len(points) > 0 && !points[len(points)-1].Time.Before(at)) {
			continue
		}
		points = append(points, market.PricePoint{Time: at, Price: price})
	}

	series, err := market.NewSeries(symbol, points)
	if err != nil {
		return market.PriceSeries{}, fmt.Errorf("history %s: %w", symbol, err)
	}
	return series, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

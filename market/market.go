// Package market provides the market-data caching helpers the fetcher layer
// uses: candles and tickers cached with TTLs aligned to the period boundary,
// so cached bars expire just after the exchange publishes the next window.
package market

import (
	"time"

	"github.com/tradeforge/cachekit/cache"
)

// DriftAllowance pads boundary-aligned TTLs to absorb exchange publishing
// lag.
const DriftAllowance = 5 * time.Second

// Candle is one OHLCV bar.
type Candle struct {
	Timestamp int64   `msgpack:"ts"`
	Open      float64 `msgpack:"o"`
	High      float64 `msgpack:"h"`
	Low       float64 `msgpack:"l"`
	Close     float64 `msgpack:"c"`
	Volume    float64 `msgpack:"v"`
}

// Ticker is a last-price snapshot for one symbol.
type Ticker struct {
	Symbol    string  `msgpack:"symbol"`
	Last      float64 `msgpack:"last"`
	Bid       float64 `msgpack:"bid"`
	Ask       float64 `msgpack:"ask"`
	Timestamp int64   `msgpack:"ts"`
}

// Cache wraps a cache.Manager with the key and TTL conventions for market
// data.
type Cache struct {
	mgr *cache.Manager
}

// NewCache returns market-data helpers backed by mgr.
func NewCache(mgr *cache.Manager) *Cache {
	return &Cache{mgr: mgr}
}

// Candles returns the cached bars for (symbol, timeframe), fetching them on
// a miss. The TTL is aligned to the next timeframe boundary plus
// DriftAllowance: a "5m" series cached at 12:03 expires shortly after 12:05.
func (c *Cache) Candles(symbol, timeframe string, fetch func() ([]Candle, error)) ([]Candle, error) {
	period := cache.ParseDurationToken(timeframe)
	ttl := cache.UntilNextBoundary(period, DriftAllowance)
	key := symbol + ":" + timeframe
	return cache.GetOrSet(c.mgr, key, cache.NamespaceBars, ttl, fetch)
}

// Ticker returns the cached last-price snapshot for symbol, fetching it on a
// miss. Tickers use the quotes namespace's short default TTL.
func (c *Cache) Ticker(symbol string, fetch func() (Ticker, error)) (Ticker, error) {
	return cache.GetOrSet(c.mgr, symbol, cache.NamespaceQuotes, 0, fetch)
}

// InvalidateSymbol drops every cached series and quote for symbol, e.g.
// after an exchange reports a corrupted feed.
func (c *Cache) InvalidateSymbol(symbol string) int {
	removed := c.mgr.DeletePrefix(symbol+":", cache.NamespaceBars)
	removed += c.mgr.Delete(symbol, cache.NamespaceQuotes)
	return removed
}

package priceoracle

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"prediction-market/internal/domainerr"
)

const (
	pythSOLUSDFeedID  = "ef0d8b6fda2ceba41da15d4095d1da392a0d2f8ed0c6c7bc0f4cfac8c280b56d"
	pythPUMPUSDFeedID = "7a01fc2c1ed29b88c70e4a30a66c48c6e17c3a93c3b9cb2f0e78c3e0d6c3b9c0"
	pythHermesBaseURL = "https://hermes.pyth.network"

	cacheTTL      = 5 * time.Second
	retentionSpan = 24 * time.Hour
	maxSamples    = 86_400 // one per second for a full retention window, per symbol
)

var symbolToCoinGeckoID = map[string]string{
	"SOL/USD":  "solana",
	"PUMP/USD": "pump-fun",
}

var symbolToCryptoCompareSym = map[string]string{
	"SOL/USD":  "SOL",
	"PUMP/USD": "PUMP",
}

var pythFeedIDToSymbol = map[string]string{
	pythSOLUSDFeedID:  "SOL/USD",
	pythPUMPUSDFeedID: "PUMP/USD",
}

// Cascade is the concrete multi-provider Source: Pyth Hermes, then
// CoinGecko, then CryptoCompare, behind a short-TTL cache and a bounded
// in-memory sample history used to answer At/Candles.
type Cascade struct {
	mu      sync.RWMutex
	current map[string]Sample
	history map[string][]Sample

	client *http.Client
}

func NewCascade() *Cascade {
	return &Cascade{
		current: make(map[string]Sample),
		history: make(map[string][]Sample),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Cascade) Current(symbol string) (Sample, error) {
	if _, ok := symbolToCoinGeckoID[symbol]; !ok {
		return Sample{}, domainerr.New(domainerr.UnknownSymbol, fmt.Sprintf("unsupported symbol: %s", symbol))
	}

	c.mu.RLock()
	cached, ok := c.current[symbol]
	c.mu.RUnlock()
	if ok && time.Since(cached.Timestamp) < cacheTTL {
		return cached, nil
	}

	if sample, err := c.fetchPyth(symbol); err == nil {
		logProviderFallback(symbol, "pyth")
		return c.record(symbol, sample.Price), nil
	}
	if price, err := c.fetchCoinGecko(symbol); err == nil {
		logProviderFallback(symbol, "coingecko")
		return c.record(symbol, price), nil
	}
	if price, err := c.fetchCryptoCompare(symbol); err == nil {
		logProviderFallback(symbol, "cryptocompare")
		return c.record(symbol, price), nil
	}

	if ok {
		// Every provider failed this round; serve the stale cache rather
		// than fail a symbol we have successfully priced before.
		return cached, nil
	}
	return Sample{}, domainerr.New(domainerr.SourceUnavailable, fmt.Sprintf("no provider available for %s", symbol))
}

// record stores price under symbol with a monotonic non-decreasing
// timestamp relative to the last sample recorded for that symbol (§4.1).
func (c *Cascade) record(symbol string, price float64) Sample {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := time.Now()
	if last, ok := c.current[symbol]; ok && !ts.After(last.Timestamp) {
		ts = last.Timestamp.Add(time.Nanosecond)
	}

	sample := Sample{Price: price, Timestamp: ts}
	c.current[symbol] = sample

	hist := append(c.history[symbol], sample)
	if len(hist) > maxSamples {
		hist = hist[len(hist)-maxSamples:]
	}
	c.history[symbol] = hist

	return sample
}

func (c *Cascade) At(symbol string, ts time.Time) (float64, error) {
	if _, ok := symbolToCoinGeckoID[symbol]; !ok {
		return 0, domainerr.New(domainerr.UnknownSymbol, fmt.Sprintf("unsupported symbol: %s", symbol))
	}
	if time.Since(ts) > retentionSpan {
		return 0, domainerr.New(domainerr.OutOfRange, "timestamp older than retention window")
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	hist := c.history[symbol]
	if len(hist) == 0 {
		return 0, domainerr.New(domainerr.SourceUnavailable, fmt.Sprintf("no samples recorded for %s", symbol))
	}

	nearest := hist[0]
	best := absDuration(nearest.Timestamp.Sub(ts))
	for _, s := range hist[1:] {
		if d := absDuration(s.Timestamp.Sub(ts)); d < best {
			nearest, best = s, d
		}
	}
	return nearest.Price, nil
}

func (c *Cascade) Candles(symbol string, interval time.Duration, limit int) ([]Candle, error) {
	if _, ok := symbolToCoinGeckoID[symbol]; !ok {
		return nil, domainerr.New(domainerr.UnknownSymbol, fmt.Sprintf("unsupported symbol: %s", symbol))
	}

	c.mu.RLock()
	hist := append([]Sample(nil), c.history[symbol]...)
	c.mu.RUnlock()

	buckets := make(map[int64]*Candle)
	var order []int64
	for _, s := range hist {
		key := s.Timestamp.Truncate(interval).Unix()
		b, ok := buckets[key]
		if !ok {
			b = &Candle{T: s.Timestamp.Truncate(interval), Open: s.Price, High: s.Price, Low: s.Price, Close: s.Price}
			buckets[key] = b
			order = append(order, key)
		}
		if s.Price > b.High {
			b.High = s.Price
		}
		if s.Price < b.Low {
			b.Low = s.Price
		}
		b.Close = s.Price
	}

	candles := make([]Candle, 0, len(order))
	for _, key := range order {
		candles = append(candles, *buckets[key])
	}
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// ---- Pyth Hermes (primary) ----

type pythHermesResponse struct {
	Parsed []struct {
		ID    string `json:"id"`
		Price struct {
			Price string `json:"price"`
			Expo  int    `json:"expo"`
		} `json:"price"`
	} `json:"parsed"`
}

func (c *Cascade) fetchPyth(symbol string) (Sample, error) {
	url := fmt.Sprintf("%s/v2/updates/price/latest?ids[]=%s&ids[]=%s", pythHermesBaseURL, pythSOLUSDFeedID, pythPUMPUSDFeedID)

	resp, err := c.client.Get(url)
	if err != nil {
		return Sample{}, fmt.Errorf("pyth hermes request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Sample{}, fmt.Errorf("pyth hermes read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Sample{}, fmt.Errorf("pyth hermes returned %d", resp.StatusCode)
	}

	var result pythHermesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return Sample{}, fmt.Errorf("pyth hermes parse: %w", err)
	}

	for _, parsed := range result.Parsed {
		if pythFeedIDToSymbol[parsed.ID] != symbol {
			continue
		}
		var priceInt int64
		if _, err := fmt.Sscanf(parsed.Price.Price, "%d", &priceInt); err != nil {
			continue
		}
		price := float64(priceInt) * math.Pow10(parsed.Price.Expo)
		if price > 0 {
			return Sample{Price: price}, nil
		}
	}
	return Sample{}, fmt.Errorf("pyth hermes had no usable price for %s", symbol)
}

// ---- CoinGecko (fallback 1) ----

func (c *Cascade) fetchCoinGecko(symbol string) (float64, error) {
	id, ok := symbolToCoinGeckoID[symbol]
	if !ok {
		return 0, fmt.Errorf("no coingecko id for %s", symbol)
	}

	url := fmt.Sprintf("https://api.coingecko.com/api/v3/simple/price?ids=%s&vs_currencies=usd", id)
	resp, err := c.client.Get(url)
	if err != nil {
		return 0, fmt.Errorf("coingecko request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("coingecko returned %d", resp.StatusCode)
	}

	var result map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("coingecko parse: %w", err)
	}

	price, ok := result[id]["usd"]
	if !ok || price <= 0 {
		return 0, fmt.Errorf("coingecko returned no usd price for %s", id)
	}
	return price, nil
}

// ---- CryptoCompare (fallback 2) ----

func (c *Cascade) fetchCryptoCompare(symbol string) (float64, error) {
	fsym, ok := symbolToCryptoCompareSym[symbol]
	if !ok {
		return 0, fmt.Errorf("no cryptocompare symbol for %s", symbol)
	}

	url := fmt.Sprintf("https://min-api.cryptocompare.com/data/price?fsym=%s&tsyms=USD", fsym)
	resp, err := c.client.Get(url)
	if err != nil {
		return 0, fmt.Errorf("cryptocompare request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("cryptocompare returned %d", resp.StatusCode)
	}

	var result map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("cryptocompare parse: %w", err)
	}

	price, ok := result["USD"]
	if !ok || price <= 0 {
		return 0, fmt.Errorf("cryptocompare returned no usd price for %s", fsym)
	}
	return price, nil
}

func logProviderFallback(symbol, provider string) {
	log.Printf("[priceoracle] %s served from %s", symbol, provider)
}

package priceoracle

import (
	"testing"
	"time"

	"prediction-market/internal/domainerr"
)

func TestRecordAssignsMonotonicTimestampOnCollision(t *testing.T) {
	c := NewCascade()

	now := time.Now()
	c.mu.Lock()
	c.current["SOL/USD"] = Sample{Price: 100, Timestamp: now}
	c.history["SOL/USD"] = []Sample{{Price: 100, Timestamp: now}}
	c.mu.Unlock()

	// record() calls time.Now() internally; even if the clock hasn't ticked
	// forward between samples, the stored timestamp must still advance.
	sample := c.record("SOL/USD", 101)
	if !sample.Timestamp.After(now) {
		t.Fatalf("expected the recorded sample's timestamp to advance past the prior sample, got %v vs %v", sample.Timestamp, now)
	}
}

func TestCurrentRejectsUnknownSymbol(t *testing.T) {
	c := NewCascade()
	if _, err := c.Current("DOGE/USD"); err == nil {
		t.Fatalf("expected an error for an unsupported symbol")
	} else if de, ok := err.(*domainerr.Error); !ok || de.Code != domainerr.UnknownSymbol {
		t.Fatalf("expected UnknownSymbol, got %v", err)
	}
}

func TestAtReturnsNearestSample(t *testing.T) {
	c := NewCascade()
	base := time.Now().Add(-time.Hour)

	c.mu.Lock()
	c.history["SOL/USD"] = []Sample{
		{Price: 100, Timestamp: base},
		{Price: 110, Timestamp: base.Add(10 * time.Second)},
		{Price: 120, Timestamp: base.Add(30 * time.Second)},
	}
	c.mu.Unlock()

	price, err := c.At("SOL/USD", base.Add(12*time.Second))
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	if price != 110 {
		t.Fatalf("nearest price = %v, want 110 (sample at +10s is nearer than +30s to a query at +12s)", price)
	}
}

func TestAtRejectsTimestampOutsideRetention(t *testing.T) {
	c := NewCascade()
	c.mu.Lock()
	c.history["SOL/USD"] = []Sample{{Price: 100, Timestamp: time.Now()}}
	c.mu.Unlock()

	_, err := c.At("SOL/USD", time.Now().Add(-retentionSpan-time.Minute))
	if err == nil {
		t.Fatalf("expected an error for a timestamp older than the retention window")
	}
	if de, ok := err.(*domainerr.Error); !ok || de.Code != domainerr.OutOfRange {
		t.Fatalf("expected OutOfRange, got %v", err)
	}
}

func TestCandlesBucketsByInterval(t *testing.T) {
	c := NewCascade()
	base := time.Now().Truncate(time.Minute)

	c.mu.Lock()
	c.history["SOL/USD"] = []Sample{
		{Price: 100, Timestamp: base},
		{Price: 105, Timestamp: base.Add(20 * time.Second)},
		{Price: 95, Timestamp: base.Add(40 * time.Second)},
		{Price: 110, Timestamp: base.Add(70 * time.Second)},
	}
	c.mu.Unlock()

	candles, err := c.Candles("SOL/USD", time.Minute, 10)
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 one-minute candles, got %d", len(candles))
	}

	first := candles[0]
	if first.Open != 100 || first.Close != 95 || first.High != 105 || first.Low != 95 {
		t.Fatalf("first candle OHLC = %+v, want open=100 high=105 low=95 close=95", first)
	}
}

func TestCandlesLimitKeepsMostRecent(t *testing.T) {
	c := NewCascade()
	base := time.Now().Truncate(time.Minute)

	var samples []Sample
	for i := 0; i < 5; i++ {
		samples = append(samples, Sample{Price: float64(100 + i), Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}
	c.mu.Lock()
	c.history["SOL/USD"] = samples
	c.mu.Unlock()

	candles, err := c.Candles("SOL/USD", time.Minute, 2)
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected the limit to cap output at 2 candles, got %d", len(candles))
	}
	if candles[len(candles)-1].Open != 104 {
		t.Fatalf("expected the most recent bucket to survive the limit, got open=%v", candles[len(candles)-1].Open)
	}
}

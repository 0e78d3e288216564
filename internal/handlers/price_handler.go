package handlers

import (
	"strconv"
	"time"

	"prediction-market/internal/domainerr"
	"prediction-market/internal/priceoracle"
	"prediction-market/internal/respond"

	"github.com/gin-gonic/gin"
)

// PriceHandler exposes the cascading spot-price source directly, for charts
// and pre-trade display that don't need a pool or duel context.
type PriceHandler struct {
	prices priceoracle.Source
}

func NewPriceHandler(prices priceoracle.Source) *PriceHandler {
	return &PriceHandler{prices: prices}
}

// GetCurrent returns the latest observed price for a symbol.
// GET /api/price/current?symbol=
func (h *PriceHandler) GetCurrent(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		respond.Err(c, domainerr.New(domainerr.InvalidAmount, "symbol is required"))
		return
	}

	sample, err := h.prices.Current(symbol)
	if err != nil {
		respond.Err(c, domainerr.Wrap(domainerr.SourceUnavailable, err))
		return
	}
	respond.OK(c, gin.H{"symbol": symbol, "price": sample.Price, "timestamp": sample.Timestamp})
}

// GetCandles returns OHLC bars for a symbol at the requested interval.
// GET /api/price/candles?symbol=&interval=&limit=
func (h *PriceHandler) GetCandles(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		respond.Err(c, domainerr.New(domainerr.InvalidAmount, "symbol is required"))
		return
	}

	interval := time.Minute
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			interval = d
		}
	}

	limit := 200
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 1000 {
		limit = l
	}

	candles, err := h.prices.Candles(symbol, interval, limit)
	if err != nil {
		respond.Err(c, domainerr.Wrap(domainerr.SourceUnavailable, err))
		return
	}
	respond.OK(c, gin.H{"symbol": symbol, "candles": candles})
}

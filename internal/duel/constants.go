package duel

import (
	"time"

	"prediction-market/internal/models"
)

const (
	pendingTTL     = 5 * time.Minute
	countdown      = 5 * time.Second
	duelDuration   = 60 * time.Second
	platformFeeBps = 500

	rpcTimeout         = 15 * time.Second
	expiryPollInterval = 10 * time.Second
	resolvePollInterval = 3 * time.Second
	resolveMaxAttempts = 5

	// requiredConfirmations is the slot depth a dispatched settlement
	// transaction must clear before the core trusts it enough to settle.
	requiredConfirmations = 1
)

// currencyDecimals is the smallest-unit exponent per currency, used to turn
// the spec's human MIN_BET/MAX_BET (0.01 / 100) into fixed-point bounds.
var currencyDecimals = map[models.Currency]int64{
	models.CurrencySOL:  9,
	models.CurrencyPUMP: 6,
	models.CurrencyUSDC: 6,
}

func betBounds(currency models.Currency) (min, max int64, ok bool) {
	decimals, ok := currencyDecimals[currency]
	if !ok {
		return 0, 0, false
	}
	unit := int64(1)
	for i := int64(0); i < decimals; i++ {
		unit *= 10
	}
	return unit / 100, unit * 100, true
}

// marketSymbols maps a Duel's market_id to the PriceSource symbol it settles
// against. §3 names the markets 1:SOL/USDT and 2:PUMP/USDT; they are priced
// here through the USD-quoted symbols the cascading price source serves.
var marketSymbols = map[uint16]string{
	1: "SOL/USD",
	2: "PUMP/USD",
}

func symbolOf(marketID uint16) (string, bool) {
	sym, ok := marketSymbols[marketID]
	return sym, ok
}

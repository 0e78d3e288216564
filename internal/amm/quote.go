// Package amm implements the off-chain mirror of the binary-outcome CPMM:
// quoting, swap settlement bookkeeping, and pool lifecycle persistence.
package amm

import (
	"math/big"

	"prediction-market/internal/domainerr"
	"prediction-market/internal/models"
)

// Quote is the result of a dry-run swap calculation against a pool's
// current reserves, with no state mutation.
type Quote struct {
	OutputAmount    int64
	FeeAmount       int64
	NetInputAmount  int64
	PricePerToken   float64
	MinimumReceived int64
}

// CalculateQuote prices a prospective swap against pool using the
// fee-on-input CPMM formula. tradeType is models.TradeTypeBuyYes or
// TradeTypeBuyNo. slippageBps bounds the minimum acceptable output
// (e.g. 50 = 0.5% worse than the quoted price).
func CalculateQuote(pool *models.AMMPool, inputAmount int64, tradeType models.AMMTradeType, slippageBps int64) (*Quote, error) {
	if inputAmount <= 0 {
		return nil, domainerr.New(domainerr.InvalidAmount, "input amount must be greater than 0")
	}
	if pool.Status != models.PoolStatusActive {
		return nil, domainerr.New(domainerr.PoolNotActive, "pool is not active")
	}

	var inputReserve, outputReserve int64
	switch tradeType {
	case models.TradeTypeBuyYes:
		inputReserve, outputReserve = pool.NoReserve, pool.YesReserve
	case models.TradeTypeBuyNo:
		inputReserve, outputReserve = pool.YesReserve, pool.NoReserve
	default:
		return nil, domainerr.New(domainerr.InvalidTradeType, "invalid trade type")
	}

	feeAmount := floorMulDiv(inputAmount, int64(pool.FeeBps), 10_000)
	netInput := inputAmount - feeAmount

	out := floorMulDiv(netInput, outputReserve, inputReserve+netInput)
	if out <= 0 {
		return nil, domainerr.New(domainerr.SlippageExceeded, "trade would yield zero output")
	}

	var pricePerToken float64
	if out > 0 {
		pricePerToken = float64(inputAmount) / float64(out)
	}

	minimumReceived := out - floorMulDiv(out, slippageBps, 10_000)
	if minimumReceived < 1 {
		minimumReceived = 1
	}

	return &Quote{
		OutputAmount:    out,
		FeeAmount:       feeAmount,
		NetInputAmount:  netInput,
		PricePerToken:   pricePerToken,
		MinimumReceived: minimumReceived,
	}, nil
}

// floorMulDiv computes floor(a*b/c) using big.Int so that the intermediate
// product can safely exceed 2^63 before truncating back to int64 (§4.2).
func floorMulDiv(a, b, c int64) int64 {
	if c == 0 {
		return 0
	}
	product := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	result := new(big.Int).Div(product, big.NewInt(c))
	if !result.IsInt64() {
		// Reserves are bounded by on-chain token supply, so a quotient this
		// large means the inputs were invalid rather than merely large.
		return 0
	}
	return result.Int64()
}

// CheckInvariant verifies that reserves after a swap have not decreased the
// constant-product invariant beyond what the collected fee accounts for
// (§8 property: post.yes*post.no >= pre.yes*pre.no*(10000-fee_bps)/10000).
func CheckInvariant(preYes, preNo, postYes, postNo int64, feeBps int64) bool {
	preProduct := new(big.Int).Mul(big.NewInt(preYes), big.NewInt(preNo))
	postProduct := new(big.Int).Mul(big.NewInt(postYes), big.NewInt(postNo))

	bound := new(big.Int).Mul(preProduct, big.NewInt(10_000-feeBps))
	bound.Div(bound, big.NewInt(10_000))

	return postProduct.Cmp(bound) >= 0
}

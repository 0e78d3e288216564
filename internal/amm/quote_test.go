package amm

import (
	"testing"

	"prediction-market/internal/domainerr"
	"prediction-market/internal/models"
)

func activePool() *models.AMMPool {
	return &models.AMMPool{
		YesReserve:       1_000_000,
		NoReserve:        1_000_000,
		BaseYesLiquidity: 1_000_000,
		BaseNoLiquidity:  1_000_000,
		FeeBps:           50,
		Status:           models.PoolStatusActive,
	}
}

func TestCalculateQuoteAppliesFeeBeforeInvariant(t *testing.T) {
	pool := activePool()
	q, err := CalculateQuote(pool, 10_000, models.TradeTypeBuyYes, 50)
	if err != nil {
		t.Fatalf("CalculateQuote: %v", err)
	}

	wantFee := int64(50) // floor(10000 * 50 / 10000)
	if q.FeeAmount != wantFee {
		t.Fatalf("fee = %d, want %d", q.FeeAmount, wantFee)
	}
	if q.OutputAmount <= 0 {
		t.Fatalf("expected positive output, got %d", q.OutputAmount)
	}
	if q.NetInputAmount != 10_000-wantFee {
		t.Fatalf("net input = %d, want %d", q.NetInputAmount, 10_000-wantFee)
	}
}

func TestCalculateQuoteMinimumReceivedRespectsSlippage(t *testing.T) {
	pool := activePool()
	q, err := CalculateQuote(pool, 10_000, models.TradeTypeBuyYes, 100)
	if err != nil {
		t.Fatalf("CalculateQuote: %v", err)
	}

	wantMin := q.OutputAmount - (q.OutputAmount * 100 / 10_000)
	if wantMin < 1 {
		wantMin = 1
	}
	if q.MinimumReceived != wantMin {
		t.Fatalf("minimum received = %d, want %d", q.MinimumReceived, wantMin)
	}
}

func TestCalculateQuoteRejectsNonPositiveInput(t *testing.T) {
	pool := activePool()
	if _, err := CalculateQuote(pool, 0, models.TradeTypeBuyYes, 50); err == nil {
		t.Fatalf("expected an error for zero input amount")
	}
}

func TestCalculateQuoteRejectsClosedPool(t *testing.T) {
	pool := activePool()
	pool.Status = models.PoolStatusClosed
	_, err := CalculateQuote(pool, 10_000, models.TradeTypeBuyYes, 50)
	if err == nil {
		t.Fatalf("expected an error for a closed pool")
	}
	de, ok := err.(*domainerr.Error)
	if !ok || de.Code != domainerr.PoolNotActive {
		t.Fatalf("expected PoolNotActive, got %v", err)
	}
}

func TestCalculateQuoteRejectsInvalidTradeType(t *testing.T) {
	pool := activePool()
	_, err := CalculateQuote(pool, 10_000, models.AMMTradeType(9), 50)
	if err == nil {
		t.Fatalf("expected an error for an invalid trade type")
	}
}

func TestCheckInvariantHoldsAfterFeePreservingSwap(t *testing.T) {
	preYes, preNo := int64(1_000_000), int64(1_000_000)
	pool := &models.AMMPool{YesReserve: preYes, NoReserve: preNo, BaseYesLiquidity: preYes, BaseNoLiquidity: preNo, FeeBps: 50, Status: models.PoolStatusActive}

	q, err := CalculateQuote(pool, 10_000, models.TradeTypeBuyYes, 50)
	if err != nil {
		t.Fatalf("CalculateQuote: %v", err)
	}
	postYes := preYes - q.OutputAmount
	postNo := preNo + 10_000

	if !CheckInvariant(preYes, preNo, postYes, postNo, 50) {
		t.Fatalf("expected the post-swap invariant bound to hold for a correctly priced swap")
	}
}

func TestCheckInvariantRejectsUnderpricedSwap(t *testing.T) {
	preYes, preNo := int64(1_000_000), int64(1_000_000)
	// Drain far more YES than the fee-adjusted invariant allows for this input.
	postYes := preYes - 50_000
	postNo := preNo + 10_000

	if CheckInvariant(preYes, preNo, postYes, postNo, 50) {
		t.Fatalf("expected the invariant check to reject an output far outside the fee bound")
	}
}

func TestNormalizedYesPriceBalancedPool(t *testing.T) {
	pool := &models.AMMPool{YesReserve: 1_000_000, NoReserve: 1_000_000, BaseYesLiquidity: 1_000_000, BaseNoLiquidity: 1_000_000}
	if price := pool.NormalizedYesPrice(); price != 0.5 {
		t.Fatalf("balanced pool normalized YES price = %v, want 0.5", price)
	}
}

func TestApplySwapUpdatesReservesForBuyYes(t *testing.T) {
	pool := &models.AMMPool{YesReserve: 1_000_000, NoReserve: 1_000_000}
	ApplySwap(pool, models.TradeTypeBuyYes, 10_000, 9_900)

	if pool.NoReserve != 1_010_000 {
		t.Fatalf("no_reserve = %d, want %d", pool.NoReserve, 1_010_000)
	}
	if pool.YesReserve != 990_100 {
		t.Fatalf("yes_reserve = %d, want %d", pool.YesReserve, 990_100)
	}
}

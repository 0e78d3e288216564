package trade

import (
	"context"
	"testing"

	"prediction-market/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.AMMPool{}, &models.AMMTrade{}, &models.PriceCandle{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedPool(t *testing.T, db *gorm.DB) *models.AMMPool {
	pool := &models.AMMPool{
		ID:               uuid.New(),
		OnchainPoolID:    1,
		PoolPDAAddress:   "pool-pda",
		AuthorityPubkey:  "authority",
		YesMint:          "yes-mint",
		NoMint:           "no-mint",
		YesReserve:       1_000_000,
		NoReserve:        1_000_000,
		BaseYesLiquidity: 1_000_000,
		BaseNoLiquidity:  1_000_000,
		FeeBps:           50,
		Status:           models.PoolStatusActive,
	}
	if err := db.Create(pool).Error; err != nil {
		t.Fatalf("seed pool: %v", err)
	}
	return pool
}

func TestRecordAppliesSwapToPoolReserves(t *testing.T) {
	db := setupTestDB(t)
	pool := seedPool(t, db)
	r := NewRecorder(db)

	req := &models.RecordTradeRequest{
		PoolID:              pool.ID.String(),
		TradeType:           int16(models.TradeTypeBuyYes),
		InputAmount:         10_000,
		OutputAmount:        9_900,
		FeeAmount:           50,
		TransactionSignature: "sig-1",
		PreTradeYesReserve:  1_000_000,
		PreTradeNoReserve:   1_000_000,
		PostTradeYesReserve: 990_100,
		PostTradeNoReserve:  1_010_000,
		BaseYesLiquidity:    1_000_000,
		BaseNoLiquidity:     1_000_000,
	}

	if _, err := r.Record(context.Background(), "wallet-1", req); err != nil {
		t.Fatalf("Record: %v", err)
	}

	var updated models.AMMPool
	if err := db.First(&updated, "id = ?", pool.ID).Error; err != nil {
		t.Fatalf("reload pool: %v", err)
	}
	if updated.NoReserve != 1_010_000 {
		t.Fatalf("no_reserve = %d, want %d", updated.NoReserve, 1_010_000)
	}
	if updated.YesReserve != 990_100 {
		t.Fatalf("yes_reserve = %d, want %d", updated.YesReserve, 990_100)
	}
}

func TestRecordIsIdempotentBySignature(t *testing.T) {
	db := setupTestDB(t)
	pool := seedPool(t, db)
	r := NewRecorder(db)

	req := &models.RecordTradeRequest{
		PoolID:              pool.ID.String(),
		TradeType:           int16(models.TradeTypeBuyYes),
		InputAmount:         10_000,
		OutputAmount:        9_900,
		TransactionSignature: "sig-dup",
		PreTradeYesReserve:  1_000_000,
		PreTradeNoReserve:   1_000_000,
		PostTradeYesReserve: 990_100,
		PostTradeNoReserve:  1_010_000,
		BaseYesLiquidity:    1_000_000,
		BaseNoLiquidity:     1_000_000,
	}

	first, err := r.Record(context.Background(), "wallet-1", req)
	if err != nil {
		t.Fatalf("first Record: %v", err)
	}
	second, err := r.Record(context.Background(), "wallet-1", req)
	if err != nil {
		t.Fatalf("second Record: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected the same trade row to be returned, got %s and %s", first.ID, second.ID)
	}

	var updated models.AMMPool
	if err := db.First(&updated, "id = ?", pool.ID).Error; err != nil {
		t.Fatalf("reload pool: %v", err)
	}
	if updated.NoReserve != 1_010_000 {
		t.Fatalf("replaying a recorded signature must not double-apply the swap: no_reserve = %d, want %d", updated.NoReserve, 1_010_000)
	}
}

func TestUpsertCandleAccumulatesHighLowAndVolume(t *testing.T) {
	db := setupTestDB(t)
	pool := seedPool(t, db)
	r := NewRecorder(db)

	mk := func(sig string, pre, post int64) *models.RecordTradeRequest {
		return &models.RecordTradeRequest{
			PoolID:              pool.ID.String(),
			TradeType:           int16(models.TradeTypeBuyYes),
			InputAmount:         1_000,
			OutputAmount:        990,
			TransactionSignature: sig,
			PreTradeYesReserve:  pre,
			PreTradeNoReserve:   1_000_000,
			PostTradeYesReserve: post,
			PostTradeNoReserve:  1_000_000,
			BaseYesLiquidity:    1_000_000,
			BaseNoLiquidity:     1_000_000,
		}
	}

	if _, err := r.Record(context.Background(), "wallet-1", mk("c1", 1_000_000, 900_000)); err != nil {
		t.Fatalf("Record 1: %v", err)
	}
	if _, err := r.Record(context.Background(), "wallet-1", mk("c2", 900_000, 1_100_000)); err != nil {
		t.Fatalf("Record 2: %v", err)
	}

	var candles []models.PriceCandle
	if err := db.Where("pool_id = ?", pool.ID).Find(&candles).Error; err != nil {
		t.Fatalf("fetch candles: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("expected both trades to fold into one minute bucket, got %d candles", len(candles))
	}
	if candles[0].Volume != 2_000 {
		t.Fatalf("volume = %d, want %d", candles[0].Volume, 2_000)
	}
	// Post-trade prices are 1/1.9 ≈ 0.5263 then 1/2.1 ≈ 0.4762.
	if !candles[0].High.Round(4).Equal(decimal.RequireFromString("0.5263")) {
		t.Fatalf("high = %s, want ≈0.5263 (first trade's post price)", candles[0].High)
	}
	if !candles[0].Low.Round(4).Equal(decimal.RequireFromString("0.4762")) {
		t.Fatalf("low = %s, want ≈0.4762 (second trade's post price)", candles[0].Low)
	}
}

// TestUpsertCandleNormalizesByBaseLiquidity uses a pool seeded with unequal
// base liquidities, where the raw no/(yes+no) YES price and the base-liquidity
// normalized price diverge. A regression to the unnormalized formula would
// produce open≈0.6667/close≈0.7097 here instead of the normalized 0.5/0.55.
func TestUpsertCandleNormalizesByBaseLiquidity(t *testing.T) {
	db := setupTestDB(t)
	pool := seedPool(t, db)
	pool.BaseYesLiquidity = 1_000_000
	pool.BaseNoLiquidity = 2_000_000
	pool.YesReserve = 1_000_000
	pool.NoReserve = 2_000_000
	if err := db.Save(pool).Error; err != nil {
		t.Fatalf("reseed pool with unequal base liquidity: %v", err)
	}
	r := NewRecorder(db)

	req := &models.RecordTradeRequest{
		PoolID:               pool.ID.String(),
		TradeType:            int16(models.TradeTypeBuyYes),
		InputAmount:          200_000,
		OutputAmount:         100_000,
		TransactionSignature: "sig-unequal-base",
		PreTradeYesReserve:   1_000_000,
		PreTradeNoReserve:    2_000_000,
		PostTradeYesReserve:  900_000,
		PostTradeNoReserve:   2_200_000,
		BaseYesLiquidity:     pool.BaseYesLiquidity,
		BaseNoLiquidity:      pool.BaseNoLiquidity,
	}

	if _, err := r.Record(context.Background(), "wallet-1", req); err != nil {
		t.Fatalf("Record: %v", err)
	}

	var candle models.PriceCandle
	if err := db.Where("pool_id = ?", pool.ID).First(&candle).Error; err != nil {
		t.Fatalf("fetch candle: %v", err)
	}

	wantOpen := decimal.NewFromFloat(0.5)
	wantClose := decimal.NewFromFloat(0.55)
	if !candle.Open.Equal(wantOpen) {
		t.Fatalf("open = %s, want %s (normalized by base liquidity, not raw no/(yes+no))", candle.Open, wantOpen)
	}
	if !candle.Close.Equal(wantClose) {
		t.Fatalf("close = %s, want %s (normalized by base liquidity, not raw no/(yes+no))", candle.Close, wantClose)
	}
}

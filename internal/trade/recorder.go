// Package trade records confirmed AMM swaps and reconstructs per-pool OHLC
// candles from pre/post-trade reserves.
package trade

import (
	"context"
	"fmt"
	"time"

	"prediction-market/internal/amm"
	"prediction-market/internal/domainerr"
	"prediction-market/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const candleBucket = time.Minute

// Recorder persists confirmed trades idempotently and folds each one into
// its minute bucket's OHLC candle.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record indexes a confirmed swap. If transaction_signature was already
// recorded, the existing row is returned unchanged — the idempotency
// boundary is the unique constraint on AMMTrade.TransactionSignature.
func (r *Recorder) Record(ctx context.Context, userAddress string, req *models.RecordTradeRequest) (*models.AMMTrade, error) {
	var existing models.AMMTrade
	if err := r.db.WithContext(ctx).
		Where("transaction_signature = ?", req.TransactionSignature).
		First(&existing).Error; err == nil {
		return &existing, nil
	} else if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("check existing trade: %w", err)
	}

	poolID, err := uuid.Parse(req.PoolID)
	if err != nil {
		return nil, domainerr.New(domainerr.InvalidAmount, "invalid pool id")
	}

	var price decimal.Decimal
	if req.OutputAmount > 0 {
		price = decimal.NewFromInt(req.InputAmount).Div(decimal.NewFromInt(req.OutputAmount))
	}

	tradeRecord := &models.AMMTrade{
		PoolID:               poolID,
		UserAddress:          userAddress,
		TradeType:            models.AMMTradeType(req.TradeType),
		InputAmount:          req.InputAmount,
		OutputAmount:         req.OutputAmount,
		ExpectedOutputAmount: req.ExpectedOutputAmount,
		FeeAmount:            req.FeeAmount,
		Price:                price,
		TransactionSignature: req.TransactionSignature,
		Status:               models.AMMTradeStatusConfirmed,
	}

	prePrice := normalizedPrice(req.PreTradeYesReserve, req.PreTradeNoReserve, req.BaseYesLiquidity, req.BaseNoLiquidity)
	postPrice := normalizedPrice(req.PostTradeYesReserve, req.PostTradeNoReserve, req.BaseYesLiquidity, req.BaseNoLiquidity)

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tradeRecord).Error; err != nil {
			return fmt.Errorf("record trade: %w", err)
		}

		var pool models.AMMPool
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&pool, "id = ?", poolID).Error; err != nil {
			return fmt.Errorf("lock pool: %w", err)
		}
		amm.ApplySwap(&pool, models.AMMTradeType(req.TradeType), req.InputAmount, req.OutputAmount)
		if err := tx.Save(&pool).Error; err != nil {
			return fmt.Errorf("update pool reserves: %w", err)
		}

		return upsertCandle(tx, poolID, time.Now(), prePrice, postPrice, req.InputAmount)
	})
	if err != nil {
		return nil, err
	}

	return tradeRecord, nil
}

// normalizedPrice mirrors AMMPool.NormalizedYesPrice: each reserve is
// divided by its base liquidity before taking the YES share, so unequally
// seeded pools still report a comparable price.
func normalizedPrice(yesReserve, noReserve, baseYesLiquidity, baseNoLiquidity int64) decimal.Decimal {
	if baseYesLiquidity == 0 || baseNoLiquidity == 0 {
		return decimal.Zero
	}
	yesNorm := decimal.NewFromInt(yesReserve).Div(decimal.NewFromInt(baseYesLiquidity))
	noNorm := decimal.NewFromInt(noReserve).Div(decimal.NewFromInt(baseNoLiquidity))
	total := yesNorm.Add(noNorm)
	if total.IsZero() {
		return decimal.Zero
	}
	return noNorm.Div(total)
}

// upsertCandle folds one trade into the OHLC candle for the minute bucket
// containing at. open is seeded from prePrice only on the bucket's first
// sample; afterward only high/low/close/volume accumulate.
func upsertCandle(tx *gorm.DB, poolID uuid.UUID, at time.Time, prePrice, postPrice decimal.Decimal, volume int64) error {
	bucketStart := at.Truncate(candleBucket)

	candle := &models.PriceCandle{
		PoolID:      poolID,
		BucketStart: bucketStart,
		Open:        prePrice,
		High:        postPrice,
		Low:         postPrice,
		Close:       postPrice,
		Volume:      volume,
	}

	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "pool_id"}, {Name: "bucket_start"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"high":       gorm.Expr("CASE WHEN price_candles.high > ? THEN price_candles.high ELSE ? END", postPrice, postPrice),
			"low":        gorm.Expr("CASE WHEN price_candles.low < ? THEN price_candles.low ELSE ? END", postPrice, postPrice),
			"close":      postPrice,
			"volume":     gorm.Expr("price_candles.volume + ?", volume),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(candle).Error
}

// History returns candles for a pool within [start, end], oldest first.
func (r *Recorder) History(ctx context.Context, poolID uuid.UUID, start, end time.Time, limit int) ([]models.PriceCandle, error) {
	var candles []models.PriceCandle
	if err := r.db.WithContext(ctx).
		Where("pool_id = ? AND bucket_start BETWEEN ? AND ?", poolID, start, end).
		Order("bucket_start ASC").
		Limit(limit).
		Find(&candles).Error; err != nil {
		return nil, fmt.Errorf("fetch price history: %w", err)
	}
	return candles, nil
}

// Trades returns a pool's trade history, newest first.
func (r *Recorder) Trades(ctx context.Context, poolID uuid.UUID, limit, offset int) ([]models.AMMTrade, error) {
	var trades []models.AMMTrade
	if err := r.db.WithContext(ctx).
		Where("pool_id = ?", poolID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("fetch trade history: %w", err)
	}
	return trades, nil
}

// UserTrades returns a user's trade history in a pool, newest first.
func (r *Recorder) UserTrades(ctx context.Context, poolID uuid.UUID, userAddress string, limit, offset int) ([]models.AMMTrade, error) {
	var trades []models.AMMTrade
	if err := r.db.WithContext(ctx).
		Where("pool_id = ? AND user_address = ?", poolID, userAddress).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("fetch user trades: %w", err)
	}
	return trades, nil
}

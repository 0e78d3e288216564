package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PoolStatus string

const (
	PoolStatusActive PoolStatus = "ACTIVE"
	PoolStatusClosed PoolStatus = "CLOSED"
)

// AMMTradeType mirrors the on-chain Swap instruction's trade_type argument.
type AMMTradeType int16

const (
	TradeTypeBuyYes AMMTradeType = 0
	TradeTypeBuyNo  AMMTradeType = 1
)

type AMMTradeStatus string

const (
	AMMTradeStatusConfirmed AMMTradeStatus = "CONFIRMED"
)

// AMMPool is the off-chain mirror of a CPMM pool PDA over YES/NO outcome tokens.
type AMMPool struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	MarketID         *uint      `gorm:"index" json:"market_id"`
	OnchainPoolID    uint64     `gorm:"uniqueIndex;not null" json:"onchain_pool_id"`
	PoolPDAAddress   string     `gorm:"size:255;uniqueIndex;not null" json:"pool_pda_address"`
	AuthorityPubkey  string     `gorm:"size:255;not null" json:"authority_pubkey"`
	YesMint          string     `gorm:"size:255;not null" json:"yes_mint"`
	NoMint           string     `gorm:"size:255;not null" json:"no_mint"`
	YesReserve       int64      `gorm:"not null" json:"yes_reserve"`
	NoReserve        int64      `gorm:"not null" json:"no_reserve"`
	BaseYesLiquidity int64      `gorm:"not null" json:"base_yes_liquidity"`
	BaseNoLiquidity  int64      `gorm:"not null" json:"base_no_liquidity"`
	FeeBps           int16      `gorm:"not null;default:50" json:"fee_bps"`
	TotalLiquidity   int64      `gorm:"not null;default:0" json:"total_liquidity"`
	Bump             int16      `gorm:"not null;default:0" json:"bump"`
	Status           PoolStatus `gorm:"size:10;not null;default:ACTIVE;index" json:"status"`
	CreatedAt        time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (AMMPool) TableName() string {
	return "amm_pools"
}

// NormalizedYesPrice implements the §4.2 off-chain price formula: each
// reserve is divided by its base liquidity before taking the YES share,
// compensating for unequal seeding.
func (p *AMMPool) NormalizedYesPrice() float64 {
	if p.BaseYesLiquidity == 0 || p.BaseNoLiquidity == 0 {
		return 0
	}
	yesNorm := float64(p.YesReserve) / float64(p.BaseYesLiquidity)
	noNorm := float64(p.NoReserve) / float64(p.BaseNoLiquidity)
	total := yesNorm + noNorm
	if total == 0 {
		return 0
	}
	return noNorm / total
}

// PriceCandle is a minute-bucketed OHLCV row for a pool's YES price.
type PriceCandle struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PoolID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_pool_bucket,unique,priority:1" json:"pool_id"`
	BucketStart time.Time       `gorm:"not null;index:idx_pool_bucket,unique,priority:2" json:"bucket_start"`
	Open        decimal.Decimal `gorm:"type:decimal(12,8);not null" json:"open"`
	High        decimal.Decimal `gorm:"type:decimal(12,8);not null" json:"high"`
	Low         decimal.Decimal `gorm:"type:decimal(12,8);not null" json:"low"`
	Close       decimal.Decimal `gorm:"type:decimal(12,8);not null" json:"close"`
	Volume      int64           `gorm:"not null;default:0" json:"volume"`
	CreatedAt   time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (PriceCandle) TableName() string {
	return "price_candles"
}

// AMMTrade is a confirmed on-chain swap, recorded idempotently by tx signature.
type AMMTrade struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PoolID                uuid.UUID       `gorm:"type:uuid;not null;index" json:"pool_id"`
	UserAddress           string          `gorm:"size:255;not null;index" json:"user_address"`
	TradeType             AMMTradeType    `gorm:"not null" json:"trade_type"`
	InputAmount           int64           `gorm:"not null" json:"input_amount"`
	OutputAmount          int64           `gorm:"not null" json:"output_amount"`
	ExpectedOutputAmount  int64           `gorm:"not null" json:"expected_output_amount"`
	FeeAmount             int64           `gorm:"not null" json:"fee_amount"`
	Price                 decimal.Decimal `gorm:"type:decimal(12,8);not null" json:"price"`
	TransactionSignature  string          `gorm:"size:255;not null;uniqueIndex" json:"transaction_signature"`
	Status                AMMTradeStatus  `gorm:"size:20;not null;default:CONFIRMED" json:"status"`
	CreatedAt             time.Time       `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (AMMTrade) TableName() string {
	return "amm_trades"
}

// ---- Request/Response DTOs ----

// CreatePoolRequest is the request body for InitializePool's off-chain mirror.
type CreatePoolRequest struct {
	MarketID        *uint  `json:"market_id"`
	OnchainPoolID   uint64 `json:"onchain_pool_id" binding:"required"`
	PoolPDAAddress  string `json:"pool_pda_address" binding:"required"`
	AuthorityPubkey string `json:"authority_pubkey" binding:"required"`
	YesMint         string `json:"yes_mint" binding:"required"`
	NoMint          string `json:"no_mint" binding:"required"`
	InitialYes      int64  `json:"initial_yes" binding:"required,min=1"`
	InitialNo       int64  `json:"initial_no" binding:"required,min=1"`
	FeeBps          int16  `json:"fee_bps"`
}

// TradeQuoteRequest is the query params for a no-side-effect trade quote.
type TradeQuoteRequest struct {
	PoolID      string `form:"pool_id" binding:"required"`
	InputAmount int64  `form:"input_amount" binding:"required,min=1"`
	TradeType   int16  `form:"trade_type" binding:"min=0,max=1"`
}

// TradeQuoteResponse is the response for a trade quote.
type TradeQuoteResponse struct {
	OutputAmount    int64   `json:"output_amount"`
	FeeAmount       int64   `json:"fee_amount"`
	PricePerToken   float64 `json:"price_per_token"`
	PriceImpact     float64 `json:"price_impact"`
	MinimumReceived int64   `json:"minimum_received"`
}

// RecordTradeRequest is the request body for recording a confirmed swap.
// Carries the richer payload resolved in SPEC_FULL §9 Open Question 2:
// both the settled FeeAmount and the pre-trade ExpectedOutputAmount, so
// the recorder can reconcile against abnormal slippage after the fact.
type RecordTradeRequest struct {
	PoolID                string `json:"pool_id" binding:"required"`
	TradeType             int16  `json:"trade_type" binding:"min=0,max=1"`
	InputAmount           int64  `json:"input_amount" binding:"required,min=1"`
	OutputAmount          int64  `json:"output_amount" binding:"required,min=1"`
	ExpectedOutputAmount  int64  `json:"expected_output_amount"`
	FeeAmount             int64  `json:"fee_amount"`
	TransactionSignature  string `json:"transaction_signature" binding:"required"`
	PreTradeYesReserve    int64  `json:"pre_trade_yes_reserve" binding:"required"`
	PreTradeNoReserve     int64  `json:"pre_trade_no_reserve" binding:"required"`
	PostTradeYesReserve   int64  `json:"post_trade_yes_reserve" binding:"required"`
	PostTradeNoReserve    int64  `json:"post_trade_no_reserve" binding:"required"`
	BaseYesLiquidity      int64  `json:"base_yes_liquidity" binding:"required"`
	BaseNoLiquidity       int64  `json:"base_no_liquidity" binding:"required"`
}

// PoolResponse is the API response for a pool.
type PoolResponse struct {
	ID               string    `json:"id"`
	MarketID         *uint     `json:"market_id"`
	OnchainPoolID    uint64    `json:"onchain_pool_id"`
	PoolPDAAddress   string    `json:"pool_pda_address"`
	AuthorityPubkey  string    `json:"authority_pubkey"`
	YesMint          string    `json:"yes_mint"`
	NoMint           string    `json:"no_mint"`
	YesReserve       int64     `json:"yes_reserve"`
	NoReserve        int64     `json:"no_reserve"`
	BaseYesLiquidity int64     `json:"base_yes_liquidity"`
	BaseNoLiquidity  int64     `json:"base_no_liquidity"`
	FeeBps           int16     `json:"fee_bps"`
	TotalLiquidity   int64     `json:"total_liquidity"`
	YesPrice         float64   `json:"yes_price"`
	NoPrice          float64   `json:"no_price"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

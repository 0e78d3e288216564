package models

import (
	"time"

	"github.com/google/uuid"
)

// DuelStatus is the on-chain-mirrored lifecycle stage of a Duel.
// "Starting" has no dedicated value: it is the client-observed window
// where Status = Active but time.Now() is still before StartedAt.
type DuelStatus string

const (
	DuelStatusPending   DuelStatus = "PENDING"
	DuelStatusMatched   DuelStatus = "MATCHED"
	DuelStatusActive    DuelStatus = "ACTIVE"
	DuelStatusResolved  DuelStatus = "RESOLVED"
	DuelStatusCancelled DuelStatus = "CANCELLED"
	DuelStatusExpired   DuelStatus = "EXPIRED"
)

// Direction is the bet direction on the underlying symbol.
type Direction int16

const (
	DirectionUp   Direction = 0
	DirectionDown Direction = 1
)

func (d Direction) Opposite() Direction {
	if d == DirectionUp {
		return DirectionDown
	}
	return DirectionUp
}

// Currency identifies the settlement token a Duel's stake is denominated in.
type Currency int16

const (
	CurrencySOL  Currency = 0
	CurrencyPUMP Currency = 1
	CurrencyUSDC Currency = 2
)

// DuelTransactionType distinguishes escrow movements recorded against a Duel.
type DuelTransactionType string

const (
	DuelTransactionTypeDeposit DuelTransactionType = "DEPOSIT"
	DuelTransactionTypePayout  DuelTransactionType = "PAYOUT"
	DuelTransactionTypeRefund  DuelTransactionType = "REFUND"
)

type DuelTransactionStatus string

const (
	DuelTransactionStatusPending   DuelTransactionStatus = "PENDING"
	DuelTransactionStatusConfirmed DuelTransactionStatus = "CONFIRMED"
	DuelTransactionStatusFailed    DuelTransactionStatus = "FAILED"
)

// Duel is a 1v1 price-direction wager, mirrored off-chain from the on-chain
// DuelEscrow PDA of the same onchain_duel_id.
type Duel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OnchainDuelID    int64      `gorm:"uniqueIndex;not null" json:"onchain_duel_id"`
	Player1ID        uint       `gorm:"not null;index" json:"player1_id"`
	Player2ID        *uint      `gorm:"index" json:"player2_id"`
	BetAmount        int64      `gorm:"not null" json:"bet_amount"`
	Currency         Currency   `gorm:"not null;default:0" json:"currency"`
	MarketID         uint16     `gorm:"not null;index" json:"market_id"`
	DirectionP1      Direction  `gorm:"not null" json:"direction_p1"`
	DirectionP2      *Direction `json:"direction_p2"`
	Status           DuelStatus `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	EntryPrice       *int64     `json:"entry_price"`
	ExitPrice        *int64     `json:"exit_price"`
	ChartStartPrice  *int64     `json:"chart_start_price"`
	WinnerID         *uint      `json:"winner_id"`
	EscrowTxHash     *string    `gorm:"size:120" json:"escrow_tx_hash"`
	ResolutionTxHash *string    `gorm:"size:120" json:"resolution_tx_hash"`
	ResolveAttempts  int        `gorm:"default:0" json:"resolve_attempts"`
	NeedsManualRetry bool       `gorm:"default:false;index" json:"needs_manual_retry"`
	CreatedAt        time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	StartingAt       *time.Time `json:"starting_at"`
	StartedAt        *time.Time `json:"started_at"`
	ResolvedAt       *time.Time `json:"resolved_at"`
	ExpiresAt        time.Time  `gorm:"not null;index" json:"expires_at"`
	UpdatedAt        time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Duel) TableName() string {
	return "duels"
}

// DueForResolution reports whether, given now, the duel has crossed into
// "due for resolution" territory for the resolution sweep.
func (d *Duel) DueForResolution(now time.Time, duration time.Duration) bool {
	return d.Status == DuelStatusActive && d.StartedAt != nil && !now.Before(d.StartedAt.Add(duration))
}

// DuelTransaction is an escrow movement (deposit/payout/refund) against a Duel.
type DuelTransaction struct {
	ID            uuid.UUID             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DuelID        uuid.UUID             `gorm:"type:uuid;not null;index" json:"duel_id"`
	UserID        uint                  `gorm:"not null;index" json:"user_id"`
	Type          DuelTransactionType   `gorm:"size:20;not null" json:"type"`
	TxHash        *string               `gorm:"size:120" json:"tx_hash"`
	Status        DuelTransactionStatus `gorm:"size:20;not null;default:PENDING" json:"status"`
	Confirmations int16                 `gorm:"default:0" json:"confirmations"`
	Amount        int64                 `gorm:"not null" json:"amount"`
	CreatedAt     time.Time             `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	ConfirmedAt   *time.Time            `json:"confirmed_at"`
}

func (DuelTransaction) TableName() string {
	return "duel_transactions"
}

// DuelStatistics holds the derived per-user counters, upserted atomically on Resolve.
type DuelStatistics struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID       uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	TotalDuels   int64     `gorm:"default:0" json:"total_duels"`
	Wins         int64     `gorm:"default:0" json:"wins"`
	Losses       int64     `gorm:"default:0" json:"losses"`
	TotalWagered int64     `gorm:"default:0" json:"total_wagered"`
	TotalWon     int64     `gorm:"default:0" json:"total_won"`
	TotalLost    int64     `gorm:"default:0" json:"total_lost"`
	WinRate      float64   `gorm:"type:decimal(5,2);default:0" json:"win_rate"`
	AvgBet       float64   `gorm:"type:decimal(20,8);default:0" json:"avg_bet"`
	UpdatedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (DuelStatistics) TableName() string {
	return "duel_statistics"
}

// DuelResult is the immutable outcome record of a resolved (or tied) Duel.
type DuelResult struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DuelID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"duel_id"`
	WinnerID        *uint     `json:"winner_id"`
	LoserID         *uint     `json:"loser_id"`
	Tied            bool      `gorm:"not null;default:false" json:"tied"`
	GrossPot        int64     `gorm:"not null" json:"gross_pot"`
	FeeAmount       int64     `gorm:"not null" json:"fee_amount"`
	WinnerPayout    int64     `gorm:"not null" json:"winner_payout"`
	EntryPrice      int64     `gorm:"not null" json:"entry_price"`
	ExitPrice       int64     `gorm:"not null" json:"exit_price"`
	DurationSeconds int64     `gorm:"not null" json:"duration_seconds"`
	CreatedAt       time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (DuelResult) TableName() string {
	return "duel_results"
}

// DuelPriceCandle is a 1-second-grained OHLCV sample streamed from PriceSource
// while a Duel is Active, kept for chart replay only — never authoritative
// for resolution.
type DuelPriceCandle struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DuelID    uuid.UUID `gorm:"type:uuid;not null;index" json:"duel_id"`
	BucketTS  int64     `gorm:"not null;index" json:"bucket_ts"`
	Open      int64     `gorm:"not null" json:"open"`
	High      int64     `gorm:"not null" json:"high"`
	Low       int64     `gorm:"not null" json:"low"`
	Close     int64     `gorm:"not null" json:"close"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (DuelPriceCandle) TableName() string {
	return "duel_price_candles"
}

// CreateDuelRequest mirrors a client-confirmed on-chain CreateDuel call.
type CreateDuelRequest struct {
	BetAmount int64  `json:"bet_amount" binding:"required,gt=0"`
	Currency  int16  `json:"currency"`
	MarketID  uint16 `json:"market_id" binding:"required"`
	Direction int16  `json:"direction"`
	Signature string `json:"signature" binding:"required"`
}

// JoinDuelRequest mirrors a client-confirmed on-chain JoinDuel call.
type JoinDuelRequest struct {
	Signature string `json:"signature" binding:"required"`
}

// DuelResponse is the wire shape returned by duel read endpoints.
type DuelResponse struct {
	ID              string      `json:"id"`
	OnchainDuelID   int64       `json:"onchain_duel_id"`
	Player1ID       uint        `json:"player1_id"`
	Player2ID       *uint       `json:"player2_id"`
	BetAmount       int64       `json:"bet_amount"`
	Currency        int16       `json:"currency"`
	MarketID        uint16      `json:"market_id"`
	DirectionP1     int16       `json:"direction_p1"`
	DirectionP2     *int16      `json:"direction_p2"`
	Status          string      `json:"status"`
	EntryPrice      *int64      `json:"entry_price"`
	ExitPrice       *int64      `json:"exit_price"`
	ChartStartPrice *int64      `json:"chart_start_price"`
	WinnerID        *uint       `json:"winner_id"`
	CreatedAt       time.Time   `json:"created_at"`
	StartingAt      *time.Time  `json:"starting_at"`
	StartedAt       *time.Time  `json:"started_at"`
	ResolvedAt      *time.Time  `json:"resolved_at"`
	ExpiresAt       time.Time   `json:"expires_at"`
	Result          *DuelResult `json:"result,omitempty"`
}

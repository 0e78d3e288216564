package duel

import (
	"context"
	"testing"
	"time"

	"prediction-market/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestConfirmedTrustsDispatchWhenVerifierNil(t *testing.T) {
	r := &Resolver{}
	ok, err := r.confirmed(context.Background(), "any-signature")
	if err != nil {
		t.Fatalf("confirmed: %v", err)
	}
	if !ok {
		t.Fatalf("expected a nil verifier to trust the dispatch result")
	}
}

func newActiveDuel(t *testing.T, db *gorm.DB, p1, p2 uint, directionP1 models.Direction, entryPrice int64) *models.Duel {
	directionP2 := directionP1.Opposite()
	betAmount := int64(1_000_000)
	d := &models.Duel{
		ID:            uuid.New(),
		OnchainDuelID: 1,
		Player1ID:     p1,
		Player2ID:     &p2,
		BetAmount:     betAmount,
		Currency:      models.CurrencySOL,
		MarketID:      1,
		DirectionP1:   directionP1,
		DirectionP2:   &directionP2,
		Status:        models.DuelStatusActive,
		EntryPrice:    &entryPrice,
		CreatedAt:     time.Now(),
		ExpiresAt:     time.Now().Add(pendingTTL),
	}
	if err := db.Create(d).Error; err != nil {
		t.Fatalf("seed duel: %v", err)
	}
	return d
}

func TestSettleAppliesFeeAndCreditsWinner(t *testing.T) {
	db := setupTestDB(t)
	player1 := seedUser(t, db, "wallet-1")
	player2 := seedUser(t, db, "wallet-2")
	d := newActiveDuel(t, db, player1.ID, player2.ID, models.DirectionUp, 100_000_000)

	r := &Resolver{svc: NewService(db, nil, erroringSource{}), repo: newRepository(db), db: db}
	if err := r.settle(db, d, 110_000_000, "sig-resolve"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	wantGross := 2 * d.BetAmount
	wantFee := wantGross * platformFeeBps / 10_000
	wantPayout := wantGross - wantFee

	var result models.DuelResult
	if err := db.First(&result, "duel_id = ?", d.ID).Error; err != nil {
		t.Fatalf("fetch result: %v", err)
	}
	if result.FeeAmount != wantFee {
		t.Fatalf("fee = %d, want %d", result.FeeAmount, wantFee)
	}
	if result.WinnerPayout != wantPayout {
		t.Fatalf("winner payout = %d, want %d", result.WinnerPayout, wantPayout)
	}
	if result.WinnerID == nil || *result.WinnerID != player1.ID {
		t.Fatalf("winner = %v, want player1 (price rose and player1 bet Up)", result.WinnerID)
	}

	var stats models.DuelStatistics
	if err := db.First(&stats, "user_id = ?", player1.ID).Error; err != nil {
		t.Fatalf("fetch winner statistics: %v", err)
	}
	if stats.Wins != 1 || stats.TotalWon != wantPayout {
		t.Fatalf("winner statistics = %+v, want wins=1 total_won=%d", stats, wantPayout)
	}
}

func TestSettleTiesCancelWithNoPayout(t *testing.T) {
	db := setupTestDB(t)
	player1 := seedUser(t, db, "wallet-1")
	player2 := seedUser(t, db, "wallet-2")
	d := newActiveDuel(t, db, player1.ID, player2.ID, models.DirectionUp, 100_000_000)

	r := &Resolver{svc: NewService(db, nil, erroringSource{}), repo: newRepository(db), db: db}
	if err := r.settle(db, d, 100_000_000, "sig-tie"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	if d.Status != models.DuelStatusCancelled {
		t.Fatalf("status = %s, want CANCELLED on a tie", d.Status)
	}

	var result models.DuelResult
	if err := db.First(&result, "duel_id = ?", d.ID).Error; err != nil {
		t.Fatalf("fetch result: %v", err)
	}
	if !result.Tied || result.WinnerPayout != 0 || result.FeeAmount != 0 {
		t.Fatalf("tie result = %+v, want tied=true winner_payout=0 fee_amount=0", result)
	}
}

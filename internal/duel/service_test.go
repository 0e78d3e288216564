package duel

import (
	"context"
	"testing"
	"time"

	"prediction-market/internal/domainerr"
	"prediction-market/internal/models"
	"prediction-market/internal/priceoracle"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// erroringSource always fails Current, so JoinDuel's swallowed startDuel
// retry never reaches the nil *onchain.Client these tests run without.
type erroringSource struct{}

func (erroringSource) Current(symbol string) (priceoracle.Sample, error) {
	return priceoracle.Sample{}, domainerr.New(domainerr.SourceUnavailable, "no provider in test")
}
func (erroringSource) At(symbol string, ts time.Time) (float64, error) { return 0, nil }
func (erroringSource) Candles(symbol string, interval time.Duration, limit int) ([]priceoracle.Candle, error) {
	return nil, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Duel{}, &models.DuelTransaction{}, &models.DuelStatistics{}, &models.DuelResult{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, wallet string) *models.User {
	u := &models.User{WalletAddress: wallet}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func TestCreateDuelRejectsOutOfBoundsBet(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil, erroringSource{})
	player1 := seedUser(t, db, "wallet-1")

	req := &models.CreateDuelRequest{
		BetAmount: 1, // far below MIN_BET for SOL's 9-decimal unit
		Currency:  int16(models.CurrencySOL),
		MarketID:  1,
		Direction: int16(models.DirectionUp),
		Signature: "sig-create",
	}

	_, err := svc.CreateDuel(context.Background(), player1.ID, req)
	if err == nil {
		t.Fatalf("expected an error for a bet amount below MIN_BET")
	}
	de, ok := err.(*domainerr.Error)
	if !ok || de.Code != domainerr.InvalidAmount {
		t.Fatalf("expected InvalidAmount, got %v", err)
	}
}

func TestCreateDuelRejectsUnknownMarket(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil, erroringSource{})
	player1 := seedUser(t, db, "wallet-1")

	min, _, _ := betBounds(models.CurrencySOL)
	req := &models.CreateDuelRequest{
		BetAmount: min,
		Currency:  int16(models.CurrencySOL),
		MarketID:  999,
		Direction: int16(models.DirectionUp),
		Signature: "sig-create",
	}

	_, err := svc.CreateDuel(context.Background(), player1.ID, req)
	if err == nil {
		t.Fatalf("expected an error for an unknown market_id")
	}
	if de, ok := err.(*domainerr.Error); !ok || de.Code != domainerr.UnknownSymbol {
		t.Fatalf("expected UnknownSymbol, got %v", err)
	}
}

func TestCreateDuelPersistsPendingDuelWithinExpiry(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil, erroringSource{})
	player1 := seedUser(t, db, "wallet-1")

	min, _, _ := betBounds(models.CurrencySOL)
	req := &models.CreateDuelRequest{
		BetAmount: min,
		Currency:  int16(models.CurrencySOL),
		MarketID:  1,
		Direction: int16(models.DirectionUp),
		Signature: "sig-create",
	}

	before := time.Now()
	d, err := svc.CreateDuel(context.Background(), player1.ID, req)
	if err != nil {
		t.Fatalf("CreateDuel: %v", err)
	}
	if d.Status != models.DuelStatusPending {
		t.Fatalf("status = %s, want PENDING", d.Status)
	}
	if !d.ExpiresAt.After(before.Add(pendingTTL - time.Second)) {
		t.Fatalf("expires_at %v is not ~%s after creation", d.ExpiresAt, pendingTTL)
	}

	var txCount int64
	db.Model(&models.DuelTransaction{}).Where("duel_id = ?", d.ID).Count(&txCount)
	if txCount != 1 {
		t.Fatalf("expected one deposit transaction recorded, got %d", txCount)
	}
}

func TestJoinDuelRejectsSelfJoin(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil, erroringSource{})
	player1 := seedUser(t, db, "wallet-1")

	min, _, _ := betBounds(models.CurrencySOL)
	d, err := svc.CreateDuel(context.Background(), player1.ID, &models.CreateDuelRequest{
		BetAmount: min, Currency: int16(models.CurrencySOL), MarketID: 1, Direction: int16(models.DirectionUp), Signature: "s1",
	})
	if err != nil {
		t.Fatalf("CreateDuel: %v", err)
	}

	_, err = svc.JoinDuel(context.Background(), d.ID, player1.ID, &models.JoinDuelRequest{Signature: "s2"})
	if err == nil {
		t.Fatalf("expected an error when a player tries to join their own duel")
	}
	if de, ok := err.(*domainerr.Error); !ok || de.Code != domainerr.SelfJoinForbidden {
		t.Fatalf("expected SelfJoinForbidden, got %v", err)
	}
}

func TestJoinDuelAssignsOppositeDirectionAndMatches(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil, erroringSource{})
	player1 := seedUser(t, db, "wallet-1")
	player2 := seedUser(t, db, "wallet-2")

	min, _, _ := betBounds(models.CurrencySOL)
	d, err := svc.CreateDuel(context.Background(), player1.ID, &models.CreateDuelRequest{
		BetAmount: min, Currency: int16(models.CurrencySOL), MarketID: 1, Direction: int16(models.DirectionUp), Signature: "s1",
	})
	if err != nil {
		t.Fatalf("CreateDuel: %v", err)
	}

	joined, err := svc.JoinDuel(context.Background(), d.ID, player2.ID, &models.JoinDuelRequest{Signature: "s2"})
	if err != nil {
		t.Fatalf("JoinDuel: %v", err)
	}
	if joined.Status != models.DuelStatusMatched {
		t.Fatalf("status = %s, want MATCHED (StartDuel dispatch is expected to fail and be swallowed in this test)", joined.Status)
	}
	if joined.DirectionP2 == nil || *joined.DirectionP2 != models.DirectionDown {
		t.Fatalf("direction_p2 = %v, want DOWN (opposite of player1's UP)", joined.DirectionP2)
	}
}

func TestJoinDuelRejectsAlreadyMatchedDuel(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db, nil, erroringSource{})
	player1 := seedUser(t, db, "wallet-1")
	player2 := seedUser(t, db, "wallet-2")
	player3 := seedUser(t, db, "wallet-3")

	min, _, _ := betBounds(models.CurrencySOL)
	d, err := svc.CreateDuel(context.Background(), player1.ID, &models.CreateDuelRequest{
		BetAmount: min, Currency: int16(models.CurrencySOL), MarketID: 1, Direction: int16(models.DirectionUp), Signature: "s1",
	})
	if err != nil {
		t.Fatalf("CreateDuel: %v", err)
	}
	if _, err := svc.JoinDuel(context.Background(), d.ID, player2.ID, &models.JoinDuelRequest{Signature: "s2"}); err != nil {
		t.Fatalf("first JoinDuel: %v", err)
	}

	_, err = svc.JoinDuel(context.Background(), d.ID, player3.ID, &models.JoinDuelRequest{Signature: "s3"})
	if err == nil {
		t.Fatalf("expected an error joining an already-matched duel")
	}
	if de, ok := err.(*domainerr.Error); !ok || de.Code != domainerr.DuelNotJoinable {
		t.Fatalf("expected DuelNotJoinable, got %v", err)
	}
}

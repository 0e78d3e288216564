// Package duel implements the off-chain mirror and coordinator for 1v1
// price-direction wagers: CreateDuel/JoinDuel intake, the expiry and
// resolution sweeps, and the derived per-user statistics ledger.
package duel

import (
	"context"
	"fmt"
	"time"

	"prediction-market/internal/domainerr"
	"prediction-market/internal/models"
	"prediction-market/internal/onchain"
	"prediction-market/internal/priceoracle"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service handles the user-facing intake side of the Duel lifecycle:
// CreateDuel and JoinDuel mirror on-chain instructions the client has
// already confirmed. JoinDuel also dispatches StartDuel right after the
// join; Resolver's background sweeps retry a StartDuel that failed and own
// ResolveDuel/CancelDuel dispatch.
type Service struct {
	db     *gorm.DB
	repo   *repository
	onc    *onchain.Client
	prices priceoracle.Source
	hub    *Hub
}

func NewService(db *gorm.DB, onc *onchain.Client, prices priceoracle.Source) *Service {
	return &Service{db: db, repo: newRepository(db), onc: onc, prices: prices}
}

// SetHub wires the websocket broadcaster used for /api/duels/:id/stream.
// Optional: a nil hub means state transitions simply aren't broadcast.
func (s *Service) SetHub(hub *Hub) {
	s.hub = hub
}

func (s *Service) notify(d *models.Duel) {
	if s.hub != nil {
		s.hub.broadcastDuel(d)
	}
}

// CreateDuel mirrors a client-confirmed on-chain CreateDuel call.
func (s *Service) CreateDuel(ctx context.Context, player1ID uint, req *models.CreateDuelRequest) (*models.Duel, error) {
	currency := models.Currency(req.Currency)
	min, max, ok := betBounds(currency)
	if !ok {
		return nil, domainerr.New(domainerr.InvalidAmount, "unsupported currency")
	}
	if req.BetAmount < min || req.BetAmount > max {
		return nil, domainerr.New(domainerr.InvalidAmount, "bet amount outside allowed range")
	}
	direction := models.Direction(req.Direction)
	if direction != models.DirectionUp && direction != models.DirectionDown {
		return nil, domainerr.New(domainerr.InvalidDirection, "direction must be up or down")
	}
	if _, ok := symbolOf(req.MarketID); !ok {
		return nil, domainerr.New(domainerr.UnknownSymbol, "unknown market_id")
	}

	now := time.Now()
	duel := &models.Duel{
		OnchainDuelID: generateOnchainDuelID(),
		Player1ID:     player1ID,
		BetAmount:     req.BetAmount,
		Currency:      currency,
		MarketID:      req.MarketID,
		DirectionP1:   direction,
		Status:        models.DuelStatusPending,
		EscrowTxHash:  &req.Signature,
		CreatedAt:     now,
		ExpiresAt:     now.Add(pendingTTL),
		UpdatedAt:     now,
	}
	if err := s.repo.create(ctx, duel); err != nil {
		return nil, fmt.Errorf("persist duel: %w", err)
	}

	if err := s.repo.createTransaction(ctx, &models.DuelTransaction{
		DuelID: duel.ID,
		UserID: player1ID,
		Type:   models.DuelTransactionTypeDeposit,
		TxHash: &req.Signature,
		Status: models.DuelTransactionStatusConfirmed,
		Amount: req.BetAmount,
	}); err != nil {
		return nil, fmt.Errorf("record deposit: %w", err)
	}

	return duel, nil
}

// JoinDuel mirrors a client-confirmed on-chain JoinDuel call, then nudges
// the matchmaking transition by dispatching StartDuel with a freshly
// observed entry price.
func (s *Service) JoinDuel(ctx context.Context, duelID uuid.UUID, player2ID uint, req *models.JoinDuelRequest) (*models.Duel, error) {
	var result *models.Duel

	err := s.repo.withLock(ctx, duelID, func(tx *gorm.DB, d *models.Duel) error {
		if d.Status != models.DuelStatusPending {
			return domainerr.New(domainerr.DuelNotJoinable, "duel is not open to join")
		}
		if d.Player1ID == player2ID {
			return domainerr.New(domainerr.SelfJoinForbidden, "cannot join your own duel")
		}
		if !time.Now().Before(d.ExpiresAt) {
			return domainerr.New(domainerr.DuelExpired, "duel has expired")
		}

		oppositeDir := d.DirectionP1.Opposite()
		d.Player2ID = &player2ID
		d.DirectionP2 = &oppositeDir
		d.Status = models.DuelStatusMatched
		d.UpdatedAt = time.Now()
		if err := tx.Save(d).Error; err != nil {
			return fmt.Errorf("persist matched duel: %w", err)
		}

		if err := tx.Create(&models.DuelTransaction{
			DuelID: d.ID,
			UserID: player2ID,
			Type:   models.DuelTransactionTypeDeposit,
			TxHash: &req.Signature,
			Status: models.DuelTransactionStatusConfirmed,
			Amount: d.BetAmount,
		}).Error; err != nil {
			return fmt.Errorf("record deposit: %w", err)
		}

		result = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(result)

	if err := s.startDuel(ctx, result); err != nil {
		// StartDuel dispatch failure leaves the duel Matched; the next
		// manual retry or sweep can attempt it again. The join itself
		// already succeeded off-chain and is not rolled back.
		return result, nil
	}
	return result, nil
}

// startDuel fetches a fresh entry price and dispatches StartDuel, advancing
// the mirrored row to Active with the §9 Starting countdown recorded.
func (s *Service) startDuel(ctx context.Context, d *models.Duel) error {
	symbol, ok := symbolOf(d.MarketID)
	if !ok {
		return domainerr.New(domainerr.UnknownSymbol, "unknown market_id")
	}
	sample, err := s.prices.Current(symbol)
	if err != nil {
		return err
	}
	entryPrice := priceToFixedPoint(sample.Price)

	rpcCtx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()
	sig, err := s.onc.StartDuel(rpcCtx, uint64(d.OnchainDuelID), entryPrice)
	if err != nil {
		return domainerr.Wrap(domainerr.TransactionFailed, err)
	}

	now := time.Now()
	startingAt := now
	startedAt := now.Add(countdown)
	entryPriceSigned := int64(entryPrice)
	err = s.repo.withLock(ctx, d.ID, func(tx *gorm.DB, row *models.Duel) error {
		row.EntryPrice = &entryPriceSigned
		row.ChartStartPrice = &entryPriceSigned
		row.Status = models.DuelStatusActive
		row.StartingAt = &startingAt
		row.StartedAt = &startedAt
		row.ResolutionTxHash = &sig
		row.UpdatedAt = now
		return tx.Save(row).Error
	})
	if err != nil {
		return err
	}
	s.notify(d)
	return nil
}

func (s *Service) GetDuel(ctx context.Context, id uuid.UUID) (*models.Duel, *models.DuelResult, error) {
	d, err := s.repo.getByID(ctx, id)
	if err != nil {
		return nil, nil, domainerr.New(domainerr.NotFound, "duel not found")
	}
	if d.Status != models.DuelStatusResolved && d.Status != models.DuelStatusCancelled {
		return d, nil, nil
	}
	result, err := s.repo.getResult(ctx, id)
	if err != nil {
		return d, nil, nil
	}
	return d, result, nil
}

func (s *Service) ListAvailable(ctx context.Context, limit, offset int) ([]models.Duel, error) {
	return s.repo.listAvailable(ctx, limit, offset)
}

func (s *Service) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]models.Duel, error) {
	return s.repo.listForUser(ctx, userID, limit, offset)
}

func (s *Service) Statistics(ctx context.Context, userID uint) (*models.DuelStatistics, error) {
	stats, err := s.repo.getStatistics(ctx, userID)
	if err != nil {
		return &models.DuelStatistics{UserID: userID}, nil
	}
	return stats, nil
}

// priceToFixedPoint converts a floating USD price to the 1e8 fixed-point
// representation StartDuel/ResolveDuel exchange on chain (§6).
func priceToFixedPoint(price float64) uint64 {
	return uint64(price * 1e8)
}

// generateOnchainDuelID derives the next on-chain duel id. The real
// deployment reads this from the program's global duel counter account;
// here it is a monotonic clock-derived id, unique enough for the mirror's
// uniqueIndex and replaced by the authoritative value once the client's
// CreateDuel transaction confirms on-chain.
func generateOnchainDuelID() int64 {
	return time.Now().UnixNano()
}

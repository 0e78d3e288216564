package duel

import (
	"context"
	"fmt"
	"log"
	"time"

	"prediction-market/internal/domainerr"
	"prediction-market/internal/models"
	"prediction-market/internal/onchain"

	"github.com/gagliardetto/solana-go"
	"gorm.io/gorm"
)

// Resolver is the background coordinator driving the three sweeps named in
// §4.3: expiry, stalled-matchmaking retry, and resolution. One Resolver per
// process is expected; multiple instances serialize correctly because every
// mutation goes through repository.withLock (SELECT ... FOR UPDATE).
type Resolver struct {
	svc      *Service
	repo     *repository
	db       *gorm.DB
	verifier *onchain.RawRPCClient

	expiryTicker  *time.Ticker
	resolveTicker *time.Ticker
	stopChan      chan struct{}
}

// NewResolver wires verifier, a read-only RPC client independent of the
// signing onchain.Client, so every settlement transaction the sweeps
// dispatch is confirmed on-chain before its effects are trusted.
func NewResolver(svc *Service, db *gorm.DB, verifier *onchain.RawRPCClient) *Resolver {
	return &Resolver{
		svc:      svc,
		repo:     newRepository(db),
		db:       db,
		verifier: verifier,
	}
}

// confirmed blocks until sig clears requiredConfirmations, or rpcTimeout
// elapses. A nil verifier (e.g. in tests) trusts the dispatch result as-is.
func (r *Resolver) confirmed(ctx context.Context, sig string) (bool, error) {
	if r.verifier == nil {
		return true, nil
	}
	rpcCtx, cancel := context.WithTimeout(ctx, rpcTimeout)
	defer cancel()
	for {
		ok, err := r.verifier.VerifyTransaction(rpcCtx, sig, requiredConfirmations)
		if err == nil && ok {
			return true, nil
		}
		select {
		case <-rpcCtx.Done():
			return false, err
		case <-time.After(time.Second):
		}
	}
}

func (r *Resolver) Start() {
	r.expiryTicker = time.NewTicker(expiryPollInterval)
	r.resolveTicker = time.NewTicker(resolvePollInterval)
	r.stopChan = make(chan struct{})

	go func() {
		for {
			select {
			case <-r.expiryTicker.C:
				r.sweepExpired()
				r.sweepStalledMatches()
			case <-r.resolveTicker.C:
				r.sweepDueForResolution()
			case <-r.stopChan:
				return
			}
		}
	}()
}

func (r *Resolver) Stop() {
	if r.stopChan == nil {
		return
	}
	close(r.stopChan)
	r.expiryTicker.Stop()
	r.resolveTicker.Stop()
}

// sweepExpired cancels every Pending duel past its expiry, refunding player1.
func (r *Resolver) sweepExpired() {
	ctx := context.Background()
	duels, err := r.repo.listExpirable(ctx, time.Now(), 50)
	if err != nil {
		log.Printf("[duel resolver] list expirable: %v", err)
		return
	}

	for _, d := range duels {
		if err := r.cancelExpired(ctx, d); err != nil {
			log.Printf("[duel resolver] cancel expired duel %s: %v", d.ID, err)
		}
	}
}

func (r *Resolver) cancelExpired(ctx context.Context, d models.Duel) error {
	return r.repo.withLock(ctx, d.ID, func(tx *gorm.DB, row *models.Duel) error {
		if row.Status != models.DuelStatusPending || !time.Now().After(row.ExpiresAt) {
			return nil
		}

		player1, err := loadWallet(tx, row.Player1ID)
		if err != nil {
			return err
		}
		vault, _, err := onchain.DuelPDA(r.svc.onc.ProgramID(), uint64(row.OnchainDuelID))
		if err != nil {
			return err
		}

		rpcCtx, cancel := context.WithTimeout(ctx, rpcTimeout)
		sig, err := r.svc.onc.CancelDuel(rpcCtx, uint64(row.OnchainDuelID), player1, vault)
		cancel()
		if err != nil {
			// Leave Pending; next sweep retries. Not a permanent failure.
			return domainerr.Wrap(domainerr.TransactionFailed, err)
		}
		ok, err := r.confirmed(ctx, sig)
		if err != nil {
			return domainerr.Wrap(domainerr.TransactionFailed, err)
		}
		if !ok {
			// Leave Pending; next sweep retries the dispatch.
			return domainerr.New(domainerr.TransactionFailed, fmt.Sprintf("cancel duel %s not confirmed", row.ID))
		}

		row.Status = models.DuelStatusExpired
		row.ResolutionTxHash = &sig
		row.UpdatedAt = time.Now()
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		r.svc.notify(row)
		return nil
	})
}

// sweepStalledMatches retries StartDuel for duels that matched but whose
// dispatch failed or never ran (service.JoinDuel swallows that failure so
// the join itself isn't rolled back).
func (r *Resolver) sweepStalledMatches() {
	ctx := context.Background()
	var duels []models.Duel
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.DuelStatusMatched).
		Limit(50).
		Find(&duels).Error; err != nil {
		log.Printf("[duel resolver] list stalled matches: %v", err)
		return
	}
	for _, d := range duels {
		if err := r.svc.startDuel(ctx, &d); err != nil {
			log.Printf("[duel resolver] retry StartDuel for %s: %v", d.ID, err)
		}
	}
}

// sweepDueForResolution resolves every Active duel whose duration has
// elapsed, fetching a fresh exit price (never from streamed candles, §4.3.4).
// Duels flagged NeedsManualRetry are skipped; after a failed attempt the next
// one waits resolvePollInterval doubled per attempt already made.
func (r *Resolver) sweepDueForResolution() {
	ctx := context.Background()
	duels, err := r.repo.listActive(ctx, 50)
	if err != nil {
		log.Printf("[duel resolver] list active: %v", err)
		return
	}

	now := time.Now()
	for _, d := range duels {
		if d.NeedsManualRetry || !d.DueForResolution(now, duelDuration) {
			continue
		}
		if d.ResolveAttempts > 0 && now.Before(d.UpdatedAt.Add(resolvePollInterval<<uint(d.ResolveAttempts-1))) {
			continue
		}
		if err := r.resolve(ctx, d); err != nil {
			log.Printf("[duel resolver] resolve duel %s: %v", d.ID, err)
		}
	}
}

func (r *Resolver) resolve(ctx context.Context, d models.Duel) error {
	symbol, ok := symbolOf(d.MarketID)
	if !ok {
		return domainerr.New(domainerr.UnknownSymbol, "unknown market_id")
	}
	sample, err := r.svc.prices.Current(symbol)
	if err != nil {
		return err
	}
	exitPrice := priceToFixedPoint(sample.Price)

	return r.repo.withLock(ctx, d.ID, func(tx *gorm.DB, row *models.Duel) error {
		if row.Status != models.DuelStatusActive || row.EntryPrice == nil || row.Player2ID == nil {
			return nil
		}
		if !row.DueForResolution(time.Now(), duelDuration) {
			return nil
		}

		player1, err := loadWallet(tx, row.Player1ID)
		if err != nil {
			return err
		}
		player2, err := loadWallet(tx, *row.Player2ID)
		if err != nil {
			return err
		}

		rpcCtx, cancel := context.WithTimeout(ctx, rpcTimeout)
		sig, err := r.svc.onc.ResolveDuel(rpcCtx, uint64(row.OnchainDuelID), exitPrice, player1, player2)
		cancel()

		confirmErr := err
		if err == nil {
			var ok bool
			ok, confirmErr = r.confirmed(ctx, sig)
			if confirmErr == nil && !ok {
				confirmErr = fmt.Errorf("resolve duel %s not confirmed", row.ID)
			}
		}
		if confirmErr != nil {
			row.ResolveAttempts++
			if row.ResolveAttempts >= resolveMaxAttempts {
				row.NeedsManualRetry = true
			}
			row.UpdatedAt = time.Now()
			if saveErr := tx.Save(row).Error; saveErr != nil {
				return saveErr
			}
			return domainerr.Wrap(domainerr.TransactionFailed, confirmErr)
		}

		return r.settle(tx, row, exitPrice, sig)
	})
}

// settle applies the §4.3 winner rule and §4.4's single atomic transaction:
// terminal Duel state, DuelResult, and both players' DuelStatistics deltas.
func (r *Resolver) settle(tx *gorm.DB, row *models.Duel, exitPrice uint64, sig string) error {
	now := time.Now()
	entryPrice := *row.EntryPrice
	exit := int64(exitPrice)
	delta := exit - entryPrice

	row.ExitPrice = &exit
	row.ResolutionTxHash = &sig
	row.ResolvedAt = &now
	row.UpdatedAt = now

	gross := 2 * row.BetAmount
	fee := (gross * platformFeeBps) / 10_000
	winnerPayout := gross - fee

	result := &models.DuelResult{
		DuelID:          row.ID,
		GrossPot:        gross,
		FeeAmount:       fee,
		WinnerPayout:    winnerPayout,
		EntryPrice:      entryPrice,
		ExitPrice:       exit,
		DurationSeconds: int64(duelDuration.Seconds()),
	}

	if delta == 0 {
		row.Status = models.DuelStatusCancelled
		result.Tied = true
		result.WinnerPayout = 0
		result.FeeAmount = 0
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		if err := r.repo.createResult(context.Background(), tx, result); err != nil {
			return err
		}
		r.svc.notify(row)
		return nil
	}

	row.Status = models.DuelStatusResolved

	var winnerID, loserID uint
	p1Up := row.DirectionP1 == models.DirectionUp
	p1Wins := (delta > 0 && p1Up) || (delta < 0 && !p1Up)
	if p1Wins {
		winnerID, loserID = row.Player1ID, *row.Player2ID
	} else {
		winnerID, loserID = *row.Player2ID, row.Player1ID
	}
	row.WinnerID = &winnerID
	result.WinnerID = &winnerID
	result.LoserID = &loserID

	if err := tx.Save(row).Error; err != nil {
		return err
	}
	if err := r.repo.createResult(context.Background(), tx, result); err != nil {
		return err
	}

	if err := r.repo.incrementStatistics(tx, winnerID, 1, 1, 0, row.BetAmount, winnerPayout, 0); err != nil {
		return fmt.Errorf("increment winner statistics: %w", err)
	}
	if err := r.repo.incrementStatistics(tx, loserID, 1, 0, 1, row.BetAmount, 0, row.BetAmount); err != nil {
		return fmt.Errorf("increment loser statistics: %w", err)
	}
	r.svc.notify(row)
	return nil
}

func loadWallet(tx *gorm.DB, userID uint) (solana.PublicKey, error) {
	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		return solana.PublicKey{}, fmt.Errorf("load wallet for user %d: %w", userID, err)
	}
	pk, err := solana.PublicKeyFromBase58(user.WalletAddress)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("parse wallet address: %w", err)
	}
	return pk, nil
}

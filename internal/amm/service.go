package amm

import (
	"context"
	"fmt"
	"math"
	"time"

	"prediction-market/internal/domainerr"
	"prediction-market/internal/models"
	"prediction-market/internal/onchain"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultSlippageBps = 50

// Service owns AMM pool lifecycle, quoting, and swap-settlement bookkeeping.
// The constant-product invariant itself lives on chain; this mirrors
// confirmed on-chain state into Postgres for fast reads. InitializePool is
// dispatched outside this service; Service.CreatePool records the mirror
// once that transaction has landed. Service.ClosePool dispatches ClosePool
// on chain itself and then marks the mirrored row closed.
type Service struct {
	db      *gorm.DB
	onchain *onchain.Client
}

func NewService(db *gorm.DB, oc *onchain.Client) *Service {
	return &Service{db: db, onchain: oc}
}

func (s *Service) GetPool(ctx context.Context, poolID uuid.UUID) (*models.AMMPool, error) {
	var pool models.AMMPool
	if err := s.db.WithContext(ctx).First(&pool, "id = ?", poolID).Error; err != nil {
		return nil, domainerr.New(domainerr.NotFound, "pool not found")
	}
	return &pool, nil
}

func (s *Service) GetPoolByMarketID(ctx context.Context, marketID uint) (*models.AMMPool, error) {
	var pool models.AMMPool
	if err := s.db.WithContext(ctx).
		First(&pool, "market_id = ? AND status = ?", marketID, models.PoolStatusActive).Error; err != nil {
		return nil, domainerr.New(domainerr.NotFound, fmt.Sprintf("no active pool for market %d", marketID))
	}
	return &pool, nil
}

func (s *Service) ListPools(ctx context.Context, limit, offset int) ([]models.AMMPool, error) {
	var pools []models.AMMPool
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.PoolStatusActive).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&pools).Error; err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	return pools, nil
}

// CreatePool mirrors a Pool PDA that has already been initialized on chain
// (fee_bps validated against the §4.2 bound even though the program itself
// is the source of truth for it).
func (s *Service) CreatePool(ctx context.Context, req *models.CreatePoolRequest) (*models.AMMPool, error) {
	if req.FeeBps < 0 || req.FeeBps > 1000 {
		return nil, domainerr.New(domainerr.InvalidFee, "fee_bps must be between 0 and 1000")
	}
	if req.InitialYes <= 0 || req.InitialNo <= 0 {
		return nil, domainerr.New(domainerr.InvalidAmount, "initial reserves must be positive")
	}

	totalLiquidity := int64(math.Sqrt(float64(req.InitialYes) * float64(req.InitialNo)))

	pool := &models.AMMPool{
		MarketID:         req.MarketID,
		OnchainPoolID:    req.OnchainPoolID,
		PoolPDAAddress:   req.PoolPDAAddress,
		AuthorityPubkey:  req.AuthorityPubkey,
		YesMint:          req.YesMint,
		NoMint:           req.NoMint,
		YesReserve:       req.InitialYes,
		NoReserve:        req.InitialNo,
		BaseYesLiquidity: req.InitialYes,
		BaseNoLiquidity:  req.InitialNo,
		FeeBps:           req.FeeBps,
		TotalLiquidity:   totalLiquidity,
		Status:           models.PoolStatusActive,
	}

	if err := s.db.WithContext(ctx).Create(pool).Error; err != nil {
		return nil, fmt.Errorf("persist pool: %w", err)
	}
	return pool, nil
}

// ClosePool dispatches ClosePool on chain and marks the mirrored row closed.
func (s *Service) ClosePool(ctx context.Context, poolID uuid.UUID) (*models.AMMPool, error) {
	pool, err := s.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}
	if pool.Status != models.PoolStatusActive {
		return nil, domainerr.New(domainerr.PoolAlreadyClosed, "pool already closed")
	}

	yesMint, err := solana.PublicKeyFromBase58(pool.YesMint)
	if err != nil {
		return nil, fmt.Errorf("parse yes mint: %w", err)
	}
	noMint, err := solana.PublicKeyFromBase58(pool.NoMint)
	if err != nil {
		return nil, fmt.Errorf("parse no mint: %w", err)
	}
	if _, err := s.onchain.ClosePool(ctx, yesMint, noMint); err != nil {
		return nil, domainerr.Wrap(domainerr.TransactionFailed, err)
	}

	pool.Status = models.PoolStatusClosed
	pool.YesReserve = 0
	pool.NoReserve = 0
	if err := s.db.WithContext(ctx).Save(pool).Error; err != nil {
		return nil, fmt.Errorf("persist closed pool: %w", err)
	}
	return pool, nil
}

// Quote prices a prospective swap with no state change.
func (s *Service) Quote(ctx context.Context, req *models.TradeQuoteRequest) (*models.TradeQuoteResponse, error) {
	poolID, err := uuid.Parse(req.PoolID)
	if err != nil {
		return nil, domainerr.New(domainerr.InvalidAmount, "invalid pool id")
	}
	pool, err := s.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}

	q, err := CalculateQuote(pool, req.InputAmount, models.AMMTradeType(req.TradeType), defaultSlippageBps)
	if err != nil {
		return nil, err
	}

	return &models.TradeQuoteResponse{
		OutputAmount:    q.OutputAmount,
		PricePerToken:   q.PricePerToken,
		FeeAmount:       q.FeeAmount,
		MinimumReceived: q.MinimumReceived,
	}, nil
}

// ApplySwap mutates pool's reserves in place to reflect a settled swap, per
// the §4.2 Swap math (fee remains inside the pool on the input side).
func ApplySwap(pool *models.AMMPool, tradeType models.AMMTradeType, inputAmount, outputAmount int64) {
	switch tradeType {
	case models.TradeTypeBuyYes:
		pool.NoReserve += inputAmount
		pool.YesReserve -= outputAmount
	case models.TradeTypeBuyNo:
		pool.YesReserve += inputAmount
		pool.NoReserve -= outputAmount
	}
	pool.UpdatedAt = time.Now()
}

// ToPoolResponse converts the persisted model into its API shape, computing
// the normalized off-chain price per §4.2.
func ToPoolResponse(pool *models.AMMPool) *models.PoolResponse {
	yesPrice := pool.NormalizedYesPrice()
	return &models.PoolResponse{
		ID:               pool.ID.String(),
		MarketID:         pool.MarketID,
		OnchainPoolID:    pool.OnchainPoolID,
		PoolPDAAddress:   pool.PoolPDAAddress,
		AuthorityPubkey:  pool.AuthorityPubkey,
		YesMint:          pool.YesMint,
		NoMint:           pool.NoMint,
		YesReserve:       pool.YesReserve,
		NoReserve:        pool.NoReserve,
		BaseYesLiquidity: pool.BaseYesLiquidity,
		BaseNoLiquidity:  pool.BaseNoLiquidity,
		FeeBps:           pool.FeeBps,
		TotalLiquidity:   pool.TotalLiquidity,
		YesPrice:         yesPrice,
		NoPrice:          1 - yesPrice,
		Status:           string(pool.Status),
		CreatedAt:        pool.CreatedAt,
		UpdatedAt:        pool.UpdatedAt,
	}
}

package duel

import (
	"context"
	"time"

	"prediction-market/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// repository is the Duel-table persistence layer: plain reads are
// non-locking, writes to a single Duel row are always issued under
// SELECT ... FOR UPDATE so the coordinator's sweeps serialize correctly
// against concurrent JoinDuel/resolve dispatches (§5).
type repository struct {
	db *gorm.DB
}

func newRepository(db *gorm.DB) *repository {
	return &repository{db: db}
}

func (r *repository) create(ctx context.Context, d *models.Duel) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *repository) getByID(ctx context.Context, id uuid.UUID) (*models.Duel, error) {
	var d models.Duel
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// withLock runs fn against the Duel row locked for the duration of the
// transaction, matching §5's "row lock spans fetch -> dispatch -> persist".
func (r *repository) withLock(ctx context.Context, id uuid.UUID, fn func(tx *gorm.DB, d *models.Duel) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d models.Duel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&d, "id = ?", id).Error; err != nil {
			return err
		}
		return fn(tx, &d)
	})
}

func (r *repository) update(ctx context.Context, d *models.Duel) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *repository) listAvailable(ctx context.Context, limit, offset int) ([]models.Duel, error) {
	var duels []models.Duel
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at > ?", models.DuelStatusPending, time.Now()).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&duels).Error
	return duels, err
}

func (r *repository) listForUser(ctx context.Context, userID uint, limit, offset int) ([]models.Duel, error) {
	var duels []models.Duel
	err := r.db.WithContext(ctx).
		Where("player1_id = ? OR player2_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&duels).Error
	return duels, err
}

// listExpirable returns Pending duels whose expiry has passed.
func (r *repository) listExpirable(ctx context.Context, now interface{}, limit int) ([]models.Duel, error) {
	var duels []models.Duel
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", models.DuelStatusPending, now).
		Limit(limit).
		Find(&duels).Error
	return duels, err
}

// listActive returns Active duels, for the resolution sweep to filter by DueForResolution.
func (r *repository) listActive(ctx context.Context, limit int) ([]models.Duel, error) {
	var duels []models.Duel
	err := r.db.WithContext(ctx).
		Where("status = ?", models.DuelStatusActive).
		Limit(limit).
		Find(&duels).Error
	return duels, err
}

func (r *repository) createTransaction(ctx context.Context, tx *models.DuelTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *repository) createResult(ctx context.Context, tx *gorm.DB, result *models.DuelResult) error {
	return tx.Create(result).Error
}

func (r *repository) getResult(ctx context.Context, duelID uuid.UUID) (*models.DuelResult, error) {
	var result models.DuelResult
	if err := r.db.WithContext(ctx).First(&result, "duel_id = ?", duelID).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *repository) getStatistics(ctx context.Context, userID uint) (*models.DuelStatistics, error) {
	var stats models.DuelStatistics
	if err := r.db.WithContext(ctx).First(&stats, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// incrementStatistics atomically upserts a user's derived counters within
// an existing transaction, using the same OnConflict+gorm.Expr pattern
// used for PriceCandle upserts in internal/trade.
func (r *repository) incrementStatistics(tx *gorm.DB, userID uint, duelsIncr, winsIncr, lossesIncr, wageredIncr, wonIncr, lostIncr int64) error {
	initial := models.DuelStatistics{
		UserID:       userID,
		TotalDuels:   duelsIncr,
		Wins:         winsIncr,
		Losses:       lossesIncr,
		TotalWagered: wageredIncr,
		TotalWon:     wonIncr,
		TotalLost:    lostIncr,
	}
	if initial.TotalDuels > 0 {
		initial.WinRate = float64(initial.Wins) / float64(initial.TotalDuels) * 100
		initial.AvgBet = float64(initial.TotalWagered) / float64(initial.TotalDuels)
	}

	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_duels":   gorm.Expr("duel_statistics.total_duels + ?", duelsIncr),
			"wins":          gorm.Expr("duel_statistics.wins + ?", winsIncr),
			"losses":        gorm.Expr("duel_statistics.losses + ?", lossesIncr),
			"total_wagered": gorm.Expr("duel_statistics.total_wagered + ?", wageredIncr),
			"total_won":     gorm.Expr("duel_statistics.total_won + ?", wonIncr),
			"total_lost":    gorm.Expr("duel_statistics.total_lost + ?", lostIncr),
			"win_rate":      gorm.Expr("CASE WHEN (duel_statistics.total_duels + ?) > 0 THEN (CAST((duel_statistics.wins + ?) AS NUMERIC) / (duel_statistics.total_duels + ?) * 100) ELSE 0 END", duelsIncr, winsIncr, duelsIncr),
			"avg_bet":       gorm.Expr("CASE WHEN (duel_statistics.total_duels + ?) > 0 THEN (CAST((duel_statistics.total_wagered + ?) AS NUMERIC) / (duel_statistics.total_duels + ?)) ELSE 0 END", duelsIncr, wageredIncr, duelsIncr),
			"updated_at":    gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&initial).Error
}

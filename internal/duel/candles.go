package duel

import (
	"context"
	"log"
	"time"

	"prediction-market/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const candleStreamInterval = time.Second

// CandleStreamer persists 1Hz DuelPriceCandle samples for every Active duel
// (§4.3.4) and fans them out over Hub for live subscribers. Streamed
// candles are display-only: resolution always re-queries PriceSource.
type CandleStreamer struct {
	db     *gorm.DB
	repo   *repository
	svc    *Service
	hub    *Hub
	ticker *time.Ticker
	stop   chan struct{}
}

func NewCandleStreamer(db *gorm.DB, svc *Service, hub *Hub) *CandleStreamer {
	return &CandleStreamer{db: db, repo: newRepository(db), svc: svc, hub: hub}
}

func (cs *CandleStreamer) Start() {
	cs.ticker = time.NewTicker(candleStreamInterval)
	cs.stop = make(chan struct{})
	go func() {
		for {
			select {
			case <-cs.ticker.C:
				cs.sample()
			case <-cs.stop:
				return
			}
		}
	}()
}

func (cs *CandleStreamer) Stop() {
	if cs.stop == nil {
		return
	}
	close(cs.stop)
	cs.ticker.Stop()
}

func (cs *CandleStreamer) sample() {
	ctx := context.Background()
	duels, err := cs.repo.listActive(ctx, 200)
	if err != nil {
		log.Printf("[duel candle streamer] list active: %v", err)
		return
	}

	for _, d := range duels {
		symbol, ok := symbolOf(d.MarketID)
		if !ok {
			continue
		}
		s, err := cs.svc.prices.Current(symbol)
		if err != nil {
			continue
		}
		price := priceToFixedPoint(s.Price)
		bucket := s.Timestamp.Unix()

		candle := models.DuelPriceCandle{
			DuelID:   d.ID,
			BucketTS: bucket,
			Open:     int64(price),
			High:     int64(price),
			Low:      int64(price),
			Close:    int64(price),
		}
		if err := cs.db.WithContext(ctx).Create(&candle).Error; err != nil {
			log.Printf("[duel candle streamer] persist candle for %s: %v", d.ID, err)
			continue
		}
		if cs.hub != nil {
			cs.hub.broadcastPrice(d.ID, s.Price, s.Timestamp)
		}
	}
}

// Candles returns the streamed DuelPriceCandle rows for a duel, oldest first.
func (s *Service) Candles(ctx context.Context, duelID uuid.UUID, limit int) ([]models.DuelPriceCandle, error) {
	var candles []models.DuelPriceCandle
	if err := s.db.WithContext(ctx).
		Where("duel_id = ?", duelID).
		Order("bucket_ts ASC").
		Limit(limit).
		Find(&candles).Error; err != nil {
		return nil, err
	}
	return candles, nil
}

package handlers

import (
	"strconv"
	"time"

	"prediction-market/internal/amm"
	"prediction-market/internal/domainerr"
	"prediction-market/internal/models"
	"prediction-market/internal/respond"
	"prediction-market/internal/trade"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AMMHandler exposes pool quoting and confirmed-trade recording over
// internal/amm.Service and internal/trade.Recorder.
type AMMHandler struct {
	amm      *amm.Service
	recorder *trade.Recorder
}

func NewAMMHandler(ammSvc *amm.Service, recorder *trade.Recorder) *AMMHandler {
	return &AMMHandler{amm: ammSvc, recorder: recorder}
}

// GetPool retrieves a pool by ID.
// GET /api/amm/pools/:id
func (h *AMMHandler) GetPool(c *gin.Context) {
	poolID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Err(c, domainerr.New(domainerr.InvalidAmount, "invalid pool id"))
		return
	}

	pool, err := h.amm.GetPool(c.Request.Context(), poolID)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, amm.ToPoolResponse(pool))
}

// GetPoolByMarket retrieves the active pool for a market.
// GET /api/amm/pools/market/:market_id
func (h *AMMHandler) GetPoolByMarket(c *gin.Context) {
	marketID, err := strconv.ParseUint(c.Param("market_id"), 10, 64)
	if err != nil {
		respond.Err(c, domainerr.New(domainerr.InvalidAmount, "invalid market id"))
		return
	}

	pool, err := h.amm.GetPoolByMarketID(c.Request.Context(), uint(marketID))
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, amm.ToPoolResponse(pool))
}

// GetAllPools lists active pools, paginated.
// GET /api/amm/pools
func (h *AMMHandler) GetAllPools(c *gin.Context) {
	limit, offset := pagination(c)

	pools, err := h.amm.ListPools(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Err(c, domainerr.Wrap(domainerr.TransactionFailed, err))
		return
	}

	responses := make([]*models.PoolResponse, len(pools))
	for i := range pools {
		responses[i] = amm.ToPoolResponse(&pools[i])
	}
	respond.OK(c, gin.H{"pools": responses, "total": len(responses)})
}

// CreatePool mirrors a Pool PDA already initialized on chain.
// POST /api/amm/pools
func (h *AMMHandler) CreatePool(c *gin.Context) {
	var req models.CreatePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}

	pool, err := h.amm.CreatePool(c.Request.Context(), &req)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.Created(c, amm.ToPoolResponse(pool))
}

// GetTradeQuote prices a prospective swap with no state change.
// GET /api/amm/quote
func (h *AMMHandler) GetTradeQuote(c *gin.Context) {
	var req models.TradeQuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}

	quote, err := h.amm.Quote(c.Request.Context(), &req)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, quote)
}

// RecordTrade indexes a confirmed on-chain swap.
// POST /api/amm/trades
func (h *AMMHandler) RecordTrade(c *gin.Context) {
	var req struct {
		models.RecordTradeRequest
		UserAddress string `json:"user_address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}

	rec, err := h.recorder.Record(c.Request.Context(), req.UserAddress, &req.RecordTradeRequest)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.Created(c, rec)
}

// GetTradeHistory lists a pool's confirmed trades, newest first.
// GET /api/amm/trades/:pool_id
func (h *AMMHandler) GetTradeHistory(c *gin.Context) {
	poolID, err := uuid.Parse(c.Param("pool_id"))
	if err != nil {
		respond.Err(c, domainerr.New(domainerr.InvalidAmount, "invalid pool id"))
		return
	}

	limit, offset := pagination(c)
	trades, err := h.recorder.Trades(c.Request.Context(), poolID, limit, offset)
	if err != nil {
		respond.Err(c, domainerr.Wrap(domainerr.TransactionFailed, err))
		return
	}
	respond.OK(c, gin.H{"trades": trades, "total": len(trades)})
}

// GetPriceHistory returns a pool's minute-bucket OHLC candles.
// GET /api/amm/prices/:pool_id
func (h *AMMHandler) GetPriceHistory(c *gin.Context) {
	poolID, err := uuid.Parse(c.Param("pool_id"))
	if err != nil {
		respond.Err(c, domainerr.New(domainerr.InvalidAmount, "invalid pool id"))
		return
	}

	limit := 100
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 500 {
		limit = l
	}

	endTime := time.Now()
	startTime := endTime.Add(-24 * time.Hour)
	if s := c.Query("start_time"); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			startTime = t
		}
	}
	if e := c.Query("end_time"); e != "" {
		if t, err := time.Parse(time.RFC3339, e); err == nil {
			endTime = t
		}
	}

	candles, err := h.recorder.History(c.Request.Context(), poolID, startTime, endTime, limit)
	if err != nil {
		respond.Err(c, domainerr.Wrap(domainerr.TransactionFailed, err))
		return
	}
	respond.OK(c, gin.H{"candles": candles, "total": len(candles)})
}

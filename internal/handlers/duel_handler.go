package handlers

import (
	"net/http"
	"strconv"

	"prediction-market/internal/auth"
	"prediction-market/internal/domainerr"
	"prediction-market/internal/duel"
	"prediction-market/internal/models"
	"prediction-market/internal/respond"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DuelHandler exposes the §6 HTTP surface over internal/duel.Service.
type DuelHandler struct {
	svc *duel.Service
	hub *duel.Hub
}

func NewDuelHandler(svc *duel.Service, hub *duel.Hub) *DuelHandler {
	return &DuelHandler{svc: svc, hub: hub}
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, offset = 20, 0
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	if o, err := strconv.Atoi(c.Query("offset")); err == nil && o >= 0 {
		offset = o
	}
	return limit, offset
}

// CreateDuel mirrors a client-confirmed on-chain CreateDuel call.
// POST /api/duels
func (h *DuelHandler) CreateDuel(c *gin.Context) {
	playerID, exists := auth.GetUserID(c)
	if !exists {
		respond.Err(c, domainerr.New(domainerr.Unauthorized, "unauthorized"))
		return
	}

	var req models.CreateDuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}

	d, err := h.svc.CreateDuel(c.Request.Context(), playerID, &req)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.Created(c, d)
}

// GetAvailableDuels lists status=Pending, not-expired duels, paginated.
// GET /api/duels/available
func (h *DuelHandler) GetAvailableDuels(c *gin.Context) {
	limit, offset := pagination(c)
	duels, err := h.svc.ListAvailable(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Err(c, domainerr.Wrap(domainerr.TransactionFailed, err))
		return
	}
	respond.OK(c, gin.H{"duels": duels, "total": len(duels)})
}

// JoinDuel mirrors a confirmed on-chain JoinDuel call.
// POST /api/duels/:id/join
func (h *DuelHandler) JoinDuel(c *gin.Context) {
	playerID, exists := auth.GetUserID(c)
	if !exists {
		respond.Err(c, domainerr.New(domainerr.Unauthorized, "unauthorized"))
		return
	}

	duelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Err(c, domainerr.New(domainerr.InvalidAmount, "invalid duel id"))
		return
	}

	var req models.JoinDuelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.BadRequest(c, err)
		return
	}

	d, err := h.svc.JoinDuel(c.Request.Context(), duelID, playerID, &req)
	if err != nil {
		respond.Err(c, err)
		return
	}
	respond.OK(c, d)
}

// GetDuel returns a Duel plus its DuelResult if resolved.
// GET /api/duels/:id
func (h *DuelHandler) GetDuel(c *gin.Context) {
	duelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Err(c, domainerr.New(domainerr.InvalidAmount, "invalid duel id"))
		return
	}

	d, result, err := h.svc.GetDuel(c.Request.Context(), duelID)
	if err != nil {
		respond.Err(c, err)
		return
	}

	resp := toDuelResponse(d)
	resp.Result = result
	respond.OK(c, resp)
}

// GetUserDuels lists duels for a user, paginated.
// GET /api/duels/user/:userId
func (h *DuelHandler) GetUserDuels(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		respond.Err(c, domainerr.New(domainerr.InvalidAmount, "invalid user id"))
		return
	}

	limit, offset := pagination(c)
	duels, err := h.svc.ListForUser(c.Request.Context(), uint(userID), limit, offset)
	if err != nil {
		respond.Err(c, domainerr.Wrap(domainerr.TransactionFailed, err))
		return
	}
	respond.OK(c, gin.H{"duels": duels, "total": len(duels)})
}

// GetUserStatistics returns a user's derived DuelStatistics row.
// GET /api/duels/user/:userId/statistics
func (h *DuelHandler) GetUserStatistics(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		respond.Err(c, domainerr.New(domainerr.InvalidAmount, "invalid user id"))
		return
	}

	stats, err := h.svc.Statistics(c.Request.Context(), uint(userID))
	if err != nil {
		respond.Err(c, domainerr.Wrap(domainerr.TransactionFailed, err))
		return
	}
	respond.OK(c, stats)
}

// GetCandles returns the streamed DuelPriceCandle rows for chart replay.
// GET /api/duels/:id/candles
func (h *DuelHandler) GetCandles(c *gin.Context) {
	duelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Err(c, domainerr.New(domainerr.InvalidAmount, "invalid duel id"))
		return
	}

	limit := 300
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 3600 {
		limit = l
	}

	candles, err := h.svc.Candles(c.Request.Context(), duelID, limit)
	if err != nil {
		respond.Err(c, domainerr.Wrap(domainerr.TransactionFailed, err))
		return
	}
	respond.OK(c, candles)
}

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Stream upgrades to a websocket and emits Duel state transitions and live
// price ticks for an Active duel. Optional performance knob (§6, §9) — not
// required for correctness.
// GET /api/duels/:id/stream
func (h *DuelHandler) Stream(c *gin.Context) {
	duelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Err(c, domainerr.New(domainerr.InvalidAmount, "invalid duel id"))
		return
	}

	conn, err := streamUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	h.hub.Subscribe(duelID, conn)
	defer h.hub.Unsubscribe(duelID, conn)

	// Block on reads solely to detect client disconnect; the hub pushes
	// all outbound frames from its own broadcast goroutines.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func toDuelResponse(d *models.Duel) *models.DuelResponse {
	resp := &models.DuelResponse{
		ID:              d.ID.String(),
		OnchainDuelID:   d.OnchainDuelID,
		Player1ID:       d.Player1ID,
		Player2ID:       d.Player2ID,
		BetAmount:       d.BetAmount,
		Currency:        int16(d.Currency),
		MarketID:        d.MarketID,
		DirectionP1:     int16(d.DirectionP1),
		Status:          string(d.Status),
		EntryPrice:      d.EntryPrice,
		ExitPrice:       d.ExitPrice,
		ChartStartPrice: d.ChartStartPrice,
		WinnerID:        d.WinnerID,
		CreatedAt:       d.CreatedAt,
		StartingAt:      d.StartingAt,
		StartedAt:       d.StartedAt,
		ResolvedAt:      d.ResolvedAt,
		ExpiresAt:       d.ExpiresAt,
	}
	if d.DirectionP2 != nil {
		dp2 := int16(*d.DirectionP2)
		resp.DirectionP2 = &dp2
	}
	return resp
}

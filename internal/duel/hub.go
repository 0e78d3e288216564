package duel

import (
	"log"
	"sync"
	"time"

	"prediction-market/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub broadcasts Duel state transitions and live price ticks to subscribers
// of /api/duels/:id/stream (§6, §9: a performance knob, not required for
// correctness — the same data is available by polling GET /api/duels/:id
// and GET /api/duels/:id/candles).
type Hub struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[*websocket.Conn]struct{})}
}

func (h *Hub) Subscribe(duelID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[duelID] == nil {
		h.subs[duelID] = make(map[*websocket.Conn]struct{})
	}
	h.subs[duelID][conn] = struct{}{}
}

func (h *Hub) Unsubscribe(duelID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[duelID], conn)
	if len(h.subs[duelID]) == 0 {
		delete(h.subs, duelID)
	}
}

type streamEvent struct {
	Type  string      `json:"type"`
	Duel  *models.Duel `json:"duel,omitempty"`
	Price *priceTick   `json:"price,omitempty"`
}

type priceTick struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

func (h *Hub) broadcastDuel(d *models.Duel) {
	h.broadcast(d.ID, streamEvent{Type: "duel_update", Duel: d})
}

func (h *Hub) broadcastPrice(duelID uuid.UUID, price float64, ts time.Time) {
	h.broadcast(duelID, streamEvent{Type: "price_tick", Price: &priceTick{Price: price, Timestamp: ts}})
}

func (h *Hub) broadcast(duelID uuid.UUID, evt streamEvent) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.subs[duelID]))
	for c := range h.subs[duelID] {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteJSON(evt); err != nil {
			log.Printf("[duel hub] write to subscriber failed, dropping: %v", err)
			h.Unsubscribe(duelID, c)
			c.Close()
		}
	}
}

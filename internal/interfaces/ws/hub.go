// Package ws streams order activity to connected admin dashboards.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OrderActivity is the message broadcast for every order event
type OrderActivity struct {
	Seq         int64     `json:"seq"`
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	Payment     string    `json:"payment_status"`
	Total       string    `json:"total"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Hub tracks admin connections and fans out order events to them
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	seq     atomic.Int64
	logger  *zap.Logger
}

// NewHub creates a new Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("Admin feed connected", zap.String("admin_id", c.adminID), zap.Int("connections", n))
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("Admin feed disconnected", zap.String("admin_id", c.adminID), zap.Int("connections", n))
}

// Broadcast sends a message to every client. Slow clients are dropped.
func (h *Hub) Broadcast(activity OrderActivity) {
	activity.Seq = h.seq.Add(1)
	data, err := json.Marshal(activity)
	if err != nil {
		h.logger.Error("Failed to marshal feed message", zap.Error(err))
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("Admin feed buffer full, dropping connection", zap.String("admin_id", c.adminID))
		h.unregister(c)
	}
}

// ConnectionCount returns the number of connected clients
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// EventTypes subscribes the hub to every order event
func (h *Hub) EventTypes() []string {
	return order.AllEventTypes
}

// Handle turns an order event into a feed message
func (h *Hub) Handle(_ context.Context, event shared.DomainEvent) error {
	oe, ok := event.(order.Event)
	if !ok {
		return nil
	}
	snap := oe.OrderSnapshot()
	h.Broadcast(OrderActivity{
		Type:        event.EventType(),
		OrderID:     snap.OrderID.String(),
		OrderNumber: snap.OrderNumber,
		Status:      string(snap.Status),
		Payment:     string(snap.PaymentStatus),
		Total:       snap.Total.StringFixed(snap.Currency.MinorUnitExponent()),
		Currency:    snap.Currency.String(),
		OccurredAt:  event.OccurredAt(),
	})
	return nil
}

// Shutdown closes every connection
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
	}
	h.clients = make(map[*Client]struct{})
	h.logger.Info("Admin feed hub shut down")
}

var _ shared.EventHandler = (*Hub)(nil)

// Package events defines the wire types exchanged over the broker: the deferred
// stock-deduction task and the stock-changed signal. Both use the shared
// {event_id, event_type, payload, timestamp} envelope.
package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeOrderPlaced  = "OrderPlaced"
	TypeStockChanged = "StockChanged"
)

// OrderPlacedEvent is the task payload consumed by the stock ledger worker.
// Delivery is at-least-once; processing is not idempotent (a redelivered task
// deducts again), which is accepted and documented behavior.
type OrderPlacedEvent struct {
	EventID   string             `json:"event_id"`
	EventType string             `json:"event_type"`
	Payload   OrderPlacedPayload `json:"payload"`
	Timestamp time.Time          `json:"timestamp"`
}

type OrderPlacedPayload struct {
	OrderID int64 `json:"order_id"`
}

func NewOrderPlaced(orderID int64) OrderPlacedEvent {
	return OrderPlacedEvent{
		EventID:   uuid.New().String(),
		EventType: TypeOrderPlaced,
		Payload:   OrderPlacedPayload{OrderID: orderID},
		Timestamp: time.Now().UTC(),
	}
}

// StockChangedEvent is emitted once per ingredient mutated by a deduction. It
// carries the refreshed stock record; threshold evaluation belongs to the
// subscriber, not the ledger.
type StockChangedEvent struct {
	EventID   string              `json:"event_id"`
	EventType string              `json:"event_type"`
	Payload   StockChangedPayload `json:"payload"`
	Timestamp time.Time           `json:"timestamp"`
}

type StockChangedPayload struct {
	StockID        int64  `json:"stock_id"`
	IngredientID   int64  `json:"ingredient_id"`
	IngredientName string `json:"ingredient_name"`
	CurrentStock   int64  `json:"current_stock"`
	InitialStock   int64  `json:"initial_stock"`
}

func NewStockChanged(p StockChangedPayload) StockChangedEvent {
	return StockChangedEvent{
		EventID:   uuid.New().String(),
		EventType: TypeStockChanged,
		Payload:   p,
		Timestamp: time.Now().UTC(),
	}
}

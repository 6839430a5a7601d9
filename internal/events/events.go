package events

import (
	"context"

	"github.com/barterhub/timebank/pkg/models"
)

// Type names a domain event emitted by the engine.
type Type string

const (
	TypeTradeCreated       Type = "trade.created"
	TypeTradeStatusChanged Type = "trade.status_changed"
	TypeMessageAdded       Type = "trade.message_added"
	TypeMatchFound         Type = "match.found"
)

// Event is one domain event. Delivery to sinks is at-least-once; consumers
// that need exactly-once must de-duplicate by ID.
type Event struct {
	ID        string             `json:"id"`
	Type      Type               `json:"type"`
	At        int64              `json:"at"`
	TradeID   string             `json:"trade_id,omitempty"`
	UserID    string             `json:"user_id,omitempty"`
	From      models.TradeStatus `json:"from,omitempty"`
	To        models.TradeStatus `json:"to,omitempty"`
	MessageID string             `json:"message_id,omitempty"`
	ServiceID string             `json:"service_id,omitempty"`
	Score     float64            `json:"score,omitempty"`
}

// Emitter accepts events from the engine. Emission is fire-and-forget from
// the caller's point of view: failures are logged, never returned into the
// domain operation that already committed.
type Emitter interface {
	Emit(ctx context.Context, e Event)
}

// Sink receives delivered events. External collaborators (push, in-app
// alerts) implement this.
type Sink interface {
	Deliver(ctx context.Context, e Event) error
}

// NopEmitter discards events. Useful for tests exercising engine logic only.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Event) {}

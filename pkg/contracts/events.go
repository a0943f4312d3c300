package contracts

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	EventID   string          `json:"event_id"`
	SessionID string          `json:"session_id,omitempty"`
	OrderID   string          `json:"order_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

const (
	EventOrderPlaced         = "order.placed"
	EventAdminProductCreated = "admin.product_created"
	EventAdminProductUpdated = "admin.product_updated"
	EventAdminProductDeleted = "admin.product_deleted"
)

func NewEvent(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Event{
		EventID:   uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Type:      eventType,
		Payload:   data,
	}, nil
}

// Key is the partition key: the order id when there is one, so every event
// for an order lands on the same partition.
func (e Event) Key() string {
	if e.OrderID != "" {
		return e.OrderID
	}
	return e.EventID
}

func (e Event) DecodePayload(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

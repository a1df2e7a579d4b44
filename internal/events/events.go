// Package events publishes order lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"time"
)

const (
	StreamName = "ORDERS"

	OrderCreatedSubject       = "orders.created"
	OrderItemsAppendedSubject = "orders.appended"
)

type Event interface {
	ID() string
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type OrderEventItem struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// OrderEvent is emitted after an order write. Created distinguishes the
// first order of a user from items appended to an existing one.
type OrderEvent struct {
	EventID    string           `json:"event_id"`
	OrderID    string           `json:"order_id"`
	UserID     string           `json:"user_id"`
	Created    bool             `json:"created"`
	Items      []OrderEventItem `json:"items"`
	OccurredAt time.Time        `json:"occurred_at"`
}

func (e OrderEvent) ID() string {
	return e.EventID
}

func (e OrderEvent) Subject() string {
	if e.Created {
		return OrderCreatedSubject
	}
	return OrderItemsAppendedSubject
}

func (e OrderEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}

// NopPublisher drops every event. Used when NATS is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error {
	return nil
}

package workperiod

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Event types published on the bus.
const (
	EventPeriodOpened = "workperiod.opened"
	EventPeriodClosed = "workperiod.closed"
)

// BusEvent is the envelope published when a period opens or closes. Any
// interested collaborator (UI refresh, audit mirror, notifications)
// subscribes instead of polling a cached period.
type BusEvent struct {
	Type       string           `json:"type"`
	PeriodID   uuid.UUID        `json:"period_id"`
	RegisterID string           `json:"register_id"`
	ActorID    string           `json:"actor_id"`
	At         time.Time        `json:"at"`
	Variance   *decimal.Decimal `json:"variance,omitempty"`
}

// Bus publishes and subscribes to work period domain events over Redis
// pub/sub. Delivery is best-effort fan-out; the period store remains the
// source of truth and subscribers re-fetch on notification.
type Bus struct {
	client  *redis.Client
	channel string
}

// NewBus constructs a Bus on the given channel.
func NewBus(client *redis.Client, channel string) *Bus {
	return &Bus{client: client, channel: channel}
}

// Publish sends the event to all current subscribers.
func (b *Bus) Publish(ctx context.Context, ev BusEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("workperiod: marshal bus event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("workperiod: publish bus event: %w", err)
	}
	return nil
}

// Subscribe returns a channel of decoded events plus a cancel function.
// Undecodable messages are dropped.
func (b *Bus) Subscribe(ctx context.Context) (<-chan BusEvent, func() error) {
	sub := b.client.Subscribe(ctx, b.channel)
	// Wait for the subscription confirmation so an event published right
	// after Subscribe returns is not lost.
	_, _ = sub.Receive(ctx)
	out := make(chan BusEvent)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev BusEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, sub.Close
}

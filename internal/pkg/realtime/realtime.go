package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/VyaparLabs/OrderDesk/internal/pkg/cache"
)

const (
	// Channel name prefixes
	ChangeChannelPrefix = "changes:"
	SignalChannelPrefix = "signals:"

	// Well-known tables
	TableOrders   = "buy_orders"
	TablePayments = "payments"

	// Signals
	SignalNotificationsCleared = "notifications_cleared"
)

// EventKind is the kind of row change carried by a ChangeEvent
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// ChangeEvent is one row change published on a table channel
type ChangeEvent struct {
	Table string          `json:"table"`
	Kind  EventKind       `json:"kind"`
	New   json.RawMessage `json:"new,omitempty"`
	Old   json.RawMessage `json:"old,omitempty"`
	At    time.Time       `json:"at"`
}

// Publish emits a row change on the table's channel. Old may be nil for
// created events; New may be nil for deleted events.
func Publish(table string, kind EventKind, newRec interface{}, oldRec interface{}) error {
	event := ChangeEvent{
		Table: table,
		Kind:  kind,
		At:    time.Now(),
	}

	if newRec != nil {
		data, err := json.Marshal(newRec)
		if err != nil {
			return fmt.Errorf("failed to marshal new record: %w", err)
		}
		event.New = data
	}
	if oldRec != nil {
		data, err := json.Marshal(oldRec)
		if err != nil {
			return fmt.Errorf("failed to marshal old record: %w", err)
		}
		event.Old = data
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	ctx := context.Background()
	if err := cache.GetClient().Publish(ctx, ChangeChannelPrefix+table, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change event: %w", err)
	}
	return nil
}

// Subscribe listens for change events on a table channel and invokes the
// handler for every event whose kind is in kinds (all kinds when empty).
// The returned function tears the subscription down.
func Subscribe(table string, kinds []EventKind, handler func(ChangeEvent)) (func(), error) {
	ctx := context.Background()
	pubsub := cache.GetClient().Subscribe(ctx, ChangeChannelPrefix+table)

	// Force the subscription to be established before returning so callers
	// do not miss events published right after Subscribe.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", table, err)
	}

	wanted := make(map[EventKind]struct{}, len(kinds))
	for _, k := range kinds {
		wanted[k] = struct{}{}
	}

	go func() {
		for msg := range pubsub.Channel() {
			var event ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Errorf("[Realtime] Dropping malformed change event on %s: %v", msg.Channel, err)
				continue
			}
			if len(wanted) > 0 {
				if _, ok := wanted[event.Kind]; !ok {
					continue
				}
			}
			handler(event)
		}
	}()

	unsubscribe := func() {
		if err := pubsub.Close(); err != nil {
			log.Errorf("[Realtime] Failed to close subscription on %s: %v", table, err)
		}
	}
	return unsubscribe, nil
}

// PublishSignal emits an application signal (no payload beyond the actor).
func PublishSignal(signal string, userID uint) error {
	ctx := context.Background()
	payload := fmt.Sprintf("%d", userID)
	if err := cache.GetClient().Publish(ctx, SignalChannelPrefix+signal, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish signal %s: %w", signal, err)
	}
	return nil
}

// SubscribeSignal listens for an application signal. The handler receives
// the actor user ID (0 if unparsable).
func SubscribeSignal(signal string, handler func(userID uint)) (func(), error) {
	ctx := context.Background()
	pubsub := cache.GetClient().Subscribe(ctx, SignalChannelPrefix+signal)

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to signal %s: %w", signal, err)
	}

	go func() {
		for msg := range pubsub.Channel() {
			var userID uint
			if _, err := fmt.Sscanf(msg.Payload, "%d", &userID); err != nil {
				log.Warnf("[Realtime] Signal %s with unparsable actor %q", signal, msg.Payload)
			}
			handler(userID)
		}
	}()

	unsubscribe := func() {
		if err := pubsub.Close(); err != nil {
			log.Errorf("[Realtime] Failed to close signal subscription %s: %v", signal, err)
		}
	}
	return unsubscribe, nil
}

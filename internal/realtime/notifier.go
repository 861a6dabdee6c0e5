package realtime

import (
	"context"
	"encoding/json"
	"log"
	"runtime/debug"

	"pulse/internal/gateway"
	"pulse/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// feedChannel is the Redis channel carrying post change events between
// instances.
const feedChannel = "feed:events"

// envelope wraps a post event with the id of the instance that produced it.
// Redis delivers published messages back to the publisher too, so the
// subscriber uses the origin to skip events this instance already handled.
type envelope struct {
	Origin string            `json:"origin"`
	Event  gateway.PostEvent `json:"event"`
}

// Notifier mirrors the local post change stream through Redis pub/sub so
// every instance's feed clients see writes from every other instance.
type Notifier struct {
	rdb    *redis.Client
	origin string
}

// NewNotifier creates a Notifier using the provided Redis client. A nil
// client disables cross-instance mirroring; all methods become no-ops.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb, origin: uuid.New().String()}
}

// Publish sends a post event to the shared feed channel.
func (n *Notifier) Publish(ctx context.Context, ev gateway.PostEvent) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(envelope{Origin: n.origin, Event: ev})
	if err != nil {
		return err
	}
	if err := n.rdb.Publish(ctx, feedChannel, payload).Err(); err != nil {
		observability.RedisErrors.WithLabelValues("publish").Inc()
		return err
	}
	return nil
}

// StartSubscriber subscribes to the feed channel and calls onEvent for each
// event that originated on another instance.
func (n *Notifier) StartSubscriber(ctx context.Context, onEvent func(gateway.PostEvent)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, feedChannel)
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("PANIC in feed subscriber: %v\n%s", r, debug.Stack())
						}
					}()
					n.handle(onEvent, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

func (n *Notifier) handle(onEvent func(gateway.PostEvent), payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		log.Printf("invalid feed event payload: %v", err)
		return
	}
	if env.Origin == n.origin {
		return
	}
	onEvent(env.Event)
}

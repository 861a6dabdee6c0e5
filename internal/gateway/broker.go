package gateway

import (
	"sync"
	"time"

	"pulse/internal/models"
)

// EventKind tags a post stream event.
type EventKind string

const (
	// PostCreated is emitted after a post row is created.
	PostCreated EventKind = "post_created"
	// PostDeleted is emitted after a post row is deleted.
	PostDeleted EventKind = "post_deleted"
)

// PostEvent is one entry in the post change stream. Delivery is at-most-once
// per subscriber and carries no ordering guarantee relative to the writes
// of other clients; consumers must reconcile idempotently by post id.
type PostEvent struct {
	Kind EventKind   `json:"kind"`
	Post models.Post `json:"post"`
	At   time.Time   `json:"at"`
}

const subscriptionBuffer = 64

// Subscription is a live handle on the post change stream. Events arrive on
// C until Unsubscribe is called; a slow consumer loses events rather than
// blocking the publisher.
type Subscription struct {
	C      chan PostEvent
	kind   EventKind
	broker *Broker
	once   sync.Once
}

// Unsubscribe detaches the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.broker.remove(s)
		close(s.C)
	})
}

// Broker fans post change events out to in-process subscribers. The gorm
// post store publishes into it on every create and delete, and the realtime
// notifier feeds it events that originated on other instances.
type Broker struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[*Subscription]struct{})}
}

// SubscribeCreate returns a subscription delivering post-created events.
func (b *Broker) SubscribeCreate() *Subscription {
	return b.subscribe(PostCreated)
}

// SubscribeDelete returns a subscription delivering post-deleted events.
func (b *Broker) SubscribeDelete() *Subscription {
	return b.subscribe(PostDeleted)
}

func (b *Broker) subscribe(kind EventKind) *Subscription {
	sub := &Subscription{
		C:      make(chan PostEvent, subscriptionBuffer),
		kind:   kind,
		broker: b,
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

// Publish delivers ev to every matching subscriber without blocking. A full
// subscriber buffer drops the event for that subscriber only.
func (b *Broker) Publish(ev PostEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		if sub.kind != ev.Kind {
			continue
		}
		select {
		case sub.C <- ev:
		default:
		}
	}
}

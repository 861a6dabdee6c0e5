package server

import (
	"context"
	"encoding/json"
	"log"

	"pulse/internal/gateway"
)

// startFeedWiring connects the gateway's post change stream to the websocket
// hub and, when Redis is available, mirrors it across instances. Local events
// flow broker -> hub + Redis; remote events flow Redis -> hub only, so
// nothing ever loops back into the broker it came from. The feed reconciler
// consumes the same stream through its own subscriptions and backs the
// GET /api/feed read model.
func (s *Server) startFeedWiring(ctx context.Context) {
	go s.feed.Run(ctx, s.stores.Broker)
	go func() {
		if _, err := s.feed.LoadInitial(ctx); err != nil {
			log.Printf("failed to load initial feed: %v", err)
		}
	}()

	creates := s.stores.Broker.SubscribeCreate()
	deletes := s.stores.Broker.SubscribeDelete()

	go func() {
		defer creates.Unsubscribe()
		defer deletes.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-creates.C:
				if !ok {
					return
				}
				s.fanOutFeedEvent(ctx, ev)
			case ev, ok := <-deletes.C:
				if !ok {
					return
				}
				s.fanOutFeedEvent(ctx, ev)
			}
		}
	}()

	if s.notifier != nil {
		if err := s.notifier.StartSubscriber(ctx, func(ev gateway.PostEvent) {
			s.broadcastFeedEvent(ev)
		}); err != nil {
			log.Printf("failed to start feed subscriber: %v", err)
		}
	}
}

func (s *Server) fanOutFeedEvent(ctx context.Context, ev gateway.PostEvent) {
	s.broadcastFeedEvent(ev)
	if s.notifier != nil {
		if err := s.notifier.Publish(ctx, ev); err != nil {
			log.Printf("failed to publish %s event: %v", ev.Kind, err)
		}
	}
}

func (s *Server) broadcastFeedEvent(ev gateway.PostEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", ev.Kind, err)
		return
	}
	s.hub.BroadcastAll(payload)
}

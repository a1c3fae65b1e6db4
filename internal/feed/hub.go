package feed

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Channel is the Redis pub/sub channel carrying SOS push events.
const Channel = "feed:sos"

// subscriberBuffer bounds how far a slow consumer may lag before events are
// dropped for it. The snapshot endpoint recovers anything missed.
const subscriberBuffer = 64

// Subscriber receives live events on C until Unsubscribe is called.
type Subscriber struct {
	C chan Event

	hub  *Hub
	once sync.Once
}

// Unsubscribe detaches the subscriber and closes C. Safe to call repeatedly.
func (s *Subscriber) Unsubscribe() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Hub fans push events out to connected SSE clients. Events travel through
// Redis pub/sub so every API instance delivers them, regardless of which
// instance handled the originating request.
type Hub struct {
	rdb *redis.Client
	log zerolog.Logger

	mu   sync.Mutex
	subs map[*Subscriber]struct{}
}

// NewHub creates a hub. A nil Redis client switches to in-process dispatch
// only, for single-instance deployments.
func NewHub(rdb *redis.Client, logger zerolog.Logger) *Hub {
	return &Hub{
		rdb:  rdb,
		log:  logger,
		subs: make(map[*Subscriber]struct{}),
	}
}

// Run consumes the Redis channel and dispatches to local subscribers until
// ctx is cancelled. It returns immediately when no broker is configured.
func (h *Hub) Run(ctx context.Context) error {
	if h.rdb == nil {
		return nil
	}

	pubsub := h.rdb.Subscribe(ctx, Channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.log.Warn().Err(err).Msg("feed: dropping malformed event")
				continue
			}
			h.dispatch(event)
		}
	}
}

// Publish sends an event to every subscriber on every instance.
func (h *Hub) Publish(ctx context.Context, event Event) error {
	if h.rdb == nil {
		h.dispatch(event)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, Channel, payload).Err()
}

// Subscribe registers a new live-channel consumer.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{C: make(chan Event, subscriberBuffer), hub: h}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()

	h.log.Debug().Int("subscribers", count).Msg("feed: subscriber connected")
	return sub
}

func (h *Hub) remove(sub *Subscriber) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	if ok {
		delete(h.subs, sub)
	}
	count := len(h.subs)
	h.mu.Unlock()

	if ok {
		close(sub.C)
		h.log.Debug().Int("subscribers", count).Msg("feed: subscriber disconnected")
	}
}

func (h *Hub) dispatch(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs {
		select {
		case sub.C <- event:
		default:
			h.log.Warn().Msg("feed: subscriber lagging, event dropped")
		}
	}
}

// Package relay fans score updates out from the Redis pub/sub channel to
// every connected live-feed client.
package relay

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/venuepulse/venuepulse/api/internal/metrics"
	"github.com/venuepulse/venuepulse/common/logging"
)

// subscriberBuffer bounds how far one client may lag before updates are
// dropped for it. The feed is best effort; a lagging dashboard catches up on
// the next update rather than stalling everyone else.
const subscriberBuffer = 16

// Hub owns the single upstream subscription and the set of downstream
// clients. Clients that connect after an update was published never see it:
// there is no replay.
type Hub struct {
	rdb     *redis.Client
	channel string
	log     *logging.Logger

	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

// NewHub wires a Hub on the given pub/sub channel.
func NewHub(rdb *redis.Client, channel string, log *logging.Logger) *Hub {
	return &Hub{
		rdb:     rdb,
		channel: channel,
		log:     log,
		subs:    make(map[chan []byte]struct{}),
	}
}

// Subscribe registers a client and returns its update channel plus a cancel
// function. Membership in h.subs is what decides who closes the channel:
// whichever of cancel or hub shutdown removes the entry first also closes it,
// and the other is a no-op. Cancel is idempotent.
func (h *Hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	metrics.SubscribersConnected.Inc()

	cancel := func() {
		h.mu.Lock()
		_, live := h.subs[ch]
		if live {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()

		if live {
			metrics.SubscribersConnected.Dec()
		}
	}
	return ch, cancel
}

// SubscriberCount returns the number of connected clients.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Run consumes the upstream subscription until ctx is cancelled, relaying
// every message verbatim to all clients.
func (h *Hub) Run(ctx context.Context) error {
	pubsub := h.rdb.Subscribe(ctx, h.channel)
	defer pubsub.Close()

	// Force the SUBSCRIBE round trip so failures surface here instead of as
	// a silent empty feed.
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}

	h.log.InfoContext(ctx, "relay subscribed", "channel", h.channel)

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.log.InfoContext(ctx, "relay stopped")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				h.closeAll()
				return nil
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		select {
		case ch <- payload:
			metrics.ScoreUpdatesRelayed.Inc()
		default:
			metrics.UpdatesDropped.Inc()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
		metrics.SubscribersConnected.Dec()
	}
}

package boundary

import (
	"context"

	"github.com/phagocyte/substrate/internal/topology"
)

// BridgeEvents drains bus and forwards every event to hub as a
// broadcast payload, until ctx is cancelled. This is the glue between
// the Colony's tick-driven topology.EventBus (published to
// synchronously inside a tick, never blocking it) and the Hub's
// asynchronous WebSocket fan-out — the two run on their own goroutines
// so neither can stall the other.
func BridgeEvents(ctx context.Context, bus *topology.EventBus, hub *Hub) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-bus.Events():
			if !ok {
				return
			}
			hub.Broadcast(map[string]any{
				"type":  "topology",
				"event": event,
			})
		}
	}
}

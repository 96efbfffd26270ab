package topology

import (
	"go.uber.org/zap"

	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/substratetypes"
)

// EventKind classifies a graph-change event, for the Colony to report
// structural activity to whatever optional observer is listening (a
// WebSocket fan-out, a metrics collector, a log line).
type EventKind string

const (
	EventNodeAdded    EventKind = "node_added"
	EventEdgeWired    EventKind = "edge_wired"
	EventEdgePruned   EventKind = "edge_pruned"
	EventEdgeDecayed  EventKind = "edge_decayed_batch"
)

// Event is one observed graph change, timestamped by substrate tick
// rather than wall-clock time — the core stays deterministic, and
// external consumers that want wall-clock time can stamp it on arrival.
type Event struct {
	Kind EventKind
	Tick substratetypes.Tick
	Node ids.NodeID
	From ids.NodeID
	To   ids.NodeID
	Edge substratetypes.EdgeData
	// Count carries batch size for EventEdgeDecayed (number pruned this sweep).
	Count int
}

// EventBus is a bounded fan-out channel for graph events. Unlike the
// teacher's topology manager, nothing here runs its own goroutine or
// ticker: the Colony's tick loop is the only driver of graph mutation,
// and it calls Publish synchronously as part of a tick. A full channel
// drops the event and logs it, rather than blocking the tick.
//
// Adapted from the teacher's SlimeMoldTopology event-channel idiom
// (internal/topology/slimemold.go), stripped of its own decay ticker
// since decay is now tick-driven, not wall-clock-driven.
type EventBus struct {
	ch     chan Event
	logger *zap.Logger
}

// NewEventBus creates a bus with the given channel capacity.
func NewEventBus(capacity int, logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		ch:     make(chan Event, capacity),
		logger: logger,
	}
}

// Publish sends an event, dropping and logging on backpressure.
func (b *EventBus) Publish(e Event) {
	select {
	case b.ch <- e:
	default:
		b.logger.Warn("topology event channel full, dropping event",
			zap.String("kind", string(e.Kind)),
			zap.Uint64("tick", e.Tick),
		)
	}
}

// Events returns the receive side for external consumers.
func (b *EventBus) Events() <-chan Event { return b.ch }

// Close shuts the bus down; callers must stop publishing before calling it.
func (b *EventBus) Close() { close(b.ch) }

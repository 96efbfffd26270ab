package boundary

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/phagocyte/substrate/internal/agents"
	"github.com/phagocyte/substrate/internal/colony"
	"github.com/phagocyte/substrate/internal/config"
	"github.com/phagocyte/substrate/internal/geometry"
	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/query"
	"github.com/phagocyte/substrate/internal/substrate"
	"github.com/phagocyte/substrate/internal/substratetypes"
	"github.com/phagocyte/substrate/internal/topology"
)

func newTestWorker(t *testing.T) (*Worker, context.CancelFunc) {
	t.Helper()
	cfg := config.Default()
	sub := substrate.New()
	col := colony.New(sub, cfg, colony.NoSpawnPolicy{}, 10, topology.NewEventBus(16, nil), zap.NewNop())
	col.Spawn(agents.KindDigester, geometry.NewPosition(0, 0), colony.DefaultGenome(1))

	worker := NewWorker(col, 4)
	ctx, cancel := context.WithCancel(context.Background())
	go worker.Run(ctx)
	return worker, cancel
}

func TestWorkerIngestAndTickAreSerialized(t *testing.T) {
	worker, cancel := newTestWorker(t)
	defer cancel()

	worker.Ingest(substratetypes.Document{
		ID:      ids.NewDocumentID(),
		Title:   "membrane transport",
		Content: "cell membrane transport channel protein",
	})

	stats := worker.Tick(3)
	if stats.Tick != 3 {
		t.Fatalf("expected tick 3 after three ticks, got %d", stats.Tick)
	}
}

func TestWorkerQueryAfterIngestAndTick(t *testing.T) {
	worker, cancel := newTestWorker(t)
	defer cancel()

	worker.Ingest(substratetypes.Document{
		ID:      ids.NewDocumentID(),
		Title:   "membrane",
		Content: "membrane channel protein transport",
	})
	worker.Tick(5)

	results, err := worker.Query("membrane", query.Config{Alpha: 0.5, MaxResults: 5, CandidateMultiplier: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = results
}

func TestHubBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(0, zap.NewNop())
	stop := make(chan struct{})
	go hub.Run(stop)
	defer close(stop)

	hub.Broadcast(map[string]string{"type": "ping"})
	time.Sleep(10 * time.Millisecond)
}

func TestHubRunStopsOnSignal(t *testing.T) {
	hub := NewHub(4, zap.NewNop())
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		hub.Run(stop)
		close(done)
	}()

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected hub.Run to return after stop is closed")
	}
}

func TestBridgeEventsForwardsToHub(t *testing.T) {
	bus := topology.NewEventBus(4, nil)
	hub := NewHub(4, zap.NewNop())
	stop := make(chan struct{})
	go hub.Run(stop)
	defer close(stop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go BridgeEvents(ctx, bus, hub)

	bus.Publish(topology.Event{Kind: topology.EventNodeAdded, Tick: 1})
	time.Sleep(10 * time.Millisecond)
}

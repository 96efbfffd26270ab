// Command substrate runs the knowledge substrate as a standalone
// process: it builds a Colony around a fresh Substrate, serves it
// through the non-reentrant boundary.Worker, exposes a WebSocket feed
// of topology events and a Prometheus /metrics endpoint, and
// checkpoints to disk on a timer. Grounded on the teacher's
// cmd/topology-manager/main.go for the overall shape (background
// listener goroutines, periodic snapshot and stats tickers, signal-
// based graceful shutdown), rewired around this domain's Colony,
// Worker and session types instead of SlimeMoldTopology and Redis.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/phagocyte/substrate/internal/agents"
	"github.com/phagocyte/substrate/internal/boundary"
	"github.com/phagocyte/substrate/internal/colony"
	"github.com/phagocyte/substrate/internal/config"
	"github.com/phagocyte/substrate/internal/geometry"
	"github.com/phagocyte/substrate/internal/session"
	"github.com/phagocyte/substrate/internal/substrate"
	"github.com/phagocyte/substrate/internal/topology"
	"github.com/phagocyte/substrate/pkg/metrics"
)

const (
	maxAgents         = 32
	spawnInterval     = 20
	eventBusCapacity  = 256
	workerBufferSize  = 32
	tickPeriod        = 2 * time.Second
	snapshotPeriod    = 30 * time.Second
	statsPeriod       = 15 * time.Second
	checkpointSession = "default"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting substrate")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	sub := substrate.New()
	bus := topology.NewEventBus(eventBusCapacity, logger)
	policy := colony.NewRandomSpawnPolicy(spawnInterval, 1)
	col := colony.New(sub, cfg, policy, maxAgents, bus, logger)
	seedPopulation(col)

	worker := boundary.NewWorker(col, workerBufferSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
	reporter := metrics.NewReporter(collector)

	hub := boundary.NewHub(64, logger)
	go hub.Run(ctx.Done())
	go boundary.BridgeEvents(ctx, bus, hub)

	if ingress := startKafkaIngress(ctx, cfg, worker, logger); ingress {
		logger.Info("kafka document ingress started", zap.Strings("brokers", cfg.KafkaBrokers))
	}

	store := session.NewFileStore("./data/sessions")

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{Addr: ":8090", Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server stopped", zap.Error(err))
		}
	}()

	go runTickLoop(ctx, worker, reporter, logger)
	go runSnapshotLoop(ctx, worker, store, logger)
	go runStatsLoop(ctx, worker, reporter, logger)

	logger.Info("substrate running", zap.String("listen", srv.Addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("substrate shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
}

// seedPopulation spawns a small founding colony so the tick loop has
// something to do before any document, Kafka feed or RandomSpawnPolicy
// interval has added agents of its own.
func seedPopulation(col *colony.Colony) {
	col.Spawn(agents.KindDigester, geometry.NewPosition(0, 0), colony.DefaultGenome(1))
	col.Spawn(agents.KindDigester, geometry.NewPosition(3, 0), colony.DefaultGenome(2))
	col.Spawn(agents.KindSentinel, geometry.NewPosition(0, 3), colony.DefaultGenome(3))
}

func runTickLoop(ctx context.Context, worker *boundary.Worker, reporter *metrics.Reporter, logger *zap.Logger) {
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			stats := worker.Tick(1)
			reporter.RecordTick(time.Since(start))
			sub, _ := worker.Snapshot()
			graph := sub.Graph()
			n := graph.NodeCount()
			density := 0.0
			if n > 1 {
				density = (2.0 * float64(graph.EdgeCount())) / (float64(n) * float64(n-1))
			}
			reporter.UpdateGraphMetrics(stats, density)
		}
	}
}

func runSnapshotLoop(ctx context.Context, worker *boundary.Worker, store *session.FileStore, logger *zap.Logger) {
	ticker := time.NewTicker(snapshotPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sub, _ := worker.Snapshot()
			doc := session.Save(sub, checkpointSession, nil)
			if err := store.SaveSession(checkpointSession, doc); err != nil {
				logger.Error("failed to save session checkpoint", zap.Error(err))
			}
		}
	}
}

func runStatsLoop(ctx context.Context, worker *boundary.Worker, reporter *metrics.Reporter, logger *zap.Logger) {
	ticker := time.NewTicker(statsPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sub, stats := worker.Snapshot()
			graph := sub.Graph()
			logger.Info("substrate stats",
				zap.Int("population", stats.Population),
				zap.Int("node_count", graph.NodeCount()),
				zap.Int("edge_count", graph.EdgeCount()),
			)
		}
	}
}

// startKafkaIngress wires a document ingress consumer when Kafka
// brokers are configured; it never blocks startup on a broker being
// reachable, matching the teacher's fire-and-forget listener goroutines.
func startKafkaIngress(ctx context.Context, cfg *config.Config, worker *boundary.Worker, logger *zap.Logger) bool {
	if len(cfg.KafkaBrokers) == 0 {
		return false
	}
	ingress := boundary.NewKafkaIngress(cfg, worker, "substrate-ingest", logger)
	go func() {
		if err := ingress.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("kafka ingress stopped", zap.Error(err))
		}
	}()
	return true
}

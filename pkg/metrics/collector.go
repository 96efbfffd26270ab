// Package metrics exposes the substrate's internal counters and gauges
// as Prometheus instruments, renamed from the teacher's mesh-topology
// metric set to this domain's knowledge-graph vocabulary. Grounded on
// pkg/metrics/collector.go and reporter.go.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds every Prometheus instrument the substrate reports.
type Collector struct {
	NodeCount       prometheus.Gauge
	EdgeCount       prometheus.Gauge
	ActiveEdgeCount prometheus.Gauge
	AgentCount      prometheus.Gauge
	EdgeWeight      prometheus.Histogram
	GraphDensity    prometheus.Gauge

	DocumentsIngested prometheus.Counter
	DocumentsDigested prometheus.Counter
	AnomaliesDetected prometheus.Counter
	InsightsCreated   prometheus.Counter

	AgentsSpawned *prometheus.CounterVec
	AgentsDied    *prometheus.CounterVec

	EdgeReinforcements prometheus.Counter
	EdgesPruned        prometheus.Counter

	QueriesServed prometheus.Counter
	QueryLatency  prometheus.Histogram
	TickDuration  prometheus.Histogram
}

// NewCollector registers every instrument against reg and returns the
// Collector wrapping them. reg is a constructor parameter rather than
// the teacher's direct use of the global default registerer
// specifically so more than one Collector can be constructed in one
// process (e.g. once per test) without a duplicate-registration panic;
// pass prometheus.DefaultRegisterer to match the teacher's behavior
// exactly, or a fresh prometheus.NewRegistry() for an isolated one.
func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		NodeCount: f.NewGauge(prometheus.GaugeOpts{
			Name: "substrate_node_count",
			Help: "Current number of nodes in the knowledge graph",
		}),
		EdgeCount: f.NewGauge(prometheus.GaugeOpts{
			Name: "substrate_edge_count",
			Help: "Current number of edges in the knowledge graph",
		}),
		ActiveEdgeCount: f.NewGauge(prometheus.GaugeOpts{
			Name: "substrate_active_edge_count",
			Help: "Number of edges with weight above the prune threshold",
		}),
		AgentCount: f.NewGauge(prometheus.GaugeOpts{
			Name: "substrate_agent_count",
			Help: "Current number of live agents in the colony",
		}),
		EdgeWeight: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "substrate_edge_weight",
			Help:    "Distribution of edge weights",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		GraphDensity: f.NewGauge(prometheus.GaugeOpts{
			Name: "substrate_graph_density",
			Help: "Ratio of actual edges to the complete-graph edge count",
		}),
		DocumentsIngested: f.NewCounter(prometheus.CounterOpts{
			Name: "substrate_documents_ingested_total",
			Help: "Total documents added to the substrate",
		}),
		DocumentsDigested: f.NewCounter(prometheus.CounterOpts{
			Name: "substrate_documents_digested_total",
			Help: "Total documents consumed by a Digester",
		}),
		AnomaliesDetected: f.NewCounter(prometheus.CounterOpts{
			Name: "substrate_anomalies_detected_total",
			Help: "Total non-self verdicts emitted by Sentinels",
		}),
		InsightsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "substrate_insights_created_total",
			Help: "Total Insight nodes created by Synthesizers",
		}),
		AgentsSpawned: f.NewCounterVec(prometheus.CounterOpts{
			Name: "substrate_agents_spawned_total",
			Help: "Total agents spawned by role",
		}, []string{"role"}),
		AgentsDied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "substrate_agents_died_total",
			Help: "Total agents removed by role",
		}, []string{"role"}),
		EdgeReinforcements: f.NewCounter(prometheus.CounterOpts{
			Name: "substrate_edge_reinforcements_total",
			Help: "Total Hebbian reinforcement events",
		}),
		EdgesPruned: f.NewCounter(prometheus.CounterOpts{
			Name: "substrate_edges_pruned_total",
			Help: "Total edges removed by decay or degree pruning",
		}),
		QueriesServed: f.NewCounter(prometheus.CounterOpts{
			Name: "substrate_queries_served_total",
			Help: "Total hybrid queries answered",
		}),
		QueryLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "substrate_query_latency_seconds",
			Help:    "Hybrid query latency",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		TickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "substrate_tick_duration_seconds",
			Help:    "Wall-clock time to run one colony tick",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14),
		}),
	}
}

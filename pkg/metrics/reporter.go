package metrics

import (
	"time"

	"github.com/phagocyte/substrate/internal/agents"
	"github.com/phagocyte/substrate/internal/colony"
)

// Reporter updates a Collector from substrate/colony state.
type Reporter struct {
	collector *Collector
}

// NewReporter wraps collector for state-driven updates.
func NewReporter(collector *Collector) *Reporter {
	return &Reporter{collector: collector}
}

// UpdateGraphMetrics pushes the gauges derived from a colony snapshot
// plus a caller-computed density (node/edge counts are cheap off
// colony.Stats; density needs the full edge set, so it's passed in
// rather than recomputed here).
func (r *Reporter) UpdateGraphMetrics(stats colony.Stats, density float64) {
	r.collector.NodeCount.Set(float64(stats.NodeCount))
	r.collector.EdgeCount.Set(float64(stats.EdgeCount))
	r.collector.AgentCount.Set(float64(stats.Population))
	r.collector.GraphDensity.Set(density)
}

// ObserveEdgeWeight records one edge's weight in the distribution
// histogram; callers iterate the graph's edges and call this per edge.
func (r *Reporter) ObserveEdgeWeight(weight float64) {
	r.collector.EdgeWeight.Observe(weight)
}

// RecordActiveEdgeCount sets the gauge of edges above the prune
// threshold.
func (r *Reporter) RecordActiveEdgeCount(n int) {
	r.collector.ActiveEdgeCount.Set(float64(n))
}

// RecordDocumentIngested increments the ingestion counter.
func (r *Reporter) RecordDocumentIngested() {
	r.collector.DocumentsIngested.Inc()
}

// RecordDocumentDigested increments the digestion counter.
func (r *Reporter) RecordDocumentDigested() {
	r.collector.DocumentsDigested.Inc()
}

// RecordAnomaly increments the anomaly counter.
func (r *Reporter) RecordAnomaly() {
	r.collector.AnomaliesDetected.Inc()
}

// RecordInsight increments the insight-creation counter.
func (r *Reporter) RecordInsight() {
	r.collector.InsightsCreated.Inc()
}

// RecordSpawn increments the per-role spawn counter.
func (r *Reporter) RecordSpawn(kind agents.Kind) {
	r.collector.AgentsSpawned.WithLabelValues(string(kind)).Inc()
}

// RecordDeath increments the per-role death counter.
func (r *Reporter) RecordDeath(kind agents.Kind) {
	r.collector.AgentsDied.WithLabelValues(string(kind)).Inc()
}

// RecordEdgeReinforcement increments the reinforcement counter.
func (r *Reporter) RecordEdgeReinforcement() {
	r.collector.EdgeReinforcements.Inc()
}

// RecordEdgesPruned adds n to the pruned-edge counter (a decay sweep
// can prune many edges at once).
func (r *Reporter) RecordEdgesPruned(n int) {
	r.collector.EdgesPruned.Add(float64(n))
}

// RecordQuery increments the query counter and observes its latency.
func (r *Reporter) RecordQuery(latency time.Duration) {
	r.collector.QueriesServed.Inc()
	r.collector.QueryLatency.Observe(latency.Seconds())
}

// RecordTick observes one tick's wall-clock duration.
func (r *Reporter) RecordTick(d time.Duration) {
	r.collector.TickDuration.Observe(d.Seconds())
}

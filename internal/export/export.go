// Package export extracts a substrate's knowledge graph as weighted
// subject-predicate-object triples for downstream consumers (training
// data pipelines, external graph stores). Grounded on
// phago-runtime/src/export.rs, which this package follows directly:
// every edge becomes one "related_to" triple carrying its Hebbian
// weight and co-activation count.
package export

import (
	"math"
	"sort"

	"github.com/phagocyte/substrate/internal/substrate"
)

// relatedTo is the sole predicate this exporter emits; the substrate's
// graph is untyped-edge, so every triple names the same relation and
// lets weight carry the semantic strength.
const relatedTo = "related_to"

// WeightedTriple is one exported (subject, predicate, object) fact.
type WeightedTriple struct {
	Subject       string
	Predicate     string
	Object        string
	Weight        float64
	CoActivations uint64
}

// Triples exports every edge in the substrate's graph as a
// WeightedTriple, sorted by weight descending so the most important
// facts come first.
func Triples(sub *substrate.Substrate) []WeightedTriple {
	graph := sub.Graph()
	edges := graph.AllEdges()

	triples := make([]WeightedTriple, 0, len(edges))
	for _, e := range edges {
		fromLabel := "?"
		if n, err := graph.GetNode(e.From); err == nil {
			fromLabel = n.Label
		}
		toLabel := "?"
		if n, err := graph.GetNode(e.To); err == nil {
			toLabel = n.Label
		}
		triples = append(triples, WeightedTriple{
			Subject:       fromLabel,
			Predicate:     relatedTo,
			Object:        toLabel,
			Weight:        e.Edge.Weight,
			CoActivations: e.Edge.CoActivations,
		})
	}

	sort.Slice(triples, func(i, j int) bool {
		if triples[i].Weight != triples[j].Weight {
			return triples[i].Weight > triples[j].Weight
		}
		if triples[i].Subject != triples[j].Subject {
			return triples[i].Subject < triples[j].Subject
		}
		return triples[i].Object < triples[j].Object
	})
	return triples
}

// TripleStats summarizes the weight and co-activation distribution of
// an exported triple set.
type TripleStats struct {
	Total             int
	MeanWeight        float64
	MedianWeight      float64
	MaxWeight         float64
	MinWeight         float64
	MeanCoActivations float64
}

// Stats computes summary statistics over a triple set. An empty set
// returns the zero TripleStats with Total 0, matching the exporter's
// no-triples case rather than dividing by zero.
func Stats(triples []WeightedTriple) TripleStats {
	if len(triples) == 0 {
		return TripleStats{}
	}

	total := len(triples)
	var sumWeight, sumCoActivations float64
	maxWeight := 0.0
	minWeight := math.MaxFloat64
	weights := make([]float64, total)
	for i, t := range triples {
		weights[i] = t.Weight
		sumWeight += t.Weight
		sumCoActivations += float64(t.CoActivations)
		if t.Weight > maxWeight {
			maxWeight = t.Weight
		}
		if t.Weight < minWeight {
			minWeight = t.Weight
		}
	}

	sorted := append([]float64(nil), weights...)
	sort.Float64s(sorted)

	return TripleStats{
		Total:             total,
		MeanWeight:        sumWeight / float64(total),
		MedianWeight:      sorted[len(sorted)/2],
		MaxWeight:         maxWeight,
		MinWeight:         minWeight,
		MeanCoActivations: sumCoActivations / float64(total),
	}
}

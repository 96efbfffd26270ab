package export

import (
	"testing"

	"github.com/phagocyte/substrate/internal/substrate"
	"github.com/phagocyte/substrate/internal/substratetypes"
)

func TestTriplesSortedByWeightDescending(t *testing.T) {
	sub := substrate.New()
	g := sub.Graph()
	a := g.AddNode(substratetypes.NodeData{Label: "a"})
	b := g.AddNode(substratetypes.NodeData{Label: "b"})
	c := g.AddNode(substratetypes.NodeData{Label: "c"})
	_ = g.SetEdge(a, b, substratetypes.EdgeData{Weight: 0.2, CoActivations: 1})
	_ = g.SetEdge(b, c, substratetypes.EdgeData{Weight: 0.9, CoActivations: 5})

	triples := Triples(sub)
	if len(triples) != 2 {
		t.Fatalf("expected 2 triples, got %d", len(triples))
	}
	if triples[0].Weight < triples[1].Weight {
		t.Fatalf("expected descending weight order, got %+v", triples)
	}
	if triples[0].Predicate != relatedTo {
		t.Errorf("expected predicate %q, got %q", relatedTo, triples[0].Predicate)
	}
}

func TestStatsOnEmptySet(t *testing.T) {
	stats := Stats(nil)
	if stats.Total != 0 {
		t.Errorf("expected zero stats for an empty triple set, got %+v", stats)
	}
}

func TestStatsComputesMeanAndMedian(t *testing.T) {
	triples := []WeightedTriple{
		{Weight: 0.1, CoActivations: 1},
		{Weight: 0.5, CoActivations: 3},
		{Weight: 0.9, CoActivations: 5},
	}
	stats := Stats(triples)
	if stats.Total != 3 {
		t.Errorf("expected total 3, got %d", stats.Total)
	}
	if stats.MedianWeight != 0.5 {
		t.Errorf("expected median 0.5, got %v", stats.MedianWeight)
	}
	if stats.MaxWeight != 0.9 || stats.MinWeight != 0.1 {
		t.Errorf("expected max/min 0.9/0.1, got %v/%v", stats.MaxWeight, stats.MinWeight)
	}
	if stats.MeanCoActivations != 3 {
		t.Errorf("expected mean co_activations 3, got %v", stats.MeanCoActivations)
	}
}

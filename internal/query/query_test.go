package query

import (
	"testing"

	"github.com/phagocyte/substrate/internal/geometry"
	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/substrate"
	"github.com/phagocyte/substrate/internal/substratetypes"
)

func defaultConfig() Config {
	return Config{Alpha: 0.5, MaxResults: 10, CandidateMultiplier: 3}
}

func TestHybridRejectsEmptyQuery(t *testing.T) {
	e := New(substrate.New())
	if _, err := e.Hybrid("   ", defaultConfig()); err == nil {
		t.Fatal("expected an error for a query with no tokenizable content")
	}
}

func TestHybridExactLabelBoostWins(t *testing.T) {
	sub := substrate.New()
	g := sub.Graph()
	transport := g.AddNode(substratetypes.NodeData{Label: "transport", Type: substratetypes.NodeConcept})
	doc := g.AddNode(substratetypes.NodeData{Label: "transport across membranes", Type: substratetypes.NodeDocument})
	_ = doc

	e := New(sub)
	results, err := e.Hybrid("transport", Config{Alpha: 1.0, MaxResults: 10, CandidateMultiplier: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].NodeID != transport {
		t.Fatalf("expected the exact-label match to rank first, got %+v", results[0])
	}
	for _, r := range results[1:] {
		if r.TFIDFScore >= results[0].TFIDFScore {
			t.Errorf("expected the exact match's tfidf score to exceed every other candidate, got %+v vs %+v", r, results[0])
		}
	}
}

func TestHybridGraphScoreFavorsWellConnectedNode(t *testing.T) {
	sub := substrate.New()
	g := sub.Graph()
	cell := g.AddNode(substratetypes.NodeData{Label: "cell", Type: substratetypes.NodeConcept})
	membrane := g.AddNode(substratetypes.NodeData{Label: "membrane", Type: substratetypes.NodeConcept})
	isolated := g.AddNode(substratetypes.NodeData{Label: "membranelike", Type: substratetypes.NodeConcept})
	_ = isolated
	if err := g.ReinforcePair(cell, membrane, 0.1, 0.1, 1); err != nil {
		t.Fatalf("unexpected error reinforcing pair: %v", err)
	}

	e := New(sub)
	results, err := e.Hybrid("membrane", Config{Alpha: 0.0, MaxResults: 10, CandidateMultiplier: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].NodeID != membrane {
		t.Fatalf("expected the connected node to outrank the isolated near-miss under pure graph scoring, got %+v", results[0])
	}
}

func TestHybridReinforceIncreasesTraversedEdgeWeight(t *testing.T) {
	sub := substrate.New()
	g := sub.Graph()
	cell := g.AddNode(substratetypes.NodeData{Label: "cell", Type: substratetypes.NodeConcept})
	membrane := g.AddNode(substratetypes.NodeData{Label: "membrane", Type: substratetypes.NodeConcept})
	if err := g.ReinforcePair(cell, membrane, 0.1, 0.1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before, err := g.GetEdge(cell, membrane)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e := New(sub)
	cfg := defaultConfig()
	var lastResults []Result
	for i := 0; i < 5; i++ {
		lastResults, err = e.HybridReinforce("cell membrane", cfg, 0.05)
		if err != nil {
			t.Fatalf("round %d: unexpected error: %v", i, err)
		}
	}
	_ = lastResults

	after, err := g.GetEdge(cell, membrane)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.Weight <= before.Weight {
		t.Fatalf("expected repeated reinforcement to strictly increase edge weight, before=%v after=%v", before.Weight, after.Weight)
	}
}

func TestShortestPathByLabelReturnsLabelsInOrder(t *testing.T) {
	sub := substrate.New()
	g := sub.Graph()
	a := g.AddNode(substratetypes.NodeData{Label: "a", Type: substratetypes.NodeConcept})
	b := g.AddNode(substratetypes.NodeData{Label: "b", Type: substratetypes.NodeConcept})
	c := g.AddNode(substratetypes.NodeData{Label: "c", Type: substratetypes.NodeConcept})
	_ = g.SetEdge(a, b, substratetypes.EdgeData{Weight: 0.9})
	_ = g.SetEdge(b, c, substratetypes.EdgeData{Weight: 0.9})

	e := New(sub)
	path, _, err := e.ShortestPathByLabel("a", "c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path) != 3 || path[0] != "a" || path[2] != "c" {
		t.Fatalf("expected path [a b c], got %v", path)
	}
}

func TestShortestPathByLabelUnknownLabel(t *testing.T) {
	e := New(substrate.New())
	if _, _, err := e.ShortestPathByLabel("nope", "also-nope"); err == nil {
		t.Fatal("expected an error for an unresolvable label")
	}
}

func TestConnectedComponentsReflectsGraphShape(t *testing.T) {
	sub := substrate.New()
	g := sub.Graph()
	a := g.AddNode(substratetypes.NodeData{Label: "a"})
	b := g.AddNode(substratetypes.NodeData{Label: "b"})
	g.AddNode(substratetypes.NodeData{Label: "isolated"})
	_ = g.SetEdge(a, b, substratetypes.EdgeData{Weight: 0.5})

	e := New(sub)
	if got := e.ConnectedComponents(); got != 2 {
		t.Errorf("expected 2 connected components, got %d", got)
	}
}

func TestHybridRespectsCandidatePoolSize(t *testing.T) {
	sub := substrate.New()
	g := sub.Graph()
	for i := 0; i < 20; i++ {
		g.AddNode(substratetypes.NodeData{Label: "membrane", Type: substratetypes.NodeConcept, Position: geometry.NewPosition(float64(i), 0)})
	}

	e := New(sub)
	results, err := e.Hybrid("membrane", Config{Alpha: 1.0, MaxResults: 3, CandidateMultiplier: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected max_results to cap the output at 3, got %d", len(results))
	}
	_ = ids.NodeID{}
}

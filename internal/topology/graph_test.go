package topology

import (
	"testing"

	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/substratetypes"
)

func TestReinforcePairCreatesThenStrengthens(t *testing.T) {
	g := New()
	a := g.AddNode(substratetypes.NodeData{Label: "alpha"})
	b := g.AddNode(substratetypes.NodeData{Label: "beta"})

	if err := g.ReinforcePair(a, b, 0.1, 0.1, 1); err != nil {
		t.Fatalf("first reinforce: %v", err)
	}
	edge, err := g.GetEdge(a, b)
	if err != nil {
		t.Fatalf("get edge: %v", err)
	}
	if edge.Weight != 0.1 {
		t.Errorf("expected tentative weight 0.1, got %v", edge.Weight)
	}
	if edge.CoActivations != 1 {
		t.Errorf("expected 1 co-activation, got %d", edge.CoActivations)
	}

	if err := g.ReinforcePair(a, b, 0.1, 0.1, 2); err != nil {
		t.Fatalf("second reinforce: %v", err)
	}
	edge, _ = g.GetEdge(a, b)
	if edge.Weight < 0.1999 || edge.Weight > 0.2001 {
		t.Errorf("expected weight ~0.2 after reinforcement, got %v", edge.Weight)
	}
	if edge.CoActivations != 2 {
		t.Errorf("expected 2 co-activations, got %d", edge.CoActivations)
	}
}

func TestReinforcePairCapsAtOne(t *testing.T) {
	g := New()
	a := g.AddNode(substratetypes.NodeData{Label: "alpha"})
	b := g.AddNode(substratetypes.NodeData{Label: "beta"})
	_ = g.ReinforcePair(a, b, 0.9, 0.5, 1)
	_ = g.ReinforcePair(a, b, 0.9, 0.5, 2)
	edge, _ := g.GetEdge(a, b)
	if edge.Weight != 1.0 {
		t.Errorf("expected weight capped at 1.0, got %v", edge.Weight)
	}
}

func TestDecayEdgesExemptsImmatureEdges(t *testing.T) {
	g := New()
	a := g.AddNode(substratetypes.NodeData{Label: "alpha"})
	b := g.AddNode(substratetypes.NodeData{Label: "beta"})
	_ = g.ReinforcePair(a, b, 0.5, 0.1, 10)

	pruned := g.DecayEdges(0.5, 0.05, 1.0, 50, 20)
	if len(pruned) != 0 {
		t.Fatalf("expected no pruning while edge is within maturation window, got %d", len(pruned))
	}
	edge, _ := g.GetEdge(a, b)
	if edge.Weight != 0.5 {
		t.Errorf("expected weight unchanged before maturation, got %v", edge.Weight)
	}
}

func TestDecayEdgesPrunesBelowThreshold(t *testing.T) {
	g := New()
	a := g.AddNode(substratetypes.NodeData{Label: "alpha"})
	b := g.AddNode(substratetypes.NodeData{Label: "beta"})
	_ = g.ReinforcePair(a, b, 0.06, 0.0, 0)

	pruned := g.DecayEdges(0.9, 0.05, 1.0, 50, 200)
	if len(pruned) != 1 {
		t.Fatalf("expected edge to be pruned once mature and weak, got %d pruned", len(pruned))
	}
	if _, err := g.GetEdge(a, b); err == nil {
		t.Error("expected edge to be removed after pruning")
	}
}

func TestPruneToMaxDegreeKeepsStrongestEdges(t *testing.T) {
	g := New()
	center := g.AddNode(substratetypes.NodeData{Label: "center"})
	weak := g.AddNode(substratetypes.NodeData{Label: "weak"})
	strong := g.AddNode(substratetypes.NodeData{Label: "strong"})

	_ = g.SetEdge(center, weak, substratetypes.EdgeData{Weight: 0.1, CoActivations: 1})
	_ = g.SetEdge(center, strong, substratetypes.EdgeData{Weight: 0.9, CoActivations: 1})

	pruned := g.PruneToMaxDegree(1)
	if len(pruned) != 1 {
		t.Fatalf("expected exactly one edge pruned, got %d", len(pruned))
	}
	if pruned[0].To != weak && pruned[0].From != weak {
		t.Errorf("expected the weak edge to be pruned, got %+v", pruned[0])
	}
	if _, err := g.GetEdge(center, strong); err != nil {
		t.Error("expected the strong edge to survive")
	}
}

func TestShortestPathPrefersStrongerEdges(t *testing.T) {
	g := New()
	a := g.AddNode(substratetypes.NodeData{Label: "a"})
	b := g.AddNode(substratetypes.NodeData{Label: "b"})
	c := g.AddNode(substratetypes.NodeData{Label: "c"})

	// Direct a-c edge is weak; a-b-c path is strong on both hops, so it
	// should win despite having more hops.
	_ = g.SetEdge(a, c, substratetypes.EdgeData{Weight: 0.01})
	_ = g.SetEdge(a, b, substratetypes.EdgeData{Weight: 0.9})
	_ = g.SetEdge(b, c, substratetypes.EdgeData{Weight: 0.9})

	path, _, ok := g.ShortestPath(a, c)
	if !ok {
		t.Fatal("expected a path to exist")
	}
	if len(path) != 3 || path[1] != b {
		t.Errorf("expected path through b, got %+v", path)
	}
}

func TestShortestPathUnreachable(t *testing.T) {
	g := New()
	a := g.AddNode(substratetypes.NodeData{Label: "a"})
	b := g.AddNode(substratetypes.NodeData{Label: "b"})
	if _, _, ok := g.ShortestPath(a, b); ok {
		t.Error("expected no path between disconnected nodes")
	}
}

func TestConnectedComponents(t *testing.T) {
	g := New()
	a := g.AddNode(substratetypes.NodeData{Label: "a"})
	b := g.AddNode(substratetypes.NodeData{Label: "b"})
	c := g.AddNode(substratetypes.NodeData{Label: "c"})
	_ = g.AddNode(substratetypes.NodeData{Label: "d"}) // isolated

	_ = g.SetEdge(a, b, substratetypes.EdgeData{Weight: 0.5})
	_ = g.SetEdge(b, c, substratetypes.EdgeData{Weight: 0.5})

	if got := g.ConnectedComponents(); got != 2 {
		t.Errorf("expected 2 components, got %d", got)
	}
}

func TestBridgeNodesRanksCutVertexHighest(t *testing.T) {
	g := New()
	left1 := g.AddNode(substratetypes.NodeData{Label: "left1"})
	left2 := g.AddNode(substratetypes.NodeData{Label: "left2"})
	bridge := g.AddNode(substratetypes.NodeData{Label: "bridge"})
	right1 := g.AddNode(substratetypes.NodeData{Label: "right1"})
	right2 := g.AddNode(substratetypes.NodeData{Label: "right2"})

	_ = g.SetEdge(left1, bridge, substratetypes.EdgeData{Weight: 0.8})
	_ = g.SetEdge(left2, bridge, substratetypes.EdgeData{Weight: 0.8})
	_ = g.SetEdge(bridge, right1, substratetypes.EdgeData{Weight: 0.8})
	_ = g.SetEdge(bridge, right2, substratetypes.EdgeData{Weight: 0.8})

	top := g.BridgeNodes(1)
	if len(top) != 1 || top[0] != bridge {
		t.Errorf("expected %v to be the top bridge node, got %v", bridge, top)
	}
}

func TestNodeNotFoundError(t *testing.T) {
	g := New()
	missing := ids.NewNodeID()
	if _, err := g.GetNode(missing); err == nil {
		t.Error("expected error for missing node")
	}
}

package community

import (
	"strconv"
	"testing"

	"github.com/phagocyte/substrate/internal/substrate"
	"github.com/phagocyte/substrate/internal/substratetypes"
)

func TestDetectSplitsTwoDenseClusters(t *testing.T) {
	sub := substrate.New()
	g := sub.Graph()

	a1 := g.AddNode(substratetypes.NodeData{Label: "a1"})
	a2 := g.AddNode(substratetypes.NodeData{Label: "a2"})
	a3 := g.AddNode(substratetypes.NodeData{Label: "a3"})
	b1 := g.AddNode(substratetypes.NodeData{Label: "b1"})
	b2 := g.AddNode(substratetypes.NodeData{Label: "b2"})
	b3 := g.AddNode(substratetypes.NodeData{Label: "b3"})

	strong := substratetypes.EdgeData{Weight: 0.9}
	_ = g.SetEdge(a1, a2, strong)
	_ = g.SetEdge(a2, a3, strong)
	_ = g.SetEdge(a1, a3, strong)
	_ = g.SetEdge(b1, b2, strong)
	_ = g.SetEdge(b2, b3, strong)
	_ = g.SetEdge(b1, b3, strong)
	_ = g.SetEdge(a1, b1, substratetypes.EdgeData{Weight: 0.05})

	result := Detect(sub, 20)
	if result.TotalNodes != 6 {
		t.Fatalf("expected 6 total nodes, got %d", result.TotalNodes)
	}
	if result.Assignments["a1"] != result.Assignments["a2"] || result.Assignments["a2"] != result.Assignments["a3"] {
		t.Errorf("expected the a-cluster to share one community, got %+v", result.Assignments)
	}
	if result.Assignments["b1"] != result.Assignments["b2"] || result.Assignments["b2"] != result.Assignments["b3"] {
		t.Errorf("expected the b-cluster to share one community, got %+v", result.Assignments)
	}
	if result.Assignments["a1"] == result.Assignments["b1"] {
		t.Errorf("expected the two dense clusters to land in different communities, got %+v", result.Assignments)
	}
}

func TestDetectOnEmptyGraph(t *testing.T) {
	result := Detect(substrate.New(), 10)
	if result.TotalNodes != 0 || result.NumCommunities != 0 {
		t.Errorf("expected an empty result for an empty graph, got %+v", result)
	}
}

func TestDetectIsDeterministicAcrossRuns(t *testing.T) {
	build := func() *substrate.Substrate {
		sub := substrate.New()
		g := sub.Graph()
		a := g.AddNode(substratetypes.NodeData{Label: "a"})
		b := g.AddNode(substratetypes.NodeData{Label: "b"})
		c := g.AddNode(substratetypes.NodeData{Label: "c"})
		_ = g.SetEdge(a, b, substratetypes.EdgeData{Weight: 0.8})
		_ = g.SetEdge(b, c, substratetypes.EdgeData{Weight: 0.8})
		return sub
	}

	r1 := Detect(build(), 10)
	r2 := Detect(build(), 10)
	if r1.Assignments["a"] != r2.Assignments["a"] || r1.Assignments["b"] != r2.Assignments["b"] {
		t.Errorf("expected identical node-to-community assignment across reruns of the same graph, got %+v vs %+v", r1.Assignments, r2.Assignments)
	}
}

func TestNMIPerfectMatch(t *testing.T) {
	assignments := make(map[string]int)
	groundTruth := make(map[string]string)
	for i := 0; i < 10; i++ {
		name := nodeName(i)
		cluster := i / 5
		assignments[name] = cluster
		groundTruth[name] = categoryName(cluster)
	}

	nmi := NMI(assignments, groundTruth)
	if nmi < 0.99 {
		t.Errorf("expected NMI close to 1.0 for a perfect match, got %v", nmi)
	}
}

func TestNMINoOverlapIsZero(t *testing.T) {
	nmi := NMI(map[string]int{"x": 0}, map[string]string{"y": "cat"})
	if nmi != 0 {
		t.Errorf("expected 0 NMI when no nodes overlap, got %v", nmi)
	}
}

func nodeName(i int) string     { return "node_" + strconv.Itoa(i) }
func categoryName(i int) string { return "cat_" + strconv.Itoa(i) }

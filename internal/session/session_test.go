package session

import (
	"testing"

	"github.com/phagocyte/substrate/internal/geometry"
	"github.com/phagocyte/substrate/internal/substrate"
	"github.com/phagocyte/substrate/internal/substratetypes"
)

func buildTestSubstrate(t *testing.T) *substrate.Substrate {
	t.Helper()
	sub := substrate.New()
	g := sub.Graph()
	cell := g.AddNode(substratetypes.NodeData{
		Label:       "cell",
		Type:        substratetypes.NodeConcept,
		Position:    geometry.NewPosition(1, 2),
		AccessCount: 4,
	})
	membrane := g.AddNode(substratetypes.NodeData{
		Label:       "membrane",
		Type:        substratetypes.NodeConcept,
		Position:    geometry.NewPosition(3, 4),
		AccessCount: 1,
	})
	if err := g.SetEdge(cell, membrane, substratetypes.EdgeData{Weight: 0.42, CoActivations: 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sub.AdvanceTick()
	sub.AdvanceTick()
	return sub
}

func TestSaveThenRestorePreservesFidelity(t *testing.T) {
	sub := buildTestSubstrate(t)
	doc := Save(sub, "sess-1", []string{"doc-a.txt"})

	if doc.Metadata.NodeCount != 2 || doc.Metadata.EdgeCount != 1 {
		t.Fatalf("expected 2 nodes and 1 edge, got %+v", doc.Metadata)
	}

	restored, err := Restore(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rg := restored.Graph()
	if rg.NodeCount() != 2 {
		t.Fatalf("expected node count preserved, got %d", rg.NodeCount())
	}
	if rg.EdgeCount() != 1 {
		t.Fatalf("expected edge count preserved, got %d", rg.EdgeCount())
	}

	cellMatches := rg.FindNodesByExactLabel("cell")
	membraneMatches := rg.FindNodesByExactLabel("membrane")
	if len(cellMatches) != 1 || len(membraneMatches) != 1 {
		t.Fatalf("expected both labels to resolve to exactly one node each")
	}

	cellNode, err := rg.GetNode(cellMatches[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cellNode.AccessCount != 4 {
		t.Errorf("expected access_count preserved, got %d", cellNode.AccessCount)
	}
	if cellNode.Position.X != 1 || cellNode.Position.Y != 2 {
		t.Errorf("expected position preserved, got %+v", cellNode.Position)
	}

	edge, err := rg.GetEdge(cellMatches[0], membraneMatches[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edge.Weight != 0.42 {
		t.Errorf("expected edge weight preserved, got %v", edge.Weight)
	}
	if edge.CoActivations != 7 {
		t.Errorf("expected co_activations preserved, got %d", edge.CoActivations)
	}
}

func TestRestoreRejectsVersionMismatch(t *testing.T) {
	doc := Document{Metadata: Metadata{Version: "999"}}
	if _, err := Restore(doc); err == nil {
		t.Fatal("expected a version mismatch error")
	}
}

func TestRestoreRejectsUnknownEdgeLabel(t *testing.T) {
	doc := Document{
		Metadata: Metadata{Version: FormatVersion},
		Nodes:    []Node{{Label: "only-node", NodeType: string(substratetypes.NodeConcept)}},
		Edges:    []Edge{{FromLabel: "only-node", ToLabel: "ghost", Weight: 0.5, CoActivations: 1}},
	}
	if _, err := Restore(doc); err == nil {
		t.Fatal("expected a corrupt-session error for a dangling edge label")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	sub := buildTestSubstrate(t)
	doc := Save(sub, "sess-file", nil)

	if err := store.SaveSession("sess-file", doc); err != nil {
		t.Fatalf("unexpected error saving: %v", err)
	}
	loaded, err := store.LoadSession("sess-file")
	if err != nil {
		t.Fatalf("unexpected error loading: %v", err)
	}
	if loaded.Metadata.NodeCount != doc.Metadata.NodeCount || loaded.Metadata.EdgeCount != doc.Metadata.EdgeCount {
		t.Fatalf("expected round-tripped metadata to match, got %+v vs %+v", loaded.Metadata, doc.Metadata)
	}
}

func TestFileStoreLoadMissingSessionErrors(t *testing.T) {
	store := NewFileStore(t.TempDir())
	if _, err := store.LoadSession("does-not-exist"); err == nil {
		t.Fatal("expected an error loading a session that was never saved")
	}
}

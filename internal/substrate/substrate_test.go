package substrate

import (
	"testing"

	"github.com/phagocyte/substrate/internal/geometry"
	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/substratetypes"
)

func TestSignalsNearFiltersByDistance(t *testing.T) {
	s := New()
	s.EmitSignal(substratetypes.Signal{
		Type:      substratetypes.SignalInput,
		Intensity: 1.0,
		Position:  geometry.NewPosition(0, 0),
	})
	s.EmitSignal(substratetypes.Signal{
		Type:      substratetypes.SignalInput,
		Intensity: 1.0,
		Position:  geometry.NewPosition(100, 100),
	})

	near := s.SignalsNear(geometry.NewPosition(0, 0), 5.0)
	if len(near) != 1 {
		t.Fatalf("expected 1 signal within radius, got %d", len(near))
	}
}

func TestSignalDecayRemovesWeakSignals(t *testing.T) {
	s := New()
	s.EmitSignal(substratetypes.Signal{Type: substratetypes.SignalInput, Intensity: 0.1})
	s.DecaySignals(0.5, 0.06)
	if len(s.SignalsNear(geometry.Position{}, 1e9)) != 0 {
		t.Error("expected the weak signal to be removed after decay")
	}
}

func TestTraceDepositAndRetrieve(t *testing.T) {
	s := New()
	nodeID := ids.NewNodeID()
	loc := substratetypes.SubstrateLocation{Kind: substratetypes.LocationGraphNode, NodeID: nodeID}
	s.DepositTrace(loc, substratetypes.Trace{Type: substratetypes.TraceVisit, Intensity: 1.0})

	traces := s.TracesAt(loc)
	if len(traces) != 1 {
		t.Fatalf("expected 1 trace, got %d", len(traces))
	}

	otherLoc := substratetypes.SubstrateLocation{Kind: substratetypes.LocationGraphNode, NodeID: ids.NewNodeID()}
	if len(s.TracesAt(otherLoc)) != 0 {
		t.Error("expected no traces at an unrelated location")
	}
}

func TestSpatialAndGraphNodeTracesDoNotCollide(t *testing.T) {
	s := New()
	spatial := substratetypes.SubstrateLocation{Kind: substratetypes.LocationSpatial, Spatial: geometry.NewPosition(0, 0)}
	graphNode := substratetypes.SubstrateLocation{Kind: substratetypes.LocationGraphNode, NodeID: ids.NewNodeID()}

	s.DepositTrace(spatial, substratetypes.Trace{Type: substratetypes.TraceVisit, Intensity: 1.0})
	if len(s.TracesAt(graphNode)) != 0 {
		t.Error("expected the graph-node location to be unaffected by a spatial deposit")
	}
}

func TestTraceDecayRemovesWeakTraces(t *testing.T) {
	s := New()
	loc := substratetypes.SubstrateLocation{Kind: substratetypes.LocationGraphNode, NodeID: ids.NewNodeID()}
	s.DepositTrace(loc, substratetypes.Trace{Type: substratetypes.TraceVisit, Intensity: 0.1})
	s.DecayTraces(0.5, 0.06)
	if len(s.TracesAt(loc)) != 0 {
		t.Error("expected the weak trace to be removed after decay")
	}
}

func TestGraphOperationsThroughSubstrate(t *testing.T) {
	s := New()
	a := s.Graph().AddNode(substratetypes.NodeData{Label: "alpha"})
	b := s.Graph().AddNode(substratetypes.NodeData{Label: "beta"})
	if err := s.Graph().ReinforcePair(a, b, 0.1, 0.1, s.CurrentTick()); err != nil {
		t.Fatalf("reinforce through substrate's graph: %v", err)
	}
	if s.Graph().EdgeCount() != 1 {
		t.Errorf("expected 1 edge, got %d", s.Graph().EdgeCount())
	}
}

func TestTickAdvances(t *testing.T) {
	s := New()
	if s.CurrentTick() != 0 {
		t.Fatalf("expected tick 0 initially, got %d", s.CurrentTick())
	}
	if got := s.AdvanceTick(); got != 1 {
		t.Errorf("expected tick 1 after advance, got %d", got)
	}
	if s.CurrentTick() != 1 {
		t.Errorf("expected CurrentTick to reflect the advance, got %d", s.CurrentTick())
	}
}

func TestDocumentExactlyOnceConsumption(t *testing.T) {
	s := New()
	doc := substratetypes.Document{ID: ids.NewDocumentID(), Title: "t", Content: "c"}
	s.AddDocument(doc)

	if undigested := s.UndigestedDocuments(); len(undigested) != 1 {
		t.Fatalf("expected 1 undigested document, got %d", len(undigested))
	}

	if err := s.ConsumeDocument(doc.ID); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if err := s.ConsumeDocument(doc.ID); err == nil {
		t.Error("expected error on second consumption of the same document")
	}
	if undigested := s.UndigestedDocuments(); len(undigested) != 0 {
		t.Errorf("expected 0 undigested documents after consumption, got %d", len(undigested))
	}
}

func TestDocumentNotFound(t *testing.T) {
	s := New()
	if _, err := s.GetDocument(ids.NewDocumentID()); err == nil {
		t.Error("expected error for unknown document")
	}
}

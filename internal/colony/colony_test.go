package colony

import (
	"testing"

	"github.com/phagocyte/substrate/internal/agents"
	"github.com/phagocyte/substrate/internal/config"
	"github.com/phagocyte/substrate/internal/geometry"
	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/substrate"
	"github.com/phagocyte/substrate/internal/substratetypes"
)

func newTestColony() (*Colony, *config.Config) {
	cfg := config.Default()
	cfg.DigesterSenseRadius = 50
	cfg.SynthesizerRadius = 50
	cfg.SynthesizerQuorum = 1.0
	sub := substrate.New()
	return New(sub, cfg, NoSpawnPolicy{}, 100, nil, nil), cfg
}

func TestDigestionWiresConceptNodesAndConsumesDocument(t *testing.T) {
	c, _ := newTestColony()
	doc := substratetypes.Document{
		ID:       ids.NewDocumentID(),
		Content:  "colony colony substrate wiring wiring wiring",
		Position: geometry.NewPosition(0, 0),
	}
	c.IngestDocument(doc)
	c.Spawn(agents.KindDigester, geometry.NewPosition(0, 0), DefaultGenome(1))

	c.Tick()

	if c.Substrate().Graph().NodeCount() == 0 {
		t.Fatal("expected concept nodes to be created")
	}
	if c.Substrate().Graph().EdgeCount() == 0 {
		t.Fatal("expected pairwise edges between co-occurring fragments")
	}
	got, err := c.Substrate().GetDocument(doc.ID)
	if err != nil || !got.Digested {
		t.Fatalf("expected document to be consumed, got digested=%v err=%v", got.Digested, err)
	}
}

func TestTwoDigestersDoNotDoubleConsumeSameDocument(t *testing.T) {
	c, _ := newTestColony()
	doc := substratetypes.Document{
		ID:       ids.NewDocumentID(),
		Content:  "alpha beta gamma",
		Position: geometry.NewPosition(0, 0),
	}
	c.IngestDocument(doc)
	c.Spawn(agents.KindDigester, geometry.NewPosition(0, 0), DefaultGenome(1))
	c.Spawn(agents.KindDigester, geometry.NewPosition(0, 0), DefaultGenome(2))

	c.Tick()

	if len(c.Substrate().UndigestedDocuments()) != 0 {
		t.Fatal("expected the single document to be fully consumed")
	}
}

func TestSentinelEmitsAnomalyForDivergentVocabulary(t *testing.T) {
	c, cfg := newTestColony()
	cfg.SentinelMaturityCount = 2
	digesterPos := geometry.NewPosition(0, 0)
	c.Spawn(agents.KindDigester, digesterPos, DefaultGenome(1))
	c.Spawn(agents.KindSentinel, digesterPos, DefaultGenome(2))

	c.IngestDocument(substratetypes.Document{ID: ids.NewDocumentID(), Content: "known known known terms terms", Position: digesterPos})
	c.Tick()

	c.IngestDocument(substratetypes.Document{ID: ids.NewDocumentID(), Content: "xenon xenon xenon quark quark", Position: digesterPos})
	c.Tick()

	anomalies := c.Substrate().SignalsNear(digesterPos, 1)
	found := false
	for _, sig := range anomalies {
		if sig.Type == substratetypes.SignalAnomaly {
			found = true
		}
	}
	if !found {
		t.Fatal("expected an anomaly signal once the self-model matured and a divergent document was digested")
	}
}

func TestSynthesizerContributionWiresNearbyConcepts(t *testing.T) {
	c, cfg := newTestColony()
	pos := geometry.NewPosition(0, 0)
	conceptA := c.Substrate().Graph().AddNode(substratetypes.NodeData{Label: "a", Type: substratetypes.NodeConcept, Position: pos})
	_ = conceptA

	c.Substrate().EmitSignal(substratetypes.Signal{Type: substratetypes.SignalPresence, Intensity: 2.0, Position: pos})
	c.Spawn(agents.KindSynthesizer, pos, DefaultGenome(1))
	_ = cfg

	before := c.Substrate().Graph().EdgeCount()
	c.Tick()
	after := c.Substrate().Graph().EdgeCount()

	if after <= before {
		t.Fatalf("expected the synthesizer's insight to wire against the nearby concept node, before=%d after=%d", before, after)
	}
}

func TestApoptosisRemovesAgentAndSpawnPolicyReplacesIt(t *testing.T) {
	sub := substrate.New()
	cfg := config.Default()
	cfg.DigesterMaxIdle = 1
	policy := NewRandomSpawnPolicy(1, 42)
	c := New(sub, cfg, policy, 5, nil, nil)
	id := c.Spawn(agents.KindDigester, geometry.NewPosition(0, 0), DefaultGenome(1))

	for i := 0; i < 6; i++ {
		c.Tick()
	}

	if _, stillAlive := c.population[id]; stillAlive {
		t.Fatal("expected the idling digester to apoptose")
	}
	sawDeath, sawSpawn := false, false
	for _, e := range c.Events() {
		if e.Kind == LifecycleDied && e.Agent == id {
			sawDeath = true
		}
		if e.Kind == LifecycleSpawned && e.Agent != id {
			sawSpawn = true
		}
	}
	if !sawDeath {
		t.Error("expected a death event for the apoptosed agent")
	}
	if !sawSpawn {
		t.Error("expected the random spawn policy to have replaced the population")
	}
}

func TestFitnessSpawnPolicySpawnsFromFittestParent(t *testing.T) {
	sub := substrate.New()
	cfg := config.Default()
	policy := NewFitnessSpawnPolicy(1, 0.0)
	c := New(sub, cfg, policy, 10, nil, nil)
	parent := c.Spawn(agents.KindDigester, geometry.NewPosition(0, 0), DefaultGenome(7))
	c.fitness.RecordOutput(parent, 5)

	before := len(c.population)
	c.runLifecycle(c.Substrate().CurrentTick(), nil)
	after := len(c.population)

	if after != before+1 {
		t.Fatalf("expected one new agent spawned from the fittest parent, before=%d after=%d", before, after)
	}
}

func TestApplyActionMoveViaOptionalMoverInterface(t *testing.T) {
	c, _ := newTestColony()
	f := &fakeMoverAgent{id: ids.NewAgentID()}
	c.population[f.id] = f

	c.applyAction(f.id, f, substratetypes.Action{Kind: substratetypes.ActionMove, MoveTarget: geometry.NewPosition(3, 4)}, 0)

	if f.state.Position != geometry.NewPosition(3, 4) {
		t.Fatalf("expected position to update via the mover interface, got %+v", f.state.Position)
	}
}

func TestApplyActionDepositStoresTrace(t *testing.T) {
	c, _ := newTestColony()
	loc := substratetypes.SubstrateLocation{Kind: substratetypes.LocationSpatial, Spatial: geometry.NewPosition(1, 1)}
	tr := substratetypes.Trace{Type: substratetypes.TraceVisit, Intensity: 0.8}

	c.applyAction(ids.NewAgentID(), nil, substratetypes.Action{
		Kind:            substratetypes.ActionDeposit,
		DepositLocation: loc,
		DepositTrace:    tr,
	}, 0)

	traces := c.Substrate().TracesAt(loc)
	if len(traces) != 1 || traces[0].Intensity != 0.8 {
		t.Fatalf("expected the deposited trace to be stored, got %+v", traces)
	}
}

func TestApplyActionWireNodesAppliesExplicitDelta(t *testing.T) {
	c, _ := newTestColony()
	g := c.Substrate().Graph()
	a := g.AddNode(substratetypes.NodeData{Label: "a", Type: substratetypes.NodeConcept})
	b := g.AddNode(substratetypes.NodeData{Label: "b", Type: substratetypes.NodeConcept})

	c.applyAction(ids.NewAgentID(), nil, substratetypes.Action{
		Kind:         substratetypes.ActionWireNodes,
		WireRequests: []substratetypes.WireRequest{{From: a, To: b, Delta: 0.05}},
	}, 1)

	edge, err := g.GetEdge(a, b)
	if err != nil {
		t.Fatalf("expected an edge to exist after an explicit wire request: %v", err)
	}
	if edge.Weight != 0.05 {
		t.Errorf("expected the edge's weight to equal the requested delta on first creation, got %v", edge.Weight)
	}
}

func TestApplySymbiosisDigestsDyingPeerAndTransfersVocabulary(t *testing.T) {
	c, _ := newTestColony()
	pos := geometry.NewPosition(0, 0)
	healthy := agents.NewDigester(ids.NewAgentID(), pos, 0, nil)
	dying := agents.NewDigester(ids.NewAgentID(), pos, 0, nil)
	for dying.State().Health != substratetypes.HealthSenescent {
		dying.Act(c.Substrate(), c.cfg, 1)
		if dying.State().Health.ShouldDie() {
			break
		}
	}
	c.population[healthy.ID()] = healthy
	c.population[dying.ID()] = dying

	c.applySymbiosis(healthy.ID(), dying.ID())

	if _, stillPresent := c.population[dying.ID()]; stillPresent {
		t.Error("expected the dying peer to be absorbed and removed from the population")
	}
}

func TestApplyExportCapabilityTransfersVocabulary(t *testing.T) {
	c, _ := newTestColony()
	pos := geometry.NewPosition(0, 0)
	from := agents.NewDigester(ids.NewAgentID(), pos, 0, nil)
	to := agents.NewDigester(ids.NewAgentID(), pos, 0, nil)
	c.population[from.ID()] = from
	c.population[to.ID()] = to

	c.applyExport(from.ID(), to.ID(), substratetypes.CapabilityID("cap-1"))

	// A second export from the same origin must be rejected as a
	// duplicate, proving the transfer above was actually recorded.
	verdict, reason := to.ImportCapability(from.ExportCapability("cap-1"))
	if verdict != substratetypes.CompatibilityReject || reason != substratetypes.RejectionDuplicateOrigin {
		t.Errorf("expected the re-export to be rejected as a duplicate origin, got %v/%v", verdict, reason)
	}
}

func TestStatsReportsPopulationAndGraphSize(t *testing.T) {
	c, _ := newTestColony()
	c.Spawn(agents.KindDigester, geometry.NewPosition(0, 0), DefaultGenome(1))
	c.Spawn(agents.KindSentinel, geometry.NewPosition(0, 0), DefaultGenome(2))

	stats := c.Stats()
	if stats.Population != 2 {
		t.Errorf("expected population 2, got %d", stats.Population)
	}
	if stats.RoleCounts[agents.KindDigester] != 1 || stats.RoleCounts[agents.KindSentinel] != 1 {
		t.Errorf("expected one of each role, got %+v", stats.RoleCounts)
	}
}

func TestRunAdvancesTickMonotonically(t *testing.T) {
	c, _ := newTestColony()
	c.Spawn(agents.KindDigester, geometry.NewPosition(0, 0), DefaultGenome(1))
	c.Run(5)
	if c.Substrate().CurrentTick() != 5 {
		t.Fatalf("expected tick to advance exactly once per Run iteration, got %d", c.Substrate().CurrentTick())
	}
}

// fakeMoverAgent is a minimal agents.Agent used only to exercise the
// colony's optional mover interface, since none of the three built-in
// roles reposition themselves.
type fakeMoverAgent struct {
	id    ids.AgentID
	state agents.State
}

func (f *fakeMoverAgent) ID() ids.AgentID    { return f.id }
func (f *fakeMoverAgent) Kind() agents.Kind  { return agents.KindDigester }
func (f *fakeMoverAgent) State() agents.State { return f.state }
func (f *fakeMoverAgent) Act(sub *substrate.Substrate, cfg *config.Config, tick substratetypes.Tick) substratetypes.Action {
	return substratetypes.Idle()
}
func (f *fakeMoverAgent) SetPosition(p geometry.Position) { f.state.Position = p }

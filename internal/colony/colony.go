// Package colony implements the tick-driven scheduler that owns the
// agent population and drives it through the substrate each tick:
// Sense is folded into each agent's own Act call, then Act effects are
// applied in ascending agent-id order, then the substrate decays, then
// the population's lifecycle (deaths, spawns) is resolved. A tick never
// spawns a goroutine — determinism comes from running every phase on one
// goroutine in a fixed order, the same posture the teacher's
// internal/agent/agent.go takes toward any single agent's message loop,
// generalized here to the whole population.
package colony

import (
	"sort"

	"go.uber.org/zap"

	"github.com/phagocyte/substrate/internal/agents"
	"github.com/phagocyte/substrate/internal/config"
	"github.com/phagocyte/substrate/internal/geometry"
	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/substrate"
	"github.com/phagocyte/substrate/internal/substratetypes"
	"github.com/phagocyte/substrate/internal/topology"
)

// LifecycleKind classifies a population-level event.
type LifecycleKind string

const (
	LifecycleSpawned LifecycleKind = "spawned"
	LifecycleDied    LifecycleKind = "died"
)

// LifecycleEvent records one spawn or death, kept in a bounded ring for
// Colony.Events.
type LifecycleEvent struct {
	Kind  LifecycleKind
	Tick  substratetypes.Tick
	Agent ids.AgentID
	Role  agents.Kind
	Death *substratetypes.DeathSignal
}

// Stats summarizes the population and substrate at a point in time.
type Stats struct {
	Tick              substratetypes.Tick
	Population        int
	RoleCounts        map[agents.Kind]int
	NodeCount         int
	EdgeCount         int
	DocumentCount     int
	UndigestedCount   int
}

const maxEventLog = 500

// Colony owns the substrate, the live agent population, and the policies
// governing spawn and decay. All public methods run on the caller's
// goroutine; nothing here is safe to call concurrently from two
// goroutines, by design — see DESIGN.md's note on the package-wide mutex
// posture.
type Colony struct {
	sub    *substrate.Substrate
	cfg    *config.Config
	logger *zap.Logger
	bus    *topology.EventBus

	population map[ids.AgentID]agents.Agent
	genomes    map[ids.AgentID]Genome
	fitness    *FitnessTracker

	spawnPolicy SpawnPolicy
	maxAgents   int
	placeSeed   uint64

	events []LifecycleEvent
}

// New constructs an empty colony over the given substrate.
func New(sub *substrate.Substrate, cfg *config.Config, policy SpawnPolicy, maxAgents int, bus *topology.EventBus, logger *zap.Logger) *Colony {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == nil {
		policy = NoSpawnPolicy{}
	}
	return &Colony{
		sub:         sub,
		cfg:         cfg,
		logger:      logger,
		bus:         bus,
		population:  make(map[ids.AgentID]agents.Agent),
		genomes:     make(map[ids.AgentID]Genome),
		fitness:     NewFitnessTracker(),
		spawnPolicy: policy,
		maxAgents:   maxAgents,
		placeSeed:   1,
	}
}

// Substrate exposes the underlying substrate for session/query/export
// callers that need direct access to the graph and document pool.
func (c *Colony) Substrate() *substrate.Substrate { return c.sub }

// Config exposes the colony's tunables.
func (c *Colony) Config() *config.Config { return c.cfg }

// IngestDocument adds a document to the substrate's undigested pool.
func (c *Colony) IngestDocument(doc substratetypes.Document) {
	c.sub.AddDocument(doc)
}

// Spawn creates one agent of kind at pos from the given genome and adds
// it to the population, returning its id. The genome is stored for the
// agent so a spawn policy can derive a child from it via Mutate; its
// biases are not read by the agent roles and do not change any sense
// radius or vocabulary.
func (c *Colony) Spawn(kind agents.Kind, pos geometry.Position, genome Genome) ids.AgentID {
	tick := c.sub.CurrentTick()
	id := ids.NewAgentID()

	var agent agents.Agent
	switch kind {
	case agents.KindSentinel:
		agent = agents.NewSentinel(id, pos, tick, c.cfg.SentinelMaturityCount, c.logger)
	case agents.KindSynthesizer:
		agent = agents.NewSynthesizer(id, pos, tick, c.logger)
	default:
		agent = agents.NewDigester(id, pos, tick, c.logger)
		kind = agents.KindDigester
	}

	c.population[id] = agent
	c.genomes[id] = genome
	c.recordEvent(LifecycleEvent{Kind: LifecycleSpawned, Tick: tick, Agent: id, Role: kind})
	return id
}

// nextPlacement deterministically derives a spawn position from the
// colony's own placement LCG stream, bounded to a modest plane so agents
// land near the documents and each other rather than scattering to
// infinity.
func (c *Colony) nextPlacement() geometry.Position {
	c.placeSeed = nextSeed(c.placeSeed)
	x := (unitFromSeed(c.placeSeed) - 0.5) * 20
	c.placeSeed = nextSeed(c.placeSeed)
	y := (unitFromSeed(c.placeSeed) - 0.5) * 20
	return geometry.NewPosition(x, y)
}

func (c *Colony) recordEvent(e LifecycleEvent) {
	c.events = append(c.events, e)
	if len(c.events) > maxEventLog {
		c.events = c.events[len(c.events)-maxEventLog:]
	}
}

// Events returns the bounded lifecycle log, oldest first.
func (c *Colony) Events() []LifecycleEvent {
	out := make([]LifecycleEvent, len(c.events))
	copy(out, c.events)
	return out
}

// Stats reports the current population and substrate size.
func (c *Colony) Stats() Stats {
	s := Stats{
		Tick:          c.sub.CurrentTick(),
		Population:    len(c.population),
		RoleCounts:    make(map[agents.Kind]int),
		NodeCount:     c.sub.Graph().NodeCount(),
		EdgeCount:     c.sub.Graph().EdgeCount(),
		DocumentCount: c.sub.DocumentCount(),
	}
	for _, a := range c.population {
		s.RoleCounts[a.Kind()]++
	}
	s.UndigestedCount = len(c.sub.UndigestedDocuments())
	return s
}

// sortedIDs returns the live population's ids in the strict ascending
// order the Act phase requires for determinism.
func (c *Colony) sortedIDs() []ids.AgentID {
	out := make([]ids.AgentID, 0, len(c.population))
	for id := range c.population {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

func (c *Colony) sentinels() []*agents.Sentinel {
	var out []*agents.Sentinel
	ordered := c.sortedIDs()
	for _, id := range ordered {
		if s, ok := c.population[id].(*agents.Sentinel); ok {
			out = append(out, s)
		}
	}
	return out
}

// Tick runs exactly one Sense/Act -> Decay -> Lifecycle cycle and
// advances the substrate's clock.
func (c *Colony) Tick() {
	tick := c.sub.CurrentTick()
	var dying []ids.AgentID

	for _, id := range c.sortedIDs() {
		agent, ok := c.population[id]
		if !ok {
			continue // removed earlier this same tick by a symbiotic digest
		}
		action := agent.Act(c.sub, c.cfg, tick)
		if died := c.applyAction(id, agent, action, tick); died {
			dying = append(dying, id)
		}
	}

	c.runDecay(tick)
	c.runLifecycle(tick, dying)

	c.sub.AdvanceTick()
}

// Run advances the colony n ticks.
func (c *Colony) Run(n int) {
	for i := 0; i < n; i++ {
		c.Tick()
	}
}

// applyAction interprets one agent's returned Action against the
// substrate and graph, returning true if the action was Apoptose.
func (c *Colony) applyAction(id ids.AgentID, agent agents.Agent, action substratetypes.Action, tick substratetypes.Tick) bool {
	switch action.Kind {
	case substratetypes.ActionIdle:
		// nothing to do

	case substratetypes.ActionMove:
		if m, ok := agent.(mover); ok {
			m.SetPosition(action.MoveTarget)
		}

	case substratetypes.ActionPresentFragments:
		c.applyPresentFragments(id, action, tick)

	case substratetypes.ActionDeposit:
		c.sub.DepositTrace(action.DepositLocation, action.DepositTrace)

	case substratetypes.ActionEmit:
		c.sub.EmitSignal(action.EmitSignal)

	case substratetypes.ActionWireNodes:
		for _, req := range action.WireRequests {
			c.wireDelta(req.From, req.To, req.Delta, tick)
		}

	case substratetypes.ActionContributeToCollective:
		c.applyContribute(id, agent, action, tick)

	case substratetypes.ActionApoptose:
		return true

	case substratetypes.ActionSymbioseWith:
		c.applySymbiosis(id, action.SymbioseTarget)

	case substratetypes.ActionExportCapability:
		// SymbioseTarget doubles as "the other agent involved" here: the
		// capability's recipient rather than a symbiosis target.
		c.applyExport(id, action.SymbioseTarget, substratetypes.CapabilityID(action.CapabilityID))

	default:
		c.logger.Warn("unhandled action kind", zap.String("kind", string(action.Kind)))
	}
	return false
}

// mover is an optional capability an Agent implementation may support;
// none of the three built-in roles move today, but the interpreter
// honors it for any role that does.
type mover interface {
	SetPosition(geometry.Position)
}

// applyPresentFragments wires a digester's extracted fragments into
// Concept nodes, reinforces every pairwise co-occurrence among them, folds
// every label into the substrate's collective self-model, and lets each
// mature sentinel classify the batch.
func (c *Colony) applyPresentFragments(id ids.AgentID, action substratetypes.Action, tick substratetypes.Tick) {
	if err := c.sub.ConsumeDocument(action.DocumentID); err != nil {
		return // already consumed by a faster digester this tick
	}

	nodeIDs := make([]ids.NodeID, 0, len(action.Fragments))
	labels := make([]string, 0, len(action.Fragments))
	novel := 0
	for _, frag := range action.Fragments {
		if !c.labelPreexisted(frag.Label) {
			novel++
		}
		nodeIDs = append(nodeIDs, c.findOrCreateNode(frag, tick))
		labels = append(labels, frag.Label)
	}

	for i := 0; i < len(nodeIDs); i++ {
		for j := i + 1; j < len(nodeIDs); j++ {
			_ = c.sub.Graph().ReinforcePair(nodeIDs[i], nodeIDs[j], c.cfg.TentativeWeight, c.cfg.ReinforcementBoost, tick)
		}
	}

	for _, s := range c.sentinels() {
		wasMature := s.Mature()
		if wasMature {
			verdict := s.Classify(labels, c.cfg.SentinelJaccard)
			if !verdict.IsSelf {
				c.sub.EmitSignal(substratetypes.Signal{
					Type:         substratetypes.SignalAnomaly,
					Intensity:    verdict.Deviation,
					Position:     action.Fragments[0].Position,
					Emitter:      s.ID(),
					EmissionTick: tick,
				})
			}
		}
		for _, label := range labels {
			s.Observe(label)
		}
	}
	c.fitness.RecordOutput(id, novel)
}

// labelPreexisted is a best-effort novelty check: a digester's own known
// vocabulary isn't exposed generically on the Agent interface, so novelty
// is approximated from the graph itself. It is called before
// findOrCreateNode runs for the label, so a label counts as pre-existing
// if any node already carries it.
func (c *Colony) labelPreexisted(label string) bool {
	return len(c.sub.Graph().FindNodesByExactLabel(label)) > 0
}

func (c *Colony) findOrCreateNode(frag substratetypes.FragmentPresentation, tick substratetypes.Tick) ids.NodeID {
	for _, nodeID := range c.sub.Graph().FindNodesByExactLabel(frag.Label) {
		n, err := c.sub.Graph().GetNode(nodeID)
		if err == nil && n.Type == frag.NodeType {
			c.sub.Graph().TouchNode(nodeID)
			return nodeID
		}
	}
	return c.sub.Graph().AddNode(substratetypes.NodeData{
		Label:       frag.Label,
		Type:        frag.NodeType,
		Position:    frag.Position,
		CreatedTick: tick,
	})
}

// applyContribute creates an Insight node for a synthesizer's
// contribution and reinforces it against every Concept node within the
// synthesizer's radius, bridging the cluster the quorum formed over.
func (c *Colony) applyContribute(id ids.AgentID, agent agents.Agent, action substratetypes.Action, tick substratetypes.Tick) {
	if len(action.Fragments) == 0 {
		return
	}
	insightID := c.findOrCreateNode(action.Fragments[0], tick)

	pos := agent.State().Position
	for _, nodeID := range c.sub.Graph().AllNodes() {
		if nodeID == insightID {
			continue
		}
		n, err := c.sub.Graph().GetNode(nodeID)
		if err != nil || n.Type != substratetypes.NodeConcept {
			continue
		}
		if n.Position.DistanceTo(pos) > c.cfg.SynthesizerRadius {
			continue
		}
		_ = c.sub.Graph().ReinforcePair(insightID, nodeID, c.cfg.TentativeWeight, c.cfg.ReinforcementBoost, tick)
	}
	c.fitness.RecordOutput(id, 0)
}

// wireDelta applies an explicit WireRequest: a small, possibly
// sub-reinforcement-boost nudge (e.g. query-time reinforcement) rather
// than the Hebbian create-or-strengthen rule ReinforcePair enforces.
func (c *Colony) wireDelta(from, to ids.NodeID, delta float64, tick substratetypes.Tick) {
	g := c.sub.Graph()
	existing, err := g.GetEdge(from, to)
	if err != nil {
		_ = g.SetEdge(from, to, substratetypes.EdgeData{
			Weight:            delta,
			CoActivations:     1,
			CreatedTick:       tick,
			LastActivatedTick: tick,
		})
		return
	}
	existing.Weight += delta
	existing.CoActivations++
	existing.LastActivatedTick = tick
	_ = g.SetEdge(from, to, existing)
}

// applySymbiosis looks up both profiles and, on Digest, absorbs the
// target's vocabulary into the caller before removing the target from
// the population; Integrate merges capabilities without removing
// either agent; Coexist is a no-op.
func (c *Colony) applySymbiosis(selfID, targetID ids.AgentID) {
	selfAgent, ok := c.population[selfID]
	if !ok {
		return
	}
	targetAgent, ok := c.population[targetID]
	if !ok {
		return
	}
	selfDigester, selfOK := selfAgent.(*agents.Digester)
	targetDigester, targetOK := targetAgent.(*agents.Digester)
	if !selfOK || !targetOK {
		return
	}

	verdict := agents.EvaluateSymbiosis(
		selfDigester.State().Profile(string(selfDigester.Kind()), nil),
		targetDigester.State().Profile(string(targetDigester.Kind()), nil),
	)
	switch verdict {
	case substratetypes.SymbiosisDigest:
		cap := targetDigester.ExportCapability(substratetypes.CapabilityID(targetID.String()))
		verdict, _ := selfDigester.ImportCapability(cap)
		c.fitness.RecordTransfer(selfID, verdict == substratetypes.CompatibilityReject)
		delete(c.population, targetID)
		c.recordEvent(LifecycleEvent{Kind: LifecycleDied, Tick: c.sub.CurrentTick(), Agent: targetID, Role: targetDigester.Kind()})
	case substratetypes.SymbiosisIntegrate:
		cap := targetDigester.ExportCapability(substratetypes.CapabilityID(targetID.String()))
		_, _ = selfDigester.ImportCapability(cap)
	}
}

// applyExport evaluates a capability transfer between two live digesters
// without triggering a full symbiosis judgment.
func (c *Colony) applyExport(fromID, toID ids.AgentID, capID substratetypes.CapabilityID) {
	from, ok := c.population[fromID].(*agents.Digester)
	if !ok {
		return
	}
	to, ok := c.population[toID].(*agents.Digester)
	if !ok {
		return
	}
	cap := from.ExportCapability(capID)
	verdict, _ := to.ImportCapability(cap)
	c.fitness.RecordTransfer(toID, verdict == substratetypes.CompatibilityReject)
}

// runDecay applies edge decay, pruning, signal decay and trace decay in
// that order, publishing a batch event to the topology bus for whatever
// is listening.
func (c *Colony) runDecay(tick substratetypes.Tick) {
	g := c.sub.Graph()
	pruned := g.DecayEdges(c.cfg.EdgeDecayRate, c.cfg.EdgePruneThreshold, c.cfg.StalenessFactor, c.cfg.MaturationTicks, tick)
	pruned = append(pruned, g.PruneToMaxDegree(c.cfg.MaxEdgeDegree)...)
	if c.bus != nil && len(pruned) > 0 {
		c.bus.Publish(topology.Event{Kind: topology.EventEdgeDecayed, Tick: tick, Count: len(pruned)})
	}
	c.sub.DecaySignals(c.cfg.SignalDecayRate, c.cfg.SignalRemovalThreshold)
	c.sub.DecayTraces(c.cfg.TraceDecayRate, c.cfg.TraceRemovalThreshold)
}

// runLifecycle removes agents that apoptosed this tick, records their
// death signals, updates each live agent's connectivity fitness sample,
// and finally consults the spawn policy.
func (c *Colony) runLifecycle(tick substratetypes.Tick, dying []ids.AgentID) {
	for _, id := range dying {
		agent, ok := c.population[id]
		if !ok {
			continue
		}
		death := agents.Apoptose(agent.State())
		delete(c.population, id)
		delete(c.genomes, id)
		c.recordEvent(LifecycleEvent{Kind: LifecycleDied, Tick: tick, Agent: id, Role: agent.Kind(), Death: &death})
	}

	g := c.sub.Graph()
	total := g.NodeCount()
	for id, agent := range c.population {
		pos := agent.State().Position
		touched := 0
		for _, n := range g.AllNodes() {
			nd, err := g.GetNode(n)
			if err == nil && nd.Position.DistanceTo(pos) <= c.cfg.DigesterSenseRadius {
				touched++
			}
		}
		connectivity := 0.0
		if total > 0 {
			connectivity = float64(touched) / float64(total)
			if connectivity > 1 {
				connectivity = 1
			}
		}
		c.fitness.SetConnectivity(id, connectivity)
	}

	decision := c.spawnPolicy.NextSpawn(tick, len(c.population), c.maxAgents, c.fitness, c.sortedIDs())
	if !decision.Spawn {
		return
	}
	genome := DefaultGenome(tick + 1)
	if decision.Parent != (ids.AgentID{}) {
		if parentGenome, ok := c.genomes[decision.Parent]; ok {
			genome = Mutate(parentGenome)
		}
	}
	c.Spawn(decision.Kind, c.nextPlacement(), genome)
}

// Package substratetypes holds the shared data model every other package
// builds on: documents, signals, traces, graph node/edge records, agent
// health, actions, and the small value types the biological primitives
// pass around. Grounded on phago-core/src/types.rs.
package substratetypes

import (
	"github.com/phagocyte/substrate/internal/geometry"
	"github.com/phagocyte/substrate/internal/ids"
)

// Tick is the substrate's single monotonic clock.
type Tick = uint64

// --- Documents ---

// Document is ingested once, mutated only to flip Digested false→true.
type Document struct {
	ID       ids.DocumentID
	Title    string
	Content  string
	Position geometry.Position
	Digested bool
}

// --- Signals ---

// SignalType distinguishes the channel a signal is emitted on.
type SignalType string

const (
	SignalInput      SignalType = "input"
	SignalPresence   SignalType = "presence"
	SignalQuorum     SignalType = "quorum"
	SignalAnomaly    SignalType = "anomaly"
	SignalInsight    SignalType = "insight"
	SignalCapability SignalType = "capability"
)

// SignalCustom builds a named custom signal type.
func SignalCustom(name string) SignalType { return SignalType("custom:" + name) }

// Signal is an emitted, decaying chemotactic marker.
type Signal struct {
	Type         SignalType
	Intensity    float64
	Position     geometry.Position
	Emitter      ids.AgentID
	EmissionTick Tick
}

// Decay multiplies intensity by (1-rate), floored at zero.
func (s *Signal) Decay(rate float64) {
	s.Intensity *= 1 - rate
	if s.Intensity < 0 {
		s.Intensity = 0
	}
}

// BelowThreshold reports whether the signal should be removed.
func (s *Signal) BelowThreshold(threshold float64) bool {
	return s.Intensity < threshold
}

// --- Traces ---

// TraceType distinguishes why a trace was deposited.
type TraceType string

const (
	TraceVisit             TraceType = "visit"
	TraceDigestion         TraceType = "digestion"
	TraceImportance        TraceType = "importance"
	TraceCapabilityDeposit TraceType = "capability_deposit"
)

// TraceCustom builds a named custom trace type.
func TraceCustom(name string) TraceType { return TraceType("custom:" + name) }

// Trace is a stigmergic deposit at a substrate location.
type Trace struct {
	AgentID   ids.AgentID
	Type      TraceType
	Intensity float64
	Tick      Tick
	Payload   []byte
}

// SubstrateLocationKind distinguishes how a location is addressed.
type SubstrateLocationKind int

const (
	LocationSpatial SubstrateLocationKind = iota
	LocationGraphNode
)

// SubstrateLocation is either a quantized spatial cell or a graph node
// handle; the two kinds never collide.
type SubstrateLocation struct {
	Kind     SubstrateLocationKind
	Spatial  geometry.Position
	NodeID   ids.NodeID
}

// Key returns a hashable, collision-free key for trace-map storage.
func (l SubstrateLocation) Key() any {
	switch l.Kind {
	case LocationGraphNode:
		return l.NodeID
	default:
		return l.Spatial.Quantize()
	}
}

// --- Knowledge graph records ---

// NodeType classifies a knowledge-graph node.
type NodeType string

const (
	NodeConcept  NodeType = "Concept"
	NodeDocument NodeType = "Document"
	NodeInsight  NodeType = "Insight"
	NodeAnomaly  NodeType = "Anomaly"
)

// NodeData is a knowledge-graph vertex.
type NodeData struct {
	ID          ids.NodeID
	Label       string
	Type        NodeType
	Position    geometry.Position
	AccessCount uint64
	CreatedTick Tick
}

// EdgeData is an undirected knowledge-graph edge.
type EdgeData struct {
	Weight           float64
	CoActivations    uint64
	CreatedTick      Tick
	LastActivatedTick Tick
}

// PrunedConnection records an edge removed by decay or degree-capping, for
// audit trails returned by DecayEdges/PruneToMaxDegree.
type PrunedConnection struct {
	From, To ids.NodeID
	Edge     EdgeData
}

// --- Agent health and death ---

// CellHealth is the agent's self-assessed state; the last three imply the
// agent should die.
type CellHealth string

const (
	HealthHealthy     CellHealth = "Healthy"
	HealthStressed    CellHealth = "Stressed"
	HealthCompromised CellHealth = "Compromised"
	HealthRedundant   CellHealth = "Redundant"
	HealthSenescent   CellHealth = "Senescent"
)

// ShouldDie reports whether this health state implies apoptosis.
func (h CellHealth) ShouldDie() bool {
	switch h {
	case HealthCompromised, HealthRedundant, HealthSenescent:
		return true
	default:
		return false
	}
}

// DeathCauseKind tags why an agent died.
type DeathCauseKind string

const (
	CauseSelfAssessed       DeathCauseKind = "SelfAssessed"
	CauseExternalSignal     DeathCauseKind = "ExternalSignal"
	CauseRuntimeTermination DeathCauseKind = "RuntimeTermination"
	CauseSymbioticAbsorption DeathCauseKind = "SymbioticAbsorption"
)

// DeathCause carries the kind plus whatever payload that kind needs.
type DeathCause struct {
	Kind        DeathCauseKind
	Health      CellHealth  // set when Kind == CauseSelfAssessed
	AbsorberID  ids.AgentID // set when Kind == CauseSymbioticAbsorption
}

// DeathSignal is emitted once an agent dies, carrying its final tally.
type DeathSignal struct {
	AgentID       ids.AgentID
	TotalTicks    uint64
	UsefulOutputs uint64
	FinalFragments []string
	Cause         DeathCause
}

// BoundaryContext feeds the Dissolve primitive's boundary-modulation
// decision.
type BoundaryContext struct {
	ReinforcementCount uint64
	Age                uint64
	Trust              float64 // in [0,1]
}

// --- Actions ---

// ActionKind is the closed set of things an agent may return each tick.
type ActionKind string

const (
	ActionIdle               ActionKind = "Idle"
	ActionMove               ActionKind = "Move"
	ActionEngulfDocument     ActionKind = "EngulfDocument"
	ActionPresentFragments   ActionKind = "PresentFragments"
	ActionDeposit            ActionKind = "Deposit"
	ActionEmit               ActionKind = "Emit"
	ActionWireNodes          ActionKind = "WireNodes"
	ActionApoptose           ActionKind = "Apoptose"
	ActionSymbioseWith       ActionKind = "SymbioseWith"
	ActionExportCapability   ActionKind = "ExportCapability"
	ActionContributeToCollective ActionKind = "ContributeToCollective"
)

// FragmentPresentation is one salient term a Digester surfaces.
type FragmentPresentation struct {
	Label      string
	SourceDoc  ids.DocumentID
	Position   geometry.Position
	NodeType   NodeType
}

// WireRequest strengthens a single pair by delta; delta may be the default
// reinforcement boost or a smaller amount (e.g. query-time reinforcement).
type WireRequest struct {
	From, To ids.NodeID
	Delta    float64
}

// Action is the tagged union an agent's tick returns. Only the fields
// relevant to Kind are populated; this mirrors the Rust AgentAction enum
// as a Go tagged struct (§9's "tagged variants" guidance).
type Action struct {
	Kind ActionKind

	MoveTarget geometry.Position

	DocumentID ids.DocumentID

	Fragments []FragmentPresentation

	DepositLocation SubstrateLocation
	DepositTrace    Trace

	EmitSignal Signal

	WireRequests []WireRequest

	SymbioseTarget ids.AgentID

	CapabilityID string
}

// Idle is the zero-cost default action.
func Idle() Action { return Action{Kind: ActionIdle} }

// --- Capabilities / Transfer ---

// CapabilityID names an exportable capability.
type CapabilityID string

// CapabilityDescriptor describes a capability without its payload, used
// for evaluate_foreign-style compatibility checks.
type CapabilityDescriptor struct {
	ID     CapabilityID
	Origin ids.AgentID
	Terms  int // size of the vocabulary being offered
}

// Capability is an exported, opaque capability payload: a vocabulary list
// tagged with its origin. The specification's Open Questions direct
// treating capabilities as opaque bytes with an origin tag, never as
// executable content.
type Capability struct {
	Descriptor CapabilityDescriptor
	Vocabulary []string
}

// Compatibility is the result of evaluating a foreign capability.
type Compatibility string

const (
	CompatibilityAccept Compatibility = "Accept"
	CompatibilityReject Compatibility = "Reject"
)

// RejectionReason explains why Integrate failed.
type RejectionReason string

const (
	RejectionDuplicateOrigin RejectionReason = "DuplicateOrigin"
	RejectionIncompatible    RejectionReason = "Incompatible"
)

// --- Symbiosis ---

// SymbiosisEval is the result of evaluating another agent for symbiosis.
type SymbiosisEval string

const (
	SymbiosisDigest   SymbiosisEval = "Digest"
	SymbiosisIntegrate SymbiosisEval = "Integrate"
	SymbiosisCoexist  SymbiosisEval = "Coexist"
)

// AgentProfile is the externally-visible summary of an agent used when
// another agent evaluates it for symbiosis.
type AgentProfile struct {
	ID           ids.AgentID
	AgentType    string
	Capabilities []CapabilityDescriptor
	Health       CellHealth
}

// --- Sentinel classification ---

// Classification is the Sentinel's verdict on an observation.
type Classification struct {
	IsSelf    bool
	Unknown   bool
	Deviation float64 // in (0,1], populated when NonSelf
}

// --- Stigmergy ---

// StigmergicResponse is how an agent reacts to traces it reads.
type StigmergicResponse string

const (
	ResponseAttract StigmergicResponse = "Attract"
	ResponseRepel   StigmergicResponse = "Repel"
	ResponseDeposit StigmergicResponse = "Deposit"
	ResponseIgnore  StigmergicResponse = "Ignore"
)

// Orientation is the result of following a gradient.
type Orientation string

const (
	OrientTowards Orientation = "Toward"
	OrientStay    Orientation = "Stay"
	OrientExplore Orientation = "Explore"
)

// Gradient is a weighted direction derived from nearby signals.
type Gradient struct {
	Direction geometry.Position // unit-ish vector, not a position
	Magnitude float64
	Type      SignalType
}

// Contribution is what an Emerge-capable agent contributes once quorum is
// reached.
type Contribution struct {
	Label string
	Terms []string
}

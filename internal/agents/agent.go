// Package agents implements the three biological roles that populate a
// Colony — Digester, Sentinel, Synthesizer — and the shared primitives
// they act through: Digest, Apoptose, Sense, Wire, Dissolve, Negate,
// Emerge, Transfer, Symbiose, Stigmerge.
//
// Every role exposes an Act method with the same shape: given the shared
// Substrate and the current Config, decide on exactly one
// substratetypes.Action for this tick. The Colony (internal/colony) is
// the only thing that calls Act, always in ascending AgentID order
// within a single tick, and it alone applies an Action's effects back
// onto the Substrate — agents never mutate the graph directly, keeping
// the whole tick deterministic and reviewable.
//
// Grounded on the teacher's internal/agent/agent.go for the
// logger-scoping idiom (zap.Logger.With(agent_id, ...)) and on
// internal/consensus/{bee,waggle,quorum}.go for the bee-colony behaviors
// (waggle-dance-style signaling, quorum sensing) that Synthesizer's
// Emerge primitive generalizes from proposal-voting to graph insight
// formation.
package agents

import (
	"go.uber.org/zap"

	"github.com/phagocyte/substrate/internal/config"
	"github.com/phagocyte/substrate/internal/geometry"
	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/substrate"
	"github.com/phagocyte/substrate/internal/substratetypes"
)

// Kind names an agent's biological role.
type Kind string

const (
	KindDigester    Kind = "Digester"
	KindSentinel    Kind = "Sentinel"
	KindSynthesizer Kind = "Synthesizer"
)

// State is the common bookkeeping every role carries: identity,
// position, health, and the lifetime tallies a DeathSignal reports.
type State struct {
	ID            ids.AgentID
	Kind          Kind
	Position      geometry.Position
	Health        substratetypes.CellHealth
	SpawnTick     substratetypes.Tick
	TicksAlive    uint64
	IdleTicks     uint64
	UsefulOutputs uint64

	// AcceptedOrigins records capability origins already integrated, so
	// Transfer's double-integration check has something to consult.
	AcceptedOrigins map[ids.AgentID]struct{}
}

func newState(id ids.AgentID, kind Kind, pos geometry.Position, spawnTick substratetypes.Tick) State {
	return State{
		ID:              id,
		Kind:            kind,
		Position:        pos,
		Health:          substratetypes.HealthHealthy,
		SpawnTick:       spawnTick,
		AcceptedOrigins: make(map[ids.AgentID]struct{}),
	}
}

// Profile summarizes an agent for another agent's Symbiose evaluation.
func (s State) Profile(agentType string, caps []substratetypes.CapabilityDescriptor) substratetypes.AgentProfile {
	return substratetypes.AgentProfile{
		ID:           s.ID,
		AgentType:    agentType,
		Capabilities: caps,
		Health:       s.Health,
	}
}

// scopedLogger applies the teacher's agent-id/role scoping convention to
// a base logger.
func scopedLogger(base *zap.Logger, id ids.AgentID, kind Kind) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return base.With(zap.String("agent_id", id.String()), zap.String("role", string(kind)))
}

// Agent is the interface the Colony drives: one Act call per tick, in
// ascending AgentID order. Act may read the Substrate freely but must not
// mutate it directly — its return value describes the intended mutation,
// which the Colony applies.
type Agent interface {
	ID() ids.AgentID
	Kind() Kind
	State() State
	Act(sub *substrate.Substrate, cfg *config.Config, tick substratetypes.Tick) substratetypes.Action
}

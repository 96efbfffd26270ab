package colony

import (
	"github.com/phagocyte/substrate/internal/agents"
	"github.com/phagocyte/substrate/internal/ids"
)

// SpawnDecision is what a SpawnPolicy returns when it decides a new
// agent should join: which role to spawn, and whose genome (if any) to
// derive it from.
type SpawnDecision struct {
	Spawn  bool
	Kind   agents.Kind
	Parent ids.AgentID // zero value means "spawn from a fresh genome"
}

// SpawnPolicy decides, once per tick, whether the Colony should spawn a
// new agent and of which kind. Implementations never mutate the Colony;
// NextSpawn is given just enough read-only context to decide.
type SpawnPolicy interface {
	NextSpawn(tick uint64, population int, maxAgents int, fitness *FitnessTracker, liveIDs []ids.AgentID) SpawnDecision
}

// NoSpawnPolicy never spawns — a fixed population run entirely from its
// initial seeding, useful for deterministic test corpora and replay.
type NoSpawnPolicy struct{}

func (NoSpawnPolicy) NextSpawn(tick uint64, population, maxAgents int, fitness *FitnessTracker, liveIDs []ids.AgentID) SpawnDecision {
	return SpawnDecision{}
}

// RandomSpawnPolicy spawns a fresh agent of a deterministically
// LCG-chosen kind every interval ticks, up to maxAgents.
type RandomSpawnPolicy struct {
	Interval uint64
	seed     uint64
}

// NewRandomSpawnPolicy seeds the policy's own LCG stream, independent of
// any individual agent's genome seed.
func NewRandomSpawnPolicy(interval uint64, seed uint64) *RandomSpawnPolicy {
	return &RandomSpawnPolicy{Interval: interval, seed: seed}
}

func (p *RandomSpawnPolicy) NextSpawn(tick uint64, population, maxAgents int, fitness *FitnessTracker, liveIDs []ids.AgentID) SpawnDecision {
	if population >= maxAgents {
		return SpawnDecision{}
	}
	if p.Interval == 0 || tick%p.Interval != 0 {
		return SpawnDecision{}
	}
	p.seed = nextSeed(p.seed)
	roll := unitFromSeed(p.seed)
	return SpawnDecision{Spawn: true, Kind: kindFromRoll(roll)}
}

// FitnessSpawnPolicy spawns a mutated child of the fittest live agent
// once its fitness clears a threshold, modeling reproduction of
// successful lineages per phago-agents/src/fitness.rs and
// phago-agents/src/spawn.rs.
type FitnessSpawnPolicy struct {
	Interval  uint64
	Threshold float64
}

// NewFitnessSpawnPolicy constructs a policy evaluated every interval
// ticks.
func NewFitnessSpawnPolicy(interval uint64, threshold float64) *FitnessSpawnPolicy {
	return &FitnessSpawnPolicy{Interval: interval, Threshold: threshold}
}

func (p *FitnessSpawnPolicy) NextSpawn(tick uint64, population, maxAgents int, fitness *FitnessTracker, liveIDs []ids.AgentID) SpawnDecision {
	if population >= maxAgents {
		return SpawnDecision{}
	}
	if p.Interval == 0 || tick%p.Interval != 0 {
		return SpawnDecision{}
	}
	var best ids.AgentID
	bestScore := -1.0
	for _, id := range liveIDs {
		score := fitness.Score(id)
		if score > bestScore {
			best, bestScore = id, score
		}
	}
	if bestScore < p.Threshold {
		return SpawnDecision{}
	}
	return SpawnDecision{Spawn: true, Kind: agents.KindDigester, Parent: best}
}

func kindFromRoll(roll float64) agents.Kind {
	switch {
	case roll < 0.6:
		return agents.KindDigester
	case roll < 0.85:
		return agents.KindSentinel
	default:
		return agents.KindSynthesizer
	}
}

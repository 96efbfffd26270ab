package agents

import (
	"math"

	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/substratetypes"
)

// --- Apoptose ---

// EvaluateHealth ages idleTicks into progressively worse health states,
// following the ladder Healthy -> Stressed -> Compromised/Redundant ->
// Senescent. maxIdle is the digester.max_idle-style threshold; past 2x
// that with no useful output at all, the agent is Senescent outright.
func EvaluateHealth(current substratetypes.CellHealth, idleTicks, usefulOutputs, maxIdle uint64) substratetypes.CellHealth {
	switch {
	case idleTicks >= 2*maxIdle && usefulOutputs == 0:
		return substratetypes.HealthSenescent
	case idleTicks >= maxIdle && usefulOutputs > 0:
		return substratetypes.HealthRedundant
	case idleTicks >= maxIdle:
		return substratetypes.HealthCompromised
	case idleTicks >= maxIdle/2:
		return substratetypes.HealthStressed
	default:
		if current == substratetypes.HealthStressed || current == substratetypes.HealthCompromised {
			// Idle streak broken by useful work: recover one rung rather
			// than snapping straight back to Healthy.
			return substratetypes.HealthStressed
		}
		return substratetypes.HealthHealthy
	}
}

// Apoptose builds the death signal an agent emits the tick it decides to
// die, tagging the cause as self-assessed.
func Apoptose(s State) substratetypes.DeathSignal {
	return substratetypes.DeathSignal{
		AgentID:       s.ID,
		TotalTicks:    s.TicksAlive,
		UsefulOutputs: s.UsefulOutputs,
		Cause: substratetypes.DeathCause{
			Kind:   substratetypes.CauseSelfAssessed,
			Health: s.Health,
		},
	}
}

// --- Dissolve ---

// Permeability computes how open an agent's boundary is to an external
// signal or capability: higher trust and longer accumulated
// reinforcement widen it, age alone narrows it slightly (a long-lived
// agent has a more settled, less permeable boundary), clamped to [0,1].
func Permeability(ctx substratetypes.BoundaryContext) float64 {
	p := ctx.Trust + 0.01*math.Log1p(float64(ctx.ReinforcementCount)) - 0.0005*float64(ctx.Age)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// --- Transfer ---

// EvaluateForeignCapability decides whether to accept a capability
// offered by another agent: rejects a capability whose origin was
// already integrated (double-integration), accepts anything while the
// receiver knows no terms yet, and otherwise accepts if the offered
// vocabulary overlaps the receiver's own known vocabulary by at least
// one term (a capability about a completely disjoint domain is judged
// incompatible).
func EvaluateForeignCapability(accepted map[ids.AgentID]struct{}, known map[string]struct{}, cap substratetypes.Capability) (substratetypes.Compatibility, substratetypes.RejectionReason) {
	if _, dup := accepted[cap.Descriptor.Origin]; dup {
		return substratetypes.CompatibilityReject, substratetypes.RejectionDuplicateOrigin
	}
	if len(known) == 0 {
		return substratetypes.CompatibilityAccept, ""
	}
	for _, term := range cap.Vocabulary {
		if _, ok := known[term]; ok {
			return substratetypes.CompatibilityAccept, ""
		}
	}
	return substratetypes.CompatibilityReject, substratetypes.RejectionIncompatible
}

// --- Stigmerge ---

// Respond decides how an agent reacts to a trace it senses: the agent's
// own traces and any digestion trace are ignored (already acted on),
// importance/capability traces attract when strong (intensity >= 0.5)
// and are deposited over (layering the agent's own presence) when weak,
// and every other trace type is repelled as a dead end.
func Respond(tr substratetypes.Trace, selfID ids.AgentID) substratetypes.StigmergicResponse {
	if tr.AgentID == selfID {
		return substratetypes.ResponseIgnore
	}
	switch tr.Type {
	case substratetypes.TraceImportance, substratetypes.TraceCapabilityDeposit:
		if tr.Intensity >= 0.5 {
			return substratetypes.ResponseAttract
		}
		return substratetypes.ResponseDeposit
	case substratetypes.TraceDigestion:
		return substratetypes.ResponseIgnore
	default:
		return substratetypes.ResponseRepel
	}
}

// FollowGradient turns a Gradient into an Orientation: a strong enough
// signal draws the agent toward it, a very weak one is indistinguishable
// from noise and triggers exploration instead of commitment.
func FollowGradient(g substratetypes.Gradient, attractThreshold float64) substratetypes.Orientation {
	switch {
	case g.Magnitude >= attractThreshold:
		return substratetypes.OrientTowards
	case g.Magnitude <= attractThreshold/4:
		return substratetypes.OrientExplore
	default:
		return substratetypes.OrientStay
	}
}

// --- Symbiose ---

// EvaluateSymbiosis judges another agent's profile against self: a
// peer whose health means it should die (Compromised, Redundant or
// Senescent) is absorbed outright (Digest) whatever its capabilities,
// any other peer offering capabilities self lacks is merged
// (Integrate), anything else is left alone (Coexist).
func EvaluateSymbiosis(self, other substratetypes.AgentProfile) substratetypes.SymbiosisEval {
	if other.Health.ShouldDie() {
		return substratetypes.SymbiosisDigest
	}
	if hasNovelCapability(self.Capabilities, other.Capabilities) {
		return substratetypes.SymbiosisIntegrate
	}
	return substratetypes.SymbiosisCoexist
}

func hasNovelCapability(mine, theirs []substratetypes.CapabilityDescriptor) bool {
	have := make(map[substratetypes.CapabilityID]struct{}, len(mine))
	for _, c := range mine {
		have[c.ID] = struct{}{}
	}
	for _, c := range theirs {
		if _, ok := have[c.ID]; !ok {
			return true
		}
	}
	return false
}

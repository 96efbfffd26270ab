package agents

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/phagocyte/substrate/internal/config"
	"github.com/phagocyte/substrate/internal/geometry"
	"github.com/phagocyte/substrate/internal/ids"
	"github.com/phagocyte/substrate/internal/substrate"
	"github.com/phagocyte/substrate/internal/substratetypes"
)

// insightSelectionSize is N: the number of top-scoring Concept nodes an
// emergence event draws its Insight label from.
const insightSelectionSize = 3

// Synthesizer performs the Emerge primitive: quorum sensing over nearby
// presence signals, generalized from the teacher's bee-colony waggle
// dance / quorum consensus (internal/consensus/quorum.go) from a
// proposal-voting quorum into a spatial density threshold over the
// signal field. Once local signal density exceeds SynthesizerQuorum it
// contributes an Insight node, then enters a cooldown so it doesn't
// spam the same cluster every tick.
type Synthesizer struct {
	state         State
	logger        *zap.Logger
	cooldownUntil substratetypes.Tick
}

// NewSynthesizer constructs a Synthesizer at the given position.
func NewSynthesizer(id ids.AgentID, pos geometry.Position, spawnTick substratetypes.Tick, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		state:  newState(id, KindSynthesizer, pos, spawnTick),
		logger: scopedLogger(logger, id, KindSynthesizer),
	}
}

func (y *Synthesizer) ID() ids.AgentID { return y.state.ID }
func (y *Synthesizer) Kind() Kind      { return KindSynthesizer }
func (y *Synthesizer) State() State    { return y.state }

// Quorum computes the weighted local quorum: Presence and Quorum signals
// within radius of the synthesizer's position contribute their intensity
// as vote weight, and the result is their summed intensity (an absolute
// total, not a supportWeight / totalWeight ratio like
// QuorumSensor.CalculateWeightedQuorum's).
func (y *Synthesizer) Quorum(sub *substrate.Substrate, radius float64) float64 {
	nearby := sub.SignalsNear(y.state.Position, radius)
	if len(nearby) == 0 {
		return 0
	}
	var total float64
	for _, sig := range nearby {
		if sig.Type == substratetypes.SignalPresence || sig.Type == substratetypes.SignalQuorum {
			total += sig.Intensity
		}
	}
	return total
}

// selectTopConcepts ranks every Concept node within radius of the
// synthesizer's position by access_count × mean incident edge weight
// and returns the top n, highest first. A node with no incident edges
// contributes nothing to an emergent cluster and is excluded rather
// than scored zero and kept.
func (y *Synthesizer) selectTopConcepts(sub *substrate.Substrate, radius float64, n int) []substratetypes.NodeData {
	graph := sub.Graph()

	type candidate struct {
		node  substratetypes.NodeData
		score float64
	}
	var candidates []candidate
	for _, id := range graph.AllNodes() {
		node, err := graph.GetNode(id)
		if err != nil || node.Type != substratetypes.NodeConcept {
			continue
		}
		if node.Position.DistanceTo(y.state.Position) > radius {
			continue
		}
		neighbors := graph.Neighbors(id)
		if len(neighbors) == 0 {
			continue
		}
		var weightSum float64
		for _, nb := range neighbors {
			weightSum += nb.Edge.Weight
		}
		meanWeight := weightSum / float64(len(neighbors))
		candidates = append(candidates, candidate{
			node:  node,
			score: float64(node.AccessCount) * meanWeight,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].node.Label < candidates[j].node.Label
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]substratetypes.NodeData, n)
	for i := 0; i < n; i++ {
		out[i] = candidates[i].node
	}
	return out
}

// insightLabel names an Insight node by its contributing concepts' top
// terms, so distinct emergent clusters produce distinct, content-
// derived labels instead of colliding on one generic node. Falls back
// to "insight" when the sense region held no scoreable concept (no
// concepts have wired yet, an edge case rather than the common path).
func insightLabel(top []substratetypes.NodeData) string {
	if len(top) == 0 {
		return "insight"
	}
	terms := make([]string, len(top))
	for i, n := range top {
		terms[i] = n.Label
	}
	return strings.Join(terms, "+")
}

// Act checks whether enough presence signals have accumulated nearby to
// constitute quorum; if so (and cooldown has elapsed) it contributes an
// Insight, otherwise it emits a quorum signal of its own to help nearby
// synthesizers converge, contributing to the same quorum it's measuring.
func (y *Synthesizer) Act(sub *substrate.Substrate, cfg *config.Config, tick substratetypes.Tick) substratetypes.Action {
	y.state.TicksAlive++

	if y.state.Health.ShouldDie() {
		return substratetypes.Action{Kind: substratetypes.ActionApoptose}
	}

	if tick < y.cooldownUntil {
		y.state.IdleTicks++
		return substratetypes.Idle()
	}

	density := y.Quorum(sub, cfg.SynthesizerRadius)
	if density >= cfg.SynthesizerQuorum {
		y.cooldownUntil = tick + cfg.SynthesizerCooldown
		y.state.IdleTicks = 0
		y.state.UsefulOutputs++

		top := y.selectTopConcepts(sub, cfg.SynthesizerRadius, insightSelectionSize)
		label := insightLabel(top)
		y.logger.Debug("quorum reached",
			zap.Float64("density", density),
			zap.String("insight", label),
		)
		return substratetypes.Action{
			Kind: substratetypes.ActionContributeToCollective,
			Fragments: []substratetypes.FragmentPresentation{{
				Label:    label,
				Position: y.state.Position,
				NodeType: substratetypes.NodeInsight,
			}},
		}
	}

	y.state.IdleTicks++
	y.state.Health = EvaluateHealth(y.state.Health, y.state.IdleTicks, y.state.UsefulOutputs, cfg.DigesterMaxIdle)
	return substratetypes.Action{
		Kind: substratetypes.ActionEmit,
		EmitSignal: substratetypes.Signal{
			Type:         substratetypes.SignalQuorum,
			Intensity:    0.1,
			Position:     y.state.Position,
			Emitter:      y.state.ID,
			EmissionTick: tick,
		},
	}
}
